// Package ast is the semantic model a decoded class file is normalized
// into: types, modifiers, classes and their members, and typed
// instructions with shared local variable identities.
//
// Types come from descriptors or from an opcode's type prefix letter:
//
//	t, _ := ast.ParseFieldDescriptor("[[I")               // int[][]
//	mt, _ := ast.ParseMethodDescriptor("(Ljava/lang/String;I)V")
//	it, _ := ast.FromCode('i')                            // int
//
// Modifier lists are ordered; their order is the rendering order.
package ast
