// Package normalize lowers a decoded class file into the ast model.
//
// Member references are resolved through the constant pool with internal
// names converted to dotted form, descriptors are parsed, and every raw
// instruction is lowered by its addressing-mode category and mnemonic.
// An instruction with no lowering fails the whole class with a normalize
// error naming the mnemonic, category and instruction pointer. Switch,
// multianewarray and subroutine instructions decode but do not lower;
// they fail with an unsupported error in the normalize phase.
package normalize
