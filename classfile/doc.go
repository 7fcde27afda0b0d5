// Package classfile decodes the binary JVM class file format into a raw
// record.
//
// Decoding is driven by declarative layouts: each structure (ClassFile,
// field and method info, every constant kind, every known attribute) is a
// Record built once from ordered field steps. Loading pulls fields strictly
// in declaration order, so a bad magic number is reported before a single
// constant pool byte is read, and every failure carries the path of the
// field that failed:
//
//	cf, err := classfile.DecodeBytes(data)
//	if err != nil {
//	    // [load] structural at ClassFile.methods[1].attributes[0].code (offset 412): ...
//	    log.Fatal(err)
//	}
//
// # Constant pool
//
// The pool is 1-indexed. Long and Double entries occupy two slots and the
// second is left nil. Lookups are explicit and fallible:
//
//	name, err := cf.ConstantPool.ClassName(cf.ThisClass)
//	ref, err := cf.ConstantPool.MemberRef(idx)
//
// Index 0, an out-of-range index or a skipped slot returns an out_of_bounds
// error. A constant of the wrong kind returns invalid_class_file.
//
// # Attributes
//
// Attribute payloads are decoded over a cursor limited to attribute_length
// bytes. A payload the layout does not consume exactly is a structural
// error. Names without a layout decode as UnknownAttribute with the raw
// bytes preserved.
//
// # Bytecode
//
// Code attributes are decoded into []Instruction while loading. The opcode
// table maps each byte to a mnemonic and a Category (addressing mode); the
// category fixes operand width. A wide prefix doubles the width of the
// following local-variable, ldc, iinc or branch operand and is then cleared.
// Switch operands are padded to a four byte boundary measured from the
// start of the code array.
package classfile
