package classfile

import "fmt"

// Category is an instruction's addressing mode. It fixes the operand width
// and how the operand bytes are interpreted.
type Category uint8

const (
	CatReserved Category = iota
	CatNoArgument
	CatSignedByte
	CatSignedShort
	CatIndexedLocalVar
	CatImplicitLocalVar
	CatTypeDescriptor
	CatFieldOrMethod
	CatInterfaceInvoke
	CatLabelOffset
	CatWideLabelOffset
	CatLoadConstant
	CatLoadWideConstant
	CatIntegerIncrement
	CatTableSwitch
	CatLookupSwitch
	CatMultiNewArray
	CatWidePrefix
)

var categoryNames = [...]string{
	CatReserved:         "reserved",
	CatNoArgument:       "no_argument",
	CatSignedByte:       "signed_byte",
	CatSignedShort:      "signed_short",
	CatIndexedLocalVar:  "indexed_local_var",
	CatImplicitLocalVar: "implicit_local_var",
	CatTypeDescriptor:   "type_descriptor",
	CatFieldOrMethod:    "field_or_method",
	CatInterfaceInvoke:  "interface_invoke",
	CatLabelOffset:      "label_offset",
	CatWideLabelOffset:  "wide_label_offset",
	CatLoadConstant:     "load_constant",
	CatLoadWideConstant: "load_wide_constant",
	CatIntegerIncrement: "integer_increment",
	CatTableSwitch:      "table_switch",
	CatLookupSwitch:     "lookup_switch",
	CatMultiNewArray:    "multi_new_array",
	CatWidePrefix:       "wide_prefix",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", c)
}

// Width returns the operand byte count, doubled where the wide prefix
// applies. Switches have a variable width and report -1.
func (c Category) Width(wide bool) int {
	var w int
	switch c {
	case CatNoArgument, CatImplicitLocalVar, CatWidePrefix, CatReserved:
		return 0
	case CatSignedByte:
		return 1
	case CatSignedShort, CatTypeDescriptor, CatFieldOrMethod, CatLoadWideConstant:
		return 2
	case CatMultiNewArray:
		return 3
	case CatInterfaceInvoke, CatWideLabelOffset:
		return 4
	case CatIndexedLocalVar, CatLoadConstant:
		w = 1
	case CatIntegerIncrement, CatLabelOffset:
		w = 2
	default:
		return -1
	}
	if wide {
		w *= 2
	}
	return w
}

// Widens reports whether a preceding wide prefix changes this category.
func (c Category) Widens() bool {
	switch c {
	case CatIndexedLocalVar, CatLoadConstant, CatIntegerIncrement, CatLabelOffset:
		return true
	}
	return false
}

// OpInfo is one opcode table entry.
type OpInfo struct {
	Mnemonic string
	Category Category
}

// Valid reports whether the opcode is assigned.
func (o OpInfo) Valid() bool {
	return o.Category != CatReserved
}

// Opcodes with special handling in the decoder and normalizer.
const (
	OpNop           byte = 0x00
	OpBipush        byte = 0x10
	OpLdc           byte = 0x12
	OpIinc          byte = 0x84
	OpGoto          byte = 0xa7
	OpJsr           byte = 0xa8
	OpRet           byte = 0xa9
	OpTableSwitch   byte = 0xaa
	OpLookupSwitch  byte = 0xab
	OpReturn        byte = 0xb1
	OpInvokeVirtual byte = 0xb6
	OpInvokeSpecial byte = 0xb7
	OpInvokeStatic  byte = 0xb8
	OpInvokeDynamic byte = 0xba
	OpNew           byte = 0xbb
	OpNewArray      byte = 0xbc
	OpWide          byte = 0xc4
	OpMultiNewArray byte = 0xc5
	OpGotoW         byte = 0xc8
	OpJsrW          byte = 0xc9
)

// Opcode table indexed by opcode byte. 0xcb through 0xfd are reserved.
var opcodes = [256]OpInfo{
	0x00: {"nop", CatNoArgument},
	0x01: {"aconst_null", CatNoArgument},
	0x02: {"iconst_m1", CatNoArgument},
	0x03: {"iconst_0", CatNoArgument},
	0x04: {"iconst_1", CatNoArgument},
	0x05: {"iconst_2", CatNoArgument},
	0x06: {"iconst_3", CatNoArgument},
	0x07: {"iconst_4", CatNoArgument},
	0x08: {"iconst_5", CatNoArgument},
	0x09: {"lconst_0", CatNoArgument},
	0x0a: {"lconst_1", CatNoArgument},
	0x0b: {"fconst_0", CatNoArgument},
	0x0c: {"fconst_1", CatNoArgument},
	0x0d: {"fconst_2", CatNoArgument},
	0x0e: {"dconst_0", CatNoArgument},
	0x0f: {"dconst_1", CatNoArgument},
	0x10: {"bipush", CatSignedByte},
	0x11: {"sipush", CatSignedShort},
	0x12: {"ldc", CatLoadConstant},
	0x13: {"ldc_w", CatLoadWideConstant},
	0x14: {"ldc2_w", CatLoadWideConstant},
	0x15: {"iload", CatIndexedLocalVar},
	0x16: {"lload", CatIndexedLocalVar},
	0x17: {"fload", CatIndexedLocalVar},
	0x18: {"dload", CatIndexedLocalVar},
	0x19: {"aload", CatIndexedLocalVar},
	0x1a: {"iload_0", CatImplicitLocalVar},
	0x1b: {"iload_1", CatImplicitLocalVar},
	0x1c: {"iload_2", CatImplicitLocalVar},
	0x1d: {"iload_3", CatImplicitLocalVar},
	0x1e: {"lload_0", CatImplicitLocalVar},
	0x1f: {"lload_1", CatImplicitLocalVar},
	0x20: {"lload_2", CatImplicitLocalVar},
	0x21: {"lload_3", CatImplicitLocalVar},
	0x22: {"fload_0", CatImplicitLocalVar},
	0x23: {"fload_1", CatImplicitLocalVar},
	0x24: {"fload_2", CatImplicitLocalVar},
	0x25: {"fload_3", CatImplicitLocalVar},
	0x26: {"dload_0", CatImplicitLocalVar},
	0x27: {"dload_1", CatImplicitLocalVar},
	0x28: {"dload_2", CatImplicitLocalVar},
	0x29: {"dload_3", CatImplicitLocalVar},
	0x2a: {"aload_0", CatImplicitLocalVar},
	0x2b: {"aload_1", CatImplicitLocalVar},
	0x2c: {"aload_2", CatImplicitLocalVar},
	0x2d: {"aload_3", CatImplicitLocalVar},
	0x2e: {"iaload", CatNoArgument},
	0x2f: {"laload", CatNoArgument},
	0x30: {"faload", CatNoArgument},
	0x31: {"daload", CatNoArgument},
	0x32: {"aaload", CatNoArgument},
	0x33: {"baload", CatNoArgument},
	0x34: {"caload", CatNoArgument},
	0x35: {"saload", CatNoArgument},
	0x36: {"istore", CatIndexedLocalVar},
	0x37: {"lstore", CatIndexedLocalVar},
	0x38: {"fstore", CatIndexedLocalVar},
	0x39: {"dstore", CatIndexedLocalVar},
	0x3a: {"astore", CatIndexedLocalVar},
	0x3b: {"istore_0", CatImplicitLocalVar},
	0x3c: {"istore_1", CatImplicitLocalVar},
	0x3d: {"istore_2", CatImplicitLocalVar},
	0x3e: {"istore_3", CatImplicitLocalVar},
	0x3f: {"lstore_0", CatImplicitLocalVar},
	0x40: {"lstore_1", CatImplicitLocalVar},
	0x41: {"lstore_2", CatImplicitLocalVar},
	0x42: {"lstore_3", CatImplicitLocalVar},
	0x43: {"fstore_0", CatImplicitLocalVar},
	0x44: {"fstore_1", CatImplicitLocalVar},
	0x45: {"fstore_2", CatImplicitLocalVar},
	0x46: {"fstore_3", CatImplicitLocalVar},
	0x47: {"dstore_0", CatImplicitLocalVar},
	0x48: {"dstore_1", CatImplicitLocalVar},
	0x49: {"dstore_2", CatImplicitLocalVar},
	0x4a: {"dstore_3", CatImplicitLocalVar},
	0x4b: {"astore_0", CatImplicitLocalVar},
	0x4c: {"astore_1", CatImplicitLocalVar},
	0x4d: {"astore_2", CatImplicitLocalVar},
	0x4e: {"astore_3", CatImplicitLocalVar},
	0x4f: {"iastore", CatNoArgument},
	0x50: {"lastore", CatNoArgument},
	0x51: {"fastore", CatNoArgument},
	0x52: {"dastore", CatNoArgument},
	0x53: {"aastore", CatNoArgument},
	0x54: {"bastore", CatNoArgument},
	0x55: {"castore", CatNoArgument},
	0x56: {"sastore", CatNoArgument},
	0x57: {"pop", CatNoArgument},
	0x58: {"pop2", CatNoArgument},
	0x59: {"dup", CatNoArgument},
	0x5a: {"dup_x1", CatNoArgument},
	0x5b: {"dup_x2", CatNoArgument},
	0x5c: {"dup2", CatNoArgument},
	0x5d: {"dup2_x1", CatNoArgument},
	0x5e: {"dup2_x2", CatNoArgument},
	0x5f: {"swap", CatNoArgument},
	0x60: {"iadd", CatNoArgument},
	0x61: {"ladd", CatNoArgument},
	0x62: {"fadd", CatNoArgument},
	0x63: {"dadd", CatNoArgument},
	0x64: {"isub", CatNoArgument},
	0x65: {"lsub", CatNoArgument},
	0x66: {"fsub", CatNoArgument},
	0x67: {"dsub", CatNoArgument},
	0x68: {"imul", CatNoArgument},
	0x69: {"lmul", CatNoArgument},
	0x6a: {"fmul", CatNoArgument},
	0x6b: {"dmul", CatNoArgument},
	0x6c: {"idiv", CatNoArgument},
	0x6d: {"ldiv", CatNoArgument},
	0x6e: {"fdiv", CatNoArgument},
	0x6f: {"ddiv", CatNoArgument},
	0x70: {"irem", CatNoArgument},
	0x71: {"lrem", CatNoArgument},
	0x72: {"frem", CatNoArgument},
	0x73: {"drem", CatNoArgument},
	0x74: {"ineg", CatNoArgument},
	0x75: {"lneg", CatNoArgument},
	0x76: {"fneg", CatNoArgument},
	0x77: {"dneg", CatNoArgument},
	0x78: {"ishl", CatNoArgument},
	0x79: {"lshl", CatNoArgument},
	0x7a: {"ishr", CatNoArgument},
	0x7b: {"lshr", CatNoArgument},
	0x7c: {"iushr", CatNoArgument},
	0x7d: {"lushr", CatNoArgument},
	0x7e: {"iand", CatNoArgument},
	0x7f: {"land", CatNoArgument},
	0x80: {"ior", CatNoArgument},
	0x81: {"lor", CatNoArgument},
	0x82: {"ixor", CatNoArgument},
	0x83: {"lxor", CatNoArgument},
	0x84: {"iinc", CatIntegerIncrement},
	0x85: {"i2l", CatNoArgument},
	0x86: {"i2f", CatNoArgument},
	0x87: {"i2d", CatNoArgument},
	0x88: {"l2i", CatNoArgument},
	0x89: {"l2f", CatNoArgument},
	0x8a: {"l2d", CatNoArgument},
	0x8b: {"f2i", CatNoArgument},
	0x8c: {"f2l", CatNoArgument},
	0x8d: {"f2d", CatNoArgument},
	0x8e: {"d2i", CatNoArgument},
	0x8f: {"d2l", CatNoArgument},
	0x90: {"d2f", CatNoArgument},
	0x91: {"i2b", CatNoArgument},
	0x92: {"i2c", CatNoArgument},
	0x93: {"i2s", CatNoArgument},
	0x94: {"lcmp", CatNoArgument},
	0x95: {"fcmpl", CatNoArgument},
	0x96: {"fcmpg", CatNoArgument},
	0x97: {"dcmpl", CatNoArgument},
	0x98: {"dcmpg", CatNoArgument},
	0x99: {"ifeq", CatLabelOffset},
	0x9a: {"ifne", CatLabelOffset},
	0x9b: {"iflt", CatLabelOffset},
	0x9c: {"ifge", CatLabelOffset},
	0x9d: {"ifgt", CatLabelOffset},
	0x9e: {"ifle", CatLabelOffset},
	0x9f: {"if_icmpeq", CatLabelOffset},
	0xa0: {"if_icmpne", CatLabelOffset},
	0xa1: {"if_icmplt", CatLabelOffset},
	0xa2: {"if_icmpge", CatLabelOffset},
	0xa3: {"if_icmpgt", CatLabelOffset},
	0xa4: {"if_icmple", CatLabelOffset},
	0xa5: {"if_acmpeq", CatLabelOffset},
	0xa6: {"if_acmpne", CatLabelOffset},
	0xa7: {"goto", CatLabelOffset},
	0xa8: {"jsr", CatLabelOffset},
	0xa9: {"ret", CatIndexedLocalVar},
	0xaa: {"tableswitch", CatTableSwitch},
	0xab: {"lookupswitch", CatLookupSwitch},
	0xac: {"ireturn", CatNoArgument},
	0xad: {"lreturn", CatNoArgument},
	0xae: {"freturn", CatNoArgument},
	0xaf: {"dreturn", CatNoArgument},
	0xb0: {"areturn", CatNoArgument},
	0xb1: {"return", CatNoArgument},
	0xb2: {"getstatic", CatFieldOrMethod},
	0xb3: {"putstatic", CatFieldOrMethod},
	0xb4: {"getfield", CatFieldOrMethod},
	0xb5: {"putfield", CatFieldOrMethod},
	0xb6: {"invokevirtual", CatFieldOrMethod},
	0xb7: {"invokespecial", CatFieldOrMethod},
	0xb8: {"invokestatic", CatFieldOrMethod},
	0xb9: {"invokeinterface", CatInterfaceInvoke},
	0xba: {"invokedynamic", CatInterfaceInvoke},
	0xbb: {"new", CatTypeDescriptor},
	0xbc: {"newarray", CatSignedByte},
	0xbd: {"anewarray", CatTypeDescriptor},
	0xbe: {"arraylength", CatNoArgument},
	0xbf: {"athrow", CatNoArgument},
	0xc0: {"checkcast", CatTypeDescriptor},
	0xc1: {"instanceof", CatTypeDescriptor},
	0xc2: {"monitorenter", CatNoArgument},
	0xc3: {"monitorexit", CatNoArgument},
	0xc4: {"wide", CatWidePrefix},
	0xc5: {"multianewarray", CatMultiNewArray},
	0xc6: {"ifnull", CatLabelOffset},
	0xc7: {"ifnonnull", CatLabelOffset},
	0xc8: {"goto_w", CatWideLabelOffset},
	0xc9: {"jsr_w", CatWideLabelOffset},
	0xca: {"breakpoint", CatNoArgument},
	0xfe: {"impdep1", CatNoArgument},
	0xff: {"impdep2", CatNoArgument},
}

// Lookup returns the table entry for an opcode byte.
func Lookup(op byte) OpInfo {
	return opcodes[op]
}

// ByMnemonic finds an opcode by name.
func ByMnemonic(name string) (byte, bool) {
	op, ok := mnemonicIndex[name]
	return op, ok
}

var mnemonicIndex = func() map[string]byte {
	m := make(map[string]byte)
	for i, info := range opcodes {
		if info.Valid() {
			m[info.Mnemonic] = byte(i)
		}
	}
	return m
}()
