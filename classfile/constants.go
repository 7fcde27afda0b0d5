package classfile

// Magic is the leading u4 of every class file.
const Magic = 0xCAFEBABE

// Constant pool tags.
const (
	TagUtf8               uint8 = 1
	TagInteger            uint8 = 3
	TagFloat              uint8 = 4
	TagLong               uint8 = 5
	TagDouble             uint8 = 6
	TagClass              uint8 = 7
	TagString             uint8 = 8
	TagFieldRef           uint8 = 9
	TagMethodRef          uint8 = 10
	TagInterfaceMethodRef uint8 = 11
	TagNameAndType        uint8 = 12
	TagMethodHandle       uint8 = 15
	TagMethodType         uint8 = 16
	TagDynamic            uint8 = 17
	TagInvokeDynamic      uint8 = 18
	TagModule             uint8 = 19
	TagPackage            uint8 = 20
)

// AccessFlags is the u2 modifier bitmask attached to classes, fields and methods.
// Several bits are shared between contexts (0x0020 is ACC_SUPER on a class
// and ACC_SYNCHRONIZED on a method).
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020
	AccSynchronized AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
)

// Has reports whether every bit of flag is set.
func (f AccessFlags) Has(flag AccessFlags) bool {
	return f&flag == flag
}

// Attribute names with a dedicated schema. Anything else decodes as Unknown.
const (
	AttrConstantValue      = "ConstantValue"
	AttrCode               = "Code"
	AttrExceptions         = "Exceptions"
	AttrInnerClasses       = "InnerClasses"
	AttrSourceFile         = "SourceFile"
	AttrLineNumberTable    = "LineNumberTable"
	AttrLocalVariableTable = "LocalVariableTable"
	AttrSynthetic          = "Synthetic"
	AttrDeprecated         = "Deprecated"
	AttrSignature          = "Signature"
	AttrBootstrapMethods   = "BootstrapMethods"
)

// Array type codes used by the newarray instruction.
var NewArrayTypes = map[int32]string{
	4:  "boolean",
	5:  "char",
	6:  "float",
	7:  "double",
	8:  "byte",
	9:  "short",
	10: "int",
	11: "long",
}
