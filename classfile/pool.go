package classfile

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/charm/classfile/internal/binary"
	charmerrors "github.com/wippyai/charm/errors"
)

// Constant is one constant pool entry.
type Constant interface {
	Tag() uint8
}

// Utf8Constant holds a decoded modified-UTF-8 string.
type Utf8Constant struct {
	Raw   []byte `yaml:"-"`
	Value string `yaml:"value"`
}

// IntegerConstant is a CONSTANT_Integer; Value reinterprets Bytes as signed.
type IntegerConstant struct {
	Bytes uint32 `yaml:"bytes"`
	Value int32  `yaml:"value"`
}

// FloatConstant is a CONSTANT_Float holding IEEE 754 bits.
type FloatConstant struct {
	Bytes uint32  `yaml:"bytes"`
	Value float32 `yaml:"value"`
}

// LongConstant is a CONSTANT_Long. It occupies two pool slots.
type LongConstant struct {
	HighBytes uint32 `yaml:"high_bytes"`
	LowBytes  uint32 `yaml:"low_bytes"`
	Value     int64  `yaml:"value"`
}

// DoubleConstant is a CONSTANT_Double. It occupies two pool slots.
type DoubleConstant struct {
	HighBytes uint32  `yaml:"high_bytes"`
	LowBytes  uint32  `yaml:"low_bytes"`
	Value     float64 `yaml:"value"`
}

// ClassConstant names a class or interface in internal form.
type ClassConstant struct {
	NameIndex uint16 `yaml:"name_index"`
}

// StringConstant is a java.lang.String literal.
type StringConstant struct {
	StringIndex uint16 `yaml:"string_index"`
}

// FieldRefConstant references a field of the class at ClassIndex.
type FieldRefConstant struct {
	ClassIndex       uint16 `yaml:"class_index"`
	NameAndTypeIndex uint16 `yaml:"name_and_type_index"`
}

// MethodRefConstant references a class method.
type MethodRefConstant struct {
	ClassIndex       uint16 `yaml:"class_index"`
	NameAndTypeIndex uint16 `yaml:"name_and_type_index"`
}

// InterfaceMethodRefConstant references an interface method.
type InterfaceMethodRefConstant struct {
	ClassIndex       uint16 `yaml:"class_index"`
	NameAndTypeIndex uint16 `yaml:"name_and_type_index"`
}

// NameAndTypeConstant pairs a member name with its descriptor.
type NameAndTypeConstant struct {
	NameIndex       uint16 `yaml:"name_index"`
	DescriptorIndex uint16 `yaml:"descriptor_index"`
}

// MethodHandleConstant is a method handle; ReferenceKind is 1 through 9.
type MethodHandleConstant struct {
	ReferenceKind  uint8  `yaml:"reference_kind"`
	ReferenceIndex uint16 `yaml:"reference_index"`
}

// MethodTypeConstant holds a method descriptor.
type MethodTypeConstant struct {
	DescriptorIndex uint16 `yaml:"descriptor_index"`
}

// DynamicConstant is a dynamically computed constant (condy).
type DynamicConstant struct {
	BootstrapMethodAttrIndex uint16 `yaml:"bootstrap_method_attr_index"`
	NameAndTypeIndex         uint16 `yaml:"name_and_type_index"`
}

// InvokeDynamicConstant is the call site operand of invokedynamic.
type InvokeDynamicConstant struct {
	BootstrapMethodAttrIndex uint16 `yaml:"bootstrap_method_attr_index"`
	NameAndTypeIndex         uint16 `yaml:"name_and_type_index"`
}

// ModuleConstant names a module (module-info only).
type ModuleConstant struct {
	NameIndex uint16 `yaml:"name_index"`
}

// PackageConstant names a package exported or opened by a module.
type PackageConstant struct {
	NameIndex uint16 `yaml:"name_index"`
}

func (*Utf8Constant) Tag() uint8               { return TagUtf8 }
func (*IntegerConstant) Tag() uint8            { return TagInteger }
func (*FloatConstant) Tag() uint8              { return TagFloat }
func (*LongConstant) Tag() uint8               { return TagLong }
func (*DoubleConstant) Tag() uint8             { return TagDouble }
func (*ClassConstant) Tag() uint8              { return TagClass }
func (*StringConstant) Tag() uint8             { return TagString }
func (*FieldRefConstant) Tag() uint8           { return TagFieldRef }
func (*MethodRefConstant) Tag() uint8          { return TagMethodRef }
func (*InterfaceMethodRefConstant) Tag() uint8 { return TagInterfaceMethodRef }
func (*NameAndTypeConstant) Tag() uint8        { return TagNameAndType }
func (*MethodHandleConstant) Tag() uint8       { return TagMethodHandle }
func (*MethodTypeConstant) Tag() uint8         { return TagMethodType }
func (*DynamicConstant) Tag() uint8            { return TagDynamic }
func (*InvokeDynamicConstant) Tag() uint8      { return TagInvokeDynamic }
func (*ModuleConstant) Tag() uint8             { return TagModule }
func (*PackageConstant) Tag() uint8            { return TagPackage }

var tagNames = map[uint8]string{
	TagUtf8:               "Utf8",
	TagInteger:            "Integer",
	TagFloat:              "Float",
	TagLong:               "Long",
	TagDouble:             "Double",
	TagClass:              "Class",
	TagString:             "String",
	TagFieldRef:           "FieldRef",
	TagMethodRef:          "MethodRef",
	TagInterfaceMethodRef: "InterfaceMethodRef",
	TagNameAndType:        "NameAndType",
	TagMethodHandle:       "MethodHandle",
	TagMethodType:         "MethodType",
	TagDynamic:            "Dynamic",
	TagInvokeDynamic:      "InvokeDynamic",
	TagModule:             "Module",
	TagPackage:            "Package",
}

// TagName returns the constant kind name for tag.
func TagName(tag uint8) string {
	if n, ok := tagNames[tag]; ok {
		return n
	}
	return fmt.Sprintf("tag(%d)", tag)
}

var utf8Record = NewRecord[Utf8Constant]("Utf8").
	Blob("bytes", 2, func(c *Utf8Constant) *[]byte { return &c.Raw }, decodeUtf8)

var integerRecord = NewRecord[IntegerConstant]("Integer").
	U4("bytes", func(c *IntegerConstant) *uint32 { return &c.Bytes }, func(_ *Context, c *IntegerConstant) error {
		c.Value = int32(c.Bytes)
		return nil
	})

var floatRecord = NewRecord[FloatConstant]("Float").
	U4("bytes", func(c *FloatConstant) *uint32 { return &c.Bytes }, func(_ *Context, c *FloatConstant) error {
		c.Value = math.Float32frombits(c.Bytes)
		return nil
	})

var longRecord = NewRecord[LongConstant]("Long").
	U4("high_bytes", func(c *LongConstant) *uint32 { return &c.HighBytes }).
	U4("low_bytes", func(c *LongConstant) *uint32 { return &c.LowBytes }, func(_ *Context, c *LongConstant) error {
		c.Value = int64(uint64(c.HighBytes)<<32 | uint64(c.LowBytes))
		return nil
	})

var doubleRecord = NewRecord[DoubleConstant]("Double").
	U4("high_bytes", func(c *DoubleConstant) *uint32 { return &c.HighBytes }).
	U4("low_bytes", func(c *DoubleConstant) *uint32 { return &c.LowBytes }, func(_ *Context, c *DoubleConstant) error {
		c.Value = math.Float64frombits(uint64(c.HighBytes)<<32 | uint64(c.LowBytes))
		return nil
	})

var classRecord = NewRecord[ClassConstant]("Class").
	U2("name_index", func(c *ClassConstant) *uint16 { return &c.NameIndex })

var stringRecord = NewRecord[StringConstant]("String").
	U2("string_index", func(c *StringConstant) *uint16 { return &c.StringIndex })

var fieldRefRecord = NewRecord[FieldRefConstant]("FieldRef").
	U2("class_index", func(c *FieldRefConstant) *uint16 { return &c.ClassIndex }).
	U2("name_and_type_index", func(c *FieldRefConstant) *uint16 { return &c.NameAndTypeIndex })

var methodRefRecord = NewRecord[MethodRefConstant]("MethodRef").
	U2("class_index", func(c *MethodRefConstant) *uint16 { return &c.ClassIndex }).
	U2("name_and_type_index", func(c *MethodRefConstant) *uint16 { return &c.NameAndTypeIndex })

var interfaceMethodRefRecord = NewRecord[InterfaceMethodRefConstant]("InterfaceMethodRef").
	U2("class_index", func(c *InterfaceMethodRefConstant) *uint16 { return &c.ClassIndex }).
	U2("name_and_type_index", func(c *InterfaceMethodRefConstant) *uint16 { return &c.NameAndTypeIndex })

var nameAndTypeRecord = NewRecord[NameAndTypeConstant]("NameAndType").
	U2("name_index", func(c *NameAndTypeConstant) *uint16 { return &c.NameIndex }).
	U2("descriptor_index", func(c *NameAndTypeConstant) *uint16 { return &c.DescriptorIndex })

var methodHandleRecord = NewRecord[MethodHandleConstant]("MethodHandle").
	U1("reference_kind", func(c *MethodHandleConstant) *uint8 { return &c.ReferenceKind }).
	U2("reference_index", func(c *MethodHandleConstant) *uint16 { return &c.ReferenceIndex })

var methodTypeRecord = NewRecord[MethodTypeConstant]("MethodType").
	U2("descriptor_index", func(c *MethodTypeConstant) *uint16 { return &c.DescriptorIndex })

var dynamicRecord = NewRecord[DynamicConstant]("Dynamic").
	U2("bootstrap_method_attr_index", func(c *DynamicConstant) *uint16 { return &c.BootstrapMethodAttrIndex }).
	U2("name_and_type_index", func(c *DynamicConstant) *uint16 { return &c.NameAndTypeIndex })

var invokeDynamicRecord = NewRecord[InvokeDynamicConstant]("InvokeDynamic").
	U2("bootstrap_method_attr_index", func(c *InvokeDynamicConstant) *uint16 { return &c.BootstrapMethodAttrIndex }).
	U2("name_and_type_index", func(c *InvokeDynamicConstant) *uint16 { return &c.NameAndTypeIndex })

var moduleRecord = NewRecord[ModuleConstant]("Module").
	U2("name_index", func(c *ModuleConstant) *uint16 { return &c.NameIndex })

var packageRecord = NewRecord[PackageConstant]("Package").
	U2("name_index", func(c *PackageConstant) *uint16 { return &c.NameIndex })

func decodeUtf8(_ *Context, c *Utf8Constant) error {
	s, err := binary.DecodeModifiedUTF8(c.Raw)
	if err != nil {
		return err
	}
	c.Value = s
	return nil
}

type constantLoader func(*Context) (Constant, error)

func loaderOf[T any, P interface {
	*T
	Constant
}](rec *Record[T]) constantLoader {
	return func(ctx *Context) (Constant, error) {
		v, err := rec.Load(ctx)
		if err != nil {
			return nil, err
		}
		return P(v), nil
	}
}

var constantLoaders = map[uint8]constantLoader{
	TagUtf8:               loaderOf(utf8Record),
	TagInteger:            loaderOf(integerRecord),
	TagFloat:              loaderOf(floatRecord),
	TagLong:               loaderOf(longRecord),
	TagDouble:             loaderOf(doubleRecord),
	TagClass:              loaderOf(classRecord),
	TagString:             loaderOf(stringRecord),
	TagFieldRef:           loaderOf(fieldRefRecord),
	TagMethodRef:          loaderOf(methodRefRecord),
	TagInterfaceMethodRef: loaderOf(interfaceMethodRefRecord),
	TagNameAndType:        loaderOf(nameAndTypeRecord),
	TagMethodHandle:       loaderOf(methodHandleRecord),
	TagMethodType:         loaderOf(methodTypeRecord),
	TagDynamic:            loaderOf(dynamicRecord),
	TagInvokeDynamic:      loaderOf(invokeDynamicRecord),
	TagModule:             loaderOf(moduleRecord),
	TagPackage:            loaderOf(packageRecord),
}

func loadConstant(ctx *Context) (Constant, error) {
	start := ctx.Offset()
	tag, err := ctx.r.ReadU1()
	if err != nil {
		return nil, err
	}
	load, ok := constantLoaders[tag]
	if !ok {
		return nil, charmerrors.New(charmerrors.PhaseLoad, charmerrors.KindInvalidClassFile).
			Offset(start).
			Value(tag).
			Detail("unknown constant tag %d", tag).
			Build()
	}
	return load(ctx)
}

// loadConstantPool reads constant_pool_count and count-1 entries. An entry
// of 8-byte kind (Long, Double) consumes the following index, which stays
// nil.
func loadConstantPool(ctx *Context, cf *ClassFile) error {
	start := ctx.Offset()
	count, err := ctx.r.ReadU2()
	if err != nil {
		return err
	}
	if count == 0 {
		return charmerrors.Structural(nil, start, "constant_pool_count must be at least 1", nil)
	}

	pool := make(ConstantPool, count)
	for i := 1; i < int(count); i++ {
		c, err := loadConstant(ctx)
		if err != nil {
			return &elemError{index: i, err: err}
		}
		pool[i] = c
		if isWide(c) {
			i++
		}
	}

	cf.ConstantPool = pool
	ctx.pool = pool
	Logger().Debug("constant pool loaded", zap.Int("count", int(count)))
	return nil
}

func isWide(c Constant) bool {
	t := c.Tag()
	return t == TagLong || t == TagDouble
}

// ConstantPool is the 1-indexed constant table; slot 0 and the slot after
// each Long or Double are nil.
type ConstantPool []Constant

// Len returns constant_pool_count.
func (p ConstantPool) Len() int {
	return len(p)
}

// Entry returns the constant at index.
func (p ConstantPool) Entry(index uint16) (Constant, error) {
	i := int(index)
	if i <= 0 || i >= len(p) {
		return nil, charmerrors.OutOfBounds(charmerrors.PhasePool, nil, i, len(p))
	}
	if p[i] == nil {
		return nil, charmerrors.New(charmerrors.PhasePool, charmerrors.KindOutOfBounds).
			Value(i).
			Detail("index %d is the unusable slot after an 8-byte constant", i).
			Build()
	}
	return p[i], nil
}

func entryAs[T Constant](p ConstantPool, index uint16, want uint8) (T, error) {
	var zero T
	c, err := p.Entry(index)
	if err != nil {
		return zero, err
	}
	v, ok := c.(T)
	if !ok {
		return zero, charmerrors.InvalidClassFile(charmerrors.PhasePool,
			fmt.Sprintf("constant #%d is %s, want %s", index, TagName(c.Tag()), TagName(want)), int(index))
	}
	return v, nil
}

// Utf8 returns the string held by a Utf8 constant.
func (p ConstantPool) Utf8(index uint16) (string, error) {
	c, err := entryAs[*Utf8Constant](p, index, TagUtf8)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// ClassName returns the internal (slash separated) name of a Class constant.
func (p ConstantPool) ClassName(index uint16) (string, error) {
	c, err := entryAs[*ClassConstant](p, index, TagClass)
	if err != nil {
		return "", err
	}
	return p.Utf8(c.NameIndex)
}

// NameAndType resolves a NameAndType constant.
func (p ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	c, err := entryAs[*NameAndTypeConstant](p, index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = p.Utf8(c.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = p.Utf8(c.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// String returns the text of a String constant.
func (p ConstantPool) String(index uint16) (string, error) {
	c, err := entryAs[*StringConstant](p, index, TagString)
	if err != nil {
		return "", err
	}
	return p.Utf8(c.StringIndex)
}

// MemberRef is a resolved field, method or interface method reference.
type MemberRef struct {
	Class      string
	Name       string
	Descriptor string
	Tag        uint8
}

// MemberRef resolves a FieldRef, MethodRef or InterfaceMethodRef constant.
func (p ConstantPool) MemberRef(index uint16) (MemberRef, error) {
	c, err := p.Entry(index)
	if err != nil {
		return MemberRef{}, err
	}

	var classIndex, natIndex uint16
	switch ref := c.(type) {
	case *FieldRefConstant:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	case *MethodRefConstant:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	case *InterfaceMethodRefConstant:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	default:
		return MemberRef{}, charmerrors.InvalidClassFile(charmerrors.PhasePool,
			fmt.Sprintf("constant #%d is %s, want a member reference", index, TagName(c.Tag())), int(index))
	}

	owner, err := p.ClassName(classIndex)
	if err != nil {
		return MemberRef{}, err
	}
	name, desc, err := p.NameAndType(natIndex)
	if err != nil {
		return MemberRef{}, err
	}
	return MemberRef{Tag: c.Tag(), Class: owner, Name: name, Descriptor: desc}, nil
}

// InvokeDynamic resolves the call-site name and descriptor of an
// InvokeDynamic constant along with its bootstrap method index.
func (p ConstantPool) InvokeDynamic(index uint16) (name, descriptor string, bootstrap uint16, err error) {
	c, err := entryAs[*InvokeDynamicConstant](p, index, TagInvokeDynamic)
	if err != nil {
		return "", "", 0, err
	}
	name, descriptor, err = p.NameAndType(c.NameAndTypeIndex)
	return name, descriptor, c.BootstrapMethodAttrIndex, err
}
