package classfile

import (
	"go.uber.org/zap"

	charmerrors "github.com/wippyai/charm/errors"
)

// Attribute is a decoded attribute_info payload.
type Attribute interface {
	AttributeName() string
}

// ConstantValueAttribute is the initial value of a static field.
type ConstantValueAttribute struct {
	ConstantValueIndex uint16 `yaml:"constantvalue_index"`
}

// CodeAttribute is a method body. Instructions is decoded from Code during
// loading.
type CodeAttribute struct {
	Code           []byte             `yaml:"-"`
	Instructions   []Instruction      `yaml:"instructions"`
	ExceptionTable []ExceptionHandler `yaml:"exception_table"`
	Attributes     []Attribute        `yaml:"attributes"`
	MaxStack       uint16             `yaml:"max_stack"`
	MaxLocals      uint16             `yaml:"max_locals"`
}

// ExceptionHandler is one exception_table row; CatchType 0 catches everything.
type ExceptionHandler struct {
	StartPC   uint16 `yaml:"start_pc"`
	EndPC     uint16 `yaml:"end_pc"`
	HandlerPC uint16 `yaml:"handler_pc"`
	CatchType uint16 `yaml:"catch_type"`
}

// ExceptionsAttribute lists the checked exceptions a method declares.
type ExceptionsAttribute struct {
	ExceptionIndexTable []uint16 `yaml:"exception_index_table"`
}

// InnerClassesAttribute lists nested classes the class refers to.
type InnerClassesAttribute struct {
	Classes []InnerClass `yaml:"classes"`
}

// InnerClass is one InnerClasses entry.
type InnerClass struct {
	InnerClassInfoIndex   uint16      `yaml:"inner_class_info_index"`
	OuterClassInfoIndex   uint16      `yaml:"outer_class_info_index"`
	InnerNameIndex        uint16      `yaml:"inner_name_index"`
	InnerClassAccessFlags AccessFlags `yaml:"inner_class_access_flags"`
}

// SourceFileAttribute names the source file the class was compiled from.
type SourceFileAttribute struct {
	SourceFileIndex uint16 `yaml:"sourcefile_index"`
}

// LineNumberTableAttribute maps code offsets to source lines.
type LineNumberTableAttribute struct {
	Entries []LineNumber `yaml:"line_number_table"`
}

// LineNumber starts line LineNumber at code offset StartPC.
type LineNumber struct {
	StartPC    uint16 `yaml:"start_pc"`
	LineNumber uint16 `yaml:"line_number"`
}

// LocalVariableTableAttribute is debug info naming local slots.
type LocalVariableTableAttribute struct {
	Entries []LocalVariable `yaml:"local_variable_table"`
}

// LocalVariable names slot Index over [StartPC, StartPC+Length).
type LocalVariable struct {
	StartPC         uint16 `yaml:"start_pc"`
	Length          uint16 `yaml:"length"`
	NameIndex       uint16 `yaml:"name_index"`
	DescriptorIndex uint16 `yaml:"descriptor_index"`
	Index           uint16 `yaml:"index"`
}

// SyntheticAttribute marks a member not present in source.
type SyntheticAttribute struct{}

// DeprecatedAttribute marks a deprecated class or member.
type DeprecatedAttribute struct{}

// SignatureAttribute holds the generic signature.
type SignatureAttribute struct {
	SignatureIndex uint16 `yaml:"signature_index"`
}

// BootstrapMethodsAttribute is the bootstrap table used by invokedynamic and dynamic constants.
type BootstrapMethodsAttribute struct {
	Methods []BootstrapMethod `yaml:"bootstrap_methods"`
}

// BootstrapMethod is a method handle reference with its static arguments.
type BootstrapMethod struct {
	MethodRef uint16   `yaml:"bootstrap_method_ref"`
	Arguments []uint16 `yaml:"bootstrap_arguments"`
}

// UnknownAttribute keeps the payload of an attribute without a schema.
type UnknownAttribute struct {
	Name string `yaml:"name"`
	Info []byte `yaml:"info"`
}

func (*ConstantValueAttribute) AttributeName() string      { return AttrConstantValue }
func (*CodeAttribute) AttributeName() string               { return AttrCode }
func (*ExceptionsAttribute) AttributeName() string         { return AttrExceptions }
func (*InnerClassesAttribute) AttributeName() string       { return AttrInnerClasses }
func (*SourceFileAttribute) AttributeName() string         { return AttrSourceFile }
func (*LineNumberTableAttribute) AttributeName() string    { return AttrLineNumberTable }
func (*LocalVariableTableAttribute) AttributeName() string { return AttrLocalVariableTable }
func (*SyntheticAttribute) AttributeName() string          { return AttrSynthetic }
func (*DeprecatedAttribute) AttributeName() string         { return AttrDeprecated }
func (*SignatureAttribute) AttributeName() string          { return AttrSignature }
func (*BootstrapMethodsAttribute) AttributeName() string   { return AttrBootstrapMethods }
func (a *UnknownAttribute) AttributeName() string          { return a.Name }

var constantValueRecord = NewRecord[ConstantValueAttribute](AttrConstantValue).
	U2("constantvalue_index", func(a *ConstantValueAttribute) *uint16 { return &a.ConstantValueIndex })

var exceptionHandlerRecord = NewRecord[ExceptionHandler]("ExceptionHandler").
	U2("start_pc", func(e *ExceptionHandler) *uint16 { return &e.StartPC }).
	U2("end_pc", func(e *ExceptionHandler) *uint16 { return &e.EndPC }).
	U2("handler_pc", func(e *ExceptionHandler) *uint16 { return &e.HandlerPC }).
	U2("catch_type", func(e *ExceptionHandler) *uint16 { return &e.CatchType })

var exceptionsRecord = NewRecord[ExceptionsAttribute](AttrExceptions).
	Field("exception_index_table", U2Array(func(a *ExceptionsAttribute) *[]uint16 { return &a.ExceptionIndexTable }))

var innerClassRecord = NewRecord[InnerClass]("InnerClass").
	U2("inner_class_info_index", func(c *InnerClass) *uint16 { return &c.InnerClassInfoIndex }).
	U2("outer_class_info_index", func(c *InnerClass) *uint16 { return &c.OuterClassInfoIndex }).
	U2("inner_name_index", func(c *InnerClass) *uint16 { return &c.InnerNameIndex }).
	Flags("inner_class_access_flags", func(c *InnerClass) *AccessFlags { return &c.InnerClassAccessFlags })

var innerClassesRecord = NewRecord[InnerClassesAttribute](AttrInnerClasses).
	Field("classes", Array(2, innerClassRecord.Elem(), func(a *InnerClassesAttribute) *[]InnerClass { return &a.Classes }))

var sourceFileRecord = NewRecord[SourceFileAttribute](AttrSourceFile).
	U2("sourcefile_index", func(a *SourceFileAttribute) *uint16 { return &a.SourceFileIndex })

var lineNumberRecord = NewRecord[LineNumber]("LineNumber").
	U2("start_pc", func(l *LineNumber) *uint16 { return &l.StartPC }).
	U2("line_number", func(l *LineNumber) *uint16 { return &l.LineNumber })

var lineNumberTableRecord = NewRecord[LineNumberTableAttribute](AttrLineNumberTable).
	Field("line_number_table", Array(2, lineNumberRecord.Elem(), func(a *LineNumberTableAttribute) *[]LineNumber { return &a.Entries }))

var localVariableRecord = NewRecord[LocalVariable]("LocalVariable").
	U2("start_pc", func(l *LocalVariable) *uint16 { return &l.StartPC }).
	U2("length", func(l *LocalVariable) *uint16 { return &l.Length }).
	U2("name_index", func(l *LocalVariable) *uint16 { return &l.NameIndex }).
	U2("descriptor_index", func(l *LocalVariable) *uint16 { return &l.DescriptorIndex }).
	U2("index", func(l *LocalVariable) *uint16 { return &l.Index })

var localVariableTableRecord = NewRecord[LocalVariableTableAttribute](AttrLocalVariableTable).
	Field("local_variable_table", Array(2, localVariableRecord.Elem(), func(a *LocalVariableTableAttribute) *[]LocalVariable { return &a.Entries }))

var syntheticRecord = NewRecord[SyntheticAttribute](AttrSynthetic)

var deprecatedRecord = NewRecord[DeprecatedAttribute](AttrDeprecated)

var signatureRecord = NewRecord[SignatureAttribute](AttrSignature).
	U2("signature_index", func(a *SignatureAttribute) *uint16 { return &a.SignatureIndex })

var bootstrapMethodRecord = NewRecord[BootstrapMethod]("BootstrapMethod").
	U2("bootstrap_method_ref", func(b *BootstrapMethod) *uint16 { return &b.MethodRef }).
	Field("bootstrap_arguments", U2Array(func(b *BootstrapMethod) *[]uint16 { return &b.Arguments }))

var bootstrapMethodsRecord = NewRecord[BootstrapMethodsAttribute](AttrBootstrapMethods).
	Field("bootstrap_methods", Array(2, bootstrapMethodRecord.Elem(), func(a *BootstrapMethodsAttribute) *[]BootstrapMethod { return &a.Methods }))

// codeRecord is assigned in init because its nested attribute table refers
// back to the attribute dispatch.
var codeRecord *Record[CodeAttribute]

type attributeLoader func(*Context) (Attribute, error)

var attributeLoaders map[string]attributeLoader

func attributeOf[T any, P interface {
	*T
	Attribute
}](rec *Record[T]) attributeLoader {
	return func(ctx *Context) (Attribute, error) {
		v, err := rec.Load(ctx)
		if err != nil {
			return nil, err
		}
		return P(v), nil
	}
}

func init() {
	codeRecord = NewRecord[CodeAttribute](AttrCode).
		U2("max_stack", func(a *CodeAttribute) *uint16 { return &a.MaxStack }).
		U2("max_locals", func(a *CodeAttribute) *uint16 { return &a.MaxLocals }).
		Blob("code", 4, func(a *CodeAttribute) *[]byte { return &a.Code }, decodeCode).
		Field("exception_table", Array(2, exceptionHandlerRecord.Elem(), func(a *CodeAttribute) *[]ExceptionHandler { return &a.ExceptionTable })).
		Field("attributes", Array(2, loadAttribute, func(a *CodeAttribute) *[]Attribute { return &a.Attributes }))

	attributeLoaders = map[string]attributeLoader{
		AttrConstantValue:      attributeOf(constantValueRecord),
		AttrCode:               attributeOf(codeRecord),
		AttrExceptions:         attributeOf(exceptionsRecord),
		AttrInnerClasses:       attributeOf(innerClassesRecord),
		AttrSourceFile:         attributeOf(sourceFileRecord),
		AttrLineNumberTable:    attributeOf(lineNumberTableRecord),
		AttrLocalVariableTable: attributeOf(localVariableTableRecord),
		AttrSynthetic:          attributeOf(syntheticRecord),
		AttrDeprecated:         attributeOf(deprecatedRecord),
		AttrSignature:          attributeOf(signatureRecord),
		AttrBootstrapMethods:   attributeOf(bootstrapMethodsRecord),
	}
}

func decodeCode(_ *Context, a *CodeAttribute) error {
	ins, err := DecodeInstructions(a.Code)
	if err != nil {
		return err
	}
	a.Instructions = ins
	return nil
}

// loadAttribute reads one attribute_info. The payload is decoded over its
// own cursor so a schema that reads past attribute_length fails as
// truncated, and one that stops short fails the length check.
func loadAttribute(ctx *Context) (Attribute, error) {
	nameIndex, err := ctx.r.ReadU2()
	if err != nil {
		return nil, err
	}
	name, err := ctx.pool.Utf8(nameIndex)
	if err != nil {
		return nil, charmerrors.WithPath(err, "attribute_name_index")
	}
	length, err := ctx.r.ReadU4()
	if err != nil {
		return nil, err
	}
	start := ctx.Offset()
	payload, err := ctx.r.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}

	load, ok := attributeLoaders[name]
	if !ok {
		Logger().Debug("unknown attribute kept opaque",
			zap.String("name", name),
			zap.Uint32("length", length))
		return &UnknownAttribute{Name: name, Info: payload}, nil
	}

	sub := ctx.sub(payload, start)
	attr, err := load(sub)
	if err != nil {
		return nil, err
	}
	if rem := sub.r.Remaining(); rem != 0 {
		return nil, charmerrors.New(charmerrors.PhaseLoad, charmerrors.KindStructural).
			Offset(sub.Offset()).
			Value(name).
			Detail("%s attribute declares %d bytes but its layout consumed %d", name, length, int(length)-rem).
			Build()
	}
	return attr, nil
}

// FindAttribute returns the first attribute of type T.
func FindAttribute[T Attribute](attrs []Attribute) (T, bool) {
	for _, a := range attrs {
		if v, ok := a.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
