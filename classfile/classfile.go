package classfile

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/charm/classfile/internal/binary"
	charmerrors "github.com/wippyai/charm/errors"
)

// ClassFile is the raw record of a class file. All names are still
// constant pool indices; use the pool or the normalize package to resolve
// them.
type ClassFile struct {
	ConstantPool ConstantPool `yaml:"constant_pool"`
	Interfaces   []uint16     `yaml:"interfaces"`
	Fields       []Member     `yaml:"fields"`
	Methods      []Member     `yaml:"methods"`
	Attributes   []Attribute  `yaml:"attributes"`
	Magic        uint32       `yaml:"magic"`
	MinorVersion uint16       `yaml:"minor_version"`
	MajorVersion uint16       `yaml:"major_version"`
	AccessFlags  AccessFlags  `yaml:"access_flags"`
	ThisClass    uint16       `yaml:"this_class"`
	SuperClass   uint16       `yaml:"super_class"`
}

// Member is a field_info or method_info; both share one layout.
type Member struct {
	Attributes      []Attribute `yaml:"attributes"`
	AccessFlags     AccessFlags `yaml:"access_flags"`
	NameIndex       uint16      `yaml:"name_index"`
	DescriptorIndex uint16      `yaml:"descriptor_index"`
}

func memberRecord(name string) *Record[Member] {
	return NewRecord[Member](name).
		Flags("access_flags", func(m *Member) *AccessFlags { return &m.AccessFlags }).
		U2("name_index", func(m *Member) *uint16 { return &m.NameIndex }).
		U2("descriptor_index", func(m *Member) *uint16 { return &m.DescriptorIndex }).
		Field("attributes", Array(2, loadAttribute, func(m *Member) *[]Attribute { return &m.Attributes }))
}

var (
	fieldRecord  = memberRecord("Field")
	methodRecord = memberRecord("Method")
)

// classFileRecord lays out the top-level structure. The magic hook runs
// before any constant pool byte is read.
var classFileRecord = NewRecord[ClassFile]("ClassFile").
	U4("magic", func(c *ClassFile) *uint32 { return &c.Magic }, checkMagic).
	U2("minor_version", func(c *ClassFile) *uint16 { return &c.MinorVersion }).
	U2("major_version", func(c *ClassFile) *uint16 { return &c.MajorVersion }).
	Field("constant_pool", loadConstantPool).
	Flags("access_flags", func(c *ClassFile) *AccessFlags { return &c.AccessFlags }).
	U2("this_class", func(c *ClassFile) *uint16 { return &c.ThisClass }).
	U2("super_class", func(c *ClassFile) *uint16 { return &c.SuperClass }).
	Field("interfaces", U2Array(func(c *ClassFile) *[]uint16 { return &c.Interfaces })).
	Field("fields", Array(2, fieldRecord.Elem(), func(c *ClassFile) *[]Member { return &c.Fields })).
	Field("methods", Array(2, methodRecord.Elem(), func(c *ClassFile) *[]Member { return &c.Methods })).
	Field("attributes", Array(2, loadAttribute, func(c *ClassFile) *[]Attribute { return &c.Attributes }))

func checkMagic(_ *Context, c *ClassFile) error {
	if c.Magic != Magic {
		return charmerrors.New(charmerrors.PhaseLoad, charmerrors.KindStructural).
			Offset(0).
			Value(c.Magic).
			Detail("bad magic 0x%08X, want 0x%08X", c.Magic, uint32(Magic)).
			Build()
	}
	return nil
}

// Decode reads r to EOF and decodes the class file it holds. Like
// DecodeBytes, it rejects bytes after the final attribute.
func Decode(r io.Reader) (*ClassFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, charmerrors.Wrap(charmerrors.PhaseLoad, charmerrors.KindInvalidInput, err, "read class file")
	}
	return DecodeBytes(data)
}

// DecodeBytes reads a class file held in memory. Bytes after the final
// attribute are rejected.
func DecodeBytes(data []byte) (*ClassFile, error) {
	return decode(binary.FromBytes(data))
}

func decode(r *binary.Reader) (*ClassFile, error) {
	ctx := newContext(r)
	cf, err := classFileRecord.Load(ctx)
	if err != nil {
		return nil, charmerrors.WithPath(err, classFileRecord.Name())
	}
	if rem := r.Remaining(); rem > 0 {
		return nil, charmerrors.Structural([]string{classFileRecord.Name()}, ctx.Offset(),
			fmt.Sprintf("%d trailing bytes after class file", rem), nil)
	}

	if log := Logger(); log.Core().Enabled(zap.DebugLevel) {
		name, _ := cf.Name()
		log.Debug("class file decoded",
			zap.String("class", name),
			zap.Uint16("major", cf.MajorVersion),
			zap.Int("fields", len(cf.Fields)),
			zap.Int("methods", len(cf.Methods)),
			zap.Int("attributes", len(cf.Attributes)))
	}
	return cf, nil
}

// Name returns the internal name of this class.
func (c *ClassFile) Name() (string, error) {
	return c.ConstantPool.ClassName(c.ThisClass)
}

// SuperName returns the internal name of the superclass, or "" for
// java/lang/Object and module-info.
func (c *ClassFile) SuperName() (string, error) {
	if c.SuperClass == 0 {
		return "", nil
	}
	return c.ConstantPool.ClassName(c.SuperClass)
}

// InterfaceNames resolves the direct superinterfaces.
func (c *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, 0, len(c.Interfaces))
	for _, idx := range c.Interfaces {
		n, err := c.ConstantPool.ClassName(idx)
		if err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, nil
}

// SourceFile returns the SourceFile attribute value if present.
func (c *ClassFile) SourceFile() (string, bool, error) {
	sf, ok := FindAttribute[*SourceFileAttribute](c.Attributes)
	if !ok {
		return "", false, nil
	}
	s, err := c.ConstantPool.Utf8(sf.SourceFileIndex)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// Name resolves the member name.
func (m *Member) Name(pool ConstantPool) (string, error) {
	return pool.Utf8(m.NameIndex)
}

// Descriptor resolves the member type descriptor.
func (m *Member) Descriptor(pool ConstantPool) (string, error) {
	return pool.Utf8(m.DescriptorIndex)
}

// Code returns the method body, absent for abstract and native methods.
func (m *Member) Code() (*CodeAttribute, bool) {
	return FindAttribute[*CodeAttribute](m.Attributes)
}
