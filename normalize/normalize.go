package normalize

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/charm/ast"
	"github.com/wippyai/charm/classfile"
	charmerrors "github.com/wippyai/charm/errors"
)

// Class normalizes a decoded class file. The first failure aborts and no
// partial class is returned.
func Class(cf *classfile.ClassFile) (*ast.Class, error) {
	name, err := cf.Name()
	if err != nil {
		return nil, charmerrors.WithPath(err, "this_class")
	}
	super, err := cf.SuperName()
	if err != nil {
		return nil, charmerrors.WithPath(err, "super_class")
	}
	ifaces, err := cf.InterfaceNames()
	if err != nil {
		return nil, charmerrors.WithPath(err, "interfaces")
	}
	source, _, err := cf.SourceFile()
	if err != nil {
		return nil, charmerrors.WithPath(err, "attributes", classfile.AttrSourceFile)
	}

	cls := &ast.Class{
		Type:       ast.Ref(dotted(name)),
		Super:      dotted(super),
		SourceFile: source,
		Modifiers:  ast.ClassModifiers(cf.AccessFlags),
		Interface:  cf.AccessFlags.Has(classfile.AccInterface),
	}
	for _, iface := range ifaces {
		cls.Interfaces = append(cls.Interfaces, dotted(iface))
	}

	for i := range cf.Fields {
		f, err := Field(cf.ConstantPool, &cf.Fields[i])
		if err != nil {
			return nil, charmerrors.WithPath(err, fmt.Sprintf("fields[%d]", i))
		}
		cls.Fields = append(cls.Fields, f)
	}
	for i := range cf.Methods {
		m, err := Method(cf.ConstantPool, cls, &cf.Methods[i])
		if err != nil {
			return nil, charmerrors.WithPath(err, fmt.Sprintf("methods[%d]", i))
		}
		cls.Methods = append(cls.Methods, m)
	}

	Logger().Debug("normalized class",
		zap.String("class", cls.QualifiedName()),
		zap.Int("fields", len(cls.Fields)),
		zap.Int("methods", len(cls.Methods)))
	return cls, nil
}

// Field normalizes a field_info.
func Field(pool classfile.ConstantPool, m *classfile.Member) (*ast.Field, error) {
	name, err := m.Name(pool)
	if err != nil {
		return nil, err
	}
	desc, err := m.Descriptor(pool)
	if err != nil {
		return nil, err
	}
	t, err := ast.ParseFieldDescriptor(desc)
	if err != nil {
		return nil, err
	}
	return &ast.Field{
		Name:      name,
		Type:      t,
		Modifiers: ast.FieldModifiers(m.AccessFlags),
	}, nil
}

// Method normalizes a method_info declared by owner. Constructors take
// the owner's simple name and static initializers have no name; neither
// has a return type.
func Method(pool classfile.ConstantPool, owner *ast.Class, m *classfile.Member) (*ast.Method, error) {
	name, err := m.Name(pool)
	if err != nil {
		return nil, err
	}
	desc, err := m.Descriptor(pool)
	if err != nil {
		return nil, err
	}
	mt, err := ast.ParseMethodDescriptor(desc)
	if err != nil {
		return nil, err
	}

	method := &ast.Method{
		Modifiers: ast.MethodModifiers(m.AccessFlags),
		Params:    mt.Params,
	}
	switch name {
	case "<init>":
		method.Kind = ast.Constructor
		method.Name = owner.Name()
	case "<clinit>":
		method.Kind = ast.StaticInitializer
	default:
		method.Name = name
		ret := mt.Return
		method.Return = &ret
	}

	if attr, ok := m.Code(); ok {
		code, err := Code(pool, attr)
		if err != nil {
			return nil, charmerrors.WithPath(err, name+desc)
		}
		method.Code = code
		Logger().Debug("normalized method",
			zap.String("method", name+desc),
			zap.Int("instructions", len(code.Instructions)))
	}
	return method, nil
}

// Code lowers a Code attribute's instruction stream. Every reference to a
// local slot within the body resolves to the same *ast.Local.
func Code(pool classfile.ConstantPool, attr *classfile.CodeAttribute) (*ast.Code, error) {
	code := ast.NewCode(int(attr.MaxStack), int(attr.MaxLocals))
	l := lowerer{pool: pool, code: code}
	for _, ins := range attr.Instructions {
		lowered, err := l.lower(ins)
		if err != nil {
			return nil, err
		}
		if lowered != nil {
			code.Append(lowered)
		}
	}
	return code, nil
}

func dotted(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

// classType converts the name held by a Class constant. Array classes are
// named by their descriptor.
func classType(internal string) (ast.Type, error) {
	if strings.HasPrefix(internal, "[") {
		return ast.ParseFieldDescriptor(internal)
	}
	return ast.Ref(dotted(internal)), nil
}
