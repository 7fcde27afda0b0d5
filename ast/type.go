package ast

import (
	"strings"

	charmerrors "github.com/wippyai/charm/errors"
)

// Kind identifies a primitive type or marks a reference type.
type Kind uint8

const (
	Reference Kind = iota
	Byte
	Char
	Double
	Float
	Int
	Long
	Short
	Boolean
	Void
)

var kindNames = [...]string{
	Reference: "reference",
	Byte:      "byte",
	Char:      "char",
	Double:    "double",
	Float:     "float",
	Int:       "int",
	Long:      "long",
	Short:     "short",
	Boolean:   "boolean",
	Void:      "void",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Type is a primitive or a qualified reference type with an array
// dimension count. Name is only set for references.
type Type struct {
	Name       string
	Kind       Kind
	Dimensions int
}

// Common types.
var (
	IntType     = Type{Kind: Int}
	LongType    = Type{Kind: Long}
	FloatType   = Type{Kind: Float}
	DoubleType  = Type{Kind: Double}
	VoidType    = Type{Kind: Void}
	ObjectType  = Type{Kind: Reference, Name: "java.lang.Object"}
	StringType  = Type{Kind: Reference, Name: "java.lang.String"}
	ClassType   = Type{Kind: Reference, Name: "java.lang.Class"}
	BooleanType = Type{Kind: Boolean}
)

// PrimitiveNamed returns the primitive type with the given keyword.
func PrimitiveNamed(keyword string) (Type, bool) {
	for k, name := range kindNames {
		if Kind(k) != Reference && name == keyword {
			return Type{Kind: Kind(k)}, true
		}
	}
	return Type{}, false
}

// Primitive returns the non-array type for k.
func Primitive(k Kind) Type {
	return Type{Kind: k}
}

// Ref returns a reference type for a dotted qualified name.
func Ref(name string) Type {
	return Type{Kind: Reference, Name: name}
}

// IsReference reports whether t is a class or array type.
func (t Type) IsReference() bool {
	return t.Kind == Reference || t.Dimensions > 0
}

// IsArray reports whether t has at least one dimension.
func (t Type) IsArray() bool {
	return t.Dimensions > 0
}

// Elem returns the component type of an array, or t itself.
func (t Type) Elem() Type {
	if t.Dimensions == 0 {
		return t
	}
	t.Dimensions--
	return t
}

// ArrayOf returns t with one more dimension.
func (t Type) ArrayOf() Type {
	t.Dimensions++
	return t
}

// String renders the type the way it appears in Java source: the
// qualified name or primitive keyword followed by [] per dimension.
func (t Type) String() string {
	base := t.Name
	if t.Kind != Reference {
		base = t.Kind.String()
	}
	if t.Dimensions == 0 {
		return base
	}
	return base + strings.Repeat("[]", t.Dimensions)
}

// MethodType is a parsed method descriptor.
type MethodType struct {
	Params []Type
	Return Type
}

// ParseFieldDescriptor parses a single field descriptor such as "[[I" or
// "Ljava/lang/String;". Binary names are converted to dotted form.
func ParseFieldDescriptor(raw string) (Type, error) {
	t, n, err := parseType(raw, 0)
	if err != nil {
		return Type{}, err
	}
	if n != len(raw) {
		return Type{}, charmerrors.InvalidDescriptor(raw, "trailing characters")
	}
	return t, nil
}

// ParseMethodDescriptor parses "(<param>*)<return>".
func ParseMethodDescriptor(raw string) (MethodType, error) {
	if !strings.HasPrefix(raw, "(") {
		return MethodType{}, charmerrors.InvalidDescriptor(raw, "missing '('")
	}
	var mt MethodType
	pos := 1
	for {
		if pos >= len(raw) {
			return MethodType{}, charmerrors.InvalidDescriptor(raw, "missing ')'")
		}
		if raw[pos] == ')' {
			pos++
			break
		}
		t, next, err := parseType(raw, pos)
		if err != nil {
			return MethodType{}, err
		}
		if t.Kind == Void {
			return MethodType{}, charmerrors.InvalidDescriptor(raw, "void parameter")
		}
		mt.Params = append(mt.Params, t)
		pos = next
	}

	ret, next, err := parseType(raw, pos)
	if err != nil {
		return MethodType{}, err
	}
	if next != len(raw) {
		return MethodType{}, charmerrors.InvalidDescriptor(raw, "trailing characters")
	}
	mt.Return = ret
	return mt, nil
}

// parseType reads one field descriptor starting at pos and returns the
// position after it.
func parseType(raw string, pos int) (Type, int, error) {
	dims := 0
	for pos < len(raw) && raw[pos] == '[' {
		dims++
		pos++
	}
	if pos >= len(raw) {
		return Type{}, pos, charmerrors.InvalidDescriptor(raw, "unexpected end")
	}

	c := raw[pos]
	if c == 'L' {
		end := strings.IndexByte(raw[pos:], ';')
		if end < 0 {
			return Type{}, pos, charmerrors.InvalidDescriptor(raw, "missing ';'")
		}
		name := raw[pos+1 : pos+end]
		if name == "" {
			return Type{}, pos, charmerrors.InvalidDescriptor(raw, "empty class name")
		}
		return Type{Kind: Reference, Name: strings.ReplaceAll(name, "/", "."), Dimensions: dims}, pos + end + 1, nil
	}

	k, ok := descriptorKinds[c]
	if !ok {
		return Type{}, pos, charmerrors.InvalidDescriptor(raw, "unrecognized character '"+string(c)+"'")
	}
	if k == Void && dims > 0 {
		return Type{}, pos, charmerrors.InvalidDescriptor(raw, "array of void")
	}
	return Type{Kind: k, Dimensions: dims}, pos + 1, nil
}

var descriptorKinds = map[byte]Kind{
	'B': Byte,
	'C': Char,
	'D': Double,
	'F': Float,
	'I': Int,
	'J': Long,
	'S': Short,
	'Z': Boolean,
	'V': Void,
}

// FromCode maps an opcode mnemonic's type prefix letter to its operand
// type. The a prefix is any reference and maps to java.lang.Object.
func FromCode(prefix byte) (Type, bool) {
	switch prefix {
	case 'i':
		return IntType, true
	case 'l':
		return LongType, true
	case 'f':
		return FloatType, true
	case 'd':
		return DoubleType, true
	case 'a':
		return ObjectType, true
	case 'b':
		return Primitive(Byte), true
	case 'c':
		return Primitive(Char), true
	case 's':
		return Primitive(Short), true
	case 'v':
		return VoidType, true
	}
	return Type{}, false
}
