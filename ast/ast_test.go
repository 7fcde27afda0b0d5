package ast_test

import (
	"errors"
	"testing"

	"github.com/wippyai/charm/ast"
	"github.com/wippyai/charm/classfile"
	charmerrors "github.com/wippyai/charm/errors"
)

func TestParseFieldDescriptor(t *testing.T) {
	tests := []struct {
		raw  string
		want ast.Type
		str  string
	}{
		{"I", ast.IntType, "int"},
		{"Z", ast.BooleanType, "boolean"},
		{"J", ast.LongType, "long"},
		{"[[I", ast.Type{Kind: ast.Int, Dimensions: 2}, "int[][]"},
		{"Ljava/lang/String;", ast.StringType, "java.lang.String"},
		{"[Ljava/util/Map$Entry;", ast.Type{Kind: ast.Reference, Name: "java.util.Map$Entry", Dimensions: 1}, "java.util.Map$Entry[]"},
		{"V", ast.VoidType, "void"},
	}
	for _, tt := range tests {
		got, err := ast.ParseFieldDescriptor(tt.raw)
		if err != nil {
			t.Errorf("%q: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.raw, got, tt.want)
		}
		if got.String() != tt.str {
			t.Errorf("%q: String() = %q, want %q", tt.raw, got.String(), tt.str)
		}
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	mt, err := ast.ParseMethodDescriptor("(Ljava/lang/String;I)V")
	if err != nil {
		t.Fatal(err)
	}
	if len(mt.Params) != 2 || mt.Params[0] != ast.StringType || mt.Params[1] != ast.IntType {
		t.Errorf("params: got %+v", mt.Params)
	}
	if mt.Return != ast.VoidType {
		t.Errorf("return: got %+v", mt.Return)
	}

	mt, err = ast.ParseMethodDescriptor("([[JD[Ljava/lang/Object;)[B")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"long[][]", "double", "java.lang.Object[]"}
	for i, p := range mt.Params {
		if p.String() != want[i] {
			t.Errorf("param %d: got %s, want %s", i, p, want[i])
		}
	}
	if mt.Return.String() != "byte[]" {
		t.Errorf("return: got %s", mt.Return)
	}

	mt, err = ast.ParseMethodDescriptor("()V")
	if err != nil || len(mt.Params) != 0 {
		t.Errorf("no params: got %+v, %v", mt, err)
	}
}

func TestInvalidDescriptors(t *testing.T) {
	fields := []string{"", "X", "[", "Ljava/lang/String", "L;", "II", "[V"}
	for _, raw := range fields {
		_, err := ast.ParseFieldDescriptor(raw)
		if !errors.Is(err, charmerrors.ErrInvalidDescriptor) {
			t.Errorf("field %q: got %v", raw, err)
		}
	}

	methods := []string{"V", "(I", "(I)", "(V)V", "(Q)V", "(I)VV"}
	for _, raw := range methods {
		_, err := ast.ParseMethodDescriptor(raw)
		if !errors.Is(err, charmerrors.ErrInvalidDescriptor) {
			t.Errorf("method %q: got %v", raw, err)
			continue
		}
		var ce *charmerrors.Error
		errors.As(err, &ce)
		if ce.Value != raw {
			t.Errorf("method %q: Value = %v", raw, ce.Value)
		}
	}
}

func TestFromCode(t *testing.T) {
	tests := []struct {
		prefix byte
		want   string
	}{
		{'i', "int"},
		{'l', "long"},
		{'f', "float"},
		{'d', "double"},
		{'a', "java.lang.Object"},
		{'b', "byte"},
		{'c', "char"},
		{'s', "short"},
		{'v', "void"},
	}
	for _, tt := range tests {
		got, ok := ast.FromCode(tt.prefix)
		if !ok || got.String() != tt.want {
			t.Errorf("%c: got %s, %v", tt.prefix, got, ok)
		}
	}
	if _, ok := ast.FromCode('x'); ok {
		t.Error("x should not map to a type")
	}
}

func TestTypeHelpers(t *testing.T) {
	arr := ast.IntType.ArrayOf().ArrayOf()
	if !arr.IsArray() || !arr.IsReference() || arr.String() != "int[][]" {
		t.Errorf("ArrayOf: %+v", arr)
	}
	if arr.Elem().Elem() != ast.IntType {
		t.Errorf("Elem: %+v", arr.Elem().Elem())
	}
	if ast.IntType.IsReference() {
		t.Error("int is not a reference")
	}
}

func TestModifiers(t *testing.T) {
	tests := []struct {
		name string
		mods ast.Modifiers
		want string
	}{
		{"public class", ast.ClassModifiers(classfile.AccPublic | classfile.AccSuper), "public"},
		{"abstract class", ast.ClassModifiers(classfile.AccPublic | classfile.AccAbstract), "public abstract"},
		{"final class", ast.ClassModifiers(classfile.AccFinal | classfile.AccPublic), "public final"},
		{"interface", ast.ClassModifiers(classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract), "public"},
		{"interface bit alone", ast.ClassModifiers(classfile.AccInterface), ""},
		{"method", ast.MethodModifiers(classfile.AccPublic | classfile.AccStatic | classfile.AccFinal), "public final static"},
		{"abstract method", ast.MethodModifiers(classfile.AccProtected | classfile.AccAbstract), "protected abstract"},
		{"native method", ast.MethodModifiers(classfile.AccPrivate | classfile.AccNative | classfile.AccSynchronized | classfile.AccStrict), "private synchronized native strictfp"},
		{"field", ast.FieldModifiers(classfile.AccPrivate | classfile.AccStatic | classfile.AccFinal), "private static final"},
		{"volatile field", ast.FieldModifiers(classfile.AccVolatile | classfile.AccTransient), "volatile transient"},
	}
	for _, tt := range tests {
		if got := tt.mods.String(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
	if !ast.MethodModifiers(classfile.AccAbstract).Has(ast.Abstract) {
		t.Error("Has(Abstract)")
	}
}

func TestLocalIdentity(t *testing.T) {
	code := ast.NewCode(2, 3)
	a := code.Local(1, ast.IntType)
	b := code.Local(1, ast.LongType)
	if a != b {
		t.Fatal("same slot must return the same *Local")
	}
	if b.Type != ast.IntType {
		t.Errorf("first type wins: got %s", b.Type)
	}
	c := code.Local(0, ast.ObjectType)
	if c == a {
		t.Fatal("different slots must not share a Local")
	}
	locals := code.Locals()
	if len(locals) != 2 || locals[0] != c || locals[1] != a {
		t.Errorf("Locals: got %v", locals)
	}
	if a.Name() != "local1" {
		t.Errorf("Name: %s", a.Name())
	}

	var zero ast.Code
	if zero.Local(4, ast.IntType) != zero.Local(4, ast.IntType) {
		t.Error("zero Code must track locals too")
	}
}

func TestClassNames(t *testing.T) {
	c := &ast.Class{Type: ast.Ref("com.example.Foo")}
	if c.Name() != "Foo" || c.Package() != "com.example" || c.QualifiedName() != "com.example.Foo" {
		t.Errorf("got %q %q %q", c.Name(), c.Package(), c.QualifiedName())
	}
	d := &ast.Class{Type: ast.Ref("Foo")}
	if d.Name() != "Foo" || d.Package() != "" {
		t.Errorf("default package: got %q %q", d.Name(), d.Package())
	}
}

func TestMethodHasBody(t *testing.T) {
	m := &ast.Method{Modifiers: ast.MethodModifiers(classfile.AccPublic)}
	if !m.HasBody() {
		t.Error("concrete method has a body")
	}
	m.Modifiers = ast.MethodModifiers(classfile.AccNative)
	if m.HasBody() {
		t.Error("native method has no body")
	}
}

func TestInstructionHeader(t *testing.T) {
	var ins ast.Instruction = &ast.Return{Op: ast.Op{IP: 7, Mnemonic: "ireturn"}, Type: ast.IntType}
	if h := ins.Header(); h.IP != 7 || h.Mnemonic != "ireturn" {
		t.Errorf("Header: %+v", h)
	}
}
