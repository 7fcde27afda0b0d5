package normalize_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/wippyai/charm/ast"
	"github.com/wippyai/charm/classfile"
	charmerrors "github.com/wippyai/charm/errors"
	"github.com/wippyai/charm/internal/classtest"
	"github.com/wippyai/charm/normalize"
)

func u2(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func code(parts ...any) []byte {
	var out []byte
	for _, p := range parts {
		switch p := p.(type) {
		case byte:
			out = append(out, p)
		case int:
			out = append(out, byte(p))
		case []byte:
			out = append(out, p...)
		}
	}
	return out
}

func normalizeClass(t *testing.T, c *classtest.Class) (*ast.Class, error) {
	t.Helper()
	cf, err := classfile.DecodeBytes(c.Bytes())
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	return normalize.Class(cf)
}

// lowerBody normalizes a single static method m()V whose body is built by
// body against the class's constant pool.
func lowerBody(t *testing.T, body func(p *classtest.Pool) []byte) (*ast.Code, error) {
	t.Helper()
	c := classtest.NewClass("T")
	c.Method(0x0009, "m", "()V", c.Code(4, 4, body(c.Pool)))
	cls, err := normalizeClass(t, c)
	if err != nil {
		return nil, err
	}
	return cls.Methods[0].Code, nil
}

func TestMinimalClass(t *testing.T) {
	cls, err := normalizeClass(t, classtest.NewClass("Foo"))
	if err != nil {
		t.Fatal(err)
	}
	if cls.Name() != "Foo" || cls.QualifiedName() != "Foo" {
		t.Errorf("name: %q %q", cls.Name(), cls.QualifiedName())
	}
	if cls.Modifiers.String() != "public" {
		t.Errorf("modifiers: %v", cls.Modifiers)
	}
	if cls.Interface {
		t.Error("not an interface")
	}
	if len(cls.Fields) != 0 || len(cls.Methods) != 0 {
		t.Errorf("members: %d fields, %d methods", len(cls.Fields), len(cls.Methods))
	}
	if cls.Super != "java.lang.Object" {
		t.Errorf("super: %q", cls.Super)
	}
	if cls.SourceFile != "" {
		t.Errorf("source file: %q", cls.SourceFile)
	}
}

func TestClassHeader(t *testing.T) {
	c := classtest.NewClass("com/example/Shape")
	c.Access = 0x0601 // public interface abstract
	c.Interfaces = []string{"java/io/Serializable"}
	c.SourceFile("Shape.java")
	c.Field(0x0019, "SIDES", "I")
	c.Field(0x0002, "names", "[Ljava/lang/String;")
	c.Method(0x0401, "area", "()D")

	cls, err := normalizeClass(t, c)
	if err != nil {
		t.Fatal(err)
	}
	if !cls.Interface || cls.Modifiers.String() != "public" {
		t.Errorf("interface %v, modifiers %q", cls.Interface, cls.Modifiers)
	}
	if cls.Package() != "com.example" || cls.Name() != "Shape" {
		t.Errorf("package %q name %q", cls.Package(), cls.Name())
	}
	if len(cls.Interfaces) != 1 || cls.Interfaces[0] != "java.io.Serializable" {
		t.Errorf("interfaces: %v", cls.Interfaces)
	}
	if cls.SourceFile != "Shape.java" {
		t.Errorf("source: %q", cls.SourceFile)
	}

	if f := cls.Fields[0]; f.Name != "SIDES" || f.Type != ast.IntType || f.Modifiers.String() != "public static final" {
		t.Errorf("field 0: %+v", f)
	}
	if f := cls.Fields[1]; f.Type.String() != "java.lang.String[]" || f.Modifiers.String() != "private" {
		t.Errorf("field 1: %+v", f)
	}

	m := cls.Methods[0]
	if m.Name != "area" || m.Return == nil || *m.Return != ast.DoubleType || m.Code != nil || m.HasBody() {
		t.Errorf("abstract method: %+v", m)
	}
}

func TestConstructorAndInitializer(t *testing.T) {
	c := classtest.NewClass("com/example/Foo")
	superInit := c.Pool.MethodRef("java/lang/Object", "<init>", "()V")
	c.Method(0x0001, "<init>", "(I)V", c.Code(1, 2, code(0x2a, 0xb7, u2(superInit), 0xb1)))
	c.Method(0x0008, "<clinit>", "()V", c.Code(0, 0, code(0xb1)))

	cls, err := normalizeClass(t, c)
	if err != nil {
		t.Fatal(err)
	}

	ctor := cls.Methods[0]
	if ctor.Kind != ast.Constructor || ctor.Name != "Foo" || ctor.Return != nil {
		t.Errorf("constructor: kind %v name %q return %v", ctor.Kind, ctor.Name, ctor.Return)
	}
	if len(ctor.Params) != 1 || ctor.Params[0] != ast.IntType {
		t.Errorf("constructor params: %v", ctor.Params)
	}
	inv, ok := ctor.Code.Instructions[1].(*ast.MethodInvocation)
	if !ok || inv.Owner != "java.lang.Object" || inv.Name != "<init>" || inv.Kind != ast.InvokeSpecial {
		t.Errorf("super call: %#v", ctor.Code.Instructions[1])
	}

	clinit := cls.Methods[1]
	if clinit.Kind != ast.StaticInitializer || clinit.Name != "" || clinit.Return != nil {
		t.Errorf("static initializer: kind %v name %q return %v", clinit.Kind, clinit.Name, clinit.Return)
	}
	if clinit.Modifiers.String() != "static" {
		t.Errorf("static initializer modifiers: %q", clinit.Modifiers)
	}
}

func TestLocalIdentity(t *testing.T) {
	// iload 1; istore 1; iinc 1 1; iload_1; return
	body, err := lowerBody(t, func(*classtest.Pool) []byte {
		return code(0x15, 1, 0x36, 1, 0x84, 1, 1, 0x1b, 0xb1)
	})
	if err != nil {
		t.Fatal(err)
	}

	load := body.Instructions[0].(*ast.LoadLocal)
	store := body.Instructions[1].(*ast.StoreLocal)
	inc := body.Instructions[2].(*ast.IncrementLocal)
	implicit := body.Instructions[3].(*ast.LoadLocal)
	if load.Local != store.Local || store.Local != inc.Local || inc.Local != implicit.Local {
		t.Fatal("every reference to slot 1 must share one Local")
	}
	if load.Local.Slot != 1 || load.Local.Type != ast.IntType {
		t.Errorf("local: %+v", load.Local)
	}
	if len(body.Locals()) != 1 {
		t.Errorf("locals: %v", body.Locals())
	}
}

func TestLocalsAreScopedToOneBody(t *testing.T) {
	c := classtest.NewClass("T")
	c.Method(0x0009, "a", "()V", c.Code(1, 2, code(0x1b, 0xb1)))
	c.Method(0x0009, "b", "()V", c.Code(1, 2, code(0x1b, 0xb1)))
	cls, err := normalizeClass(t, c)
	if err != nil {
		t.Fatal(err)
	}
	a := cls.Methods[0].Code.Instructions[0].(*ast.LoadLocal)
	b := cls.Methods[1].Code.Instructions[0].(*ast.LoadLocal)
	if a.Local == b.Local {
		t.Error("locals of different methods must be distinct")
	}
}

func TestMemberResolution(t *testing.T) {
	var out, hello, printRef uint16
	body, err := lowerBody(t, func(p *classtest.Pool) []byte {
		out = p.FieldRef("java/lang/System", "out", "Ljava/io/PrintStream;")
		hello = p.String("hello")
		printRef = p.MethodRef("java/io/PrintStream", "println", "(Ljava/lang/String;)V")
		return code(0xb2, u2(out), 0x12, int(hello), 0xb6, u2(printRef), 0xb1)
	})
	if err != nil {
		t.Fatal(err)
	}

	fa := body.Instructions[0].(*ast.FieldAccess)
	if fa.Owner != "java.lang.System" || fa.Name != "out" || fa.Type.String() != "java.io.PrintStream" || !fa.Static || fa.Store {
		t.Errorf("getstatic: %+v", fa)
	}
	lc := body.Instructions[1].(*ast.LoadConstant)
	if lc.Type != ast.StringType || lc.Value != "hello" || lc.IP != 3 {
		t.Errorf("ldc: %+v", lc)
	}
	mi := body.Instructions[2].(*ast.MethodInvocation)
	if mi.Owner != "java.io.PrintStream" || mi.Name != "println" || mi.Kind != ast.InvokeVirtual {
		t.Errorf("invokevirtual: %+v", mi)
	}
	if len(mi.Type.Params) != 1 || mi.Type.Params[0] != ast.StringType || mi.Type.Return != ast.VoidType {
		t.Errorf("invokevirtual type: %+v", mi.Type)
	}
	if r := body.Instructions[3].(*ast.Return); r.Type != ast.VoidType || r.IP != 8 {
		t.Errorf("return: %+v", r)
	}
}

func TestLowering(t *testing.T) {
	tests := []struct {
		name  string
		body  func(p *classtest.Pool) []byte
		check func(t *testing.T, ins ast.Instruction)
	}{
		{
			name: "iconst_m1",
			body: func(*classtest.Pool) []byte { return code(0x02) },
			check: func(t *testing.T, ins ast.Instruction) {
				lc := ins.(*ast.LoadConstant)
				if lc.Value != int32(-1) || lc.Type != ast.IntType {
					t.Errorf("%+v", lc)
				}
			},
		},
		{
			name: "dconst_1",
			body: func(*classtest.Pool) []byte { return code(0x0f) },
			check: func(t *testing.T, ins ast.Instruction) {
				lc := ins.(*ast.LoadConstant)
				if lc.Value != float64(1) || lc.Type != ast.DoubleType {
					t.Errorf("%+v", lc)
				}
			},
		},
		{
			name: "aconst_null",
			body: func(*classtest.Pool) []byte { return code(0x01) },
			check: func(t *testing.T, ins ast.Instruction) {
				lc := ins.(*ast.LoadConstant)
				if lc.Value != nil || lc.Type != ast.ObjectType {
					t.Errorf("%+v", lc)
				}
			},
		},
		{
			name: "sipush",
			body: func(*classtest.Pool) []byte { return code(0x11, 0xff, 0x38) },
			check: func(t *testing.T, ins ast.Instruction) {
				if lc := ins.(*ast.LoadConstant); lc.Value != int32(-200) {
					t.Errorf("%+v", lc)
				}
			},
		},
		{
			name: "ldc2_w long",
			body: func(p *classtest.Pool) []byte { return code(0x14, u2(p.Long(1<<40))) },
			check: func(t *testing.T, ins ast.Instruction) {
				lc := ins.(*ast.LoadConstant)
				if lc.Value != int64(1<<40) || lc.Type != ast.LongType {
					t.Errorf("%+v", lc)
				}
			},
		},
		{
			name: "ldc_w float",
			body: func(p *classtest.Pool) []byte { return code(0x13, u2(p.Float(2.5))) },
			check: func(t *testing.T, ins ast.Instruction) {
				if lc := ins.(*ast.LoadConstant); lc.Value != float32(2.5) || lc.Type != ast.FloatType {
					t.Errorf("%+v", lc)
				}
			},
		},
		{
			name: "ldc class",
			body: func(p *classtest.Pool) []byte { return code(0x13, u2(p.Class("java/util/List"))) },
			check: func(t *testing.T, ins ast.Instruction) {
				lc := ins.(*ast.LoadConstant)
				if lc.Type != ast.ClassType || lc.Value != ast.Ref("java.util.List") {
					t.Errorf("%+v", lc)
				}
			},
		},
		{
			name: "laload",
			body: func(*classtest.Pool) []byte { return code(0x2f) },
			check: func(t *testing.T, ins ast.Instruction) {
				if a := ins.(*ast.LoadArrayItem); a.Type != ast.LongType {
					t.Errorf("%+v", a)
				}
			},
		},
		{
			name: "bastore",
			body: func(*classtest.Pool) []byte { return code(0x54) },
			check: func(t *testing.T, ins ast.Instruction) {
				if a := ins.(*ast.StoreArrayItem); a.Type != ast.Primitive(ast.Byte) {
					t.Errorf("%+v", a)
				}
			},
		},
		{
			name: "astore_2",
			body: func(*classtest.Pool) []byte { return code(0x4d) },
			check: func(t *testing.T, ins ast.Instruction) {
				s := ins.(*ast.StoreLocal)
				if s.Local.Slot != 2 || s.Local.Type != ast.ObjectType {
					t.Errorf("%+v", s.Local)
				}
			},
		},
		{
			name: "dup_x1",
			body: func(*classtest.Pool) []byte { return code(0x5a) },
			check: func(t *testing.T, ins ast.Instruction) {
				if d := ins.(*ast.Dup); d.Words != 1 || d.Depth != 1 {
					t.Errorf("%+v", d)
				}
			},
		},
		{
			name: "pop2",
			body: func(*classtest.Pool) []byte { return code(0x58) },
			check: func(t *testing.T, ins ast.Instruction) {
				if p := ins.(*ast.Pop); p.Words != 2 {
					t.Errorf("%+v", p)
				}
			},
		},
		{
			name: "lushr",
			body: func(*classtest.Pool) []byte { return code(0x7d) },
			check: func(t *testing.T, ins ast.Instruction) {
				if a := ins.(*ast.Arithmetic); a.Operator != "ushr" || a.Type != ast.LongType {
					t.Errorf("%+v", a)
				}
			},
		},
		{
			name: "i2c",
			body: func(*classtest.Pool) []byte { return code(0x92) },
			check: func(t *testing.T, ins ast.Instruction) {
				if c := ins.(*ast.Convert); c.From != ast.IntType || c.To != ast.Primitive(ast.Char) {
					t.Errorf("%+v", c)
				}
			},
		},
		{
			name: "dcmpg",
			body: func(*classtest.Pool) []byte { return code(0x98) },
			check: func(t *testing.T, ins ast.Instruction) {
				if c := ins.(*ast.Compare); c.Type != ast.DoubleType || c.NaN != "g" {
					t.Errorf("%+v", c)
				}
			},
		},
		{
			name: "if_icmplt",
			body: func(*classtest.Pool) []byte { return code(0x00, 0xa1, 0xff, 0xff) },
			check: func(t *testing.T, ins ast.Instruction) {
				j := ins.(*ast.Jump)
				if j.Condition != ast.Lt || j.Operands != 2 || j.Type != ast.IntType || j.Target != 0 {
					t.Errorf("%+v", j)
				}
			},
		},
		{
			name: "if_acmpne",
			body: func(*classtest.Pool) []byte { return code(0xa6, 0x00, 0x03) },
			check: func(t *testing.T, ins ast.Instruction) {
				j := ins.(*ast.Jump)
				if j.Condition != ast.Ne || j.Type != ast.ObjectType || j.Target != 3 {
					t.Errorf("%+v", j)
				}
			},
		},
		{
			name: "ifnonnull",
			body: func(*classtest.Pool) []byte { return code(0xc7, 0x00, 0x03) },
			check: func(t *testing.T, ins ast.Instruction) {
				j := ins.(*ast.Jump)
				if j.Condition != ast.NonNull || j.Operands != 1 || j.Type != ast.ObjectType {
					t.Errorf("%+v", j)
				}
			},
		},
		{
			name: "goto_w",
			body: func(*classtest.Pool) []byte { return code(0xc8, 0x00, 0x00, 0x00, 0x05) },
			check: func(t *testing.T, ins ast.Instruction) {
				j := ins.(*ast.Jump)
				if j.Condition != ast.Always || j.Operands != 0 || j.Target != 5 {
					t.Errorf("%+v", j)
				}
			},
		},
		{
			name: "putfield",
			body: func(p *classtest.Pool) []byte { return code(0xb5, u2(p.FieldRef("T", "count", "J"))) },
			check: func(t *testing.T, ins ast.Instruction) {
				fa := ins.(*ast.FieldAccess)
				if !fa.Store || fa.Static || fa.Type != ast.LongType || fa.Owner != "T" {
					t.Errorf("%+v", fa)
				}
			},
		},
		{
			name: "invokestatic",
			body: func(p *classtest.Pool) []byte {
				return code(0xb8, u2(p.MethodRef("java/lang/Math", "max", "(II)I")))
			},
			check: func(t *testing.T, ins ast.Instruction) {
				mi := ins.(*ast.MethodInvocation)
				if mi.Kind != ast.InvokeStatic || len(mi.Type.Params) != 2 || mi.Type.Return != ast.IntType {
					t.Errorf("%+v", mi)
				}
			},
		},
		{
			name: "invokeinterface",
			body: func(p *classtest.Pool) []byte {
				return code(0xb9, u2(p.InterfaceMethodRef("java/util/List", "size", "()I")), 1, 0)
			},
			check: func(t *testing.T, ins ast.Instruction) {
				ii := ins.(*ast.InterfaceInvocation)
				if ii.Owner != "java.util.List" || ii.Name != "size" || ii.Count != 1 || ii.Type.Return != ast.IntType {
					t.Errorf("%+v", ii)
				}
			},
		},
		{
			name: "invokedynamic",
			body: func(p *classtest.Pool) []byte {
				return code(0xba, u2(p.InvokeDynamic(0, "run", "()Ljava/lang/Runnable;")), 0, 0)
			},
			check: func(t *testing.T, ins ast.Instruction) {
				di := ins.(*ast.DynamicInvocation)
				if di.Name != "run" || di.Bootstrap != 0 || di.Type.Return.String() != "java.lang.Runnable" {
					t.Errorf("%+v", di)
				}
			},
		},
		{
			name: "new",
			body: func(p *classtest.Pool) []byte { return code(0xbb, u2(p.Class("java/lang/StringBuilder"))) },
			check: func(t *testing.T, ins ast.Instruction) {
				if n := ins.(*ast.New); n.Type != ast.Ref("java.lang.StringBuilder") {
					t.Errorf("%+v", n)
				}
			},
		},
		{
			name: "newarray int",
			body: func(*classtest.Pool) []byte { return code(0xbc, 10) },
			check: func(t *testing.T, ins ast.Instruction) {
				if n := ins.(*ast.NewArray); n.Type != ast.IntType {
					t.Errorf("%+v", n)
				}
			},
		},
		{
			name: "anewarray",
			body: func(p *classtest.Pool) []byte { return code(0xbd, u2(p.Class("java/lang/String"))) },
			check: func(t *testing.T, ins ast.Instruction) {
				if n := ins.(*ast.NewArray); n.Type != ast.StringType {
					t.Errorf("%+v", n)
				}
			},
		},
		{
			name: "checkcast array class",
			body: func(p *classtest.Pool) []byte { return code(0xc0, u2(p.Class("[I"))) },
			check: func(t *testing.T, ins ast.Instruction) {
				tc := ins.(*ast.TypeCheck)
				if !tc.Cast || tc.Type.String() != "int[]" {
					t.Errorf("%+v", tc)
				}
			},
		},
		{
			name: "instanceof",
			body: func(p *classtest.Pool) []byte { return code(0xc1, u2(p.Class("java/lang/Number"))) },
			check: func(t *testing.T, ins ast.Instruction) {
				if tc := ins.(*ast.TypeCheck); tc.Cast {
					t.Errorf("%+v", tc)
				}
			},
		},
		{
			name: "monitorexit",
			body: func(*classtest.Pool) []byte { return code(0xc3) },
			check: func(t *testing.T, ins ast.Instruction) {
				if m := ins.(*ast.Monitor); m.Enter {
					t.Errorf("%+v", m)
				}
			},
		},
		{
			name: "areturn",
			body: func(*classtest.Pool) []byte { return code(0xb0) },
			check: func(t *testing.T, ins ast.Instruction) {
				if r := ins.(*ast.Return); r.Type != ast.ObjectType {
					t.Errorf("%+v", r)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := lowerBody(t, tt.body)
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, body.Instructions[len(body.Instructions)-1])
		})
	}
}

func TestWidePrefixIsFolded(t *testing.T) {
	// wide iload 300; wide iinc 300 -5; return
	body, err := lowerBody(t, func(*classtest.Pool) []byte {
		return code(0xc4, 0x15, 0x01, 0x2c, 0xc4, 0x84, 0x01, 0x2c, 0xff, 0xfb, 0xb1)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(body.Instructions) != 3 {
		t.Fatalf("instructions: got %d, want 3", len(body.Instructions))
	}
	load := body.Instructions[0].(*ast.LoadLocal)
	inc := body.Instructions[1].(*ast.IncrementLocal)
	if load.IP != 1 || load.Local.Slot != 300 || inc.Local != load.Local || inc.Delta != -5 || inc.IP != 5 {
		t.Errorf("load %+v, inc %+v", load, inc)
	}
}

func TestUnsupportedInstructions(t *testing.T) {
	tests := []struct {
		name     string
		code     []byte
		mnemonic string
		category string
		ip       int
	}{
		{
			name: "tableswitch",
			code: code(0xaa, 0, 0, 0,
				0, 0, 0, 20, // default
				0, 0, 0, 0, // low
				0, 0, 0, 0, // high
				0, 0, 0, 20,
				0xb1),
			mnemonic: "tableswitch",
			category: "table_switch",
		},
		{
			name:     "lookupswitch",
			code:     code(0x00, 0xab, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xb1),
			mnemonic: "lookupswitch",
			category: "lookup_switch",
			ip:       1,
		},
		{name: "jsr", code: code(0xa8, 0x00, 0x03, 0xb1), mnemonic: "jsr", category: "label_offset"},
		{name: "ret", code: code(0xa9, 0x01), mnemonic: "ret", category: "indexed_local_var"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lowerBody(t, func(*classtest.Pool) []byte { return tt.code })
			if !errors.Is(err, &charmerrors.Error{Phase: charmerrors.PhaseNormalize, Kind: charmerrors.KindUnsupported}) {
				t.Fatalf("expected unsupported normalize error, got %v", err)
			}
			if !charmerrors.IsNormalize(err) {
				t.Error("IsNormalize must accept the unsupported gap")
			}
			var ce *charmerrors.Error
			errors.As(err, &ce)
			if ce.Mnemonic != tt.mnemonic || ce.Category != tt.category || ce.Offset != tt.ip {
				t.Errorf("got mnemonic %q category %q offset %d", ce.Mnemonic, ce.Category, ce.Offset)
			}
			if !strings.HasPrefix(strings.Join(ce.Path, "."), "methods[0]") {
				t.Errorf("path: %v", ce.Path)
			}
		})
	}
}

func TestNoLoweringRule(t *testing.T) {
	_, err := lowerBody(t, func(*classtest.Pool) []byte { return code(0xca) })
	if !errors.Is(err, charmerrors.ErrNormalize) {
		t.Fatalf("expected normalize error, got %v", err)
	}
	var ce *charmerrors.Error
	errors.As(err, &ce)
	if ce.Mnemonic != "breakpoint" || ce.Category != "no_argument" {
		t.Errorf("got %q [%s]", ce.Mnemonic, ce.Category)
	}
}

func TestUnresolvableOperand(t *testing.T) {
	// getstatic pointing at a Utf8 entry
	_, err := lowerBody(t, func(p *classtest.Pool) []byte {
		return code(0xb2, u2(p.Utf8("nope")))
	})
	if !charmerrors.IsNormalize(err) {
		t.Fatalf("expected normalize error, got %v", err)
	}
	if !errors.Is(err, charmerrors.ErrInvalidClassFile) {
		t.Errorf("cause must be kept: %v", err)
	}
}

func TestInvalidMemberDescriptor(t *testing.T) {
	c := classtest.NewClass("T")
	c.Field(0x0001, "ok", "I")
	c.Field(0x0001, "bad", "Q")
	_, err := normalizeClass(t, c)
	if !errors.Is(err, charmerrors.ErrInvalidDescriptor) {
		t.Fatalf("expected invalid descriptor, got %v", err)
	}
	var ce *charmerrors.Error
	errors.As(err, &ce)
	if strings.Join(ce.Path, ".") != "fields[1]" {
		t.Errorf("path: %v", ce.Path)
	}
}
