package normalize

import (
	"strings"

	"github.com/wippyai/charm/ast"
	"github.com/wippyai/charm/classfile"
	charmerrors "github.com/wippyai/charm/errors"
)

// lowerer turns raw instructions into AST instructions for one method
// body. Dispatch is on the addressing-mode category first and then on the
// mnemonic; the operand type always comes from the mnemonic's prefix.
type lowerer struct {
	pool classfile.ConstantPool
	code *ast.Code
}

// lower returns nil without error for the wide prefix, whose effect is
// already folded into the following instruction.
func (l *lowerer) lower(ins classfile.Instruction) (ast.Instruction, error) {
	op := ast.Op{IP: ins.IP, Mnemonic: ins.Mnemonic()}

	switch ins.Category() {
	case classfile.CatNoArgument:
		return l.noArgument(ins, op)
	case classfile.CatSignedByte, classfile.CatSignedShort:
		return l.immediate(ins, op)
	case classfile.CatIndexedLocalVar, classfile.CatImplicitLocalVar:
		return l.localVar(ins, op)
	case classfile.CatIntegerIncrement:
		imm := ins.Imm.(classfile.IncrementImm)
		return &ast.IncrementLocal{Op: op, Local: l.code.Local(int(imm.Slot), ast.IntType), Delta: int(imm.Delta)}, nil
	case classfile.CatTypeDescriptor:
		return l.typeDescriptor(ins, op)
	case classfile.CatFieldOrMethod:
		return l.fieldOrMethod(ins, op)
	case classfile.CatInterfaceInvoke:
		return l.interfaceInvoke(ins, op)
	case classfile.CatLabelOffset, classfile.CatWideLabelOffset:
		return l.jump(ins, op)
	case classfile.CatLoadConstant, classfile.CatLoadWideConstant:
		return l.loadConstant(ins, op)
	case classfile.CatWidePrefix:
		return nil, nil
	case classfile.CatTableSwitch, classfile.CatLookupSwitch, classfile.CatMultiNewArray:
		return nil, unsupported(ins, "operands are decoded but have no lowering")
	}
	return nil, noLowering(ins)
}

func noLowering(ins classfile.Instruction) error {
	return charmerrors.Normalize(ins.IP, ins.Mnemonic(), ins.Category().String())
}

func unsupported(ins classfile.Instruction, detail string) error {
	return charmerrors.UnsupportedInstruction(ins.IP, ins.Mnemonic(), ins.Category().String(), detail)
}

// withInstruction attaches the failing instruction to a lookup or
// descriptor error.
func withInstruction(ins classfile.Instruction, err error) error {
	return charmerrors.New(charmerrors.PhaseNormalize, charmerrors.KindNormalize).
		Offset(ins.IP).
		Instruction(ins.Mnemonic(), ins.Category().String()).
		Detail("operand does not resolve").
		Cause(err).
		Build()
}

func prefixType(ins classfile.Instruction) (ast.Type, error) {
	t, ok := ast.FromCode(ins.Mnemonic()[0])
	if !ok {
		return ast.Type{}, noLowering(ins)
	}
	return t, nil
}

var arithmeticOps = map[string]bool{
	"add": true, "sub": true, "mul": true, "div": true, "rem": true, "neg": true,
	"shl": true, "shr": true, "ushr": true, "and": true, "or": true, "xor": true,
}

var dupShapes = map[string][2]int{
	"dup":     {1, 0},
	"dup_x1":  {1, 1},
	"dup_x2":  {1, 2},
	"dup2":    {2, 0},
	"dup2_x1": {2, 1},
	"dup2_x2": {2, 2},
}

func (l *lowerer) noArgument(ins classfile.Instruction, op ast.Op) (ast.Instruction, error) {
	mn := op.Mnemonic
	rest := mn[1:]

	switch mn {
	case "nop":
		return &ast.Noop{Op: op}, nil
	case "aconst_null":
		return &ast.LoadConstant{Op: op, Type: ast.ObjectType}, nil
	case "return":
		return &ast.Return{Op: op, Type: ast.VoidType}, nil
	case "pop":
		return &ast.Pop{Op: op, Words: 1}, nil
	case "pop2":
		return &ast.Pop{Op: op, Words: 2}, nil
	case "swap":
		return &ast.Swap{Op: op}, nil
	case "arraylength":
		return &ast.ArrayLength{Op: op}, nil
	case "athrow":
		return &ast.Throw{Op: op}, nil
	case "monitorenter":
		return &ast.Monitor{Op: op, Enter: true}, nil
	case "monitorexit":
		return &ast.Monitor{Op: op}, nil
	case "lcmp":
		return &ast.Compare{Op: op, Type: ast.LongType}, nil
	case "fcmpl", "fcmpg", "dcmpl", "dcmpg":
		t, _ := ast.FromCode(mn[0])
		return &ast.Compare{Op: op, Type: t, NaN: mn[4:]}, nil
	}

	if shape, ok := dupShapes[mn]; ok {
		return &ast.Dup{Op: op, Words: shape[0], Depth: shape[1]}, nil
	}

	switch {
	case strings.HasPrefix(rest, "const_"):
		return constant(ins, op, rest[len("const_"):])
	case rest == "return":
		t, err := prefixType(ins)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Op: op, Type: t}, nil
	case rest == "aload" || rest == "astore":
		t, err := prefixType(ins)
		if err != nil {
			return nil, err
		}
		if rest == "aload" {
			return &ast.LoadArrayItem{Op: op, Type: t}, nil
		}
		return &ast.StoreArrayItem{Op: op, Type: t}, nil
	case len(mn) == 3 && mn[1] == '2':
		from, okFrom := ast.FromCode(mn[0])
		to, okTo := ast.FromCode(mn[2])
		if !okFrom || !okTo {
			return nil, noLowering(ins)
		}
		return &ast.Convert{Op: op, From: from, To: to}, nil
	case arithmeticOps[rest]:
		t, err := prefixType(ins)
		if err != nil {
			return nil, err
		}
		return &ast.Arithmetic{Op: op, Type: t, Operator: rest}, nil
	}
	return nil, noLowering(ins)
}

// constant lowers <t>const_<n>; m1 is -1.
func constant(ins classfile.Instruction, op ast.Op, literal string) (ast.Instruction, error) {
	var n int
	switch {
	case literal == "m1":
		n = -1
	case len(literal) == 1 && literal[0] >= '0' && literal[0] <= '5':
		n = int(literal[0] - '0')
	default:
		return nil, noLowering(ins)
	}

	t, err := prefixType(ins)
	if err != nil {
		return nil, err
	}
	var v any
	switch t.Kind {
	case ast.Int:
		v = int32(n)
	case ast.Long:
		v = int64(n)
	case ast.Float:
		v = float32(n)
	case ast.Double:
		v = float64(n)
	default:
		return nil, noLowering(ins)
	}
	return &ast.LoadConstant{Op: op, Type: t, Value: v}, nil
}

func (l *lowerer) immediate(ins classfile.Instruction, op ast.Op) (ast.Instruction, error) {
	imm := ins.Imm.(classfile.ValueImm)
	switch op.Mnemonic {
	case "bipush", "sipush":
		return &ast.LoadConstant{Op: op, Type: ast.IntType, Value: imm.Value}, nil
	case "newarray":
		name, ok := classfile.NewArrayTypes[imm.Value]
		if !ok {
			return nil, charmerrors.New(charmerrors.PhaseNormalize, charmerrors.KindInvalidClassFile).
				Offset(ins.IP).
				Instruction(op.Mnemonic, ins.Category().String()).
				Value(imm.Value).
				Detail("unknown array type code %d", imm.Value).
				Build()
		}
		t, _ := ast.PrimitiveNamed(name)
		return &ast.NewArray{Op: op, Type: t}, nil
	}
	return nil, noLowering(ins)
}

func (l *lowerer) localVar(ins classfile.Instruction, op ast.Op) (ast.Instruction, error) {
	if op.Mnemonic == "ret" {
		return nil, unsupported(ins, "subroutines are not lowered")
	}
	slot := int(ins.Imm.(classfile.LocalImm).Slot)
	t, err := prefixType(ins)
	if err != nil {
		return nil, err
	}

	// Mnemonics are <t>load, <t>store, <t>load_<n> or <t>store_<n>.
	verb := op.Mnemonic[1:]
	if i := strings.IndexByte(verb, '_'); i >= 0 {
		verb = verb[:i]
	}
	local := l.code.Local(slot, t)
	switch verb {
	case "load":
		return &ast.LoadLocal{Op: op, Local: local}, nil
	case "store":
		return &ast.StoreLocal{Op: op, Local: local}, nil
	}
	return nil, noLowering(ins)
}

func (l *lowerer) typeDescriptor(ins classfile.Instruction, op ast.Op) (ast.Instruction, error) {
	index := ins.Imm.(classfile.IndexImm).Index
	name, err := l.pool.ClassName(index)
	if err != nil {
		return nil, withInstruction(ins, err)
	}
	t, err := classType(name)
	if err != nil {
		return nil, withInstruction(ins, err)
	}

	switch op.Mnemonic {
	case "new":
		return &ast.New{Op: op, Type: t}, nil
	case "anewarray":
		return &ast.NewArray{Op: op, Type: t}, nil
	case "checkcast":
		return &ast.TypeCheck{Op: op, Type: t, Cast: true}, nil
	case "instanceof":
		return &ast.TypeCheck{Op: op, Type: t}, nil
	}
	return nil, noLowering(ins)
}

func (l *lowerer) fieldOrMethod(ins classfile.Instruction, op ast.Op) (ast.Instruction, error) {
	ref, err := l.pool.MemberRef(ins.Imm.(classfile.IndexImm).Index)
	if err != nil {
		return nil, withInstruction(ins, err)
	}
	owner := dotted(ref.Class)

	switch op.Mnemonic {
	case "getfield", "putfield", "getstatic", "putstatic":
		t, err := ast.ParseFieldDescriptor(ref.Descriptor)
		if err != nil {
			return nil, withInstruction(ins, err)
		}
		return &ast.FieldAccess{
			Op:     op,
			Owner:  owner,
			Name:   ref.Name,
			Type:   t,
			Static: strings.HasSuffix(op.Mnemonic, "static"),
			Store:  strings.HasPrefix(op.Mnemonic, "put"),
		}, nil
	case "invokevirtual", "invokespecial", "invokestatic":
		mt, err := ast.ParseMethodDescriptor(ref.Descriptor)
		if err != nil {
			return nil, withInstruction(ins, err)
		}
		return &ast.MethodInvocation{
			Op:    op,
			Owner: owner,
			Name:  ref.Name,
			Kind:  ast.InvokeKind(strings.TrimPrefix(op.Mnemonic, "invoke")),
			Type:  mt,
		}, nil
	}
	return nil, noLowering(ins)
}

func (l *lowerer) interfaceInvoke(ins classfile.Instruction, op ast.Op) (ast.Instruction, error) {
	imm := ins.Imm.(classfile.InvokeImm)

	switch op.Mnemonic {
	case "invokeinterface":
		ref, err := l.pool.MemberRef(imm.Index)
		if err != nil {
			return nil, withInstruction(ins, err)
		}
		mt, err := ast.ParseMethodDescriptor(ref.Descriptor)
		if err != nil {
			return nil, withInstruction(ins, err)
		}
		return &ast.InterfaceInvocation{
			Op:    op,
			Owner: dotted(ref.Class),
			Name:  ref.Name,
			Type:  mt,
			Count: int(imm.Count),
		}, nil
	case "invokedynamic":
		name, desc, bootstrap, err := l.pool.InvokeDynamic(imm.Index)
		if err != nil {
			return nil, withInstruction(ins, err)
		}
		mt, err := ast.ParseMethodDescriptor(desc)
		if err != nil {
			return nil, withInstruction(ins, err)
		}
		return &ast.DynamicInvocation{Op: op, Name: name, Type: mt, Bootstrap: int(bootstrap)}, nil
	}
	return nil, noLowering(ins)
}

var conditions = map[string]ast.Condition{
	"eq":      ast.Eq,
	"ne":      ast.Ne,
	"lt":      ast.Lt,
	"ge":      ast.Ge,
	"gt":      ast.Gt,
	"le":      ast.Le,
	"null":    ast.Null,
	"nonnull": ast.NonNull,
}

func (l *lowerer) jump(ins classfile.Instruction, op ast.Op) (ast.Instruction, error) {
	target := ins.Imm.(classfile.BranchImm).Target
	mn := op.Mnemonic

	switch {
	case mn == "goto" || mn == "goto_w":
		return &ast.Jump{Op: op, Target: target}, nil
	case mn == "jsr" || mn == "jsr_w":
		return nil, unsupported(ins, "subroutines are not lowered")
	case strings.HasPrefix(mn, "if_") && len(mn) > 7 && mn[4:7] == "cmp":
		// if_<t>cmp<cond>
		t, ok := ast.FromCode(mn[3])
		cond, okCond := conditions[mn[7:]]
		if !ok || !okCond {
			return nil, noLowering(ins)
		}
		return &ast.Jump{Op: op, Target: target, Condition: cond, Type: t, Operands: 2}, nil
	case strings.HasPrefix(mn, "if"):
		cond, ok := conditions[mn[2:]]
		if !ok {
			return nil, noLowering(ins)
		}
		t := ast.IntType
		if cond == ast.Null || cond == ast.NonNull {
			t = ast.ObjectType
		}
		return &ast.Jump{Op: op, Target: target, Condition: cond, Type: t, Operands: 1}, nil
	}
	return nil, noLowering(ins)
}

func (l *lowerer) loadConstant(ins classfile.Instruction, op ast.Op) (ast.Instruction, error) {
	index := ins.Imm.(classfile.IndexImm).Index
	c, err := l.pool.Entry(index)
	if err != nil {
		return nil, withInstruction(ins, err)
	}

	switch c := c.(type) {
	case *classfile.IntegerConstant:
		return &ast.LoadConstant{Op: op, Type: ast.IntType, Value: c.Value}, nil
	case *classfile.FloatConstant:
		return &ast.LoadConstant{Op: op, Type: ast.FloatType, Value: c.Value}, nil
	case *classfile.LongConstant:
		return &ast.LoadConstant{Op: op, Type: ast.LongType, Value: c.Value}, nil
	case *classfile.DoubleConstant:
		return &ast.LoadConstant{Op: op, Type: ast.DoubleType, Value: c.Value}, nil
	case *classfile.StringConstant:
		s, err := l.pool.Utf8(c.StringIndex)
		if err != nil {
			return nil, withInstruction(ins, err)
		}
		return &ast.LoadConstant{Op: op, Type: ast.StringType, Value: s}, nil
	case *classfile.ClassConstant:
		name, err := l.pool.Utf8(c.NameIndex)
		if err != nil {
			return nil, withInstruction(ins, err)
		}
		t, err := classType(name)
		if err != nil {
			return nil, withInstruction(ins, err)
		}
		return &ast.LoadConstant{Op: op, Type: ast.ClassType, Value: t}, nil
	}
	return nil, unsupported(ins, "ldc of "+classfile.TagName(c.Tag())+" constants is not lowered")
}
