package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/charm/ast"
)

// Javap renders c in disassembly style: declarations as javap prints them
// followed by each concrete method's instructions.
func Javap(c *ast.Class) string {
	b := NewBuilder()
	classFrame(b, c, c.QualifiedName(), javapMethod)
	return b.String()
}

// Method renders a single method in disassembly style at indent level 0.
func Method(m *ast.Method) string {
	b := NewBuilder()
	javapMethod(b, m)
	return b.String()
}

func javapMethod(b *Builder, m *ast.Method) {
	b.Text(Signature(m))
	if !m.HasBody() || m.Code == nil {
		b.Text(";")
		return
	}
	b.Text(" {")
	if len(m.Code.Instructions) > 0 {
		b.Nested(func(nb *Builder) {
			for _, ins := range m.Code.Instructions {
				nb.Text(Instruction(ins)).Line()
			}
		})
	}
	b.Line().Text("}")
}

// Instruction renders one disassembly line: the instruction pointer and
// mnemonic in fixed-width columns, then the resolved operand.
func Instruction(ins ast.Instruction) string {
	h := ins.Header()
	line := fmt.Sprintf("#%-4d %-18s %s", h.IP, h.Mnemonic, Operand(ins))
	return strings.TrimRight(line, " ")
}

// Operand renders the resolved operand text of ins, empty for
// instructions without one.
func Operand(ins ast.Instruction) string {
	switch ins := ins.(type) {
	case *ast.LoadConstant:
		return ins.Type.String() + " " + constantText(ins.Value)
	case *ast.LoadLocal:
		return ins.Local.Type.String() + " " + ins.Local.Name()
	case *ast.StoreLocal:
		return ins.Local.Type.String() + " " + ins.Local.Name()
	case *ast.IncrementLocal:
		return ins.Local.Name() + " " + strconv.Itoa(ins.Delta)
	case *ast.LoadArrayItem:
		return ins.Type.String()
	case *ast.StoreArrayItem:
		return ins.Type.String()
	case *ast.FieldAccess:
		return ins.Owner + "." + ins.Name + ":" + ins.Type.String()
	case *ast.MethodInvocation:
		return invocation(ins.Owner+"."+ins.Name, ins.Type)
	case *ast.InterfaceInvocation:
		return invocation(ins.Owner+"."+ins.Name, ins.Type)
	case *ast.DynamicInvocation:
		return invocation(ins.Name, ins.Type) + " [bootstrap " + strconv.Itoa(ins.Bootstrap) + "]"
	case *ast.New:
		return ins.Type.String()
	case *ast.NewArray:
		return ins.Type.String()
	case *ast.TypeCheck:
		return ins.Type.String()
	case *ast.Jump:
		return "#" + strconv.Itoa(ins.Target)
	}
	return ""
}

func invocation(name string, mt ast.MethodType) string {
	return name + "(" + typeList(mt.Params) + "):" + mt.Return.String()
}

func constantText(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case ast.Type:
		return v.String() + ".class"
	}
	return fmt.Sprint(v)
}
