package printer

import (
	"io"
	"strings"

	"github.com/wippyai/charm/ast"
	charmerrors "github.com/wippyai/charm/errors"
)

// Style selects a renderer.
type Style string

const (
	// StyleJavap renders declarations with disassembled method bodies.
	StyleJavap Style = "javap"
	// StyleSource renders a declaration skeleton with empty bodies.
	StyleSource Style = "source"
)

// ParseStyle validates a style name.
func ParseStyle(name string) (Style, error) {
	switch s := Style(strings.ToLower(name)); s {
	case StyleJavap, StyleSource:
		return s, nil
	}
	return "", charmerrors.InvalidInput(charmerrors.PhaseRender, "unknown style "+name)
}

// Render writes c to w in the given style.
func Render(w io.Writer, c *ast.Class, style Style) error {
	var text string
	switch style {
	case StyleJavap:
		text = Javap(c)
	case StyleSource:
		text = Source(c)
	default:
		return charmerrors.InvalidInput(charmerrors.PhaseRender, "unknown style "+string(style))
	}
	if _, err := io.WriteString(w, text+"\n"); err != nil {
		return charmerrors.Wrap(charmerrors.PhaseRender, charmerrors.KindInvalidInput, err, "write output")
	}
	return nil
}

// classFrame writes the package and source lines, the declaration, one
// line per field and one block per method rendered by method.
func classFrame(b *Builder, c *ast.Class, name string, method func(*Builder, *ast.Method)) {
	if pkg := c.Package(); pkg != "" {
		b.Text("package ", pkg, ";").Line()
	}
	if c.SourceFile != "" {
		b.Text("/** Compiled from ", c.SourceFile, " **/").Line()
	}
	b.Text(Declaration(c, name), " {")

	if len(c.Fields) > 0 {
		b.Nested(func(nb *Builder) {
			for _, f := range c.Fields {
				nb.Text(FieldDeclaration(f)).Line()
			}
		})
	}
	if len(c.Methods) > 0 {
		b.Nested(func(nb *Builder) {
			for _, m := range c.Methods {
				method(nb, m)
				nb.Line()
			}
		})
	}
	b.Line().Text("}")
}

// Declaration renders the class header without the opening brace.
// Extending java.lang.Object is implied and not rendered.
func Declaration(c *ast.Class, name string) string {
	var parts []string
	if len(c.Modifiers) > 0 {
		parts = append(parts, c.Modifiers.String())
	}
	if c.Interface {
		parts = append(parts, "interface", name)
		if len(c.Interfaces) > 0 {
			parts = append(parts, "extends", strings.Join(c.Interfaces, ", "))
		}
		return strings.Join(parts, " ")
	}

	parts = append(parts, "class", name)
	if c.Super != "" && c.Super != ast.ObjectType.Name {
		parts = append(parts, "extends", c.Super)
	}
	if len(c.Interfaces) > 0 {
		parts = append(parts, "implements", strings.Join(c.Interfaces, ", "))
	}
	return strings.Join(parts, " ")
}

// FieldDeclaration renders "<modifiers> <type> <name>;".
func FieldDeclaration(f *ast.Field) string {
	var sb strings.Builder
	if len(f.Modifiers) > 0 {
		sb.WriteString(f.Modifiers.String())
		sb.WriteByte(' ')
	}
	sb.WriteString(f.Type.String())
	sb.WriteByte(' ')
	sb.WriteString(f.Name)
	sb.WriteByte(';')
	return sb.String()
}

// Signature renders a method's modifiers, return type, name and parameter
// types. Static initializers have no name and render without parentheses.
func Signature(m *ast.Method) string {
	var parts []string
	if len(m.Modifiers) > 0 {
		parts = append(parts, m.Modifiers.String())
	}
	if m.Return != nil {
		parts = append(parts, m.Return.String())
	}
	if m.Name != "" {
		parts = append(parts, m.Name+"("+typeList(m.Params)+")")
	}
	return strings.Join(parts, " ")
}

func typeList(types []ast.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
