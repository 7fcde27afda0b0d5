package printer

import "github.com/wippyai/charm/ast"

// Source renders c as a declaration skeleton: the same header, fields and
// signatures as Javap, with empty bodies for concrete methods.
func Source(c *ast.Class) string {
	b := NewBuilder()
	classFrame(b, c, c.Name(), func(b *Builder, m *ast.Method) {
		b.Text(Signature(m))
		if m.HasBody() && m.Code != nil {
			b.Text(" { }")
			return
		}
		b.Text(";")
	})
	return b.String()
}
