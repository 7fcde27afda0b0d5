package printer

import "strings"

// token is literal text or, when brk is set, a line break followed by
// level*4 spaces of indentation.
type token struct {
	text  string
	level int
	brk   bool
}

// Builder assembles indented text. Line breaks are tokens carrying their
// indentation level; a break appended directly after another break
// replaces it, so the output never contains blank-line runs.
type Builder struct {
	out   *[]token
	level int
}

// NewBuilder returns an empty builder at indentation level 0.
func NewBuilder() *Builder {
	return &Builder{out: new([]token)}
}

// Text appends literal text.
func (b *Builder) Text(parts ...string) *Builder {
	for _, p := range parts {
		if p != "" {
			*b.out = append(*b.out, token{text: p})
		}
	}
	return b
}

// Line appends a line break at the builder's level.
func (b *Builder) Line() *Builder {
	out := *b.out
	if n := len(out); n > 0 && out[n-1].brk {
		out = out[:n-1]
	}
	*b.out = append(out, token{brk: true, level: b.level})
	return b
}

// Nested runs fn with a builder one level deeper sharing this output,
// starting it on a fresh line. Indentation reverts when fn returns.
func (b *Builder) Nested(fn func(*Builder)) *Builder {
	inner := &Builder{out: b.out, level: b.level + 1}
	inner.Line()
	fn(inner)
	return b
}

// Level returns the indentation level.
func (b *Builder) Level() int {
	return b.level
}

func (b *Builder) String() string {
	var sb strings.Builder
	for _, t := range *b.out {
		if t.brk {
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat(" ", t.level*4))
			continue
		}
		sb.WriteString(t.text)
	}
	return sb.String()
}
