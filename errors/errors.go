package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad       Phase = "load"       // structural record reading
	PhasePool       Phase = "pool"       // constant pool lookups
	PhaseDecode     Phase = "decode"     // bytecode instruction stream
	PhaseNormalize  Phase = "normalize"  // raw record to AST
	PhaseDescriptor Phase = "descriptor" // type descriptor parsing
	PhaseRender     Phase = "render"     // text output
	PhaseLookup     Phase = "lookup"     // classpath resolution
)

// Kind categorizes the error
type Kind string

const (
	KindStructural        Kind = "structural"
	KindInvalidClassFile  Kind = "invalid_class_file"
	KindInvalidDescriptor Kind = "invalid_descriptor"
	KindNormalize         Kind = "normalize"
	KindUnsupported       Kind = "unsupported"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidOpcode     Kind = "invalid_opcode"
)

// Sentinels for errors.Is. A sentinel without a phase matches any phase.
var (
	ErrStructural        = &Error{Kind: KindStructural}
	ErrInvalidClassFile  = &Error{Kind: KindInvalidClassFile}
	ErrInvalidDescriptor = &Error{Kind: KindInvalidDescriptor}
	ErrNormalize         = &Error{Kind: KindNormalize}
	ErrUnsupported       = &Error{Kind: KindUnsupported}
	ErrOutOfBounds       = &Error{Kind: KindOutOfBounds}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidOpcode     = &Error{Kind: KindInvalidOpcode}
)

// Error is the structured error type used throughout the decoder
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Mnemonic string
	Category string
	Detail   string
	Path     []string
	Offset   int

	positioned bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.positioned {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}

	if e.Mnemonic != "" {
		b.WriteString(": ")
		b.WriteString(e.Mnemonic)
		if e.Category != "" {
			b.WriteString(" [")
			b.WriteString(e.Category)
			b.WriteByte(']')
		}
	}

	if e.Detail != "" {
		if e.Mnemonic != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// Positioned reports whether Offset carries a meaningful byte position.
func (e *Error) Positioned() bool {
	return e.positioned
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Offset sets the byte offset the error refers to
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	b.err.positioned = true
	return b
}

// Instruction sets the mnemonic and addressing-mode category
func (b *Builder) Instruction(mnemonic, category string) *Builder {
	b.err.Mnemonic = mnemonic
	b.err.Category = category
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Structural creates a structural error for a malformed record field
func Structural(path []string, offset int, detail string, cause error) *Error {
	return &Error{
		Phase:      PhaseLoad,
		Kind:       KindStructural,
		Path:       path,
		Offset:     offset,
		Detail:     detail,
		Cause:      cause,
		positioned: true,
	}
}

// InvalidClassFile creates an error for an unknown constant tag or a
// constant of the wrong kind
func InvalidClassFile(phase Phase, detail string, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidClassFile,
		Detail: detail,
		Value:  value,
	}
}

// InvalidDescriptor creates a malformed type descriptor error
func InvalidDescriptor(raw string, detail string) *Error {
	return &Error{
		Phase:  PhaseDescriptor,
		Kind:   KindInvalidDescriptor,
		Detail: fmt.Sprintf("%s in %q", detail, raw),
		Value:  raw,
	}
}

// Normalize creates an error for an instruction without a lowering rule
func Normalize(ip int, mnemonic, category string) *Error {
	return &Error{
		Phase:      PhaseNormalize,
		Kind:       KindNormalize,
		Mnemonic:   mnemonic,
		Category:   category,
		Offset:     ip,
		Detail:     "no semantic lowering registered",
		positioned: true,
	}
}

// InvalidOpcode creates an error for a reserved or unassigned opcode byte
func InvalidOpcode(ip int, opcode byte) *Error {
	return &Error{
		Phase:      PhaseDecode,
		Kind:       KindInvalidOpcode,
		Offset:     ip,
		Detail:     fmt.Sprintf("reserved opcode 0x%02x", opcode),
		Value:      opcode,
		positioned: true,
	}
}

// UnsupportedInstruction creates an error for a decoded instruction the
// normalizer deliberately does not lower
func UnsupportedInstruction(ip int, mnemonic, category, detail string) *Error {
	return &Error{
		Phase:      PhaseNormalize,
		Kind:       KindUnsupported,
		Mnemonic:   mnemonic,
		Category:   category,
		Offset:     ip,
		Detail:     detail,
		positioned: true,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Value:  name,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// WithPath returns err with prefix prepended to its field path. Errors
// that are not *Error become structural errors under the prefix.
func WithPath(err error, prefix ...string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		cp := *e
		cp.Path = append(append([]string(nil), prefix...), e.Path...)
		return &cp
	}
	return &Error{
		Phase: PhaseLoad,
		Kind:  KindStructural,
		Path:  prefix,
		Cause: err,
	}
}

// IsStructural reports whether err is a structural (malformed layout) error
func IsStructural(err error) bool {
	return errors.Is(err, ErrStructural)
}

// IsNormalize reports whether err is a normalize failure, including the
// explicitly unsupported instruction gap
func IsNormalize(err error) bool {
	return errors.Is(err, ErrNormalize) ||
		errors.Is(err, &Error{Phase: PhaseNormalize, Kind: KindUnsupported})
}

// IsNotFound reports whether err is a lookup miss
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
