package classfile

import (
	"errors"
	"fmt"

	"github.com/wippyai/charm/classfile/internal/binary"
	charmerrors "github.com/wippyai/charm/errors"
)

// Context is the state threaded through a record load: the byte cursor,
// the constant pool once it has been read, and the absolute offset of the
// cursor's first byte within the class file.
type Context struct {
	r    *binary.Reader
	pool ConstantPool
	base int
}

func newContext(r *binary.Reader) *Context {
	return &Context{r: r}
}

// Offset returns the absolute byte offset of the next read.
func (c *Context) Offset() int {
	return c.base + c.r.Position()
}

// Pool returns the constant pool loaded so far, or nil before it is read.
func (c *Context) Pool() ConstantPool {
	return c.pool
}

// sub returns a context reading only payload, which starts at absolute
// offset start.
func (c *Context) sub(payload []byte, start int) *Context {
	return &Context{r: binary.FromBytes(payload), pool: c.pool, base: start}
}

// Hook validates or transforms a record after one of its fields was stored.
type Hook[T any] func(ctx *Context, v *T) error

// StepFunc reads one field of T from ctx.
type StepFunc[T any] func(ctx *Context, v *T) error

type step[T any] struct {
	name string
	read StepFunc[T]
}

// Record is the declarative layout of one class file structure. Steps run
// strictly in the order they were declared.
type Record[T any] struct {
	name  string
	steps []step[T]
}

// NewRecord starts an empty record layout.
func NewRecord[T any](name string) *Record[T] {
	return &Record[T]{name: name}
}

// Name returns the record name used in error paths.
func (rec *Record[T]) Name() string {
	return rec.name
}

// Fields lists the declared field names in load order.
func (rec *Record[T]) Fields() []string {
	names := make([]string, len(rec.steps))
	for i, s := range rec.steps {
		names[i] = s.name
	}
	return names
}

// Field appends a step with a custom reader.
func (rec *Record[T]) Field(name string, read StepFunc[T], hooks ...Hook[T]) *Record[T] {
	rec.steps = append(rec.steps, step[T]{name: name, read: withHooks(read, hooks)})
	return rec
}

// U1 appends an unsigned byte field.
func (rec *Record[T]) U1(name string, dst func(*T) *uint8, hooks ...Hook[T]) *Record[T] {
	return rec.Field(name, func(ctx *Context, v *T) error {
		x, err := ctx.r.ReadU1()
		if err != nil {
			return err
		}
		*dst(v) = x
		return nil
	}, hooks...)
}

// U2 appends an unsigned big-endian 16-bit field.
func (rec *Record[T]) U2(name string, dst func(*T) *uint16, hooks ...Hook[T]) *Record[T] {
	return rec.Field(name, func(ctx *Context, v *T) error {
		x, err := ctx.r.ReadU2()
		if err != nil {
			return err
		}
		*dst(v) = x
		return nil
	}, hooks...)
}

// U4 appends an unsigned big-endian 32-bit field.
func (rec *Record[T]) U4(name string, dst func(*T) *uint32, hooks ...Hook[T]) *Record[T] {
	return rec.Field(name, func(ctx *Context, v *T) error {
		x, err := ctx.r.ReadU4()
		if err != nil {
			return err
		}
		*dst(v) = x
		return nil
	}, hooks...)
}

// Flags appends a u2 access flag field.
func (rec *Record[T]) Flags(name string, dst func(*T) *AccessFlags, hooks ...Hook[T]) *Record[T] {
	return rec.Field(name, func(ctx *Context, v *T) error {
		x, err := ctx.r.ReadU2()
		if err != nil {
			return err
		}
		*dst(v) = AccessFlags(x)
		return nil
	}, hooks...)
}

// Blob appends a length-prefixed byte string. width is the size of the
// length prefix in bytes (1, 2 or 4).
func (rec *Record[T]) Blob(name string, width int, dst func(*T) *[]byte, hooks ...Hook[T]) *Record[T] {
	return rec.Field(name, func(ctx *Context, v *T) error {
		n, err := ctx.r.ReadUN(width)
		if err != nil {
			return err
		}
		data, err := ctx.r.ReadBytes(int(n))
		if err != nil {
			return err
		}
		*dst(v) = data
		return nil
	}, hooks...)
}

// Load reads a fresh T.
func (rec *Record[T]) Load(ctx *Context) (*T, error) {
	v := new(T)
	if err := rec.LoadInto(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// LoadInto fills v field by field. A failing step yields an error whose
// path starts with the field name.
func (rec *Record[T]) LoadInto(ctx *Context, v *T) error {
	for _, s := range rec.steps {
		start := ctx.Offset()
		if err := s.read(ctx, v); err != nil {
			return fieldError(ctx, s.name, start, err)
		}
	}
	return nil
}

// Elem adapts rec for use as an array element.
func (rec *Record[T]) Elem() Elem[T] {
	return func(ctx *Context) (T, error) {
		var v T
		err := rec.LoadInto(ctx, &v)
		return v, err
	}
}

// Elem reads one array element.
type Elem[E any] func(ctx *Context) (E, error)

// Array builds a step reading a count of the given width followed by that
// many elements.
func Array[T, E any](width int, elem Elem[E], dst func(*T) *[]E) StepFunc[T] {
	return func(ctx *Context, v *T) error {
		n, err := ctx.r.ReadUN(width)
		if err != nil {
			return err
		}
		if rem := ctx.r.Remaining(); rem >= 0 && int(n) > rem {
			return charmerrors.Structural(nil, ctx.Offset(), fmt.Sprintf("count %d exceeds %d remaining bytes", n, rem), nil)
		}
		items := make([]E, 0, n)
		for i := 0; i < int(n); i++ {
			item, err := elem(ctx)
			if err != nil {
				return &elemError{index: i, err: err}
			}
			items = append(items, item)
		}
		*dst(v) = items
		return nil
	}
}

// U2Array builds a step reading a u2 count followed by that many u2 values.
func U2Array[T any](dst func(*T) *[]uint16) StepFunc[T] {
	return Array(2, func(ctx *Context) (uint16, error) {
		return ctx.r.ReadU2()
	}, dst)
}

// Nested builds a step loading a record inline.
func Nested[T, N any](rec *Record[N], dst func(*T) *N) StepFunc[T] {
	return func(ctx *Context, v *T) error {
		return rec.LoadInto(ctx, dst(v))
	}
}

func withHooks[T any](read StepFunc[T], hooks []Hook[T]) StepFunc[T] {
	if len(hooks) == 0 {
		return read
	}
	return func(ctx *Context, v *T) error {
		if err := read(ctx, v); err != nil {
			return err
		}
		for _, h := range hooks {
			if err := h(ctx, v); err != nil {
				return err
			}
		}
		return nil
	}
}

type elemError struct {
	err   error
	index int
}

func (e *elemError) Error() string {
	return fmt.Sprintf("element %d: %v", e.index, e.err)
}

func (e *elemError) Unwrap() error {
	return e.err
}

// fieldError turns a step failure into a charm error whose path begins with
// the field (and element index, for arrays).
func fieldError(ctx *Context, name string, start int, err error) error {
	seg := name
	var ee *elemError
	if errors.As(err, &ee) {
		seg = fmt.Sprintf("%s[%d]", name, ee.index)
		err = ee.err
	}
	return charmerrors.WithPath(asLoadError(ctx, start, err), seg)
}

func asLoadError(ctx *Context, start int, err error) error {
	var ce *charmerrors.Error
	if errors.As(err, &ce) {
		return err
	}
	var pe *binary.ParseError
	if errors.As(err, &pe) {
		return charmerrors.Structural(nil, ctx.base+pe.Position, "", pe.Err)
	}
	return charmerrors.Structural(nil, start, "", err)
}
