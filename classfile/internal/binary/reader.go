package binary

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrTruncated is returned when fewer bytes remain than a read requested.
var ErrTruncated = errors.New("truncated stream")

// maxPrealloc bounds the buffer ReadBytes allocates up front.
const maxPrealloc = 64 << 10

// Reader wraps an io.ByteReader with position tracking and big-endian
// fixed-width reads as used by the class file format.
type Reader struct {
	r   io.ByteReader
	pos int
}

// NewReader creates a new Reader wrapping the given io.ByteReader.
func NewReader(r io.ByteReader) *Reader {
	return &Reader{r: r, pos: 0}
}

// FromBytes creates a Reader over a byte slice.
func FromBytes(data []byte) *Reader {
	return NewReader(bytes.NewReader(data))
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes, or -1 when the underlying
// reader cannot report it.
func (r *Reader) Remaining() int {
	if br, ok := r.r.(*bytes.Reader); ok {
		return br.Len()
	}
	return -1
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, r.wrapError(ErrTruncated)
		}
		return 0, err
	}
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, r.wrapError(fmt.Errorf("negative length %d", n))
	}
	if rem := r.Remaining(); rem >= 0 && n > rem {
		return nil, r.wrapError(fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, rem))
	}
	// An unsized source only gets as much buffer as it has delivered, so
	// a forged length cannot force a large allocation.
	buf := make([]byte, 0, min(n, maxPrealloc))
	for len(buf) < n {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b)
	}
	return buf, nil
}

// readN reads an n-byte big-endian unsigned value, n <= 4.
func (r *Reader) readN(n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(b)
	}
	return v, nil
}

// ReadU1 reads an unsigned 8-bit value.
func (r *Reader) ReadU1() (uint8, error) {
	return r.ReadByte()
}

// ReadU2 reads an unsigned big-endian 16-bit value.
func (r *Reader) ReadU2() (uint16, error) {
	v, err := r.readN(2)
	return uint16(v), err
}

// ReadU3 reads an unsigned big-endian 24-bit value.
func (r *Reader) ReadU3() (uint32, error) {
	return r.readN(3)
}

// ReadU4 reads an unsigned big-endian 32-bit value.
func (r *Reader) ReadU4() (uint32, error) {
	return r.readN(4)
}

// ReadUN reads an unsigned big-endian value of width 1, 2, 3 or 4 bytes.
func (r *Reader) ReadUN(width int) (uint32, error) {
	if width < 1 || width > 4 {
		return 0, r.wrapError(fmt.Errorf("unsupported integer width %d", width))
	}
	return r.readN(width)
}

// ReadS1 reads a signed 8-bit value.
func (r *Reader) ReadS1() (int8, error) {
	v, err := r.ReadByte()
	return int8(v), err
}

// ReadS2 reads a signed big-endian 16-bit value.
func (r *Reader) ReadS2() (int16, error) {
	v, err := r.readN(2)
	return int16(v), err
}

// ReadS4 reads a signed big-endian 32-bit value.
func (r *Reader) ReadS4() (int32, error) {
	v, err := r.readN(4)
	return int32(v), err
}

// ReadSN reads a signed big-endian value of width 1, 2, 3 or 4 bytes,
// sign-extending from the top bit of the narrowest width.
func (r *Reader) ReadSN(width int) (int32, error) {
	v, err := r.ReadUN(width)
	if err != nil {
		return 0, err
	}
	return SignExtend(v, uint(width*8)), nil
}

// SignExtend interprets the low bits of v as a two's-complement value.
func SignExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// ReadRemaining reads all remaining bytes from the reader.
func (r *Reader) ReadRemaining() ([]byte, error) {
	if br, ok := r.r.(*bytes.Reader); ok {
		return r.ReadBytes(br.Len())
	}
	var buf bytes.Buffer
	for {
		b, err := r.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		r.pos++
		buf.WriteByte(b)
	}
	return buf.Bytes(), nil
}

func (r *Reader) wrapError(err error) error {
	return &ParseError{Position: r.pos, Err: err}
}

// ParseError represents an error during binary parsing with position information.
type ParseError struct {
	Err      error
	Section  string
	Position int
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("classfile: %s at position %d: %v", e.Section, e.Position, e.Err)
	}
	return fmt.Sprintf("classfile: at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapError creates a ParseError with the current position.
func (r *Reader) WrapError(section string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) && pe.Section == "" {
		return &ParseError{Position: pe.Position, Section: section, Err: pe.Err}
	}
	return &ParseError{
		Position: r.pos,
		Section:  section,
		Err:      err,
	}
}
