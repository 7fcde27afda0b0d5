package classfile

import (
	"errors"
	"strings"
	"testing"

	"github.com/wippyai/charm/classfile/internal/binary"
	charmerrors "github.com/wippyai/charm/errors"
)

type point struct {
	Tags []uint16
	Name []byte
	X    uint8
	Y    uint16
}

var pointRecord = NewRecord[point]("Point").
	U1("x", func(p *point) *uint8 { return &p.X }).
	U2("y", func(p *point) *uint16 { return &p.Y }, func(_ *Context, p *point) error {
		if p.Y > 100 {
			return errors.New("y out of range")
		}
		return nil
	}).
	Blob("name", 1, func(p *point) *[]byte { return &p.Name }).
	Field("tags", U2Array(func(p *point) *[]uint16 { return &p.Tags }))

type polygon struct {
	Points []point
	Origin point
}

var polygonRecord = NewRecord[polygon]("Polygon").
	Field("origin", Nested(pointRecord, func(p *polygon) *point { return &p.Origin })).
	Field("points", Array(1, pointRecord.Elem(), func(p *polygon) *[]point { return &p.Points }))

func TestRecordLoadsInOrder(t *testing.T) {
	data := []byte{
		0x07,       // x
		0x00, 0x2a, // y
		0x02, 'h', 'i', // name
		0x00, 0x02, 0x00, 0x01, 0x00, 0x02, // tags
	}
	ctx := newContext(binary.FromBytes(data))
	p, err := pointRecord.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.X != 7 || p.Y != 42 || string(p.Name) != "hi" || len(p.Tags) != 2 || p.Tags[1] != 2 {
		t.Errorf("got %+v", p)
	}
	if ctx.Offset() != len(data) {
		t.Errorf("offset: got %d, want %d", ctx.Offset(), len(data))
	}

	want := []string{"x", "y", "name", "tags"}
	if got := pointRecord.Fields(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Fields: got %v", got)
	}
}

func TestRecordHookFailure(t *testing.T) {
	ctx := newContext(binary.FromBytes([]byte{0x01, 0x00, 0xff}))
	_, err := pointRecord.Load(ctx)
	if !charmerrors.IsStructural(err) {
		t.Fatalf("expected structural error, got %v", err)
	}
	var ce *charmerrors.Error
	errors.As(err, &ce)
	if strings.Join(ce.Path, ".") != "y" {
		t.Errorf("path: got %v", ce.Path)
	}
	if ce.Offset != 1 {
		t.Errorf("offset: got %d, want 1 (start of y)", ce.Offset)
	}
}

func TestRecordNestedErrorPath(t *testing.T) {
	data := []byte{
		0x01, 0x00, 0x01, 0x00, 0x00, 0x00, // origin
		0x02,                               // two points
		0x02, 0x00, 0x02, 0x00, 0x00, 0x00, // points[0]
		0x03, 0x00, 0x03, 0x05, 'a', // points[1], name truncated
	}
	ctx := newContext(binary.FromBytes(data))
	_, err := polygonRecord.Load(ctx)
	var ce *charmerrors.Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *errors.Error, got %v", err)
	}
	if got := strings.Join(ce.Path, "."); got != "points[1].name" {
		t.Errorf("path: got %q", got)
	}
	if !errors.Is(err, binary.ErrTruncated) {
		t.Errorf("expected truncation cause, got %v", err)
	}
}

func TestSubContextOffsetsAreAbsolute(t *testing.T) {
	parent := newContext(binary.FromBytes(nil))
	sub := parent.sub([]byte{0x01}, 100)
	_, err := pointRecord.Load(sub)
	var ce *charmerrors.Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *errors.Error, got %v", err)
	}
	if ce.Offset != 101 {
		t.Errorf("offset: got %d, want 101", ce.Offset)
	}
}

func TestArrayCountExceedsInput(t *testing.T) {
	ctx := newContext(binary.FromBytes([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff}))
	_, err := polygonRecord.Load(ctx)
	if !charmerrors.IsStructural(err) {
		t.Fatalf("expected structural error, got %v", err)
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("message: %v", err)
	}
}

func TestPoolLookups(t *testing.T) {
	pool := ConstantPool{
		nil,
		&Utf8Constant{Value: "java/lang/String"},
		&ClassConstant{NameIndex: 1},
		&Utf8Constant{Value: "length"},
		&Utf8Constant{Value: "()I"},
		&NameAndTypeConstant{NameIndex: 3, DescriptorIndex: 4},
		&MethodRefConstant{ClassIndex: 2, NameAndTypeIndex: 5},
		&StringConstant{StringIndex: 3},
		&LongConstant{Value: 1},
		nil,
	}

	ref, err := pool.MemberRef(6)
	if err != nil {
		t.Fatalf("MemberRef: %v", err)
	}
	if ref.Class != "java/lang/String" || ref.Name != "length" || ref.Descriptor != "()I" || ref.Tag != TagMethodRef {
		t.Errorf("MemberRef: got %+v", ref)
	}
	if s, err := pool.String(7); err != nil || s != "length" {
		t.Errorf("String: got %q, %v", s, err)
	}

	if _, err := pool.Entry(0); !errors.Is(err, charmerrors.ErrOutOfBounds) {
		t.Errorf("index 0: got %v", err)
	}
	if _, err := pool.Entry(10); !errors.Is(err, charmerrors.ErrOutOfBounds) {
		t.Errorf("index past end: got %v", err)
	}
	if _, err := pool.Entry(9); !errors.Is(err, charmerrors.ErrOutOfBounds) {
		t.Errorf("slot after Long: got %v", err)
	}
	if _, err := pool.Utf8(2); !errors.Is(err, charmerrors.ErrInvalidClassFile) {
		t.Errorf("wrong kind: got %v", err)
	}
	if _, err := pool.MemberRef(1); !errors.Is(err, &charmerrors.Error{Phase: charmerrors.PhasePool, Kind: charmerrors.KindInvalidClassFile}) {
		t.Errorf("MemberRef on Utf8: got %v", err)
	}
}
