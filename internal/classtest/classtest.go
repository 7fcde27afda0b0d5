// Package classtest assembles class file bytes for tests.
//
// Only what the decoder needs to be exercised is supported: a constant pool
// builder with deduplication, members, raw and Code attributes. Strings are
// written as plain UTF-8, so test text must avoid NUL and supplementary
// characters.
package classtest

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
)

// Writer provides big-endian writing for class file structures.
type Writer struct {
	buf bytes.Buffer
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// U1 writes a single byte.
func (w *Writer) U1(v uint8) *Writer {
	w.buf.WriteByte(v)
	return w
}

// U2 writes a big-endian uint16.
func (w *Writer) U2(v uint16) *Writer {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
	return w
}

// U4 writes a big-endian uint32.
func (w *Writer) U4(v uint32) *Writer {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
	return w
}

// Raw writes data unchanged.
func (w *Writer) Raw(data ...byte) *Writer {
	w.buf.Write(data)
	return w
}

// Pool builds a constant pool. Every method returns the entry index;
// identical entries are shared.
type Pool struct {
	index   map[string]uint16
	entries [][]byte
	next    uint16
}

// NewPool creates an empty pool whose first entry gets index 1.
func NewPool() *Pool {
	return &Pool{index: make(map[string]uint16), next: 1}
}

// Count returns constant_pool_count.
func (p *Pool) Count() uint16 {
	return p.next
}

func (p *Pool) add(key string, slots uint16, entry []byte) uint16 {
	if i, ok := p.index[key]; ok {
		return i
	}
	i := p.next
	p.entries = append(p.entries, entry)
	p.index[key] = i
	p.next += slots
	return i
}

func entry(tag uint8, build func(w *Writer)) []byte {
	var w Writer
	w.U1(tag)
	build(&w)
	return append([]byte(nil), w.Bytes()...)
}

// Raw appends an entry with an arbitrary tag and payload, never shared.
func (p *Pool) Raw(tag uint8, payload []byte) uint16 {
	i := p.next
	p.entries = append(p.entries, append([]byte{tag}, payload...))
	p.next++
	return i
}

func (p *Pool) Utf8(s string) uint16 {
	return p.add("utf8:"+s, 1, entry(1, func(w *Writer) {
		w.U2(uint16(len(s))).Raw([]byte(s)...)
	}))
}

func (p *Pool) Integer(v int32) uint16 {
	return p.add("int:"+itoa(int64(v)), 1, entry(3, func(w *Writer) {
		w.U4(uint32(v))
	}))
}

func (p *Pool) Float(v float32) uint16 {
	bits := math.Float32bits(v)
	return p.add("float:"+itoa(int64(bits)), 1, entry(4, func(w *Writer) {
		w.U4(bits)
	}))
}

// Long takes two slots.
func (p *Pool) Long(v int64) uint16 {
	return p.add("long:"+itoa(v), 2, entry(5, func(w *Writer) {
		w.U4(uint32(uint64(v) >> 32)).U4(uint32(v))
	}))
}

// Double takes two slots.
func (p *Pool) Double(v float64) uint16 {
	bits := math.Float64bits(v)
	return p.add("double:"+itoa(int64(bits)), 2, entry(6, func(w *Writer) {
		w.U4(uint32(bits >> 32)).U4(uint32(bits))
	}))
}

// Class adds a Class entry for an internal (slash separated) name.
func (p *Pool) Class(name string) uint16 {
	n := p.Utf8(name)
	return p.add("class:"+name, 1, entry(7, func(w *Writer) { w.U2(n) }))
}

func (p *Pool) String(s string) uint16 {
	n := p.Utf8(s)
	return p.add("string:"+s, 1, entry(8, func(w *Writer) { w.U2(n) }))
}

func (p *Pool) NameAndType(name, desc string) uint16 {
	n, d := p.Utf8(name), p.Utf8(desc)
	return p.add("nat:"+name+":"+desc, 1, entry(12, func(w *Writer) { w.U2(n).U2(d) }))
}

func (p *Pool) ref(tag uint8, kind, class, name, desc string) uint16 {
	c, nt := p.Class(class), p.NameAndType(name, desc)
	return p.add(kind+":"+class+"."+name+":"+desc, 1, entry(tag, func(w *Writer) { w.U2(c).U2(nt) }))
}

func (p *Pool) FieldRef(class, name, desc string) uint16 {
	return p.ref(9, "field", class, name, desc)
}

func (p *Pool) MethodRef(class, name, desc string) uint16 {
	return p.ref(10, "method", class, name, desc)
}

func (p *Pool) InterfaceMethodRef(class, name, desc string) uint16 {
	return p.ref(11, "imethod", class, name, desc)
}

func (p *Pool) MethodHandle(kind uint8, ref uint16) uint16 {
	return p.add("mh:"+itoa(int64(kind))+":"+itoa(int64(ref)), 1, entry(15, func(w *Writer) { w.U1(kind).U2(ref) }))
}

func (p *Pool) InvokeDynamic(bootstrap uint16, name, desc string) uint16 {
	nt := p.NameAndType(name, desc)
	return p.add("indy:"+itoa(int64(bootstrap))+":"+name+":"+desc, 1, entry(18, func(w *Writer) { w.U2(bootstrap).U2(nt) }))
}

func (p *Pool) write(w *Writer) {
	w.U2(p.next)
	for _, e := range p.entries {
		w.Raw(e...)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Attr is an attribute with an already encoded payload.
type Attr struct {
	Name string
	Data []byte
}

// Member is a field or method.
type Member struct {
	Name       string
	Descriptor string
	Attributes []Attr
	Access     uint16
}

// Class describes a class file to assemble.
type Class struct {
	Pool       *Pool
	This       string
	Super      string
	Interfaces []string
	Fields     []Member
	Methods    []Member
	Attributes []Attr
	Magic      uint32
	Minor      uint16
	Major      uint16
	Access     uint16
}

// NewClass starts a public class extending java/lang/Object.
func NewClass(name string) *Class {
	return &Class{
		Pool:   NewPool(),
		This:   name,
		Super:  "java/lang/Object",
		Magic:  0xCAFEBABE,
		Major:  52,
		Access: 0x0021,
	}
}

// Field appends a field.
func (c *Class) Field(access uint16, name, desc string, attrs ...Attr) *Class {
	c.Fields = append(c.Fields, Member{Access: access, Name: name, Descriptor: desc, Attributes: attrs})
	return c
}

// Method appends a method.
func (c *Class) Method(access uint16, name, desc string, attrs ...Attr) *Class {
	c.Methods = append(c.Methods, Member{Access: access, Name: name, Descriptor: desc, Attributes: attrs})
	return c
}

// SourceFile attaches a SourceFile attribute.
func (c *Class) SourceFile(name string) *Class {
	var w Writer
	w.U2(c.Pool.Utf8(name))
	c.Attributes = append(c.Attributes, Attr{Name: "SourceFile", Data: w.Bytes()})
	return c
}

// Code encodes a Code attribute with an empty exception table.
func (c *Class) Code(maxStack, maxLocals uint16, code []byte, attrs ...Attr) Attr {
	var w Writer
	w.U2(maxStack).U2(maxLocals).U4(uint32(len(code))).Raw(code...)
	w.U2(0)
	c.Pool.writeAttributes(&w, attrs)
	return Attr{Name: "Code", Data: append([]byte(nil), w.Bytes()...)}
}

func (p *Pool) writeAttributes(w *Writer, attrs []Attr) {
	w.U2(uint16(len(attrs)))
	for _, a := range attrs {
		w.U2(p.Utf8(a.Name)).U4(uint32(len(a.Data))).Raw(a.Data...)
	}
}

func (p *Pool) writeMembers(w *Writer, members []Member) {
	w.U2(uint16(len(members)))
	for _, m := range members {
		w.U2(m.Access).U2(p.Utf8(m.Name)).U2(p.Utf8(m.Descriptor))
		p.writeAttributes(w, m.Attributes)
	}
}

// Bytes assembles the class file. The body is encoded first so every name
// it mentions is in the pool before the pool is written.
func (c *Class) Bytes() []byte {
	var body Writer
	body.U2(c.Access).U2(c.Pool.Class(c.This))
	if c.Super == "" {
		body.U2(0)
	} else {
		body.U2(c.Pool.Class(c.Super))
	}
	body.U2(uint16(len(c.Interfaces)))
	for _, iface := range c.Interfaces {
		body.U2(c.Pool.Class(iface))
	}
	c.Pool.writeMembers(&body, c.Fields)
	c.Pool.writeMembers(&body, c.Methods)
	c.Pool.writeAttributes(&body, c.Attributes)

	var w Writer
	w.U4(c.Magic).U2(c.Minor).U2(c.Major)
	c.Pool.write(&w)
	w.Raw(body.Bytes()...)
	return w.Bytes()
}
