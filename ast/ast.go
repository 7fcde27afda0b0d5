package ast

import (
	"fmt"
	"sort"
	"strings"
)

// Class is a normalized class or interface.
type Class struct {
	Type       Type
	Super      string
	SourceFile string
	Modifiers  Modifiers
	Interfaces []string
	Fields     []*Field
	Methods    []*Method
	Interface  bool
}

// QualifiedName returns the dotted class name.
func (c *Class) QualifiedName() string {
	return c.Type.Name
}

// Name returns the simple class name.
func (c *Class) Name() string {
	return simpleName(c.Type.Name)
}

// Package returns the dotted package name, empty for the default package.
func (c *Class) Package() string {
	if i := strings.LastIndexByte(c.Type.Name, '.'); i >= 0 {
		return c.Type.Name[:i]
	}
	return ""
}

func simpleName(qualified string) string {
	return qualified[strings.LastIndexByte(qualified, '.')+1:]
}

// Field is a normalized field declaration.
type Field struct {
	Name      string
	Type      Type
	Modifiers Modifiers
}

// MethodKind separates ordinary methods from constructors and static
// initializers, which render without a return type.
type MethodKind uint8

const (
	RegularMethod MethodKind = iota
	Constructor
	StaticInitializer
)

// Method is a normalized method declaration. Return is nil for
// constructors and static initializers, and Name is empty for a static
// initializer.
type Method struct {
	Return    *Type
	Code      *Code
	Name      string
	Modifiers Modifiers
	Params    []Type
	Kind      MethodKind
}

// HasBody reports whether the method is declared with a body. Abstract
// and native methods have none.
func (m *Method) HasBody() bool {
	return !m.Modifiers.Has(Abstract) && !m.Modifiers.Has(Native)
}

// Local is a local variable slot. Every reference to the same slot within
// one method body shares one *Local.
type Local struct {
	Type Type
	Slot int
}

// Name returns the synthesized variable name.
func (l *Local) Name() string {
	return fmt.Sprintf("local%d", l.Slot)
}

// Code is a method body.
type Code struct {
	locals       map[int]*Local
	Instructions []Instruction
	MaxStack     int
	MaxLocals    int
}

// NewCode returns an empty body.
func NewCode(maxStack, maxLocals int) *Code {
	return &Code{
		locals:    make(map[int]*Local),
		MaxStack:  maxStack,
		MaxLocals: maxLocals,
	}
}

// Local returns the Local for slot, creating it with type t on first
// reference. Later references return the same pointer and keep the
// first type.
func (c *Code) Local(slot int, t Type) *Local {
	if c.locals == nil {
		c.locals = make(map[int]*Local)
	}
	if l, ok := c.locals[slot]; ok {
		return l
	}
	l := &Local{Slot: slot, Type: t}
	c.locals[slot] = l
	return l
}

// Locals returns every referenced local ordered by slot.
func (c *Code) Locals() []*Local {
	out := make([]*Local, 0, len(c.locals))
	for _, l := range c.locals {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// Append adds an instruction to the body.
func (c *Code) Append(ins Instruction) {
	c.Instructions = append(c.Instructions, ins)
}
