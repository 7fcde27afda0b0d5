package ast

// Op carries the position and mnemonic every instruction has.
type Op struct {
	Mnemonic string
	IP       int
}

// Header returns the instruction's position and mnemonic.
func (o Op) Header() Op { return o }

// Instruction is a normalized instruction. The concrete types below are
// the complete set.
type Instruction interface {
	Header() Op
}

// Condition names the test of a conditional jump.
type Condition string

const (
	Always  Condition = ""
	Eq      Condition = "eq"
	Ne      Condition = "ne"
	Lt      Condition = "lt"
	Ge      Condition = "ge"
	Gt      Condition = "gt"
	Le      Condition = "le"
	Null    Condition = "null"
	NonNull Condition = "nonnull"
)

// InvokeKind is the dispatch of a method invocation.
type InvokeKind string

const (
	InvokeVirtual InvokeKind = "virtual"
	InvokeSpecial InvokeKind = "special"
	InvokeStatic  InvokeKind = "static"
)

type (
	// LoadConstant pushes a literal. Value is int32, int64, float32,
	// float64, string, a Type for class literals, or nil for null.
	LoadConstant struct {
		Op
		Value any
		Type  Type
	}

	// LoadLocal pushes a local variable.
	LoadLocal struct {
		Op
		Local *Local
	}

	// StoreLocal pops into a local variable.
	StoreLocal struct {
		Op
		Local *Local
	}

	// IncrementLocal is iinc.
	IncrementLocal struct {
		Op
		Local *Local
		Delta int
	}

	// LoadArrayItem pushes array[index]. Type is the element type implied
	// by the mnemonic.
	LoadArrayItem struct {
		Op
		Type Type
	}

	// StoreArrayItem pops a value into array[index].
	StoreArrayItem struct {
		Op
		Type Type
	}

	// FieldAccess is getfield, putfield, getstatic or putstatic.
	FieldAccess struct {
		Op
		Owner  string
		Name   string
		Type   Type
		Static bool
		Store  bool
	}

	// MethodInvocation is invokevirtual, invokespecial or invokestatic.
	MethodInvocation struct {
		Op
		Owner string
		Name  string
		Kind  InvokeKind
		Type  MethodType
	}

	// InterfaceInvocation is invokeinterface. Count is the argument word
	// count stored in the instruction.
	InterfaceInvocation struct {
		Op
		Owner string
		Name  string
		Type  MethodType
		Count int
	}

	// DynamicInvocation is invokedynamic. Bootstrap indexes the class's
	// BootstrapMethods attribute.
	DynamicInvocation struct {
		Op
		Name      string
		Type      MethodType
		Bootstrap int
	}

	// New allocates an uninitialized instance of Type.
	New struct {
		Op
		Type Type
	}

	// NewArray creates a one-dimensional array; Type is the element type.
	NewArray struct {
		Op
		Type Type
	}

	// ArrayLength pushes the length of an array.
	ArrayLength struct {
		Op
	}

	// Dup duplicates Words stack words and inserts them Depth words down.
	Dup struct {
		Op
		Words int
		Depth int
	}

	// Pop discards Words stack words.
	Pop struct {
		Op
		Words int
	}

	// Swap exchanges the top two stack words.
	Swap struct {
		Op
	}

	// Jump transfers control to Target, an absolute instruction pointer.
	// Operands is 0 for goto, 1 when comparing against zero or null and 2
	// for the if_<t>cmp forms; Type is the compared type.
	Jump struct {
		Op
		Condition Condition
		Type      Type
		Target    int
		Operands  int
	}

	// Return leaves the method, with Type void for a bare return.
	Return struct {
		Op
		Type Type
	}

	// Noop is nop.
	Noop struct {
		Op
	}

	// Arithmetic is a binary or unary (neg) operation on Type.
	Arithmetic struct {
		Op
		Operator string
		Type     Type
	}

	// Convert is a primitive widening or narrowing conversion.
	Convert struct {
		Op
		From Type
		To   Type
	}

	// Compare pushes -1, 0 or 1. NaN is "l" or "g" for the floating point
	// forms, naming the result pushed when either operand is NaN.
	Compare struct {
		Op
		NaN  string
		Type Type
	}

	// TypeCheck is checkcast (Cast) or instanceof.
	TypeCheck struct {
		Op
		Type Type
		Cast bool
	}

	// Throw is athrow.
	Throw struct {
		Op
	}

	// Monitor is monitorenter, or monitorexit when Enter is false.
	Monitor struct {
		Op
		Enter bool
	}
)
