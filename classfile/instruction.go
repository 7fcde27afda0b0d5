package classfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/charm/classfile/internal/binary"
	charmerrors "github.com/wippyai/charm/errors"
)

// Instruction is one decoded bytecode instruction. Imm holds the typed
// operand value, nil for operand-less opcodes.
type Instruction struct {
	Imm      any    `yaml:"imm,omitempty"`
	Operands []byte `yaml:"-"`
	IP       int    `yaml:"ip"`
	Opcode   byte   `yaml:"opcode"`
	Wide     bool   `yaml:"wide,omitempty"`
}

// Info returns the opcode table entry.
func (i Instruction) Info() OpInfo {
	return opcodes[i.Opcode]
}

// Mnemonic returns the opcode name.
func (i Instruction) Mnemonic() string {
	return opcodes[i.Opcode].Mnemonic
}

// Category returns the addressing mode.
func (i Instruction) Category() Category {
	return opcodes[i.Opcode].Category
}

// Size returns the encoded length including the opcode byte.
func (i Instruction) Size() int {
	return 1 + len(i.Operands)
}

// Immediate types, one per operand shape.
type (
	// IndexImm is a constant pool index (type descriptors, member refs, ldc).
	IndexImm struct {
		Index uint16 `yaml:"index"`
	}

	// LocalImm is a local variable slot, explicit or implied by the mnemonic.
	LocalImm struct {
		Slot uint16 `yaml:"slot"`
	}

	// ValueImm is an inline signed value (bipush, sipush, newarray atype).
	ValueImm struct {
		Value int32 `yaml:"value"`
	}

	// BranchImm is a relative jump; Target is IP + Offset.
	BranchImm struct {
		Offset int32 `yaml:"offset"`
		Target int   `yaml:"target"`
	}

	IncrementImm struct {
		Slot  uint16 `yaml:"slot"`
		Delta int16  `yaml:"delta"`
	}

	// InvokeImm is the operand of invokeinterface and invokedynamic. Count
	// is zero for invokedynamic.
	InvokeImm struct {
		Index uint16 `yaml:"index"`
		Count uint8  `yaml:"count"`
	}

	MultiNewArrayImm struct {
		Index      uint16 `yaml:"index"`
		Dimensions uint8  `yaml:"dimensions"`
	}

	TableSwitchImm struct {
		Offsets []int32 `yaml:"offsets"`
		Default int32   `yaml:"default"`
		Low     int32   `yaml:"low"`
		High    int32   `yaml:"high"`
	}

	LookupSwitchImm struct {
		Pairs   []MatchOffset `yaml:"pairs"`
		Default int32         `yaml:"default"`
	}

	MatchOffset struct {
		Match  int32 `yaml:"match"`
		Offset int32 `yaml:"offset"`
	}
)

// DecodeInstructions decodes a Code attribute's bytecode. The wide prefix
// doubles the operand width of exactly the next instruction.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := binary.FromBytes(code)
	var out []Instruction
	wide := false

	for r.Position() < len(code) {
		ip := r.Position()
		op, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		info := opcodes[op]
		if !info.Valid() {
			return nil, charmerrors.InvalidOpcode(ip, op)
		}

		imm, err := decodeOperands(r, info, op, ip, wide)
		if err != nil {
			return nil, decodeError(ip, info, err)
		}

		out = append(out, Instruction{
			IP:       ip,
			Opcode:   op,
			Wide:     wide && info.Category.Widens(),
			Imm:      imm,
			Operands: code[ip+1 : r.Position()],
		})
		wide = op == OpWide
	}
	return out, nil
}

func decodeError(ip int, info OpInfo, err error) error {
	b := charmerrors.New(charmerrors.PhaseDecode, charmerrors.KindStructural).
		Offset(ip).
		Instruction(info.Mnemonic, info.Category.String())
	if ce, ok := err.(*charmerrors.Error); ok {
		return b.Detail("%s", ce.Detail).Value(ce.Value).Build()
	}
	return b.Cause(err).Build()
}

func decodeOperands(r *binary.Reader, info OpInfo, op byte, ip int, wide bool) (any, error) {
	width := info.Category.Width(wide)

	switch info.Category {
	case CatNoArgument, CatWidePrefix:
		return nil, nil

	case CatSignedByte, CatSignedShort:
		v, err := r.ReadSN(width)
		if err != nil {
			return nil, err
		}
		return ValueImm{Value: v}, nil

	case CatIndexedLocalVar:
		v, err := r.ReadUN(width)
		if err != nil {
			return nil, err
		}
		return LocalImm{Slot: uint16(v)}, nil

	case CatImplicitLocalVar:
		return LocalImm{Slot: implicitSlot(info.Mnemonic)}, nil

	case CatTypeDescriptor, CatFieldOrMethod, CatLoadConstant, CatLoadWideConstant:
		v, err := r.ReadUN(width)
		if err != nil {
			return nil, err
		}
		return IndexImm{Index: uint16(v)}, nil

	case CatIntegerIncrement:
		half := width / 2
		slot, err := r.ReadUN(half)
		if err != nil {
			return nil, err
		}
		delta, err := r.ReadSN(half)
		if err != nil {
			return nil, err
		}
		return IncrementImm{Slot: uint16(slot), Delta: int16(delta)}, nil

	case CatLabelOffset, CatWideLabelOffset:
		off, err := r.ReadSN(width)
		if err != nil {
			return nil, err
		}
		return BranchImm{Offset: off, Target: ip + int(off)}, nil

	case CatInterfaceInvoke:
		index, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		count, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		zero, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		if zero != 0 {
			return nil, charmerrors.New(charmerrors.PhaseDecode, charmerrors.KindStructural).
				Value(zero).Detail("fourth operand byte must be zero, got %d", zero).Build()
		}
		if op == OpInvokeDynamic && count != 0 {
			return nil, charmerrors.New(charmerrors.PhaseDecode, charmerrors.KindStructural).
				Value(count).Detail("invokedynamic count byte must be zero, got %d", count).Build()
		}
		return InvokeImm{Index: index, Count: count}, nil

	case CatMultiNewArray:
		index, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		dims, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		if dims == 0 {
			return nil, charmerrors.New(charmerrors.PhaseDecode, charmerrors.KindStructural).
				Detail("dimensions must be at least 1").Build()
		}
		return MultiNewArrayImm{Index: index, Dimensions: dims}, nil

	case CatTableSwitch:
		return decodeTableSwitch(r, ip)

	case CatLookupSwitch:
		return decodeLookupSwitch(r, ip)
	}
	return nil, fmt.Errorf("no operand decoder for %s", info.Category)
}

// implicitSlot extracts N from mnemonics of the form xload_N / xstore_N.
func implicitSlot(mnemonic string) uint16 {
	i := strings.LastIndexByte(mnemonic, '_')
	n, _ := strconv.Atoi(mnemonic[i+1:])
	return uint16(n)
}

// skipPadding consumes the 0-3 bytes that align switch operands to a
// multiple of four from the start of the code array.
func skipPadding(r *binary.Reader, ip int) error {
	pad := (4 - (ip+1)%4) % 4
	_, err := r.ReadBytes(pad)
	return err
}

func decodeTableSwitch(r *binary.Reader, ip int) (any, error) {
	if err := skipPadding(r, ip); err != nil {
		return nil, err
	}
	def, err := r.ReadS4()
	if err != nil {
		return nil, err
	}
	low, err := r.ReadS4()
	if err != nil {
		return nil, err
	}
	high, err := r.ReadS4()
	if err != nil {
		return nil, err
	}
	if high < low {
		return nil, charmerrors.New(charmerrors.PhaseDecode, charmerrors.KindStructural).
			Detail("high %d below low %d", high, low).Build()
	}
	n := int64(high) - int64(low) + 1
	if rem := int64(r.Remaining()); n*4 > rem {
		return nil, charmerrors.New(charmerrors.PhaseDecode, charmerrors.KindStructural).
			Detail("%d jump offsets exceed %d remaining bytes", n, rem).Build()
	}
	offsets := make([]int32, n)
	for i := range offsets {
		if offsets[i], err = r.ReadS4(); err != nil {
			return nil, err
		}
	}
	return TableSwitchImm{Default: def, Low: low, High: high, Offsets: offsets}, nil
}

func decodeLookupSwitch(r *binary.Reader, ip int) (any, error) {
	if err := skipPadding(r, ip); err != nil {
		return nil, err
	}
	def, err := r.ReadS4()
	if err != nil {
		return nil, err
	}
	npairs, err := r.ReadS4()
	if err != nil {
		return nil, err
	}
	if npairs < 0 {
		return nil, charmerrors.New(charmerrors.PhaseDecode, charmerrors.KindStructural).
			Detail("negative npairs %d", npairs).Build()
	}
	if rem := int64(r.Remaining()); int64(npairs)*8 > rem {
		return nil, charmerrors.New(charmerrors.PhaseDecode, charmerrors.KindStructural).
			Detail("%d match pairs exceed %d remaining bytes", npairs, rem).Build()
	}
	pairs := make([]MatchOffset, npairs)
	for i := range pairs {
		if pairs[i].Match, err = r.ReadS4(); err != nil {
			return nil, err
		}
		if pairs[i].Offset, err = r.ReadS4(); err != nil {
			return nil, err
		}
	}
	return LookupSwitchImm{Default: def, Pairs: pairs}, nil
}
