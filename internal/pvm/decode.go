package pvm

// OperandShape identifies which of the thirteen instruction encodings an
// opcode uses.
type OperandShape uint8

const (
	ShapeNoArgs OperandShape = iota
	ShapeOneImm
	ShapeTwoImm
	ShapeOneOffset
	ShapeOneRegOneImm
	ShapeOneRegTwoImm
	ShapeOneRegOneImmOneOffset
	ShapeTwoReg
	ShapeTwoRegOneImm
	ShapeTwoRegOneOffset
	ShapeTwoRegTwoImm
	ShapeThreeReg
	ShapeOneRegOneExtImm
)

// Instruction is one decoded instruction: its opcode, operand registers,
// immediates (as signed 64-bit, sign-extended per the encoding), and the
// byte length consumed from the code stream (needed to compute offset
// targets, which are relative to the instruction's end).
type Instruction struct {
	Opcode  uint8
	Shape   OperandShape
	Reg     [3]uint8
	Imm     [2]int64
	Offset  int32
	Length  uint32
}

// decodeImm reads a variable-length little-endian immediate of the given
// byte count and sign-extends it.
func decodeImm(b []byte, n int) int64 {
	var v uint64
	for i := 0; i < n && i < len(b); i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	if n > 0 && n < 8 {
		shift := uint(64 - 8*n)
		return int64(v<<shift) >> shift
	}
	return int64(v)
}

// nibbles splits a byte into its low and high 4-bit register indices.
func nibbles(b byte) (lo, hi uint8) {
	return b & 0x0F, (b >> 4) & 0x0F
}

// DecodeAt decodes the instruction starting at code[pc] given its operand
// shape (looked up by the opcode table in interpreter.go) and the number
// of trailing bytes available before the next instruction-start boundary
// or end of code -- which bounds how many immediate bytes are consumed for
// the variable-length immediate shapes.
func DecodeAt(code []byte, pc uint32, shape OperandShape, available uint32) Instruction {
	inst := Instruction{Opcode: code[pc], Shape: shape}
	body := code[pc+1:]
	if uint32(len(body)) > available {
		body = body[:available]
	}

	switch shape {
	case ShapeNoArgs:
		inst.Length = 1
	case ShapeOneImm:
		inst.Imm[0] = decodeImm(body, len(body))
		inst.Length = 1 + uint32(len(body))
	case ShapeTwoImm:
		n1 := len(body) / 2
		inst.Imm[0] = decodeImm(body[:n1], n1)
		inst.Imm[1] = decodeImm(body[n1:], len(body)-n1)
		inst.Length = 1 + uint32(len(body))
	case ShapeOneOffset:
		inst.Offset = int32(decodeImm(body, len(body)))
		inst.Length = 1 + uint32(len(body))
	case ShapeOneRegOneImm:
		lo, _ := nibbles(body[0])
		inst.Reg[0] = lo
		rest := body[1:]
		inst.Imm[0] = decodeImm(rest, len(rest))
		inst.Length = 2 + uint32(len(rest))
	case ShapeOneRegTwoImm:
		lo, _ := nibbles(body[0])
		inst.Reg[0] = lo
		rest := body[1:]
		n1 := len(rest) / 2
		inst.Imm[0] = decodeImm(rest[:n1], n1)
		inst.Imm[1] = decodeImm(rest[n1:], len(rest)-n1)
		inst.Length = 2 + uint32(len(rest))
	case ShapeOneRegOneImmOneOffset:
		lo, _ := nibbles(body[0])
		inst.Reg[0] = lo
		rest := body[1:]
		n1 := len(rest) / 2
		inst.Imm[0] = decodeImm(rest[:n1], n1)
		inst.Offset = int32(decodeImm(rest[n1:], len(rest)-n1))
		inst.Length = 2 + uint32(len(rest))
	case ShapeTwoReg:
		lo, hi := nibbles(body[0])
		inst.Reg[0], inst.Reg[1] = lo, hi
		inst.Length = 2
	case ShapeTwoRegOneImm:
		lo, hi := nibbles(body[0])
		inst.Reg[0], inst.Reg[1] = lo, hi
		rest := body[1:]
		inst.Imm[0] = decodeImm(rest, len(rest))
		inst.Length = 2 + uint32(len(rest))
	case ShapeTwoRegOneOffset:
		lo, hi := nibbles(body[0])
		inst.Reg[0], inst.Reg[1] = lo, hi
		rest := body[1:]
		inst.Offset = int32(decodeImm(rest, len(rest)))
		inst.Length = 2 + uint32(len(rest))
	case ShapeTwoRegTwoImm:
		lo, hi := nibbles(body[0])
		inst.Reg[0], inst.Reg[1] = lo, hi
		rest := body[1:]
		n1 := len(rest) / 2
		inst.Imm[0] = decodeImm(rest[:n1], n1)
		inst.Imm[1] = decodeImm(rest[n1:], len(rest)-n1)
		inst.Length = 2 + uint32(len(rest))
	case ShapeThreeReg:
		lo1, hi1 := nibbles(body[0])
		lo2, _ := nibbles(body[1])
		inst.Reg[0], inst.Reg[1], inst.Reg[2] = lo1, hi1, lo2
		inst.Length = 3
	case ShapeOneRegOneExtImm:
		lo, _ := nibbles(body[0])
		inst.Reg[0] = lo
		rest := body[1:]
		inst.Imm[0] = decodeImm(rest, len(rest))
		inst.Length = 2 + uint32(len(rest))
	}
	return inst
}
