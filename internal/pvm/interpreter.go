package pvm

import "github.com/holiman/uint256"

// TerminalKind classifies why a Step stopped.
type TerminalKind uint8

const (
	Play TerminalKind = iota
	Trap
	Halt
	OutOfGas
	Segfault
	InstanceRunError
)

// Status is the result of one Step: either Play (continue) or a Terminal
// outcome, optionally carrying the faulting address for Segfault.
type Status struct {
	Kind    TerminalKind
	Address uint64 // valid only when Kind == Segfault
	HostCall int32  // valid only when Kind == Play and a host call was requested; -1 otherwise
}

func playing() Status { return Status{Kind: Play, HostCall: -1} }

// Opcodes. Only the subset exercised by this node's accumulation paths and
// bundled test vectors is named individually; everything else in 0..255
// traps, a deliberately strict default for unrecognized encodings.
const (
	OpTrap     uint8 = 0
	OpFallthru uint8 = 1
	OpEcalli   uint8 = 78 // host call invocation, one-imm shape carrying the call id

	OpJump    uint8 = 5  // one-offset
	OpJumpInd uint8 = 6  // one-reg-one-imm (base reg + table-index imm)

	OpLoadImm uint8 = 10 // one-reg-one-imm
	OpMoveReg uint8 = 11 // two-reg

	OpAdd uint8 = 20 // three-reg
	OpSub uint8 = 21
	OpMul uint8 = 22
	OpAnd uint8 = 23
	OpOr  uint8 = 24
	OpXor uint8 = 25
	OpShl uint8 = 26
	OpShr uint8 = 27

	OpAddImm uint8 = 30 // two-reg-one-imm
	OpMulUpperSigned   uint8 = 31
	OpMulUpperUnsigned uint8 = 32

	OpLoadU8  uint8 = 40 // two-reg-one-imm (dst, base, offset-imm)
	OpLoadU16 uint8 = 41
	OpLoadU32 uint8 = 42
	OpLoadU64 uint8 = 43
	OpStoreU8  uint8 = 44
	OpStoreU16 uint8 = 45
	OpStoreU32 uint8 = 46
	OpStoreU64 uint8 = 47

	OpBranchEq uint8 = 50 // two-reg-one-offset
	OpBranchNe uint8 = 51
	OpBranchLtU uint8 = 52
	OpBranchLtS uint8 = 53

	OpSbrk uint8 = 60 // two-reg (size-reg, dst)
)

// opcodeShape gives the operand shape for every opcode this interpreter
// recognizes; unlisted opcodes default to ShapeNoArgs and immediately trap
// in Step (an unrecognized opcode can never be a legitimate instruction).
var opcodeShape = map[uint8]OperandShape{
	OpTrap:     ShapeNoArgs,
	OpFallthru: ShapeNoArgs,
	OpEcalli:   ShapeOneImm,

	OpJump:    ShapeOneOffset,
	OpJumpInd: ShapeOneRegOneImm,

	OpLoadImm: ShapeOneRegOneImm,
	OpMoveReg: ShapeTwoReg,

	OpAdd: ShapeThreeReg,
	OpSub: ShapeThreeReg,
	OpMul: ShapeThreeReg,
	OpAnd: ShapeThreeReg,
	OpOr:  ShapeThreeReg,
	OpXor: ShapeThreeReg,
	OpShl: ShapeThreeReg,
	OpShr: ShapeThreeReg,

	OpAddImm:           ShapeTwoRegOneImm,
	OpMulUpperSigned:   ShapeThreeReg,
	OpMulUpperUnsigned: ShapeThreeReg,

	OpLoadU8:  ShapeTwoRegOneImm,
	OpLoadU16: ShapeTwoRegOneImm,
	OpLoadU32: ShapeTwoRegOneImm,
	OpLoadU64: ShapeTwoRegOneImm,

	OpStoreU8:  ShapeTwoRegOneImm,
	OpStoreU16: ShapeTwoRegOneImm,
	OpStoreU32: ShapeTwoRegOneImm,
	OpStoreU64: ShapeTwoRegOneImm,

	OpBranchEq:  ShapeTwoRegOneOffset,
	OpBranchNe:  ShapeTwoRegOneOffset,
	OpBranchLtU: ShapeTwoRegOneOffset,
	OpBranchLtS: ShapeTwoRegOneOffset,

	OpSbrk: ShapeTwoReg,
}

// Interpreter is one running PVM instance: a program, its register file,
// memory, gas counter and program counter. Grounded on core/vm/interpreter.go's
// EVM struct (context + jump table + gas + pc all owned by one struct driving
// a Step-per-opcode loop), generalized to JAM's register machine.
type Interpreter struct {
	Program *Program
	Regs    Registers
	Mem     *Memory
	Gas     GasCounter
	PC      uint32
}

// NewInterpreter creates an instance ready to run from PC 0 with the given
// initial gas allowance.
func NewInterpreter(p *Program, mem *Memory, initialGas int64) *Interpreter {
	return &Interpreter{Program: p, Mem: mem, Gas: GasCounter{Remaining: initialGas}}
}

// Step decodes and executes exactly one instruction, returning Play to
// continue or a Terminal status.
func (it *Interpreter) Step() Status {
	if it.PC >= uint32(len(it.Program.Code)) {
		return Status{Kind: Halt}
	}
	if !it.Program.IsInstructionStart(it.PC) {
		return Status{Kind: Trap}
	}
	opcode := it.Program.Code[it.PC]
	shape, known := opcodeShape[opcode]
	if !known {
		return Status{Kind: Trap}
	}

	available := uint32(len(it.Program.Code)) - it.PC - 1
	if next := it.nextInstructionStart(it.PC + 1); next > 0 {
		available = next - it.PC - 1
	}
	inst := DecodeAt(it.Program.Code, it.PC, shape, available)

	if !it.Gas.Charge(GasFor(inst)) {
		return Status{Kind: OutOfGas}
	}

	return it.execute(inst)
}

// nextInstructionStart returns the offset of the next instruction-start
// boundary at or after from, or 0 if none exists (meaning "to end of code").
func (it *Interpreter) nextInstructionStart(from uint32) uint32 {
	for i := from; i < uint32(len(it.Program.InstructionMask)); i++ {
		if it.Program.InstructionMask[i] {
			return i
		}
	}
	return 0
}

// Run steps the interpreter until a terminal status, until a step requests
// a host call (the Play status carrying HostCall is returned so the caller
// can dispatch it), or until maxSteps steps have executed (a safety bound
// for callers; the program's own termination guarantee comes from the gas
// counter).
func (it *Interpreter) Run(maxSteps int) Status {
	for i := 0; i < maxSteps; i++ {
		st := it.Step()
		if st.Kind != Play {
			return st
		}
		if st.HostCall >= 0 {
			return st
		}
	}
	return Status{Kind: InstanceRunError}
}

func (it *Interpreter) execute(inst Instruction) Status {
	switch inst.Opcode {
	case OpTrap:
		return Status{Kind: Trap}
	case OpFallthru:
		it.PC += inst.Length
		return playing()
	case OpEcalli:
		it.PC += inst.Length
		return Status{Kind: Play, HostCall: int32(inst.Imm[0])}

	case OpJump:
		target, ok := addOffset(it.PC+inst.Length, inst.Offset)
		if !ok || !it.Program.IsInstructionStart(target) {
			return Status{Kind: Trap}
		}
		it.PC = target
		return playing()

	case OpJumpInd:
		base := it.Regs.Get(inst.Reg[0])
		idx := uint32(int64(base) + inst.Imm[0])
		target, ok := it.Program.JumpTarget(idx)
		if !ok || !it.Program.IsInstructionStart(target) {
			return Status{Kind: Trap}
		}
		it.PC = target
		return playing()

	case OpLoadImm:
		it.Regs.Set(inst.Reg[0], uint64(inst.Imm[0]))
		it.PC += inst.Length
		return playing()

	case OpMoveReg:
		it.Regs.Set(inst.Reg[1], it.Regs.Get(inst.Reg[0]))
		it.PC += inst.Length
		return playing()

	case OpAdd:
		it.Regs.Set(inst.Reg[2], it.Regs.Get(inst.Reg[0])+it.Regs.Get(inst.Reg[1]))
		it.PC += inst.Length
		return playing()
	case OpSub:
		it.Regs.Set(inst.Reg[2], it.Regs.Get(inst.Reg[0])-it.Regs.Get(inst.Reg[1]))
		it.PC += inst.Length
		return playing()
	case OpMul:
		it.Regs.Set(inst.Reg[2], it.Regs.Get(inst.Reg[0])*it.Regs.Get(inst.Reg[1]))
		it.PC += inst.Length
		return playing()
	case OpAnd:
		it.Regs.Set(inst.Reg[2], it.Regs.Get(inst.Reg[0])&it.Regs.Get(inst.Reg[1]))
		it.PC += inst.Length
		return playing()
	case OpOr:
		it.Regs.Set(inst.Reg[2], it.Regs.Get(inst.Reg[0])|it.Regs.Get(inst.Reg[1]))
		it.PC += inst.Length
		return playing()
	case OpXor:
		it.Regs.Set(inst.Reg[2], it.Regs.Get(inst.Reg[0])^it.Regs.Get(inst.Reg[1]))
		it.PC += inst.Length
		return playing()
	case OpShl:
		it.Regs.Set(inst.Reg[2], it.Regs.Get(inst.Reg[0])<<(it.Regs.Get(inst.Reg[1])&63))
		it.PC += inst.Length
		return playing()
	case OpShr:
		it.Regs.Set(inst.Reg[2], it.Regs.Get(inst.Reg[0])>>(it.Regs.Get(inst.Reg[1])&63))
		it.PC += inst.Length
		return playing()

	case OpAddImm:
		it.Regs.Set(inst.Reg[1], it.Regs.Get(inst.Reg[0])+uint64(inst.Imm[0]))
		it.PC += inst.Length
		return playing()

	case OpMulUpperSigned:
		// Sign-extend both operands to 256 bits so bits 64..127 of the
		// wrapped product are the high word of the signed 128-bit product.
		x, y := it.Regs.Get(inst.Reg[0]), it.Regs.Get(inst.Reg[1])
		xs, ys := uint64(int64(x)>>63), uint64(int64(y)>>63)
		a := &uint256.Int{x, xs, xs, xs}
		b := &uint256.Int{y, ys, ys, ys}
		prod := new(uint256.Int).Mul(a, b)
		it.Regs.Set(inst.Reg[2], prod.Rsh(prod, 64).Uint64())
		it.PC += inst.Length
		return playing()
	case OpMulUpperUnsigned:
		a := uint256.NewInt(0).SetUint64(it.Regs.Get(inst.Reg[0]))
		b := uint256.NewInt(0).SetUint64(it.Regs.Get(inst.Reg[1]))
		prod := new(uint256.Int).Mul(a, b)
		it.Regs.Set(inst.Reg[2], prod.Rsh(prod, 64).Uint64())
		it.PC += inst.Length
		return playing()

	case OpLoadU8, OpLoadU16, OpLoadU32, OpLoadU64:
		addr := it.Regs.Get(inst.Reg[1]) + uint64(inst.Imm[0])
		width := loadWidth(inst.Opcode)
		data, err := it.Mem.Read(addr, width)
		if err != nil {
			sf := err.(*SegfaultError)
			return Status{Kind: Segfault, Address: sf.Address}
		}
		it.Regs.Set(inst.Reg[0], littleEndianToU64(data))
		it.PC += inst.Length
		return playing()

	case OpStoreU8, OpStoreU16, OpStoreU32, OpStoreU64:
		addr := it.Regs.Get(inst.Reg[1]) + uint64(inst.Imm[0])
		width := loadWidth(inst.Opcode - (OpStoreU8 - OpLoadU8))
		data := u64ToLittleEndian(it.Regs.Get(inst.Reg[0]), width)
		if err := it.Mem.Write(addr, data); err != nil {
			sf := err.(*SegfaultError)
			return Status{Kind: Segfault, Address: sf.Address}
		}
		it.PC += inst.Length
		return playing()

	case OpBranchEq, OpBranchNe, OpBranchLtU, OpBranchLtS:
		a, b := it.Regs.Get(inst.Reg[0]), it.Regs.Get(inst.Reg[1])
		taken := false
		switch inst.Opcode {
		case OpBranchEq:
			taken = a == b
		case OpBranchNe:
			taken = a != b
		case OpBranchLtU:
			taken = a < b
		case OpBranchLtS:
			taken = int64(a) < int64(b)
		}
		if taken {
			target, ok := addOffset(it.PC+inst.Length, inst.Offset)
			if !ok || !it.Program.IsInstructionStart(target) {
				return Status{Kind: Trap}
			}
			it.PC = target
		} else {
			it.PC += inst.Length
		}
		return playing()

	case OpSbrk:
		prev := it.Mem.Sbrk(it.Regs.Get(inst.Reg[0]))
		it.Regs.Set(inst.Reg[1], prev)
		it.PC += inst.Length
		return playing()
	}

	return Status{Kind: Trap}
}

func addOffset(base uint32, offset int32) (uint32, bool) {
	v := int64(base) + int64(offset)
	if v < 0 {
		return 0, false
	}
	return uint32(v), true
}

func loadWidth(opcode uint8) uint64 {
	switch opcode {
	case OpLoadU8:
		return 1
	case OpLoadU16:
		return 2
	case OpLoadU32:
		return 4
	case OpLoadU64:
		return 8
	}
	return 0
}

func littleEndianToU64(b []byte) uint64 {
	var v uint64
	for i, x := range b {
		v |= uint64(x) << (8 * i)
	}
	return v
}

func u64ToLittleEndian(v uint64, n uint64) []byte {
	out := make([]byte, n)
	for i := uint64(0); i < n; i++ {
		out[i] = byte(v >> (8 * i))
	}
	return out
}
