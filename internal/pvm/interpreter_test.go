package pvm

import "testing"

// buildProgram assembles a minimal program image (empty jump table) from a
// list of instruction-start code bytes, deriving the instruction mask from
// the caller-supplied start offsets.
func buildProgram(code []byte, starts []uint32) *Program {
	mask := make([]bool, len(code))
	for _, s := range starts {
		mask[s] = true
	}
	return &Program{Code: code, InstructionMask: mask}
}

func TestLoadImmAndAdd(t *testing.T) {
	// r0 = 5 (load_imm r0, 5), r1 = 7 (load_imm r1, 7), r2 = r0 + r1 (add r0,r1,r2)
	code := []byte{
		OpLoadImm, 0x00, 5,
		OpLoadImm, 0x01, 7,
		OpAdd, 0x10, 2,
	}
	p := buildProgram(code, []uint32{0, 3, 6})
	it := NewInterpreter(p, NewMemory(0), 1000)

	for i := 0; i < 3; i++ {
		st := it.Step()
		if st.Kind != Play {
			t.Fatalf("step %d: unexpected terminal %v", i, st.Kind)
		}
	}
	if got := it.Regs.Get(2); got != 12 {
		t.Fatalf("r2 = %d, want 12", got)
	}
	if it.PC != uint32(len(code)) {
		t.Fatalf("pc = %d, want %d", it.PC, len(code))
	}
}

func TestTrapOpcode(t *testing.T) {
	code := []byte{OpTrap}
	p := buildProgram(code, []uint32{0})
	it := NewInterpreter(p, NewMemory(0), 1000)
	st := it.Step()
	if st.Kind != Trap {
		t.Fatalf("status = %v, want Trap", st.Kind)
	}
}

func TestOutOfGas(t *testing.T) {
	code := []byte{OpFallthru}
	p := buildProgram(code, []uint32{0})
	it := NewInterpreter(p, NewMemory(0), 0)
	st := it.Step()
	if st.Kind != OutOfGas {
		t.Fatalf("status = %v, want OutOfGas", st.Kind)
	}
}

func TestUnknownOpcodeTraps(t *testing.T) {
	code := []byte{0xEE}
	p := buildProgram(code, []uint32{0})
	it := NewInterpreter(p, NewMemory(0), 1000)
	st := it.Step()
	if st.Kind != Trap {
		t.Fatalf("status = %v, want Trap", st.Kind)
	}
}

func TestSbrkGrowsHeap(t *testing.T) {
	code := []byte{OpLoadImm, 0x00, 64, OpSbrk, 0x10}
	p := buildProgram(code, []uint32{0, 3})
	mem := NewMemory(0x1000)
	it := NewInterpreter(p, mem, 1000)

	if st := it.Step(); st.Kind != Play {
		t.Fatalf("load_imm: %v", st.Kind)
	}
	if st := it.Step(); st.Kind != Play {
		t.Fatalf("sbrk: %v", st.Kind)
	}
	if got := it.Regs.Get(1); got != 0x1000 {
		t.Fatalf("sbrk returned %x, want %x", got, 0x1000)
	}
	if err := mem.Write(0x1000, []byte{1, 2, 3}); err != nil {
		t.Fatalf("write into newly grown heap failed: %v", err)
	}
}

func TestProgramImageRoundTrip(t *testing.T) {
	// jump-table len=0, width=1, code-len=2, code=[OpTrap, OpFallthru],
	// mask byte = 0b00000011 (both bytes are instruction starts).
	img := []byte{0, 0, 0, 0, 1, 2, 0, 0, 0, OpTrap, OpFallthru, 0b00000011}
	p, err := ParseProgram(img)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.Code) != 2 || !p.IsInstructionStart(0) || !p.IsInstructionStart(1) {
		t.Fatalf("unexpected program: %+v", p)
	}
}
