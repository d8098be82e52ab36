package hostcall

import (
	"testing"

	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
	"github.com/colmnet/jamcore/internal/pvm"
	"github.com/colmnet/jamcore/internal/xcrypto"
)

func newTestContext() *Context {
	acc := jamstate.NewServiceAccount(jamstate.OpaqueHash{1})
	acc.Balance = 100000
	svcs := jamstate.Services{1: acc}
	return &Context{
		Regular: Dimension{
			Services:   svcs,
			Privileges: jamstate.Privileges{Manager: 1, AlwaysAccumulate: map[jamstate.ServiceId]jamstate.Gas{}},
			AuthQueues: []jamstate.AuthQueue{{}, {}},
		},
		Current: 1,
		Params:  params.Tiny,
		Crypto:  xcrypto.Default(),
	}
}

func TestGasHostCall(t *testing.T) {
	ctx := newTestContext()
	var regs pvm.Registers
	gas := pvm.GasCounter{Remaining: 500}
	mem := pvm.NewMemory(0)
	if !Dispatch(IDGas, ctx, &regs, mem, &gas) {
		t.Fatalf("dispatch failed")
	}
	if regs.Get(7) != uint64(gas.Remaining) {
		t.Fatalf("r7 = %d, want %d", regs.Get(7), gas.Remaining)
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	ctx := newTestContext()
	mem := pvm.NewMemory(0)
	mem.MapPage(0, true)
	mem.MapPage(pvm.PageSize, true)

	key := []byte{0xAA, 0xBB}
	val := []byte{1, 2, 3, 4}
	mem.Write(0, key)
	mem.Write(pvm.PageSize, val)

	var regs pvm.Registers
	gas := pvm.GasCounter{Remaining: 1000}
	regs.Set(0, 0)
	regs.Set(1, uint64(len(key)))
	regs.Set(2, pvm.PageSize)
	regs.Set(3, uint64(len(val)))
	if !Dispatch(IDWrite, ctx, &regs, mem, &gas) {
		t.Fatalf("write dispatch failed")
	}
	if regs.Get(7) != pvm.ReturnNone {
		t.Fatalf("write result = %d, want NONE (no prior value)", regs.Get(7))
	}

	mem.MapPage(2*pvm.PageSize, true)
	regs.Set(0, 1)
	regs.Set(1, 0)
	regs.Set(2, uint64(len(key)))
	regs.Set(3, 2*pvm.PageSize)
	regs.Set(4, 0)
	regs.Set(5, 64)
	if !Dispatch(IDRead, ctx, &regs, mem, &gas) {
		t.Fatalf("read dispatch failed")
	}
	if regs.Get(7) != uint64(len(val)) {
		t.Fatalf("read length = %d, want %d", regs.Get(7), len(val))
	}
	out, err := mem.Read(2*pvm.PageSize, uint64(len(val)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	for i, b := range val {
		if out[i] != b {
			t.Fatalf("byte %d = %x, want %x", i, out[i], b)
		}
	}
}

func TestCheckpointRollback(t *testing.T) {
	ctx := newTestContext()
	ctx.Checkpoint()
	ctx.Regular.Services[1].Balance = 1
	ctx.Rollback()
	if ctx.Regular.Services[1].Balance != 100000 {
		t.Fatalf("balance after rollback = %d, want 100000", ctx.Regular.Services[1].Balance)
	}
}

func TestAssignRejectsBadCore(t *testing.T) {
	ctx := newTestContext()
	mem := pvm.NewMemory(0)
	var regs pvm.Registers
	gas := pvm.GasCounter{Remaining: 1000}
	regs.Set(0, 99)
	if !Dispatch(IDAssign, ctx, &regs, mem, &gas) {
		t.Fatalf("dispatch failed")
	}
	if regs.Get(7) != pvm.ReturnCore {
		t.Fatalf("result = %d, want CORE", regs.Get(7))
	}
}
