package hostcall

import (
	"github.com/colmnet/jamcore/internal/pvm"
)

// Call IDs.
const (
	IDGas        = 0
	IDLookup     = 1
	IDRead       = 2
	IDWrite      = 3
	IDInfo       = 4
	IDBless      = 5
	IDAssign     = 6
	IDDesignate  = 7
	IDCheckpoint = 8
	IDNew        = 9
	IDUpgrade    = 10
	IDTransfer   = 11
	IDEject      = 12
	IDQuery      = 13
	IDSolicit    = 14
	IDForget     = 15
	IDYield      = 16
	IDDebugLog   = 100
)

// Handler is one host call's body: it reads its inputs from regs/mem per
// the ABI table and writes its result back into regs (r7, and r8 for
// query), mutating ctx's regular dimension as a side effect.
type Handler func(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter)

// Table maps a host-call id to its handler. Dispatch always charges the
// flat per-call gas cost before looking the handler up.
var Table = map[uint64]Handler{
	IDGas:        hcGas,
	IDLookup:     hcLookup,
	IDRead:       hcRead,
	IDWrite:      hcWrite,
	IDInfo:       hcInfo,
	IDBless:      hcBless,
	IDAssign:     hcAssign,
	IDDesignate:  hcDesignate,
	IDCheckpoint: hcCheckpoint,
	IDNew:        hcNew,
	IDUpgrade:    hcUpgrade,
	IDTransfer:   hcTransfer,
	IDEject:      hcEject,
	IDQuery:      hcQuery,
	IDSolicit:    hcSolicit,
	IDForget:     hcForget,
	IDYield:      hcYield,
	IDDebugLog:   hcDebugLog,
}

// Dispatch charges the flat host-call gas cost and invokes the handler for
// id. An unknown id traps the same way an unrecognized PVM opcode does;
// the caller (internal/accumulate's runOne driver loop) is responsible for
// converting that into a Terminal{Trap} if this returns false.
func Dispatch(id uint64, ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) bool {
	if !gas.Charge(pvm.HostCallGasCost) {
		return false
	}
	h, ok := Table[id]
	if !ok {
		return false
	}
	h(ctx, regs, mem, gas)
	return true
}
