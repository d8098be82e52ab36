package hostcall

import (
	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/pvm"
)

// Every handler follows the same register convention: inputs are read from
// r0, r1, r2, ... in the order listed by the ABI table; the
// result is written to r7 (and additionally r8 for query).

func hcGas(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	regs.Set(7, uint64(gas.Remaining))
}

func hcLookup(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	sid := jamstate.ServiceId(regs.Get(0))
	hashPtr := regs.Get(1)
	outPtr := regs.Get(2)
	offset := regs.Get(3)
	limit := regs.Get(4)

	acc, ok := ctx.Regular.Services[sid]
	if !ok {
		regs.Set(7, pvm.ReturnNone)
		return
	}
	hashBytes, err := mem.Read(hashPtr, 32)
	if err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	var hash jamstate.OpaqueHash
	copy(hash[:], hashBytes)
	blob, ok := acc.Preimages[hash]
	if !ok {
		regs.Set(7, pvm.ReturnNone)
		return
	}
	slice := sliceWithin(blob, offset, limit)
	if err := mem.Write(outPtr, slice); err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	regs.Set(7, uint64(len(slice)))
}

func hcRead(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	sid := jamstate.ServiceId(regs.Get(0))
	keyPtr, keyLen := regs.Get(1), regs.Get(2)
	outPtr := regs.Get(3)
	offset, limit := regs.Get(4), regs.Get(5)

	acc, ok := ctx.Regular.Services[sid]
	if !ok {
		regs.Set(7, pvm.ReturnNone)
		return
	}
	keyBytes, err := mem.Read(keyPtr, keyLen)
	if err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	key := StorageKey(ctx.Crypto.Blake2b256, sid, keyBytes)
	val, ok := acc.Storage[key]
	if !ok {
		regs.Set(7, pvm.ReturnNone)
		return
	}
	slice := sliceWithin(val, offset, limit)
	if err := mem.Write(outPtr, slice); err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	regs.Set(7, uint64(len(slice)))
}

func hcWrite(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	keyPtr, keyLen := regs.Get(0), regs.Get(1)
	valPtr, valLen := regs.Get(2), regs.Get(3)

	acc := ctx.CurrentAccount()
	if acc == nil {
		regs.Set(7, pvm.ReturnWho)
		return
	}
	keyBytes, err := mem.Read(keyPtr, keyLen)
	if err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	key := StorageKey(ctx.Crypto.Blake2b256, ctx.Current, keyBytes)

	var newVal []byte
	if valLen > 0 {
		newVal, err = mem.Read(valPtr, valLen)
		if err != nil {
			regs.Set(7, pvm.ReturnOOB)
			return
		}
	}

	prior, existed := acc.Storage[key]
	priorLen := uint64(pvm.ReturnNone)
	if existed {
		priorLen = uint64(len(prior))
	}

	if valLen == 0 {
		delete(acc.Storage, key)
	} else {
		acc.Storage[key] = newVal
	}
	if !acc.MeetsThreshold(ctx.Params) {
		if existed {
			acc.Storage[key] = prior
		} else {
			delete(acc.Storage, key)
		}
		regs.Set(7, pvm.ReturnFull)
		return
	}
	regs.Set(7, priorLen)
}

func hcInfo(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	sid := jamstate.ServiceId(regs.Get(0))
	outPtr := regs.Get(1)
	acc, ok := ctx.Regular.Services[sid]
	if !ok {
		regs.Set(7, pvm.ReturnNone)
		return
	}
	enc := acc.Encode()
	if err := mem.Write(outPtr, enc); err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	regs.Set(7, pvm.ReturnOK)
}

func hcBless(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	m := jamstate.ServiceId(regs.Get(0))
	a := jamstate.ServiceId(regs.Get(1))
	v := jamstate.ServiceId(regs.Get(2))
	arrPtr, n := regs.Get(3), regs.Get(4)

	if ctx.Current != ctx.Regular.Privileges.Manager {
		regs.Set(7, pvm.ReturnWho)
		return
	}
	always := make(map[jamstate.ServiceId]jamstate.Gas, n)
	for i := uint64(0); i < n; i++ {
		entry, err := mem.Read(arrPtr+i*12, 12)
		if err != nil {
			regs.Set(7, pvm.ReturnOOB)
			return
		}
		sid := jamstate.ServiceId(littleEndianU32(entry[0:4]))
		g := jamstate.Gas(littleEndianU64(entry[4:12]))
		if _, ok := ctx.Regular.Services[sid]; !ok {
			regs.Set(7, pvm.ReturnWho)
			return
		}
		always[sid] = g
	}
	ctx.Regular.Privileges.Manager = m
	ctx.Regular.Privileges.Assign = a
	ctx.Regular.Privileges.Designate = v
	ctx.Regular.Privileges.AlwaysAccumulate = always
	regs.Set(7, pvm.ReturnOK)
}

func hcAssign(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	core := regs.Get(0)
	hashesPtr := regs.Get(1)
	if core >= uint64(len(ctx.Regular.AuthQueues)) {
		regs.Set(7, pvm.ReturnCore)
		return
	}
	q := ctx.Regular.AuthQueues[core]
	queue := make(jamstate.AuthQueue, len(q))
	for i := range queue {
		hb, err := mem.Read(hashesPtr+uint64(i)*32, 32)
		if err != nil {
			regs.Set(7, pvm.ReturnOOB)
			return
		}
		var h jamstate.OpaqueHash
		copy(h[:], hb)
		queue[i] = h
	}
	ctx.Regular.AuthQueues[core] = queue
	regs.Set(7, pvm.ReturnOK)
}

func hcDesignate(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	keysPtr := regs.Get(0)
	n := len(ctx.Regular.NextValidators)
	out := make(jamstate.ValidatorSet, n)
	for i := 0; i < n; i++ {
		v, m, err := jamstate.DecodeValidatorData(mustRead(mem, keysPtr, i))
		_ = m
		if err != nil {
			regs.Set(7, pvm.ReturnOOB)
			return
		}
		out[i] = v
	}
	ctx.Regular.NextValidators = out
	regs.Set(7, pvm.ReturnOK)
}

func hcCheckpoint(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	ctx.Checkpoint()
	regs.Set(7, uint64(gas.Remaining))
}

func hcNew(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	codeHashPtr, codeLen := regs.Get(0), regs.Get(1)
	g := jamstate.Gas(regs.Get(2))
	m := jamstate.Gas(regs.Get(3))

	codeHashBytes, err := mem.Read(codeHashPtr, 32)
	if err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	var codeHash jamstate.OpaqueHash
	copy(codeHash[:], codeHashBytes)

	id := GenerateServiceID(ctx.Crypto.Blake2b256, ctx.Current, ctx.Entropy, ctx.Slot, ctx.Params, func(id uint32) bool {
		_, occupied := ctx.Regular.Services[jamstate.ServiceId(id)]
		return occupied
	})

	acc := jamstate.NewServiceAccount(codeHash)
	acc.MinGasAccumulate = g
	acc.MinGasOnTransfer = m
	acc.CreationSlot = ctx.Slot
	acc.ParentService = ctx.Current
	_ = codeLen

	creator := ctx.CurrentAccount()
	if creator == nil || !creator.MeetsThreshold(ctx.Params) {
		regs.Set(7, pvm.ReturnCash)
		return
	}
	ctx.Regular.Services[id] = acc
	regs.Set(7, uint64(id))
}

func hcUpgrade(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	codeHashPtr := regs.Get(0)
	g := jamstate.Gas(regs.Get(1))
	m := jamstate.Gas(regs.Get(2))
	acc := ctx.CurrentAccount()
	if acc == nil {
		regs.Set(7, pvm.ReturnWho)
		return
	}
	codeHashBytes, err := mem.Read(codeHashPtr, 32)
	if err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	copy(acc.CodeHash[:], codeHashBytes)
	acc.MinGasAccumulate = g
	acc.MinGasOnTransfer = m
	regs.Set(7, pvm.ReturnOK)
}

func hcTransfer(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	dst := jamstate.ServiceId(regs.Get(0))
	amount := jamstate.Balance(regs.Get(1))
	transferGas := jamstate.Gas(regs.Get(2))
	memoPtr := regs.Get(3)

	target, ok := ctx.Regular.Services[dst]
	if !ok {
		regs.Set(7, pvm.ReturnWho)
		return
	}
	if transferGas < target.MinGasOnTransfer {
		regs.Set(7, pvm.ReturnLow)
		return
	}
	acc := ctx.CurrentAccount()
	if acc == nil || uint64(acc.Balance) < uint64(amount) {
		regs.Set(7, pvm.ReturnCash)
		return
	}
	memo, err := mem.Read(memoPtr, uint64(ctx.Params.TransferMemoSize))
	if err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	acc.Balance -= amount
	ctx.Transfers = append(ctx.Transfers, Transfer{From: ctx.Current, To: dst, Amount: amount, Gas: transferGas, Memo: memo})
	regs.Set(7, pvm.ReturnOK)
}

func hcEject(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	dst := jamstate.ServiceId(regs.Get(0))
	hashPtr := regs.Get(1)

	target, ok := ctx.Regular.Services[dst]
	if !ok {
		regs.Set(7, pvm.ReturnWho)
		return
	}
	acc := ctx.CurrentAccount()
	if acc == nil {
		regs.Set(7, pvm.ReturnWho)
		return
	}
	hashBytes, err := mem.Read(hashPtr, 32)
	if err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	var hash jamstate.OpaqueHash
	copy(hash[:], hashBytes)
	if target.CodeHash != hash || len(target.PreimageLookups) != 1 {
		regs.Set(7, pvm.ReturnHuh)
		return
	}
	acc.Balance += target.Balance
	delete(ctx.Regular.Services, dst)
	regs.Set(7, pvm.ReturnOK)
}

func hcQuery(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	hashPtr := regs.Get(0)
	length := regs.Get(1)
	acc := ctx.CurrentAccount()
	if acc == nil {
		regs.Set(7, pvm.ReturnNone)
		return
	}
	hashBytes, err := mem.Read(hashPtr, 32)
	if err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	var hash jamstate.OpaqueHash
	copy(hash[:], hashBytes)
	slots, ok := acc.PreimageLookups[jamstate.PreimageLookupKey{Hash: hash, Length: uint32(length)}]
	if !ok {
		regs.Set(7, pvm.ReturnNone)
		return
	}
	regs.Set(7, uint64(len(slots)))
	var packed uint64
	for i, s := range slots {
		if i >= 3 {
			break
		}
		packed |= uint64(s) << (32 * uint(i%2))
	}
	regs.Set(8, packed)
}

func hcSolicit(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	hashPtr := regs.Get(0)
	length := regs.Get(1)
	acc := ctx.CurrentAccount()
	if acc == nil {
		regs.Set(7, pvm.ReturnHuh)
		return
	}
	hashBytes, err := mem.Read(hashPtr, 32)
	if err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	var hash jamstate.OpaqueHash
	copy(hash[:], hashBytes)
	key := jamstate.PreimageLookupKey{Hash: hash, Length: uint32(length)}
	if _, exists := acc.PreimageLookups[key]; exists {
		regs.Set(7, pvm.ReturnHuh)
		return
	}
	acc.PreimageLookups[key] = nil
	if !acc.MeetsThreshold(ctx.Params) {
		delete(acc.PreimageLookups, key)
		regs.Set(7, pvm.ReturnFull)
		return
	}
	regs.Set(7, pvm.ReturnOK)
}

func hcForget(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	hashPtr := regs.Get(0)
	length := regs.Get(1)
	acc := ctx.CurrentAccount()
	if acc == nil {
		regs.Set(7, pvm.ReturnHuh)
		return
	}
	hashBytes, err := mem.Read(hashPtr, 32)
	if err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	var hash jamstate.OpaqueHash
	copy(hash[:], hashBytes)
	key := jamstate.PreimageLookupKey{Hash: hash, Length: uint32(length)}
	slots, ok := acc.PreimageLookups[key]
	if !ok || len(slots) > 2 {
		regs.Set(7, pvm.ReturnHuh)
		return
	}
	delete(acc.PreimageLookups, key)
	delete(acc.Preimages, hash)
	regs.Set(7, pvm.ReturnOK)
}

func hcYield(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	hashPtr := regs.Get(0)
	hashBytes, err := mem.Read(hashPtr, 32)
	if err != nil {
		regs.Set(7, pvm.ReturnOOB)
		return
	}
	var root [32]byte
	copy(root[:], hashBytes)
	ctx.YieldRoot = &root
	regs.Set(7, pvm.ReturnOK)
}

func hcDebugLog(ctx *Context, regs *pvm.Registers, mem *pvm.Memory, gas *pvm.GasCounter) {
	// Intentionally a no-op in production: the debug-log call exists so
	// service authors can emit a message during testing. Wiring it to the
	// node's tracing sink (log.TraceSink) is the test harness's job, not
	// this package's -- keeping it here would make every accumulation
	// touch the logging subsystem.
}

func sliceWithin(b []byte, offset, limit uint64) []byte {
	if offset >= uint64(len(b)) {
		return nil
	}
	end := offset + limit
	if end > uint64(len(b)) {
		end = uint64(len(b))
	}
	return b[offset:end]
}

func littleEndianU32(b []byte) uint32 {
	var v uint32
	for i := 0; i < 4 && i < len(b); i++ {
		v |= uint32(b[i]) << (8 * i)
	}
	return v
}

func littleEndianU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8 && i < len(b); i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func mustRead(mem *pvm.Memory, base uint64, index int) []byte {
	data, err := mem.Read(base+uint64(index)*(32+32+144+128), 32+32+144+128)
	if err != nil {
		return make([]byte, 32+32+144+128)
	}
	return data
}
