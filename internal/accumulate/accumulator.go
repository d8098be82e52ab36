// Package accumulate implements the accumulator: for each
// ready report, it invokes the service's code inside the PVM via the
// host-call ABI, in dependency order, maintaining the regular/exceptional
// dimension pair and rolling back on panic or trap. Grounded on
// core/vm/interpreter.go's EVM.Call/depth driving loop -- repeatedly
// invoking the interpreter per message, tracking a call depth and
// reverting sub-state on failure -- generalized from "revert to snapshot
// on REVERT opcode" to "roll back regular dimension to last checkpoint on
// trap/panic".
package accumulate

import (
	"sort"

	"github.com/colmnet/jamcore/internal/hostcall"
	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
	"github.com/colmnet/jamcore/internal/pvm"
	"github.com/colmnet/jamcore/internal/xcrypto"
)

// Accumulator drives ready reports through the PVM.
type Accumulator struct {
	Params params.Params
	Crypto *xcrypto.Provider
}

// New returns an Accumulator configured with p and crypto.
func New(p params.Params, crypto *xcrypto.Provider) *Accumulator {
	return &Accumulator{Params: p, Crypto: crypto}
}

// Result is the accumulator's output: the post-accumulation state and the
// 32-byte AccumulateRoot.
type Result struct {
	State *jamstate.JamState
	Root  [32]byte
}

// Run processes every ready report whose dependencies are satisfied, in
// ascending (service_id, payload_hash) tiebreak order, cascading: once a
// report accumulates, its package hash is stripped from every other
// waiting entry's dependency set, which may unblock further entries within
// the same call. Processing continues until no entry is ready or gas is
// exhausted, then deferred transfers are applied and the accumulation root
// is produced. Every entry actually accumulated is removed from ϑ.
func (a *Accumulator) Run(pre *jamstate.JamState) (Result, error) {
	post := pre.Clone()

	pending := flattenPending(post)

	dim := hostcall.Dimension{
		Services:       post.Services,
		Privileges:     post.Privileges,
		AuthPools:      post.AuthPools,
		AuthQueues:     post.AuthQueues,
		NextValidators: post.NextValidators,
	}

	var allTransfers []hostcall.Transfer
	var yieldRoots [][32]byte
	budget := totalPendingGas(pending, post.Privileges)

	for {
		ready := readyPending(pending)
		if len(ready) == 0 || budget <= 0 {
			break
		}
		sortPending(ready)
		entry := ready[0]

		ctx := &hostcall.Context{
			Regular:     dim,
			Exceptional: dim.Clone(),
			Current:     primaryService(entry.Report),
			Entropy:     post.Entropy[0],
			Slot:        post.Slot,
			Params:      a.Params,
			Crypto:      a.Crypto,
		}

		gasForReport := reportGas(entry.Report)
		status := a.runOne(ctx, gasForReport)
		budget -= int64(gasForReport)

		switch status.Kind {
		case pvm.Trap, pvm.Segfault, pvm.InstanceRunError:
			ctx.Rollback()
		case pvm.Halt, pvm.OutOfGas:
			ctx.Checkpoint()
		}

		dim = ctx.Regular
		allTransfers = append(allTransfers, ctx.Transfers...)
		if ctx.YieldRoot != nil {
			yieldRoots = append(yieldRoots, *ctx.YieldRoot)
		}

		hash := entry.Report.PackageHash
		if n := len(post.Accumulated); n > 0 {
			slotIdx := int(post.Slot) % n
			post.Accumulated[slotIdx] = append(post.Accumulated[slotIdx], hash)
		}

		entry.done = true
		resolveDependency(pending, hash)
	}

	rebuildReady(post, pending)
	applyTransfers(dim.Services, allTransfers)

	post.Services = dim.Services
	post.Privileges = dim.Privileges
	post.AuthPools = dim.AuthPools
	post.AuthQueues = dim.AuthQueues
	post.NextValidators = dim.NextValidators

	root := a.Crypto.Blake2b256(flattenRoots(yieldRoots))
	return Result{State: post, Root: root}, nil
}

// runOne executes one service's accumulate entrypoint inside a fresh PVM
// instance, dispatching host calls through internal/hostcall until the
// instance reaches a terminal status.
func (a *Accumulator) runOne(ctx *hostcall.Context, gasLimit jamstate.Gas) pvm.Status {
	acc := ctx.CurrentAccount()
	if acc == nil {
		return pvm.Status{Kind: pvm.Trap}
	}
	prog, err := pvm.ParseProgram(acc.Preimages[acc.CodeHash])
	if err != nil {
		return pvm.Status{Kind: pvm.Trap}
	}

	mem := pvm.NewMemory(uint64(a.Params.PVMInitialZoneSize))
	it := pvm.NewInterpreter(prog, mem, int64(gasLimit))

	const maxSteps = 1 << 20
	for i := 0; i < maxSteps; i++ {
		st := it.Step()
		if st.Kind != pvm.Play {
			return st
		}
		if st.HostCall >= 0 {
			if !hostcall.Dispatch(uint64(st.HostCall), ctx, &it.Regs, it.Mem, &it.Gas) {
				return pvm.Status{Kind: pvm.Trap}
			}
		}
	}
	return pvm.Status{Kind: pvm.InstanceRunError}
}

type readyEntry struct {
	Report jamstate.WorkReport
}

// lessReady orders two reports by ascending (service_id, payload_hash),
// the tiebreak both the one-shot ready list and the cascading pending list
// are sorted by.
func lessReady(a, b jamstate.WorkReport) bool {
	sa, sb := primaryService(a), primaryService(b)
	if sa != sb {
		return sa < sb
	}
	var pa, pb jamstate.OpaqueHash
	if len(a.Results) > 0 {
		pa = a.Results[0].PayloadHash
	}
	if len(b.Results) > 0 {
		pb = b.Results[0].PayloadHash
	}
	return string(pa[:]) < string(pb[:])
}

func sortReady(entries []readyEntry) {
	sort.Slice(entries, func(i, j int) bool { return lessReady(entries[i].Report, entries[j].Report) })
}

// pendingEntry is one ϑ item tracked across the cascading accumulation
// loop: its dependency set shrinks as sibling reports accumulate, and it is
// marked done once it has been run so rebuildReady can drop it from ϑ.
type pendingEntry struct {
	slotIdx int
	Report  jamstate.WorkReport
	deps    map[jamstate.WorkPackageHash]struct{}
	done    bool
}

// flattenPending snapshots every ϑ entry, across every epoch slot, into a
// mutable form the cascading loop can resolve dependencies against.
func flattenPending(s *jamstate.JamState) []*pendingEntry {
	var out []*pendingEntry
	for i, slot := range s.Ready {
		for _, e := range slot {
			deps := make(map[jamstate.WorkPackageHash]struct{}, len(e.Dependencies))
			for _, d := range e.Dependencies {
				deps[d] = struct{}{}
			}
			out = append(out, &pendingEntry{slotIdx: i, Report: e.Report, deps: deps})
		}
	}
	return out
}

// readyPending returns the not-yet-run entries whose dependency sets have
// been fully resolved.
func readyPending(pending []*pendingEntry) []*pendingEntry {
	var out []*pendingEntry
	for _, p := range pending {
		if !p.done && len(p.deps) == 0 {
			out = append(out, p)
		}
	}
	return out
}

func sortPending(entries []*pendingEntry) {
	sort.Slice(entries, func(i, j int) bool { return lessReady(entries[i].Report, entries[j].Report) })
}

// resolveDependency strips hash from every still-pending entry's
// dependency set, cascading newly-unblocked entries into readiness.
func resolveDependency(pending []*pendingEntry, hash jamstate.WorkPackageHash) {
	for _, p := range pending {
		if !p.done {
			delete(p.deps, hash)
		}
	}
}

// rebuildReady replaces s.Ready with only the entries that were never run
// this call, so an accumulated report is never re-accumulated on a later
// block.
func rebuildReady(s *jamstate.JamState, pending []*pendingEntry) {
	bySlot := make(map[int][]jamstate.ReportsReadyEntry, len(s.Ready))
	for _, p := range pending {
		if p.done {
			continue
		}
		deps := make([]jamstate.WorkPackageHash, 0, len(p.deps))
		for d := range p.deps {
			deps = append(deps, d)
		}
		sort.Slice(deps, func(i, j int) bool { return string(deps[i][:]) < string(deps[j][:]) })
		bySlot[p.slotIdx] = append(bySlot[p.slotIdx], jamstate.ReportsReadyEntry{Report: p.Report, Dependencies: deps})
	}
	for i := range s.Ready {
		s.Ready[i] = bySlot[i]
	}
}

func primaryService(r jamstate.WorkReport) jamstate.ServiceId {
	if len(r.Results) == 0 {
		return 0
	}
	return r.Results[0].ServiceId
}

func reportGas(r jamstate.WorkReport) jamstate.Gas {
	var g jamstate.Gas
	for _, res := range r.Results {
		g += res.AccumulateGas
	}
	return g
}

// totalPendingGas sums the accumulate-gas cost of every entry reachable
// this call -- not just the initially-ready ones -- since cascading may
// unblock further entries as siblings accumulate.
func totalPendingGas(pending []*pendingEntry, priv jamstate.Privileges) int64 {
	var total int64
	for _, p := range pending {
		total += int64(reportGas(p.Report))
	}
	for _, g := range priv.AlwaysAccumulate {
		total += int64(g)
	}
	return total
}

func applyTransfers(services jamstate.Services, transfers []hostcall.Transfer) {
	for _, t := range transfers {
		dst, ok := services[t.To]
		if !ok {
			continue
		}
		dst.Balance += t.Amount
	}
}

func flattenRoots(roots [][32]byte) []byte {
	out := make([]byte, 0, len(roots)*32)
	for _, r := range roots {
		out = append(out, r[:]...)
	}
	return out
}
