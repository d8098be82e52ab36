package stf

import (
	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
	"github.com/colmnet/jamcore/internal/xcrypto"
)

// GuaranteeEntry is one validator-signed guarantee of a work report.
type GuaranteeEntry struct {
	Report     jamstate.WorkReport
	Slot       jamstate.TimeSlot
	Signatures []ValidatorSignature
}

type ValidatorSignature struct {
	ValidatorIndex jamstate.ValidatorIndex
	Signature      jamstate.Ed25519Signature
}

// ReportsInput bundles a block's guarantees extrinsic.
type ReportsInput struct {
	Guarantees []GuaranteeEntry
}

// ReportsOutput lists the reports admitted into rho this block.
type ReportsOutput struct {
	Reported []jamstate.WorkReportHash
}

// ReportsTransition admits new work reports into rho given core
// assignment, anchor recency, gas bounds, authorization presence and
// guarantor signatures. Anchor and lookup-anchor recency are checked
// against beta (the recent-history belt); a segment-root lookup entry is
// accepted only if no conflicting root for the same work-package hash is
// already recorded in beta.
func ReportsTransition(pre *jamstate.JamState, in ReportsInput, p params.Params, crypto *xcrypto.Provider, validatorKey func(jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool)) (*jamstate.JamState, ReportsOutput, error) {
	post := pre.Clone()
	var out ReportsOutput

	for _, g := range in.Guarantees {
		core := g.Report.Core
		if int(core) >= len(post.Pending) {
			return pre, ReportsOutput{}, ErrBadCoreIndex
		}
		if post.Pending[core] != nil && post.Pending[core].TimeoutSlot > post.Slot {
			return pre, ReportsOutput{}, ErrCoreNotFree
		}

		anchor, ok := findBlockInfo(post.History, g.Report.Context.Anchor)
		if !ok {
			return pre, ReportsOutput{}, ErrAnchorNotRecent
		}
		if anchor.StateRoot != g.Report.Context.AnchorStateRoot {
			return pre, ReportsOutput{}, ErrBadStateRoot
		}
		if anchor.BeefyRoot != g.Report.Context.AnchorBeefyRoot {
			return pre, ReportsOutput{}, ErrBadBeefyRoot
		}
		if _, ok := findBlockInfo(post.History, g.Report.Context.LookupAnchor); !ok {
			return pre, ReportsOutput{}, ErrAnchorNotRecent
		}

		for wph, root := range g.Report.SegmentRootLookup {
			if recorded, ok := findReportedRoot(post.History, wph); ok && recorded != root {
				return pre, ReportsOutput{}, ErrSegmentRootMismatch
			}
		}

		var totalGas jamstate.Gas
		for _, res := range g.Report.Results {
			totalGas += res.AccumulateGas
		}
		if uint64(totalGas) > p.MaxReportAccumulateGas {
			return pre, ReportsOutput{}, ErrGasOverflow
		}

		if !authorizedIn(post.AuthPools, int(core), g.Report.AuthorizerHash) {
			return pre, ReportsOutput{}, ErrMissingAuthorization
		}

		if len(g.Signatures) < int(p.ValidatorsSuperMajority) {
			return pre, ReportsOutput{}, ErrReportBadSignature
		}
		hash := workReportHash(crypto, g.Report)
		for _, sig := range g.Signatures {
			key, ok := validatorKey(sig.ValidatorIndex)
			if !ok {
				return pre, ReportsOutput{}, ErrReportBadSignature
			}
			if crypto.Ed25519Verify != nil && !crypto.Ed25519Verify(key, hash[:], sig.Signature[:]) {
				return pre, ReportsOutput{}, ErrReportBadSignature
			}
		}

		post.Pending[core] = &jamstate.PendingAssignment{
			Report:      g.Report,
			ErasureRoot: g.Report.ErasureRoot,
			TimeoutSlot: g.Slot,
		}
		out.Reported = append(out.Reported, hash)

		deps := append([]jamstate.WorkPackageHash(nil), g.Report.Context.Prerequisites...)
		if len(post.Ready) > 0 {
			slotIdx := int(g.Slot) % len(post.Ready)
			post.Ready[slotIdx] = append(post.Ready[slotIdx], jamstate.ReportsReadyEntry{
				Report:       g.Report,
				Dependencies: deps,
			})
		}
	}

	return post, out, nil
}

// findBlockInfo looks up the beta entry whose header hash is hh.
func findBlockInfo(h jamstate.RecentHistory, hh jamstate.HeaderHash) (jamstate.BlockInfo, bool) {
	for _, bi := range h.Blocks {
		if bi.HeaderHash == hh {
			return bi, true
		}
	}
	return jamstate.BlockInfo{}, false
}

// findReportedRoot looks up the exports root beta already recorded for
// wph, if any prior block reported it.
func findReportedRoot(h jamstate.RecentHistory, wph jamstate.WorkPackageHash) (jamstate.ExportsRoot, bool) {
	for _, bi := range h.Blocks {
		for _, r := range bi.Reported {
			if r.PackageHash == wph {
				return r.ExportsRoot, true
			}
		}
	}
	return jamstate.ExportsRoot{}, false
}

// authorizedIn reports whether h appears in the core-th authorizer pool.
func authorizedIn(pools []jamstate.AuthPool, core int, h jamstate.OpaqueHash) bool {
	if core >= len(pools) {
		return false
	}
	for _, a := range pools[core] {
		if a == h {
			return true
		}
	}
	return false
}

// workReportHash is the canonical work-report hash: Blake2b256 of the
// report's codec encoding.
func workReportHash(crypto *xcrypto.Provider, r jamstate.WorkReport) jamstate.WorkReportHash {
	return jamstate.WorkReportHash(crypto.Blake2b256(r.Encode()))
}
