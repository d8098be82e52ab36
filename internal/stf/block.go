package stf

import (
	"github.com/colmnet/jamcore/internal/accumulate"
	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
	"github.com/colmnet/jamcore/internal/xcrypto"
)

// Block bundles every extrinsic stream a single block carries, run through
// a fixed subsystem order: disputes -> history -> reports -> assurances ->
// accumulation -> preimages -> statistics -> safrole.
type Block struct {
	Disputes   DisputesInput
	History    HistoryInput
	Reports    ReportsInput
	Assurances AssurancesInput
	Preimages  PreimagesInput
	Statistics StatisticsInput
	Safrole    SafroleInput
}

// BlockOutput aggregates every subsystem's success output.
type BlockOutput struct {
	Offenders      OffendersMark
	Reported       ReportsOutput
	Available      AssurancesOutput
	AccumulateRoot [32]byte
	Safrole        SafroleOutput
}

// ValidatorKeyLookup resolves a validator index to its Ed25519 public key
// against a given validator set; block.go always resolves against the
// pre-state's current validators. Within a subsystem, extrinsic items are
// processed in the order they appear.
func ValidatorKeyLookup(set jamstate.ValidatorSet) func(jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool) {
	return func(idx jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool) {
		if int(idx) >= len(set) {
			return jamstate.Ed25519Public{}, false
		}
		return set[idx].Ed25519, true
	}
}

// ApplyBlock runs every subsystem STF in the fixed order and commits
// atomically: on any error, the original pre-state is returned unchanged.
func ApplyBlock(pre *jamstate.JamState, b Block, p params.Params, crypto *xcrypto.Provider) (*jamstate.JamState, BlockOutput, error) {
	cur := pre
	var out BlockOutput

	keyLookup := ValidatorKeyLookup(pre.CurrentValidators)

	next, offenders, err := DisputesTransition(cur, b.Disputes, p, crypto, keyLookup)
	if err != nil {
		return pre, BlockOutput{}, err
	}
	cur, out.Offenders = next, offenders

	next, err = HistoryTransition(cur, b.History, p)
	if err != nil {
		return pre, BlockOutput{}, err
	}
	cur = next

	next, reported, err := ReportsTransition(cur, b.Reports, p, crypto, keyLookup)
	if err != nil {
		return pre, BlockOutput{}, err
	}
	cur, out.Reported = next, reported

	next, available, err := AssurancesTransition(cur, b.Assurances, p, crypto, keyLookup)
	if err != nil {
		return pre, BlockOutput{}, err
	}
	cur, out.Available = next, available

	acc := accumulate.New(p, crypto)
	accOut, err := acc.Run(cur)
	if err != nil {
		return pre, BlockOutput{}, err
	}
	cur = accOut.State
	out.AccumulateRoot = accOut.Root

	next, err = PreimagesTransition(cur, b.Preimages, p, crypto.Blake2b256)
	if err != nil {
		return pre, BlockOutput{}, err
	}
	cur = next

	next, err = StatisticsTransition(cur, b.Statistics)
	if err != nil {
		return pre, BlockOutput{}, err
	}
	cur = next

	next, safroleOut, err := SafroleTransition(cur, b.Safrole, p, crypto)
	if err != nil {
		return pre, BlockOutput{}, err
	}
	cur, out.Safrole = next, safroleOut

	return cur, out, nil
}
