package stf

import (
	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
	"github.com/colmnet/jamcore/internal/xcrypto"
)

// Assurance is one validator's per-core availability bitfield for the
// current slot.
type Assurance struct {
	ValidatorIndex jamstate.ValidatorIndex
	Bitfield       []bool // one bit per core
	Signature      jamstate.Ed25519Signature
}

// AssurancesInput bundles a block's assurances extrinsic.
type AssurancesInput struct {
	Assurances []Assurance
}

// AssurancesOutput lists the cores whose pending report became available.
type AssurancesOutput struct {
	Available []jamstate.CoreIndex
}

// AssurancesTransition removes pending reports from rho as validators
// certify availability: a core's report is evicted once a
// super-majority of validators assert it.
func AssurancesTransition(pre *jamstate.JamState, in AssurancesInput, p params.Params, crypto *xcrypto.Provider, validatorKey func(jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool)) (*jamstate.JamState, AssurancesOutput, error) {
	post := pre.Clone()

	counts := make([]int, len(post.Pending))
	for _, a := range in.Assurances {
		key, ok := validatorKey(a.ValidatorIndex)
		if !ok {
			return pre, AssurancesOutput{}, ErrAssuranceBadValidatorIndex
		}
		if crypto.Ed25519Verify != nil {
			msg := encodeBitfield(a.Bitfield)
			if !crypto.Ed25519Verify(key, msg, a.Signature[:]) {
				return pre, AssurancesOutput{}, ErrAssuranceBadSignature
			}
		}
		for core, bit := range a.Bitfield {
			if !bit {
				continue
			}
			if core >= len(post.Pending) || post.Pending[core] == nil {
				return pre, AssurancesOutput{}, ErrAssuranceForNoAssignment
			}
			counts[core]++
		}
	}

	var out AssurancesOutput
	for core, n := range counts {
		if n >= int(p.ValidatorsSuperMajority) && post.Pending[core] != nil {
			post.Pending[core] = nil
			out.Available = append(out.Available, jamstate.CoreIndex(core))
		}
	}
	return post, out, nil
}

func encodeBitfield(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
