package stf

import (
	"bytes"

	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
	"github.com/colmnet/jamcore/internal/xcrypto"
)

// Vote is one validator's judgement on a disputed work report.
type Vote struct {
	ValidatorIndex jamstate.ValidatorIndex
	Valid          bool
	Signature      jamstate.Ed25519Signature
}

// Verdict is the aggregated outcome for one disputed report: the report
// hash, the judgement-age epoch, and the full vote set.
type Verdict struct {
	ReportHash jamstate.WorkReportHash
	Age        uint32
	Votes      []Vote
}

// Culprit names a validator whose ticket/guarantee is proven bad.
type Culprit struct {
	ReportHash jamstate.WorkReportHash
	Key        jamstate.Ed25519Public
	Signature  jamstate.Ed25519Signature
}

// Fault names a validator whose judgement is proven wrong.
type Fault struct {
	ReportHash jamstate.WorkReportHash
	Vote       bool
	Key        jamstate.Ed25519Public
	Signature  jamstate.Ed25519Signature
}

// DisputesInput bundles a block's disputes extrinsic.
type DisputesInput struct {
	Verdicts []Verdict
	Culprits []Culprit
	Faults   []Fault
	CurrentEpoch uint32
}

// OffendersMark lists every key punished in this block's disputes pass.
type OffendersMark struct {
	Keys []jamstate.Ed25519Public
}

// DisputesTransition consumes verdicts, culprits, and faults against psi.
func DisputesTransition(pre *jamstate.JamState, in DisputesInput, p params.Params, crypto *xcrypto.Provider, validatorKey func(jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool)) (*jamstate.JamState, OffendersMark, error) {
	post := pre.Clone()

	var lastHash *jamstate.WorkReportHash
	for _, v := range in.Verdicts {
		if post.Disputes.Contains(v.ReportHash) {
			return pre, OffendersMark{}, ErrAlreadyJudged
		}
		if lastHash != nil && bytes.Compare(v.ReportHash[:], (*lastHash)[:]) <= 0 {
			return pre, OffendersMark{}, ErrVerdictsNotSortedUnique
		}
		lastHash = &v.ReportHash

		if in.CurrentEpoch > 0 && v.Age+0 > in.CurrentEpoch {
			return pre, OffendersMark{}, ErrBadJudgementAge
		}

		if len(v.Votes) != int(p.ValidatorsCount) {
			return pre, OffendersMark{}, ErrBadVoteSplit
		}

		goodVotes := 0
		var lastVoter *jamstate.ValidatorIndex
		for _, vote := range v.Votes {
			if lastVoter != nil && vote.ValidatorIndex <= *lastVoter {
				return pre, OffendersMark{}, ErrBadValidatorIndex
			}
			lastVoter = &vote.ValidatorIndex
			key, ok := validatorKey(vote.ValidatorIndex)
			if !ok {
				return pre, OffendersMark{}, ErrBadValidatorIndex
			}
			if crypto.Ed25519Verify != nil && !crypto.Ed25519Verify(key, v.ReportHash[:], vote.Signature[:]) {
				return pre, OffendersMark{}, ErrBadSignature
			}
			if vote.Valid {
				goodVotes++
			}
		}

		switch {
		case goodVotes >= int(p.ValidatorsSuperMajority):
			post.Disputes.Good = append(post.Disputes.Good, v.ReportHash)
		case goodVotes == 0:
			post.Disputes.Bad = append(post.Disputes.Bad, v.ReportHash)
		default:
			post.Disputes.Wonky = append(post.Disputes.Wonky, v.ReportHash)
		}
	}

	var offenders []jamstate.Ed25519Public
	for _, c := range in.Culprits {
		if !containsHash(post.Disputes.Bad, c.ReportHash) {
			return pre, OffendersMark{}, ErrCulpritsVerdictNotBad
		}
		if crypto.Ed25519Verify != nil && !crypto.Ed25519Verify(c.Key, c.ReportHash[:], c.Signature[:]) {
			return pre, OffendersMark{}, ErrBadGuarantorKey
		}
		if containsKey(post.Disputes.Punish, c.Key) {
			return pre, OffendersMark{}, ErrOffenderAlreadyReported
		}
		post.Disputes.Punish = append(post.Disputes.Punish, c.Key)
		offenders = append(offenders, c.Key)
	}
	if len(in.Culprits) > 0 && len(in.Culprits) < 2 {
		return pre, OffendersMark{}, ErrNotEnoughCulprits
	}

	if len(in.Faults) > 0 && len(in.Faults) < 2 {
		return pre, OffendersMark{}, ErrNotEnoughFaults
	}

	for _, f := range in.Faults {
		if !containsHash(post.Disputes.Good, f.ReportHash) && !containsHash(post.Disputes.Wonky, f.ReportHash) {
			return pre, OffendersMark{}, ErrFaultVerdictWrong
		}
		if crypto.Ed25519Verify != nil && !crypto.Ed25519Verify(f.Key, f.ReportHash[:], f.Signature[:]) {
			return pre, OffendersMark{}, ErrBadAuditorKey
		}
		if containsKey(post.Disputes.Punish, f.Key) {
			return pre, OffendersMark{}, ErrOffenderAlreadyReported
		}
		post.Disputes.Punish = append(post.Disputes.Punish, f.Key)
		offenders = append(offenders, f.Key)
	}

	post.Disputes.Normalize()
	return post, OffendersMark{Keys: offenders}, nil
}

func containsHash(hs []jamstate.WorkReportHash, h jamstate.WorkReportHash) bool {
	for _, x := range hs {
		if x == h {
			return true
		}
	}
	return false
}

func containsKey(ks []jamstate.Ed25519Public, k jamstate.Ed25519Public) bool {
	for _, x := range ks {
		if x == k {
			return true
		}
	}
	return false
}
