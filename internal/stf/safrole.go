package stf

import (
	"bytes"

	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
	"github.com/colmnet/jamcore/internal/xcrypto"
)

// TicketExtrinsicEntry is one ticket submission in a block's tickets
// extrinsic: a ring-VRF proof and the attempt number it was produced for.
type TicketExtrinsicEntry struct {
	Attempt uint8
	Proof   jamstate.BandersnatchRingVrfSignature
}

// EpochMark and TicketsMark are the optional Safrole outputs emitted at an
// epoch boundary.
type EpochMark struct {
	Entropy    jamstate.Entropy
	Validators jamstate.ValidatorSet
}

type TicketsMark struct {
	Tickets []jamstate.Ticket
}

// SafroleOutput is the success output of SafroleTransition.
type SafroleOutput struct {
	EpochMark   *EpochMark
	TicketsMark *TicketsMark
}

// SafroleInput bundles the per-block inputs the Safrole STF consumes.
type SafroleInput struct {
	Slot            jamstate.TimeSlot
	Tickets         []TicketExtrinsicEntry
	FreshEntropy    jamstate.Entropy
	RingVerifyInput func(attempt uint8) []byte // ring-VRF "input" bytes for attempt verification
}

// SafroleTransition rotates gamma, kappa, lambda, iota and emits the
// optional marks.
func SafroleTransition(pre *jamstate.JamState, in SafroleInput, p params.Params, crypto *xcrypto.Provider) (*jamstate.JamState, SafroleOutput, error) {
	if in.Slot <= pre.Slot {
		return pre, SafroleOutput{}, ErrBadSlot
	}

	post := pre.Clone()

	if len(in.Tickets) > 0 && uint32(in.Slot) > p.TicketSubmissionEndSlot {
		return pre, SafroleOutput{}, ErrUnexpectedTicket
	}

	seen := make(map[jamstate.OpaqueHash]bool, len(in.Tickets))
	var lastID *jamstate.OpaqueHash
	newTickets := make([]jamstate.Ticket, 0, len(in.Tickets))
	for _, te := range in.Tickets {
		if te.Attempt >= uint8(p.MaxTicketEntriesPerValidator) {
			return pre, SafroleOutput{}, ErrBadTicketAttempt
		}
		if crypto.BandersnatchRingVrfVerify != nil && in.RingVerifyInput != nil {
			input := in.RingVerifyInput(te.Attempt)
			ok := crypto.BandersnatchRingVrfVerify(post.Safrole.RingRoot, input, nil, nil, te.Proof)
			if !ok {
				return pre, SafroleOutput{}, ErrBadTicketProof
			}
		}
		id := ticketIDFromProof(te.Proof)
		if seen[id] {
			return pre, SafroleOutput{}, ErrDuplicateTicket
		}
		seen[id] = true
		if lastID != nil && bytes.Compare(id[:], (*lastID)[:]) <= 0 {
			return pre, SafroleOutput{}, ErrBadTicketOrder
		}
		newTickets = append(newTickets, jamstate.Ticket{Id: id, Attempt: te.Attempt})
		lastID = &id
	}
	post.Safrole.TicketAccumulator = mergeTickets(post.Safrole.TicketAccumulator, newTickets, int(p.EpochLength))

	post.Entropy.Roll(in.FreshEntropy)

	var out SafroleOutput
	epochBefore := uint32(pre.Slot) / p.EpochLength
	epochAfter := uint32(in.Slot) / p.EpochLength
	if epochAfter > epochBefore {
		post.PreviousValidators = post.CurrentValidators
		post.CurrentValidators = post.NextValidators
		post.NextValidators = post.Safrole.NextValidatorKeys

		if len(post.Safrole.TicketAccumulator) >= int(p.EpochLength) {
			post.Safrole.Sealer = jamstate.SealerSeries{
				Kind:    jamstate.SealerSeriesTickets,
				Tickets: post.Safrole.TicketAccumulator[:p.EpochLength],
			}
			out.TicketsMark = &TicketsMark{Tickets: post.Safrole.Sealer.Tickets}
		} else {
			post.Safrole.Sealer = jamstate.SealerSeries{
				Kind: jamstate.SealerSeriesKeys,
				Keys: fallbackKeySeries(post.Entropy[2], post.CurrentValidators, int(p.EpochLength)),
			}
		}
		post.Safrole.TicketAccumulator = nil
		out.EpochMark = &EpochMark{Entropy: post.Entropy[1], Validators: post.CurrentValidators}
	}

	post.Slot = in.Slot
	return post, out, nil
}

// ticketIDFromProof derives a ticket's ordering id from its ring-VRF
// output. In the absence of a wired VRF implementation this is a stand-in
// projection of the proof bytes; a live deployment replaces it with the
// VRF output hash once internal/xcrypto.Provider.BandersnatchRingVrfVerify
// is backed by a real ring-VRF library (see DESIGN.md).
func ticketIDFromProof(proof jamstate.BandersnatchRingVrfSignature) jamstate.OpaqueHash {
	var id jamstate.OpaqueHash
	copy(id[:], proof[:32])
	return id
}

func mergeTickets(existing, fresh []jamstate.Ticket, cap int) []jamstate.Ticket {
	merged := append(append([]jamstate.Ticket(nil), existing...), fresh...)
	for i := 1; i < len(merged); i++ {
		for j := i; j > 0 && bytes.Compare(merged[j].Id[:], merged[j-1].Id[:]) < 0; j-- {
			merged[j], merged[j-1] = merged[j-1], merged[j]
		}
	}
	if len(merged) > cap {
		merged = merged[:cap]
	}
	return merged
}

// fallbackKeySeries derives the deterministic per-slot Bandersnatch-key
// sealer sequence used when an epoch seals without a full ticket set.
func fallbackKeySeries(seed jamstate.Entropy, validators jamstate.ValidatorSet, length int) []jamstate.BandersnatchPublic {
	out := make([]jamstate.BandersnatchPublic, length)
	if len(validators) == 0 {
		return out
	}
	for i := range out {
		idx := (int(seed[i%32]) + i) % len(validators)
		out[i] = validators[idx].Bandersnatch
	}
	return out
}
