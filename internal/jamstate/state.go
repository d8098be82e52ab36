package jamstate

import "github.com/colmnet/jamcore/internal/codec"

// AuthPool is α for one core: a bounded queue of authorization hashes.
type AuthPool []OpaqueHash

// AuthQueue is φ for one core: a fixed-length queue of pending
// authorizations rotated one slot per block.
type AuthQueue []OpaqueHash

func encodeHashList(hs []OpaqueHash) []byte {
	elems := make([][]byte, len(hs))
	for i, h := range hs {
		elems[i] = encodeHash32([32]byte(h))
	}
	return codec.EncodeSequence(elems)
}

func decodeHashList(b []byte) ([]OpaqueHash, int, error) {
	n, hdr, err := codec.DecodeLen(b)
	if err != nil {
		return nil, 0, err
	}
	out := make([]OpaqueHash, n)
	total := hdr
	for i := 0; i < n; i++ {
		h, m, err := decodeHash32(b[total:])
		if err != nil {
			return nil, 0, err
		}
		out[i] = OpaqueHash(h)
		total += m
	}
	return out, total, nil
}

// JamState is the single value owning every ledger-level entity.
// Field names keep the protocol paper's Greek-letter tags as a trailing
// comment only, never as identifiers.
type JamState struct {
	AuthPools   []AuthPool  // α
	AuthQueues  []AuthQueue // φ
	History     RecentHistory // β
	Safrole     SafroleState  // γ
	Disputes    DisputesRecords // ψ
	Entropy     EntropyBuffer // η
	NextValidators    ValidatorSet // ι
	CurrentValidators ValidatorSet // κ
	PreviousValidators ValidatorSet // λ
	Pending     PendingReports // ρ
	Slot        TimeSlot       // τ
	Privileges  Privileges     // χ
	Stats       ValidatorStats // π
	Ready       ReportsReady   // ϑ
	Accumulated AccumulatedReports // ξ
	Services    Services       // δ
}

// Clone deep-copies the entire state, required wherever a snapshot is taken:
// reads occur only through snapshots (deep clones), never live aliases.
func (s *JamState) Clone() *JamState {
	out := &JamState{
		History:            s.History.Clone(),
		Safrole:            s.Safrole.Clone(),
		Disputes:           s.Disputes.Clone(),
		Entropy:            s.Entropy,
		NextValidators:     s.NextValidators.Clone(),
		CurrentValidators:  s.CurrentValidators.Clone(),
		PreviousValidators: s.PreviousValidators.Clone(),
		Pending:            s.Pending.Clone(),
		Slot:               s.Slot,
		Privileges:         s.Privileges.Clone(),
		Stats:              s.Stats.Clone(),
		Ready:              s.Ready.Clone(),
		Accumulated:        s.Accumulated.Clone(),
		Services:           s.Services.Clone(),
	}
	out.AuthPools = make([]AuthPool, len(s.AuthPools))
	for i, p := range s.AuthPools {
		out.AuthPools[i] = append(AuthPool(nil), p...)
	}
	out.AuthQueues = make([]AuthQueue, len(s.AuthQueues))
	for i, q := range s.AuthQueues {
		out.AuthQueues[i] = append(AuthQueue(nil), q...)
	}
	return out
}

// Encode serializes every state component except Ready (ϑ) and Accumulated
// (ξ), which it does not write; decoding the individual components
// separately is also supported through the state-dictionary key scheme in
// internal/trie, which is the path actually used for merklization. This
// whole-state Encode exists for test-vector pre/post-state comparisons.
func (s *JamState) Encode() []byte {
	var out []byte
	poolElems := make([][]byte, len(s.AuthPools))
	for i, p := range s.AuthPools {
		poolElems[i] = encodeHashList(p)
	}
	out = append(out, codec.EncodeSequence(poolElems)...)

	queueElems := make([][]byte, len(s.AuthQueues))
	for i, q := range s.AuthQueues {
		queueElems[i] = encodeHashList(q)
	}
	out = append(out, codec.EncodeSequence(queueElems)...)

	out = append(out, s.History.Encode()...)
	out = append(out, s.Safrole.Encode()...)
	out = append(out, s.Disputes.Encode()...)
	out = append(out, EncodeEntropyBuffer(s.Entropy)...)
	out = append(out, s.NextValidators.Encode()...)
	out = append(out, s.CurrentValidators.Encode()...)
	out = append(out, s.PreviousValidators.Encode()...)

	pendingElems := make([][]byte, len(s.Pending))
	for i, a := range s.Pending {
		if a == nil {
			pendingElems[i] = codec.EncodeOption(false, nil)
			continue
		}
		payload := encodeHash32([32]byte(a.ErasureRoot))
		payload = append(payload, codec.EncodeU32(uint32(a.TimeoutSlot))...)
		payload = append(payload, a.Report.Encode()...)
		pendingElems[i] = codec.EncodeOption(true, payload)
	}
	out = append(out, codec.EncodeSequence(pendingElems)...)

	out = append(out, codec.EncodeU32(uint32(s.Slot))...)
	out = append(out, s.Privileges.Encode()...)
	out = append(out, s.Stats.Encode()...)
	out = append(out, s.Services.Encode()...)
	return out
}
