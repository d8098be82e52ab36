package jamstate

import "github.com/colmnet/jamcore/internal/codec"

// ValidatorActivityRecord is one validator's per-epoch scalar counters.
// The statistics state holds only these per-validator records; there are
// no per-core or per-service records.
type ValidatorActivityRecord struct {
	BlocksProduced     uint32
	TicketsSubmitted   uint32
	PreimagesIntroduced uint32
	PreimageBytes      uint64
	ReportsGuaranteed  uint32
	AssurancesSubmitted uint32
}

func (r ValidatorActivityRecord) Encode() []byte {
	out := codec.EncodeU32(r.BlocksProduced)
	out = append(out, codec.EncodeU32(r.TicketsSubmitted)...)
	out = append(out, codec.EncodeU32(r.PreimagesIntroduced)...)
	out = append(out, codec.EncodeU64(r.PreimageBytes)...)
	out = append(out, codec.EncodeU32(r.ReportsGuaranteed)...)
	out = append(out, codec.EncodeU32(r.AssurancesSubmitted)...)
	return out
}

func DecodeValidatorActivityRecord(b []byte) (ValidatorActivityRecord, int, error) {
	var r ValidatorActivityRecord
	total := 0
	fields := []*uint32{&r.BlocksProduced, &r.TicketsSubmitted, &r.PreimagesIntroduced}
	for _, f := range fields {
		v, n, err := codec.DecodeU32(b[total:])
		if err != nil {
			return r, 0, err
		}
		*f = v
		total += n
	}
	pb, n, err := codec.DecodeU64(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.PreimageBytes = pb
	total += n
	rg, n, err := codec.DecodeU32(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.ReportsGuaranteed = rg
	total += n
	as, n, err := codec.DecodeU32(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.AssurancesSubmitted = as
	total += n
	return r, total, nil
}

// ValidatorStats is π: per-validator counters for the current and previous
// epoch.
type ValidatorStats struct {
	Current  []ValidatorActivityRecord
	Previous []ValidatorActivityRecord
}

func (s ValidatorStats) Clone() ValidatorStats {
	return ValidatorStats{
		Current:  append([]ValidatorActivityRecord(nil), s.Current...),
		Previous: append([]ValidatorActivityRecord(nil), s.Previous...),
	}
}

func encodeActivityList(recs []ValidatorActivityRecord) []byte {
	elems := make([][]byte, len(recs))
	for i, r := range recs {
		elems[i] = r.Encode()
	}
	return codec.EncodeSequence(elems)
}

func decodeActivityList(b []byte) ([]ValidatorActivityRecord, int, error) {
	n, hdr, err := codec.DecodeLen(b)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ValidatorActivityRecord, n)
	total := hdr
	for i := 0; i < n; i++ {
		r, m, err := DecodeValidatorActivityRecord(b[total:])
		if err != nil {
			return nil, 0, err
		}
		out[i] = r
		total += m
	}
	return out, total, nil
}

func (s ValidatorStats) Encode() []byte {
	out := encodeActivityList(s.Current)
	out = append(out, encodeActivityList(s.Previous)...)
	return out
}

func DecodeValidatorStats(b []byte) (ValidatorStats, int, error) {
	var s ValidatorStats
	cur, n, err := decodeActivityList(b)
	if err != nil {
		return s, 0, err
	}
	s.Current = cur
	total := n
	prev, n, err := decodeActivityList(b[total:])
	if err != nil {
		return s, 0, err
	}
	s.Previous = prev
	total += n
	return s, total, nil
}

// ReportsReadyEntry is one item of ϑ: a work report awaiting the
// satisfaction of its dependency set before it can accumulate.
type ReportsReadyEntry struct {
	Report       WorkReport
	Dependencies []WorkPackageHash
}

// ReportsReady is ϑ: a per-epoch-slot sequence of ReportsReadyEntry.
type ReportsReady [][]ReportsReadyEntry

func (rr ReportsReady) Clone() ReportsReady {
	out := make(ReportsReady, len(rr))
	for i, slot := range rr {
		cp := make([]ReportsReadyEntry, len(slot))
		for j, e := range slot {
			cp[j] = ReportsReadyEntry{Report: e.Report, Dependencies: append([]WorkPackageHash(nil), e.Dependencies...)}
		}
		out[i] = cp
	}
	return out
}

// AccumulatedReports is ξ: a per-epoch-slot set of already-accumulated
// work-package hashes.
type AccumulatedReports [][]WorkPackageHash

func (ar AccumulatedReports) Clone() AccumulatedReports {
	out := make(AccumulatedReports, len(ar))
	for i, slot := range ar {
		out[i] = append([]WorkPackageHash(nil), slot...)
	}
	return out
}

// Contains reports whether h was accumulated in any tracked epoch slot.
func (ar AccumulatedReports) Contains(h WorkPackageHash) bool {
	for _, slot := range ar {
		for _, x := range slot {
			if x == h {
				return true
			}
		}
	}
	return false
}
