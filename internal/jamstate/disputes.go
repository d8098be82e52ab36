package jamstate

import (
	"bytes"
	"sort"

	"github.com/colmnet/jamcore/internal/codec"
)

// DisputesRecords is ψ: four ordered sets tracking the disposition of
// disputed work reports and the validators punished over them.
type DisputesRecords struct {
	Good    []WorkReportHash
	Bad     []WorkReportHash
	Wonky   []WorkReportHash
	Punish  []Ed25519Public
}

func sortHashes(hs []WorkReportHash) {
	sort.Slice(hs, func(i, j int) bool { return bytes.Compare(hs[i][:], hs[j][:]) < 0 })
}

func sortKeys(ks []Ed25519Public) {
	sort.Slice(ks, func(i, j int) bool { return bytes.Compare(ks[i][:], ks[j][:]) < 0 })
}

// Normalize sorts every set into the canonical ascending order the codec
// requires at encode time.
func (d *DisputesRecords) Normalize() {
	sortHashes(d.Good)
	sortHashes(d.Bad)
	sortHashes(d.Wonky)
	sortKeys(d.Punish)
}

func encodeHashSet(hs []WorkReportHash) []byte {
	elems := make([][]byte, len(hs))
	for i, h := range hs {
		elems[i] = encodeHash32([32]byte(h))
	}
	return codec.EncodeSequence(elems)
}

func decodeHashSet(b []byte) ([]WorkReportHash, int, error) {
	n, hdr, err := codec.DecodeLen(b)
	if err != nil {
		return nil, 0, err
	}
	out := make([]WorkReportHash, n)
	total := hdr
	var prev *WorkReportHash
	for i := 0; i < n; i++ {
		h, m, err := decodeHash32(b[total:])
		if err != nil {
			return nil, 0, err
		}
		wh := WorkReportHash(h)
		if prev != nil && bytes.Compare(wh[:], (*prev)[:]) <= 0 {
			return nil, 0, codec.ErrNonCanonicalOrder
		}
		out[i] = wh
		prev = &out[i]
		total += m
	}
	return out, total, nil
}

func encodeKeySet(ks []Ed25519Public) []byte {
	elems := make([][]byte, len(ks))
	for i, k := range ks {
		elems[i] = codec.EncodeFixedBytes(k[:])
	}
	return codec.EncodeSequence(elems)
}

func decodeKeySet(b []byte) ([]Ed25519Public, int, error) {
	n, hdr, err := codec.DecodeLen(b)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Ed25519Public, n)
	total := hdr
	var prev *Ed25519Public
	for i := 0; i < n; i++ {
		raw, m, err := codec.DecodeFixedBytes(b[total:], 32)
		if err != nil {
			return nil, 0, err
		}
		var k Ed25519Public
		copy(k[:], raw)
		if prev != nil && bytes.Compare(k[:], (*prev)[:]) <= 0 {
			return nil, 0, codec.ErrNonCanonicalOrder
		}
		out[i] = k
		prev = &out[i]
		total += m
	}
	return out, total, nil
}

func (d DisputesRecords) Encode() []byte {
	out := encodeHashSet(d.Good)
	out = append(out, encodeHashSet(d.Bad)...)
	out = append(out, encodeHashSet(d.Wonky)...)
	out = append(out, encodeKeySet(d.Punish)...)
	return out
}

func DecodeDisputesRecords(b []byte) (DisputesRecords, int, error) {
	var d DisputesRecords
	total := 0

	good, n, err := decodeHashSet(b[total:])
	if err != nil {
		return d, 0, err
	}
	d.Good = good
	total += n

	bad, n, err := decodeHashSet(b[total:])
	if err != nil {
		return d, 0, err
	}
	d.Bad = bad
	total += n

	wonky, n, err := decodeHashSet(b[total:])
	if err != nil {
		return d, 0, err
	}
	d.Wonky = wonky
	total += n

	punish, n, err := decodeKeySet(b[total:])
	if err != nil {
		return d, 0, err
	}
	d.Punish = punish
	total += n

	return d, total, nil
}

// Clone deep-copies ψ.
func (d DisputesRecords) Clone() DisputesRecords {
	return DisputesRecords{
		Good:   append([]WorkReportHash(nil), d.Good...),
		Bad:    append([]WorkReportHash(nil), d.Bad...),
		Wonky:  append([]WorkReportHash(nil), d.Wonky...),
		Punish: append([]Ed25519Public(nil), d.Punish...),
	}
}

// Contains reports whether h is already recorded as good, bad, or wonky —
// the disputes STF's already_judged rejection checks this.
func (d DisputesRecords) Contains(h WorkReportHash) bool {
	for _, set := range [][]WorkReportHash{d.Good, d.Bad, d.Wonky} {
		for _, x := range set {
			if x == h {
				return true
			}
		}
	}
	return false
}
