package jamstate

import "github.com/colmnet/jamcore/internal/codec"

// ReportedPackageInfo is one entry of a BlockInfo's reported-package list:
// the work-package hash paired with its exports root.
type ReportedPackageInfo struct {
	PackageHash WorkPackageHash
	ExportsRoot ExportsRoot
}

func (r ReportedPackageInfo) Encode() []byte {
	out := encodeHash32([32]byte(r.PackageHash))
	return append(out, encodeHash32([32]byte(r.ExportsRoot))...)
}

func DecodeReportedPackageInfo(b []byte) (ReportedPackageInfo, int, error) {
	var r ReportedPackageInfo
	ph, n, err := decodeHash32(b)
	if err != nil {
		return r, 0, err
	}
	r.PackageHash = WorkPackageHash(ph)
	er, m, err := decodeHash32(b[n:])
	if err != nil {
		return r, 0, err
	}
	r.ExportsRoot = ExportsRoot(er)
	return r, n + m, nil
}

// BlockInfo is one entry of β: a summary of a recently processed block.
type BlockInfo struct {
	HeaderHash HeaderHash
	BeefyRoot  BeefyRoot
	StateRoot  StateRoot
	Reported   []ReportedPackageInfo
}

func (bi BlockInfo) Encode() []byte {
	out := encodeHash32([32]byte(bi.HeaderHash))
	out = append(out, encodeHash32([32]byte(bi.BeefyRoot))...)
	out = append(out, encodeHash32([32]byte(bi.StateRoot))...)
	elems := make([][]byte, len(bi.Reported))
	for i, r := range bi.Reported {
		elems[i] = r.Encode()
	}
	out = append(out, codec.EncodeSequence(elems)...)
	return out
}

func DecodeBlockInfo(b []byte) (BlockInfo, int, error) {
	var bi BlockInfo
	total := 0

	hh, n, err := decodeHash32(b[total:])
	if err != nil {
		return bi, 0, err
	}
	bi.HeaderHash = HeaderHash(hh)
	total += n

	br, n, err := decodeHash32(b[total:])
	if err != nil {
		return bi, 0, err
	}
	bi.BeefyRoot = BeefyRoot(br)
	total += n

	sr, n, err := decodeHash32(b[total:])
	if err != nil {
		return bi, 0, err
	}
	bi.StateRoot = StateRoot(sr)
	total += n

	cnt, hdr, err := codec.DecodeLen(b[total:])
	if err != nil {
		return bi, 0, err
	}
	total += hdr
	bi.Reported = make([]ReportedPackageInfo, cnt)
	for i := 0; i < cnt; i++ {
		r, m, err := DecodeReportedPackageInfo(b[total:])
		if err != nil {
			return bi, 0, err
		}
		bi.Reported[i] = r
		total += m
	}
	return bi, total, nil
}

// RecentHistory is β: a bounded ordered sequence of BlockInfo, plus the
// beefy MMR belt (here represented as the ordered sequence of peak hashes;
// a root-only summary and a full MMR are both valid representations
// depending on protocol version -- this node keeps the full peak sequence,
// a superset from which a root-only summary is always derivable).
type RecentHistory struct {
	Blocks    []BlockInfo
	BeefyMMR  []BeefyRoot
}

// Append adds bi to the head of history, evicting the oldest entry once
// the bound is exceeded.
func (h *RecentHistory) Append(bi BlockInfo, maxSize uint32) {
	h.Blocks = append(h.Blocks, bi)
	if uint32(len(h.Blocks)) > maxSize {
		h.Blocks = h.Blocks[uint32(len(h.Blocks))-maxSize:]
	}
}

func (h RecentHistory) Encode() []byte {
	elems := make([][]byte, len(h.Blocks))
	for i, bi := range h.Blocks {
		elems[i] = bi.Encode()
	}
	out := codec.EncodeSequence(elems)
	mmrElems := make([][]byte, len(h.BeefyMMR))
	for i, r := range h.BeefyMMR {
		mmrElems[i] = encodeHash32([32]byte(r))
	}
	out = append(out, codec.EncodeSequence(mmrElems)...)
	return out
}

func DecodeRecentHistory(b []byte) (RecentHistory, int, error) {
	var h RecentHistory
	total := 0

	cnt, hdr, err := codec.DecodeLen(b[total:])
	if err != nil {
		return h, 0, err
	}
	total += hdr
	h.Blocks = make([]BlockInfo, cnt)
	for i := 0; i < cnt; i++ {
		bi, n, err := DecodeBlockInfo(b[total:])
		if err != nil {
			return h, 0, err
		}
		h.Blocks[i] = bi
		total += n
	}

	mcnt, hdr, err := codec.DecodeLen(b[total:])
	if err != nil {
		return h, 0, err
	}
	total += hdr
	h.BeefyMMR = make([]BeefyRoot, mcnt)
	for i := 0; i < mcnt; i++ {
		r, n, err := decodeHash32(b[total:])
		if err != nil {
			return h, 0, err
		}
		h.BeefyMMR[i] = BeefyRoot(r)
		total += n
	}
	return h, total, nil
}

// Clone deep-copies β.
func (h RecentHistory) Clone() RecentHistory {
	out := RecentHistory{
		Blocks:   make([]BlockInfo, len(h.Blocks)),
		BeefyMMR: append([]BeefyRoot(nil), h.BeefyMMR...),
	}
	for i, bi := range h.Blocks {
		out.Blocks[i] = BlockInfo{
			HeaderHash: bi.HeaderHash,
			BeefyRoot:  bi.BeefyRoot,
			StateRoot:  bi.StateRoot,
			Reported:   append([]ReportedPackageInfo(nil), bi.Reported...),
		}
	}
	return out
}
