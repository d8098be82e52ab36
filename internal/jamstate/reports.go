package jamstate

import "github.com/colmnet/jamcore/internal/codec"

// WorkExecResultKind tags a WorkResult's outcome.
type WorkExecResultKind uint8

const (
	WorkExecOk          WorkExecResultKind = 0
	WorkExecOutOfGas    WorkExecResultKind = 1
	WorkExecPanic       WorkExecResultKind = 2
	WorkExecBadCode     WorkExecResultKind = 3
	WorkExecCodeOversize WorkExecResultKind = 4
)

// WorkExecResult is the tagged variant carried by WorkResult.Result.
type WorkExecResult struct {
	Kind WorkExecResultKind
	Ok   []byte
}

func (r WorkExecResult) Encode() []byte {
	out := []byte{byte(r.Kind)}
	if r.Kind == WorkExecOk {
		out = append(out, codec.EncodeVarBytes(r.Ok)...)
	}
	return out
}

func DecodeWorkExecResult(b []byte) (WorkExecResult, int, error) {
	var r WorkExecResult
	if len(b) < 1 {
		return r, 0, codec.ErrShortRead
	}
	r.Kind = WorkExecResultKind(b[0])
	total := 1
	switch r.Kind {
	case WorkExecOk:
		ok, n, err := codec.DecodeVarBytes(b[total:])
		if err != nil {
			return r, 0, err
		}
		r.Ok = ok
		total += n
	case WorkExecOutOfGas, WorkExecPanic, WorkExecBadCode, WorkExecCodeOversize:
		// no payload
	default:
		return r, 0, codec.ErrBadDiscriminator
	}
	return r, total, nil
}

// WorkResult is one service's contribution to a WorkReport.
type WorkResult struct {
	ServiceId     ServiceId
	CodeHash      OpaqueHash
	PayloadHash   OpaqueHash
	AccumulateGas Gas
	Result        WorkExecResult
	RefineLoad    RefineLoad
}

// RefineLoad carries the counters recorded during refinement (gas used,
// imports/exports/extrinsic counts) attached to every WorkResult.
type RefineLoad struct {
	GasUsed        Gas
	ImportsCount   uint16
	ExportsCount   uint16
	ExtrinsicCount uint16
	ExtrinsicSize  uint32
}

func (l RefineLoad) Encode() []byte {
	out := codec.EncodeU64(uint64(l.GasUsed))
	out = append(out, codec.EncodeU16(l.ImportsCount)...)
	out = append(out, codec.EncodeU16(l.ExportsCount)...)
	out = append(out, codec.EncodeU16(l.ExtrinsicCount)...)
	out = append(out, codec.EncodeU32(l.ExtrinsicSize)...)
	return out
}

func DecodeRefineLoad(b []byte) (RefineLoad, int, error) {
	var l RefineLoad
	total := 0
	gu, n, err := codec.DecodeU64(b[total:])
	if err != nil {
		return l, 0, err
	}
	l.GasUsed = Gas(gu)
	total += n
	ic, n, err := codec.DecodeU16(b[total:])
	if err != nil {
		return l, 0, err
	}
	l.ImportsCount = ic
	total += n
	ec, n, err := codec.DecodeU16(b[total:])
	if err != nil {
		return l, 0, err
	}
	l.ExportsCount = ec
	total += n
	xc, n, err := codec.DecodeU16(b[total:])
	if err != nil {
		return l, 0, err
	}
	l.ExtrinsicCount = xc
	total += n
	xs, n, err := codec.DecodeU32(b[total:])
	if err != nil {
		return l, 0, err
	}
	l.ExtrinsicSize = xs
	total += n
	return l, total, nil
}

func (w WorkResult) Encode() []byte {
	out := codec.EncodeU32(uint32(w.ServiceId))
	out = append(out, encodeHash32([32]byte(w.CodeHash))...)
	out = append(out, encodeHash32([32]byte(w.PayloadHash))...)
	out = append(out, codec.EncodeU64(uint64(w.AccumulateGas))...)
	out = append(out, w.Result.Encode()...)
	out = append(out, w.RefineLoad.Encode()...)
	return out
}

func DecodeWorkResult(b []byte) (WorkResult, int, error) {
	var w WorkResult
	total := 0

	sid, n, err := codec.DecodeU32(b[total:])
	if err != nil {
		return w, 0, err
	}
	w.ServiceId = ServiceId(sid)
	total += n

	ch, n, err := decodeHash32(b[total:])
	if err != nil {
		return w, 0, err
	}
	w.CodeHash = OpaqueHash(ch)
	total += n

	ph, n, err := decodeHash32(b[total:])
	if err != nil {
		return w, 0, err
	}
	w.PayloadHash = OpaqueHash(ph)
	total += n

	gas, n, err := codec.DecodeU64(b[total:])
	if err != nil {
		return w, 0, err
	}
	w.AccumulateGas = Gas(gas)
	total += n

	res, n, err := DecodeWorkExecResult(b[total:])
	if err != nil {
		return w, 0, err
	}
	w.Result = res
	total += n

	load, n, err := DecodeRefineLoad(b[total:])
	if err != nil {
		return w, 0, err
	}
	w.RefineLoad = load
	total += n

	return w, total, nil
}

// RefineContext carries the anchor/lookup context a work package was
// refined against.
type RefineContext struct {
	Anchor          HeaderHash
	AnchorStateRoot StateRoot
	AnchorBeefyRoot BeefyRoot
	LookupAnchor    HeaderHash
	LookupAnchorSlot TimeSlot
	Prerequisites   []WorkPackageHash
}

func (c RefineContext) Encode() []byte {
	out := encodeHash32([32]byte(c.Anchor))
	out = append(out, encodeHash32([32]byte(c.AnchorStateRoot))...)
	out = append(out, encodeHash32([32]byte(c.AnchorBeefyRoot))...)
	out = append(out, encodeHash32([32]byte(c.LookupAnchor))...)
	out = append(out, codec.EncodeU32(uint32(c.LookupAnchorSlot))...)
	elems := make([][]byte, len(c.Prerequisites))
	for i, p := range c.Prerequisites {
		elems[i] = encodeHash32([32]byte(p))
	}
	out = append(out, codec.EncodeSequence(elems)...)
	return out
}

func DecodeRefineContext(b []byte) (RefineContext, int, error) {
	var c RefineContext
	total := 0

	a, n, err := decodeHash32(b[total:])
	if err != nil {
		return c, 0, err
	}
	c.Anchor = HeaderHash(a)
	total += n

	asr, n, err := decodeHash32(b[total:])
	if err != nil {
		return c, 0, err
	}
	c.AnchorStateRoot = StateRoot(asr)
	total += n

	abr, n, err := decodeHash32(b[total:])
	if err != nil {
		return c, 0, err
	}
	c.AnchorBeefyRoot = BeefyRoot(abr)
	total += n

	la, n, err := decodeHash32(b[total:])
	if err != nil {
		return c, 0, err
	}
	c.LookupAnchor = HeaderHash(la)
	total += n

	slot, n, err := codec.DecodeU32(b[total:])
	if err != nil {
		return c, 0, err
	}
	c.LookupAnchorSlot = TimeSlot(slot)
	total += n

	cnt, hdr, err := codec.DecodeLen(b[total:])
	if err != nil {
		return c, 0, err
	}
	total += hdr
	c.Prerequisites = make([]WorkPackageHash, cnt)
	for i := 0; i < cnt; i++ {
		p, m, err := decodeHash32(b[total:])
		if err != nil {
			return c, 0, err
		}
		c.Prerequisites[i] = WorkPackageHash(p)
		total += m
	}
	return c, total, nil
}

// WorkReport is the unit admitted into ρ by the reports STF.
type WorkReport struct {
	PackageHash   WorkPackageHash
	PackageLength uint32
	ErasureRoot   ErasureRoot
	ExportsRoot   ExportsRoot
	ExportsCount  uint16
	Context       RefineContext
	Core          CoreIndex
	AuthorizerHash OpaqueHash
	AuthOutput    []byte
	SegmentRootLookup map[WorkPackageHash]ExportsRoot
	Results       []WorkResult
	AuthGasUsed   Gas
}

func (r WorkReport) Encode() []byte {
	out := encodeHash32([32]byte(r.PackageHash))
	out = append(out, codec.EncodeU32(r.PackageLength)...)
	out = append(out, encodeHash32([32]byte(r.ErasureRoot))...)
	out = append(out, encodeHash32([32]byte(r.ExportsRoot))...)
	out = append(out, codec.EncodeU16(r.ExportsCount)...)
	out = append(out, r.Context.Encode()...)
	out = append(out, codec.EncodeU16(uint16(r.Core))...)
	out = append(out, encodeHash32([32]byte(r.AuthorizerHash))...)
	out = append(out, codec.EncodeVarBytes(r.AuthOutput)...)

	keys := make([]WorkPackageHash, 0, len(r.SegmentRootLookup))
	for k := range r.SegmentRootLookup {
		keys = append(keys, k)
	}
	sortWorkPackageHashes(keys)
	lookupElems := make([][]byte, len(keys))
	for i, k := range keys {
		e := encodeHash32([32]byte(k))
		e = append(e, encodeHash32([32]byte(r.SegmentRootLookup[k]))...)
		lookupElems[i] = e
	}
	out = append(out, codec.EncodeSequence(lookupElems)...)

	resultElems := make([][]byte, len(r.Results))
	for i, res := range r.Results {
		resultElems[i] = res.Encode()
	}
	out = append(out, codec.EncodeSequence(resultElems)...)
	out = append(out, codec.EncodeU64(uint64(r.AuthGasUsed))...)
	return out
}

func DecodeWorkReport(b []byte) (WorkReport, int, error) {
	var r WorkReport
	total := 0

	ph, n, err := decodeHash32(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.PackageHash = WorkPackageHash(ph)
	total += n

	pl, n, err := codec.DecodeU32(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.PackageLength = pl
	total += n

	er, n, err := decodeHash32(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.ErasureRoot = ErasureRoot(er)
	total += n

	ex, n, err := decodeHash32(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.ExportsRoot = ExportsRoot(ex)
	total += n

	ec, n, err := codec.DecodeU16(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.ExportsCount = ec
	total += n

	ctx, n, err := DecodeRefineContext(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.Context = ctx
	total += n

	core, n, err := codec.DecodeU16(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.Core = CoreIndex(core)
	total += n

	ah, n, err := decodeHash32(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.AuthorizerHash = OpaqueHash(ah)
	total += n

	ao, n, err := codec.DecodeVarBytes(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.AuthOutput = ao
	total += n

	lcnt, hdr, err := codec.DecodeLen(b[total:])
	if err != nil {
		return r, 0, err
	}
	total += hdr
	r.SegmentRootLookup = make(map[WorkPackageHash]ExportsRoot, lcnt)
	for i := 0; i < lcnt; i++ {
		k, m, err := decodeHash32(b[total:])
		if err != nil {
			return r, 0, err
		}
		total += m
		v, m, err := decodeHash32(b[total:])
		if err != nil {
			return r, 0, err
		}
		total += m
		r.SegmentRootLookup[WorkPackageHash(k)] = ExportsRoot(v)
	}

	rcnt, hdr, err := codec.DecodeLen(b[total:])
	if err != nil {
		return r, 0, err
	}
	total += hdr
	if rcnt < 1 || rcnt > 4 {
		return r, 0, codec.ErrLengthOverflow
	}
	r.Results = make([]WorkResult, rcnt)
	for i := 0; i < rcnt; i++ {
		res, m, err := DecodeWorkResult(b[total:])
		if err != nil {
			return r, 0, err
		}
		r.Results[i] = res
		total += m
	}

	gas, n, err := codec.DecodeU64(b[total:])
	if err != nil {
		return r, 0, err
	}
	r.AuthGasUsed = Gas(gas)
	total += n

	return r, total, nil
}

func sortWorkPackageHashes(hs []WorkPackageHash) {
	for i := 1; i < len(hs); i++ {
		for j := i; j > 0; j-- {
			if string(hs[j][:]) < string(hs[j-1][:]) {
				hs[j], hs[j-1] = hs[j-1], hs[j]
			} else {
				break
			}
		}
	}
}

// PendingAssignment is the ρ entry for one core: the assigned report, its
// erasure root, and the timeout slot after which it can be evicted.
type PendingAssignment struct {
	Report      WorkReport
	ErasureRoot ErasureRoot
	TimeoutSlot TimeSlot
}

// PendingReports is ρ: one optional assignment per core.
type PendingReports []*PendingAssignment

func (p PendingReports) Clone() PendingReports {
	out := make(PendingReports, len(p))
	for i, a := range p {
		if a == nil {
			continue
		}
		cp := *a
		out[i] = &cp
	}
	return out
}

// Privileges is χ: the manager/assign/designate service ids and the
// always-accumulate map.
type Privileges struct {
	Manager          ServiceId
	Assign           ServiceId
	Designate        ServiceId
	AlwaysAccumulate map[ServiceId]Gas
}

func (p Privileges) Clone() Privileges {
	out := Privileges{Manager: p.Manager, Assign: p.Assign, Designate: p.Designate}
	out.AlwaysAccumulate = make(map[ServiceId]Gas, len(p.AlwaysAccumulate))
	for k, v := range p.AlwaysAccumulate {
		out.AlwaysAccumulate[k] = v
	}
	return out
}

func (p Privileges) Encode() []byte {
	out := codec.EncodeU32(uint32(p.Manager))
	out = append(out, codec.EncodeU32(uint32(p.Assign))...)
	out = append(out, codec.EncodeU32(uint32(p.Designate))...)
	ids := make([]ServiceId, 0, len(p.AlwaysAccumulate))
	for id := range p.AlwaysAccumulate {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	elems := make([][]byte, len(ids))
	for i, id := range ids {
		e := codec.EncodeU32(uint32(id))
		e = append(e, codec.EncodeU64(uint64(p.AlwaysAccumulate[id]))...)
		elems[i] = e
	}
	out = append(out, codec.EncodeSequence(elems)...)
	return out
}

func DecodePrivileges(b []byte) (Privileges, int, error) {
	var p Privileges
	total := 0

	m, n, err := codec.DecodeU32(b[total:])
	if err != nil {
		return p, 0, err
	}
	p.Manager = ServiceId(m)
	total += n

	a, n, err := codec.DecodeU32(b[total:])
	if err != nil {
		return p, 0, err
	}
	p.Assign = ServiceId(a)
	total += n

	d, n, err := codec.DecodeU32(b[total:])
	if err != nil {
		return p, 0, err
	}
	p.Designate = ServiceId(d)
	total += n

	cnt, hdr, err := codec.DecodeLen(b[total:])
	if err != nil {
		return p, 0, err
	}
	total += hdr
	p.AlwaysAccumulate = make(map[ServiceId]Gas, cnt)
	var prev *ServiceId
	for i := 0; i < cnt; i++ {
		idRaw, n, err := codec.DecodeU32(b[total:])
		if err != nil {
			return p, 0, err
		}
		id := ServiceId(idRaw)
		total += n
		if prev != nil && id <= *prev {
			return p, 0, codec.ErrNonCanonicalOrder
		}
		gas, n, err := codec.DecodeU64(b[total:])
		if err != nil {
			return p, 0, err
		}
		total += n
		p.AlwaysAccumulate[id] = Gas(gas)
		prev = &id
	}
	return p, total, nil
}
