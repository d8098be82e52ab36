package jamstate

import (
	"bytes"
	"sort"

	"github.com/colmnet/jamcore/internal/codec"
	"github.com/colmnet/jamcore/internal/params"
)

// PreimageLookupKey identifies one preimage-availability record: a hash and
// the preimage's byte length (ServiceAccount.preimage_lookups).
type PreimageLookupKey struct {
	Hash   OpaqueHash
	Length uint32
}

// ServiceAccount is one entry of δ. Storage, preimages and
// preimage-lookup status are held as plain Go maps; Encode sorts them into
// canonical order, Decode rejects any input that was not already sorted.
type ServiceAccount struct {
	CodeHash            OpaqueHash
	Balance             Balance
	MinGasAccumulate    Gas
	MinGasOnTransfer    Gas
	CreationSlot        TimeSlot
	LastAccumulationSlot TimeSlot
	ParentService       ServiceId
	StorageOffset       uint64

	Storage         map[[32]byte][]byte
	Preimages       map[OpaqueHash][]byte
	PreimageLookups map[PreimageLookupKey][]TimeSlot
}

// NewServiceAccount returns a zero-balance account with initialized maps.
func NewServiceAccount(codeHash OpaqueHash) *ServiceAccount {
	return &ServiceAccount{
		CodeHash:        codeHash,
		Storage:         make(map[[32]byte][]byte),
		Preimages:       make(map[OpaqueHash][]byte),
		PreimageLookups: make(map[PreimageLookupKey][]TimeSlot),
	}
}

// Footprint returns the storage footprint (a_i items, a_o octets) the
// threshold-balance calculation is a function of.
func (s *ServiceAccount) Footprint() (items uint64, octets uint64) {
	for k, v := range s.Storage {
		_ = k
		items++
		octets += uint64(len(v))
	}
	for h, v := range s.Preimages {
		_ = h
		items++
		octets += uint64(len(v))
	}
	for k, slots := range s.PreimageLookups {
		_ = k
		items++
		octets += uint64(len(slots)) * 4
	}
	return
}

// ThresholdBalance computes a_t from the current footprint via the
// parameter set's per-item/per-octet/basic constants.
func (s *ServiceAccount) ThresholdBalance(p params.Params) Balance {
	items, octets := s.Footprint()
	return Balance(p.BasicServiceBalance + items*p.MinBalancePerItem + octets*p.MinBalancePerOctet)
}

// MeetsThreshold reports whether the account's balance is still at or
// above its threshold.
func (s *ServiceAccount) MeetsThreshold(p params.Params) bool {
	return uint64(s.Balance) >= uint64(s.ThresholdBalance(p))
}

// Clone deep-copies a ServiceAccount, including every map, satisfying the
// checkpoint/rollback invariant.
func (s *ServiceAccount) Clone() *ServiceAccount {
	out := &ServiceAccount{
		CodeHash:             s.CodeHash,
		Balance:              s.Balance,
		MinGasAccumulate:     s.MinGasAccumulate,
		MinGasOnTransfer:     s.MinGasOnTransfer,
		CreationSlot:         s.CreationSlot,
		LastAccumulationSlot: s.LastAccumulationSlot,
		ParentService:        s.ParentService,
		StorageOffset:        s.StorageOffset,
		Storage:              make(map[[32]byte][]byte, len(s.Storage)),
		Preimages:            make(map[OpaqueHash][]byte, len(s.Preimages)),
		PreimageLookups:      make(map[PreimageLookupKey][]TimeSlot, len(s.PreimageLookups)),
	}
	for k, v := range s.Storage {
		cp := make([]byte, len(v))
		copy(cp, v)
		out.Storage[k] = cp
	}
	for k, v := range s.Preimages {
		cp := make([]byte, len(v))
		copy(cp, v)
		out.Preimages[k] = cp
	}
	for k, v := range s.PreimageLookups {
		out.PreimageLookups[k] = append([]TimeSlot(nil), v...)
	}
	return out
}

func (s *ServiceAccount) Encode() []byte {
	out := encodeHash32([32]byte(s.CodeHash))
	out = append(out, codec.EncodeU64(uint64(s.Balance))...)
	out = append(out, codec.EncodeU64(uint64(s.MinGasAccumulate))...)
	out = append(out, codec.EncodeU64(uint64(s.MinGasOnTransfer))...)
	out = append(out, codec.EncodeU32(uint32(s.CreationSlot))...)
	out = append(out, codec.EncodeU32(uint32(s.LastAccumulationSlot))...)
	out = append(out, codec.EncodeU32(uint32(s.ParentService))...)
	out = append(out, codec.EncodeU64(s.StorageOffset)...)

	storageKeys := make([][32]byte, 0, len(s.Storage))
	for k := range s.Storage {
		storageKeys = append(storageKeys, k)
	}
	sort.Slice(storageKeys, func(i, j int) bool { return bytes.Compare(storageKeys[i][:], storageKeys[j][:]) < 0 })
	storageElems := make([][]byte, len(storageKeys))
	for i, k := range storageKeys {
		e := codec.EncodeFixedBytes(k[:])
		e = append(e, codec.EncodeVarBytes(s.Storage[k])...)
		storageElems[i] = e
	}
	out = append(out, codec.EncodeSequence(storageElems)...)

	preimageKeys := make([]OpaqueHash, 0, len(s.Preimages))
	for h := range s.Preimages {
		preimageKeys = append(preimageKeys, h)
	}
	sort.Slice(preimageKeys, func(i, j int) bool { return bytes.Compare(preimageKeys[i][:], preimageKeys[j][:]) < 0 })
	preimageElems := make([][]byte, len(preimageKeys))
	for i, h := range preimageKeys {
		e := encodeHash32([32]byte(h))
		e = append(e, codec.EncodeVarBytes(s.Preimages[h])...)
		preimageElems[i] = e
	}
	out = append(out, codec.EncodeSequence(preimageElems)...)

	lookupKeys := make([]PreimageLookupKey, 0, len(s.PreimageLookups))
	for k := range s.PreimageLookups {
		lookupKeys = append(lookupKeys, k)
	}
	sort.Slice(lookupKeys, func(i, j int) bool {
		if c := bytes.Compare(lookupKeys[i].Hash[:], lookupKeys[j].Hash[:]); c != 0 {
			return c < 0
		}
		return lookupKeys[i].Length < lookupKeys[j].Length
	})
	lookupElems := make([][]byte, len(lookupKeys))
	for i, k := range lookupKeys {
		e := encodeHash32([32]byte(k.Hash))
		e = append(e, codec.EncodeU32(k.Length)...)
		slotElems := make([][]byte, len(s.PreimageLookups[k]))
		for j, slot := range s.PreimageLookups[k] {
			slotElems[j] = codec.EncodeU32(uint32(slot))
		}
		e = append(e, codec.EncodeSequence(slotElems)...)
		lookupElems[i] = e
	}
	out = append(out, codec.EncodeSequence(lookupElems)...)

	return out
}

func DecodeServiceAccount(b []byte) (*ServiceAccount, int, error) {
	s := NewServiceAccount(OpaqueHash{})
	total := 0

	ch, n, err := decodeHash32(b[total:])
	if err != nil {
		return nil, 0, err
	}
	s.CodeHash = OpaqueHash(ch)
	total += n

	bal, n, err := codec.DecodeU64(b[total:])
	if err != nil {
		return nil, 0, err
	}
	s.Balance = Balance(bal)
	total += n

	mga, n, err := codec.DecodeU64(b[total:])
	if err != nil {
		return nil, 0, err
	}
	s.MinGasAccumulate = Gas(mga)
	total += n

	mgt, n, err := codec.DecodeU64(b[total:])
	if err != nil {
		return nil, 0, err
	}
	s.MinGasOnTransfer = Gas(mgt)
	total += n

	cs, n, err := codec.DecodeU32(b[total:])
	if err != nil {
		return nil, 0, err
	}
	s.CreationSlot = TimeSlot(cs)
	total += n

	las, n, err := codec.DecodeU32(b[total:])
	if err != nil {
		return nil, 0, err
	}
	s.LastAccumulationSlot = TimeSlot(las)
	total += n

	ps, n, err := codec.DecodeU32(b[total:])
	if err != nil {
		return nil, 0, err
	}
	s.ParentService = ServiceId(ps)
	total += n

	so, n, err := codec.DecodeU64(b[total:])
	if err != nil {
		return nil, 0, err
	}
	s.StorageOffset = so
	total += n

	nStorage, hdr, err := codec.DecodeLen(b[total:])
	if err != nil {
		return nil, 0, err
	}
	total += hdr
	var prevKey *[32]byte
	for i := 0; i < nStorage; i++ {
		kb, m, err := codec.DecodeFixedBytes(b[total:], 32)
		if err != nil {
			return nil, 0, err
		}
		var key [32]byte
		copy(key[:], kb)
		total += m
		if prevKey != nil && bytes.Compare(key[:], (*prevKey)[:]) <= 0 {
			return nil, 0, codec.ErrNonCanonicalOrder
		}
		val, m, err := codec.DecodeVarBytes(b[total:])
		if err != nil {
			return nil, 0, err
		}
		total += m
		s.Storage[key] = val
		prevKey = &key
	}

	nPre, hdr, err := codec.DecodeLen(b[total:])
	if err != nil {
		return nil, 0, err
	}
	total += hdr
	var prevHash *OpaqueHash
	for i := 0; i < nPre; i++ {
		hb, m, err := decodeHash32(b[total:])
		if err != nil {
			return nil, 0, err
		}
		h := OpaqueHash(hb)
		total += m
		if prevHash != nil && bytes.Compare(h[:], (*prevHash)[:]) <= 0 {
			return nil, 0, codec.ErrNonCanonicalOrder
		}
		val, m, err := codec.DecodeVarBytes(b[total:])
		if err != nil {
			return nil, 0, err
		}
		total += m
		s.Preimages[h] = val
		prevHash = &h
	}

	nLookup, hdr, err := codec.DecodeLen(b[total:])
	if err != nil {
		return nil, 0, err
	}
	total += hdr
	var prevLookup *PreimageLookupKey
	for i := 0; i < nLookup; i++ {
		hb, m, err := decodeHash32(b[total:])
		if err != nil {
			return nil, 0, err
		}
		total += m
		length, m, err := codec.DecodeU32(b[total:])
		if err != nil {
			return nil, 0, err
		}
		total += m
		key := PreimageLookupKey{Hash: OpaqueHash(hb), Length: length}
		if prevLookup != nil {
			c := bytes.Compare(key.Hash[:], prevLookup.Hash[:])
			if c < 0 || (c == 0 && key.Length <= prevLookup.Length) {
				return nil, 0, codec.ErrNonCanonicalOrder
			}
		}
		nSlots, hdr2, err := codec.DecodeLen(b[total:])
		if err != nil {
			return nil, 0, err
		}
		total += hdr2
		if nSlots > 3 {
			return nil, 0, codec.ErrLengthOverflow
		}
		slots := make([]TimeSlot, nSlots)
		for j := 0; j < nSlots; j++ {
			slot, m, err := codec.DecodeU32(b[total:])
			if err != nil {
				return nil, 0, err
			}
			slots[j] = TimeSlot(slot)
			total += m
		}
		s.PreimageLookups[key] = slots
		prevLookup = &key
	}

	return s, total, nil
}

// Services is δ: the map from ServiceId to ServiceAccount.
type Services map[ServiceId]*ServiceAccount

// Clone deep-copies every account in the map.
func (svcs Services) Clone() Services {
	out := make(Services, len(svcs))
	for id, acc := range svcs {
		out[id] = acc.Clone()
	}
	return out
}

func (svcs Services) Encode() []byte {
	ids := make([]ServiceId, 0, len(svcs))
	for id := range svcs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	elems := make([][]byte, len(ids))
	for i, id := range ids {
		e := codec.EncodeU32(uint32(id))
		e = append(e, svcs[id].Encode()...)
		elems[i] = e
	}
	return codec.EncodeSequence(elems)
}

func DecodeServices(b []byte) (Services, int, error) {
	n, hdr, err := codec.DecodeLen(b)
	if err != nil {
		return nil, 0, err
	}
	out := make(Services, n)
	total := hdr
	var prev *ServiceId
	for i := 0; i < n; i++ {
		idRaw, m, err := codec.DecodeU32(b[total:])
		if err != nil {
			return nil, 0, err
		}
		id := ServiceId(idRaw)
		total += m
		if prev != nil && id <= *prev {
			return nil, 0, codec.ErrNonCanonicalOrder
		}
		acc, m, err := DecodeServiceAccount(b[total:])
		if err != nil {
			return nil, 0, err
		}
		total += m
		out[id] = acc
		prev = &id
	}
	return out, total, nil
}
