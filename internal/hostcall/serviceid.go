// Package hostcall implements the numbered host-call ABI invoked from
// service code during accumulation: the dispatch table, the
// seventeen call bodies, and deterministic service-id generation. Grounded
// on core/vm/contract_call.go's pattern of a typed per-call context struct
// threading caller/gas/memory through a dispatch function, generalized
// from EVM's CALL/DELEGATECALL opcode dispatch to JAM's host-call-ID
// dispatch.
package hostcall

import (
	"encoding/binary"

	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
)

// NextServiceID computes the next candidate service id after a collision,
// and GenerateServiceID below runs the full probing walk.
func NextServiceID(id uint32, p params.Params) uint32 {
	modulus := p.ServiceIDModulus()
	return uint32((uint64(id)-uint64(p.MinPublicServiceID)+1)%modulus) + p.MinPublicServiceID
}

// candidateServiceID computes the first candidate id from
// H(encode(creator) || entropy || encode(slot)).
func candidateServiceID(blake2b256 func([]byte) [32]byte, creator jamstate.ServiceId, entropy jamstate.Entropy, slot jamstate.TimeSlot, p params.Params) uint32 {
	var buf []byte
	var creatorBytes [4]byte
	binary.LittleEndian.PutUint32(creatorBytes[:], uint32(creator))
	buf = append(buf, creatorBytes[:]...)
	buf = append(buf, entropy[:]...)
	var slotBytes [4]byte
	binary.LittleEndian.PutUint32(slotBytes[:], uint32(slot))
	buf = append(buf, slotBytes[:]...)

	h := blake2b256(buf)
	first4 := binary.LittleEndian.Uint32(h[:4])
	modulus := p.ServiceIDModulus()
	return uint32(uint64(first4)%modulus) + p.MinPublicServiceID
}

// GenerateServiceID runs the full deterministic service-id allocation walk:
// compute the candidate, then probe forward with NextServiceID while the
// id is occupied.
func GenerateServiceID(blake2b256 func([]byte) [32]byte, creator jamstate.ServiceId, entropy jamstate.Entropy, slot jamstate.TimeSlot, p params.Params, occupied func(uint32) bool) jamstate.ServiceId {
	id := candidateServiceID(blake2b256, creator, entropy, slot, p)
	for occupied(id) {
		id = NextServiceID(id, p)
	}
	return jamstate.ServiceId(id)
}

// StorageKey derives a service's storage key from a user-supplied key:
// Blake2b256(encode_u32_le(service_id) || user_key).
func StorageKey(blake2b256 func([]byte) [32]byte, service jamstate.ServiceId, userKey []byte) [32]byte {
	var buf []byte
	var sidBytes [4]byte
	binary.LittleEndian.PutUint32(sidBytes[:], uint32(service))
	buf = append(buf, sidBytes[:]...)
	buf = append(buf, userKey...)
	return blake2b256(buf)
}
