// Package trie implements the state-dictionary keying scheme:
// construction and deconstruction of the fixed 32-byte trie keys each
// logical state component and service sub-entry is addressed by, plus the
// diff and canonical-printing tooling used only by tests.
package trie

import (
	"encoding/binary"
	"errors"

	"github.com/colmnet/jamcore/internal/jamstate"
	"golang.org/x/crypto/blake2b"
)

// ErrBadComponentTag is returned when a component tag is outside 1..15.
var ErrBadComponentTag = errors.New("trie: component tag out of range")

// ServiceBaseTag is the key tag for a service's base entry.
const ServiceBaseTag = 255

// StorageMagic and PreimageMagic are the two 4-byte service-entry magics.
// StorageKey interleaves StorageMagic with the service id; PreimageKey does
// not use PreimageMagic.
const (
	StorageMagic  uint32 = 0xFFFFFFFF
	PreimageMagic uint32 = 0xFFFFFFFE
)

// Key is a 32-byte state-dictionary trie key.
type Key [32]byte

// ComponentKey builds the key for a top-level state component tagged
// i in 1..15 (α..ξ except δ): k[0]=i, the rest zero.
func ComponentKey(i uint8) (Key, error) {
	if i < 1 || i > 15 {
		return Key{}, ErrBadComponentTag
	}
	var k Key
	k[0] = i
	return k, nil
}

// ServiceBaseKey builds the key for a service's base entry: k[0]=255, and
// s's 4 little-endian bytes placed at indices 1,3,5,7.
func ServiceBaseKey(s jamstate.ServiceId) Key {
	var k Key
	k[0] = ServiceBaseTag
	interleaveServiceBytes(&k, uint32(s))
	return k
}

// interleaveServiceBytes places the 4 little-endian bytes of a service id
// at indices 1,3,5,7 of k, leaving indices 2,4,6 for the caller to fill
// with magic/source bytes.
func interleaveServiceBytes(k *Key, s uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], s)
	k[1] = buf[0]
	k[3] = buf[1]
	k[5] = buf[2]
	k[7] = buf[3]
}

func extractServiceBytes(k Key) uint32 {
	var buf [4]byte
	buf[0] = k[1]
	buf[1] = k[3]
	buf[2] = k[5]
	buf[3] = k[7]
	return binary.LittleEndian.Uint32(buf[:])
}

// interleaveSourceBytes places 4 source bytes (taken from a magic value or
// a hash) at indices 0,2,4,6 of k.
func interleaveSourceBytes(k *Key, src [4]byte) {
	k[0] = src[0]
	k[2] = src[1]
	k[4] = src[2]
	k[6] = src[3]
}

func extractSourceBytes(k Key) [4]byte {
	return [4]byte{k[0], k[2], k[4], k[6]}
}

// StorageKey builds the key for a service's storage entry (s, key32):
// service bytes and the first 4 bytes of magic=0xFFFFFFFF interleaved into
// k[0..8]; k[8..32] = key32[4..28].
func StorageKey(s jamstate.ServiceId, key32 [32]byte) Key {
	var k Key
	var magicBytes [4]byte
	binary.LittleEndian.PutUint32(magicBytes[:], StorageMagic)
	interleaveSourceBytes(&k, magicBytes)
	interleaveServiceBytes(&k, uint32(s))
	copy(k[8:], key32[4:28])
	return k
}

// DeconstructStorageKey is the inverse of StorageKey: it recovers the
// service id and the retained 24-byte slice of the original key, plus the
// [start,end) bounds of that slice within the original 32-byte key.
func DeconstructStorageKey(k Key) (s jamstate.ServiceId, retained []byte, start, end int) {
	s = jamstate.ServiceId(extractServiceBytes(k))
	retained = append([]byte(nil), k[8:32]...)
	return s, retained, 4, 28
}

// PreimageKey builds the key for a service's preimage entry (s, hash32):
// hash32[1..5] fill the source-byte positions 0,2,4,6 (where StorageKey
// puts its magic), the service bytes are interleaved at 1,3,5,7, and
// k[8..32] = hash32[5..29]. No magic is included in the key.
func PreimageKey(s jamstate.ServiceId, hash32 [32]byte) Key {
	var k Key
	var src [4]byte
	copy(src[:], hash32[1:5])
	interleaveSourceBytes(&k, src)
	interleaveServiceBytes(&k, uint32(s))
	copy(k[8:], hash32[5:29])
	return k
}

// DeconstructPreimageKey recovers the service id and the retained 28-byte
// slice of the original hash (indices [1,29)).
func DeconstructPreimageKey(k Key) (s jamstate.ServiceId, retained []byte, start, end int) {
	s = jamstate.ServiceId(extractServiceBytes(k))
	src := extractSourceBytes(k)
	retained = make([]byte, 0, 28)
	retained = append(retained, src[:]...)
	retained = append(retained, k[8:32]...)
	return s, retained, 1, 29
}

// LookupStatusKey builds the key for a preimage's lookup-status entry
// (s, {hash, length}): h' = Blake2b256(hash32); first 4 bytes = length LE;
// remaining 24 bytes = h'[2..26]; then interleaved with s as above. Only
// 24 bytes fit in k[8:32], so h' is retained over [2,26), not [2,30).
func LookupStatusKey(s jamstate.ServiceId, hash32 [32]byte, length uint32) Key {
	hp := blake2b.Sum256(hash32[:])
	var k Key
	var lengthBytes [4]byte
	binary.LittleEndian.PutUint32(lengthBytes[:], length)
	interleaveSourceBytes(&k, lengthBytes)
	interleaveServiceBytes(&k, uint32(s))
	copy(k[8:], hp[2:26])
	return k
}

// DeconstructLookupStatusKey recovers the service id, the length, and the
// retained 24-byte slice of the hashed key h' (indices [2,26) of h').
func DeconstructLookupStatusKey(k Key) (s jamstate.ServiceId, length uint32, retained []byte, start, end int) {
	s = jamstate.ServiceId(extractServiceBytes(k))
	src := extractSourceBytes(k)
	length = binary.LittleEndian.Uint32(src[:])
	retained = append([]byte(nil), k[8:32]...)
	return s, length, retained, 2, 26
}
