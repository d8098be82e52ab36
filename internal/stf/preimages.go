package stf

import (
	"bytes"

	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
)

// PreimageEntry is one item of a block's preimages extrinsic: the
// requesting service and the preimage blob.
type PreimageEntry struct {
	Requester jamstate.ServiceId
	Blob      []byte
}

// PreimagesInput bundles a block's preimages extrinsic. Entries must be
// sorted strictly ascending by (requester, blob).
type PreimagesInput struct {
	Entries []PreimageEntry
}

// PreimagesTransition admits preimage extrinsics into the target service's
// preimages and preimage_lookups.
func PreimagesTransition(pre *jamstate.JamState, in PreimagesInput, p params.Params, blake2b256 func([]byte) [32]byte) (*jamstate.JamState, error) {
	post := pre.Clone()

	var lastReq *jamstate.ServiceId
	var lastBlob []byte
	for _, e := range in.Entries {
		if lastReq != nil {
			if e.Requester < *lastReq || (e.Requester == *lastReq && bytes.Compare(e.Blob, lastBlob) <= 0) {
				return pre, ErrPreimagesNotSortedUnique
			}
		}
		lastReq = &e.Requester
		lastBlob = e.Blob

		acc, ok := post.Services[e.Requester]
		if !ok {
			return pre, ErrPreimageUnneeded
		}
		hash := jamstate.OpaqueHash(blake2b256(e.Blob))
		key := jamstate.PreimageLookupKey{Hash: hash, Length: uint32(len(e.Blob))}
		slots, wanted := acc.PreimageLookups[key]
		if !wanted || len(slots) != 0 {
			return pre, ErrPreimageUnneeded
		}
		acc.Preimages[hash] = append([]byte(nil), e.Blob...)
		acc.PreimageLookups[key] = []jamstate.TimeSlot{post.Slot}
	}

	return post, nil
}
