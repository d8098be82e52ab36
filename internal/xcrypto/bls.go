package xcrypto

import (
	blst "github.com/supranational/blst/bindings/go"
)

// blsDST is the domain separation tag used for all BLS signatures verified
// by this node.
var blsDST = []byte("JAM-BLS-SIG-V1")

// BlsVerify checks a BLS signature under the min-pk scheme (G1 public key,
// G2 signature) using blst, grounded on a blst-adapter pattern
// (crypto/bls_blst_adapter.go). ValidatorData carries a 144-byte
// BlsPublic (its Bls field): the first 48 bytes are the compressed G1 point consumed here;
// the remaining 96 bytes are an out-of-band proof-of-possession the caller
// is responsible for checking separately. BlsPublic is otherwise treated as
// an opaque 144-byte value, so this split is this node's own convention,
// recorded here rather than buried in a magic-number comment elsewhere.
func BlsVerify(pub [144]byte, msg, sig []byte) bool {
	pk := new(blst.P1Affine).Deserialize(pub[:48])
	if pk == nil {
		return false
	}
	s := new(blst.P2Affine).Deserialize(sig)
	if s == nil {
		return false
	}
	return s.Verify(true, pk, true, msg, blsDST)
}
