package xcrypto

import "crypto/ed25519"

// Ed25519Verify checks an Ed25519 signature over msg. No third-party
// Ed25519 library appears anywhere in the retrieval pack's go.mod files, so
// this is wired to the standard library, the same way stdlib crypto
// primitives get used elsewhere when no curve-level control is needed.
func Ed25519Verify(pub [32]byte, msg, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}
