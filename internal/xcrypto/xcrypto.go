// Package xcrypto wires the cryptographic primitives treated as pure
// external collaborators: Blake2b-256, Ed25519 verification, Bandersnatch
// (ring) VRF verification, and BLS verification. The core STFs never
// compute cryptography themselves -- they call through a Provider value.
package xcrypto

// Provider bundles the external cryptographic collaborators. Every field is
// a pure function: same inputs always produce the same output, and none of
// them mutate state.
type Provider struct {
	Blake2b256 func(data []byte) [32]byte

	Ed25519Verify func(pub [32]byte, msg, sig []byte) bool

	BlsVerify func(pub [144]byte, msg, sig []byte) bool

	// BandersnatchVrfVerify and BandersnatchRingVrfVerify have no
	// implementation anywhere in the retrieval pack (no Bandersnatch or
	// ring-VRF library appears in any example's go.mod). They are left nil
	// by Default(); a caller that needs to run Safrole/Disputes against
	// live signatures must supply a real implementation. This is a
	// clearly-marked seam rather than a fabricated implementation.
	BandersnatchVrfVerify     func(pub [32]byte, input, aux, output []byte, sig [96]byte) bool
	BandersnatchRingVrfVerify func(ringRoot [32]byte, input, aux, output []byte, sig [784]byte) bool
}

// Default returns a Provider with every primitive that has a real,
// pack-grounded implementation wired in (Blake2b-256, Ed25519, BLS). The
// Bandersnatch fields are left nil; see the Provider doc comment.
func Default() *Provider {
	return &Provider{
		Blake2b256:    Blake2b256,
		Ed25519Verify: Ed25519Verify,
		BlsVerify:     BlsVerify,
	}
}
