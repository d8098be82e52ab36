package xcrypto

import "golang.org/x/crypto/blake2b"

// Blake2b256 hashes data with Blake2b, 32-byte digest. Used throughout the
// state dictionary and by the `read`/`write` storage-key
// derivation.
func Blake2b256(data []byte) [32]byte {
	return blake2b.Sum256(data)
}
