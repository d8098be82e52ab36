// Package jamstate is the typed representation of every component of the
// JAM ledger state: validator sets, entropy, pending and
// accumulated reports, service accounts, authorizations, disputes,
// statistics and recent history, all owned by a single JamState value.
// Encoding is built mainly on internal/codec; a few fixed-layout fields
// (such as the ticket attempt byte, the work-result tag and validator key
// bytes) are read and written directly.
package jamstate

import "github.com/colmnet/jamcore/internal/codec"

// OpaqueHash is a 32-byte opaque digest. WorkPackageHash, WorkReportHash,
// ExportsRoot, ErasureRoot, StateRoot, HeaderHash and BeefyRoot are all the
// same shape but are declared as distinct [32]byte types, not aliases.
type OpaqueHash [32]byte

type (
	WorkPackageHash [32]byte
	WorkReportHash  [32]byte
	ExportsRoot     [32]byte
	ErasureRoot     [32]byte
	StateRoot       [32]byte
	HeaderHash      [32]byte
	BeefyRoot       [32]byte
	Entropy         [32]byte
)

// TimeSlot is a monotonic slot counter (τ).
type TimeSlot uint32

// ServiceId identifies a service account (δ key).
type ServiceId uint32

// ValidatorIndex and CoreIndex index into the fixed-size validator and core
// arrays sized by params.Params.
type (
	ValidatorIndex uint16
	CoreIndex      uint16
)

// Gas is a PVM gas amount; Balance is a service account balance. Both are
// unsigned on the wire — the PVM's own gas counter during execution is
// signed and lives in internal/pvm, not here.
type (
	Gas     uint64
	Balance uint64
)

type (
	Ed25519Public       [32]byte
	BandersnatchPublic  [32]byte
	BlsPublic           [144]byte
	ValidatorMetadata   [128]byte

	BandersnatchVrfSignature     [96]byte
	BandersnatchRingVrfSignature [784]byte
	Ed25519Signature             [64]byte
)

// EntropyBuffer is the four-slot rolling entropy sequence η.
type EntropyBuffer [4]Entropy

// Roll shifts a fresh entropy value in at index 0, the protocol's "rotated
// forward each block" rule.
func (b *EntropyBuffer) Roll(fresh Entropy) {
	b[3] = b[2]
	b[2] = b[1]
	b[1] = b[0]
	b[0] = fresh
}

func encodeHash32(h [32]byte) []byte { return codec.EncodeFixedBytes(h[:]) }

func decodeHash32(b []byte) ([32]byte, int, error) {
	var out [32]byte
	raw, n, err := codec.DecodeFixedBytes(b, 32)
	if err != nil {
		return out, 0, err
	}
	copy(out[:], raw)
	return out, n, nil
}

// EncodeEntropyBuffer / DecodeEntropyBuffer serialize η as four raw 32-byte
// hashes.
func EncodeEntropyBuffer(b EntropyBuffer) []byte {
	out := make([]byte, 0, 128)
	for _, e := range b {
		out = append(out, encodeHash32([32]byte(e))...)
	}
	return out
}

func DecodeEntropyBuffer(b []byte) (EntropyBuffer, int, error) {
	var out EntropyBuffer
	total := 0
	for i := range out {
		h, n, err := decodeHash32(b[total:])
		if err != nil {
			return out, 0, err
		}
		out[i] = Entropy(h)
		total += n
	}
	return out, total, nil
}
