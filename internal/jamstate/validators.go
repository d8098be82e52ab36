package jamstate

import "github.com/colmnet/jamcore/internal/codec"

// ValidatorData is one entry of a validator set (ι, κ, λ): the four public
// keys a validator is known by plus its opaque metadata blob.
type ValidatorData struct {
	Bandersnatch BandersnatchPublic
	Ed25519      Ed25519Public
	Bls          BlsPublic
	Metadata     ValidatorMetadata
}

func (v ValidatorData) Encode() []byte {
	out := make([]byte, 0, 32+32+144+128)
	out = append(out, v.Bandersnatch[:]...)
	out = append(out, v.Ed25519[:]...)
	out = append(out, v.Bls[:]...)
	out = append(out, v.Metadata[:]...)
	return out
}

func DecodeValidatorData(b []byte) (ValidatorData, int, error) {
	var v ValidatorData
	total := 0
	bs, n, err := codec.DecodeFixedBytes(b[total:], 32)
	if err != nil {
		return v, 0, err
	}
	copy(v.Bandersnatch[:], bs)
	total += n

	ed, n, err := codec.DecodeFixedBytes(b[total:], 32)
	if err != nil {
		return v, 0, err
	}
	copy(v.Ed25519[:], ed)
	total += n

	bl, n, err := codec.DecodeFixedBytes(b[total:], 144)
	if err != nil {
		return v, 0, err
	}
	copy(v.Bls[:], bl)
	total += n

	md, n, err := codec.DecodeFixedBytes(b[total:], 128)
	if err != nil {
		return v, 0, err
	}
	copy(v.Metadata[:], md)
	total += n

	return v, total, nil
}

// ValidatorSet is an ordered sequence of ValidatorData, length equal to
// params.Params.ValidatorsCount. ι/κ/λ and safrole's pending next-epoch keys
// are all this shape.
type ValidatorSet []ValidatorData

func (s ValidatorSet) Encode() []byte {
	elems := make([][]byte, len(s))
	for i, v := range s {
		elems[i] = v.Encode()
	}
	return codec.EncodeSequence(elems)
}

func DecodeValidatorSet(b []byte) (ValidatorSet, int, error) {
	n, hdr, err := codec.DecodeLen(b)
	if err != nil {
		return nil, 0, err
	}
	out := make(ValidatorSet, n)
	total := hdr
	for i := 0; i < n; i++ {
		v, m, err := DecodeValidatorData(b[total:])
		if err != nil {
			return nil, 0, err
		}
		out[i] = v
		total += m
	}
	return out, total, nil
}

// Clone returns a structurally independent copy, required by the
// checkpoint/rollback invariant wherever a
// validator set is reachable from the accumulation context.
func (s ValidatorSet) Clone() ValidatorSet {
	out := make(ValidatorSet, len(s))
	copy(out, s)
	return out
}
