// Package codec implements the canonical binary codec used for state-root
// merklization and wire/test-vector interchange. All encoders
// produce a single canonical byte sequence for a given value; all decoders
// reject any other representation of that value.
package codec

import "encoding/binary"

// EncodeUint encodes a non-negative integer using a variable-length
// little-endian prefix encoding.
//
// The prefix byte's bit layout (MSB first) is: l leading one-bits, then (if
// l < 8) a terminating zero bit, then the (7-l) topmost bits of the value.
// l little-endian data bytes follow, carrying the low 8*l bits of the value.
// l is the smallest value in 0..8 such that v < 2^(7*(l+1)); l == 8 is a
// fixed 0xFF prefix followed by the full 8-byte little-endian value, used
// whenever v >= 2^56.
func EncodeUint(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	l := 0
	for l < 8 && v >= uint64(1)<<uint(7*(l+1)) {
		l++
	}
	if l == 8 {
		out := make([]byte, 9)
		out[0] = 0xFF
		binary.LittleEndian.PutUint64(out[1:], v)
		return out
	}
	top := byte(v >> uint(8*l))
	var prefixMask byte
	if l > 0 {
		prefixMask = byte(0xFF << uint(8-l))
	}
	out := make([]byte, 1+l)
	out[0] = prefixMask | top
	for i := 0; i < l; i++ {
		out[1+i] = byte(v >> uint(8*i))
	}
	return out
}

// DecodeUint decodes a value encoded by EncodeUint, returning the value and
// the number of bytes consumed.
func DecodeUint(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrShortRead
	}
	p := b[0]
	if p == 0xFF {
		if len(b) < 9 {
			return 0, 0, ErrShortRead
		}
		v := binary.LittleEndian.Uint64(b[1:9])
		if v < uint64(1)<<56 {
			return 0, 0, ErrNonCanonicalOrder
		}
		return v, 9, nil
	}
	l := 0
	for l < 8 && p&(0x80>>uint(l)) != 0 {
		l++
	}
	need := 1 + l
	if len(b) < need {
		return 0, 0, ErrShortRead
	}
	var topMask byte
	if l < 8 {
		topMask = byte(0xFF >> uint(l+1))
	}
	top := uint64(p & topMask)
	var low uint64
	for i := 0; i < l; i++ {
		low |= uint64(b[1+i]) << uint(8*i)
	}
	v := low | (top << uint(8*l))
	if l > 0 && v < uint64(1)<<uint(7*l) {
		return 0, 0, ErrNonCanonicalOrder
	}
	return v, need, nil
}

// EncodeLen is an alias of EncodeUint used at call sites that encode a
// sequence length or count: lengths and counts use the same encoding as
// plain integers.
func EncodeLen(n int) []byte { return EncodeUint(uint64(n)) }

// DecodeLen is the counterpart of EncodeLen.
func DecodeLen(b []byte) (int, int, error) {
	v, n, err := DecodeUint(b)
	if err != nil {
		return 0, 0, err
	}
	if v > uint64(^uint(0)>>1) {
		return 0, 0, ErrLengthOverflow
	}
	return int(v), n, nil
}

// ---------------------------------------------------------------------------
// Fixed-width raw little-endian integers, used inside structured records.
// ---------------------------------------------------------------------------

func EncodeU8(v uint8) []byte { return []byte{v} }

func DecodeU8(b []byte) (uint8, int, error) {
	if len(b) < 1 {
		return 0, 0, ErrShortRead
	}
	return b[0], 1, nil
}

func EncodeU16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func DecodeU16(b []byte) (uint16, int, error) {
	if len(b) < 2 {
		return 0, 0, ErrShortRead
	}
	return binary.LittleEndian.Uint16(b), 2, nil
}

func EncodeU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func DecodeU32(b []byte) (uint32, int, error) {
	if len(b) < 4 {
		return 0, 0, ErrShortRead
	}
	return binary.LittleEndian.Uint32(b), 4, nil
}

func EncodeU64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func DecodeU64(b []byte) (uint64, int, error) {
	if len(b) < 8 {
		return 0, 0, ErrShortRead
	}
	return binary.LittleEndian.Uint64(b), 8, nil
}
