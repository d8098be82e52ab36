package codec

// EncodeFixedBytes encodes a fixed-size byte array as a raw concatenation
// with no length prefix.
func EncodeFixedBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// DecodeFixedBytes reads exactly n bytes with no length prefix.
func DecodeFixedBytes(b []byte, n int) ([]byte, int, error) {
	if len(b) < n {
		return nil, 0, ErrShortRead
	}
	out := make([]byte, n)
	copy(out, b[:n])
	return out, n, nil
}

// EncodeVarBytes encodes a variable-length byte sequence as a varint length
// prefix followed by the raw bytes (the sequence-encoding rule specialized
// to T = byte).
func EncodeVarBytes(b []byte) []byte {
	out := EncodeLen(len(b))
	return append(out, b...)
}

// DecodeVarBytes is the inverse of EncodeVarBytes.
func DecodeVarBytes(b []byte) ([]byte, int, error) {
	n, hdr, err := DecodeLen(b)
	if err != nil {
		return nil, 0, err
	}
	rest := b[hdr:]
	if len(rest) < n {
		return nil, 0, ErrShortRead
	}
	out := make([]byte, n)
	copy(out, rest[:n])
	return out, hdr + n, nil
}

// EncodeSequence encodes a [T] sequence: a varint length followed by the
// concatenation of each element's already-encoded bytes.
func EncodeSequence(elems [][]byte) []byte {
	out := EncodeLen(len(elems))
	for _, e := range elems {
		out = append(out, e...)
	}
	return out
}

// DecodeSequence reads a varint length n followed by n elements, each
// decoded by decodeElem. It returns the element count n and the total bytes
// consumed.
func DecodeSequence(b []byte, decodeElem func([]byte) (int, error)) (int, int, error) {
	n, hdr, err := DecodeLen(b)
	if err != nil {
		return 0, 0, err
	}
	off := hdr
	for i := 0; i < n; i++ {
		consumed, err := decodeElem(b[off:])
		if err != nil {
			return 0, 0, err
		}
		if consumed == 0 {
			return 0, 0, ErrShortRead
		}
		off += consumed
	}
	return n, off, nil
}

// EncodeOption encodes an optional value: a single 0/1 tag byte, followed by
// the payload when present.
func EncodeOption(present bool, payload []byte) []byte {
	if !present {
		return []byte{0}
	}
	out := make([]byte, 0, 1+len(payload))
	out = append(out, 1)
	return append(out, payload...)
}

// DecodeOptionTag reads the leading 0/1 tag byte of an Option and returns
// whether the payload is present along with the number of header bytes
// consumed (always 1).
func DecodeOptionTag(b []byte) (present bool, consumed int, err error) {
	if len(b) < 1 {
		return false, 0, ErrShortRead
	}
	switch b[0] {
	case 0:
		return false, 1, nil
	case 1:
		return true, 1, nil
	default:
		return false, 0, ErrBadOptionalTag
	}
}
