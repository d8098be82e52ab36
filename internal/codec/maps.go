// maps.go implements ordered-map encoding: maps are encoded as
// sorted sequences of (key, value) pairs in ascending order; decoders must
// reject non-canonical orderings.
package codec

import "bytes"

// EncodeByteKeyMap encodes a map whose keys are byte slices, sorted into
// ascending lexicographic order before encoding.
func EncodeByteKeyMap(entries map[string][]byte) []byte {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sortStrings(keys)
	pairs := make([][]byte, 0, len(keys))
	for _, k := range keys {
		pair := EncodeVarBytes([]byte(k))
		pair = append(pair, EncodeVarBytes(entries[k])...)
		pairs = append(pairs, pair)
	}
	return EncodeSequence(pairs)
}

// DecodeByteKeyMap decodes a map encoded by EncodeByteKeyMap, rejecting
// input whose keys are not in strictly ascending order.
func DecodeByteKeyMap(b []byte) (map[string][]byte, int, error) {
	n, hdr, err := DecodeLen(b)
	if err != nil {
		return nil, 0, err
	}
	out := make(map[string][]byte, n)
	off := hdr
	var prevKey []byte
	for i := 0; i < n; i++ {
		key, kn, err := DecodeVarBytes(b[off:])
		if err != nil {
			return nil, 0, err
		}
		off += kn
		val, vn, err := DecodeVarBytes(b[off:])
		if err != nil {
			return nil, 0, err
		}
		off += vn
		if prevKey != nil && bytes.Compare(key, prevKey) <= 0 {
			return nil, 0, ErrNonCanonicalOrder
		}
		prevKey = key
		out[string(key)] = val
	}
	return out, off, nil
}

// EncodeUintKeyMap encodes a map whose keys are uint64, sorted into
// ascending numeric order before encoding.
func EncodeUintKeyMap(entries map[uint64][]byte) []byte {
	keys := make([]uint64, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sortUint64s(keys)
	pairs := make([][]byte, 0, len(keys))
	for _, k := range keys {
		pair := EncodeUint(k)
		pair = append(pair, EncodeVarBytes(entries[k])...)
		pairs = append(pairs, pair)
	}
	return EncodeSequence(pairs)
}

// DecodeUintKeyMap decodes a map encoded by EncodeUintKeyMap, rejecting
// input whose keys are not in strictly ascending order.
func DecodeUintKeyMap(b []byte) (map[uint64][]byte, int, error) {
	n, hdr, err := DecodeLen(b)
	if err != nil {
		return nil, 0, err
	}
	out := make(map[uint64][]byte, n)
	off := hdr
	first := true
	var prevKey uint64
	for i := 0; i < n; i++ {
		key, kn, err := DecodeUint(b[off:])
		if err != nil {
			return nil, 0, err
		}
		off += kn
		val, vn, err := DecodeVarBytes(b[off:])
		if err != nil {
			return nil, 0, err
		}
		off += vn
		if !first && key <= prevKey {
			return nil, 0, ErrNonCanonicalOrder
		}
		first = false
		prevKey = key
		out[key] = val
	}
	return out, off, nil
}

func sortStrings(s []string) {
	// insertion sort is adequate here: maps feeding this encoder are small
	// (state-dictionary-scale, not hot-path), and it avoids pulling in
	// sort.Slice's reflection-based comparator for a simple string sort.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func sortUint64s(s []uint64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
