package codec

import "testing"

func TestUintRoundTrip(t *testing.T) {
	cases := []uint64{
		0, 1, 63, 127, 128, 255, 256, 16383, 16384,
		1 << 20, 1<<28 - 1, 1 << 28, 1 << 35, 1 << 48,
		1<<56 - 1, 1 << 56, 1<<63 - 1, 1<<64 - 1,
	}
	for _, v := range cases {
		enc := EncodeUint(v)
		got, n, err := DecodeUint(enc)
		if err != nil {
			t.Fatalf("decode(%d) = %v", v, err)
		}
		if n != len(enc) {
			t.Fatalf("decode(%d) consumed %d, want %d", v, n, len(enc))
		}
		if got != v {
			t.Fatalf("round trip %d -> %x -> %d", v, enc, got)
		}
	}
}

func TestUintCanonicalLength(t *testing.T) {
	// Each length class should only ever be chosen when necessary.
	if l := len(EncodeUint(0)); l != 1 {
		t.Fatalf("encode(0) length = %d, want 1", l)
	}
	if l := len(EncodeUint(127)); l != 1 {
		t.Fatalf("encode(127) length = %d, want 1", l)
	}
	if l := len(EncodeUint(128)); l != 2 {
		t.Fatalf("encode(128) length = %d, want 2", l)
	}
	if l := len(EncodeUint(1 << 56)); l != 9 {
		t.Fatalf("encode(2^56) length = %d, want 9", l)
	}
}

func TestUintRejectsNonCanonical(t *testing.T) {
	// A value of 0 re-encoded with an extra data byte (l=1 instead of l=0)
	// is not what EncodeUint would ever produce and must be rejected.
	nonCanonical := []byte{0x80, 0x00} // l=1 prefix, data byte 0 -> value 0
	if _, _, err := DecodeUint(nonCanonical); err != ErrNonCanonicalOrder {
		t.Fatalf("expected ErrNonCanonicalOrder, got %v", err)
	}
}

func TestVarBytesRoundTrip(t *testing.T) {
	in := []byte("the quick brown fox jumps over the lazy dog")
	enc := EncodeVarBytes(in)
	out, n, err := DecodeVarBytes(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d want %d", n, len(enc))
	}
	if string(out) != string(in) {
		t.Fatalf("round trip mismatch: %q != %q", out, in)
	}
}

func TestOptionRoundTrip(t *testing.T) {
	absent := EncodeOption(false, nil)
	present, n, err := DecodeOptionTag(absent)
	if err != nil || present || n != 1 {
		t.Fatalf("absent decode = %v %v %v", present, n, err)
	}
	withPayload := EncodeOption(true, []byte{0xAB})
	present, n, err = DecodeOptionTag(withPayload)
	if err != nil || !present || n != 1 {
		t.Fatalf("present decode = %v %v %v", present, n, err)
	}
	if withPayload[1] != 0xAB {
		t.Fatalf("payload corrupted")
	}
}

func TestOptionBadTag(t *testing.T) {
	if _, _, err := DecodeOptionTag([]byte{2}); err != ErrBadOptionalTag {
		t.Fatalf("expected ErrBadOptionalTag, got %v", err)
	}
}

func TestByteKeyMapRoundTripAndOrdering(t *testing.T) {
	entries := map[string][]byte{
		"zzz": {1},
		"aaa": {2},
		"mmm": {3},
	}
	enc := EncodeByteKeyMap(entries)
	out, n, err := DecodeByteKeyMap(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d want %d", n, len(enc))
	}
	for k, v := range entries {
		if string(out[k]) != string(v) {
			t.Fatalf("key %q mismatch", k)
		}
	}
}

func TestByteKeyMapRejectsNonCanonicalOrder(t *testing.T) {
	// Hand-build an encoding with keys out of order.
	pairs := [][]byte{}
	for _, k := range []string{"zzz", "aaa"} {
		p := EncodeVarBytes([]byte(k))
		p = append(p, EncodeVarBytes([]byte{0})...)
		pairs = append(pairs, p)
	}
	bad := EncodeSequence(pairs)
	if _, _, err := DecodeByteKeyMap(bad); err != ErrNonCanonicalOrder {
		t.Fatalf("expected ErrNonCanonicalOrder, got %v", err)
	}
}

