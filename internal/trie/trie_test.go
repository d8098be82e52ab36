package trie

import (
	"bytes"
	"testing"

	"github.com/colmnet/jamcore/internal/jamstate"
	"golang.org/x/crypto/blake2b"
)

func TestComponentKeyRejectsOutOfRange(t *testing.T) {
	if _, err := ComponentKey(0); err == nil {
		t.Fatal("expected error for tag 0")
	}
	if _, err := ComponentKey(16); err == nil {
		t.Fatal("expected error for tag 16")
	}
	k, err := ComponentKey(3)
	if err != nil {
		t.Fatalf("ComponentKey(3): %v", err)
	}
	if k[0] != 3 {
		t.Fatalf("expected k[0]=3, got %d", k[0])
	}
}

func TestServiceBaseKeyRoundTrip(t *testing.T) {
	k := ServiceBaseKey(jamstate.ServiceId(0xDEADBEEF))
	if k[0] != ServiceBaseTag {
		t.Fatalf("expected tag 255, got %d", k[0])
	}
	if got := extractServiceBytes(k); got != 0xDEADBEEF {
		t.Fatalf("round-trip mismatch: got %x", got)
	}
}

func TestStorageKeyDeconstruct(t *testing.T) {
	var key32 [32]byte
	for i := range key32 {
		key32[i] = byte(i)
	}
	k := StorageKey(42, key32)
	s, retained, start, end := DeconstructStorageKey(k)
	if s != 42 {
		t.Fatalf("expected service 42, got %d", s)
	}
	if !bytes.Equal(retained, key32[start:end]) {
		t.Fatalf("retained slice mismatch: got %x, want %x", retained, key32[start:end])
	}
}

func TestPreimageKeyDeconstruct(t *testing.T) {
	var hash32 [32]byte
	for i := range hash32 {
		hash32[i] = byte(255 - i)
	}
	k := PreimageKey(7, hash32)
	s, retained, start, end := DeconstructPreimageKey(k)
	if s != 7 {
		t.Fatalf("expected service 7, got %d", s)
	}
	if !bytes.Equal(retained, hash32[start:end]) {
		t.Fatalf("retained slice mismatch: got %x, want %x", retained, hash32[start:end])
	}
}

func TestLookupStatusKeyRecoversLength(t *testing.T) {
	var hash32 [32]byte
	for i := range hash32 {
		hash32[i] = byte(i * 7)
	}
	k := LookupStatusKey(11, hash32, 4096)
	s, length, retained, start, end := DeconstructLookupStatusKey(k)
	if s != 11 {
		t.Fatalf("expected service 11, got %d", s)
	}
	if length != 4096 {
		t.Fatalf("expected length 4096, got %d", length)
	}
	if len(retained) != end-start {
		t.Fatalf("retained length %d does not match bounds [%d,%d)", len(retained), start, end)
	}
	hp := blake2b.Sum256(hash32[:])
	if !bytes.Equal(retained, hp[start:end]) {
		t.Fatalf("retained slice mismatch: got %x, want %x", retained, hp[start:end])
	}
}

func TestKeysForDistinctServicesDiffer(t *testing.T) {
	var key32 [32]byte
	if StorageKey(1, key32) == StorageKey(2, key32) {
		t.Fatal("expected distinct keys for distinct services")
	}
}

func TestMerklizationDictionaryDiff(t *testing.T) {
	a := MerklizationDictionary{
		{0x01}: []byte("one"),
		{0x02}: []byte("two"),
	}
	b := MerklizationDictionary{
		{0x02}: []byte("two-changed"),
		{0x03}: []byte("three"),
	}
	report := a.Diff(b)
	if len(report.Added) != 1 || report.Added[0] != (Key{0x01}) {
		t.Fatalf("unexpected Added: %+v", report.Added)
	}
	if len(report.Removed) != 1 || report.Removed[0] != (Key{0x03}) {
		t.Fatalf("unexpected Removed: %+v", report.Removed)
	}
	if len(report.Changed) != 1 || report.Changed[0] != (Key{0x02}) {
		t.Fatalf("unexpected Changed: %+v", report.Changed)
	}
}
