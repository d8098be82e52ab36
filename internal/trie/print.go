package trie

import (
	"fmt"
	"sort"
	"strings"
)

// Print renders the dictionary as a deterministic, key-ordered text block:
// one "hex(key) = hex(value)" line per entry. Used by the text-diff test
// harness; never parsed back, so no escaping discipline beyond
// hex is needed.
func (d MerklizationDictionary) Print() string {
	keys := make([]Key, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sortKeys(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%x = %x\n", k[:], d[k])
	}
	return b.String()
}

// PrintDiff renders a DiffReport in the same deterministic ordering as
// Print, grouped under added/removed/changed headers.
func PrintDiff(r DiffReport) string {
	var b strings.Builder
	printSection := func(title string, keys []Key) {
		if len(keys) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", title)
		ordered := append([]Key(nil), keys...)
		sort.Slice(ordered, func(i, j int) bool { return string(ordered[i][:]) < string(ordered[j][:]) })
		for _, k := range ordered {
			fmt.Fprintf(&b, "  %x\n", k[:])
		}
	}
	printSection("added", r.Added)
	printSection("removed", r.Removed)
	printSection("changed", r.Changed)
	return b.String()
}
