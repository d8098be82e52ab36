// Package testvector loads per-subsystem test-vector files: each file is a
// concatenation of codec-encoded records (input, pre_state, an optional
// output, post_state). Grounded on a fixture-loader shape
// (DiscoverFixtures/RunFixtureDir: directory walk -> typed per-file load ->
// batch result), generalized from a JSON state-test format to this node's
// binary codec records and from "filter by fork" to "filter by test-case
// name".
package testvector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/colmnet/jamcore/internal/codec"
)

// Case is one loaded test-vector file: raw, still-undecoded byte spans for
// each record. Decoding a span into a concrete subsystem input/state type is
// the caller's job; this package only knows how to split a file into records.
type Case struct {
	Name      string
	Input     []byte
	PreState  []byte
	HasOutput bool
	Output    []byte
	PostState []byte
}

// DiscoverVectors walks dir and returns paths to every .bin and .json test
// vector file, sorted for deterministic iteration.
func DiscoverVectors(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var files []string
	err = filepath.Walk(dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		if strings.HasSuffix(fi.Name(), ".bin") || strings.HasSuffix(fi.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// LoadFile loads path, dispatching to LoadBinary or LoadJSON by extension.
func LoadFile(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch {
	case strings.HasSuffix(path, ".bin"):
		return LoadBinary(name, data)
	case strings.HasSuffix(path, ".json"):
		return LoadJSON(name, data)
	default:
		return nil, fmt.Errorf("unrecognized test-vector extension: %s", path)
	}
}

// LoadBinary splits a binary test-vector blob into its four records. Each
// record other than the optional output is framed with EncodeVarBytes (a
// varint length prefix); the output record is additionally wrapped in an
// EncodeOption tag byte, matching this node's own codec conventions rather
// than inventing a bespoke framing.
func LoadBinary(name string, data []byte) (*Case, error) {
	c := &Case{Name: name}

	input, n, err := codec.DecodeVarBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: input record: %w", name, err)
	}
	c.Input = input
	off := n

	pre, n, err := codec.DecodeVarBytes(data[off:])
	if err != nil {
		return nil, fmt.Errorf("%s: pre_state record: %w", name, err)
	}
	c.PreState = pre
	off += n

	present, n, err := codec.DecodeOptionTag(data[off:])
	if err != nil {
		return nil, fmt.Errorf("%s: output option tag: %w", name, err)
	}
	off += n
	if present {
		out, n, err := codec.DecodeVarBytes(data[off:])
		if err != nil {
			return nil, fmt.Errorf("%s: output record: %w", name, err)
		}
		c.HasOutput = true
		c.Output = out
		off += n
	}

	post, n, err := codec.DecodeVarBytes(data[off:])
	if err != nil {
		return nil, fmt.Errorf("%s: post_state record: %w", name, err)
	}
	c.PostState = post
	off += n

	if off != len(data) {
		return nil, fmt.Errorf("%s: %w", name, codec.ErrTrailingBytes)
	}
	return c, nil
}

// jsonCase mirrors Case but with hex-encoded byte fields, for the .json
// sibling format test vectors are also distributed in.
type jsonCase struct {
	Input     string  `json:"input"`
	PreState  string  `json:"pre_state"`
	Output    *string `json:"output,omitempty"`
	PostState string  `json:"post_state"`
}

// LoadJSON parses the JSON sibling format: the same four records, each
// hex-encoded, rather than concatenated raw bytes.
func LoadJSON(name string, data []byte) (*Case, error) {
	var jc jsonCase
	if err := json.Unmarshal(data, &jc); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	c := &Case{Name: name}
	var err error
	if c.Input, err = decodeHex(jc.Input); err != nil {
		return nil, fmt.Errorf("%s: input: %w", name, err)
	}
	if c.PreState, err = decodeHex(jc.PreState); err != nil {
		return nil, fmt.Errorf("%s: pre_state: %w", name, err)
	}
	if jc.Output != nil {
		c.HasOutput = true
		if c.Output, err = decodeHex(*jc.Output); err != nil {
			return nil, fmt.Errorf("%s: output: %w", name, err)
		}
	}
	if c.PostState, err = decodeHex(jc.PostState); err != nil {
		return nil, fmt.Errorf("%s: post_state: %w", name, err)
	}
	return c, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	out := make([]byte, len(s)/2)
	for i := range out {
		var b byte
		_, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &b)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}
