package testvector

import (
	"os"
	"testing"

	"github.com/colmnet/jamcore/internal/codec"
)

func buildBinaryCase(input, pre, output, post []byte, hasOutput bool) []byte {
	var out []byte
	out = append(out, codec.EncodeVarBytes(input)...)
	out = append(out, codec.EncodeVarBytes(pre)...)
	out = append(out, codec.EncodeOption(hasOutput, nil)...)
	if hasOutput {
		out = append(out, codec.EncodeVarBytes(output)...)
	}
	out = append(out, codec.EncodeVarBytes(post)...)
	return out
}

func TestLoadBinaryWithOutput(t *testing.T) {
	blob := buildBinaryCase([]byte("in"), []byte("pre"), []byte("out"), []byte("post"), true)
	c, err := LoadBinary("case1", blob)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	if string(c.Input) != "in" || string(c.PreState) != "pre" || string(c.PostState) != "post" {
		t.Fatalf("unexpected records: %+v", c)
	}
	if !c.HasOutput || string(c.Output) != "out" {
		t.Fatalf("expected output record, got %+v", c)
	}
}

func TestLoadBinaryWithoutOutput(t *testing.T) {
	blob := buildBinaryCase([]byte("in"), []byte("pre"), nil, []byte("post"), false)
	c, err := LoadBinary("case2", blob)
	if err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	if c.HasOutput {
		t.Fatal("expected no output record")
	}
}

func TestLoadBinaryRejectsTrailingBytes(t *testing.T) {
	blob := buildBinaryCase([]byte("in"), []byte("pre"), nil, []byte("post"), false)
	blob = append(blob, 0xFF)
	if _, err := LoadBinary("case3", blob); err == nil {
		t.Fatal("expected trailing-bytes error")
	}
}

func TestLoadJSONRoundTrip(t *testing.T) {
	doc := []byte(`{"input":"0x0a0b","pre_state":"0x01","post_state":"0x02"}`)
	c, err := LoadJSON("case4", doc)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if len(c.Input) != 2 || c.Input[0] != 0x0a || c.Input[1] != 0x0b {
		t.Fatalf("unexpected input bytes: %x", c.Input)
	}
	if c.HasOutput {
		t.Fatal("expected no output field")
	}
}

func TestRunDirFiltersByName(t *testing.T) {
	dir := t.TempDir()
	blob := buildBinaryCase([]byte("in"), []byte("pre"), nil, []byte("post"), false)
	writeFile(t, dir+"/alpha.bin", blob)
	writeFile(t, dir+"/beta.bin", blob)

	result, err := RunDir(dir, "alpha", func(c *Case) (bool, error) { return true, nil })
	if err != nil {
		t.Fatalf("RunDir: %v", err)
	}
	if result.Passed != 1 || result.Skipped != 1 {
		t.Fatalf("expected 1 passed, 1 skipped, got %+v", result)
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
