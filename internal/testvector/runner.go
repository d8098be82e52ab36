package testvector

import (
	"fmt"
	"strings"
)

// Outcome is the result of running one loaded Case through a subsystem
// handler.
type Outcome struct {
	Name   string
	Passed bool
	Err    error
}

// Handler runs one test case and reports whether the subsystem's actual
// post-state matched the vector's expected post-state.
type Handler func(c *Case) (passed bool, err error)

// BatchResult aggregates outcomes across every vector file in a directory,
// mirroring pkg/core/eftest's BatchResult shape.
type BatchResult struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Failures []Outcome
}

// RunDir discovers every test vector under dir, loads each, and runs it
// through handler. filter, when non-empty, is matched as a substring against
// the case name (derived from the file's base name); non-matching cases are
// recorded as Skipped rather than silently dropped.
func RunDir(dir string, filter string, handler Handler) (*BatchResult, error) {
	files, err := DiscoverVectors(dir)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for _, path := range files {
		c, err := LoadFile(path)
		if err != nil {
			result.Total++
			result.Failed++
			result.Failures = append(result.Failures, Outcome{Name: path, Err: err})
			continue
		}
		if filter != "" && !strings.Contains(c.Name, filter) {
			result.Total++
			result.Skipped++
			continue
		}

		passed, err := handler(c)
		result.Total++
		switch {
		case err != nil:
			result.Failed++
			result.Failures = append(result.Failures, Outcome{Name: c.Name, Err: err})
		case !passed:
			result.Failed++
			result.Failures = append(result.Failures, Outcome{Name: c.Name, Passed: false})
		default:
			result.Passed++
		}
	}
	return result, nil
}

// FormatResult renders a BatchResult the way a CLI test runner would print
// it, grounded on pkg/core/eftest's FormatResults.
func FormatResult(r *BatchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "test vectors: %d total, %d passed, %d failed, %d skipped\n",
		r.Total, r.Passed, r.Failed, r.Skipped)
	if len(r.Failures) > 0 {
		sb.WriteString("\nfailures:\n")
		for i, f := range r.Failures {
			if i >= 20 {
				fmt.Fprintf(&sb, "  ... and %d more\n", len(r.Failures)-20)
				break
			}
			fmt.Fprintf(&sb, "  %s: %v\n", f.Name, f.Err)
		}
	}
	return sb.String()
}
