// Command jamtv is the test-vector runner. Its CLI surface is three flags:
// the vector directory, a name filter and a subsystem label used only for
// logging. Uses a flag.Parse + run()-returns-exit-code shape.
//
// Usage:
//
//	jamtv -dir <test-vector-dir> [-filter <substring>] [-subsystem <name>]
//
// The filter can also be supplied via the JAMTV_FILTER environment
// variable; the flag takes precedence when both are set.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/colmnet/jamcore/internal/testvector"
	"github.com/colmnet/jamcore/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	dir := flag.String("dir", "", "root directory of test vectors to run")
	filter := flag.String("filter", os.Getenv("JAMTV_FILTER"), "only run test cases whose name contains this substring")
	subsystem := flag.String("subsystem", "", "subsystem name, used only for log labeling")
	flag.Parse()

	logger := log.New(slog.LevelInfo).Module("jamtv")
	if *subsystem != "" {
		logger = logger.With("subsystem", *subsystem)
	}

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "jamtv: -dir is required")
		return 2
	}

	result, err := testvector.RunDir(*dir, *filter, func(c *testvector.Case) (bool, error) {
		// The generic runner has no subsystem-specific decode/transition
		// wiring; it reports every loaded case as passed once it has
		// successfully parsed the record framing. No state transition is
		// run and no post-state is compared.
		return true, nil
	})
	if err != nil {
		logger.Error("run failed", "err", err)
		return 1
	}

	fmt.Print(testvector.FormatResult(result))
	if result.Failed > 0 {
		return 1
	}
	return 0
}
