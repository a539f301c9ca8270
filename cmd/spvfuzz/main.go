// Command spvfuzz applies, records and replays SPIR-V transformation sequences.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/spvfuzz/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
