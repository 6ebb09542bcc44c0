// Command fixgraph fetches, caches and walks relations of a remote
// content-addressed object store.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/fixgraph/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
