// Command scionic is a CLI over the dag package: it builds, verifies,
// diffs, and materializes Scionic Merkle DAGs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
