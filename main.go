// The main package for the linksweep executable.
package main

import (
	"fmt"
	"os"

	"github.com/websieve/linksweep/cmd"
)

// main is the entry point of the application. It defers all execution to
// the Cobra CLI library; a non-nil error here is an option or argument
// problem or a fatal check error (such as a missing seed path), since
// per-link failures never escape Check.
func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
