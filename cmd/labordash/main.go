// labordash serves the labor statistics dashboard and inspects data directories.
//
// Usage:
//
//	labordash [serve] [--config=<file>]
//	labordash inspect [--dir=<path>] [--format=ascii|markdown] [--export=<file.csv>]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
