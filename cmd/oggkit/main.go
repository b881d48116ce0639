// Package main is the entry point for the oggkit command line tool.
package main

import (
	"os"

	"github.com/jmylchreest/oggkit/cmd/oggkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
