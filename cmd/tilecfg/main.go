// Package main provides the entry point for the tilecfg CLI.
package main

import (
	"os"

	"github.com/randalmurphal/tilecfg/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
