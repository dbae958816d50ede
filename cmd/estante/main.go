// Package main is the entry point for the estante CLI.
package main

import (
	"os"

	"github.com/skoobtools/estante/cmd/estante/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
