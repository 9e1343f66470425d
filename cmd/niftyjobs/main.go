package main

import (
	"os"

	"github.com/wonny/niftyjobs/cmd/niftyjobs/commands"
)

// main is the entry point for the niftyjobs CLI
// ⭐ single CLI entry point: go run ./cmd/niftyjobs [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
