package main

import (
	"os"

	"github.com/wonny/varcalc/cmd/varcalc/commands"
)

// main is the entry point for the varcalc CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/varcalc [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
