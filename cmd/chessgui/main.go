package main

import (
	"os"

	"github.com/dulchik/chess-ai-gui/cmd/chessgui/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
