package commands

import (
	"github.com/spf13/cobra"

	"github.com/dulchik/chess-ai-gui/internal/gui"
)

func playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Open the board window",
		RunE:  runPlay,
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	eng, err := startEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	return gui.Run(cfg, eng, log)
}
