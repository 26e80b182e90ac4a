package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dulchik/chess-ai-gui/internal/render"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func renderCmd() *cobra.Command {
	var (
		fen  string
		out  string
		size int
		flip bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write a PNG of a position",
		RunE: func(cmd *cobra.Command, args []string) error {
			pieces, err := render.LoadPieces(cfg.ImagesDir)
			if err != nil {
				log.Warn().Err(err).Msg("some piece images missing")
			}
			opts := render.Options{SquareSize: size, Flipped: flip, Pieces: pieces}
			if err := render.SaveFEN(out, fen, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&fen, "fen", startFEN, "position to draw")
	cmd.Flags().StringVarP(&out, "out", "o", "board.png", "output file")
	cmd.Flags().IntVar(&size, "size", 80, "square size in pixels")
	cmd.Flags().BoolVar(&flip, "flip", false, "draw from Black's side")
	return cmd
}
