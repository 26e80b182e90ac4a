package commands

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dulchik/chess-ai-gui/internal/console"
	"github.com/dulchik/chess-ai-gui/internal/session"
)

func hintCmd() *cobra.Command {
	var fen string
	cmd := &cobra.Command{
		Use:   "hint",
		Short: "Play in the terminal with engine suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			eng, err := startEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			sess, err := session.New(eng, session.Options{
				Human:     cfg.HumanColor,
				ThinkTime: cfg.ThinkTime,
				EvalTime:  cfg.ThinkTime,
				FEN:       fen,
				Log:       log,
			})
			if err != nil {
				return err
			}
			defer sess.Close()

			c := console.New(os.Stdin, cmd.OutOrStdout(), sess, console.Options{
				TopMoves: cfg.TopMoves,
				Color:    term.IsTerminal(int(os.Stdout.Fd())),
			})
			return c.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&fen, "fen", "", "start from this position")
	return cmd
}
