package commands

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dulchik/chess-ai-gui/internal/config"
	"github.com/dulchik/chess-ai-gui/internal/logging"
	"github.com/dulchik/chess-ai-gui/internal/uci"
)

var (
	cfg       = config.Default()
	colorFlag = "white"

	log       = zerolog.Nop()
	logCloser io.Closer
)

func Execute() error {
	root := &cobra.Command{
		Use:          "chessgui",
		Short:        "Play chess against a UCI engine",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.ParseColor(colorFlag)
			if err != nil {
				return err
			}
			cfg.HumanColor = c
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, logCloser, err = logging.New(cfg.LogLevel, cfg.LogFile)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
		RunE: runPlay,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&cfg.EnginePath, "engine", "e", cfg.EnginePath, "UCI engine binary (or $"+config.EngineEnv+")")
	pf.DurationVar(&cfg.ThinkTime, "think", cfg.ThinkTime, "engine time per move")
	pf.IntVar(&cfg.Elo, "elo", cfg.Elo, "engine strength limit, 0 for full strength")
	pf.StringVarP(&colorFlag, "color", "c", colorFlag, "side you play: white or black")
	pf.StringVar(&cfg.ImagesDir, "images", cfg.ImagesDir, "directory holding the piece PNGs")
	pf.StringVar(&cfg.FontPath, "font", cfg.FontPath, "TTF with chess glyphs for pieces without images")
	pf.DurationVar(&cfg.Highlight, "highlight", cfg.Highlight, "how long the last move stays lit")
	pf.IntVar(&cfg.TopMoves, "top", cfg.TopMoves, "engine suggestions shown in hint mode")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace, debug, info, warn or error")
	pf.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "append logs to this file instead of stderr")

	root.AddCommand(playCmd(), hintCmd(), assetsCmd(), renderCmd())
	return root.Execute()
}

// signalContext is cancelled on interrupt.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

// startEngine launches the configured engine and applies the strength limit.
func startEngine(ctx context.Context) (*uci.Engine, error) {
	eng, err := uci.Start(ctx, cfg.EnginePath, log)
	if err != nil {
		return nil, err
	}
	if err := eng.SetElo(cfg.Elo); err != nil {
		eng.Close()
		return nil, err
	}
	log.Info().Str("engine", eng.Name()).Str("path", cfg.EnginePath).Msg("engine ready")
	return eng, nil
}
