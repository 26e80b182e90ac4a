package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dulchik/chess-ai-gui/internal/assets"
)

func assetsCmd() *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Download the piece images",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			f := &assets.Fetcher{
				BaseURL:     cfg.AssetURL,
				Dir:         cfg.ImagesDir,
				Concurrency: jobs,
				Log:         log,
			}
			results, err := f.Fetch(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(out, "%-3s failed: %v\n", r.Name, r.Err)
					continue
				}
				fmt.Fprintf(out, "%-3s saved to %s\n", r.Name, r.Path)
			}
			if n := assets.Failed(results); n > 0 {
				return fmt.Errorf("%d of %d images failed", n, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.AssetURL, "url", cfg.AssetURL, "base URL of the piece set")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "parallel downloads")
	return cmd
}
