// Package assets fetches the piece images the window draws.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dulchik/chess-ai-gui/internal/render"
)

// Result is the outcome for one image.
type Result struct {
	Name string
	Path string
	Err  error
}

// Fetcher downloads piece images from BaseURL into Dir.
type Fetcher struct {
	BaseURL     string
	Dir         string
	HTTP        *http.Client // optional; defaults to http.DefaultClient
	Concurrency int          // defaults to 4
	Log         zerolog.Logger
}

// Fetch downloads every piece image. A failed image does not stop the
// others; check each Result. The error is only for setup failures.
func (f *Fetcher) Fetch(ctx context.Context) ([]Result, error) {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return nil, err
	}
	client := f.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	limit := f.Concurrency
	if limit <= 0 {
		limit = 4
	}

	results := make([]Result, len(render.PieceNames))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, name := range render.PieceNames {
		g.Go(func() error {
			path := filepath.Join(f.Dir, name+".png")
			err := f.fetchOne(ctx, client, name, path)
			results[i] = Result{Name: name, Path: path, Err: err}
			if err != nil {
				f.Log.Warn().Err(err).Str("piece", name).Msg("download failed")
			} else {
				f.Log.Debug().Str("piece", name).Str("path", path).Msg("downloaded")
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, client *http.Client, name, path string) error {
	url := strings.TrimRight(f.BaseURL, "/") + "/" + name + ".png"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(f.Dir, name+"-*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("read %s: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Failed counts results with an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
