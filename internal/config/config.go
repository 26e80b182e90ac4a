// Package config holds the runtime settings shared by the GUI, the console
// hint mode and the asset tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/corentings/chess/v2"
)

// EngineEnv names the environment variable consulted for the engine binary
// when no path is given on the command line.
const EngineEnv = "CHESSGUI_ENGINE"

// Stockfish accepts UCI_Elo only inside this range.
const (
	MinElo = 1320
	MaxElo = 3190
)

// Config holds runtime options for building a session.
type Config struct {
	EnginePath string        // engine binary, e.g. ./engine/stockfish
	ThinkTime  time.Duration // movetime handed to the engine per query
	Elo        int           // UCI_Elo limit, 0 plays at full strength
	HumanColor chess.Color   // side the human plays

	ImagesDir string        // piece PNGs named wp.png, bk.png, ...
	FontPath  string        // optional TTF for piece glyphs and labels
	Highlight time.Duration // how long the last destination square stays lit
	TopMoves  int           // suggestions shown in hint mode

	AssetURL string // base URL the piece images are fetched from

	LogLevel string
	LogFile  string
}

// Default returns the settings used when no flags are given.
func Default() Config {
	path := "stockfish"
	if env := strings.TrimSpace(os.Getenv(EngineEnv)); env != "" {
		path = env
	}
	return Config{
		EnginePath: path,
		ThinkTime:  300 * time.Millisecond,
		Elo:        0,
		HumanColor: chess.White,
		ImagesDir:  "images",
		Highlight:  700 * time.Millisecond,
		TopMoves:   3,
		AssetURL:   "https://images.chesscomfiles.com/chess-themes/pieces/neo/150",
		LogLevel:   "info",
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if strings.TrimSpace(c.EnginePath) == "" {
		return errors.New("engine path is empty")
	}
	if c.ThinkTime <= 0 {
		return fmt.Errorf("think time must be positive, got %s", c.ThinkTime)
	}
	if c.Elo != 0 && (c.Elo < MinElo || c.Elo > MaxElo) {
		return fmt.Errorf("elo %d outside [%d, %d]", c.Elo, MinElo, MaxElo)
	}
	if c.HumanColor != chess.White && c.HumanColor != chess.Black {
		return errors.New("human color must be white or black")
	}
	if c.Highlight < 0 {
		return fmt.Errorf("highlight duration must not be negative, got %s", c.Highlight)
	}
	if c.TopMoves < 1 {
		return fmt.Errorf("top moves must be at least 1, got %d", c.TopMoves)
	}
	return nil
}

// ParseColor maps "white"/"w" and "black"/"b" to a side.
func ParseColor(s string) (chess.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return chess.White, nil
	case "black", "b":
		return chess.Black, nil
	}
	return chess.NoColor, fmt.Errorf("unknown color %q", s)
}
