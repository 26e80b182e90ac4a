// Package uci drives an external chess engine over the UCI text protocol.
//
// An Engine serialises queries: callers may share one value across
// goroutines but only one search runs at a time.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNoMove is returned when the engine answers "bestmove (none)".
	ErrNoMove = errors.New("uci: engine has no move")
	// ErrEngineExited is returned once the engine's output is closed.
	ErrEngineExited = errors.New("uci: engine exited")
)

// stopGrace bounds how long a cancelled search waits for its bestmove.
const stopGrace = 2 * time.Second

// Result is the outcome of a single search.
type Result struct {
	Move   string
	Ponder string
	Score  Score
	Depth  int
}

// Engine is a running UCI engine.
type Engine struct {
	mu sync.Mutex

	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	log   zerolog.Logger

	name    string
	options map[string]bool
	multiPV int
}

// Start launches the engine binary at path and performs the handshake.
func Start(ctx context.Context, path string, log zerolog.Logger) (*Engine, error) {
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", path, err)
	}

	e, err := newEngine(ctx, stdout, stdin, log)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	e.cmd = cmd
	return e, nil
}

// NewEngine speaks UCI over an already connected pair of streams.
func NewEngine(ctx context.Context, r io.Reader, w io.WriteCloser, log zerolog.Logger) (*Engine, error) {
	return newEngine(ctx, r, w, log)
}

func newEngine(ctx context.Context, r io.Reader, w io.WriteCloser, log zerolog.Logger) (*Engine, error) {
	e := &Engine{
		stdin:   w,
		lines:   make(chan string, 256),
		log:     log.With().Str("component", "uci").Logger(),
		options: make(map[string]bool),
		multiPV: 1,
	}
	go e.readLoop(r)

	if err := e.send("uci"); err != nil {
		return nil, err
	}
	err := e.waitFor(ctx, func(line string) bool {
		switch {
		case strings.HasPrefix(line, "id name "):
			e.name = strings.TrimPrefix(line, "id name ")
		case strings.HasPrefix(line, "option name "):
			e.options[optionName(line)] = true
		}
		return line == "uciok"
	})
	if err != nil {
		return nil, fmt.Errorf("uci handshake: %w", err)
	}
	if err := e.ready(ctx); err != nil {
		return nil, fmt.Errorf("uci handshake: %w", err)
	}
	e.log.Info().Str("engine", e.name).Msg("engine ready")
	return e, nil
}

func (e *Engine) readLoop(r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e.log.Trace().Str("recv", line).Send()
		e.lines <- line
	}
	close(e.lines)
}

// optionName extracts the option name from "option name <words> type ...".
func optionName(line string) string {
	rest := strings.TrimPrefix(line, "option name ")
	if i := strings.Index(rest, " type "); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// Name is the engine's self-reported name.
func (e *Engine) Name() string { return e.name }

// Supports reports whether the engine advertised the option.
func (e *Engine) Supports(option string) bool { return e.options[option] }

func (e *Engine) send(cmd string) error {
	e.log.Debug().Str("send", cmd).Send()
	if _, err := fmt.Fprintln(e.stdin, cmd); err != nil {
		return fmt.Errorf("uci write %q: %w", cmd, err)
	}
	return nil
}

// waitFor consumes output until match returns true.
func (e *Engine) waitFor(ctx context.Context, match func(string) bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-e.lines:
			if !ok {
				return ErrEngineExited
			}
			if match(line) {
				return nil
			}
		}
	}
}

func (e *Engine) ready(ctx context.Context) error {
	if err := e.send("isready"); err != nil {
		return err
	}
	return e.waitFor(ctx, func(line string) bool { return line == "readyok" })
}

// SetOption sends a setoption command.
func (e *Engine) SetOption(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setOption(name, value)
}

func (e *Engine) setOption(name, value string) error {
	if value == "" {
		return e.send("setoption name " + name)
	}
	return e.send(fmt.Sprintf("setoption name %s value %s", name, value))
}

// SetElo limits playing strength. Zero restores full strength. Engines
// without UCI_Elo are left untouched.
func (e *Engine) SetElo(elo int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.options["UCI_LimitStrength"] || !e.options["UCI_Elo"] {
		e.log.Warn().Str("engine", e.name).Msg("engine does not support UCI_Elo, ignoring strength limit")
		return nil
	}
	if elo <= 0 {
		return e.setOption("UCI_LimitStrength", "false")
	}
	if err := e.setOption("UCI_LimitStrength", "true"); err != nil {
		return err
	}
	return e.setOption("UCI_Elo", strconv.Itoa(elo))
}

// NewGame tells the engine the next position belongs to a new game.
func (e *Engine) NewGame(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.send("ucinewgame"); err != nil {
		return err
	}
	return e.ready(ctx)
}

// BestMove searches fen for movetime and returns the engine's choice.
func (e *Engine) BestMove(ctx context.Context, fen string, movetime time.Duration) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.setMultiPV(1); err != nil {
		return Result{}, err
	}
	res, lines, err := e.search(ctx, fen, movetime)
	if err != nil {
		return Result{}, err
	}
	if len(lines) > 0 {
		res.Score = lines[0].Score
		res.Depth = lines[0].Depth
	}
	if res.Move == "" || res.Move == "(none)" || res.Move == "0000" {
		return res, ErrNoMove
	}
	return res, nil
}

// Evaluate returns the side-to-move score of fen after a search of movetime.
func (e *Engine) Evaluate(ctx context.Context, fen string, movetime time.Duration) (Score, error) {
	res, err := e.BestMove(ctx, fen, movetime)
	if err != nil && !errors.Is(err, ErrNoMove) {
		return Score{}, err
	}
	return res.Score, nil
}

// TopMoves returns up to n variations ordered best first. Positions with
// fewer legal moves yield fewer lines.
func (e *Engine) TopMoves(ctx context.Context, fen string, n int, movetime time.Duration) ([]Line, error) {
	if n < 1 {
		return nil, fmt.Errorf("uci: top moves needs n >= 1, got %d", n)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.setMultiPV(n); err != nil {
		return nil, err
	}
	_, lines, err := e.search(ctx, fen, movetime)
	if err != nil {
		return nil, err
	}
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines, nil
}

func (e *Engine) setMultiPV(n int) error {
	if e.multiPV == n || !e.options["MultiPV"] {
		return nil
	}
	if err := e.setOption("MultiPV", strconv.Itoa(n)); err != nil {
		return err
	}
	e.multiPV = n
	return nil
}

// search runs one "go" and collects the deepest line per multipv slot.
// Caller holds e.mu.
func (e *Engine) search(ctx context.Context, fen string, movetime time.Duration) (Result, []Line, error) {
	// Flush anything left from an earlier cancelled search.
	if err := e.ready(ctx); err != nil {
		return Result{}, nil, err
	}
	if err := e.send("position fen " + fen); err != nil {
		return Result{}, nil, err
	}
	if err := e.send(fmt.Sprintf("go movetime %d", movetime.Milliseconds())); err != nil {
		return Result{}, nil, err
	}

	var res Result
	slots := make(map[int]Line)
	collect := func(line string) bool {
		if l, ok := parseInfo(line); ok {
			if len(l.PV) == 0 {
				if prev, seen := slots[l.MultiPV]; seen {
					l.PV = prev.PV
				}
			}
			slots[l.MultiPV] = l
			return false
		}
		if move, ponder, ok := parseBestMove(line); ok {
			res.Move, res.Ponder = move, ponder
			return true
		}
		return false
	}

	err := e.waitFor(ctx, collect)
	if err != nil && ctx.Err() != nil {
		e.log.Debug().Err(err).Msg("search cancelled, stopping engine")
		if serr := e.send("stop"); serr == nil {
			grace, cancel := context.WithTimeout(context.Background(), stopGrace)
			_ = e.waitFor(grace, collect)
			cancel()
		}
		return Result{}, nil, err
	}
	if err != nil {
		return Result{}, nil, err
	}

	lines := make([]Line, 0, len(slots))
	for _, l := range slots {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].MultiPV < lines[j].MultiPV })
	return res, lines, nil
}

// Close asks the engine to quit and releases the process.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_ = e.send("quit")
	err := e.stdin.Close()
	if e.cmd == nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case werr := <-done:
		if werr != nil {
			e.log.Debug().Err(werr).Msg("engine exit")
		}
	case <-time.After(stopGrace):
		_ = e.cmd.Process.Kill()
		<-done
	}
	return err
}
