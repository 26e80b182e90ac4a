// Package session sequences a game between a human and an engine.
//
// The UI goroutine owns the game: it calls Click, Promote and Poll, and is
// the only code that mutates the position. Engine queries run on a single
// worker goroutine and come back through Poll, so a slow engine never
// stalls a frame. Every job carries the generation it was asked under;
// a Reset or Undo cancels the search in flight and drops its reply.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/rs/zerolog"

	"github.com/dulchik/chess-ai-gui/internal/board"
	"github.com/dulchik/chess-ai-gui/internal/uci"
)

// ErrGameOver is returned when a move is attempted after the result is known.
var ErrGameOver = errors.New("game is over")

// ErrNotYourTurn is returned for human input while the engine is to move.
var ErrNotYourTurn = errors.New("not your turn")

// Oracle answers engine queries. *uci.Engine satisfies it.
type Oracle interface {
	BestMove(ctx context.Context, fen string, movetime time.Duration) (uci.Result, error)
	Evaluate(ctx context.Context, fen string, movetime time.Duration) (uci.Score, error)
	TopMoves(ctx context.Context, fen string, n int, movetime time.Duration) ([]uci.Line, error)
	NewGame(ctx context.Context) error
}

// Options configures a session.
type Options struct {
	Human     chess.Color   // side the human plays
	TwoPlayer bool          // both sides human, the engine only evaluates
	ThinkTime time.Duration // engine movetime
	EvalTime  time.Duration // movetime for evaluation-only queries
	Highlight time.Duration // destination flash after each move
	// ReplyDelay holds an engine reply until this long after the previous
	// move so the human can see their own move land first.
	ReplyDelay time.Duration
	Clock      time.Duration // per-side time, 0 disables the clock
	FEN        string        // optional start position
	Log        zerolog.Logger
}

type jobKind int

const (
	jobMove jobKind = iota
	jobEval
	jobHints
	jobNewGame
)

type job struct {
	ctx  context.Context // cancelled when the generation ends
	kind jobKind
	gen  int
	ply  int
	fen  string
	turn chess.Color
	n    int
}

type reply struct {
	job
	move  string
	score uci.Score
	lines []uci.Line
	err   error
}

// Session is one game. Methods must be called from a single goroutine.
type Session struct {
	opts   Options
	oracle Oracle
	log    zerolog.Logger

	game  *chess.Game
	start func(*chess.Game)
	sel   board.Selection
	clock Clock

	promoting          bool
	promoFrom, promoTo chess.Square

	gen       int
	genCtx    context.Context
	genCancel context.CancelFunc
	backlog   []job // jobs the worker has not taken yet
	thinking  bool
	pending   *reply
	movedAt   time.Time
	flagged   chess.Color

	eval    uci.Score
	hasEval bool
	hints   []uci.Line
	hintPly int
	hintN   int
	asking  int // hint count outstanding for askPly, 0 when none
	askPly  int
	lastErr error

	jobs    chan job
	replies chan reply
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New starts a session and its engine worker. If the engine is to move
// first it is asked immediately.
func New(oracle Oracle, opts Options) (*Session, error) {
	if opts.Human != chess.White && opts.Human != chess.Black {
		opts.Human = chess.White
	}
	if opts.EvalTime <= 0 {
		opts.EvalTime = opts.ThinkTime
	}

	start := func(*chess.Game) {}
	if opts.FEN != "" {
		f, err := chess.FEN(opts.FEN)
		if err != nil {
			return nil, fmt.Errorf("start position: %w", err)
		}
		start = f
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		opts:    opts,
		oracle:  oracle,
		log:     opts.Log.With().Str("component", "session").Logger(),
		start:   start,
		jobs:    make(chan job, 8),
		replies: make(chan reply, 8),
		ctx:     ctx,
		cancel:  cancel,
		flagged: chess.NoColor,
	}
	s.newGeneration()
	s.newGame()

	s.wg.Add(1)
	go s.worker()

	s.submit(job{kind: jobNewGame})
	s.afterMove(time.Time{})
	return s, nil
}

func (s *Session) newGame() {
	s.game = chess.NewGame(s.start)
	s.sel.Reset()
	s.clock = NewClock(s.opts.Clock)
	s.promoting = false
	s.thinking = false
	s.pending = nil
	s.flagged = chess.NoColor
	s.hasEval = false
	s.hints = nil
	s.asking = 0
	s.lastErr = nil
}

// newGeneration cancels everything asked so far.
func (s *Session) newGeneration() {
	if s.genCancel != nil {
		s.genCancel()
	}
	s.gen++
	s.genCtx, s.genCancel = context.WithCancel(s.ctx)
	s.backlog = nil
}

func (s *Session) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case j := <-s.jobs:
			if j.ctx.Err() != nil {
				continue
			}
			r := s.serve(j)
			if j.ctx.Err() != nil {
				continue
			}
			select {
			case s.replies <- r:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

func (s *Session) serve(j job) reply {
	r := reply{job: j}
	switch j.kind {
	case jobMove:
		res, err := s.oracle.BestMove(j.ctx, j.fen, s.opts.ThinkTime)
		r.move, r.score, r.err = res.Move, res.Score, err
	case jobEval:
		r.score, r.err = s.oracle.Evaluate(j.ctx, j.fen, s.opts.EvalTime)
	case jobHints:
		r.lines, r.err = s.oracle.TopMoves(j.ctx, j.fen, j.n, s.opts.ThinkTime)
	case jobNewGame:
		r.err = s.oracle.NewGame(j.ctx)
	}
	return r
}

// submit queues j for the worker without blocking. A queued evaluation or
// hint request replaces an older one of the same kind that the worker has
// not started, since its position is gone or its answer is superseded.
func (s *Session) submit(j job) {
	j.ctx = s.genCtx
	j.gen = s.gen
	j.ply = len(s.game.Moves())
	j.fen = s.game.Position().String()
	j.turn = s.game.Position().Turn()

	if j.kind == jobEval || j.kind == jobHints {
		kept := s.backlog[:0]
		for _, q := range s.backlog {
			if q.kind != j.kind {
				kept = append(kept, q)
			}
		}
		s.backlog = kept
	}
	s.backlog = append(s.backlog, j)
	s.flush()
}

// flush hands queued jobs to the worker while it has room.
func (s *Session) flush() {
	for len(s.backlog) > 0 {
		select {
		case s.jobs <- s.backlog[0]:
			s.backlog = s.backlog[1:]
		default:
			return
		}
	}
}

// engineToMove reports whether the engine owns the side to move.
func (s *Session) engineToMove() bool {
	return !s.opts.TwoPlayer && s.game.Position().Turn() != s.opts.Human
}

// afterMove queues whatever the new position needs from the engine.
func (s *Session) afterMove(now time.Time) {
	s.movedAt = now
	if s.Over() {
		s.submit(job{kind: jobEval})
		return
	}
	if s.engineToMove() {
		s.thinking = true
		s.submit(job{kind: jobMove})
		return
	}
	s.submit(job{kind: jobEval})
}

// Poll applies engine replies that have arrived and advances the clock.
// It never blocks. It reports whether the position changed.
func (s *Session) Poll(now time.Time) bool {
	s.flush()
drain:
	for {
		select {
		case r := <-s.replies:
			s.handle(r)
		default:
			break drain
		}
	}

	changed := false
	if s.pending != nil && !now.Before(s.movedAt.Add(s.opts.ReplyDelay)) {
		r := s.pending
		s.pending = nil
		s.thinking = false
		if err := s.apply(r.move, chess.NoPieceType, now); err != nil {
			s.lastErr = fmt.Errorf("engine move %q: %w", r.move, err)
			s.log.Error().Err(err).Str("move", r.move).Msg("engine played an illegal move")
		} else {
			changed = true
		}
	}

	if s.Over() {
		return changed
	}
	s.clock.Update(s.game.Position().Turn(), now)
	if side := s.clock.Flagged(); side != chess.NoColor {
		s.flagged = side
		s.thinking = false
		s.pending = nil
		s.sel.Clear()
		s.log.Info().Str("side", side.Name()).Msg("flag fell")
		changed = true
	}
	return changed
}

func (s *Session) handle(r reply) {
	if r.gen != s.gen {
		s.log.Debug().Int("gen", r.gen).Int("current", s.gen).Msg("dropping stale engine reply")
		return
	}
	current := r.ply == len(s.game.Moves())

	switch r.kind {
	case jobNewGame:
		if r.err != nil {
			s.lastErr = r.err
			s.log.Warn().Err(r.err).Msg("engine new game")
		}
	case jobEval:
		if r.err != nil {
			s.log.Warn().Err(r.err).Msg("evaluation failed")
			return
		}
		if current {
			s.eval, s.hasEval = r.score.White(r.turn), true
		}
	case jobHints:
		if r.ply == s.askPly && r.n >= s.asking {
			s.asking = 0
		}
		if r.err != nil {
			s.lastErr = r.err
			return
		}
		if current {
			lines := make([]uci.Line, len(r.lines))
			for i, l := range r.lines {
				l.Score = l.Score.White(r.turn)
				lines[i] = l
			}
			s.hints, s.hintPly, s.hintN = lines, r.ply, r.n
		}
	case jobMove:
		if !current || s.Over() {
			return
		}
		if r.err != nil {
			s.thinking = false
			s.lastErr = r.err
			s.log.Error().Err(r.err).Msg("engine move failed")
			return
		}
		s.eval, s.hasEval = r.score.White(r.turn), true
		s.pending = &r
	}
}

// apply plays a legal move on the board and queues the follow-up query.
func (s *Session) apply(text string, promo chess.PieceType, now time.Time) error {
	pos := s.game.Position()
	m, err := board.ParseMove(pos, text)
	if err != nil {
		return err
	}
	if promo != chess.NoPieceType && m.Promo() != promo {
		return board.ErrIllegalMove
	}
	if err := s.game.Move(m, nil); err != nil {
		return fmt.Errorf("%w: %v", board.ErrIllegalMove, err)
	}
	s.sel.Moved(m.S1(), m.S2(), now, s.opts.Highlight)
	s.hints = nil
	s.log.Debug().Str("move", text).Str("fen", s.game.Position().String()).Msg("move played")
	s.afterMove(now)
	return nil
}

// humanCanMove reports whether human input is accepted right now.
func (s *Session) humanCanMove() bool {
	return !s.Over() && !s.thinking && s.pending == nil && !s.engineToMove()
}

// Click handles a press on sq: select, reselect, deselect, move, or open
// the promotion picker.
func (s *Session) Click(sq chess.Square, now time.Time) {
	if !s.humanCanMove() || s.promoting {
		return
	}
	pos := s.game.Position()

	from, ok := s.sel.Selected()
	if !ok {
		s.sel.Select(pos, sq)
		return
	}
	if sq == from {
		s.sel.Clear()
		return
	}
	if !s.sel.IsTarget(sq) {
		if !s.sel.Select(pos, sq) {
			s.sel.Clear()
		}
		return
	}
	if board.IsPromotion(pos, from, sq) {
		s.promoting = true
		s.promoFrom, s.promoTo = from, sq
		s.sel.Clear()
		return
	}
	if err := s.apply(board.UCI(from, sq, chess.NoPieceType), chess.NoPieceType, now); err != nil {
		s.sel.Clear()
		s.lastErr = err
	}
}

// Promoting returns the pending promotion squares.
func (s *Session) Promoting() (from, to chess.Square, ok bool) {
	return s.promoFrom, s.promoTo, s.promoting
}

// Promote completes a pending promotion with pt.
func (s *Session) Promote(pt chess.PieceType, now time.Time) error {
	if !s.promoting {
		return board.ErrIllegalMove
	}
	s.promoting = false
	return s.apply(board.UCI(s.promoFrom, s.promoTo, pt), pt, now)
}

// CancelPromotion closes the picker without moving.
func (s *Session) CancelPromotion() {
	s.promoting = false
}

// PlayUCI plays a human move given in coordinate notation.
func (s *Session) PlayUCI(text string, now time.Time) error {
	switch {
	case s.Over():
		return ErrGameOver
	case !s.humanCanMove():
		return ErrNotYourTurn
	}
	s.promoting = false
	return s.apply(text, chess.NoPieceType, now)
}

// RequestHints asks the engine for the n best moves of the current
// position. They appear in Hints once the reply is polled. Asking again
// before the answer arrives does not queue another search.
func (s *Session) RequestHints(n int) {
	if s.Over() || n < 1 {
		return
	}
	ply := len(s.game.Moves())
	if s.hints != nil && s.hintPly == ply && s.hintN >= n {
		return
	}
	if s.asking >= n && s.askPly == ply {
		return
	}
	s.asking, s.askPly = n, ply
	s.submit(job{kind: jobHints, n: n})
}

// Hints returns engine suggestions for the current position, if any.
// Their scores are from White's point of view.
func (s *Session) Hints() []uci.Line {
	if s.hintPly != len(s.game.Moves()) {
		return nil
	}
	return s.hints
}

// Await blocks until the engine has nothing outstanding for this
// position: its move is on the board and requested hints have arrived.
// It is meant for line-oriented front-ends.
func (s *Session) Await(ctx context.Context, wantHints bool) error {
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for {
		s.Poll(time.Now())
		done := !s.thinking && s.pending == nil
		if wantHints && !s.Over() && s.Hints() == nil && s.lastErr == nil {
			done = false
		}
		if done {
			return s.takeErr()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

func (s *Session) takeErr() error {
	err := s.lastErr
	s.lastErr = nil
	return err
}

// Err returns and clears the last engine or move error.
func (s *Session) Err() error { return s.takeErr() }

// Reset starts a new game with the same options.
func (s *Session) Reset() {
	s.newGeneration()
	s.newGame()
	s.submit(job{kind: jobNewGame})
	s.afterMove(time.Time{})
}

// Undo takes back the last human move together with the engine reply
// that followed it. In two-player mode it takes back a single move.
func (s *Session) Undo() bool {
	moves := s.game.Moves()
	if len(moves) == 0 || s.flagged != chess.NoColor {
		return false
	}
	back := 1
	if !s.opts.TwoPlayer {
		// Unwind to the last position where the human was to move.
		found := false
		for back = 1; back <= len(moves); back++ {
			if s.turnAt(len(moves)-back) == s.opts.Human {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	keep := moves[:len(moves)-back]
	s.newGeneration()
	clock := s.clock
	s.newGame()
	s.clock = clock
	for _, m := range keep {
		replay, err := board.FindMove(s.game.Position(), m.S1(), m.S2(), m.Promo())
		if err == nil {
			err = s.game.Move(replay, nil)
		}
		if err != nil {
			s.log.Error().Err(err).Msg("replay during undo")
			return false
		}
	}
	if n := len(keep); n > 0 {
		last := keep[n-1]
		s.sel.Moved(last.S1(), last.S2(), time.Time{}, 0)
	}
	s.afterMove(time.Time{})
	return true
}

// turnAt is the side that played move i.
func (s *Session) turnAt(i int) chess.Color {
	first := chess.NewGame(s.start).Position().Turn()
	if i%2 == 0 {
		return first
	}
	return first.Other()
}

// Close stops the engine worker. The oracle itself is left open.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}

// Game exposes the underlying game for rendering.
func (s *Session) Game() *chess.Game { return s.game }

// Position is the current position.
func (s *Session) Position() *chess.Position { return s.game.Position() }

// Selection is the human's current selection and move highlight.
func (s *Session) Selection() *board.Selection { return &s.sel }

// Clock is the game clock.
func (s *Session) Clock() *Clock { return &s.clock }

// Human is the side the human plays.
func (s *Session) Human() chess.Color { return s.opts.Human }

// TwoPlayer reports whether both sides are human.
func (s *Session) TwoPlayer() bool { return s.opts.TwoPlayer }

// Thinking reports whether an engine move is outstanding.
func (s *Session) Thinking() bool { return s.thinking || s.pending != nil }

// Eval returns the latest evaluation from White's point of view.
func (s *Session) Eval() (uci.Score, bool) { return s.eval, s.hasEval }

// Over reports whether the game has a result.
func (s *Session) Over() bool {
	if s.flagged != chess.NoColor || s.game.Outcome() != chess.NoOutcome {
		return true
	}
	st := s.game.Position().Status()
	return st == chess.Checkmate || st == chess.Stalemate
}

// PGN returns the game record.
func (s *Session) PGN() string { return s.game.String() }
