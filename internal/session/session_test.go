package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/rs/zerolog"

	"github.com/dulchik/chess-ai-gui/internal/board"
	"github.com/dulchik/chess-ai-gui/internal/uci"
)

// fakeOracle plays the first legal move unless told otherwise.
type fakeOracle struct {
	mu        sync.Mutex
	gate      chan struct{} // when set, BestMove waits for a value
	move      string        // fixed reply, "" picks the first legal move
	score     uci.Score
	evals     int
	newGames  int
	topMoves  int
	cancelled int
	asked     []string
}

func (o *fakeOracle) BestMove(ctx context.Context, fen string, _ time.Duration) (uci.Result, error) {
	o.mu.Lock()
	o.asked = append(o.asked, fen)
	gate, move, score := o.gate, o.move, o.score
	o.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			o.mu.Lock()
			o.cancelled++
			o.mu.Unlock()
			return uci.Result{}, ctx.Err()
		}
	}
	if move == "" {
		move = firstLegal(fen)
	}
	return uci.Result{Move: move, Score: score}, nil
}

func (o *fakeOracle) Evaluate(ctx context.Context, fen string, _ time.Duration) (uci.Score, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evals++
	return o.score, nil
}

func (o *fakeOracle) TopMoves(ctx context.Context, fen string, n int, _ time.Duration) ([]uci.Line, error) {
	o.mu.Lock()
	o.topMoves++
	o.mu.Unlock()
	return []uci.Line{{MultiPV: 1, Score: uci.Score{CP: 12}, PV: []string{firstLegal(fen)}}}, nil
}

func (o *fakeOracle) NewGame(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.newGames++
	return nil
}

func (o *fakeOracle) askedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.asked)
}

func (o *fakeOracle) counts() (topMoves, cancelled int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.topMoves, o.cancelled
}

func firstLegal(fen string) string {
	f, err := chess.FEN(fen)
	if err != nil {
		return ""
	}
	moves := chess.NewGame(f).Position().ValidMoves()
	if len(moves) == 0 {
		return ""
	}
	m := moves[0]
	return board.UCI(m.S1(), m.S2(), m.Promo())
}

func newSession(t *testing.T, o Oracle, opts Options) *Session {
	t.Helper()
	if opts.Human == chess.NoColor {
		opts.Human = chess.White
	}
	opts.ThinkTime = 10 * time.Millisecond
	opts.Log = zerolog.Nop()
	s, err := New(o, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func pollUntil(t *testing.T, s *Session, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		s.Poll(time.Now())
		time.Sleep(time.Millisecond)
	}
}

func plies(s *Session) int { return len(s.Game().Moves()) }

func TestHumanMoveThenEngineReply(t *testing.T) {
	o := &fakeOracle{move: "e7e5"}
	s := newSession(t, o, Options{})

	now := time.Now()
	s.Click(chess.E2, now)
	if sq, ok := s.Selection().Selected(); !ok || sq != chess.E2 {
		t.Fatalf("e2 not selected")
	}
	s.Click(chess.E4, now)
	if plies(s) != 1 {
		t.Fatalf("human move not played, plies = %d", plies(s))
	}
	if _, ok := s.Selection().Selected(); ok {
		t.Error("selection not reset after move")
	}
	if !s.Thinking() {
		t.Error("engine should be thinking")
	}

	pollUntil(t, s, "engine reply", func() bool { return plies(s) == 2 })
	if s.Thinking() {
		t.Error("still thinking after reply")
	}
	if _, to, _ := s.Selection().LastMove(); to != chess.E5 {
		t.Errorf("last move ends on %v, want e5", to)
	}
	if s.Position().Turn() != chess.White {
		t.Error("white should be to move")
	}
}

func TestPollDoesNotBlockOnEngine(t *testing.T) {
	o := &fakeOracle{gate: make(chan struct{})}
	s := newSession(t, o, Options{})

	if err := s.PlayUCI("d2d4", time.Now()); err != nil {
		t.Fatalf("PlayUCI: %v", err)
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			s.Poll(time.Now())
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Poll blocked while the engine was searching")
	}
	if plies(s) != 1 || !s.Thinking() {
		t.Fatalf("plies = %d thinking = %v", plies(s), s.Thinking())
	}

	// Human input is refused while the engine is to move.
	if err := s.PlayUCI("e2e4", time.Now()); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("err = %v, want ErrNotYourTurn", err)
	}
	s.Click(chess.E7, time.Now())
	if _, ok := s.Selection().Selected(); ok {
		t.Error("click accepted during engine turn")
	}

	close(o.gate)
	pollUntil(t, s, "engine reply", func() bool { return plies(s) == 2 })
}

func TestEngineMovesFirstForBlack(t *testing.T) {
	o := &fakeOracle{move: "g1f3"}
	s := newSession(t, o, Options{Human: chess.Black})
	pollUntil(t, s, "engine opening move", func() bool { return plies(s) == 1 })
	if s.Position().Turn() != chess.Black {
		t.Error("black should be to move")
	}
}

func TestStaleReplyDroppedAfterReset(t *testing.T) {
	gate := make(chan struct{})
	o := &fakeOracle{gate: gate, move: "e7e5"}
	s := newSession(t, o, Options{})

	if err := s.PlayUCI("e2e4", time.Now()); err != nil {
		t.Fatal(err)
	}
	pollUntil(t, s, "engine query", func() bool { return o.askedCount() == 1 })
	s.Reset()
	if plies(s) != 0 || s.Thinking() {
		t.Fatalf("reset left plies = %d thinking = %v", plies(s), s.Thinking())
	}
	close(gate)

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		s.Poll(time.Now())
		time.Sleep(time.Millisecond)
	}
	if plies(s) != 0 {
		t.Fatalf("stale engine reply was applied, plies = %d", plies(s))
	}
	if err := s.PlayUCI("d2d4", time.Now()); err != nil {
		t.Fatalf("new game should accept input: %v", err)
	}
}

func TestReplyDelayHoldsEngineMove(t *testing.T) {
	o := &fakeOracle{move: "e7e5"}
	s := newSession(t, o, Options{ReplyDelay: time.Hour, Highlight: 700 * time.Millisecond})

	start := time.Now()
	if err := s.PlayUCI("e2e4", start); err != nil {
		t.Fatal(err)
	}
	if sq, ok := s.Selection().Flash(start.Add(100 * time.Millisecond)); !ok || sq != chess.E4 {
		t.Errorf("flash = %v %v, want e4", sq, ok)
	}

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		s.Poll(start.Add(time.Second))
		time.Sleep(time.Millisecond)
	}
	if plies(s) != 1 {
		t.Fatalf("reply applied before delay, plies = %d", plies(s))
	}
	s.Poll(start.Add(time.Hour))
	if plies(s) != 2 {
		t.Fatalf("reply not applied after delay, plies = %d", plies(s))
	}
}

func TestClickReselectAndDeselect(t *testing.T) {
	s := newSession(t, &fakeOracle{}, Options{})
	now := time.Now()

	s.Click(chess.E2, now)
	s.Click(chess.G1, now)
	if sq, _ := s.Selection().Selected(); sq != chess.G1 {
		t.Errorf("reselect picked %v, want g1", sq)
	}
	s.Click(chess.G1, now)
	if _, ok := s.Selection().Selected(); ok {
		t.Error("second click on the same square should deselect")
	}
	s.Click(chess.G1, now)
	s.Click(chess.G4, now)
	if _, ok := s.Selection().Selected(); ok {
		t.Error("click on an unreachable empty square should clear")
	}
	if plies(s) != 0 {
		t.Error("no move should have been played")
	}
	s.Click(chess.D5, now)
	if _, ok := s.Selection().Selected(); ok {
		t.Error("empty square selected")
	}
}

func TestPromotionPicker(t *testing.T) {
	o := &fakeOracle{}
	s := newSession(t, o, Options{FEN: "8/4P1k1/8/8/8/8/8/4K3 w - - 0 1"})
	now := time.Now()

	s.Click(chess.E7, now)
	s.Click(chess.E8, now)
	from, to, ok := s.Promoting()
	if !ok || from != chess.E7 || to != chess.E8 {
		t.Fatalf("promotion picker not open: %v %v %v", from, to, ok)
	}
	if plies(s) != 0 {
		t.Fatal("move played before a piece was picked")
	}
	s.CancelPromotion()
	if _, _, ok := s.Promoting(); ok {
		t.Fatal("cancel did not close the picker")
	}

	s.Click(chess.E7, now)
	s.Click(chess.E8, now)
	if err := s.Promote(chess.Rook, now); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	moves := s.Game().Moves()
	if len(moves) != 1 || moves[0].Promo() != chess.Rook {
		t.Fatalf("moves = %v, want e7e8r", moves)
	}
	pollUntil(t, s, "engine reply", func() bool { return plies(s) == 2 })
}

func TestEvalIsWhitePerspective(t *testing.T) {
	o := &fakeOracle{move: "e7e5", score: uci.Score{CP: 50}}
	s := newSession(t, o, Options{})
	if err := s.PlayUCI("e2e4", time.Now()); err != nil {
		t.Fatal(err)
	}
	// The move reply scores the position with black to move.
	pollUntil(t, s, "engine reply", func() bool { return plies(s) == 2 })
	pollUntil(t, s, "evaluation", func() bool {
		sc, ok := s.Eval()
		return ok && sc.CP == 50
	})
}

func TestIllegalEngineMoveReported(t *testing.T) {
	o := &fakeOracle{move: "e2e4"}
	s := newSession(t, o, Options{})
	if err := s.PlayUCI("d2d4", time.Now()); err != nil {
		t.Fatal(err)
	}
	pollUntil(t, s, "engine reply", func() bool { return !s.Thinking() })
	if plies(s) != 1 {
		t.Errorf("illegal engine move applied")
	}
	if err := s.Err(); !errors.Is(err, board.ErrIllegalMove) {
		t.Errorf("err = %v, want ErrIllegalMove", err)
	}
}

func TestStatusMessages(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		human chess.Color
		two   bool
		want  string
	}{
		{"human mated", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", chess.White, false, "Checkmate! You Lost!"},
		{"engine mated", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", chess.Black, false, "Checkmate! You Win!"},
		{"two player mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", chess.White, true, "Checkmate! Black Wins!"},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", chess.White, false, "Draw - Stalemate!"},
		{"quiet", "4k3/8/8/8/8/8/8/4KQ2 w - - 0 1", chess.White, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, &fakeOracle{gate: make(chan struct{})}, Options{FEN: tt.fen, Human: tt.human, TwoPlayer: tt.two})
			if got := s.Status(); got != tt.want {
				t.Errorf("Status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckStatusAfterMove(t *testing.T) {
	s := newSession(t, &fakeOracle{gate: make(chan struct{})}, Options{FEN: "4k3/8/8/8/8/8/8/R3K3 w - - 0 1"})
	if err := s.PlayUCI("a1a8", time.Now()); err != nil {
		t.Fatal(err)
	}
	if got := s.Status(); got != "Check!" {
		t.Errorf("Status = %q, want Check!", got)
	}
}

func TestGameOverRejectsInput(t *testing.T) {
	s := newSession(t, &fakeOracle{}, Options{FEN: "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"})
	if !s.Over() {
		t.Fatal("mated position should be over")
	}
	if err := s.PlayUCI("e2e4", time.Now()); !errors.Is(err, ErrGameOver) {
		t.Errorf("err = %v, want ErrGameOver", err)
	}
}

func TestUndoTakesBackPair(t *testing.T) {
	o := &fakeOracle{move: "e7e5"}
	s := newSession(t, o, Options{})
	if err := s.PlayUCI("e2e4", time.Now()); err != nil {
		t.Fatal(err)
	}
	pollUntil(t, s, "engine reply", func() bool { return plies(s) == 2 })

	if !s.Undo() {
		t.Fatal("Undo refused")
	}
	if plies(s) != 0 || s.Position().Turn() != chess.White {
		t.Fatalf("after undo plies = %d", plies(s))
	}
	if s.Undo() {
		t.Error("undo with no moves should fail")
	}
}

func TestHints(t *testing.T) {
	s := newSession(t, &fakeOracle{}, Options{})
	s.RequestHints(3)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Await(ctx, true); err != nil {
		t.Fatalf("Await: %v", err)
	}
	hints := s.Hints()
	if len(hints) != 1 || hints[0].Move() == "" {
		t.Fatalf("hints = %+v", hints)
	}
	if err := s.PlayUCI(hints[0].Move(), time.Now()); err != nil {
		t.Fatalf("hinted move rejected: %v", err)
	}
	if s.Hints() != nil {
		t.Error("hints survived a move")
	}
}

func TestClockFlag(t *testing.T) {
	s := newSession(t, &fakeOracle{}, Options{Clock: time.Second})
	now := time.Now()
	s.Poll(now)
	s.Poll(now.Add(2 * time.Second))
	if !s.Over() {
		t.Fatal("flag should have fallen")
	}
	if got := s.Status(); !strings.Contains(got, "You Lost") {
		t.Errorf("Status = %q", got)
	}
	if s.Undo() {
		t.Error("undo after flag fall")
	}
}

func TestNewRejectsBadFEN(t *testing.T) {
	if _, err := New(&fakeOracle{}, Options{FEN: "not a fen"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFormatClock(t *testing.T) {
	for d, want := range map[time.Duration]string{
		0:                             "00:00",
		-time.Second:                  "00:00",
		5*time.Minute + 7*time.Second: "05:07",
	} {
		if got := FormatClock(d); got != want {
			t.Errorf("FormatClock(%s) = %q, want %q", d, got, want)
		}
	}
}

// finishes fails the test if f does not return within a second.
func finishes(t *testing.T, what string, f func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("%s blocked", what)
	}
}

func TestHintRequestsWhileEngineThinks(t *testing.T) {
	o := &fakeOracle{gate: make(chan struct{}), move: "e7e5"}
	s := newSession(t, o, Options{})
	if err := s.PlayUCI("e2e4", time.Now()); err != nil {
		t.Fatal(err)
	}

	finishes(t, "hint requests during a search", func() {
		for i := 0; i < 100; i++ {
			s.RequestHints(1)
			s.RequestHints(2)
			s.Poll(time.Now())
		}
	})
	close(o.gate)
	pollUntil(t, s, "engine reply", func() bool { return plies(s) == 2 })
	s.RequestHints(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Await(ctx, true); err != nil {
		t.Fatalf("Await: %v", err)
	}
	if len(s.Hints()) == 0 {
		t.Error("no hints after the engine replied")
	}
	// One search per distinct request while blocked, one after the reply.
	if n, _ := o.counts(); n > 3 {
		t.Errorf("hint searches = %d, want at most 3", n)
	}
}

func TestResetCancelsSearch(t *testing.T) {
	o := &fakeOracle{gate: make(chan struct{})}
	s := newSession(t, o, Options{Human: chess.Black})
	pollUntil(t, s, "engine search", func() bool { return o.askedCount() == 1 })

	s.Reset()
	pollUntil(t, s, "cancelled search", func() bool {
		_, cancelled := o.counts()
		return cancelled == 1 && o.askedCount() == 2
	})

	finishes(t, "repeated resets", func() {
		for i := 0; i < 50; i++ {
			s.Reset()
			s.Poll(time.Now())
		}
	})
	close(o.gate)
	pollUntil(t, s, "engine move", func() bool { return plies(s) == 1 })
}

func TestUndoCancelsSearch(t *testing.T) {
	o := &fakeOracle{gate: make(chan struct{})}
	s := newSession(t, o, Options{})
	if err := s.PlayUCI("e2e4", time.Now()); err != nil {
		t.Fatal(err)
	}
	pollUntil(t, s, "engine search", func() bool { return o.askedCount() == 1 })

	if !s.Undo() {
		t.Fatal("Undo refused during a search")
	}
	pollUntil(t, s, "cancelled search", func() bool {
		_, cancelled := o.counts()
		return cancelled == 1
	})
	if plies(s) != 0 || s.Thinking() {
		t.Errorf("after undo plies = %d, thinking = %v", plies(s), s.Thinking())
	}
}

func TestHintScoresAreWhitePerspective(t *testing.T) {
	s := newSession(t, &fakeOracle{}, Options{Human: chess.Black})
	pollUntil(t, s, "engine opening move", func() bool { return plies(s) == 1 })

	s.RequestHints(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Await(ctx, true); err != nil {
		t.Fatalf("Await: %v", err)
	}
	// The engine scores +12 for black, the side to move.
	hints := s.Hints()
	if len(hints) != 1 || hints[0].Score.CP != -12 {
		t.Fatalf("hints = %+v, want one line at -12", hints)
	}
}

func TestGameOverEval(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want float64
	}{
		{"white mated", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", -5},
		{"black mated", "r1bqkb1r/pppp1Qpp/2n2n2/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 4", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Engines report "score mate 0" for the mated side to move.
			o := &fakeOracle{score: uci.Score{IsMate: true}}
			s := newSession(t, o, Options{FEN: tt.fen})
			if !s.Over() {
				t.Fatal("position should be mate")
			}
			pollUntil(t, s, "evaluation", func() bool {
				_, ok := s.Eval()
				return ok
			})
			sc, _ := s.Eval()
			if got := sc.Pawns(5); got != tt.want {
				t.Errorf("eval = %v (%s), want %v", got, sc, tt.want)
			}
		})
	}
}

func TestCheckStatusFromStartPosition(t *testing.T) {
	s := newSession(t, &fakeOracle{gate: make(chan struct{})}, Options{FEN: "4k3/8/8/8/8/8/4r3/4K3 w - - 0 1"})
	if got := s.Status(); got != "Check!" {
		t.Errorf("Status = %q, want Check!", got)
	}
}

func TestClockChargesTheMover(t *testing.T) {
	c := NewClock(time.Minute)
	t0 := time.Now()
	c.Update(chess.White, t0)
	c.Update(chess.White, t0.Add(2*time.Second))
	// White moves at 3s; the second since the last update is still White's.
	c.Update(chess.Black, t0.Add(3*time.Second))
	c.Update(chess.Black, t0.Add(5*time.Second))

	if c.White != 57*time.Second {
		t.Errorf("white = %s, want 57s", c.White)
	}
	if c.Black != 58*time.Second {
		t.Errorf("black = %s, want 58s", c.Black)
	}
}

func TestTwoPlayerFlagNamesLoser(t *testing.T) {
	s := newSession(t, &fakeOracle{}, Options{Clock: time.Second, TwoPlayer: true})
	now := time.Now()
	s.Poll(now)
	s.Poll(now.Add(2 * time.Second))
	if got := s.Status(); got != "White lost on time!" {
		t.Errorf("Status = %q", got)
	}
}
