package board

import (
	"time"

	"github.com/corentings/chess/v2"
)

// Selection is the human player's in-progress move: the picked piece, its
// legal destinations, and the highlight left by the last completed move.
type Selection struct {
	from     chess.Square
	selected bool
	targets  map[chess.Square]bool

	lastFrom, lastTo chess.Square
	hasLast          bool
	flashUntil       time.Time
}

// Select picks the piece on sq if it belongs to the side to move.
func (s *Selection) Select(pos *chess.Position, sq chess.Square) bool {
	piece := pos.Board().Piece(sq)
	if piece == chess.NoPiece || piece.Color() != pos.Turn() {
		return false
	}
	s.from = sq
	s.selected = true
	s.targets = LegalTargets(pos, sq)
	return true
}

// Selected returns the picked square.
func (s *Selection) Selected() (chess.Square, bool) {
	return s.from, s.selected
}

// IsTarget reports whether sq is a legal destination of the picked piece.
func (s *Selection) IsTarget(sq chess.Square) bool {
	return s.selected && s.targets[sq]
}

// Targets returns the destinations of the picked piece.
func (s *Selection) Targets() []chess.Square {
	if !s.selected {
		return nil
	}
	out := make([]chess.Square, 0, len(s.targets))
	for sq := chess.A1; sq <= chess.H8; sq++ {
		if s.targets[sq] {
			out = append(out, sq)
		}
	}
	return out
}

// Clear drops the picked piece.
func (s *Selection) Clear() {
	s.selected = false
	s.targets = nil
}

// Moved records a completed move: the selection is cleared and the
// destination flashes for d.
func (s *Selection) Moved(from, to chess.Square, now time.Time, d time.Duration) {
	s.Clear()
	s.lastFrom, s.lastTo, s.hasLast = from, to, true
	s.flashUntil = now.Add(d)
}

// LastMove returns the squares of the last completed move.
func (s *Selection) LastMove() (from, to chess.Square, ok bool) {
	return s.lastFrom, s.lastTo, s.hasLast
}

// Flash returns the destination still highlighted at now.
func (s *Selection) Flash(now time.Time) (chess.Square, bool) {
	if !s.hasLast || !now.Before(s.flashUntil) {
		return chess.NoSquare, false
	}
	return s.lastTo, true
}

// Reset forgets everything, as at the start of a new game.
func (s *Selection) Reset() {
	*s = Selection{}
}
