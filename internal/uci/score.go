package uci

import (
	"fmt"

	"github.com/corentings/chess/v2"
)

// MateScore is the pawn value a forced mate is pinned to before clamping.
const MateScore = 10.0

// Score is an engine evaluation. Engines report it from the point of view
// of the side to move.
// "mate 0" is a mate already on the board and carries no sign in Mate;
// engines send it for the mated side, and White sets Delivered when the
// conversion makes it the winner's score.
type Score struct {
	CP        int // centipawns, valid when !IsMate
	Mate      int // moves to mate, negative when the side to move is mated
	IsMate    bool
	Delivered bool // with IsMate and Mate == 0: the viewing side has mated
}

// White returns the score from White's point of view given the side that
// was to move when the engine produced it.
func (s Score) White(turn chess.Color) Score {
	if turn != chess.Black {
		return s
	}
	flipped := Score{CP: -s.CP, Mate: -s.Mate, IsMate: s.IsMate}
	if s.IsMate && s.Mate == 0 {
		flipped.Delivered = !s.Delivered
	}
	return flipped
}

// winning reports the sign of a mate score.
func (s Score) winning() bool {
	if s.Mate == 0 {
		return s.Delivered
	}
	return s.Mate > 0
}

// Pawns converts the score to pawns clamped to [-limit, limit]. A mate
// counts as MateScore before clamping. limit <= 0 disables clamping.
func (s Score) Pawns(limit float64) float64 {
	var v float64
	if s.IsMate {
		v = MateScore
		if !s.winning() {
			v = -MateScore
		}
	} else {
		v = float64(s.CP) / 100
	}
	if limit > 0 {
		v = max(-limit, min(limit, v))
	}
	return v
}

// WhiteRatio maps a White-perspective score onto [0, 1] for an eval bar
// spanning [-limit, limit] pawns.
func (s Score) WhiteRatio(limit float64) float64 {
	return (s.Pawns(limit) + limit) / (2 * limit)
}

func (s Score) String() string {
	if s.IsMate {
		switch {
		case s.Mate > 0:
			return fmt.Sprintf("Mate in %d", s.Mate)
		case s.Mate < 0:
			return fmt.Sprintf("Mated in %d", -s.Mate)
		case s.Delivered:
			return "Checkmate"
		}
		return "Mated"
	}
	return fmt.Sprintf("%+.2f", float64(s.CP)/100)
}
