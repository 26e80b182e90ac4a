package session

import (
	"github.com/corentings/chess/v2"

	"github.com/dulchik/chess-ai-gui/internal/board"
)

// Status is the banner text for the current position, "" while play goes
// on normally.
func (s *Session) Status() string {
	if s.flagged != chess.NoColor {
		if s.opts.TwoPlayer {
			return s.flagged.Name() + " lost on time!"
		}
		if s.flagged == s.opts.Human {
			return "Out of time! You Lost!"
		}
		return "Engine out of time! You Win!"
	}

	pos := s.game.Position()
	switch pos.Status() {
	case chess.Checkmate:
		if s.opts.TwoPlayer {
			return "Checkmate! " + pos.Turn().Other().Name() + " Wins!"
		}
		if pos.Turn() == s.opts.Human {
			return "Checkmate! You Lost!"
		}
		return "Checkmate! You Win!"
	case chess.Stalemate:
		return "Draw - Stalemate!"
	}

	if s.game.Outcome() == chess.Draw {
		switch s.game.Method() {
		case chess.InsufficientMaterial:
			return "Draw - Insufficient Material!"
		case chess.ThreefoldRepetition, chess.FivefoldRepetition:
			return "Draw - Repetition!"
		case chess.FiftyMoveRule, chess.SeventyFiveMoveRule:
			return "Draw - Fifty-Move Rule!"
		}
		return "Draw!"
	}

	if board.InCheck(s.game) {
		return "Check!"
	}
	return ""
}
