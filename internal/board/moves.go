package board

import (
	"errors"

	"github.com/corentings/chess/v2"
)

// ErrIllegalMove is returned for moves outside the position's legal set.
var ErrIllegalMove = errors.New("illegal move")

// PromotionPieces lists promotion choices in picker order.
var PromotionPieces = []chess.PieceType{chess.Queen, chess.Rook, chess.Bishop, chess.Knight}

// LegalTargets returns the destination squares of the legal moves from sq.
func LegalTargets(pos *chess.Position, from chess.Square) map[chess.Square]bool {
	targets := make(map[chess.Square]bool)
	for _, m := range pos.ValidMoves() {
		if m.S1() == from {
			targets[m.S2()] = true
		}
	}
	return targets
}

// IsPromotion reports whether moving from -> to is a pawn reaching the last rank.
func IsPromotion(pos *chess.Position, from, to chess.Square) bool {
	piece := pos.Board().Piece(from)
	if piece == chess.NoPiece || piece.Type() != chess.Pawn {
		return false
	}
	if piece.Color() == chess.White && to.Rank() == chess.Rank8 {
		return true
	}
	if piece.Color() == chess.Black && to.Rank() == chess.Rank1 {
		return true
	}
	return false
}

// FindMove returns the legal move from -> to, promoting to promo when it
// is not chess.NoPieceType.
func FindMove(pos *chess.Position, from, to chess.Square, promo chess.PieceType) (*chess.Move, error) {
	legal := false
	for _, m := range pos.ValidMoves() {
		if m.S1() == from && m.S2() == to && m.Promo() == promo {
			legal = true
			break
		}
	}
	if !legal {
		return nil, ErrIllegalMove
	}
	return chess.UCINotation{}.Decode(pos, UCI(from, to, promo))
}

// ParseMove decodes UCI text ("e2e4", "e7e8q") against pos and accepts it
// only when it is legal there.
func ParseMove(pos *chess.Position, text string) (*chess.Move, error) {
	m, err := chess.UCINotation{}.Decode(pos, text)
	if err != nil {
		return nil, ErrIllegalMove
	}
	return FindMove(pos, m.S1(), m.S2(), m.Promo())
}

// UCI formats a move in coordinate notation.
func UCI(from, to chess.Square, promo chess.PieceType) string {
	s := from.String() + to.String()
	switch promo {
	case chess.Queen:
		s += "q"
	case chess.Rook:
		s += "r"
	case chess.Bishop:
		s += "b"
	case chess.Knight:
		s += "n"
	}
	return s
}

// KingSquare finds the king of the given colour.
func KingSquare(b *chess.Board, c chess.Color) (chess.Square, bool) {
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := b.Piece(sq)
		if p != chess.NoPiece && p.Type() == chess.King && p.Color() == c {
			return sq, true
		}
	}
	return chess.NoSquare, false
}

// InCheck reports whether the side to move is in check. It reads the
// board, so a start position set up in check counts too.
func InCheck(g *chess.Game) bool {
	pos := g.Position()
	ks, ok := KingSquare(pos.Board(), pos.Turn())
	return ok && Attacked(pos.Board(), ks, pos.Turn().Other())
}

type step struct{ df, dr int }

var (
	knightSteps = []step{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = []step{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = []step{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = []step{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// offset returns the square df files and dr ranks away from sq.
func offset(sq chess.Square, df, dr int) (chess.Square, bool) {
	f, r := int(sq.File())+df, int(sq.Rank())+dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return chess.NoSquare, false
	}
	return chess.NewSquare(chess.File(f), chess.Rank(r)), true
}

// Attacked reports whether any piece of side by attacks sq. Pins are
// ignored: a pinned piece still gives check.
func Attacked(b *chess.Board, sq chess.Square, by chess.Color) bool {
	is := func(s chess.Square, types ...chess.PieceType) bool {
		p := b.Piece(s)
		if p == chess.NoPiece || p.Color() != by {
			return false
		}
		for _, t := range types {
			if p.Type() == t {
				return true
			}
		}
		return false
	}

	for _, st := range knightSteps {
		if s, ok := offset(sq, st.df, st.dr); ok && is(s, chess.Knight) {
			return true
		}
	}
	for _, st := range kingSteps {
		if s, ok := offset(sq, st.df, st.dr); ok && is(s, chess.King) {
			return true
		}
	}

	// A white pawn attacks upwards, so it sits a rank below its target.
	dr := -1
	if by == chess.Black {
		dr = 1
	}
	for _, df := range []int{-1, 1} {
		if s, ok := offset(sq, df, dr); ok && is(s, chess.Pawn) {
			return true
		}
	}

	slide := func(rays []step, types ...chess.PieceType) bool {
		for _, st := range rays {
			s, ok := offset(sq, st.df, st.dr)
			for ok {
				if b.Piece(s) != chess.NoPiece {
					if is(s, types...) {
						return true
					}
					break
				}
				s, ok = offset(s, st.df, st.dr)
			}
		}
		return false
	}
	return slide(rookRays, chess.Rook, chess.Queen) || slide(bishopRays, chess.Bishop, chess.Queen)
}
