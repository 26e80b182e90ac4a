package gui

import (
	"fmt"
	"image/color"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/dulchik/chess-ai-gui/internal/board"
	"github.com/dulchik/chess-ai-gui/internal/render"
	"github.com/dulchik/chess-ai-gui/internal/session"
)

var (
	panelBg      = color.RGBA{30, 30, 30, 255}
	lastMoveTint = color.RGBA{255, 255, 0, 80}
	selectTint   = color.RGBA{0, 255, 0, 80}
	captureTint  = color.RGBA{255, 0, 0, 80}
	checkTint    = color.RGBA{200, 0, 0, 120}
	pickerBg     = color.RGBA{50, 50, 50, 230}
	overlay      = color.RGBA{0, 0, 0, 180}
	dimText      = color.RGBA{180, 180, 180, 255}
	evalWhite    = color.RGBA{235, 235, 235, 255}
	evalBlack    = color.RGBA{40, 40, 40, 255}
	evalMid      = color.RGBA{0, 200, 0, 255}
)

func (a *App) Draw(screen *ebiten.Image) {
	if a.mode == modeMenu {
		a.menu.Draw(screen, a.fonts)
		return
	}

	now := time.Now()
	screen.DrawImage(a.board, nil)
	a.drawHighlights(screen, now)
	a.drawPieces(screen)
	a.drawTargets(screen)
	a.drawEvalBar(screen)
	a.drawPanel(screen)
	a.drawPromotionPicker(screen)

	if a.sess.Over() {
		ebitenutil.DrawRect(screen, 0, 0, boardSize, boardSize, overlay)
		drawCentered(screen, a.sess.Status(), a.fonts.banner, boardSize/2, boardSize/2-20, color.White)
		drawCentered(screen, "Press R to Restart", a.fonts.text, boardSize/2, boardSize/2+24, color.White)
	}
}

func (a *App) fillSquare(screen *ebiten.Image, sq chess.Square, clr color.Color) {
	x, y := a.geom.SquareOrigin(sq)
	ebitenutil.DrawRect(screen, float64(x), float64(y), tileSize, tileSize, clr)
}

func (a *App) drawHighlights(screen *ebiten.Image, now time.Time) {
	sel := a.sess.Selection()

	if from, to, ok := sel.LastMove(); ok {
		a.fillSquare(screen, from, lastMoveTint)
		a.fillSquare(screen, to, lastMoveTint)
	}
	if sq, ok := sel.Flash(now); ok {
		a.fillSquare(screen, sq, render.Highlight)
	}
	if sq, ok := sel.Selected(); ok {
		a.fillSquare(screen, sq, selectTint)
	}

	pos := a.sess.Position()
	if board.InCheck(a.sess.Game()) && pos.Status() != chess.Checkmate {
		if ks, ok := board.KingSquare(pos.Board(), pos.Turn()); ok {
			a.fillSquare(screen, ks, checkTint)
		}
	}
}

func (a *App) drawPieces(screen *ebiten.Image) {
	b := a.sess.Position().Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		a.drawPiece(screen, p, sq)
	}
}

func (a *App) drawPiece(screen *ebiten.Image, p chess.Piece, sq chess.Square) {
	x, y := a.geom.SquareOrigin(sq)

	if img, ok := a.pieces[render.PieceName(p)]; ok {
		w := img.Bounds().Dx()
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(float64(tileSize)/float64(w), float64(tileSize)/float64(w))
		op.GeoM.Translate(float64(x), float64(y))
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(img, op)
		return
	}

	cx, cy := x+tileSize/2, y+tileSize/2
	if a.fonts.glyphs {
		drawCentered(screen, p.String(), a.fonts.piece, cx, cy, color.Black)
		return
	}

	// Letter pieces on a disc in the piece colour.
	fg, bg := color.Color(color.Black), color.Color(evalWhite)
	if p.Color() == chess.Black {
		fg, bg = color.White, evalBlack
	}
	vector.DrawFilledCircle(screen, float32(cx), float32(cy), tileSize*0.38, bg, true)
	drawCentered(screen, pieceLetter(p.Type()), a.fonts.piece, cx, cy, fg)
}

func pieceLetter(pt chess.PieceType) string {
	switch pt {
	case chess.King:
		return "K"
	case chess.Queen:
		return "Q"
	case chess.Rook:
		return "R"
	case chess.Bishop:
		return "B"
	case chess.Knight:
		return "N"
	case chess.Pawn:
		return "P"
	}
	return "?"
}

func (a *App) drawTargets(screen *ebiten.Image) {
	sel := a.sess.Selection()
	b := a.sess.Position().Board()
	for _, sq := range sel.Targets() {
		if b.Piece(sq) != chess.NoPiece {
			a.fillSquare(screen, sq, captureTint)
			continue
		}
		cx, cy := a.geom.SquareCenter(sq)
		vector.DrawFilledCircle(screen, float32(cx), float32(cy), tileSize/8, render.MoveDot, true)
	}
}

// drawEvalBar fills the bar from White's side in proportion to the
// engine's evaluation. Until the first score arrives it sits level.
func (a *App) drawEvalBar(screen *ebiten.Image) {
	ratio := 0.5
	if score, ok := a.sess.Eval(); ok {
		ratio = score.WhiteRatio(evalLimit)
	}

	x := float64(boardSize)
	white := ratio * boardSize
	ebitenutil.DrawRect(screen, x, 0, evalBarWidth, boardSize, evalBlack)
	if a.geom.Flipped {
		ebitenutil.DrawRect(screen, x, 0, evalBarWidth, white, evalWhite)
	} else {
		ebitenutil.DrawRect(screen, x, boardSize-white, evalBarWidth, white, evalWhite)
	}
	ebitenutil.DrawRect(screen, x, boardSize/2-1, evalBarWidth, 2, evalMid)
}

// formatMoves pairs the moves into numbered lines, "1. e2e4 e7e5".
func formatMoves(moves []*chess.Move) []string {
	var lines []string
	for i := 0; i < len(moves); i += 2 {
		line := fmt.Sprintf("%d. %s", i/2+1, moves[i].String())
		if i+1 < len(moves) {
			line += " " + moves[i+1].String()
		}
		lines = append(lines, line)
	}
	return lines
}

func (a *App) drawPanel(screen *ebiten.Image) {
	left := boardSize + evalBarWidth
	ebitenutil.DrawRect(screen, float64(left), 0, panelWidth, boardSize, panelBg)
	x := left + 16
	y := 32

	if clock := a.sess.Clock(); clock.Enabled {
		for _, side := range []chess.Color{chess.Black, chess.White} {
			name := "White"
			if side == chess.Black {
				name = "Black"
			}
			clr := color.Color(dimText)
			if a.sess.Position().Turn() == side {
				clr = color.White
			}
			text.Draw(screen, fmt.Sprintf("%s  %s", name, session.FormatClock(clock.Remaining(side))), a.fonts.text, x, y, clr)
			y += 26
		}
		y += 10
	}

	if score, ok := a.sess.Eval(); ok {
		text.Draw(screen, "Eval "+score.String(), a.fonts.text, x, y, color.White)
		y += 26
	}
	if a.sess.Thinking() {
		text.Draw(screen, "Engine thinking...", a.fonts.text, x, y, dimText)
	}
	y += 26

	if hints := a.sess.Hints(); len(hints) > 0 {
		h := hints[0]
		text.Draw(screen, fmt.Sprintf("Hint %s (%s)", h.Move(), h.Score), a.fonts.text, x, y, evalMid)
	}
	y += 36

	// Keep the tail of long games on screen.
	lines := formatMoves(a.sess.Game().Moves())
	rows := (boardSize - y - 60) / 24
	if rows > 0 && len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	for _, line := range lines {
		text.Draw(screen, line, a.fonts.text, x, y, color.White)
		y += 24
	}

	if st := a.sess.Status(); st != "" && !a.sess.Over() {
		text.Draw(screen, st, a.fonts.text, x, boardSize-64, checkTint)
	}
	if a.engineName != "" {
		text.Draw(screen, a.engineName, a.fonts.text, x, boardSize-36, dimText)
	}
	text.Draw(screen, "R reset  U undo  H hint  F flip", a.fonts.text, x, boardSize-10, dimText)
}

func (a *App) drawPromotionPicker(screen *ebiten.Image) {
	if _, _, ok := a.sess.Promoting(); !ok {
		return
	}
	turn := a.sess.Position().Turn()
	for i, sq := range a.promotionSquares() {
		a.fillSquare(screen, sq, pickerBg)
		a.drawPiece(screen, chess.NewPiece(board.PromotionPieces[i], turn), sq)
	}
}
