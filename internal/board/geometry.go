// Package board maps between screen pixels and chess squares and keeps the
// transient selection state of a human player.
package board

import (
	"image"

	"github.com/corentings/chess/v2"
)

// Geometry places an 8x8 board on screen. X and Y are the top-left corner
// of a8 (or h1 when Flipped).
type Geometry struct {
	X, Y    int
	Size    int // square side in pixels
	Flipped bool
}

// Extent is the board side in pixels.
func (g Geometry) Extent() int { return 8 * g.Size }

// Contains reports whether the pixel lies on the board.
func (g Geometry) Contains(x, y int) bool {
	x, y = x-g.X, y-g.Y
	return x >= 0 && y >= 0 && x < g.Extent() && y < g.Extent()
}

// SquareAt returns the square under the pixel.
func (g Geometry) SquareAt(x, y int) (chess.Square, bool) {
	if g.Size <= 0 || !g.Contains(x, y) {
		return chess.NoSquare, false
	}
	col := (x - g.X) / g.Size
	row := (y - g.Y) / g.Size

	file, rank := col, 7-row
	if g.Flipped {
		file, rank = 7-col, row
	}
	return chess.Square(file + 8*rank), true
}

// SquareOrigin returns the top-left pixel of sq.
func (g Geometry) SquareOrigin(sq chess.Square) (x, y int) {
	col, row := g.cell(sq)
	return g.X + col*g.Size, g.Y + row*g.Size
}

// SquareCenter returns the centre pixel of sq.
func (g Geometry) SquareCenter(sq chess.Square) (x, y int) {
	x, y = g.SquareOrigin(sq)
	return x + g.Size/2, y + g.Size/2
}

// SquareRect is the pixel rectangle covered by sq.
func (g Geometry) SquareRect(sq chess.Square) image.Rectangle {
	x, y := g.SquareOrigin(sq)
	return image.Rect(x, y, x+g.Size, y+g.Size)
}

// cell is the on-screen column and row of sq, both 0 at the top-left.
func (g Geometry) cell(sq chess.Square) (col, row int) {
	file, rank := int(sq.File()), int(sq.Rank())
	if g.Flipped {
		return 7 - file, rank
	}
	return file, 7 - rank
}

// IsLight reports whether sq is a light square.
func IsLight(sq chess.Square) bool {
	return (int(sq.File())+int(sq.Rank()))%2 == 1
}
