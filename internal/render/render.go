// Package render draws positions into plain images: the board texture the
// window uses and PNG snapshots written from the command line.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/corentings/chess/v2"
	xdraw "golang.org/x/image/draw"

	"github.com/dulchik/chess-ai-gui/internal/board"
)

// Board colours.
var (
	Light     = color.RGBA{240, 217, 181, 255}
	Dark      = color.RGBA{181, 136, 99, 255}
	Selected  = color.RGBA{246, 246, 105, 255}
	Highlight = color.RGBA{255, 255, 100, 255}
	MoveDot   = color.RGBA{0, 180, 0, 255}
)

// PieceNames lists the image names of every piece, white first.
var PieceNames = []string{"wp", "bp", "wn", "bn", "wb", "bb", "wr", "br", "wq", "bq", "wk", "bk"}

// PieceName is the image name of p, e.g. "wn" or "bq".
func PieceName(p chess.Piece) string {
	if p == chess.NoPiece {
		return ""
	}
	side := "w"
	if p.Color() == chess.Black {
		side = "b"
	}
	var kind string
	switch p.Type() {
	case chess.Pawn:
		kind = "p"
	case chess.Knight:
		kind = "n"
	case chess.Bishop:
		kind = "b"
	case chess.Rook:
		kind = "r"
	case chess.Queen:
		kind = "q"
	case chess.King:
		kind = "k"
	}
	return side + kind
}

// Pieces maps piece names to images.
type Pieces map[string]image.Image

// LoadPieces reads <dir>/<name>.png for every piece. Missing files are
// skipped; the returned error lists them so callers can fall back.
func LoadPieces(dir string) (Pieces, error) {
	set := make(Pieces, len(PieceNames))
	var missing []error
	for _, name := range PieceNames {
		img, err := loadPNG(filepath.Join(dir, name+".png"))
		if err != nil {
			missing = append(missing, err)
			continue
		}
		set[name] = img
	}
	return set, errors.Join(missing...)
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Options controls a snapshot.
type Options struct {
	SquareSize int
	Flipped    bool
	Pieces     Pieces // nil draws squares only
	Mark       []chess.Square
}

// Squares draws an empty board of 8x8 squares of the given size with a1 dark.
func Squares(size int) *image.RGBA {
	g := board.Geometry{Size: size}
	img := image.NewRGBA(image.Rect(0, 0, g.Extent(), g.Extent()))
	uniform := &image.Uniform{}

	for sq := chess.A1; sq <= chess.H8; sq++ {
		if board.IsLight(sq) {
			uniform.C = Light
		} else {
			uniform.C = Dark
		}
		xdraw.Draw(img, g.SquareRect(sq), uniform, image.Point{}, xdraw.Src)
	}
	return img
}

// Position draws pos with pieces scaled to fit their squares.
func Position(pos *chess.Position, opts Options) *image.RGBA {
	if opts.SquareSize <= 0 {
		opts.SquareSize = 80
	}
	g := board.Geometry{Size: opts.SquareSize, Flipped: opts.Flipped}

	// The square pattern is the same from either side; only pieces move.
	img := Squares(opts.SquareSize)
	mark := &image.Uniform{C: Selected}
	for _, sq := range opts.Mark {
		xdraw.Draw(img, g.SquareRect(sq), mark, image.Point{}, xdraw.Src)
	}

	b := pos.Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		src, ok := opts.Pieces[PieceName(p)]
		if !ok {
			continue
		}
		xdraw.CatmullRom.Scale(img, g.SquareRect(sq), src, src.Bounds(), xdraw.Over, nil)
	}
	return img
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// SaveFEN renders fen to a PNG file at path.
func SaveFEN(path, fen string, opts Options) error {
	opt, err := chess.FEN(fen)
	if err != nil {
		return fmt.Errorf("parse fen: %w", err)
	}
	img := Position(chess.NewGame(opt).Position(), opts)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
