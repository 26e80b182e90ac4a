package gui

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

type fonts struct {
	piece  font.Face // glyphs used when piece images are missing
	text   font.Face
	title  font.Face
	banner font.Face
	glyphs bool // piece face has the chess symbols
}

func parseFace(data []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingFull}), nil
}

// loadFonts builds the UI faces from the bundled Go fonts. A chess font
// at piecePath, such as a Merida unicode TTF, replaces the letter pieces.
func loadFonts(piecePath string, squareSize int) (*fonts, error) {
	var (
		fs  fonts
		err error
	)
	if fs.text, err = parseFace(goregular.TTF, 18); err != nil {
		return nil, err
	}
	if fs.title, err = parseFace(gobold.TTF, 48); err != nil {
		return nil, err
	}
	if fs.banner, err = parseFace(gobold.TTF, 26); err != nil {
		return nil, err
	}

	if piecePath != "" {
		data, err := os.ReadFile(piecePath)
		if err != nil {
			return nil, fmt.Errorf("piece font: %w", err)
		}
		if fs.piece, err = parseFace(data, float64(squareSize)*0.8); err != nil {
			return nil, fmt.Errorf("piece font %s: %w", piecePath, err)
		}
		fs.glyphs = true
		return &fs, nil
	}
	if fs.piece, err = parseFace(gobold.TTF, float64(squareSize)*0.5); err != nil {
		return nil, err
	}
	return &fs, nil
}
