// Package console is the line-oriented front-end: it prints the board and
// the engine's top suggestions, reads a move, and shows the engine reply.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/fatih/color"

	"github.com/dulchik/chess-ai-gui/internal/board"
	"github.com/dulchik/chess-ai-gui/internal/render"
	"github.com/dulchik/chess-ai-gui/internal/session"
)

// Options configures the console.
type Options struct {
	TopMoves int  // suggestions printed before each human move
	Color    bool // ANSI colours for the board
}

// Console runs one game on a reader and writer.
type Console struct {
	in   *bufio.Scanner
	out  io.Writer
	sess *session.Session
	opts Options

	// squares holds the style of an empty square and of each piece colour,
	// indexed by [light][piece colour].
	squares map[bool]map[chess.Color]*color.Color
}

// New wraps a session.
func New(in io.Reader, out io.Writer, sess *session.Session, opts Options) *Console {
	c := &Console{
		in:      bufio.NewScanner(in),
		out:     out,
		sess:    sess,
		opts:    opts,
		squares: make(map[bool]map[chess.Color]*color.Color),
	}
	for _, light := range []bool{true, false} {
		bg := color.BgYellow
		if light {
			bg = color.BgHiYellow
		}
		c.squares[light] = map[chess.Color]*color.Color{
			chess.NoColor: color.New(bg),
			chess.White:   color.New(bg, color.FgHiWhite, color.Bold),
			chess.Black:   color.New(bg, color.FgBlack, color.Bold),
		}
		for _, col := range c.squares[light] {
			if opts.Color {
				col.EnableColor()
			} else {
				col.DisableColor()
			}
		}
	}
	return c
}

// Run plays until the game ends, the input closes, or the player quits.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Welcome to AI Chess with Move Hints!")
	fmt.Fprintf(c.out, "You are playing as %s. Enter moves like e2e4 or Nf3.\n", sideName(c.sess.Human()))

	// The engine may open the game.
	if err := c.sess.Await(ctx, false); err != nil {
		return err
	}
	c.reportEngineMove(0)

	for {
		fmt.Fprintln(c.out, "\nCurrent Board:")
		c.printBoard()

		if c.sess.Over() {
			fmt.Fprintf(c.out, "\n%s %s\n", c.sess.Status(), c.sess.Game().Outcome())
			return nil
		}
		if msg := c.sess.Status(); msg != "" {
			fmt.Fprintln(c.out, msg)
		}

		if c.opts.TopMoves > 0 {
			c.sess.RequestHints(c.opts.TopMoves)
			if err := c.sess.Await(ctx, true); err != nil {
				return err
			}
			c.printHints()
		}

		fmt.Fprint(c.out, "\nYour move (e.g., e2e4 or type 'quit' to exit): ")
		if !c.in.Scan() {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}
		text := strings.TrimSpace(c.in.Text())
		if strings.EqualFold(text, "quit") {
			fmt.Fprintln(c.out, "Thanks for playing!")
			return nil
		}

		before := len(c.sess.Game().Moves())
		if err := c.sess.PlayUCI(c.toUCI(text), time.Now()); err != nil {
			if errors.Is(err, board.ErrIllegalMove) {
				fmt.Fprintln(c.out, "Invalid move! Try again.")
				continue
			}
			return err
		}
		if err := c.sess.Await(ctx, false); err != nil {
			return err
		}
		c.reportEngineMove(before + 1)
	}
}

// toUCI accepts coordinate or algebraic notation and returns coordinates.
// Unparseable text is passed through so the legality check rejects it.
func (c *Console) toUCI(text string) string {
	pos := c.sess.Position()
	if _, err := board.ParseMove(pos, text); err == nil {
		return text
	}
	m, err := chess.AlgebraicNotation{}.Decode(pos, text)
	if err != nil {
		return text
	}
	return board.UCI(m.S1(), m.S2(), m.Promo())
}

// reportEngineMove prints engine moves played from ply onwards.
func (c *Console) reportEngineMove(ply int) {
	moves := c.sess.Game().Moves()
	for i := ply; i < len(moves); i++ {
		m := moves[i]
		fmt.Fprintf(c.out, "\nAI plays: %s\n", board.UCI(m.S1(), m.S2(), m.Promo()))
	}
}

func (c *Console) printHints() {
	hints := c.sess.Hints()
	if len(hints) == 0 {
		return
	}
	fmt.Fprintln(c.out, "\nAI Move Suggestions:")
	for i, h := range hints {
		fmt.Fprintf(c.out, "%d. Move: %s, Eval: %s\n", i+1, h.Move(), h.Score)
	}
}

func (c *Console) printBoard() {
	b := c.sess.Position().Board()
	flipped := c.sess.Human() == chess.Black

	for row := 0; row < 8; row++ {
		rank := 7 - row
		if flipped {
			rank = row
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d ", rank+1)
		for col := 0; col < 8; col++ {
			file := col
			if flipped {
				file = 7 - col
			}
			sq := chess.Square(file + 8*rank)
			sb.WriteString(c.cell(sq, b.Piece(sq)))
		}
		fmt.Fprintln(c.out, sb.String())
	}

	files := "   a  b  c  d  e  f  g  h"
	if flipped {
		files = "   h  g  f  e  d  c  b  a"
	}
	fmt.Fprintln(c.out, files)
}

func (c *Console) cell(sq chess.Square, p chess.Piece) string {
	if !c.opts.Color {
		if p == chess.NoPiece {
			return " . "
		}
		return " " + fenLetter(p) + " "
	}

	styles := c.squares[board.IsLight(sq)]
	if p == chess.NoPiece {
		return styles[chess.NoColor].Sprint("   ")
	}
	return styles[p.Color()].Sprint(" " + fenLetter(p) + " ")
}

// fenLetter is the piece letter as in FEN: upper case for White.
func fenLetter(p chess.Piece) string {
	name := render.PieceName(p)
	if name == "" {
		return "."
	}
	letter := name[1:]
	if name[0] == 'w' {
		return strings.ToUpper(letter)
	}
	return letter
}

func sideName(c chess.Color) string {
	if c == chess.Black {
		return "Black"
	}
	return "White"
}
