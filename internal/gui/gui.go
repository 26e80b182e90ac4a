// Package gui is the ebiten window: a start menu, the board, an eval bar
// and a move list. All engine work goes through a session so a frame is
// never held up by a search.
package gui

import (
	"errors"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"

	"github.com/dulchik/chess-ai-gui/internal/board"
	"github.com/dulchik/chess-ai-gui/internal/config"
	"github.com/dulchik/chess-ai-gui/internal/render"
	"github.com/dulchik/chess-ai-gui/internal/session"
)

const (
	tileSize     = 80
	boardSize    = tileSize * 8 // 640
	evalBarWidth = 32
	panelWidth   = 248
	screenWidth  = boardSize + evalBarWidth + panelWidth
	screenHeight = boardSize

	evalLimit = 5.0 // pawns at either end of the bar
)

type mode int

const (
	modeMenu mode = iota
	modePlaying
)

// Engine is what the window needs from the engine process.
type Engine interface {
	session.Oracle
	SetElo(elo int) error
	Name() string
}

// App implements ebiten.Game.
type App struct {
	cfg    config.Config
	engine Engine
	log    zerolog.Logger

	mode mode
	menu *menu
	sess *session.Session
	geom board.Geometry

	// menu settings
	human      chess.Color
	twoPlayer  bool
	elo        int
	clock      time.Duration
	engineName string

	fonts  *fonts
	pieces map[string]*ebiten.Image
	board  *ebiten.Image
	err    error
	quit   bool
}

// New prepares the window. Piece images missing from cfg.ImagesDir are
// drawn as letters.
func New(cfg config.Config, engine Engine, log zerolog.Logger) (*App, error) {
	f, err := loadFonts(cfg.FontPath, tileSize)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		engine:     engine,
		log:        log.With().Str("component", "gui").Logger(),
		human:      cfg.HumanColor,
		elo:        cfg.Elo,
		engineName: engine.Name(),
		fonts:      f,
		pieces:     make(map[string]*ebiten.Image),
		board:      ebiten.NewImageFromImage(render.Squares(tileSize)),
		geom:       board.Geometry{Size: tileSize},
	}

	set, err := render.LoadPieces(cfg.ImagesDir)
	if err != nil {
		a.log.Warn().Err(err).Str("dir", cfg.ImagesDir).Msg("some piece images missing, drawing letters instead")
	}
	for name, img := range set {
		a.pieces[name] = ebiten.NewImageFromImage(img)
	}

	a.menu = newMenu(a)
	return a, nil
}

// Run opens the window and blocks until it closes.
func Run(cfg config.Config, engine Engine, log zerolog.Logger) error {
	a, err := New(cfg, engine, log)
	if err != nil {
		return err
	}
	defer a.closeSession()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("AI Powered Chess")
	if err := ebiten.RunGame(a); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return a.err
}

func (a *App) startGame() {
	a.closeSession()

	elo := a.elo
	if a.twoPlayer {
		elo = 0
	}
	if err := a.engine.SetElo(elo); err != nil {
		a.log.Error().Err(err).Msg("set engine strength")
	}

	s, err := session.New(a.engine, session.Options{
		Human:      a.human,
		TwoPlayer:  a.twoPlayer,
		ThinkTime:  a.cfg.ThinkTime,
		EvalTime:   a.cfg.ThinkTime / 2,
		Highlight:  a.cfg.Highlight,
		ReplyDelay: a.cfg.Highlight,
		Clock:      a.clock,
		Log:        a.log,
	})
	if err != nil {
		a.err = err
		a.quit = true
		return
	}
	a.sess = s
	a.geom.Flipped = a.human == chess.Black && !a.twoPlayer
	a.mode = modePlaying
	a.log.Info().Bool("two_player", a.twoPlayer).Int("elo", elo).Msg("game started")
}

func (a *App) closeSession() {
	if a.sess != nil {
		a.sess.Close()
		a.sess = nil
	}
}

func (a *App) Update() error {
	if a.quit {
		return ebiten.Termination
	}
	if a.mode == modeMenu {
		a.menu.Update()
		return nil
	}

	now := time.Now()
	a.sess.Poll(now)
	if err := a.sess.Err(); err != nil {
		a.log.Warn().Err(err).Send()
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		a.closeSession()
		a.mode = modeMenu
		return nil
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		a.sess.Reset()
		return nil
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		a.geom.Flipped = !a.geom.Flipped
	case inpututil.IsKeyJustPressed(ebiten.KeyU):
		a.sess.Undo()
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		a.sess.RequestHints(1)
	}

	// Promotion picker
	if _, _, ok := a.sess.Promoting(); ok {
		a.updatePromotion(now)
		return nil
	}

	// Human input
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if sq, ok := a.geom.SquareAt(x, y); ok {
			a.sess.Click(sq, now)
		}
	}
	return nil
}

// promotionSquares lists the picker cells: the target square and the
// three below it from the mover's side.
func (a *App) promotionSquares() []chess.Square {
	_, to, ok := a.sess.Promoting()
	if !ok {
		return nil
	}
	step := -1
	if to.Rank() == chess.Rank1 {
		step = 1
	}
	out := make([]chess.Square, len(board.PromotionPieces))
	for i := range board.PromotionPieces {
		rank := int(to.Rank()) + step*i
		out[i] = chess.Square(int(to.File()) + 8*rank)
	}
	return out
}

func (a *App) updatePromotion(now time.Time) {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		a.sess.CancelPromotion()
		return
	}
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}

	x, y := ebiten.CursorPosition()
	sq, ok := a.geom.SquareAt(x, y)
	if ok {
		for i, cell := range a.promotionSquares() {
			if cell == sq {
				if err := a.sess.Promote(board.PromotionPieces[i], now); err != nil {
					a.log.Warn().Err(err).Msg("promotion")
				}
				return
			}
		}
	}
	a.sess.CancelPromotion()
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}
