package gui

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"

	"github.com/dulchik/chess-ai-gui/internal/config"
)

var (
	buttonColor  = color.RGBA{80, 80, 200, 255}
	buttonHover  = color.RGBA{100, 100, 255, 255}
	buttonActive = color.RGBA{40, 160, 90, 255}
	menuBg       = color.RGBA{25, 25, 25, 255}
)

// Button is a clickable label.
type Button struct {
	Rect     image.Rectangle
	Label    string
	OnClick  func()
	Selected func() bool
}

func (b *Button) hovered() bool {
	return image.Pt(ebiten.CursorPosition()).In(b.Rect)
}

// Update fires OnClick on a fresh left press inside the button.
func (b *Button) Update() {
	if b.hovered() && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		b.OnClick()
	}
}

func (b *Button) Draw(screen *ebiten.Image, face font.Face) {
	bg := buttonColor
	switch {
	case b.Selected != nil && b.Selected():
		bg = buttonActive
	case b.hovered():
		bg = buttonHover
	}
	r := b.Rect
	ebitenutil.DrawRect(screen, float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), bg)
	drawCentered(screen, b.Label, face, r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2, color.White)
}

// Slider picks an integer in [Min, Max] by dragging along a line.
type Slider struct {
	X, Y, W  int
	Min, Max int
	Value    int
}

func (s *Slider) Update() {
	mx, my := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) &&
		my >= s.Y-10 && my <= s.Y+10 &&
		mx >= s.X && mx <= s.X+s.W {

		t := float64(mx-s.X) / float64(s.W)
		s.Value = s.Min + int(t*float64(s.Max-s.Min))
	}
}

func (s *Slider) Draw(screen *ebiten.Image) {
	ebitenutil.DrawRect(screen, float64(s.X), float64(s.Y-2), float64(s.W), 4, color.White)
	t := float64(s.Value-s.Min) / float64(s.Max-s.Min)
	ebitenutil.DrawRect(screen, float64(s.X)+t*float64(s.W)-4, float64(s.Y-8), 8, 16, buttonHover)
}

// menu is the screen shown before a game.
type menu struct {
	buttons []*Button
	elo     Slider
	app     *App
}

func newMenu(a *App) *menu {
	m := &menu{app: a}
	cx := screenWidth / 2
	row := func(y int) func(i, n, w int) image.Rectangle {
		return func(i, n, w int) image.Rectangle {
			total := n*w + (n-1)*20
			x := cx - total/2 + i*(w+20)
			return image.Rect(x, y, x+w, y+40)
		}
	}

	mode, side, timer := row(230), row(290), row(400)
	m.elo = Slider{X: cx - 150, Y: 370, W: 300, Min: config.MinElo, Max: config.MaxElo, Value: a.elo}
	if m.elo.Value == 0 {
		m.elo.Value = config.MaxElo
	}

	m.buttons = []*Button{
		{Rect: mode(0, 2, 200), Label: "Play vs AI", OnClick: func() { a.twoPlayer = false }, Selected: func() bool { return !a.twoPlayer }},
		{Rect: mode(1, 2, 200), Label: "Local Multiplayer", OnClick: func() { a.twoPlayer = true }, Selected: func() bool { return a.twoPlayer }},
		{Rect: side(0, 2, 140), Label: "White", OnClick: func() { a.human = chess.White }, Selected: func() bool { return a.human == chess.White }},
		{Rect: side(1, 2, 140), Label: "Black", OnClick: func() { a.human = chess.Black }, Selected: func() bool { return a.human == chess.Black }},
		{Rect: timer(0, 3, 110), Label: "No Timer", OnClick: func() { a.clock = 0 }, Selected: func() bool { return a.clock == 0 }},
		{Rect: timer(1, 3, 110), Label: "3 min", OnClick: func() { a.clock = 3 * time.Minute }, Selected: func() bool { return a.clock == 3*time.Minute }},
		{Rect: timer(2, 3, 110), Label: "5 min", OnClick: func() { a.clock = 5 * time.Minute }, Selected: func() bool { return a.clock == 5*time.Minute }},
		{Rect: image.Rect(cx-100, 470, cx+100, 520), Label: "Start Game", OnClick: a.startGame},
		{Rect: image.Rect(cx-100, 540, cx+100, 590), Label: "Quit", OnClick: func() { a.quit = true }},
	}
	return m
}

func (m *menu) Update() {
	for _, b := range m.buttons {
		b.Update()
	}
	if !m.app.twoPlayer {
		m.elo.Update()
		m.app.elo = m.elo.Value
		if m.elo.Value >= config.MaxElo {
			m.app.elo = 0
		}
	}
}

func (m *menu) Draw(screen *ebiten.Image, f *fonts) {
	screen.Fill(menuBg)
	drawCentered(screen, "AI Powered Chess", f.title, screenWidth/2, screenHeight/5, color.White)
	if name := m.app.engineName; name != "" {
		drawCentered(screen, "engine: "+name, f.text, screenWidth/2, screenHeight/5+50, color.RGBA{180, 180, 180, 255})
	}

	for _, b := range m.buttons {
		b.Draw(screen, f.text)
	}
	if !m.app.twoPlayer {
		label := fmt.Sprintf("AI Elo: %d", m.app.elo)
		if m.app.elo == 0 {
			label = "AI Elo: full strength"
		}
		drawCentered(screen, label, f.text, screenWidth/2, 345, color.White)
		m.elo.Draw(screen)
	}
}

func drawCentered(screen *ebiten.Image, s string, face font.Face, cx, cy int, clr color.Color) {
	b := text.BoundString(face, s)
	text.Draw(screen, s, face, cx-b.Dx()/2-b.Min.X, cy-b.Dy()/2-b.Min.Y, clr)
}
