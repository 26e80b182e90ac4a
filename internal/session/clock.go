package session

import (
	"fmt"
	"time"

	"github.com/corentings/chess/v2"
)

// Clock counts down the time of the side to move. The zero value is a
// disabled clock.
type Clock struct {
	White   time.Duration
	Black   time.Duration
	Enabled bool

	last     time.Time
	lastTurn chess.Color
}

// NewClock gives both sides d.
func NewClock(d time.Duration) Clock {
	return Clock{White: d, Black: d, Enabled: d > 0}
}

// Update charges the time since the previous call to the side that was
// to move then, so the moment a move is made still counts against the
// mover. The first call only starts the count.
func (c *Clock) Update(turn chess.Color, now time.Time) {
	if !c.Enabled {
		return
	}
	if c.last.IsZero() {
		c.last, c.lastTurn = now, turn
		return
	}

	delta := now.Sub(c.last)
	if c.lastTurn == chess.White {
		c.White -= delta
	} else {
		c.Black -= delta
	}
	c.last, c.lastTurn = now, turn
}

// Flagged returns the side whose time ran out, or chess.NoColor.
func (c *Clock) Flagged() chess.Color {
	switch {
	case !c.Enabled:
		return chess.NoColor
	case c.White <= 0:
		return chess.White
	case c.Black <= 0:
		return chess.Black
	}
	return chess.NoColor
}

// Remaining returns the time left for c.
func (c *Clock) Remaining(side chess.Color) time.Duration {
	if side == chess.Black {
		return c.Black
	}
	return c.White
}

// FormatClock renders d as mm:ss, never negative.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
