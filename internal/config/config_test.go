package config

import (
	"testing"
	"time"

	"github.com/corentings/chess/v2"
)

func TestDefaultIsValid(t *testing.T) {
	t.Setenv(EngineEnv, "")
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.EnginePath != "stockfish" {
		t.Errorf("EnginePath = %q, want %q", c.EnginePath, "stockfish")
	}
	if c.Highlight != 700*time.Millisecond {
		t.Errorf("Highlight = %s, want 700ms", c.Highlight)
	}
}

func TestDefaultReadsEngineEnv(t *testing.T) {
	t.Setenv(EngineEnv, "/opt/engines/sf")
	if got := Default().EnginePath; got != "/opt/engines/sf" {
		t.Fatalf("EnginePath = %q, want env value", got)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"empty engine", func(c *Config) { c.EnginePath = " " }},
		{"zero think time", func(c *Config) { c.ThinkTime = 0 }},
		{"elo too low", func(c *Config) { c.Elo = 800 }},
		{"elo too high", func(c *Config) { c.Elo = 4000 }},
		{"no color", func(c *Config) { c.HumanColor = chess.NoColor }},
		{"negative highlight", func(c *Config) { c.Highlight = -time.Second }},
		{"no top moves", func(c *Config) { c.TopMoves = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.edit(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	for in, want := range map[string]chess.Color{"white": chess.White, "W": chess.White, " black ": chess.Black, "b": chess.Black} {
		got, err := ParseColor(in)
		if err != nil || got != want {
			t.Errorf("ParseColor(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseColor("red"); err == nil {
		t.Error("ParseColor(red) should fail")
	}
}
