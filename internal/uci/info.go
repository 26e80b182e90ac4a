package uci

import (
	"strconv"
	"strings"
)

// Line is one principal variation reported during a search.
type Line struct {
	MultiPV int
	Depth   int
	Score   Score
	PV      []string
}

// Move returns the first move of the variation, or "" when empty.
func (l Line) Move() string {
	if len(l.PV) == 0 {
		return ""
	}
	return l.PV[0]
}

// parseInfo reads an "info" line. ok is false for lines that carry no
// score, e.g. "info string ..." or currmove updates.
func parseInfo(line string) (l Line, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return Line{}, false
	}
	l.MultiPV = 1
	hasScore := false

	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "string":
			return Line{}, false
		case "depth":
			if i+1 < len(fields) {
				l.Depth, _ = strconv.Atoi(fields[i+1])
				i++
			}
		case "multipv":
			if i+1 < len(fields) {
				if n, err := strconv.Atoi(fields[i+1]); err == nil {
					l.MultiPV = n
				}
				i++
			}
		case "score":
			if i+2 >= len(fields) {
				return Line{}, false
			}
			n, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return Line{}, false
			}
			switch fields[i+1] {
			case "cp":
				l.Score = Score{CP: n}
			case "mate":
				l.Score = Score{Mate: n, IsMate: true}
			default:
				return Line{}, false
			}
			hasScore = true
			i += 2
		case "pv":
			l.PV = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		}
	}
	return l, hasScore
}

// parseBestMove reads "bestmove <move> [ponder <move>]".
func parseBestMove(line string) (move, ponder string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return "", "", false
	}
	move = fields[1]
	if len(fields) >= 4 && fields[2] == "ponder" {
		ponder = fields[3]
	}
	return move, ponder, true
}
