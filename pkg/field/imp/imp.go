// Package imp decodes and encodes the field import format used by tests:
// a multi-line string where '.' is empty, lowercase letters ('a'..) mark
// Red moves in play order, and uppercase letters ('A'..) mark Black moves
// in play order, each letter's position being its move coordinate. It
// plays the same role here that pkg/board/fen plays for the teacher's
// chess board: a compact, human-writable notation used exclusively by
// tests, never by the search core itself.
package imp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/herohde/oppai-go/pkg/field"
)

type placement struct {
	x, y   int
	letter byte
	player field.Player
}

// Decode parses the textual board notation into a fresh Field, applying
// moves in the order implied by their letters (a < b < c.. and A < B < C..
// independently; the two sequences are interleaved by letter rank, Red and
// Black alternating as implied by rank order, lowest rank first).
func Decode(s string, zt *field.ZobristTable) (*field.Field, error) {
	lines := nonEmptyLines(s)
	if len(lines) == 0 {
		return nil, fmt.Errorf("imp: empty board")
	}

	height := len(lines)
	width := len([]rune(lines[0]))

	var placements []placement
	for y, line := range lines {
		runes := []rune(line)
		if len(runes) != width {
			return nil, fmt.Errorf("imp: row %d has width %d, want %d", y, len(runes), width)
		}
		for x, r := range runes {
			switch {
			case r == '.':
				// empty
			case r >= 'a' && r <= 'z':
				placements = append(placements, placement{x: x, y: y, letter: byte(r), player: field.Red})
			case r >= 'A' && r <= 'Z':
				placements = append(placements, placement{x: x, y: y, letter: byte(r), player: field.Black})
			default:
				return nil, fmt.Errorf("imp: invalid symbol %q at (%d,%d)", r, x, y)
			}
		}
	}

	sort.Slice(placements, func(i, j int) bool {
		ri := rank(placements[i])
		rj := rank(placements[j])
		if ri != rj {
			return ri < rj
		}
		return placements[i].player == field.Red && placements[j].player == field.Black
	})

	f := field.New(width, height, zt)
	for _, p := range placements {
		if !f.PutPoint(f.ToPos(p.x, p.y), p.player) {
			return nil, fmt.Errorf("imp: move %c at (%d,%d) not allowed", p.letter, p.x, p.y)
		}
	}
	return f, nil
}

// rank orders placements by letter within their own color's sequence
// (lowercase and uppercase letters are independent move-order sequences).
func rank(p placement) int {
	if p.player == field.Red {
		return int(p.letter - 'a')
	}
	return int(p.letter - 'A')
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Encode renders the current position using the import notation, labeling
// moves by play order. Panics if there are more than 26 moves of either
// color (the notation has no provision for that; callers needing more
// should use Field directly).
func Encode(f *field.Field) string {
	width, height := f.Width(), f.Height()
	grid := make([][]byte, height)
	for y := range grid {
		grid[y] = make([]byte, width)
		for x := range grid[y] {
			grid[y][x] = '.'
		}
	}

	var reds, blacks int
	for _, m := range f.ColoredMoves() {
		x, y := f.ToX(m.Pos), f.ToY(m.Pos)
		if m.Player == field.Red {
			if reds == 26 {
				panic("imp: more than 26 red moves")
			}
			grid[y][x] = 'a' + byte(reds)
			reds++
		} else {
			if blacks == 26 {
				panic("imp: more than 26 black moves")
			}
			grid[y][x] = 'A' + byte(blacks)
			blacks++
		}
	}

	var sb strings.Builder
	for y, row := range grid {
		if y > 0 {
			sb.WriteByte('\n')
		}
		sb.Write(row)
	}
	return sb.String()
}
