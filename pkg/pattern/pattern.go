// Package pattern implements the DFA-compiled local-neighbourhood pattern
// matcher used for move suggestion during UCT playouts. A template
// describes a small grid around a candidate cell using the symbols
// '.' (empty), '?' (wildcard), 'x' (a stone of the player to move),
// 'o' (a stone of the opponent), '#' (off-board/border), with exactly one
// cell marked '+' -- the suggested move offset, which must also be empty.
// Templates are read-only once compiled; Match is pure.
package pattern

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Symbol is a single compiled alphabet value. Unlike the wildcard used in
// the textual template format, a compiled Symbol is always concrete: the
// DFA has no wildcard edges (see dfa.go).
type Symbol uint8

const (
	SymEmpty Symbol = iota
	SymOwn
	SymOpponent
	SymBorder

	numSymbols = 4
)

// Offset is a coordinate relative to the cell being probed.
type Offset struct {
	DX, DY int
}

// rawSymbol is the textual alphabet, including the wildcard, before
// compilation.
type rawSymbol uint8

const (
	rawEmpty rawSymbol = iota
	rawWild
	rawOwn
	rawOpponent
	rawBorder
)

// Template is one parsed (not yet symmetry-expanded) pattern.
type Template struct {
	Cells   map[Offset]rawSymbol
	Radius  int // Chebyshev radius of the grid
	Suggest Offset
	Weight  float64
}

func parseSymbol(r rune) (rawSymbol, bool, error) {
	switch r {
	case '.':
		return rawEmpty, false, nil
	case '?':
		return rawWild, false, nil
	case 'x':
		return rawOwn, false, nil
	case 'o':
		return rawOpponent, false, nil
	case '#':
		return rawBorder, false, nil
	case '+':
		return rawEmpty, true, nil
	default:
		return 0, false, fmt.Errorf("pattern: invalid symbol %q", r)
	}
}

// ParseTemplate parses a single template block: one or more equal-width
// grid rows, optionally followed by a line "weight <float>" (default
// weight 1.0 if absent). Exactly one cell must be marked '+'.
func ParseTemplate(block string) (Template, error) {
	var rows []string
	weight := 1.0
	weightSeen := false

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			continue
		}
		if w, ok := strings.CutPrefix(line, "weight "); ok {
			v, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
			if err != nil {
				return Template{}, fmt.Errorf("pattern: invalid weight %q: %w", w, err)
			}
			weight, weightSeen = v, true
			continue
		}
		rows = append(rows, line)
	}
	_ = weightSeen

	if len(rows) == 0 {
		return Template{}, fmt.Errorf("pattern: empty template")
	}
	width := len([]rune(rows[0]))
	if width%2 == 0 || len(rows)%2 == 0 {
		return Template{}, fmt.Errorf("pattern: template dimensions must be odd (got %dx%d)", width, len(rows))
	}

	cx, cy := width/2, len(rows)/2
	cells := make(map[Offset]rawSymbol, width*len(rows))

	var suggest Offset
	haveSuggest := false

	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != width {
			return Template{}, fmt.Errorf("pattern: row %d has width %d, want %d", y, len(runes), width)
		}
		for x, r := range runes {
			sym, isSuggest, err := parseSymbol(r)
			if err != nil {
				return Template{}, err
			}
			off := Offset{DX: x - cx, DY: y - cy}
			cells[off] = sym
			if isSuggest {
				if haveSuggest {
					return Template{}, fmt.Errorf("pattern: more than one suggest marker")
				}
				suggest, haveSuggest = off, true
			}
		}
	}
	if !haveSuggest {
		return Template{}, fmt.Errorf("pattern: no suggest marker ('+')")
	}

	radius := cx
	if cy > radius {
		radius = cy
	}
	return Template{Cells: cells, Radius: radius, Suggest: suggest, Weight: weight}, nil
}

// Load parses a newline-delimited sequence of templates, blocks separated
// by one or more blank lines.
func Load(r io.Reader) ([]Template, error) {
	scanner := bufio.NewScanner(r)
	var blocks []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			blocks = append(blocks, cur.String())
			cur.Reset()
		}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	templates := make([]Template, 0, len(blocks))
	for _, b := range blocks {
		t, err := ParseTemplate(b)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// symmetries returns the 8 rotation/reflection transforms of (dx, dy), in
// a fixed order; expandSymmetries applies them to produce every distinct
// oriented variant of a template.
var symmetries = [8]func(Offset) Offset{
	func(o Offset) Offset { return Offset{o.DX, o.DY} },
	func(o Offset) Offset { return Offset{-o.DY, o.DX} },
	func(o Offset) Offset { return Offset{-o.DX, -o.DY} },
	func(o Offset) Offset { return Offset{o.DY, -o.DX} },
	func(o Offset) Offset { return Offset{-o.DX, o.DY} },
	func(o Offset) Offset { return Offset{o.DY, o.DX} },
	func(o Offset) Offset { return Offset{o.DX, -o.DY} },
	func(o Offset) Offset { return Offset{-o.DY, -o.DX} },
}

// expandSymmetries returns the distinct oriented variants of t (4
// rotations x 2 reflections, deduplicated).
func expandSymmetries(t Template) []Template {
	seen := map[string]bool{}
	var out []Template

	for _, tr := range symmetries {
		cells := make(map[Offset]rawSymbol, len(t.Cells))
		for off, sym := range t.Cells {
			cells[tr(off)] = sym
		}
		key := canonicalKey(cells) + fmt.Sprint(tr(t.Suggest))
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, Template{
			Cells:   cells,
			Radius:  t.Radius,
			Suggest: tr(t.Suggest),
			Weight:  t.Weight,
		})
	}
	return out
}

func canonicalKey(cells map[Offset]rawSymbol) string {
	var sb strings.Builder
	// Deterministic order: by DY then DX, over the known square extent.
	radius := 0
	for off := range cells {
		if a := abs(off.DX); a > radius {
			radius = a
		}
		if a := abs(off.DY); a > radius {
			radius = a
		}
	}
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			sym, ok := cells[Offset{x, y}]
			if !ok {
				sb.WriteByte('.')
				continue
			}
			sb.WriteByte('0' + byte(sym) + 1)
		}
	}
	return sb.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
