package pattern

import (
	"io"

	"github.com/herohde/oppai-go/pkg/field"
)

// Suggestion is one move recommendation surfaced by a pattern match,
// expressed as an absolute board position and a weight to add to it.
type Suggestion struct {
	Pos    field.Pos
	Weight float64
}

// acceptEntry is attached to every DFA node that terminates at least one
// compiled template.
type acceptEntry struct {
	suggest Offset
	weight  float64
}

// dfaNode is one state of the compiled automaton. Wildcards are resolved
// at compile time (see insert), so every edge here is concrete: the
// automaton never branches or backtracks at match time.
type dfaNode struct {
	children [numSymbols]*dfaNode
	accept   []acceptEntry
}

// Patterns is a compiled, read-only set of templates, ready to be matched
// against board positions.
type Patterns struct {
	root   *dfaNode
	spiral []Offset
}

// Compile expands every template's 8 symmetries and compiles the result
// into a single deterministic automaton, scanned in a fixed spiral order
// around the probed cell.
func Compile(templates []Template) *Patterns {
	maxRadius := 0
	var variants []Template
	for _, t := range templates {
		for _, v := range expandSymmetries(t) {
			variants = append(variants, v)
			if v.Radius > maxRadius {
				maxRadius = v.Radius
			}
		}
	}

	spiral := spiralOrder(maxRadius)
	root := &dfaNode{}
	for _, v := range variants {
		seq := sequence(v, spiral)
		insert(root, seq, 0, acceptEntry{suggest: v.Suggest, weight: v.Weight})
	}
	return &Patterns{root: root, spiral: spiral}
}

// LoadAndCompile reads templates with Load and compiles them directly.
func LoadAndCompile(r io.Reader) (*Patterns, error) {
	templates, err := Load(r)
	if err != nil {
		return nil, err
	}
	return Compile(templates), nil
}

// sequence returns v's required symbol at every spiral offset up to v's
// own radius; offsets beyond v's extent are not part of the sequence (the
// template simply accepts at that depth, matching every longer scan that
// continues past it).
func sequence(v Template, spiral []Offset) []rawSymbol {
	var seq []rawSymbol
	for _, off := range spiral {
		if chebyshev(off) > v.Radius {
			break
		}
		sym, ok := v.Cells[off]
		if !ok {
			sym = rawWild
		}
		seq = append(seq, sym)
	}
	return seq
}

func insert(node *dfaNode, seq []rawSymbol, idx int, entry acceptEntry) {
	if idx == len(seq) {
		node.accept = append(node.accept, entry)
		return
	}
	sym := seq[idx]
	if sym == rawWild {
		for s := Symbol(0); s < numSymbols; s++ {
			insert(child(node, s), seq, idx+1, entry)
		}
		return
	}
	insert(child(node, concreteSymbol(sym)), seq, idx+1, entry)
}

func child(node *dfaNode, s Symbol) *dfaNode {
	if node.children[s] == nil {
		node.children[s] = &dfaNode{}
	}
	return node.children[s]
}

func concreteSymbol(sym rawSymbol) Symbol {
	switch sym {
	case rawEmpty:
		return SymEmpty
	case rawOwn:
		return SymOwn
	case rawOpponent:
		return SymOpponent
	case rawBorder:
		return SymBorder
	default:
		panic("pattern: wildcard has no concrete symbol")
	}
}

func chebyshev(o Offset) int {
	a, b := abs(o.DX), abs(o.DY)
	if a > b {
		return a
	}
	return b
}

// spiralOrder returns every offset within Chebyshev distance maxRadius of
// the origin, ring by ring, each ring walked clockwise from its top-left
// corner. The origin itself comes first.
func spiralOrder(maxRadius int) []Offset {
	out := []Offset{{0, 0}}
	for r := 1; r <= maxRadius; r++ {
		out = append(out, ring(r)...)
	}
	return out
}

func ring(r int) []Offset {
	var out []Offset
	for x := -r; x <= r; x++ {
		out = append(out, Offset{x, -r})
	}
	for y := -r + 1; y <= r; y++ {
		out = append(out, Offset{r, y})
	}
	for x := r - 1; x >= -r; x-- {
		out = append(out, Offset{x, r})
	}
	for y := r - 1; y >= -r+1; y-- {
		out = append(out, Offset{-r, y})
	}
	return out
}

// symbolAt classifies the cell at (x, y) relative to mover. Coordinates
// further outside the board than the one-cell sentinel border (which
// Field itself represents) are still valid queries here: they simply
// always read as border.
func symbolAt(f *field.Field, x, y int, mover field.Player) Symbol {
	if x < -1 || y < -1 || x > f.Width() || y > f.Height() {
		return SymBorder
	}
	c := f.Cell(f.ToPos(x, y))
	switch {
	case !c.IsBound():
		return SymBorder
	case c.IsPointOf(mover):
		return SymOwn
	case c.IsPointOf(mover.Opponent()):
		return SymOpponent
	default:
		return SymEmpty
	}
}

// Match scans outward from pos in spiral order and returns every
// suggestion reachable in the automaton, i.e. every template (over all 8
// orientations) whose constraints are satisfied by the neighbourhood of
// pos from mover's perspective.
func (p *Patterns) Match(f *field.Field, pos field.Pos, mover field.Player) []Suggestion {
	x0, y0 := f.ToX(pos), f.ToY(pos)

	var out []Suggestion
	collect := func(n *dfaNode) {
		for _, e := range n.accept {
			sx, sy := x0+e.suggest.DX, y0+e.suggest.DY
			if sx < 0 || sy < 0 || sx >= f.Width() || sy >= f.Height() {
				continue
			}
			out = append(out, Suggestion{Pos: f.ToPos(sx, sy), Weight: e.weight})
		}
	}

	node := p.root
	collect(node)
	for _, off := range p.spiral {
		next := node.children[symbolAt(f, x0+off.DX, y0+off.DY, mover)]
		if next == nil {
			break
		}
		node = next
		collect(node)
	}
	return out
}

// MatchAll is Match, aggregated by suggested position (summing weights
// from every template that recommended it).
func (p *Patterns) MatchAll(f *field.Field, pos field.Pos, mover field.Player) map[field.Pos]float64 {
	out := map[field.Pos]float64{}
	for _, s := range p.Match(f, pos, mover) {
		out[s.Pos] += s.Weight
	}
	return out
}
