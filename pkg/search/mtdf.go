package search

import (
	"github.com/herohde/oppai-go/pkg/field"
	"github.com/herohde/oppai-go/pkg/xrand"
	"go.uber.org/atomic"
)

// Mtdf implements MTD(f): a sequence of increasingly tight zero-window
// NegaScout calls that converge on the minimax value, typically visiting
// fewer nodes than a single full-window search when seeded with a good
// first guess (e.g. the previous iterative-deepening pass's score). See:
// https://en.wikipedia.org/wiki/MTD-f.
type Mtdf struct {
	Scout NegaScout
}

// Search runs MTD(f) to a fixed depth, seeded with firstGuess (typically
// the score from the previous, shallower iterative-deepening pass; 0 is a
// reasonable guess with nothing better available).
func (m Mtdf) Search(f *field.Field, player field.Player, depth int, firstGuess Score, emptyBoard []uint32, rng xrand.Source, shouldStop *atomic.Bool) (Score, []field.Pos, uint64) {
	g := firstGuess
	lower, upper := MinScore, MaxScore
	var pv []field.Pos
	var nodes uint64

	for lower < upper {
		if shouldStop != nil && shouldStop.Load() {
			break
		}

		beta := g
		if g == lower {
			beta = g + 1
		}

		score, line, n := m.Scout.Search(f, player, depth, beta-1, beta, emptyBoard, rng, shouldStop)
		nodes += n
		g = score
		if len(line) > 0 {
			pv = line
		}

		if g < beta {
			upper = g
		} else {
			lower = g
		}
	}
	return g, pv, nodes
}
