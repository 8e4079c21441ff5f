// Package search implements full-width minimax search of the field game
// tree: NegaScout (principal variation search) and MTD(f) drivers sharing
// a lock-free transposition table, with trajectory pruning (see
// pkg/trajectory) cutting the branching factor at every node.
package search

import (
	"errors"

	"github.com/herohde/oppai-go/pkg/field"
)

// ErrHalted indicates the search was stopped before completing, via its
// should-stop flag. Partial results (best move found so far) remain
// valid; only the guarantee of completeness is lost.
var ErrHalted = errors.New("search halted")

// Score is a position evaluation from the perspective of the player to
// move: positive favors that player. There is no mate-distance concept in
// this domain (the game always ends by board exhaustion, never a forced
// terminal sequence worth preferring over a higher score), so Score is
// simply a signed point differential.
type Score int32

const (
	// MinScore and MaxScore bound Score such that negating either, or
	// adding/subtracting 1, never overflows int32.
	MinScore Score = -(1 << 30)
	MaxScore Score = 1 << 30
)

// Negate flips perspective.
func (s Score) Negate() Score { return -s }

// PV is the result of a completed (or halted) search.
type PV struct {
	Score Score
	Moves []field.Pos
	Nodes uint64
}

// Evaluator produces a static leaf evaluation from player's perspective.
type Evaluator interface {
	Evaluate(f *field.Field, player field.Player) Score
}

// TerritoryEvaluator is the default Evaluator: the current signed
// territory score (captures already applied incrementally by Field),
// oriented to player.
type TerritoryEvaluator struct{}

func (TerritoryEvaluator) Evaluate(f *field.Field, player field.Player) Score {
	s := Score(f.Score())
	if player == field.Black {
		s = -s
	}
	return s
}
