// Package uct implements a parallel Monte-Carlo tree search (UCT) engine
// for Points: an arena-indexed tree of atomically-updated nodes, lazily
// expanded, selected by UCB1 or UCB1-Tuned, simulated with a
// pattern-weighted playout policy and an optional dynamic komi
// correction. There is no single teacher file this mirrors move-for-move
// -- the teacher engine has no MCTS package of its own -- so the concurrency idioms
// (go.uber.org/atomic counters, should_stop polling, per-worker
// xrand.Source) are carried over from pkg/search/searchctl, the config
// surface and its default values are carried over verbatim from the
// original's src/config.rs (the only one of the two retrieved), and the
// selection/backup algorithm itself is built from spec prose plus the
// standard published UCB1/UCB1-Tuned formulas (see DESIGN.md).
package uct

import "fmt"

// UcbType selects the child-selection formula. Mirrors the original's
// UcbType enum in src/config.rs.
type UcbType int

const (
	Ucb1 UcbType = iota
	Ucb1Tuned
)

func (t UcbType) String() string {
	if t == Ucb1Tuned {
		return "ucb1-tuned"
	}
	return "ucb1"
}

// Config holds the tunables of a single Engine.Search call. Field names
// and defaults mirror the original's src/config.rs static values.
type Config struct {
	// ThreadsCount is the number of goroutines sharing the tree.
	ThreadsCount int
	// Iterations caps the number of playouts; 0 means no cap (time/
	// cancellation governs termination instead).
	Iterations int
	// UcbType selects UCB1 or UCB1-Tuned child selection.
	UcbType UcbType
	// DrawWeight is the credit given to a drawn playout, 0 < w < 1.
	DrawWeight float64
	// Uctk is the exploration constant multiplying the UCB bonus term.
	Uctk float64
	// WhenCreateChildren is the visit count at which a leaf's children
	// are materialized.
	WhenCreateChildren int
	// Depth is the playout cutoff depth (in plies past the node).
	Depth int
	// Radius bounds playout move generation to cells within this
	// Chebyshev distance of an existing stone (mirrors the original's
	// uct_radius); 0 or less disables the restriction.
	Radius int
	// DynamicKomi enables the periodic root-komi adjustment.
	DynamicKomi bool
	// Red and Green are the win-rate thresholds that the dynamic komi
	// adjustment nudges against.
	Red, Green float64
	// KomiInterval is how often (in iterations) the komi is reconsidered.
	KomiInterval int
	// KomiMinIterations is the minimum root visit count before dynamic
	// komi starts adjusting.
	KomiMinIterations int
}

func (c Config) String() string {
	return fmt.Sprintf("uct[threads=%d iter=%d ucb=%v drawWeight=%.2f uctk=%.2f whenCreate=%d depth=%d komi=%v]",
		c.ThreadsCount, c.Iterations, c.UcbType, c.DrawWeight, c.Uctk, c.WhenCreateChildren, c.Depth, c.DynamicKomi)
}

// DefaultConfig mirrors the original's static config.rs defaults.
func DefaultConfig() Config {
	return Config{
		ThreadsCount:       4,
		Iterations:         0,
		UcbType:            Ucb1Tuned,
		DrawWeight:         0.4,
		Uctk:               1.0,
		WhenCreateChildren: 2,
		Depth:              8,
		Radius:             3,
		DynamicKomi:        false,
		Red:                0.45,
		Green:              0.5,
		KomiInterval:       10,
		KomiMinIterations:  1000,
	}
}
