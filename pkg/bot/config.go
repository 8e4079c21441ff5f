package bot

import (
	"fmt"

	"github.com/herohde/oppai-go/pkg/uct"
)

// MinBoardSize and MaxBoardSize bound both board dimensions New accepts,
// mirroring the original server's server/src/message.rs FieldSize::MIN_SIZE
// / MAX_SIZE.
const (
	MinBoardSize = 10
	MaxBoardSize = 50
)

// Solver selects which search engine BestMove consults. Mirrors the
// original's src/config.rs Solver enum.
type Solver int

const (
	SolverUct Solver = iota
	SolverMinimax
	SolverHeuristic
)

func (s Solver) String() string {
	switch s {
	case SolverUct:
		return "uct"
	case SolverMinimax:
		return "minimax"
	case SolverHeuristic:
		return "heuristic"
	default:
		return fmt.Sprintf("solver(%d)", int(s))
	}
}

// MinimaxType selects between NegaScout and MTD(f) at the root.
type MinimaxType int

const (
	MinimaxNegaScout MinimaxType = iota
	MinimaxMtdf
)

func (m MinimaxType) String() string {
	if m == MinimaxMtdf {
		return "mtdf"
	}
	return "negascout"
}

// UctConfig configures the pkg/uct engine. Field names and defaults mirror
// the original's src/config.rs verbatim (see uct.DefaultConfig).
type UctConfig struct {
	ThreadsCount, Iterations int
	UcbType                  uct.UcbType
	DrawWeight, Uctk         float64
	WhenCreateChildren       int
	Depth                    int
	DynamicKomi              bool
	Red, Green               float64
	KomiInterval             int
	KomiMinIterations        int
	Radius                   int
}

func (c UctConfig) toEngineConfig() uct.Config {
	return uct.Config{
		ThreadsCount:       c.ThreadsCount,
		Iterations:         c.Iterations,
		UcbType:            c.UcbType,
		DrawWeight:         c.DrawWeight,
		Uctk:               c.Uctk,
		WhenCreateChildren: c.WhenCreateChildren,
		Depth:              c.Depth,
		Radius:             c.Radius,
		DynamicKomi:        c.DynamicKomi,
		Red:                c.Red,
		Green:              c.Green,
		KomiInterval:       c.KomiInterval,
		KomiMinIterations:  c.KomiMinIterations,
	}
}

// DefaultUctConfig mirrors oppai-go/pkg/uct.DefaultConfig.
func DefaultUctConfig() UctConfig {
	d := uct.DefaultConfig()
	return UctConfig{
		ThreadsCount:       d.ThreadsCount,
		Iterations:         d.Iterations,
		UcbType:            d.UcbType,
		DrawWeight:         d.DrawWeight,
		Uctk:               d.Uctk,
		WhenCreateChildren: d.WhenCreateChildren,
		Depth:              d.Depth,
		DynamicKomi:        d.DynamicKomi,
		Red:                d.Red,
		Green:              d.Green,
		KomiInterval:       d.KomiInterval,
		KomiMinIterations:  d.KomiMinIterations,
		Radius:             d.Radius,
	}
}

// MinimaxConfig configures the pkg/search engine.
type MinimaxConfig struct {
	ThreadsCount        int
	MinimaxType         MinimaxType
	HashTableSize       uint64
	RebuildTrajectories bool
}

// DefaultMinimaxConfig mirrors typical NegaScout/MTD(f) defaults.
func DefaultMinimaxConfig() MinimaxConfig {
	return MinimaxConfig{
		ThreadsCount:        4,
		MinimaxType:         MinimaxMtdf,
		HashTableSize:       1 << 20,
		RebuildTrajectories: true,
	}
}

// Config is the bot's full configuration surface, matching §6 of the
// design verbatim.
type Config struct {
	Solver    Solver
	TimeGapMs uint32
	Uct       UctConfig
	Minimax   MinimaxConfig
}

func (c Config) String() string {
	return fmt.Sprintf("{solver=%v, timeGap=%vms}", c.Solver, c.TimeGapMs)
}

// DefaultConfig is a reasonable starting point for New.
func DefaultConfig() Config {
	return Config{
		Solver:    SolverUct,
		TimeGapMs: 300,
		Uct:       DefaultUctConfig(),
		Minimax:   DefaultMinimaxConfig(),
	}
}
