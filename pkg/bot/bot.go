// Package bot is the playing façade over the search core: it owns the
// mutable board and picks between the UCT, minimax, and heuristic
// solvers under a wall-clock deadline. Mirrors the shape of the teacher's
// pkg/engine.Engine (mutex-guarded board + config, functional-option
// construction, WithXxx helpers), generalized from a chess engine's
// Move/TakeBack/Analyze surface to Points' simpler put/undo/best-move one.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/herohde/oppai-go/pkg/field"
	"github.com/herohde/oppai-go/pkg/pattern"
	"github.com/herohde/oppai-go/pkg/search"
	"github.com/herohde/oppai-go/pkg/search/searchctl"
	"github.com/herohde/oppai-go/pkg/trajectory"
	"github.com/herohde/oppai-go/pkg/uct"
	"github.com/herohde/oppai-go/pkg/version"
	"github.com/herohde/oppai-go/pkg/xrand"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"go.uber.org/atomic"
	"sync"
)

// Bot encapsulates a single game's board state plus the configured
// solvers.
type Bot struct {
	name string

	zt   *field.ZobristTable
	seed int64
	cfg  Config

	factory  search.TranspositionTableFactory
	patterns *pattern.Patterns

	f      *field.Field
	tt     search.TranspositionTable
	active searchctl.Handle
	mu     sync.Mutex
}

// Option is a bot creation option.
type Option func(*Bot)

// WithTable configures the bot to use the given transposition table
// factory for the minimax solver instead of the in-memory default.
func WithTable(factory search.TranspositionTableFactory) Option {
	return func(b *Bot) {
		b.factory = factory
	}
}

// WithZobristSeed configures the bot to seed its Zobrist table and RNGs
// from the given value instead of the board-construction default.
func WithZobristSeed(seed int64) Option {
	return func(b *Bot) {
		b.seed = seed
	}
}

// WithPatterns configures the pattern matcher used by the UCT playout
// policy and the heuristic solver. Without one, UCT playouts fall back to
// uniform sampling and the heuristic solver plays the first
// putting-allowed cell.
func WithPatterns(patterns *pattern.Patterns) Option {
	return func(b *Bot) {
		b.patterns = patterns
	}
}

// New creates a bot for a board of the given size. Returns an error if
// the board dimensions or config are out of range: a zero ThreadsCount or
// HashTableSize is never a usable configuration (use DefaultConfig and
// override individual fields instead of zero-valuing a Config literal).
func New(width, height int, seed int64, config Config, opts ...Option) (*Bot, error) {
	if width < MinBoardSize || width > MaxBoardSize || height < MinBoardSize || height > MaxBoardSize {
		return nil, fmt.Errorf("invalid board size: %dx%d, want [%d,%d] per side", width, height, MinBoardSize, MaxBoardSize)
	}
	if config.Minimax.ThreadsCount == 0 {
		return nil, fmt.Errorf("invalid config: Minimax.ThreadsCount must be > 0")
	}
	if config.Minimax.HashTableSize == 0 {
		return nil, fmt.Errorf("invalid config: Minimax.HashTableSize must be > 0")
	}
	if config.Uct.ThreadsCount == 0 {
		return nil, fmt.Errorf("invalid config: Uct.ThreadsCount must be > 0")
	}

	b := &Bot{
		seed:    seed,
		cfg:     config,
		factory: search.NewTranspositionTable,
	}
	for _, fn := range opts {
		fn(b)
	}

	b.zt = field.NewZobristTable(width, height, b.seed)
	b.f = field.New(width, height, b.zt)
	b.tt = b.factory(context.Background(), config.Minimax.HashTableSize)

	logw.Infof(context.Background(), "Initialized bot: %v, config=%v", b.Name(), b.cfg)
	return b, nil
}

// Name returns the bot name and version.
func (b *Bot) Name() string {
	return fmt.Sprintf("oppai-go %v", version.Version)
}

// Config returns the bot's current configuration.
func (b *Bot) Config() Config {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.cfg
}

// PutPoint places a stone for player at (x, y). Returns false if the move
// is not allowed.
func (b *Bot) PutPoint(x, y int, player field.Player) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos := b.f.ToPos(x, y)
	ok := b.f.PutPoint(pos, player)
	if ok {
		logw.Debugf(context.Background(), "Put %v at (%d,%d): score=%v", player, x, y, b.f.Score())
	}
	return ok
}

// Undo reverts the last move, if any.
func (b *Bot) Undo() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.f.Undo()
}

// BestMove searches for player's best move, stopping by deadline, and
// returns false if there is no legal move.
func (b *Bot) BestMove(ctx context.Context, player field.Player, deadline time.Time) (field.Pos, bool) {
	b.mu.Lock()
	f := b.f.Clone()
	cfg := b.cfg
	tt := b.tt
	patterns := b.patterns
	seed := b.seed
	b.mu.Unlock()

	if f.IsGameOver() {
		return field.ZeroPos, false
	}

	switch cfg.Solver {
	case SolverHeuristic:
		return heuristicMove(f, player, patterns)
	case SolverMinimax:
		if pos, ok := b.minimaxMove(ctx, f, player, deadline, cfg, tt, seed); ok {
			return pos, true
		}
		return heuristicMove(f, player, patterns)
	default:
		return b.uctMove(ctx, f, player, deadline, cfg, patterns, seed)
	}
}

func (b *Bot) uctMove(ctx context.Context, f *field.Field, player field.Player, deadline time.Time, cfg Config, patterns *pattern.Patterns, seed int64) (field.Pos, bool) {
	budget := time.Until(deadline) - time.Duration(cfg.TimeGapMs)*time.Millisecond
	if budget <= 0 {
		budget = 0
	}

	stop := atomic.NewBool(false)
	timer := time.AfterFunc(budget, func() { stop.Store(true) })
	defer timer.Stop()

	e := &uct.Engine{Cfg: cfg.Uct.toEngineConfig(), Patterns: patterns}
	return e.Search(ctx, f, player, seed, stop)
}

func (b *Bot) minimaxMove(ctx context.Context, f *field.Field, player field.Player, deadline time.Time, cfg Config, tt search.TranspositionTable, seed int64) (field.Pos, bool) {
	sorting := trajectory.SortTrajectoriesCount
	ns := search.NegaScout{
		Eval:         search.TerritoryEvaluator{},
		TT:           tt,
		Sorting:      sorting,
		Rebuild:      cfg.Minimax.RebuildTrajectories,
		ThreadsCount: cfg.Minimax.ThreadsCount,
	}

	var searcher searchctl.Searcher = search.Mtdf{Scout: ns}
	if cfg.Minimax.MinimaxType == MinimaxNegaScout {
		searcher = negascoutAdapter{ns}
	}

	board := make([]uint32, (f.Width()+2)*(f.Height()+2))
	it := &searchctl.Iterative{Search: searcher, EmptyBoard: board, Rng: xrand.New(seed, 0)}

	opt := searchctl.Options{TimeControl: lang.Some(searchctl.TimeControl{
		Deadline: deadline,
		TimeGap:  time.Duration(cfg.TimeGapMs) * time.Millisecond,
	})}

	h, out := it.Launch(ctx, f, player, opt)
	for range out {
		// drain until the iterative loop halts on its own or the caller does.
	}
	pv := h.Halt()
	if len(pv.Moves) == 0 {
		return field.ZeroPos, false
	}
	return pv.Moves[0], true
}

// negascoutAdapter adapts search.NegaScout's 5-return-value-free Search
// signature (fixed alpha/beta window) to searchctl.Searcher's single-depth
// contract, always searching the full [MinScore, MaxScore] window instead
// of MTD(f)'s narrowing one.
type negascoutAdapter struct {
	ns search.NegaScout
}

func (a negascoutAdapter) Search(f *field.Field, player field.Player, depth int, firstGuess search.Score, emptyBoard []uint32, rng xrand.Source, shouldStop *atomic.Bool) (search.Score, []field.Pos, uint64) {
	return a.ns.Search(f, player, depth, search.MinScore, search.MaxScore, emptyBoard, rng, shouldStop)
}

// heuristicMove picks the putting-allowed cell with the highest summed
// pattern weight around the last move played, falling back to the first
// legal cell found if there is no pattern match (or no patterns at all).
func heuristicMove(f *field.Field, player field.Player, patterns *pattern.Patterns) (field.Pos, bool) {
	if patterns != nil {
		lastPos := field.ZeroPos
		if f.MovesCount() > 0 {
			moves := f.ColoredMoves()
			lastPos = moves[len(moves)-1].Pos
		}

		weights := patterns.MatchAll(f, lastPos, player)
		best, bestWeight, found := field.ZeroPos, 0.0, false
		for pos, w := range weights {
			if !f.IsPuttingAllowed(pos, player) {
				continue
			}
			if !found || w > bestWeight {
				best, bestWeight, found = pos, w, true
			}
		}
		if found {
			return best, true
		}
	}

	for pos := f.MinPos(); pos <= f.MaxPos(); pos++ {
		if f.IsPuttingAllowed(pos, player) {
			return pos, true
		}
	}
	return field.ZeroPos, false
}
