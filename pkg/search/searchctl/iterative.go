package searchctl

import (
	"context"
	"sync"
	"time"

	"github.com/herohde/oppai-go/pkg/field"
	"github.com/herohde/oppai-go/pkg/search"
	"github.com/herohde/oppai-go/pkg/xrand"
	"github.com/seekerror/logw"
	"go.uber.org/atomic"
)

// Searcher runs a single fixed-depth search. search.Mtdf satisfies this
// interface directly; search.NegaScout needs a fixed-window adapter since
// its Search takes an explicit (alpha, beta) pair instead of one guess
// (see pkg/bot's negascoutAdapter).
type Searcher interface {
	Search(f *field.Field, player field.Player, depth int, firstGuess search.Score, emptyBoard []uint32, rng xrand.Source, shouldStop *atomic.Bool) (search.Score, []field.Pos, uint64)
}

// Iterative is a search harness for iterative deepening: it runs
// successively deeper fixed-depth searches, seeding each one's MTD(f)
// first guess with the previous depth's score, publishing a PV after
// every completed depth until Halted or a depth/time limit is reached.
type Iterative struct {
	Search     Searcher
	EmptyBoard []uint32
	Rng        xrand.Source
}

// Launch starts a search of f from player's perspective in the
// background. f must be an exclusive, forked board: Field is not
// thread-safe, and Halt does not wait for an in-flight depth to actually
// unwind before returning, so the caller must not touch f again itself
// (clone it beforehand if it's still needed elsewhere).
func (i *Iterative) Launch(ctx context.Context, f *field.Field, player field.Player, opt Options) (Handle, <-chan search.PV) {
	out := make(chan search.PV, 1)
	h := &handle{init: make(chan struct{})}
	go h.process(ctx, i.Search, f, player, i.EmptyBoard, i.Rng, opt, out)
	return h, out
}

type handle struct {
	init        chan struct{}
	initialized atomic.Bool
	done        atomic.Bool
	pv          search.PV
	mu          sync.Mutex
}

func (h *handle) process(ctx context.Context, searcher Searcher, f *field.Field, player field.Player, emptyBoard []uint32, rng xrand.Source, opt Options, out chan search.PV) {
	defer h.markInitialized()
	defer close(out)

	soft, useSoft := EnforceTimeControl(ctx, h, opt.TimeControl)

	depth := 1
	firstGuess := search.Score(0)
	start := time.Now()
	for !h.done.Load() {
		score, moves, nodes := searcher.Search(f, player, depth, firstGuess, emptyBoard, rng, &h.done)
		if h.done.Load() {
			return // halted mid-depth: the interrupted depth's partial result is not published
		}

		pv := search.PV{Score: score, Moves: moves, Nodes: nodes}
		logw.Debugf(ctx, "Searched depth=%v: %v", depth, pv)

		h.mu.Lock()
		h.pv = pv
		h.mu.Unlock()

		select {
		case <-out:
		default:
		}
		out <- pv

		h.markInitialized()
		firstGuess = score

		if limit, ok := opt.DepthLimit.V(); ok && uint(depth) == limit {
			return // halt: reached max depth
		}
		if useSoft && soft < time.Since(start) {
			return // halt: exceeded soft time limit, do not start a new depth
		}
		depth++
	}
}

func (h *handle) Halt() search.PV {
	<-h.init
	h.done.Store(true)

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pv
}

func (h *handle) markInitialized() {
	if h.initialized.CAS(false, true) {
		close(h.init)
	}
}
