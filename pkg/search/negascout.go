package search

import (
	"sync"

	"github.com/herohde/oppai-go/pkg/field"
	"github.com/herohde/oppai-go/pkg/trajectory"
	"github.com/herohde/oppai-go/pkg/xrand"
	"go.uber.org/atomic"
)

// NegaScout implements principal variation search (negamax with a
// null-window scout and fail-high re-search) over Field, with moves
// ordered by trajectory pruning at every node. Pseudo-code:
//
//	function pvs(node, depth, a, b, color) is
//	    if depth = 0 or node is a terminal node then
//	        return color x the heuristic value of node
//	    for each child of node do
//	        if child is first child then
//	            score := -pvs(child, depth-1, -b, -a, -color)
//	        else
//	            score := -pvs(child, depth-1, -a-1, -a, -color)
//	            if a < score < b then
//	                score := -pvs(child, depth-1, -b, -score, -color)
//	        a := max(a, score)
//	        if a >= b then
//	            break
//	    return a
//
// See: https://en.wikipedia.org/wiki/Principal_variation_search.
type NegaScout struct {
	Eval    Evaluator
	TT      TranspositionTable
	Sorting trajectory.MovesSorting
	Rebuild bool // mirrors config.rebuild_trajectories(): FromLast rebuilds the side to move's trajectories from scratch instead of reusing them

	// ThreadsCount, when > 1, splits the root's candidate moves across
	// that many workers instead of searching them on one goroutine: each
	// worker clones f and searches its share of the root moves to the
	// recursive search below, sharing TT and a single atomic alpha that
	// tightens as soon as any worker improves on it. Mtdf calls Search
	// with a (beta-1, beta) null window, so the same mechanism also
	// root-splits MTD(f)'s narrow-window passes.
	ThreadsCount int
}

// Search runs NegaScout to a fixed depth, returning the score and
// principal variation from player's perspective. f is mutated and
// restored (PutPoint/Undo) during the search, not cloned; callers running
// in parallel (including NegaScout's own root-split workers) must clone
// the Field per worker.
func (n NegaScout) Search(f *field.Field, player field.Player, depth int, alpha, beta Score, emptyBoard []uint32, rng xrand.Source, shouldStop *atomic.Bool) (Score, []field.Pos, uint64) {
	root := trajectory.New(f, player, depth, emptyBoard, rng, shouldStop, n.Sorting)
	moves := root.Moves()

	if n.ThreadsCount > 1 && depth > 0 && len(moves) > 1 && !f.IsGameOver() {
		return n.searchRootParallel(f, player, depth, alpha, beta, emptyBoard, rng, shouldStop, root, moves)
	}

	run := &runNegaScout{n: n, f: f, emptyBoard: emptyBoard, rng: rng, shouldStop: shouldStop}
	score, pv := run.search(depth, alpha, beta, player, root)
	return score, pv, run.nodes
}

// searchRootParallel is NegaScout's root move loop (the first-ply body of
// runNegaScout.search), fanned out across n.ThreadsCount workers instead
// of run sequentially. Each worker gets its own cloned Field, empty-board
// scratch buffer, and forked RNG; root (the Pruning already built for this
// node) is read-only from here on (trajectory.FromLast never mutates its
// parent), so sharing it across workers needs no synchronization.
func (n NegaScout) searchRootParallel(f *field.Field, player field.Player, depth int, alpha, beta Score, emptyBoard []uint32, rng xrand.Source, shouldStop *atomic.Bool, root trajectory.Pruning, moves []field.Pos) (Score, []field.Pos, uint64) {
	hash := f.Hash()
	origAlpha := alpha
	var hint field.Pos
	haveHint := false

	if n.TT != nil {
		if bound, ttDepth, score, move, ok := n.TT.Read(hash); ok {
			hint, haveHint = move, true
			if ttDepth >= depth {
				switch bound {
				case ExactBound:
					return score, []field.Pos{move}, 0
				case LowerBound:
					if score > alpha {
						alpha = score
					}
				case UpperBound:
					if score < beta {
						beta = score
					}
				}
				if alpha >= beta {
					return score, []field.Pos{move}, 0
				}
			}
		}
	}
	if haveHint {
		moveHintFirst(moves, hint)
	}

	sharedAlpha := atomic.NewInt64(int64(alpha))

	jobs := make(chan field.Pos)
	go func() {
		defer close(jobs)
		for _, m := range moves {
			if (shouldStop != nil && shouldStop.Load()) || Score(sharedAlpha.Load()) >= beta {
				return
			}
			jobs <- m
		}
	}()

	var mu sync.Mutex
	best := MinScore
	var bestMove field.Pos
	var bestPV []field.Pos
	found := false
	var totalNodes uint64

	var wg sync.WaitGroup
	for w := 0; w < n.ThreadsCount; w++ {
		wg.Add(1)
		go func(wrng xrand.Source) {
			defer wg.Done()

			wf := f.Clone()
			wEmpty := make([]uint32, len(emptyBoard))
			run := &runNegaScout{n: n, f: wf, emptyBoard: wEmpty, rng: wrng, shouldStop: shouldStop}

			for m := range jobs {
				a := Score(sharedAlpha.Load())
				if a >= beta {
					continue
				}

				wf.PutPoint(m, player)
				child := trajectory.FromLast(wf, player.Opponent(), depth-1, wEmpty, wrng, root, m, shouldStop, n.Rebuild, n.Sorting)
				s, pvline := run.search(depth-1, beta.Negate(), a.Negate(), player.Opponent(), child)
				score := s.Negate()
				wf.Undo()

				mu.Lock()
				if !found || score > best {
					best, bestMove, found = score, m, true
					bestPV = append([]field.Pos{m}, pvline...)
				}
				mu.Unlock()

				for {
					cur := sharedAlpha.Load()
					if int64(score) <= cur {
						break
					}
					if sharedAlpha.CAS(cur, int64(score)) {
						break
					}
				}
			}

			mu.Lock()
			totalNodes += run.nodes
			mu.Unlock()
		}(rng.Fork(w))
	}
	wg.Wait()

	if !found {
		return n.Eval.Evaluate(f, player), nil, totalNodes
	}

	if n.TT != nil && !(shouldStop != nil && shouldStop.Load()) {
		bound := ExactBound
		switch {
		case best <= origAlpha:
			bound = UpperBound
		case best >= beta:
			bound = LowerBound
		}
		n.TT.Write(hash, bound, depth, best, bestMove)
	}

	return best, bestPV, totalNodes
}

type runNegaScout struct {
	n          NegaScout
	f          *field.Field
	emptyBoard []uint32
	rng        xrand.Source
	shouldStop *atomic.Bool
	nodes      uint64
}

func (r *runNegaScout) cancelled() bool {
	return r.shouldStop != nil && r.shouldStop.Load()
}

// search returns the score of the position from player's perspective,
// along with the line of play that achieves it. pruning is the Pruning
// already computed for this node (by the caller, incrementally from its
// parent's).
func (r *runNegaScout) search(depth int, alpha, beta Score, player field.Player, pruning trajectory.Pruning) (Score, []field.Pos) {
	r.nodes++

	if r.cancelled() {
		return 0, nil
	}
	if r.f.IsGameOver() {
		return r.n.Eval.Evaluate(r.f, player), nil
	}
	if depth == 0 {
		return r.n.Eval.Evaluate(r.f, player), nil
	}

	hash := r.f.Hash()
	origAlpha := alpha
	var hint field.Pos
	haveHint := false

	if r.n.TT != nil {
		if bound, ttDepth, score, move, ok := r.n.TT.Read(hash); ok {
			hint, haveHint = move, true
			if ttDepth >= depth {
				switch bound {
				case ExactBound:
					return score, []field.Pos{move}
				case LowerBound:
					if score > alpha {
						alpha = score
					}
				case UpperBound:
					if score < beta {
						beta = score
					}
				}
				if alpha >= beta {
					return score, []field.Pos{move}
				}
			}
		}
	}

	moves := pruning.Moves()
	if len(moves) == 0 {
		return r.n.Eval.Evaluate(r.f, player), nil
	}
	if haveHint {
		moveHintFirst(moves, hint)
	}

	best := MinScore
	var bestMove field.Pos
	var pv []field.Pos
	first := true

	for _, m := range moves {
		if r.cancelled() {
			break
		}

		r.f.PutPoint(m, player)
		child := trajectory.FromLast(r.f, player.Opponent(), depth-1, r.emptyBoard, r.rng, pruning, m, r.shouldStop, r.n.Rebuild, r.n.Sorting)

		var score Score
		var rem []field.Pos
		if first {
			s, pvline := r.search(depth-1, beta.Negate(), alpha.Negate(), player.Opponent(), child)
			score, rem = s.Negate(), pvline
		} else {
			s, pvline := r.search(depth-1, (alpha + 1).Negate(), alpha.Negate(), player.Opponent(), child)
			score, rem = s.Negate(), pvline
			if alpha < score && score < beta {
				s, pvline = r.search(depth-1, beta.Negate(), score.Negate(), player.Opponent(), child)
				score, rem = s.Negate(), pvline
			}
		}
		r.f.Undo()
		first = false

		if score > best {
			best = score
			bestMove = m
			pv = append([]field.Pos{m}, rem...)
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			break
		}
	}

	if r.n.TT != nil && !r.cancelled() {
		bound := ExactBound
		switch {
		case best <= origAlpha:
			bound = UpperBound
		case best >= beta:
			bound = LowerBound
		}
		r.n.TT.Write(hash, bound, depth, best, bestMove)
	}

	return best, pv
}

func moveHintFirst(moves []field.Pos, hint field.Pos) {
	for i, m := range moves {
		if m == hint {
			moves[0], moves[i] = moves[i], moves[0]
			return
		}
	}
}
