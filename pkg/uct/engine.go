package uct

import (
	"context"
	"sync"

	"github.com/herohde/oppai-go/pkg/field"
	"github.com/herohde/oppai-go/pkg/pattern"
	"github.com/herohde/oppai-go/pkg/xrand"
	"github.com/seekerror/logw"
	"go.uber.org/atomic"
)

// Engine runs a parallel UCT search over a fixed config and pattern set.
// Mirrors searchctl.Iterative's role: Search here plays the part of
// Iterative.process, but loops over playout count/wall-clock instead of
// depth.
type Engine struct {
	Cfg      Config
	Patterns *pattern.Patterns // may be nil: playouts then fall back to uniform sampling
}

// Search runs cfg.ThreadsCount workers sharing one tree, each repeatedly
// selecting down to a leaf, expanding it, playing out a random game, and
// backing up the result, until cfg.Iterations playouts have run or
// shouldStop is set. f is read-only to the caller: every worker clones it
// once and Undo()s back to the root position between iterations, so f
// itself is never mutated. Returns false if player has no legal move.
func (e *Engine) Search(ctx context.Context, f *field.Field, player field.Player, seed int64, shouldStop *atomic.Bool) (field.Pos, bool) {
	if f.IsGameOver() {
		return field.ZeroPos, false
	}

	tree := newTree(player.Opponent())
	komi := atomic.NewFloat64(0)

	threads := e.Cfg.ThreadsCount
	if threads < 1 {
		threads = 1
	}

	var wg sync.WaitGroup
	var iterations atomic.Int64
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := xrand.New(seed, worker)
			wf := f.Clone()

			for !shouldStop.Load() {
				if e.Cfg.Iterations > 0 && iterations.Inc() > int64(e.Cfg.Iterations) {
					return
				}
				e.playOnce(tree, wf, player, rng, komi)
			}
		}(w)
	}
	wg.Wait()

	best, ok := tree.best(tree.root, e.Cfg.DrawWeight)
	if !ok {
		return field.ZeroPos, false
	}

	root := tree.at(tree.root)
	logw.Debugf(ctx, "UCT search done: %d iterations, root visits=%d", iterations.Load(), root.visits.Load())
	return tree.at(best).pos, true
}

// playOnce runs one select -> expand -> simulate -> backup cycle,
// mutating wf in place and restoring it with Undo before returning.
func (e *Engine) playOnce(tree *Tree, wf *field.Field, rootPlayer field.Player, rng xrand.Source, komi *atomic.Float64) {
	path := []nodeRef{tree.root}
	moves := 0

	ref := tree.root
	for {
		n := tree.at(ref)
		mover := n.mover.Opponent()

		children := tree.ensureChildren(ref, e.Cfg.WhenCreateChildren, func() []field.Pos {
			return legalMoves(wf, mover)
		})
		if len(children) == 0 {
			break
		}

		child, ok := tree.selectChild(ref, e.Cfg)
		if !ok {
			break
		}
		cn := tree.at(child)
		if !wf.PutPoint(cn.pos, mover) {
			// Stale move (board state diverged from when children were
			// built): treat as a dead end for this playout.
			tree.at(child).removeVirtualLoss()
			break
		}
		moves++
		path = append(path, child)
		ref = child
	}

	leaf := tree.at(ref)
	lastPos := leaf.pos
	lastMover := leaf.mover

	playoutMoves := e.playout(wf, lastMover.Opponent(), lastPos, rng)
	moves += playoutMoves

	winner, draw := outcome(wf, komi.Load())

	for i, r := range path {
		n := tree.at(r)
		backupNode(n, winner, draw)
		if i > 0 { // path[0] is the root, which never receives virtual loss
			n.removeVirtualLoss()
		}
	}

	for i := 0; i < moves; i++ {
		wf.Undo()
	}

	if e.Cfg.DynamicKomi {
		maybeAdjustKomi(tree, rootPlayer, e.Cfg, komi)
	}
}

// legalMoves lists player's putting-allowed cells in board order.
func legalMoves(f *field.Field, player field.Player) []field.Pos {
	var moves []field.Pos
	for pos := f.MinPos(); pos <= f.MaxPos(); pos++ {
		if f.IsPuttingAllowed(pos, player) {
			moves = append(moves, pos)
		}
	}
	return moves
}

// playoutCandidates is legalMoves restricted to cells within a Chebyshev
// distance of radius from some already-played stone, mirroring the
// original's uct_radius: playouts only sample the active area of the
// board instead of empty cells far from any stone. radius <= 0 (or an
// empty board) disables the restriction.
func playoutCandidates(f *field.Field, player field.Player, radius int) []field.Pos {
	all := legalMoves(f, player)
	if radius <= 0 || f.MovesCount() == 0 {
		return all
	}

	var near []field.Pos
	for _, pos := range all {
		if nearStone(f, pos, radius) {
			near = append(near, pos)
		}
	}
	if len(near) == 0 {
		// Every candidate is more than radius away from a stone (can
		// happen early with a small radius on a sparsely-played board):
		// fall back to the unrestricted set rather than stalling the
		// playout.
		return all
	}
	return near
}

func nearStone(f *field.Field, pos field.Pos, radius int) bool {
	x, y := f.ToX(pos), f.ToY(pos)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= f.Width() || ny >= f.Height() {
				continue
			}
			if !f.Cell(f.ToPos(nx, ny)).IsEmpty() {
				return true
			}
		}
	}
	return false
}

// playout plays a random game forward from (mover, lastPos) up to
// cfg.Depth plies, or until neither side has a legal move, and returns
// the number of moves actually played (so the caller can Undo them).
func (e *Engine) playout(f *field.Field, mover field.Player, lastPos field.Pos, rng xrand.Source) int {
	played := 0
	for d := 0; d < e.Cfg.Depth; d++ {
		move, ok := choosePlayoutMove(f, mover, lastPos, e.Patterns, e.Cfg.Radius, rng)
		if !ok {
			mover = mover.Opponent()
			move, ok = choosePlayoutMove(f, mover, lastPos, e.Patterns, e.Cfg.Radius, rng)
			if !ok {
				break
			}
		}
		f.PutPoint(move, mover)
		played++
		lastPos = move
		mover = mover.Opponent()
	}
	return played
}

// choosePlayoutMove samples a move for mover, weighted by the pattern
// matcher's suggestions around lastPos, falling back to a uniform choice
// over mover's putting-allowed cells within radius of an existing stone.
func choosePlayoutMove(f *field.Field, mover field.Player, lastPos field.Pos, patterns *pattern.Patterns, radius int, rng xrand.Source) (field.Pos, bool) {
	if patterns != nil {
		weights := patterns.MatchAll(f, lastPos, mover)
		if len(weights) > 0 {
			if pos, ok := sampleWeighted(weights, f, mover, rng); ok {
				return pos, true
			}
		}
	}

	candidates := playoutCandidates(f, mover, radius)
	if len(candidates) == 0 {
		return field.ZeroPos, false
	}
	return candidates[rng.Intn(len(candidates))], true
}

func sampleWeighted(weights map[field.Pos]float64, f *field.Field, mover field.Player, rng xrand.Source) (field.Pos, bool) {
	var total float64
	var eligible []field.Pos
	for pos, w := range weights {
		if w <= 0 || !f.IsPuttingAllowed(pos, mover) {
			continue
		}
		total += w
		eligible = append(eligible, pos)
	}
	if total <= 0 {
		return field.ZeroPos, false
	}

	target := rng.Float64() * total
	for _, pos := range eligible {
		target -= weights[pos]
		if target <= 0 {
			return pos, true
		}
	}
	return eligible[len(eligible)-1], true
}

// outcome classifies the field's final score, adjusted by komi (from
// Red's perspective), into a winner and whether it was a draw.
func outcome(f *field.Field, komi float64) (winner field.Player, draw bool) {
	adjusted := float64(f.Score()) - komi
	switch {
	case adjusted > 0:
		return field.Red, false
	case adjusted < 0:
		return field.Black, false
	default:
		return field.Red, true
	}
}

// backupNode credits one playout's outcome to n, oriented to n.mover's
// perspective: both win/loss and draw rewards live on q's [0,1] scale (1,
// 0, and 0 respectively) so sumSq's variance estimate stays consistent
// with q's mean.
func backupNode(n *node, winner field.Player, draw bool) {
	if draw {
		n.backup(0, true)
		return
	}
	if n.mover == winner {
		n.backup(1, false)
	} else {
		n.backup(0, false)
	}
}

// maybeAdjustKomi nudges the shared komi offset every cfg.KomiInterval
// iterations once the root has enough visits, pushing it against player's
// win rate so that the tree doesn't simply confirm an early lopsided read.
func maybeAdjustKomi(tree *Tree, player field.Player, cfg Config, komi *atomic.Float64) {
	root := tree.at(tree.root)
	visits := root.visits.Load()
	if visits < int64(cfg.KomiMinIterations) || visits%int64(cfg.KomiInterval) != 0 {
		return
	}

	best, ok := tree.best(tree.root, cfg.DrawWeight)
	if !ok {
		return
	}
	bn := tree.at(best)
	winRate := bn.q(cfg.DrawWeight) // in [0,1], from bn.mover's perspective
	if bn.mover != player {
		winRate = 1 - winRate
	}

	// komi is subtracted from Red's score in outcome(): raising it curbs
	// Red's evaluated advantage, lowering it curbs Black's. Green is the
	// "winning too comfortably" ceiling (curb the leader, keep exploring),
	// Red is the "losing" floor (ease off so the trailing side isn't
	// written off early).
	const step = 1.0
	switch {
	case winRate > cfg.Green:
		if player == field.Red {
			komi.Add(step)
		} else {
			komi.Sub(step)
		}
	case winRate < cfg.Red:
		if player == field.Red {
			komi.Sub(step)
		} else {
			komi.Add(step)
		}
	}
}
