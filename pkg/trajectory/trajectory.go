// Package trajectory implements trajectory-pruning move generation: a
// bounded search for short attacking sequences ("trajectories") for both
// sides, used to cut the minimax branching factor down to the handful of
// cells that can plausibly matter within the remaining search depth.
// Grounded on the reference trajectories_pruning module (see DESIGN.md).
package trajectory

import (
	"sort"

	"github.com/herohde/oppai-go/pkg/field"
	"github.com/herohde/oppai-go/pkg/xrand"
	"go.uber.org/atomic"
)

// MovesSorting controls how the final candidate-move set is ordered
// before being handed to the search driver (move ordering affects alpha-
// beta efficiency but never correctness).
type MovesSorting int

const (
	// SortNone leaves moves in discovery order: the side to move's
	// trajectories first, then the opponent's, each point where it first
	// appears.
	SortNone MovesSorting = iota
	// SortRandom shuffles moves, for symmetry-breaking between otherwise
	// tied candidates.
	SortRandom
	// SortTrajectoriesCount orders moves by how many surviving
	// trajectories they participate in, most first: a simple but
	// effective move-ordering heuristic.
	SortTrajectoriesCount
)

// Trajectory is a short candidate sequence of points for one side: if
// every point in it were played in order (interleaved with the
// opponent's moves), it would expose or close a capture.
type Trajectory struct {
	points   []field.Pos
	hash     field.ZobristHash // order-independent: XOR of per-point salts
	excluded bool
}

func newTrajectory(points []field.Pos, hash field.ZobristHash) Trajectory {
	return Trajectory{points: points, hash: hash}
}

// Points returns the trajectory's points, in the order they were played.
func (t Trajectory) Points() []field.Pos { return t.points }

func trajectoryHash(zt *field.ZobristTable, points []field.Pos) field.ZobristHash {
	var h field.ZobristHash
	for _, pos := range points {
		h ^= zt.PosHash(pos)
	}
	return h
}

// Pruning holds the trajectories built for one node of the search tree
// and the resulting pruned candidate move set.
type Pruning struct {
	cur, enemy []Trajectory
	moves      []field.Pos
}

// Empty is the zero-cost Pruning used whenever depth is exhausted or the
// search was cancelled mid-build.
func Empty() Pruning {
	return Pruning{}
}

// Moves returns the pruned candidate moves for this node.
func (p Pruning) Moves() []field.Pos { return p.moves }

// addTrajectory discards the trajectory if any of its points leaves the
// board or lacks at least 2 separate approach directions for player (and
// so can't close a loop), or if it duplicates an already recorded
// trajectory (by hash).
func addTrajectory(f *field.Field, trajectories *[]Trajectory, points []field.Pos, player field.Player) {
	for _, pos := range points {
		if !f.Cell(pos).IsBound() || f.NumberNearGroups(pos, player) < 2 {
			return
		}
	}
	hash := trajectoryHash(f.ZobristTable(), points)
	for _, t := range *trajectories {
		if t.hash == hash {
			return
		}
	}
	cp := append([]field.Pos(nil), points...)
	*trajectories = append(*trajectories, newTrajectory(cp, hash))
}

// buildTrajectoriesRec extends every still-allowed move for player by one
// ply, recording a trajectory whenever a capture is exposed, and
// recursing while budget (depth) remains and no capture was found yet.
func buildTrajectoriesRec(f *field.Field, trajectories *[]Trajectory, player field.Player, curDepth, depth int, shouldStop *atomic.Bool) {
	for pos := f.MinPos(); pos <= f.MaxPos(); pos++ {
		c := f.Cell(pos)
		if !f.IsPuttingAllowed(pos, player) || !f.HasNearPoints(pos, player) {
			continue
		}
		if shouldStop != nil && shouldStop.Load() {
			return
		}

		opponentBase := c.IsEmptyBaseOf(player.Opponent())
		f.PutPoint(pos, player)
		if f.DeltaScore(player) > 0 {
			moves := f.ColoredMoves()
			points := make([]field.Pos, curDepth)
			for i := 0; i < curDepth; i++ {
				points[i] = moves[len(moves)-curDepth+i].Pos
			}
			addTrajectory(f, trajectories, points, player)
		} else if !opponentBase && depth > 0 {
			buildTrajectoriesRec(f, trajectories, player, curDepth+1, depth-1, shouldStop)
		}
		f.Undo()
	}
}

func buildTrajectories(f *field.Field, trajectories *[]Trajectory, player field.Player, depth int, shouldStop *atomic.Bool) {
	if depth > 0 {
		buildTrajectoriesRec(f, trajectories, player, 1, depth-1, shouldStop)
	}
}

// intersectionHash is the hash a trajectory would have if it were exactly
// the union of t1's and t2's points -- used to detect when a
// third, longer trajectory is really just the composition of two shorter
// ones, and so carries no independent information.
func intersectionHash(t1, t2 Trajectory, zt *field.ZobristTable, emptyBoard []uint32) field.ZobristHash {
	result := t1.hash ^ t2.hash
	for _, pos := range t1.points {
		emptyBoard[pos] = 1
	}
	for _, pos := range t2.points {
		if emptyBoard[pos] != 0 {
			result ^= zt.PosHash(pos)
		}
	}
	for _, pos := range t1.points {
		emptyBoard[pos] = 0
	}
	return result
}

func excludeCompositeTrajectories(trajectories []Trajectory, zt *field.ZobristTable, emptyBoard []uint32) {
	n := len(trajectories)
	for k := 0; k < n; k++ {
		for i := 0; i < n-1; i++ {
			if trajectories[k].len() <= trajectories[i].len() {
				continue
			}
			for j := i + 1; j < n; j++ {
				if trajectories[k].len() > trajectories[j].len() &&
					trajectories[k].hash == intersectionHash(trajectories[i], trajectories[j], zt, emptyBoard) {
					trajectories[k].excluded = true
				}
			}
		}
	}
}

func (t Trajectory) len() int { return len(t.points) }

func project(trajectories []Trajectory, emptyBoard []uint32) {
	for _, t := range trajectories {
		if t.excluded {
			continue
		}
		for _, pos := range t.points {
			emptyBoard[pos]++
		}
	}
}

func deproject(trajectories []Trajectory, emptyBoard []uint32) {
	for _, t := range trajectories {
		if t.excluded {
			continue
		}
		for _, pos := range t.points {
			emptyBoard[pos]--
		}
	}
}

// excludeUnnecessaryTrajectories drops any trajectory that is the sole
// contributor to more than one of its points (no other surviving
// trajectory uses those points), and reports whether it dropped any.
// Mutates emptyBoard for trajectories it excludes, so callers must
// iterate to a fixpoint.
func excludeUnnecessaryTrajectories(trajectories []Trajectory, emptyBoard []uint32) bool {
	needExclude := false
	for i := range trajectories {
		t := &trajectories[i]
		if t.excluded {
			continue
		}
		singleCount := 0
		for _, pos := range t.points {
			if emptyBoard[pos] == 1 {
				singleCount++
			}
		}
		if singleCount > 1 {
			for _, pos := range t.points {
				emptyBoard[pos]--
			}
			t.excluded = true
			needExclude = true
		}
	}
	return needExclude
}

func calculateMoves(cur, enemy []Trajectory, zt *field.ZobristTable, emptyBoard []uint32, rng xrand.Source, sorting MovesSorting) []field.Pos {
	excludeCompositeTrajectories(cur, zt, emptyBoard)
	excludeCompositeTrajectories(enemy, zt, emptyBoard)
	project(cur, emptyBoard)
	project(enemy, emptyBoard)
	for excludeUnnecessaryTrajectories(cur, emptyBoard) || excludeUnnecessaryTrajectories(enemy, emptyBoard) {
	}

	seen := map[field.Pos]bool{}
	var result []field.Pos
	for _, group := range [][]Trajectory{cur, enemy} {
		for _, t := range group {
			if t.excluded {
				continue
			}
			for _, pos := range t.points {
				if !seen[pos] {
					seen[pos] = true
					result = append(result, pos)
				}
			}
		}
	}

	switch sorting {
	case SortRandom:
		rng.Shuffle(len(result), func(i, j int) { result[i], result[j] = result[j], result[i] })
	case SortTrajectoriesCount:
		sort.Slice(result, func(i, j int) bool { return emptyBoard[result[i]] > emptyBoard[result[j]] })
	}

	deproject(cur, emptyBoard)
	deproject(enemy, emptyBoard)
	return result
}

// New builds a fresh Pruning from scratch: depth splits roughly evenly
// between player's attacking trajectories and the opponent's defensive
// ones, player getting the larger half when depth is odd.
func New(f *field.Field, player field.Player, depth int, emptyBoard []uint32, rng xrand.Source, shouldStop *atomic.Bool, sorting MovesSorting) Pruning {
	if depth == 0 {
		return Empty()
	}
	var cur, enemy []Trajectory
	buildTrajectories(f, &cur, player, (depth+1)/2, shouldStop)
	if shouldStop != nil && shouldStop.Load() {
		return Empty()
	}
	buildTrajectories(f, &enemy, player.Opponent(), depth/2, shouldStop)
	if shouldStop != nil && shouldStop.Load() {
		return Empty()
	}
	moves := calculateMoves(cur, enemy, f.ZobristTable(), emptyBoard, rng, sorting)
	return Pruning{cur: cur, enemy: enemy, moves: moves}
}

// lastPosTrajectory synthesizes a short trajectory around lastPos (the
// move just played), approximating the set of newly-created attacking
// continuations without a full rebuild. Its points are lastPos's
// orthogonal neighbours that player may still play and that have fewer
// than 3 of player's stones orthogonally next to them. Returns false if
// an orthogonal neighbour is neither putting-allowed for player nor
// player's own stone, or if the trajectory would need more than
// (depth+1)/2 points.
func lastPosTrajectory(f *field.Field, player field.Player, depth int, lastPos field.Pos) (Trajectory, bool) {
	var points []field.Pos
	var hash field.ZobristHash

	for _, pos := range [4]field.Pos{f.N(lastPos), f.S(lastPos), f.W(lastPos), f.E(lastPos)} {
		if f.IsPuttingAllowed(pos, player) {
			count := 0
			for _, nb := range [4]field.Pos{f.N(pos), f.S(pos), f.W(pos), f.E(pos)} {
				if f.Cell(nb).IsPointOf(player) {
					count++
				}
			}
			if count < 3 {
				points = append(points, pos)
				hash ^= f.ZobristTable().PosHash(pos)
			}
		} else if !f.Cell(pos).IsPointOf(player) {
			return Trajectory{}, false
		}
	}
	if len(points) <= (depth+1)/2 {
		return newTrajectory(points, hash), true
	}
	return Trajectory{}, false
}

// FromLast incrementally rebuilds a Pruning after a single move (lastPos)
// was played on top of last's position, reusing last's surviving
// trajectories instead of rescanning the whole board. If rebuild is set,
// it falls back to a full rebuild of player's own trajectories (useful
// when lastPos invalidated too much to salvage cheaply).
func FromLast(f *field.Field, player field.Player, depth int, emptyBoard []uint32, rng xrand.Source, last Pruning, lastPos field.Pos, shouldStop *atomic.Bool, rebuild bool, sorting MovesSorting) Pruning {
	if depth == 0 {
		return Empty()
	}
	var cur, enemy []Trajectory

	if rebuild {
		buildTrajectories(f, &cur, player, (depth+1)/2, shouldStop)
	} else {
		for _, t := range last.enemy {
			if allPuttingAllowed(f, t.points) {
				cur = append(cur, newTrajectory(append([]field.Pos(nil), t.points...), t.hash))
			}
		}
		if nt, ok := lastPosTrajectory(f, player, depth, lastPos); ok {
			cur = append(cur, nt)
		}
	}
	if shouldStop != nil && shouldStop.Load() {
		return Empty()
	}

	enemyDepth := depth / 2
	if enemyDepth > 0 {
		for _, t := range last.cur {
			length := t.len()
			containsLast := containsPos(t.points, lastPos)
			if (length <= enemyDepth || (length == enemyDepth+1 && containsLast)) && allPuttingAllowedOrEq(f, t.points, lastPos) {
				if containsLast {
					if length == 1 {
						continue
					}
					pts := make([]field.Pos, 0, length-1)
					for _, pos := range t.points {
						if pos != lastPos {
							pts = append(pts, pos)
						}
					}
					enemy = append(enemy, newTrajectory(pts, t.hash^f.ZobristTable().PosHash(lastPos)))
				} else {
					enemy = append(enemy, newTrajectory(append([]field.Pos(nil), t.points...), t.hash))
				}
			}
		}
	}
	if shouldStop != nil && shouldStop.Load() {
		return Empty()
	}

	moves := calculateMoves(cur, enemy, f.ZobristTable(), emptyBoard, rng, sorting)
	return Pruning{cur: cur, enemy: enemy, moves: moves}
}

func allPuttingAllowed(f *field.Field, points []field.Pos) bool {
	for _, pos := range points {
		if !f.Cell(pos).IsBound() || f.Cell(pos).IsPoint() {
			return false
		}
	}
	return true
}

func allPuttingAllowedOrEq(f *field.Field, points []field.Pos, lastPos field.Pos) bool {
	for _, pos := range points {
		if pos == lastPos {
			continue
		}
		if !f.Cell(pos).IsBound() || f.Cell(pos).IsPoint() {
			return false
		}
	}
	return true
}

func containsPos(points []field.Pos, pos field.Pos) bool {
	for _, p := range points {
		if p == pos {
			return true
		}
	}
	return false
}

// DecAndSwapExists rebuilds a Pruning one ply deeper into the tree by
// demoting exists's enemy trajectories to cur (the side to move has
// flipped) and dropping any of exists's cur trajectories now too long to
// matter at the reduced depth. Avoids rescanning the board entirely when
// the caller already has a Pruning for the parent node.
func DecAndSwapExists(f *field.Field, depth int, emptyBoard []uint32, rng xrand.Source, exists Pruning, shouldStop *atomic.Bool, sorting MovesSorting) Pruning {
	if depth == 0 {
		return Empty()
	}
	var cur, enemy []Trajectory
	for _, t := range exists.enemy {
		cur = append(cur, newTrajectory(append([]field.Pos(nil), t.points...), t.hash))
	}
	enemyDepth := depth / 2
	if enemyDepth > 0 {
		for _, t := range exists.cur {
			if t.len() <= enemyDepth {
				enemy = append(enemy, newTrajectory(append([]field.Pos(nil), t.points...), t.hash))
			}
		}
	}
	if shouldStop != nil && shouldStop.Load() {
		return Empty()
	}
	moves := calculateMoves(cur, enemy, f.ZobristTable(), emptyBoard, rng, sorting)
	return Pruning{cur: cur, enemy: enemy, moves: moves}
}

// IncExists is DecAndSwapExists's counterpart for a search whose remaining
// depth just grew (e.g. a deeper iterative-deepening pass reusing the
// previous pass's root Pruning): it rebuilds only the side whose budget
// changed parity, keeping the other side's trajectories as-is.
func IncExists(f *field.Field, player field.Player, depth int, emptyBoard []uint32, rng xrand.Source, exists Pruning, shouldStop *atomic.Bool, sorting MovesSorting) Pruning {
	var cur, enemy []Trajectory
	if depth%2 == 0 {
		buildTrajectories(f, &enemy, player.Opponent(), depth/2, shouldStop)
		if shouldStop != nil && shouldStop.Load() {
			return Empty()
		}
		for _, t := range exists.cur {
			cur = append(cur, newTrajectory(append([]field.Pos(nil), t.points...), t.hash))
		}
	} else {
		buildTrajectories(f, &cur, player, (depth+1)/2, shouldStop)
		if shouldStop != nil && shouldStop.Load() {
			return Empty()
		}
		for _, t := range exists.enemy {
			enemy = append(enemy, newTrajectory(append([]field.Pos(nil), t.points...), t.hash))
		}
	}
	if shouldStop != nil && shouldStop.Load() {
		return Empty()
	}
	moves := calculateMoves(cur, enemy, f.ZobristTable(), emptyBoard, rng, sorting)
	return Pruning{cur: cur, enemy: enemy, moves: moves}
}
