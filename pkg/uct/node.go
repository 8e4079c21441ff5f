package uct

import (
	"math"
	"sync"

	"github.com/herohde/oppai-go/pkg/field"
	"go.uber.org/atomic"
)

// nodeRef is an arena index, not a Go pointer: it is the "non-owning
// parent back-reference" the node data model calls for, made structural
// rather than GC-assisted (see DESIGN.md).
type nodeRef int32

// noRef marks the absence of a parent (the root) or child.
const noRef nodeRef = -1

// childState tracks a node's lazy-expansion lifecycle. Transitions are
// one-way: leaf -> expanding -> expanded, driven by a single CAS so that
// exactly one worker ever populates a node's children.
type childState int32

const (
	stateLeaf childState = iota
	stateExpanding
	stateExpanded
)

// node is one position in the search tree. pos and mover are immutable
// after creation; the statistics are updated concurrently via atomics.
type node struct {
	pos    field.Pos
	mover  field.Player // the player who played pos to reach this node
	parent nodeRef

	state    atomic.Int32
	children []nodeRef // written once, guarded by state CAS

	visits      atomic.Int64
	virtualLoss atomic.Int64
	wins        atomic.Float64
	draws       atomic.Int64
	sumSq       atomic.Float64 // sum of squared per-playout rewards, for UCB1-Tuned
}

func newNode(parent nodeRef, pos field.Pos, mover field.Player) *node {
	n := &node{pos: pos, mover: mover, parent: parent}
	n.state.Store(int32(stateLeaf))
	return n
}

// effectiveVisits counts real visits plus any outstanding virtual loss,
// the denominator used by selection so that concurrent workers spread
// out across siblings instead of piling onto the same path.
func (n *node) effectiveVisits() int64 {
	return n.visits.Load() + n.virtualLoss.Load()
}

// q is the node's mean reward from its own mover's perspective:
// (wins + drawWeight*draws) / effectiveVisits, so outstanding virtual
// loss lowers it. Returns 0 for an unvisited node.
func (n *node) q(drawWeight float64) float64 {
	v := n.effectiveVisits()
	if v == 0 {
		return 0
	}
	return (n.wins.Load() + drawWeight*float64(n.draws.Load())) / float64(v)
}

// addVirtualLoss records a provisional visit with no win credit, applied
// while a worker descends through this node and reverted at backup.
func (n *node) addVirtualLoss() {
	n.virtualLoss.Inc()
}

func (n *node) removeVirtualLoss() {
	n.virtualLoss.Dec()
}

// backup credits a completed playout's reward (from n's mover's point of
// view) to this node's statistics. Does not touch virtual loss: only
// nodes actually selected via selectChild carry one, so the caller reverts
// it separately (see playOnce) to avoid driving an un-visited node's
// virtual loss negative.
func (n *node) backup(reward float64, draw bool) {
	n.visits.Inc()
	n.sumSq.Add(reward * reward)
	if draw {
		n.draws.Inc()
	} else if reward > 0 {
		n.wins.Add(reward)
	}
}

// Tree is the shared, concurrently-grown arena backing a single search.
// Nodes are allocated once and never moved, so a nodeRef remains valid
// for the Tree's lifetime; growth under the mutex is the only point of
// contention, and it is off the hot per-visit path (only paid once per
// WhenCreateChildren threshold crossing per node).
type Tree struct {
	mu    sync.RWMutex
	arena []*node
	root  nodeRef
}

// newTree creates a tree whose root stands for the current board state:
// its pos is ZeroPos, since no move of the tree led there, and its mover
// is rootMover (the opponent of the side to move).
func newTree(rootMover field.Player) *Tree {
	t := &Tree{arena: make([]*node, 0, 1024)}
	root := newNode(noRef, field.ZeroPos, rootMover)
	t.arena = append(t.arena, root)
	t.root = 0
	return t
}

func (t *Tree) at(ref nodeRef) *node {
	t.mu.RLock()
	n := t.arena[ref]
	t.mu.RUnlock()
	return n
}

// allocChildren appends len(moves) fresh leaf nodes and returns their
// refs, under the tree's mutex so arena growth is serialized.
func (t *Tree) allocChildren(parent nodeRef, mover field.Player, moves []field.Pos) []nodeRef {
	t.mu.Lock()
	defer t.mu.Unlock()

	refs := make([]nodeRef, len(moves))
	for i, m := range moves {
		refs[i] = nodeRef(len(t.arena))
		t.arena = append(t.arena, newNode(parent, m, mover))
	}
	return refs
}

// ensureChildren lazily expands n with the given moves the first time
// its visit count reaches the threshold, via a CAS state machine:
// exactly one caller wins the leaf->expanding transition and performs
// the allocation; all others (concurrent losers, or later calls after
// expansion) spin-wait or see stateExpanded immediately.
func (t *Tree) ensureChildren(ref nodeRef, threshold int, moves func() []field.Pos) []nodeRef {
	n := t.at(ref)

	switch childState(n.state.Load()) {
	case stateExpanded:
		return n.children
	case stateExpanding:
		for childState(n.state.Load()) != stateExpanded {
			// spin: the winning worker is close to done allocating.
		}
		return n.children
	}

	if n.visits.Load() < int64(threshold) {
		return nil
	}
	if !n.state.CAS(int32(stateLeaf), int32(stateExpanding)) {
		for childState(n.state.Load()) != stateExpanded {
		}
		return n.children
	}

	ms := moves()
	refs := t.allocChildren(ref, n.mover.Opponent(), ms)
	n.children = refs
	n.state.Store(int32(stateExpanded))
	return refs
}

// best returns the child with the most real visits, breaking ties by q.
func (t *Tree) best(ref nodeRef, drawWeight float64) (nodeRef, bool) {
	n := t.at(ref)
	if len(n.children) == 0 {
		return noRef, false
	}

	var bestRef nodeRef = n.children[0]
	bestNode := t.at(bestRef)
	bestVisits := bestNode.visits.Load()
	bestQ := bestNode.q(drawWeight)

	for _, c := range n.children[1:] {
		cn := t.at(c)
		v := cn.visits.Load()
		q := cn.q(drawWeight)
		if v > bestVisits || (v == bestVisits && q > bestQ) {
			bestRef, bestVisits, bestQ = c, v, q
		}
	}
	return bestRef, true
}

// ucb1 is the classic UCB1 bonus-added selection score.
func ucb1(child *node, parentVisits int64, uctk, drawWeight float64) float64 {
	v := child.effectiveVisits()
	if v == 0 {
		return math.Inf(1)
	}
	exploit := child.q(drawWeight)
	explore := uctk * math.Sqrt(math.Log(float64(parentVisits))/float64(v))
	return exploit + explore
}

// ucb1Tuned adds a variance-aware correction capped at 1/4 (the maximum
// possible variance of a Bernoulli reward), per the published UCB1-Tuned
// formula (no ground-truth source file for this algorithm is present in
// the retrieval pack; see DESIGN.md).
func ucb1Tuned(child *node, parentVisits int64, uctk, drawWeight float64) float64 {
	v := child.effectiveVisits()
	if v == 0 {
		return math.Inf(1)
	}
	mean := child.q(drawWeight)
	variance := child.sumSq.Load()/float64(v) - mean*mean
	if variance < 0 {
		variance = 0
	}
	logRatio := math.Log(float64(parentVisits)) / float64(v)
	bound := variance + math.Sqrt(2*logRatio)
	if bound > 0.25 {
		bound = 0.25
	}
	return mean + uctk*math.Sqrt(logRatio*bound)
}

// selectChild picks the child of ref maximizing the configured UCB score,
// applying virtual loss to the winner before returning it.
func (t *Tree) selectChild(ref nodeRef, cfg Config) (nodeRef, bool) {
	n := t.at(ref)
	if len(n.children) == 0 {
		return noRef, false
	}
	parentVisits := n.effectiveVisits() + 1

	score := ucb1
	if cfg.UcbType == Ucb1Tuned {
		score = ucb1Tuned
	}

	var bestRef nodeRef
	bestScore := math.Inf(-1)
	for _, c := range n.children {
		cn := t.at(c)
		s := score(cn, parentVisits, cfg.Uctk, cfg.DrawWeight)
		if s > bestScore {
			bestScore, bestRef = s, c
		}
	}
	t.at(bestRef).addVirtualLoss()
	return bestRef, true
}
