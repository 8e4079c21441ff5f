package search_test

import (
	"context"
	"testing"

	"github.com/herohde/oppai-go/pkg/field"
	"github.com/herohde/oppai-go/pkg/search"
	"github.com/herohde/oppai-go/pkg/trajectory"
	"github.com/herohde/oppai-go/pkg/xrand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func newBoard(w, h int) *field.Field {
	zt := field.NewZobristTable(w, h, 1)
	return field.New(w, h, zt)
}

func TestNegaScoutReturnsAMoveOnSmallBoard(t *testing.T) {
	f := newBoard(5, 5)
	// Red surrounds the Black stone at (2,2) on three sides: (2,3) closes it.
	require.True(t, f.PutPoint(f.ToPos(2, 2), field.Black))
	require.True(t, f.PutPoint(f.ToPos(2, 1), field.Red))
	require.True(t, f.PutPoint(f.ToPos(1, 2), field.Red))
	require.True(t, f.PutPoint(f.ToPos(3, 2), field.Red))
	board := make([]uint32, (f.Width()+2)*(f.Height()+2))

	ns := search.NegaScout{Eval: search.TerritoryEvaluator{}, TT: search.NewTranspositionTable(context.Background(), 1<<20), Sorting: trajectory.SortNone}
	score, pv, nodes := ns.Search(f, field.Red, 2, search.MinScore, search.MaxScore, board, xrand.New(1, 0), atomic.NewBool(false))

	assert.Greater(t, nodes, uint64(0))
	require.NotEmpty(t, pv)
	assert.True(t, f.IsPuttingAllowed(pv[0], field.Red))
	_ = score
}

func TestNegaScoutRespectsCancellation(t *testing.T) {
	f := newBoard(5, 5)
	board := make([]uint32, (f.Width()+2)*(f.Height()+2))
	stop := atomic.NewBool(true)

	ns := search.NegaScout{Eval: search.TerritoryEvaluator{}, TT: search.NoTranspositionTable{}, Sorting: trajectory.SortNone}
	_, _, nodes := ns.Search(f, field.Red, 3, search.MinScore, search.MaxScore, board, xrand.New(1, 0), stop)
	assert.Greater(t, nodes, uint64(0)) // root node is always counted before the stop check halts recursion
}

func TestNegaScoutRootSplitReturnsAMove(t *testing.T) {
	f := newBoard(7, 7)
	// Two separate three-sided Red rings around Black stones, closed by
	// (1,2) and (5,6), so the root has more than one move to split.
	require.True(t, f.PutPoint(f.ToPos(1, 1), field.Black))
	require.True(t, f.PutPoint(f.ToPos(1, 0), field.Red))
	require.True(t, f.PutPoint(f.ToPos(0, 1), field.Red))
	require.True(t, f.PutPoint(f.ToPos(2, 1), field.Red))
	require.True(t, f.PutPoint(f.ToPos(5, 5), field.Black))
	require.True(t, f.PutPoint(f.ToPos(5, 4), field.Red))
	require.True(t, f.PutPoint(f.ToPos(4, 5), field.Red))
	require.True(t, f.PutPoint(f.ToPos(6, 5), field.Red))
	board := make([]uint32, (f.Width()+2)*(f.Height()+2))

	ns := search.NegaScout{
		Eval:         search.TerritoryEvaluator{},
		TT:           search.NewTranspositionTable(context.Background(), 1<<20),
		Sorting:      trajectory.SortNone,
		ThreadsCount: 4,
	}
	score, pv, nodes := ns.Search(f, field.Red, 2, search.MinScore, search.MaxScore, board, xrand.New(1, 0), atomic.NewBool(false))

	assert.Greater(t, nodes, uint64(0))
	require.NotEmpty(t, pv)
	assert.True(t, f.IsPuttingAllowed(pv[0], field.Red))
	_ = score
}

func TestNegaScoutRootSplitAgreesWithSingleThreaded(t *testing.T) {
	f := newBoard(6, 6)
	board := make([]uint32, (f.Width()+2)*(f.Height()+2))

	single := search.NegaScout{Eval: search.TerritoryEvaluator{}, TT: search.NoTranspositionTable{}, Sorting: trajectory.SortNone}
	wantScore, _, _ := single.Search(f, field.Red, 2, search.MinScore, search.MaxScore, board, xrand.New(1, 0), atomic.NewBool(false))

	parallel := search.NegaScout{Eval: search.TerritoryEvaluator{}, TT: search.NoTranspositionTable{}, Sorting: trajectory.SortNone, ThreadsCount: 3}
	gotScore, _, _ := parallel.Search(f, field.Red, 2, search.MinScore, search.MaxScore, board, xrand.New(1, 0), atomic.NewBool(false))

	assert.Equal(t, wantScore, gotScore)
}

func TestMtdfAgreesWithNegaScoutOnLeafDepth(t *testing.T) {
	f := newBoard(5, 5)
	board := make([]uint32, (f.Width()+2)*(f.Height()+2))

	ns := search.NegaScout{Eval: search.TerritoryEvaluator{}, TT: search.NoTranspositionTable{}, Sorting: trajectory.SortNone}
	wantScore, _, _ := ns.Search(f, field.Red, 0, search.MinScore, search.MaxScore, board, xrand.New(1, 0), atomic.NewBool(false))

	mtdf := search.Mtdf{Scout: ns}
	gotScore, _, _ := mtdf.Search(f, field.Red, 0, 0, board, xrand.New(1, 0), atomic.NewBool(false))

	assert.Equal(t, wantScore, gotScore)
}

func TestTranspositionTableReadWrite(t *testing.T) {
	tt := search.NewTranspositionTable(context.Background(), 1<<16)
	ok := tt.Write(field.ZobristHash(42), search.ExactBound, 4, search.Score(7), field.Pos(100))
	require.True(t, ok)

	bound, depth, score, move, found := tt.Read(field.ZobristHash(42))
	require.True(t, found)
	assert.Equal(t, search.ExactBound, bound)
	assert.Equal(t, 4, depth)
	assert.Equal(t, search.Score(7), score)
	assert.Equal(t, field.Pos(100), move)
}

func TestTranspositionTableKeepsDeeperEntry(t *testing.T) {
	tt := search.NewTranspositionTable(context.Background(), 1<<16)
	require.True(t, tt.Write(field.ZobristHash(1), search.ExactBound, 5, search.Score(1), field.Pos(1)))
	ok := tt.Write(field.ZobristHash(1), search.ExactBound, 2, search.Score(2), field.Pos(2))
	assert.False(t, ok)

	_, depth, score, _, _ := tt.Read(field.ZobristHash(1))
	assert.Equal(t, 5, depth)
	assert.Equal(t, search.Score(1), score)
}
