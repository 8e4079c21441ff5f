package searchctl_test

import (
	"context"
	"testing"
	"time"

	"github.com/herohde/oppai-go/pkg/field"
	"github.com/herohde/oppai-go/pkg/search"
	"github.com/herohde/oppai-go/pkg/search/searchctl"
	"github.com/herohde/oppai-go/pkg/trajectory"
	"github.com/herohde/oppai-go/pkg/xrand"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIterativeStopsAtDepthLimit(t *testing.T) {
	zt := field.NewZobristTable(5, 5, 1)
	f := field.New(5, 5, zt)
	// Red surrounds the Black stone at (2,2) on three sides: (2,3) closes it.
	require.True(t, f.PutPoint(f.ToPos(2, 2), field.Black))
	require.True(t, f.PutPoint(f.ToPos(2, 1), field.Red))
	require.True(t, f.PutPoint(f.ToPos(1, 2), field.Red))
	require.True(t, f.PutPoint(f.ToPos(3, 2), field.Red))
	board := make([]uint32, (f.Width()+2)*(f.Height()+2))

	ns := search.NegaScout{Eval: search.TerritoryEvaluator{}, TT: search.NoTranspositionTable{}, Sorting: trajectory.SortNone}
	mtdf := search.Mtdf{Scout: ns}

	it := &searchctl.Iterative{Search: mtdf, EmptyBoard: board, Rng: xrand.New(1, 0)}
	h, out := it.Launch(context.Background(), f, field.Red, searchctl.Options{DepthLimit: lang.Some(uint(2))})

	var last search.PV
	for pv := range out {
		last = pv
	}
	assert.NotNil(t, last.Moves)

	final := h.Halt()
	assert.Equal(t, last.Score, final.Score)
}

func TestIterativeHaltStopsSearchPromptly(t *testing.T) {
	zt := field.NewZobristTable(9, 9, 1)
	f := field.New(9, 9, zt)
	// Red surrounds the Black stone at (2,2) on three sides: (2,3) closes it.
	require.True(t, f.PutPoint(f.ToPos(2, 2), field.Black))
	require.True(t, f.PutPoint(f.ToPos(2, 1), field.Red))
	require.True(t, f.PutPoint(f.ToPos(1, 2), field.Red))
	require.True(t, f.PutPoint(f.ToPos(3, 2), field.Red))
	board := make([]uint32, (f.Width()+2)*(f.Height()+2))

	ns := search.NegaScout{Eval: search.TerritoryEvaluator{}, TT: search.NoTranspositionTable{}, Sorting: trajectory.SortNone}
	mtdf := search.Mtdf{Scout: ns}

	it := &searchctl.Iterative{Search: mtdf, EmptyBoard: board, Rng: xrand.New(1, 0)}
	h, out := it.Launch(context.Background(), f, field.Red, searchctl.Options{})

	time.Sleep(10 * time.Millisecond)
	pv := h.Halt()
	assert.NotNil(t, pv.Moves)

	for range out {
	}
}

func TestTimeControlLimitsSplitDeadline(t *testing.T) {
	tc := searchctl.TimeControl{Deadline: time.Now().Add(time.Second), TimeGap: 200 * time.Millisecond}
	soft, hard := tc.Limits()
	require.Greater(t, hard, soft)
	assert.InDelta(t, 800*time.Millisecond, soft, float64(50*time.Millisecond))
}
