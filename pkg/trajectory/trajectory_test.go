package trajectory_test

import (
	"testing"

	"github.com/herohde/oppai-go/pkg/field"
	"github.com/herohde/oppai-go/pkg/field/imp"
	"github.com/herohde/oppai-go/pkg/trajectory"
	"github.com/herohde/oppai-go/pkg/xrand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func newEmptyBoard(f *field.Field) []uint32 {
	return make([]uint32, (f.Width()+2)*(f.Height()+2))
}

// A 3-stone Red shape one move away from capturing a lone Black stone
// should surface that closing move as a candidate, since playing it
// exposes a capture within the search depth.
func TestNewSurfacesClosingMove(t *testing.T) {
	zt := field.NewZobristTable(5, 5, 1)
	f, err := imp.Decode(`
.....
..a..
.bAc.
.....
.....
`, zt)
	require.NoError(t, err)

	stop := atomic.NewBool(false)
	rng := xrand.New(1, 0)
	board := newEmptyBoard(f)

	p := trajectory.New(f, field.Red, 3, board, rng, stop, trajectory.SortNone)
	assert.NotEmpty(t, p.Moves())
	assert.Contains(t, p.Moves(), f.ToPos(2, 3))
}

func TestEmptyPruningHasNoMoves(t *testing.T) {
	empty := trajectory.Empty()
	assert.Empty(t, empty.Moves())
}

func TestNewWithZeroDepthIsEmpty(t *testing.T) {
	zt := field.NewZobristTable(5, 5, 1)
	f := field.New(5, 5, zt)
	stop := atomic.NewBool(false)
	rng := xrand.New(1, 0)
	board := newEmptyBoard(f)

	p := trajectory.New(f, field.Red, 0, board, rng, stop, trajectory.SortNone)
	assert.Empty(t, p.Moves())
}

func TestNewRespectsCancellation(t *testing.T) {
	zt := field.NewZobristTable(9, 9, 1)
	f := field.New(9, 9, zt)
	stop := atomic.NewBool(true)
	rng := xrand.New(1, 0)
	board := newEmptyBoard(f)

	p := trajectory.New(f, field.Red, 4, board, rng, stop, trajectory.SortNone)
	assert.Empty(t, p.Moves())
}

func TestFromLastReusesSurvivingTrajectories(t *testing.T) {
	zt := field.NewZobristTable(7, 7, 1)
	f := field.New(7, 7, zt)
	stop := atomic.NewBool(false)
	rng := xrand.New(1, 0)
	board := newEmptyBoard(f)

	// Red needs (2,3) and (3,4) to enclose the Black stone at (3,3).
	require.True(t, f.PutPoint(f.ToPos(3, 3), field.Black))
	require.True(t, f.PutPoint(f.ToPos(3, 2), field.Red))
	require.True(t, f.PutPoint(f.ToPos(4, 3), field.Red))
	last := trajectory.New(f, field.Red, 3, board, rng, stop, trajectory.SortNone)

	lastPos := f.ToPos(2, 3)
	require.True(t, f.PutPoint(lastPos, field.Red))

	// Red's surviving trajectory, minus the point just played, is what
	// Black has to answer.
	p := trajectory.FromLast(f, field.Black, 3, board, rng, last, lastPos, stop, false, trajectory.SortNone)
	assert.NotNil(t, p.Moves())
	assert.Equal(t, []field.Pos{f.ToPos(3, 4)}, p.Moves())
}
