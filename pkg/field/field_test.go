package field_test

import (
	"testing"

	"github.com/herohde/oppai-go/pkg/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestField(w, h int) *field.Field {
	zt := field.NewZobristTable(w, h, 7)
	return field.New(w, h, zt)
}

func TestPutUndoIsIdentity(t *testing.T) {
	f := newTestField(8, 8)

	type snapshot struct {
		score      int32
		hash       field.ZobristHash
		lastPlayer field.Player
	}
	snap := func() snapshot {
		return snapshot{score: f.Score(), hash: f.Hash(), lastPlayer: f.LastPlayer()}
	}

	moves := []struct {
		x, y   int
		player field.Player
	}{
		{3, 3, field.Red},
		{4, 4, field.Black},
		{3, 4, field.Red},
		{4, 3, field.Black},
	}

	var snapshots []snapshot
	for _, m := range moves {
		snapshots = append(snapshots, snap())
		require.True(t, f.PutPoint(f.ToPos(m.x, m.y), m.player))
	}

	for i := len(moves) - 1; i >= 0; i-- {
		f.Undo()
		assert.Equal(t, snapshots[i], snap(), "undo at step %d did not restore state", i)
	}
}

func TestHashMatchesZobristDefinition(t *testing.T) {
	f := newTestField(8, 8)

	require.True(t, f.PutPoint(f.ToPos(2, 2), field.Red))
	require.True(t, f.PutPoint(f.ToPos(2, 3), field.Black))
	require.True(t, f.PutPoint(f.ToPos(5, 5), field.Red))

	assert.Equal(t, field.Hash(f), f.Hash())
}

func TestEquivalentPositionsHaveEqualHash(t *testing.T) {
	a := newTestField(8, 8)
	b := newTestField(8, 8)

	require.True(t, a.PutPoint(a.ToPos(2, 2), field.Red))
	require.True(t, a.PutPoint(a.ToPos(5, 5), field.Black))

	require.True(t, b.PutPoint(b.ToPos(5, 5), field.Black))
	require.True(t, b.PutPoint(b.ToPos(2, 2), field.Red))

	assert.Equal(t, a.Hash(), b.Hash())
}

func TestPuttingOnOccupiedCellFails(t *testing.T) {
	f := newTestField(5, 5)

	require.True(t, f.PutPoint(f.ToPos(2, 2), field.Red))
	assert.False(t, f.PutPoint(f.ToPos(2, 2), field.Black))
}

// TestSingleStoneCapture builds the smallest possible enclosure: a black
// stone at the centre of a plus-shaped ring of red stones. Placing the
// final red stone must capture the black stone and decrement its score
// contribution.
func TestSingleStoneCapture(t *testing.T) {
	f := newTestField(5, 5)

	center := f.ToPos(2, 2)
	require.True(t, f.PutPoint(center, field.Black))

	require.True(t, f.PutPoint(f.ToPos(2, 1), field.Red)) // N
	require.True(t, f.PutPoint(f.ToPos(1, 2), field.Red)) // W
	require.True(t, f.PutPoint(f.ToPos(3, 2), field.Red)) // E

	before := f.Score()
	require.True(t, f.PutPoint(f.ToPos(2, 3), field.Red)) // S: closes the ring
	after := f.Score()

	assert.Equal(t, int32(1), after-before)
	assert.True(t, f.Cell(center).IsCapturedBy(field.Red))
	assert.True(t, f.Cell(center).IsPointOf(field.Black))
	assert.Equal(t, int32(1), f.DeltaScore(field.Red))
	assert.Equal(t, int32(-1), f.DeltaScore(field.Black))
}

// TestEmptyLoopIsNotACapture: a ring with nothing but empty cells inside
// must not flip any flags or change the score (strict "surrounds at
// least one opposing point" rule).
func TestEmptyLoopIsNotACapture(t *testing.T) {
	f := newTestField(5, 5)

	require.True(t, f.PutPoint(f.ToPos(2, 1), field.Red))
	require.True(t, f.PutPoint(f.ToPos(1, 2), field.Red))
	require.True(t, f.PutPoint(f.ToPos(3, 2), field.Red))

	before := f.Score()
	require.True(t, f.PutPoint(f.ToPos(2, 3), field.Red))
	after := f.Score()

	assert.Equal(t, before, after)
	assert.False(t, f.Cell(f.ToPos(2, 2)).IsCapturedBy(field.Red))
}

func TestIsGameOverOnFullBoard(t *testing.T) {
	f := newTestField(2, 1)

	assert.False(t, f.IsGameOver())
	require.True(t, f.PutPoint(f.ToPos(0, 0), field.Red))
	require.True(t, f.PutPoint(f.ToPos(1, 0), field.Black))
	assert.True(t, f.IsGameOver())
}

func TestNumberNearGroups(t *testing.T) {
	f := newTestField(5, 5)
	pos := f.ToPos(2, 2)

	assert.Equal(t, 0, f.NumberNearGroups(pos, field.Red))

	require.True(t, f.PutPoint(f.ToPos(2, 1), field.Red))
	assert.Equal(t, 1, f.NumberNearGroups(pos, field.Red))

	require.True(t, f.PutPoint(f.ToPos(2, 3), field.Red)) // opposite side: 2nd group
	assert.Equal(t, 2, f.NumberNearGroups(pos, field.Red))
}

func TestCloneIsIndependent(t *testing.T) {
	f := newTestField(5, 5)
	require.True(t, f.PutPoint(f.ToPos(2, 2), field.Red))

	cp := f.Clone()
	require.True(t, cp.PutPoint(cp.ToPos(3, 3), field.Black))

	assert.NotEqual(t, f.Hash(), cp.Hash())
	assert.False(t, f.Cell(f.ToPos(3, 3)).IsPoint())
}
