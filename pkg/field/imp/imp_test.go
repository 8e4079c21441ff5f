package imp_test

import (
	"testing"

	"github.com/herohde/oppai-go/pkg/field"
	"github.com/herohde/oppai-go/pkg/field/imp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSimpleBoard(t *testing.T) {
	zt := field.NewZobristTable(4, 3, 1)
	f, err := imp.Decode(`
..a.
.AaA
....
`, zt)
	require.NoError(t, err)

	assert.Equal(t, 4, f.Width())
	assert.Equal(t, 3, f.Height())
	assert.Equal(t, 4, f.MovesCount())
	assert.True(t, f.Cell(f.ToPos(2, 0)).IsPointOf(field.Red))
	assert.True(t, f.Cell(f.ToPos(1, 1)).IsPointOf(field.Black))
}

func TestDecodeRejectsRaggedRows(t *testing.T) {
	zt := field.NewZobristTable(4, 2, 1)
	_, err := imp.Decode("....\n...\n", zt)
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTripsMoveCount(t *testing.T) {
	zt := field.NewZobristTable(4, 4, 1)
	f := field.New(4, 4, zt)
	require.True(t, f.PutPoint(f.ToPos(1, 1), field.Red))
	require.True(t, f.PutPoint(f.ToPos(2, 2), field.Black))

	s := imp.Encode(f)
	f2, err := imp.Decode(s, zt)
	require.NoError(t, err)
	assert.Equal(t, f.MovesCount(), f2.MovesCount())
	assert.Equal(t, f.Hash(), f2.Hash())
}
