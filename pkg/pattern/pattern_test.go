package pattern_test

import (
	"strings"
	"testing"

	"github.com/herohde/oppai-go/pkg/field"
	"github.com/herohde/oppai-go/pkg/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplateRequiresOddDimensions(t *testing.T) {
	_, err := pattern.ParseTemplate("..\n..\n")
	assert.Error(t, err)
}

func TestParseTemplateRequiresSuggestMarker(t *testing.T) {
	_, err := pattern.ParseTemplate("...\n...\n...\n")
	assert.Error(t, err)
}

func TestParseTemplateDefaultWeight(t *testing.T) {
	tmpl, err := pattern.ParseTemplate("...\n.+.\n...\n")
	require.NoError(t, err)
	assert.Equal(t, 1.0, tmpl.Weight)
}

func TestLoadSplitsOnBlankLines(t *testing.T) {
	templates, err := pattern.Load(strings.NewReader(`
...
.+.
...
weight 2

x.x
.+.
x.x
`))
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, 2.0, templates[0].Weight)
	assert.Equal(t, 1.0, templates[1].Weight)
}

// A 1x1 template with just the suggest marker matches at every empty
// cell, recommending the probed cell itself: a trivial but useful sanity
// check of the shortest (one-symbol) DFA path.
func TestTrivialTemplateMatchesEverywhere(t *testing.T) {
	templates, err := pattern.Load(strings.NewReader("+\nweight 3\n"))
	require.NoError(t, err)
	p := pattern.Compile(templates)

	zt := field.NewZobristTable(5, 5, 1)
	f := field.New(5, 5, zt)

	got := p.MatchAll(f, f.ToPos(2, 2), field.Red)
	assert.Equal(t, 3.0, got[f.ToPos(2, 2)])
}

// A template requiring own stones directly north and east and an opponent
// stone directly south of the probed (empty) cell, suggesting the probed
// cell itself, should match only where that exact shape occurs and should
// respect the mover's own/opponent perspective: seen from the other side
// the colours swap, and no rotation or reflection of the shape fits.
func TestDirectionalTemplateMatchesOnlyForMover(t *testing.T) {
	tmpl, err := pattern.ParseTemplate("?x?\n?+x\n?o?\nweight 5\n")
	require.NoError(t, err)
	p := pattern.Compile([]pattern.Template{tmpl})

	zt := field.NewZobristTable(5, 5, 1)
	f := field.New(5, 5, zt)
	center := f.ToPos(2, 2)
	north := f.ToPos(2, 1)
	south := f.ToPos(2, 3)

	require.True(t, f.PutPoint(north, field.Red))
	require.True(t, f.PutPoint(f.ToPos(3, 2), field.Red))
	require.True(t, f.PutPoint(south, field.Black))

	red := p.MatchAll(f, center, field.Red)
	assert.Equal(t, 5.0, red[center])

	black := p.MatchAll(f, center, field.Black)
	assert.Empty(t, black)
}

func TestSymmetryExpansionCoversRotations(t *testing.T) {
	// An L-shaped own-stone constraint north and east of center, with the
	// move suggested at center, should also match when the same L shape
	// appears rotated (stones west and south) thanks to symmetry expansion.
	tmpl, err := pattern.ParseTemplate("?x?\n?+x\n???\n")
	require.NoError(t, err)
	p := pattern.Compile([]pattern.Template{tmpl})

	zt := field.NewZobristTable(5, 5, 1)
	f := field.New(5, 5, zt)
	center := f.ToPos(2, 2)

	require.True(t, f.PutPoint(f.ToPos(1, 2), field.Red)) // west
	require.True(t, f.PutPoint(f.ToPos(2, 3), field.Red)) // south

	got := p.MatchAll(f, center, field.Red)
	assert.Contains(t, got, center)
}
