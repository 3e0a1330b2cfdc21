package layout

import (
	"testing"

	"ontology-backend/domain/ontology"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodes(ids ...string) []ontology.Node {
	out := make([]ontology.Node, len(ids))
	for i, id := range ids {
		out[i] = ontology.Node{ID: id, Name: id}
	}
	return out
}

func edge(source, target string) ontology.Edge {
	return ontology.Edge{ID: ontology.EdgeSlug(source, target), Source: source, Target: target}
}

func TestLayered_ChainTopBottom(t *testing.T) {
	got := Layered(nodes("a", "b", "c"), []ontology.Edge{edge("a", "b"), edge("b", "c")}, Options{})

	require.Len(t, got, 3)
	assert.Equal(t, ontology.Position{X: 100, Y: 100}, got["a"])
	assert.Equal(t, ontology.Position{X: 100, Y: 430}, got["b"])
	assert.Equal(t, ontology.Position{X: 100, Y: 760}, got["c"])
}

func TestLayered_SiblingsShareRankWithoutOverlap(t *testing.T) {
	got := Layered(nodes("a", "b", "c"), []ontology.Edge{edge("a", "b"), edge("a", "c")}, DefaultOptions())

	assert.Equal(t, got["b"].Y, got["c"].Y)
	assert.Greater(t, got["b"].Y, got["a"].Y)
	gap := got["c"].X - got["b"].X
	if gap < 0 {
		gap = -gap
	}
	assert.GreaterOrEqual(t, gap, float64(DefaultWidth+DefaultNodeSep))
	// the parent sits centred over its two children
	assert.Equal(t, (got["b"].X+got["c"].X)/2, got["a"].X)
}

func TestLayered_Directions(t *testing.T) {
	chain := []ontology.Edge{edge("a", "b")}

	lr := Layered(nodes("a", "b"), chain, Options{Direction: LeftRight})
	assert.Less(t, lr["a"].X, lr["b"].X)
	assert.Equal(t, lr["a"].Y, lr["b"].Y)

	bt := Layered(nodes("a", "b"), chain, Options{Direction: BottomTop})
	assert.Greater(t, bt["a"].Y, bt["b"].Y)

	rl := Layered(nodes("a", "b"), chain, Options{Direction: RightLeft})
	assert.Greater(t, rl["a"].X, rl["b"].X)
}

func TestLayered_CyclesAreBroken(t *testing.T) {
	got := Layered(nodes("a", "b", "c"), []ontology.Edge{
		edge("a", "b"), edge("b", "c"), edge("c", "a"),
	}, Options{})

	require.Len(t, got, 3)
	assert.NotEqual(t, got["a"].Y, got["b"].Y)
	assert.NotEqual(t, got["b"].Y, got["c"].Y)
}

func TestLayered_IgnoresForeignEdgesAndSelfLoops(t *testing.T) {
	got := Layered(nodes("a", "b"), []ontology.Edge{
		edge("a", "zzz"), edge("a", "a"),
	}, Options{})

	assert.Equal(t, got["a"].Y, got["b"].Y)
}

func TestLayered_Deterministic(t *testing.T) {
	ns := nodes("a", "b", "c", "d", "e", "f")
	es := []ontology.Edge{
		edge("a", "d"), edge("b", "c"), edge("a", "f"), edge("e", "b"), edge("c", "f"),
	}

	first := Layered(ns, es, Options{})
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Layered(ns, es, Options{}))
	}
}

func TestLayered_NeverPlacesAtOrigin(t *testing.T) {
	ns := nodes("a", "b", "c", "d")
	got := Layered(ns, []ontology.Edge{edge("a", "b")}, Options{Direction: BottomTop})

	for id, p := range got {
		assert.False(t, p.IsOrigin(), id)
		assert.GreaterOrEqual(t, p.X, float64(DefaultMarginX), id)
		assert.GreaterOrEqual(t, p.Y, float64(DefaultMarginY), id)
	}
}

func TestLayered_BarycenterRemovesCrossing(t *testing.T) {
	// input order puts c under a and d under b, which crosses a->d with b->c
	got := Layered(nodes("a", "b", "c", "d"), []ontology.Edge{edge("a", "d"), edge("b", "c")}, Options{})

	assert.Less(t, got["a"].X, got["b"].X)
	assert.Less(t, got["d"].X, got["c"].X)
}

func TestLayered_LongEdgeKeepsRanks(t *testing.T) {
	got := Layered(nodes("a", "b", "c"), []ontology.Edge{
		edge("a", "b"), edge("b", "c"), edge("a", "c"),
	}, Options{})

	assert.Less(t, got["a"].Y, got["b"].Y)
	assert.Less(t, got["b"].Y, got["c"].Y)
}

func TestLayered_UsesNodeSizes(t *testing.T) {
	opts := Options{SizeOf: func(n ontology.Node) (float64, float64) {
		if n.ID == "wide" {
			return 120, 60
		}
		return 0, 0
	}}
	got := Layered(nodes("wide", "b"), []ontology.Edge{edge("wide", "b")}, opts)

	// narrower node is centred under the wide one
	assert.Equal(t, float64(100), got["wide"].X)
	assert.Equal(t, float64(120), got["b"].X)
	// the 60-high rank band puts the next rank at 100 + 60 + 250
	assert.Equal(t, float64(410), got["b"].Y)
}

func TestLayered_Empty(t *testing.T) {
	assert.Empty(t, Layered(nil, []ontology.Edge{edge("a", "b")}, Options{}))
}
