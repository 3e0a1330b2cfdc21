// Package layout computes layered (Sugiyama-style) positions for ontology nodes
// that have no stored coordinates.
//
// The pipeline is the classic one: break cycles by reversing DFS back edges, rank
// by longest path, split long edges with dummy vertices, reduce crossings with
// barycenter sweeps, then assign coordinates with each rank centred on the widest.
// Every step iterates slices in input order so the result is deterministic.
package layout

import (
	"sort"

	"ontology-backend/domain/ontology"
)

// Direction is the flow direction of ranks.
type Direction string

const (
	TopBottom Direction = "TB"
	BottomTop Direction = "BT"
	LeftRight Direction = "LR"
	RightLeft Direction = "RL"
)

// Default spacing, in canvas units.
const (
	DefaultRankSep = 250
	DefaultNodeSep = 200
	DefaultMarginX = 100
	DefaultMarginY = 100
	DefaultWidth   = 80
	DefaultHeight  = 80
)

// sweeps is the number of alternating barycenter passes.
const sweeps = 8

// SizeFunc reports the rendered size of a node. Non-positive values fall back to
// the defaults.
type SizeFunc func(n ontology.Node) (width, height float64)

// Options configure a layout run. Zero values mean the defaults.
type Options struct {
	Direction Direction `json:"direction,omitempty" yaml:"direction"`
	RankSep   float64   `json:"rankSep,omitempty" yaml:"rankSep"`
	NodeSep   float64   `json:"nodeSep,omitempty" yaml:"nodeSep"`
	MarginX   float64   `json:"marginX,omitempty" yaml:"marginX"`
	MarginY   float64   `json:"marginY,omitempty" yaml:"marginY"`
	SizeOf    SizeFunc  `json:"-" yaml:"-"`
}

// DefaultOptions returns the top-to-bottom layout used by the canvas.
func DefaultOptions() Options {
	return Options{
		Direction: TopBottom,
		RankSep:   DefaultRankSep,
		NodeSep:   DefaultNodeSep,
		MarginX:   DefaultMarginX,
		MarginY:   DefaultMarginY,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	switch o.Direction {
	case TopBottom, BottomTop, LeftRight, RightLeft:
	default:
		o.Direction = d.Direction
	}
	if o.RankSep <= 0 {
		o.RankSep = d.RankSep
	}
	if o.NodeSep <= 0 {
		o.NodeSep = d.NodeSep
	}
	if o.MarginX <= 0 {
		o.MarginX = d.MarginX
	}
	if o.MarginY <= 0 {
		o.MarginY = d.MarginY
	}
	return o
}

func (o Options) horizontal() bool {
	return o.Direction == LeftRight || o.Direction == RightLeft
}

func (o Options) reversed() bool {
	return o.Direction == BottomTop || o.Direction == RightLeft
}

func (o Options) size(n ontology.Node) (float64, float64) {
	w, h := float64(DefaultWidth), float64(DefaultHeight)
	if o.SizeOf != nil {
		sw, sh := o.SizeOf(n)
		if sw > 0 {
			w = sw
		}
		if sh > 0 {
			h = sh
		}
	}
	return w, h
}

type vertex struct {
	id    string
	w, h  float64
	dummy bool
	rank  int
}

type graph struct {
	vertices []vertex
	succs    [][]int
	preds    [][]int
}

func (g *graph) addVertex(v vertex) int {
	g.vertices = append(g.vertices, v)
	g.succs = append(g.succs, nil)
	g.preds = append(g.preds, nil)
	return len(g.vertices) - 1
}

func (g *graph) addEdge(u, v int) {
	g.succs[u] = append(g.succs[u], v)
	g.preds[v] = append(g.preds[v], u)
}

// Layered positions every node and returns top-left coordinates keyed by node id.
// Edges with an endpoint outside nodes are ignored, as are self loops.
func Layered(nodes []ontology.Node, edges []ontology.Edge, opts Options) map[string]ontology.Position {
	opts = opts.withDefaults()
	out := make(map[string]ontology.Position, len(nodes))
	if len(nodes) == 0 {
		return out
	}

	g := &graph{}
	index := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if _, dup := index[n.ID]; dup {
			continue
		}
		w, h := opts.size(n)
		index[n.ID] = g.addVertex(vertex{id: n.ID, w: w, h: h})
	}

	links := acyclicLinks(len(g.vertices), index, edges)
	for _, l := range links {
		g.addEdge(l[0], l[1])
	}

	assignRanks(g)
	g = splitLongEdges(g)
	layers := orderLayers(g)

	for id, p := range coordinates(g, layers, opts) {
		out[id] = p
	}
	return out
}

// acyclicLinks resolves edges to vertex pairs, drops self loops and duplicates,
// and reverses DFS back edges so the result is acyclic.
func acyclicLinks(count int, index map[string]int, edges []ontology.Edge) [][2]int {
	var links [][2]int
	seen := make(map[[2]int]bool)
	for _, e := range edges {
		u, okU := index[e.Source]
		v, okV := index[e.Target]
		if !okU || !okV || u == v {
			continue
		}
		k := [2]int{u, v}
		if seen[k] {
			continue
		}
		seen[k] = true
		links = append(links, k)
	}

	out := make([][]int, count)
	for i, l := range links {
		out[l[0]] = append(out[l[0]], i)
	}

	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]int, count)
	reversed := make([]bool, len(links))

	var dfs func(u int)
	dfs = func(u int) {
		state[u] = onStack
		for _, li := range out[u] {
			v := links[li][1]
			switch state[v] {
			case onStack:
				reversed[li] = true
			case unvisited:
				dfs(v)
			}
		}
		state[u] = done
	}
	for u := 0; u < count; u++ {
		if state[u] == unvisited {
			dfs(u)
		}
	}

	result := make([][2]int, 0, len(links))
	kept := make(map[[2]int]bool, len(links))
	for i, l := range links {
		if reversed[i] {
			l = [2]int{l[1], l[0]}
		}
		if kept[l] {
			continue
		}
		kept[l] = true
		result = append(result, l)
	}
	return result
}

// assignRanks gives each vertex its longest-path distance from a source.
func assignRanks(g *graph) {
	n := len(g.vertices)
	indegree := make([]int, n)
	for v := 0; v < n; v++ {
		indegree[v] = len(g.preds[v])
	}

	queue := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if indegree[v] == 0 {
			queue = append(queue, v)
		}
	}
	for i := 0; i < len(queue); i++ {
		u := queue[i]
		for _, v := range g.succs[u] {
			if r := g.vertices[u].rank + 1; r > g.vertices[v].rank {
				g.vertices[v].rank = r
			}
			indegree[v]--
			if indegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
}

// splitLongEdges rebuilds g so every edge spans exactly one rank.
func splitLongEdges(g *graph) *graph {
	h := &graph{}
	for _, v := range g.vertices {
		h.addVertex(v)
	}
	for u := range g.vertices {
		for _, v := range g.succs[u] {
			prev := u
			for r := g.vertices[u].rank + 1; r < g.vertices[v].rank; r++ {
				d := h.addVertex(vertex{dummy: true, rank: r})
				h.addEdge(prev, d)
				prev = d
			}
			h.addEdge(prev, v)
		}
	}
	return h
}

// orderLayers groups vertices by rank and reorders each rank with barycenter
// sweeps, keeping the ordering with the fewest crossings.
func orderLayers(g *graph) [][]int {
	maxRank := 0
	for _, v := range g.vertices {
		if v.rank > maxRank {
			maxRank = v.rank
		}
	}
	layers := make([][]int, maxRank+1)
	for i, v := range g.vertices {
		layers[v.rank] = append(layers[v.rank], i)
	}

	pos := make([]int, len(g.vertices))
	reindex := func() {
		for _, layer := range layers {
			for i, v := range layer {
				pos[v] = i
			}
		}
	}
	reindex()

	best := cloneLayers(layers)
	bestCrossings := crossings(g, layers, pos)

	for s := 0; s < sweeps && bestCrossings > 0; s++ {
		down := s%2 == 0
		if down {
			for r := 1; r <= maxRank; r++ {
				sortByBarycenter(layers[r], g.preds, pos)
				reindex()
			}
		} else {
			for r := maxRank - 1; r >= 0; r-- {
				sortByBarycenter(layers[r], g.succs, pos)
				reindex()
			}
		}
		if c := crossings(g, layers, pos); c < bestCrossings {
			bestCrossings = c
			best = cloneLayers(layers)
		}
	}
	return best
}

func sortByBarycenter(layer []int, neighbours [][]int, pos []int) {
	weight := make(map[int]float64, len(layer))
	for _, v := range layer {
		nb := neighbours[v]
		if len(nb) == 0 {
			weight[v] = float64(pos[v])
			continue
		}
		sum := 0
		for _, u := range nb {
			sum += pos[u]
		}
		weight[v] = float64(sum) / float64(len(nb))
	}
	sort.SliceStable(layer, func(i, j int) bool {
		return weight[layer[i]] < weight[layer[j]]
	})
}

// crossings counts edge crossings between every pair of adjacent ranks.
func crossings(g *graph, layers [][]int, pos []int) int {
	total := 0
	for r := 0; r+1 < len(layers); r++ {
		var segs [][2]int
		for _, u := range layers[r] {
			for _, v := range g.succs[u] {
				segs = append(segs, [2]int{pos[u], pos[v]})
			}
		}
		for i := 0; i < len(segs); i++ {
			for j := i + 1; j < len(segs); j++ {
				a, b := segs[i], segs[j]
				if (a[0] < b[0] && a[1] > b[1]) || (a[0] > b[0] && a[1] < b[1]) {
					total++
				}
			}
		}
	}
	return total
}

func cloneLayers(layers [][]int) [][]int {
	c := make([][]int, len(layers))
	for i, l := range layers {
		c[i] = append([]int(nil), l...)
	}
	return c
}

// coordinates converts ordered ranks into top-left positions of the real
// vertices. The bounding box starts at the configured margins.
func coordinates(g *graph, layers [][]int, opts Options) map[string]ontology.Position {
	// along is the extent in the rank direction, across the extent within a rank.
	along := func(v vertex) float64 {
		if opts.horizontal() {
			return v.w
		}
		return v.h
	}
	across := func(v vertex) float64 {
		if opts.horizontal() {
			return v.h
		}
		return v.w
	}
	marginAlong, marginAcross := opts.MarginY, opts.MarginX
	if opts.horizontal() {
		marginAlong, marginAcross = opts.MarginX, opts.MarginY
	}

	bandSize := make([]float64, len(layers))
	rankWidth := make([]float64, len(layers))
	widest := 0.0
	for r, layer := range layers {
		for i, v := range layer {
			vx := g.vertices[v]
			if a := along(vx); a > bandSize[r] {
				bandSize[r] = a
			}
			rankWidth[r] += across(vx)
			if i > 0 {
				rankWidth[r] += opts.NodeSep
			}
		}
		if rankWidth[r] > widest {
			widest = rankWidth[r]
		}
	}

	bandStart := make([]float64, len(layers))
	cursor := 0.0
	for r := range layers {
		bandStart[r] = cursor
		cursor += bandSize[r] + opts.RankSep
	}
	total := cursor - opts.RankSep

	out := make(map[string]ontology.Position)
	for r, layer := range layers {
		start := bandStart[r]
		if opts.reversed() {
			start = total - bandStart[r] - bandSize[r]
		}
		offset := marginAcross + (widest-rankWidth[r])/2
		for _, v := range layer {
			vx := g.vertices[v]
			a, c := along(vx), across(vx)
			if !vx.dummy {
				centreAlong := marginAlong + start + bandSize[r]/2
				centreAcross := offset + c/2
				p := ontology.Position{X: centreAcross - c/2, Y: centreAlong - a/2}
				if opts.horizontal() {
					p = ontology.Position{X: centreAlong - a/2, Y: centreAcross - c/2}
				}
				out[vx.id] = p
			}
			offset += c + opts.NodeSep
		}
	}
	return out
}
