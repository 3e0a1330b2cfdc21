// Package canvas models the interactive state of one graph canvas session:
// the rendered nodes and edges, the selection, the context menu, and the
// optimistic mutations issued from the canvas.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"ontology-backend/domain/layout"
	"ontology-backend/domain/ontology"

	"go.uber.org/zap"
)

// Edge stroke widths and classes.
const (
	StrokeDefault     = 2
	StrokeHighlighted = 3
	ClassHighlighted  = "highlighted"
)

// New objects created from the context menu.
const (
	NewObjectName   = "New Object"
	NewObjectDomain = "core"
	NewObjectType   = "object"
)

var defaultDrop = ontology.Position{X: 100, Y: 100}

// maxMutations bounds the mutation log.
const maxMutations = 50

var (
	// ErrDuplicateEdge is returned by Connect when the pair is already joined in
	// either direction.
	ErrDuplicateEdge = errors.New("edge already exists")
	// ErrUnknownNode is returned for ids that are not on the canvas.
	ErrUnknownNode = errors.New("node not on canvas")
	// ErrSelfLoop is returned by Connect when source and target are equal.
	ErrSelfLoop = errors.New("cannot connect a node to itself")
)

// Persister writes canvas changes to the backing store.
type Persister interface {
	CreateNode(ctx context.Context, node ontology.Node) error
	CreateEdge(ctx context.Context, edge ontology.Edge) error
	MoveNode(ctx context.Context, id string, pos ontology.Position, updatedAt string) error
}

// NodeData is what a node draws.
type NodeData struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon,omitempty"`
}

// NodeStyle is the inline style of a node.
type NodeStyle struct {
	Background string `json:"background"`
	Color      string `json:"color"`
	Border     string `json:"border"`
}

// VisualNode is a node as rendered on the canvas.
type VisualNode struct {
	ID       string             `json:"id"`
	Type     ontology.ShapeKind `json:"type"`
	Position ontology.Position  `json:"position"`
	Width    float64            `json:"width"`
	Height   float64            `json:"height"`
	Data     NodeData           `json:"data"`
	Style    NodeStyle          `json:"style"`
}

// VisualEdge is an edge as rendered on the canvas.
type VisualEdge struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Label       string `json:"label,omitempty"`
	Color       string `json:"color"`
	StrokeWidth int    `json:"strokeWidth"`
	ClassName   string `json:"className"`
}

// ContextMenu is open at a screen position, optionally over a node.
type ContextMenu struct {
	Open   bool    `json:"open"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	NodeID string  `json:"nodeId,omitempty"`
}

// Options configure a canvas.
type Options struct {
	Layout layout.Options
	Now    func() time.Time
	Logger *zap.Logger
}

// Canvas is safe for concurrent use. Persistence calls are made without holding
// the lock, so interactions stay responsive while a write is outstanding.
type Canvas struct {
	persister Persister
	layout    layout.Options
	now       func() time.Time
	logger    *zap.Logger

	mu        sync.Mutex
	nodes     []VisualNode
	edges     []VisualEdge
	records   map[string]ontology.Node
	selected  string
	menu      ContextMenu
	mutations []Mutation
	seq       uint64
}

// New creates an empty canvas.
func New(persister Persister, opts Options) *Canvas {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Layout.SizeOf == nil {
		opts.Layout.SizeOf = shapeSize
	}
	return &Canvas{
		persister: persister,
		layout:    opts.Layout,
		now:       opts.Now,
		logger:    opts.Logger,
		nodes:     []VisualNode{},
		edges:     []VisualEdge{},
		records:   map[string]ontology.Node{},
		mutations: []Mutation{},
	}
}

func shapeSize(n ontology.Node) (float64, float64) {
	s := ontology.ShapeFor(n)
	return s.Width, s.Height
}

// Render replaces the canvas contents with nodes and edges, laying out nodes that
// have no stored position. Edges whose endpoints are not both rendered are dropped.
// Selection and menu state are reset.
func (c *Canvas) Render(nodes []ontology.Node, edges []ontology.Edge) Snapshot {
	shown := ontology.FilterEdges(edges, nodes)
	placed := layout.Apply(nodes, shown, c.layout)

	records := make(map[string]ontology.Node, len(placed))
	visual := make([]VisualNode, 0, len(placed))
	for _, n := range placed {
		records[n.ID] = n
		visual = append(visual, visualNode(n))
	}

	visualEdges := make([]VisualEdge, 0, len(shown))
	for _, e := range shown {
		visualEdges = append(visualEdges, visualEdge(e, e.Relation, records[e.Source]))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes = visual
	c.edges = visualEdges
	c.records = records
	c.selected = ""
	c.menu = ContextMenu{}
	return c.snapshotLocked()
}

func visualNode(n ontology.Node) VisualNode {
	shape := ontology.ShapeFor(n)
	color := ontology.ColorFor(n)
	icon, _ := n.Properties.Icon()
	return VisualNode{
		ID:       n.ID,
		Type:     shape.Kind,
		Position: n.Position(),
		Width:    shape.Width,
		Height:   shape.Height,
		Data:     NodeData{Label: n.Name, Color: color, Icon: icon},
		Style:    NodeStyle{Background: color, Color: "#ffffff", Border: "none"},
	}
}

// visualEdge colours the edge after its source node, falling back to the core
// palette when the source is unknown.
func visualEdge(e ontology.Edge, label string, source ontology.Node) VisualEdge {
	color := ontology.ColorFor(ontology.Node{Domain: NewObjectDomain})
	if source.ID != "" {
		color = ontology.ColorFor(source)
	}
	return VisualEdge{
		ID:          e.ID,
		Source:      e.Source,
		Target:      e.Target,
		Label:       label,
		Color:       color,
		StrokeWidth: StrokeDefault,
	}
}

// SelectNode marks id as selected and highlights its incident edges.
func (c *Canvas) SelectNode(id string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[id]; !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	c.selected = id
	c.highlightLocked()
	return c.snapshotLocked(), nil
}

// ClearSelection is a click on the empty pane.
func (c *Canvas) ClearSelection() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ""
	c.highlightLocked()
	return c.snapshotLocked()
}

func (c *Canvas) highlightLocked() {
	for i := range c.edges {
		e := &c.edges[i]
		if c.selected != "" && (e.Source == c.selected || e.Target == c.selected) {
			e.StrokeWidth, e.ClassName = StrokeHighlighted, ClassHighlighted
		} else {
			e.StrokeWidth, e.ClassName = StrokeDefault, ""
		}
	}
}

// OpenContextMenu opens the menu at (x, y). Opening it over a node selects that
// node; opening it over the pane clears the selection.
func (c *Canvas) OpenContextMenu(x, y float64, nodeID string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if nodeID != "" {
		if _, ok := c.records[nodeID]; !ok {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
		}
	}
	c.menu = ContextMenu{Open: true, X: x, Y: y, NodeID: nodeID}
	c.selected = nodeID
	return c.snapshotLocked(), nil
}

// CloseContextMenu dismisses the menu.
func (c *Canvas) CloseContextMenu() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.menu = ContextMenu{}
	return c.snapshotLocked()
}

// Connect draws an edge from source to target and persists it. The edge is shown
// immediately and removed again if the write fails.
func (c *Canvas) Connect(ctx context.Context, source, target string) (Mutation, error) {
	if source == target {
		return Mutation{}, ErrSelfLoop
	}

	c.mu.Lock()
	src, okSrc := c.records[source]
	dst, okDst := c.records[target]
	if !okSrc || !okDst {
		c.mu.Unlock()
		return Mutation{}, fmt.Errorf("%w: %s -> %s", ErrUnknownNode, source, target)
	}
	for _, e := range c.edges {
		if (e.Source == source && e.Target == target) || (e.Source == target && e.Target == source) {
			c.mu.Unlock()
			return Mutation{}, ErrDuplicateEdge
		}
	}

	edge := ontology.Edge{
		ID:         ontology.EdgeSlug(source, target),
		Source:     source,
		Target:     target,
		Relation:   fmt.Sprintf("%s → %s", labelOf(src), labelOf(dst)),
		SourceType: src.Type,
		TargetType: dst.Type,
		CreatedAt:  c.now().UTC().Format(time.RFC3339),
	}
	c.edges = append(c.edges, visualEdge(edge, "", src))
	if c.selected != "" {
		c.highlightLocked()
	}
	m := c.beginLocked(MutationCreateEdge, edge.ID)
	c.mu.Unlock()

	err := c.persister.CreateEdge(ctx, edge)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Error("Failed to create link",
			zap.String("edgeId", edge.ID),
			zap.String("source", source),
			zap.String("target", target),
			zap.Error(err),
		)
		kept := c.edges[:0]
		for _, e := range c.edges {
			if e.Source == source && e.Target == target {
				continue
			}
			kept = append(kept, e)
		}
		c.edges = kept
		return c.finishLocked(m, MutationRolledBack, err), err
	}
	return c.finishLocked(m, MutationCommitted, nil), nil
}

func labelOf(n ontology.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// DragStop moves a node and persists its rounded position. A failed write is
// logged and recorded, but the node stays where it was dropped.
func (c *Canvas) DragStop(ctx context.Context, id string, x, y float64) (Mutation, error) {
	pos := ontology.Position{X: math.Round(x), Y: math.Round(y)}
	updatedAt := c.now().UTC().Format(time.RFC3339)

	c.mu.Lock()
	rec, ok := c.records[id]
	if !ok {
		c.mu.Unlock()
		return Mutation{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	rec.X, rec.Y, rec.UpdatedAt = pos.X, pos.Y, updatedAt
	c.records[id] = rec
	for i := range c.nodes {
		if c.nodes[i].ID == id {
			c.nodes[i].Position = pos
		}
	}
	m := c.beginLocked(MutationMoveNode, id)
	c.mu.Unlock()

	err := c.persister.MoveNode(ctx, id, pos, updatedAt)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Error("Failed to save node position", zap.String("nodeId", id), zap.Error(err))
		return c.finishLocked(m, MutationFailed, err), err
	}
	return c.finishLocked(m, MutationCommitted, nil), nil
}

// AddObject creates a "New Object" node at the context menu position, or at the
// default drop point when no menu is open. On success the node is added to the
// canvas and the menu is closed; on failure nothing changes.
func (c *Canvas) AddObject(ctx context.Context) (Mutation, VisualNode, error) {
	now := c.now()

	c.mu.Lock()
	at := defaultDrop
	if c.menu.Open {
		at = ontology.Position{X: c.menu.X, Y: c.menu.Y}
	}
	node := ontology.Node{
		ID:     fmt.Sprintf("new-object-%d", now.UnixMilli()),
		Name:   NewObjectName,
		Type:   NewObjectType,
		Domain: NewObjectDomain,
		X:      at.X,
		Y:      at.Y,
	}
	node.Touch(now)
	m := c.beginLocked(MutationCreateNode, node.ID)
	c.mu.Unlock()

	err := c.persister.CreateNode(ctx, node)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Error("Failed to create object", zap.String("nodeId", node.ID), zap.Error(err))
		return c.finishLocked(m, MutationFailed, err), VisualNode{}, err
	}
	v := visualNode(node)
	c.records[node.ID] = node
	c.nodes = append(c.nodes, v)
	c.menu = ContextMenu{}
	return c.finishLocked(m, MutationCommitted, nil), v, nil
}

// Snapshot is the full visible state of a canvas.
type Snapshot struct {
	Nodes       []VisualNode `json:"nodes"`
	Edges       []VisualEdge `json:"edges"`
	SelectedID  string       `json:"selectedId,omitempty"`
	ContextMenu ContextMenu  `json:"contextMenu"`
}

// Snapshot returns a copy of the current state.
func (c *Canvas) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Canvas) snapshotLocked() Snapshot {
	return Snapshot{
		Nodes:       append([]VisualNode{}, c.nodes...),
		Edges:       append([]VisualEdge{}, c.edges...),
		SelectedID:  c.selected,
		ContextMenu: c.menu,
	}
}

// Node returns the record behind a rendered node.
func (c *Canvas) Node(id string) (ontology.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.records[id]
	return n, ok
}
