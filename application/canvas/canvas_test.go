package canvas

import (
	"context"
	"errors"
	"testing"
	"time"

	"ontology-backend/domain/ontology"
	"ontology-backend/tests/fixtures"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) CreateNode(ctx context.Context, node ontology.Node) error {
	return m.Called(ctx, node).Error(0)
}

func (m *MockPersister) CreateEdge(ctx context.Context, edge ontology.Edge) error {
	return m.Called(ctx, edge).Error(0)
}

func (m *MockPersister) MoveNode(ctx context.Context, id string, pos ontology.Position, updatedAt string) error {
	return m.Called(ctx, id, pos, updatedAt).Error(0)
}

var clock = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestCanvas(p Persister) *Canvas {
	return New(p, Options{Now: func() time.Time { return clock }})
}

func renderSample(c *Canvas) Snapshot {
	return c.Render(
		[]ontology.Node{
			fixtures.NewNodeBuilder("customer").WithName("Customer").WithPosition(400, 120).Build(),
			fixtures.NewNodeBuilder("order").WithName("Order").Build(),
			fixtures.NewNodeBuilder("ship").WithName("Ship Order").WithType("ship-action").WithDomain("pmbook").Build(),
		},
		[]ontology.Edge{
			fixtures.Edge("customer", "order"),
			fixtures.Edge("order", "ship"),
			fixtures.Edge("order", "elsewhere"),
		},
	)
}

func edgeByID(s Snapshot, id string) VisualEdge {
	for _, e := range s.Edges {
		if e.ID == id {
			return e
		}
	}
	return VisualEdge{}
}

func nodeByID(s Snapshot, id string) VisualNode {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n
		}
	}
	return VisualNode{}
}

func TestCanvas_Render(t *testing.T) {
	c := newTestCanvas(new(MockPersister))

	snap := renderSample(c)

	require.Len(t, snap.Nodes, 3)
	assert.Equal(t, "customer", snap.Nodes[0].ID, "positioned nodes come first")
	assert.Equal(t, ontology.Position{X: 400, Y: 120}, snap.Nodes[0].Position)

	ship := nodeByID(snap, "ship")
	assert.Equal(t, ontology.ShapeRoundedRect, ship.Type)
	assert.Equal(t, float64(100), ship.Width)
	assert.Equal(t, "#8b5cf6", ship.Data.Color)
	assert.Equal(t, "#8b5cf6", ship.Style.Background)
	assert.Equal(t, "Ship Order", ship.Data.Label)
	assert.False(t, ship.Position.IsOrigin())

	require.Len(t, snap.Edges, 2, "edges to nodes off the canvas are dropped")
	for _, e := range snap.Edges {
		assert.Equal(t, StrokeDefault, e.StrokeWidth)
		assert.Empty(t, e.ClassName)
	}
	assert.Equal(t, "#3b82f6", edgeByID(snap, "customer-to-order").Color)
	assert.False(t, snap.ContextMenu.Open)
}

func TestCanvas_SelectionHighlightsIncidentEdges(t *testing.T) {
	c := newTestCanvas(new(MockPersister))
	renderSample(c)

	snap, err := c.SelectNode("ship")
	require.NoError(t, err)

	assert.Equal(t, "ship", snap.SelectedID)
	assert.Equal(t, StrokeHighlighted, edgeByID(snap, "order-to-ship").StrokeWidth)
	assert.Equal(t, ClassHighlighted, edgeByID(snap, "order-to-ship").ClassName)
	assert.Equal(t, StrokeDefault, edgeByID(snap, "customer-to-order").StrokeWidth)

	snap = c.ClearSelection()
	assert.Empty(t, snap.SelectedID)
	for _, e := range snap.Edges {
		assert.Equal(t, StrokeDefault, e.StrokeWidth)
		assert.Empty(t, e.ClassName)
	}

	_, err = c.SelectNode("ghost")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestCanvas_ContextMenu(t *testing.T) {
	c := newTestCanvas(new(MockPersister))
	renderSample(c)

	snap, err := c.OpenContextMenu(320, 240, "order")
	require.NoError(t, err)
	assert.Equal(t, ContextMenu{Open: true, X: 320, Y: 240, NodeID: "order"}, snap.ContextMenu)
	assert.Equal(t, "order", snap.SelectedID)

	snap, err = c.OpenContextMenu(10, 20, "")
	require.NoError(t, err)
	assert.Empty(t, snap.SelectedID, "pane menu clears the selection")

	snap = c.CloseContextMenu()
	assert.False(t, snap.ContextMenu.Open)
}

func TestCanvas_ConnectRejectsDuplicatesInEitherDirection(t *testing.T) {
	p := new(MockPersister)
	c := newTestCanvas(p)
	renderSample(c)
	before := c.Snapshot().Edges

	_, err := c.Connect(context.Background(), "order", "customer")
	assert.ErrorIs(t, err, ErrDuplicateEdge)
	_, err = c.Connect(context.Background(), "customer", "order")
	assert.ErrorIs(t, err, ErrDuplicateEdge)

	assert.Equal(t, before, c.Snapshot().Edges)
	p.AssertNotCalled(t, "CreateEdge", mock.Anything, mock.Anything)
	assert.Empty(t, c.Mutations())
}

func TestCanvas_ConnectCommits(t *testing.T) {
	p := new(MockPersister)
	p.On("CreateEdge", mock.Anything, mock.MatchedBy(func(e ontology.Edge) bool {
		return e.ID == "customer-to-ship" && e.Relation == "Customer → Ship Order"
	})).Return(nil)
	c := newTestCanvas(p)
	renderSample(c)

	m, err := c.Connect(context.Background(), "customer", "ship")

	require.NoError(t, err)
	assert.Equal(t, MutationCommitted, m.State)
	assert.Equal(t, MutationCreateEdge, m.Kind)
	assert.Equal(t, "customer-to-ship", edgeByID(c.Snapshot(), "customer-to-ship").ID)
	p.AssertExpectations(t)
}

func TestCanvas_ConnectRollsBackOnFailure(t *testing.T) {
	p := new(MockPersister)
	p.On("CreateEdge", mock.Anything, mock.Anything).Return(errors.New("throttled"))
	c := newTestCanvas(p)
	renderSample(c)

	m, err := c.Connect(context.Background(), "customer", "ship")

	require.Error(t, err)
	assert.Equal(t, MutationRolledBack, m.State)
	assert.Equal(t, "throttled", m.Error)
	assert.Len(t, c.Snapshot().Edges, 2)
	assert.Empty(t, edgeByID(c.Snapshot(), "customer-to-ship").ID)

	log := c.Mutations()
	require.Len(t, log, 1)
	assert.Equal(t, MutationRolledBack, log[0].State)
}

func TestCanvas_ConnectUnknownOrSelf(t *testing.T) {
	c := newTestCanvas(new(MockPersister))
	renderSample(c)

	_, err := c.Connect(context.Background(), "order", "order")
	assert.ErrorIs(t, err, ErrSelfLoop)
	_, err = c.Connect(context.Background(), "order", "ghost")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestCanvas_DragStopPersistsRoundedPosition(t *testing.T) {
	p := new(MockPersister)
	p.On("MoveNode", mock.Anything, "order", ontology.Position{X: 13, Y: -7}, "2025-06-01T09:30:00Z").Return(nil)
	c := newTestCanvas(p)
	renderSample(c)

	m, err := c.DragStop(context.Background(), "order", 12.6, -7.4)

	require.NoError(t, err)
	assert.Equal(t, MutationCommitted, m.State)
	assert.Equal(t, ontology.Position{X: 13, Y: -7}, nodeByID(c.Snapshot(), "order").Position)
	rec, ok := c.Node("order")
	require.True(t, ok)
	assert.Equal(t, "2025-06-01T09:30:00Z", rec.UpdatedAt)
	p.AssertExpectations(t)
}

func TestCanvas_DragStopFailureDoesNotRollBack(t *testing.T) {
	p := new(MockPersister)
	p.On("MoveNode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("unavailable"))
	c := newTestCanvas(p)
	renderSample(c)

	m, err := c.DragStop(context.Background(), "order", 500, 600)

	require.Error(t, err)
	assert.Equal(t, MutationFailed, m.State)
	assert.Equal(t, ontology.Position{X: 500, Y: 600}, nodeByID(c.Snapshot(), "order").Position)
}

func TestCanvas_AddObjectAtMenuPosition(t *testing.T) {
	p := new(MockPersister)
	p.On("CreateNode", mock.Anything, mock.MatchedBy(func(n ontology.Node) bool {
		return n.Name == NewObjectName && n.X == 320 && n.Y == 240
	})).Return(nil)
	c := newTestCanvas(p)
	renderSample(c)
	_, err := c.OpenContextMenu(320, 240, "")
	require.NoError(t, err)

	m, v, err := c.AddObject(context.Background())

	require.NoError(t, err)
	assert.Equal(t, MutationCommitted, m.State)
	assert.Equal(t, "new-object-1748770200000", v.ID)
	snap := c.Snapshot()
	assert.False(t, snap.ContextMenu.Open)
	assert.Len(t, snap.Nodes, 4)
	p.AssertExpectations(t)
}

func TestCanvas_AddObjectDefaultsAndFailure(t *testing.T) {
	p := new(MockPersister)
	p.On("CreateNode", mock.Anything, mock.MatchedBy(func(n ontology.Node) bool {
		return n.X == 100 && n.Y == 100
	})).Return(errors.New("conditional check failed"))
	c := newTestCanvas(p)
	renderSample(c)

	m, _, err := c.AddObject(context.Background())

	require.Error(t, err)
	assert.Equal(t, MutationFailed, m.State)
	assert.Len(t, c.Snapshot().Nodes, 3)
	p.AssertExpectations(t)
}

func TestSessions(t *testing.T) {
	s := NewSessions(func() *Canvas { return newTestCanvas(new(MockPersister)) })
	now := clock
	s.now = func() time.Time { return now }

	a := s.Get("a")
	assert.Same(t, a, s.Get("a"))
	_, ok := s.Lookup("b")
	assert.False(t, ok)

	now = now.Add(time.Hour)
	s.Get("b")
	assert.Equal(t, 1, s.Sweep(30*time.Minute))
	assert.Equal(t, 1, s.Len())
	_, ok = s.Lookup("a")
	assert.False(t, ok)
}
