package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ontology-backend/domain/ontology"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errScan = errors.New("dynamodb: connection reset")

// fakeRepo serves fixed collections and can be told to fail.
type fakeRepo struct {
	mu       sync.Mutex
	nodes    []ontology.Node
	edges    []ontology.Edge
	nodesErr error
	edgesErr error
	records  map[string][]ontology.Record
	scanErr  map[string]error
	countErr map[string]error
}

func (f *fakeRepo) ScanNodes(ctx context.Context) ([]ontology.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nodesErr != nil {
		return nil, f.nodesErr
	}
	return append([]ontology.Node{}, f.nodes...), nil
}

func (f *fakeRepo) ScanEdges(ctx context.Context) ([]ontology.Edge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.edgesErr != nil {
		return nil, f.edgesErr
	}
	return append([]ontology.Edge{}, f.edges...), nil
}

func (f *fakeRepo) ScanCollection(ctx context.Context, collection string) ([]ontology.Record, error) {
	if err := f.scanErr[collection]; err != nil {
		return nil, err
	}
	return f.records[collection], nil
}

func (f *fakeRepo) CountCollection(ctx context.Context, collection string) (int, error) {
	if err := f.countErr[collection]; err != nil {
		return 0, err
	}
	return len(f.records[collection]), nil
}

func (f *fakeRepo) set(fn func(f *fakeRepo)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func sampleGraph() *fakeRepo {
	return &fakeRepo{
		nodes: []ontology.Node{
			{ID: "customer", Name: "Customer", Type: "object", Domain: "core"},
			{ID: "order", Name: "Order", Type: "object", Domain: "core"},
			{ID: "ingest", Name: "Ingest Orders", Type: "s3-source", Domain: "dataops"},
		},
		edges: []ontology.Edge{
			{ID: "customer-to-order", Source: "customer", Target: "order", Relation: "places"},
			{ID: "ingest-to-order", Source: "ingest", Target: "order", Relation: "feeds"},
		},
	}
}

func newTestStore(repo *fakeRepo) *Store {
	return New(repo, repo, zap.NewNop())
}

func TestStore_InitLoadsBothCollections(t *testing.T) {
	s := newTestStore(sampleGraph())

	require.NoError(t, s.Init(context.Background()))

	v := s.View()
	assert.Equal(t, 3, v.TotalNodes)
	assert.Equal(t, 2, v.TotalEdges)
	assert.Len(t, v.Nodes, 3)
	assert.Len(t, v.Edges, 2)
	assert.Empty(t, v.Error)
	assert.False(t, v.Loading)
}

func TestStore_PartialFailureKeepsPreviousCollection(t *testing.T) {
	repo := sampleGraph()
	s := newTestStore(repo)
	require.NoError(t, s.Init(context.Background()))

	repo.set(func(f *fakeRepo) {
		f.nodesErr = errScan
		f.edges = f.edges[:1]
	})
	require.NoError(t, s.Reload(context.Background()))

	assert.Len(t, s.AllNodes(), 3, "failed collection keeps its previous contents")
	assert.Len(t, s.AllEdges(), 1, "successful collection is replaced")
	assert.Equal(t, ErrTextNodes, s.NodesError())
	assert.Empty(t, s.EdgesError())
	assert.Equal(t, ErrTextNodes, s.Error())

	repo.set(func(f *fakeRepo) { f.nodesErr = nil })
	require.NoError(t, s.Reload(context.Background()))
	assert.Empty(t, s.Error())
}

func TestStore_BothCollectionsFail(t *testing.T) {
	repo := &fakeRepo{nodesErr: errScan, edgesErr: errScan}
	s := newTestStore(repo)

	require.NoError(t, s.Init(context.Background()))

	assert.Equal(t, ErrTextData, s.Error())
	assert.Equal(t, ErrTextNodes, s.NodesError())
	assert.Equal(t, ErrTextEdges, s.EdgesError())
	assert.Empty(t, s.AllNodes())
	assert.NotNil(t, s.AllNodes())
}

func TestStore_FiltersAndSearch(t *testing.T) {
	s := newTestStore(sampleGraph())
	require.NoError(t, s.Init(context.Background()))

	s.SetFilters([]ontology.FilterPill{{Property: "domain", Value: "CORE"}})
	assert.Len(t, s.Nodes(), 2)
	assert.Equal(t, []ontology.Edge{
		{ID: "customer-to-order", Source: "customer", Target: "order", Relation: "places"},
	}, s.Edges())

	s.SetSearchQuery("cust")
	nodes := s.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "customer", nodes[0].ID)
	assert.Empty(t, s.Edges())

	s.SetFilters(nil)
	s.SetSearchQuery("")
	assert.Len(t, s.Nodes(), 3)
	assert.Equal(t, "", s.SearchQuery())
	assert.Empty(t, s.Filters())
}

func TestStore_FilteredViewFollowsReload(t *testing.T) {
	repo := sampleGraph()
	s := newTestStore(repo)
	require.NoError(t, s.Init(context.Background()))
	s.SetSearchQuery("order")
	require.Len(t, s.Nodes(), 2)

	repo.set(func(f *fakeRepo) {
		f.nodes = append(f.nodes, ontology.Node{ID: "order-line", Name: "Order Line", Type: "object"})
	})
	require.NoError(t, s.Reload(context.Background()))

	assert.Len(t, s.Nodes(), 3)
}

// scriptedGraph hands out node results in call order, each released by its gate.
type scriptedGraph struct {
	started atomic.Int32
	steps   []scriptStep
}

type scriptStep struct {
	gate  chan struct{}
	nodes []ontology.Node
}

func (g *scriptedGraph) ScanNodes(ctx context.Context) ([]ontology.Node, error) {
	step := g.steps[g.started.Add(1)-1]
	<-step.gate
	return step.nodes, nil
}

func (g *scriptedGraph) ScanEdges(ctx context.Context) ([]ontology.Edge, error) {
	return []ontology.Edge{}, nil
}

func TestStore_LaterCompletionWins(t *testing.T) {
	first := []ontology.Node{{ID: "from-first"}}
	second := []ontology.Node{{ID: "from-second"}}
	g := &scriptedGraph{steps: []scriptStep{
		{gate: make(chan struct{}), nodes: first},
		{gate: make(chan struct{}), nodes: second},
	}}
	s := New(g, nil, zap.NewNop())
	ctx := context.Background()

	done1 := make(chan struct{})
	go func() {
		defer close(done1)
		_ = s.Reload(ctx)
	}()
	require.Eventually(t, func() bool { return g.started.Load() == 1 }, time.Second, time.Millisecond)

	done2 := make(chan struct{})
	go func() {
		defer close(done2)
		_ = s.Reload(ctx)
	}()
	require.Eventually(t, func() bool { return g.started.Load() == 2 }, time.Second, time.Millisecond)
	assert.True(t, s.Loading())

	close(g.steps[1].gate)
	<-done2
	assert.Equal(t, second, s.AllNodes())
	assert.True(t, s.Loading(), "first reload still in flight")

	close(g.steps[0].gate)
	<-done1
	assert.Equal(t, first, s.AllNodes())
	assert.False(t, s.Loading())
}

func TestStore_Dispose(t *testing.T) {
	s := newTestStore(sampleGraph())
	require.NoError(t, s.Init(context.Background()))

	s.Dispose()

	assert.ErrorIs(t, s.Reload(context.Background()), ErrStoreDisposed)
	assert.Empty(t, s.AllNodes())
	assert.Empty(t, s.Nodes())
	s.SetSearchQuery("ignored")
	assert.Empty(t, s.SearchQuery())

	_, err := s.LoadTableData(context.Background(), "objects")
	assert.ErrorIs(t, err, ErrStoreDisposed)
	_, err = s.CollectionCounts(context.Background())
	assert.ErrorIs(t, err, ErrStoreDisposed)
}

func TestStore_LoadTableData(t *testing.T) {
	repo := &fakeRepo{
		records: map[string][]ontology.Record{
			ontology.CollectionNode: {
				{"id": "n1", "type": "object"},
				{"id": "n2", "type": "DataProduct"},
				{"id": "n3", "category": "data-product"},
			},
			"workflow": {{"id": "w1"}},
		},
		scanErr: map[string]error{"dataset": errScan},
	}
	s := newTestStore(repo)
	ctx := context.Background()

	tests := []struct {
		view    string
		wantIDs []string
		wantErr bool
	}{
		{view: "objects", wantIDs: []string{"n1", "n2", "n3"}},
		{view: "data-products", wantIDs: []string{"n2", "n3"}},
		{view: "links", wantIDs: []string{}},
		{view: "workflows", wantIDs: []string{"w1"}},
		{view: "datasets", wantIDs: []string{}, wantErr: true},
		{view: "nonsense", wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			data, err := s.LoadTableData(ctx, tt.view)
			require.NoError(t, err)

			ids := make([]string, 0, len(data.Rows))
			for _, r := range data.Rows {
				ids = append(ids, r.Str("id"))
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantErr, data.Error != "")
		})
	}
}

func TestStore_CollectionCountsAreIndependent(t *testing.T) {
	repo := &fakeRepo{
		records: map[string][]ontology.Record{
			ontology.CollectionNode: {{"id": "a"}, {"id": "b"}},
			"action":                {{"id": "x"}},
		},
		countErr: map[string]error{"event": errScan},
	}
	s := newTestStore(repo)

	counts, err := s.CollectionCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, len(Collections()))

	byName := make(map[string]CollectionCount, len(counts))
	for _, c := range counts {
		byName[c.Collection] = c
	}
	assert.Equal(t, 2, byName[ontology.CollectionNode].Count)
	assert.Equal(t, 1, byName["action"].Count)
	assert.Equal(t, 0, byName["workflow"].Count)
	assert.Equal(t, -1, byName["event"].Count)
	assert.NotEmpty(t, byName["event"].Error)
	assert.Empty(t, byName["action"].Error)
	assert.Equal(t, ontology.CollectionNode, counts[0].Collection)
}
