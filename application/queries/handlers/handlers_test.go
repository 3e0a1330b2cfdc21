package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ontology-backend/application/ports"
	"ontology-backend/application/queries"
	"ontology-backend/application/queries/bus"
	"ontology-backend/application/store"
	"ontology-backend/domain/health"
	"ontology-backend/domain/layout"
	"ontology-backend/domain/ontology"
	"ontology-backend/infrastructure/persistence/memory"
	apperrors "ontology-backend/pkg/errors"
	"ontology-backend/tests/fixtures"
	"ontology-backend/tests/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func clock() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }

func sampleRepo() *memory.Repository {
	repo := memory.NewRepository()
	repo.Seed(memory.Snapshot{
		Nodes: []ontology.Node{
			fixtures.NewNodeBuilder("customer").WithName("Customer").WithDomain("sales").WithPosition(400, 100).Complete().Build(),
			fixtures.NewNodeBuilder("order").WithName("Order").WithDomain("sales").Complete().Build(),
			fixtures.NewNodeBuilder("invoice").WithName("Invoice").WithDomain("finance").Complete().Build(),
			fixtures.NewNodeBuilder("revenue").WithName("Revenue").WithType("data product").Complete().Build(),
		},
		Edges: []ontology.Edge{
			fixtures.Edge("customer", "order"),
			fixtures.Edge("order", "invoice"),
			fixtures.Edge("invoice", "revenue"),
		},
		Collections: map[string][]ontology.Record{
			"action": {{"id": "approve"}, {"id": "reject"}},
		},
	})
	return repo
}

func newTestBus(t *testing.T, repo ports.OntologyRepository, mws ...bus.Middleware) *bus.QueryBus {
	t.Helper()
	b := bus.NewQueryBus(mws...)
	require.NoError(t, Register(b, repo, layout.Options{}, clock, zap.NewNop()))
	return b
}

func TestGetGraphView_FiltersAndSearch(t *testing.T) {
	b := newTestBus(t, sampleRepo())

	res, err := b.Ask(context.Background(), queries.GetGraphViewQuery{Filters: []string{"domain:sales"}})
	require.NoError(t, err)
	view := res.(*store.View)
	assert.Len(t, view.Nodes, 2)
	assert.Len(t, view.Edges, 1)
	assert.Equal(t, 4, view.TotalNodes)
	assert.Equal(t, 3, view.TotalEdges)

	res, err = b.Ask(context.Background(), queries.GetGraphViewQuery{Search: "INV"})
	require.NoError(t, err)
	view = res.(*store.View)
	require.Len(t, view.Nodes, 1)
	assert.Equal(t, "invoice", view.Nodes[0].ID)
	assert.Empty(t, view.Edges)
}

func TestGetGraphView_RejectsMalformedFilter(t *testing.T) {
	b := newTestBus(t, sampleRepo())

	_, err := b.Ask(context.Background(), queries.GetGraphViewQuery{Filters: []string{"domain"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestGetLayout_PlacesUnpositionedNodes(t *testing.T) {
	b := newTestBus(t, sampleRepo())

	res, err := b.Ask(context.Background(), queries.GetLayoutQuery{})
	require.NoError(t, err)
	result := res.(*queries.LayoutResult)

	assert.Equal(t, "TB", result.Direction)
	assert.Equal(t, 3, result.Placed)
	require.Len(t, result.Nodes, 4)

	byID := map[string]ontology.Node{}
	for _, n := range result.Nodes {
		byID[n.ID] = n
		assert.False(t, n.Position().IsOrigin(), n.ID)
	}
	assert.Equal(t, ontology.Position{X: 400, Y: 100}, byID["customer"].Position())
	assert.Less(t, byID["order"].Y, byID["invoice"].Y)
	assert.Less(t, byID["invoice"].Y, byID["revenue"].Y)
}

func TestGetLayout_Direction(t *testing.T) {
	b := newTestBus(t, sampleRepo())

	_, err := b.Ask(context.Background(), queries.GetLayoutQuery{Direction: "diagonal"})
	assert.True(t, apperrors.IsValidation(err))

	res, err := b.Ask(context.Background(), queries.GetLayoutQuery{Direction: "LR", Filters: []string{"domain:finance"}})
	require.NoError(t, err)
	result := res.(*queries.LayoutResult)
	assert.Equal(t, "LR", result.Direction)
	require.Len(t, result.Nodes, 1)
}

func TestGetLayout_ConfiguredDirection(t *testing.T) {
	b := bus.NewQueryBus()
	require.NoError(t, Register(b, sampleRepo(), layout.Options{Direction: layout.LeftRight}, clock, zap.NewNop()))

	res, err := b.Ask(context.Background(), queries.GetLayoutQuery{})
	require.NoError(t, err)
	assert.Equal(t, "LR", res.(*queries.LayoutResult).Direction)

	res, err = b.Ask(context.Background(), queries.GetLayoutQuery{Direction: "BT"})
	require.NoError(t, err)
	assert.Equal(t, "BT", res.(*queries.LayoutResult).Direction)
}

func TestGetHealthReport(t *testing.T) {
	repo := sampleRepo()
	require.NoError(t, repo.PutNode(context.Background(), fixtures.NewNodeBuilder("loose").Complete().Build()))
	b := newTestBus(t, repo)

	res, err := b.Ask(context.Background(), queries.GetHealthReportQuery{})
	require.NoError(t, err)
	result := res.(*queries.HealthResult)
	require.NotNil(t, result.Report)
	assert.Empty(t, result.Error)
	assert.Equal(t, []string{"loose"}, result.Report.OrphanedNodes)
	assert.Equal(t, 75, result.Report.Score)
	assert.Equal(t, health.StatusWarning, result.Report.Status)
	assert.Equal(t, clock(), result.Report.LastUpdated)
}

func TestGetHealthReport_ScanFailure(t *testing.T) {
	repo := new(mocks.MockOntologyRepository)
	repo.On("ScanNodes", mock.Anything).Return([]ontology.Node{fixtures.NewNodeBuilder("a").Build()}, nil)
	repo.On("ScanEdges", mock.Anything).Return(nil, errors.New("throttled"))
	b := newTestBus(t, repo)

	res, err := b.Ask(context.Background(), queries.GetHealthReportQuery{})
	require.NoError(t, err)
	result := res.(*queries.HealthResult)
	assert.Nil(t, result.Report)
	assert.Equal(t, "Failed to load ontology data", result.Error)
}

func TestGetTableData(t *testing.T) {
	b := newTestBus(t, sampleRepo())

	tests := []struct {
		view string
		ids  []string
	}{
		{"data-products", []string{"revenue"}},
		{"actions", []string{"approve", "reject"}},
		{"links", []string{}},
		{"unknown", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			res, err := b.Ask(context.Background(), queries.GetTableDataQuery{View: tt.view})
			require.NoError(t, err)
			data := res.(*store.TableData)
			ids := []string{}
			for _, r := range data.Rows {
				ids = append(ids, r.Str("id"))
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestGetCollectionCounts(t *testing.T) {
	b := newTestBus(t, sampleRepo())

	res, err := b.Ask(context.Background(), queries.GetCollectionCountsQuery{})
	require.NoError(t, err)
	counts := map[string]int{}
	for _, c := range res.(*queries.CountsResult).Collections {
		counts[c.Collection] = c.Count
	}
	assert.Equal(t, 4, counts[ontology.CollectionNode])
	assert.Equal(t, 3, counts[ontology.CollectionEdge])
	assert.Equal(t, 2, counts["action"])
}

func TestGetNode(t *testing.T) {
	b := newTestBus(t, sampleRepo())

	res, err := b.Ask(context.Background(), queries.GetNodeQuery{NodeID: "order"})
	require.NoError(t, err)
	assert.Equal(t, "Order", res.(*ontology.Node).Name)

	_, err = b.Ask(context.Background(), queries.GetNodeQuery{NodeID: "ghost"})
	assert.True(t, apperrors.IsNotFound(err))
}

type mapCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func TestCachingMiddleware_ServesRepeatQueriesFromCache(t *testing.T) {
	repo := new(mocks.MockOntologyRepository)
	repo.On("ScanNodes", mock.Anything).Return([]ontology.Node{fixtures.NewNodeBuilder("a").Build()}, nil).Once()
	repo.On("ScanEdges", mock.Anything).Return([]ontology.Edge{}, nil).Once()

	cache := &mapCache{items: map[string][]byte{}}
	b := newTestBus(t, repo, bus.CachingMiddleware(cache, 60, zap.NewNop()))

	for i := 0; i < 2; i++ {
		res, err := b.Ask(context.Background(), queries.GetGraphViewQuery{Search: "a"})
		require.NoError(t, err)
		require.Len(t, res.(*store.View).Nodes, 1)
	}
	repo.AssertNumberOfCalls(t, "ScanNodes", 1)
	assert.Len(t, cache.items, 1)
}

func TestCachingMiddleware_RetriesFailedLoads(t *testing.T) {
	repo := new(mocks.MockOntologyRepository)
	repo.On("ScanNodes", mock.Anything).Return(nil, errors.New("throttled")).Once()
	repo.On("ScanNodes", mock.Anything).Return([]ontology.Node{fixtures.NewNodeBuilder("a").Build()}, nil)
	repo.On("ScanEdges", mock.Anything).Return([]ontology.Edge{}, nil)

	cache := &mapCache{items: map[string][]byte{}}
	b := newTestBus(t, repo, bus.CachingMiddleware(cache, 60, zap.NewNop()))
	ctx := context.Background()

	res, err := b.Ask(ctx, queries.GetGraphViewQuery{})
	require.NoError(t, err)
	assert.Equal(t, store.ErrTextNodes, res.(*store.View).NodesError)
	assert.Empty(t, cache.items)

	res, err = b.Ask(ctx, queries.GetGraphViewQuery{})
	require.NoError(t, err)
	view := res.(*store.View)
	assert.Empty(t, view.Error)
	assert.Len(t, view.Nodes, 1)
	assert.Len(t, cache.items, 1)
}

func TestCachingMiddleware_RetriesFailedHealthScan(t *testing.T) {
	repo := new(mocks.MockOntologyRepository)
	repo.On("ScanNodes", mock.Anything).Return([]ontology.Node{fixtures.NewNodeBuilder("a").Complete().Build()}, nil)
	repo.On("ScanEdges", mock.Anything).Return(nil, errors.New("throttled")).Once()
	repo.On("ScanEdges", mock.Anything).Return([]ontology.Edge{}, nil)

	cache := &mapCache{items: map[string][]byte{}}
	b := newTestBus(t, repo, bus.CachingMiddleware(cache, 60, zap.NewNop()))
	ctx := context.Background()

	res, err := b.Ask(ctx, queries.GetHealthReportQuery{})
	require.NoError(t, err)
	assert.Equal(t, store.ErrTextData, res.(*queries.HealthResult).Error)

	res, err = b.Ask(ctx, queries.GetHealthReportQuery{})
	require.NoError(t, err)
	require.NotNil(t, res.(*queries.HealthResult).Report)
	assert.Equal(t, []string{"a"}, res.(*queries.HealthResult).Report.OrphanedNodes)
}

func TestFailedResults(t *testing.T) {
	assert.True(t, store.View{EdgesError: store.ErrTextEdges}.Failed())
	assert.False(t, store.View{}.Failed())
	assert.True(t, queries.LayoutResult{View: store.View{Error: store.ErrTextData}}.Failed())
	assert.True(t, queries.HealthResult{}.Failed())
	assert.True(t, store.TableData{Error: "Failed to load actions"}.Failed())
	assert.True(t, queries.CountsResult{Collections: []store.CollectionCount{{Collection: "action", Count: -1, Error: "x"}}}.Failed())
	assert.False(t, queries.CountsResult{Collections: []store.CollectionCount{{Collection: "action", Count: 2}}}.Failed())
}

type recorder struct {
	names []string
	errs  []error
}

func (r *recorder) ObserveQuery(name string, _ time.Duration, err error) {
	r.names = append(r.names, name)
	r.errs = append(r.errs, err)
}

func TestMetricsMiddleware(t *testing.T) {
	rec := &recorder{}
	b := newTestBus(t, sampleRepo(), bus.MetricsMiddleware(rec))

	_, err := b.Ask(context.Background(), queries.GetNodeQuery{NodeID: "ghost"})
	require.Error(t, err)
	_, err = b.Ask(context.Background(), queries.GetCollectionCountsQuery{})
	require.NoError(t, err)

	assert.Equal(t, []string{"GetNodeQuery", "GetCollectionCountsQuery"}, rec.names)
	assert.Error(t, rec.errs[0])
	assert.NoError(t, rec.errs[1])
}

type unregistered struct{}

func (unregistered) Validate() error { return nil }

func TestQueryBus_UnknownQuery(t *testing.T) {
	b := newTestBus(t, sampleRepo())
	_, err := b.Ask(context.Background(), unregistered{})
	assert.ErrorIs(t, err, bus.ErrHandlerNotFound)
}
