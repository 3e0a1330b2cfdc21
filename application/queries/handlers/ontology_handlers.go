package handlers

import (
	"context"
	"fmt"

	"ontology-backend/application/ports"
	"ontology-backend/application/queries"
	"ontology-backend/application/queries/bus"
	"ontology-backend/application/store"
	"ontology-backend/domain/health"
	"ontology-backend/domain/layout"
	"ontology-backend/domain/ontology"
	"ontology-backend/pkg/utils"

	"go.uber.org/zap"
)

// reader builds a fresh store for every query so concurrent requests never share
// filter or search state.
type reader struct {
	repo   ports.OntologyRepository
	logger *zap.Logger
}

func (r reader) load(ctx context.Context, search string, pills []ontology.FilterPill) (*store.Store, error) {
	s := store.NewFromRepository(r.repo, r.logger)
	if err := s.Init(ctx); err != nil {
		s.Dispose()
		return nil, err
	}
	s.SetFilters(pills)
	s.SetSearchQuery(search)
	return s, nil
}

func unexpected(q bus.Query) error {
	return fmt.Errorf("unexpected query type %T", q)
}

// GetGraphViewHandler handles GetGraphViewQuery
type GetGraphViewHandler struct{ reader }

func NewGetGraphViewHandler(repo ports.OntologyRepository, logger *zap.Logger) *GetGraphViewHandler {
	return &GetGraphViewHandler{reader{repo: repo, logger: logger}}
}

func (h *GetGraphViewHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetGraphViewQuery)
	if !ok {
		return nil, unexpected(q)
	}
	s, err := h.load(ctx, query.Search, query.Pills())
	if err != nil {
		return nil, err
	}
	defer s.Dispose()

	view := s.View()
	return &view, nil
}

// GetLayoutHandler handles GetLayoutQuery
type GetLayoutHandler struct {
	reader
	opts layout.Options
}

// NewGetLayoutHandler lays nodes out with opts; the query picks the direction.
func NewGetLayoutHandler(repo ports.OntologyRepository, opts layout.Options, logger *zap.Logger) *GetLayoutHandler {
	if opts.SizeOf == nil {
		opts.SizeOf = func(n ontology.Node) (float64, float64) {
			s := ontology.ShapeFor(n)
			return s.Width, s.Height
		}
	}
	return &GetLayoutHandler{reader: reader{repo: repo, logger: logger}, opts: opts}
}

func (h *GetLayoutHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetLayoutQuery)
	if !ok {
		return nil, unexpected(q)
	}
	vq := query.View()
	s, err := h.load(ctx, vq.Search, vq.Pills())
	if err != nil {
		return nil, err
	}
	defer s.Dispose()

	view := s.View()
	_, unplaced := layout.Partition(view.Nodes)

	opts := h.opts
	opts.Direction = query.LayoutDirection(h.opts.Direction)
	view.Nodes = layout.Apply(view.Nodes, view.Edges, opts)

	return &queries.LayoutResult{
		View:      view,
		Direction: string(opts.Direction),
		Placed:    len(unplaced),
	}, nil
}

// GetHealthReportHandler handles GetHealthReportQuery
type GetHealthReportHandler struct {
	reader
	clock utils.Clock
}

func NewGetHealthReportHandler(repo ports.OntologyRepository, clock utils.Clock, logger *zap.Logger) *GetHealthReportHandler {
	if clock == nil {
		clock = utils.SystemClock()
	}
	return &GetHealthReportHandler{reader: reader{repo: repo, logger: logger}, clock: clock}
}

func (h *GetHealthReportHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	if _, ok := q.(queries.GetHealthReportQuery); !ok {
		return nil, unexpected(q)
	}
	s, err := h.load(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	defer s.Dispose()

	// A partial scan would score a graph that does not exist, so any failure
	// reports the load error instead.
	if s.NodesError() != "" || s.EdgesError() != "" {
		return &queries.HealthResult{Error: store.ErrTextData}, nil
	}

	report := health.Run(s.AllNodes(), s.AllEdges(), h.clock())
	return &queries.HealthResult{Report: &report}, nil
}

// GetCollectionCountsHandler handles GetCollectionCountsQuery
type GetCollectionCountsHandler struct{ reader }

func NewGetCollectionCountsHandler(repo ports.OntologyRepository, logger *zap.Logger) *GetCollectionCountsHandler {
	return &GetCollectionCountsHandler{reader{repo: repo, logger: logger}}
}

func (h *GetCollectionCountsHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	if _, ok := q.(queries.GetCollectionCountsQuery); !ok {
		return nil, unexpected(q)
	}
	s := store.NewFromRepository(h.repo, h.logger)
	defer s.Dispose()

	counts, err := s.CollectionCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &queries.CountsResult{Collections: counts}, nil
}

// GetTableDataHandler handles GetTableDataQuery
type GetTableDataHandler struct{ reader }

func NewGetTableDataHandler(repo ports.OntologyRepository, logger *zap.Logger) *GetTableDataHandler {
	return &GetTableDataHandler{reader{repo: repo, logger: logger}}
}

func (h *GetTableDataHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetTableDataQuery)
	if !ok {
		return nil, unexpected(q)
	}
	s := store.NewFromRepository(h.repo, h.logger)
	defer s.Dispose()

	data, err := s.LoadTableData(ctx, query.View)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// GetNodeHandler handles GetNodeQuery
type GetNodeHandler struct{ reader }

func NewGetNodeHandler(repo ports.OntologyRepository, logger *zap.Logger) *GetNodeHandler {
	return &GetNodeHandler{reader{repo: repo, logger: logger}}
}

func (h *GetNodeHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetNodeQuery)
	if !ok {
		return nil, unexpected(q)
	}
	return h.repo.GetNode(ctx, query.NodeID)
}

// Register wires every ontology query handler into b.
func Register(b *bus.QueryBus, repo ports.OntologyRepository, layoutOpts layout.Options, clock utils.Clock, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.GetGraphViewQuery{}, NewGetGraphViewHandler(repo, logger)},
		{queries.GetLayoutQuery{}, NewGetLayoutHandler(repo, layoutOpts, logger)},
		{queries.GetHealthReportQuery{}, NewGetHealthReportHandler(repo, clock, logger)},
		{queries.GetCollectionCountsQuery{}, NewGetCollectionCountsHandler(repo, logger)},
		{queries.GetTableDataQuery{}, NewGetTableDataHandler(repo, logger)},
		{queries.GetNodeQuery{}, NewGetNodeHandler(repo, logger)},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}
