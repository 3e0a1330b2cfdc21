// Package store holds the in-memory ontology graph: the full node and edge
// collections, the active filters and search query, and the filtered view derived
// from them.
package store

import (
	"context"
	"errors"
	"sync"

	"ontology-backend/application/ports"
	"ontology-backend/domain/ontology"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Error texts recorded when a collection scan fails.
const (
	ErrTextNodes = "Failed to load ontology nodes"
	ErrTextEdges = "Failed to load ontology edges"
	ErrTextData  = "Failed to load ontology data"
)

// ErrStoreDisposed is returned by lifecycle calls made after Dispose.
var ErrStoreDisposed = errors.New("ontology store disposed")

// GraphReader is the part of the repository the graph view needs.
type GraphReader interface {
	ScanNodes(ctx context.Context) ([]ontology.Node, error)
	ScanEdges(ctx context.Context) ([]ontology.Edge, error)
}

// Store is safe for concurrent use. Overlapping reloads are neither cancelled nor
// merged: each applies its own result when it completes.
type Store struct {
	graph       GraphReader
	collections ports.CollectionReader
	logger      *zap.Logger

	mu          sync.Mutex
	allNodes    []ontology.Node
	allEdges    []ontology.Edge
	nodesErr    string
	edgesErr    string
	filters     []ontology.FilterPill
	searchQuery string
	inflight    int
	disposed    bool

	version  uint64
	memoAt   uint64
	memoOK   bool
	memoNode []ontology.Node
	memoEdge []ontology.Edge
}

// New creates an empty store. collections may be nil when table views and counts
// are not needed.
func New(graph GraphReader, collections ports.CollectionReader, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		graph:       graph,
		collections: collections,
		logger:      logger,
		allNodes:    []ontology.Node{},
		allEdges:    []ontology.Edge{},
	}
}

// NewFromRepository creates a store over a full ontology repository.
func NewFromRepository(repo ports.OntologyRepository, logger *zap.Logger) *Store {
	return New(repo, repo, logger)
}

// Init performs the first load. Calling it again is the same as Reload.
func (s *Store) Init(ctx context.Context) error {
	return s.Reload(ctx)
}

// Reload scans the node and edge collections concurrently. A failed collection
// records its error text and keeps its previous contents; the other is still
// replaced. Scan failures are never returned, only ErrStoreDisposed is.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrStoreDisposed
	}
	s.inflight++
	s.mu.Unlock()

	var (
		nodes    []ontology.Node
		edges    []ontology.Edge
		nodesErr error
		edgesErr error
	)

	// Both scans always run to completion; neither failure cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		nodes, nodesErr = s.graph.ScanNodes(ctx)
		return nil
	})
	g.Go(func() error {
		edges, edgesErr = s.graph.ScanEdges(ctx)
		return nil
	})
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if s.disposed {
		return ErrStoreDisposed
	}

	if nodesErr != nil {
		s.logger.Error("Failed to load ontology nodes", zap.Error(nodesErr))
		s.nodesErr = ErrTextNodes
	} else {
		s.allNodes = nonNilNodes(nodes)
		s.nodesErr = ""
	}
	if edgesErr != nil {
		s.logger.Error("Failed to load ontology edges", zap.Error(edgesErr))
		s.edgesErr = ErrTextEdges
	} else {
		s.allEdges = nonNilEdges(edges)
		s.edgesErr = ""
	}
	s.version++

	s.logger.Debug("Ontology reloaded",
		zap.Int("nodeCount", len(s.allNodes)),
		zap.Int("edgeCount", len(s.allEdges)),
		zap.Bool("nodesFailed", nodesErr != nil),
		zap.Bool("edgesFailed", edgesErr != nil),
	)
	return nil
}

// Dispose drops all state. Later reloads return ErrStoreDisposed and setters are
// ignored.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.allNodes = []ontology.Node{}
	s.allEdges = []ontology.Edge{}
	s.filters = nil
	s.searchQuery = ""
	s.nodesErr, s.edgesErr = "", ""
	s.memoOK = false
	s.memoNode, s.memoEdge = nil, nil
	s.version++
}

// Loading reports whether a reload is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Error is the single user-facing error text, or "" when the last load of both
// collections succeeded.
func (s *Store) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorLocked()
}

func (s *Store) errorLocked() string {
	switch {
	case s.nodesErr != "" && s.edgesErr != "":
		return ErrTextData
	case s.nodesErr != "":
		return s.nodesErr
	default:
		return s.edgesErr
	}
}

// NodesError is the error text of the last node scan.
func (s *Store) NodesError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodesErr
}

// EdgesError is the error text of the last edge scan.
func (s *Store) EdgesError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edgesErr
}

// AllNodes returns a copy of the unfiltered node collection.
func (s *Store) AllNodes() []ontology.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ontology.Node{}, s.allNodes...)
}

// AllEdges returns a copy of the unfiltered edge collection.
func (s *Store) AllEdges() []ontology.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ontology.Edge{}, s.allEdges...)
}

// SetFilters replaces the filter pills.
func (s *Store) SetFilters(pills []ontology.FilterPill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.filters = append([]ontology.FilterPill(nil), pills...)
	s.version++
}

// Filters returns the current filter pills.
func (s *Store) Filters() []ontology.FilterPill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ontology.FilterPill{}, s.filters...)
}

// SetSearchQuery replaces the free-text query.
func (s *Store) SetSearchQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.searchQuery = q
	s.version++
}

// SearchQuery returns the free-text query.
func (s *Store) SearchQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchQuery
}

// Nodes returns the filtered nodes.
func (s *Store) Nodes() []ontology.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.derive()
	return append([]ontology.Node{}, s.memoNode...)
}

// Edges returns the edges between filtered nodes.
func (s *Store) Edges() []ontology.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.derive()
	return append([]ontology.Edge{}, s.memoEdge...)
}

// derive recomputes the filtered view when any input changed since the last call.
func (s *Store) derive() {
	if s.memoOK && s.memoAt == s.version {
		return
	}
	s.memoNode = ontology.FilterNodes(s.allNodes, s.filters, s.searchQuery)
	s.memoEdge = ontology.FilterEdges(s.allEdges, s.memoNode)
	s.memoAt = s.version
	s.memoOK = true
}

// View is a consistent snapshot of the store.
type View struct {
	Nodes       []ontology.Node       `json:"nodes"`
	Edges       []ontology.Edge       `json:"edges"`
	TotalNodes  int                   `json:"totalNodes"`
	TotalEdges  int                   `json:"totalEdges"`
	Filters     []ontology.FilterPill `json:"filters"`
	SearchQuery string                `json:"searchQuery"`
	Loading     bool                  `json:"loading"`
	Error       string                `json:"error,omitempty"`
	NodesError  string                `json:"nodesError,omitempty"`
	EdgesError  string                `json:"edgesError,omitempty"`
}

// Failed reports whether either collection failed to load.
func (v View) Failed() bool {
	return v.Error != "" || v.NodesError != "" || v.EdgesError != ""
}

// View reads the filtered graph together with its status in one step.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.derive()
	return View{
		Nodes:       append([]ontology.Node{}, s.memoNode...),
		Edges:       append([]ontology.Edge{}, s.memoEdge...),
		TotalNodes:  len(s.allNodes),
		TotalEdges:  len(s.allEdges),
		Filters:     append([]ontology.FilterPill{}, s.filters...),
		SearchQuery: s.searchQuery,
		Loading:     s.inflight > 0,
		Error:       s.errorLocked(),
		NodesError:  s.nodesErr,
		EdgesError:  s.edgesErr,
	}
}

func nonNilNodes(n []ontology.Node) []ontology.Node {
	if n == nil {
		return []ontology.Node{}
	}
	return n
}

func nonNilEdges(e []ontology.Edge) []ontology.Edge {
	if e == nil {
		return []ontology.Edge{}
	}
	return e
}
