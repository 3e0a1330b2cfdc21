package store

import (
	"context"
	"errors"
	"fmt"

	"ontology-backend/domain/ontology"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// countConcurrency bounds the number of collections counted at once.
const countConcurrency = 4

var errNoCollections = errors.New("no collection reader configured")

// TableData is the content of one table view.
type TableData struct {
	View  string            `json:"view"`
	Rows  []ontology.Record `json:"rows"`
	Error string            `json:"error,omitempty"`
}

func (d TableData) Failed() bool { return d.Error != "" }

// LoadTableData scans the collection behind a table view. Unknown views and
// "links" have no rows. A failed scan is logged and yields no rows.
func (s *Store) LoadTableData(ctx context.Context, view string) (TableData, error) {
	if s.isDisposed() {
		return TableData{}, ErrStoreDisposed
	}
	out := TableData{View: view, Rows: []ontology.Record{}}

	src := ontology.TableForView(view)
	if src.Collection == "" {
		return out, nil
	}
	if s.collections == nil {
		s.logger.Error("Failed to load table data", zap.String("view", view), zap.Error(errNoCollections))
		out.Error = fmt.Sprintf("Failed to load %s", view)
		return out, nil
	}

	rows, err := s.collections.ScanCollection(ctx, src.Collection)
	if err != nil {
		s.logger.Error("Failed to load table data",
			zap.String("view", view),
			zap.String("collection", src.Collection),
			zap.Error(err),
		)
		out.Error = fmt.Sprintf("Failed to load %s", view)
		return out, nil
	}

	for _, r := range rows {
		if src.ProductsOnly && !r.IsDataProduct() {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}

// CollectionCount is the size of one collection. Count is -1 when the scan failed.
type CollectionCount struct {
	Collection string `json:"collection"`
	Count      int    `json:"count"`
	Error      string `json:"error,omitempty"`
}

// Collections lists every collection counted by CollectionCounts, in display order.
func Collections() []string {
	out := []string{ontology.CollectionNode, ontology.CollectionEdge}
	return append(out, ontology.SiblingCollections...)
}

// CollectionCounts counts every collection independently. One failing collection
// does not affect the others.
func (s *Store) CollectionCounts(ctx context.Context) ([]CollectionCount, error) {
	if s.isDisposed() {
		return nil, ErrStoreDisposed
	}

	names := Collections()
	out := make([]CollectionCount, len(names))

	var g errgroup.Group
	g.SetLimit(countConcurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			out[i] = s.count(ctx, name)
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func (s *Store) count(ctx context.Context, collection string) CollectionCount {
	if s.collections == nil {
		return CollectionCount{Collection: collection, Count: -1, Error: errNoCollections.Error()}
	}
	n, err := s.collections.CountCollection(ctx, collection)
	if err != nil {
		s.logger.Warn("Failed to count collection",
			zap.String("collection", collection),
			zap.Error(err),
		)
		return CollectionCount{
			Collection: collection,
			Count:      -1,
			Error:      fmt.Sprintf("Failed to load %s", collection),
		}
	}
	return CollectionCount{Collection: collection, Count: n}
}

func (s *Store) isDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
