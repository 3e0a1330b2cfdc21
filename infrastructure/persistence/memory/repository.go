// Package memory is an in-process ontology repository used by tests, local runs of
// the CLI, and the API when no DynamoDB endpoint is configured.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"ontology-backend/domain/ontology"
	apperrors "ontology-backend/pkg/errors"

	"gopkg.in/yaml.v3"
)

// Repository keeps records in insertion order.
type Repository struct {
	mu          sync.RWMutex
	nodes       []ontology.Node
	edges       []ontology.Edge
	collections map[string][]ontology.Record
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{collections: make(map[string][]ontology.Record)}
}

// Snapshot is the on-disk seed format.
type Snapshot struct {
	Nodes       []ontology.Node              `json:"nodes" yaml:"nodes"`
	Edges       []ontology.Edge              `json:"edges" yaml:"edges"`
	Collections map[string][]ontology.Record `json:"collections" yaml:"collections"`
}

// LoadFile seeds a repository from a YAML or JSON snapshot file.
func LoadFile(path string) (*Repository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	// Decode through YAML into plain maps, then through JSON into the typed records
	// so the json tags apply and nested maps are map[string]any.
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	buf, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(buf, &snap); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	r := NewRepository()
	r.Seed(snap)
	return r, nil
}

// Seed replaces the repository contents.
func (r *Repository) Seed(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = make([]ontology.Node, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		r.nodes = append(r.nodes, n.Clone())
	}
	r.edges = append([]ontology.Edge{}, s.Edges...)
	r.collections = make(map[string][]ontology.Record, len(s.Collections))
	for k, v := range s.Collections {
		r.collections[k] = append([]ontology.Record{}, v...)
	}
}

func nodeNotFound(id string) error {
	return apperrors.NewNodeNotFound(id)
}

func edgeNotFound(id string) error {
	return apperrors.NewEdgeNotFound(id)
}

func (r *Repository) ScanNodes(ctx context.Context) ([]ontology.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ontology.Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n.Clone())
	}
	return out, nil
}

func (r *Repository) indexOfNode(id string) int {
	for i, n := range r.nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) GetNode(ctx context.Context, id string) (*ontology.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOfNode(id)
	if i < 0 {
		return nil, nodeNotFound(id)
	}
	n := r.nodes[i].Clone()
	return &n, nil
}

func (r *Repository) PutNode(ctx context.Context, node ontology.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOfNode(node.ID); i >= 0 {
		r.nodes[i] = node.Clone()
		return nil
	}
	r.nodes = append(r.nodes, node.Clone())
	return nil
}

func (r *Repository) UpdateNode(ctx context.Context, id string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOfNode(id)
	if i < 0 {
		return nodeNotFound(id)
	}
	n := r.nodes[i].Clone()
	if err := applyFields(&n, fields); err != nil {
		return err
	}
	r.nodes[i] = n
	return nil
}

// applyFields sets attributes by their stored names.
func applyFields(n *ontology.Node, fields map[string]any) error {
	for k, v := range fields {
		var err error
		switch k {
		case "name":
			n.Name, err = asString(k, v)
		case "type":
			n.Type, err = asString(k, v)
		case "category":
			n.Category, err = asString(k, v)
		case "description":
			n.Description, err = asString(k, v)
		case "domain":
			n.Domain, err = asString(k, v)
		case "namespace":
			n.Namespace, err = asString(k, v)
		case "updatedAt":
			n.UpdatedAt, err = asString(k, v)
		case "x":
			n.X, err = asFloat(k, v)
		case "y":
			n.Y, err = asFloat(k, v)
		case "properties":
			switch p := v.(type) {
			case nil:
				n.Properties = nil
			case ontology.Properties:
				n.Properties = p.Clone()
			case map[string]any:
				n.Properties = ontology.Properties(p).Clone()
			default:
				err = fmt.Errorf("properties must be an object, got %T", v)
			}
		default:
			err = fmt.Errorf("unknown node attribute %q", k)
		}
		if err != nil {
			return apperrors.NewInvalidRequest(err.Error())
		}
	}
	return nil
}

func asString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", field, v)
	}
	return s, nil
}

func asFloat(field string, v any) (float64, error) {
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	case int:
		return float64(f), nil
	case int64:
		return float64(f), nil
	case json.Number:
		return f.Float64()
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", field, v)
	}
}

func (r *Repository) UpdateNodePosition(ctx context.Context, id string, pos ontology.Position, updatedAt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOfNode(id)
	if i < 0 {
		return nodeNotFound(id)
	}
	r.nodes[i].X, r.nodes[i].Y, r.nodes[i].UpdatedAt = pos.X, pos.Y, updatedAt
	return nil
}

func (r *Repository) DeleteNode(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOfNode(id)
	if i < 0 {
		return nodeNotFound(id)
	}
	r.nodes = append(r.nodes[:i], r.nodes[i+1:]...)
	return nil
}

func (r *Repository) ScanEdges(ctx context.Context) ([]ontology.Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ontology.Edge{}, r.edges...), nil
}

func (r *Repository) PutEdge(ctx context.Context, edge ontology.Edge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.edges {
		if e.ID == edge.ID {
			r.edges[i] = edge
			return nil
		}
	}
	r.edges = append(r.edges, edge)
	return nil
}

func (r *Repository) DeleteEdge(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.edges {
		if e.ID == id {
			r.edges = append(r.edges[:i], r.edges[i+1:]...)
			return nil
		}
	}
	return edgeNotFound(id)
}

// ScanCollection serves the node and edge collections from the typed records and
// any other collection from the seeded raw items.
func (r *Repository) ScanCollection(ctx context.Context, collection string) ([]ontology.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch collection {
	case ontology.CollectionNode:
		return toRecords(r.nodes)
	case ontology.CollectionEdge:
		return toRecords(r.edges)
	}
	return append([]ontology.Record{}, r.collections[collection]...), nil
}

func (r *Repository) CountCollection(ctx context.Context, collection string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch collection {
	case ontology.CollectionNode:
		return len(r.nodes), nil
	case ontology.CollectionEdge:
		return len(r.edges), nil
	}
	return len(r.collections[collection]), nil
}

func toRecords[T any](items []T) ([]ontology.Record, error) {
	out := make([]ontology.Record, 0, len(items))
	for _, it := range items {
		buf, err := json.Marshal(it)
		if err != nil {
			return nil, err
		}
		var rec ontology.Record
		if err := json.Unmarshal(buf, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
