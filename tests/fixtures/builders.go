// Package fixtures builds ontology records for tests.
package fixtures

import (
	"ontology-backend/domain/ontology"
)

// NodeBuilder helps create test nodes with default values
type NodeBuilder struct {
	node ontology.Node
}

func NewNodeBuilder(id string) *NodeBuilder {
	return &NodeBuilder{node: ontology.Node{
		ID:     id,
		Name:   id,
		Type:   "object",
		Domain: "core",
	}}
}

func (b *NodeBuilder) WithName(name string) *NodeBuilder {
	b.node.Name = name
	return b
}

func (b *NodeBuilder) WithType(t string) *NodeBuilder {
	b.node.Type = t
	return b
}

func (b *NodeBuilder) WithCategory(c string) *NodeBuilder {
	b.node.Category = c
	return b
}

func (b *NodeBuilder) WithDomain(d string) *NodeBuilder {
	b.node.Domain = d
	return b
}

func (b *NodeBuilder) WithPosition(x, y float64) *NodeBuilder {
	b.node.X, b.node.Y = x, y
	return b
}

func (b *NodeBuilder) WithProperty(key string, value any) *NodeBuilder {
	if b.node.Properties == nil {
		b.node.Properties = ontology.Properties{}
	}
	b.node.Properties[key] = value
	return b
}

// Complete fills in the configuration the health analyzer expects.
func (b *NodeBuilder) Complete() *NodeBuilder {
	return b.
		WithProperty("dataSource", "core-"+b.node.ID).
		WithProperty("primaryKey", "id").
		WithProperty("schema", map[string]any{
			"properties": map[string]any{"id": map[string]any{"type": "string"}},
			"required":   []any{"id"},
		})
}

func (b *NodeBuilder) Build() ontology.Node {
	return b.node.Clone()
}

// Edge builds the edge created by connecting source to target.
func Edge(source, target string) ontology.Edge {
	return ontology.Edge{
		ID:       ontology.EdgeSlug(source, target),
		Source:   source,
		Target:   target,
		Relation: source + " → " + target,
	}
}
