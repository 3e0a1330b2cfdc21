package ontology

import "strings"

// Logical collections backing the ontology. Each maps to a table named
// <prefix><collection>.
const (
	CollectionNode = "node"
	CollectionEdge = "edge"
)

// SiblingCollections are scanned only for counts and table views; they are never
// merged into the graph.
var SiblingCollections = []string{
	"action",
	"event",
	"function",
	"source",
	"dataset",
	"transform",
	"view",
	"schedule",
	"workflow",
}

// DefaultTablePrefix is prepended to collection names to form table names.
const DefaultTablePrefix = "core-ontology-"

// TableSource describes how a table view is populated.
type TableSource struct {
	// Collection is the collection to scan. Empty means the view has no rows.
	Collection string
	// ProductsOnly keeps nodes whose type or category mentions "product".
	ProductsOnly bool
}

// TableForView maps a table view name to its source. Unknown views and "links"
// have no collection.
func TableForView(view string) TableSource {
	switch view {
	case "objects":
		return TableSource{Collection: CollectionNode}
	case "links":
		return TableSource{}
	case "data-products":
		return TableSource{Collection: CollectionNode, ProductsOnly: true}
	}
	if singular, ok := strings.CutSuffix(view, "s"); ok {
		for _, c := range SiblingCollections {
			if c == singular {
				return TableSource{Collection: c}
			}
		}
	}
	return TableSource{}
}

// IsDataProduct reports whether the node's type or category mentions "product".
func IsDataProduct(n Node) bool {
	return strings.Contains(lower(n.Type), "product") || strings.Contains(lower(n.Category), "product")
}

// Record is a raw item from any collection, as shown in table views.
type Record map[string]any

// Str returns the string value stored under key, or "".
func (r Record) Str(key string) string {
	s, _ := r[key].(string)
	return s
}

// IsDataProduct applies the same rule as the node form.
func (r Record) IsDataProduct() bool {
	return IsDataProduct(Node{Type: r.Str("type"), Category: r.Str("category")})
}
