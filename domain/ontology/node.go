// Package ontology holds the ontology graph records (typed nodes and the directed
// relations between them) and the pure view derivations over them.
package ontology

import (
	"strings"
	"time"
)

// Node is a typed entity of the ontology: an object, action, data source, function
// and so on. Records are stored one per item in the node table.
type Node struct {
	ID          string     `json:"id" dynamodbav:"id"`
	Name        string     `json:"name" dynamodbav:"name"`
	Type        string     `json:"type" dynamodbav:"type"`
	Category    string     `json:"category,omitempty" dynamodbav:"category,omitempty"`
	Description string     `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Domain      string     `json:"domain,omitempty" dynamodbav:"domain,omitempty"`
	Namespace   string     `json:"namespace,omitempty" dynamodbav:"namespace,omitempty"`
	Properties  Properties `json:"properties" dynamodbav:"properties"`
	X           float64    `json:"x,omitempty" dynamodbav:"x,omitempty"`
	Y           float64    `json:"y,omitempty" dynamodbav:"y,omitempty"`
	CreatedAt   string     `json:"createdAt,omitempty" dynamodbav:"createdAt,omitempty"`
	UpdatedAt   string     `json:"updatedAt,omitempty" dynamodbav:"updatedAt,omitempty"`
}

// Position returns the stored canvas coordinates.
func (n Node) Position() Position {
	return Position{X: n.X, Y: n.Y}
}

// Field returns the top-level string field named by property. Optional fields that
// are empty are reported as absent.
func (n Node) Field(property string) (string, bool) {
	var v string
	switch property {
	case "id":
		v = n.ID
	case "name":
		v = n.Name
	case "type":
		v = n.Type
	case "category":
		v = n.Category
	case "description":
		v = n.Description
	case "domain":
		v = n.Domain
	case "namespace":
		v = n.Namespace
	default:
		return "", false
	}
	return v, v != ""
}

// Clone returns a copy whose properties map can be mutated independently.
func (n Node) Clone() Node {
	c := n
	c.Properties = n.Properties.Clone()
	return c
}

// Touch stamps UpdatedAt, and CreatedAt when it is still empty.
func (n *Node) Touch(now time.Time) {
	ts := now.UTC().Format(time.RFC3339)
	if n.CreatedAt == "" {
		n.CreatedAt = ts
	}
	n.UpdatedAt = ts
}

// Position is a 2D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsOrigin reports whether the position is (0,0). Stored records cannot tell an
// unplaced node from one placed exactly at the origin, so both count as unpositioned.
func (p Position) IsOrigin() bool {
	return p.X == 0 && p.Y == 0
}

// Edge is a directed relation between two node ids.
type Edge struct {
	ID         string         `json:"id" dynamodbav:"id"`
	Source     string         `json:"source" dynamodbav:"source"`
	Target     string         `json:"target" dynamodbav:"target"`
	Relation   string         `json:"relation" dynamodbav:"relation"`
	SourceType string         `json:"sourceType,omitempty" dynamodbav:"sourceType,omitempty"`
	TargetType string         `json:"targetType,omitempty" dynamodbav:"targetType,omitempty"`
	Properties map[string]any `json:"properties,omitempty" dynamodbav:"properties,omitempty"`
	CreatedAt  string         `json:"createdAt,omitempty" dynamodbav:"createdAt,omitempty"`
}

// Connects reports whether the edge joins a and b in either direction.
func (e Edge) Connects(a, b string) bool {
	return (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a)
}

// Touches reports whether id is one of the edge endpoints.
func (e Edge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}

// EdgeSlug is the id given to edges created by connecting two nodes on the canvas.
func EdgeSlug(source, target string) string {
	return source + "-to-" + target
}

// HasEdgeBetween reports whether any edge joins a and b in either direction.
func HasEdgeBetween(edges []Edge, a, b string) bool {
	for _, e := range edges {
		if e.Connects(a, b) {
			return true
		}
	}
	return false
}

func lower(s string) string {
	return strings.ToLower(s)
}
