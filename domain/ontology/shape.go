package ontology

import "strings"

// ShapeKind names the canvas node renderer.
type ShapeKind string

const (
	ShapeCircle        ShapeKind = "circle"
	ShapeRoundedRect   ShapeKind = "roundedRect"
	ShapeDiamond       ShapeKind = "diamond"
	ShapeParallelogram ShapeKind = "parallelogram"
	ShapeArrowRect     ShapeKind = "arrowRect"
)

// Shape is the renderer plus its default footprint.
type Shape struct {
	Kind   ShapeKind `json:"type"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
}

// ShapeFor derives the canvas shape from category and type keywords. The first
// matching rule wins.
func ShapeFor(n Node) Shape {
	t := lower(n.Type)
	c := lower(n.Category)

	switch {
	case c == "action" || strings.Contains(t, "action"):
		return Shape{Kind: ShapeRoundedRect, Width: 100, Height: 60}
	case c == "function" || c == "operation" || strings.Contains(t, "function"):
		return Shape{Kind: ShapeDiamond, Width: 80, Height: 80}
	case c == "datasource" || c == "data-source" || strings.Contains(t, "source"):
		return Shape{Kind: ShapeParallelogram, Width: 100, Height: 60}
	case c == "dataproduct" || c == "data-product" || strings.Contains(t, "product"):
		return Shape{Kind: ShapeArrowRect, Width: 120, Height: 60}
	}
	return Shape{Kind: ShapeCircle, Width: 80, Height: 80}
}

var appColors = map[string]string{
	"core":    "#3b82f6",
	"pmbook":  "#8b5cf6",
	"aihub":   "#ec4899",
	"dataops": "#10b981",
	"mi":      "#f59e0b",
}

// DefaultColor is used for nodes outside the known apps.
const DefaultColor = "#6b7280"

// ColorFor returns properties.color when set, otherwise the palette colour of the
// node's domain.
func ColorFor(n Node) string {
	if c, ok := n.Properties.Color(); ok {
		return c
	}
	if c, ok := appColors[lower(n.Domain)]; ok {
		return c
	}
	return DefaultColor
}
