// Package v1 mounts the version 1 ontology API.
package v1

import (
	"net/http"

	"ontology-backend/interfaces/http/rest/handlers"

	"github.com/go-chi/chi/v5"
)

// Handlers groups the handlers served under /api/v1.
type Handlers struct {
	Graph  *handlers.GraphHandler
	Nodes  *handlers.NodeHandler
	Edges  *handlers.EdgeHandler
	Canvas *handlers.CanvasHandler

	// Writes guards routes that change the ontology store. Nil leaves them open.
	Writes func(http.Handler) http.Handler
}

// Routes registers every v1 route on r.
func Routes(r chi.Router, h Handlers) {
	r.Use(versionHeaders)
	writes := h.Writes
	if writes == nil {
		writes = func(next http.Handler) http.Handler { return next }
	}

	r.Get("/graph", h.Graph.GetGraph)
	r.Get("/graph/layout", h.Graph.GetLayout)
	r.Get("/health-report", h.Graph.GetHealthReport)
	r.Get("/collections/counts", h.Graph.GetCollectionCounts)
	r.Get("/tables/{viewType}", h.Graph.GetTableData)

	r.Route("/nodes", func(r chi.Router) {
		r.Get("/{id}", h.Nodes.GetNode)
		r.With(writes).Post("/", h.Nodes.CreateNode)
		r.With(writes).Patch("/{id}", h.Nodes.UpdateNode)
		r.With(writes).Put("/{id}/position", h.Nodes.MoveNode)
		r.With(writes).Delete("/{id}", h.Nodes.DeleteNode)
	})

	r.Route("/edges", func(r chi.Router) {
		r.Use(writes)
		r.Post("/", h.Edges.CreateEdge)
		r.Delete("/{id}", h.Edges.DeleteEdge)
	})

	r.Route("/canvas/{session}", func(r chi.Router) {
		r.Get("/", h.Canvas.Get)
		r.Post("/render", h.Canvas.Render)
		r.Post("/select", h.Canvas.Select)
		r.Post("/clear", h.Canvas.Clear)
		r.Post("/context-menu", h.Canvas.OpenContextMenu)
		r.Post("/close-menu", h.Canvas.CloseContextMenu)
		r.With(writes).Post("/connect", h.Canvas.Connect)
		r.With(writes).Post("/drag-stop", h.Canvas.DragStop)
		r.With(writes).Post("/add-object", h.Canvas.AddObject)
	})
}

// versionHeaders adds API version headers to responses
func versionHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		next.ServeHTTP(w, r)
	})
}
