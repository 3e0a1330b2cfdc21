package handlers

import (
	"errors"
	"net/http"

	"ontology-backend/application/canvas"
	"ontology-backend/application/queries"
	querybus "ontology-backend/application/queries/bus"
	"ontology-backend/application/store"
	apperrors "ontology-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MutationObserver is told how each canvas mutation settled.
type MutationObserver interface {
	ObserveMutation(kind, state string)
}

// CanvasHandler drives per-session canvases over HTTP
type CanvasHandler struct {
	base
	sessions  *canvas.Sessions
	queryBus  *querybus.QueryBus
	mutations MutationObserver
}

// NewCanvasHandler creates a canvas handler. observer may be nil.
func NewCanvasHandler(sessions *canvas.Sessions, queryBus *querybus.QueryBus, observer MutationObserver, errs *apperrors.ErrorHandler, logger *zap.Logger) *CanvasHandler {
	return &CanvasHandler{
		base:      newBase(errs, logger),
		sessions:  sessions,
		queryBus:  queryBus,
		mutations: observer,
	}
}

// RenderRequest selects the graph to draw.
type RenderRequest struct {
	Search  string   `json:"search,omitempty"`
	Filters []string `json:"filters,omitempty"`
}

type selectRequest struct {
	NodeID string `json:"nodeId"`
}

type contextMenuRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	NodeID string  `json:"nodeId,omitempty"`
}

type connectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type dragStopRequest struct {
	NodeID string  `json:"nodeId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// MutationResponse reports a canvas write together with the resulting state.
type MutationResponse struct {
	Mutation canvas.Mutation    `json:"mutation"`
	Node     *canvas.VisualNode `json:"node,omitempty"`
	Canvas   canvas.Snapshot    `json:"canvas"`
}

// StateResponse is the full state of a session.
type StateResponse struct {
	canvas.Snapshot
	Mutations []canvas.Mutation `json:"mutations"`
}

func (h *CanvasHandler) session(r *http.Request) *canvas.Canvas {
	return h.sessions.Get(chi.URLParam(r, "session"))
}

// canvasError maps canvas sentinels onto API errors. Anything else, such as a
// failed write, passes through.
func canvasError(err error) error {
	switch {
	case errors.Is(err, canvas.ErrUnknownNode):
		return apperrors.NewNotFoundError(err.Error()).WithCode(apperrors.CodeNodeNotFound)
	case errors.Is(err, canvas.ErrDuplicateEdge):
		return apperrors.NewConflictError(err.Error()).WithCode(apperrors.CodeDuplicateEdge)
	case errors.Is(err, canvas.ErrSelfLoop):
		return apperrors.NewValidationError(err.Error()).WithCode(apperrors.CodeSelfLoop)
	default:
		return err
	}
}

func (h *CanvasHandler) observe(m canvas.Mutation) {
	if h.mutations != nil && m.ID != "" {
		h.mutations.ObserveMutation(string(m.Kind), string(m.State))
	}
}

// Get handles GET /canvas/{session}
func (h *CanvasHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.sessions.Lookup(chi.URLParam(r, "session"))
	if !ok {
		h.fail(w, r, apperrors.NewNotFoundError("canvas session"))
		return
	}
	h.respond(w, http.StatusOK, StateResponse{Snapshot: c.Snapshot(), Mutations: c.Mutations()})
}

// Render handles POST /canvas/{session}/render. The body is optional.
func (h *CanvasHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	res, err := h.queryBus.Ask(r.Context(), queries.GetGraphViewQuery{Search: req.Search, Filters: req.Filters})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, ok := res.(*store.View)
	if !ok {
		h.fail(w, r, apperrors.NewInternalError("unexpected graph view result"))
		return
	}
	h.respond(w, http.StatusOK, h.session(r).Render(view.Nodes, view.Edges))
}

// Select handles POST /canvas/{session}/select
func (h *CanvasHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !h.decode(w, r, &req) {
		return
	}
	snap, err := h.session(r).SelectNode(req.NodeID)
	if err != nil {
		h.fail(w, r, canvasError(err))
		return
	}
	h.respond(w, http.StatusOK, snap)
}

// Clear handles POST /canvas/{session}/clear, a click on the empty pane.
func (h *CanvasHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.session(r).ClearSelection())
}

// OpenContextMenu handles POST /canvas/{session}/context-menu
func (h *CanvasHandler) OpenContextMenu(w http.ResponseWriter, r *http.Request) {
	var req contextMenuRequest
	if !h.decode(w, r, &req) {
		return
	}
	snap, err := h.session(r).OpenContextMenu(req.X, req.Y, req.NodeID)
	if err != nil {
		h.fail(w, r, canvasError(err))
		return
	}
	h.respond(w, http.StatusOK, snap)
}

// CloseContextMenu handles POST /canvas/{session}/close-menu
func (h *CanvasHandler) CloseContextMenu(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.session(r).CloseContextMenu())
}

// Connect handles POST /canvas/{session}/connect
func (h *CanvasHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !h.decode(w, r, &req) {
		return
	}
	c := h.session(r)
	m, err := c.Connect(r.Context(), req.Source, req.Target)
	h.observe(m)
	if err != nil {
		h.fail(w, r, canvasError(err))
		return
	}
	h.respond(w, http.StatusCreated, MutationResponse{Mutation: m, Canvas: c.Snapshot()})
}

// DragStop handles POST /canvas/{session}/drag-stop
func (h *CanvasHandler) DragStop(w http.ResponseWriter, r *http.Request) {
	var req dragStopRequest
	if !h.decode(w, r, &req) {
		return
	}
	c := h.session(r)
	m, err := c.DragStop(r.Context(), req.NodeID, req.X, req.Y)
	h.observe(m)
	if err != nil {
		h.fail(w, r, canvasError(err))
		return
	}
	h.respond(w, http.StatusOK, MutationResponse{Mutation: m, Canvas: c.Snapshot()})
}

// AddObject handles POST /canvas/{session}/add-object
func (h *CanvasHandler) AddObject(w http.ResponseWriter, r *http.Request) {
	c := h.session(r)
	m, node, err := c.AddObject(r.Context())
	h.observe(m)
	if err != nil {
		h.fail(w, r, canvasError(err))
		return
	}
	h.respond(w, http.StatusCreated, MutationResponse{Mutation: m, Node: &node, Canvas: c.Snapshot()})
}
