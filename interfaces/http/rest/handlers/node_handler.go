package handlers

import (
	"net/http"

	"ontology-backend/application/commands"
	"ontology-backend/application/commands/bus"
	"ontology-backend/application/queries"
	querybus "ontology-backend/application/queries/bus"
	"ontology-backend/domain/ontology"
	apperrors "ontology-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	base
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *apperrors.ErrorHandler, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		base:       newBase(errs, logger),
		commandBus: commandBus,
		queryBus:   queryBus,
	}
}

// CreateNodeRequest represents the request body for creating a node. Without an
// id a UUID is assigned.
type CreateNodeRequest struct {
	ID          string              `json:"id,omitempty"`
	Name        string              `json:"name"`
	Type        string              `json:"type"`
	Category    string              `json:"category,omitempty"`
	Description string              `json:"description,omitempty"`
	Domain      string              `json:"domain,omitempty"`
	Namespace   string              `json:"namespace,omitempty"`
	Properties  ontology.Properties `json:"properties,omitempty"`
	X           float64             `json:"x"`
	Y           float64             `json:"y"`
}

// MoveNodeRequest represents the request body for PUT /nodes/{id}/position
type MoveNodeRequest struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// CreateNode handles POST /nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	cmd := commands.CreateNodeCommand{
		NodeID:      req.ID,
		Name:        req.Name,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
		Domain:      req.Domain,
		Namespace:   req.Namespace,
		Properties:  req.Properties,
		X:           req.X,
		Y:           req.Y,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondNode(w, r, req.ID, http.StatusCreated)
}

// GetNode handles GET /nodes/{id}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	h.respondNode(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

// UpdateNode handles PATCH /nodes/{id}. The body is the set of attributes to
// change.
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var fields map[string]any
	if !h.decode(w, r, &fields) {
		return
	}
	if err := h.commandBus.Send(r.Context(), commands.UpdateNodeCommand{NodeID: id, Fields: fields}); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondNode(w, r, id, http.StatusOK)
}

// MoveNode handles PUT /nodes/{id}/position
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req MoveNodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	cmd := commands.MoveNodeCommand{NodeID: id, X: req.X, Y: req.Y, UpdatedAt: req.UpdatedAt}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondNode(w, r, id, http.StatusOK)
}

// DeleteNode handles DELETE /nodes/{id}. Edges touching the node go with it.
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.commandBus.Send(r.Context(), commands.DeleteNodeCommand{NodeID: id}); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("Node deleted", zap.String("nodeId", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *NodeHandler) respondNode(w http.ResponseWriter, r *http.Request, id string, status int) {
	res, err := h.queryBus.Ask(r.Context(), queries.GetNodeQuery{NodeID: id})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, status, res)
}
