package handlers

import (
	"net/http"

	"ontology-backend/application/commands"
	"ontology-backend/application/commands/bus"
	apperrors "ontology-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EdgeHandler handles edge-related HTTP requests
type EdgeHandler struct {
	base
	commandBus *bus.CommandBus
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(commandBus *bus.CommandBus, errs *apperrors.ErrorHandler, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{base: newBase(errs, logger), commandBus: commandBus}
}

// CreateEdgeRequest represents the request body for creating an edge
type CreateEdgeRequest struct {
	ID         string         `json:"id,omitempty"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Relation   string         `json:"relation,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// CreateEdgeResponse represents the response for creating an edge
type CreateEdgeResponse struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// CreateEdge handles POST /edges
func (h *EdgeHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req CreateEdgeRequest
	if !h.decode(w, r, &req) {
		return
	}

	cmd := commands.CreateEdgeCommand{
		EdgeID:     req.ID,
		Source:     req.Source,
		Target:     req.Target,
		Relation:   req.Relation,
		Properties: req.Properties,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, CreateEdgeResponse{ID: cmd.ID(), Source: cmd.Source, Target: cmd.Target})
}

// DeleteEdge handles DELETE /edges/{id}
func (h *EdgeHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	if err := h.commandBus.Send(r.Context(), commands.DeleteEdgeCommand{EdgeID: chi.URLParam(r, "id")}); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
