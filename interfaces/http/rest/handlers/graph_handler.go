package handlers

import (
	"net/http"

	"ontology-backend/application/queries"
	querybus "ontology-backend/application/queries/bus"
	"ontology-backend/domain/health"
	apperrors "ontology-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HealthObserver is told about every health report served.
type HealthObserver interface {
	SetHealth(r health.Report)
}

// GraphHandler serves the read side of the ontology
type GraphHandler struct {
	base
	queryBus *querybus.QueryBus
	health   HealthObserver
}

// NewGraphHandler creates a new graph handler. observer may be nil.
func NewGraphHandler(queryBus *querybus.QueryBus, observer HealthObserver, errs *apperrors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		base:     newBase(errs, logger),
		queryBus: queryBus,
		health:   observer,
	}
}

// GetGraph handles GET /graph?search=&filter=property:value
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	res, err := h.queryBus.Ask(r.Context(), queries.GetGraphViewQuery{
		Search:  params.Get("search"),
		Filters: params["filter"],
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

// GetLayout handles GET /graph/layout?direction=TB
func (h *GraphHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	res, err := h.queryBus.Ask(r.Context(), queries.GetLayoutQuery{
		Search:    params.Get("search"),
		Filters:   params["filter"],
		Direction: params.Get("direction"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

// GetHealthReport handles GET /health-report. A failed scan is reported in the
// body's error field rather than as a partial report.
func (h *GraphHandler) GetHealthReport(w http.ResponseWriter, r *http.Request) {
	res, err := h.queryBus.Ask(r.Context(), queries.GetHealthReportQuery{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if hr, ok := res.(*queries.HealthResult); ok && hr.Report != nil && h.health != nil {
		h.health.SetHealth(*hr.Report)
	}
	h.respond(w, http.StatusOK, res)
}

// GetCollectionCounts handles GET /collections/counts
func (h *GraphHandler) GetCollectionCounts(w http.ResponseWriter, r *http.Request) {
	res, err := h.queryBus.Ask(r.Context(), queries.GetCollectionCountsQuery{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

// GetTableData handles GET /tables/{viewType}
func (h *GraphHandler) GetTableData(w http.ResponseWriter, r *http.Request) {
	res, err := h.queryBus.Ask(r.Context(), queries.GetTableDataQuery{View: chi.URLParam(r, "viewType")})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, res)
}
