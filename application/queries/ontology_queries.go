package queries

import (
	"fmt"
	"strings"

	"ontology-backend/application/store"
	"ontology-backend/domain/health"
	"ontology-backend/domain/layout"
	"ontology-backend/domain/ontology"
	apperrors "ontology-backend/pkg/errors"
	"ontology-backend/pkg/utils"
)

// GetGraphViewQuery reads the filtered ontology graph. Filters use the
// "property:value" form.
type GetGraphViewQuery struct {
	Search  string   `json:"search,omitempty" validate:"max=200"`
	Filters []string `json:"filters,omitempty" validate:"max=20"`
}

func (q GetGraphViewQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return err
	}
	return validateFilters(q.Filters)
}

// Pills parses the filters. Validate has already rejected malformed ones.
func (q GetGraphViewQuery) Pills() []ontology.FilterPill {
	pills := make([]ontology.FilterPill, 0, len(q.Filters))
	for _, f := range q.Filters {
		if p, ok := ontology.ParseFilterPill(f); ok {
			pills = append(pills, p)
		}
	}
	return pills
}

func (q GetGraphViewQuery) NewResult() interface{} {
	return &store.View{}
}

func validateFilters(filters []string) error {
	var bad []string
	for _, f := range filters {
		if _, ok := ontology.ParseFilterPill(f); !ok {
			bad = append(bad, f)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return apperrors.NewInvalidRequest(fmt.Sprintf("filters must look like property:value, got %s", strings.Join(bad, ", ")))
}

// GetLayoutQuery reads the filtered graph with every node positioned.
type GetLayoutQuery struct {
	Search    string   `json:"search,omitempty" validate:"max=200"`
	Filters   []string `json:"filters,omitempty" validate:"max=20"`
	Direction string   `json:"direction,omitempty" validate:"omitempty,oneof=TB BT LR RL"`
}

func (q GetLayoutQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return err
	}
	return validateFilters(q.Filters)
}

func (q GetLayoutQuery) View() GetGraphViewQuery {
	return GetGraphViewQuery{Search: q.Search, Filters: q.Filters}
}

// LayoutDirection is the requested direction, else fallback, else top to bottom.
func (q GetLayoutQuery) LayoutDirection(fallback layout.Direction) layout.Direction {
	switch {
	case q.Direction != "":
		return layout.Direction(q.Direction)
	case fallback != "":
		return fallback
	}
	return layout.TopBottom
}

func (q GetLayoutQuery) NewResult() interface{} {
	return &LayoutResult{}
}

// LayoutResult is the filtered view after layout. Placed counts the nodes that
// had no stored position.
type LayoutResult struct {
	store.View
	Direction string `json:"direction"`
	Placed    int    `json:"placed"`
}

// GetHealthReportQuery scans the whole ontology and scores it.
type GetHealthReportQuery struct{}

func (q GetHealthReportQuery) Validate() error { return nil }

func (q GetHealthReportQuery) NewResult() interface{} {
	return &HealthResult{}
}

// HealthResult carries the report, or the error text when the scan failed.
type HealthResult struct {
	Report *health.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Failed reports a scan that produced no report.
func (r HealthResult) Failed() bool {
	return r.Report == nil || r.Error != ""
}

// GetCollectionCountsQuery counts every ontology collection.
type GetCollectionCountsQuery struct{}

func (q GetCollectionCountsQuery) Validate() error { return nil }

func (q GetCollectionCountsQuery) NewResult() interface{} {
	return &CountsResult{}
}

// CountsResult lists collections in display order.
type CountsResult struct {
	Collections []store.CollectionCount `json:"collections"`
}

// Failed reports whether any collection could not be counted.
func (r CountsResult) Failed() bool {
	for _, c := range r.Collections {
		if c.Error != "" {
			return true
		}
	}
	return false
}

// GetTableDataQuery reads the rows behind a table view such as "objects",
// "data-products" or "actions".
type GetTableDataQuery struct {
	View string `json:"view" validate:"required,max=100"`
}

func (q GetTableDataQuery) Validate() error {
	return utils.ValidateStruct(q)
}

func (q GetTableDataQuery) NewResult() interface{} {
	return &store.TableData{}
}

// GetNodeQuery reads one node.
type GetNodeQuery struct {
	NodeID string `json:"id" validate:"required"`
}

func (q GetNodeQuery) Validate() error {
	return utils.ValidateStruct(q)
}

func (q GetNodeQuery) NewResult() interface{} {
	return &ontology.Node{}
}
