package commands

import (
	"ontology-backend/domain/ontology"
	"ontology-backend/pkg/utils"
)

// CreateEdgeCommand connects two existing nodes. Without an id the edge gets the
// "<source>-to-<target>" slug.
type CreateEdgeCommand struct {
	EdgeID     string         `json:"id,omitempty" validate:"max=512"`
	Source     string         `json:"source" validate:"required"`
	Target     string         `json:"target" validate:"required,nefield=Source"`
	Relation   string         `json:"relation,omitempty" validate:"max=200"`
	Properties map[string]any `json:"properties,omitempty"`
}

func (cmd CreateEdgeCommand) Validate() error {
	return utils.ValidateStruct(cmd)
}

// ID resolves the edge id.
func (cmd CreateEdgeCommand) ID() string {
	if cmd.EdgeID != "" {
		return cmd.EdgeID
	}
	return ontology.EdgeSlug(cmd.Source, cmd.Target)
}

// DeleteEdgeCommand removes an edge
type DeleteEdgeCommand struct {
	EdgeID string `json:"id" validate:"required"`
}

func (cmd DeleteEdgeCommand) Validate() error {
	return utils.ValidateStruct(cmd)
}
