package commands

import (
	"fmt"
	"sort"
	"strings"

	"ontology-backend/domain/ontology"
	apperrors "ontology-backend/pkg/errors"
	"ontology-backend/pkg/utils"
)

// CreateNodeCommand writes a new node
type CreateNodeCommand struct {
	NodeID      string              `json:"id" validate:"required,max=256"`
	Name        string              `json:"name" validate:"required,max=200"`
	Type        string              `json:"type" validate:"required,max=100"`
	Category    string              `json:"category,omitempty" validate:"max=100"`
	Description string              `json:"description,omitempty" validate:"max=5000"`
	Domain      string              `json:"domain,omitempty" validate:"max=100"`
	Namespace   string              `json:"namespace,omitempty" validate:"max=200"`
	Properties  ontology.Properties `json:"properties,omitempty"`
	X           float64             `json:"x"`
	Y           float64             `json:"y"`
}

func (cmd CreateNodeCommand) Validate() error {
	return utils.ValidateStruct(cmd)
}

// Node builds the record the command describes.
func (cmd CreateNodeCommand) Node() ontology.Node {
	return ontology.Node{
		ID:          cmd.NodeID,
		Name:        cmd.Name,
		Type:        cmd.Type,
		Category:    cmd.Category,
		Description: cmd.Description,
		Domain:      cmd.Domain,
		Namespace:   cmd.Namespace,
		Properties:  cmd.Properties.Clone(),
		X:           cmd.X,
		Y:           cmd.Y,
	}
}

// CreateNodeFrom is the command that writes n as is.
func CreateNodeFrom(n ontology.Node) CreateNodeCommand {
	return CreateNodeCommand{
		NodeID:      n.ID,
		Name:        n.Name,
		Type:        n.Type,
		Category:    n.Category,
		Description: n.Description,
		Domain:      n.Domain,
		Namespace:   n.Namespace,
		Properties:  n.Properties,
		X:           n.X,
		Y:           n.Y,
	}
}

// updatableFields are the node attributes UpdateNodeCommand may set.
var updatableFields = map[string]bool{
	"name":        true,
	"type":        true,
	"category":    true,
	"description": true,
	"domain":      true,
	"namespace":   true,
	"properties":  true,
	"x":           true,
	"y":           true,
}

// UpdateNodeCommand sets a subset of a node's attributes
type UpdateNodeCommand struct {
	NodeID string         `json:"id" validate:"required"`
	Fields map[string]any `json:"fields" validate:"required,min=1"`
}

func (cmd UpdateNodeCommand) Validate() error {
	if err := utils.ValidateStruct(cmd); err != nil {
		return err
	}
	var unknown []string
	for k := range cmd.Fields {
		if !updatableFields[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return apperrors.NewInvalidRequest(fmt.Sprintf("fields cannot be updated: %s", strings.Join(unknown, ", ")))
	}
	return nil
}

// FieldNames lists the updated attributes in name order.
func (cmd UpdateNodeCommand) FieldNames() []string {
	names := make([]string, 0, len(cmd.Fields))
	for k := range cmd.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MoveNodeCommand persists a node position. Coordinates are rounded to whole
// units before they are stored.
type MoveNodeCommand struct {
	NodeID string  `json:"id" validate:"required"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	// UpdatedAt overrides the timestamp written with the position.
	UpdatedAt string `json:"updatedAt,omitempty"`
}

func (cmd MoveNodeCommand) Validate() error {
	return utils.ValidateStruct(cmd)
}

// DeleteNodeCommand removes a node and every edge touching it
type DeleteNodeCommand struct {
	NodeID string `json:"id" validate:"required"`
}

func (cmd DeleteNodeCommand) Validate() error {
	return utils.ValidateStruct(cmd)
}
