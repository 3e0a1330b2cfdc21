package handlers

import (
	"context"
	"fmt"
	"math"

	"ontology-backend/application/commands"
	"ontology-backend/application/commands/bus"
	"ontology-backend/application/ports"
	"ontology-backend/domain/events"
	"ontology-backend/domain/ontology"
	"ontology-backend/pkg/utils"

	"go.uber.org/zap"
)

// base carries the dependencies every ontology command handler shares
type base struct {
	repo      ports.OntologyRepository
	publisher ports.EventPublisher
	clock     utils.Clock
	logger    *zap.Logger
}

func newBase(repo ports.OntologyRepository, publisher ports.EventPublisher, clock utils.Clock, logger *zap.Logger) base {
	if clock == nil {
		clock = utils.SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{repo: repo, publisher: publisher, clock: clock, logger: logger}
}

// publish sends events after the write has succeeded. A publish failure is logged
// and does not fail the command.
func (b base) publish(ctx context.Context, evts ...events.DomainEvent) {
	if b.publisher == nil || len(evts) == 0 {
		return
	}
	if err := b.publisher.PublishBatch(ctx, evts); err != nil {
		b.logger.Warn("Failed to publish domain events",
			zap.Int("eventCount", len(evts)),
			zap.String("eventType", evts[0].GetEventType()),
			zap.Error(err),
		)
	}
}

func unexpected(cmd bus.Command) error {
	return fmt.Errorf("unexpected command type %T", cmd)
}

// CreateNodeHandler handles CreateNodeCommand
type CreateNodeHandler struct{ base }

func NewCreateNodeHandler(repo ports.OntologyRepository, publisher ports.EventPublisher, clock utils.Clock, logger *zap.Logger) *CreateNodeHandler {
	return &CreateNodeHandler{newBase(repo, publisher, clock, logger)}
}

func (h *CreateNodeHandler) Handle(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.CreateNodeCommand)
	if !ok {
		return unexpected(c)
	}

	now := h.clock()
	node := cmd.Node()
	node.Touch(now)

	if err := h.repo.PutNode(ctx, node); err != nil {
		return err
	}
	h.logger.Info("Node created", zap.String("nodeId", node.ID), zap.String("type", node.Type))
	h.publish(ctx, events.NewNodeCreated(node, now))
	return nil
}

// UpdateNodeHandler handles UpdateNodeCommand
type UpdateNodeHandler struct{ base }

func NewUpdateNodeHandler(repo ports.OntologyRepository, publisher ports.EventPublisher, clock utils.Clock, logger *zap.Logger) *UpdateNodeHandler {
	return &UpdateNodeHandler{newBase(repo, publisher, clock, logger)}
}

func (h *UpdateNodeHandler) Handle(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.UpdateNodeCommand)
	if !ok {
		return unexpected(c)
	}

	now := h.clock()
	fields := make(map[string]any, len(cmd.Fields)+1)
	for k, v := range cmd.Fields {
		fields[k] = v
	}
	fields["updatedAt"] = h.clock.RFC3339()

	if err := h.repo.UpdateNode(ctx, cmd.NodeID, fields); err != nil {
		return err
	}
	h.publish(ctx, events.NewNodeUpdated(cmd.NodeID, cmd.FieldNames(), now))
	return nil
}

// MoveNodeHandler handles MoveNodeCommand
type MoveNodeHandler struct{ base }

func NewMoveNodeHandler(repo ports.OntologyRepository, publisher ports.EventPublisher, clock utils.Clock, logger *zap.Logger) *MoveNodeHandler {
	return &MoveNodeHandler{newBase(repo, publisher, clock, logger)}
}

func (h *MoveNodeHandler) Handle(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.MoveNodeCommand)
	if !ok {
		return unexpected(c)
	}

	pos := ontology.Position{X: math.Round(cmd.X), Y: math.Round(cmd.Y)}
	updatedAt := cmd.UpdatedAt
	if updatedAt == "" {
		updatedAt = h.clock.RFC3339()
	}

	if err := h.repo.UpdateNodePosition(ctx, cmd.NodeID, pos, updatedAt); err != nil {
		return err
	}
	h.publish(ctx, events.NewNodeMoved(cmd.NodeID, pos, h.clock()))
	return nil
}

// DeleteNodeHandler handles DeleteNodeCommand. Edges touching the node are
// removed first so no edge is left pointing at a missing node.
type DeleteNodeHandler struct{ base }

func NewDeleteNodeHandler(repo ports.OntologyRepository, publisher ports.EventPublisher, clock utils.Clock, logger *zap.Logger) *DeleteNodeHandler {
	return &DeleteNodeHandler{newBase(repo, publisher, clock, logger)}
}

func (h *DeleteNodeHandler) Handle(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.DeleteNodeCommand)
	if !ok {
		return unexpected(c)
	}

	if _, err := h.repo.GetNode(ctx, cmd.NodeID); err != nil {
		return err
	}

	edges, err := h.repo.ScanEdges(ctx)
	if err != nil {
		return err
	}

	now := h.clock()
	var evts []events.DomainEvent
	for _, e := range edges {
		if !e.Touches(cmd.NodeID) {
			continue
		}
		if err := h.repo.DeleteEdge(ctx, e.ID); err != nil {
			h.logger.Error("Failed to delete edge for node",
				zap.String("nodeId", cmd.NodeID),
				zap.String("edgeId", e.ID),
				zap.Error(err),
			)
			return err
		}
		evts = append(evts, events.NewEdgeDeleted(e.ID, now))
	}

	if err := h.repo.DeleteNode(ctx, cmd.NodeID); err != nil {
		return err
	}
	evts = append(evts, events.NewNodeDeleted(cmd.NodeID, now))

	h.logger.Info("Node deleted",
		zap.String("nodeId", cmd.NodeID),
		zap.Int("edgesDeleted", len(evts)-1),
	)
	h.publish(ctx, evts...)
	return nil
}
