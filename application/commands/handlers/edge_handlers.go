package handlers

import (
	"context"
	"fmt"

	"ontology-backend/application/commands"
	"ontology-backend/application/commands/bus"
	"ontology-backend/application/ports"
	"ontology-backend/domain/events"
	"ontology-backend/domain/ontology"
	apperrors "ontology-backend/pkg/errors"
	"ontology-backend/pkg/utils"

	"go.uber.org/zap"
)

// CreateEdgeHandler handles CreateEdgeCommand. Both endpoints must exist and the
// pair must not already be connected in either direction.
type CreateEdgeHandler struct{ base }

func NewCreateEdgeHandler(repo ports.OntologyRepository, publisher ports.EventPublisher, clock utils.Clock, logger *zap.Logger) *CreateEdgeHandler {
	return &CreateEdgeHandler{newBase(repo, publisher, clock, logger)}
}

func (h *CreateEdgeHandler) Handle(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.CreateEdgeCommand)
	if !ok {
		return unexpected(c)
	}

	source, err := h.repo.GetNode(ctx, cmd.Source)
	if err != nil {
		return err
	}
	target, err := h.repo.GetNode(ctx, cmd.Target)
	if err != nil {
		return err
	}

	existing, err := h.repo.ScanEdges(ctx)
	if err != nil {
		return err
	}
	if ontology.HasEdgeBetween(existing, cmd.Source, cmd.Target) {
		return apperrors.NewDuplicateEdge(cmd.Source, cmd.Target)
	}

	now := h.clock()
	relation := cmd.Relation
	if relation == "" {
		relation = fmt.Sprintf("%s → %s", displayName(source), displayName(target))
	}
	edge := ontology.Edge{
		ID:         cmd.ID(),
		Source:     cmd.Source,
		Target:     cmd.Target,
		Relation:   relation,
		SourceType: source.Type,
		TargetType: target.Type,
		Properties: cmd.Properties,
		CreatedAt:  h.clock.RFC3339(),
	}
	if err := h.repo.PutEdge(ctx, edge); err != nil {
		return err
	}

	h.logger.Info("Edge created",
		zap.String("edgeId", edge.ID),
		zap.String("source", edge.Source),
		zap.String("target", edge.Target),
	)
	h.publish(ctx, events.NewEdgeCreated(edge, now))
	return nil
}

func displayName(n *ontology.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// DeleteEdgeHandler handles DeleteEdgeCommand
type DeleteEdgeHandler struct{ base }

func NewDeleteEdgeHandler(repo ports.OntologyRepository, publisher ports.EventPublisher, clock utils.Clock, logger *zap.Logger) *DeleteEdgeHandler {
	return &DeleteEdgeHandler{newBase(repo, publisher, clock, logger)}
}

func (h *DeleteEdgeHandler) Handle(ctx context.Context, c bus.Command) error {
	cmd, ok := c.(commands.DeleteEdgeCommand)
	if !ok {
		return unexpected(c)
	}
	if err := h.repo.DeleteEdge(ctx, cmd.EdgeID); err != nil {
		return err
	}
	h.publish(ctx, events.NewEdgeDeleted(cmd.EdgeID, h.clock()))
	return nil
}

// Register wires every ontology command handler into b.
func Register(b *bus.CommandBus, repo ports.OntologyRepository, publisher ports.EventPublisher, clock utils.Clock, logger *zap.Logger) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateNodeCommand{}, NewCreateNodeHandler(repo, publisher, clock, logger)},
		{commands.UpdateNodeCommand{}, NewUpdateNodeHandler(repo, publisher, clock, logger)},
		{commands.MoveNodeCommand{}, NewMoveNodeHandler(repo, publisher, clock, logger)},
		{commands.DeleteNodeCommand{}, NewDeleteNodeHandler(repo, publisher, clock, logger)},
		{commands.CreateEdgeCommand{}, NewCreateEdgeHandler(repo, publisher, clock, logger)},
		{commands.DeleteEdgeCommand{}, NewDeleteEdgeHandler(repo, publisher, clock, logger)},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}
