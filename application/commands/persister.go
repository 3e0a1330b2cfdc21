package commands

import (
	"context"

	"ontology-backend/application/commands/bus"
	"ontology-backend/domain/ontology"
)

// BusPersister routes canvas writes through the command bus so they are
// validated, logged and published like any other write.
type BusPersister struct {
	bus *bus.CommandBus
}

func NewBusPersister(b *bus.CommandBus) *BusPersister {
	return &BusPersister{bus: b}
}

func (p *BusPersister) CreateNode(ctx context.Context, node ontology.Node) error {
	return p.bus.Send(ctx, CreateNodeFrom(node))
}

func (p *BusPersister) CreateEdge(ctx context.Context, edge ontology.Edge) error {
	return p.bus.Send(ctx, CreateEdgeCommand{
		EdgeID:     edge.ID,
		Source:     edge.Source,
		Target:     edge.Target,
		Relation:   edge.Relation,
		Properties: edge.Properties,
	})
}

func (p *BusPersister) MoveNode(ctx context.Context, id string, pos ontology.Position, updatedAt string) error {
	return p.bus.Send(ctx, MoveNodeCommand{NodeID: id, X: pos.X, Y: pos.Y, UpdatedAt: updatedAt})
}
