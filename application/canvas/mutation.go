package canvas

import (
	"strconv"
	"time"
)

// MutationKind names the write issued from the canvas.
type MutationKind string

const (
	MutationCreateEdge MutationKind = "create-edge"
	MutationMoveNode   MutationKind = "move-node"
	MutationCreateNode MutationKind = "create-node"
)

// MutationState tracks an optimistic write.
//
//	pending -> committed
//	pending -> rolled-back   (edge creation)
//	pending -> failed        (no local rollback)
type MutationState string

const (
	MutationPending    MutationState = "pending"
	MutationCommitted  MutationState = "committed"
	MutationRolledBack MutationState = "rolled-back"
	MutationFailed     MutationState = "failed"
)

// Mutation is one entry of the canvas write log.
type Mutation struct {
	ID        string        `json:"id"`
	Kind      MutationKind  `json:"kind"`
	Target    string        `json:"target"`
	State     MutationState `json:"state"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
}

// Mutations returns the write log, oldest first.
func (c *Canvas) Mutations() []Mutation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Mutation{}, c.mutations...)
}

func (c *Canvas) beginLocked(kind MutationKind, target string) Mutation {
	c.seq++
	m := Mutation{
		ID:        "m" + strconv.FormatUint(c.seq, 10),
		Kind:      kind,
		Target:    target,
		State:     MutationPending,
		StartedAt: c.now(),
	}
	c.mutations = append(c.mutations, m)
	if len(c.mutations) > maxMutations {
		c.mutations = append([]Mutation{}, c.mutations[len(c.mutations)-maxMutations:]...)
	}
	return m
}

func (c *Canvas) finishLocked(m Mutation, state MutationState, err error) Mutation {
	m.State = state
	if err != nil {
		m.Error = err.Error()
	}
	for i := range c.mutations {
		if c.mutations[i].ID == m.ID {
			c.mutations[i] = m
			break
		}
	}
	return m
}
