package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const EventDraftReady = "draft.ready"

// Event announces pipeline output to downstream consumers (schedulers, UIs).
type Event struct {
	Type      string    `json:"type"`
	OwnerID   uuid.UUID `json:"owner_id"`
	IdeaID    uuid.UUID `json:"idea_id"`
	DraftID   uuid.UUID `json:"draft_id"`
	FromBatch bool      `json:"from_batch"`
	At        time.Time `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type noopBus struct{}

// NewNoopBus is used when REDIS_ADDR is unset.
func NewNoopBus() Bus { return noopBus{} }

func (noopBus) Publish(context.Context, Event) error { return nil }
func (noopBus) Close() error                         { return nil }
