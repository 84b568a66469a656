package content

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/postforge-backend/internal/realtime/bus"
)

type DraftReady struct {
	DraftID   uuid.UUID
	IdeaID    uuid.UUID
	OwnerID   uuid.UUID
	FromBatch bool
}

// DraftNotifier is told when a draft has both hook and post.
type DraftNotifier interface {
	DraftReady(ctx context.Context, ev DraftReady) error
}

type NopNotifier struct{}

func (NopNotifier) DraftReady(context.Context, DraftReady) error { return nil }

type busNotifier struct {
	bus bus.Bus
}

// NewBusNotifier publishes draft.ready events on the realtime bus.
func NewBusNotifier(b bus.Bus) DraftNotifier {
	if b == nil {
		return NopNotifier{}
	}
	return &busNotifier{bus: b}
}

func (n *busNotifier) DraftReady(ctx context.Context, ev DraftReady) error {
	return n.bus.Publish(ctx, bus.Event{
		Type:      bus.EventDraftReady,
		OwnerID:   ev.OwnerID,
		IdeaID:    ev.IdeaID,
		DraftID:   ev.DraftID,
		FromBatch: ev.FromBatch,
		At:        time.Now().UTC(),
	})
}
