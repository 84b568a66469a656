package bus

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/postforge-backend/internal/platform/logger"
)

func TestRedisBusPublish(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis bus tests")
	}
	t.Setenv("REDIS_ADDR", addr)
	t.Setenv("REDIS_CHANNEL", "postforge.test."+uuid.NewString())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b, err := NewRedisBus(ctx, logger.Nop())
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	defer b.Close()

	sub := goredis.NewClient(&goredis.Options{Addr: addr}).Subscribe(ctx, os.Getenv("REDIS_CHANNEL"))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	want := Event{Type: EventDraftReady, DraftID: uuid.New(), FromBatch: true}
	if err := b.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("ReceiveMessage: %v", err)
	}
	var got Event
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.DraftID != want.DraftID || !got.FromBatch || got.At.IsZero() {
		t.Fatalf("unexpected event: %#v", got)
	}
}

func TestNoopBus(t *testing.T) {
	b := NewNoopBus()
	if err := b.Publish(context.Background(), Event{Type: EventDraftReady}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
