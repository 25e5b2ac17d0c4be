package bus

import (
	"context"
	"testing"
	"time"

	"adops/internal/shared/events"
)

func TestPublishReachesSubscriber(t *testing.T) {
	b := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	if err := b.Subscribe(ctx, "workflow.events", "test-cg", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	sent := events.Envelope{EventID: "evt-1", EventType: events.EventCampaignStatusChanged, OrgID: "org-1"}
	if err := b.Publish(ctx, "workflow.events", sent); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != sent.EventID {
			t.Fatalf("got event %q, want %q", event.EventID, sent.EventID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event never delivered")
	}
}

func TestPublishSkipsOtherTopics(t *testing.T) {
	b := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	if err := b.Subscribe(ctx, "other.topic", "test-cg", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := b.Publish(ctx, "workflow.events", events.Envelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case <-received:
		t.Fatalf("subscriber on another topic must not receive the event")
	case <-time.After(50 * time.Millisecond):
	}
}
