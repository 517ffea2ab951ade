package eventbus

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHub_PublishDeliversAndFillsDefaults(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := h.Subscribe(ctx, "", 4)
	h.Publish(Event{Type: "record_committed", ClanID: "c1"})

	select {
	case evt := <-ch:
		if evt.ID == "" || evt.Timestamp == 0 {
			t.Fatalf("expected id and timestamp filled, got %+v", evt)
		}
		if evt.ClanID != "c1" {
			t.Fatalf("ClanID=%q, want c1", evt.ClanID)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting event")
	}
}

func TestHub_SlowSubscriberDropped(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := h.Subscribe(ctx, "", 1)
	for i := 0; i < 10; i++ {
		h.Publish(Event{Type: "x"})
	}
	if got := len(ch); got != 1 {
		t.Fatalf("buffered=%d, want 1", got)
	}
	if got := h.Dropped(); got != 9 {
		t.Fatalf("Dropped=%d, want 9", got)
	}
}

func TestHub_ClanFilter(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c1 := h.Subscribe(ctx, "c1", 4)
	all := h.Subscribe(ctx, "", 4)
	h.Publish(Event{Type: "record_committed", ClanID: "c2"})
	h.Publish(Event{Type: "record_committed", ClanID: "c1"})

	if got := len(c1); got != 1 {
		t.Fatalf("c1 buffered=%d, want 1", got)
	}
	if evt := <-c1; evt.ClanID != "c1" {
		t.Fatalf("ClanID=%q, want c1", evt.ClanID)
	}
	if got := len(all); got != 2 {
		t.Fatalf("all buffered=%d, want 2", got)
	}
}

func TestHub_UnsubscribeOnCancel(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Subscribe(ctx, "", 1)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	if n := h.SubscriberCount(); n != 0 {
		t.Fatalf("SubscriberCount=%d, want 0", n)
	}
}

func TestHub_NilPublishIsNoop(t *testing.T) {
	var h *Hub
	h.Publish(Event{Type: "x"})
}
