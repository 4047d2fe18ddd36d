package sse

import (
	"strings"
	"testing"
	"time"
)

func recvWithin(t *testing.T, ch chan []byte, d time.Duration) string {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed before a message arrived")
		}
		return string(msg)
	case <-time.After(d):
		t.Fatalf("no message within %v", d)
	}
	return ""
}

func TestBrokerPublish(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "test.event", Data: map[string]string{"k": "v"}})

	msg := recvWithin(t, ch, time.Second)
	if !strings.Contains(msg, "event: test.event") {
		t.Fatalf("missing event type in %q", msg)
	}
	if !strings.Contains(msg, `"k":"v"`) {
		t.Fatalf("missing payload in %q", msg)
	}
}

func TestBrokerNoteEventAndSummary(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNoteEvent("updated", "2601010101.typ")

	first := recvWithin(t, ch, time.Second)
	if !strings.Contains(first, "event: note.updated") {
		t.Fatalf("expected note.updated, got %q", first)
	}
	if !strings.Contains(first, "2601010101.typ") {
		t.Fatalf("missing path in %q", first)
	}

	// First note event after startup also emits the aggregate.
	second := recvWithin(t, ch, time.Second)
	if !strings.Contains(second, "event: index.changed") {
		t.Fatalf("expected index.changed, got %q", second)
	}

	// Within the throttle window only the per-note event goes out.
	b.PublishNoteEvent("deleted", "2601010102.typ")
	third := recvWithin(t, ch, time.Second)
	if !strings.Contains(third, "event: note.deleted") {
		t.Fatalf("expected note.deleted, got %q", third)
	}
	select {
	case msg := <-ch:
		t.Fatalf("unexpected extra message %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBrokerClientCount(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	if n := b.ClientCount(); n != 0 {
		t.Fatalf("expected 0 clients, got %d", n)
	}

	a := b.Subscribe()
	c := b.Subscribe()
	if n := b.ClientCount(); n != 2 {
		t.Fatalf("expected 2 clients, got %d", n)
	}

	b.Unsubscribe(a)
	if n := b.ClientCount(); n != 1 {
		t.Fatalf("expected 1 client, got %d", n)
	}
	b.Unsubscribe(c)
}

func TestBrokerCloseIdempotent(t *testing.T) {
	b := NewBroker(time.Hour)
	ch := b.Subscribe()

	b.Close()
	b.Close()

	if _, ok := <-ch; ok {
		t.Fatalf("expected subscriber channel to be closed")
	}
	if n := b.ClientCount(); n != 0 {
		t.Fatalf("expected 0 clients after close, got %d", n)
	}
}
