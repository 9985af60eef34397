package sse

import (
	"encoding/json"
	"testing"
	"time"

	"businesson_backend/platform/logger"
)

func TestBroadcastReachesSubscribers(t *testing.T) {
	hub := NewHub(logger.New("test"))

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	hub.Broadcast("lead_added", map[string]string{"name": "Dana"})

	select {
	case data := <-ch:
		var n Notification
		if err := json.Unmarshal(data, &n); err != nil {
			t.Fatalf("invalid frame: %v", err)
		}
		if n.Type != "lead_added" {
			t.Fatalf("type = %q, want lead_added", n.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no frame received")
	}
}

func TestUnsubscribeRemovesClient(t *testing.T) {
	hub := NewHub(logger.New("test"))

	_, unsubscribe := hub.Subscribe()
	if hub.ClientCount() != 1 {
		t.Fatalf("clients = %d, want 1", hub.ClientCount())
	}

	unsubscribe()
	if hub.ClientCount() != 0 {
		t.Fatalf("clients = %d, want 0 after unsubscribe", hub.ClientCount())
	}
}

func TestSlowClientDropsEventsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(logger.New("test"))

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	// Overfill the buffer without reading; Broadcast must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < clientBuffer*2; i++ {
			hub.Broadcast("message_received", i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}

	if got := len(ch); got != clientBuffer {
		t.Fatalf("buffered frames = %d, want %d", got, clientBuffer)
	}
}
