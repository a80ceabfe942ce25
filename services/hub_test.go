package services

import (
	"testing"

	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return NewHub(nil, nil, nil, zap.NewNop().Sugar())
}

// A slow consumer dropped mid-delivery must not crash a reply issued from its
// own read loop afterwards.
func TestReplyAfterDropDoesNotPanic(t *testing.T) {
	hub := newTestHub()

	client := &Client{
		hub:      hub,
		id:       "test-client",
		send:     make(chan []byte), // unbuffered: any delivery overflows
		gameCode: "ABC123",
	}
	hub.clients[client] = true

	hub.deliver("ABC123", []byte(`{"type":"round.started"}`))

	if _, ok := hub.clients[client]; ok {
		t.Fatal("slow client still registered after delivery")
	}
	if !client.closed {
		t.Fatal("dropped client not marked closed")
	}

	// Must be a no-op, not a send on a closed channel.
	client.reply(Event{Type: "pong", Payload: "pong"})
}

func TestDropClientIsIdempotent(t *testing.T) {
	hub := newTestHub()

	client := &Client{
		hub:  hub,
		id:   "test-client",
		send: make(chan []byte, 1),
	}
	hub.clients[client] = true

	hub.mutex.Lock()
	hub.dropClient(client)
	hub.dropClient(client) // second drop must not close twice
	hub.mutex.Unlock()

	if _, ok := <-client.send; ok {
		t.Fatal("send channel should be closed and empty")
	}
}
