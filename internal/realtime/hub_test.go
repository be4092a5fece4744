package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestClient(userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Send:   make(chan []byte, 4),
	}
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		h.mu.RLock()
		got := len(h.clients)
		h.mu.RUnlock()
		if got == n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients", n)
}

func mustReceive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case b := <-c.Send:
		return b
	case <-time.After(time.Second):
		t.Fatal("no payload delivered")
		return nil
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case b := <-c.Send:
		t.Fatalf("unexpected payload: %s", b)
	default:
	}
}

func TestHubSendToUserTargetsOnlyThatUser(t *testing.T) {
	h := NewHub()
	go h.Run()

	alice := newTestClient(uuid.New())
	bob := newTestClient(uuid.New())
	h.RegisterClient(alice)
	h.RegisterClient(bob)
	waitForClients(t, h, 2)

	h.SendToUser(alice.UserID, map[string]string{"type": "new_message"})

	mustReceive(t, alice)
	assertEmpty(t, bob)
}

func TestHubSendToPairReachesBothEnds(t *testing.T) {
	h := NewHub()
	go h.Run()

	sender := newTestClient(uuid.New())
	receiver := newTestClient(uuid.New())
	other := newTestClient(uuid.New())
	h.RegisterClient(sender)
	h.RegisterClient(receiver)
	h.RegisterClient(other)
	waitForClients(t, h, 3)

	h.SendToPair(sender.UserID, receiver.UserID, map[string]string{"type": "new_message"})

	mustReceive(t, sender)
	mustReceive(t, receiver)
	assertEmpty(t, other)
}

func TestHubBroadcastReachesEveryClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	clients := []*Client{
		newTestClient(uuid.New()),
		newTestClient(uuid.New()),
		newTestClient(uuid.New()),
	}
	for _, c := range clients {
		h.RegisterClient(c)
	}
	waitForClients(t, h, len(clients))

	h.BroadcastJSON(map[string]string{"type": "announcement"})

	for _, c := range clients {
		var payload map[string]string
		if err := json.Unmarshal(mustReceive(t, c), &payload); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if payload["type"] != "announcement" {
			t.Fatalf("payload type = %q", payload["type"])
		}
	}
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := newTestClient(uuid.New())
	h.RegisterClient(c)
	waitForClients(t, h, 1)

	h.UnregisterClient(c)
	waitForClients(t, h, 0)

	select {
	case _, open := <-c.Send:
		if open {
			t.Fatal("channel delivered instead of closing")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel never closed")
	}
}
