package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/appetiteclub/realtime/pkg/event"
)

func testEnvelope(eventName string) event.Envelope {
	return event.Envelope{
		Event:     eventName,
		Data:      map[string]interface{}{"value": 1},
		Timestamp: time.Now().UTC(),
		Metadata:  event.Metadata{TenantID: "rest_1", SourceService: "order"},
	}
}

func drain(t *testing.T, c *Client) event.Envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env event.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("cannot decode queued envelope: %v", err)
		}
		return env
	default:
		t.Fatal("no message queued")
	}
	return event.Envelope{}
}

func TestHubJoinAndBroadcast(t *testing.T) {
	hub := NewHub(nil)

	waiter := newClient("c_waiter", nil)
	kitchen := newClient("c_kitchen", nil)
	hub.Add(waiter)
	hub.Add(kitchen)
	hub.Join("c_waiter", "tenant:rest_1:waiters")
	hub.Join("c_kitchen", "tenant:rest_1:kitchen")

	delivered := hub.BroadcastEnvelope([]string{"tenant:rest_1:waiters"}, testEnvelope("order.items.ready"))
	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}

	env := drain(t, waiter)
	if env.Event != "order.items.ready" {
		t.Errorf("event = %q, want order.items.ready", env.Event)
	}

	select {
	case <-kitchen.send:
		t.Error("kitchen received a waiters-only broadcast")
	default:
	}
}

func TestHubBroadcastDeduplicatesAcrossRooms(t *testing.T) {
	hub := NewHub(nil)

	owner := newClient("c_owner", nil)
	hub.Add(owner)
	hub.Join("c_owner", "tenant:rest_1:waiters")
	hub.Join("c_owner", "tenant:rest_1:kitchen")

	delivered := hub.BroadcastEnvelope(
		[]string{"tenant:rest_1:waiters", "tenant:rest_1:kitchen"},
		testEnvelope("kitchen.tickets.ready"),
	)
	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}

	drain(t, owner)
	select {
	case <-owner.send:
		t.Error("client in both target rooms received the envelope twice")
	default:
	}
}

func TestHubBroadcastToEmptyRoom(t *testing.T) {
	hub := NewHub(nil)
	if delivered := hub.BroadcastEnvelope([]string{"tenant:rest_1:kitchen"}, testEnvelope("x")); delivered != 0 {
		t.Errorf("delivered = %d, want 0", delivered)
	}
}

func TestHubSlowClientIsSkipped(t *testing.T) {
	hub := NewHub(nil)

	slow := newClient("c_slow", nil)
	fast := newClient("c_fast", nil)
	hub.Add(slow)
	hub.Add(fast)
	hub.Join("c_slow", "tenant:rest_1:waiters")
	hub.Join("c_fast", "tenant:rest_1:waiters")

	// Fill the slow client's buffer so the next broadcast cannot queue.
	for i := 0; i < sendBufferSize; i++ {
		slow.send <- []byte("{}")
	}

	delivered := hub.BroadcastEnvelope([]string{"tenant:rest_1:waiters"}, testEnvelope("order.items.new"))
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1 (slow client skipped)", delivered)
	}
	drain(t, fast)
}

func TestHubLeave(t *testing.T) {
	hub := NewHub(nil)

	c := newClient("c1", nil)
	hub.Add(c)
	hub.Join("c1", "tenant:rest_1:order:ord_9")
	if hub.RoomSize("tenant:rest_1:order:ord_9") != 1 {
		t.Fatal("join did not register")
	}

	hub.Leave("c1", "tenant:rest_1:order:ord_9")
	if hub.RoomSize("tenant:rest_1:order:ord_9") != 0 {
		t.Error("leave did not remove membership")
	}
	if rooms := hub.Rooms("c1"); len(rooms) != 0 {
		t.Errorf("Rooms() = %v, want empty", rooms)
	}

	if delivered := hub.BroadcastEnvelope([]string{"tenant:rest_1:order:ord_9"}, testEnvelope("x")); delivered != 0 {
		t.Errorf("delivered = %d after leave, want 0", delivered)
	}
}

func TestHubRemoveCleansAllRooms(t *testing.T) {
	hub := NewHub(nil)

	c := newClient("c1", nil)
	hub.Add(c)
	hub.Join("c1", "tenant:rest_1")
	hub.Join("c1", "tenant:rest_1:waiters")
	hub.Join("c1", "tenant:rest_1:order:ord_9")

	hub.Remove("c1")

	for _, room := range []string{"tenant:rest_1", "tenant:rest_1:waiters", "tenant:rest_1:order:ord_9"} {
		if hub.RoomSize(room) != 0 {
			t.Errorf("room %q still has members after Remove", room)
		}
	}

	// The send channel is closed so the write pump can exit.
	if _, ok := <-c.send; ok {
		t.Error("send channel not closed on Remove")
	}

	// A second remove for the same id is a no-op.
	hub.Remove("c1")
}

func TestHubOperationsOnUnknownClient(t *testing.T) {
	hub := NewHub(nil)

	hub.Join("ghost", "tenant:rest_1")
	hub.Leave("ghost", "tenant:rest_1")
	if rooms := hub.Rooms("ghost"); rooms != nil {
		t.Errorf("Rooms(ghost) = %v, want nil", rooms)
	}
	if hub.RoomSize("tenant:rest_1") != 0 {
		t.Error("join of unknown client created room membership")
	}
}
