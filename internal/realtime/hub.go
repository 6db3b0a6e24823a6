package realtime

import (
	"encoding/json"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/realtime/pkg/event"
)

// Hub is the room table for this gateway process. It is the only shared
// mutable structure between connection goroutines and the broker consume
// loop; every critical section is a map operation.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
	logger  apt.Logger
}

func NewHub(logger apt.Logger) *Hub {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		logger:  logger,
	}
}

func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
}

// Remove drops the client from every room it joined and closes its send
// channel. Cleanup is O(rooms-per-connection); empty rooms are deleted so
// the room table does not grow with churn.
func (h *Hub) Remove(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connectionID]
	if !ok {
		return
	}

	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, connectionID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}

	delete(h.clients, connectionID)
	close(c.send)
}

func (h *Hub) Join(connectionID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connectionID]
	if !ok {
		return
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[connectionID] = c
	c.rooms[room] = true
}

func (h *Hub) Leave(connectionID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connectionID]
	if !ok {
		return
	}

	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Rooms returns the rooms a connection currently belongs to.
func (h *Hub) Rooms(connectionID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[connectionID]
	if !ok {
		return nil
	}
	result := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		result = append(result, room)
	}
	return result
}

// RoomSize returns the number of connections in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// BroadcastEnvelope pushes an envelope to every connection in the given
// rooms. A connection present in several target rooms receives the message
// once. Sends never block: a client with a full send buffer is skipped and
// logged, so one slow consumer cannot stall the dispatch loop for the rest.
// Returns the number of connections the envelope was queued to.
func (h *Hub) BroadcastEnvelope(roomNames []string, env event.Envelope) int {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Errorf("cannot marshal envelope for %s: %v", env.Event, err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	seen := make(map[string]bool)
	for _, room := range roomNames {
		for connectionID, c := range h.rooms[room] {
			if seen[connectionID] {
				continue
			}
			seen[connectionID] = true
			select {
			case c.send <- data:
				delivered++
			default:
				h.logger.Info("send buffer full, dropping event",
					"connection_id", connectionID,
					"event", env.Event,
				)
			}
		}
	}
	return delivered
}
