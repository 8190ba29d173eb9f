// Package realtime fans space and user events out to WebSocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Frame is the wire shape of every server and client message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func UserRoom(userID string) string   { return "user:" + userID }
func SpaceRoom(spaceID string) string { return "space:" + spaceID }

// Broker carries encoded frames between API instances. Publishing must
// eventually call Hub.Deliver on every instance, including this one.
type Broker interface {
	Publish(ctx context.Context, room string, payload []byte) error
}

// Hub tracks which local clients are in which rooms.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	broker Broker
	log    zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   log.With().Str("component", "realtime").Logger(),
	}
}

// SetBroker enables cross-instance delivery. Without a broker, Emit
// delivers to local clients only.
func (h *Hub) SetBroker(b Broker) {
	h.mu.Lock()
	h.broker = b
	h.mu.Unlock()
}

// Emit sends an event to a room. Failures are logged and never returned.
func (h *Hub) Emit(ctx context.Context, room, event string, data any) {
	payload, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		h.log.Error().Err(err).Str("room", room).Str("event", event).Msg("encode realtime frame")
		return
	}

	h.mu.RLock()
	broker := h.broker
	h.mu.RUnlock()

	if broker != nil {
		err := broker.Publish(ctx, room, payload)
		if err == nil {
			return
		}
		h.log.Warn().Err(err).Str("room", room).Str("event", event).Msg("broker publish failed, delivering locally")
	}
	h.Deliver(room, payload)
}

// Deliver writes an encoded frame to every local client in room.
func (h *Hub) Deliver(room string, payload []byte) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if !c.enqueue(payload) {
			h.log.Warn().Str("room", room).Str("user_id", c.userID).Msg("dropping slow realtime client")
			h.remove(c)
			c.Close()
		}
	}
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
}

// RoomSize returns the number of local clients in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
