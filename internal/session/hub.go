package session

import (
	"sort"
	"sync"
)

// Lifecycle event names reported to the hub's lifecycle hook.
const (
	LifecycleRoomCreated   = "room-created"
	LifecycleRoomDestroyed = "room-destroyed"
	LifecycleUserJoined    = "user-joined"
	LifecycleUserLeft      = "user-left"
)

// LifecycleFunc observes registry events. Called outside the hub and room
// locks; implementations must not block the caller.
type LifecycleFunc func(event, roomID, connectionID string)

// Hub is the registry of active rooms: at most one Room instance exists
// per room id at any time. Rooms are created lazily on first join and
// removed when the last member leaves.
type Hub struct {
	mu        sync.RWMutex
	rooms     map[string]*Room
	lifecycle LifecycleFunc
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*Room)} }

// SetLifecycleFunc installs the registry observer. Not safe to call once
// connections are being served.
func (h *Hub) SetLifecycleFunc(fn LifecycleFunc) { h.lifecycle = fn }

// Join places the client in the room, creating it on first join. A join
// can race the final leave of the same room id: the leaver closes the
// room before the hub drops it, so a closed instance is discarded here
// and the join retries on a fresh one.
func (h *Hub) Join(roomID string, c *Client, username, userID string) *Room {
	for {
		room, created := h.getOrCreate(roomID)
		if room.Join(c, username, userID) {
			if created {
				h.notify(LifecycleRoomCreated, roomID, "")
			}
			h.notify(LifecycleUserJoined, roomID, c.ID)
			return room
		}
		h.dropIfSame(roomID, room)
	}
}

// Leave removes the client from the room and destroys the room if it is
// now empty. Idempotent: leaving a room the client is not in does nothing.
func (h *Hub) Leave(roomID string, c *Client) {
	h.mu.RLock()
	room, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	remaining, wasMember := room.Leave(c)
	if !wasMember {
		return
	}
	h.notify(LifecycleUserLeft, roomID, c.ID)
	if remaining == 0 {
		h.dropIfSame(roomID, room)
		h.notify(LifecycleRoomDestroyed, roomID, "")
	}
}

// DisconnectAll runs departure handling in every room the connection is a
// member of. Used for abrupt disconnects, where no explicit leave was
// sent, and safe to invoke after partial cleanup.
func (h *Hub) DisconnectAll(c *Client) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	for _, id := range ids {
		h.Leave(id, c)
	}
}

func (h *Hub) Get(roomID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[roomID]
	return room, ok
}

// RoomIDs lists active room ids, sorted. Diagnostic only.
func (h *Hub) RoomIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) getOrCreate(roomID string) (room *Room, created bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[roomID]; ok {
		return r, false
	}
	r := NewRoom(roomID)
	h.rooms[roomID] = r
	return r, true
}

// dropIfSame removes the mapping only if it still points at this exact
// instance, so a replacement room created by a racing join survives.
func (h *Hub) dropIfSame(roomID string, room *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == room {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) notify(event, roomID, connectionID string) {
	if h.lifecycle != nil {
		h.lifecycle(event, roomID, connectionID)
	}
}
