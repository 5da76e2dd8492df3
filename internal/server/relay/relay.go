// Package relay fans live note updates out to the other viewers of the same
// note. Membership is explicit: a connection joins the room of the note it is
// viewing and is removed when it joins another room or disconnects. Delivery
// is best-effort, with no persistence and no replay for late joiners.
package relay

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/notesync/internal/logging"
)

// Sender delivers one payload to a connected client. Implementations are
// expected to be safe for concurrent use.
type Sender interface {
	Send(payload []byte) error
}

// Hub is the in-process room registry. One logical room exists per note id.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[string]Sender // note id -> connection id -> sender
	conns map[string]string            // connection id -> note id

	logger logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]Sender),
		conns:  make(map[string]string),
		logger: logger.With("module", "relay"),
	}
}

// Join adds the connection to the room for noteID. A connection views one
// note at a time, so joining moves it out of any previous room.
func (h *Hub) Join(connID, noteID string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(connID)

	room, ok := h.rooms[noteID]
	if !ok {
		room = make(map[string]Sender)
		h.rooms[noteID] = room
	}
	room[connID] = s
	h.conns[connID] = noteID
}

// Leave removes the connection from whichever room it is in. Safe to call
// for unknown connections.
func (h *Hub) Leave(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(connID)
}

func (h *Hub) removeLocked(connID string) {
	noteID, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)

	room := h.rooms[noteID]
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, noteID)
	}
}

// Broadcast delivers payload to every member of the room for noteID except
// the originating connection. Send failures are logged and do not affect
// delivery to other members.
func (h *Hub) Broadcast(noteID, excludeConnID string, payload []byte) {
	h.mu.Lock()
	targets := make(map[string]Sender, len(h.rooms[noteID]))
	for connID, s := range h.rooms[noteID] {
		if connID == excludeConnID {
			continue
		}
		targets[connID] = s
	}
	h.mu.Unlock()

	for connID, s := range targets {
		if err := s.Send(payload); err != nil {
			h.logger.Warn(context.Background(), "broadcast delivery failed", "conn", connID, "note", noteID, "error", err)
		}
	}
}

// RoomSize reports the number of connections currently viewing noteID.
func (h *Hub) RoomSize(noteID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[noteID])
}
