package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Event names on the realtime channel.
const (
	eventJoinNote    = "join-note"
	eventNoteUpdate  = "note-update"
	eventNoteUpdated = "note-updated"
)

type wsEvent struct {
	Event   string `json:"event"`
	NoteID  string `json:"noteId,omitempty"`
	Heading string `json:"heading,omitempty"`
	Content string `json:"content,omitempty"`
}

// wsClient wraps one websocket connection as a relay.Sender. Gorilla
// connections support only one concurrent writer.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if s.allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == s.allowedOrigin
		},
	}
}

// handleWebsocket owns one client connection: it joins rooms on request,
// relays note-update events to co-viewers, and feeds edits into the
// auto-save coordinator. Disconnecting removes the connection from its room.
func (s *Server) handleWebsocket(c echo.Context) error {
	ctx := c.Request().Context()

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	connID := uuid.NewString()
	client := &wsClient{conn: conn}
	log := s.logger.With("conn", connID)
	log.Debug(ctx, "websocket connected")

	defer func() {
		s.hub.Leave(connID)
		conn.Close()
		log.Debug(ctx, "websocket disconnected")
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn(ctx, "websocket read error", "error", err)
			}
			return nil
		}

		var ev wsEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			log.Warn(ctx, "malformed websocket event", "error", err)
			continue
		}

		switch ev.Event {
		case eventJoinNote:
			if ev.NoteID == "" {
				continue
			}
			s.hub.Join(connID, ev.NoteID, client)

		case eventNoteUpdate:
			if ev.NoteID == "" {
				continue
			}
			// broadcast first so co-viewers see keystrokes without waiting
			// on persistence bookkeeping
			payload, err := json.Marshal(wsEvent{
				Event:   eventNoteUpdated,
				Heading: ev.Heading,
				Content: ev.Content,
			})
			if err != nil {
				log.Error(ctx, "marshalling broadcast failed", "error", err)
				continue
			}
			s.hub.Broadcast(ev.NoteID, connID, payload)
			s.autosave.RecordEdit(ev.NoteID, ev.Heading, ev.Content)

		default:
			log.Debug(ctx, "unknown websocket event", "event", ev.Event)
		}
	}
}
