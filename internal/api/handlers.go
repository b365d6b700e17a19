package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"editor/internal/metrics"
	"editor/internal/models"
	"editor/internal/notify"
	"editor/internal/session"
	"editor/internal/utils"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type Handlers struct {
	log       *utils.Logger
	hub       *session.Hub
	announcer *notify.Announcer
}

// NewHandlers wires the hub's lifecycle events into metrics and, when an
// announcer is configured, into the Redis lifecycle channel.
func NewHandlers(log *utils.Logger, hub *session.Hub, announcer *notify.Announcer) *Handlers {
	h := &Handlers{log: log, hub: hub, announcer: announcer}
	hub.SetLifecycleFunc(func(event, roomID, connectionID string) {
		switch event {
		case session.LifecycleRoomCreated:
			metrics.RoomCreated()
			log.Info("room created", "room", roomID)
		case session.LifecycleRoomDestroyed:
			metrics.RoomDestroyed()
			log.Info("room destroyed", "room", roomID)
		}
		h.announcer.Announce(event, roomID, connectionID)
	})
	return h
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// ListSessions reports active room ids. Diagnostic only.
func (h *Handlers) ListSessions(w http.ResponseWriter, _ *http.Request) {
	ids := h.hub.RoomIDs()
	writeJSON(w, models.DebugSessions{Sessions: ids, TotalSessions: len(ids)})
}

// SessionStatus reports occupancy for one room.
func (h *Handlers) SessionStatus(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	room, ok := h.hub.Get(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, room.Status())
}

/*** Editor WebSocket: room join + file/folder/presence fan-out ***/

// EditorWS owns one editor socket connection: it allocates the connection
// id, sends it to the client, then multiplexes inbound events to rooms
// until the connection drops. Unknown event types are ignored and
// malformed payloads dropped; neither is surfaced to the sender.
func (h *Handlers) EditorWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := session.NewClient(conn)
	metrics.ConnectionOpened()
	defer metrics.ConnectionClosed()
	h.log.Info("editor client connected", "connection", client.ID)

	// Departure handling must run on any exit, graceful or abrupt, and
	// covers every room the connection joined.
	defer func() {
		h.hub.DisconnectAll(client)
		h.log.Info("editor client disconnected", "connection", client.ID)
	}()

	client.Send(models.WSFrame{Type: models.EventConnected, Data: models.Connected{ConnectionID: client.ID}})

	for {
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		h.dispatch(client, frame)
	}
}

func (h *Handlers) dispatch(client *session.Client, frame models.WSFrame) {
	switch frame.Type {
	case models.EventJoinRoom:
		var p models.JoinRoom
		models.Remarshal(frame.Data, &p)
		if p.RoomID == "" || p.Username == "" {
			return
		}
		h.hub.Join(p.RoomID, client, p.Username, p.UserID)
		h.log.Info("user joined room", "room", p.RoomID, "username", p.Username, "connection", client.ID)

	case models.EventFileCreate:
		var p models.FileCreate
		models.Remarshal(frame.Data, &p)
		if p.FilePath == "" {
			return
		}
		if room, ok := h.hub.Get(p.RoomID); ok {
			room.CreateFile(client, p)
		}

	case models.EventFileUpdate:
		var p models.FileUpdate
		models.Remarshal(frame.Data, &p)
		if p.FilePath == "" {
			return
		}
		if room, ok := h.hub.Get(p.RoomID); ok {
			room.UpdateFile(client, p)
		}

	case models.EventFileDelete:
		var p models.FileDelete
		models.Remarshal(frame.Data, &p)
		if p.FilePath == "" {
			return
		}
		if room, ok := h.hub.Get(p.RoomID); ok {
			room.DeleteFile(client, p)
		}

	case models.EventFileRename:
		var p models.FileRename
		models.Remarshal(frame.Data, &p)
		if p.OldPath == "" || p.NewPath == "" {
			return
		}
		if room, ok := h.hub.Get(p.RoomID); ok {
			room.RenameFile(client, p)
		}

	case models.EventFolderCreate:
		var p models.FolderCreate
		models.Remarshal(frame.Data, &p)
		if p.FolderPath == "" {
			return
		}
		if room, ok := h.hub.Get(p.RoomID); ok {
			room.CreateFolder(client, p)
		}

	case models.EventFolderDelete:
		var p models.FolderDelete
		models.Remarshal(frame.Data, &p)
		if p.FolderPath == "" {
			return
		}
		if room, ok := h.hub.Get(p.RoomID); ok {
			room.DeleteFolder(client, p)
		}

	case models.EventCursorUpdate:
		var p models.CursorUpdate
		models.Remarshal(frame.Data, &p)
		if room, ok := h.hub.Get(p.RoomID); ok {
			room.UpdateCursor(client, p)
		}

	case models.EventTypingStart:
		var p models.Typing
		models.Remarshal(frame.Data, &p)
		if room, ok := h.hub.Get(p.RoomID); ok {
			room.SetTyping(client, p.FilePath, true)
		}

	case models.EventTypingStop:
		var p models.Typing
		models.Remarshal(frame.Data, &p)
		if room, ok := h.hub.Get(p.RoomID); ok {
			room.SetTyping(client, "", false)
		}

	case models.EventDebug:
		ids := h.hub.RoomIDs()
		client.Send(models.WSFrame{Type: models.EventDebugResponse, Data: models.DebugSessions{
			Sessions:      ids,
			TotalSessions: len(ids),
		}})

	default:
		// unknown event names are silently ignored
		return
	}
	metrics.EventApplied(frame.Type)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
