package mirror

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"editor/internal/models"
)

// Client is the outbound half of the session projection: it owns the
// websocket to the editor service, turns local edits into events (applied
// optimistically to the mirror before sending) and pumps inbound frames
// back into the mirror. All writes go through one mutex, so events from
// this connection reach the server in the order they were sent.
type Client struct {
	conn   *websocket.Conn
	mirror *Mirror

	mu   sync.Mutex
	done chan struct{}
}

// Dial connects to the editor socket endpoint (ws://host/editor-socket)
// and starts the read pump.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:   conn,
		mirror: New(),
		done:   make(chan struct{}),
	}
	go c.readPump()
	return c, nil
}

func (c *Client) Mirror() *Mirror { return c.mirror }

// Done closes when the connection drops and the read pump exits.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) readPump() {
	defer close(c.done)
	for {
		var frame models.WSFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			return
		}
		c.mirror.Apply(frame)
	}
}

// Join asks the server to place this connection in the room. The mirror
// is populated when the session-state snapshot arrives.
func (c *Client) Join(roomID, username, userID string) error {
	return c.send(models.WSFrame{Type: models.EventJoinRoom, Data: models.JoinRoom{
		RoomID:   roomID,
		Username: username,
		UserID:   userID,
	}})
}

// CreateFile creates the file locally, opens it in a tab and emits the
// event. Language defaults from the file extension when empty.
func (c *Client) CreateFile(roomID, path, content, language string) error {
	if language == "" {
		language = LanguageForPath(path)
	}
	c.mirror.Apply(models.WSFrame{Type: models.EventFileCreated, Data: models.FileCreated{
		FilePath: path,
		Content:  content,
		FileType: models.FileTypeDefault,
		Language: language,
	}})
	c.mirror.OpenTab(path)
	return c.send(models.WSFrame{Type: models.EventFileCreate, Data: models.FileCreate{
		RoomID:   roomID,
		FilePath: path,
		Content:  content,
		FileType: models.FileTypeDefault,
		Language: language,
	}})
}

func (c *Client) UpdateFile(roomID, path, content string) error {
	c.mirror.Apply(models.WSFrame{Type: models.EventFileUpdated, Data: models.FileUpdated{
		FilePath: path,
		Content:  content,
	}})
	return c.send(models.WSFrame{Type: models.EventFileUpdate, Data: models.FileUpdate{
		RoomID:   roomID,
		FilePath: path,
		Content:  content,
	}})
}

func (c *Client) DeleteFile(roomID, path string) error {
	c.mirror.Apply(models.WSFrame{Type: models.EventFileDeleted, Data: models.FileDeleted{
		FilePath: path,
	}})
	return c.send(models.WSFrame{Type: models.EventFileDelete, Data: models.FileDelete{
		RoomID:   roomID,
		FilePath: path,
	}})
}

func (c *Client) RenameFile(roomID, oldPath, newPath string) error {
	c.mirror.Apply(models.WSFrame{Type: models.EventFileRenamed, Data: models.FileRenamed{
		OldPath: oldPath,
		NewPath: newPath,
	}})
	return c.send(models.WSFrame{Type: models.EventFileRename, Data: models.FileRename{
		RoomID:  roomID,
		OldPath: oldPath,
		NewPath: newPath,
	}})
}

func (c *Client) CreateFolder(roomID, path string) error {
	c.mirror.Apply(models.WSFrame{Type: models.EventFolderCreated, Data: models.FolderCreated{
		FolderPath: path,
	}})
	return c.send(models.WSFrame{Type: models.EventFolderCreate, Data: models.FolderCreate{
		RoomID:     roomID,
		FolderPath: path,
	}})
}

func (c *Client) DeleteFolder(roomID, path string) error {
	c.mirror.Apply(models.WSFrame{Type: models.EventFolderDeleted, Data: models.FolderDeleted{
		FolderPath: path,
	}})
	return c.send(models.WSFrame{Type: models.EventFolderDelete, Data: models.FolderDelete{
		RoomID:     roomID,
		FolderPath: path,
	}})
}

// UpdateCursor reports the local cursor; the server echoes nothing back
// to the originator, so there is no local apply.
func (c *Client) UpdateCursor(roomID, path string, position, selection json.RawMessage) error {
	return c.send(models.WSFrame{Type: models.EventCursorUpdate, Data: models.CursorUpdate{
		RoomID:    roomID,
		FilePath:  path,
		Position:  position,
		Selection: selection,
	}})
}

func (c *Client) StartTyping(roomID, path string) error {
	return c.send(models.WSFrame{Type: models.EventTypingStart, Data: models.Typing{
		RoomID:   roomID,
		FilePath: path,
	}})
}

func (c *Client) StopTyping(roomID string) error {
	return c.send(models.WSFrame{Type: models.EventTypingStop, Data: models.Typing{
		RoomID: roomID,
	}})
}

func (c *Client) send(frame models.WSFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(frame)
}
