package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"editor/internal/models"
)

// Room holds the authoritative workspace state for one session: files,
// folders, members and cursors, all keyed the way the wire protocol keys
// them. Every mutation is applied and its broadcast captured under one
// mutex, so no event ever observes a partially applied change.
type Room struct {
	ID string

	mu      sync.Mutex
	closed  bool
	clients map[*Client]struct{}
	files   map[string]models.FileRecord
	folders map[string]struct{}
	members map[string]models.Member      // connection id -> member
	cursors map[string]models.CursorState // connection id -> cursor
}

func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		clients: make(map[*Client]struct{}),
		files:   make(map[string]models.FileRecord),
		folders: make(map[string]struct{}),
		members: make(map[string]models.Member),
		cursors: make(map[string]models.CursorState),
	}
}

// Join adds the connection as a member, announces it to everyone else and
// sends the full session snapshot to the joiner only. Returns false if the
// room was already closed by its last departure; the caller must retry on
// a fresh room instance.
func (r *Room) Join(c *Client, username, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}

	member := models.Member{
		ID:       userID,
		Username: username,
		Color:    pickColor(),
		JoinedAt: time.Now(),
	}
	r.members[c.ID] = member
	r.clients[c] = struct{}{}

	r.broadcastLocked(c, models.WSFrame{Type: models.EventUserJoined, Data: models.UserJoined{
		UserID:   c.ID,
		Username: member.Username,
		Color:    member.Color,
	}})
	c.Send(models.WSFrame{Type: models.EventSessionState, Data: r.snapshotLocked(c.ID)})
	return true
}

// Leave removes the connection's member and cursor records and announces
// the departure. Safe to call for connections that never joined or
// already left. The room closes when its last member leaves; a closed
// room never accepts members again.
func (r *Room) Leave(c *Client) (remaining int, wasMember bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[c.ID]; !ok {
		return len(r.members), false
	}
	delete(r.members, c.ID)
	delete(r.cursors, c.ID)
	delete(r.clients, c)

	r.broadcastLocked(c, models.WSFrame{Type: models.EventUserLeft, Data: models.UserLeft{UserID: c.ID}})
	if len(r.members) == 0 {
		r.closed = true
	}
	return len(r.members), true
}

// CreateFile inserts the record, overwriting any existing record at that
// path without warning. Missing language defaults to plaintext.
func (r *Room) CreateFile(sender *Client, p models.FileCreate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lang := p.Language
	if lang == "" {
		lang = models.LangPlaintext
	}
	fileType := p.FileType
	if fileType == "" {
		fileType = models.FileTypeDefault
	}
	r.files[p.FilePath] = models.FileRecord{
		Content:      p.Content,
		Type:         fileType,
		Language:     lang,
		LastModified: time.Now(),
	}
	r.broadcastLocked(sender, models.WSFrame{Type: models.EventFileCreated, Data: models.FileCreated{
		FilePath: p.FilePath,
		Content:  p.Content,
		FileType: fileType,
		Language: lang,
	}})
}

// UpdateFile replaces the content of an existing record. A path that was
// never created (or since deleted) is a silent no-op: updates never
// implicitly create.
func (r *Room) UpdateFile(sender *Client, p models.FileUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.files[p.FilePath]
	if !ok {
		return
	}
	rec.Content = p.Content
	rec.LastModified = time.Now()
	r.files[p.FilePath] = rec
	r.broadcastLocked(sender, models.WSFrame{Type: models.EventFileUpdated, Data: models.FileUpdated{
		FilePath: p.FilePath,
		Content:  p.Content,
	}})
}

// DeleteFile removes the record if present. The deletion broadcast goes
// out either way, matching the unconditional delete on the wire.
func (r *Room) DeleteFile(sender *Client, p models.FileDelete) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, p.FilePath)
	r.broadcastLocked(sender, models.WSFrame{Type: models.EventFileDeleted, Data: models.FileDeleted{
		FilePath: p.FilePath,
	}})
}

// RenameFile moves the record from oldPath to newPath. An occupied
// newPath is overwritten unconditionally: last writer wins, no conflict
// check. A missing oldPath is a silent no-op.
func (r *Room) RenameFile(sender *Client, p models.FileRename) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.files[p.OldPath]
	if !ok {
		return
	}
	delete(r.files, p.OldPath)
	r.files[p.NewPath] = rec
	r.broadcastLocked(sender, models.WSFrame{Type: models.EventFileRenamed, Data: models.FileRenamed{
		OldPath: p.OldPath,
		NewPath: p.NewPath,
	}})
}

// CreateFolder adds the path to the folder set. Idempotent.
func (r *Room) CreateFolder(sender *Client, p models.FolderCreate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.folders[p.FolderPath] = struct{}{}
	r.broadcastLocked(sender, models.WSFrame{Type: models.EventFolderCreated, Data: models.FolderCreated{
		FolderPath: p.FolderPath,
	}})
}

// DeleteFolder removes the path plus every folder and file under it.
// Hierarchy is inferred by prefix matching, not a materialized tree, so
// the cascade is a scan over both maps under the room lock.
func (r *Room) DeleteFolder(sender *Client, p models.FolderDelete) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.folders, p.FolderPath)
	prefix := p.FolderPath + "/"
	for folder := range r.folders {
		if strings.HasPrefix(folder, prefix) {
			delete(r.folders, folder)
		}
	}
	for path := range r.files {
		if strings.HasPrefix(path, prefix) {
			delete(r.files, path)
		}
	}
	r.broadcastLocked(sender, models.WSFrame{Type: models.EventFolderDeleted, Data: models.FolderDeleted{
		FolderPath: p.FolderPath,
	}})
}

// UpdateCursor replaces the sender's cursor state. Username and color in
// the broadcast come from the member record and are empty if the sender
// never joined.
func (r *Room) UpdateCursor(sender *Client, p models.CursorUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursors[sender.ID] = models.CursorState{
		FilePath:  p.FilePath,
		Position:  p.Position,
		Selection: p.Selection,
		Timestamp: time.Now(),
	}
	member := r.members[sender.ID]
	r.broadcastLocked(sender, models.WSFrame{Type: models.EventCursorUpdated, Data: models.CursorUpdated{
		UserID:    sender.ID,
		Username:  member.Username,
		Color:     member.Color,
		FilePath:  p.FilePath,
		Position:  p.Position,
		Selection: p.Selection,
	}})
}

// SetTyping relays the typing indicator; no state is persisted.
func (r *Room) SetTyping(sender *Client, filePath string, isTyping bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member := r.members[sender.ID]
	r.broadcastLocked(sender, models.WSFrame{Type: models.EventUserTyping, Data: models.UserTyping{
		UserID:   sender.ID,
		Username: member.Username,
		FilePath: filePath,
		IsTyping: isTyping,
	}})
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Status reports room occupancy for the HTTP diagnostics surface.
func (r *Room) Status() models.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]models.Member, 0, len(r.members))
	for _, m := range r.members {
		users = append(users, m)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].JoinedAt.Before(users[j].JoinedAt) })
	return models.RoomStatus{
		ID:          r.ID,
		UserCount:   len(r.members),
		FileCount:   len(r.files),
		FolderCount: len(r.folders),
		Users:       users,
	}
}

// Snapshot returns the session state as a joining client would see it.
func (r *Room) Snapshot() models.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked("")
}

func (r *Room) snapshotLocked(connectionID string) models.SessionState {
	files := make(map[string]models.FileRecord, len(r.files))
	for path, rec := range r.files {
		files[path] = rec
	}
	folders := make([]string, 0, len(r.folders))
	for folder := range r.folders {
		folders = append(folders, folder)
	}
	sort.Strings(folders)
	users := make(map[string]models.Member, len(r.members))
	for id, m := range r.members {
		users[id] = m
	}
	cursors := make(map[string]models.CursorState, len(r.cursors))
	for id, cur := range r.cursors {
		cursors[id] = cur
	}
	return models.SessionState{
		ConnectionID: connectionID,
		Files:        files,
		Folders:      folders,
		Users:        users,
		Cursors:      cursors,
	}
}

func (r *Room) broadcastLocked(sender *Client, frame models.WSFrame) {
	for c := range r.clients {
		if c == sender {
			continue
		}
		c.Send(frame)
	}
}
