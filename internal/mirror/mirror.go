package mirror

import (
	"strings"
	"sync"
	"time"

	"editor/internal/models"
)

// Mirror is the client-side projection of room state. It applies the same
// event vocabulary the server broadcasts, with the same overwrite and
// no-op semantics as the room, so server and mirror can only diverge
// through message loss. It also tracks the purely local editor state:
// open tabs and the active file.
type Mirror struct {
	mu           sync.RWMutex
	connectionID string
	files        map[string]models.FileRecord
	folders      map[string]struct{}
	users        map[string]models.Member
	cursors      map[string]models.CursorUpdated
	typing       map[string]models.UserTyping
	openTabs     []string
	activeFile   string
}

func New() *Mirror {
	return &Mirror{
		files:   make(map[string]models.FileRecord),
		folders: make(map[string]struct{}),
		users:   make(map[string]models.Member),
		cursors: make(map[string]models.CursorUpdated),
		typing:  make(map[string]models.UserTyping),
	}
}

// Apply routes one inbound frame into the local state. Unknown frame
// types are ignored.
func (m *Mirror) Apply(frame models.WSFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch frame.Type {
	case models.EventConnected:
		var p models.Connected
		models.Remarshal(frame.Data, &p)
		m.connectionID = p.ConnectionID

	case models.EventSessionState:
		var p models.SessionState
		models.Remarshal(frame.Data, &p)
		m.replaceAll(p)

	case models.EventFileCreated:
		var p models.FileCreated
		models.Remarshal(frame.Data, &p)
		m.files[p.FilePath] = models.FileRecord{
			Content:      p.Content,
			Type:         p.FileType,
			Language:     p.Language,
			LastModified: time.Now(),
		}

	case models.EventFileUpdated:
		var p models.FileUpdated
		models.Remarshal(frame.Data, &p)
		rec, ok := m.files[p.FilePath]
		if !ok {
			return
		}
		rec.Content = p.Content
		rec.LastModified = time.Now()
		m.files[p.FilePath] = rec

	case models.EventFileDeleted:
		var p models.FileDeleted
		models.Remarshal(frame.Data, &p)
		delete(m.files, p.FilePath)
		m.closeTabs(func(tab string) bool { return tab == p.FilePath })

	case models.EventFileRenamed:
		var p models.FileRenamed
		models.Remarshal(frame.Data, &p)
		rec, ok := m.files[p.OldPath]
		if !ok {
			return
		}
		delete(m.files, p.OldPath)
		m.files[p.NewPath] = rec
		for i, tab := range m.openTabs {
			if tab == p.OldPath {
				m.openTabs[i] = p.NewPath
			}
		}
		if m.activeFile == p.OldPath {
			m.activeFile = p.NewPath
		}

	case models.EventFolderCreated:
		var p models.FolderCreated
		models.Remarshal(frame.Data, &p)
		m.folders[p.FolderPath] = struct{}{}

	case models.EventFolderDeleted:
		var p models.FolderDeleted
		models.Remarshal(frame.Data, &p)
		delete(m.folders, p.FolderPath)
		prefix := p.FolderPath + "/"
		for folder := range m.folders {
			if strings.HasPrefix(folder, prefix) {
				delete(m.folders, folder)
			}
		}
		for path := range m.files {
			if strings.HasPrefix(path, prefix) {
				delete(m.files, path)
			}
		}
		m.closeTabs(func(tab string) bool { return strings.HasPrefix(tab, prefix) })

	case models.EventUserJoined:
		var p models.UserJoined
		models.Remarshal(frame.Data, &p)
		m.users[p.UserID] = models.Member{
			Username: p.Username,
			Color:    p.Color,
			JoinedAt: time.Now(),
		}

	case models.EventUserLeft:
		var p models.UserLeft
		models.Remarshal(frame.Data, &p)
		delete(m.users, p.UserID)
		delete(m.cursors, p.UserID)
		delete(m.typing, p.UserID)

	case models.EventCursorUpdated:
		var p models.CursorUpdated
		models.Remarshal(frame.Data, &p)
		m.cursors[p.UserID] = p

	case models.EventUserTyping:
		var p models.UserTyping
		models.Remarshal(frame.Data, &p)
		if p.IsTyping {
			m.typing[p.UserID] = p
		} else {
			delete(m.typing, p.UserID)
		}
	}
}

// replaceAll swaps in the full snapshot atomically. Open tabs are local
// state and survive; a snapshot arrives on join, when no tabs are open
// yet anyway.
func (m *Mirror) replaceAll(p models.SessionState) {
	if p.ConnectionID != "" {
		m.connectionID = p.ConnectionID
	}
	m.files = make(map[string]models.FileRecord, len(p.Files))
	for path, rec := range p.Files {
		m.files[path] = rec
	}
	m.folders = make(map[string]struct{}, len(p.Folders))
	for _, folder := range p.Folders {
		m.folders[folder] = struct{}{}
	}
	m.users = make(map[string]models.Member, len(p.Users))
	for id, member := range p.Users {
		m.users[id] = member
	}
	m.cursors = make(map[string]models.CursorUpdated, len(p.Cursors))
	for id, cur := range p.Cursors {
		member := p.Users[id]
		m.cursors[id] = models.CursorUpdated{
			UserID:    id,
			Username:  member.Username,
			Color:     member.Color,
			FilePath:  cur.FilePath,
			Position:  cur.Position,
			Selection: cur.Selection,
		}
	}
	m.typing = make(map[string]models.UserTyping)
}

// closeTabs drops matching tabs and, if the active file went with them,
// falls back to the first remaining tab or to no selection.
func (m *Mirror) closeTabs(match func(string) bool) {
	activeRemoved := m.activeFile != "" && match(m.activeFile)
	remaining := m.openTabs[:0]
	for _, tab := range m.openTabs {
		if !match(tab) {
			remaining = append(remaining, tab)
		}
	}
	m.openTabs = remaining
	if activeRemoved {
		if len(m.openTabs) > 0 {
			m.activeFile = m.openTabs[0]
		} else {
			m.activeFile = ""
		}
	}
}

/*** Local editor state ***/

// OpenTab adds the path to the open tabs (once) and makes it active.
func (m *Mirror) OpenTab(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tab := range m.openTabs {
		if tab == path {
			m.activeFile = path
			return
		}
	}
	m.openTabs = append(m.openTabs, path)
	m.activeFile = path
}

// CloseTab removes the path from the open tabs with active-file fallback.
func (m *Mirror) CloseTab(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeTabs(func(tab string) bool { return tab == path })
}

func (m *Mirror) SetActiveFile(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeFile = path
}

/*** Snapshots ***/

func (m *Mirror) ConnectionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connectionID
}

func (m *Mirror) File(path string) (models.FileRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.files[path]
	return rec, ok
}

func (m *Mirror) Files() map[string]models.FileRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]models.FileRecord, len(m.files))
	for path, rec := range m.files {
		out[path] = rec
	}
	return out
}

func (m *Mirror) Folders() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.folders))
	for folder := range m.folders {
		out = append(out, folder)
	}
	return out
}

func (m *Mirror) HasFolder(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.folders[path]
	return ok
}

func (m *Mirror) Users() map[string]models.Member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]models.Member, len(m.users))
	for id, member := range m.users {
		out[id] = member
	}
	return out
}

func (m *Mirror) Cursors() map[string]models.CursorUpdated {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]models.CursorUpdated, len(m.cursors))
	for id, cur := range m.cursors {
		out[id] = cur
	}
	return out
}

func (m *Mirror) TypingUsers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.typing))
	for id := range m.typing {
		out = append(out, id)
	}
	return out
}

func (m *Mirror) OpenTabs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.openTabs))
	copy(out, m.openTabs)
	return out
}

func (m *Mirror) ActiveFile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeFile
}
