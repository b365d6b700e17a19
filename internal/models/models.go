package models

import (
	"encoding/json"
	"time"
)

// Event names carried in WSFrame.Type. Client-to-server names mirror the
// editor UI actions; server broadcasts use the past-tense form.
const (
	EventJoinRoom     = "join-room"
	EventFileCreate   = "file-create"
	EventFileUpdate   = "file-update"
	EventFileDelete   = "file-delete"
	EventFileRename   = "file-rename"
	EventFolderCreate = "folder-create"
	EventFolderDelete = "folder-delete"
	EventCursorUpdate = "cursor-update"
	EventTypingStart  = "typing-start"
	EventTypingStop   = "typing-stop"
	EventDebug        = "debug-sessions"

	EventConnected     = "connected"
	EventSessionState  = "session-state"
	EventUserJoined    = "user-joined"
	EventUserLeft      = "user-left"
	EventFileCreated   = "file-created"
	EventFileUpdated   = "file-updated"
	EventFileDeleted   = "file-deleted"
	EventFileRenamed   = "file-renamed"
	EventFolderCreated = "folder-created"
	EventFolderDeleted = "folder-deleted"
	EventCursorUpdated = "cursor-updated"
	EventUserTyping    = "user-typing"
	EventDebugResponse = "debug-sessions-response"
)

const (
	FileTypeDefault = "file"
	LangPlaintext   = "plaintext"
)

type WSFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Remarshal converts a decoded frame payload (generic map) into a typed
// payload struct by round-tripping through JSON.
func Remarshal(in any, out any) {
	b, _ := json.Marshal(in)
	_ = json.Unmarshal(b, out)
}

/*** Room state ***/

// FileRecord is the stored content for one file path within a room.
// Content is always the full text, never a diff.
type FileRecord struct {
	Content      string    `json:"content"`
	Type         string    `json:"type"`
	Language     string    `json:"language"`
	LastModified time.Time `json:"lastModified"`
}

// Member is one live connection's participation record within a room.
// Rooms key members by connection id, so the same logical user in two
// tabs produces two independent members.
type Member struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joinedAt"`
}

// CursorState holds the last reported cursor location for a member.
// Position and selection are opaque to the server.
type CursorState struct {
	FilePath  string          `json:"filePath"`
	Position  json.RawMessage `json:"position,omitempty"`
	Selection json.RawMessage `json:"selection,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

/*** Client-to-server payloads ***/

type JoinRoom struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

type FileCreate struct {
	RoomID   string `json:"roomId"`
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
	FileType string `json:"fileType"`
	Language string `json:"language"`
}

type FileUpdate struct {
	RoomID   string `json:"roomId"`
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
}

type FileDelete struct {
	RoomID   string `json:"roomId"`
	FilePath string `json:"filePath"`
}

type FileRename struct {
	RoomID  string `json:"roomId"`
	OldPath string `json:"oldPath"`
	NewPath string `json:"newPath"`
}

type FolderCreate struct {
	RoomID     string `json:"roomId"`
	FolderPath string `json:"folderPath"`
}

type FolderDelete struct {
	RoomID     string `json:"roomId"`
	FolderPath string `json:"folderPath"`
}

type CursorUpdate struct {
	RoomID    string          `json:"roomId"`
	FilePath  string          `json:"filePath"`
	Position  json.RawMessage `json:"position,omitempty"`
	Selection json.RawMessage `json:"selection,omitempty"`
}

type Typing struct {
	RoomID   string `json:"roomId"`
	FilePath string `json:"filePath,omitempty"`
}

/*** Server-to-client payloads ***/

// Connected is sent once after the upgrade so the client learns the
// connection id the server keys its presence by.
type Connected struct {
	ConnectionID string `json:"connectionId"`
}

// SessionState is the full room snapshot sent only to a joining
// connection. Users and cursors are keyed by connection id.
type SessionState struct {
	ConnectionID string                 `json:"connectionId"`
	Files        map[string]FileRecord  `json:"files"`
	Folders      []string               `json:"folders"`
	Users        map[string]Member      `json:"users"`
	Cursors      map[string]CursorState `json:"cursors"`
}

type UserJoined struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

type UserLeft struct {
	UserID string `json:"userId"`
}

type FileCreated struct {
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
	FileType string `json:"fileType"`
	Language string `json:"language"`
}

type FileUpdated struct {
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
}

type FileDeleted struct {
	FilePath string `json:"filePath"`
}

type FileRenamed struct {
	OldPath string `json:"oldPath"`
	NewPath string `json:"newPath"`
}

type FolderCreated struct {
	FolderPath string `json:"folderPath"`
}

type FolderDeleted struct {
	FolderPath string `json:"folderPath"`
}

type CursorUpdated struct {
	UserID    string          `json:"userId"`
	Username  string          `json:"username"`
	Color     string          `json:"color"`
	FilePath  string          `json:"filePath"`
	Position  json.RawMessage `json:"position,omitempty"`
	Selection json.RawMessage `json:"selection,omitempty"`
}

type UserTyping struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	FilePath string `json:"filePath,omitempty"`
	IsTyping bool   `json:"isTyping"`
}

type DebugSessions struct {
	Sessions      []string `json:"sessions"`
	TotalSessions int      `json:"totalSessions"`
}

// RoomStatus is the HTTP diagnostic view of one room.
type RoomStatus struct {
	ID          string   `json:"id"`
	UserCount   int      `json:"userCount"`
	FileCount   int      `json:"fileCount"`
	FolderCount int      `json:"folderCount"`
	Users       []Member `json:"users"`
}
