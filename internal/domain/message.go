package domain

import "encoding/json"

// Action is the name of an event exchanged with editor clients
type Action string

const (
	ActionJoinRequest      Action = "join-request"
	ActionJoinAccepted     Action = "join-accepted"
	ActionUserJoined       Action = "user-joined"
	ActionUserDisconnected Action = "user-disconnected"
	ActionUsernameExists   Action = "username-exists"

	// File tree
	ActionSyncFiles   Action = "sync-files"
	ActionFileCreated Action = "file-created"
	ActionFileUpdated Action = "file-updated"
	ActionFileRenamed Action = "file-renamed"
	ActionFileDeleted Action = "file-deleted"

	// Presence
	ActionUserOffline Action = "offline"
	ActionUserOnline  Action = "online"
	ActionTypingStart Action = "typing-start"
	ActionTypingPause Action = "typing-pause"

	// Chat
	ActionSendMessage    Action = "send-message"
	ActionReceiveMessage Action = "receive-message"

	// Drawing board
	ActionRequestDrawing Action = "request-drawing"
	ActionSyncDrawing    Action = "sync-drawing"
	ActionDrawingUpdate  Action = "drawing-update"
)

// Event is a named frame with an optional payload, used in both directions
type Event struct {
	Name Action          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutboundEvent is an event whose payload is still a Go value
type OutboundEvent struct {
	Name Action `json:"event"`
	Data any    `json:"data,omitempty"`
}

// ==== Inbound payloads ====

// JoinRequestPayload asks to enter a room under a display name
type JoinRequestPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// SyncFilesPayload is a directed file tree hand-off to one connection
type SyncFilesPayload struct {
	Files       json.RawMessage `json:"files"`
	CurrentFile json.RawMessage `json:"currentFile"`
	SocketID    string          `json:"socketId" validate:"required"`
}

// FilePayload carries a single file object relayed verbatim
type FilePayload struct {
	File json.RawMessage `json:"file" validate:"required"`
}

// FileDeletedPayload names the deleted file
type FileDeletedPayload struct {
	ID string `json:"id" validate:"required"`
}

// StatusPayload targets the connection whose presence changed
type StatusPayload struct {
	SocketID string `json:"socketId" validate:"required"`
}

// SendMessagePayload is a chat message relayed verbatim
type SendMessagePayload struct {
	Message json.RawMessage `json:"message" validate:"required"`
}

// TypingStartPayload reports the caret offset while typing
type TypingStartPayload struct {
	CursorPosition int `json:"cursorPosition" validate:"gte=0"`
}

// EmptyPayload is used by actions that carry no data
type EmptyPayload struct{}

// SyncDrawingPayload is a directed drawing-state reply
type SyncDrawingPayload struct {
	DrawingData json.RawMessage `json:"drawingData"`
	SocketID    string          `json:"socketId" validate:"required"`
}

// DrawingUpdatePayload is a canvas snapshot relayed verbatim
type DrawingUpdatePayload struct {
	Snapshot json.RawMessage `json:"snapshot" validate:"required"`
}

// ==== Outbound payloads ====

// UserPayload wraps a participant snapshot
type UserPayload struct {
	User Participant `json:"user"`
}

// JoinAcceptedPayload is the reply to a successful join
type JoinAcceptedPayload struct {
	User  Participant   `json:"user"`
	Users []Participant `json:"users"`
}

// FilesPayload is the relayed form of SyncFilesPayload
type FilesPayload struct {
	Files       json.RawMessage `json:"files"`
	CurrentFile json.RawMessage `json:"currentFile"`
}

// DrawingDataPayload is the relayed form of SyncDrawingPayload
type DrawingDataPayload struct {
	DrawingData json.RawMessage `json:"drawingData"`
}
