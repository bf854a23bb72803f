package domain

// Status is the presence flag of a participant, independent of typing
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Participant is a connected user bound to exactly one room
type Participant struct {
	SocketID       string  `json:"socketId"`
	Username       string  `json:"username"`
	RoomID         string  `json:"roomId"`
	Status         Status  `json:"status"`
	CursorPosition int     `json:"cursorPosition"`
	Typing         bool    `json:"typing"`
	CurrentFile    *string `json:"currentFile"`
}

// NewParticipant creates a freshly joined participant with default presence
func NewParticipant(socketID, roomID, username string) Participant {
	return Participant{
		SocketID:       socketID,
		Username:       username,
		RoomID:         roomID,
		Status:         StatusOnline,
		CursorPosition: 0,
		Typing:         false,
		CurrentFile:    nil,
	}
}

// Clone returns a copy that shares no pointers with p
func (p Participant) Clone() Participant {
	if p.CurrentFile != nil {
		file := *p.CurrentFile
		p.CurrentFile = &file
	}
	return p
}
