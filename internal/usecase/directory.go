package usecase

import (
	"sync"

	"github.com/mmuslimabdulj/code-relay/internal/domain"
	"github.com/samber/lo"
)

// roomIndex tracks the members of one room and the usernames they hold
type roomIndex struct {
	members   map[string]struct{} // socketID set
	usernames map[string]string   // username -> socketID
}

func newRoomIndex() *roomIndex {
	return &roomIndex{
		members:   make(map[string]struct{}),
		usernames: make(map[string]string),
	}
}

// DirectoryStats is a point-in-time count of the directory contents
type DirectoryStats struct {
	Participants int `json:"participants"`
	Rooms        int `json:"rooms"`
}

// SessionDirectory is the registry of connected participants and their rooms.
// All returned participants are copies.
type SessionDirectory struct {
	mu     sync.RWMutex
	byConn map[string]*domain.Participant
	rooms  map[string]*roomIndex
}

// NewSessionDirectory creates an empty directory
func NewSessionDirectory() *SessionDirectory {
	return &SessionDirectory{
		byConn: make(map[string]*domain.Participant),
		rooms:  make(map[string]*roomIndex),
	}
}

// Register inserts a participant with default presence.
// It fails without mutating anything when the username is taken in the room
// or the connection already belongs to a room.
func (d *SessionDirectory) Register(candidate domain.Participant) (domain.Participant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byConn[candidate.SocketID]; exists {
		return domain.Participant{}, domain.ErrAlreadyJoined
	}

	room, ok := d.rooms[candidate.RoomID]
	if ok {
		if _, taken := room.usernames[candidate.Username]; taken {
			return domain.Participant{}, domain.ErrUsernameConflict
		}
	} else {
		room = newRoomIndex()
		d.rooms[candidate.RoomID] = room
	}

	p := domain.NewParticipant(candidate.SocketID, candidate.RoomID, candidate.Username)
	d.byConn[p.SocketID] = &p
	room.members[p.SocketID] = struct{}{}
	room.usernames[p.Username] = p.SocketID

	return p.Clone(), nil
}

// UsernameTaken reports whether username is held by a member of roomID
func (d *SessionDirectory) UsernameTaken(roomID, username string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	_, taken := room.usernames[username]
	return taken
}

// FindByConnection returns the participant bound to socketID
func (d *SessionDirectory) FindByConnection(socketID string) (domain.Participant, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.byConn[socketID]
	if !ok {
		return domain.Participant{}, false
	}
	return p.Clone(), true
}

// RoomOf returns the room of socketID
func (d *SessionDirectory) RoomOf(socketID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.byConn[socketID]
	if !ok {
		return "", false
	}
	return p.RoomID, true
}

// ListByRoom returns the members of roomID in no particular order
func (d *SessionDirectory) ListByRoom(roomID string) []domain.Participant {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return []domain.Participant{}
	}

	return lo.FilterMap(lo.Keys(room.members), func(socketID string, _ int) (domain.Participant, bool) {
		p, ok := d.byConn[socketID]
		if !ok {
			return domain.Participant{}, false
		}
		return p.Clone(), true
	})
}

// UpdateByConnection applies mutate to the participant bound to socketID and
// returns the updated snapshot. It is a no-op when socketID is unknown.
// Identity fields (socket, room, username) are restored after mutate runs.
func (d *SessionDirectory) UpdateByConnection(socketID string, mutate func(p *domain.Participant)) (domain.Participant, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.byConn[socketID]
	if !ok {
		return domain.Participant{}, false
	}

	updated := p.Clone()
	mutate(&updated)
	updated.SocketID = p.SocketID
	updated.RoomID = p.RoomID
	updated.Username = p.Username
	if updated.CursorPosition < 0 {
		updated.CursorPosition = 0
	}

	*p = updated
	return p.Clone(), true
}

// Remove deletes the participant bound to socketID and returns it
func (d *SessionDirectory) Remove(socketID string) (domain.Participant, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.byConn[socketID]
	if !ok {
		return domain.Participant{}, false
	}

	delete(d.byConn, socketID)
	if room, exists := d.rooms[p.RoomID]; exists {
		delete(room.members, socketID)
		if room.usernames[p.Username] == socketID {
			delete(room.usernames, p.Username)
		}
		if len(room.members) == 0 {
			delete(d.rooms, p.RoomID)
		}
	}

	return p.Clone(), true
}

// Stats returns the current participant and room counts
func (d *SessionDirectory) Stats() DirectoryStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return DirectoryStats{
		Participants: len(d.byConn),
		Rooms:        len(d.rooms),
	}
}
