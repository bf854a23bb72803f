package ws

import (
	"errors"
	"log/slog"

	"github.com/mmuslimabdulj/code-relay/internal/domain"
	"github.com/mmuslimabdulj/code-relay/internal/usecase"
)

// Broadcaster delivers outbound events and manages transport groups.
// Every method is fire-and-forget.
type Broadcaster interface {
	// BroadcastExcept delivers evt to every member of roomID except senderID
	BroadcastExcept(roomID, senderID string, evt domain.OutboundEvent)
	// SendTo delivers evt to exactly one connection
	SendTo(socketID string, evt domain.OutboundEvent)
	JoinGroup(socketID, roomID string)
	LeaveGroup(socketID, roomID string)
}

// Inbound is a decoded client event tagged with its originating connection
type Inbound struct {
	SocketID string
	Action   domain.Action
	Payload  any
}

type handlerFunc func(socketID string, payload any)

// on adapts a typed handler; payloads of the wrong type are dropped
func on[T any](fn func(socketID string, payload T)) handlerFunc {
	return func(socketID string, payload any) {
		p, ok := payload.(T)
		if !ok {
			return
		}
		fn(socketID, p)
	}
}

// Router maps each inbound action to its handler.
// Handlers read and mutate the directory and emit events through the Broadcaster.
type Router struct {
	dir      *usecase.SessionDirectory
	out      Broadcaster
	log      *slog.Logger
	handlers map[domain.Action]handlerFunc
}

// NewRouter creates a Router over dir that emits through out
func NewRouter(dir *usecase.SessionDirectory, out Broadcaster, log *slog.Logger) *Router {
	r := &Router{dir: dir, out: out, log: log}
	r.handlers = map[domain.Action]handlerFunc{
		domain.ActionJoinRequest:    on(r.handleJoinRequest),
		domain.ActionSyncFiles:      on(r.handleSyncFiles),
		domain.ActionFileCreated:    on(r.fileRelay(domain.ActionFileCreated)),
		domain.ActionFileUpdated:    on(r.fileRelay(domain.ActionFileUpdated)),
		domain.ActionFileRenamed:    on(r.fileRelay(domain.ActionFileRenamed)),
		domain.ActionFileDeleted:    on(r.handleFileDeleted),
		domain.ActionUserOffline:    on(r.statusChange(domain.ActionUserOffline, domain.StatusOffline)),
		domain.ActionUserOnline:     on(r.statusChange(domain.ActionUserOnline, domain.StatusOnline)),
		domain.ActionSendMessage:    on(r.handleSendMessage),
		domain.ActionTypingStart:    on(r.handleTypingStart),
		domain.ActionTypingPause:    on(r.handleTypingPause),
		domain.ActionRequestDrawing: on(r.handleRequestDrawing),
		domain.ActionSyncDrawing:    on(r.handleSyncDrawing),
		domain.ActionDrawingUpdate:  on(r.handleDrawingUpdate),
	}
	return r
}

// Dispatch runs the handler registered for in.Action
func (r *Router) Dispatch(in Inbound) {
	handle, ok := r.handlers[in.Action]
	if !ok {
		r.log.Debug("no handler for action", "action", in.Action, "socket", in.SocketID)
		return
	}
	handle(in.SocketID, in.Payload)
}

// Disconnect announces the departure of socketID to its room, removes it
// from the directory and leaves its transport group. Unknown ids are ignored.
func (r *Router) Disconnect(socketID string) {
	user, ok := r.dir.FindByConnection(socketID)
	if !ok {
		return
	}

	r.out.BroadcastExcept(user.RoomID, socketID, domain.OutboundEvent{
		Name: domain.ActionUserDisconnected,
		Data: domain.UserPayload{User: user},
	})
	r.dir.Remove(socketID)
	r.out.LeaveGroup(socketID, user.RoomID)

	r.log.Info("participant left", "room", user.RoomID, "username", user.Username, "socket", socketID)
}

func (r *Router) handleJoinRequest(socketID string, p domain.JoinRequestPayload) {
	if r.dir.UsernameTaken(p.RoomID, p.Username) {
		r.out.SendTo(socketID, domain.OutboundEvent{Name: domain.ActionUsernameExists})
		return
	}

	user, err := r.dir.Register(domain.Participant{
		SocketID: socketID,
		RoomID:   p.RoomID,
		Username: p.Username,
	})
	switch {
	case errors.Is(err, domain.ErrUsernameConflict):
		r.out.SendTo(socketID, domain.OutboundEvent{Name: domain.ActionUsernameExists})
		return
	case err != nil:
		r.log.Debug("join dropped", "socket", socketID, "room", p.RoomID, "error", err)
		return
	}

	r.out.JoinGroup(socketID, user.RoomID)
	r.out.BroadcastExcept(user.RoomID, socketID, domain.OutboundEvent{
		Name: domain.ActionUserJoined,
		Data: domain.UserPayload{User: user},
	})
	r.out.SendTo(socketID, domain.OutboundEvent{
		Name: domain.ActionJoinAccepted,
		Data: domain.JoinAcceptedPayload{User: user, Users: r.dir.ListByRoom(user.RoomID)},
	})

	r.log.Info("participant joined", "room", user.RoomID, "username", user.Username, "socket", socketID)
}

func (r *Router) handleSyncFiles(_ string, p domain.SyncFilesPayload) {
	r.out.SendTo(p.SocketID, domain.OutboundEvent{
		Name: domain.ActionSyncFiles,
		Data: domain.FilesPayload{Files: p.Files, CurrentFile: p.CurrentFile},
	})
}

func (r *Router) fileRelay(action domain.Action) func(string, domain.FilePayload) {
	return func(socketID string, p domain.FilePayload) {
		r.relayToRoom(socketID, domain.OutboundEvent{Name: action, Data: p})
	}
}

func (r *Router) handleFileDeleted(socketID string, p domain.FileDeletedPayload) {
	r.relayToRoom(socketID, domain.OutboundEvent{Name: domain.ActionFileDeleted, Data: p})
}

// statusChange updates the presence of the connection named in the payload,
// which need not be the sender, and relays to that connection's room
func (r *Router) statusChange(action domain.Action, status domain.Status) func(string, domain.StatusPayload) {
	return func(socketID string, p domain.StatusPayload) {
		updated, ok := r.dir.UpdateByConnection(p.SocketID, func(user *domain.Participant) {
			user.Status = status
		})
		if !ok {
			return
		}
		r.out.BroadcastExcept(updated.RoomID, socketID, domain.OutboundEvent{
			Name: action,
			Data: domain.StatusPayload{SocketID: p.SocketID},
		})
	}
}

func (r *Router) handleSendMessage(socketID string, p domain.SendMessagePayload) {
	r.relayToRoom(socketID, domain.OutboundEvent{Name: domain.ActionReceiveMessage, Data: p})
}

func (r *Router) handleTypingStart(socketID string, p domain.TypingStartPayload) {
	r.typingChange(socketID, domain.ActionTypingStart, func(user *domain.Participant) {
		user.Typing = true
		user.CursorPosition = p.CursorPosition
	})
}

func (r *Router) handleTypingPause(socketID string, _ domain.EmptyPayload) {
	r.typingChange(socketID, domain.ActionTypingPause, func(user *domain.Participant) {
		user.Typing = false
	})
}

// typingChange broadcasts the updated participant snapshot, not the raw fields
func (r *Router) typingChange(socketID string, action domain.Action, mutate func(*domain.Participant)) {
	user, ok := r.dir.UpdateByConnection(socketID, mutate)
	if !ok {
		return
	}
	r.out.BroadcastExcept(user.RoomID, socketID, domain.OutboundEvent{
		Name: action,
		Data: domain.UserPayload{User: user},
	})
}

func (r *Router) handleRequestDrawing(socketID string, _ domain.EmptyPayload) {
	r.relayToRoom(socketID, domain.OutboundEvent{
		Name: domain.ActionRequestDrawing,
		Data: domain.StatusPayload{SocketID: socketID},
	})
}

// handleSyncDrawing answers a drawing request. A reply addressed to the
// sender itself is not delivered.
func (r *Router) handleSyncDrawing(socketID string, p domain.SyncDrawingPayload) {
	if p.SocketID == socketID {
		return
	}
	r.out.SendTo(p.SocketID, domain.OutboundEvent{
		Name: domain.ActionSyncDrawing,
		Data: domain.DrawingDataPayload{DrawingData: p.DrawingData},
	})
}

func (r *Router) handleDrawingUpdate(socketID string, p domain.DrawingUpdatePayload) {
	r.relayToRoom(socketID, domain.OutboundEvent{Name: domain.ActionDrawingUpdate, Data: p})
}

// relayToRoom broadcasts evt to the sender's room; senders outside any room are ignored
func (r *Router) relayToRoom(socketID string, evt domain.OutboundEvent) {
	roomID, ok := r.dir.RoomOf(socketID)
	if !ok {
		return
	}
	r.out.BroadcastExcept(roomID, socketID, evt)
}
