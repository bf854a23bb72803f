package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/mmuslimabdulj/code-relay/internal/domain"
	"github.com/mmuslimabdulj/code-relay/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is an in-memory Broadcaster that resolves deliveries per connection
type recorder struct {
	groups     map[string]map[string]bool
	inbox      map[string][]domain.OutboundEvent
	broadcasts int
}

func newRecorder() *recorder {
	return &recorder{
		groups: make(map[string]map[string]bool),
		inbox:  make(map[string][]domain.OutboundEvent),
	}
}

func (r *recorder) BroadcastExcept(roomID, senderID string, evt domain.OutboundEvent) {
	if roomID == "" {
		return
	}
	r.broadcasts++
	for member := range r.groups[roomID] {
		if member != senderID {
			r.inbox[member] = append(r.inbox[member], evt)
		}
	}
}

func (r *recorder) SendTo(socketID string, evt domain.OutboundEvent) {
	r.inbox[socketID] = append(r.inbox[socketID], evt)
}

func (r *recorder) JoinGroup(socketID, roomID string) {
	if r.groups[roomID] == nil {
		r.groups[roomID] = make(map[string]bool)
	}
	r.groups[roomID][socketID] = true
}

func (r *recorder) LeaveGroup(socketID, roomID string) {
	delete(r.groups[roomID], socketID)
}

func (r *recorder) drain(socketID string) []domain.OutboundEvent {
	events := r.inbox[socketID]
	delete(r.inbox, socketID)
	return events
}

func (r *recorder) total() int {
	n := 0
	for _, events := range r.inbox {
		n += len(events)
	}
	return n
}

func newTestRouter() (*Router, *usecase.SessionDirectory, *recorder) {
	dir := usecase.NewSessionDirectory()
	rec := newRecorder()
	return NewRouter(dir, rec, slog.New(slog.DiscardHandler)), dir, rec
}

func join(r *Router, socketID, roomID, username string) {
	r.Dispatch(Inbound{
		SocketID: socketID,
		Action:   domain.ActionJoinRequest,
		Payload:  domain.JoinRequestPayload{RoomID: roomID, Username: username},
	})
}

// joinRoom joins every socket into roomID and clears the join traffic
func joinRoom(t *testing.T, r *Router, rec *recorder, roomID string, members map[string]string) {
	t.Helper()
	for socketID, username := range members {
		join(r, socketID, roomID, username)
	}
	for socketID := range members {
		rec.drain(socketID)
	}
	require.Zero(t, rec.total())
}

func TestRouter_JoinAccepted(t *testing.T) {
	r, dir, rec := newTestRouter()

	join(r, "a", "r1", "alice")

	events := rec.drain("a")
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActionJoinAccepted, events[0].Name)
	accepted := events[0].Data.(domain.JoinAcceptedPayload)
	assert.Equal(t, "alice", accepted.User.Username)
	assert.Equal(t, "a", accepted.User.SocketID)
	assert.Equal(t, domain.StatusOnline, accepted.User.Status)
	assert.Len(t, accepted.Users, 1)

	join(r, "b", "r1", "bob")

	events = rec.drain("a")
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActionUserJoined, events[0].Name)
	assert.Equal(t, "bob", events[0].Data.(domain.UserPayload).User.Username)

	events = rec.drain("b")
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActionJoinAccepted, events[0].Name)
	assert.Len(t, events[0].Data.(domain.JoinAcceptedPayload).Users, 2)

	assert.Len(t, dir.ListByRoom("r1"), 2)
	assert.True(t, rec.groups["r1"]["a"])
	assert.True(t, rec.groups["r1"]["b"])
}

func TestRouter_UsernameExists(t *testing.T) {
	r, dir, rec := newTestRouter()

	join(r, "a", "r1", "alice")
	rec.drain("a")
	broadcastsBefore := rec.broadcasts

	join(r, "c", "r1", "alice")

	events := rec.drain("c")
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActionUsernameExists, events[0].Name)
	assert.Nil(t, events[0].Data)

	assert.Equal(t, broadcastsBefore, rec.broadcasts, "conflict must not broadcast")
	assert.Zero(t, rec.total())
	assert.Len(t, dir.ListByRoom("r1"), 1)
	assert.False(t, rec.groups["r1"]["c"], "conflict must not join the group")
}

func TestRouter_SameUsernameOtherRoom(t *testing.T) {
	r, dir, rec := newTestRouter()

	join(r, "a", "r1", "alice")
	join(r, "b", "r2", "alice")

	assert.Equal(t, domain.ActionJoinAccepted, rec.drain("b")[0].Name)
	assert.Len(t, dir.ListByRoom("r1"), 1)
	assert.Len(t, dir.ListByRoom("r2"), 1)
}

func TestRouter_SecondJoinFromSameConnectionDropped(t *testing.T) {
	r, dir, rec := newTestRouter()

	join(r, "a", "r1", "alice")
	rec.drain("a")

	join(r, "a", "r2", "alice2")

	assert.Zero(t, rec.total())
	room, _ := dir.RoomOf("a")
	assert.Equal(t, "r1", room)
}

func TestRouter_Disconnect(t *testing.T) {
	r, dir, rec := newTestRouter()

	members := map[string]string{}
	for i := 0; i < 5; i++ {
		members[fmt.Sprintf("s%d", i)] = fmt.Sprintf("user%d", i)
	}
	joinRoom(t, r, rec, "r1", members)

	r.Disconnect("s3")

	list := dir.ListByRoom("r1")
	assert.Len(t, list, 4)
	for _, p := range list {
		assert.NotEqual(t, "s3", p.SocketID)
	}

	assert.Empty(t, rec.drain("s3"))
	for socketID := range members {
		if socketID == "s3" {
			continue
		}
		events := rec.drain(socketID)
		require.Len(t, events, 1, socketID)
		assert.Equal(t, domain.ActionUserDisconnected, events[0].Name)
		assert.Equal(t, "user3", events[0].Data.(domain.UserPayload).User.Username)
	}
	assert.False(t, rec.groups["r1"]["s3"])
}

func TestRouter_DisconnectUnknown(t *testing.T) {
	r, _, rec := newTestRouter()

	r.Disconnect("ghost")

	assert.Zero(t, rec.broadcasts)
	assert.Zero(t, rec.total())
}

func TestRouter_DisconnectThenRejoinSameUsername(t *testing.T) {
	r, dir, rec := newTestRouter()
	joinRoom(t, r, rec, "r1", map[string]string{"a": "alice", "b": "bob"})

	r.Disconnect("a")
	join(r, "a2", "r1", "alice")

	events := rec.drain("b")
	require.Len(t, events, 2)
	assert.Equal(t, domain.ActionUserDisconnected, events[0].Name)
	assert.Equal(t, domain.ActionUserJoined, events[1].Name)
	assert.Len(t, dir.ListByRoom("r1"), 2)
}

func TestRouter_FileCreatedReachesOnlyPeers(t *testing.T) {
	r, _, rec := newTestRouter()
	joinRoom(t, r, rec, "r1", map[string]string{"a": "alice", "b": "bob"})
	joinRoom(t, r, rec, "r2", map[string]string{"x": "xavier"})

	file := json.RawMessage(`{"id":"f1"}`)
	r.Dispatch(Inbound{SocketID: "a", Action: domain.ActionFileCreated, Payload: domain.FilePayload{File: file}})

	assert.Empty(t, rec.drain("a"))
	assert.Empty(t, rec.drain("x"))

	events := rec.drain("b")
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActionFileCreated, events[0].Name)
	assert.Equal(t, domain.FilePayload{File: file}, events[0].Data)
}

func TestRouter_RoomRelays(t *testing.T) {
	file := json.RawMessage(`{"id":"f1","name":"main.go"}`)

	tests := []struct {
		name     string
		in       Inbound
		expected domain.OutboundEvent
	}{
		{
			"file updated",
			Inbound{Action: domain.ActionFileUpdated, Payload: domain.FilePayload{File: file}},
			domain.OutboundEvent{Name: domain.ActionFileUpdated, Data: domain.FilePayload{File: file}},
		},
		{
			"file renamed",
			Inbound{Action: domain.ActionFileRenamed, Payload: domain.FilePayload{File: file}},
			domain.OutboundEvent{Name: domain.ActionFileRenamed, Data: domain.FilePayload{File: file}},
		},
		{
			"file deleted",
			Inbound{Action: domain.ActionFileDeleted, Payload: domain.FileDeletedPayload{ID: "f1"}},
			domain.OutboundEvent{Name: domain.ActionFileDeleted, Data: domain.FileDeletedPayload{ID: "f1"}},
		},
		{
			"send message is renamed",
			Inbound{Action: domain.ActionSendMessage, Payload: domain.SendMessagePayload{Message: json.RawMessage(`{"text":"hi"}`)}},
			domain.OutboundEvent{Name: domain.ActionReceiveMessage, Data: domain.SendMessagePayload{Message: json.RawMessage(`{"text":"hi"}`)}},
		},
		{
			"request drawing names the requester",
			Inbound{Action: domain.ActionRequestDrawing, Payload: domain.EmptyPayload{}},
			domain.OutboundEvent{Name: domain.ActionRequestDrawing, Data: domain.StatusPayload{SocketID: "a"}},
		},
		{
			"drawing update",
			Inbound{Action: domain.ActionDrawingUpdate, Payload: domain.DrawingUpdatePayload{Snapshot: json.RawMessage(`{"shapes":[]}`)}},
			domain.OutboundEvent{Name: domain.ActionDrawingUpdate, Data: domain.DrawingUpdatePayload{Snapshot: json.RawMessage(`{"shapes":[]}`)}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _, rec := newTestRouter()
			joinRoom(t, r, rec, "r1", map[string]string{"a": "alice", "b": "bob", "c": "carol"})

			tc.in.SocketID = "a"
			r.Dispatch(tc.in)

			assert.Empty(t, rec.drain("a"), "sender must not receive its own event")
			for _, peer := range []string{"b", "c"} {
				events := rec.drain(peer)
				require.Len(t, events, 1, peer)
				assert.Equal(t, tc.expected, events[0])
			}
		})
	}
}

func TestRouter_RelayFromUnjoinedSenderIsNoop(t *testing.T) {
	r, _, rec := newTestRouter()
	joinRoom(t, r, rec, "r1", map[string]string{"a": "alice"})

	r.Dispatch(Inbound{SocketID: "ghost", Action: domain.ActionFileCreated, Payload: domain.FilePayload{File: json.RawMessage(`{}`)}})
	r.Dispatch(Inbound{SocketID: "ghost", Action: domain.ActionTypingStart, Payload: domain.TypingStartPayload{CursorPosition: 3}})
	r.Dispatch(Inbound{SocketID: "ghost", Action: domain.ActionRequestDrawing, Payload: domain.EmptyPayload{}})

	assert.Zero(t, rec.broadcasts)
	assert.Zero(t, rec.total())
}

func TestRouter_TypingStartAndPause(t *testing.T) {
	r, dir, rec := newTestRouter()
	joinRoom(t, r, rec, "r1", map[string]string{"a": "alice", "b": "bob"})

	r.Dispatch(Inbound{SocketID: "a", Action: domain.ActionTypingStart, Payload: domain.TypingStartPayload{CursorPosition: 42}})

	events := rec.drain("b")
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActionTypingStart, events[0].Name)
	snapshot := events[0].Data.(domain.UserPayload).User
	assert.Equal(t, "alice", snapshot.Username)
	assert.True(t, snapshot.Typing)
	assert.Equal(t, 42, snapshot.CursorPosition)
	assert.Empty(t, rec.drain("a"))

	// State persists until the next typing event
	r.Dispatch(Inbound{SocketID: "b", Action: domain.ActionFileDeleted, Payload: domain.FileDeletedPayload{ID: "f"}})
	alice, _ := dir.FindByConnection("a")
	assert.True(t, alice.Typing)
	assert.Equal(t, 42, alice.CursorPosition)
	rec.drain("a")

	r.Dispatch(Inbound{SocketID: "a", Action: domain.ActionTypingPause, Payload: domain.EmptyPayload{}})

	events = rec.drain("b")
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActionTypingPause, events[0].Name)
	snapshot = events[0].Data.(domain.UserPayload).User
	assert.False(t, snapshot.Typing)
	assert.Equal(t, 42, snapshot.CursorPosition)

	alice, _ = dir.FindByConnection("a")
	assert.False(t, alice.Typing)
}

func TestRouter_StatusChange(t *testing.T) {
	r, dir, rec := newTestRouter()
	joinRoom(t, r, rec, "r1", map[string]string{"a": "alice", "b": "bob", "c": "carol"})

	r.Dispatch(Inbound{SocketID: "a", Action: domain.ActionUserOffline, Payload: domain.StatusPayload{SocketID: "a"}})

	alice, _ := dir.FindByConnection("a")
	assert.Equal(t, domain.StatusOffline, alice.Status)
	assert.Empty(t, rec.drain("a"))
	for _, peer := range []string{"b", "c"} {
		events := rec.drain(peer)
		require.Len(t, events, 1)
		assert.Equal(t, domain.OutboundEvent{Name: domain.ActionUserOffline, Data: domain.StatusPayload{SocketID: "a"}}, events[0])
	}

	// Reporting on behalf of another connection excludes only the sender
	r.Dispatch(Inbound{SocketID: "b", Action: domain.ActionUserOnline, Payload: domain.StatusPayload{SocketID: "a"}})

	alice, _ = dir.FindByConnection("a")
	assert.Equal(t, domain.StatusOnline, alice.Status)
	assert.Empty(t, rec.drain("b"))
	assert.Len(t, rec.drain("a"), 1)
	assert.Len(t, rec.drain("c"), 1)
}

func TestRouter_StatusChangeUnknownTarget(t *testing.T) {
	r, _, rec := newTestRouter()
	joinRoom(t, r, rec, "r1", map[string]string{"a": "alice", "b": "bob"})

	r.Dispatch(Inbound{SocketID: "a", Action: domain.ActionUserOffline, Payload: domain.StatusPayload{SocketID: "ghost"}})

	assert.Zero(t, rec.broadcasts)
	assert.Zero(t, rec.total())
}

func TestRouter_SyncFilesIsDirected(t *testing.T) {
	r, _, rec := newTestRouter()
	joinRoom(t, r, rec, "r1", map[string]string{"a": "alice", "b": "bob", "c": "carol"})

	files := json.RawMessage(`[{"id":"f1"}]`)
	current := json.RawMessage(`{"id":"f1"}`)
	r.Dispatch(Inbound{SocketID: "a", Action: domain.ActionSyncFiles, Payload: domain.SyncFilesPayload{
		Files: files, CurrentFile: current, SocketID: "c",
	}})

	assert.Empty(t, rec.drain("a"))
	assert.Empty(t, rec.drain("b"))
	events := rec.drain("c")
	require.Len(t, events, 1)
	assert.Equal(t, domain.OutboundEvent{
		Name: domain.ActionSyncFiles,
		Data: domain.FilesPayload{Files: files, CurrentFile: current},
	}, events[0])
	assert.Zero(t, rec.broadcasts)
}

func TestRouter_SyncDrawingIsDirected(t *testing.T) {
	r, _, rec := newTestRouter()
	joinRoom(t, r, rec, "r1", map[string]string{"a": "alice", "b": "bob", "c": "carol"})

	drawing := json.RawMessage(`{"shapes":[1]}`)
	r.Dispatch(Inbound{SocketID: "b", Action: domain.ActionSyncDrawing, Payload: domain.SyncDrawingPayload{
		DrawingData: drawing, SocketID: "a",
	}})

	events := rec.drain("a")
	require.Len(t, events, 1)
	assert.Equal(t, domain.OutboundEvent{
		Name: domain.ActionSyncDrawing,
		Data: domain.DrawingDataPayload{DrawingData: drawing},
	}, events[0])
	assert.Zero(t, rec.total())
}

func TestRouter_SyncDrawingToSenderIsDropped(t *testing.T) {
	r, _, rec := newTestRouter()
	joinRoom(t, r, rec, "r1", map[string]string{"a": "alice", "b": "bob"})

	r.Dispatch(Inbound{SocketID: "b", Action: domain.ActionSyncDrawing, Payload: domain.SyncDrawingPayload{
		DrawingData: json.RawMessage(`{"shapes":[1]}`), SocketID: "b",
	}})

	assert.Empty(t, rec.drain("b"))
	assert.Zero(t, rec.total())
}

func TestRouter_UnknownActionAndWrongPayload(t *testing.T) {
	r, dir, rec := newTestRouter()

	r.Dispatch(Inbound{SocketID: "a", Action: "explode"})
	r.Dispatch(Inbound{SocketID: "a", Action: domain.ActionJoinRequest, Payload: domain.FilePayload{}})

	assert.Zero(t, rec.total())
	assert.Equal(t, usecase.DirectoryStats{}, dir.Stats())
}
