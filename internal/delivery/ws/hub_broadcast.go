package ws

import (
	"github.com/mmuslimabdulj/code-relay/internal/domain"
	"github.com/samber/lo"
)

// BroadcastExcept sends evt to every member of roomID's group except senderID.
// An empty roomID is a no-op.
func (h *Hub) BroadcastExcept(roomID, senderID string, evt domain.OutboundEvent) {
	if roomID == "" {
		return
	}

	data, err := EncodeOutbound(evt)
	if err != nil {
		h.log.Error("failed to encode event", "event", evt.Name, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	recipients := lo.OmitByKeys(h.groups[roomID], []string{senderID})
	for _, c := range recipients {
		h.deliver(c, evt.Name, data)
	}
}

// SendTo sends evt to a single connection regardless of its room
func (h *Hub) SendTo(socketID string, evt domain.OutboundEvent) {
	data, err := EncodeOutbound(evt)
	if err != nil {
		h.log.Error("failed to encode event", "event", evt.Name, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[socketID]
	if !ok {
		return
	}
	h.deliver(c, evt.Name, data)
}

// JoinGroup adds socketID to the transport group of roomID
func (h *Hub) JoinGroup(socketID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[socketID]
	if !ok {
		return
	}
	members, ok := h.groups[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.groups[roomID] = members
	}
	members[socketID] = c
}

// LeaveGroup removes socketID from the transport group of roomID
func (h *Hub) LeaveGroup(socketID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[roomID]
	if !ok {
		return
	}
	delete(members, socketID)
	if len(members) == 0 {
		delete(h.groups, roomID)
	}
}

// deliver enqueues without blocking; a full buffer drops the frame.
// Caller must hold at least RLock.
func (h *Hub) deliver(c *Client, name domain.Action, data []byte) {
	if !c.trySend(data) {
		h.log.Debug("send buffer full, frame dropped", "socket", c.ID, "event", name)
	}
}
