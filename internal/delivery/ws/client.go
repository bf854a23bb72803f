package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/code-relay/internal/config"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// Client represents a single websocket connection
type Client struct {
	ID             string
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	limiter        *rate.Limiter // nil when inbound events are not limited
	maxMessageSize int64
}

// NewClient creates a new Client with a fresh connection id
func NewClient(hub *Hub, conn *websocket.Conn, cfg *config.Config) *Client {
	c := &Client{
		ID:             uuid.NewString(),
		hub:            hub,
		conn:           conn,
		send:           make(chan []byte, cfg.SendBufferSize),
		maxMessageSize: cfg.MaxMessageSize,
	}
	if cfg.RateLimitEvents > 0 {
		c.limiter = rate.NewLimiter(cfg.RateLimitEvents, cfg.RateBurstEvents)
	}
	return c
}

// ReadPump pumps frames from the websocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("connection closed unexpectedly", "socket", c.ID, "error", err)
			}
			break
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.hub.log.Debug("inbound rate exceeded, frame dropped", "socket", c.ID)
			continue
		}

		action, payload, err := DecodeInbound(message)
		if err != nil {
			c.hub.log.Debug("frame rejected", "socket", c.ID, "event", action, "error", err)
			continue
		}

		c.hub.Dispatch(Inbound{SocketID: c.ID, Action: action, Payload: payload})
	}
}

// WritePump pumps frames from the hub to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One event per frame
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend adds a frame to the client's send queue without blocking
func (c *Client) trySend(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}
