package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/code-relay/internal/config"
	"github.com/mmuslimabdulj/code-relay/internal/delivery/ws"
	"github.com/mmuslimabdulj/code-relay/view"
)

type Handler struct {
	hub      *ws.Hub
	cfg      *config.Config
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *ws.Hub, cfg *config.Config, log *slog.Logger) *Handler {
	return &Handler{
		hub: hub,
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return cfg.IsOriginAllowed(r.Header.Get("Origin"))
			},
		},
	}
}

// HandleLiveness confirms the process is up
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := view.Status().Render(r.Context(), w); err != nil {
		h.log.Error("failed to render status", "error", err)
	}
}

// HandleWebSocket upgrades HTTP to WebSocket and attaches the connection to the hub
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		h.log.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn, h.cfg)
	h.hub.Register(client)

	// Start read/write pumps in goroutines
	go client.WritePump()
	go client.ReadPump()
}
