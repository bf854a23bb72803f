package http

import (
	"net/http"

	"github.com/mmuslimabdulj/code-relay/internal/middleware"
)

// Routes builds the HTTP surface: liveness at "/" and the rate limited
// WebSocket endpoint at "/ws", behind CORS and security headers
func (h *Handler) Routes(wsLimiter *middleware.IPRateLimiter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", h.HandleLiveness)
	mux.HandleFunc("/ws", middleware.RateLimitFunc(wsLimiter, h.HandleWebSocket))

	return middleware.CORS(h.cfg.AllowedOrigins)(middleware.SecurityHeaders(mux))
}
