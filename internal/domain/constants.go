package domain

import "time"

// ==== WebSocket Constants ====

// MaxMessageSize is the default maximum inbound frame size in bytes.
// Drawing snapshots and whole file bodies travel in a single frame.
const MaxMessageSize = 1 << 20

// SendBufferSize is the default number of outbound frames queued per connection
const SendBufferSize = 256

// ==== Rate Limit Constants ====

// DefaultRateLimitWS is the default rate limit for WebSocket upgrades (req/sec)
const DefaultRateLimitWS = 5

// ==== Timing Constants ====

const (
	// ShutdownGracePeriod bounds the HTTP server shutdown
	ShutdownGracePeriod = 30 * time.Second
)
