package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mmuslimabdulj/code-relay/internal/domain"
	"golang.org/x/time/rate"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port string

	// Security
	AllowedOrigins []string

	// Rate Limiting
	RateLimitWS     rate.Limit
	RateBurstWS     int
	RateLimitEvents rate.Limit // per-connection inbound events/s, 0 disables
	RateBurstEvents int

	// Logging
	LogLevel string

	// WebSocket
	MaxMessageSize int64
	SendBufferSize int
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:           "8080",
		AllowedOrigins: []string{"*"},
		RateLimitWS:    domain.DefaultRateLimitWS,
		RateBurstWS:    domain.DefaultRateLimitWS * 2,
		LogLevel:       "info", // Options: debug, info, warn, error, silent
		MaxMessageSize: domain.MaxMessageSize,
		SendBufferSize: domain.SendBufferSize,
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	// Server
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	// Security
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		if parsed := parseOrigins(origins); len(parsed) > 0 {
			cfg.AllowedOrigins = parsed
		}
	}

	// Rate Limiting
	if rl := os.Getenv("RATE_LIMIT_WS"); rl != "" {
		if val, err := strconv.Atoi(rl); err == nil && val > 0 {
			cfg.RateLimitWS = rate.Limit(val)
			cfg.RateBurstWS = val * 2
		}
	}

	if rl := os.Getenv("RATE_LIMIT_EVENTS"); rl != "" {
		if val, err := strconv.Atoi(rl); err == nil && val > 0 {
			cfg.RateLimitEvents = rate.Limit(val)
			cfg.RateBurstEvents = val * 2
		}
	}

	// Logging
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	// WebSocket
	if size := os.Getenv("MAX_MESSAGE_SIZE"); size != "" {
		if val, err := strconv.ParseInt(size, 10, 64); err == nil && val > 0 {
			cfg.MaxMessageSize = val
		}
	}

	if size := os.Getenv("SEND_BUFFER_SIZE"); size != "" {
		if val, err := strconv.Atoi(size); err == nil && val > 0 {
			cfg.SendBufferSize = val
		}
	}

	return cfg
}

// IsOriginAllowed checks if the origin is in the allowed list
func (c *Config) IsOriginAllowed(origin string) bool {
	// Empty origin is allowed (non-browser clients)
	if origin == "" {
		return true
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

// NewLogger builds the process logger for the given level.
// "silent" and "off" discard everything.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "silent", "off":
		return slog.New(slog.DiscardHandler)
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// parseOrigins parses comma-separated origins
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Global configuration instance
var AppConfig = LoadFromEnv()
