package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmuslimabdulj/code-relay/internal/config"
	httpHandler "github.com/mmuslimabdulj/code-relay/internal/delivery/http"
	"github.com/mmuslimabdulj/code-relay/internal/delivery/ws"
	"github.com/mmuslimabdulj/code-relay/internal/domain"
	"github.com/mmuslimabdulj/code-relay/internal/middleware"
	"github.com/mmuslimabdulj/code-relay/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	// Reload config after loading .env
	config.AppConfig = config.LoadFromEnv()
	cfg := config.AppConfig
	log := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies
	directory := usecase.NewSessionDirectory()
	hub := ws.NewHub(directory, log)
	go hub.Run(ctx)

	wsLimiter := middleware.NewIPRateLimiter(cfg.RateLimitWS, cfg.RateBurstWS)
	go wsLimiter.Run(ctx)

	handler := httpHandler.NewHandler(hub, cfg, log)

	// WriteTimeout is left unset: upgraded connections are hijacked
	// and manage their own deadlines
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Routes(wsLimiter),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), domain.ShutdownGracePeriod)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-hub.Done()

	stats := directory.Stats()
	log.Info("server exited gracefully", "dropped_participants", stats.Participants, "dropped_rooms", stats.Rooms)
	return nil
}
