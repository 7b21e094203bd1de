package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const readHeaderTimeout = 5 * time.Second

// Run serves the dashboard until ctx is cancelled, then shuts the server
// down gracefully.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	server, err := NewServer(config.Settings, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              config.Settings.Server.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			slog.String("addr", httpServer.Addr),
			slog.Group("charts",
				slog.String("format", string(server.processor.Format())),
				slog.String("delivery", string(server.delivery)),
			),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Settings.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
