// Command server runs the Quill blog.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quill/internal/bootstrap"
	"quill/internal/config"
	"quill/internal/middleware"
	"quill/internal/observability"
	"quill/internal/server"
)

const shutdownTimeout = 10 * time.Second

type lifecycle interface {
	Start() error
	Shutdown(ctx context.Context) error
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "quill",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, rdb, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv, err := server.NewServerWithDeps(cfg, db, rdb)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, srv, shutdownTracing); err != nil {
		middleware.Logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

// serve runs srv until ctx is cancelled or the listener fails, then stops the server
// and flushes the tracer. It returns only after both have finished.
func serve(ctx context.Context, srv lifecycle, shutdownTracing func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	var (
		listenErr error
		stopped   bool
	)
	select {
	case <-ctx.Done():
		middleware.Logger.Info("Shutting down server...")
	case listenErr = <-errCh:
		stopped = true
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		middleware.Logger.Error("Server shutdown error", "error", err)
	}
	if !stopped {
		// Listen returns once the HTTP server has stopped.
		select {
		case listenErr = <-errCh:
		case <-shutdownCtx.Done():
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		middleware.Logger.Error("Tracing shutdown error", "error", err)
	}
	return listenErr
}
