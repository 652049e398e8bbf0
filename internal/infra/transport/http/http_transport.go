package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mkrupp/blobrelay/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
type HTTPTransportConfig struct {
	// ServerAddr is the network address to listen on.
	ServerAddr string `env:"SERVER_ADDR" default:":8080"`

	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" default:"15s"`
	// WriteTimeout bounds the whole handler, including the outbound call to
	// the blob store, so it has to stay above the relay's call timeout.
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" default:"30s"`
	// ShutdownTimeout is how long in-flight requests get once ctx is cancelled.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"5s"`

	CORS CORSConfig `envPrefix:"CORS_"`
}

// HTTPTransport defines the interface for HTTP handlers that can serve requests.
type HTTPTransport interface {
	http.Handler
}

// NewHandler wraps the transport with the standard middleware chain:
// tracing, logging, panic recovery and CORS, outermost first.
func NewHandler(handler HTTPTransport, cfg HTTPTransportConfig, log logging.Logger) http.Handler {
	var h http.Handler = handler

	h = CORSMiddleware(h, cfg.CORS)
	h = RescueingMiddleware(h, log)
	h = LoggingMiddleware(h, log)
	h = TracingMiddleware(h)

	return h
}

// ListenAndServe listens on cfg.ServerAddr and serves handler until the
// server fails or ctx is cancelled.
func ListenAndServe(ctx context.Context, handler HTTPTransport, cfg HTTPTransportConfig) error {
	sock, err := net.Listen("tcp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return Serve(ctx, sock, handler, cfg)
}

// Serve serves handler on an existing listener. When ctx is cancelled the
// server is shut down gracefully and Serve returns nil.
func Serve(ctx context.Context, sock net.Listener, handler HTTPTransport, cfg HTTPTransportConfig) error {
	log := logging.GetLogger("infra.transport.http")

	//nolint:exhaustruct
	server := &http.Server{
		Handler:           NewHandler(handler, cfg, log),
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Serve(sock)
	}()

	log.InfoContext(ctx, "listening", "addr", sock.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		log.InfoContext(ctx, "shutting down", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()

			return fmt.Errorf("shutdown: %w", err)
		}

		return nil
	}
}
