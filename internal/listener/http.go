package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"
)

const shutdownTimeout = 5 * time.Second

// HTTPListener serves the API until its context is cancelled.
type HTTPListener struct {
	addr    string
	handler http.Handler
}

func NewHTTPListener(addr string, handler http.Handler) *HTTPListener {
	return &HTTPListener{
		addr:    addr,
		handler: handler,
	}
}

func (l *HTTPListener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("address %s is already in use (another server running?)", l.addr)
		}
		return fmt.Errorf("listening on %s: %w", l.addr, err)
	}

	svr := &http.Server{
		Handler:           l.handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Streams end with the listener's context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// done signals that Start is returning (either success or failure)
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := svr.Shutdown(shutdownCtx); err != nil {
				slog.Warn("shutting down http server", "error", err)
			}
		case <-done:
		}
	}()

	slog.InfoContext(ctx, "listening for http", "addr", ln.Addr().String())

	err = svr.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http on %s: %w", l.addr, err)
	}
	return nil
}
