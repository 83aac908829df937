package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const drainTimeout = 2 * time.Second

var ErrBusNotReady = errors.New("message bus not ready")

// Bus is the session fan-out bus: an embedded NATS server plus this
// process's own connection to it. It is usable once Start has connected.
type Bus struct {
	srv  *server.Server
	conn *nats.Conn

	ready chan struct{}

	startTimeout  time.Duration
	host          string
	port          int
	inProcessOnly bool
}

func NewBus(opts ...BusOpt) (*Bus, error) {
	b := &Bus{
		ready:        make(chan struct{}),
		startTimeout: 10 * time.Second,
		host:         "127.0.0.1",
	}
	for _, opt := range opts {
		opt(b)
	}

	srv, err := server.NewServer(&server.Options{
		ServerName: "bunker",
		Host:       b.host,
		Port:       b.port,
		DontListen: b.inProcessOnly,
		NoSigs:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	b.srv = srv

	return b, nil
}

// Start runs the server until ctx is done, then drains the connection so
// queued session updates still reach subscribers.
func (b *Bus) Start(ctx context.Context) error {
	b.srv.Start()
	defer func() {
		b.srv.Shutdown()
		b.srv.WaitForShutdown()
	}()

	if !b.srv.ReadyForConnections(b.startTimeout) {
		return fmt.Errorf("nats server not ready after %s", b.startTimeout)
	}

	closed := make(chan struct{})
	conn, err := nats.Connect(b.srv.ClientURL(),
		nats.InProcessServer(b.srv),
		nats.Name("bunker-fanout"),
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
	)
	if err != nil {
		return fmt.Errorf("connecting to nats: %w", err)
	}
	b.conn = conn
	close(b.ready)

	if b.inProcessOnly {
		slog.InfoContext(ctx, "message bus running in process")
	} else {
		slog.InfoContext(ctx, "message bus listening", "addr", b.srv.Addr())
	}

	<-ctx.Done()
	if err := b.conn.Drain(); err != nil {
		slog.Warn("draining message bus", "error", err)
		b.conn.Close()
	}
	select {
	case <-closed:
	case <-time.After(drainTimeout):
		b.conn.Close()
	}
	return nil
}

// Close releases a bus whose Start was never called.
func (b *Bus) Close() {
	b.srv.Shutdown()
}

// WaitReady blocks until the bus is usable or ctx is done.
func (b *Bus) WaitReady(ctx context.Context) error {
	select {
	case <-b.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) isReady() bool {
	select {
	case <-b.ready:
		return true
	default:
		return false
	}
}

// Subscribe calls handler with every message published on subject until the
// returned function is called.
func (b *Bus) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	if !b.isReady() {
		return nil, ErrBusNotReady
	}
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			slog.Debug("unsubscribing", "subject", subject, "error", err)
		}
	}, nil
}

func (b *Bus) Publish(subject string, data []byte) error {
	if !b.isReady() {
		return ErrBusNotReady
	}
	return b.conn.Publish(subject, data)
}

// Flush waits until the server has seen everything published so far.
func (b *Bus) Flush() error {
	if !b.isReady() {
		return ErrBusNotReady
	}
	return b.conn.Flush()
}
