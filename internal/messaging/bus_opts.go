package messaging

import "time"

type BusOpt func(*Bus)

// WithStartTimeout bounds how long Start waits for the server to accept
// connections.
func WithStartTimeout(d time.Duration) BusOpt {
	return func(b *Bus) {
		b.startTimeout = d
	}
}

func WithHost(host string) BusOpt {
	return func(b *Bus) {
		b.host = host
	}
}

func WithPort(port int) BusOpt {
	return func(b *Bus) {
		b.port = port
	}
}

// WithInProcessOnly disables the TCP listener; only the embedded client
// connection can reach the server.
func WithInProcessOnly() BusOpt {
	return func(b *Bus) {
		b.inProcessOnly = true
	}
}
