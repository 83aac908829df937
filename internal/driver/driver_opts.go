package driver

import "time"

type DriverOpt func(*Driver)

func WithTickLength(tickLength time.Duration) DriverOpt {
	return func(d *Driver) {
		d.tickLength = tickLength
	}
}

// WithTickTimeout bounds how long one tick may run.
func WithTickTimeout(timeout time.Duration) DriverOpt {
	return func(d *Driver) {
		d.tickTimeout = timeout
	}
}

// WithImmediateTick makes Start tick once before waiting for the first
// interval.
func WithImmediateTick() DriverOpt {
	return func(d *Driver) {
		d.immediate = true
	}
}
