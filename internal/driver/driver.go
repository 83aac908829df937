// Package driver runs periodic engine work on a fixed interval.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/go-errors"
)

const DefaultTickLength = time.Second

// Manager is periodic work run by a Driver.
type Manager interface {
	Tick(context.Context) error
}

// Driver ticks its managers until the context is done. A tick error ends
// Start and with it the worker list the driver belongs to.
type Driver struct {
	name        string
	tickLength  time.Duration
	tickTimeout time.Duration
	immediate   bool
	managers    []Manager
}

func NewDriver(name string, managers []Manager, opts ...DriverOpt) *Driver {
	d := &Driver{
		name:       name,
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "driver started", "driver", d.name, "interval", d.tickLength.String())

	if d.immediate {
		if err := d.Tick(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "driver stopped", "driver", d.name)
			return nil
		case <-ticker.C:
			if err := d.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

// Tick runs every manager once, even when an earlier one fails.
func (d *Driver) Tick(ctx context.Context) error {
	if d.tickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.tickTimeout)
		defer cancel()
	}

	el := errors.NewErrorList()
	for _, m := range d.managers {
		el.Add(m.Tick(ctx))
	}
	if err := el.Err(); err != nil {
		return fmt.Errorf("%s tick: %w", d.name, err)
	}
	return nil
}
