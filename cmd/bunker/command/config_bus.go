package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-bunker/internal/messaging"
	"github.com/pixil98/go-errors"
)

// BusConfig configures the embedded NATS server that fans session updates
// out to stream subscribers.
type BusConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	StartTimeout  string `json:"start_timeout"`
	InProcessOnly bool   `json:"in_process_only"`
}

func (c *BusConfig) validate() error {
	el := errors.NewErrorList()
	el.Add(validateInterval("bus.start_timeout", c.StartTimeout, time.Millisecond))
	if c.Port < 0 || c.Port > 65535 {
		el.Add(fmt.Errorf("bus.port must be within 0..65535"))
	}
	return el.Err()
}

func (c *BusConfig) buildBus() (*messaging.Bus, error) {
	opts := []messaging.BusOpt{
		messaging.WithStartTimeout(durationOr(c.StartTimeout, 10*time.Second)),
	}
	if c.Host != "" {
		opts = append(opts, messaging.WithHost(c.Host))
	}
	if c.Port != 0 {
		opts = append(opts, messaging.WithPort(c.Port))
	}
	if c.InProcessOnly {
		opts = append(opts, messaging.WithInProcessOnly())
	}
	return messaging.NewBus(opts...)
}
