package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TimerSyncInterval string            `json:"timer_sync_interval"`
	CleanupInterval   string            `json:"cleanup_interval"`
	Storage           StorageConfig     `json:"storage"`
	Persistence       PersistenceConfig `json:"persistence"`
	Bus               BusConfig         `json:"bus"`
	HTTP              HTTPConfig        `json:"http"`
	Engine            EngineConfig      `json:"engine"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	el.Add(validateInterval("timer_sync_interval", c.TimerSyncInterval, 100*time.Millisecond))
	el.Add(validateInterval("cleanup_interval", c.CleanupInterval, time.Minute))
	el.Add(c.Storage.validate())
	el.Add(c.Persistence.validate())
	el.Add(c.Bus.validate())
	el.Add(c.HTTP.validate())
	el.Add(c.Engine.validate())

	return el.Err()
}

// validateInterval accepts an empty value, which selects the default.
func validateInterval(name, value string, least time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	if d < least {
		return fmt.Errorf("%s must be at least %s", name, least)
	}
	return nil
}

// durationOr parses value, falling back to def when it is empty or invalid.
// Values are checked by Validate before they get here.
func durationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}
