package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-bunker/internal/persistence"
	"github.com/pixil98/go-errors"
)

type PersistenceDriver int

const (
	PersistenceSQLite PersistenceDriver = iota
	PersistenceMemory
)

func (pd *PersistenceDriver) UnmarshalText(text []byte) error {
	switch string(text) {
	case "sqlite", "":
		*pd = PersistenceSQLite
	case "memory":
		*pd = PersistenceMemory
	default:
		return fmt.Errorf("unknown persistence driver: %s", text)
	}
	return nil
}

type PersistenceConfig struct {
	Driver        PersistenceDriver `json:"driver"`
	Path          string            `json:"path"`
	FlushInterval string            `json:"flush_interval"`
}

func (c *PersistenceConfig) validate() error {
	el := errors.NewErrorList()

	if c.Driver == PersistenceSQLite && c.Path == "" {
		el.Add(fmt.Errorf("persistence: path is required for sqlite"))
	}
	el.Add(validateInterval("persistence.flush_interval", c.FlushInterval, 10*time.Millisecond))

	return el.Err()
}

func (c *PersistenceConfig) flushInterval() time.Duration {
	return durationOr(c.FlushInterval, time.Second)
}

// BuildRepository opens the configured session table. The returned close
// function releases it.
func (c *PersistenceConfig) BuildRepository() (persistence.Repository, func() error, error) {
	switch c.Driver {
	case PersistenceMemory:
		return persistence.NewMemoryRepository(), func() error { return nil }, nil
	case PersistenceSQLite:
		db, err := persistence.OpenSQLite(c.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite %q: %w", c.Path, err)
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown persistence driver: %v", c.Driver)
	}
}
