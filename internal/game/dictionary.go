package game

import (
	"fmt"

	"github.com/pixil98/go-bunker/internal/storage"
)

// Dictionary holds all game definition stores. It provides a single
// reference that can be passed to resolution methods so they all
// share the same signature.
type Dictionary struct {
	Zones  storage.Reader[*Zone]
	Events storage.Reader[*Event]
	Items  storage.Reader[*Item]
}

// Resolve resolves all foreign key references between definitions.
func (d *Dictionary) Resolve() error {
	for id, ev := range d.Events.GetAll() {
		if err := ev.resolve(d); err != nil {
			return fmt.Errorf("event %s: %w", id, err)
		}
	}

	for id, z := range d.Zones.GetAll() {
		if err := z.Resolve(d); err != nil {
			return fmt.Errorf("zone %s: %w", id, err)
		}
	}
	return nil
}

// BaseZone returns the id of the bunker zone, or "" if none is defined.
func (d *Dictionary) BaseZone() string {
	for id, z := range d.Zones.GetAll() {
		if z.IsBase {
			return id
		}
	}
	return ""
}
