package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/storage"
	"github.com/pixil98/go-errors"
)

// StorageConfig points at the definition directories. Each directory is
// walked recursively for .json, .yaml and .yml files.
type StorageConfig struct {
	Zones  DefinitionDir[*game.Zone]  `json:"zones"`
	Events DefinitionDir[*game.Event] `json:"events"`
	Items  DefinitionDir[*game.Item]  `json:"items"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()
	el.Add(c.Zones.validate("zones"))
	el.Add(c.Events.validate("events"))
	el.Add(c.Items.validate("items"))
	return el.Err()
}

// BuildDictionary loads every definition and binds the cross references.
func (c *StorageConfig) BuildDictionary() (*game.Dictionary, error) {
	el := errors.NewErrorList()
	zones, err := c.Zones.load()
	el.Add(wrapLoad("zones", err))
	events, err := c.Events.load()
	el.Add(wrapLoad("events", err))
	items, err := c.Items.load()
	el.Add(wrapLoad("items", err))
	if err := el.Err(); err != nil {
		return nil, err
	}

	dict := &game.Dictionary{Zones: zones, Events: events, Items: items}
	if err := dict.Resolve(); err != nil {
		return nil, fmt.Errorf("resolving references: %w", err)
	}
	if dict.BaseZone() == "" {
		return nil, fmt.Errorf("no zone is marked as the base")
	}
	return dict, nil
}

func wrapLoad(kind string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("loading %s: %w", kind, err)
}

type DefinitionDir[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (d *DefinitionDir[T]) validate(name string) error {
	if d.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	info, err := os.Stat(d.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, d.Path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %q is not a directory", name, d.Path)
	}
	return nil
}

func (d *DefinitionDir[T]) load() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](d.Path)
}
