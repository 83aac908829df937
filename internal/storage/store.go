package storage

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/pixil98/go-errors"
	"gopkg.in/yaml.v3"
)

type decodeFunc func([]byte, any) error

var decoders = map[string]decodeFunc{
	".json": json.Unmarshal,
	".yaml": decodeYAML,
	".yml":  decodeYAML,
}

// FileStore holds every definition found under a directory tree. Files with
// an extension other than .json, .yaml or .yml are ignored. The contents are
// read once and never change afterwards.
type FileStore[T ValidatingSpec] struct {
	path    string
	records map[string]T
}

// NewFileStore loads the tree at path. Every broken file is reported, not
// just the first.
func NewFileStore[T ValidatingSpec](path string) (*FileStore[T], error) {
	s := &FileStore[T]{
		path:    path,
		records: map[string]T{},
	}

	origin := map[string]string{}
	el := errors.NewErrorList()

	err := filepath.WalkDir(path, func(file string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		decode, ok := decoders[strings.ToLower(filepath.Ext(file))]
		if !ok {
			return nil
		}

		def, err := readDefinition[T](file, decode)
		if err != nil {
			el.Add(fmt.Errorf("%s: %w", filepath.Base(file), err))
			return nil
		}
		if prev, dup := origin[def.ID]; dup {
			el.Add(fmt.Errorf("%s: id %q already defined in %s", filepath.Base(file), def.ID, filepath.Base(prev)))
			return nil
		}

		origin[def.ID] = file
		s.records[def.ID] = def.Spec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	if err := el.Err(); err != nil {
		return nil, err
	}

	slog.Debug("definitions loaded", "path", path, "count", len(s.records))
	return s, nil
}

func (s *FileStore[T]) Get(id string) T {
	return s.records[id]
}

func (s *FileStore[T]) GetAll() map[string]T {
	return maps.Clone(s.records)
}

func readDefinition[T ValidatingSpec](file string, decode decodeFunc) (*Definition[T], error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}

	def := &Definition[T]{}
	if err := decode(data, def); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("validating: %w", err)
	}
	return def, nil
}

// decodeYAML converts the document to JSON first so definition types only
// need json struct tags.
func decodeYAML(data []byte, out any) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting yaml: %w", err)
	}

	return json.Unmarshal(jsonData, out)
}
