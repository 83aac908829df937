// Package storage loads the static game definitions (zones, events, items)
// from asset files and resolves the references between them.
package storage

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/pixil98/go-errors"
)

// SupportedVersion is the newest definition file format this build reads.
const SupportedVersion = 1

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// ValidIdentifier reports whether s is a well formed, non-empty asset id.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

type ValidatingSpec interface {
	Validate() error
}

// Reader is read access to one kind of definition, keyed by id.
type Reader[T ValidatingSpec] interface {
	Get(id string) T
	GetAll() map[string]T
}

// Definition is the on-disk envelope of a single asset file.
type Definition[T ValidatingSpec] struct {
	Version uint   `json:"version"`
	ID      string `json:"id"`
	Spec    T      `json:"spec"`
}

func (d *Definition[T]) Validate() error {
	el := errors.NewErrorList()

	switch {
	case d.Version == 0:
		el.Add(fmt.Errorf("version must be set"))
	case d.Version > SupportedVersion:
		el.Add(fmt.Errorf("version %d is newer than supported version %d", d.Version, SupportedVersion))
	}

	if !ValidIdentifier(d.ID) {
		el.Add(fmt.Errorf("id %q must be non-empty and contain only letters, digits and dashes", d.ID))
	}

	if isNil(d.Spec) {
		el.Add(fmt.Errorf("spec must be set"))
	} else {
		el.Add(d.Spec.Validate())
	}

	return el.Err()
}

// Ref points at another definition by id. It is serialized as the bare id
// and bound to the definition itself by Resolve.
type Ref[T ValidatingSpec] struct {
	id  string
	val T
}

func NewRef[T ValidatingSpec](id string) Ref[T] {
	return Ref[T]{id: id}
}

func (r *Ref[T]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &r.id)
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.id)
}

func (r Ref[T]) Validate() error {
	if !ValidIdentifier(r.id) {
		return fmt.Errorf("invalid %s reference %q", kindName[T](), r.id)
	}
	return nil
}

// Resolve looks the id up in rd.
func (r *Ref[T]) Resolve(rd Reader[T]) error {
	v := rd.Get(r.id)
	if isNil(v) {
		return fmt.Errorf("%s %q not found", kindName[T](), r.id)
	}
	r.val = v
	return nil
}

func (r Ref[T]) ID() string {
	return r.id
}

// Get returns the bound definition, or the zero value before Resolve.
func (r Ref[T]) Get() T {
	return r.val
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// kindName is the lower-cased type name of the definition T points to.
func kindName[T any]() string {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return strings.ToLower(t.Name())
}
