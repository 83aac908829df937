package storage

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pixil98/go-testutil"
)

type fakeSpec struct {
	Name string `json:"name"`
}

func (s *fakeSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func TestDefinition_Validate(t *testing.T) {
	tests := map[string]struct {
		def    Definition[*fakeSpec]
		expErr string
	}{
		"valid": {
			def: Definition[*fakeSpec]{Version: 1, ID: "kitchen", Spec: &fakeSpec{Name: "Kitchen"}},
		},
		"missing version": {
			def:    Definition[*fakeSpec]{ID: "kitchen", Spec: &fakeSpec{Name: "Kitchen"}},
			expErr: "version must be set",
		},
		"future version": {
			def:    Definition[*fakeSpec]{Version: 2, ID: "kitchen", Spec: &fakeSpec{Name: "Kitchen"}},
			expErr: "newer than supported version 1",
		},
		"missing id": {
			def:    Definition[*fakeSpec]{Version: 1, Spec: &fakeSpec{Name: "Kitchen"}},
			expErr: `id "" must be non-empty`,
		},
		"bad id": {
			def:    Definition[*fakeSpec]{Version: 1, ID: "back yard", Spec: &fakeSpec{Name: "Yard"}},
			expErr: `id "back yard" must be non-empty`,
		},
		"missing spec": {
			def:    Definition[*fakeSpec]{Version: 1, ID: "kitchen"},
			expErr: "spec must be set",
		},
		"invalid spec": {
			def:    Definition[*fakeSpec]{Version: 1, ID: "kitchen", Spec: &fakeSpec{}},
			expErr: "name is required",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.expErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestRef_Resolve(t *testing.T) {
	store := NewMemoryStore(map[string]*fakeSpec{"rats": {Name: "Rats"}})

	tests := map[string]struct {
		id      string
		expName string
		expErr  string
	}{
		"found": {
			id:      "rats",
			expName: "Rats",
		},
		"missing": {
			id:     "ghosts",
			expErr: `fakespec "ghosts" not found`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ref := NewRef[*fakeSpec](tt.id)
			err := ref.Resolve(store)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				testutil.AssertEqual(t, "unbound", ref.Get() == nil, true)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "id", ref.ID(), tt.id)
			testutil.AssertEqual(t, "name", ref.Get().Name, tt.expName)
		})
	}
}

func TestRef_JSON(t *testing.T) {
	var refs []Ref[*fakeSpec]
	if err := json.Unmarshal([]byte(`["rats","cellar"]`), &refs); err != nil {
		t.Fatalf("unmarshalling: %v", err)
	}
	testutil.AssertEqual(t, "count", len(refs), 2)
	testutil.AssertEqual(t, "second", refs[1].ID(), "cellar")

	out, err := json.Marshal(refs)
	if err != nil {
		t.Fatalf("marshalling: %v", err)
	}
	testutil.AssertEqual(t, "json", string(out), `["rats","cellar"]`)
}

func TestRef_Validate(t *testing.T) {
	testutil.AssertErrorContains(t, NewRef[*fakeSpec]("").Validate(), `invalid fakespec reference ""`)
	if err := NewRef[*fakeSpec]("rats").Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidIdentifier(t *testing.T) {
	tests := map[string]struct {
		id  string
		exp bool
	}{
		"simple":     {id: "kitchen", exp: true},
		"dashes":     {id: "canned-food", exp: true},
		"digits":     {id: "zone-2", exp: true},
		"empty":      {id: "", exp: false},
		"space":      {id: "back yard", exp: false},
		"underscore": {id: "back_yard", exp: false},
		"traversal":  {id: "../etc", exp: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "valid", ValidIdentifier(tt.id), tt.exp)
		})
	}
}
