package game

import (
	"testing"
	"time"

	"github.com/pixil98/go-bunker/internal/storage"
	"github.com/pixil98/go-testutil"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestZone_Validate(t *testing.T) {
	tests := map[string]struct {
		zone   *Zone
		expErr string
	}{
		"valid": {
			zone: &Zone{Name: "Kitchen", Actions: map[string]*ZoneAction{
				"scavenge": {ChargesPerDay: 3, Duration: "30m"},
			}},
		},
		"missing name": {
			zone:   &Zone{},
			expErr: "zone name is required",
		},
		"bad action id": {
			zone:   &Zone{Name: "Kitchen", Actions: map[string]*ZoneAction{"bad id": {ChargesPerDay: 1}}},
			expErr: "invalid action id",
		},
		"no charges": {
			zone:   &Zone{Name: "Kitchen", Actions: map[string]*ZoneAction{"scavenge": {}}},
			expErr: "charges_per_day must be positive",
		},
		"bad duration": {
			zone:   &Zone{Name: "Kitchen", Actions: map[string]*ZoneAction{"scavenge": {ChargesPerDay: 1, Duration: "soon"}}},
			expErr: "invalid duration",
		},
		"empty event ref": {
			zone:   &Zone{Name: "Kitchen", Events: []storage.Ref[*Event]{storage.NewRef[*Event]("")}},
			expErr: "invalid event reference",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.zone.Validate()
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestEvent_Validate(t *testing.T) {
	half := 0.5
	tooLikely := 1.5

	tests := map[string]struct {
		event  *Event
		expErr string
	}{
		"valid": {
			event: &Event{Title: "Rats", Weight: 1, Options: []Option{{ID: "flee", SuccessChance: &half}}},
		},
		"missing title": {
			event:  &Event{Weight: 1},
			expErr: "event title is required",
		},
		"duplicate option": {
			event:  &Event{Title: "Rats", Options: []Option{{ID: "a"}, {ID: "a"}}},
			expErr: "duplicate option id",
		},
		"bad chance": {
			event:  &Event{Title: "Rats", Options: []Option{{ID: "a", SuccessChance: &tooLikely}}},
			expErr: "success_chance",
		},
		"bad template": {
			event:  &Event{Title: "Rats", Options: []Option{{ID: "a", LogTemplate: "{{ .Player"}}},
			expErr: "log_template",
		},
		"bad role": {
			event:  &Event{Title: "Rats", Options: []Option{{ID: "a", RequiredRole: "pilot"}}},
			expErr: "invalid required_role",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertErrorContains(t, tt.event.Validate(), tt.expErr)
		})
	}
}

func TestItem_Validate(t *testing.T) {
	tests := map[string]struct {
		item   *Item
		expErr string
	}{
		"valid":              {item: &Item{Name: "Canned food", Price: 4, BaseResource: ResourceFood, BaseAmount: 2}},
		"no conversion":      {item: &Item{Name: "Scrap", Price: 1}},
		"missing name":       {item: &Item{}, expErr: "item name is required"},
		"unknown resource":   {item: &Item{Name: "x", BaseResource: "gold", BaseAmount: 1}, expErr: "invalid base_resource"},
		"conversion no size": {item: &Item{Name: "x", BaseResource: ResourceFuel}, expErr: "base_amount must be positive"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertErrorContains(t, tt.item.Validate(), tt.expErr)
		})
	}
}

func TestDictionary_Resolve(t *testing.T) {
	events := map[string]*Event{
		"rats": {Title: "Rats", Options: []Option{{ID: "search", Effect: &Effect{GrantItems: []ItemStack{{TemplateID: "scrap", Quantity: 1}}}}}},
	}
	items := map[string]*Item{"scrap": {Name: "Scrap"}}

	tests := map[string]struct {
		zones  map[string]*Zone
		items  map[string]*Item
		expErr string
	}{
		"resolves": {
			zones: map[string]*Zone{"kitchen": {Name: "Kitchen", Events: []storage.Ref[*Event]{storage.NewRef[*Event]("rats")}}},
			items: items,
		},
		"missing event": {
			zones:  map[string]*Zone{"kitchen": {Name: "Kitchen", Events: []storage.Ref[*Event]{storage.NewRef[*Event]("ghosts")}}},
			items:  items,
			expErr: `"ghosts" not found`,
		},
		"missing item": {
			zones:  map[string]*Zone{},
			items:  map[string]*Item{},
			expErr: `item "scrap" not found`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d := &Dictionary{
				Zones:  storage.NewMemoryStore(tt.zones),
				Events: storage.NewMemoryStore(events),
				Items:  storage.NewMemoryStore(tt.items),
			}
			testutil.AssertErrorContains(t, d.Resolve(), tt.expErr)
		})
	}
}

func TestDictionary_BaseZone(t *testing.T) {
	d := &Dictionary{
		Zones: storage.NewMemoryStore(map[string]*Zone{
			"bunker":  {Name: "Bunker", IsBase: true},
			"kitchen": {Name: "Kitchen"},
		}),
	}
	testutil.AssertEqual(t, "base", d.BaseZone(), "bunker")
}

func TestZoneAction_DurationMs(t *testing.T) {
	testutil.AssertEqual(t, "30m", (&ZoneAction{Duration: "30m"}).DurationMs(), int64(30*60*1000))
	testutil.AssertEqual(t, "empty", (&ZoneAction{}).DurationMs(), int64(0))
}
