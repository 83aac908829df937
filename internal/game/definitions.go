package game

import (
	"fmt"
	"time"

	"github.com/pixil98/go-bunker/internal/storage"
	"github.com/pixil98/go-errors"
)

// Zone is a location-addressable area of the world loaded from asset files.
type Zone struct {
	Name        string `json:"name"`
	ThreatLevel string `json:"threat_level"`
	LootQuality string `json:"loot_quality"`
	// IsBase marks the bunker, where inventories convert into base resources.
	IsBase  bool                   `json:"is_base"`
	Actions map[string]*ZoneAction `json:"actions"`
	Events  []storage.Ref[*Event]  `json:"events"`
}

// Validate satisfies storage.ValidatingSpec.
func (z *Zone) Validate() error {
	el := errors.NewErrorList()

	if z.Name == "" {
		el.Add(fmt.Errorf("zone name is required"))
	}

	for id, a := range z.Actions {
		if !storage.ValidIdentifier(id) {
			el.Add(fmt.Errorf("invalid action id %q", id))
			continue
		}
		if a == nil {
			el.Add(fmt.Errorf("action %q: definition is required", id))
			continue
		}
		if err := a.Validate(); err != nil {
			el.Add(fmt.Errorf("action %q: %w", id, err))
		}
	}

	for _, ev := range z.Events {
		el.Add(ev.Validate())
	}

	return el.Err()
}

// Resolve binds the zone's event pool to loaded event definitions.
func (z *Zone) Resolve(dict *Dictionary) error {
	for i := range z.Events {
		if err := z.Events[i].Resolve(dict.Events); err != nil {
			return err
		}
	}
	for id, a := range z.Actions {
		if err := a.Loot.Resolve(dict); err != nil {
			return fmt.Errorf("action %q loot: %w", id, err)
		}
	}
	return nil
}

// ZoneAction is a timed, exclusive activity bound to a zone.
type ZoneAction struct {
	Name          string `json:"name"`
	ChargesPerDay int    `json:"charges_per_day"`
	// Duration is the lore-time base duration, e.g. "45m".
	Duration   string  `json:"duration"`
	Difficulty int     `json:"difficulty"`
	Loot       *Effect `json:"loot"`
}

func (a *ZoneAction) Validate() error {
	el := errors.NewErrorList()

	if a.ChargesPerDay <= 0 {
		el.Add(fmt.Errorf("charges_per_day must be positive"))
	}
	if a.Difficulty < 0 {
		el.Add(fmt.Errorf("difficulty must not be negative"))
	}
	if a.Duration != "" {
		d, err := time.ParseDuration(a.Duration)
		if err != nil {
			el.Add(fmt.Errorf("invalid duration %q: %w", a.Duration, err))
		} else if d < 0 {
			el.Add(fmt.Errorf("duration must not be negative"))
		}
	}
	if a.Loot != nil {
		el.Add(a.Loot.Validate())
	}

	return el.Err()
}

// DurationMs returns the base duration in lore milliseconds.
func (a *ZoneAction) DurationMs() int64 {
	d, err := time.ParseDuration(a.Duration)
	if err != nil {
		return 0
	}
	return d.Milliseconds()
}

// Event is a narrative encounter rolled when a player enters a zone.
type Event struct {
	Title     string     `json:"title"`
	Text      string     `json:"text"`
	Weight    int        `json:"weight"`
	Condition *Condition `json:"condition,omitempty"`
	Options   []Option   `json:"options"`
}

// Validate satisfies storage.ValidatingSpec.
func (e *Event) Validate() error {
	el := errors.NewErrorList()

	if e.Title == "" {
		el.Add(fmt.Errorf("event title is required"))
	}
	if e.Weight < 0 {
		el.Add(fmt.Errorf("event weight must not be negative"))
	}

	seen := map[string]bool{}
	for i, o := range e.Options {
		if o.ID == "" {
			el.Add(fmt.Errorf("option %d: id is required", i))
			continue
		}
		if seen[o.ID] {
			el.Add(fmt.Errorf("duplicate option id %q", o.ID))
		}
		seen[o.ID] = true
		if err := o.Validate(); err != nil {
			el.Add(fmt.Errorf("option %q: %w", o.ID, err))
		}
	}

	return el.Err()
}

func (e *Event) resolve(dict *Dictionary) error {
	for _, o := range e.Options {
		if o.RequiredItem != "" && dict.Items.Get(o.RequiredItem) == nil {
			return fmt.Errorf("option %q: item %q not found", o.ID, o.RequiredItem)
		}
		if err := o.Effect.Resolve(dict); err != nil {
			return fmt.Errorf("option %q effect: %w", o.ID, err)
		}
		if err := o.FailureEffect.Resolve(dict); err != nil {
			return fmt.Errorf("option %q failure effect: %w", o.ID, err)
		}
	}
	return nil
}

// Option finds an option by id.
func (e *Event) Option(id string) (*Option, bool) {
	for i := range e.Options {
		if e.Options[i].ID == id {
			return &e.Options[i], true
		}
	}
	return nil, false
}

// Condition filters an event out of a zone's pool.
type Condition struct {
	RequiredFlags []string    `json:"required_flags,omitempty"`
	ExcludedFlags []string    `json:"excluded_flags,omitempty"`
	MinCrisis     CrisisLevel `json:"min_crisis,omitempty"`
	// MaxVisits caps the zone visit count, including the current visit,
	// for which the event may fire. Zero means no cap.
	MaxVisits int `json:"max_visits,omitempty"`
}

// Allows reports whether the condition holds for a visit to zoneID.
func (c *Condition) Allows(s *SessionState, zoneID string) bool {
	if c == nil {
		return true
	}
	for _, f := range c.RequiredFlags {
		if !s.Flags[f] {
			return false
		}
	}
	for _, f := range c.ExcludedFlags {
		if s.Flags[f] {
			return false
		}
	}
	if s.CrisisLevel.Rank() < c.MinCrisis.Rank() {
		return false
	}
	if c.MaxVisits > 0 && s.ZoneVisits[zoneID] > c.MaxVisits {
		return false
	}
	return true
}

// Option is one choice offered by an event.
type Option struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	RequiredRole Role      `json:"required_role,omitempty"`
	RequiredItem string    `json:"required_item,omitempty"`
	Cost         Resources `json:"cost"`
	Effect       *Effect   `json:"effect,omitempty"`
	// SuccessChance in [0,1]. When nil the primary effect always applies.
	SuccessChance *float64 `json:"success_chance,omitempty"`
	FailureEffect *Effect  `json:"failure_effect,omitempty"`
	// LogTemplate is a text/template rendered into the session log.
	LogTemplate string `json:"log_template,omitempty"`
}

func (o *Option) Validate() error {
	el := errors.NewErrorList()

	if o.RequiredRole != "" && !o.RequiredRole.Valid() {
		el.Add(fmt.Errorf("invalid required_role %q", o.RequiredRole))
	}
	if o.SuccessChance != nil && (*o.SuccessChance < 0 || *o.SuccessChance > 1) {
		el.Add(fmt.Errorf("success_chance must be within [0,1]"))
	}
	if o.Effect != nil {
		el.Add(o.Effect.Validate())
	}
	if o.FailureEffect != nil {
		el.Add(o.FailureEffect.Validate())
	}
	if o.LogTemplate != "" {
		if _, err := parseTemplate(o.LogTemplate); err != nil {
			el.Add(fmt.Errorf("log_template: %w", err))
		}
	}

	return el.Err()
}

// Effect is a bundle of state changes applied by options, actions and battles.
type Effect struct {
	Resources        Resources   `json:"resources"`
	GrantItems       []ItemStack `json:"grant_items,omitempty"`
	WoundPlayer      bool        `json:"wound_player,omitempty"`
	RecruitNpc       *NPC        `json:"recruit_npc,omitempty"`
	BattleScenarioID string      `json:"battle_scenario_id,omitempty"`
	VNSceneID        string      `json:"vn_scene_id,omitempty"`
	TriggerEventID   string      `json:"trigger_event_id,omitempty"`
	SetFlags         []string    `json:"set_flags,omitempty"`
	// BattleSuccess and BattleFailure are applied when a battle started by
	// this effect completes.
	BattleSuccess *Effect `json:"battle_success,omitempty"`
	BattleFailure *Effect `json:"battle_failure,omitempty"`
}

func (e *Effect) Validate() error {
	el := errors.NewErrorList()

	for _, g := range e.GrantItems {
		if g.TemplateID == "" || g.Quantity <= 0 {
			el.Add(fmt.Errorf("grant_items entries need a template id and positive quantity"))
		}
	}
	if e.RecruitNpc != nil && e.RecruitNpc.ID == "" {
		el.Add(fmt.Errorf("recruit_npc requires an id"))
	}
	if e.TriggerEventID != "" && !storage.ValidIdentifier(e.TriggerEventID) {
		el.Add(fmt.Errorf("invalid trigger_event_id %q", e.TriggerEventID))
	}
	if e.BattleSuccess != nil {
		el.Add(e.BattleSuccess.Validate())
	}
	if e.BattleFailure != nil {
		el.Add(e.BattleFailure.Validate())
	}

	return el.Err()
}

// Resolve checks the effect's references against the dictionary. A nil
// effect resolves trivially.
func (e *Effect) Resolve(dict *Dictionary) error {
	if e == nil {
		return nil
	}
	for _, g := range e.GrantItems {
		if dict.Items.Get(g.TemplateID) == nil {
			return fmt.Errorf("item %q not found", g.TemplateID)
		}
	}
	if e.TriggerEventID != "" && dict.Events.Get(e.TriggerEventID) == nil {
		return fmt.Errorf("event %q not found", e.TriggerEventID)
	}
	if err := e.BattleSuccess.Resolve(dict); err != nil {
		return err
	}
	return e.BattleFailure.Resolve(dict)
}

// Item is an inventory template.
type Item struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
	// BaseResource and BaseAmount describe what one unit converts into when
	// transferred to the bunker. Empty means the item does not convert.
	BaseResource ResourceName `json:"base_resource,omitempty"`
	BaseAmount   int          `json:"base_amount,omitempty"`
}

// Validate satisfies storage.ValidatingSpec.
func (i *Item) Validate() error {
	el := errors.NewErrorList()

	if i.Name == "" {
		el.Add(fmt.Errorf("item name is required"))
	}
	if i.Price < 0 {
		el.Add(fmt.Errorf("item price must not be negative"))
	}
	if i.BaseResource != "" && !i.BaseResource.Valid() {
		el.Add(fmt.Errorf("invalid base_resource %q", i.BaseResource))
	}
	if i.BaseResource != "" && i.BaseAmount <= 0 {
		el.Add(fmt.Errorf("base_amount must be positive when base_resource is set"))
	}

	return el.Err()
}
