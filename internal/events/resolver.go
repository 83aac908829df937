// Package events rolls zone events and applies the consequences of the
// choices players make. Every roll happens on the server.
//
// A Resolver holds no per-session state; callers hold the session's mutex.
package events

import (
	"fmt"
	"log/slog"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/storage"
)

const defaultHealThreshold = 0.5

type ResolverOpt func(*Resolver)

// WithRoller replaces the default random source.
func WithRoller(r Roller) ResolverOpt {
	return func(res *Resolver) {
		res.roller = r
	}
}

// WithHealThreshold sets the fraction of max hp at which a battle clears
// the wounded flag.
func WithHealThreshold(f float64) ResolverOpt {
	return func(res *Resolver) {
		res.healThreshold = f
	}
}

// WithCrisisThresholds sets how resources map onto crisis levels.
func WithCrisisThresholds(t game.CrisisThresholds) ResolverOpt {
	return func(res *Resolver) {
		res.crisis = t
	}
}

type Resolver struct {
	dict          *game.Dictionary
	roller        Roller
	healThreshold float64
	crisis        game.CrisisThresholds
}

func NewResolver(dict *game.Dictionary, opts ...ResolverOpt) *Resolver {
	r := &Resolver{
		dict:          dict,
		roller:        globalRoller{},
		healThreshold: defaultHealThreshold,
		crisis:        game.DefaultCrisisThresholds(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summary is the coarse danger report returned on entering a zone.
type Summary struct {
	ThreatLevel string `json:"threatLevel"`
	LootQuality string `json:"lootQuality"`
}

// EnterZone records a visit to zoneID and rolls an event from the zone's
// pool. A nil event is a quiet visit.
func (r *Resolver) EnterZone(s *game.SessionState, playerID, zoneID string) (*game.ActiveEvent, Summary, error) {
	if !storage.ValidIdentifier(zoneID) {
		return nil, Summary{}, fmt.Errorf("%q: %w", zoneID, game.ErrInvalidZoneID)
	}
	zone := r.dict.Zones.Get(zoneID)
	if zone == nil {
		return nil, Summary{}, fmt.Errorf("zone %q: %w", zoneID, game.ErrZoneNotFound)
	}
	p, err := s.Player(playerID)
	if err != nil {
		return nil, Summary{}, err
	}
	if p.PendingBattle != nil {
		return nil, Summary{}, game.ErrBattlePending
	}
	if p.ActiveEvent != nil {
		return nil, Summary{}, fmt.Errorf("%s: %w", p.ActiveEvent.ID, game.ErrEventInProgress)
	}

	s.ZoneVisits[zoneID]++
	p.CurrentZone = zoneID
	summary := Summary{ThreatLevel: zone.ThreatLevel, LootQuality: zone.LootQuality}

	id, def := r.roll(s, zone, zoneID)
	if def == nil {
		s.AppendLog(game.LogEvent, playerID, fmt.Sprintf("%s entered %s. All quiet.", p.Name, zone.Name))
		return nil, summary, nil
	}

	p.ActiveEvent = game.NewActiveEvent(id, zoneID, def)
	s.AppendLog(game.LogEvent, playerID, fmt.Sprintf("%s entered %s: %s", p.Name, zone.Name, def.Title))
	return p.ActiveEvent, summary, nil
}

func (r *Resolver) roll(s *game.SessionState, zone *game.Zone, zoneID string) (string, *game.Event) {
	type candidate struct {
		id  string
		def *game.Event
	}

	var pool []candidate
	total := 0
	for _, ref := range zone.Events {
		def := ref.Get()
		if def == nil || def.Weight <= 0 || !def.Condition.Allows(s, zoneID) {
			continue
		}
		pool = append(pool, candidate{id: ref.ID(), def: def})
		total += def.Weight
	}
	if total == 0 {
		return "", nil
	}

	pick := r.roller.IntN(total)
	for _, c := range pool {
		if pick < c.def.Weight {
			return c.id, c.def
		}
		pick -= c.def.Weight
	}
	return "", nil
}

// Outcome reports what resolving an option did.
type Outcome struct {
	Success bool              `json:"success"`
	Log     game.LogEntry     `json:"log"`
	Chained *game.ActiveEvent `json:"chained,omitempty"`
}

type logTemplateData struct {
	Session *game.SessionState
	Player  *game.PlayerState
	Event   *game.ActiveEvent
	Option  *game.Option
	Success bool
}

// ResolveOption applies the player's choice for their active event.
func (r *Resolver) ResolveOption(s *game.SessionState, playerID, eventID, optionID string) (*Outcome, error) {
	p, err := s.Player(playerID)
	if err != nil {
		return nil, err
	}
	ae := p.ActiveEvent
	if ae == nil || ae.ID != eventID {
		return nil, fmt.Errorf("event %q: %w", eventID, game.ErrNoActiveEvent)
	}
	opt, ok := ae.Option(optionID)
	if !ok {
		return nil, fmt.Errorf("option %q: %w", optionID, game.ErrOptionNotFound)
	}
	if opt.RequiredRole != "" && opt.RequiredRole != p.Role {
		return nil, fmt.Errorf("requires role %s: %w", opt.RequiredRole, game.ErrRequirementNotMet)
	}
	if opt.RequiredItem != "" && p.Inventory.Count(opt.RequiredItem) == 0 {
		return nil, fmt.Errorf("requires item %s: %w", opt.RequiredItem, game.ErrRequirementNotMet)
	}

	s.Resources.Charge(opt.Cost)

	success := true
	effect := opt.Effect
	if opt.SuccessChance != nil {
		success = r.roller.Float64() < *opt.SuccessChance
		if !success {
			effect = opt.FailureEffect
		}
	}

	p.ActiveEvent = nil
	r.apply(s, p, ae.ZoneID, effect)
	r.UpdateCrisis(s)

	text := r.logText(s, p, ae, opt, success)
	out := &Outcome{
		Success: success,
		Log:     s.AppendLog(game.LogEvent, playerID, text),
		Chained: p.ActiveEvent,
	}
	return out, nil
}

func (r *Resolver) logText(s *game.SessionState, p *game.PlayerState, ae *game.ActiveEvent, opt *game.Option, success bool) string {
	if opt.LogTemplate != "" {
		text, err := game.ExpandTemplate(opt.LogTemplate, logTemplateData{
			Session: s,
			Player:  p,
			Event:   ae,
			Option:  opt,
			Success: success,
		})
		if err == nil {
			return text
		}
		slog.Warn("rendering option log template", "event", ae.ID, "option", opt.ID, "error", err)
	}

	result := "succeeded"
	if !success {
		result = "failed"
	}
	return fmt.Sprintf("%s chose %q in %s and %s", p.Name, opt.Text, ae.Title, result)
}

// apply runs every part of an effect against the session and player.
func (r *Resolver) apply(s *game.SessionState, p *game.PlayerState, zoneID string, e *game.Effect) {
	if e == nil {
		return
	}

	s.Grant(p, e)

	if e.WoundPlayer {
		p.IsWounded = true
	}
	if e.RecruitNpc != nil && !s.HasNPC(e.RecruitNpc.ID) {
		s.NPCs = append(s.NPCs, *e.RecruitNpc)
		s.AppendLog(game.LogEvent, p.PlayerID, fmt.Sprintf("%s joined the bunker", e.RecruitNpc.Name))
	}
	if e.BattleScenarioID != "" {
		p.PendingBattle = &game.PendingBattle{
			ScenarioID:    e.BattleScenarioID,
			SuccessEffect: e.BattleSuccess,
			FailureEffect: e.BattleFailure,
		}
	}
	if e.VNSceneID != "" {
		p.PendingVN = &game.PendingVN{SceneID: e.VNSceneID}
	}
	if e.TriggerEventID != "" {
		if def := r.dict.Events.Get(e.TriggerEventID); def != nil {
			p.ActiveEvent = game.NewActiveEvent(e.TriggerEventID, zoneID, def)
		} else {
			slog.Warn("chained event not found", "event", e.TriggerEventID)
		}
	}
}

// CompleteBattle records the card-battle result reported for the player's
// pending battle.
func (r *Resolver) CompleteBattle(s *game.SessionState, playerID string, won bool, finalHP int) error {
	p, err := s.Player(playerID)
	if err != nil {
		return err
	}
	pb := p.PendingBattle
	if pb == nil {
		return game.ErrNoPendingBattle
	}
	p.PendingBattle = nil

	cr := &p.CombatResources
	cr.HP = max(0, min(finalHP, cr.MaxHP))
	switch {
	case cr.HP == 0:
		p.IsWounded = true
	case float64(cr.HP) >= r.healThreshold*float64(cr.MaxHP):
		p.IsWounded = false
	}

	effect := pb.FailureEffect
	result := "lost"
	if won {
		effect = pb.SuccessEffect
		result = "won"
	}
	r.apply(s, p, p.CurrentZone, effect)
	r.UpdateCrisis(s)

	s.AppendLog(game.LogBattle, playerID, fmt.Sprintf("%s %s the battle (%s)", p.Name, result, pb.ScenarioID))
	return nil
}

// ConsumeTransition hands control back from the narrative layer and returns
// the scene that finished.
func (r *Resolver) ConsumeTransition(s *game.SessionState, playerID string) (string, error) {
	p, err := s.Player(playerID)
	if err != nil {
		return "", err
	}
	if p.PendingVN == nil {
		return "", game.ErrNoPendingTransition
	}
	scene := p.PendingVN.SceneID
	p.PendingVN = nil
	return scene, nil
}

// TransferToBase converts every convertible item the player carries into
// base resources. The player must be standing in the bunker zone.
func (r *Resolver) TransferToBase(s *game.SessionState, playerID string) (game.Resources, error) {
	p, err := s.Player(playerID)
	if err != nil {
		return game.Resources{}, err
	}
	base := r.dict.BaseZone()
	if base == "" || p.CurrentZone != base {
		return game.Resources{}, game.ErrNotAtBase
	}

	var gained game.Resources
	kept := game.Inventory{}
	moved := 0
	for _, st := range p.Inventory {
		item := r.dict.Items.Get(st.TemplateID)
		if item == nil || item.BaseResource == "" {
			kept = append(kept, st)
			continue
		}
		gained.Set(item.BaseResource, gained.Get(item.BaseResource)+st.Quantity*item.BaseAmount)
		moved += st.Quantity
	}
	p.Inventory = kept
	s.Resources.Apply(gained)
	r.UpdateCrisis(s)

	if moved > 0 {
		s.AppendLog(game.LogEvent, playerID, fmt.Sprintf("%s stored %d items in the bunker", p.Name, moved))
	}
	return gained, nil
}

// UpdateCrisis recomputes the crisis level from the base resources.
func (r *Resolver) UpdateCrisis(s *game.SessionState) {
	s.CrisisLevel = r.crisis.Level(s.Resources)
}
