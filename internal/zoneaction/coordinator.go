// Package zoneaction arbitrates exclusive, time-limited zone actions.
//
// A Coordinator is not safe for concurrent use on the same session. Callers
// hold the session's mutex around every call.
package zoneaction

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/pixil98/go-bunker/internal/clock"
	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-errors"
)

// Config holds lore-time durations for zone actions.
type Config struct {
	// Lease is the minimum lock lifetime.
	Lease time.Duration
	// DifficultyStep is added to an action's base duration per difficulty level.
	DifficultyStep time.Duration
}

func DefaultConfig() Config {
	return Config{
		Lease:          time.Hour,
		DifficultyStep: 15 * time.Minute,
	}
}

func (c Config) Validate() error {
	el := errors.NewErrorList()
	if c.Lease <= 0 {
		el.Add(fmt.Errorf("lease must be positive"))
	}
	if c.DifficultyStep < 0 {
		el.Add(fmt.Errorf("difficulty step must not be negative"))
	}
	return el.Err()
}

type Coordinator struct {
	dict  *game.Dictionary
	clock clock.Config
	cfg   Config
}

func NewCoordinator(dict *game.Dictionary, clk clock.Config, cfg Config) *Coordinator {
	return &Coordinator{dict: dict, clock: clk, cfg: cfg}
}

// Zone returns the zone's runtime state, creating it from the definition on
// first use. Every read performs the lazy daily reset.
func (c *Coordinator) Zone(s *game.SessionState, zoneID string, now int64) (*game.ZoneState, error) {
	def := c.dict.Zones.Get(zoneID)
	if def == nil {
		return nil, fmt.Errorf("zone %q: %w", zoneID, game.ErrZoneNotFound)
	}

	c.DailyReset(s, now)

	zs, ok := s.Zones[zoneID]
	if !ok {
		zs = &game.ZoneState{
			Actions:                   map[string]*game.ZoneActionState{},
			LastDailyResetWorldTimeMs: now,
		}
		s.Zones[zoneID] = zs
	}

	for id, a := range def.Actions {
		if _, ok := zs.Actions[id]; !ok {
			zs.Actions[id] = &game.ZoneActionState{
				ChargesPerDay:    a.ChargesPerDay,
				ChargesRemaining: a.ChargesPerDay,
			}
		}
	}

	return zs, nil
}

// DailyReset refills every action of every zone whose last reset happened on
// an earlier lore day. It reports whether anything was refilled.
func (c *Coordinator) DailyReset(s *game.SessionState, now int64) bool {
	today := c.clock.DayID(now)
	reset := false
	for _, zs := range s.Zones {
		if c.clock.DayID(zs.LastDailyResetWorldTimeMs) == today {
			continue
		}
		for _, a := range zs.Actions {
			a.ChargesRemaining = a.ChargesPerDay
		}
		zs.LastDailyResetWorldTimeMs = now
		reset = true
	}
	return reset
}

// StartAction grants playerID the lease on (zoneID, actionID) and begins the
// action. The charge is spent immediately.
func (c *Coordinator) StartAction(s *game.SessionState, zoneID, actionID, playerID string, now int64) (*game.InProgress, error) {
	p, err := s.Player(playerID)
	if err != nil {
		return nil, err
	}

	zs, err := c.Zone(s, zoneID, now)
	if err != nil {
		return nil, err
	}
	def := c.dict.Zones.Get(zoneID).Actions[actionID]
	act := zs.Actions[actionID]
	if def == nil || act == nil {
		return nil, fmt.Errorf("action %q in zone %q: %w", actionID, zoneID, game.ErrActionNotFound)
	}

	c.ResolveAllDue(s, now)

	if p.PendingBattle != nil {
		return nil, game.ErrBattlePending
	}
	if p.ActiveZoneActionID != "" {
		return nil, fmt.Errorf("%s: %w", p.ActiveZoneActionID, game.ErrPlayerBusy)
	}
	if p.MovementState != nil {
		return nil, game.ErrPlayerMoving
	}
	if act.ChargesRemaining <= 0 {
		return nil, fmt.Errorf("%s: %w", game.ZoneActionKey(zoneID, actionID), game.ErrNoChargesLeft)
	}
	if holder := act.Holder(now); holder != "" && holder != playerID {
		return nil, fmt.Errorf("%s held by %s: %w", game.ZoneActionKey(zoneID, actionID), holder, game.ErrZoneActionBusy)
	}

	duration := def.DurationMs() + int64(def.Difficulty)*c.cfg.DifficultyStep.Milliseconds()
	lease := max(c.cfg.Lease.Milliseconds(), duration)

	act.ChargesRemaining--
	act.Lock = &game.Lock{
		LockedByPlayerID:         playerID,
		LockExpiresAtWorldTimeMs: now + lease,
	}
	act.InProgress = &game.InProgress{
		ActionID:               actionID,
		StartedByPlayerID:      playerID,
		StartedAtWorldTimeMs:   now,
		CompletesAtWorldTimeMs: now + duration,
	}
	p.ActiveZoneActionID = game.ZoneActionKey(zoneID, actionID)

	s.AppendLog(game.LogAction, playerID, fmt.Sprintf("%s started %s in %s", p.Name, actionName(def, actionID), c.zoneName(zoneID)))
	slog.Debug("zone action started", "session", s.SessionID, "zone", zoneID, "action", actionID, "player", playerID, "completes", act.InProgress.CompletesAtWorldTimeMs)

	return act.InProgress, nil
}

// ResolveIfDue completes the action once its deadline has passed. It is
// idempotent and reports whether this call completed it.
func (c *Coordinator) ResolveIfDue(s *game.SessionState, zoneID, actionID string, now int64) bool {
	zs, ok := s.Zones[zoneID]
	if !ok {
		return false
	}
	act, ok := zs.Actions[actionID]
	if !ok {
		return false
	}

	if act.InProgress == nil {
		// A bare lease with nothing running is logically free once expired.
		if act.Lock != nil && act.Holder(now) == "" {
			act.Lock = nil
		}
		return false
	}
	if now < act.InProgress.CompletesAtWorldTimeMs {
		return false
	}

	starter := act.InProgress.StartedByPlayerID
	act.InProgress = nil
	act.Lock = nil

	var def *game.ZoneAction
	if z := c.dict.Zones.Get(zoneID); z != nil {
		def = z.Actions[actionID]
	}

	p, ok := s.Players[starter]
	if !ok {
		return true
	}
	if p.ActiveZoneActionID == game.ZoneActionKey(zoneID, actionID) {
		p.ActiveZoneActionID = ""
	}
	if def != nil {
		s.Grant(p, def.Loot)
	}
	s.AppendLog(game.LogAction, starter, fmt.Sprintf("%s finished %s in %s", p.Name, actionName(def, actionID), c.zoneName(zoneID)))

	return true
}

// ResolveAllDue sweeps every zone action and returns how many completed.
func (c *Coordinator) ResolveAllDue(s *game.SessionState, now int64) int {
	n := 0
	for _, zoneID := range slices.Sorted(maps.Keys(s.Zones)) {
		for _, actionID := range slices.Sorted(maps.Keys(s.Zones[zoneID].Actions)) {
			if c.ResolveIfDue(s, zoneID, actionID, now) {
				n++
			}
		}
	}
	return n
}

func (c *Coordinator) zoneName(zoneID string) string {
	if z := c.dict.Zones.Get(zoneID); z != nil && z.Name != "" {
		return z.Name
	}
	return zoneID
}

func actionName(def *game.ZoneAction, id string) string {
	if def != nil && def.Name != "" {
		return def.Name
	}
	return id
}
