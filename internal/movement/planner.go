// Package movement plans server-authoritative moves across the hex map.
package movement

import (
	"fmt"
	"time"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/hexmap"
	"github.com/pixil98/go-errors"
)

// Config holds the movement tuning.
type Config struct {
	StaminaPerHex int
	// PerHex is the lore time needed to cross one hex.
	PerHex time.Duration
}

func DefaultConfig() Config {
	return Config{
		StaminaPerHex: 1,
		PerHex:        20 * time.Minute,
	}
}

func (c Config) Validate() error {
	el := errors.NewErrorList()
	if c.StaminaPerHex < 0 {
		el.Add(fmt.Errorf("stamina per hex must not be negative"))
	}
	if c.PerHex <= 0 {
		el.Add(fmt.Errorf("per hex duration must be positive"))
	}
	return el.Err()
}

type Planner struct {
	cfg Config
}

func NewPlanner(cfg Config) *Planner {
	return &Planner{cfg: cfg}
}

// PlanMove validates a move of p to target on m and returns the movement
// record. The player is not modified.
func (pl *Planner) PlanMove(p *game.PlayerState, target hexmap.Coord, m *hexmap.Map, now int64) (*game.MovementState, error) {
	cell, ok := m.Get(target)
	if !ok {
		return nil, fmt.Errorf("hex %s is off the map: %w", target, game.ErrInvalidTarget)
	}
	if cell.IsObstacle {
		return nil, fmt.Errorf("hex %s is %s: %w", target, cell.Biome, game.ErrInvalidTarget)
	}
	if target == p.HexPos {
		return nil, fmt.Errorf("already at %s: %w", target, game.ErrInvalidTarget)
	}
	if p.MovementState != nil {
		return nil, game.ErrPlayerMoving
	}
	if p.PendingBattle != nil {
		return nil, game.ErrBattlePending
	}

	dist := hexmap.Distance(p.HexPos, target)
	cost := dist * pl.cfg.StaminaPerHex
	if cost > p.Stamina {
		return nil, fmt.Errorf("need %d stamina, have %d: %w", cost, p.Stamina, game.ErrInsufficientStamina)
	}

	msPerHex := pl.cfg.PerHex.Milliseconds()
	return &game.MovementState{
		Path:                 hexmap.Line(p.HexPos, target),
		StartedAtWorldTimeMs: now,
		MsPerHex:             msPerHex,
		ArriveAtWorldTimeMs:  now + int64(dist)*msPerHex,
		StaminaCost:          cost,
	}, nil
}

// ConsumeIfArrived finishes p's move once the arrival time has passed and
// reports whether it did.
func (pl *Planner) ConsumeIfArrived(p *game.PlayerState, now int64) bool {
	ms := p.MovementState
	if ms == nil || now < ms.ArriveAtWorldTimeMs {
		return false
	}

	p.HexPos = ms.Target()
	p.Stamina = max(0, p.Stamina-ms.StaminaCost)
	p.MovementState = nil
	return true
}

// Position returns where p is at now, interpolated along an in-flight path.
func (pl *Planner) Position(p *game.PlayerState, now int64) hexmap.Coord {
	ms := p.MovementState
	if ms == nil {
		return p.HexPos
	}
	if ms.MsPerHex <= 0 || now >= ms.ArriveAtWorldTimeMs {
		return ms.Target()
	}
	step := int((now - ms.StartedAtWorldTimeMs) / ms.MsPerHex)
	step = max(0, min(step, len(ms.Path)-1))
	return ms.Path[step]
}
