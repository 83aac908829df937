package session

import (
	"fmt"
	"time"

	"github.com/pixil98/go-bunker/internal/clock"
	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/movement"
	"github.com/pixil98/go-bunker/internal/trader"
	"github.com/pixil98/go-bunker/internal/zoneaction"
	"github.com/pixil98/go-errors"
)

const (
	minMapRadius = 1
	maxMapRadius = 32
	// maxCatchUpDays bounds how many missed rollovers run in one request.
	maxCatchUpDays = 7
)

// Config holds the tuning for the whole engine.
type Config struct {
	Clock       clock.Config
	ZoneActions zoneaction.Config
	Movement    movement.Config
	Trader      trader.Config
	Crisis      game.CrisisThresholds

	// HealThreshold is the fraction of max hp that clears a wound after a won battle.
	HealThreshold float64
	// TTL is how long a session is kept after its last mutation.
	TTL time.Duration
	// MapRadius is used when a session is created without one.
	MapRadius int
	// TimerSeconds is the session countdown length.
	TimerSeconds int

	StartingResources game.Resources
	StartingStamina   int
	StartingCombat    game.CombatResources
}

func DefaultConfig() Config {
	return Config{
		Clock:             clock.DefaultConfig(),
		ZoneActions:       zoneaction.DefaultConfig(),
		Movement:          movement.DefaultConfig(),
		Trader:            trader.DefaultConfig(),
		Crisis:            game.DefaultCrisisThresholds(),
		HealThreshold:     0.5,
		TTL:               24 * time.Hour,
		MapRadius:         8,
		TimerSeconds:      90 * 60,
		StartingResources: game.Resources{Food: 12, Fuel: 10, Medicine: 3, Defense: 5, Morale: 10},
		StartingStamina:   10,
		StartingCombat:    game.CombatResources{HP: 10, MaxHP: 10, AP: 3, MaxAP: 3, MP: 2, MaxMP: 2, WP: 5, MaxWP: 5},
	}
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	el.Add(c.Clock.Validate())
	el.Add(c.ZoneActions.Validate())
	el.Add(c.Movement.Validate())
	el.Add(c.Trader.Validate())
	el.Add(c.Crisis.Validate())

	if c.HealThreshold < 0 || c.HealThreshold > 1 {
		el.Add(fmt.Errorf("heal threshold must be within [0,1]"))
	}
	if c.TTL <= 0 {
		el.Add(fmt.Errorf("ttl must be positive"))
	}
	if c.MapRadius < minMapRadius || c.MapRadius > maxMapRadius {
		el.Add(fmt.Errorf("map radius must be within [%d,%d]", minMapRadius, maxMapRadius))
	}
	if c.TimerSeconds < 0 {
		el.Add(fmt.Errorf("timer seconds must not be negative"))
	}
	if c.StartingStamina <= 0 {
		el.Add(fmt.Errorf("starting stamina must be positive"))
	}
	if c.StartingCombat.MaxHP <= 0 {
		el.Add(fmt.Errorf("starting max hp must be positive"))
	}

	return el.Err()
}
