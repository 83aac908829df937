package command

import (
	"fmt"

	"github.com/pixil98/go-bunker/internal/clock"
	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/session"
)

// EngineConfig tunes the session engine. Every field is optional; unset
// fields keep the engine defaults.
type EngineConfig struct {
	Clock *clock.Config `json:"clock,omitempty"`

	ZoneActionLease string `json:"zone_action_lease"`
	DifficultyStep  string `json:"difficulty_step"`
	HexDuration     string `json:"hex_duration"`
	StaminaPerHex   int    `json:"stamina_per_hex"`

	TraderEveryDays int     `json:"trader_every_days"`
	TraderStockSize int     `json:"trader_stock_size"`
	SellRatio       float64 `json:"sell_ratio"`
	Currency        string  `json:"currency"`

	CrisisWarning   int     `json:"crisis_warning"`
	CrisisThreshold int     `json:"crisis_threshold"`
	HealThreshold   float64 `json:"heal_threshold"`

	SessionTTL        string          `json:"session_ttl"`
	MapRadius         int             `json:"map_radius"`
	TimerSeconds      int             `json:"timer_seconds"`
	StartingResources *game.Resources `json:"starting_resources,omitempty"`
	StartingStamina   int             `json:"starting_stamina"`
}

func (c *EngineConfig) validate() error {
	for name, v := range map[string]string{
		"engine.zone_action_lease": c.ZoneActionLease,
		"engine.difficulty_step":   c.DifficultyStep,
		"engine.hex_duration":      c.HexDuration,
		"engine.session_ttl":       c.SessionTTL,
	} {
		if err := validateInterval(name, v, 0); err != nil {
			return err
		}
	}

	cfg := c.SessionConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// SessionConfig overlays the configured values on the engine defaults.
func (c *EngineConfig) SessionConfig() session.Config {
	cfg := session.DefaultConfig()

	if c.Clock != nil {
		cfg.Clock = *c.Clock
	}

	cfg.ZoneActions.Lease = durationOr(c.ZoneActionLease, cfg.ZoneActions.Lease)
	cfg.ZoneActions.DifficultyStep = durationOr(c.DifficultyStep, cfg.ZoneActions.DifficultyStep)
	cfg.Movement.PerHex = durationOr(c.HexDuration, cfg.Movement.PerHex)
	cfg.TTL = durationOr(c.SessionTTL, cfg.TTL)

	setIf(&cfg.Movement.StaminaPerHex, c.StaminaPerHex)
	setIf(&cfg.Trader.EveryDays, c.TraderEveryDays)
	setIf(&cfg.Trader.StockSize, c.TraderStockSize)
	setIf(&cfg.Trader.SellRatio, c.SellRatio)
	if c.Currency != "" {
		cfg.Trader.Currency = game.ResourceName(c.Currency)
	}

	setIf(&cfg.Crisis.Warning, c.CrisisWarning)
	setIf(&cfg.Crisis.Crisis, c.CrisisThreshold)
	setIf(&cfg.HealThreshold, c.HealThreshold)

	setIf(&cfg.MapRadius, c.MapRadius)
	setIf(&cfg.TimerSeconds, c.TimerSeconds)
	setIf(&cfg.StartingStamina, c.StartingStamina)
	if c.StartingResources != nil {
		cfg.StartingResources = *c.StartingResources
	}

	return cfg
}

func setIf[T int | float64](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}
