// Package clock converts between real elapsed time and lore time.
//
// Lore time is a millisecond counter. A lore day is 1440 lore minutes and begins
// at DayStartMinute on the lore wall clock, so both client and server can derive
// day boundaries from worldTimeMs without extra messages.
package clock

import (
	"fmt"
	"math"

	"github.com/pixil98/go-errors"
)

const (
	MsPerMinute   = int64(60_000)
	MinutesPerDay = int64(1440)
	MsPerDay      = MsPerMinute * MinutesPerDay
)

// Phase is the day-cycle phase.
type Phase string

const (
	PhaseStart    Phase = "start"
	PhaseDay      Phase = "day"
	PhaseMonsters Phase = "monsters"
)

// Rank orders phases within one day.
func (p Phase) Rank() int {
	switch p {
	case PhaseStart:
		return 0
	case PhaseDay:
		return 1
	case PhaseMonsters:
		return 2
	default:
		return -1
	}
}

// Config holds the world clock parameters.
type Config struct {
	// TimeScale is lore-ms per real-ms.
	TimeScale float64 `json:"time_scale"`
	// DayStartMinute is the lore clock minute (0..1439) a new day begins.
	DayStartMinute int64 `json:"day_start_minute"`
	// StartPhaseMinutes is the length of the start phase after DayStartMinute.
	StartPhaseMinutes int64 `json:"start_phase_minutes"`
	// NightStartMinute is the lore clock minute monsters come out. Night lasts
	// until the next DayStartMinute.
	NightStartMinute int64 `json:"night_start_minute"`
}

// DefaultConfig returns a 24x compressed clock: one lore day per real hour.
func DefaultConfig() Config {
	return Config{
		TimeScale:         24,
		DayStartMinute:    6 * 60,
		StartPhaseMinutes: 60,
		NightStartMinute:  22 * 60,
	}
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TimeScale <= 0 || math.IsNaN(c.TimeScale) || math.IsInf(c.TimeScale, 0) {
		el.Add(fmt.Errorf("time_scale must be a positive number"))
	}
	if c.DayStartMinute < 0 || c.DayStartMinute >= MinutesPerDay {
		el.Add(fmt.Errorf("day_start_minute must be within 0..1439"))
	}
	if c.NightStartMinute < 0 || c.NightStartMinute >= MinutesPerDay {
		el.Add(fmt.Errorf("night_start_minute must be within 0..1439"))
	}
	if c.StartPhaseMinutes <= 0 {
		el.Add(fmt.Errorf("start_phase_minutes must be positive"))
	} else if c.StartPhaseMinutes >= c.nightOffset() {
		el.Add(fmt.Errorf("start phase must end before night begins"))
	}

	return el.Err()
}

// nightOffset is how many minutes after the day start night begins.
func (c Config) nightOffset() int64 {
	off := floorMod(c.NightStartMinute-c.DayStartMinute, MinutesPerDay)
	if off == 0 {
		return MinutesPerDay
	}
	return off
}

// Snapshot is the clock view derived from a worldTimeMs value.
type Snapshot struct {
	WorldDay         int64 `json:"worldDay"`
	WorldTimeMinutes int64 `json:"worldTimeMinutes"`
	Phase            Phase `json:"phase"`
}

// Derive computes the day, minute of day and phase for worldTimeMs.
func (c Config) Derive(worldTimeMs int64) Snapshot {
	totalMinutes := floorDiv(worldTimeMs, MsPerMinute)
	sinceStart := floorMod(totalMinutes-c.DayStartMinute, MinutesPerDay)

	phase := PhaseDay
	switch {
	case sinceStart < c.StartPhaseMinutes:
		phase = PhaseStart
	case sinceStart >= c.nightOffset():
		phase = PhaseMonsters
	}

	return Snapshot{
		WorldDay:         c.DayID(worldTimeMs) + 1,
		WorldTimeMinutes: floorMod(totalMinutes, MinutesPerDay),
		Phase:            phase,
	}
}

// DayID returns the zero-based lore day containing worldTimeMs.
func (c Config) DayID(worldTimeMs int64) int64 {
	return floorDiv(floorDiv(worldTimeMs, MsPerMinute)-c.DayStartMinute, MinutesPerDay)
}

// DayStartMs returns the lore time at which dayID begins.
func (c Config) DayStartMs(dayID int64) int64 {
	return (dayID*MinutesPerDay + c.DayStartMinute) * MsPerMinute
}

// Epoch is the lore time a fresh session starts at: the first moment of day one.
func (c Config) Epoch() int64 {
	return c.DayStartMs(0)
}

// Advance adds deltaRealMs of real time, scaled to lore time, to worldTimeMs.
// Negative deltas are ignored so the lore clock never runs backwards.
func (c Config) Advance(worldTimeMs, deltaRealMs int64) int64 {
	if deltaRealMs <= 0 {
		return worldTimeMs
	}
	return worldTimeMs + int64(float64(deltaRealMs)*c.TimeScale)
}

// LoreDuration converts a real duration in ms to lore ms.
func (c Config) LoreDuration(realMs int64) int64 {
	return int64(float64(realMs) * c.TimeScale)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
