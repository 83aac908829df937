package session

import (
	"fmt"
	"time"

	"github.com/pixil98/go-bunker/internal/game"
)

// housekeep brings s up to date with the wall clock: it advances the lore
// clock, runs any missed daily rollovers, refills zone charges, settles due
// zone actions and lands finished moves.
func (st *Store) housekeep(s *game.SessionState, now time.Time) {
	if s.Status == game.StatusActive {
		delta := now.Sub(s.LastRealTickAt).Milliseconds()
		s.WorldTimeMs = st.cfg.Clock.Advance(s.WorldTimeMs, delta)
	}
	if now.After(s.LastRealTickAt) {
		s.LastRealTickAt = now
	}

	snap := st.cfg.Clock.Derive(s.WorldTimeMs)
	s.WorldDay = snap.WorldDay
	s.WorldTimeMinutes = snap.WorldTimeMinutes
	s.Phase = snap.Phase

	st.rollover(s)
	st.zones.DailyReset(s, s.WorldTimeMs)
	st.settle(s, s.WorldTimeMs)
}

// settle completes zone actions and moves that finished by at.
func (st *Store) settle(s *game.SessionState, at int64) {
	st.zones.ResolveAllDue(s, at)
	for _, p := range sortedPlayers(s) {
		if st.moves.ConsumeIfArrived(p, at) {
			s.AppendLog(game.LogMove, p.PlayerID, fmt.Sprintf("%s arrived at %d,%d", p.Name, p.HexPos.Q, p.HexPos.R))
		}
	}
}

// rollover runs the start-of-day bookkeeping for every day that began since
// the last rollover, skipping all but the most recent maxCatchUpDays. Work
// that finished before a day began is settled first.
func (st *Store) rollover(s *game.SessionState) {
	today := st.cfg.Clock.DayID(s.WorldTimeMs)
	if today <= s.LastRolloverDay {
		return
	}

	first := max(s.LastRolloverDay+1, today-maxCatchUpDays+1)
	for day := first; day <= today; day++ {
		st.settle(s, st.cfg.Clock.DayStartMs(day))
		st.beginDay(s, day)
	}
}

func (st *Store) beginDay(s *game.SessionState, day int64) {
	s.LastRolloverDay = day
	s.AppendLog(game.LogDaily, "", fmt.Sprintf("Day %d begins", day+1))

	for _, p := range sortedPlayers(s) {
		p.Stamina = p.MaxStamina
	}

	upkeep := 0
	for _, n := range s.NPCs {
		upkeep += n.Upkeep
	}
	if upkeep > 0 {
		if s.Resources.Food < upkeep {
			s.Resources.Apply(game.Resources{Food: -upkeep, Morale: -1})
			s.AppendLog(game.LogDaily, "", "There was not enough food for everyone. Morale drops.")
		} else {
			s.Resources.Apply(game.Resources{Food: -upkeep})
		}
	}

	st.events.UpdateCrisis(s)

	start := st.cfg.Clock.DayStartMs(day)
	end := st.cfg.Clock.DayStartMs(day + 1)
	switch {
	case st.trader.Visits(day):
		st.trader.Arrive(s, day, start, end)
	case s.CrisisLevel == game.CrisisCrisis:
		s.DailyEvent = &game.DailyEventState{
			ID:                   fmt.Sprintf("crisis-%d", day),
			Type:                 game.DailyCrisis,
			DayID:                day,
			StartedAtWorldTimeMs: start,
			EndsAtWorldTimeMs:    end,
		}
		s.AppendLog(game.LogDaily, "", "The bunker is in crisis.")
	default:
		s.DailyEvent = nil
	}
}
