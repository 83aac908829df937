package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/pixil98/go-bunker/internal/game"
)

// CreateParams are the optional knobs of a new session.
type CreateParams struct {
	Seed   *int64 `json:"seed,omitempty"`
	Radius int    `json:"radius,omitempty"`
}

// CreateSession starts a new session in the lobby.
func (st *Store) CreateSession(ctx context.Context, params CreateParams) (*game.SessionState, error) {
	radius := params.Radius
	if radius == 0 {
		radius = st.cfg.MapRadius
	}
	if radius < minMapRadius || radius > maxMapRadius {
		return nil, fmt.Errorf("radius must be within [%d,%d]: %w", minMapRadius, maxMapRadius, game.ErrInvalidRequest)
	}

	seed := rand.Int64()
	if params.Seed != nil {
		seed = *params.Seed
	}

	now := st.now()
	s := game.NewSessionState(st.newID(), seed, radius, now)
	s.WorldTimeMs = st.cfg.Clock.Epoch()
	snap := st.cfg.Clock.Derive(s.WorldTimeMs)
	s.WorldDay = snap.WorldDay
	s.WorldTimeMinutes = snap.WorldTimeMinutes
	s.Phase = snap.Phase
	s.LastRolloverDay = st.cfg.Clock.DayID(s.WorldTimeMs)
	s.TimerSeconds = st.cfg.TimerSeconds
	s.Resources = st.cfg.StartingResources
	s.AppendLog(game.LogSystem, "", "Session created")

	e := &entry{}
	st.mu.Lock()
	if _, ok := st.sessions[s.SessionID]; ok {
		st.mu.Unlock()
		return nil, fmt.Errorf("session id %q already in use", s.SessionID)
	}
	st.sessions[s.SessionID] = e
	e.mu.Lock()
	st.mu.Unlock()
	defer e.mu.Unlock()

	st.commit(ctx, e, &game.SessionState{}, s, now)
	slog.InfoContext(ctx, "session created", "session", s.SessionID, "seed", seed, "radius", radius)
	return s, nil
}

// Get returns the current state of a session.
func (st *Store) Get(ctx context.Context, id string) (*game.SessionState, error) {
	return st.view(ctx, id)
}

// Join adds a player to the session. Joining again with a known player id
// returns the session unchanged.
func (st *Store) Join(ctx context.Context, id, playerID, name string) (*game.SessionState, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("player name is required: %w", game.ErrInvalidRequest)
	}
	if playerID == "" {
		playerID = st.newID()
	}

	s, err := st.mutate(ctx, id, func(s *game.SessionState, now int64) error {
		if _, ok := s.Players[playerID]; ok {
			return errUnchanged
		}
		s.Players[playerID] = &game.PlayerState{
			PlayerID:        playerID,
			Name:            name,
			Inventory:       game.Inventory{},
			CombatResources: st.cfg.StartingCombat,
			CurrentZone:     st.dict.BaseZone(),
			Stamina:         st.cfg.StartingStamina,
			MaxStamina:      st.cfg.StartingStamina,
			JoinedAt:        s.LastRealTickAt,
		}
		s.AppendLog(game.LogPlayers, playerID, fmt.Sprintf("%s joined", name))
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return s, playerID, nil
}

// SelectRole sets the player's role.
func (st *Store) SelectRole(ctx context.Context, id, playerID string, role game.Role) (*game.SessionState, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, game.ErrInvalidRole)
	}
	return st.mutate(ctx, id, func(s *game.SessionState, now int64) error {
		p, err := s.Player(playerID)
		if err != nil {
			return err
		}
		if p.Role == role {
			return errUnchanged
		}
		p.Role = role
		s.AppendLog(game.LogPlayers, playerID, fmt.Sprintf("%s is now a %s", p.Name, role))
		return nil
	})
}

// Start moves a lobby session into play and starts the countdown.
func (st *Store) Start(ctx context.Context, id string) (*game.SessionState, error) {
	return st.mutate(ctx, id, func(s *game.SessionState, now int64) error {
		if s.Status != game.StatusLobby {
			return game.ErrSessionNotLobby
		}
		s.Status = game.StatusActive
		s.TimerStartedAt = s.LastRealTickAt
		s.AppendLog(game.LogSystem, "", "The session has started")
		return nil
	})
}

// Pause freezes the lore clock and the countdown.
func (st *Store) Pause(ctx context.Context, id string) (*game.SessionState, error) {
	return st.mutate(ctx, id, func(s *game.SessionState, now int64) error {
		if s.Status != game.StatusActive {
			return game.ErrSessionNotActive
		}
		s.Status = game.StatusPaused
		s.TimerSeconds = s.TimerRemaining(s.LastRealTickAt)
		s.TimerStartedAt = time.Time{}
		s.AppendLog(game.LogSystem, "", "The session is paused")
		return nil
	})
}

// Resume restarts a paused session. The lore clock picks up from where it
// was paused.
func (st *Store) Resume(ctx context.Context, id string) (*game.SessionState, error) {
	return st.mutate(ctx, id, func(s *game.SessionState, now int64) error {
		if s.Status != game.StatusPaused {
			return game.ErrSessionNotPaused
		}
		s.Status = game.StatusActive
		s.TimerStartedAt = s.LastRealTickAt
		s.AppendLog(game.LogSystem, "", "The session has resumed")
		return nil
	})
}

// End closes the session. An ended session rejects every further mutation
// and is evicted by the next cleanup.
func (st *Store) End(ctx context.Context, id string) (*game.SessionState, error) {
	return st.mutate(ctx, id, func(s *game.SessionState, now int64) error {
		s.TimerSeconds = s.TimerRemaining(s.LastRealTickAt)
		s.TimerStartedAt = time.Time{}
		s.Status = game.StatusEnded
		s.AppendLog(game.LogSystem, "", "The session has ended")
		return nil
	})
}
