package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/hexmap"
	"github.com/pixil98/go-bunker/internal/messaging"
)

// MapView is a session's map with every player's current position.
type MapView struct {
	Radius  int            `json:"radius"`
	Seed    int64          `json:"seed"`
	Cells   []hexmap.Cell  `json:"cells"`
	Players []PlayerMarker `json:"players"`
}

type PlayerMarker struct {
	PlayerID string       `json:"playerId"`
	Name     string       `json:"name"`
	Pos      hexmap.Coord `json:"pos"`
	Moving   bool         `json:"moving"`
}

// Map returns the session's hex map.
func (st *Store) Map(ctx context.Context, id string) (*MapView, error) {
	s, err := st.view(ctx, id)
	if err != nil {
		return nil, err
	}

	m := st.sessionMap(s)
	view := &MapView{
		Radius:  m.Radius,
		Seed:    m.Seed,
		Cells:   m.List(),
		Players: []PlayerMarker{},
	}
	for _, p := range sortedPlayers(s) {
		view.Players = append(view.Players, PlayerMarker{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Pos:      st.moves.Position(p, s.WorldTimeMs),
			Moving:   p.MovementState != nil,
		})
	}
	return view, nil
}

// Recover loads every live session from the repository into memory. Sessions
// already in memory are left alone.
func (st *Store) Recover(ctx context.Context) (int, error) {
	docs, err := st.repo.LoadActive(ctx, st.now())
	if err != nil {
		return 0, fmt.Errorf("loading active sessions: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	n := 0
	for _, doc := range docs {
		if _, ok := st.sessions[doc.SessionID]; ok {
			continue
		}
		s, err := doc.Decode()
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable session", "session", doc.SessionID, "error", err)
			continue
		}
		st.sessions[doc.SessionID] = &entry{state: s}
		st.persister.Seed(doc.SessionID, doc.Version)
		n++
	}
	return n, nil
}

// Cleanup deletes expired documents from the repository and evicts expired or
// ended sessions from memory once their last version has been written.
func (st *Store) Cleanup(ctx context.Context) (deleted int64, evicted int, err error) {
	now := st.now()

	deleted, err = st.repo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	for _, e := range st.hot() {
		e.mu.Lock()
		s := e.state
		done := s.Status == game.StatusEnded || !s.ExpiresAt.After(now)
		if !done || st.persister.Pending(s.SessionID) {
			e.mu.Unlock()
			continue
		}

		e.evicted = true
		st.mu.Lock()
		delete(st.sessions, s.SessionID)
		st.mu.Unlock()
		e.mu.Unlock()

		st.persister.Forget(s.SessionID)
		evicted++
	}
	return deleted, evicted, nil
}

// TimerSync broadcasts the countdown and clock of every active session held
// in memory. Nothing is stored.
func (st *Store) TimerSync(ctx context.Context) int {
	n := 0
	for _, e := range st.hot() {
		e.mu.Lock()
		if e.evicted || e.state.Status != game.StatusActive {
			e.mu.Unlock()
			continue
		}
		s := e.state.Clone()
		e.mu.Unlock()

		now := st.now()
		st.housekeep(s, now)
		payload := messaging.TimerPayload{
			TimerSeconds:     s.TimerRemaining(now),
			WorldDay:         s.WorldDay,
			WorldTimeMinutes: s.WorldTimeMinutes,
			Phase:            s.Phase,
		}
		if err := st.notifier.Timer(s.SessionID, payload); err != nil {
			slog.WarnContext(ctx, "broadcasting timer", "session", s.SessionID, "error", err)
			continue
		}
		n++
	}
	return n
}
