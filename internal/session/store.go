// Package session holds the authoritative in-memory copy of every running
// session and serializes all mutation of a session behind its own mutex.
//
// Mutations are copy-on-write: each operation works on a clone and, when it
// succeeds, the clone replaces the stored state. A stored state is never
// modified after it is published, so it can be persisted and broadcast
// without holding the session lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pixil98/go-bunker/internal/events"
	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/hexmap"
	"github.com/pixil98/go-bunker/internal/messaging"
	"github.com/pixil98/go-bunker/internal/movement"
	"github.com/pixil98/go-bunker/internal/persistence"
	"github.com/pixil98/go-bunker/internal/trader"
	"github.com/pixil98/go-bunker/internal/zoneaction"
)

// Notifier receives every accepted change.
type Notifier interface {
	State(s *game.SessionState) error
	Log(sessionID string, e game.LogEntry) error
	Timer(sessionID string, t messaging.TimerPayload) error
}

type nopNotifier struct{}

func (nopNotifier) State(*game.SessionState) error             { return nil }
func (nopNotifier) Log(string, game.LogEntry) error            { return nil }
func (nopNotifier) Timer(string, messaging.TimerPayload) error { return nil }

// errUnchanged lets an operation succeed without producing a new version.
var errUnchanged = errors.New("unchanged")

type entry struct {
	mu      sync.Mutex
	state   *game.SessionState
	evicted bool
}

type Store struct {
	cfg       Config
	dict      *game.Dictionary
	repo      persistence.Repository
	persister *Persister
	notifier  Notifier
	maps      *hexmap.Cache

	zones  *zoneaction.Coordinator
	moves  *movement.Planner
	events *events.Resolver
	trader *trader.Trader

	now   func() time.Time
	newID func() string

	mu       sync.RWMutex
	sessions map[string]*entry
}

func NewStore(cfg Config, dict *game.Dictionary, repo persistence.Repository, persister *Persister, opts ...StoreOpt) *Store {
	st := &Store{
		cfg:       cfg,
		dict:      dict,
		repo:      repo,
		persister: persister,
		notifier:  nopNotifier{},
		maps:      hexmap.NewCache(),
		now:       time.Now,
		newID:     uuid.NewString,
		sessions:  map[string]*entry{},
	}

	var eventOpts []events.ResolverOpt
	for _, opt := range opts {
		eventOpts = opt(st, eventOpts)
	}

	st.zones = zoneaction.NewCoordinator(dict, cfg.Clock, cfg.ZoneActions)
	st.moves = movement.NewPlanner(cfg.Movement)
	st.trader = trader.New(dict, cfg.Trader)
	st.events = events.NewResolver(dict, append([]events.ResolverOpt{
		events.WithHealThreshold(cfg.HealThreshold),
		events.WithCrisisThresholds(cfg.Crisis),
	}, eventOpts...)...)

	return st
}

// lookup returns the hot entry for id, loading it from the repository on a
// miss.
func (st *Store) lookup(ctx context.Context, id string) (*entry, error) {
	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return e, nil
	}

	doc, err := st.repo.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.ExpiresAt.After(st.now()) {
		return nil, fmt.Errorf("session %q expired: %w", id, game.ErrSessionNotFound)
	}
	s, err := doc.Decode()
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if e, ok := st.sessions[id]; ok {
		return e, nil
	}
	e = &entry{state: s}
	st.sessions[id] = e
	st.persister.Seed(id, doc.Version)
	slog.DebugContext(ctx, "session loaded from storage", "session", id, "version", doc.Version)
	return e, nil
}

// acquire returns the locked entry for id. The caller must unlock it.
func (st *Store) acquire(ctx context.Context, id string) (*entry, error) {
	for {
		e, err := st.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		if e.evicted {
			e.mu.Unlock()
			continue
		}
		if !e.state.ExpiresAt.After(st.now()) {
			e.mu.Unlock()
			return nil, fmt.Errorf("session %q expired: %w", id, game.ErrSessionNotFound)
		}
		return e, nil
	}
}

// view returns a housekept copy of the session without storing it.
func (st *Store) view(ctx context.Context, id string) (*game.SessionState, error) {
	e, err := st.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	s := e.state.Clone()
	st.housekeep(s, st.now())
	return s, nil
}

// mutate runs fn against a housekept copy of the session. When fn succeeds
// the copy becomes the new version, is queued for persistence and is
// broadcast. When fn fails nothing changes.
func (st *Store) mutate(ctx context.Context, id string, fn func(s *game.SessionState, now int64) error) (*game.SessionState, error) {
	e, err := st.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	prev := e.state
	if prev.Status == game.StatusEnded {
		return nil, game.ErrSessionEnded
	}

	now := st.now()
	s := prev.Clone()
	st.housekeep(s, now)

	err = fn(s, s.WorldTimeMs)
	if errors.Is(err, errUnchanged) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	st.commit(ctx, e, prev, s, now)
	return s, nil
}

func (st *Store) commit(ctx context.Context, e *entry, prev, s *game.SessionState, now time.Time) {
	st.events.UpdateCrisis(s)
	s.Version = prev.Version + 1
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(st.cfg.TTL)
	e.state = s

	st.persister.Enqueue(s)
	st.publish(ctx, prev, s)
}

func (st *Store) publish(ctx context.Context, prev, s *game.SessionState) {
	from := 0
	if prev != nil && len(prev.Log) <= len(s.Log) {
		from = len(prev.Log)
	}
	for _, le := range s.Log[from:] {
		if err := st.notifier.Log(s.SessionID, le); err != nil {
			slog.WarnContext(ctx, "broadcasting log entry", "session", s.SessionID, "error", err)
		}
	}
	if err := st.notifier.State(s); err != nil {
		slog.WarnContext(ctx, "broadcasting session state", "session", s.SessionID, "error", err)
	}
}

// withActive wraps fn so it only runs against an active session.
func withActive(fn func(s *game.SessionState, now int64) error) func(*game.SessionState, int64) error {
	return func(s *game.SessionState, now int64) error {
		if s.Status != game.StatusActive {
			return fmt.Errorf("session is %s: %w", s.Status, game.ErrSessionNotActive)
		}
		return fn(s, now)
	}
}

func (st *Store) sessionMap(s *game.SessionState) *hexmap.Map {
	return st.maps.Get(s.MapRadius, s.MapSeed)
}

func (st *Store) hot() []*entry {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := slices.Sorted(maps.Keys(st.sessions))
	out := make([]*entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, st.sessions[id])
	}
	return out
}
