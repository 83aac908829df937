package session

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/persistence"
)

// Persister writes session documents behind the in-memory authority. Only
// the newest queued version of each session is written, and every write
// names the version it expects to replace.
type Persister struct {
	repo     persistence.Repository
	interval time.Duration

	mu        sync.Mutex
	pending   map[string]*game.SessionState
	persisted map[string]int64

	flushMu sync.Mutex
	wake    chan struct{}
}

func NewPersister(repo persistence.Repository, interval time.Duration) *Persister {
	return &Persister{
		repo:      repo,
		interval:  interval,
		pending:   map[string]*game.SessionState{},
		persisted: map[string]int64{},
		wake:      make(chan struct{}, 1),
	}
}

// Enqueue queues s for writing. s must not be modified afterwards.
func (p *Persister) Enqueue(s *game.SessionState) {
	p.mu.Lock()
	if cur, ok := p.pending[s.SessionID]; !ok || cur.Version < s.Version {
		p.pending[s.SessionID] = s
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Seed records the version already stored for a session loaded from the
// repository.
func (p *Persister) Seed(sessionID string, version int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.persisted[sessionID] = version
}

// Forget drops all bookkeeping for a session.
func (p *Persister) Forget(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, sessionID)
	delete(p.persisted, sessionID)
}

// Pending reports whether a session has an unwritten version queued.
func (p *Persister) Pending(sessionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.pending[sessionID]
	return ok
}

// Start runs the write-behind loop until ctx is done, then flushes once more.
func (p *Persister) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := p.Flush(flushCtx); err != nil {
				slog.Error("final session flush", "error", err)
			}
			return nil
		case <-p.wake:
		case <-ticker.C:
		}

		if err := p.Flush(ctx); err != nil {
			slog.WarnContext(ctx, "session flush incomplete", "error", err)
		}
	}
}

// Flush writes every pending session and returns the first failure.
// Failed sessions stay queued for the next flush.
func (p *Persister) Flush(ctx context.Context) error {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	p.mu.Lock()
	ids := slices.Sorted(maps.Keys(p.pending))
	p.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := p.write(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Persister) write(ctx context.Context, id string) error {
	p.mu.Lock()
	s, ok := p.pending[id]
	expected := p.persisted[id]
	p.mu.Unlock()
	if !ok {
		return nil
	}

	doc, err := persistence.NewDocument(s)
	if err != nil {
		slog.ErrorContext(ctx, "encoding session", "session", id, "error", err)
		return err
	}

	err = p.repo.SaveIfVersionMatches(ctx, doc, expected)
	switch {
	case err == nil:
		p.mu.Lock()
		p.persisted[id] = s.Version
		if cur := p.pending[id]; cur != nil && cur.Version == s.Version {
			delete(p.pending, id)
		}
		p.mu.Unlock()
		return nil

	case errors.Is(err, game.ErrStaleVersion):
		p.resync(ctx, id, s.Version)
		return err

	default:
		slog.ErrorContext(ctx, "persisting session", "session", id, "version", s.Version, "error", err)
		return err
	}
}

// resync reloads the stored version after a stale write. A stored copy at
// least as new as ours wins; otherwise the next flush replaces it.
func (p *Persister) resync(ctx context.Context, id string, version int64) {
	doc, err := p.repo.Load(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "reloading stored session version", "session", id, "error", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.persisted[id] = doc.Version
	if doc.Version >= version {
		if cur := p.pending[id]; cur != nil && cur.Version <= doc.Version {
			delete(p.pending, id)
		}
		slog.WarnContext(ctx, "dropping session write older than stored copy", "session", id, "version", version, "stored", doc.Version)
	}
}
