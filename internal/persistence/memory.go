package persistence

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/pixil98/go-bunker/internal/game"
)

// MemoryRepository keeps documents in process memory. Nothing survives a
// restart.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: map[string]Document{}}
}

func (m *MemoryRepository) Load(_ context.Context, sessionID string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", sessionID, game.ErrSessionNotFound)
	}
	d.State = slices.Clone(d.State)
	return &d, nil
}

func (m *MemoryRepository) LoadActive(_ context.Context, now time.Time) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Document
	for _, d := range m.docs {
		if d.Status == game.StatusEnded || !d.ExpiresAt.After(now) {
			continue
		}
		d.State = slices.Clone(d.State)
		out = append(out, &d)
	}
	slices.SortFunc(out, func(a, b *Document) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})
	return out, nil
}

func (m *MemoryRepository) SaveIfVersionMatches(_ context.Context, doc *Document, expected int64) error {
	if err := checkVersion(doc, expected); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.docs[doc.SessionID]; ok && cur.Version != expected {
		return fmt.Errorf("session %s stored at %d, expected %d: %w", doc.SessionID, cur.Version, expected, game.ErrStaleVersion)
	}
	d := *doc
	d.State = slices.Clone(doc.State)
	m.docs[doc.SessionID] = d
	return nil
}

func (m *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, d := range m.docs {
		if d.ExpiresAt.Before(now) {
			delete(m.docs, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, sessionID)
	return nil
}
