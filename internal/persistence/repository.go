// Package persistence stores session documents with optimistic versioning.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pixil98/go-bunker/internal/game"
)

// Document is the durable form of one session.
type Document struct {
	SessionID      string             `json:"sessionId"`
	State          json.RawMessage    `json:"state"`
	Status         game.SessionStatus `json:"status"`
	Version        int64              `json:"version"`
	LastRealTickAt time.Time          `json:"lastRealTickAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	ExpiresAt      time.Time          `json:"expiresAt"`
}

// NewDocument serializes the session.
func NewDocument(s *game.SessionState) (*Document, error) {
	state, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshalling session %s: %w", s.SessionID, err)
	}
	return &Document{
		SessionID:      s.SessionID,
		State:          state,
		Status:         s.Status,
		Version:        s.Version,
		LastRealTickAt: s.LastRealTickAt,
		UpdatedAt:      s.UpdatedAt,
		ExpiresAt:      s.ExpiresAt,
	}, nil
}

// Decode restores the session from the document.
func (d *Document) Decode() (*game.SessionState, error) {
	s := &game.SessionState{}
	if err := json.Unmarshal(d.State, s); err != nil {
		return nil, fmt.Errorf("unmarshalling session %s: %w", d.SessionID, err)
	}
	return s, nil
}

// Repository is the durable session table. Implementations must be safe for
// concurrent use.
type Repository interface {
	// Load returns the stored document or game.ErrSessionNotFound.
	Load(ctx context.Context, sessionID string) (*Document, error)
	// LoadActive returns every document that is not ended and not expired at now.
	LoadActive(ctx context.Context, now time.Time) ([]*Document, error)
	// SaveIfVersionMatches writes doc only when the stored version equals
	// expected, or when no row exists yet. Otherwise it returns
	// game.ErrStaleVersion.
	SaveIfVersionMatches(ctx context.Context, doc *Document, expected int64) error
	// DeleteExpired removes every document whose expiry is before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Delete(ctx context.Context, sessionID string) error
}

func checkVersion(doc *Document, expected int64) error {
	if doc.Version <= expected {
		return fmt.Errorf("session %s version %d not newer than %d: %w", doc.SessionID, doc.Version, expected, game.ErrStaleVersion)
	}
	return nil
}
