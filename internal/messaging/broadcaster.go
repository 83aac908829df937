package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/pixil98/go-bunker/internal/clock"
	"github.com/pixil98/go-bunker/internal/game"
)

// Kind is the type of a broadcast envelope.
type Kind string

const (
	KindState Kind = "state"
	KindLog   Kind = "log"
	KindTimer Kind = "timer"
)

// Envelope is the JSON document delivered to session subscribers.
type Envelope struct {
	Type      Kind            `json:"type"`
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}

// TimerPayload is the lightweight clock sync message.
type TimerPayload struct {
	TimerSeconds     int         `json:"timerSeconds"`
	WorldDay         int64       `json:"worldDay"`
	WorldTimeMinutes int64       `json:"worldTimeMinutes"`
	Phase            clock.Phase `json:"phase"`
}

// Publisher sends raw bytes to a subject.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Broadcaster fans session updates out to every subscriber of the session.
type Broadcaster struct {
	pub      Publisher
	logLimit int
}

// NewBroadcaster caps state snapshots to the last logLimit log entries.
func NewBroadcaster(pub Publisher, logLimit int) *Broadcaster {
	return &Broadcaster{pub: pub, logLimit: logLimit}
}

// Subject returns the subject a session's updates are published on.
func Subject(sessionID string) string {
	return "session." + sessionID
}

// Publish wraps payload in an envelope and sends it to the session subject.
func (b *Broadcaster) Publish(sessionID string, kind Kind, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling %s payload: %w", kind, err)
	}
	data, err := json.Marshal(Envelope{Type: kind, SessionID: sessionID, Payload: raw})
	if err != nil {
		return fmt.Errorf("marshalling envelope: %w", err)
	}
	if err := b.pub.Publish(Subject(sessionID), data); err != nil {
		return fmt.Errorf("publishing %s for session %s: %w", kind, sessionID, err)
	}
	return nil
}

// State publishes a full snapshot. The snapshot's log is trimmed; s itself is
// not modified.
func (b *Broadcaster) State(s *game.SessionState) error {
	view := *s
	view.Log = s.LogTail(b.logLimit)
	return b.Publish(s.SessionID, KindState, &view)
}

// Log publishes a single log entry.
func (b *Broadcaster) Log(sessionID string, e game.LogEntry) error {
	return b.Publish(sessionID, KindLog, e)
}

// Timer publishes a clock sync.
func (b *Broadcaster) Timer(sessionID string, t TimerPayload) error {
	return b.Publish(sessionID, KindTimer, t)
}
