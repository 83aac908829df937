package game

import (
	"github.com/google/uuid"
)

// LogKind groups session log entries for clients.
type LogKind string

const (
	LogSystem  LogKind = "system"
	LogEvent   LogKind = "event"
	LogAction  LogKind = "action"
	LogMove    LogKind = "move"
	LogBattle  LogKind = "battle"
	LogTrade   LogKind = "trade"
	LogDaily   LogKind = "daily"
	LogPlayers LogKind = "players"
)

// LogEntry is one line of the append-only session log.
type LogEntry struct {
	ID          string  `json:"id"`
	Kind        LogKind `json:"kind"`
	PlayerID    string  `json:"playerId,omitempty"`
	WorldTimeMs int64   `json:"worldTimeMs"`
	WorldDay    int64   `json:"worldDay"`
	Text        string  `json:"text"`
}

// AppendLog adds an entry stamped with the session's current lore time and
// returns it.
func (s *SessionState) AppendLog(kind LogKind, playerID, text string) LogEntry {
	e := LogEntry{
		ID:          uuid.New().String(),
		Kind:        kind,
		PlayerID:    playerID,
		WorldTimeMs: s.WorldTimeMs,
		WorldDay:    s.WorldDay,
		Text:        text,
	}
	s.Log = append(s.Log, e)
	return e
}

// LogTail returns the last n log entries.
func (s *SessionState) LogTail(n int) []LogEntry {
	if n <= 0 || len(s.Log) <= n {
		return s.Log
	}
	return s.Log[len(s.Log)-n:]
}
