package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pixil98/go-bunker/internal/game"
)

// SQLite stores session documents in a single SQLite table.
type SQLite struct {
	conn *sqlx.DB
}

// row is the table layout. Times are unix milliseconds so range queries
// compare integers.
type row struct {
	SessionID      string `db:"session_id"`
	State          []byte `db:"state"`
	Status         string `db:"status"`
	Version        int64  `db:"version"`
	LastRealTickAt int64  `db:"last_real_tick_at"`
	UpdatedAt      int64  `db:"updated_at"`
	ExpiresAt      int64  `db:"expires_at"`
}

func toRow(d *Document) row {
	return row{
		SessionID:      d.SessionID,
		State:          d.State,
		Status:         string(d.Status),
		Version:        d.Version,
		LastRealTickAt: d.LastRealTickAt.UnixMilli(),
		UpdatedAt:      d.UpdatedAt.UnixMilli(),
		ExpiresAt:      d.ExpiresAt.UnixMilli(),
	}
}

func (r row) document() *Document {
	return &Document{
		SessionID:      r.SessionID,
		State:          r.State,
		Status:         game.SessionStatus(r.Status),
		Version:        r.Version,
		LastRealTickAt: time.UnixMilli(r.LastRealTickAt).UTC(),
		UpdatedAt:      time.UnixMilli(r.UpdatedAt).UTC(),
		ExpiresAt:      time.UnixMilli(r.ExpiresAt).UTC(),
	}
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &SQLite{conn: conn}
	if err := db.migrate(); err != nil {
		if cerr := conn.Close(); cerr != nil {
			slog.Warn("closing db after failed migration", "error", cerr)
		}
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *SQLite) Close() error {
	return db.conn.Close()
}

func (db *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		state BLOB NOT NULL,
		status TEXT NOT NULL,
		version INTEGER NOT NULL,
		last_real_tick_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func (db *SQLite) Load(ctx context.Context, sessionID string) (*Document, error) {
	var r row
	err := db.conn.GetContext(ctx, &r, "SELECT * FROM sessions WHERE session_id = ?", sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %q: %w", sessionID, game.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	return r.document(), nil
}

func (db *SQLite) LoadActive(ctx context.Context, now time.Time) ([]*Document, error) {
	var rows []row
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT * FROM sessions WHERE status != ? AND expires_at > ? ORDER BY updated_at",
		string(game.StatusEnded), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("loading active sessions: %w", err)
	}

	docs := make([]*Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.document())
	}
	return docs, nil
}

const upsert = `
INSERT INTO sessions (session_id, state, status, version, last_real_tick_at, updated_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
	state = excluded.state,
	status = excluded.status,
	version = excluded.version,
	last_real_tick_at = excluded.last_real_tick_at,
	updated_at = excluded.updated_at,
	expires_at = excluded.expires_at
WHERE sessions.version = ?`

func (db *SQLite) SaveIfVersionMatches(ctx context.Context, doc *Document, expected int64) error {
	if err := checkVersion(doc, expected); err != nil {
		return err
	}

	r := toRow(doc)
	res, err := db.conn.ExecContext(ctx, upsert,
		r.SessionID, r.State, r.Status, r.Version, r.LastRealTickAt, r.UpdatedAt, r.ExpiresAt, expected)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", doc.SessionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving session %s: %w", doc.SessionID, err)
	}
	if n == 0 {
		return fmt.Errorf("session %s expected at %d: %w", doc.SessionID, expected, game.ErrStaleVersion)
	}
	return nil
}

func (db *SQLite) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	return res.RowsAffected()
}

func (db *SQLite) Delete(ctx context.Context, sessionID string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	return nil
}
