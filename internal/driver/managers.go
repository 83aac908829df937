package driver

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// TimerSource broadcasts clock syncs for every running session.
type TimerSource interface {
	TimerSync(ctx context.Context) int
}

// TimerSync publishes the countdown of every active session on each tick.
type TimerSync struct {
	src TimerSource
}

func NewTimerSync(src TimerSource) *TimerSync {
	return &TimerSync{src: src}
}

func (m *TimerSync) Tick(ctx context.Context) error {
	n := m.src.TimerSync(ctx)
	slog.DebugContext(ctx, "timer sync", "sessions", n)
	return nil
}

// Cleaner removes expired sessions from storage and memory.
type Cleaner interface {
	Cleanup(ctx context.Context) (deleted int64, evicted int, err error)
}

// CleanupScheduler runs session cleanup. A failed run is logged and retried
// on the next tick.
type CleanupScheduler struct {
	cleaner  Cleaner
	interval time.Duration
	now      func() time.Time
}

func NewCleanupScheduler(c Cleaner, interval time.Duration) *CleanupScheduler {
	return &CleanupScheduler{cleaner: c, interval: interval, now: time.Now}
}

func (m *CleanupScheduler) Tick(ctx context.Context) error {
	started := m.now()
	deleted, evicted, err := m.cleaner.Cleanup(ctx)
	next := humanize.Time(started.Add(m.interval))
	if err != nil {
		slog.ErrorContext(ctx, "session cleanup failed", "error", err, "next_run", next)
		return nil
	}

	slog.InfoContext(ctx, "session cleanup",
		"deleted", humanize.Comma(deleted),
		"evicted", humanize.Comma(int64(evicted)),
		"took", m.now().Sub(started).String(),
		"next_run", next,
	)
	return nil
}
