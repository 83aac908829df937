package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/go-bunker/internal/driver"
	"github.com/pixil98/go-bunker/internal/messaging"
	"github.com/pixil98/go-bunker/internal/session"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	dict, err := cfg.Storage.BuildDictionary()
	if err != nil {
		return nil, fmt.Errorf("building dictionary: %w", err)
	}

	repo, closeRepo, err := cfg.Persistence.BuildRepository()
	if err != nil {
		return nil, fmt.Errorf("building repository: %w", err)
	}

	bus, err := cfg.Bus.buildBus()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating message bus: %w", err), closeRepo())
	}

	persister := session.NewPersister(repo, cfg.Persistence.flushInterval())
	store := session.NewStore(cfg.Engine.SessionConfig(), dict, repo, persister,
		session.WithNotifier(messaging.NewBroadcaster(bus, cfg.HTTP.logLimit())),
	)

	n, err := store.Recover(context.Background())
	if err != nil {
		bus.Close()
		return nil, errors.Join(fmt.Errorf("recovering sessions: %w", err), closeRepo())
	}
	slog.Info("recovered sessions", "count", n)

	timers := driver.NewDriver("timers", []driver.Manager{
		driver.NewTimerSync(store),
	}, driver.WithTickLength(durationOr(cfg.TimerSyncInterval, driver.DefaultTickLength)))

	cleanupInterval := durationOr(cfg.CleanupInterval, time.Hour)
	cleanup := driver.NewDriver("cleanup", []driver.Manager{
		driver.NewCleanupScheduler(store, cleanupInterval),
	},
		driver.WithTickLength(cleanupInterval),
		driver.WithTickTimeout(time.Minute),
		driver.WithImmediateTick(),
	)

	return service.WorkerList{
		"bus":       bus,
		"persister": &persisterWorker{persister: persister, close: closeRepo},
		"timers":    &afterReady{wait: bus.WaitReady, worker: timers},
		"cleanup":   cleanup,
		"http":      &afterReady{wait: bus.WaitReady, worker: cfg.HTTP.BuildListener(store, bus)},
	}, nil
}

// persisterWorker runs the write-behind loop and releases the repository
// once the final flush is done.
type persisterWorker struct {
	persister *session.Persister
	close     func() error
}

func (w *persisterWorker) Start(ctx context.Context) error {
	err := w.persister.Start(ctx)
	if cerr := w.close(); cerr != nil {
		slog.Error("closing session repository", "error", cerr)
	}
	return err
}

// afterReady holds a worker back until a dependency is up.
type afterReady struct {
	wait   func(context.Context) error
	worker service.Worker
}

func (w *afterReady) Start(ctx context.Context) error {
	if err := w.wait(ctx); err != nil {
		// Shutdown before the dependency came up.
		return nil
	}
	return w.worker.Start(ctx)
}
