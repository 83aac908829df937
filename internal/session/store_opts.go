package session

import (
	"time"

	"github.com/pixil98/go-bunker/internal/events"
)

type StoreOpt func(*Store, []events.ResolverOpt) []events.ResolverOpt

// WithNotifier sets where accepted changes are broadcast.
func WithNotifier(n Notifier) StoreOpt {
	return func(st *Store, eo []events.ResolverOpt) []events.ResolverOpt {
		st.notifier = n
		return eo
	}
}

// WithNow replaces the wall clock.
func WithNow(now func() time.Time) StoreOpt {
	return func(st *Store, eo []events.ResolverOpt) []events.ResolverOpt {
		st.now = now
		return eo
	}
}

// WithIDGenerator replaces the session and player id generator.
func WithIDGenerator(f func() string) StoreOpt {
	return func(st *Store, eo []events.ResolverOpt) []events.ResolverOpt {
		st.newID = f
		return eo
	}
}

// WithRoller replaces the random source used for event rolls.
func WithRoller(r events.Roller) StoreOpt {
	return func(st *Store, eo []events.ResolverOpt) []events.ResolverOpt {
		return append(eo, events.WithRoller(r))
	}
}
