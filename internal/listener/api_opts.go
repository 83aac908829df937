package listener

import "golang.org/x/time/rate"

type APIOpt func(*API)

// WithLogLimit caps the log entries sent in stream snapshots.
func WithLogLimit(n int) APIOpt {
	return func(a *API) {
		a.logLimit = n
	}
}

// WithRateLimit limits every client address to rps requests per second with
// the given burst.
func WithRateLimit(rps float64, burst int) APIOpt {
	return func(a *API) {
		a.limiter = newIPLimiter(rate.Limit(rps), burst)
	}
}
