package command

import (
	"fmt"

	"github.com/pixil98/go-bunker/internal/listener"
	"github.com/pixil98/go-bunker/internal/session"
	"github.com/pixil98/go-errors"
)

type HTTPConfig struct {
	Addr      string           `json:"addr"`
	LogLimit  int              `json:"log_limit"`
	RateLimit *RateLimitConfig `json:"rate_limit,omitempty"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

func (c *HTTPConfig) validate() error {
	el := errors.NewErrorList()

	if c.Addr == "" {
		el.Add(fmt.Errorf("http: addr is required"))
	}
	if c.LogLimit < 0 {
		el.Add(fmt.Errorf("http: log_limit must not be negative"))
	}
	if rl := c.RateLimit; rl != nil {
		if rl.RequestsPerSecond <= 0 {
			el.Add(fmt.Errorf("http: rate_limit.requests_per_second must be positive"))
		}
		if rl.Burst <= 0 {
			el.Add(fmt.Errorf("http: rate_limit.burst must be positive"))
		}
	}

	return el.Err()
}

func (c *HTTPConfig) logLimit() int {
	if c.LogLimit == 0 {
		return 50
	}
	return c.LogLimit
}

func (c *HTTPConfig) BuildListener(store *session.Store, bus listener.Subscriber) *listener.HTTPListener {
	opts := []listener.APIOpt{listener.WithLogLimit(c.logLimit())}
	if c.RateLimit != nil {
		opts = append(opts, listener.WithRateLimit(c.RateLimit.RequestsPerSecond, c.RateLimit.Burst))
	}
	api := listener.NewAPI(store, bus, opts...)
	return listener.NewHTTPListener(c.Addr, api.Handler())
}
