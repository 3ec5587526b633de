package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

const (
	EndpointAirports = "airports"
	EndpointFlights  = "flights"
)

// EndpointLimiter keeps one token bucket per upstream endpoint so a burst
// of autocomplete traffic cannot starve flight searches of provider quota.
type EndpointLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	defaults Config
}

type Config struct {
	RequestsPerSecond float64
	BurstSize         int
}

func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 5,
		BurstSize:         10,
	}
}

func New(cfg Config) *EndpointLimiter {
	return &EndpointLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: cfg,
	}
}

func (l *EndpointLimiter) limiter(endpoint string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[endpoint]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok = l.limiters[endpoint]; ok {
		return lim
	}
	lim = rate.NewLimiter(rate.Limit(l.defaults.RequestsPerSecond), l.defaults.BurstSize)
	l.limiters[endpoint] = lim
	return lim
}

func (l *EndpointLimiter) SetLimit(endpoint string, rps float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limiters[endpoint] = rate.NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until endpoint has a free token or ctx is done.
func (l *EndpointLimiter) Wait(ctx context.Context, endpoint string) error {
	return l.limiter(endpoint).Wait(ctx)
}
