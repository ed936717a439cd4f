// Package ratelimit provides token-bucket rate limiters for calls to the
// release hosting service.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Endpoint classes. Each has its own bucket so a burst of API lookups never
// delays the asset upload.
const (
	API      = "api"
	Download = "download"
	Upload   = "upload"
)

// Rates configures per-endpoint-class request rates (requests per second).
type Rates struct {
	API      float64
	Download float64
	Upload   float64
}

// DefaultRates stays well under the hosting service's secondary limits.
func DefaultRates() Rates {
	return Rates{
		API:      10,
		Download: 5,
		Upload:   1,
	}
}

// Limiter rate-limits outbound calls per endpoint class using token buckets.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// New creates a limiter with the given per-class rates. A rate of zero or
// less leaves that class unlimited.
func New(rates Rates) *Limiter {
	limiters := make(map[string]*rate.Limiter, 3)
	for class, r := range map[string]float64{API: rates.API, Download: rates.Download, Upload: rates.Upload} {
		if r <= 0 {
			continue
		}
		limiters[class] = rate.NewLimiter(rate.Limit(r), max(1, int(r)))
	}
	return &Limiter{limiters: limiters}
}

// Wait blocks until a token is available for the class, or ctx is cancelled.
// A nil Limiter never blocks.
func (l *Limiter) Wait(ctx context.Context, class string) error {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	limiter, ok := l.limiters[class]
	l.mu.RUnlock()
	if !ok {
		return nil // unknown class = no limit
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", class, err)
	}
	return nil
}
