package limiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/skillpath/gateway/pkg/registry"
)

// RateLimiter manages per-model request-rate limiters protecting the
// external inference API
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the model's limiter permits a request or the context is
// cancelled. Models without a configured MaxRPM are never throttled.
func (rl *RateLimiter) Wait(ctx context.Context, mc registry.ModelConfig) error {
	if mc.MaxRPM <= 0 {
		return nil
	}
	return rl.limiterFor(mc).Wait(ctx)
}

func (rl *RateLimiter) limiterFor(mc registry.ModelConfig) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limiters[mc.ID]; ok {
		return limiter
	}

	rps := float64(mc.MaxRPM) / 60.0
	burst := mc.MaxRPM / 10
	if burst < 1 {
		burst = 1
	}

	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	rl.limiters[mc.ID] = limiter
	return limiter
}
