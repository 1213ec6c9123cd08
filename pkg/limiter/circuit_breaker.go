package limiter

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig holds circuit breaker configuration
type BreakerConfig struct {
	MaxRequests uint32        `json:"max_requests" yaml:"max_requests"`
	Interval    time.Duration `json:"interval" yaml:"interval"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultBreakerConfig returns a default circuit breaker configuration
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
	}
}

// BreakerManager maintains one circuit breaker per model. An open breaker
// fails an attempt immediately; the retry/fallback chain treats that like
// any other attempt failure.
type BreakerManager struct {
	breakers map[string]*gobreaker.CircuitBreaker
	config   BreakerConfig
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewBreakerManager creates a new breaker manager
func NewBreakerManager(config BreakerConfig, logger *zap.Logger) *BreakerManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreakerManager{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		config:   config,
		logger:   logger,
	}
}

// Execute runs fn through the model's circuit breaker
func (bm *BreakerManager) Execute(modelID string, fn func() (interface{}, error)) (interface{}, error) {
	return bm.breakerFor(modelID).Execute(fn)
}

func (bm *BreakerManager) breakerFor(modelID string) *gobreaker.CircuitBreaker {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if breaker, ok := bm.breakers[modelID]; ok {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        modelID,
		MaxRequests: bm.config.MaxRequests,
		Interval:    bm.config.Interval,
		Timeout:     bm.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Open once failure rate exceeds 50% over at least 5 requests
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			bm.logger.Warn("circuit breaker state change",
				zap.String("model", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	bm.breakers[modelID] = breaker
	return breaker
}
