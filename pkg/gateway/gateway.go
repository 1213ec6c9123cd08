package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillpath/gateway/pkg/adapters"
	"github.com/skillpath/gateway/pkg/cache"
	"github.com/skillpath/gateway/pkg/core"
	"github.com/skillpath/gateway/pkg/ledger"
	"github.com/skillpath/gateway/pkg/limiter"
	"github.com/skillpath/gateway/pkg/metrics"
	"github.com/skillpath/gateway/pkg/registry"
	"github.com/skillpath/gateway/pkg/retry"
	"github.com/skillpath/gateway/pkg/tracing"
)

// CostLedger is the slice of the ledger the orchestrator consumes. The
// in-memory ledger is the default; a persistent implementation can be
// substituted without touching orchestration.
type CostLedger interface {
	Record(e ledger.Entry) ledger.Entry
	WithinLimits() ledger.BudgetStatus
	RemainingBudget() ledger.RemainingBudget
	Summary(start, end *time.Time) ledger.Summary
	Trend(days int) []ledger.DayCost
}

// ResponseCache is the slice of the response cache the orchestrator consumes
type ResponseCache interface {
	Get(key string) (*cache.Entry, bool)
	Set(key string, result core.Result, cost float64)
	Clear()
	Size() int
	Enabled() bool
	Stats() cache.Stats
}

// Request describes one invocation. Use NewRequest to get the default
// cache and retry behavior.
type Request struct {
	Operation core.Operation
	Model     string
	// Fallback overrides the registry-configured fallback when set
	Fallback string
	Payload  core.Payload
	UseCache bool
	Retry    bool
	UserID   string
}

// NewRequest builds a request with caching and retries enabled
func NewRequest(op core.Operation, model string, payload core.Payload) Request {
	return Request{
		Operation: op,
		Model:     model,
		Payload:   payload,
		UseCache:  true,
		Retry:     true,
	}
}

// Config holds orchestrator configuration
type Config struct {
	Retry   retry.Policy          `json:"retry" yaml:"retry"`
	Breaker limiter.BreakerConfig `json:"breaker" yaml:"breaker"`
}

// DefaultConfig returns a default orchestrator configuration
func DefaultConfig() Config {
	return Config{
		Retry:   retry.DefaultPolicy(),
		Breaker: limiter.DefaultBreakerConfig(),
	}
}

// Resolver maps a model family to its adapter
type Resolver func(registry.Family) (adapters.Adapter, error)

// Gateway brokers all calls to the external inference API: budget admission,
// response caching, retries with backoff, primary/fallback substitution, and
// cost recording compose into one call contract.
type Gateway struct {
	registry *registry.Registry
	ledger   CostLedger
	cache    ResponseCache
	config   Config
	resolve  Resolver
	limiter  *limiter.RateLimiter
	breakers *limiter.BreakerManager
	metrics  *metrics.Metrics
	tracer   *tracing.Tracer
	logger   *zap.Logger
}

// Option customizes gateway construction
type Option func(*Gateway)

// WithResolver substitutes the adapter resolution function
func WithResolver(r Resolver) Option {
	return func(g *Gateway) { g.resolve = r }
}

// WithMetrics attaches Prometheus collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithTracer attaches an OpenTelemetry tracer
func WithTracer(t *tracing.Tracer) Option {
	return func(g *Gateway) { g.tracer = t }
}

// New creates a gateway. Ledger and cache instances are injected and shared;
// the gateway itself holds no ambient global state.
func New(reg *registry.Registry, led CostLedger, resCache ResponseCache, config Config, logger *zap.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Gateway{
		registry: reg,
		ledger:   led,
		cache:    resCache,
		config:   config,
		resolve:  adapters.ForFamily,
		limiter:  limiter.NewRateLimiter(),
		breakers: limiter.NewBreakerManager(config.Breaker, logger),
		tracer:   tracing.NewNopTracer(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Invoke performs one generation call. Cache hits return immediately with
// the originally recorded cost; cache misses pass budget admission before
// any external call, then run the retry/fallback chain.
func (g *Gateway) Invoke(ctx context.Context, req Request) (core.Response, error) {
	started := time.Now()
	ctx, span := g.tracer.StartInvokeSpan(ctx, req.Model, string(req.Operation))
	defer span.End()

	primary := g.registry.FindModel(req.Model)
	if primary == nil {
		g.observe(req, "error", started)
		return core.Response{}, fmt.Errorf("%w: %s", ErrUnknownModel, req.Model)
	}

	// Cache key is always derived from the primary model, so a fallback-served
	// response still answers future requests for the primary.
	key := cache.Key(req.Model, req.Operation, req.Payload)
	if req.UseCache {
		if entry, ok := g.cache.Get(key); ok {
			if g.metrics != nil {
				g.metrics.CacheHitsTotal.Inc()
			}
			g.observe(req, "cached", started)
			return core.Response{
				Result:    entry.Result,
				Model:     req.Model,
				RequestID: uuid.NewString(),
				Cached:    true,
				Cost:      entry.Cost,
			}, nil
		}
		if g.metrics != nil {
			g.metrics.CacheMissesTotal.Inc()
		}
	}

	// Admission control: reject before any network call once a budget is
	// exhausted. Cache hits above deliberately bypass this check.
	if status := g.ledger.WithinLimits(); !status.Daily || !status.Monthly {
		if g.metrics != nil {
			g.metrics.AdmissionDeniedTotal.WithLabelValues(req.Model).Inc()
		}
		g.observe(req, "denied", started)
		if !status.Daily {
			return core.Response{}, fmt.Errorf("%w: daily budget exhausted", ErrAdmissionDenied)
		}
		return core.Response{}, fmt.Errorf("%w: monthly budget exhausted", ErrAdmissionDenied)
	}

	result, served, err := g.invokeWithFallback(ctx, primary, req)
	if err != nil {
		g.observe(req, "error", started)
		return core.Response{}, err
	}

	entry := g.ledger.Record(ledger.Entry{
		Model:       served.ID,
		Operation:   req.Operation,
		InputUnits:  result.Usage.InputUnits,
		OutputUnits: result.Usage.OutputUnits,
		ImageCount:  result.Usage.ImageCount,
		RequestID:   uuid.NewString(),
		UserID:      req.UserID,
	})

	if req.UseCache {
		g.cache.Set(key, result, entry.Cost)
	}

	if g.metrics != nil {
		g.metrics.ObserveUsage(served.ID, string(req.Operation),
			result.Usage.InputUnits, result.Usage.OutputUnits, entry.Cost)
	}
	g.observe(req, "success", started)

	return core.Response{
		Result:    result,
		Model:     served.ID,
		RequestID: entry.RequestID,
		Cached:    false,
		Cost:      entry.Cost,
	}, nil
}

// EmbedText runs the embedding path for a single text unit. The analytics
// layer fans out over this.
func (g *Gateway) EmbedText(ctx context.Context, model, text, userID string) (core.Response, error) {
	req := NewRequest(core.OperationEmbedding, model, core.Payload{Input: text})
	req.UserID = userID
	return g.Invoke(ctx, req)
}

// invokeWithFallback runs the retry chain against the primary model and, on
// exhaustion, once more against the fallback. The fallback's terminal error
// is the one that propagates.
func (g *Gateway) invokeWithFallback(ctx context.Context, primary *registry.ModelConfig, req Request) (core.Result, *registry.ModelConfig, error) {
	result, primaryErr := g.invokeModel(ctx, primary, req)
	if primaryErr == nil {
		return result, primary, nil
	}

	fallbackID := req.Fallback
	if fallbackID == "" {
		fallbackID = primary.Fallback
	}
	if fallbackID == "" {
		return core.Result{}, nil, primaryErr
	}

	fallback := g.registry.FindModel(fallbackID)
	if fallback == nil {
		g.logger.Warn("configured fallback model not registered",
			zap.String("primary", primary.ID),
			zap.String("fallback", fallbackID))
		return core.Result{}, nil, primaryErr
	}

	g.logger.Info("primary model exhausted, substituting fallback",
		zap.String("primary", primary.ID),
		zap.String("fallback", fallback.ID),
		zap.Error(primaryErr))
	if g.metrics != nil {
		g.metrics.FallbacksTotal.WithLabelValues(primary.ID, fallback.ID).Inc()
	}

	result, fallbackErr := g.invokeModel(ctx, fallback, req)
	if fallbackErr != nil {
		return core.Result{}, nil, fallbackErr
	}
	return result, fallback, nil
}

// invokeModel runs the full retry budget against one model and wraps the
// terminal failure in an ExhaustedError
func (g *Gateway) invokeModel(ctx context.Context, mc *registry.ModelConfig, req Request) (core.Result, error) {
	adapter, err := g.resolve(mc.Family)
	if err != nil {
		return core.Result{}, err
	}

	var result core.Result
	attempts := 0

	attempt := func(ctx context.Context) error {
		aCtx, span := g.tracer.StartAttemptSpan(ctx, mc.ID, attempts)
		defer span.End()

		if attempts > 0 && g.metrics != nil {
			g.metrics.RetriesTotal.WithLabelValues(mc.ID).Inc()
		}
		attempts++

		if err := g.limiter.Wait(aCtx, *mc); err != nil {
			return err
		}

		out, err := g.breakers.Execute(mc.ID, func() (interface{}, error) {
			return adapter.Invoke(aCtx, *mc, req.Operation, req.Payload)
		})
		if err != nil {
			g.logger.Debug("model attempt failed",
				zap.String("model", mc.ID),
				zap.Int("attempt", attempts-1),
				zap.Error(err))
			return err
		}
		result = out.(core.Result)
		return nil
	}

	if req.Retry {
		err = g.config.Retry.Do(ctx, attempt)
	} else {
		err = attempt(ctx)
	}
	if err != nil {
		return core.Result{}, &ExhaustedError{Model: mc.ID, Attempts: attempts, Err: err}
	}
	return result, nil
}

func (g *Gateway) observe(req Request, status string, started time.Time) {
	if g.metrics == nil {
		return
	}
	g.metrics.ObserveRequest(req.Model, string(req.Operation), status, time.Since(started))
}
