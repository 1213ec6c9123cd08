package analytics

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skillpath/gateway/pkg/core"
)

// MaxBatchSize is the ceiling on text items per batch operation. Exceeding
// it is a validation error, never a silent truncation.
const MaxBatchSize = 25

// ErrValidation marks malformed input rejected before any external call
var ErrValidation = errors.New("validation error")

// Item is one text unit submitted to a batch operation
type Item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Embedder is the embedding path of the invocation gateway
type Embedder interface {
	EmbedText(ctx context.Context, model, text, userID string) (core.Response, error)
}

// Engine runs semantic search, duplicate detection, and clustering over
// embeddings produced by the gateway
type Engine struct {
	embedder    Embedder
	model       string
	concurrency int
	logger      *zap.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// Option customizes engine construction
type Option func(*Engine)

// WithConcurrency bounds the embedding fan-out
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithSeed makes centroid initialization deterministic
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rand = rand.New(rand.NewSource(seed)) }
}

// WithLogger attaches a logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an analytics engine embedding through the given model
func NewEngine(embedder Embedder, model string, opts ...Option) *Engine {
	e := &Engine{
		embedder:    embedder,
		model:       model,
		concurrency: 5,
		logger:      zap.NewNop(),
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model returns the embedding model the engine invokes
func (e *Engine) Model() string {
	return e.model
}

type embedded struct {
	id     string
	vector []float32
	cost   float64
}

// embedAll fans out one embedding call per item with bounded concurrency.
// Failed items are dropped and logged, never fatal to the batch; survivors
// keep their input order. The returned cost sums successful calls only.
func (e *Engine) embedAll(ctx context.Context, items []Item, userID string) ([]embedded, float64) {
	slots := make([]*embedded, len(items))

	var group errgroup.Group
	group.SetLimit(e.concurrency)

	for i, item := range items {
		i, item := i, item
		group.Go(func() error {
			resp, err := e.embedder.EmbedText(ctx, e.model, item.Text, userID)
			if err != nil {
				e.logger.Warn("dropping item from batch, embedding failed",
					zap.String("id", item.ID),
					zap.Error(err))
				return nil
			}
			slots[i] = &embedded{
				id:     item.ID,
				vector: resp.Embedding,
				cost:   resp.Cost,
			}
			return nil
		})
	}
	_ = group.Wait()

	var out []embedded
	var cost float64
	for _, slot := range slots {
		if slot != nil {
			out = append(out, *slot)
			cost += slot.cost
		}
	}
	return out, cost
}

// validateBatch rejects empty and oversized batches and blank items
func validateBatch(items []Item) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: batch is empty", ErrValidation)
	}
	if len(items) > MaxBatchSize {
		return fmt.Errorf("%w: batch of %d exceeds ceiling of %d", ErrValidation, len(items), MaxBatchSize)
	}
	for _, item := range items {
		if item.Text == "" {
			return fmt.Errorf("%w: item %q has empty text", ErrValidation, item.ID)
		}
	}
	return nil
}
