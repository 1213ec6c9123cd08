package analytics

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/skillpath/gateway/pkg/vector"
)

// Match is one scored document in a search result
type Match struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// SearchResult holds the ranked matches and the total embedding spend for
// the call: the query embedding plus every successful document embedding.
type SearchResult struct {
	Matches   []Match `json:"matches"`
	TotalCost float64 `json:"total_cost"`
}

// Search embeds the query once and every document independently, ranks
// documents by cosine similarity to the query, keeps those at or above the
// threshold, and truncates to topK. Document embedding failures are dropped
// from the ranking; a query embedding failure fails the whole call.
func (e *Engine) Search(ctx context.Context, query string, documents []Item, topK int, threshold float64) (SearchResult, error) {
	if query == "" {
		return SearchResult{}, fmt.Errorf("%w: query is empty", ErrValidation)
	}
	if topK <= 0 {
		return SearchResult{}, fmt.Errorf("%w: topK must be positive, got %d", ErrValidation, topK)
	}
	if err := validateBatch(documents); err != nil {
		return SearchResult{}, err
	}

	queryResp, err := e.embedder.EmbedText(ctx, e.model, query, "")
	if err != nil {
		return SearchResult{}, fmt.Errorf("query embedding failed: %w", err)
	}

	embedded, docCost := e.embedAll(ctx, documents, "")
	totalCost := queryResp.Cost + docCost

	matches := make([]Match, 0, len(embedded))
	for _, doc := range embedded {
		score, err := vector.Cosine(queryResp.Embedding, doc.vector)
		if err != nil {
			e.logger.Warn("dropping document from ranking",
				zap.String("id", doc.id),
				zap.Error(err))
			continue
		}
		if score >= threshold {
			matches = append(matches, Match{ID: doc.id, Score: score})
		}
	}

	// Stable sort keeps original document order on score ties
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}

	return SearchResult{Matches: matches, TotalCost: totalCost}, nil
}
