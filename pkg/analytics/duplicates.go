package analytics

import (
	"context"

	"go.uber.org/zap"

	"github.com/skillpath/gateway/pkg/vector"
)

// DuplicateGroup is a set of items whose pairwise similarity to the group's
// first-seen representative meets the threshold. Members lists the
// representative first; every group has at least two members.
type DuplicateGroup struct {
	Representative string   `json:"representative"`
	Members        []string `json:"members"`
}

// FindDuplicates embeds all items and greedily groups them: each not-yet-
// grouped item collects every later not-yet-grouped item whose cosine
// similarity meets the threshold (single link, first-seen representative).
// Singleton groups are omitted. Items whose embedding fails are dropped
// before comparison.
func (e *Engine) FindDuplicates(ctx context.Context, items []Item, threshold float64) ([]DuplicateGroup, error) {
	if err := validateBatch(items); err != nil {
		return nil, err
	}

	embedded, _ := e.embedAll(ctx, items, "")

	grouped := make([]bool, len(embedded))
	var groups []DuplicateGroup

	for i := range embedded {
		if grouped[i] {
			continue
		}

		members := []string{embedded[i].id}
		for j := i + 1; j < len(embedded); j++ {
			if grouped[j] {
				continue
			}
			score, err := vector.Cosine(embedded[i].vector, embedded[j].vector)
			if err != nil {
				e.logger.Warn("skipping pair in duplicate scan",
					zap.String("a", embedded[i].id),
					zap.String("b", embedded[j].id),
					zap.Error(err))
				continue
			}
			if score >= threshold {
				members = append(members, embedded[j].id)
				grouped[j] = true
			}
		}

		if len(members) > 1 {
			grouped[i] = true
			groups = append(groups, DuplicateGroup{
				Representative: embedded[i].id,
				Members:        members,
			})
		}
	}

	return groups, nil
}
