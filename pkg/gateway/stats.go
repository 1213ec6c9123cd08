package gateway

import (
	"github.com/skillpath/gateway/pkg/cache"
	"github.com/skillpath/gateway/pkg/core"
	"github.com/skillpath/gateway/pkg/ledger"
	"github.com/skillpath/gateway/pkg/registry"
)

// Stats is the read-only introspection surface exposed to collaborators
type Stats struct {
	Cache      cache.Stats            `json:"cache"`
	Costs      ledger.Summary         `json:"costs"`
	Remaining  ledger.RemainingBudget `json:"remaining_budget"`
	Trend      []ledger.DayCost       `json:"trend"`
	Models     []string               `json:"models"`
	Families   []registry.Family      `json:"families"`
	Operations []core.Operation       `json:"operations"`
}

// Stats reports cache state, the current-month cost summary, remaining
// budget, and a trailing cost trend alongside the supported model surface
func (g *Gateway) Stats(trendDays int) Stats {
	return Stats{
		Cache:      g.cache.Stats(),
		Costs:      g.ledger.Summary(nil, nil),
		Remaining:  g.ledger.RemainingBudget(),
		Trend:      g.ledger.Trend(trendDays),
		Models:     g.registry.ModelIDs(),
		Families:   registry.Families(),
		Operations: core.Operations(),
	}
}

// ClearCache drops all cached responses
func (g *Gateway) ClearCache() {
	g.cache.Clear()
}
