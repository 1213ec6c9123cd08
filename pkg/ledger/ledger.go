package ledger

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillpath/gateway/pkg/core"
	"github.com/skillpath/gateway/pkg/registry"
)

// DefaultRetention is how long entries are kept before the sweep purges them
const DefaultRetention = 90 * 24 * time.Hour

// Ledger is an append-only, in-memory record of metered operations. It
// computes rolling cost aggregates and emits budget alerts. Record and the
// alert evaluation it triggers are atomic with respect to concurrent calls.
type Ledger struct {
	mu        sync.Mutex
	entries   []Entry
	registry  *registry.Registry
	limits    Limits
	observers []Observer
	logger    *zap.Logger
	now       func() time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewLedger creates a ledger pricing entries against the given registry
func NewLedger(reg *registry.Registry, limits Limits, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		registry: reg,
		limits:   limits,
		logger:   logger,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Subscribe registers an alert observer. Observers are invoked synchronously
// in registration order; a panicking observer is logged, never propagated.
func (l *Ledger) Subscribe(fn Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Record prices the entry if no cost was supplied, appends it, and evaluates
// budget alerts. The completed entry is returned.
func (l *Ledger) Record(e Entry) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	if e.RequestID == "" {
		e.RequestID = uuid.NewString()
	}
	if e.Cost == 0 {
		e.Cost = l.price(e)
	}

	l.entries = append(l.entries, e)
	l.evaluateAlertsLocked()
	return e
}

// price computes the estimated cost from the per-model pricing table.
// An unknown model prices at 0 and logs a warning.
func (l *Ledger) price(e Entry) float64 {
	mc := l.registry.FindModel(e.Model)
	if mc == nil {
		l.logger.Warn("no pricing for model, recording zero cost",
			zap.String("model", e.Model),
			zap.String("operation", string(e.Operation)))
		return 0
	}

	var cost float64
	if e.Operation == core.OperationImage {
		cost = float64(e.ImageCount) * mc.Pricing.PerImage
	} else {
		cost = float64(e.InputUnits)/1000.0*mc.Pricing.InputPer1K +
			float64(e.OutputUnits)/1000.0*mc.Pricing.OutputPer1K
	}

	// Round to 6 decimal places for precision
	return math.Round(cost*1000000) / 1000000
}

// Cost prices a usage against the registry without recording anything.
// Useful for cache-write bookkeeping and pre-flight estimates.
func (l *Ledger) Cost(model string, op core.Operation, usage core.Usage) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.price(Entry{
		Model:       model,
		Operation:   op,
		InputUnits:  usage.InputUnits,
		OutputUnits: usage.OutputUnits,
		ImageCount:  usage.ImageCount,
	})
}

// Summary computes a windowed aggregate. The default window runs from the
// start of the current calendar month through now. DailyCost and MonthlyCost
// are always computed over their own rolling windows.
func (l *Ledger) Summary(start, end *time.Time) Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	from := monthStart(now)
	to := now
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}

	s := Summary{
		Start:        from,
		End:          to,
		PerModel:     make(map[string]float64),
		PerOperation: make(map[core.Operation]float64),
	}

	for _, e := range l.entries {
		if e.Timestamp.Before(from) || e.Timestamp.After(to) {
			continue
		}
		s.TotalCost += e.Cost
		s.PerModel[e.Model] += e.Cost
		s.PerOperation[e.Operation] += e.Cost
		s.RequestCount++
	}
	if s.RequestCount > 0 {
		s.AverageCost = s.TotalCost / float64(s.RequestCount)
	}

	s.DailyCost = l.usedSinceLocked(now.Add(-24 * time.Hour))
	s.MonthlyCost = l.usedSinceLocked(monthStart(now))
	return s
}

// WithinLimits reports whether spend is strictly below each configured limit
func (l *Ledger) WithinLimits() BudgetStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	daily := l.usedSinceLocked(now.Add(-24 * time.Hour))
	monthly := l.usedSinceLocked(monthStart(now))

	return BudgetStatus{
		Daily:   l.limits.Daily <= 0 || daily < l.limits.Daily,
		Monthly: l.limits.Monthly <= 0 || monthly < l.limits.Monthly,
	}
}

// RemainingBudget returns max(0, limit - used) for each configured limit
func (l *Ledger) RemainingBudget() RemainingBudget {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	daily := l.limits.Daily - l.usedSinceLocked(now.Add(-24*time.Hour))
	monthly := l.limits.Monthly - l.usedSinceLocked(monthStart(now))

	return RemainingBudget{
		Daily:   math.Max(0, daily),
		Monthly: math.Max(0, monthly),
	}
}

// ExportEntries returns a copy of the entries within the window, ordered by
// timestamp ascending. Nil bounds leave that side of the window open.
func (l *Ledger) ExportEntries(start, end *time.Time) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Entry
	for _, e := range l.entries {
		if start != nil && e.Timestamp.Before(*start) {
			continue
		}
		if end != nil && e.Timestamp.After(*end) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Trend returns per-day totals for the given number of consecutive calendar
// days ending today. Each day covers [dayStart, dayStart+24h).
func (l *Ledger) Trend(days int) []DayCost {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	trend := make([]DayCost, 0, days)
	for i := days - 1; i >= 0; i-- {
		dayStart := dayStart(now.AddDate(0, 0, -i))
		dayEnd := dayStart.Add(24 * time.Hour)

		day := DayCost{Date: dayStart.Format("2006-01-02")}
		for _, e := range l.entries {
			if !e.Timestamp.Before(dayStart) && e.Timestamp.Before(dayEnd) {
				day.Cost += e.Cost
				day.RequestCount++
			}
		}
		trend = append(trend, day)
	}
	return trend
}

// Purge removes entries older than the cutoff and returns how many were dropped
func (l *Ledger) Purge(olderThan time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	for _, e := range l.entries {
		if !e.Timestamp.Before(olderThan) {
			kept = append(kept, e)
		}
	}
	purged := len(l.entries) - len(kept)
	l.entries = kept
	return purged
}

// StartRetention launches the periodic retention sweep. Entries older than
// the horizon are purged each interval. Stop with Close.
func (l *Ledger) StartRetention(interval, horizon time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := l.Purge(l.now().Add(-horizon)); n > 0 {
					l.logger.Info("retention sweep purged entries", zap.Int("count", n))
				}
			case <-l.stopChan:
				return
			}
		}
	}()
}

// Close stops the retention sweep
func (l *Ledger) Close() {
	l.stopOnce.Do(func() { close(l.stopChan) })
}

// Len returns the number of recorded entries
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// usedSinceLocked sums cost for entries at or after the cutoff. Caller holds mu.
func (l *Ledger) usedSinceLocked(since time.Time) float64 {
	var used float64
	for _, e := range l.entries {
		if !e.Timestamp.Before(since) {
			used += e.Cost
		}
	}
	return used
}

// evaluateAlertsLocked fires level-triggered alerts for every threshold the
// current spend sits at or above. Caller holds mu.
func (l *Ledger) evaluateAlertsLocked() {
	now := l.now()
	daily := l.usedSinceLocked(now.Add(-24 * time.Hour))
	monthly := l.usedSinceLocked(monthStart(now))

	l.checkThresholdLocked(AlertDailyWarning, AlertDailyLimit, l.limits.Daily, daily, now)
	l.checkThresholdLocked(AlertMonthlyWarning, AlertMonthlyLimit, l.limits.Monthly, monthly, now)
}

func (l *Ledger) checkThresholdLocked(warnKind, limitKind AlertKind, limit, used float64, now time.Time) {
	if limit <= 0 {
		return
	}

	warning := limit * l.limits.WarningPercent / 100.0
	switch {
	case used >= limit:
		l.notifyLocked(Alert{
			Kind:       limitKind,
			Threshold:  limit,
			Current:    used,
			Percentage: used / limit * 100,
			Timestamp:  now,
		})
	case warning > 0 && used >= warning:
		l.notifyLocked(Alert{
			Kind:       warnKind,
			Threshold:  warning,
			Current:    used,
			Percentage: used / limit * 100,
			Timestamp:  now,
		})
	}
}

// notifyLocked invokes observers in registration order, recovering panics
func (l *Ledger) notifyLocked(alert Alert) {
	for _, fn := range l.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					l.logger.Error("alert observer panicked",
						zap.String("kind", string(alert.Kind)),
						zap.Any("panic", r))
				}
			}()
			fn(alert)
		}()
	}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
