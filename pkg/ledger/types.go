package ledger

import (
	"time"

	"github.com/skillpath/gateway/pkg/core"
)

// Entry represents a single metered operation. Entries are immutable once
// recorded and only leave the ledger through the retention sweep.
type Entry struct {
	Timestamp   time.Time      `json:"timestamp"`
	Model       string         `json:"model"`
	Operation   core.Operation `json:"operation"`
	InputUnits  int            `json:"input_units"`
	OutputUnits int            `json:"output_units"`
	ImageCount  int            `json:"image_count"`
	Cost        float64        `json:"cost"`
	RequestID   string         `json:"request_id"`
	UserID      string         `json:"user_id,omitempty"`
}

// Summary represents aggregated cost data for a window. It is always
// recomputed from the entry log, never stored.
type Summary struct {
	Start        time.Time                  `json:"start"`
	End          time.Time                  `json:"end"`
	TotalCost    float64                    `json:"total_cost"`
	PerModel     map[string]float64         `json:"per_model"`
	PerOperation map[core.Operation]float64 `json:"per_operation"`
	RequestCount int                        `json:"request_count"`
	AverageCost  float64                    `json:"average_cost_per_request"`

	// Rolling aggregates, independent of the requested window
	DailyCost   float64 `json:"daily_cost"`   // trailing 24h
	MonthlyCost float64 `json:"monthly_cost"` // current calendar month
}

// AlertKind identifies a budget alert condition
type AlertKind string

const (
	AlertDailyWarning   AlertKind = "daily_warning"
	AlertDailyLimit     AlertKind = "daily_limit"
	AlertMonthlyWarning AlertKind = "monthly_warning"
	AlertMonthlyLimit   AlertKind = "monthly_limit"
)

// Alert is emitted when a record call crosses or remains above a budget
// threshold. Alerts are level-triggered and never persisted.
type Alert struct {
	Kind       AlertKind `json:"kind"`
	Threshold  float64   `json:"threshold"`
	Current    float64   `json:"current"`
	Percentage float64   `json:"percentage"`
	Timestamp  time.Time `json:"timestamp"`
}

// Observer receives budget alerts synchronously, in registration order
type Observer func(Alert)

// Limits holds the configured budget limits. A zero or negative limit
// disables that check.
type Limits struct {
	Daily          float64 `json:"daily" yaml:"daily"`
	Monthly        float64 `json:"monthly" yaml:"monthly"`
	WarningPercent float64 `json:"warning_percent" yaml:"warning_percent"`
}

// BudgetStatus reports whether spend is strictly below each limit
type BudgetStatus struct {
	Daily   bool `json:"daily"`
	Monthly bool `json:"monthly"`
}

// RemainingBudget reports the unspent amount under each limit, clamped at 0
type RemainingBudget struct {
	Daily   float64 `json:"daily"`
	Monthly float64 `json:"monthly"`
}

// DayCost is one day of the trailing cost trend
type DayCost struct {
	Date         string  `json:"date"` // 2006-01-02
	Cost         float64 `json:"cost"`
	RequestCount int     `json:"request_count"`
}
