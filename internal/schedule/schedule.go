package schedule

import "time"

// Concurrency is the policy applied when a scheduled trigger fires while a
// previous sync run is still active.
type Concurrency string

const (
	// ConcurrencySkip drops the trigger.
	ConcurrencySkip Concurrency = "skip"
	// ConcurrencyQueue defers the trigger, up to a bounded backlog enforced
	// by the schedule service.
	ConcurrencyQueue Concurrency = "queue"
)

// Valid reports whether the policy is one of the known values.
func (c Concurrency) Valid() bool {
	return c == ConcurrencySkip || c == ConcurrencyQueue
}

// Config is the single schedule document owned by the schedule service. The
// editor mutates a transient copy and persists it as a whole object; NextRuns
// is computed server-side and never derived locally.
type Config struct {
	ID            int64       `json:"id"`
	Cron          string      `json:"cron"`
	Timezone      string      `json:"timezone"`
	Concurrency   Concurrency `json:"concurrency"`
	Notifications bool        `json:"notifications"`
	Enabled       bool        `json:"enabled"`
	NextRuns      []string    `json:"next_runs"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Update is the full-replace payload sent on save. It deliberately omits the
// server-owned fields (id, next_runs, timestamps).
type Update struct {
	Cron          string      `json:"cron"`
	Timezone      string      `json:"timezone"`
	Concurrency   Concurrency `json:"concurrency"`
	Notifications bool        `json:"notifications"`
	Enabled       bool        `json:"enabled"`
}

// DefaultConfig returns the configuration the service creates on first read:
// every 6 hours, UTC, skip policy, notifications off, disabled.
func DefaultConfig(now time.Time) *Config {
	return &Config{
		ID:            1,
		Cron:          "0 */6 * * *",
		Timezone:      "UTC",
		Concurrency:   ConcurrencySkip,
		Notifications: false,
		Enabled:       false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
