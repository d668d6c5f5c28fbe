package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/tracksync/tracksync/internal/schedule"
)

// AuditEvent is one line of the append-only audit trail.
type AuditEvent struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditLog appends events to a JSONL file, one event per line.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

// Record appends an event. Audit failures are reported to the caller but are
// never fatal to the operation being audited.
func (a *AuditLog) Record(action string, details map[string]any) error {
	ev := AuditEvent{
		ID:        uuid.New().String(),
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	line, err := sonic.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// changeSet builds the per-field old/new pairs recorded on a schedule update.
// Unchanged fields are omitted.
func changeSet(old *schedule.Config, upd schedule.Update) map[string]any {
	changes := make(map[string]any)
	if old.Cron != upd.Cron {
		changes["cron"] = map[string]any{"old": old.Cron, "new": upd.Cron}
	}
	if old.Timezone != upd.Timezone {
		changes["timezone"] = map[string]any{"old": old.Timezone, "new": upd.Timezone}
	}
	if old.Concurrency != upd.Concurrency {
		changes["concurrency"] = map[string]any{"old": old.Concurrency, "new": upd.Concurrency}
	}
	if old.Notifications != upd.Notifications {
		changes["notifications"] = map[string]any{"old": old.Notifications, "new": upd.Notifications}
	}
	if old.Enabled != upd.Enabled {
		changes["enabled"] = map[string]any{"old": old.Enabled, "new": upd.Enabled}
	}
	return changes
}
