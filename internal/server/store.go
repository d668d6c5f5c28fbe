package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/tracksync/tracksync/internal/schedule"
)

// Store provides thread-safe persistence of the single schedule document to a
// JSON file.
type Store struct {
	path string
	mu   sync.RWMutex
	cfg  *schedule.Config
}

// NewStore creates a Store backed by the given file path. If the file does
// not exist it will be created on the first save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted schedule from disk. It is safe to call on a
// missing file; Get then reports not-found until EnsureDefault runs.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // first run, nothing to load
		}
		return fmt.Errorf("read schedule store: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var cfg schedule.Config
	if err := sonic.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("unmarshal schedule store: %w", err)
	}
	s.cfg = &cfg
	return nil
}

// Get returns a copy of the current schedule, or false if none exists yet.
func (s *Store) Get() (*schedule.Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return nil, false
	}
	out := *s.cfg
	return &out, true
}

// EnsureDefault creates and persists the default schedule when none exists.
// It reports whether a new document was created.
func (s *Store) EnsureDefault(now time.Time) (*schedule.Config, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg != nil {
		out := *s.cfg
		return &out, false, nil
	}

	cfg := schedule.DefaultConfig(now)
	if err := s.save(cfg); err != nil {
		return nil, false, err
	}
	s.cfg = cfg
	out := *cfg
	return &out, true, nil
}

// Replace applies a full-replace update to the stored schedule and persists
// it. The server-owned fields (id, created_at) are preserved.
func (s *Store) Replace(upd schedule.Update, now time.Time) (*schedule.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg == nil {
		return nil, fmt.Errorf("schedule not initialized")
	}

	next := *s.cfg
	next.Cron = upd.Cron
	next.Timezone = upd.Timezone
	next.Concurrency = upd.Concurrency
	next.Notifications = upd.Notifications
	next.Enabled = upd.Enabled
	next.UpdatedAt = now

	if err := s.save(&next); err != nil {
		return nil, err
	}
	s.cfg = &next
	out := next
	return &out, nil
}

// save writes the schedule to disk atomically (tmp + rename). Caller holds
// the write lock.
func (s *Store) save(cfg *schedule.Config) error {
	data, err := sonic.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename store: %w", err)
	}
	return nil
}
