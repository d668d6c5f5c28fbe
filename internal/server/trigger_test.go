package server

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tracksync/tracksync/internal/notify"
	"github.com/tracksync/tracksync/internal/schedule"
)

type captureNotifier struct {
	mu    sync.Mutex
	notes []string
}

func (c *captureNotifier) Notify(title, message string, severity notify.Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, string(severity)+": "+message)
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notes)
}

func triggerStore(t *testing.T, concurrency schedule.Concurrency, notifications bool) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "schedule.json"))
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if _, _, err := s.EnsureDefault(now); err != nil {
		t.Fatalf("ensure default: %v", err)
	}
	if _, err := s.Replace(schedule.Update{
		Cron:          "0 * * * *",
		Timezone:      "UTC",
		Concurrency:   concurrency,
		Notifications: notifications,
		Enabled:       true,
	}, now); err != nil {
		t.Fatalf("replace: %v", err)
	}
	return s
}

// blockingRun returns a TriggerFunc that signals each start and blocks until
// released.
func blockingRun(started chan<- struct{}, release <-chan struct{}, runs *atomic.Int32) TriggerFunc {
	return func(ctx context.Context) (TriggerResult, error) {
		runs.Add(1)
		started <- struct{}{}
		<-release
		return TriggerResult{Synced: 1}, nil
	}
}

func TestTrigger_SkipWhileRunning(t *testing.T) {
	store := triggerStore(t, schedule.ConcurrencySkip, false)
	started := make(chan struct{}, 8)
	release := make(chan struct{})
	var runs atomic.Int32

	tr := NewTrigger(store, blockingRun(started, release, &runs), nil, nil)
	cfg, _ := store.Get()

	tr.fire(context.Background(), cfg)
	<-started

	// a second trigger while the first is active is dropped
	tr.fire(context.Background(), cfg)
	tr.fire(context.Background(), cfg)

	close(release)
	tr.Stop(context.Background())

	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1 under skip policy", got)
	}
}

func TestTrigger_QueueDrains(t *testing.T) {
	store := triggerStore(t, schedule.ConcurrencyQueue, false)
	started := make(chan struct{}, 8)
	release := make(chan struct{}, 8)
	var runs atomic.Int32

	tr := NewTrigger(store, blockingRun(started, release, &runs), nil, nil)
	cfg, _ := store.Get()

	tr.fire(context.Background(), cfg)
	<-started

	// queue two triggers behind the active run
	tr.fire(context.Background(), cfg)
	tr.fire(context.Background(), cfg)

	release <- struct{}{} // finish run 1, drains run 2
	<-started
	release <- struct{}{} // finish run 2, drains run 3
	<-started
	release <- struct{}{}

	tr.Stop(context.Background())

	if got := runs.Load(); got != 3 {
		t.Errorf("runs = %d, want 3 (one active plus two queued)", got)
	}
}

func TestTrigger_QueueBounded(t *testing.T) {
	store := triggerStore(t, schedule.ConcurrencyQueue, false)
	started := make(chan struct{}, 16)
	release := make(chan struct{}, 16)
	var runs atomic.Int32

	tr := NewTrigger(store, blockingRun(started, release, &runs), nil, nil)
	cfg, _ := store.Get()

	tr.fire(context.Background(), cfg)
	<-started

	// attempt to queue well past the cap
	for i := 0; i < maxQueuedTriggers+4; i++ {
		tr.fire(context.Background(), cfg)
	}

	for i := 0; i < maxQueuedTriggers+1; i++ {
		release <- struct{}{}
	}
	for i := 0; i < maxQueuedTriggers; i++ {
		<-started
	}

	tr.Stop(context.Background())

	want := int32(maxQueuedTriggers + 1)
	if got := runs.Load(); got != want {
		t.Errorf("runs = %d, want %d (backlog is bounded)", got, want)
	}
}

func TestTrigger_Reload(t *testing.T) {
	store := triggerStore(t, schedule.ConcurrencySkip, false)
	tr := NewTrigger(store, nil, nil, nil)

	tr.Reload()
	tr.mu.Lock()
	next := tr.nextFire
	tr.mu.Unlock()
	if next.IsZero() {
		t.Fatal("expected a fire time for an enabled schedule")
	}

	if _, err := store.Replace(schedule.Update{
		Cron: "0 * * * *", Timezone: "UTC", Concurrency: schedule.ConcurrencySkip,
	}, time.Now()); err != nil {
		t.Fatalf("disable: %v", err)
	}
	tr.Reload()
	tr.mu.Lock()
	next = tr.nextFire
	tr.mu.Unlock()
	if !next.IsZero() {
		t.Fatal("disabled schedule must not have a fire time")
	}
}

func TestTrigger_NotifyOnFailure(t *testing.T) {
	store := triggerStore(t, schedule.ConcurrencySkip, true)
	notes := &captureNotifier{}

	run := func(ctx context.Context) (TriggerResult, error) {
		return TriggerResult{}, errors.New("api unreachable")
	}
	tr := NewTrigger(store, run, notes, nil)
	cfg, _ := store.Get()

	tr.fire(context.Background(), cfg)
	tr.Stop(context.Background())

	if notes.count() != 1 {
		t.Fatalf("notes = %v, want one error notification", notes.notes)
	}
}

func TestTrigger_NotifyOnConflictThreshold(t *testing.T) {
	store := triggerStore(t, schedule.ConcurrencySkip, true)
	notes := &captureNotifier{}

	run := func(ctx context.Context) (TriggerResult, error) {
		return TriggerResult{Synced: 40, Conflicts: conflictNotifyThreshold + 1}, nil
	}
	tr := NewTrigger(store, run, notes, nil)
	cfg, _ := store.Get()

	tr.fire(context.Background(), cfg)
	tr.Stop(context.Background())

	if notes.count() != 1 {
		t.Fatalf("notes = %v, want one warning", notes.notes)
	}
}

func TestTrigger_QuietWhenNotificationsOff(t *testing.T) {
	store := triggerStore(t, schedule.ConcurrencySkip, false)
	notes := &captureNotifier{}

	run := func(ctx context.Context) (TriggerResult, error) {
		return TriggerResult{}, errors.New("api unreachable")
	}
	tr := NewTrigger(store, run, notes, nil)
	cfg, _ := store.Get()

	tr.fire(context.Background(), cfg)
	tr.Stop(context.Background())

	if notes.count() != 0 {
		t.Fatalf("notes = %v, want none with notifications off", notes.notes)
	}
}
