package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tracksync/tracksync/internal/notify"
	"github.com/tracksync/tracksync/internal/pkg/logs"
	"github.com/tracksync/tracksync/internal/pkg/prometheus"
	"github.com/tracksync/tracksync/internal/schedule"
)

const (
	tickInterval = 15 * time.Second
	// maxQueuedTriggers bounds the backlog under the queue policy.
	maxQueuedTriggers = 5
	// conflictNotifyThreshold is the conflict count above which a completed
	// run alerts the operator when notifications are on.
	conflictNotifyThreshold = 10
)

// TriggerResult reports the outcome of one sync run.
type TriggerResult struct {
	Synced    int
	Conflicts int
	Failed    int
}

// TriggerFunc executes one synchronization run. The sync engine itself is an
// external collaborator; the trigger loop only decides when it runs.
type TriggerFunc func(ctx context.Context) (TriggerResult, error)

// Trigger fires sync runs according to the stored schedule, applying the
// configured concurrency policy while a run is still active.
type Trigger struct {
	store    *Store
	run      TriggerFunc
	notifier notify.Notifier
	audit    *AuditLog

	mu       sync.Mutex
	nextFire time.Time
	running  bool
	queued   int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTrigger(store *Store, run TriggerFunc, notifier notify.Notifier, audit *AuditLog) *Trigger {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Trigger{
		store:    store,
		run:      run,
		notifier: notifier,
		audit:    audit,
	}
}

// Start computes the first fire time and begins the trigger loop.
func (t *Trigger) Start(ctx context.Context) {
	t.Reload()

	ctx, t.cancel = context.WithCancel(ctx)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.loop(ctx)
	}()

	logs.CtxInfo(ctx, "[trigger] loop started")
}

// Stop cancels the loop and waits for in-flight runs to finish.
func (t *Trigger) Stop(ctx context.Context) {
	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logs.CtxWarn(ctx, "[trigger] stop timed out waiting for running sync")
	}
	logs.CtxInfo(ctx, "[trigger] loop stopped")
}

// Reload recomputes the next fire time from the stored schedule. Called on
// startup and after every schedule update.
func (t *Trigger) Reload() {
	cfg, ok := t.store.Get()

	t.mu.Lock()
	defer t.mu.Unlock()

	if !ok || !cfg.Enabled {
		t.nextFire = time.Time{}
		return
	}
	next, err := firstRunAfter(cfg.Cron, cfg.Timezone, time.Now())
	if err != nil {
		logs.Warn("[trigger] cannot schedule cron %q: %v", cfg.Cron, err)
		t.nextFire = time.Time{}
		return
	}
	t.nextFire = next
	logs.Info("[trigger] next sync at %s", next.Format(time.RFC3339))
}

func firstRunAfter(expr, timezone string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from.In(loc)), nil
}

func (t *Trigger) loop(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx, time.Now())
		}
	}
}

// tick fires at most one trigger per due fire time and advances the clock.
func (t *Trigger) tick(ctx context.Context, now time.Time) {
	cfg, ok := t.store.Get()
	if !ok || !cfg.Enabled {
		return
	}

	t.mu.Lock()
	if t.nextFire.IsZero() || now.Before(t.nextFire) {
		t.mu.Unlock()
		return
	}
	next, err := firstRunAfter(cfg.Cron, cfg.Timezone, now)
	if err != nil {
		logs.CtxWarn(ctx, "[trigger] reschedule failed for cron %q: %v", cfg.Cron, err)
		t.nextFire = time.Time{}
		t.mu.Unlock()
		return
	}
	t.nextFire = next
	t.mu.Unlock()

	t.fire(ctx, cfg)
}

// fire applies the concurrency policy: launch when idle, otherwise skip or
// queue (bounded) per the schedule's policy.
func (t *Trigger) fire(ctx context.Context, cfg *schedule.Config) {
	t.mu.Lock()
	if t.running {
		switch cfg.Concurrency {
		case schedule.ConcurrencyQueue:
			if t.queued < maxQueuedTriggers {
				t.queued++
				prometheus.SyncTriggers.WithLabelValues("queued").Inc()
				logs.CtxInfo(ctx, "[trigger] sync queued behind active run (backlog %d)", t.queued)
			} else {
				prometheus.SyncTriggers.WithLabelValues("dropped").Inc()
				logs.CtxWarn(ctx, "[trigger] sync queue full (%d), dropping trigger", maxQueuedTriggers)
			}
		default:
			prometheus.SyncTriggers.WithLabelValues("skipped").Inc()
			logs.CtxWarn(ctx, "[trigger] previous sync still active, skipping trigger")
		}
		t.mu.Unlock()
		return
	}
	t.running = true
	t.mu.Unlock()

	prometheus.SyncTriggers.WithLabelValues("fired").Inc()
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.execute(ctx, cfg)
	}()
}

func (t *Trigger) execute(ctx context.Context, cfg *schedule.Config) {
	logs.CtxInfo(ctx, "[trigger] starting scheduled sync")
	res, err := t.run(ctx)

	status := "completed"
	if err != nil {
		status = "failed"
	}
	if t.audit != nil {
		if auditErr := t.audit.Record("sync_triggered", map[string]any{
			"status":    status,
			"synced":    res.Synced,
			"conflicts": res.Conflicts,
			"failed":    res.Failed,
		}); auditErr != nil {
			logs.CtxWarn(ctx, "[trigger] audit record failed: %v", auditErr)
		}
	}

	switch {
	case err != nil:
		logs.CtxError(ctx, "[trigger] scheduled sync failed: %v", err)
		if cfg.Notifications {
			t.notifier.Notify("Sync", "scheduled sync run failed: "+err.Error(), notify.SeverityError)
		}
	case cfg.Notifications && (res.Conflicts > conflictNotifyThreshold || res.Failed > 0):
		logs.CtxWarn(ctx, "[trigger] notification threshold reached: conflicts=%d failed=%d", res.Conflicts, res.Failed)
		t.notifier.Notify("Sync",
			"scheduled sync finished with issues: "+triggerSummary(res), notify.SeverityWarning)
	default:
		logs.CtxInfo(ctx, "[trigger] scheduled sync completed: %s", triggerSummary(res))
	}

	t.finish(ctx)
}

// finish releases the running slot and drains one queued trigger, if any.
func (t *Trigger) finish(ctx context.Context) {
	t.mu.Lock()
	t.running = false
	drain := t.queued > 0
	if drain {
		t.queued--
	}
	t.mu.Unlock()

	if !drain {
		return
	}
	cfg, ok := t.store.Get()
	if !ok || !cfg.Enabled {
		return
	}
	logs.CtxInfo(ctx, "[trigger] processing queued sync")
	t.fire(ctx, cfg)
}

func triggerSummary(res TriggerResult) string {
	return fmt.Sprintf("synced=%d conflicts=%d failed=%d", res.Synced, res.Conflicts, res.Failed)
}
