package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/tracksync/tracksync/internal/notify"
	"github.com/tracksync/tracksync/internal/pkg/logs"
)

// State is the editor lifecycle phase. The only suspend points are the two
// gateway calls (loading and saving); every edit in between is synchronous.
type State string

const (
	StateClosed  State = "closed"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateSaving  State = "saving"
)

// Field names used for field-scoped validation errors.
const (
	FieldCron      = "cron"
	FieldWeekdays  = "weekdays"
	FieldTimeOfDay = "time_of_day"
)

// Gateway is the persistence boundary for schedule configs. FetchSchedule is
// an idempotent read; UpdateSchedule has full-replace semantics and returns
// the server's canonical persisted view.
type Gateway interface {
	FetchSchedule(ctx context.Context) (*Config, error)
	UpdateSchedule(ctx context.Context, upd Update) (*Config, error)
}

var ErrNotReady = errors.New("editor is not ready")

// Editor holds the transient editable state between opening the schedule form
// and an explicit save or cancel. No partial persistence ever occurs: the
// server is only contacted on Open (fetch) and Save (full replace).
type Editor struct {
	gw       Gateway
	notifier notify.Notifier

	state   State
	fetched *Config

	sel           Selection
	cron          string
	timezone      string
	concurrency   Concurrency
	notifications bool
	enabled       bool

	fieldErrs map[string]string
}

func NewEditor(gw Gateway, notifier notify.Notifier) *Editor {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Editor{
		gw:        gw,
		notifier:  notifier,
		state:     StateClosed,
		fieldErrs: make(map[string]string),
	}
}

func (e *Editor) State() State { return e.state }

// Open fetches the current schedule and initializes the editable fields,
// including the one-time best-effort reverse preset match.
func (e *Editor) Open(ctx context.Context) error {
	if e.state != StateClosed {
		return fmt.Errorf("editor already open (state %s)", e.state)
	}

	e.state = StateLoading
	cfg, err := e.gw.FetchSchedule(ctx)
	if err != nil {
		e.state = StateClosed
		e.notifier.Notify("Schedule", err.Error(), notify.SeverityError)
		return fmt.Errorf("fetch schedule: %w", err)
	}

	e.fetched = cfg
	e.sel = MatchSelection(cfg.Cron)
	e.cron = cfg.Cron
	e.timezone = cfg.Timezone
	e.concurrency = cfg.Concurrency
	e.notifications = cfg.Notifications
	e.enabled = cfg.Enabled
	e.fieldErrs = make(map[string]string)
	e.state = StateReady

	logs.CtxDebug(ctx, "[editor] opened: cron=%q preset=%s", e.cron, e.sel.Preset)
	return nil
}

// Fetched returns the server view captured at open time (read-only source for
// next-run display).
func (e *Editor) Fetched() *Config { return e.fetched }

func (e *Editor) Selection() Selection     { return e.sel }
func (e *Editor) Cron() string             { return e.cron }
func (e *Editor) Timezone() string         { return e.timezone }
func (e *Editor) Concurrency() Concurrency { return e.concurrency }
func (e *Editor) Notifications() bool      { return e.notifications }
func (e *Editor) Enabled() bool            { return e.enabled }

// FieldError returns the validation message attached to a field, if any.
func (e *Editor) FieldError(field string) string { return e.fieldErrs[field] }

// SetPreset switches the active preset. Switching to custom freezes the
// current cron value for free-text editing; any other preset re-derives the
// cron from the selection immediately.
func (e *Editor) SetPreset(p Preset) error {
	if e.state != StateReady {
		return ErrNotReady
	}
	e.sel.Preset = p
	if p == PresetCustom {
		e.clearDerivationErrors()
		return nil
	}
	e.recompute()
	return nil
}

// SetTimeOfDay updates the HH:MM input for daily/weekly/monthly presets.
func (e *Editor) SetTimeOfDay(v string) error {
	if e.state != StateReady {
		return ErrNotReady
	}
	e.sel.TimeOfDay = v
	if e.sel.Preset != PresetCustom {
		e.recompute()
	}
	return nil
}

// SetWeekdays updates the weekday set (0 = Sunday) for the weekly preset.
func (e *Editor) SetWeekdays(days []int) error {
	if e.state != StateReady {
		return ErrNotReady
	}
	e.sel.Weekdays = days
	if e.sel.Preset != PresetCustom {
		e.recompute()
	}
	return nil
}

// SetCron sets the raw expression. Free-text cron editing is only meaningful
// in custom mode; in preset mode the value is owned by the codec.
func (e *Editor) SetCron(expr string) error {
	if e.state != StateReady {
		return ErrNotReady
	}
	if e.sel.Preset != PresetCustom {
		return fmt.Errorf("cron is derived from preset %s; switch to custom to edit it", e.sel.Preset)
	}
	e.cron = expr
	delete(e.fieldErrs, FieldCron)
	return nil
}

func (e *Editor) SetTimezone(tz string) error {
	if e.state != StateReady {
		return ErrNotReady
	}
	e.timezone = tz
	return nil
}

func (e *Editor) SetConcurrency(c Concurrency) error {
	if e.state != StateReady {
		return ErrNotReady
	}
	if !c.Valid() {
		return fmt.Errorf("unknown concurrency policy: %s", c)
	}
	e.concurrency = c
	return nil
}

func (e *Editor) SetNotifications(on bool) error {
	if e.state != StateReady {
		return ErrNotReady
	}
	e.notifications = on
	return nil
}

func (e *Editor) SetEnabled(on bool) error {
	if e.state != StateReady {
		return ErrNotReady
	}
	e.enabled = on
	return nil
}

// Save validates, then transmits the whole schedule object. Validation
// failures never reach the gateway and never clear entered values. On success
// the editor closes and the canonical server view is returned; on a remote
// error the editor stays open with all fields intact so the user can retry.
func (e *Editor) Save(ctx context.Context) (*Config, error) {
	if e.state != StateReady {
		return nil, ErrNotReady
	}

	if err := e.gate(); err != nil {
		e.notifier.Notify("Schedule", err.Error(), notify.SeverityWarning)
		return nil, err
	}

	e.state = StateSaving
	cfg, err := e.gw.UpdateSchedule(ctx, Update{
		Cron:          e.cron,
		Timezone:      e.timezone,
		Concurrency:   e.concurrency,
		Notifications: e.notifications,
		Enabled:       e.enabled,
	})
	if err != nil {
		e.state = StateReady
		e.notifier.Notify("Schedule", err.Error(), notify.SeverityError)
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	e.state = StateClosed
	e.fetched = cfg
	logs.CtxInfo(ctx, "[editor] schedule saved: cron=%q enabled=%v", cfg.Cron, cfg.Enabled)
	return cfg, nil
}

// Cancel discards all local edits and closes the editor from any state.
func (e *Editor) Cancel() {
	e.state = StateClosed
	e.fetched = nil
	e.sel = Selection{}
	e.cron = ""
	e.fieldErrs = make(map[string]string)
}

// gate runs the pre-save checks: structural cron validity, a non-empty
// weekday set for weekly, and a time of day for daily/weekly/monthly.
func (e *Editor) gate() error {
	if err := ValidateCron(e.cron); err != nil {
		e.fieldErrs[FieldCron] = err.Error()
		return err
	}
	switch e.sel.Preset {
	case PresetWeekly:
		if len(e.sel.Weekdays) == 0 {
			e.fieldErrs[FieldWeekdays] = ErrNoWeekdays.Error()
			return ErrNoWeekdays
		}
		fallthrough
	case PresetDaily, PresetMonthly:
		if e.sel.TimeOfDay == "" {
			e.fieldErrs[FieldTimeOfDay] = ErrNoTimeOfDay.Error()
			return ErrNoTimeOfDay
		}
	}
	return nil
}

// recompute runs the forward mapping after any preset-governing edit. When
// the codec refuses (empty weekdays, missing time) the previous cron value is
// kept and the error is attached to the offending field.
func (e *Editor) recompute() {
	derived, err := DeriveCron(e.sel)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoWeekdays):
			e.fieldErrs[FieldWeekdays] = err.Error()
		case errors.Is(err, ErrNoTimeOfDay):
			e.fieldErrs[FieldTimeOfDay] = err.Error()
		default:
			e.fieldErrs[FieldTimeOfDay] = err.Error()
		}
		return
	}
	e.cron = derived
	e.clearDerivationErrors()
}

func (e *Editor) clearDerivationErrors() {
	delete(e.fieldErrs, FieldCron)
	delete(e.fieldErrs, FieldWeekdays)
	delete(e.fieldErrs, FieldTimeOfDay)
}
