package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Preset names a common recurrence pattern that maps onto a cron expression.
type Preset string

const (
	PresetHourly  Preset = "hourly"
	PresetEvery6h Preset = "every6h"
	PresetDaily   Preset = "daily"
	PresetWeekly  Preset = "weekly"
	PresetMonthly Preset = "monthly"
	// PresetCustom means the cron expression is user-authored free text and
	// no derivation takes place.
	PresetCustom Preset = "custom"
)

// Presets lists the selectable presets in display order.
var Presets = []Preset{PresetHourly, PresetEvery6h, PresetDaily, PresetWeekly, PresetMonthly, PresetCustom}

var (
	ErrNoWeekdays   = errors.New("select at least one day")
	ErrNoTimeOfDay  = errors.New("time of day is required")
	ErrNoDerivation = errors.New("custom preset has no cron derivation")
)

// Selection is the structured schedule intent edited through the form.
// TimeOfDay applies to daily/weekly/monthly; Weekdays (0 = Sunday) applies to
// weekly only.
type Selection struct {
	Preset    Preset
	TimeOfDay string
	Weekdays  []int
}

// presetTemplates are the canonical literals used for the best-effort reverse
// match at load time. The daily/weekly/monthly templates carry no time of
// their own; matching is exact string equality only, so a semantically
// equivalent but differently formatted cron resolves to custom.
var presetTemplates = []struct {
	preset Preset
	cron   string
}{
	{PresetHourly, "0 * * * *"},
	{PresetEvery6h, "0 */6 * * *"},
	{PresetDaily, "0 0 * * *"},
	{PresetWeekly, "0 0 * * 1"},
	{PresetMonthly, "0 0 1 * *"},
}

// DeriveCron translates a selection into a 5-field cron expression. It is a
// pure function of the selection; for weekly an empty weekday set is refused
// rather than silently emitting an invalid expression.
func DeriveCron(sel Selection) (string, error) {
	switch sel.Preset {
	case PresetHourly:
		return "0 * * * *", nil
	case PresetEvery6h:
		return "0 */6 * * *", nil
	case PresetDaily, PresetWeekly, PresetMonthly:
		hours, minutes, err := splitTimeOfDay(sel.TimeOfDay)
		if err != nil {
			return "", err
		}
		switch sel.Preset {
		case PresetDaily:
			return fmt.Sprintf("%d %d * * *", minutes, hours), nil
		case PresetMonthly:
			return fmt.Sprintf("%d %d 1 * *", minutes, hours), nil
		default: // weekly
			days, err := normalizeWeekdays(sel.Weekdays)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d %d * * %s", minutes, hours, days), nil
		}
	case PresetCustom:
		return "", ErrNoDerivation
	default:
		return "", fmt.Errorf("unknown preset: %s", sel.Preset)
	}
}

// MatchSelection performs the one-time reverse mapping when the editor is
// populated from a freshly fetched config. On a template hit the selection's
// time/weekday fields are re-derived from the template literal; anything else
// falls through to custom with the cron left as free text.
func MatchSelection(cronExpr string) Selection {
	for _, t := range presetTemplates {
		if cronExpr != t.cron {
			continue
		}
		sel := Selection{Preset: t.preset}
		switch t.preset {
		case PresetDaily, PresetMonthly:
			sel.TimeOfDay = "00:00"
		case PresetWeekly:
			sel.TimeOfDay = "00:00"
			sel.Weekdays = []int{1}
		}
		return sel
	}
	return Selection{Preset: PresetCustom}
}

// splitTimeOfDay parses "HH:MM" into hour and minute components.
func splitTimeOfDay(v string) (hours, minutes int, err error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, 0, ErrNoTimeOfDay
	}
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q: want HH:MM", v)
	}
	hours, err = strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", v)
	}
	minutes, err = strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", v)
	}
	return hours, minutes, nil
}

// normalizeWeekdays sorts, dedupes, and comma-joins the weekday set.
func normalizeWeekdays(days []int) (string, error) {
	if len(days) == 0 {
		return "", ErrNoWeekdays
	}
	seen := make(map[int]bool, len(days))
	uniq := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return "", fmt.Errorf("weekday out of range: %d", d)
		}
		if !seen[d] {
			seen[d] = true
			uniq = append(uniq, d)
		}
	}
	sort.Ints(uniq)
	parts := make([]string, len(uniq))
	for i, d := range uniq {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ","), nil
}
