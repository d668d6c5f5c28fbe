package server

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser is a standard 5-field cron expression parser (minute hour dom month dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextRunCount matches what the editor displays as the upcoming-run preview.
const nextRunCount = 3

// validateExpression is the deep server-side check the client deliberately
// skips: full cron field syntax plus timezone resolvability.
func validateExpression(expr, timezone string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return nil
}

// nextRuns computes the next n run times after from, rendered as RFC 3339 in
// the schedule's timezone.
func nextRuns(expr, timezone string, n int, from time.Time) ([]string, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	t := from.In(loc)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		out = append(out, t.Format(time.RFC3339))
	}
	return out, nil
}
