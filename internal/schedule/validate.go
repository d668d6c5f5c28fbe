package schedule

import (
	"errors"
	"strings"
)

var (
	ErrEmptyExpression = errors.New("cron expression is empty")
	ErrFieldCount      = errors.New("cron expression must have exactly 5 fields")
)

// ValidateCron performs the structural acceptance check applied before save:
// non-empty after trimming, exactly 5 whitespace-separated fields. Per-field
// syntax and ranges are deliberately not checked here; the schedule service
// parses the expression for real before persisting it.
func ValidateCron(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return ErrEmptyExpression
	}
	if len(strings.Fields(expr)) != 5 {
		return ErrFieldCount
	}
	return nil
}
