// Package notify defines the operator notification capability. The editor and
// the trigger loop receive a Notifier instead of reaching into a global toast
// mechanism, which keeps both testable without a real notification subsystem.
package notify

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Severity classifies a notification for display purposes.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier delivers a transient, user-visible notification.
type Notifier interface {
	Notify(title, message string, severity Severity)
}

var (
	cInfo  = color.New(color.FgGreen, color.Bold)
	cWarn  = color.New(color.FgYellow, color.Bold)
	cError = color.New(color.FgRed, color.Bold)
)

// Console writes notifications to stderr with severity coloring.
type Console struct{}

var _ Notifier = Console{}

func (Console) Notify(title, message string, severity Severity) {
	c := cInfo
	switch severity {
	case SeverityWarning:
		c = cWarn
	case SeverityError:
		c = cError
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", c.Sprintf("[%s]", title), message)
}

// Discard drops all notifications.
type Discard struct{}

var _ Notifier = Discard{}

func (Discard) Notify(string, string, Severity) {}
