// Package alerts provides status notifications printed alongside command
// output, such as a committed offer or tolerance warnings.
package alerts

import (
	"fmt"
	"strings"

	"github.com/TrendsetAM/BOQ-TOOLS/pkg/comparison"
)

// Alert represents a status notification.
type Alert struct {
	Level   Level
	Message string
	Details []string
}

// New creates a new alert with the given level and message.
func New(level Level, message string) *Alert {
	return &Alert{Level: level, Message: message}
}

// NewWarning creates a new warning alert.
func NewWarning(message string) *Alert {
	return New(LevelWarning, message)
}

// NewInfo creates a new info alert.
func NewInfo(message string) *Alert {
	return New(LevelInfo, message)
}

// NewSuccess creates a new success alert.
func NewSuccess(message string) *Alert {
	return New(LevelSuccess, message)
}

// WithDetails adds additional context details to the alert.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String returns the alert's first line.
func (a *Alert) String() string {
	return a.Level.Icon() + " " + a.Message
}

// ForResult summarises a comparison pass: one line for the commit or the
// dry run, and a warning listing every tolerance violation.
func ForResult(res *comparison.Result) []*Alert {
	c := res.Counts
	summary := fmt.Sprintf("%d merged, %d added, %d skipped", c.Merged, c.Added, c.Total-c.Merged-c.Added)

	var out []*Alert
	switch {
	case res.Metadata.DryRun:
		out = append(out, NewInfo("Dry run for offer "+res.Offer.Name+" ("+summary+"), nothing committed"))
	case c.Errors > 0:
		out = append(out, New(LevelError, fmt.Sprintf("Offer %s committed with %d row errors (%s)", res.Offer.Name, c.Errors, summary)))
	default:
		out = append(out, NewSuccess("Offer "+res.Offer.Name+" committed ("+summary+")"))
	}

	if len(res.Warnings) > 0 {
		details := make([]string, len(res.Warnings))
		for i, w := range res.Warnings {
			details[i] = w.String()
		}
		noun := "warnings"
		if len(res.Warnings) == 1 {
			noun = "warning"
		}
		out = append(out, NewWarning(fmt.Sprintf("%d tolerance %s", len(res.Warnings), noun)).WithDetails(details...))
	}
	return out
}

// Join renders alerts as text, one line per alert followed by its details.
func Join(alerts []*Alert) string {
	var b strings.Builder
	for _, a := range alerts {
		b.WriteString(a.String())
		b.WriteByte('\n')
		for _, d := range a.Details {
			b.WriteString("   ")
			b.WriteString(d)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
