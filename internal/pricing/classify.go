// Package pricing computes seat availability and ticket prices:
// time-window price overrides, weekday/weekend classification and
// the admin-configured individual-pricing table.
package pricing

import "time"

// DayKind classifies a performance date for pricing purposes.
type DayKind string

const (
	Weekday DayKind = "weekday"
	Weekend DayKind = "weekend"
)

// ClassifyDay returns the day kind for a performance.  An explicit
// per-event override wins; otherwise Monday through Friday count as
// weekdays.
func ClassifyDay(date time.Time, override *bool) DayKind {
	if override != nil {
		if *override {
			return Weekday
		}
		return Weekend
	}
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	}
	return Weekday
}
