// Package period provides the immutable billing period value object.
package period

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned when a custom range ends before it starts.
var ErrInvalidRange = errors.New("invalid_period_range")

// BillingPeriod is an inclusive date range over which consumption is
// aggregated and billed. Values are immutable; equality is by value.
type BillingPeriod struct {
	start time.Time
	end   time.Time
}

// CurrentMonth returns the full calendar month containing now.
func CurrentMonth(now time.Time) BillingPeriod {
	return ForMonth(now.UTC().Year(), now.UTC().Month())
}

// ForMonth returns the full calendar month for the given year and month.
func ForMonth(year int, month time.Month) BillingPeriod {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return BillingPeriod{
		start: start,
		end:   start.AddDate(0, 1, -1),
	}
}

// Range returns a custom period. The range is inclusive on both ends and
// must satisfy start <= end.
func Range(start, end time.Time) (BillingPeriod, error) {
	s := truncateToDay(start)
	e := truncateToDay(end)
	if e.Before(s) {
		return BillingPeriod{}, ErrInvalidRange
	}
	return BillingPeriod{start: s, end: e}, nil
}

// Start returns the first day of the period.
func (p BillingPeriod) Start() time.Time { return p.start }

// End returns the last day of the period.
func (p BillingPeriod) End() time.Time { return p.end }

// Days returns the inclusive day count of the period.
func (p BillingPeriod) Days() int {
	return int(p.end.Sub(p.start).Hours()/24) + 1
}

// Contains reports whether the given date falls inside the period.
func (p BillingPeriod) Contains(t time.Time) bool {
	d := truncateToDay(t)
	return !d.Before(p.start) && !d.After(p.end)
}

// Overlaps reports whether two periods share at least one day.
func (p BillingPeriod) Overlaps(o BillingPeriod) bool {
	return !p.start.After(o.end) && !o.start.After(p.end)
}

// IsFullMonth reports whether the period covers exactly one calendar month.
func (p BillingPeriod) IsFullMonth() bool {
	if p.start.Day() != 1 {
		return false
	}
	lastDay := p.start.AddDate(0, 1, -1)
	return p.end.Equal(lastDay)
}

// DaysInStartMonth returns the day count of the calendar month the period
// starts in, used for linear pro-ration of monthly fees.
func (p BillingPeriod) DaysInStartMonth() int {
	firstOfMonth := time.Date(p.start.Year(), p.start.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// Equal reports value equality.
func (p BillingPeriod) Equal(o BillingPeriod) bool {
	return p.start.Equal(o.start) && p.end.Equal(o.end)
}

// Label renders a compact human-readable identifier for logs and warnings.
func (p BillingPeriod) Label() string {
	if p.IsFullMonth() {
		return p.start.Format("2006-01")
	}
	return fmt.Sprintf("%s..%s", p.start.Format("2006-01-02"), p.end.Format("2006-01-02"))
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
