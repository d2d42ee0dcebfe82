package schedule

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granular calendar date
// =============================================================================

// Date is a calendar date with day granularity, normalized to UTC midnight.
// All interval arithmetic in the engine is inclusive on both ends: a burst
// running Jan 1 - Jan 1 is one day long, not zero.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. The planning UI ships burst dates
// as strings, so this is the single entry point for date validation.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }

func (d Date) String() string { return d.t.Format(dateLayout) }

// Key returns the calendar month containing this date.
func (d Date) Key() MonthKey { return MonthKey{Year: d.t.Year(), Month: d.t.Month()} }

func maxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// DaysInclusive returns the day count of [from, to], counting both endpoints.
// Returns 0 when to is before from.
func DaysInclusive(from, to Date) int {
	if to.Before(from) {
		return 0
	}
	return int(to.t.Sub(from.t).Hours()/24) + 1
}

// =============================================================================
// MONTH KEY - Calendar month identity, chronologically ordered
// =============================================================================

// MonthKey identifies one calendar month. It is the bucket key for the
// whole engine: proration slices, schedule buckets, and line-item monthly
// amounts are all keyed by it.
type MonthKey struct {
	Year  int
	Month time.Month
}

const monthLayout = "2006-01"

func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// Next returns the following calendar month.
func (k MonthKey) Next() MonthKey {
	if k.Month == time.December {
		return MonthKey{Year: k.Year + 1, Month: time.January}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

// Start returns the first day of the month.
func (k MonthKey) Start() Date { return NewDate(k.Year, k.Month, 1) }

// End returns the last day of the month.
func (k MonthKey) End() Date { return k.Next().Start().AddDays(-1) }

func (k MonthKey) String() string {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)
}

// MarshalText lets MonthKey serve as a JSON map key ("2025-07").
func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MonthKey) UnmarshalText(b []byte) error {
	parsed, err := ParseMonthKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// =============================================================================
// MONTH CALENDAR BUILDER
// =============================================================================

// BuildCalendar enumerates the calendar months from the month containing
// start through the month containing end, inclusive. A month is included
// even if only one of its days falls in range.
//
// Missing dates or an end before the start yield an empty calendar; every
// downstream stage then no-ops rather than erroring.
func BuildCalendar(start, end Date) []MonthKey {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil
	}

	var months []MonthKey
	last := end.Key()
	for k := start.Key(); !last.Before(k); k = k.Next() {
		months = append(months, k)
	}
	return months
}
