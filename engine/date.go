package engine

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar day (no time of day, always UTC)
// =============================================================================

// Date is a calendar day at UTC midnight. The zero Date means "absent", so
// 0001-01-01 cannot be represented as a real day: ParseDateStrict rejects it
// and ParseDate maps it to absent like any other bad input.
type Date struct {
	Time time.Time
}

// Accepted input layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"02/01/2006",
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDateStrict parses s using the accepted layouts.
func ParseDateStrict(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.IsZero() {
				return Date{}, fmt.Errorf("%w: %q is reserved for an absent date", ErrInvalidDate, s)
			}
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ParseDate is the lenient variant: anything unparseable yields the zero Date,
// which DaysBetween treats as absent.
func ParseDate(s string) Date {
	d, err := ParseDateStrict(s)
	if err != nil {
		return Date{}
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }
func (d Date) IsZero() bool                  { return d.Time.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format("2006-01-02")
}
