/*
calendar.go - Date type, weekday normalization and working-day resolution

PURPOSE:
  Everything calendar: the day-granularity Date value, parsing of the two
  date encodings found in the data (ISO YYYY-MM-DD everywhere, legacy
  DD/MM/YYYY inside absence rows), the contracted-weekday encoding, and the
  working-day resolver that anchors every monthly computation.

WEEKDAY ENCODING:
  Enrollments store weekdays as 1=Monday..5=Friday. Go's time.Weekday uses
  0=Sunday..6=Saturday. The translation happens in EXACTLY one place:
  Date.ContractedWeekday(), which maps Sunday to 7 so the contracted range
  1..5 never collides with it. Nothing else in the engine touches raw
  time.Weekday values for matching.

DATE PARSING:
  ParseDate:        strict ISO (the boundary format)
  ParseAbsenceDate: DD/MM/YYYY first, ISO fallback. Legacy rows were written
                    with locale formatting; a row that fails both layouts is
                    reported as malformed and the caller decides (the
                    classifier fails open, the API fails the request).

SEE ALSO:
  - classify.go: consumes the holiday set and absence parsing
  - monthly.go:  consumes WorkingDays
*/
package billing

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date
// =============================================================================

// Date is a calendar day, stored as UTC midnight. It crosses every API and
// store boundary as a YYYY-MM-DD string.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a strict ISO YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, &MalformedDateError{Raw: s}
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// ParseAbsenceDate parses a date from an absence row: DD/MM/YYYY first (the
// locale format the legacy rows were written with), then ISO as a best-effort
// fallback. Failing both is a malformed-input error.
func ParseAbsenceDate(s string) (Date, error) {
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return NewDate(t.Year(), t.Month(), t.Day()), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return NewDate(t.Year(), t.Month(), t.Day()), nil
	}
	return Date{}, &MalformedDateError{Raw: s}
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }
func (d Date) IsZero() bool                  { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// DaysUntil returns the whole days from d to other (negative if past).
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// =============================================================================
// CONTRACTED WEEKDAY - 1=Monday..5=Friday encoding
// =============================================================================

// Weekday is the enrollment weekday encoding: 1=Monday..5=Friday. Saturday
// and Sunday exist only so normalization is total; they never appear in a
// contracted set.
type Weekday int

const (
	Monday    Weekday = 1
	Tuesday   Weekday = 2
	Wednesday Weekday = 3
	Thursday  Weekday = 4
	Friday    Weekday = 5
	Saturday  Weekday = 6
	Sunday    Weekday = 7
)

// ContractedWeekday translates the native weekday (Sunday=0) into the
// enrollment encoding (Monday=1, Sunday=7). This is the single normalization
// point between the two conventions.
func (d Date) ContractedWeekday() Weekday {
	wd := int(d.t.Weekday())
	if wd == 0 {
		return Sunday
	}
	return Weekday(wd)
}

// IsSchoolDay reports whether the date falls Monday through Friday.
func (d Date) IsSchoolDay() bool {
	w := d.ContractedWeekday()
	return w >= Monday && w <= Friday
}

// =============================================================================
// DATE SET
// =============================================================================

// DateSet is a membership set of dates.
type DateSet map[Date]struct{}

func NewDateSet(dates ...Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

func (s DateSet) Add(d Date)      { s[d] = struct{}{} }
func (s DateSet) Has(d Date) bool { _, ok := s[d]; return ok }
func (s DateSet) Len() int        { return len(s) }

// =============================================================================
// MONTH HELPERS
// =============================================================================

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

func EndOfMonth(year int, month time.Month) Date {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return NewDate(t.Year(), t.Month(), t.Day())
}

// =============================================================================
// WORKING-DAY RESOLVER (días laborables)
// =============================================================================

// WorkingDays returns the working days of a month in ascending order: every
// Monday-Friday date that is not in the holiday set. Pure function of its
// inputs; callers build the holiday set from ACTIVE holidays only.
func WorkingDays(year int, month time.Month, holidays DateSet) []Date {
	var days []Date
	current := StartOfMonth(year, month)
	last := EndOfMonth(year, month)
	for current.BeforeOrEqual(last) {
		if current.IsSchoolDay() && !holidays.Has(current) {
			days = append(days, current)
		}
		current = current.AddDays(1)
	}
	return days
}

// HolidaySet collects the dates of active holidays into a set. Inactive rows
// are ignored: only active holidays suppress billing.
func HolidaySet(holidays []Holiday) DateSet {
	s := make(DateSet, len(holidays))
	for _, h := range holidays {
		if h.Active {
			s.Add(h.Date)
		}
	}
	return s
}
