/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place for consistency and discoverability. The
  engine distinguishes two failure classes the presentation layer must treat
  differently:

  1. Not configured  - pricing configuration absent or has no covering tier.
     Fatal for the computation. The UI should say "contact an administrator
     to configure pricing", never silently bill zero.
  2. Malformed input - a date string that cannot be parsed. A single bad
     absence row fails OPEN (the date is dropped from the cancelled set);
     bad input at the API boundary fails the request.

USAGE:
  if billing.IsNotConfigured(err) {
      // 409 + actionable admin message
  }

SEE ALSO:
  - pricing.go: returns NoTierError
  - calendar.go: returns MalformedDateError
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotConfigured is returned when the pricing configuration is missing
	// or does not cover the requested day count. Computation must stop: a
	// silent default would misbill a family.
	ErrNotConfigured = errors.New("pricing configuration missing")

	// ErrMalformedInput is returned when input data cannot be parsed.
	ErrMalformedInput = errors.New("input data malformed")

	// ErrPersonNotFound is returned when a referenced person doesn't exist.
	ErrPersonNotFound = errors.New("person not found")

	// ErrEnrollmentNotFound is returned when a person has no active enrollment
	// and the operation requires one. Billing itself never returns this: a
	// missing enrollment simply yields zero billable days.
	ErrEnrollmentNotFound = errors.New("active enrollment not found")

	// ErrEnrollmentExists is returned when creating an enrollment for a person
	// that already has an active one. One active enrollment per person.
	ErrEnrollmentExists = errors.New("person already has an active enrollment")

	// ErrAdHocNotFound is returned when an ad-hoc addition doesn't exist.
	ErrAdHocNotFound = errors.New("ad-hoc addition not found")

	// ErrTooLate is returned when an absence or ad-hoc request is submitted
	// inside the advance-notice window.
	ErrTooLate = errors.New("advance notice period not met")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NoTierError reports a day count in the valid 1..5 domain that no pricing
// tier covers. This is a data-integrity failure in the configuration, not a
// caller bug.
type NoTierError struct {
	DayCount int
}

func (e *NoTierError) Error() string {
	return fmt.Sprintf("no pricing tier covers %d days/week", e.DayCount)
}

func (e *NoTierError) Unwrap() error { return ErrNotConfigured }

// MalformedDateError reports a date string that failed every parsing layout.
type MalformedDateError struct {
	Raw string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("unparseable date %q", e.Raw)
}

func (e *MalformedDateError) Unwrap() error { return ErrMalformedInput }

// AdvanceNoticeError reports a request submitted too close to its date.
type AdvanceNoticeError struct {
	Date     Date
	Required int // days of notice required
	Given    int // days of notice actually given
}

func (e *AdvanceNoticeError) Error() string {
	return fmt.Sprintf("request for %s needs %d days notice, got %d", e.Date, e.Required, e.Given)
}

func (e *AdvanceNoticeError) Unwrap() error { return ErrTooLate }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotConfigured returns true if the error is a missing-configuration
// failure the admin must fix.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsMalformedInput returns true if the error is due to unparseable input.
func IsMalformedInput(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPersonNotFound) ||
		errors.Is(err, ErrEnrollmentNotFound) ||
		errors.Is(err, ErrAdHocNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrEnrollmentExists) ||
		errors.Is(err, ErrTooLate)
}
