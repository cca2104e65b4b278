/*
Package billing provides the core cafeteria billing reconciliation engine.

PURPOSE:
  This package contains the types and algorithms for reconciling a person's
  cafeteria attendance over a calendar month: which days are working days,
  which are contracted, cancelled (baja), added ad hoc (alta puntual) or
  suppressed by holidays, and what the resulting monthly invoice amount is.

KEY CONCEPTS IN THIS FILE (types.go):
  - Person: A guardian (parent or staff) or a child
  - Enrollment: A contracted weekday set with a snapshot daily price
  - Absence: Declared cancellations for specific dates (baja)
  - AdHocAddition: A single-day meal request with an approval state
  - Holiday: A non-billable calendar date
  - DayClass: The per-day attendance classification (derived, never stored)

DESIGN PRINCIPLES:
  1. Purity: All billing math is a function of explicitly passed inputs
  2. Precision: Uses decimal.Decimal to avoid floating-point money errors
  3. Type Safety: Strong typing for IDs prevents mixing person/enrollment IDs
  4. Normalization: Dates and weekdays are normalized once, at the boundary

USAGE:
  enr := billing.Enrollment{
      PersonID:  "child-1",
      Weekdays:  []billing.Weekday{billing.Monday, billing.Wednesday},
      UnitPrice: decimal.RequireFromString("4.50"),
      Active:    true,
      StartDate: billing.NewDate(2025, time.September, 1),
  }

SEE ALSO:
  - calendar.go: Date type and working-day resolution
  - classify.go:  Per-day classification with override priority
  - pricing.go:   Tiers, discounts and exemptions
  - monthly.go:   The monthly aggregator
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PersonID string
type EnrollmentID string
type AbsenceID string
type AdHocID string
type HolidayID string

// =============================================================================
// PERSON - Guardian (parent/staff) or child
// =============================================================================

// Person is anyone who can hold an enrollment: a child, or a staff guardian
// who eats at the cafeteria themselves. Regular (non-staff) guardians never
// hold enrollments; they exist as the family anchor for their children.
type Person struct {
	ID     PersonID
	Name   string
	Active bool

	// IsStaff marks a guardian as school staff (es_personal). Staff pay the
	// fixed staff daily rate and their children may be billed the fixed
	// staff-child monthly amount.
	IsStaff bool

	// GuardianID links a child to its guardian. Empty for guardians.
	GuardianID PersonID

	// Grade is the child's school grade (curso). Informational; billing
	// never branches on it.
	Grade string

	Exemption Exemption
}

// IsChild reports whether this person is a child (has a guardian).
func (p Person) IsChild() bool { return p.GuardianID != "" }

// =============================================================================
// EXEMPTION - Fee exemption, full or date-bounded
// =============================================================================

// Exemption (exento de facturación) forces a person's monthly total to zero.
// When From/To are set, only months overlapping [From, To] are exempt.
type Exemption struct {
	Exempt bool
	Reason string
	From   *Date
	To     *Date
}

// AppliesTo reports whether the exemption covers the given billing month.
// An unbounded exemption covers every month; a bounded one covers any month
// that overlaps the [From, To] window.
func (x Exemption) AppliesTo(year int, month time.Month) bool {
	if !x.Exempt {
		return false
	}
	first := NewDate(year, month, 1)
	last := EndOfMonth(year, month)
	if x.From != nil && last.Before(*x.From) {
		return false
	}
	if x.To != nil && first.After(*x.To) {
		return false
	}
	return true
}

// =============================================================================
// ENROLLMENT - Contracted weekday set with snapshot pricing (inscripción)
// =============================================================================

// Enrollment is a person's cafeteria contract: which weekdays they eat, at
// what daily price, and over which date window.
//
// INVARIANTS:
//   - At most one ACTIVE enrollment per person at a time. This is enforced by
//     a lookup-before-insert in the enrollment workflow, not by the store.
//   - UnitPrice is a snapshot taken from the pricing tiers at creation time.
//     It is NEVER recomputed when the global pricing configuration changes.
//   - Deactivation is a soft delete: Active=false plus a stamped EndDate.
type Enrollment struct {
	ID       EnrollmentID
	PersonID PersonID

	// Weekdays is the contracted weekday set, encoded 1=Monday..5=Friday.
	Weekdays []Weekday

	// UnitPrice is the per-day price snapshot at creation time.
	UnitPrice decimal.Decimal

	Active    bool
	StartDate Date
	EndDate   *Date // nil = open-ended

	CreatedAt time.Time
}

// DaysPerWeek returns the number of contracted weekdays, the key into the
// pricing tier table.
func (e Enrollment) DaysPerWeek() int { return len(e.Weekdays) }

// HasWeekday reports whether the contracted set includes the given weekday.
func (e Enrollment) HasWeekday(w Weekday) bool {
	for _, d := range e.Weekdays {
		if d == w {
			return true
		}
	}
	return false
}

// =============================================================================
// ABSENCE - Declared cancellation (baja)
// =============================================================================

// Absence removes specific dates from a person's billable days regardless of
// enrollment. Dates are stored the way the legacy data holds them: as
// DD/MM/YYYY text, parsed back on use (see ParseAbsenceDate).
type Absence struct {
	ID       AbsenceID
	PersonID PersonID
	Dates    []string // DD/MM/YYYY text form
	Reason   string

	CreatedAt time.Time
}

// =============================================================================
// AD-HOC ADDITION - Single-day meal request (alta puntual)
// =============================================================================

type ApprovalState string

const (
	StatePending  ApprovalState = "pending"
	StateApproved ApprovalState = "approved"
	StateRejected ApprovalState = "rejected"
)

// AdHocAddition adds a billable day even without a matching enrollment, but
// only once approved.
type AdHocAddition struct {
	ID       AdHocID
	PersonID PersonID
	Date     Date
	State    ApprovalState

	CreatedAt time.Time
}

// =============================================================================
// HOLIDAY - Non-billable calendar date (día festivo)
// =============================================================================

// Holiday suppresses billing on its date. Ranges are expanded to individual
// rows at creation time. Only active holidays count.
type Holiday struct {
	ID     HolidayID
	Date   Date
	Name   string
	Active bool
}

// =============================================================================
// DAY CLASSIFICATION - Derived per-day attendance state
// =============================================================================

// DayClass is the attendance classification of one person-date. It is always
// computed, never persisted.
//
// Priority order (first match wins):
//   holiday > cancelled > adhoc > contracted > none
type DayClass string

const (
	DayHoliday    DayClass = "holiday"
	DayCancelled  DayClass = "cancelled"
	DayAdHoc      DayClass = "adhoc"
	DayContracted DayClass = "contracted"
	DayNone       DayClass = "none"
)

// Billable reports whether a day with this classification is invoiced.
// Only contracted and approved ad-hoc days bill.
func (c DayClass) Billable() bool {
	return c == DayContracted || c == DayAdHoc
}
