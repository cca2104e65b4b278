/*
monthly.go - The monthly aggregator

PURPOSE:
  Combines the calendar resolver, enrollment matcher, override layer and
  pricing engine into the per-person, per-month result the rest of the
  system consumes: billable-day count, monetary total, and the per-day
  classification map the attendance calendar renders.

ALGORITHM:
  1. Resolve the month's working days (Mon-Fri minus active holidays).
  2. Classify every working day for the person.
  3. Count contracted + adhoc days as billable. Cancelled and holiday days
     never bill.
  4. Resolve the per-day price (snapshot, staff rate, staff-child monthly
     amount or tier), apply discounts and the exemption short-circuit.
  5. Round the final total to 2 decimals, half up. Intermediate per-day
     amounts are never independently rounded.

DISCOUNT ORDER:
  When both apply in the same month, the family discount is applied first
  and the attendance discount compounds on the discounted amount.

FAMILY DISCOUNT RANKING:
  Children are ranked by base total descending; the two most expensive keep
  full price. Ties break by enrollment creation time, then enrollment ID,
  then child ID - the oldest enrollment keeps full price. Deterministic by
  construction.

SEE ALSO:
  - classify.go: the override layer
  - pricing.go:  price resolution and discount arithmetic
*/
package billing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULTS
// =============================================================================

// MonthlyBill is the computed billing result for one person-month.
type MonthlyBill struct {
	PersonID PersonID
	Year     int
	Month    time.Month

	// WorkingDays is the month's working-day count (shared by everyone).
	WorkingDays int

	// BillableDays counts days classified contracted or adhoc.
	BillableDays int

	// Days maps ISO date -> classification for every working day of the
	// month. Drives calendar-cell coloring.
	Days map[string]DayClass

	// Total is the final amount, rounded to 2 decimals.
	Total decimal.Decimal

	Exempt             bool
	FamilyDiscount     bool
	AttendanceDiscount bool

	// discountable marks totals eligible for family/attendance discounts
	// (tier-priced children). Staff rates and fixed amounts are not.
	discountable bool

	// enrollment backs the family-discount tie-break. May be nil.
	enrollment *Enrollment
}

// FamilyBill aggregates one guardian's family for a month.
type FamilyBill struct {
	GuardianID PersonID
	Year       int
	Month      time.Month

	// Guardian holds the staff guardian's own bill, when they are enrolled.
	Guardian *MonthlyBill

	Children []MonthlyBill

	// Total sums the rounded member totals.
	Total decimal.Decimal
}

// ChildEnrollment pairs a child with its active enrollment (nil when the
// child has none; ad-hoc days may still bill).
type ChildEnrollment struct {
	Child      Person
	Enrollment *Enrollment
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes monthly bills from a pricing configuration and the
// month's materialized input collections. Build one per computation run;
// it performs no I/O.
type Calculator struct {
	Config     PricingConfig
	Classifier *Classifier
}

func NewCalculator(config PricingConfig, classifier *Classifier) *Calculator {
	config.SortTiers()
	return &Calculator{Config: config, Classifier: classifier}
}

// ComputeMonth computes the bill for a single person with no family context:
// the attendance discount may apply, the family discount cannot. guardian is
// the child's guardian (nil when billing a guardian themselves); it decides
// staff-child pricing.
func (c *Calculator) ComputeMonth(person Person, guardian *Person, year int, month time.Month, enrollment *Enrollment) (MonthlyBill, error) {
	bill, err := c.computeBase(person, guardian, year, month, enrollment)
	if err != nil {
		return MonthlyBill{}, err
	}
	c.applyAttendanceDiscount(&bill)
	bill.Total = RoundMoney(bill.Total)
	return bill, nil
}

// ComputeFamilyMonth computes bills for a guardian's whole family, applying
// the multi-child discount across the children and then the attendance
// discount per member. guardianEnrollment is the staff guardian's own
// enrollment, nil otherwise.
func (c *Calculator) ComputeFamilyMonth(guardian Person, guardianEnrollment *Enrollment, children []ChildEnrollment, year int, month time.Month) (FamilyBill, error) {
	family := FamilyBill{
		GuardianID: guardian.ID,
		Year:       year,
		Month:      month,
		Total:      decimal.Zero,
	}

	for _, ce := range children {
		bill, err := c.computeBase(ce.Child, &guardian, year, month, ce.Enrollment)
		if err != nil {
			return FamilyBill{}, err
		}
		family.Children = append(family.Children, bill)
	}

	c.applyFamilyDiscount(family.Children)

	for i := range family.Children {
		c.applyAttendanceDiscount(&family.Children[i])
		family.Children[i].Total = RoundMoney(family.Children[i].Total)
		family.Total = family.Total.Add(family.Children[i].Total)
	}

	if guardian.IsStaff && guardianEnrollment != nil {
		bill, err := c.ComputeMonth(guardian, nil, year, month, guardianEnrollment)
		if err != nil {
			return FamilyBill{}, err
		}
		family.Guardian = &bill
		family.Total = family.Total.Add(bill.Total)
	}

	return family, nil
}

// =============================================================================
// BASE COMPUTATION - Days + undiscounted total
// =============================================================================

func (c *Calculator) computeBase(person Person, guardian *Person, year int, month time.Month, enrollment *Enrollment) (MonthlyBill, error) {
	bill := MonthlyBill{
		PersonID:   person.ID,
		Year:       year,
		Month:      month,
		Days:       make(map[string]DayClass),
		Total:      decimal.Zero,
		enrollment: enrollment,
	}

	workingDays := WorkingDays(year, month, c.Classifier.Holidays())
	bill.WorkingDays = len(workingDays)

	for _, d := range workingDays {
		class := c.Classifier.Classify(person.ID, d, enrollment)
		bill.Days[d.String()] = class
		if class.Billable() {
			bill.BillableDays++
		}
	}

	// Exemption short-circuits every tier and discount computation. The day
	// classification above still feeds the attendance calendar.
	if person.Exemption.AppliesTo(year, month) {
		bill.Exempt = true
		return bill, nil
	}

	if bill.BillableDays == 0 {
		return bill, nil
	}

	days := decimal.NewFromInt(int64(bill.BillableDays))

	switch {
	case person.IsStaff:
		// Fixed staff daily rate. No discounts on staff's own meal.
		bill.Total = c.Config.StaffDailyPrice.Mul(days)

	case guardian != nil && guardian.IsStaff:
		// Fixed monthly amount for staff children, independent of day count.
		// Overrides the tiered calculation entirely.
		bill.Total = c.Config.StaffChildMonthlyPrice

	case enrollment != nil:
		// Snapshot price from the enrollment. Never recomputed from the
		// current tier table.
		bill.Total = enrollment.UnitPrice.Mul(days)
		bill.discountable = true

	default:
		// Ad-hoc days only: bill at the single-day tier rate.
		unit, err := c.Config.UnitPrice(1)
		if err != nil {
			return MonthlyBill{}, err
		}
		bill.Total = unit.Mul(days)
		bill.discountable = true
	}

	return bill, nil
}

// =============================================================================
// DISCOUNTS
// =============================================================================

// applyFamilyDiscount discounts the third and subsequent concurrently billed
// children. Ranking: base total descending, ties broken by enrollment
// creation time, enrollment ID, child ID. The two most expensive keep full
// price.
func (c *Calculator) applyFamilyDiscount(children []MonthlyBill) {
	if c.Config.ThirdChildDiscountPct.IsZero() {
		return
	}

	billed := make([]*MonthlyBill, 0, len(children))
	for i := range children {
		b := &children[i]
		if b.discountable && !b.Exempt && b.BillableDays > 0 {
			billed = append(billed, b)
		}
	}
	if len(billed) < 3 {
		return
	}

	sort.SliceStable(billed, func(i, j int) bool {
		a, b := billed[i], billed[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		at, bt := enrollmentCreatedAt(a), enrollmentCreatedAt(b)
		if !at.Equal(bt) {
			return at.Before(bt)
		}
		ai, bi := enrollmentID(a), enrollmentID(b)
		if ai != bi {
			return ai < bi
		}
		return a.PersonID < b.PersonID
	})

	for _, b := range billed[2:] {
		b.Total = applyDiscountPct(b.Total, c.Config.ThirdChildDiscountPct)
		b.FamilyDiscount = true
	}
}

func enrollmentCreatedAt(b *MonthlyBill) time.Time {
	if b.enrollment == nil {
		return time.Time{}
	}
	return b.enrollment.CreatedAt
}

func enrollmentID(b *MonthlyBill) EnrollmentID {
	if b.enrollment == nil {
		return ""
	}
	return b.enrollment.ID
}

// applyAttendanceDiscount applies the threshold discount on the current
// (possibly family-discounted) amount.
func (c *Calculator) applyAttendanceDiscount(bill *MonthlyBill) {
	if !bill.discountable || bill.Exempt || c.Config.AttendanceDiscountPct.IsZero() {
		return
	}
	required := c.Config.RequiredDaysForDiscount(bill.WorkingDays)
	if required == 0 || bill.BillableDays < required {
		return
	}
	bill.Total = applyDiscountPct(bill.Total, c.Config.AttendanceDiscountPct)
	bill.AttendanceDiscount = true
}

// =============================================================================
// WEEKLY-TO-MONTHLY APPROXIMATION
// =============================================================================

// weeksPerMonth is the approximation factor used only for sign-up previews.
var weeksPerMonth = decimal.RequireFromString("4.33")

// EstimateMonthly approximates a monthly amount from a weekly day count:
// tier price x days x 4.33, rounded to 2 decimals.
//
// This is a PREVIEW figure for the enrollment form. The authoritative
// monthly total always sums actual billable working days; never use the
// estimate for invoicing.
func (pc PricingConfig) EstimateMonthly(dayCount int) (decimal.Decimal, error) {
	unit, err := pc.UnitPrice(dayCount)
	if err != nil {
		return decimal.Zero, err
	}
	weekly := unit.Mul(decimal.NewFromInt(int64(dayCount)))
	return RoundMoney(weekly.Mul(weeksPerMonth)), nil
}
