/*
pricing.go - Tiered pricing, fixed staff rates, discounts and exemptions

PURPOSE:
  Resolves what one billable day costs and what a monthly total becomes after
  discounts. The engine is a pure function of an explicitly passed
  PricingConfig; there is no hidden global configuration.

PRICE RESOLUTION (per person):
  1. Fee exemption       -> total is zero, nothing else evaluated
  2. Staff guardian      -> fixed staff daily rate, no discounts
  3. Child of staff      -> fixed staff-child MONTHLY amount (not per-day),
                            overrides the tiered calculation entirely
  4. Enrolled child      -> the enrollment's snapshot daily price
  5. Ad-hoc only         -> tier price for 1 day/week (single-day rate)

TIERS:
  Tiers are inclusive [MinDays, MaxDays] ranges over the weekly day count
  1..5, kept sorted by MinDays. The no-gap/no-overlap invariant is a
  data-integrity expectation on the store; the engine does not repair
  violations, it surfaces them: a day count in 1..5 with no covering tier is
  a NoTierError. Day count 0 is "nothing selected yet" in the sign-up form
  and prices to zero with no error.

DISCOUNTS:
  Family discount:     3+ concurrently billed children of one guardian; the
                       two most expensive keep full price, the rest get
                       ThirdChildDiscountPct off. Ranking ties break by
                       enrollment creation time, then enrollment ID
                       (oldest enrollment keeps full price).
  Attendance discount: billable days >= ceil(workingDays * threshold / 100)
                       earns AttendanceDiscountPct off.
  Both may apply; the family discount is applied first, the attendance
  discount then compounds on the discounted amount.

SEE ALSO:
  - monthly.go: invokes price resolution once billable days are counted
*/
package billing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRICING CONFIGURATION
// =============================================================================

// PriceTier maps an inclusive weekly day-count range to a per-day price.
type PriceTier struct {
	MinDays int
	MaxDays int
	Price   decimal.Decimal
}

// Contains reports whether the tier covers the day count.
func (t PriceTier) Contains(dayCount int) bool {
	return dayCount >= t.MinDays && dayCount <= t.MaxDays
}

// PricingConfig is the singleton active pricing row: tier table plus scalar
// discount and rate settings. It is loaded from the store and passed in
// explicitly; the engine never reads configuration ad hoc.
type PricingConfig struct {
	// Tiers over the weekly day-count domain 1..5, sorted by MinDays.
	Tiers []PriceTier

	// ThirdChildDiscountPct (descuento_tercer_hijo): percent off for the
	// third and subsequent concurrently billed children of one guardian.
	ThirdChildDiscountPct decimal.Decimal

	// AttendanceDiscountPct (descuento_asistencia_80): percent off when the
	// attendance threshold is met.
	AttendanceDiscountPct decimal.Decimal

	// AttendanceThresholdPct: share of the month's working days that must be
	// billable for the attendance discount, e.g. 80.
	AttendanceThresholdPct decimal.Decimal

	// StaffDailyPrice (precio_personal): fixed per-day rate for staff
	// guardians' own meals.
	StaffDailyPrice decimal.Decimal

	// StaffChildMonthlyPrice (precio_hijo_personal): fixed MONTHLY amount for
	// children of staff. An alternative total, not a per-day rate.
	StaffChildMonthlyPrice decimal.Decimal

	// AdvanceNoticeDays (días de antelación): minimum days of notice for
	// absences and ad-hoc requests. Enforced at the API boundary.
	AdvanceNoticeDays int
}

// SortTiers normalizes the tier table to ascending MinDays. Lookup assumes
// this order; call after loading from the store.
func (pc *PricingConfig) SortTiers() {
	sort.Slice(pc.Tiers, func(i, j int) bool { return pc.Tiers[i].MinDays < pc.Tiers[j].MinDays })
}

// =============================================================================
// UNIT PRICE - Tier lookup
// =============================================================================

// UnitPrice resolves the per-day price for a weekly day count.
//
// Day count 0 prices to zero with no error (nothing selected yet). Any other
// day count without a covering tier is a NoTierError: the configuration is
// broken and a silent default would misbill a family.
func (pc PricingConfig) UnitPrice(dayCount int) (decimal.Decimal, error) {
	if dayCount == 0 {
		return decimal.Zero, nil
	}
	for _, t := range pc.Tiers {
		if t.Contains(dayCount) {
			return t.Price, nil
		}
	}
	return decimal.Zero, &NoTierError{DayCount: dayCount}
}

// =============================================================================
// ATTENDANCE DISCOUNT THRESHOLD
// =============================================================================

// RequiredDaysForDiscount returns the billable-day count needed to earn the
// attendance discount: ceil(workingDays * threshold / 100). With 22 working
// days and an 80% threshold that is ceil(17.6) = 18.
func (pc PricingConfig) RequiredDaysForDiscount(workingDays int) int {
	if pc.AttendanceThresholdPct.IsZero() {
		return 0
	}
	required := decimal.NewFromInt(int64(workingDays)).
		Mul(pc.AttendanceThresholdPct).
		Div(decimal.NewFromInt(100))
	return int(required.Ceil().IntPart())
}

// =============================================================================
// DISCOUNT ARITHMETIC
// =============================================================================

var hundred = decimal.NewFromInt(100)

// applyDiscountPct reduces amount by pct percent. A zero pct is a no-op.
func applyDiscountPct(amount, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return amount
	}
	factor := hundred.Sub(pct).Div(hundred)
	return amount.Mul(factor)
}

// RoundMoney rounds to 2 decimal places, half up. Applied once, at the point
// of final total computation; intermediate per-day amounts stay unrounded.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
