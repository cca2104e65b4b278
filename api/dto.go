/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

BOUNDARY ENCODINGS:
  - All dates cross as YYYY-MM-DD strings (absence rows keep their legacy
    DD/MM/YYYY form only inside the store).
  - Weekdays cross as 1=Monday..5=Friday integers.
  - Money crosses as JSON numbers with 2 decimals.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/comedor/billing-engine/billing"
)

// =============================================================================
// PEOPLE
// =============================================================================

// PersonDTO represents a guardian or child in API responses.
type PersonDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Active     bool    `json:"active"`
	IsStaff    bool    `json:"is_staff,omitempty"`
	GuardianID string  `json:"guardian_id,omitempty"`
	Grade      string  `json:"grade,omitempty"`
	Exempt     bool    `json:"exempt,omitempty"`
	ExemptFrom *string `json:"exempt_from,omitempty"`
	ExemptTo   *string `json:"exempt_to,omitempty"`
}

// CreatePersonRequest is the request to register a guardian or child.
type CreatePersonRequest struct {
	Name         string  `json:"name"`
	IsStaff      bool    `json:"is_staff"`
	GuardianID   string  `json:"guardian_id,omitempty"`
	Grade        string  `json:"grade,omitempty"`
	Exempt       bool    `json:"exempt"`
	ExemptReason string  `json:"exempt_reason,omitempty"`
	ExemptFrom   *string `json:"exempt_from,omitempty"`
	ExemptTo     *string `json:"exempt_to,omitempty"`
}

// =============================================================================
// ENROLLMENTS
// =============================================================================

// EnrollmentDTO represents an enrollment in API responses.
type EnrollmentDTO struct {
	ID        string  `json:"id"`
	PersonID  string  `json:"person_id"`
	Weekdays  []int   `json:"weekdays"`
	UnitPrice float64 `json:"unit_price"`
	Active    bool    `json:"active"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date,omitempty"`

	// MonthlyEstimate is the weekly x 4.33 preview figure, NOT the
	// authoritative monthly total.
	MonthlyEstimate float64 `json:"monthly_estimate"`
}

// CreateEnrollmentRequest is the request to enroll a person. The daily price
// is resolved from the current tier table and snapshotted; clients never
// send a price.
type CreateEnrollmentRequest struct {
	Weekdays  []int  `json:"weekdays"`
	StartDate string `json:"start_date"`
}

// =============================================================================
// CALENDAR AND BILLING
// =============================================================================

// WorkingDaysDTO lists a month's working days for calendar rendering.
type WorkingDaysDTO struct {
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	WorkingDays []string `json:"working_days"`
	Count       int      `json:"count"`
}

// PersonCalendarDTO carries the per-day classification map that drives
// calendar-cell coloring (contracted=green, cancelled=red, holiday=pink,
// adhoc=blue, none unstyled).
type PersonCalendarDTO struct {
	PersonID string                      `json:"person_id"`
	Year     int                         `json:"year"`
	Month    int                         `json:"month"`
	Days     map[string]billing.DayClass `json:"days"`
}

// MonthlyBillDTO is the billing summary for one person-month.
type MonthlyBillDTO struct {
	PersonID           string  `json:"person_id"`
	Year               int     `json:"year"`
	Month              int     `json:"month"`
	WorkingDays        int     `json:"working_days"`
	BillableDays       int     `json:"billable_days"`
	Total              float64 `json:"total"`
	Exempt             bool    `json:"exempt,omitempty"`
	FamilyDiscount     bool    `json:"family_discount,omitempty"`
	AttendanceDiscount bool    `json:"attendance_discount,omitempty"`
}

// FamilyBillDTO groups one guardian's family for the admin report.
type FamilyBillDTO struct {
	GuardianID   string           `json:"guardian_id"`
	GuardianName string           `json:"guardian_name"`
	Guardian     *MonthlyBillDTO  `json:"guardian,omitempty"`
	Children     []MonthlyBillDTO `json:"children"`
	Total        float64          `json:"total"`
}

// MonthReportDTO is the whole-school admin billing report.
type MonthReportDTO struct {
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Families []FamilyBillDTO `json:"families"`
	Total    float64         `json:"total"`
}

// =============================================================================
// OVERRIDES
// =============================================================================

// CreateAbsenceRequest declares a cancellation (baja). Dates are ISO at the
// boundary; the store keeps them in the legacy DD/MM/YYYY form.
type CreateAbsenceRequest struct {
	PersonID string   `json:"person_id"`
	Dates    []string `json:"dates"`
	Reason   string   `json:"reason,omitempty"`
}

// AbsenceDTO represents an absence in API responses.
type AbsenceDTO struct {
	ID       string   `json:"id"`
	PersonID string   `json:"person_id"`
	Dates    []string `json:"dates"`
	Reason   string   `json:"reason,omitempty"`
}

// CreateAdHocRequest requests a single ad-hoc meal day (alta puntual).
type CreateAdHocRequest struct {
	PersonID string `json:"person_id"`
	Date     string `json:"date"`
}

// AdHocDTO represents an ad-hoc addition in API responses.
type AdHocDTO struct {
	ID       string `json:"id"`
	PersonID string `json:"person_id"`
	Date     string `json:"date"`
	State    string `json:"state"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// CreateHolidayRequest creates a holiday or a contiguous range; ranges are
// expanded to one row per date.
type CreateHolidayRequest struct {
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to,omitempty"` // empty = single day
}

// HolidayDTO represents a holiday in API responses.
type HolidayDTO struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// =============================================================================
// PRICING
// =============================================================================

// PriceTierDTO is one inclusive day-count range.
type PriceTierDTO struct {
	MinDays int     `json:"min_days"`
	MaxDays int     `json:"max_days"`
	Price   float64 `json:"price"`
}

// PricingConfigDTO mirrors the singleton configuration row.
type PricingConfigDTO struct {
	Tiers                  []PriceTierDTO `json:"tiers"`
	ThirdChildDiscountPct  float64        `json:"third_child_discount_pct"`
	AttendanceDiscountPct  float64        `json:"attendance_discount_pct"`
	AttendanceThresholdPct float64        `json:"attendance_threshold_pct"`
	StaffDailyPrice        float64        `json:"staff_daily_price"`
	StaffChildMonthlyPrice float64        `json:"staff_child_monthly_price"`
	AdvanceNoticeDays      int            `json:"advance_notice_days"`
}

// EstimateDTO is the sign-up form preview: tier unit price plus the weekly
// x 4.33 monthly approximation.
type EstimateDTO struct {
	DaysPerWeek     int     `json:"days_per_week"`
	UnitPrice       float64 `json:"unit_price"`
	WeeklyPrice     float64 `json:"weekly_price"`
	MonthlyEstimate float64 `json:"monthly_estimate"`
	Approximate     bool    `json:"approximate"` // always true; never invoice this figure
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
