/*
handlers_test.go - HTTP-level tests for the billing API

Tests run against the full router over the in-memory store: request in,
JSON out, no mocks in between.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/comedor/billing-engine/billing"
	"github.com/comedor/billing-engine/billing/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer() (*store.Memory, http.Handler) {
	mem := store.NewMemory()
	return mem, NewRouter(NewHandler(mem))
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// standardPricing mirrors a typical configuration: 1-2 days at 5.00, 3-4 at
// 4.50, 5 at 4.00, with the usual discounts.
func standardPricing(noticeDays int) billing.PricingConfig {
	return billing.PricingConfig{
		Tiers: []billing.PriceTier{
			{MinDays: 1, MaxDays: 2, Price: decimal.RequireFromString("5.00")},
			{MinDays: 3, MaxDays: 4, Price: decimal.RequireFromString("4.50")},
			{MinDays: 5, MaxDays: 5, Price: decimal.RequireFromString("4.00")},
		},
		ThirdChildDiscountPct:  decimal.RequireFromString("25"),
		AttendanceDiscountPct:  decimal.RequireFromString("5"),
		AttendanceThresholdPct: decimal.RequireFromString("80"),
		StaffDailyPrice:        decimal.RequireFromString("3.00"),
		StaffChildMonthlyPrice: decimal.RequireFromString("50.00"),
		AdvanceNoticeDays:      noticeDays,
	}
}

// =============================================================================
// PEOPLE
// =============================================================================

func TestCreatePerson_AndGet(t *testing.T) {
	_, router := newTestServer()

	rec := do(t, router, "POST", "/api/people", CreatePersonRequest{Name: "Marta"})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode[PersonDTO](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Marta", created.Name)
	assert.True(t, created.Active)

	rec = do(t, router, "GET", "/api/people/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[PersonDTO](t, rec)
	assert.Equal(t, created.ID, got.ID)
}

func TestCreatePerson_MissingName(t *testing.T) {
	_, router := newTestServer()

	rec := do(t, router, "POST", "/api/people", CreatePersonRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePerson_UnknownGuardian(t *testing.T) {
	_, router := newTestServer()

	rec := do(t, router, "POST", "/api/people", CreatePersonRequest{Name: "Ana", GuardianID: "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// ENROLLMENTS
// =============================================================================

func TestCreateEnrollment_SnapshotsTierPrice(t *testing.T) {
	mem, router := newTestServer()
	ctx := context.Background()

	require.NoError(t, mem.SavePricingConfig(ctx, standardPricing(0)))
	require.NoError(t, mem.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true, GuardianID: "g-1"}))

	rec := do(t, router, "POST", "/api/people/c-1/enrollment", CreateEnrollmentRequest{
		Weekdays:  []int{1, 3},
		StartDate: "2024-09-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	enr := decode[EnrollmentDTO](t, rec)
	assert.Equal(t, 5.00, enr.UnitPrice, "2 days/week snapshots the 1-2 tier price")
	assert.Equal(t, []int{1, 3}, enr.Weekdays)

	// Later tier changes must not touch the snapshot.
	changed := standardPricing(0)
	changed.Tiers[0].Price = decimal.RequireFromString("9.99")
	require.NoError(t, mem.SavePricingConfig(ctx, changed))

	rec = do(t, router, "GET", "/api/people/c-1/enrollment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[EnrollmentDTO](t, rec)
	assert.Equal(t, 5.00, got.UnitPrice)
}

func TestCreateEnrollment_SecondActiveRejected(t *testing.T) {
	mem, router := newTestServer()
	ctx := context.Background()

	require.NoError(t, mem.SavePricingConfig(ctx, standardPricing(0)))
	require.NoError(t, mem.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true}))

	body := CreateEnrollmentRequest{Weekdays: []int{1, 3}, StartDate: "2024-09-01"}
	rec := do(t, router, "POST", "/api/people/c-1/enrollment", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, "POST", "/api/people/c-1/enrollment", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateEnrollment_NoConfig_TellsAdmin(t *testing.T) {
	mem, router := newTestServer()
	require.NoError(t, mem.SavePerson(context.Background(), billing.Person{ID: "c-1", Name: "Ana", Active: true}))

	rec := do(t, router, "POST", "/api/people/c-1/enrollment", CreateEnrollmentRequest{
		Weekdays:  []int{1},
		StartDate: "2024-09-01",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	assert.Contains(t, resp.Error, "administrator")
}

func TestCreateEnrollment_InvalidWeekdays(t *testing.T) {
	mem, router := newTestServer()
	ctx := context.Background()
	require.NoError(t, mem.SavePricingConfig(ctx, standardPricing(0)))
	require.NoError(t, mem.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true}))

	for _, weekdays := range [][]int{{}, {0}, {6}, {1, 1}, {1, 2, 3, 4, 5, 5}} {
		rec := do(t, router, "POST", "/api/people/c-1/enrollment", CreateEnrollmentRequest{
			Weekdays:  weekdays,
			StartDate: "2024-09-01",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "weekdays %v should be rejected", weekdays)
	}
}

func TestDeactivateEnrollment(t *testing.T) {
	mem, router := newTestServer()
	ctx := context.Background()

	require.NoError(t, mem.SavePricingConfig(ctx, standardPricing(0)))
	require.NoError(t, mem.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true}))

	rec := do(t, router, "POST", "/api/people/c-1/enrollment", CreateEnrollmentRequest{
		Weekdays: []int{1, 3}, StartDate: "2024-09-01"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, "DELETE", "/api/people/c-1/enrollment", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, "GET", "/api/people/c-1/enrollment", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// CALENDAR AND BILLING
// =============================================================================

func TestGetWorkingDays_ExcludesHoliday(t *testing.T) {
	mem, router := newTestServer()
	require.NoError(t, mem.SaveHoliday(context.Background(), billing.Holiday{
		ID: "h-1", Date: billing.NewDate(2024, time.October, 14), Name: "Puente", Active: true}))

	rec := do(t, router, "GET", "/api/calendar/working-days?year=2024&month=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[WorkingDaysDTO](t, rec)
	assert.Equal(t, 22, got.Count)
	assert.NotContains(t, got.WorkingDays, "2024-10-14")
}

func TestGetPersonBilling_FullMonthWithAttendanceDiscount(t *testing.T) {
	mem, router := newTestServer()
	ctx := context.Background()

	require.NoError(t, mem.SavePricingConfig(ctx, standardPricing(0)))
	require.NoError(t, mem.SavePerson(ctx, billing.Person{ID: "g-1", Name: "Marta", Active: true}))
	require.NoError(t, mem.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true, GuardianID: "g-1"}))

	rec := do(t, router, "POST", "/api/people/c-1/enrollment", CreateEnrollmentRequest{
		Weekdays: []int{1, 2, 3, 4, 5}, StartDate: "2024-09-01"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, "GET", "/api/people/c-1/billing?year=2024&month=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	bill := decode[MonthlyBillDTO](t, rec)
	assert.Equal(t, 23, bill.WorkingDays)
	assert.Equal(t, 23, bill.BillableDays)
	// 23 days * 4.00 = 92.00, attendance discount 5% -> 87.40
	assert.Equal(t, 87.40, bill.Total)
	assert.True(t, bill.AttendanceDiscount)
}

func TestGetPersonBilling_NotConfigured(t *testing.T) {
	mem, router := newTestServer()
	require.NoError(t, mem.SavePerson(context.Background(), billing.Person{ID: "c-1", Name: "Ana", Active: true}))

	rec := do(t, router, "GET", "/api/people/c-1/billing?year=2024&month=10", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetMonthReport_GroupsByGuardian(t *testing.T) {
	mem, router := newTestServer()
	ctx := context.Background()

	require.NoError(t, mem.SavePricingConfig(ctx, standardPricing(0)))
	require.NoError(t, mem.SavePerson(ctx, billing.Person{ID: "g-1", Name: "Marta", Active: true}))
	require.NoError(t, mem.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true, GuardianID: "g-1"}))

	rec := do(t, router, "POST", "/api/people/c-1/enrollment", CreateEnrollmentRequest{
		Weekdays: []int{1, 2, 3, 4, 5}, StartDate: "2024-09-01"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, "GET", "/api/billing/month?year=2024&month=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[MonthReportDTO](t, rec)
	require.Len(t, report.Families, 1)
	assert.Equal(t, "g-1", report.Families[0].GuardianID)
	assert.Equal(t, 87.40, report.Families[0].Total)
	assert.Equal(t, 87.40, report.Total)
}

func TestGetPersonCalendar_WorksWithoutConfig(t *testing.T) {
	// The calendar view needs no pricing; a missing configuration must not
	// block it.
	mem, router := newTestServer()
	require.NoError(t, mem.SavePerson(context.Background(), billing.Person{ID: "c-1", Name: "Ana", Active: true}))

	rec := do(t, router, "GET", "/api/people/c-1/calendar?year=2024&month=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cal := decode[PersonCalendarDTO](t, rec)
	assert.Len(t, cal.Days, 23)
}

// =============================================================================
// OVERRIDES
// =============================================================================

func TestCreateAbsence_InsideNoticeWindowRejected(t *testing.T) {
	mem, router := newTestServer()
	ctx := context.Background()

	require.NoError(t, mem.SavePricingConfig(ctx, standardPricing(3)))
	require.NoError(t, mem.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true}))

	tomorrow := billing.Today().AddDays(1)
	rec := do(t, router, "POST", "/api/absences", CreateAbsenceRequest{
		PersonID: "c-1",
		Dates:    []string{tomorrow.String()},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	farEnough := billing.Today().AddDays(10)
	rec = do(t, router, "POST", "/api/absences", CreateAbsenceRequest{
		PersonID: "c-1",
		Dates:    []string{farEnough.String()},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode[AbsenceDTO](t, rec)
	require.Len(t, created.Dates, 1)
	// Stored in the legacy DD/MM/YYYY form.
	assert.Equal(t, toLegacyDate(farEnough), created.Dates[0])
}

func TestAdHoc_ApprovalFlow(t *testing.T) {
	mem, router := newTestServer()
	ctx := context.Background()

	require.NoError(t, mem.SavePricingConfig(ctx, standardPricing(1)))
	require.NoError(t, mem.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true}))

	date := billing.Today().AddDays(14)
	rec := do(t, router, "POST", "/api/adhoc", CreateAdHocRequest{PersonID: "c-1", Date: date.String()})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode[AdHocDTO](t, rec)
	assert.Equal(t, "pending", created.State)

	rec = do(t, router, "POST", "/api/adhoc/"+created.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	approved := decode[AdHocDTO](t, rec)
	assert.Equal(t, "approved", approved.State)

	// Already resolved; a second decision is a conflict.
	rec = do(t, router, "POST", "/api/adhoc/"+created.ID+"/reject", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestCreateHoliday_RangeExpandsToRows(t *testing.T) {
	_, router := newTestServer()

	rec := do(t, router, "POST", "/api/holidays", CreateHolidayRequest{
		Name: "Semana Santa",
		From: "2024-03-25",
		To:   "2024-03-29",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decode[[]HolidayDTO](t, rec)
	assert.Len(t, created, 5)

	rec = do(t, router, "GET", "/api/holidays?year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]HolidayDTO](t, rec)
	assert.Len(t, listed, 5)
}

func TestCreateHoliday_BackwardsRangeRejected(t *testing.T) {
	_, router := newTestServer()

	rec := do(t, router, "POST", "/api/holidays", CreateHolidayRequest{
		Name: "Oops",
		From: "2024-03-29",
		To:   "2024-03-25",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PRICING
// =============================================================================

func TestPricing_PutThenEstimate(t *testing.T) {
	_, router := newTestServer()

	// Unconfigured: both endpoints refuse.
	rec := do(t, router, "GET", "/api/pricing", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, "PUT", "/api/pricing", PricingConfigDTO{
		Tiers: []PriceTierDTO{
			{MinDays: 1, MaxDays: 2, Price: 5.00},
			{MinDays: 3, MaxDays: 4, Price: 4.50},
			{MinDays: 5, MaxDays: 5, Price: 4.00},
		},
		ThirdChildDiscountPct:  25,
		AttendanceDiscountPct:  5,
		AttendanceThresholdPct: 80,
		StaffDailyPrice:        3.00,
		StaffChildMonthlyPrice: 50.00,
		AdvanceNoticeDays:      1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, "GET", "/api/pricing/estimate?days=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	est := decode[EstimateDTO](t, rec)
	assert.Equal(t, 4.50, est.UnitPrice)
	assert.Equal(t, 13.50, est.WeeklyPrice)
	// 13.50 * 4.33 = 58.455 -> 58.46
	assert.Equal(t, 58.46, est.MonthlyEstimate)
	assert.True(t, est.Approximate)
}

func TestEstimate_ZeroDays(t *testing.T) {
	mem, router := newTestServer()
	require.NoError(t, mem.SavePricingConfig(context.Background(), standardPricing(0)))

	rec := do(t, router, "GET", "/api/pricing/estimate?days=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	est := decode[EstimateDTO](t, rec)
	assert.Equal(t, 0.00, est.MonthlyEstimate)
}
