package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/comedor/billing-engine/billing"
	"github.com/comedor/billing-engine/store/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// PEOPLE
// =============================================================================

func TestSavePerson_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	from := billing.NewDate(2024, time.October, 1)
	to := billing.NewDate(2024, time.December, 31)

	guardian := billing.Person{ID: "g-1", Name: "Marta", Active: true, IsStaff: true}
	require.NoError(t, store.SavePerson(ctx, guardian))

	child := billing.Person{
		ID: "child-1", Name: "Ana", Active: true, GuardianID: "g-1", Grade: "3A",
		Exemption: billing.Exemption{Exempt: true, Reason: "beca", From: &from, To: &to},
	}
	require.NoError(t, store.SavePerson(ctx, child))

	got, err := store.GetPerson(ctx, "child-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, billing.PersonID("g-1"), got.GuardianID)
	assert.Equal(t, "3A", got.Grade)
	assert.True(t, got.Exemption.Exempt)
	assert.Equal(t, "beca", got.Exemption.Reason)
	require.NotNil(t, got.Exemption.From)
	assert.True(t, got.Exemption.From.Equal(from))
	require.NotNil(t, got.Exemption.To)
	assert.True(t, got.Exemption.To.Equal(to))
}

func TestGetPerson_Missing_ReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetPerson(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSavePerson_UpsertOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := billing.Person{ID: "g-1", Name: "Marta", Active: true}
	require.NoError(t, store.SavePerson(ctx, p))

	p.Active = false
	require.NoError(t, store.SavePerson(ctx, p))

	got, err := store.GetPerson(ctx, "g-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Active)
}

func TestListChildren_OnlyActiveChildrenOfGuardian(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePerson(ctx, billing.Person{ID: "g-1", Name: "Marta", Active: true}))
	require.NoError(t, store.SavePerson(ctx, billing.Person{ID: "g-2", Name: "Luis", Active: true}))
	require.NoError(t, store.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true, GuardianID: "g-1"}))
	require.NoError(t, store.SavePerson(ctx, billing.Person{ID: "c-2", Name: "Pablo", Active: false, GuardianID: "g-1"}))
	require.NoError(t, store.SavePerson(ctx, billing.Person{ID: "c-3", Name: "Sara", Active: true, GuardianID: "g-2"}))

	children, err := store.ListChildren(ctx, "g-1")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, billing.PersonID("c-1"), children[0].ID)
}

// =============================================================================
// ENROLLMENTS
// =============================================================================

func TestEnrollment_SnapshotPriceSurvivesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true}))

	e := billing.Enrollment{
		ID:        "enr-1",
		PersonID:  "c-1",
		Weekdays:  []billing.Weekday{billing.Monday, billing.Wednesday, billing.Friday},
		UnitPrice: decimal.RequireFromString("4.50"),
		Active:    true,
		StartDate: billing.NewDate(2024, time.September, 1),
		CreatedAt: time.Date(2024, time.August, 20, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveEnrollment(ctx, e))

	got, err := store.ActiveEnrollment(ctx, "c-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, []billing.Weekday{billing.Monday, billing.Wednesday, billing.Friday}, got.Weekdays)
	assert.True(t, got.UnitPrice.Equal(decimal.RequireFromString("4.50")), "snapshot price must survive exactly")
	assert.True(t, got.StartDate.Equal(billing.NewDate(2024, time.September, 1)))
	assert.Nil(t, got.EndDate)
	assert.Equal(t, e.CreatedAt, got.CreatedAt)
}

func TestDeactivateEnrollment_SoftDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true}))
	require.NoError(t, store.SaveEnrollment(ctx, billing.Enrollment{
		ID: "enr-1", PersonID: "c-1",
		Weekdays:  []billing.Weekday{billing.Monday},
		UnitPrice: decimal.RequireFromString("5.00"),
		Active:    true,
		StartDate: billing.NewDate(2024, time.September, 1),
	}))

	end := billing.NewDate(2024, time.October, 15)
	require.NoError(t, store.DeactivateEnrollment(ctx, "enr-1", end))

	// No longer active...
	got, err := store.ActiveEnrollment(ctx, "c-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeactivateEnrollment_Missing(t *testing.T) {
	store := newTestStore(t)

	err := store.DeactivateEnrollment(context.Background(), "nope", billing.Today())
	assert.ErrorIs(t, err, billing.ErrEnrollmentNotFound)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestListHolidays_FiltersByYear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHoliday(ctx, billing.Holiday{
		ID: "h-1", Date: billing.NewDate(2024, time.October, 14), Name: "Puente", Active: true}))
	require.NoError(t, store.SaveHoliday(ctx, billing.Holiday{
		ID: "h-2", Date: billing.NewDate(2025, time.January, 6), Name: "Reyes", Active: true}))

	holidays, err := store.ListHolidays(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, billing.HolidayID("h-1"), holidays[0].ID)
}

func TestDeleteHoliday(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHoliday(ctx, billing.Holiday{
		ID: "h-1", Date: billing.NewDate(2024, time.October, 14), Name: "Puente", Active: true}))
	require.NoError(t, store.DeleteHoliday(ctx, "h-1"))

	holidays, err := store.ListHolidays(ctx, 2024)
	require.NoError(t, err)
	assert.Empty(t, holidays)
}

// =============================================================================
// ABSENCES AND AD-HOC ADDITIONS
// =============================================================================

func TestAbsence_LegacyDatesKeptVerbatim(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true}))
	require.NoError(t, store.SaveAbsence(ctx, billing.Absence{
		ID: "a-1", PersonID: "c-1",
		Dates:  []string{"14/10/2024", "16/10/2024"},
		Reason: "viaje",
	}))

	absences, err := store.ListAbsences(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, absences, 1)
	// The store never reinterprets the legacy encoding.
	assert.Equal(t, []string{"14/10/2024", "16/10/2024"}, absences[0].Dates)
	assert.Equal(t, "viaje", absences[0].Reason)
}

func TestAdHoc_StateTransition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePerson(ctx, billing.Person{ID: "c-1", Name: "Ana", Active: true}))
	require.NoError(t, store.SaveAdHoc(ctx, billing.AdHocAddition{
		ID: "x-1", PersonID: "c-1",
		Date:  billing.NewDate(2024, time.October, 15),
		State: billing.StatePending,
	}))

	require.NoError(t, store.UpdateAdHocState(ctx, "x-1", billing.StateApproved))

	got, err := store.GetAdHoc(ctx, "x-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, billing.StateApproved, got.State)
}

func TestUpdateAdHocState_Missing(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateAdHocState(context.Background(), "nope", billing.StateApproved)
	assert.ErrorIs(t, err, billing.ErrAdHocNotFound)
}

// =============================================================================
// PRICING CONFIGURATION
// =============================================================================

func TestPricingConfig_SingletonRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Nothing configured yet.
	got, err := store.GetPricingConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	pc := billing.PricingConfig{
		Tiers: []billing.PriceTier{
			{MinDays: 3, MaxDays: 5, Price: decimal.RequireFromString("4.50")},
			{MinDays: 1, MaxDays: 2, Price: decimal.RequireFromString("5.00")},
		},
		ThirdChildDiscountPct:  decimal.RequireFromString("25"),
		AttendanceDiscountPct:  decimal.RequireFromString("5"),
		AttendanceThresholdPct: decimal.RequireFromString("80"),
		StaffDailyPrice:        decimal.RequireFromString("3.00"),
		StaffChildMonthlyPrice: decimal.RequireFromString("50.00"),
		AdvanceNoticeDays:      2,
	}
	require.NoError(t, store.SavePricingConfig(ctx, pc))

	got, err = store.GetPricingConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Len(t, got.Tiers, 2)
	// Tiers come back sorted by MinDays.
	assert.Equal(t, 1, got.Tiers[0].MinDays)
	assert.True(t, got.Tiers[0].Price.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, got.ThirdChildDiscountPct.Equal(decimal.RequireFromString("25")))
	assert.Equal(t, 2, got.AdvanceNoticeDays)

	// Saving again replaces the singleton row, never adds a second.
	pc.AdvanceNoticeDays = 3
	require.NoError(t, store.SavePricingConfig(ctx, pc))

	got, err = store.GetPricingConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.AdvanceNoticeDays)
}
