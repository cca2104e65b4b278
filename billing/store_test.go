package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/comedor/billing-engine/billing"
	"github.com/comedor/billing-engine/billing/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// INPUT MATERIALIZATION TESTS
// =============================================================================

func TestLoadMonthInputs_CollectsEverything(t *testing.T) {
	// GIVEN: A store with a configuration, a holiday, an absence and an
	//        ad-hoc addition
	// WHEN: Materializing the inputs for 2024
	// THEN: All four collections arrive; the calculator built from them
	//       reflects the holiday

	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.SavePricingConfig(ctx, testConfig()))
	require.NoError(t, mem.SaveHoliday(ctx, billing.Holiday{
		ID: "h-1", Date: billing.NewDate(2024, time.October, 14), Name: "Puente", Active: true}))
	require.NoError(t, mem.SaveAbsence(ctx, billing.Absence{
		ID: "a-1", PersonID: "c-1", Dates: []string{"02/10/2024"}}))
	require.NoError(t, mem.SaveAdHoc(ctx, billing.AdHocAddition{
		ID: "x-1", PersonID: "c-1", Date: billing.NewDate(2024, time.October, 15), State: billing.StateApproved}))

	in, err := billing.LoadMonthInputs(ctx, mem, 2024)
	require.NoError(t, err)

	assert.Len(t, in.Holidays, 1)
	assert.Len(t, in.Absences, 1)
	assert.Len(t, in.Additions, 1)
	assert.Len(t, in.Config.Tiers, 3)

	calc := in.Calculator()
	assert.True(t, calc.Classifier.Holidays().Has(billing.NewDate(2024, time.October, 14)))
}

func TestLoadMonthInputs_MissingConfig_NotConfigured(t *testing.T) {
	// GIVEN: A store with no pricing configuration saved
	// WHEN: Materializing inputs
	// THEN: ErrNotConfigured; billing must not run on implicit defaults

	mem := store.NewMemory()

	_, err := billing.LoadMonthInputs(context.Background(), mem, 2024)
	require.Error(t, err)
	assert.True(t, billing.IsNotConfigured(err))
}

func TestLoadMonthInputs_FiltersHolidaysByYear(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.SavePricingConfig(ctx, testConfig()))
	require.NoError(t, mem.SaveHoliday(ctx, billing.Holiday{
		ID: "h-1", Date: billing.NewDate(2024, time.October, 14), Active: true}))
	require.NoError(t, mem.SaveHoliday(ctx, billing.Holiday{
		ID: "h-2", Date: billing.NewDate(2025, time.January, 6), Active: true}))

	in, err := billing.LoadMonthInputs(ctx, mem, 2024)
	require.NoError(t, err)
	require.Len(t, in.Holidays, 1)
	assert.Equal(t, billing.HolidayID("h-1"), in.Holidays[0].ID)
}
