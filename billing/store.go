/*
store.go - Persistence interfaces and input materialization

PURPOSE:
  Defines the interface between the billing engine and the backing store.
  The engine itself is pure: a computation run first materializes its input
  collections (holidays, absences, ad-hoc additions, pricing configuration)
  through these interfaces, then runs entirely in memory.

KEY INTERFACES:
  PersonStore:     People and family structure
  EnrollmentStore: Enrollment lifecycle (create / soft-delete / lookup)
  CalendarStore:   Holidays
  OverrideStore:   Absences and ad-hoc additions
  ConfigStore:     The singleton active pricing configuration
  Store:           All of the above

CONCURRENCY:
  The input fetches have no ordering dependency between them, so
  LoadMonthInputs issues them concurrently and joins the results before
  computation begins. The engine itself holds no locks; correctness of the
  underlying records is the store's concern.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - billing/store/memory.go: In-memory for testing

SEE ALSO:
  - monthly.go: consumes the materialized inputs
*/
package billing

import (
	"context"
	"sync"
)

// =============================================================================
// STORE INTERFACES - Simple filtered reads/writes
// =============================================================================

// PersonStore persists people and resolves family structure.
type PersonStore interface {
	SavePerson(ctx context.Context, p Person) error
	GetPerson(ctx context.Context, id PersonID) (*Person, error)
	ListPeople(ctx context.Context) ([]Person, error)

	// ListChildren returns the active children of a guardian.
	ListChildren(ctx context.Context, guardianID PersonID) ([]Person, error)
}

// EnrollmentStore persists enrollments.
//
// INVARIANT: at most one active enrollment per person. Callers enforce it
// with ActiveEnrollment before SaveEnrollment (lookup-before-insert; the
// race between concurrent creations is an accepted risk, writes are rare
// and per-person).
type EnrollmentStore interface {
	SaveEnrollment(ctx context.Context, e Enrollment) error

	// ActiveEnrollment returns the person's active enrollment, or nil.
	ActiveEnrollment(ctx context.Context, personID PersonID) (*Enrollment, error)

	// DeactivateEnrollment soft-deletes: Active=false plus EndDate. The row
	// itself stays.
	DeactivateEnrollment(ctx context.Context, id EnrollmentID, endDate Date) error
}

// CalendarStore persists holidays.
type CalendarStore interface {
	SaveHoliday(ctx context.Context, h Holiday) error
	ListHolidays(ctx context.Context, year int) ([]Holiday, error)
	DeleteHoliday(ctx context.Context, id HolidayID) error
}

// OverrideStore persists absences and ad-hoc additions.
type OverrideStore interface {
	SaveAbsence(ctx context.Context, a Absence) error
	ListAbsences(ctx context.Context, personID PersonID) ([]Absence, error)
	ListAllAbsences(ctx context.Context) ([]Absence, error)

	SaveAdHoc(ctx context.Context, a AdHocAddition) error
	GetAdHoc(ctx context.Context, id AdHocID) (*AdHocAddition, error)
	UpdateAdHocState(ctx context.Context, id AdHocID, state ApprovalState) error
	ListAdHoc(ctx context.Context, personID PersonID) ([]AdHocAddition, error)
	ListAllAdHoc(ctx context.Context) ([]AdHocAddition, error)
}

// ConfigStore persists the singleton active pricing configuration.
type ConfigStore interface {
	SavePricingConfig(ctx context.Context, pc PricingConfig) error

	// GetPricingConfig returns the active configuration, or nil when none
	// has been saved yet (the not-configured state).
	GetPricingConfig(ctx context.Context) (*PricingConfig, error)
}

// Store bundles every persistence concern of the engine.
type Store interface {
	PersonStore
	EnrollmentStore
	CalendarStore
	OverrideStore
	ConfigStore
}

// =============================================================================
// INPUT MATERIALIZATION
// =============================================================================

// MonthInputs holds everything a billing run needs, fetched up front.
type MonthInputs struct {
	Holidays  []Holiday
	Absences  []Absence
	Additions []AdHocAddition
	Config    PricingConfig
}

// Calculator builds the pure calculator over the materialized inputs.
func (in MonthInputs) Calculator() *Calculator {
	return NewCalculator(in.Config, NewClassifier(in.Holidays, in.Absences, in.Additions))
}

// LoadMonthInputs fetches the input collections for a billing run. The four
// fetches are independent and issued concurrently; the first error wins.
// A missing pricing configuration is ErrNotConfigured.
func LoadMonthInputs(ctx context.Context, s Store, year int) (MonthInputs, error) {
	var (
		in   MonthInputs
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		holidays, err := s.ListHolidays(ctx, year)
		if err != nil {
			fail(err)
			return
		}
		in.Holidays = holidays
	}()
	go func() {
		defer wg.Done()
		absences, err := s.ListAllAbsences(ctx)
		if err != nil {
			fail(err)
			return
		}
		in.Absences = absences
	}()
	go func() {
		defer wg.Done()
		additions, err := s.ListAllAdHoc(ctx)
		if err != nil {
			fail(err)
			return
		}
		in.Additions = additions
	}()
	go func() {
		defer wg.Done()
		config, err := s.GetPricingConfig(ctx)
		if err != nil {
			fail(err)
			return
		}
		if config == nil {
			fail(ErrNotConfigured)
			return
		}
		in.Config = *config
	}()
	wg.Wait()

	if len(errs) > 0 {
		return MonthInputs{}, errs[0]
	}
	return in, nil
}
