// Package store provides billing.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/comedor/billing-engine/billing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	people      map[billing.PersonID]billing.Person
	enrollments map[billing.EnrollmentID]billing.Enrollment
	holidays    map[billing.HolidayID]billing.Holiday
	absences    map[billing.AbsenceID]billing.Absence
	adhoc       map[billing.AdHocID]billing.AdHocAddition
	config      *billing.PricingConfig
}

func NewMemory() *Memory {
	return &Memory{
		people:      make(map[billing.PersonID]billing.Person),
		enrollments: make(map[billing.EnrollmentID]billing.Enrollment),
		holidays:    make(map[billing.HolidayID]billing.Holiday),
		absences:    make(map[billing.AbsenceID]billing.Absence),
		adhoc:       make(map[billing.AdHocID]billing.AdHocAddition),
	}
}

var _ billing.Store = (*Memory)(nil)

// ---------------------------------------------------------------------------
// People

func (m *Memory) SavePerson(_ context.Context, p billing.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.people[p.ID] = p
	return nil
}

func (m *Memory) GetPerson(_ context.Context, id billing.PersonID) (*billing.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.people[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) ListPeople(_ context.Context) ([]billing.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.Person, 0, len(m.people))
	for _, p := range m.people {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListChildren(_ context.Context, guardianID billing.PersonID) ([]billing.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.Person
	for _, p := range m.people {
		if p.GuardianID == guardianID && p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---------------------------------------------------------------------------
// Enrollments

func (m *Memory) SaveEnrollment(_ context.Context, e billing.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments[e.ID] = e
	return nil
}

func (m *Memory) ActiveEnrollment(_ context.Context, personID billing.PersonID) (*billing.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.enrollments {
		if e.PersonID == personID && e.Active {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (m *Memory) DeactivateEnrollment(_ context.Context, id billing.EnrollmentID, endDate billing.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok {
		return billing.ErrEnrollmentNotFound
	}
	e.Deactivate(endDate)
	m.enrollments[id] = e
	return nil
}

// ---------------------------------------------------------------------------
// Holidays

func (m *Memory) SaveHoliday(_ context.Context, h billing.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) ListHolidays(_ context.Context, year int) ([]billing.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.Holiday
	for _, h := range m.holidays {
		if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id billing.HolidayID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holidays, id)
	return nil
}

// ---------------------------------------------------------------------------
// Absences and ad-hoc additions

func (m *Memory) SaveAbsence(_ context.Context, a billing.Absence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.absences[a.ID] = a
	return nil
}

func (m *Memory) ListAbsences(_ context.Context, personID billing.PersonID) ([]billing.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.Absence
	for _, a := range m.absences {
		if a.PersonID == personID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListAllAbsences(_ context.Context) ([]billing.Absence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.Absence, 0, len(m.absences))
	for _, a := range m.absences {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveAdHoc(_ context.Context, a billing.AdHocAddition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adhoc[a.ID] = a
	return nil
}

func (m *Memory) GetAdHoc(_ context.Context, id billing.AdHocID) (*billing.AdHocAddition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.adhoc[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) UpdateAdHocState(_ context.Context, id billing.AdHocID, state billing.ApprovalState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.adhoc[id]
	if !ok {
		return billing.ErrAdHocNotFound
	}
	a.State = state
	m.adhoc[id] = a
	return nil
}

func (m *Memory) ListAdHoc(_ context.Context, personID billing.PersonID) ([]billing.AdHocAddition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.AdHocAddition
	for _, a := range m.adhoc {
		if a.PersonID == personID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListAllAdHoc(_ context.Context) ([]billing.AdHocAddition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.AdHocAddition, 0, len(m.adhoc))
	for _, a := range m.adhoc {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---------------------------------------------------------------------------
// Pricing configuration

func (m *Memory) SavePricingConfig(_ context.Context, pc billing.PricingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc.SortTiers()
	m.config = &pc
	return nil
}

func (m *Memory) GetPricingConfig(_ context.Context) (*billing.PricingConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return nil, nil
	}
	cfg := *m.config
	return &cfg, nil
}
