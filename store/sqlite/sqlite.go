/*
Package sqlite provides a SQLite-backed implementation of billing.Store.

PURPOSE:
  Persists the engine's input records (people, enrollments, holidays,
  absences, ad-hoc additions, pricing configuration) in SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  people:          Guardians and children, with exemption fields
  enrollments:     Contract rows; soft-deleted, never removed by the workflow
  holidays:        One row per holiday DATE (ranges expanded at creation)
  absences:        Dates kept as a JSON array of DD/MM/YYYY strings, exactly
                   the way the legacy data holds them; parsing happens in the
                   engine, not here
  adhoc_additions: Single-date requests with an approval state
  pricing_config:  The singleton active configuration (id is always 1)

SOFT DELETES:
  Enrollment deactivation sets active=0 and stamps end_date. Rows are only
  removed by a cascading person deletion. The one-active-enrollment-per-
  person invariant is enforced by lookup-before-insert in the API layer,
  not by a database constraint.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/comedor.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - billing/store.go: Interface definitions
  - billing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/comedor/billing-engine/billing"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Store implements billing.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ billing.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- People (guardians and children)
	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		is_staff INTEGER NOT NULL DEFAULT 0,
		guardian_id TEXT,
		grade TEXT,
		exempt INTEGER NOT NULL DEFAULT 0,
		exempt_reason TEXT,
		exempt_from TEXT,
		exempt_to TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (guardian_id) REFERENCES people(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_people_guardian
		ON people(guardian_id) WHERE guardian_id IS NOT NULL;

	-- Enrollments (soft-deleted by the workflow, hard-deleted only via
	-- cascading person deletion)
	CREATE TABLE IF NOT EXISTS enrollments (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL,
		weekdays_json TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		start_date TEXT NOT NULL,
		end_date TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (person_id) REFERENCES people(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_enrollments_person
		ON enrollments(person_id);
	CREATE INDEX IF NOT EXISTS idx_enrollments_person_active
		ON enrollments(person_id) WHERE active = 1;

	-- Holidays, one row per date
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date
		ON holidays(date);

	-- Absences (bajas); dates stay in their legacy DD/MM/YYYY text form
	CREATE TABLE IF NOT EXISTS absences (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL,
		dates_json TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (person_id) REFERENCES people(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_absences_person
		ON absences(person_id);

	-- Ad-hoc additions (altas puntuales)
	CREATE TABLE IF NOT EXISTS adhoc_additions (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL,
		date TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		FOREIGN KEY (person_id) REFERENCES people(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_adhoc_person
		ON adhoc_additions(person_id);
	CREATE INDEX IF NOT EXISTS idx_adhoc_state
		ON adhoc_additions(state);

	-- Singleton pricing configuration
	CREATE TABLE IF NOT EXISTS pricing_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		tiers_json TEXT NOT NULL,
		third_child_discount TEXT NOT NULL,
		attendance_discount TEXT NOT NULL,
		attendance_threshold TEXT NOT NULL,
		staff_daily_price TEXT NOT NULL,
		staff_child_monthly_price TEXT NOT NULL,
		advance_notice_days INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PEOPLE (billing.PersonStore)
// =============================================================================

func (s *Store) SavePerson(ctx context.Context, p billing.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO people
		(id, name, active, is_staff, guardian_id, grade, exempt, exempt_reason, exempt_from, exempt_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active,
			is_staff = excluded.is_staff,
			guardian_id = excluded.guardian_id,
			grade = excluded.grade,
			exempt = excluded.exempt,
			exempt_reason = excluded.exempt_reason,
			exempt_from = excluded.exempt_from,
			exempt_to = excluded.exempt_to
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		boolInt(p.Active),
		boolInt(p.IsStaff),
		nullString(string(p.GuardianID)),
		nullString(p.Grade),
		boolInt(p.Exemption.Exempt),
		nullString(p.Exemption.Reason),
		nullDate(p.Exemption.From),
		nullDate(p.Exemption.To),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save person: %w", err)
	}
	return nil
}

func (s *Store) GetPerson(ctx context.Context, id billing.PersonID) (*billing.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectPeople+" WHERE id = ?", id)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

func (s *Store) ListPeople(ctx context.Context) ([]billing.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryPeople(ctx, selectPeople+" ORDER BY name ASC")
}

func (s *Store) ListChildren(ctx context.Context, guardianID billing.PersonID) ([]billing.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryPeople(ctx, selectPeople+" WHERE guardian_id = ? AND active = 1 ORDER BY name ASC", guardianID)
}

const selectPeople = `
	SELECT id, name, active, is_staff, guardian_id, grade, exempt, exempt_reason, exempt_from, exempt_to
	FROM people`

func (s *Store) queryPeople(ctx context.Context, query string, args ...any) ([]billing.Person, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer rows.Close()

	var people []billing.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*billing.Person, error) {
	var (
		p          billing.Person
		active     int
		isStaff    int
		guardianID sql.NullString
		grade      sql.NullString
		exempt     int
		reason     sql.NullString
		from, to   sql.NullString
	)

	err := row.Scan(&p.ID, &p.Name, &active, &isStaff, &guardianID, &grade, &exempt, &reason, &from, &to)
	if err != nil {
		return nil, err
	}

	p.Active = active != 0
	p.IsStaff = isStaff != 0
	p.GuardianID = billing.PersonID(guardianID.String)
	p.Grade = grade.String
	p.Exemption.Exempt = exempt != 0
	p.Exemption.Reason = reason.String
	if p.Exemption.From, err = scanDate(from); err != nil {
		return nil, err
	}
	if p.Exemption.To, err = scanDate(to); err != nil {
		return nil, err
	}
	return &p, nil
}

// =============================================================================
// ENROLLMENTS (billing.EnrollmentStore)
// =============================================================================

func (s *Store) SaveEnrollment(ctx context.Context, e billing.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	weekdaysJSON, _ := json.Marshal(e.Weekdays)

	query := `
		INSERT INTO enrollments
		(id, person_id, weekdays_json, unit_price, active, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.PersonID,
		string(weekdaysJSON),
		e.UnitPrice.String(),
		boolInt(e.Active),
		e.StartDate.String(),
		nullDate(e.EndDate),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save enrollment: %w", err)
	}
	return nil
}

func (s *Store) ActiveEnrollment(ctx context.Context, personID billing.PersonID) (*billing.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, person_id, weekdays_json, unit_price, active, start_date, end_date, created_at
		FROM enrollments
		WHERE person_id = ? AND active = 1
		ORDER BY created_at DESC
		LIMIT 1
	`

	row := s.db.QueryRowContext(ctx, query, personID)
	e, err := scanEnrollment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active enrollment: %w", err)
	}
	return e, nil
}

func (s *Store) DeactivateEnrollment(ctx context.Context, id billing.EnrollmentID, endDate billing.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE enrollments SET active = 0, end_date = ? WHERE id = ?",
		endDate.String(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate enrollment: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return billing.ErrEnrollmentNotFound
	}
	return nil
}

func scanEnrollment(row rowScanner) (*billing.Enrollment, error) {
	var (
		e            billing.Enrollment
		weekdaysJSON string
		unitPrice    string
		active       int
		startDate    string
		endDate      sql.NullString
		createdAt    string
	)

	err := row.Scan(&e.ID, &e.PersonID, &weekdaysJSON, &unitPrice, &active, &startDate, &endDate, &createdAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(weekdaysJSON), &e.Weekdays); err != nil {
		return nil, fmt.Errorf("corrupt weekdays for enrollment %s: %w", e.ID, err)
	}
	if e.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return nil, fmt.Errorf("corrupt unit price for enrollment %s: %w", e.ID, err)
	}
	e.Active = active != 0
	if e.StartDate, err = billing.ParseDate(startDate); err != nil {
		return nil, err
	}
	if e.EndDate, err = scanDate(endDate); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		e.CreatedAt = t
	}
	return &e, nil
}

// =============================================================================
// HOLIDAYS (billing.CalendarStore)
// =============================================================================

func (s *Store) SaveHoliday(ctx context.Context, h billing.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, date, name, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			name = excluded.name,
			active = excluded.active
	`

	_, err := s.db.ExecContext(ctx, query, h.ID, h.Date.String(), h.Name, boolInt(h.Active))
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (s *Store) ListHolidays(ctx context.Context, year int) ([]billing.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, date, name, active
		FROM holidays
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`
	from := fmt.Sprintf("%04d-01-01", year)
	to := fmt.Sprintf("%04d-12-31", year)

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []billing.Holiday
	for rows.Next() {
		var (
			h      billing.Holiday
			date   string
			active int
		)
		if err := rows.Scan(&h.ID, &date, &h.Name, &active); err != nil {
			return nil, err
		}
		if h.Date, err = billing.ParseDate(date); err != nil {
			return nil, err
		}
		h.Active = active != 0
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Store) DeleteHoliday(ctx context.Context, id billing.HolidayID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return nil
}

// =============================================================================
// ABSENCES AND AD-HOC ADDITIONS (billing.OverrideStore)
// =============================================================================

func (s *Store) SaveAbsence(ctx context.Context, a billing.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	datesJSON, _ := json.Marshal(a.Dates)

	query := `
		INSERT INTO absences (id, person_id, dates_json, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.PersonID, string(datesJSON), nullString(a.Reason),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save absence: %w", err)
	}
	return nil
}

func (s *Store) ListAbsences(ctx context.Context, personID billing.PersonID) ([]billing.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAbsences(ctx, selectAbsences+" WHERE person_id = ? ORDER BY created_at ASC", personID)
}

func (s *Store) ListAllAbsences(ctx context.Context) ([]billing.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAbsences(ctx, selectAbsences+" ORDER BY created_at ASC")
}

const selectAbsences = `
	SELECT id, person_id, dates_json, reason, created_at
	FROM absences`

func (s *Store) queryAbsences(ctx context.Context, query string, args ...any) ([]billing.Absence, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query absences: %w", err)
	}
	defer rows.Close()

	var absences []billing.Absence
	for rows.Next() {
		var (
			a         billing.Absence
			datesJSON string
			reason    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.PersonID, &datesJSON, &reason, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(datesJSON), &a.Dates); err != nil {
			return nil, fmt.Errorf("corrupt dates for absence %s: %w", a.ID, err)
		}
		a.Reason = reason.String
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			a.CreatedAt = t
		}
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

func (s *Store) SaveAdHoc(ctx context.Context, a billing.AdHocAddition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO adhoc_additions (id, person_id, date, state, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.PersonID, a.Date.String(), a.State,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save ad-hoc addition: %w", err)
	}
	return nil
}

func (s *Store) GetAdHoc(ctx context.Context, id billing.AdHocID) (*billing.AdHocAddition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectAdHoc+" WHERE id = ?", id)
	a, err := scanAdHoc(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ad-hoc addition: %w", err)
	}
	return a, nil
}

func (s *Store) UpdateAdHocState(ctx context.Context, id billing.AdHocID, state billing.ApprovalState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE adhoc_additions SET state = ? WHERE id = ?", state, id)
	if err != nil {
		return fmt.Errorf("failed to update ad-hoc state: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return billing.ErrAdHocNotFound
	}
	return nil
}

func (s *Store) ListAdHoc(ctx context.Context, personID billing.PersonID) ([]billing.AdHocAddition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAdHoc(ctx, selectAdHoc+" WHERE person_id = ? ORDER BY date ASC", personID)
}

func (s *Store) ListAllAdHoc(ctx context.Context) ([]billing.AdHocAddition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAdHoc(ctx, selectAdHoc+" ORDER BY date ASC")
}

const selectAdHoc = `
	SELECT id, person_id, date, state, created_at
	FROM adhoc_additions`

func (s *Store) queryAdHoc(ctx context.Context, query string, args ...any) ([]billing.AdHocAddition, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ad-hoc additions: %w", err)
	}
	defer rows.Close()

	var additions []billing.AdHocAddition
	for rows.Next() {
		a, err := scanAdHoc(rows)
		if err != nil {
			return nil, err
		}
		additions = append(additions, *a)
	}
	return additions, rows.Err()
}

func scanAdHoc(row rowScanner) (*billing.AdHocAddition, error) {
	var (
		a         billing.AdHocAddition
		date      string
		createdAt string
	)
	err := row.Scan(&a.ID, &a.PersonID, &date, &a.State, &createdAt)
	if err != nil {
		return nil, err
	}
	if a.Date, err = billing.ParseDate(date); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		a.CreatedAt = t
	}
	return &a, nil
}

// =============================================================================
// PRICING CONFIGURATION (billing.ConfigStore)
// =============================================================================

// tierJSON is the persisted tier shape; prices travel as strings so decimal
// precision survives the round trip.
type tierJSON struct {
	MinDays int    `json:"min_days"`
	MaxDays int    `json:"max_days"`
	Price   string `json:"price"`
}

func (s *Store) SavePricingConfig(ctx context.Context, pc billing.PricingConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tiers := make([]tierJSON, len(pc.Tiers))
	for i, t := range pc.Tiers {
		tiers[i] = tierJSON{MinDays: t.MinDays, MaxDays: t.MaxDays, Price: t.Price.String()}
	}
	tiersJSON, _ := json.Marshal(tiers)

	query := `
		INSERT INTO pricing_config
		(id, tiers_json, third_child_discount, attendance_discount, attendance_threshold,
		 staff_daily_price, staff_child_monthly_price, advance_notice_days, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tiers_json = excluded.tiers_json,
			third_child_discount = excluded.third_child_discount,
			attendance_discount = excluded.attendance_discount,
			attendance_threshold = excluded.attendance_threshold,
			staff_daily_price = excluded.staff_daily_price,
			staff_child_monthly_price = excluded.staff_child_monthly_price,
			advance_notice_days = excluded.advance_notice_days,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		string(tiersJSON),
		pc.ThirdChildDiscountPct.String(),
		pc.AttendanceDiscountPct.String(),
		pc.AttendanceThresholdPct.String(),
		pc.StaffDailyPrice.String(),
		pc.StaffChildMonthlyPrice.String(),
		pc.AdvanceNoticeDays,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save pricing config: %w", err)
	}
	return nil
}

func (s *Store) GetPricingConfig(ctx context.Context) (*billing.PricingConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT tiers_json, third_child_discount, attendance_discount, attendance_threshold,
		       staff_daily_price, staff_child_monthly_price, advance_notice_days
		FROM pricing_config
		WHERE id = 1
	`

	var (
		tiersJSON  string
		thirdChild string
		attendance string
		threshold  string
		staffDaily string
		staffChild string
		notice     int
	)

	err := s.db.QueryRowContext(ctx, query).Scan(
		&tiersJSON, &thirdChild, &attendance, &threshold, &staffDaily, &staffChild, &notice)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pricing config: %w", err)
	}

	var tiers []tierJSON
	if err := json.Unmarshal([]byte(tiersJSON), &tiers); err != nil {
		return nil, fmt.Errorf("corrupt pricing tiers: %w", err)
	}

	pc := billing.PricingConfig{AdvanceNoticeDays: notice}
	for _, t := range tiers {
		price, err := decimal.NewFromString(t.Price)
		if err != nil {
			return nil, fmt.Errorf("corrupt tier price %q: %w", t.Price, err)
		}
		pc.Tiers = append(pc.Tiers, billing.PriceTier{MinDays: t.MinDays, MaxDays: t.MaxDays, Price: price})
	}

	if pc.ThirdChildDiscountPct, err = decimal.NewFromString(thirdChild); err != nil {
		return nil, fmt.Errorf("corrupt third-child discount: %w", err)
	}
	if pc.AttendanceDiscountPct, err = decimal.NewFromString(attendance); err != nil {
		return nil, fmt.Errorf("corrupt attendance discount: %w", err)
	}
	if pc.AttendanceThresholdPct, err = decimal.NewFromString(threshold); err != nil {
		return nil, fmt.Errorf("corrupt attendance threshold: %w", err)
	}
	if pc.StaffDailyPrice, err = decimal.NewFromString(staffDaily); err != nil {
		return nil, fmt.Errorf("corrupt staff daily price: %w", err)
	}
	if pc.StaffChildMonthlyPrice, err = decimal.NewFromString(staffChild); err != nil {
		return nil, fmt.Errorf("corrupt staff-child monthly price: %w", err)
	}

	pc.SortTiers()
	return &pc, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDate(d *billing.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanDate(ns sql.NullString) (*billing.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := billing.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
