/*
handlers.go - HTTP API handlers for the cafeteria billing engine

PURPOSE:
  Exposes the billing engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine and store.

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (dates, weekdays, advance notice)
  3. Materialize input collections from the store
  4. Run the pure engine
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input (unparseable dates, bad weekday sets)
  - 404: Person/enrollment not found
  - 409: Conflict (active enrollment exists, advance notice not met) and
         the not-configured state - the client should tell the user to
         contact an administrator to configure pricing
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/comedor/billing-engine/billing"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store billing.Store
}

// NewHandler creates a new handler backed by the given store.
func NewHandler(store billing.Store) *Handler {
	return &Handler{Store: store}
}

// =============================================================================
// PEOPLE HANDLERS
// =============================================================================

// ListPeople returns all people.
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.Store.ListPeople(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list people", err)
		return
	}

	dtos := make([]PersonDTO, len(people))
	for i, p := range people {
		dtos[i] = personDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPerson returns a single person.
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id := billing.PersonID(chi.URLParam(r, "id"))

	p, err := h.Store.GetPerson(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get person", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Person not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, personDTO(*p))
}

// CreatePerson registers a guardian or child.
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	ctx := r.Context()
	if req.GuardianID != "" {
		guardian, err := h.Store.GetPerson(ctx, billing.PersonID(req.GuardianID))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to look up guardian", err)
			return
		}
		if guardian == nil {
			writeError(w, http.StatusNotFound, "Guardian not found", nil)
			return
		}
	}

	exemptFrom, err := optionalDate(req.ExemptFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid exempt_from date (use YYYY-MM-DD)", err)
		return
	}
	exemptTo, err := optionalDate(req.ExemptTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid exempt_to date (use YYYY-MM-DD)", err)
		return
	}

	p := billing.Person{
		ID:         billing.PersonID(uuid.NewString()),
		Name:       req.Name,
		Active:     true,
		IsStaff:    req.IsStaff,
		GuardianID: billing.PersonID(req.GuardianID),
		Grade:      req.Grade,
		Exemption: billing.Exemption{
			Exempt: req.Exempt,
			Reason: req.ExemptReason,
			From:   exemptFrom,
			To:     exemptTo,
		},
	}

	if err := h.Store.SavePerson(ctx, p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create person", err)
		return
	}
	writeJSON(w, http.StatusCreated, personDTO(p))
}

// =============================================================================
// ENROLLMENT HANDLERS
// =============================================================================

// CreateEnrollment enrolls a person. The daily unit price is resolved from
// the current tier table and snapshotted onto the row; later configuration
// changes never touch existing enrollments.
func (h *Handler) CreateEnrollment(w http.ResponseWriter, r *http.Request) {
	personID := billing.PersonID(chi.URLParam(r, "id"))

	var req CreateEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	weekdays, err := parseWeekdays(req.Weekdays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid weekday set (use 1=Monday..5=Friday)", err)
		return
	}
	startDate, err := billing.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date (use YYYY-MM-DD)", err)
		return
	}

	ctx := r.Context()
	person, err := h.Store.GetPerson(ctx, personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get person", err)
		return
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "Person not found", nil)
		return
	}

	// One active enrollment per person: lookup before insert.
	existing, err := h.Store.ActiveEnrollment(ctx, personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check existing enrollment", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Person already has an active enrollment", billing.ErrEnrollmentExists)
		return
	}

	config, err := h.Store.GetPricingConfig(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load pricing config", err)
		return
	}
	if config == nil {
		writeDomainError(w, billing.ErrNotConfigured)
		return
	}

	// Snapshot the price: staff get the fixed staff rate, everyone else the
	// tier price for their weekly day count.
	var unitPrice decimal.Decimal
	if person.IsStaff {
		unitPrice = config.StaffDailyPrice
	} else {
		unitPrice, err = config.UnitPrice(len(weekdays))
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	e := billing.Enrollment{
		ID:        billing.EnrollmentID(uuid.NewString()),
		PersonID:  personID,
		Weekdays:  weekdays,
		UnitPrice: unitPrice,
		Active:    true,
		StartDate: startDate,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.Store.SaveEnrollment(ctx, e); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create enrollment", err)
		return
	}
	writeJSON(w, http.StatusCreated, enrollmentDTO(e))
}

// GetEnrollment returns a person's active enrollment.
func (h *Handler) GetEnrollment(w http.ResponseWriter, r *http.Request) {
	personID := billing.PersonID(chi.URLParam(r, "id"))

	e, err := h.Store.ActiveEnrollment(r.Context(), personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get enrollment", err)
		return
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "No active enrollment", billing.ErrEnrollmentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, enrollmentDTO(*e))
}

// DeactivateEnrollment soft-deletes a person's active enrollment: the row
// keeps its history, gets active=false and today's end date.
func (h *Handler) DeactivateEnrollment(w http.ResponseWriter, r *http.Request) {
	personID := billing.PersonID(chi.URLParam(r, "id"))
	ctx := r.Context()

	e, err := h.Store.ActiveEnrollment(ctx, personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get enrollment", err)
		return
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "No active enrollment", billing.ErrEnrollmentNotFound)
		return
	}

	if err := h.Store.DeactivateEnrollment(ctx, e.ID, billing.Today()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to deactivate enrollment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deactivated", "enrollment_id": string(e.ID)})
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetWorkingDays returns the working days of a month.
func (h *Handler) GetWorkingDays(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year/month", err)
		return
	}

	holidays, err := h.Store.ListHolidays(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	days := billing.WorkingDays(year, month, billing.HolidaySet(holidays))
	iso := make([]string, len(days))
	for i, d := range days {
		iso[i] = d.String()
	}

	writeJSON(w, http.StatusOK, WorkingDaysDTO{
		Year:        year,
		Month:       int(month),
		WorkingDays: iso,
		Count:       len(iso),
	})
}

// GetPersonCalendar returns the per-day classification map for the
// attendance calendar. Pricing configuration is not needed here, so a
// missing configuration does not block the calendar view.
func (h *Handler) GetPersonCalendar(w http.ResponseWriter, r *http.Request) {
	personID := billing.PersonID(chi.URLParam(r, "id"))
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year/month", err)
		return
	}

	ctx := r.Context()
	person, err := h.Store.GetPerson(ctx, personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get person", err)
		return
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "Person not found", nil)
		return
	}

	holidays, err := h.Store.ListHolidays(ctx, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	absences, err := h.Store.ListAbsences(ctx, personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list absences", err)
		return
	}
	additions, err := h.Store.ListAdHoc(ctx, personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list ad-hoc additions", err)
		return
	}
	enrollment, err := h.Store.ActiveEnrollment(ctx, personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get enrollment", err)
		return
	}

	classifier := billing.NewClassifier(holidays, absences, additions)
	days := make(map[string]billing.DayClass)
	for _, d := range billing.WorkingDays(year, month, classifier.Holidays()) {
		days[d.String()] = classifier.Classify(personID, d, enrollment)
	}
	// Holidays render too; working-day resolution excludes them, so add the
	// month's holiday cells back for display.
	for hd := range classifier.Holidays() {
		if hd.Year() == year && hd.Month() == month && hd.IsSchoolDay() {
			days[hd.String()] = billing.DayHoliday
		}
	}

	writeJSON(w, http.StatusOK, PersonCalendarDTO{
		PersonID: string(personID),
		Year:     year,
		Month:    int(month),
		Days:     days,
	})
}

// =============================================================================
// BILLING HANDLERS
// =============================================================================

// GetPersonBilling returns one person's monthly billing summary. The family
// discount needs the whole family and is applied in the month report, not
// here; this endpoint feeds the per-person summary card.
func (h *Handler) GetPersonBilling(w http.ResponseWriter, r *http.Request) {
	personID := billing.PersonID(chi.URLParam(r, "id"))
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year/month", err)
		return
	}

	ctx := r.Context()
	person, err := h.Store.GetPerson(ctx, personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get person", err)
		return
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "Person not found", nil)
		return
	}

	var guardian *billing.Person
	if person.GuardianID != "" {
		guardian, err = h.Store.GetPerson(ctx, person.GuardianID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get guardian", err)
			return
		}
	}

	inputs, err := billing.LoadMonthInputs(ctx, h.Store, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	enrollment, err := h.Store.ActiveEnrollment(ctx, personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get enrollment", err)
		return
	}

	bill, err := inputs.Calculator().ComputeMonth(*person, guardian, year, month, enrollment)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, billDTO(bill))
}

// GetMonthReport returns the whole-school billing report for a month,
// grouped by guardian with family and attendance discounts applied.
func (h *Handler) GetMonthReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year/month", err)
		return
	}

	ctx := r.Context()
	inputs, err := billing.LoadMonthInputs(ctx, h.Store, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	calc := inputs.Calculator()

	people, err := h.Store.ListPeople(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list people", err)
		return
	}

	report := MonthReportDTO{Year: year, Month: int(month)}
	total := decimal.Zero

	for _, p := range people {
		if p.IsChild() || !p.Active {
			continue
		}
		guardian := p

		children, err := h.Store.ListChildren(ctx, guardian.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list children", err)
			return
		}

		var enrolled []billing.ChildEnrollment
		for _, child := range children {
			enr, err := h.Store.ActiveEnrollment(ctx, child.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to get enrollment", err)
				return
			}
			enrolled = append(enrolled, billing.ChildEnrollment{Child: child, Enrollment: enr})
		}

		var guardianEnrollment *billing.Enrollment
		if guardian.IsStaff {
			guardianEnrollment, err = h.Store.ActiveEnrollment(ctx, guardian.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to get enrollment", err)
				return
			}
		}

		if len(enrolled) == 0 && guardianEnrollment == nil {
			continue
		}

		family, err := calc.ComputeFamilyMonth(guardian, guardianEnrollment, enrolled, year, month)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		dto := FamilyBillDTO{
			GuardianID:   string(guardian.ID),
			GuardianName: guardian.Name,
			Total:        money(family.Total),
		}
		if family.Guardian != nil {
			g := billDTO(*family.Guardian)
			dto.Guardian = &g
		}
		for _, child := range family.Children {
			dto.Children = append(dto.Children, billDTO(child))
		}

		report.Families = append(report.Families, dto)
		total = total.Add(family.Total)
	}

	report.Total = money(total)
	writeJSON(w, http.StatusOK, report)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the holidays of a year.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed
	}

	holidays, err := h.Store.ListHolidays(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hd := range holidays {
		dtos[i] = HolidayDTO{
			ID:     string(hd.ID),
			Date:   hd.Date.String(),
			Name:   hd.Name,
			Active: hd.Active,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday creates a holiday, expanding a date range to one row per day.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	from, err := billing.ParseDate(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to := from
	if req.To != "" {
		if to, err = billing.ParseDate(req.To); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "Range end precedes start", nil)
		return
	}

	ctx := r.Context()
	var created []HolidayDTO
	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		holiday := billing.Holiday{
			ID:     billing.HolidayID(uuid.NewString()),
			Date:   d,
			Name:   req.Name,
			Active: true,
		}
		if err := h.Store.SaveHoliday(ctx, holiday); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
			return
		}
		created = append(created, HolidayDTO{
			ID:     string(holiday.ID),
			Date:   holiday.Date.String(),
			Name:   holiday.Name,
			Active: true,
		})
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteHoliday removes a holiday row.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := billing.HolidayID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// ABSENCE HANDLERS (bajas)
// =============================================================================

// CreateAbsence declares a cancellation. Dates arrive as ISO, are checked
// against the advance-notice window, and are stored in the legacy
// DD/MM/YYYY form the rest of the data uses.
func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	var req CreateAbsenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Dates) == 0 {
		writeError(w, http.StatusBadRequest, "At least one date is required", nil)
		return
	}

	ctx := r.Context()
	person, err := h.Store.GetPerson(ctx, billing.PersonID(req.PersonID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get person", err)
		return
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "Person not found", nil)
		return
	}

	dates := make([]billing.Date, len(req.Dates))
	for i, raw := range req.Dates {
		if dates[i], err = billing.ParseDate(raw); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if err := h.checkAdvanceNotice(ctx, dates...); err != nil {
		writeDomainError(w, err)
		return
	}

	legacy := make([]string, len(dates))
	for i, d := range dates {
		legacy[i] = toLegacyDate(d)
	}

	a := billing.Absence{
		ID:       billing.AbsenceID(uuid.NewString()),
		PersonID: billing.PersonID(req.PersonID),
		Dates:    legacy,
		Reason:   req.Reason,
	}
	if err := h.Store.SaveAbsence(ctx, a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save absence", err)
		return
	}
	writeJSON(w, http.StatusCreated, AbsenceDTO{
		ID:       string(a.ID),
		PersonID: string(a.PersonID),
		Dates:    a.Dates,
		Reason:   a.Reason,
	})
}

// ListAbsences lists absences, optionally filtered by person.
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		absences []billing.Absence
		err      error
	)
	if personID := r.URL.Query().Get("person_id"); personID != "" {
		absences, err = h.Store.ListAbsences(ctx, billing.PersonID(personID))
	} else {
		absences, err = h.Store.ListAllAbsences(ctx)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list absences", err)
		return
	}

	dtos := make([]AbsenceDTO, len(absences))
	for i, a := range absences {
		dtos[i] = AbsenceDTO{
			ID:       string(a.ID),
			PersonID: string(a.PersonID),
			Dates:    a.Dates,
			Reason:   a.Reason,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// AD-HOC ADDITION HANDLERS (altas puntuales)
// =============================================================================

// CreateAdHoc submits a single-day meal request. It starts pending and
// bills only once approved.
func (h *Handler) CreateAdHoc(w http.ResponseWriter, r *http.Request) {
	var req CreateAdHocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	person, err := h.Store.GetPerson(ctx, billing.PersonID(req.PersonID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get person", err)
		return
	}
	if person == nil {
		writeError(w, http.StatusNotFound, "Person not found", nil)
		return
	}

	date, err := billing.ParseDate(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.checkAdvanceNotice(ctx, date); err != nil {
		writeDomainError(w, err)
		return
	}

	a := billing.AdHocAddition{
		ID:       billing.AdHocID(uuid.NewString()),
		PersonID: billing.PersonID(req.PersonID),
		Date:     date,
		State:    billing.StatePending,
	}
	if err := h.Store.SaveAdHoc(ctx, a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save ad-hoc addition", err)
		return
	}
	writeJSON(w, http.StatusCreated, adHocDTO(a))
}

// ListAdHoc lists ad-hoc additions, optionally filtered by person.
func (h *Handler) ListAdHoc(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		additions []billing.AdHocAddition
		err       error
	)
	if personID := r.URL.Query().Get("person_id"); personID != "" {
		additions, err = h.Store.ListAdHoc(ctx, billing.PersonID(personID))
	} else {
		additions, err = h.Store.ListAllAdHoc(ctx)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list ad-hoc additions", err)
		return
	}

	dtos := make([]AdHocDTO, len(additions))
	for i, a := range additions {
		dtos[i] = adHocDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveAdHoc approves a pending request.
func (h *Handler) ApproveAdHoc(w http.ResponseWriter, r *http.Request) {
	h.setAdHocState(w, r, billing.StateApproved)
}

// RejectAdHoc rejects a pending request.
func (h *Handler) RejectAdHoc(w http.ResponseWriter, r *http.Request) {
	h.setAdHocState(w, r, billing.StateRejected)
}

func (h *Handler) setAdHocState(w http.ResponseWriter, r *http.Request, state billing.ApprovalState) {
	id := billing.AdHocID(chi.URLParam(r, "id"))
	ctx := r.Context()

	existing, err := h.Store.GetAdHoc(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get ad-hoc addition", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Ad-hoc addition not found", billing.ErrAdHocNotFound)
		return
	}
	if existing.State != billing.StatePending {
		writeError(w, http.StatusConflict, "Request already resolved", nil)
		return
	}

	if err := h.Store.UpdateAdHocState(ctx, id, state); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update ad-hoc state", err)
		return
	}
	existing.State = state
	writeJSON(w, http.StatusOK, adHocDTO(*existing))
}

// =============================================================================
// PRICING HANDLERS
// =============================================================================

// GetPricingConfig returns the active configuration.
func (h *Handler) GetPricingConfig(w http.ResponseWriter, r *http.Request) {
	config, err := h.Store.GetPricingConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get pricing config", err)
		return
	}
	if config == nil {
		writeDomainError(w, billing.ErrNotConfigured)
		return
	}
	writeJSON(w, http.StatusOK, pricingConfigDTO(*config))
}

// SavePricingConfig replaces the singleton configuration.
func (h *Handler) SavePricingConfig(w http.ResponseWriter, r *http.Request) {
	var req PricingConfigDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Tiers) == 0 {
		writeError(w, http.StatusBadRequest, "At least one pricing tier is required", nil)
		return
	}

	config := billing.PricingConfig{
		ThirdChildDiscountPct:  decimal.NewFromFloat(req.ThirdChildDiscountPct),
		AttendanceDiscountPct:  decimal.NewFromFloat(req.AttendanceDiscountPct),
		AttendanceThresholdPct: decimal.NewFromFloat(req.AttendanceThresholdPct),
		StaffDailyPrice:        decimal.NewFromFloat(req.StaffDailyPrice),
		StaffChildMonthlyPrice: decimal.NewFromFloat(req.StaffChildMonthlyPrice),
		AdvanceNoticeDays:      req.AdvanceNoticeDays,
	}
	for _, t := range req.Tiers {
		config.Tiers = append(config.Tiers, billing.PriceTier{
			MinDays: t.MinDays,
			MaxDays: t.MaxDays,
			Price:   decimal.NewFromFloat(t.Price),
		})
	}

	if err := h.Store.SavePricingConfig(r.Context(), config); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save pricing config", err)
		return
	}
	writeJSON(w, http.StatusOK, pricingConfigDTO(config))
}

// GetEstimate returns the sign-up preview for a weekly day count: unit
// price, weekly price and the 4.33-weeks monthly approximation.
func (h *Handler) GetEstimate(w http.ResponseWriter, r *http.Request) {
	dayCount, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || dayCount < 0 || dayCount > 5 {
		writeError(w, http.StatusBadRequest, "days must be 0..5", err)
		return
	}

	config, err := h.Store.GetPricingConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get pricing config", err)
		return
	}
	if config == nil {
		writeDomainError(w, billing.ErrNotConfigured)
		return
	}

	unit, err := config.UnitPrice(dayCount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	estimate, err := config.EstimateMonthly(dayCount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, EstimateDTO{
		DaysPerWeek:     dayCount,
		UnitPrice:       money(unit),
		WeeklyPrice:     money(unit.Mul(decimal.NewFromInt(int64(dayCount)))),
		MonthlyEstimate: money(estimate),
		Approximate:     true,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// checkAdvanceNotice enforces the configured notice window on override
// requests. No configuration or a zero window means no restriction.
func (h *Handler) checkAdvanceNotice(ctx context.Context, dates ...billing.Date) error {
	config, err := h.Store.GetPricingConfig(ctx)
	if err != nil {
		return err
	}
	if config == nil || config.AdvanceNoticeDays <= 0 {
		return nil
	}

	today := billing.Today()
	for _, d := range dates {
		if given := today.DaysUntil(d); given < config.AdvanceNoticeDays {
			return &billing.AdvanceNoticeError{
				Date:     d,
				Required: config.AdvanceNoticeDays,
				Given:    given,
			}
		}
	}
	return nil
}

func parseYearMonth(r *http.Request) (int, time.Month, error) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return 0, 0, err
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		return 0, 0, err
	}
	if month < 1 || month > 12 {
		return 0, 0, strconv.ErrRange
	}
	return year, time.Month(month), nil
}

// parseWeekdays validates and normalizes a 1=Monday..5=Friday weekday set.
func parseWeekdays(raw []int) ([]billing.Weekday, error) {
	if len(raw) == 0 || len(raw) > 5 {
		return nil, billing.ErrMalformedInput
	}
	seen := make(map[int]bool)
	var weekdays []billing.Weekday
	for _, d := range raw {
		if d < 1 || d > 5 || seen[d] {
			return nil, billing.ErrMalformedInput
		}
		seen[d] = true
		weekdays = append(weekdays, billing.Weekday(d))
	}
	return weekdays, nil
}

func optionalDate(s *string) (*billing.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := billing.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// toLegacyDate renders a date in the DD/MM/YYYY form absence rows use.
func toLegacyDate(d billing.Date) string {
	return d.String()[8:10] + "/" + d.String()[5:7] + "/" + d.String()[0:4]
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func personDTO(p billing.Person) PersonDTO {
	dto := PersonDTO{
		ID:         string(p.ID),
		Name:       p.Name,
		Active:     p.Active,
		IsStaff:    p.IsStaff,
		GuardianID: string(p.GuardianID),
		Grade:      p.Grade,
		Exempt:     p.Exemption.Exempt,
	}
	if p.Exemption.From != nil {
		s := p.Exemption.From.String()
		dto.ExemptFrom = &s
	}
	if p.Exemption.To != nil {
		s := p.Exemption.To.String()
		dto.ExemptTo = &s
	}
	return dto
}

func enrollmentDTO(e billing.Enrollment) EnrollmentDTO {
	weekdays := make([]int, len(e.Weekdays))
	for i, d := range e.Weekdays {
		weekdays[i] = int(d)
	}

	weekly := e.UnitPrice.Mul(decimal.NewFromInt(int64(len(e.Weekdays))))
	estimate := billing.RoundMoney(weekly.Mul(decimal.RequireFromString("4.33")))

	dto := EnrollmentDTO{
		ID:              string(e.ID),
		PersonID:        string(e.PersonID),
		Weekdays:        weekdays,
		UnitPrice:       money(e.UnitPrice),
		Active:          e.Active,
		StartDate:       e.StartDate.String(),
		MonthlyEstimate: money(estimate),
	}
	if e.EndDate != nil {
		s := e.EndDate.String()
		dto.EndDate = &s
	}
	return dto
}

func adHocDTO(a billing.AdHocAddition) AdHocDTO {
	return AdHocDTO{
		ID:       string(a.ID),
		PersonID: string(a.PersonID),
		Date:     a.Date.String(),
		State:    string(a.State),
	}
}

func billDTO(b billing.MonthlyBill) MonthlyBillDTO {
	return MonthlyBillDTO{
		PersonID:           string(b.PersonID),
		Year:               b.Year,
		Month:              int(b.Month),
		WorkingDays:        b.WorkingDays,
		BillableDays:       b.BillableDays,
		Total:              money(b.Total),
		Exempt:             b.Exempt,
		FamilyDiscount:     b.FamilyDiscount,
		AttendanceDiscount: b.AttendanceDiscount,
	}
}

func pricingConfigDTO(pc billing.PricingConfig) PricingConfigDTO {
	dto := PricingConfigDTO{
		ThirdChildDiscountPct:  money(pc.ThirdChildDiscountPct),
		AttendanceDiscountPct:  money(pc.AttendanceDiscountPct),
		AttendanceThresholdPct: money(pc.AttendanceThresholdPct),
		StaffDailyPrice:        money(pc.StaffDailyPrice),
		StaffChildMonthlyPrice: money(pc.StaffChildMonthlyPrice),
		AdvanceNoticeDays:      pc.AdvanceNoticeDays,
	}
	for _, t := range pc.Tiers {
		dto.Tiers = append(dto.Tiers, PriceTierDTO{
			MinDays: t.MinDays,
			MaxDays: t.MaxDays,
			Price:   money(t.Price),
		})
	}
	return dto
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses with actionable
// messages. Not-configured is the one the UI must surface verbatim.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case billing.IsNotConfigured(err):
		writeError(w, http.StatusConflict, "Pricing is not configured - contact an administrator to configure pricing", err)
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Record not found", err)
	case billing.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Computation failed", err)
	}
}
