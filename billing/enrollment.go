/*
enrollment.go - Enrollment matching

PURPOSE:
  Decides whether a given date is "contracted" under an enrollment: the
  weekday belongs to the contracted set and the date falls inside the
  enrollment window.

  The matcher assumes it is handed an already-active enrollment. Filtering
  inactive enrollments is the caller's job (the store only ever returns the
  active one, and there is at most one per person).
*/
package billing

// Covers reports whether the date is contracted under this enrollment.
// All three conditions must hold:
//   1. The date's weekday (normalized, Monday=1) is in the contracted set.
//   2. date >= StartDate.
//   3. EndDate is nil, or date <= EndDate.
func (e Enrollment) Covers(d Date) bool {
	if !e.HasWeekday(d.ContractedWeekday()) {
		return false
	}
	if d.Before(e.StartDate) {
		return false
	}
	if e.EndDate != nil && d.After(*e.EndDate) {
		return false
	}
	return true
}

// Deactivate soft-deletes the enrollment: clears the active flag and stamps
// the end date. Enrollments are never hard-deleted by the enrollment
// workflow; only a cascading person deletion removes rows.
func (e *Enrollment) Deactivate(endDate Date) {
	e.Active = false
	e.EndDate = &endDate
}
