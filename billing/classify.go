/*
classify.go - Per-day attendance classification (the override layer)

PURPOSE:
  Applies cancellations (bajas) and approved ad-hoc additions (altas
  puntuales) on top of contracted days to produce the final per-day
  classification that drives both billing and the attendance calendar.

PRIORITY ORDER (first match wins):
  holiday > cancelled > adhoc > contracted > none

  A date that is simultaneously a holiday, cancelled and contracted is a
  holiday, full stop. Lower-priority states are never evaluated.

ABSENCE DATES:
  Absence rows hold dates as DD/MM/YYYY text. The classifier parses them
  once, at construction. A row that fails every parsing layout is dropped
  from the cancelled set (fail open on a single row) rather than failing the
  whole month's computation.

SEE ALSO:
  - types.go:    DayClass and priority documentation
  - monthly.go:  counts contracted/adhoc days as billable
*/
package billing

// Classifier resolves the classification of any person-date from
// pre-materialized input collections. Build one per computation; it is
// read-only afterwards and safe for concurrent use.
type Classifier struct {
	holidays  DateSet
	cancelled map[PersonID]DateSet
	adhoc     map[PersonID]DateSet
}

// NewClassifier indexes the input collections for classification.
// Only active holidays and approved ad-hoc additions participate.
// Unparseable absence dates are skipped (best-effort, fail open).
func NewClassifier(holidays []Holiday, absences []Absence, additions []AdHocAddition) *Classifier {
	c := &Classifier{
		holidays:  HolidaySet(holidays),
		cancelled: make(map[PersonID]DateSet),
		adhoc:     make(map[PersonID]DateSet),
	}

	for _, a := range absences {
		set := c.cancelled[a.PersonID]
		if set == nil {
			set = make(DateSet)
			c.cancelled[a.PersonID] = set
		}
		for _, raw := range a.Dates {
			d, err := ParseAbsenceDate(raw)
			if err != nil {
				continue // fail open: drop the row, keep the month
			}
			set.Add(d)
		}
	}

	for _, add := range additions {
		if add.State != StateApproved {
			continue
		}
		set := c.adhoc[add.PersonID]
		if set == nil {
			set = make(DateSet)
			c.adhoc[add.PersonID] = set
		}
		set.Add(add.Date)
	}

	return c
}

// Holidays returns the active-holiday date set, for working-day resolution.
func (c *Classifier) Holidays() DateSet { return c.holidays }

// Classify returns the classification of one person-date. enrollment may be
// nil (person without an active enrollment); such a date can still classify
// as adhoc, cancelled or holiday.
func (c *Classifier) Classify(personID PersonID, d Date, enrollment *Enrollment) DayClass {
	if c.holidays.Has(d) {
		return DayHoliday
	}
	if c.cancelled[personID].Has(d) {
		return DayCancelled
	}
	if c.adhoc[personID].Has(d) {
		return DayAdHoc
	}
	if enrollment != nil && enrollment.Covers(d) {
		return DayContracted
	}
	return DayNone
}
