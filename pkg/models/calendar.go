package models

import "encoding/json"

// CalendarException overrides the default working-day classification
// for a single ISO date. A plain non-working marker (Working == false)
// is what a bare holiday entry on the wire decodes to.
type CalendarException struct {
	Working bool `json:"working"`
}

// UnmarshalJSON accepts both the object form ({"working": bool}) and a
// bare string form (e.g. a holiday name), per the calendar wire schema.
// String-valued exceptions mean "non-working".
func (e *CalendarException) UnmarshalJSON(data []byte) error {
	var obj struct {
		Working bool `json:"working"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		e.Working = obj.Working
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	e.Working = false
	return nil
}

// MarshalJSON re-emits the object form.
func (e CalendarException) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Working bool `json:"working"`
	}{Working: e.Working})
}

// Calendar is the project calendar: the set of weekdays that are
// working days by default (0=Sunday .. 6=Saturday) plus a table of
// per-date exceptions.
type Calendar struct {
	WorkingDays []int                         `json:"workingDays"`
	Exceptions  map[string]CalendarException  `json:"exceptions"`
}

// WorkingDaySet returns the calendar's working weekdays as a lookup set.
func (c *Calendar) WorkingDaySet() map[int]bool {
	set := make(map[int]bool, len(c.WorkingDays))
	for _, d := range c.WorkingDays {
		set[d] = true
	}
	return set
}
