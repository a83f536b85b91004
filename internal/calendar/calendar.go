// Package calendar implements calendar-aware working-day arithmetic:
// working-day classification, add-working-days, and both the
// inclusive-span and signed-span variants CPM needs.
package calendar

import (
	"time"

	"github.com/prakash-iyer/cpm-engine/pkg/models"
)

const isoLayout = "2006-01-02"

// IsWorkDay reports whether date is a working day under cal. An
// exception always wins; absent an exception, the date's weekday
// decides against cal's working-day set.
func IsWorkDay(date time.Time, cal *models.Calendar) bool {
	key := date.Format(isoLayout)
	if exc, ok := cal.Exceptions[key]; ok {
		return exc.Working
	}
	return cal.WorkingDaySet()[int(date.Weekday())]
}

// AddWorkDays returns the date that is n working days from date
// (date_str in, date_str out on the wire). n=0 snaps forward to the
// next working day if date itself is non-working. n>0/n<0 step
// calendar days in the sign direction, counting only working-day
// steps, then continue stepping until the landing day is a working
// day. An unparseable or empty date is returned unchanged.
func AddWorkDays(dateStr string, n int, cal *models.Calendar) string {
	if dateStr == "" {
		return dateStr
	}
	date, err := time.Parse(isoLayout, dateStr)
	if err != nil {
		return dateStr
	}

	if n == 0 {
		for !IsWorkDay(date, cal) {
			date = date.AddDate(0, 0, 1)
		}
		return date.Format(isoLayout)
	}

	step := 1
	remaining := n
	if n < 0 {
		step = -1
		remaining = -n
	}

	for remaining > 0 {
		date = date.AddDate(0, 0, step)
		if IsWorkDay(date, cal) {
			remaining--
		}
	}

	for !IsWorkDay(date, cal) {
		date = date.AddDate(0, 0, step)
	}

	return date.Format(isoLayout)
}

// WorkDays returns the inclusive count of working days spanning
// min(a,b)..max(a,b), clamped to a minimum of 1 when both dates are
// valid, or 0 when either is empty/unparseable. Symmetric in a, b.
func WorkDays(a, b string, cal *models.Calendar) int {
	if a == "" || b == "" {
		return 0
	}
	da, err := time.Parse(isoLayout, a)
	if err != nil {
		return 0
	}
	db, err := time.Parse(isoLayout, b)
	if err != nil {
		return 0
	}

	start, end := da, db
	if start.After(end) {
		start, end = end, start
	}

	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsWorkDay(d, cal) {
			count++
		}
	}
	if count < 1 {
		count = 1
	}
	return count
}

// WorkDaysSigned returns the signed working-day delta from a to b: 0
// when equal, positive counting working days in (a, b] when b is
// later, negative counting working days in [b, a) (negated) when b is
// earlier. Unlike WorkDays it is not inclusive at both ends and is not
// clamped.
func WorkDaysSigned(a, b string, cal *models.Calendar) int {
	if a == "" || b == "" {
		return 0
	}
	da, err := time.Parse(isoLayout, a)
	if err != nil {
		return 0
	}
	db, err := time.Parse(isoLayout, b)
	if err != nil {
		return 0
	}
	if da.Equal(db) {
		return 0
	}

	if db.After(da) {
		count := 0
		for d := da; d.Before(db); d = d.AddDate(0, 0, 1) {
			next := d.AddDate(0, 0, 1)
			if IsWorkDay(next, cal) {
				count++
			}
		}
		return count
	}

	count := 0
	for d := da.AddDate(0, 0, -1); !d.Before(db); d = d.AddDate(0, 0, -1) {
		if IsWorkDay(d, cal) {
			count--
		}
	}
	return count
}
