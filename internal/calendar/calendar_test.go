package calendar

import (
	"testing"
	"time"

	"github.com/prakash-iyer/cpm-engine/pkg/models"
)

func weekdayCalendar() *models.Calendar {
	return &models.Calendar{
		WorkingDays: []int{1, 2, 3, 4, 5},
		Exceptions:  map[string]models.CalendarException{},
	}
}

func TestIsWorkDay_Weekend(t *testing.T) {
	cal := weekdayCalendar()
	d, _ := parse("2024-01-06") // Saturday
	if IsWorkDay(d, cal) {
		t.Error("expected Saturday to be non-working")
	}
}

func TestIsWorkDay_ExceptionOverridesWeekday(t *testing.T) {
	cal := weekdayCalendar()
	cal.Exceptions["2024-01-06"] = models.CalendarException{Working: true}
	d, _ := parse("2024-01-06")
	if !IsWorkDay(d, cal) {
		t.Error("expected exception to mark Saturday working")
	}
}

func TestIsWorkDay_StringExceptionIsNonWorking(t *testing.T) {
	cal := weekdayCalendar()
	cal.Exceptions["2024-01-01"] = models.CalendarException{Working: false}
	d, _ := parse("2024-01-01") // Monday, normally working
	if IsWorkDay(d, cal) {
		t.Error("expected holiday exception to override weekday")
	}
}

func TestAddWorkDays_ZeroSnapsForward(t *testing.T) {
	cal := weekdayCalendar()
	got := AddWorkDays("2024-01-06", 0, cal) // Saturday -> Monday
	if got != "2024-01-08" {
		t.Errorf("got %s, want 2024-01-08", got)
	}
}

func TestAddWorkDays_ZeroOnWorkingDayIsNoop(t *testing.T) {
	cal := weekdayCalendar()
	got := AddWorkDays("2024-01-08", 0, cal)
	if got != "2024-01-08" {
		t.Errorf("got %s, want 2024-01-08", got)
	}
}

func TestAddWorkDays_AcrossWeekend(t *testing.T) {
	cal := weekdayCalendar()
	got := AddWorkDays("2024-01-04", 1, cal) // Thursday + 1 -> Friday
	if got != "2024-01-05" {
		t.Errorf("got %s, want 2024-01-05", got)
	}
	got = AddWorkDays("2024-01-05", 1, cal) // Friday + 1 -> Monday
	if got != "2024-01-08" {
		t.Errorf("got %s, want 2024-01-08", got)
	}
}

func TestAddWorkDays_Negative(t *testing.T) {
	cal := weekdayCalendar()
	got := AddWorkDays("2024-01-08", -1, cal) // Monday - 1 -> Friday
	if got != "2024-01-05" {
		t.Errorf("got %s, want 2024-01-05", got)
	}
}

func TestAddWorkDays_EmptyUnchanged(t *testing.T) {
	cal := weekdayCalendar()
	if got := AddWorkDays("", 5, cal); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestWorkDays_InclusiveAndSymmetric(t *testing.T) {
	cal := weekdayCalendar()
	got := WorkDays("2024-01-01", "2024-01-05", cal) // Mon..Fri
	if got != 5 {
		t.Errorf("got %d, want 5", got)
	}
	if rev := WorkDays("2024-01-05", "2024-01-01", cal); rev != got {
		t.Errorf("not symmetric: %d vs %d", rev, got)
	}
}

func TestWorkDays_ClampsToOne(t *testing.T) {
	cal := weekdayCalendar()
	got := WorkDays("2024-01-06", "2024-01-06", cal) // Saturday only
	if got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestWorkDays_EmptyIsZero(t *testing.T) {
	cal := weekdayCalendar()
	if got := WorkDays("", "2024-01-05", cal); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestWorkDaysSigned_PositiveAndNegativeAreMirrored(t *testing.T) {
	cal := weekdayCalendar()
	fwd := WorkDaysSigned("2024-01-01", "2024-01-05", cal)
	bwd := WorkDaysSigned("2024-01-05", "2024-01-01", cal)
	if fwd != 4 {
		t.Errorf("got %d, want 4", fwd)
	}
	if bwd != -fwd {
		t.Errorf("expected mirrored sign: %d vs %d", bwd, fwd)
	}
}

func TestWorkDaysSigned_SameDateIsZero(t *testing.T) {
	cal := weekdayCalendar()
	if got := WorkDaysSigned("2024-01-01", "2024-01-01", cal); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func parse(s string) (time.Time, error) {
	return time.Parse(isoLayout, s)
}
