package timesheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timesheets older than this many weeks (counted from the current week's
// Monday) are locked from editing and submission.
const MaxEditWeeksAgo = 2

// MondayOf returns the Monday of the ISO week containing d, at midnight in
// d's location.
func MondayOf(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	weekday := int(day.Weekday())
	// Sunday is 0 and belongs to the previous Monday.
	daysBack := weekday - 1
	if weekday == 0 {
		daysBack = 6
	}
	return day.AddDate(0, 0, -daysBack)
}

// SundayOf returns the Sunday closing the ISO week containing d.
func SundayOf(d time.Time) time.Time {
	return MondayOf(d).AddDate(0, 0, 6)
}

// WeekWindow is the Monday..Sunday span containing a reference date.
type WeekWindow struct {
	Monday time.Time `json:"monday"`
	Sunday time.Time `json:"sunday"`
}

func WeekOf(d time.Time) WeekWindow {
	monday := MondayOf(d)
	return WeekWindow{Monday: monday, Sunday: monday.AddDate(0, 0, 6)}
}

// EditWindowCutoff is the oldest week start still editable as of now.
func EditWindowCutoff(now time.Time) time.Time {
	return MondayOf(now).AddDate(0, 0, -7*MaxEditWeeksAgo)
}

// IsWithinEditWindow reports whether a timesheet for weekStart may still be
// edited. The boundary is inclusive: a week starting exactly on the cutoff is
// editable.
func IsWithinEditWindow(weekStart, now time.Time) bool {
	ws := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, weekStart.Location())
	return !ws.Before(EditWindowCutoff(now))
}

// CanEdit is the full client-observable editability predicate: ownership,
// edit window, and a status that still accepts changes.
func CanEdit(ts *Timesheet, employeeID string, now time.Time) bool {
	if ts == nil || ts.EmployeeID != employeeID {
		return false
	}
	if ts.Status != StatusDraft && ts.Status != StatusRejected {
		return false
	}
	return IsWithinEditWindow(ts.WeekStart, now)
}

// HoursBetween converts an "HH:MM" clock pair to worked hours rounded
// half-up at one decimal. Missing punches, malformed values, and
// non-positive spans (including overnight pairs, which are unsupported)
// all yield 0.
func HoursBetween(clockIn, clockOut string) float64 {
	in, okIn := parseMinutes(clockIn)
	out, okOut := parseMinutes(clockOut)
	if !okIn || !okOut {
		return 0
	}
	diff := out - in
	if diff <= 0 {
		return 0
	}
	return math.Round(float64(diff)/60*10) / 10
}

// FormatTime12h renders a 24-hour "HH:MM" value as "H:MM AM/PM". Hour 0 and
// hour 12 both render as 12. Empty or malformed input yields "".
func FormatTime12h(hhmm string) string {
	if hhmm == "" {
		return ""
	}
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return ""
	}
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%s %s", hour12, parts[1], period)
}

// SumHours totals entry hours at the same one-decimal granularity the
// per-entry computation uses.
func SumHours(entries []Entry) float64 {
	total := 0.0
	for _, entry := range entries {
		total += entry.Hours
	}
	return math.Round(total*10) / 10
}

func parseMinutes(hhmm string) (int, bool) {
	if hhmm == "" {
		return 0, false
	}
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
