package timeoff

import "time"

// BusinessDaysBetween counts weekdays from start to end inclusive. A half-day
// request always counts 0.5 whatever its date. Returns 0 when end precedes
// start.
func BusinessDaysBetween(start, end time.Time, halfDay bool) float64 {
	if halfDay {
		return 0.5
	}
	start = dateOnly(start)
	end = dateOnly(end)
	if end.Before(start) {
		return 0
	}
	var days float64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !isWeekend(d) {
			days++
		}
	}
	return days
}

// PreviewBusinessDays estimates the day count for a request form before it
// is submitted. Nil until both dates are chosen; the create path recomputes
// the authoritative count.
func PreviewBusinessDays(start, end *time.Time, halfDay bool) *float64 {
	if start == nil || end == nil {
		return nil
	}
	days := BusinessDaysBetween(*start, *end, halfDay)
	return &days
}

// IsAttachmentRequired applies the type's evidence policy to a request span.
func IsAttachmentRequired(t Type, businessDays float64) bool {
	switch t.AttachmentRequirement {
	case AttachmentAlways:
		return true
	case AttachmentConditional:
		return businessDays > float64(t.AttachmentRequiredAfterDays)
	default:
		return false
	}
}

// Overlaps reports whether two requests collide. Complementary half-days on
// the same date do not overlap.
func Overlaps(a, b Request) bool {
	if a.EndDate.Before(b.StartDate) || b.EndDate.Before(a.StartDate) {
		return false
	}
	if a.HalfDay != "" && b.HalfDay != "" && a.HalfDay != b.HalfDay &&
		a.StartDate.Equal(b.StartDate) {
		return false
	}
	return true
}

// CanCancel reports whether the owner may withdraw the request.
func CanCancel(r Request) bool {
	return r.Status == StatusPending || r.Status == StatusApproved
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
