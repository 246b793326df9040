package timeoff

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBusinessDaysBetween(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		halfDay bool
		want    float64
	}{
		{"single weekday", date(2024, time.March, 13), date(2024, time.March, 13), false, 1},
		{"full work week", date(2024, time.March, 11), date(2024, time.March, 15), false, 5},
		{"span over weekend", date(2024, time.March, 14), date(2024, time.March, 19), false, 4},
		{"weekend only", date(2024, time.March, 16), date(2024, time.March, 17), false, 0},
		{"two full weeks", date(2024, time.March, 11), date(2024, time.March, 22), false, 10},
		{"end before start", date(2024, time.March, 15), date(2024, time.March, 11), false, 0},
		{"half day", date(2024, time.March, 13), date(2024, time.March, 13), true, 0.5},
		{"half day on weekend", date(2024, time.March, 16), date(2024, time.March, 16), true, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BusinessDaysBetween(tc.start, tc.end, tc.halfDay)
			if got != tc.want {
				t.Fatalf("BusinessDaysBetween(%s, %s, %v) = %v, want %v",
					tc.start.Format("2006-01-02"), tc.end.Format("2006-01-02"), tc.halfDay, got, tc.want)
			}
		})
	}
}

func TestPreviewBusinessDays(t *testing.T) {
	start := date(2024, time.March, 11)
	end := date(2024, time.March, 15)

	tests := []struct {
		name    string
		start   *time.Time
		end     *time.Time
		halfDay bool
		want    *float64
	}{
		{"both dates missing", nil, nil, false, nil},
		{"start missing", nil, &end, false, nil},
		{"end missing", &start, nil, false, nil},
		{"full week", &start, &end, false, ptrFloat(5)},
		{"half day wins over range", &start, &end, true, ptrFloat(0.5)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PreviewBusinessDays(tc.start, tc.end, tc.halfDay)
			switch {
			case tc.want == nil && got != nil:
				t.Fatalf("got %v, want nil", *got)
			case tc.want != nil && got == nil:
				t.Fatalf("got nil, want %v", *tc.want)
			case tc.want != nil && *got != *tc.want:
				t.Fatalf("got %v, want %v", *got, *tc.want)
			}
		})
	}
}

func ptrFloat(f float64) *float64 { return &f }

func TestBusinessDaysIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, time.March, 13, 23, 59, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 14, 0, 1, 0, 0, time.UTC)
	if got := BusinessDaysBetween(start, end, false); got != 2 {
		t.Fatalf("got %v, want 2", got)
	}
}

func TestIsAttachmentRequired(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		days float64
		want bool
	}{
		{"never", Type{AttachmentRequirement: AttachmentNever}, 30, false},
		{"always one day", Type{AttachmentRequirement: AttachmentAlways}, 1, true},
		{"always half day", Type{AttachmentRequirement: AttachmentAlways}, 0.5, true},
		{"conditional under threshold", Type{AttachmentRequirement: AttachmentConditional, AttachmentRequiredAfterDays: 3}, 2, false},
		{"conditional at threshold", Type{AttachmentRequirement: AttachmentConditional, AttachmentRequiredAfterDays: 3}, 3, false},
		{"conditional over threshold", Type{AttachmentRequirement: AttachmentConditional, AttachmentRequiredAfterDays: 3}, 3.5, true},
		{"blank requirement", Type{}, 10, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAttachmentRequired(tc.typ, tc.days); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	full := func(s, e time.Time) Request {
		return Request{StartDate: s, EndDate: e}
	}
	half := func(d time.Time, period string) Request {
		return Request{StartDate: d, EndDate: d, HalfDay: period}
	}
	day := date(2024, time.March, 13)

	tests := []struct {
		name string
		a, b Request
		want bool
	}{
		{"disjoint", full(day, day), full(day.AddDate(0, 0, 2), day.AddDate(0, 0, 3)), false},
		{"same day", full(day, day), full(day, day), true},
		{"partial overlap", full(day, day.AddDate(0, 0, 3)), full(day.AddDate(0, 0, 2), day.AddDate(0, 0, 5)), true},
		{"complementary half days", half(day, HalfDayMorning), half(day, HalfDayAfternoon), false},
		{"same half day", half(day, HalfDayMorning), half(day, HalfDayMorning), true},
		{"half day against full day", half(day, HalfDayMorning), full(day, day), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.a, tc.b); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			if got := Overlaps(tc.b, tc.a); got != tc.want {
				t.Fatalf("reversed: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBalanceRemaining(t *testing.T) {
	b := Balance{Allocated: 25, CarryOver: 3, Used: 10, Pending: 2.5}
	if got := b.Remaining(); got != 15.5 {
		t.Fatalf("Remaining() = %v, want 15.5", got)
	}
}

func TestCanCancel(t *testing.T) {
	for status, want := range map[string]bool{
		StatusPending:   true,
		StatusApproved:  true,
		StatusRejected:  false,
		StatusCancelled: false,
	} {
		if got := CanCancel(Request{Status: status}); got != want {
			t.Fatalf("CanCancel(%s) = %v, want %v", status, got, want)
		}
	}
}
