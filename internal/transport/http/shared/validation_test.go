package shared

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestValidatorCollectsIssues(t *testing.T) {
	v := NewValidator()
	v.Required("name", "", "name is required")
	v.Required("email", "user@example.com", "email is required")
	v.Enum("status", "BROKEN", []string{"ACTIVE", "INACTIVE"}, "unknown status")
	v.Enum("kind", "active", []string{"ACTIVE", "INACTIVE"}, "unknown kind")

	if !v.HasIssues() {
		t.Fatal("expected validation issues")
	}
	issues := v.Issues()
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %+v", len(issues), issues)
	}
}

func TestValidatorDate(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{name: "iso date", raw: "2026-03-02", valid: true},
		{name: "padded", raw: " 2026-03-02 ", valid: true},
		{name: "garbage", raw: "03/02/2026", valid: false},
		{name: "empty", raw: "", valid: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := NewValidator()
			parsed, ok := v.Date("startDate", tc.raw)
			if ok != tc.valid {
				t.Fatalf("expected valid=%v, got %v", tc.valid, ok)
			}
			if tc.valid && parsed.IsZero() {
				t.Fatal("expected a parsed date")
			}
			if !tc.valid && !v.HasIssues() {
				t.Fatal("expected an issue for an invalid date")
			}
		})
	}
}

func TestValidatorDateOrder(t *testing.T) {
	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	v := NewValidator()
	v.DateOrder("startDate", start, "endDate", end)
	if !v.HasIssues() {
		t.Fatal("expected an issue when end precedes start")
	}

	v = NewValidator()
	v.DateOrder("startDate", start, "endDate", start)
	if v.HasIssues() {
		t.Fatalf("equal dates should be allowed, got %+v", v.Issues())
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", query: "", wantLimit: 50, wantOffset: 0},
		{name: "explicit", query: "?limit=10&offset=30", wantLimit: 10, wantOffset: 30},
		{name: "clamped to max", query: "?limit=9999", wantLimit: 200, wantOffset: 0},
		{name: "negative ignored", query: "?limit=-5&offset=-2", wantLimit: 50, wantOffset: 0},
		{name: "non numeric ignored", query: "?limit=abc&offset=xyz", wantLimit: 50, wantOffset: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/employees"+tc.query, nil)
			p := ParsePagination(r, 50, 200)
			if p.Limit != tc.wantLimit || p.Offset != tc.wantOffset {
				t.Fatalf("got limit=%d offset=%d, want limit=%d offset=%d",
					p.Limit, p.Offset, tc.wantLimit, tc.wantOffset)
			}
		})
	}
}

func TestValidatorClockTime(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantIssue bool
	}{
		{"morning punch", "09:00", false},
		{"midnight", "00:00", false},
		{"last minute", "23:59", false},
		{"empty is an absent punch", "", false},
		{"hour out of range", "24:00", true},
		{"minute out of range", "10:60", true},
		{"no separator", "0900", true},
		{"garbage", "late", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := NewValidator()
			v.ClockTime("clockIn", tc.value)
			if v.HasIssues() != tc.wantIssue {
				t.Fatalf("ClockTime(%q): issues = %v, want %v", tc.value, v.HasIssues(), tc.wantIssue)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	if minutes, ok := ParseClock("08:30"); !ok || minutes != 510 {
		t.Fatalf("ParseClock(08:30) = %d, %v", minutes, ok)
	}
	if _, ok := ParseClock("8:3"); ok {
		t.Fatal("expected single-digit minutes to be rejected")
	}
}
