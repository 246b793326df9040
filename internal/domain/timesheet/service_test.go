package timesheet

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bonarda/internal/domain/auth"
)

type fakeStore struct {
	sheets   map[string]*Timesheet
	managers map[string]string // employee -> manager
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sheets: map[string]*Timesheet{}, managers: map[string]string{}}
}

func (f *fakeStore) add(ts *Timesheet) *Timesheet {
	if ts.ID == "" {
		f.nextID++
		ts.ID = fmt.Sprintf("ts-%d", f.nextID)
	}
	f.sheets[ts.ID] = ts
	return ts
}

func (f *fakeStore) ByID(_ context.Context, id string) (*Timesheet, error) {
	ts, ok := f.sheets[id]
	if !ok {
		return nil, nil
	}
	cp := *ts
	cp.Entries = append([]Entry(nil), ts.Entries...)
	return &cp, nil
}

func (f *fakeStore) ByEmployeeAndWeek(ctx context.Context, employeeID string, weekStart time.Time) (*Timesheet, error) {
	for id, ts := range f.sheets {
		if ts.EmployeeID == employeeID && ts.WeekStart.Equal(weekStart) {
			return f.ByID(ctx, id)
		}
	}
	return nil, nil
}

func (f *fakeStore) Create(ctx context.Context, employeeID string, weekStart time.Time) (*Timesheet, error) {
	ts := f.add(&Timesheet{EmployeeID: employeeID, WeekStart: weekStart, Status: StatusDraft})
	return f.ByID(ctx, ts.ID)
}

func (f *fakeStore) ReplaceEntries(_ context.Context, id string, entries []Entry, total float64) error {
	ts := f.sheets[id]
	ts.Entries = append([]Entry(nil), entries...)
	ts.TotalHours = total
	return nil
}

func (f *fakeStore) UpsertEntry(_ context.Context, id string, entry Entry) error {
	ts := f.sheets[id]
	for i := range ts.Entries {
		if ts.Entries[i].EntryDate.Equal(entry.EntryDate) {
			entry.ID = ts.Entries[i].ID
			ts.Entries[i] = entry
			return nil
		}
	}
	ts.Entries = append(ts.Entries, entry)
	return nil
}

func (f *fakeStore) UpdateTotal(_ context.Context, id string, total float64) error {
	f.sheets[id].TotalHours = total
	return nil
}

func (f *fakeStore) SetStatus(_ context.Context, id, status string) error {
	f.sheets[id].Status = status
	return nil
}

func (f *fakeStore) MarkSubmitted(_ context.Context, id string, at time.Time) error {
	ts := f.sheets[id]
	ts.Status = StatusSubmitted
	ts.SubmittedAt = &at
	ts.ReviewerID = ""
	ts.ReviewNote = ""
	ts.ReviewedAt = nil
	return nil
}

func (f *fakeStore) MarkReviewed(_ context.Context, id, reviewerID, status, note string, at time.Time) error {
	ts := f.sheets[id]
	ts.Status = status
	ts.ReviewerID = reviewerID
	ts.ReviewNote = note
	ts.ReviewedAt = &at
	return nil
}

func (f *fakeStore) ListByEmployee(ctx context.Context, employeeID string) ([]Timesheet, error) {
	var out []Timesheet
	for id, ts := range f.sheets {
		if ts.EmployeeID == employeeID {
			cp, _ := f.ByID(ctx, id)
			out = append(out, *cp)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTeam(ctx context.Context, managerID string) ([]Timesheet, error) {
	var out []Timesheet
	for id, ts := range f.sheets {
		if f.managers[ts.EmployeeID] == managerID && ts.Status == StatusSubmitted {
			cp, _ := f.ByID(ctx, id)
			out = append(out, *cp)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAll(ctx context.Context, limit, offset int) (ListResult, error) {
	var items []Timesheet
	for id := range f.sheets {
		cp, _ := f.ByID(ctx, id)
		items = append(items, *cp)
	}
	return ListResult{Items: items, Total: len(f.sheets)}, nil
}

func (f *fakeStore) IsManagerOf(_ context.Context, managerID, employeeID string) (bool, error) {
	return f.managers[employeeID] == managerID, nil
}

var testNow = time.Date(2024, time.March, 13, 10, 30, 0, 0, time.UTC) // a Wednesday

func TestGetOrCreateRequiresMonday(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.GetOrCreate(context.Background(), "emp-1", testNow, testNow)
	if err == nil {
		t.Fatal("expected an error for a non-Monday week start")
	}
	var rule *RuleError
	if !errors.As(err, &rule) {
		t.Fatalf("expected a rule error, got %v", err)
	}
}

func TestGetOrCreateOutsideWindow(t *testing.T) {
	svc := NewService(newFakeStore())

	old := MondayOf(testNow).AddDate(0, 0, -21)
	if _, err := svc.GetOrCreate(context.Background(), "emp-1", old, testNow); err == nil {
		t.Fatal("expected an error for a week older than the edit window")
	}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	svc := NewService(newFakeStore())
	week := MondayOf(testNow)

	first, err := svc.GetOrCreate(context.Background(), "emp-1", week, testNow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.GetOrCreate(context.Background(), "emp-1", week, testNow)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same timesheet, got %s and %s", first.ID, second.ID)
	}
	if first.Status != StatusDraft {
		t.Fatalf("new timesheet status = %s, want DRAFT", first.Status)
	}
}

func TestUpdateEntriesRecomputesHours(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	week := MondayOf(testNow)
	ts := store.add(&Timesheet{EmployeeID: "emp-1", WeekStart: week, Status: StatusDraft})

	got, err := svc.UpdateEntries(context.Background(), ts.ID, "emp-1", []EntryInput{
		{EntryDate: week, ClockIn: "09:00", ClockOut: "17:30"},
		{EntryDate: week.AddDate(0, 0, 1), ClockIn: "09:00", ClockOut: "13:00"},
	}, testNow)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(got.Entries))
	}
	if got.Entries[0].Hours != 8.5 || got.Entries[1].Hours != 4 {
		t.Fatalf("hours = %v, %v; want 8.5, 4", got.Entries[0].Hours, got.Entries[1].Hours)
	}
	if got.TotalHours != 12.5 {
		t.Fatalf("total = %v, want 12.5", got.TotalHours)
	}
}

func TestUpdateEntriesRejectsForeignOwner(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ts := store.add(&Timesheet{EmployeeID: "emp-1", WeekStart: MondayOf(testNow), Status: StatusDraft})

	if _, err := svc.UpdateEntries(context.Background(), ts.ID, "emp-2", nil, testNow); err == nil {
		t.Fatal("expected an ownership error")
	}
}

func TestUpdateEntriesRejectsDateOutsideWeek(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	week := MondayOf(testNow)
	ts := store.add(&Timesheet{EmployeeID: "emp-1", WeekStart: week, Status: StatusDraft})

	_, err := svc.UpdateEntries(context.Background(), ts.ID, "emp-1", []EntryInput{
		{EntryDate: week.AddDate(0, 0, 7), ClockIn: "09:00", ClockOut: "10:00"},
	}, testNow)
	if err == nil {
		t.Fatal("expected an error for an entry outside the week")
	}
}

func TestUpdateEntriesResetsRejectedToDraft(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	week := MondayOf(testNow)
	ts := store.add(&Timesheet{EmployeeID: "emp-1", WeekStart: week, Status: StatusRejected})

	got, err := svc.UpdateEntries(context.Background(), ts.ID, "emp-1", []EntryInput{
		{EntryDate: week, ClockIn: "09:00", ClockOut: "17:00"},
	}, testNow)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != StatusDraft {
		t.Fatalf("status = %s, want DRAFT after editing a rejected timesheet", got.Status)
	}
}

func TestUpdateEntriesBlockedOnSubmitted(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ts := store.add(&Timesheet{EmployeeID: "emp-1", WeekStart: MondayOf(testNow), Status: StatusSubmitted})

	if _, err := svc.UpdateEntries(context.Background(), ts.ID, "emp-1", nil, testNow); err == nil {
		t.Fatal("expected an error editing a submitted timesheet")
	}
}

func TestClockInAndOut(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	ts, err := svc.ClockIn(context.Background(), "emp-1", testNow)
	if err != nil {
		t.Fatalf("clock in: %v", err)
	}
	if len(ts.Entries) != 1 || ts.Entries[0].ClockIn != "10:30" {
		t.Fatalf("unexpected entries after clock-in: %+v", ts.Entries)
	}

	if _, err := svc.ClockIn(context.Background(), "emp-1", testNow); err == nil {
		t.Fatal("expected a double clock-in to fail")
	}

	out := testNow.Add(8 * time.Hour)
	ts, err = svc.ClockOut(context.Background(), "emp-1", out)
	if err != nil {
		t.Fatalf("clock out: %v", err)
	}
	if ts.Entries[0].ClockOut != "18:30" {
		t.Fatalf("clock out = %s, want 18:30", ts.Entries[0].ClockOut)
	}
	if ts.Entries[0].Hours != 8 {
		t.Fatalf("hours = %v, want 8", ts.Entries[0].Hours)
	}
	if ts.TotalHours != 8 {
		t.Fatalf("total = %v, want 8", ts.TotalHours)
	}

	if _, err := svc.ClockOut(context.Background(), "emp-1", out); err == nil {
		t.Fatal("expected a double clock-out to fail")
	}
}

func TestClockOutWithoutClockIn(t *testing.T) {
	svc := NewService(newFakeStore())
	if _, err := svc.ClockOut(context.Background(), "emp-1", testNow); err == nil {
		t.Fatal("expected an error when clocking out with no timesheet")
	}
}

func TestSubmitRequiresEntries(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ts := store.add(&Timesheet{EmployeeID: "emp-1", WeekStart: MondayOf(testNow), Status: StatusDraft})

	if _, err := svc.Submit(context.Background(), ts.ID, "emp-1", testNow); err == nil {
		t.Fatal("expected an error submitting an empty timesheet")
	}
}

func TestSubmitClearsPriorReview(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	week := MondayOf(testNow)
	reviewed := testNow.Add(-24 * time.Hour)
	ts := store.add(&Timesheet{
		EmployeeID: "emp-1",
		WeekStart:  week,
		Status:     StatusRejected,
		Entries:    []Entry{{EntryDate: week, ClockIn: "09:00", ClockOut: "17:00", Hours: 8}},
		ReviewerID: "mgr-1",
		ReviewNote: "missing Friday",
		ReviewedAt: &reviewed,
	})

	got, err := svc.Submit(context.Background(), ts.ID, "emp-1", testNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Status != StatusSubmitted {
		t.Fatalf("status = %s, want SUBMITTED", got.Status)
	}
	if got.SubmittedAt == nil || !got.SubmittedAt.Equal(testNow) {
		t.Fatalf("submittedAt = %v, want %v", got.SubmittedAt, testNow)
	}
	if got.ReviewerID != "" || got.ReviewNote != "" || got.ReviewedAt != nil {
		t.Fatal("expected prior review fields to be cleared on resubmission")
	}
}

func TestReviewRules(t *testing.T) {
	week := MondayOf(testNow)
	base := func(status string) (*fakeStore, string) {
		store := newFakeStore()
		ts := store.add(&Timesheet{
			EmployeeID: "emp-1", WeekStart: week, Status: status,
			Entries: []Entry{{EntryDate: week, Hours: 8}},
		})
		return store, ts.ID
	}

	t.Run("approve", func(t *testing.T) {
		store, id := base(StatusSubmitted)
		got, err := NewService(store).Review(context.Background(), id, "mgr-1", StatusApproved, "looks good", testNow)
		if err != nil {
			t.Fatalf("review: %v", err)
		}
		if got.Status != StatusApproved || got.ReviewerID != "mgr-1" || got.ReviewNote != "looks good" {
			t.Fatalf("unexpected result: %+v", got)
		}
	})

	t.Run("self review rejected", func(t *testing.T) {
		store, id := base(StatusSubmitted)
		if _, err := NewService(store).Review(context.Background(), id, "emp-1", StatusApproved, "", testNow); err == nil {
			t.Fatal("expected a self-review to fail")
		}
	})

	t.Run("not submitted", func(t *testing.T) {
		store, id := base(StatusDraft)
		if _, err := NewService(store).Review(context.Background(), id, "mgr-1", StatusApproved, "", testNow); err == nil {
			t.Fatal("expected reviewing a draft to fail")
		}
	})

	t.Run("bad decision", func(t *testing.T) {
		store, id := base(StatusSubmitted)
		if _, err := NewService(store).Review(context.Background(), id, "mgr-1", "MAYBE", "", testNow); err == nil {
			t.Fatal("expected an invalid decision to fail")
		}
	})
}

func TestGetVisibility(t *testing.T) {
	store := newFakeStore()
	store.managers["emp-1"] = "mgr-1"
	ts := store.add(&Timesheet{EmployeeID: "emp-1", WeekStart: MondayOf(testNow), Status: StatusDraft})
	svc := NewService(store)

	tests := []struct {
		name    string
		caller  string
		perms   auth.PermissionSet
		wantErr error
	}{
		{"owner", "emp-1", nil, nil},
		{"manager", "mgr-1", nil, nil},
		{"hr with read all", "hr-1", auth.NewPermissionSet(auth.PermTimesheetReadAll), nil},
		{"unrelated employee", "emp-9", nil, ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Get(context.Background(), ts.ID, tc.caller, tc.perms)
			if err != tc.wantErr {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}

	if _, err := svc.Get(context.Background(), "missing", "emp-1", nil); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCurrentWeekNilWhenAbsent(t *testing.T) {
	svc := NewService(newFakeStore())
	ts, err := svc.CurrentWeek(context.Background(), "emp-1", testNow)
	if err != nil {
		t.Fatalf("current week: %v", err)
	}
	if ts != nil {
		t.Fatalf("expected nil, got %+v", ts)
	}
}
