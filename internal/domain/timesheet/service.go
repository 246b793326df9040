package timesheet

import (
	"context"
	"fmt"
	"time"

	"bonarda/internal/domain/auth"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

// GetOrCreate returns the employee's timesheet for the given week, creating
// an empty draft when none exists. The week start must be a Monday inside the
// edit window.
func (s *Service) GetOrCreate(ctx context.Context, employeeID string, weekStart, now time.Time) (*Timesheet, error) {
	if weekStart.Weekday() != time.Monday {
		return nil, ruleErr("week start date must be a Monday")
	}
	if !IsWithinEditWindow(weekStart, now) {
		return nil, ruleErr(fmt.Sprintf("cannot edit timesheets older than %d weeks", MaxEditWeeksAgo))
	}

	existing, err := s.Store.ByEmployeeAndWeek(ctx, employeeID, weekStart)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.Store.Create(ctx, employeeID, weekStart)
}

// UpdateEntries replaces the week's entries wholesale. Hours are recomputed
// from the clock pairs; editing a rejected timesheet resets it to draft.
func (s *Service) UpdateEntries(ctx context.Context, timesheetID, employeeID string, inputs []EntryInput, now time.Time) (*Timesheet, error) {
	ts, err := s.Store.ByID(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, ErrNotFound
	}
	if ts.EmployeeID != employeeID {
		return nil, ruleErr("you can only update your own timesheets")
	}
	if ts.Status != StatusDraft && ts.Status != StatusRejected {
		return nil, ruleErr("only DRAFT or REJECTED timesheets can be edited")
	}
	if !IsWithinEditWindow(ts.WeekStart, now) {
		return nil, ruleErr(fmt.Sprintf("cannot edit timesheets older than %d weeks", MaxEditWeeksAgo))
	}

	weekEnd := ts.WeekStart.AddDate(0, 0, 6)
	entries := make([]Entry, 0, len(inputs))
	for _, input := range inputs {
		if input.EntryDate.Before(ts.WeekStart) || input.EntryDate.After(weekEnd) {
			return nil, ruleErr(fmt.Sprintf("entry date %s is outside the timesheet week", input.EntryDate.Format("2006-01-02")))
		}
		entries = append(entries, Entry{
			EntryDate: input.EntryDate,
			ClockIn:   input.ClockIn,
			ClockOut:  input.ClockOut,
			Hours:     HoursBetween(input.ClockIn, input.ClockOut),
		})
	}

	if err := s.Store.ReplaceEntries(ctx, timesheetID, entries, SumHours(entries)); err != nil {
		return nil, err
	}
	if ts.Status == StatusRejected {
		if err := s.Store.SetStatus(ctx, timesheetID, StatusDraft); err != nil {
			return nil, err
		}
	}
	return s.Store.ByID(ctx, timesheetID)
}

// ClockIn stamps the current time onto today's entry of the current week's
// timesheet, creating both as needed.
func (s *Service) ClockIn(ctx context.Context, employeeID string, now time.Time) (*Timesheet, error) {
	ts, err := s.currentWeekSheet(ctx, employeeID, now, true)
	if err != nil {
		return nil, err
	}
	if ts.Status != StatusDraft && ts.Status != StatusRejected {
		return nil, ruleErr("cannot clock in: this week's timesheet has already been " + lowered(ts.Status))
	}

	today := dateOnly(now)
	entry := findEntry(ts.Entries, today)
	if entry != nil && entry.ClockIn != "" {
		return nil, ruleErr("you have already clocked in today")
	}

	updated := Entry{EntryDate: today, ClockIn: now.Format("15:04")}
	if entry != nil {
		updated.ClockOut = entry.ClockOut
		updated.Hours = entry.Hours
	}
	if err := s.Store.UpsertEntry(ctx, ts.ID, updated); err != nil {
		return nil, err
	}
	return s.refreshTotal(ctx, ts.ID)
}

// ClockOut closes today's entry and derives the worked hours from the pair.
func (s *Service) ClockOut(ctx context.Context, employeeID string, now time.Time) (*Timesheet, error) {
	ts, err := s.currentWeekSheet(ctx, employeeID, now, false)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, ruleErr("no timesheet found for this week; clock in first")
	}

	entry := findEntry(ts.Entries, dateOnly(now))
	if entry == nil || entry.ClockIn == "" {
		return nil, ruleErr("you have not clocked in today")
	}
	if entry.ClockOut != "" {
		return nil, ruleErr("you have already clocked out today")
	}

	clockOut := now.Format("15:04")
	updated := *entry
	updated.ClockOut = clockOut
	updated.Hours = HoursBetween(entry.ClockIn, clockOut)
	if err := s.Store.UpsertEntry(ctx, ts.ID, updated); err != nil {
		return nil, err
	}
	return s.refreshTotal(ctx, ts.ID)
}

// Submit moves a draft or rejected timesheet into review, clearing any prior
// review outcome.
func (s *Service) Submit(ctx context.Context, timesheetID, employeeID string, now time.Time) (*Timesheet, error) {
	ts, err := s.Store.ByID(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, ErrNotFound
	}
	if ts.EmployeeID != employeeID {
		return nil, ruleErr("you can only submit your own timesheets")
	}
	if ts.Status != StatusDraft && ts.Status != StatusRejected {
		return nil, ruleErr("only DRAFT or REJECTED timesheets can be submitted")
	}
	if !IsWithinEditWindow(ts.WeekStart, now) {
		return nil, ruleErr(fmt.Sprintf("cannot edit timesheets older than %d weeks", MaxEditWeeksAgo))
	}
	if len(ts.Entries) == 0 {
		return nil, ruleErr("cannot submit a timesheet with no entries")
	}

	if err := s.Store.MarkSubmitted(ctx, timesheetID, now); err != nil {
		return nil, err
	}
	return s.Store.ByID(ctx, timesheetID)
}

// Review records an approve/reject decision by someone other than the owner.
func (s *Service) Review(ctx context.Context, timesheetID, reviewerID, decision, note string, now time.Time) (*Timesheet, error) {
	ts, err := s.Store.ByID(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, ErrNotFound
	}
	if ts.Status != StatusSubmitted {
		return nil, ruleErr("only submitted timesheets can be reviewed")
	}
	if ts.EmployeeID == reviewerID {
		return nil, ruleErr("you cannot review your own timesheet")
	}
	if decision != StatusApproved && decision != StatusRejected {
		return nil, ruleErr("decision must be APPROVED or REJECTED")
	}

	if err := s.Store.MarkReviewed(ctx, timesheetID, reviewerID, decision, note, now); err != nil {
		return nil, err
	}
	return s.Store.ByID(ctx, timesheetID)
}

func (s *Service) Mine(ctx context.Context, employeeID string) ([]Timesheet, error) {
	return s.Store.ListByEmployee(ctx, employeeID)
}

// CurrentWeek returns this week's timesheet, or nil when none exists yet.
func (s *Service) CurrentWeek(ctx context.Context, employeeID string, now time.Time) (*Timesheet, error) {
	return s.Store.ByEmployeeAndWeek(ctx, employeeID, MondayOf(now))
}

func (s *Service) Team(ctx context.Context, managerID string) ([]Timesheet, error) {
	return s.Store.ListTeam(ctx, managerID)
}

func (s *Service) All(ctx context.Context, limit, offset int) (ListResult, error) {
	return s.Store.ListAll(ctx, limit, offset)
}

// Get enforces visibility: the owner, the owner's manager, or a caller with
// the read-all grant.
func (s *Service) Get(ctx context.Context, timesheetID, callerID string, perms auth.PermissionSet) (*Timesheet, error) {
	ts, err := s.Store.ByID(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, ErrNotFound
	}
	if ts.EmployeeID == callerID || perms.Has(auth.PermTimesheetReadAll) {
		return ts, nil
	}
	isManager, err := s.Store.IsManagerOf(ctx, callerID, ts.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !isManager {
		return nil, ErrForbidden
	}
	return ts, nil
}

func (s *Service) currentWeekSheet(ctx context.Context, employeeID string, now time.Time, create bool) (*Timesheet, error) {
	weekStart := MondayOf(now)
	ts, err := s.Store.ByEmployeeAndWeek(ctx, employeeID, weekStart)
	if err != nil {
		return nil, err
	}
	if ts == nil && create {
		return s.Store.Create(ctx, employeeID, weekStart)
	}
	return ts, nil
}

func (s *Service) refreshTotal(ctx context.Context, timesheetID string) (*Timesheet, error) {
	ts, err := s.Store.ByID(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, ErrNotFound
	}
	total := SumHours(ts.Entries)
	if total != ts.TotalHours {
		if err := s.Store.UpdateTotal(ctx, timesheetID, total); err != nil {
			return nil, err
		}
		ts.TotalHours = total
	}
	return ts, nil
}

func findEntry(entries []Entry, day time.Time) *Entry {
	for i := range entries {
		if entries[i].EntryDate.Equal(day) {
			return &entries[i]
		}
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func lowered(status string) string {
	switch status {
	case StatusSubmitted:
		return "submitted"
	case StatusApproved:
		return "approved"
	default:
		return status
	}
}
