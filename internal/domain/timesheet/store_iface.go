package timesheet

import (
	"context"
	"time"
)

type StoreAPI interface {
	ByID(ctx context.Context, id string) (*Timesheet, error)
	ByEmployeeAndWeek(ctx context.Context, employeeID string, weekStart time.Time) (*Timesheet, error)
	Create(ctx context.Context, employeeID string, weekStart time.Time) (*Timesheet, error)
	ReplaceEntries(ctx context.Context, timesheetID string, entries []Entry, total float64) error
	UpsertEntry(ctx context.Context, timesheetID string, entry Entry) error
	UpdateTotal(ctx context.Context, timesheetID string, total float64) error
	SetStatus(ctx context.Context, timesheetID, status string) error
	MarkSubmitted(ctx context.Context, timesheetID string, at time.Time) error
	MarkReviewed(ctx context.Context, timesheetID, reviewerID, status, note string, at time.Time) error
	ListByEmployee(ctx context.Context, employeeID string) ([]Timesheet, error)
	ListTeam(ctx context.Context, managerID string) ([]Timesheet, error)
	ListAll(ctx context.Context, limit, offset int) (ListResult, error)
	IsManagerOf(ctx context.Context, managerID, employeeID string) (bool, error)
}
