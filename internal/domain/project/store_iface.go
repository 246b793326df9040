package project

import (
	"context"
	"time"
)

type StoreAPI interface {
	// Clients.
	ClientByID(ctx context.Context, id string) (*Client, error)
	ListClients(ctx context.Context, includeInactive bool) ([]Client, error)
	CreateClient(ctx context.Context, c Client) (*Client, error)
	UpdateClient(ctx context.Context, c Client) (*Client, error)
	DeactivateClient(ctx context.Context, id string) error

	// Projects.
	ProjectByID(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context, status string) ([]Project, error)
	ListProjectsForEmployee(ctx context.Context, employeeID string) ([]Project, error)
	CreateProject(ctx context.Context, p Project) (*Project, error)
	UpdateProject(ctx context.Context, p Project) (*Project, error)

	// Assignments.
	ListAssignments(ctx context.Context, projectID string) ([]Assignment, error)
	Assign(ctx context.Context, projectID, employeeID, role string) (*Assignment, error)
	Unassign(ctx context.Context, projectID, employeeID string) error
	IsAssigned(ctx context.Context, projectID, employeeID string) (bool, error)

	// Time logs.
	CreateTimeLog(ctx context.Context, l TimeLog) (*TimeLog, error)
	DeleteTimeLog(ctx context.Context, id, employeeID string) error
	TimeLogByID(ctx context.Context, id string) (*TimeLog, error)
	ListTimeLogs(ctx context.Context, projectID string, start, end time.Time) ([]TimeLog, error)
	ListTimeLogsByEmployee(ctx context.Context, employeeID string, start, end time.Time) ([]TimeLog, error)
	HoursByProject(ctx context.Context, start, end time.Time) ([]ProjectHours, error)
	HoursOnDate(ctx context.Context, employeeID string, date time.Time) (float64, error)
}
