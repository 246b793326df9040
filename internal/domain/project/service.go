package project

import (
	"context"
	"strings"
	"time"
)

// maxDailyHours caps the total a single employee can book on one date across
// all projects.
const maxDailyHours = 24

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) CreateClient(ctx context.Context, c Client) (*Client, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, ruleErr("client name is required")
	}
	return s.Store.CreateClient(ctx, c)
}

func (s *Service) UpdateClient(ctx context.Context, c Client) (*Client, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, ruleErr("client name is required")
	}
	return s.Store.UpdateClient(ctx, c)
}

func (s *Service) ListClients(ctx context.Context, includeInactive bool) ([]Client, error) {
	return s.Store.ListClients(ctx, includeInactive)
}

func (s *Service) GetClient(ctx context.Context, id string) (*Client, error) {
	c, err := s.Store.ClientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Service) DeactivateClient(ctx context.Context, id string) error {
	return s.Store.DeactivateClient(ctx, id)
}

func (s *Service) CreateProject(ctx context.Context, p Project) (*Project, error) {
	if err := validateProject(&p); err != nil {
		return nil, err
	}
	if p.ClientID != "" {
		client, err := s.Store.ClientByID(ctx, p.ClientID)
		if err != nil {
			return nil, err
		}
		if client == nil || !client.Active {
			return nil, ruleErr("unknown or inactive client")
		}
	}
	if p.Status == "" {
		p.Status = ProjectActive
	}
	return s.Store.CreateProject(ctx, p)
}

func (s *Service) UpdateProject(ctx context.Context, p Project) (*Project, error) {
	if err := validateProject(&p); err != nil {
		return nil, err
	}
	return s.Store.UpdateProject(ctx, p)
}

func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	p, err := s.Store.ProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListProjects(ctx context.Context, status string) ([]Project, error) {
	return s.Store.ListProjects(ctx, status)
}

func (s *Service) MyProjects(ctx context.Context, employeeID string) ([]Project, error) {
	return s.Store.ListProjectsForEmployee(ctx, employeeID)
}

func (s *Service) Assignments(ctx context.Context, projectID string) ([]Assignment, error) {
	return s.Store.ListAssignments(ctx, projectID)
}

func (s *Service) Assign(ctx context.Context, projectID, employeeID, role string) (*Assignment, error) {
	p, err := s.Store.ProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.Status == ProjectArchived {
		return nil, ruleErr("cannot assign to an archived project")
	}
	return s.Store.Assign(ctx, projectID, employeeID, role)
}

func (s *Service) Unassign(ctx context.Context, projectID, employeeID string) error {
	return s.Store.Unassign(ctx, projectID, employeeID)
}

// LogTime books hours for the caller against a project. The caller must be
// assigned, hours must fit in (0, 24], and the day's total across all
// projects cannot exceed 24.
func (s *Service) LogTime(ctx context.Context, employeeID string, input TimeLogInput) (*TimeLog, error) {
	if input.Hours <= 0 || input.Hours > maxDailyHours {
		return nil, ruleErr("hours must be greater than 0 and at most 24")
	}
	p, err := s.Store.ProjectByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.Status != ProjectActive {
		return nil, ruleErr("time can only be logged against active projects")
	}
	assigned, err := s.Store.IsAssigned(ctx, input.ProjectID, employeeID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, ruleErr("you are not assigned to this project")
	}

	booked, err := s.Store.HoursOnDate(ctx, employeeID, input.LogDate)
	if err != nil {
		return nil, err
	}
	if booked+input.Hours > maxDailyHours {
		return nil, ruleErr("this entry would exceed 24 logged hours for the day")
	}

	return s.Store.CreateTimeLog(ctx, TimeLog{
		ProjectID:  input.ProjectID,
		EmployeeID: employeeID,
		LogDate:    input.LogDate,
		Hours:      input.Hours,
		Note:       input.Note,
	})
}

func (s *Service) DeleteTimeLog(ctx context.Context, id, employeeID string) error {
	return s.Store.DeleteTimeLog(ctx, id, employeeID)
}

func (s *Service) ProjectTimeLogs(ctx context.Context, projectID string, start, end time.Time) ([]TimeLog, error) {
	return s.Store.ListTimeLogs(ctx, projectID, start, end)
}

func (s *Service) MyTimeLogs(ctx context.Context, employeeID string, start, end time.Time) ([]TimeLog, error) {
	return s.Store.ListTimeLogsByEmployee(ctx, employeeID, start, end)
}

func (s *Service) HoursReport(ctx context.Context, start, end time.Time) ([]ProjectHours, error) {
	return s.Store.HoursByProject(ctx, start, end)
}

func validateProject(p *Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return ruleErr("project name is required")
	}
	switch p.Status {
	case "", ProjectActive, ProjectOnHold, ProjectCompleted, ProjectArchived:
	default:
		return ruleErr("invalid project status")
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return ruleErr("end date cannot be before start date")
	}
	return nil
}
