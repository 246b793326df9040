package project

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const clientColumns = `
	id, name, COALESCE(contact_name, ''), COALESCE(contact_email, ''),
	COALESCE(notes, ''), active, created_at`

func (s *Store) ClientByID(ctx context.Context, id string) (*Client, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	return scanClient(row)
}

func (s *Store) ListClients(ctx context.Context, includeInactive bool) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	if !includeInactive {
		query += ` WHERE active`
	}
	rows, err := s.DB.Query(ctx, query+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) CreateClient(ctx context.Context, c Client) (*Client, error) {
	var id string
	err := s.DB.QueryRow(ctx,
		`INSERT INTO clients (name, contact_name, contact_email, notes, active)
		 VALUES ($1, $2, $3, $4, true)
		 RETURNING id`,
		c.Name, c.ContactName, c.ContactEmail, c.Notes).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.ClientByID(ctx, id)
}

func (s *Store) UpdateClient(ctx context.Context, c Client) (*Client, error) {
	tag, err := s.DB.Exec(ctx,
		`UPDATE clients
		 SET name = $2, contact_name = $3, contact_email = $4, notes = $5, updated_at = now()
		 WHERE id = $1`,
		c.ID, c.Name, c.ContactName, c.ContactEmail, c.Notes)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.ClientByID(ctx, c.ID)
}

func (s *Store) DeactivateClient(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx,
		`UPDATE clients SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const projectColumns = `
	p.id, COALESCE(p.client_id::text, ''), COALESCE(c.name, ''),
	p.name, COALESCE(p.code, ''), COALESCE(p.description, ''), p.status,
	p.start_date, p.end_date, p.created_at`

const projectFrom = `
	FROM projects p
	LEFT JOIN clients c ON c.id = p.client_id`

func (s *Store) ProjectByID(ctx context.Context, id string) (*Project, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+projectColumns+projectFrom+` WHERE p.id = $1`, id)
	return scanProject(row)
}

func (s *Store) ListProjects(ctx context.Context, status string) ([]Project, error) {
	query := `SELECT ` + projectColumns + projectFrom
	args := []any{}
	if status != "" {
		query += ` WHERE p.status = $1`
		args = append(args, status)
	}
	rows, err := s.DB.Query(ctx, query+` ORDER BY p.name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

func (s *Store) ListProjectsForEmployee(ctx context.Context, employeeID string) ([]Project, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+projectColumns+projectFrom+`
		 JOIN project_assignments pa ON pa.project_id = p.id
		 WHERE pa.employee_id = $1 AND p.status = $2
		 ORDER BY p.name`, employeeID, ProjectActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

func (s *Store) CreateProject(ctx context.Context, p Project) (*Project, error) {
	var id string
	err := s.DB.QueryRow(ctx,
		`INSERT INTO projects (client_id, name, code, description, status, start_date, end_date)
		 VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.ClientID, p.Name, p.Code, p.Description, p.Status, p.StartDate, p.EndDate).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.ProjectByID(ctx, id)
}

func (s *Store) UpdateProject(ctx context.Context, p Project) (*Project, error) {
	tag, err := s.DB.Exec(ctx,
		`UPDATE projects
		 SET client_id = NULLIF($2, '')::uuid, name = $3, code = $4, description = $5,
		     status = $6, start_date = $7, end_date = $8, updated_at = now()
		 WHERE id = $1`,
		p.ID, p.ClientID, p.Name, p.Code, p.Description, p.Status, p.StartDate, p.EndDate)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.ProjectByID(ctx, p.ID)
}

func (s *Store) ListAssignments(ctx context.Context, projectID string) ([]Assignment, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT pa.id, pa.project_id, pa.employee_id,
		        e.first_name || ' ' || e.last_name, COALESCE(pa.role, ''), pa.assigned_at
		 FROM project_assignments pa
		 JOIN employees e ON e.id = pa.employee_id
		 WHERE pa.project_id = $1
		 ORDER BY e.last_name`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.EmployeeID, &a.EmployeeName, &a.Role, &a.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) Assign(ctx context.Context, projectID, employeeID, role string) (*Assignment, error) {
	var a Assignment
	err := s.DB.QueryRow(ctx,
		`INSERT INTO project_assignments (project_id, employee_id, role)
		 VALUES ($1, $2, NULLIF($3, ''))
		 ON CONFLICT (project_id, employee_id) DO UPDATE SET role = NULLIF($3, '')
		 RETURNING id, project_id, employee_id, COALESCE(role, ''), assigned_at`,
		projectID, employeeID, role).
		Scan(&a.ID, &a.ProjectID, &a.EmployeeID, &a.Role, &a.AssignedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) Unassign(ctx context.Context, projectID, employeeID string) error {
	tag, err := s.DB.Exec(ctx,
		`DELETE FROM project_assignments WHERE project_id = $1 AND employee_id = $2`,
		projectID, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) IsAssigned(ctx context.Context, projectID, employeeID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM project_assignments WHERE project_id = $1 AND employee_id = $2)`,
		projectID, employeeID).Scan(&exists)
	return exists, err
}

const timeLogColumns = `
	l.id, l.project_id, p.name, l.employee_id,
	e.first_name || ' ' || e.last_name,
	l.log_date, l.hours, COALESCE(l.note, ''), l.created_at`

const timeLogFrom = `
	FROM project_time_logs l
	JOIN projects p ON p.id = l.project_id
	JOIN employees e ON e.id = l.employee_id`

func (s *Store) CreateTimeLog(ctx context.Context, l TimeLog) (*TimeLog, error) {
	var id string
	err := s.DB.QueryRow(ctx,
		`INSERT INTO project_time_logs (project_id, employee_id, log_date, hours, note)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		l.ProjectID, l.EmployeeID, l.LogDate, l.Hours, l.Note).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.TimeLogByID(ctx, id)
}

func (s *Store) DeleteTimeLog(ctx context.Context, id, employeeID string) error {
	tag, err := s.DB.Exec(ctx,
		`DELETE FROM project_time_logs WHERE id = $1 AND employee_id = $2`, id, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) TimeLogByID(ctx context.Context, id string) (*TimeLog, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+timeLogColumns+timeLogFrom+` WHERE l.id = $1`, id)
	return scanTimeLog(row)
}

func (s *Store) ListTimeLogs(ctx context.Context, projectID string, start, end time.Time) ([]TimeLog, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+timeLogColumns+timeLogFrom+`
		 WHERE l.project_id = $1 AND l.log_date BETWEEN $2 AND $3
		 ORDER BY l.log_date DESC`, projectID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTimeLogs(rows)
}

func (s *Store) ListTimeLogsByEmployee(ctx context.Context, employeeID string, start, end time.Time) ([]TimeLog, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+timeLogColumns+timeLogFrom+`
		 WHERE l.employee_id = $1 AND l.log_date BETWEEN $2 AND $3
		 ORDER BY l.log_date DESC`, employeeID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTimeLogs(rows)
}

func (s *Store) HoursByProject(ctx context.Context, start, end time.Time) ([]ProjectHours, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT l.project_id, p.name, sum(l.hours)
		 FROM project_time_logs l
		 JOIN projects p ON p.id = l.project_id
		 WHERE l.log_date BETWEEN $1 AND $2
		 GROUP BY l.project_id, p.name
		 ORDER BY sum(l.hours) DESC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectHours
	for rows.Next() {
		var h ProjectHours
		if err := rows.Scan(&h.ProjectID, &h.ProjectName, &h.TotalHours); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) HoursOnDate(ctx context.Context, employeeID string, date time.Time) (float64, error) {
	var total float64
	err := s.DB.QueryRow(ctx,
		`SELECT COALESCE(sum(hours), 0) FROM project_time_logs
		 WHERE employee_id = $1 AND log_date = $2`, employeeID, date).Scan(&total)
	return total, err
}

func collectProjects(rows pgx.Rows) ([]Project, error) {
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func collectTimeLogs(rows pgx.Rows) ([]TimeLog, error) {
	var out []TimeLog
	for rows.Next() {
		l, err := scanTimeLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.ContactName, &c.ContactEmail, &c.Notes, &c.Active, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.ClientID, &p.ClientName, &p.Name, &p.Code, &p.Description,
		&p.Status, &p.StartDate, &p.EndDate, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanTimeLog(row pgx.Row) (*TimeLog, error) {
	var l TimeLog
	err := row.Scan(&l.ID, &l.ProjectID, &l.ProjectName, &l.EmployeeID, &l.EmployeeName,
		&l.LogDate, &l.Hours, &l.Note, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}
