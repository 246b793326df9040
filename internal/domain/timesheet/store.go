package timesheet

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

const timesheetColumns = `
	t.id, t.employee_id, e.first_name || ' ' || e.last_name,
	t.week_start, t.status, t.total_hours,
	t.submitted_at, t.reviewer_id,
	COALESCE(r.first_name || ' ' || r.last_name, ''),
	COALESCE(t.review_note, ''), t.reviewed_at, t.created_at`

const timesheetFrom = `
	FROM timesheets t
	JOIN employees e ON e.id = t.employee_id
	LEFT JOIN employees r ON r.id = t.reviewer_id`

func (s *Store) ByID(ctx context.Context, id string) (*Timesheet, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+timesheetColumns+timesheetFrom+` WHERE t.id = $1`, id)
	ts, err := scanTimesheet(row)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, nil
	}
	if err := s.loadEntries(ctx, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *Store) ByEmployeeAndWeek(ctx context.Context, employeeID string, weekStart time.Time) (*Timesheet, error) {
	row := s.DB.QueryRow(ctx,
		`SELECT `+timesheetColumns+timesheetFrom+` WHERE t.employee_id = $1 AND t.week_start = $2`,
		employeeID, weekStart)
	ts, err := scanTimesheet(row)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, nil
	}
	if err := s.loadEntries(ctx, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *Store) Create(ctx context.Context, employeeID string, weekStart time.Time) (*Timesheet, error) {
	var id string
	err := s.DB.QueryRow(ctx,
		`INSERT INTO timesheets (employee_id, week_start, status, total_hours)
		 VALUES ($1, $2, $3, 0)
		 ON CONFLICT (employee_id, week_start) DO UPDATE SET week_start = EXCLUDED.week_start
		 RETURNING id`,
		employeeID, weekStart, StatusDraft).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.ByID(ctx, id)
}

func (s *Store) ReplaceEntries(ctx context.Context, id string, entries []Entry, total float64) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM timesheet_entries WHERE timesheet_id = $1`, id); err != nil {
		return err
	}
	for _, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO timesheet_entries (timesheet_id, entry_date, clock_in, clock_out, hours)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, e.EntryDate, e.ClockIn, e.ClockOut, e.Hours)
		if err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE timesheets SET total_hours = $2, updated_at = now() WHERE id = $1`, id, total); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) UpsertEntry(ctx context.Context, id string, entry Entry) error {
	_, err := s.DB.Exec(ctx,
		`INSERT INTO timesheet_entries (timesheet_id, entry_date, clock_in, clock_out, hours)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (timesheet_id, entry_date)
		 DO UPDATE SET clock_in = EXCLUDED.clock_in, clock_out = EXCLUDED.clock_out, hours = EXCLUDED.hours`,
		id, entry.EntryDate, entry.ClockIn, entry.ClockOut, entry.Hours)
	return err
}

func (s *Store) UpdateTotal(ctx context.Context, id string, total float64) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE timesheets SET total_hours = $2, updated_at = now() WHERE id = $1`, id, total)
	return err
}

func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE timesheets SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return err
}

func (s *Store) MarkSubmitted(ctx context.Context, id string, at time.Time) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE timesheets
		 SET status = $2, submitted_at = $3,
		     reviewer_id = NULL, review_note = NULL, reviewed_at = NULL,
		     updated_at = now()
		 WHERE id = $1`,
		id, StatusSubmitted, at)
	return err
}

func (s *Store) MarkReviewed(ctx context.Context, id, reviewerID, decision, note string, at time.Time) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE timesheets
		 SET status = $2, reviewer_id = $3, review_note = $4, reviewed_at = $5, updated_at = now()
		 WHERE id = $1`,
		id, decision, reviewerID, note, at)
	return err
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string) ([]Timesheet, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+timesheetColumns+timesheetFrom+`
		 WHERE t.employee_id = $1
		 ORDER BY t.week_start DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.collect(ctx, rows)
}

func (s *Store) ListTeam(ctx context.Context, managerID string) ([]Timesheet, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+timesheetColumns+timesheetFrom+`
		 WHERE e.reports_to = $1 AND t.status = $2
		 ORDER BY t.week_start DESC, e.last_name`, managerID, StatusSubmitted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.collect(ctx, rows)
}

func (s *Store) ListAll(ctx context.Context, limit, offset int) (ListResult, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM timesheets`).Scan(&total); err != nil {
		return ListResult{}, err
	}
	rows, err := s.DB.Query(ctx,
		`SELECT `+timesheetColumns+timesheetFrom+`
		 ORDER BY t.week_start DESC, e.last_name
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()
	items, err := s.collect(ctx, rows)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

func (s *Store) IsManagerOf(ctx context.Context, managerID, employeeID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1 AND reports_to = $2)`,
		employeeID, managerID).Scan(&exists)
	return exists, err
}

func (s *Store) loadEntries(ctx context.Context, ts *Timesheet) error {
	rows, err := s.DB.Query(ctx,
		`SELECT id, entry_date, clock_in, clock_out, hours
		 FROM timesheet_entries
		 WHERE timesheet_id = $1
		 ORDER BY entry_date`, ts.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EntryDate, &e.ClockIn, &e.ClockOut, &e.Hours); err != nil {
			return err
		}
		ts.Entries = append(ts.Entries, e)
	}
	return rows.Err()
}

func (s *Store) collect(ctx context.Context, rows pgx.Rows) ([]Timesheet, error) {
	var out []Timesheet
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.loadEntries(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanTimesheet(row pgx.Row) (*Timesheet, error) {
	var ts Timesheet
	var reviewerID *string
	err := row.Scan(
		&ts.ID, &ts.EmployeeID, &ts.EmployeeName,
		&ts.WeekStart, &ts.Status, &ts.TotalHours,
		&ts.SubmittedAt, &reviewerID, &ts.ReviewerName,
		&ts.ReviewNote, &ts.ReviewedAt, &ts.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if reviewerID != nil {
		ts.ReviewerID = *reviewerID
	}
	return &ts, nil
}
