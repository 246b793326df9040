package event

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	KindCompany  = "COMPANY"
	KindHoliday  = "HOLIDAY"
	KindTraining = "TRAINING"
	KindSocial   = "SOCIAL"
)

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Kind        string    `json:"kind"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("event not found")

// RuleError is a business-rule rejection surfaced verbatim to the caller.
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func ruleErr(message string) error {
	return &RuleError{Message: message}
}

type StoreAPI interface {
	ByID(ctx context.Context, id string) (*Event, error)
	Create(ctx context.Context, e Event) (*Event, error)
	Update(ctx context.Context, e Event) (*Event, error)
	Delete(ctx context.Context, id string) error
	ListInRange(ctx context.Context, start, end time.Time) ([]Event, error)
	ListUpcoming(ctx context.Context, from time.Time, limit int) ([]Event, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const eventColumns = `
	id, title, COALESCE(description, ''), kind, COALESCE(location, ''),
	starts_at, ends_at, created_by, created_at`

func (s *Store) ByID(ctx context.Context, id string) (*Event, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func (s *Store) Create(ctx context.Context, e Event) (*Event, error) {
	var id string
	err := s.DB.QueryRow(ctx,
		`INSERT INTO events (title, description, kind, location, starts_at, ends_at, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		e.Title, e.Description, e.Kind, e.Location, e.StartsAt, e.EndsAt, e.CreatedBy).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.ByID(ctx, id)
}

func (s *Store) Update(ctx context.Context, e Event) (*Event, error) {
	tag, err := s.DB.Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, kind = $4, location = $5,
		     starts_at = $6, ends_at = $7, updated_at = now()
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Kind, e.Location, e.StartsAt, e.EndsAt)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.ByID(ctx, e.ID)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListInRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE starts_at <= $2 AND ends_at >= $1
		 ORDER BY starts_at`, start, end)
}

func (s *Store) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]Event, error) {
	return s.query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE ends_at >= $1
		 ORDER BY starts_at LIMIT $2`, from, limit)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Kind, &e.Location,
		&e.StartsAt, &e.EndsAt, &e.CreatedBy, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) Create(ctx context.Context, e Event) (*Event, error) {
	if err := validate(&e); err != nil {
		return nil, err
	}
	return s.Store.Create(ctx, e)
}

func (s *Service) Update(ctx context.Context, e Event) (*Event, error) {
	if err := validate(&e); err != nil {
		return nil, err
	}
	return s.Store.Update(ctx, e)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	e, err := s.Store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Service) InRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.Store.ListInRange(ctx, start, end)
}

func (s *Service) Upcoming(ctx context.Context, from time.Time, limit int) ([]Event, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.Store.ListUpcoming(ctx, from, limit)
}

func validate(e *Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return ruleErr("event title is required")
	}
	switch e.Kind {
	case "":
		e.Kind = KindCompany
	case KindCompany, KindHoliday, KindTraining, KindSocial:
	default:
		return ruleErr("event kind must be COMPANY, HOLIDAY, TRAINING or SOCIAL")
	}
	if e.EndsAt.Before(e.StartsAt) {
		return ruleErr("event cannot end before it starts")
	}
	return nil
}
