package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bonarda/internal/platform/requestctx"
)

type Event struct {
	ID        string          `json:"id"`
	ActorID   string          `json:"actorId"`
	ActorName string          `json:"actorName,omitempty"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entityId,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	ClientIP  string          `json:"clientIp,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Service struct {
	DB     *pgxpool.Pool
	Logger *slog.Logger
}

func NewService(db *pgxpool.Pool, logger *slog.Logger) *Service {
	return &Service{DB: db, Logger: logger}
}

// Record writes an audit row. Audit failures are logged, never propagated:
// the action itself already happened.
func (s *Service) Record(ctx context.Context, actorID, action, entity, entityID string, detail any) {
	var raw []byte
	if detail != nil {
		var err error
		raw, err = json.Marshal(detail)
		if err != nil {
			s.Logger.Error("audit detail not serializable", "action", action, "error", err)
			raw = nil
		}
	}
	_, err := s.DB.Exec(ctx,
		`INSERT INTO audit_events (actor_id, action, entity, entity_id, detail, request_id, client_ip)
		 VALUES (NULLIF($1, '')::uuid, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''))`,
		actorID, action, entity, entityID, raw,
		requestctx.GetRequestID(ctx), requestctx.GetClientIP(ctx))
	if err != nil {
		s.Logger.Error("failed to record audit event", "action", action, "error", err)
	}
}

// List returns recent events, optionally filtered by entity.
func (s *Service) List(ctx context.Context, entity string, limit, offset int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT a.id, COALESCE(a.actor_id::text, ''),
	                 COALESCE(e.first_name || ' ' || e.last_name, 'system'),
	                 a.action, a.entity, COALESCE(a.entity_id, ''), a.detail,
	                 COALESCE(a.request_id, ''), COALESCE(a.client_ip, ''), a.created_at
	          FROM audit_events a
	          LEFT JOIN employees e ON e.id = a.actor_id`
	args := []any{limit, offset}
	if entity != "" {
		query += ` WHERE a.entity = $3`
		args = append(args, entity)
	}
	rows, err := s.DB.Query(ctx, query+` ORDER BY a.created_at DESC LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.ActorID, &ev.ActorName, &ev.Action, &ev.Entity,
			&ev.EntityID, &ev.Detail, &ev.RequestID, &ev.ClientIP, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
