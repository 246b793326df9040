package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bonarda/internal/transport/http/api"
)

var ErrIdempotencyConflict = errors.New("idempotency key reused with a different payload")

// IdempotencyRecorder persists one response per (employee, endpoint, key)
// so retried mutations replay instead of re-executing.
type IdempotencyRecorder interface {
	Check(ctx context.Context, employeeID, endpoint, key, requestHash string) (int, json.RawMessage, bool, error)
	Save(ctx context.Context, employeeID, endpoint, key, requestHash string, status int, response json.RawMessage) error
}

type IdempotencyStore struct {
	db *pgxpool.Pool
}

func NewIdempotencyStore(db *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func requestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) Check(ctx context.Context, employeeID, endpoint, key, hash string) (int, json.RawMessage, bool, error) {
	if s == nil || s.db == nil {
		return 0, nil, false, nil
	}
	var storedHash string
	var status int
	var stored json.RawMessage
	err := s.db.QueryRow(ctx, `
	  SELECT request_hash, status_code, response_json
	  FROM idempotency_keys
	  WHERE employee_id = $1 AND endpoint = $2 AND key = $3
	`, employeeID, endpoint, key).Scan(&storedHash, &status, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, err
	}
	if storedHash != hash {
		return 0, nil, false, ErrIdempotencyConflict
	}
	return status, stored, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, employeeID, endpoint, key, hash string, status int, response json.RawMessage) error {
	if s == nil || s.db == nil {
		return nil
	}
	tag, err := s.db.Exec(ctx, `
	  INSERT INTO idempotency_keys (employee_id, endpoint, key, request_hash, status_code, response_json)
	  VALUES ($1, $2, $3, $4, $5, $6)
	  ON CONFLICT (employee_id, endpoint, key)
	  DO UPDATE SET status_code = EXCLUDED.status_code, response_json = EXCLUDED.response_json
	  WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
	`, employeeID, endpoint, key, hash, status, response)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

type responseCapture struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(p []byte) (int, error) {
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

// Idempotency replays the stored response for a POST that carries a
// previously seen Idempotency-Key from the same employee. Reusing a key
// with a different payload is a conflict. Requests without the header, or
// from anonymous callers, pass through untouched.
func Idempotency(store IdempotencyRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if store == nil || key == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			user, ok := GetUser(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			payload, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read request body", GetRequestID(r.Context()))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(payload))
			hash := requestHash(payload)

			status, stored, hit, err := store.Check(r.Context(), user.EmployeeID, r.URL.Path, key, hash)
			if errors.Is(err, ErrIdempotencyConflict) {
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "this idempotency key was already used with a different payload", GetRequestID(r.Context()))
				return
			}
			if err == nil && hit {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write(stored)
				return
			}

			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)
			if capture.status < http.StatusInternalServerError {
				_ = store.Save(r.Context(), user.EmployeeID, r.URL.Path, key, hash, capture.status, capture.body.Bytes())
			}
		})
	}
}
