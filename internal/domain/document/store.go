package document

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

const documentColumns = `
	d.id, d.owner_id, e.first_name || ' ' || e.last_name,
	d.title, d.file_name, d.content_type, d.size,
	COALESCE(d.category, ''), d.created_at`

const documentFrom = `
	FROM documents d
	JOIN employees e ON e.id = d.owner_id`

func (s *Store) ByID(ctx context.Context, id string) (*Document, string, error) {
	var d Document
	var path string
	err := s.DB.QueryRow(ctx,
		`SELECT `+documentColumns+`, d.storage_path`+documentFrom+` WHERE d.id = $1`, id).
		Scan(&d.ID, &d.OwnerID, &d.OwnerName, &d.Title, &d.FileName, &d.ContentType,
			&d.Size, &d.Category, &d.CreatedAt, &path)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &d, path, nil
}

func (s *Store) Create(ctx context.Context, d Document, path string) (*Document, error) {
	var id string
	err := s.DB.QueryRow(ctx,
		`INSERT INTO documents (owner_id, title, file_name, content_type, size, category, storage_path)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		 RETURNING id`,
		d.OwnerID, d.Title, d.FileName, d.ContentType, d.Size, d.Category, path).Scan(&id)
	if err != nil {
		return nil, err
	}
	doc, _, err := s.ByID(ctx, id)
	return doc, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListOwned(ctx context.Context, ownerID string) ([]Document, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+documentFrom+`
		 WHERE d.owner_id = $1 ORDER BY d.created_at DESC`, ownerID)
}

func (s *Store) ListSharedWith(ctx context.Context, employeeID string) ([]Document, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+documentFrom+`
		 JOIN document_shares ds ON ds.document_id = d.id
		 WHERE ds.employee_id = $1 ORDER BY ds.shared_at DESC`, employeeID)
}

func (s *Store) ListAll(ctx context.Context, limit, offset int) ([]Document, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := s.queryDocuments(ctx,
		`SELECT `+documentColumns+documentFrom+`
		 ORDER BY d.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) CreateShare(ctx context.Context, documentID, employeeID, sharedBy string) (*Share, error) {
	var sh Share
	err := s.DB.QueryRow(ctx,
		`INSERT INTO document_shares (document_id, employee_id, shared_by)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (document_id, employee_id) DO UPDATE SET shared_by = EXCLUDED.shared_by
		 RETURNING id, document_id, employee_id, shared_by, shared_at, viewed_at`,
		documentID, employeeID, sharedBy).
		Scan(&sh.ID, &sh.DocumentID, &sh.EmployeeID, &sh.SharedBy, &sh.SharedAt, &sh.ViewedAt)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *Store) ListShares(ctx context.Context, documentID string) ([]Share, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT ds.id, ds.document_id, ds.employee_id,
		        e.first_name || ' ' || e.last_name, ds.shared_by, ds.shared_at, ds.viewed_at
		 FROM document_shares ds
		 JOIN employees e ON e.id = ds.employee_id
		 WHERE ds.document_id = $1
		 ORDER BY ds.shared_at`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Share
	for rows.Next() {
		var sh Share
		if err := rows.Scan(&sh.ID, &sh.DocumentID, &sh.EmployeeID, &sh.EmployeeName, &sh.SharedBy, &sh.SharedAt, &sh.ViewedAt); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *Store) MarkShareViewed(ctx context.Context, documentID, employeeID string) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE document_shares SET viewed_at = now()
		 WHERE document_id = $1 AND employee_id = $2 AND viewed_at IS NULL`,
		documentID, employeeID)
	return err
}

func (s *Store) IsSharedWith(ctx context.Context, documentID, employeeID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM document_shares WHERE document_id = $1 AND employee_id = $2)`,
		documentID, employeeID).Scan(&exists)
	return exists, err
}

const signatureColumns = `
	sr.id, sr.document_id, d.title, sr.employee_id,
	e.first_name || ' ' || e.last_name, sr.requested_by, sr.status,
	sr.deadline, COALESCE(sr.decline_note, ''), COALESCE(sr.signature_data, ''),
	COALESCE(sr.signed_ip, ''), COALESCE(sr.signed_user_agent, ''),
	sr.resolved_at, sr.created_at`

const signatureFrom = `
	FROM signature_requests sr
	JOIN documents d ON d.id = sr.document_id
	JOIN employees e ON e.id = sr.employee_id`

func (s *Store) CreateSignatureRequest(ctx context.Context, r SignatureRequest) (*SignatureRequest, error) {
	var id string
	err := s.DB.QueryRow(ctx,
		`INSERT INTO signature_requests (document_id, employee_id, requested_by, status, deadline)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		r.DocumentID, r.EmployeeID, r.RequestedBy, SignaturePending, r.Deadline).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.SignatureRequestByID(ctx, id)
}

func (s *Store) SignatureRequestByID(ctx context.Context, id string) (*SignatureRequest, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+signatureColumns+signatureFrom+` WHERE sr.id = $1`, id)
	return scanSignature(row)
}

func (s *Store) ResolveSignatureRequest(ctx context.Context, id string, res Resolution, at time.Time) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE signature_requests
		 SET status = $2, decline_note = NULLIF($3, ''), signature_data = NULLIF($4, ''),
		     signed_ip = NULLIF($5, ''), signed_user_agent = NULLIF($6, ''), resolved_at = $7
		 WHERE id = $1`, id, res.Decision, res.Note, res.Signature, res.ClientIP, res.UserAgent, at)
	return err
}

func (s *Store) ListSignatureRequestsFor(ctx context.Context, employeeID string) ([]SignatureRequest, error) {
	return s.querySignatures(ctx,
		`SELECT `+signatureColumns+signatureFrom+`
		 WHERE sr.employee_id = $1 ORDER BY sr.created_at DESC`, employeeID)
}

func (s *Store) ListSignatureRequestsByDocument(ctx context.Context, documentID string) ([]SignatureRequest, error) {
	return s.querySignatures(ctx,
		`SELECT `+signatureColumns+signatureFrom+`
		 WHERE sr.document_id = $1 ORDER BY sr.created_at DESC`, documentID)
}

func (s *Store) ListPendingSignaturesDueBy(ctx context.Context, deadline time.Time) ([]SignatureRequest, error) {
	return s.querySignatures(ctx,
		`SELECT `+signatureColumns+signatureFrom+`
		 WHERE sr.status = $1 AND sr.deadline IS NOT NULL AND sr.deadline <= $2
		 ORDER BY sr.deadline`, SignaturePending, deadline)
}

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.OwnerName, &d.Title, &d.FileName,
			&d.ContentType, &d.Size, &d.Category, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) querySignatures(ctx context.Context, query string, args ...any) ([]SignatureRequest, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignatureRequest
	for rows.Next() {
		r, err := scanSignature(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanSignature(row pgx.Row) (*SignatureRequest, error) {
	var r SignatureRequest
	err := row.Scan(&r.ID, &r.DocumentID, &r.Title, &r.EmployeeID, &r.EmployeeName,
		&r.RequestedBy, &r.Status, &r.Deadline, &r.DeclineNote, &r.Signature,
		&r.SignedIP, &r.SignedAgent, &r.ResolvedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
