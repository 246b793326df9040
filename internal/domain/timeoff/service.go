package timeoff

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"bonarda/internal/domain/auth"
	"bonarda/internal/platform/crypto"
)

// CalendarSync pushes approved leave to an external calendar. Failures are
// logged, never surfaced to the requester.
type CalendarSync interface {
	SyncApproved(ctx context.Context, r Request) error
	RemoveCancelled(ctx context.Context, r Request) error
}

// Notifier is informed of request lifecycle transitions.
type Notifier interface {
	TimeOffSubmitted(ctx context.Context, r Request)
	TimeOffReviewed(ctx context.Context, r Request)
}

type Service struct {
	Store         StoreAPI
	Crypto        *crypto.Service
	AttachmentDir string
	Calendar      CalendarSync
	Notifier      Notifier
	Logger        *slog.Logger
}

const maxAttachmentSize = 10 << 20

func NewService(store StoreAPI, cryptoSvc *crypto.Service, attachmentDir string, logger *slog.Logger) *Service {
	return &Service{Store: store, Crypto: cryptoSvc, AttachmentDir: attachmentDir, Logger: logger}
}

// CreateType registers a new leave category.
func (s *Service) CreateType(ctx context.Context, t Type) (*Type, error) {
	if t.Name == "" {
		return nil, ruleErr("type name is required")
	}
	switch t.AttachmentRequirement {
	case AttachmentNever, AttachmentAlways, AttachmentConditional:
	case "":
		t.AttachmentRequirement = AttachmentNever
	default:
		return nil, ruleErr("attachment requirement must be NEVER, ALWAYS or CONDITIONAL")
	}
	if t.AttachmentRequirement == AttachmentConditional && t.AttachmentRequiredAfterDays < 0 {
		return nil, ruleErr("attachment threshold cannot be negative")
	}
	if t.DefaultAllocation < 0 || t.MaxCarryOver < 0 {
		return nil, ruleErr("allocations cannot be negative")
	}
	return s.Store.CreateType(ctx, t)
}

func (s *Service) UpdateType(ctx context.Context, t Type) (*Type, error) {
	existing, err := s.Store.TypeByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	switch t.AttachmentRequirement {
	case AttachmentNever, AttachmentAlways, AttachmentConditional:
	default:
		return nil, ruleErr("attachment requirement must be NEVER, ALWAYS or CONDITIONAL")
	}
	return s.Store.UpdateType(ctx, t)
}

func (s *Service) ListTypes(ctx context.Context, includeInactive bool) ([]Type, error) {
	return s.Store.ListTypes(ctx, includeInactive)
}

// DeactivateType retires a category without touching historic requests.
func (s *Service) DeactivateType(ctx context.Context, id string) error {
	existing, err := s.Store.TypeByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return s.Store.DeactivateType(ctx, id)
}

// Balances returns the employee's balances for the year, seeding missing ones
// from each active type's default allocation.
func (s *Service) Balances(ctx context.Context, employeeID string, year int) ([]Balance, error) {
	types, err := s.Store.ListTypes(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		if _, err := s.Store.EnsureBalance(ctx, employeeID, t.ID, year, t.DefaultAllocation); err != nil {
			return nil, err
		}
	}
	return s.Store.ListBalances(ctx, employeeID, year)
}

func (s *Service) AdjustBalance(ctx context.Context, balanceID string, allocated, carryOver float64) (*Balance, error) {
	if allocated < 0 || carryOver < 0 {
		return nil, ruleErr("balance values cannot be negative")
	}
	return s.Store.AdjustBalance(ctx, balanceID, allocated, carryOver)
}

// CreateRequest validates and files a leave request, reserving the span
// against the balance as pending days.
func (s *Service) CreateRequest(ctx context.Context, employeeID string, input CreateRequestInput, now time.Time) (*Request, error) {
	typ, err := s.Store.TypeByID(ctx, input.TypeID)
	if err != nil {
		return nil, err
	}
	if typ == nil || !typ.Active {
		return nil, ruleErr("unknown or inactive time off type")
	}
	if input.HalfDay != "" {
		if input.HalfDay != HalfDayMorning && input.HalfDay != HalfDayAfternoon {
			return nil, ruleErr("half day must be MORNING or AFTERNOON")
		}
		if !input.StartDate.Equal(input.EndDate) {
			return nil, ruleErr("a half day request must cover a single date")
		}
	}

	days := BusinessDaysBetween(input.StartDate, input.EndDate, input.HalfDay != "")
	if days == 0 {
		return nil, ruleErr("the requested span contains no business days")
	}

	year := input.StartDate.Year()
	balance, err := s.Store.EnsureBalance(ctx, employeeID, typ.ID, year, typ.DefaultAllocation)
	if err != nil {
		return nil, err
	}
	// Unlimited types (sick leave) carry a balance for reporting but never
	// run out.
	if !typ.Unlimited && balance.Remaining() < days {
		return nil, ruleErr(fmt.Sprintf("insufficient balance: %.1f days remaining, %.1f requested",
			balance.Remaining(), days))
	}

	req := Request{
		EmployeeID:   employeeID,
		TypeID:       typ.ID,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		HalfDay:      input.HalfDay,
		BusinessDays: days,
		Reason:       input.Reason,
	}
	existing, err := s.Store.ListActiveRequestsInRange(ctx, employeeID, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if Overlaps(req, other) {
			return nil, ruleErr(fmt.Sprintf("overlaps an existing %s request from %s",
				other.Status, other.StartDate.Format("2006-01-02")))
		}
	}

	created, err := s.Store.CreateRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Store.ApplyBalanceDelta(ctx, employeeID, typ.ID, year, 0, days); err != nil {
		return nil, err
	}
	if s.Notifier != nil {
		s.Notifier.TimeOffSubmitted(ctx, *created)
	}
	return created, nil
}

// Review approves or rejects a pending request. Approving moves the reserved
// days from pending to used; rejecting releases them.
func (s *Service) Review(ctx context.Context, requestID, reviewerID, decision, note string, now time.Time) (*Request, error) {
	req, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.Status != StatusPending {
		return nil, ruleErr("only pending requests can be reviewed")
	}
	if req.EmployeeID == reviewerID {
		return nil, ruleErr("you cannot review your own request")
	}
	if decision != StatusApproved && decision != StatusRejected {
		return nil, ruleErr("decision must be APPROVED or REJECTED")
	}
	if decision == StatusApproved {
		typ, err := s.Store.TypeByID(ctx, req.TypeID)
		if err != nil {
			return nil, err
		}
		if typ != nil && IsAttachmentRequired(*typ, req.BusinessDays) && req.AttachmentID == "" {
			return nil, ruleErr("this request requires a supporting attachment before approval")
		}
	}

	if err := s.Store.MarkRequestReviewed(ctx, requestID, reviewerID, decision, note, now); err != nil {
		return nil, err
	}
	year := req.StartDate.Year()
	if decision == StatusApproved {
		err = s.Store.ApplyBalanceDelta(ctx, req.EmployeeID, req.TypeID, year, req.BusinessDays, -req.BusinessDays)
	} else {
		err = s.Store.ApplyBalanceDelta(ctx, req.EmployeeID, req.TypeID, year, 0, -req.BusinessDays)
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if decision == StatusApproved && s.Calendar != nil {
		if err := s.Calendar.SyncApproved(ctx, *updated); err != nil && s.Logger != nil {
			s.Logger.Warn("calendar sync failed", "requestId", requestID, "error", err)
		}
	}
	if s.Notifier != nil {
		s.Notifier.TimeOffReviewed(ctx, *updated)
	}
	return updated, nil
}

// Cancel withdraws a pending or approved request and returns its days to the
// balance.
func (s *Service) Cancel(ctx context.Context, requestID, employeeID string) (*Request, error) {
	req, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.EmployeeID != employeeID {
		return nil, ruleErr("you can only cancel your own requests")
	}
	if !CanCancel(*req) {
		return nil, ruleErr("only PENDING or APPROVED requests can be cancelled")
	}

	if err := s.Store.SetRequestStatus(ctx, requestID, StatusCancelled); err != nil {
		return nil, err
	}
	year := req.StartDate.Year()
	if req.Status == StatusApproved {
		err = s.Store.ApplyBalanceDelta(ctx, req.EmployeeID, req.TypeID, year, -req.BusinessDays, 0)
	} else {
		err = s.Store.ApplyBalanceDelta(ctx, req.EmployeeID, req.TypeID, year, 0, -req.BusinessDays)
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status == StatusApproved && s.Calendar != nil {
		if err := s.Calendar.RemoveCancelled(ctx, *updated); err != nil && s.Logger != nil {
			s.Logger.Warn("calendar removal failed", "requestId", requestID, "error", err)
		}
	}
	return updated, nil
}

func (s *Service) Mine(ctx context.Context, employeeID string) ([]Request, error) {
	return s.Store.ListRequestsByEmployee(ctx, employeeID)
}

func (s *Service) Team(ctx context.Context, managerID string) ([]Request, error) {
	return s.Store.ListTeamRequests(ctx, managerID)
}

func (s *Service) All(ctx context.Context, status string, limit, offset int) (ListResult, error) {
	return s.Store.ListAllRequests(ctx, status, limit, offset)
}

// Get enforces visibility: owner, owner's manager, or a read-all grant.
func (s *Service) Get(ctx context.Context, requestID, callerID string, perms auth.PermissionSet) (*Request, error) {
	req, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.EmployeeID == callerID || perms.Has(auth.PermTimeOffRequestReadAll) {
		return req, nil
	}
	isManager, err := s.Store.IsManagerOf(ctx, callerID, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !isManager {
		return nil, ErrForbidden
	}
	return req, nil
}

// ApprovedInRange supports the dashboard and team calendar views.
func (s *Service) ApprovedInRange(ctx context.Context, start, end time.Time) ([]Request, error) {
	return s.Store.ListApprovedInRange(ctx, start, end)
}

// UploadAttachment encrypts and stores supporting evidence for a request.
// Only the owner may attach, and only while the request is pending.
func (s *Service) UploadAttachment(ctx context.Context, requestID, employeeID, fileName, contentType string, content io.Reader) (*Attachment, error) {
	req, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.EmployeeID != employeeID {
		return nil, ruleErr("you can only attach files to your own requests")
	}
	if req.Status != StatusPending {
		return nil, ruleErr("attachments can only be added to pending requests")
	}

	data, err := io.ReadAll(io.LimitReader(content, maxAttachmentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAttachmentSize {
		return nil, ruleErr("attachment exceeds the 10MB limit")
	}
	if len(data) == 0 {
		return nil, ruleErr("attachment is empty")
	}

	sealed, err := s.Crypto.Encrypt(data)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.AttachmentDir, 0o750); err != nil {
		return nil, err
	}
	path := filepath.Join(s.AttachmentDir, uuid.NewString()+".bin")
	if err := os.WriteFile(path, sealed, 0o640); err != nil {
		return nil, err
	}

	return s.Store.CreateAttachment(ctx, Attachment{
		RequestID:   requestID,
		FileName:    filepath.Base(fileName),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, path)
}

// DeleteAttachment removes an attachment from the caller's own pending
// request, including the sealed file on disk.
func (s *Service) DeleteAttachment(ctx context.Context, attachmentID, employeeID string) error {
	a, path, err := s.Store.AttachmentByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	req, err := s.Store.RequestByID(ctx, a.RequestID)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrNotFound
	}
	if req.EmployeeID != employeeID {
		return ruleErr("you can only remove attachments from your own requests")
	}
	if req.Status != StatusPending {
		return ruleErr("attachments can only be removed from pending requests")
	}

	if err := s.Store.DeleteAttachment(ctx, attachmentID); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) && s.Logger != nil {
		s.Logger.Warn("attachment file cleanup failed", "path", path, "error", err)
	}
	return nil
}

// DownloadAttachment decrypts an attachment for an authorized caller.
func (s *Service) DownloadAttachment(ctx context.Context, attachmentID, callerID string, perms auth.PermissionSet) (*Attachment, []byte, error) {
	a, path, err := s.Store.AttachmentByID(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.Get(ctx, a.RequestID, callerID, perms); err != nil {
		return nil, nil, err
	}

	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.Crypto.Decrypt(sealed)
	if err != nil {
		return nil, nil, err
	}
	return a, data, nil
}
