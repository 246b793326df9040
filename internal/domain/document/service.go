package document

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bonarda/internal/domain/auth"
	"bonarda/internal/platform/crypto"
)

const maxDocumentSize = 25 << 20

type Service struct {
	Store      StoreAPI
	Crypto     *crypto.Service
	StorageDir string
	SharePoint SharePointBrowser
}

func NewService(store StoreAPI, cryptoSvc *crypto.Service, storageDir string, sp SharePointBrowser) *Service {
	return &Service{Store: store, Crypto: cryptoSvc, StorageDir: storageDir, SharePoint: sp}
}

// Upload encrypts and stores a document owned by the caller.
func (s *Service) Upload(ctx context.Context, ownerID, title, fileName, contentType, category string, content io.Reader) (*Document, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ruleErr("document title is required")
	}
	data, err := io.ReadAll(io.LimitReader(content, maxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDocumentSize {
		return nil, ruleErr("document exceeds the 25MB limit")
	}
	if len(data) == 0 {
		return nil, ruleErr("document is empty")
	}

	sealed, err := s.Crypto.Encrypt(data)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.StorageDir, 0o750); err != nil {
		return nil, err
	}
	path := filepath.Join(s.StorageDir, uuid.NewString()+".bin")
	if err := os.WriteFile(path, sealed, 0o640); err != nil {
		return nil, err
	}

	return s.Store.Create(ctx, Document{
		OwnerID:     ownerID,
		Title:       title,
		FileName:    filepath.Base(fileName),
		ContentType: contentType,
		Size:        int64(len(data)),
		Category:    category,
	}, path)
}

// Get enforces visibility: owner, a share recipient, or a read-all grant.
func (s *Service) Get(ctx context.Context, documentID, callerID string, perms auth.PermissionSet) (*Document, error) {
	doc, _, err := s.load(ctx, documentID, callerID, perms)
	return doc, err
}

// Download decrypts the document body for an authorized caller.
func (s *Service) Download(ctx context.Context, documentID, callerID string, perms auth.PermissionSet) (*Document, []byte, error) {
	doc, path, err := s.load(ctx, documentID, callerID, perms)
	if err != nil {
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
	if doc.OwnerID != callerID {
		// First download by a share recipient stamps viewedAt.
		_ = s.Store.MarkShareViewed(ctx, documentID, callerID)
	}
	return doc, data, nil
}

// Delete removes a document; only the owner or a caller with the delete
// grant may do so.
func (s *Service) Delete(ctx context.Context, documentID, callerID string, perms auth.PermissionSet) error {
	doc, path, err := s.Store.ByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}
	if doc.OwnerID != callerID && !perms.Has(auth.PermDocumentDelete) {
		return ErrForbidden
	}
	if err := s.Store.Delete(ctx, documentID); err != nil {
		return err
	}
	// Best effort; the row is already gone.
	_ = os.Remove(path)
	return nil
}

func (s *Service) Mine(ctx context.Context, employeeID string) ([]Document, error) {
	return s.Store.ListOwned(ctx, employeeID)
}

func (s *Service) SharedWithMe(ctx context.Context, employeeID string) ([]Document, error) {
	return s.Store.ListSharedWith(ctx, employeeID)
}

func (s *Service) All(ctx context.Context, limit, offset int) ([]Document, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Store.ListAll(ctx, limit, offset)
}

// Share grants another employee read access. Only the owner may share.
func (s *Service) Share(ctx context.Context, documentID, callerID, employeeID string) (*Share, error) {
	doc, _, err := s.Store.ByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	if doc.OwnerID != callerID {
		return nil, ErrForbidden
	}
	if employeeID == callerID {
		return nil, ruleErr("you already own this document")
	}
	return s.Store.CreateShare(ctx, documentID, employeeID, callerID)
}

func (s *Service) Shares(ctx context.Context, documentID, callerID string, perms auth.PermissionSet) ([]Share, error) {
	if _, _, err := s.load(ctx, documentID, callerID, perms); err != nil {
		return nil, err
	}
	return s.Store.ListShares(ctx, documentID)
}

// RequestSignature asks an employee to sign a document the requester owns.
func (s *Service) RequestSignature(ctx context.Context, documentID, requesterID, employeeID string, deadline *time.Time, now time.Time) (*SignatureRequest, error) {
	doc, _, err := s.Store.ByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	if doc.OwnerID != requesterID {
		return nil, ErrForbidden
	}
	if deadline != nil && deadline.Before(now) {
		return nil, ruleErr("signature deadline is in the past")
	}

	// The signer needs to read what they sign.
	if employeeID != doc.OwnerID {
		if _, err := s.Store.CreateShare(ctx, documentID, employeeID, requesterID); err != nil {
			return nil, err
		}
	}
	return s.Store.CreateSignatureRequest(ctx, SignatureRequest{
		DocumentID:  documentID,
		EmployeeID:  employeeID,
		RequestedBy: requesterID,
		Deadline:    deadline,
	})
}

// Resolve signs or declines a pending request; only the addressed employee
// may resolve it, and declining requires a note.
func (s *Service) Resolve(ctx context.Context, requestID, employeeID string, res Resolution, now time.Time) (*SignatureRequest, error) {
	req, err := s.Store.SignatureRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.EmployeeID != employeeID {
		return nil, ErrForbidden
	}
	if req.Status != SignaturePending {
		return nil, ruleErr("this request has already been resolved")
	}
	switch res.Decision {
	case SignatureSigned:
	case SignatureDeclined:
		if strings.TrimSpace(res.Note) == "" {
			return nil, ruleErr("declining requires a note")
		}
	default:
		return nil, ruleErr("decision must be SIGNED or DECLINED")
	}

	if err := s.Store.ResolveSignatureRequest(ctx, requestID, res, now); err != nil {
		return nil, err
	}
	return s.Store.SignatureRequestByID(ctx, requestID)
}

func (s *Service) MySignatureRequests(ctx context.Context, employeeID string) ([]SignatureRequest, error) {
	return s.Store.ListSignatureRequestsFor(ctx, employeeID)
}

func (s *Service) DocumentSignatures(ctx context.Context, documentID, callerID string, perms auth.PermissionSet) ([]SignatureRequest, error) {
	if _, _, err := s.load(ctx, documentID, callerID, perms); err != nil {
		return nil, err
	}
	return s.Store.ListSignatureRequestsByDocument(ctx, documentID)
}

func (s *Service) BrowseSharePoint(ctx context.Context, path string) ([]SharePointItem, error) {
	return s.SharePoint.Browse(ctx, path)
}

func (s *Service) load(ctx context.Context, documentID, callerID string, perms auth.PermissionSet) (*Document, string, error) {
	doc, path, err := s.Store.ByID(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	if doc == nil {
		return nil, "", ErrNotFound
	}
	if doc.OwnerID == callerID || perms.Has(auth.PermDocumentReadAll) {
		return doc, path, nil
	}
	shared, err := s.Store.IsSharedWith(ctx, documentID, callerID)
	if err != nil {
		return nil, "", err
	}
	if !shared {
		return nil, "", ErrForbidden
	}
	return doc, path, nil
}
