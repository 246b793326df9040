package document

import (
	"context"
	"time"
)

type StoreAPI interface {
	ByID(ctx context.Context, id string) (*Document, string, error)
	Create(ctx context.Context, d Document, path string) (*Document, error)
	Delete(ctx context.Context, id string) error
	ListOwned(ctx context.Context, ownerID string) ([]Document, error)
	ListSharedWith(ctx context.Context, employeeID string) ([]Document, error)
	ListAll(ctx context.Context, limit, offset int) ([]Document, int, error)

	CreateShare(ctx context.Context, documentID, employeeID, sharedBy string) (*Share, error)
	ListShares(ctx context.Context, documentID string) ([]Share, error)
	IsSharedWith(ctx context.Context, documentID, employeeID string) (bool, error)
	MarkShareViewed(ctx context.Context, documentID, employeeID string) error

	CreateSignatureRequest(ctx context.Context, r SignatureRequest) (*SignatureRequest, error)
	SignatureRequestByID(ctx context.Context, id string) (*SignatureRequest, error)
	ResolveSignatureRequest(ctx context.Context, id string, res Resolution, at time.Time) error
	ListSignatureRequestsFor(ctx context.Context, employeeID string) ([]SignatureRequest, error)
	ListSignatureRequestsByDocument(ctx context.Context, documentID string) ([]SignatureRequest, error)
	ListPendingSignaturesDueBy(ctx context.Context, deadline time.Time) ([]SignatureRequest, error)
}
