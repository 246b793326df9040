package timeoff

import (
	"context"
	"time"
)

type StoreAPI interface {
	// Types.
	TypeByID(ctx context.Context, id string) (*Type, error)
	ListTypes(ctx context.Context, includeInactive bool) ([]Type, error)
	CreateType(ctx context.Context, t Type) (*Type, error)
	UpdateType(ctx context.Context, t Type) (*Type, error)
	DeactivateType(ctx context.Context, id string) error

	// Balances.
	BalanceFor(ctx context.Context, employeeID, typeID string, year int) (*Balance, error)
	ListBalances(ctx context.Context, employeeID string, year int) ([]Balance, error)
	EnsureBalance(ctx context.Context, employeeID, typeID string, year int, allocated float64) (*Balance, error)
	AdjustBalance(ctx context.Context, balanceID string, allocated, carryOver float64) (*Balance, error)
	ApplyBalanceDelta(ctx context.Context, employeeID, typeID string, year int, usedDelta, pendingDelta float64) error

	// Requests.
	RequestByID(ctx context.Context, id string) (*Request, error)
	CreateRequest(ctx context.Context, r Request) (*Request, error)
	SetRequestStatus(ctx context.Context, id, status string) error
	MarkRequestReviewed(ctx context.Context, id, reviewerID, status, note string, at time.Time) error
	ListRequestsByEmployee(ctx context.Context, employeeID string) ([]Request, error)
	ListActiveRequestsInRange(ctx context.Context, employeeID string, start, end time.Time) ([]Request, error)
	ListTeamRequests(ctx context.Context, managerID string) ([]Request, error)
	ListAllRequests(ctx context.Context, status string, limit, offset int) (ListResult, error)
	ListApprovedInRange(ctx context.Context, start, end time.Time) ([]Request, error)

	// Attachments.
	CreateAttachment(ctx context.Context, a Attachment, path string) (*Attachment, error)
	AttachmentByID(ctx context.Context, id string) (*Attachment, string, error)
	DeleteAttachment(ctx context.Context, id string) error

	IsManagerOf(ctx context.Context, managerID, employeeID string) (bool, error)
}
