package employee

import "context"

type StoreAPI interface {
	ByID(ctx context.Context, id string) (*Employee, error)
	ByEmail(ctx context.Context, email string) (*Employee, error)
	Create(ctx context.Context, input CreateInput, passwordHash, status string) (*Employee, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Employee, error)
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) (ListResult, error)
	ListReports(ctx context.Context, managerID string) ([]Employee, error)

	// Configurable profile sections.
	ListSections(ctx context.Context) ([]Section, error)
	CreateSection(ctx context.Context, name string, position int) (*Section, error)
	UpdateSection(ctx context.Context, id, name string, position int) (*Section, error)
	DeleteSection(ctx context.Context, id string) error
	CreateField(ctx context.Context, f Field) (*Field, error)
	UpdateField(ctx context.Context, f Field) (*Field, error)
	DeleteField(ctx context.Context, id string) error
	FieldByID(ctx context.Context, id string) (*Field, error)

	FieldValues(ctx context.Context, employeeID string) ([]FieldValue, error)
	SetFieldValue(ctx context.Context, employeeID, fieldID, value string) error
}
