package employee

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

type fakeStore struct {
	employees map[string]*Employee
	byEmail   map[string]string
	sections  map[string]*Section
	fields    map[string]*Field
	values    map[string]string // employee|field
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		employees: map[string]*Employee{},
		byEmail:   map[string]string{},
		sections:  map[string]*Section{},
		fields:    map[string]*Field{},
		values:    map[string]string{},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) ByID(_ context.Context, id string) (*Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) ByEmail(_ context.Context, email string) (*Employee, error) {
	id, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *f.employees[id]
	return &cp, nil
}

func (f *fakeStore) Create(ctx context.Context, input CreateInput, _ string, status string) (*Employee, error) {
	email := strings.ToLower(input.Email)
	if _, exists := f.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}
	e := &Employee{
		ID: f.id("emp"), FirstName: input.FirstName, LastName: input.LastName,
		Email: email, JobTitle: input.JobTitle, Department: input.Department,
		ReportsTo: input.ReportsTo, Status: status,
	}
	f.employees[e.ID] = e
	f.byEmail[email] = e.ID
	return f.ByID(ctx, e.ID)
}

func (f *fakeStore) Update(ctx context.Context, id string, input UpdateInput) (*Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.FirstName = input.FirstName
	e.LastName = input.LastName
	e.ReportsTo = input.ReportsTo
	e.Status = input.Status
	return f.ByID(ctx, id)
}

func (f *fakeStore) Deactivate(_ context.Context, id string) error {
	e, ok := f.employees[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = StatusInactive
	return nil
}

func (f *fakeStore) List(_ context.Context, filter ListFilter) (ListResult, error) {
	var items []Employee
	for _, e := range f.employees {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		items = append(items, *e)
	}
	return ListResult{Items: items, Total: len(items)}, nil
}

func (f *fakeStore) ListReports(_ context.Context, managerID string) ([]Employee, error) {
	var out []Employee
	for _, e := range f.employees {
		if e.ReportsTo == managerID && e.Status == StatusActive {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSections(_ context.Context) ([]Section, error) {
	var out []Section
	for _, sec := range f.sections {
		cp := *sec
		for _, fd := range f.fields {
			if fd.SectionID == sec.ID {
				cp.Fields = append(cp.Fields, *fd)
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeStore) CreateSection(_ context.Context, name string, position int) (*Section, error) {
	sec := &Section{ID: f.id("sec"), Name: name, Position: position}
	f.sections[sec.ID] = sec
	cp := *sec
	return &cp, nil
}

func (f *fakeStore) UpdateSection(_ context.Context, id, name string, position int) (*Section, error) {
	sec, ok := f.sections[id]
	if !ok {
		return nil, ErrNotFound
	}
	sec.Name = name
	sec.Position = position
	cp := *sec
	return &cp, nil
}

func (f *fakeStore) DeleteSection(_ context.Context, id string) error {
	if _, ok := f.sections[id]; !ok {
		return ErrNotFound
	}
	delete(f.sections, id)
	return nil
}

func (f *fakeStore) CreateField(_ context.Context, fd Field) (*Field, error) {
	fd.ID = f.id("fld")
	f.fields[fd.ID] = &fd
	cp := fd
	return &cp, nil
}

func (f *fakeStore) UpdateField(_ context.Context, fd Field) (*Field, error) {
	if _, ok := f.fields[fd.ID]; !ok {
		return nil, ErrNotFound
	}
	f.fields[fd.ID] = &fd
	cp := fd
	return &cp, nil
}

func (f *fakeStore) DeleteField(_ context.Context, id string) error {
	if _, ok := f.fields[id]; !ok {
		return ErrNotFound
	}
	delete(f.fields, id)
	return nil
}

func (f *fakeStore) FieldByID(_ context.Context, id string) (*Field, error) {
	fd, ok := f.fields[id]
	if !ok {
		return nil, nil
	}
	cp := *fd
	return &cp, nil
}

func (f *fakeStore) FieldValues(_ context.Context, employeeID string) ([]FieldValue, error) {
	var out []FieldValue
	for key, v := range f.values {
		parts := strings.SplitN(key, "|", 2)
		if parts[0] == employeeID {
			out = append(out, FieldValue{FieldID: parts[1], Value: v})
		}
	}
	return out, nil
}

func (f *fakeStore) SetFieldValue(_ context.Context, employeeID, fieldID, value string) error {
	f.values[employeeID+"|"+fieldID] = value
	return nil
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeStore())

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"missing name", CreateInput{Email: "a@example.com"}},
		{"bad email", CreateInput{FirstName: "Ana", LastName: "Silva", Email: "not-an-email"}},
		{"short password", CreateInput{FirstName: "Ana", LastName: "Silva", Email: "a@example.com", Password: "short"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.input); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestCreateStatus(t *testing.T) {
	svc := NewService(newFakeStore())

	invited, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Ana", LastName: "Silva", Email: "ana@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if invited.Status != StatusInvited {
		t.Fatalf("status = %s, want INVITED without a password", invited.Status)
	}

	active, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Bruno", LastName: "Costa", Email: "bruno@example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if active.Status != StatusActive {
		t.Fatalf("status = %s, want ACTIVE with a password", active.Status)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := NewService(newFakeStore())
	input := CreateInput{FirstName: "Ana", LastName: "Silva", Email: "ana@example.com"}

	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	input.Email = "ANA@example.com"
	if _, err := svc.Create(context.Background(), input); err != ErrDuplicateEmail {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestUpdateSelfManager(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	e, _ := svc.Create(context.Background(), CreateInput{
		FirstName: "Ana", LastName: "Silva", Email: "ana@example.com",
	})

	_, err := svc.Update(context.Background(), e.ID, UpdateInput{
		FirstName: "Ana", LastName: "Silva", ReportsTo: e.ID, Status: StatusActive,
	})
	if err == nil {
		t.Fatal("expected a self-manager update to fail")
	}
}

func TestSetFieldValueValidation(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	sec, _ := svc.CreateSection(context.Background(), "Emergency", 0)
	required, _ := svc.CreateField(context.Background(), Field{
		SectionID: sec.ID, Label: "Contact Name", Kind: FieldText, Required: true,
	})
	sel, _ := svc.CreateField(context.Background(), Field{
		SectionID: sec.ID, Label: "Shirt Size", Kind: FieldSelect, Options: []string{"S", "M", "L"},
	})

	if err := svc.SetFieldValue(context.Background(), "emp-1", required.ID, "  ", false); err == nil {
		t.Fatal("expected a blank required value to fail")
	}
	if err := svc.SetFieldValue(context.Background(), "emp-1", sel.ID, "XXL", false); err == nil {
		t.Fatal("expected an out-of-options value to fail")
	}
	if err := svc.SetFieldValue(context.Background(), "emp-1", sel.ID, "M", false); err != nil {
		t.Fatalf("valid value: %v", err)
	}
	if err := svc.SetFieldValue(context.Background(), "emp-1", "missing", "x", false); err == nil {
		t.Fatal("expected an unknown field to fail")
	}
	// Admin-only fields reject self-service writes.
	if err := svc.SetFieldValue(context.Background(), "emp-1", sel.ID, "M", true); err == nil {
		t.Fatal("expected a self-service write to an admin field to fail")
	}
}

func TestSetFieldValueSelfService(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	sec, _ := svc.CreateSection(context.Background(), "Personal", 0)
	editable, _ := svc.CreateField(context.Background(), Field{
		SectionID: sec.ID, Label: "Nickname", Kind: FieldText, Editable: EditableEmployee,
	})

	if err := svc.SetFieldValue(context.Background(), "emp-1", editable.ID, "Aninha", true); err != nil {
		t.Fatalf("employee-editable field should accept self-service writes: %v", err)
	}
}

func TestCreateFieldValidation(t *testing.T) {
	svc := NewService(newFakeStore())

	if _, err := svc.CreateField(context.Background(), Field{Label: "Size", Kind: FieldSelect}); err == nil {
		t.Fatal("expected a SELECT field without options to fail")
	}
	if _, err := svc.CreateField(context.Background(), Field{Label: "Size", Kind: "BLOB"}); err == nil {
		t.Fatal("expected an unknown kind to fail")
	}
}

func TestImportCSV(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	manager, _ := svc.Create(context.Background(), CreateInput{
		FirstName: "Maria", LastName: "Gomes", Email: "maria@example.com",
	})

	csvData := strings.Join([]string{
		"firstName,lastName,email,jobTitle,department,startDate,reportsTo",
		"Ana,Silva,ana@example.com,Engineer,Engineering,2024-02-01,maria@example.com",
		"Bruno,Costa,bruno@example.com,Designer,Product,,",
		",Broken,broken@example.com,,,,",
		"Carla,Dias,carla@example.com,Engineer,Engineering,not-a-date,",
		"Duda,Reis,duda@example.com,Engineer,Engineering,,ghost@example.com",
	}, "\n")

	report, err := svc.ImportCSV(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Created != 2 {
		t.Fatalf("created = %d, want 2", report.Created)
	}
	if report.Skipped != 3 {
		t.Fatalf("skipped = %d, want 3", report.Skipped)
	}
	if len(report.Errors) != 3 {
		t.Fatalf("errors = %d, want 3", len(report.Errors))
	}
	for _, e := range report.Errors {
		if e.Line < 4 || e.Line > 6 {
			t.Fatalf("unexpected error line %d", e.Line)
		}
	}

	ana, _ := store.ByEmail(context.Background(), "ana@example.com")
	if ana == nil || ana.ReportsTo != manager.ID {
		t.Fatalf("expected ana to report to %s, got %+v", manager.ID, ana)
	}
}

func TestImportCSVMissingColumn(t *testing.T) {
	svc := NewService(newFakeStore())
	_, err := svc.ImportCSV(context.Background(), strings.NewReader("firstName,lastName\nA,B\n"))
	if err == nil {
		t.Fatal("expected a missing-column error")
	}
}
