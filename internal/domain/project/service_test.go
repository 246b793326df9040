package project

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type fakeStore struct {
	clients     map[string]*Client
	projects    map[string]*Project
	assignments map[string]bool // project|employee
	logs        map[string]*TimeLog
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients:     map[string]*Client{},
		projects:    map[string]*Project{},
		assignments: map[string]bool{},
		logs:        map[string]*TimeLog{},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) ClientByID(_ context.Context, id string) (*Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListClients(_ context.Context, includeInactive bool) ([]Client, error) {
	var out []Client
	for _, c := range f.clients {
		if c.Active || includeInactive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateClient(_ context.Context, c Client) (*Client, error) {
	c.ID = f.id("cli")
	c.Active = true
	f.clients[c.ID] = &c
	cp := c
	return &cp, nil
}

func (f *fakeStore) UpdateClient(_ context.Context, c Client) (*Client, error) {
	existing, ok := f.clients[c.ID]
	if !ok {
		return nil, ErrNotFound
	}
	c.Active = existing.Active
	f.clients[c.ID] = &c
	cp := c
	return &cp, nil
}

func (f *fakeStore) DeactivateClient(_ context.Context, id string) error {
	c, ok := f.clients[id]
	if !ok {
		return ErrNotFound
	}
	c.Active = false
	return nil
}

func (f *fakeStore) ProjectByID(_ context.Context, id string) (*Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListProjects(_ context.Context, status string) ([]Project, error) {
	var out []Project
	for _, p := range f.projects {
		if status == "" || p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListProjectsForEmployee(_ context.Context, employeeID string) ([]Project, error) {
	var out []Project
	for _, p := range f.projects {
		if f.assignments[p.ID+"|"+employeeID] && p.Status == ProjectActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateProject(_ context.Context, p Project) (*Project, error) {
	p.ID = f.id("prj")
	f.projects[p.ID] = &p
	cp := p
	return &cp, nil
}

func (f *fakeStore) UpdateProject(_ context.Context, p Project) (*Project, error) {
	if _, ok := f.projects[p.ID]; !ok {
		return nil, ErrNotFound
	}
	f.projects[p.ID] = &p
	cp := p
	return &cp, nil
}

func (f *fakeStore) ListAssignments(_ context.Context, projectID string) ([]Assignment, error) {
	return nil, nil
}

func (f *fakeStore) Assign(_ context.Context, projectID, employeeID, role string) (*Assignment, error) {
	f.assignments[projectID+"|"+employeeID] = true
	return &Assignment{ID: f.id("asn"), ProjectID: projectID, EmployeeID: employeeID, Role: role}, nil
}

func (f *fakeStore) Unassign(_ context.Context, projectID, employeeID string) error {
	key := projectID + "|" + employeeID
	if !f.assignments[key] {
		return ErrNotFound
	}
	delete(f.assignments, key)
	return nil
}

func (f *fakeStore) IsAssigned(_ context.Context, projectID, employeeID string) (bool, error) {
	return f.assignments[projectID+"|"+employeeID], nil
}

func (f *fakeStore) CreateTimeLog(_ context.Context, l TimeLog) (*TimeLog, error) {
	l.ID = f.id("log")
	f.logs[l.ID] = &l
	cp := l
	return &cp, nil
}

func (f *fakeStore) DeleteTimeLog(_ context.Context, id, employeeID string) error {
	l, ok := f.logs[id]
	if !ok || l.EmployeeID != employeeID {
		return ErrNotFound
	}
	delete(f.logs, id)
	return nil
}

func (f *fakeStore) TimeLogByID(_ context.Context, id string) (*TimeLog, error) {
	l, ok := f.logs[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) ListTimeLogs(_ context.Context, projectID string, start, end time.Time) ([]TimeLog, error) {
	return nil, nil
}

func (f *fakeStore) ListTimeLogsByEmployee(_ context.Context, employeeID string, start, end time.Time) ([]TimeLog, error) {
	return nil, nil
}

func (f *fakeStore) HoursByProject(_ context.Context, start, end time.Time) ([]ProjectHours, error) {
	return nil, nil
}

func (f *fakeStore) HoursOnDate(_ context.Context, employeeID string, date time.Time) (float64, error) {
	var total float64
	for _, l := range f.logs {
		if l.EmployeeID == employeeID && l.LogDate.Equal(date) {
			total += l.Hours
		}
	}
	return total, nil
}

func activeProject(store *fakeStore, employeeID string) *Project {
	p, _ := store.CreateProject(context.Background(), Project{Name: "Platform", Status: ProjectActive})
	if employeeID != "" {
		store.assignments[p.ID+"|"+employeeID] = true
	}
	return p
}

func TestLogTimeHoursBounds(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	p := activeProject(store, "emp-1")
	day := time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC)

	for _, hours := range []float64{0, -1, 24.5} {
		_, err := svc.LogTime(context.Background(), "emp-1", TimeLogInput{
			ProjectID: p.ID, LogDate: day, Hours: hours,
		})
		if err == nil {
			t.Fatalf("expected %v hours to be rejected", hours)
		}
	}

	if _, err := svc.LogTime(context.Background(), "emp-1", TimeLogInput{
		ProjectID: p.ID, LogDate: day, Hours: 24,
	}); err != nil {
		t.Fatalf("24 hours should be allowed: %v", err)
	}
}

func TestLogTimeDailyCap(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	a := activeProject(store, "emp-1")
	b := activeProject(store, "emp-1")
	day := time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC)

	if _, err := svc.LogTime(context.Background(), "emp-1", TimeLogInput{
		ProjectID: a.ID, LogDate: day, Hours: 20,
	}); err != nil {
		t.Fatalf("first log: %v", err)
	}
	if _, err := svc.LogTime(context.Background(), "emp-1", TimeLogInput{
		ProjectID: b.ID, LogDate: day, Hours: 5,
	}); err == nil {
		t.Fatal("expected the cross-project daily total to be capped at 24")
	}
	if _, err := svc.LogTime(context.Background(), "emp-1", TimeLogInput{
		ProjectID: b.ID, LogDate: day.AddDate(0, 0, 1), Hours: 5,
	}); err != nil {
		t.Fatalf("another day should be fine: %v", err)
	}
}

func TestLogTimeRequiresAssignment(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	p := activeProject(store, "")
	day := time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC)

	if _, err := svc.LogTime(context.Background(), "emp-1", TimeLogInput{
		ProjectID: p.ID, LogDate: day, Hours: 4,
	}); err == nil {
		t.Fatal("expected an unassigned employee to be rejected")
	}
}

func TestLogTimeInactiveProject(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	p := activeProject(store, "emp-1")
	store.projects[p.ID].Status = ProjectCompleted
	day := time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC)

	if _, err := svc.LogTime(context.Background(), "emp-1", TimeLogInput{
		ProjectID: p.ID, LogDate: day, Hours: 4,
	}); err == nil {
		t.Fatal("expected logging against a completed project to fail")
	}
}

func TestCreateProjectValidation(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	if _, err := svc.CreateProject(context.Background(), Project{}); err == nil {
		t.Fatal("expected a nameless project to fail")
	}

	start := time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	if _, err := svc.CreateProject(context.Background(), Project{
		Name: "X", StartDate: &start, EndDate: &end,
	}); err == nil {
		t.Fatal("expected end-before-start to fail")
	}

	if _, err := svc.CreateProject(context.Background(), Project{
		Name: "X", ClientID: "ghost",
	}); err == nil {
		t.Fatal("expected an unknown client to fail")
	}

	p, err := svc.CreateProject(context.Background(), Project{Name: "Platform"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != ProjectActive {
		t.Fatalf("status = %s, want ACTIVE by default", p.Status)
	}
}

func TestAssignArchivedProject(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	p := activeProject(store, "")
	store.projects[p.ID].Status = ProjectArchived

	if _, err := svc.Assign(context.Background(), p.ID, "emp-1", ""); err == nil {
		t.Fatal("expected assigning to an archived project to fail")
	}
}
