package timeoff

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"bonarda/internal/domain/auth"
	"bonarda/internal/platform/crypto"
)

type fakeStore struct {
	types    map[string]*Type
	balances map[string]*Balance // key employee|type|year
	requests map[string]*Request
	managers map[string]string
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		types:    map[string]*Type{},
		balances: map[string]*Balance{},
		requests: map[string]*Request{},
		managers: map[string]string{},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func balanceKey(employeeID, typeID string, year int) string {
	return fmt.Sprintf("%s|%s|%d", employeeID, typeID, year)
}

func (f *fakeStore) TypeByID(_ context.Context, id string) (*Type, error) {
	t, ok := f.types[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) ListTypes(_ context.Context, includeInactive bool) ([]Type, error) {
	var out []Type
	for _, t := range f.types {
		if t.Active || includeInactive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateType(_ context.Context, t Type) (*Type, error) {
	t.ID = f.id("type")
	t.Active = true
	f.types[t.ID] = &t
	cp := t
	return &cp, nil
}

func (f *fakeStore) UpdateType(_ context.Context, t Type) (*Type, error) {
	existing := f.types[t.ID]
	t.Active = existing.Active
	f.types[t.ID] = &t
	cp := t
	return &cp, nil
}

func (f *fakeStore) DeactivateType(_ context.Context, id string) error {
	f.types[id].Active = false
	return nil
}

func (f *fakeStore) BalanceFor(_ context.Context, employeeID, typeID string, year int) (*Balance, error) {
	b, ok := f.balances[balanceKey(employeeID, typeID, year)]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) ListBalances(_ context.Context, employeeID string, year int) ([]Balance, error) {
	var out []Balance
	for _, b := range f.balances {
		if b.EmployeeID == employeeID && b.Year == year {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) EnsureBalance(ctx context.Context, employeeID, typeID string, year int, allocated float64) (*Balance, error) {
	key := balanceKey(employeeID, typeID, year)
	if _, ok := f.balances[key]; !ok {
		f.balances[key] = &Balance{
			ID: f.id("bal"), EmployeeID: employeeID, TypeID: typeID,
			Year: year, Allocated: allocated,
		}
	}
	return f.BalanceFor(ctx, employeeID, typeID, year)
}

func (f *fakeStore) AdjustBalance(ctx context.Context, balanceID string, allocated, carryOver float64) (*Balance, error) {
	for key, b := range f.balances {
		if b.ID == balanceID {
			b.Allocated = allocated
			b.CarryOver = carryOver
			return f.BalanceFor(ctx, f.balances[key].EmployeeID, b.TypeID, b.Year)
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ApplyBalanceDelta(_ context.Context, employeeID, typeID string, year int, usedDelta, pendingDelta float64) error {
	b := f.balances[balanceKey(employeeID, typeID, year)]
	b.Used += usedDelta
	b.Pending += pendingDelta
	return nil
}

func (f *fakeStore) RequestByID(_ context.Context, id string) (*Request, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) CreateRequest(ctx context.Context, r Request) (*Request, error) {
	r.ID = f.id("req")
	r.Status = StatusPending
	r.CreatedAt = time.Now()
	f.requests[r.ID] = &r
	return f.RequestByID(ctx, r.ID)
}

func (f *fakeStore) SetRequestStatus(_ context.Context, id, status string) error {
	f.requests[id].Status = status
	return nil
}

func (f *fakeStore) MarkRequestReviewed(_ context.Context, id, reviewerID, status, note string, at time.Time) error {
	r := f.requests[id]
	r.Status = status
	r.ReviewerID = reviewerID
	r.ReviewNote = note
	r.ReviewedAt = &at
	return nil
}

func (f *fakeStore) ListRequestsByEmployee(_ context.Context, employeeID string) ([]Request, error) {
	var out []Request
	for _, r := range f.requests {
		if r.EmployeeID == employeeID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListActiveRequestsInRange(_ context.Context, employeeID string, start, end time.Time) ([]Request, error) {
	var out []Request
	for _, r := range f.requests {
		if r.EmployeeID != employeeID {
			continue
		}
		if r.Status != StatusPending && r.Status != StatusApproved {
			continue
		}
		if r.EndDate.Before(start) || r.StartDate.After(end) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) ListTeamRequests(_ context.Context, managerID string) ([]Request, error) {
	var out []Request
	for _, r := range f.requests {
		if f.managers[r.EmployeeID] == managerID && r.Status == StatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAllRequests(_ context.Context, status string, limit, offset int) (ListResult, error) {
	var items []Request
	for _, r := range f.requests {
		if status == "" || r.Status == status {
			items = append(items, *r)
		}
	}
	return ListResult{Items: items, Total: len(items)}, nil
}

func (f *fakeStore) ListApprovedInRange(_ context.Context, start, end time.Time) ([]Request, error) {
	var out []Request
	for _, r := range f.requests {
		if r.Status == StatusApproved && !r.EndDate.Before(start) && !r.StartDate.After(end) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateAttachment(_ context.Context, a Attachment, path string) (*Attachment, error) {
	a.ID = f.id("att")
	a.UploadedAt = time.Now()
	f.requests[a.RequestID].AttachmentID = a.ID
	f.requests[a.RequestID].AttachmentName = a.FileName
	return &a, nil
}

func (f *fakeStore) AttachmentByID(_ context.Context, id string) (*Attachment, string, error) {
	return nil, "", ErrNotFound
}

func (f *fakeStore) DeleteAttachment(_ context.Context, id string) error {
	return ErrNotFound
}

func (f *fakeStore) IsManagerOf(_ context.Context, managerID, employeeID string) (bool, error) {
	return f.managers[employeeID] == managerID, nil
}

func testService(store *fakeStore) *Service {
	cryptoSvc, _ := crypto.New("")
	return NewService(store, cryptoSvc, "", slog.Default())
}

func seedType(store *fakeStore, requirement string, afterDays int) *Type {
	t, _ := store.CreateType(context.Background(), Type{
		Name: "Annual Leave", DefaultAllocation: 25, MaxCarryOver: 5,
		AttachmentRequirement: requirement, AttachmentRequiredAfterDays: afterDays,
	})
	return t
}

func TestCreateRequestReservesPending(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	typ := seedType(store, AttachmentNever, 0)

	req, err := svc.CreateRequest(context.Background(), "emp-1", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: date(2024, time.March, 11),
		EndDate:   date(2024, time.March, 15),
	}, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.BusinessDays != 5 {
		t.Fatalf("business days = %v, want 5", req.BusinessDays)
	}
	if req.Status != StatusPending {
		t.Fatalf("status = %s, want PENDING", req.Status)
	}

	bal, _ := store.BalanceFor(context.Background(), "emp-1", typ.ID, 2024)
	if bal.Pending != 5 {
		t.Fatalf("pending = %v, want 5", bal.Pending)
	}
	if bal.Remaining() != 20 {
		t.Fatalf("remaining = %v, want 20", bal.Remaining())
	}
}

func TestCreateRequestInsufficientBalance(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	typ := seedType(store, AttachmentNever, 0)
	store.types[typ.ID].DefaultAllocation = 2

	_, err := svc.CreateRequest(context.Background(), "emp-1", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: date(2024, time.March, 11),
		EndDate:   date(2024, time.March, 15),
	}, time.Now())
	if err == nil {
		t.Fatal("expected an insufficient-balance error")
	}
}

func TestCreateRequestRejectsOverlap(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	typ := seedType(store, AttachmentNever, 0)

	mk := func(input CreateRequestInput) error {
		input.TypeID = typ.ID
		_, err := svc.CreateRequest(context.Background(), "emp-1", input, time.Now())
		return err
	}

	if err := mk(CreateRequestInput{StartDate: date(2024, time.March, 11), EndDate: date(2024, time.March, 13)}); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := mk(CreateRequestInput{StartDate: date(2024, time.March, 13), EndDate: date(2024, time.March, 15)}); err == nil {
		t.Fatal("expected an overlap error")
	}

	// Complementary half days on the same date are allowed.
	day := date(2024, time.March, 20)
	if err := mk(CreateRequestInput{StartDate: day, EndDate: day, HalfDay: HalfDayMorning}); err != nil {
		t.Fatalf("morning half: %v", err)
	}
	if err := mk(CreateRequestInput{StartDate: day, EndDate: day, HalfDay: HalfDayAfternoon}); err != nil {
		t.Fatalf("afternoon half: %v", err)
	}
	if err := mk(CreateRequestInput{StartDate: day, EndDate: day, HalfDay: HalfDayAfternoon}); err == nil {
		t.Fatal("expected a duplicate half-day to be rejected")
	}
}

func TestCreateRequestWeekendOnly(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	typ := seedType(store, AttachmentNever, 0)

	_, err := svc.CreateRequest(context.Background(), "emp-1", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: date(2024, time.March, 16),
		EndDate:   date(2024, time.March, 17),
	}, time.Now())
	if err == nil {
		t.Fatal("expected a weekend-only request to be rejected")
	}
}

func TestCreateRequestHalfDayOnWeekend(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	typ := seedType(store, AttachmentNever, 0)

	// A Saturday half-day still counts 0.5 and is accepted.
	day := date(2024, time.March, 16)
	req, err := svc.CreateRequest(context.Background(), "emp-1", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: day,
		EndDate:   day,
		HalfDay:   HalfDayMorning,
	}, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.BusinessDays != 0.5 {
		t.Fatalf("business days = %v, want 0.5", req.BusinessDays)
	}
}

func TestCreateRequestUnlimitedTypeSkipsBalanceCheck(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	typ := seedType(store, AttachmentNever, 0)
	store.types[typ.ID].Unlimited = true
	store.types[typ.ID].DefaultAllocation = 0

	req, err := svc.CreateRequest(context.Background(), "emp-1", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: date(2024, time.March, 11),
		EndDate:   date(2024, time.March, 15),
	}, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.BusinessDays != 5 {
		t.Fatalf("business days = %v, want 5", req.BusinessDays)
	}
}

func TestReviewApproveMovesPendingToUsed(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	typ := seedType(store, AttachmentNever, 0)

	req, err := svc.CreateRequest(context.Background(), "emp-1", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: date(2024, time.March, 11),
		EndDate:   date(2024, time.March, 12),
	}, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Review(context.Background(), req.ID, "mgr-1", StatusApproved, "", time.Now())
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if got.Status != StatusApproved {
		t.Fatalf("status = %s, want APPROVED", got.Status)
	}

	bal, _ := store.BalanceFor(context.Background(), "emp-1", typ.ID, 2024)
	if bal.Used != 2 || bal.Pending != 0 {
		t.Fatalf("used = %v pending = %v, want 2 and 0", bal.Used, bal.Pending)
	}
}

func TestReviewRejectReleasesPending(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	typ := seedType(store, AttachmentNever, 0)

	req, _ := svc.CreateRequest(context.Background(), "emp-1", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: date(2024, time.March, 11),
		EndDate:   date(2024, time.March, 12),
	}, time.Now())

	if _, err := svc.Review(context.Background(), req.ID, "mgr-1", StatusRejected, "coverage", time.Now()); err != nil {
		t.Fatalf("review: %v", err)
	}
	bal, _ := store.BalanceFor(context.Background(), "emp-1", typ.ID, 2024)
	if bal.Used != 0 || bal.Pending != 0 {
		t.Fatalf("used = %v pending = %v, want both 0", bal.Used, bal.Pending)
	}
}

func TestReviewSelfRejected(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	typ := seedType(store, AttachmentNever, 0)

	req, _ := svc.CreateRequest(context.Background(), "emp-1", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: date(2024, time.March, 11),
		EndDate:   date(2024, time.March, 11),
	}, time.Now())

	if _, err := svc.Review(context.Background(), req.ID, "emp-1", StatusApproved, "", time.Now()); err == nil {
		t.Fatal("expected a self-review to fail")
	}
}

func TestReviewBlockedWithoutRequiredAttachment(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	typ := seedType(store, AttachmentConditional, 3)

	req, err := svc.CreateRequest(context.Background(), "emp-1", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: date(2024, time.March, 11),
		EndDate:   date(2024, time.March, 15),
	}, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Review(context.Background(), req.ID, "mgr-1", StatusApproved, "", time.Now()); err == nil {
		t.Fatal("expected approval to be blocked without an attachment")
	}

	// A span at or under the threshold needs no evidence.
	short, _ := svc.CreateRequest(context.Background(), "emp-2", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: date(2024, time.March, 11),
		EndDate:   date(2024, time.March, 13),
	}, time.Now())
	if _, err := svc.Review(context.Background(), short.ID, "mgr-1", StatusApproved, "", time.Now()); err != nil {
		t.Fatalf("short request should approve without attachment: %v", err)
	}
}

func TestCancelRules(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	typ := seedType(store, AttachmentNever, 0)

	req, _ := svc.CreateRequest(context.Background(), "emp-1", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: date(2024, time.March, 11),
		EndDate:   date(2024, time.March, 12),
	}, time.Now())

	if _, err := svc.Cancel(context.Background(), req.ID, "emp-2"); err == nil {
		t.Fatal("expected a foreign cancel to fail")
	}

	got, err := svc.Cancel(context.Background(), req.ID, "emp-1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", got.Status)
	}
	bal, _ := store.BalanceFor(context.Background(), "emp-1", typ.ID, 2024)
	if bal.Pending != 0 {
		t.Fatalf("pending = %v, want 0", bal.Pending)
	}

	if _, err := svc.Cancel(context.Background(), req.ID, "emp-1"); err == nil {
		t.Fatal("expected cancelling twice to fail")
	}
}

func TestCancelApprovedRestoresUsed(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	typ := seedType(store, AttachmentNever, 0)

	req, _ := svc.CreateRequest(context.Background(), "emp-1", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: date(2024, time.March, 11),
		EndDate:   date(2024, time.March, 12),
	}, time.Now())
	if _, err := svc.Review(context.Background(), req.ID, "mgr-1", StatusApproved, "", time.Now()); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), req.ID, "emp-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	bal, _ := store.BalanceFor(context.Background(), "emp-1", typ.ID, 2024)
	if bal.Used != 0 || bal.Pending != 0 {
		t.Fatalf("used = %v pending = %v, want both 0", bal.Used, bal.Pending)
	}
}

func TestGetVisibility(t *testing.T) {
	store := newFakeStore()
	store.managers["emp-1"] = "mgr-1"
	svc := testService(store)
	typ := seedType(store, AttachmentNever, 0)

	req, _ := svc.CreateRequest(context.Background(), "emp-1", CreateRequestInput{
		TypeID:    typ.ID,
		StartDate: date(2024, time.March, 11),
		EndDate:   date(2024, time.March, 11),
	}, time.Now())

	if _, err := svc.Get(context.Background(), req.ID, "emp-1", nil); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := svc.Get(context.Background(), req.ID, "mgr-1", nil); err != nil {
		t.Fatalf("manager: %v", err)
	}
	perms := auth.NewPermissionSet(auth.PermTimeOffRequestReadAll)
	if _, err := svc.Get(context.Background(), req.ID, "hr-1", perms); err != nil {
		t.Fatalf("read-all: %v", err)
	}
	if _, err := svc.Get(context.Background(), req.ID, "emp-9", nil); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestBalancesSeedsDefaults(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	seedType(store, AttachmentNever, 0)

	balances, err := svc.Balances(context.Background(), "emp-1", 2024)
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if len(balances) != 1 {
		t.Fatalf("balances = %d, want 1", len(balances))
	}
	if balances[0].Allocated != 25 {
		t.Fatalf("allocated = %v, want the type default 25", balances[0].Allocated)
	}
}
