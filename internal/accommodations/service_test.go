package accommodations

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	items  map[int64]*Accommodation
	nextID int64

	txError     error
	updateError error
	writes      int
}

func newMockRepository() *mockRepository {
	return &mockRepository{items: make(map[int64]*Accommodation), nextID: 1}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, m)
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Accommodation, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *a
	return &out, nil
}

func (m *mockRepository) GetForUpdate(ctx context.Context, id int64) (*Accommodation, error) {
	return m.Get(ctx, id)
}

func (m *mockRepository) List(_ context.Context, filter ListFilter) ([]Accommodation, int, error) {
	result := []Accommodation{}
	for _, a := range m.items {
		if filter.UserID > 0 && a.UserID != filter.UserID {
			continue
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(a.Location), strings.ToLower(filter.Location)) {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, len(result), nil
}

func (m *mockRepository) ExistsByName(_ context.Context, name string, userID, excludeID int64) (bool, error) {
	for _, a := range m.items {
		if a.ID != excludeID && a.UserID == userID && strings.EqualFold(a.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) Create(_ context.Context, a Accommodation) (*Accommodation, error) {
	a.ID = m.nextID
	m.nextID++
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.items[a.ID] = &a
	m.writes++
	out := a
	return &out, nil
}

func (m *mockRepository) Update(_ context.Context, a Accommodation) (*Accommodation, error) {
	if m.updateError != nil {
		return nil, m.updateError
	}
	if _, ok := m.items[a.ID]; !ok {
		return nil, ErrNotFound
	}
	a.UpdatedAt = time.Now()
	m.items[a.ID] = &a
	m.writes++
	out := a
	return &out, nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	m.writes++
	return nil
}

type recordingAuditor struct {
	logs []shared.AuditLog
}

func (r *recordingAuditor) Record(_ context.Context, log shared.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

var (
	customerA = policy.Actor{ID: 5, Role: policy.RoleCustomer}
	customerB = policy.Actor{ID: 7, Role: policy.RoleCustomer}
	adminC    = policy.Actor{ID: 1, Role: policy.RoleAdmin}
)

func newTestService(repo Repository) (*Service, *recordingAuditor) {
	auditor := &recordingAuditor{}
	authz := shared.NewAuthorizer(policy.NewEngine(), nil, nil)
	return NewService(repo, authz, auditor, nil), auditor
}

func mustDate(t *testing.T, raw string) *shared.Date {
	t.Helper()
	d, err := shared.ParseDate(raw)
	require.NoError(t, err)
	return &d
}

func validCreate(t *testing.T, name string) CreateRequest {
	return CreateRequest{
		Name:        name,
		Location:    "Kampala",
		Price:       120,
		Description: "Lakeside lodge",
		StartDate:   mustDate(t, "2025-06-01"),
		EndDate:     mustDate(t, "2025-06-30"),
	}
}

// ============================================================================
// CREATE
// ============================================================================

func TestCreate_AssignsOwner(t *testing.T) {
	repo := newMockRepository()
	svc, auditor := newTestService(repo)

	created, err := svc.Create(context.Background(), customerA, validCreate(t, "Lodge"))
	require.NoError(t, err)
	assert.Equal(t, customerA.ID, created.UserID)
	require.Len(t, auditor.logs, 1)
	assert.Equal(t, "create", auditor.logs[0].Action)
	assert.Equal(t, "accommodation", auditor.logs[0].Entity)
}

func TestCreate_DuplicateNamePerOwner(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, customerA, validCreate(t, "Lodge"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, customerA, validCreate(t, "lodge"))
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.ErrorIs(t, err, httpx.ErrDuplicate)

	// another owner may reuse the name
	_, err = svc.Create(ctx, customerB, validCreate(t, "Lodge"))
	assert.NoError(t, err)
	assert.Len(t, repo.items, 2)
}

func TestCreate_RejectsInvertedDates(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	req := validCreate(t, "Lodge")
	req.StartDate, req.EndDate = req.EndDate, req.StartDate

	_, err := svc.Create(context.Background(), customerA, req)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreate_RequiresAuthenticatedActor(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	_, err := svc.Create(context.Background(), policy.Actor{}, validCreate(t, "Lodge"))
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

// ============================================================================
// UPDATE / DELETE
// ============================================================================

func TestLifecycle_OwnerOtherAdmin(t *testing.T) {
	repo := newMockRepository()
	svc, auditor := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, customerA, validCreate(t, "Lodge"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.UserID)

	newName := "Hijacked"
	writes := repo.writes
	_, err = svc.Update(ctx, customerB, created.ID, UpdateRequest{Name: &newName})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Equal(t, writes, repo.writes, "denied update must not write")
	assert.Equal(t, "Lodge", repo.items[created.ID].Name)

	newName = "Lodge Deluxe"
	updated, err := svc.Update(ctx, customerA, created.ID, UpdateRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Lodge Deluxe", updated.Name)

	assert.ErrorIs(t, svc.Delete(ctx, customerB, created.ID), httpx.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, adminC, created.ID))
	assert.Empty(t, repo.items)

	actions := make([]string, 0, len(auditor.logs))
	for _, l := range auditor.logs {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []string{"create", "update", "delete"}, actions)
}

func TestUpdate_NotFoundBeforeForbidden(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	name := "x"

	_, err := svc.Update(context.Background(), customerB, 404, UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.NotErrorIs(t, err, httpx.ErrForbidden)

	err = svc.Delete(context.Background(), customerB, 404)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdate_RenameCollision(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, customerA, validCreate(t, "First"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, customerA, validCreate(t, "Second"))
	require.NoError(t, err)

	name := "FIRST"
	_, err = svc.Update(ctx, customerA, second.ID, UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, ErrDuplicateName)

	same := "Second"
	_, err = svc.Update(ctx, customerA, second.ID, UpdateRequest{Name: &same})
	assert.NoError(t, err)
}

func TestUpdate_StoreFailurePropagates(t *testing.T) {
	repo := newMockRepository()
	svc, auditor := newTestService(repo)
	ctx := context.Background()
	created, err := svc.Create(ctx, customerA, validCreate(t, "Lodge"))
	require.NoError(t, err)

	repo.updateError = errors.New("connection reset")
	price := 99.0
	_, err = svc.Update(ctx, customerA, created.ID, UpdateRequest{Price: &price})
	require.Error(t, err)
	assert.Equal(t, 500, httpx.StatusOf(err))
	assert.Len(t, auditor.logs, 1, "failed update is not audited")
}

// ============================================================================
// READ
// ============================================================================

func TestReadIsOpenToAuthenticatedActors(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestService(repo)
	ctx := context.Background()
	created, err := svc.Create(ctx, customerA, validCreate(t, "Lodge"))
	require.NoError(t, err)

	got, err := svc.Get(ctx, customerB, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	items, total, err := svc.List(ctx, policy.Actor{ID: 9, Role: policy.RoleGuide}, ListFilter{Page: shared.NewPageRequest(1, 20)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)

	_, err = svc.Get(ctx, customerB, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
