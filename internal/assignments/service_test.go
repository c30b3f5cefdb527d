package assignments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

type mockRepository struct {
	items  map[int64]*Assignment
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{items: make(map[int64]*Assignment), nextID: 1}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Assignment, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *a
	return &out, nil
}

func (m *mockRepository) GetForUpdate(ctx context.Context, id int64) (*Assignment, error) {
	return m.Get(ctx, id)
}

func (m *mockRepository) List(_ context.Context, filter ListFilter) ([]Assignment, int, error) {
	result := []Assignment{}
	for id := int64(1); id < m.nextID; id++ {
		a, ok := m.items[id]
		if !ok || (filter.GuideID > 0 && a.GuideID != filter.GuideID) {
			continue
		}
		result = append(result, *a)
	}
	return result, len(result), nil
}

func (m *mockRepository) Create(_ context.Context, a Assignment) (*Assignment, error) {
	for _, existing := range m.items {
		if existing.TourID == a.TourID && existing.GuideID == a.GuideID && existing.AssignmentDate.Equal(a.AssignmentDate.Time) {
			return nil, ErrDuplicate
		}
	}
	a.ID = m.nextID
	m.nextID++
	a.CreatedAt = time.Now()
	m.items[a.ID] = &a
	out := a
	return &out, nil
}

func (m *mockRepository) Update(_ context.Context, a Assignment) (*Assignment, error) {
	if _, ok := m.items[a.ID]; !ok {
		return nil, ErrNotFound
	}
	m.items[a.ID] = &a
	out := a
	return &out, nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type tourSet map[int64]bool

func (s tourSet) Exists(_ context.Context, id int64) error {
	if !s[id] {
		return fmt.Errorf("tour: %w", httpx.ErrNotFound)
	}
	return nil
}

type roleDirectory map[int64]policy.Role

func (d roleDirectory) Role(_ context.Context, id int64) (policy.Role, error) {
	role, ok := d[id]
	if !ok {
		return "", fmt.Errorf("user: %w", httpx.ErrNotFound)
	}
	return role, nil
}

var (
	adminC  = policy.Actor{ID: 1, Role: policy.RoleAdmin}
	guide9  = policy.Actor{ID: 9, Role: policy.RoleGuide}
	guide10 = policy.Actor{ID: 10, Role: policy.RoleGuide}
)

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	authz := shared.NewAuthorizer(policy.NewEngine(), nil, nil)
	directory := roleDirectory{9: policy.RoleGuide, 10: policy.RoleGuide, 5: policy.RoleCustomer}
	return NewService(repo, tourSet{3: true, 4: true}, directory, authz, nil, nil), repo
}

func assign(t *testing.T, tour, guide int64) CreateRequest {
	t.Helper()
	d, err := shared.ParseDate("2025-10-05")
	require.NoError(t, err)
	return CreateRequest{TourID: tour, GuideID: guide, AssignmentDate: &d}
}

func TestCreate_AdminOnly(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, guide9, assign(t, 3, 9))
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Empty(t, repo.items)

	created, err := svc.Create(ctx, adminC, assign(t, 3, 9))
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.GuideID)

	_, err = svc.Create(ctx, adminC, assign(t, 3, 9))
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestCreate_References(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"unknown tour", assign(t, 77, 9), ErrTourNotFound},
		{"unknown guide", assign(t, 3, 404), ErrGuideNotFound},
		{"customer is not a guide", assign(t, 3, 5), httpx.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, adminC, tc.req)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestGet_AssignedGuideOnly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, adminC, assign(t, 3, 9))
	require.NoError(t, err)

	_, err = svc.Get(ctx, guide9, created.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, guide10, created.ID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	_, err = svc.Get(ctx, guide10, 999)
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	_, _, err = svc.List(ctx, guide9, ListFilter{})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestUpdate_ReassignsGuide(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, adminC, assign(t, 3, 9))
	require.NoError(t, err)

	customer := int64(5)
	_, err = svc.Update(ctx, adminC, created.ID, UpdateRequest{GuideID: &customer})
	assert.ErrorIs(t, err, ErrNotAGuide)

	other := int64(10)
	_, err = svc.Update(ctx, guide9, created.ID, UpdateRequest{GuideID: &other})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	updated, err := svc.Update(ctx, adminC, created.ID, UpdateRequest{GuideID: &other})
	require.NoError(t, err)
	assert.Equal(t, other, updated.GuideID)

	_, err = svc.Get(ctx, guide10, created.ID)
	assert.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, guide10, created.ID), httpx.ErrForbidden)
	assert.NoError(t, svc.Delete(ctx, adminC, created.ID))
}
