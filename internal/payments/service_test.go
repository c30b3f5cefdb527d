package payments

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

type mockRepository struct {
	items      map[int64]*Payment
	keys       map[string]bool
	nextID     int64
	failCreate error
}

func newMockRepository() *mockRepository {
	return &mockRepository{items: make(map[int64]*Payment), keys: make(map[string]bool), nextID: 1}
}

// WithTx restores the pre-transaction state when fn fails.
func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	items := maps.Clone(m.items)
	keys := maps.Clone(m.keys)
	if err := fn(ctx, m); err != nil {
		m.items, m.keys = items, keys
		return err
	}
	return nil
}

func (m *mockRepository) ClaimKey(_ context.Context, key, module string) error {
	k := module + ":" + key
	if m.keys[k] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[k] = true
	return nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Payment, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *mockRepository) GetForUpdate(ctx context.Context, id int64) (*Payment, error) {
	return m.Get(ctx, id)
}

func (m *mockRepository) List(_ context.Context, filter ListFilter) ([]Payment, int, error) {
	result := []Payment{}
	for _, p := range m.items {
		if filter.BookingID > 0 && p.BookingID != filter.BookingID {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, len(result), nil
}

func (m *mockRepository) Create(_ context.Context, p Payment) (*Payment, error) {
	if err := m.failCreate; err != nil {
		m.failCreate = nil
		return nil, err
	}
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = time.Now()
	m.items[p.ID] = &p
	out := p
	return &out, nil
}

func (m *mockRepository) Update(_ context.Context, p Payment) (*Payment, error) {
	if _, ok := m.items[p.ID]; !ok {
		return nil, ErrNotFound
	}
	m.items[p.ID] = &p
	out := p
	return &out, nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// bookingOwners maps booking id to owner id.
type bookingOwners map[int64]int64

func (b bookingOwners) Resource(_ context.Context, id int64) (*policy.Resource, error) {
	owner, ok := b[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return policy.Owned(id, owner), nil
}

var (
	customerA = policy.Actor{ID: 5, Role: policy.RoleCustomer}
	customerB = policy.Actor{ID: 7, Role: policy.RoleCustomer}
	adminC    = policy.Actor{ID: 1, Role: policy.RoleAdmin}
)

func newTestService(engine *policy.Engine) (*Service, *mockRepository) {
	repo := newMockRepository()
	authz := shared.NewAuthorizer(engine, nil, nil)
	return NewService(repo, bookingOwners{20: customerA.ID}, authz, nil, nil), repo
}

func pay(booking int64) CreateRequest {
	return CreateRequest{BookingID: booking, Amount: 250, PaymentMethod: "card"}
}

func TestCreate_OnlyBookingOwnerPays(t *testing.T) {
	svc, repo := newTestService(policy.NewEngine())
	ctx := context.Background()

	created, err := svc.Create(ctx, customerA, pay(20), "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, customerA.ID, created.UserID)

	_, err = svc.Create(ctx, customerB, pay(20), "")
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	_, err = svc.Create(ctx, adminC, pay(20), "")
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Len(t, repo.items, 1)
}

func TestCreate_AdminOverride(t *testing.T) {
	svc, _ := newTestService(policy.NewEngine(policy.WithAdminPayments()))

	created, err := svc.Create(context.Background(), adminC, pay(20), "")
	require.NoError(t, err)
	assert.Equal(t, customerA.ID, created.UserID, "payment belongs to the booking owner")
}

func TestCreate_MissingBookingIsNotFound(t *testing.T) {
	svc, _ := newTestService(policy.NewEngine())

	_, err := svc.Create(context.Background(), customerB, pay(99), "")
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NotErrorIs(t, err, httpx.ErrForbidden)
}

func TestCreate_IdempotencyKey(t *testing.T) {
	svc, repo := newTestService(policy.NewEngine())
	ctx := context.Background()

	_, err := svc.Create(ctx, customerA, pay(20), "k-1")
	require.NoError(t, err)
	_, err = svc.Create(ctx, customerA, pay(20), "k-1")
	assert.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	assert.Equal(t, 409, httpx.StatusOf(err))
	assert.Len(t, repo.items, 1)
}

func TestCreate_FailedInsertReleasesKey(t *testing.T) {
	svc, repo := newTestService(policy.NewEngine())
	ctx := context.Background()
	repo.failCreate = errors.New("connection reset")

	_, err := svc.Create(ctx, customerA, pay(20), "k-retry")
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrIdempotencyConflict)
	assert.Empty(t, repo.items)
	assert.Empty(t, repo.keys)

	created, err := svc.Create(ctx, customerA, pay(20), "k-retry")
	require.NoError(t, err)
	assert.Equal(t, customerA.ID, created.UserID)
	assert.Len(t, repo.items, 1)

	_, err = svc.Create(ctx, customerA, pay(20), "k-retry")
	assert.ErrorIs(t, err, shared.ErrIdempotencyConflict)
}

func TestAdminOnlyMutations(t *testing.T) {
	svc, _ := newTestService(policy.NewEngine())
	ctx := context.Background()
	created, err := svc.Create(ctx, customerA, pay(20), "")
	require.NoError(t, err)

	got, err := svc.Get(ctx, customerA, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	_, err = svc.Get(ctx, customerB, created.ID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, _, err = svc.List(ctx, customerA, ListFilter{})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	_, total, err := svc.List(ctx, adminC, ListFilter{Page: shared.NewPageRequest(1, 20)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	completed := StatusCompleted
	_, err = svc.Update(ctx, customerA, created.ID, UpdateRequest{Status: &completed})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	updated, err := svc.Update(ctx, adminC, created.ID, UpdateRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	assert.ErrorIs(t, svc.Delete(ctx, customerA, created.ID), httpx.ErrForbidden)
	assert.NoError(t, svc.Delete(ctx, adminC, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, adminC, created.ID), httpx.ErrNotFound)
}

func TestHandler_IdempotencyHeader(t *testing.T) {
	svc, _ := newTestService(policy.NewEngine())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithActor(req.Context(), customerA)))
		})
	})
	r.Route("/api/v1/payments", NewHandler(nil, svc).MountRoutes)

	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/create", strings.NewReader(body))
		req.Header.Set(IdempotencyHeader, "abc")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	body := `{"booking_id":20,"amount":120.5,"payment_method":"mobile_money"}`
	assert.Equal(t, http.StatusCreated, post(body))
	assert.Equal(t, http.StatusConflict, post(body))
	assert.Equal(t, http.StatusBadRequest, post(`{"booking_id":20,"amount":0,"payment_method":"cheque"}`))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payments/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+strconv.Itoa(1), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
