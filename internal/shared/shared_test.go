package shared

import (
	"context"
	"errors"
	"math"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
)

type recordingObserver struct {
	allowed, denied int
}

func (o *recordingObserver) ObserveDecision(_ policy.ResourceType, _ policy.Action, allowed bool) {
	if allowed {
		o.allowed++
		return
	}
	o.denied++
}

type execRecorder struct {
	sql  []string
	args [][]any
	err  error
}

func (e *execRecorder) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql = append(e.sql, sql)
	e.args = append(e.args, args)
	if e.err != nil {
		return pgconn.CommandTag{}, e.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (e *execRecorder) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (e *execRecorder) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

// ============================================================================
// AUTHORIZER
// ============================================================================

func TestAuthorizer_Authorize(t *testing.T) {
	obs := &recordingObserver{}
	authz := NewAuthorizer(policy.NewEngine(), nil, obs)
	ctx := context.Background()
	owner := policy.Actor{ID: 5, Role: policy.RoleCustomer}
	other := policy.Actor{ID: 7, Role: policy.RoleCustomer}
	res := policy.Owned(1, owner.ID)

	require.NoError(t, authz.Authorize(ctx, owner, policy.ActionUpdate, policy.Tour, res))
	err := authz.Authorize(ctx, other, policy.ActionUpdate, policy.Tour, res)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Equal(t, 1, obs.allowed)
	assert.Equal(t, 1, obs.denied)
}

func TestAuthorizer_CheckSkipsLoadWhenRoleDenies(t *testing.T) {
	authz := NewAuthorizer(policy.NewEngine(), nil, nil)
	guide := policy.Actor{ID: 9, Role: policy.RoleGuide}
	called := false

	err := authz.Check(context.Background(), guide, policy.ActionDelete, policy.Payment, func(context.Context) (*policy.Resource, error) {
		called = true
		return policy.Owned(1, guide.ID), nil
	})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	assert.False(t, called)
}

func TestAuthorizer_CheckReportsNotFoundBeforeOwnership(t *testing.T) {
	authz := NewAuthorizer(policy.NewEngine(), nil, nil)
	stranger := policy.Actor{ID: 7, Role: policy.RoleCustomer}

	err := authz.Check(context.Background(), stranger, policy.ActionUpdate, policy.Accommodation, func(context.Context) (*policy.Resource, error) {
		return nil, httpx.ErrNotFound
	})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.NotErrorIs(t, err, httpx.ErrForbidden)
}

func TestAuthorizer_CheckOwnership(t *testing.T) {
	authz := NewAuthorizer(policy.NewEngine(), nil, nil)
	load := func(context.Context) (*policy.Resource, error) { return policy.Owned(3, 9), nil }

	assert.NoError(t, authz.Check(context.Background(), policy.Actor{ID: 9, Role: policy.RoleGuide}, policy.ActionRead, policy.TourAssignment, load))
	assert.ErrorIs(t, authz.Check(context.Background(), policy.Actor{ID: 10, Role: policy.RoleGuide}, policy.ActionRead, policy.TourAssignment, load), httpx.ErrForbidden)
}

func TestRequireActor(t *testing.T) {
	_, err := RequireActor(context.Background())
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)

	ctx := ContextWithActor(context.Background(), policy.Actor{ID: 4, Role: policy.RoleAgent})
	actor, err := RequireActor(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), actor.ID)
}

// ============================================================================
// AUDIT / IDEMPOTENCY
// ============================================================================

func TestAuditLogger_Record(t *testing.T) {
	rec := &execRecorder{}
	logger := NewAuditLogger(rec)
	entry := NewAuditLog(policy.Actor{ID: 2, Role: policy.RoleAdmin}, policy.ActionDelete, policy.Tour, 14)

	require.NoError(t, logger.Record(context.Background(), entry))
	require.Len(t, rec.args, 1)
	assert.Equal(t, int64(2), rec.args[0][0])
	assert.Equal(t, "delete", rec.args[0][1])
	assert.Equal(t, "tour", rec.args[0][2])
	assert.Equal(t, "14", rec.args[0][3])

	assert.Error(t, logger.Record(context.Background(), AuditLog{Action: "x"}))
}

func TestIdempotencyStore_Conflict(t *testing.T) {
	rec := &execRecorder{err: &pgconn.PgError{Code: "23505"}}
	store := NewIdempotencyStore(rec)

	err := store.CheckAndInsert(context.Background(), "key-1", "payments")
	assert.ErrorIs(t, err, ErrIdempotencyConflict)
	assert.ErrorIs(t, err, httpx.ErrDuplicate)

	assert.Error(t, store.CheckAndInsert(context.Background(), "", "payments"))
}

// ============================================================================
// PAGINATION
// ============================================================================

func TestPageFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/?page=3&per_page=500", nil)
	page := PageFromRequest(req)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 100, page.PerPage)
	assert.Equal(t, 200, page.Offset())

	req = httptest.NewRequest("GET", "/?page=abc", nil)
	page = PageFromRequest(req)
	assert.Equal(t, PageRequest{Page: 1, PerPage: 20}, page)

	meta := NewPagination(2, 20, 41)
	assert.Equal(t, 3, meta.TotalPages)
}

func TestPageRequest_HugePageStaysInRange(t *testing.T) {
	req := httptest.NewRequest("GET", "/?per_page=100&page="+strconv.Itoa(math.MaxInt), nil)
	page := PageFromRequest(req)
	assert.Equal(t, maxPage, page.Page)
	assert.Positive(t, page.Offset())
	assert.LessOrEqual(t, page.Offset(), math.MaxInt32)

	raw := PageRequest{Page: math.MaxInt, PerPage: math.MaxInt}
	assert.Positive(t, raw.Offset())
	assert.LessOrEqual(t, raw.Offset(), math.MaxInt32)
	assert.Zero(t, PageRequest{}.Offset())
}
