package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourdesk/tourdesk/internal/observability"
	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
	"github.com/tourdesk/tourdesk/jobs"
)

func headerActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		actor := policy.Actor{ID: id, Role: policy.Role(r.Header.Get("X-Actor-Role"))}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

func newTestRouter(engine *policy.Engine) http.Handler {
	return newTestRouterWithMetrics(engine, observability.NewMetrics())
}

func newTestRouterWithMetrics(engine *policy.Engine, metrics *observability.Metrics) http.Handler {
	if engine == nil {
		engine = policy.NewEngine()
	}
	return NewRouter(RouterParams{
		Config:       &Config{RateLimitPerMinute: 1000},
		Metrics:      metrics,
		Authorizer:   shared.NewAuthorizer(engine, nil, metrics),
		RequireActor: headerActor,
		JobHandler:   jobs.NewHandler(nil, nil),
	})
}

func get(t *testing.T, h http.Handler, path string, actor *policy.Actor) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "203.0.113.10:5000"
	if actor != nil {
		req.Header.Set("X-Actor-ID", strconv.FormatInt(actor.ID, 10))
		req.Header.Set("X-Actor-Role", string(actor.Role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicEndpoints(t *testing.T) {
	router := newTestRouter(policy.NewEngine())

	rec := get(t, router, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"API is running"}`, rec.Body.String())

	rec = get(t, router, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Frame-Options"))

	rec = get(t, router, "/jobs/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, router, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tourdesk_http_requests_total")
}

func TestRouter_PolicyCatalogue(t *testing.T) {
	router := newTestRouter(policy.NewEngine(policy.WithAdminPayments()))

	rec := get(t, router, "/api/v1/policy", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(t, router, "/api/v1/policy", &policy.Actor{ID: 5, Role: policy.RoleCustomer})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = get(t, router, "/api/v1/policy", &policy.Actor{ID: 1, Role: policy.RoleAdmin})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Resources []struct {
			Type      string            `json:"type"`
			Rules     map[string]string `json:"rules"`
			Effective map[string]string `json:"effective"`
		} `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Resources, len(policy.Types()))

	for _, res := range body.Resources {
		if res.Type != string(policy.Payment) {
			continue
		}
		assert.Equal(t, "owner", res.Rules["create"])
		assert.Equal(t, "admin_or_owner", res.Effective["create"])
	}
}

func TestRouter_PolicyCatalogueDenialIsCounted(t *testing.T) {
	metrics := observability.NewMetrics()
	router := newTestRouterWithMetrics(policy.NewEngine(), metrics)

	rec := get(t, router, "/api/v1/policy", &policy.Actor{ID: 5, Role: policy.RoleCustomer})
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = get(t, router, "/api/v1/policy", &policy.Actor{ID: 1, Role: policy.RoleAdmin})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, router, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tourdesk_authz_decisions_total{action="read",decision="deny",resource="policy"} 1`)
	assert.Contains(t, rec.Body.String(), `tourdesk_authz_decisions_total{action="read",decision="allow",resource="policy"} 1`)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(nil)
	rec := get(t, router, "/api/v1/invoices", &policy.Actor{ID: 1, Role: policy.RoleAdmin})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
