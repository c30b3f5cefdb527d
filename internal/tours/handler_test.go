package tours

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

func newTestRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id, _ := strconv.ParseInt(req.Header.Get("X-Actor-ID"), 10, 64)
			if id > 0 {
				actor := policy.Actor{ID: id, Role: policy.Role(req.Header.Get("X-Actor-Role"))}
				req = req.WithContext(shared.ContextWithActor(req.Context(), actor))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api/v1/tours", NewHandler(nil, svc).MountRoutes)
	return r
}

func send(t *testing.T, h http.Handler, actor policy.Actor, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if actor.ID > 0 {
		req.Header.Set("X-Actor-ID", strconv.FormatInt(actor.ID, 10))
		req.Header.Set("X-Actor-Role", string(actor.Role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const createBody = `{"name":"Murchison Falls","location":"Masindi","price":450,"description":"Boat safari","start_date":"2025-09-10","end_date":"2025-09-12","max_group_size":6}`

func TestHandler_OwnerOnlyEdits(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	h := newTestRouter(svc)

	res := send(t, h, customerA, http.MethodPost, "/api/v1/tours/create", createBody)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var created struct {
		Message string `json:"message"`
		Tour    Tour   `json:"tour"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
	assert.Contains(t, created.Message, "Murchison Falls")
	id := strconv.FormatInt(created.Tour.ID, 10)

	assert.Equal(t, http.StatusForbidden, send(t, h, customerB, http.MethodPatch, "/api/v1/tours/edit/"+id, `{"price":10}`).Code)
	assert.Equal(t, http.StatusForbidden, send(t, h, customerB, http.MethodDelete, "/api/v1/tours/delete/"+id, "").Code)
	assert.Equal(t, http.StatusOK, send(t, h, customerB, http.MethodGet, "/api/v1/tours/"+id, "").Code)
	assert.Equal(t, http.StatusOK, send(t, h, customerA, http.MethodDelete, "/api/v1/tours/delete/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, send(t, h, customerA, http.MethodDelete, "/api/v1/tours/delete/"+id, "").Code)
}

func TestHandler_Validation(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	h := newTestRouter(svc)

	res := send(t, h, customerA, http.MethodPost, "/api/v1/tours/create", `{"name":"X","max_group_size":0,"start_date":"soon"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, http.StatusUnauthorized, send(t, h, policy.Actor{}, http.MethodGet, "/api/v1/tours/", "").Code)
}
