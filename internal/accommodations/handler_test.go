package accommodations

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
	r.Route("/api/v1/accommodations", NewHandler(nil, svc).MountRoutes)
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

const createBody = `{"name":"Lodge","location":"Entebbe","price":80,"description":"Near the lake","start_date":"2025-07-01","end_date":"2025-07-10"}`

func TestHandler_Scenario(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	h := newTestRouter(svc)

	res := send(t, h, customerA, http.MethodPost, "/api/v1/accommodations/create", createBody)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var created struct {
		Accommodation Accommodation `json:"accommodation"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
	assert.Equal(t, int64(5), created.Accommodation.UserID)
	assert.Equal(t, "2025-07-01", created.Accommodation.StartDate.String())
	path := "/api/v1/accommodations/edit/" + strconv.FormatInt(created.Accommodation.ID, 10)

	res = send(t, h, customerB, http.MethodPut, path, `{"price":1}`)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = send(t, h, customerA, http.MethodPatch, path, `{"price":95}`)
	assert.Equal(t, http.StatusOK, res.Code)

	res = send(t, h, adminC, http.MethodDelete, "/api/v1/accommodations/delete/"+strconv.FormatInt(created.Accommodation.ID, 10), "")
	assert.Equal(t, http.StatusOK, res.Code)

	res = send(t, h, adminC, http.MethodGet, "/api/v1/accommodations/"+strconv.FormatInt(created.Accommodation.ID, 10), "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestHandler_CreateConflictAndValidation(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	h := newTestRouter(svc)

	require.Equal(t, http.StatusCreated, send(t, h, customerA, http.MethodPost, "/api/v1/accommodations/create", createBody).Code)
	assert.Equal(t, http.StatusConflict, send(t, h, customerA, http.MethodPost, "/api/v1/accommodations/create", createBody).Code)
	assert.Equal(t, http.StatusBadRequest, send(t, h, customerA, http.MethodPost, "/api/v1/accommodations/create", `{"name":"Only"}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(t, h, customerA, http.MethodGet, "/api/v1/accommodations/abc", "").Code)
}

func TestHandler_RequiresActor(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	h := newTestRouter(svc)

	res := send(t, h, policy.Actor{}, http.MethodGet, "/api/v1/accommodations/", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestHandler_List(t *testing.T) {
	svc, _ := newTestService(newMockRepository())
	h := newTestRouter(svc)
	require.Equal(t, http.StatusCreated, send(t, h, customerA, http.MethodPost, "/api/v1/accommodations/create", createBody).Code)

	res := send(t, h, customerB, http.MethodGet, "/api/v1/accommodations/?page=1&per_page=10", "")
	require.Equal(t, http.StatusOK, res.Code)
	var body struct {
		Total          int             `json:"total"`
		Accommodations []Accommodation `json:"accommodations"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
	assert.Len(t, body.Accommodations, 1)
}
