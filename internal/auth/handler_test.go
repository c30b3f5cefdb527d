package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourdesk/tourdesk/internal/auth"
	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
	_ "github.com/tourdesk/tourdesk/testing"
)

type stubRepo struct {
	mu       sync.Mutex
	accounts map[int64]*auth.Account
	nextID   int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{accounts: make(map[int64]*auth.Account), nextID: 1}
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.Email, email) {
			out := *acc
			return &out, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	out := *acc
	return &out, nil
}

func (s *stubRepo) Create(_ context.Context, input auth.NewAccount) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := &auth.Account{
		ID:           s.nextID,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Contact:      input.Contact,
		Role:         input.Role,
		PasswordHash: input.PasswordHash,
		CreatedAt:    time.Now(),
	}
	s.accounts[acc.ID] = acc
	s.nextID++
	out := *acc
	return &out, nil
}

type captureMailer struct {
	mails []shared.Mail
}

func (m *captureMailer) Send(_ context.Context, mail shared.Mail) error {
	m.mails = append(m.mails, mail)
	return nil
}

type fixture struct {
	repo    *stubRepo
	tokens  *auth.TokenService
	service *auth.Service
	mailer  *captureMailer
	router  chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newStubRepo()
	tokens := auth.NewTokenService("test-secret", time.Hour, "tourdesk-test")
	mailer := &captureMailer{}
	service := auth.NewService(repo, tokens, auth.NewRevocationStore(client), mailer, nil)
	handler := auth.NewHandler(nil, service, auth.NewMiddleware(service, nil))

	router := chi.NewRouter()
	router.Route("/auth", handler.MountRoutes)
	return &fixture{repo: repo, tokens: tokens, service: service, mailer: mailer, router: router}
}

func (f *fixture) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

func (f *fixture) login(t *testing.T, email, password string) string {
	t.Helper()
	res := f.do(t, http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var body struct {
		Token auth.Token `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token.Value)
	return body.Token.Value
}

// ============================================================================
// REGISTRATION
// ============================================================================

func TestRegisterDefaultsToCustomer(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/auth/register", `{"first_name":"Ada","last_name":"Lovelace","email":"Ada@Example.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	acc, err := f.repo.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, policy.RoleCustomer, acc.Role)
	assert.NotEqual(t, "correct-horse", acc.PasswordHash)
	assert.NotContains(t, res.Body.String(), "password")
	require.Len(t, f.mailer.mails, 1)
	assert.Equal(t, "ada@example.com", f.mailer.mails[0].To)
}

func TestRegisterRejectsPrivilegedRole(t *testing.T) {
	f := newFixture(t)

	for _, role := range []string{"admin", "guide", "root"} {
		res := f.do(t, http.MethodPost, "/auth/register", `{"first_name":"M","last_name":"X","email":"m@example.com","password":"password1","role":"`+role+`"}`, "")
		assert.Equal(t, http.StatusBadRequest, res.Code, role)
	}
	res := f.do(t, http.MethodPost, "/auth/register", `{"first_name":"M","last_name":"X","email":"m@example.com","password":"password1","role":"agent"}`, "")
	assert.Equal(t, http.StatusCreated, res.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	body := `{"first_name":"A","last_name":"B","email":"dup@example.com","password":"password1"}`

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/auth/register", body, "").Code)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/auth/register", body, "").Code)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	res := f.do(t, http.MethodPost, "/auth/register", `{"email":"not-an-email","password":"short"}`, "")
	require.Equal(t, http.StatusBadRequest, res.Code)

	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &problem))
	assert.Contains(t, problem.Errors, "first_name")
	assert.Contains(t, problem.Errors, "email")
	assert.Contains(t, problem.Errors, "password")
}

// ============================================================================
// LOGIN / LOGOUT
// ============================================================================

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Register(context.Background(), auth.RegisterInput{FirstName: "U", LastName: "T", Email: "user@test.local", Password: "correctpass"})
	require.NoError(t, err)

	res := f.do(t, http.MethodPost, "/auth/login", `{"email":"user@test.local","password":"wrongpass"}`, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = f.do(t, http.MethodPost, "/auth/login", `{"email":"nobody@test.local","password":"wrongpass"}`, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginMeLogout(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Register(context.Background(), auth.RegisterInput{FirstName: "U", LastName: "T", Email: "user@test.local", Password: "correctpass"})
	require.NoError(t, err)

	token := f.login(t, "user@test.local", "correctpass")

	res := f.do(t, http.MethodGet, "/auth/me", "", token)
	require.Equal(t, http.StatusOK, res.Code)
	var me auth.Account
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &me))
	assert.Equal(t, "user@test.local", me.Email)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/auth/logout", "", token).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/auth/me", "", token).Code)
}

func TestMeRequiresBearer(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Header().Get("WWW-Authenticate"), "Bearer")

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/auth/me", "", "garbage").Code)
}

func TestResolveActorUsesStoredRole(t *testing.T) {
	f := newFixture(t)
	acc, err := f.service.Register(context.Background(), auth.RegisterInput{FirstName: "G", LastName: "H", Email: "g@test.local", Password: "password1"})
	require.NoError(t, err)
	token, err := f.tokens.Issue(*acc)
	require.NoError(t, err)

	f.repo.accounts[acc.ID].Role = policy.RoleGuide

	actor, claims, err := f.service.ResolveActor(context.Background(), token.Value)
	require.NoError(t, err)
	assert.Equal(t, policy.Actor{ID: acc.ID, Role: policy.RoleGuide}, actor)
	assert.Equal(t, token.ID, claims.Id)

	delete(f.repo.accounts, acc.ID)
	_, _, err = f.service.ResolveActor(context.Background(), token.Value)
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)
}
