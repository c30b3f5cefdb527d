package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/shared"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the verified claims of the current request.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok
}

// BearerToken extracts the credential from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Middleware resolves the bearer credential into an actor before any handler runs.
type Middleware struct {
	service *Service
	logger  *slog.Logger
}

// NewMiddleware constructs a Middleware.
func NewMiddleware(service *Service, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Middleware{service: service, logger: logger}
}

// RequireActor rejects requests without a valid, unrevoked bearer token.
func (m *Middleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := BearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="tourdesk"`)
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		actor, claims, err := m.service.ResolveActor(r.Context(), raw)
		if err != nil {
			if httpx.StatusOf(err) == http.StatusInternalServerError {
				m.logger.ErrorContext(r.Context(), "resolve actor", slog.Any("error", err))
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="tourdesk", error="invalid_token"`)
			httpx.RespondError(w, err)
			return
		}
		ctx := shared.ContextWithActor(r.Context(), actor)
		ctx = context.WithValue(ctx, claimsContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
