package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo        Repository
	tokens      *TokenService
	revocations *RevocationStore
	mailer      shared.Mailer
	logger      *slog.Logger
}

// NewService constructs a new Service. mailer may be nil.
func NewService(repo Repository, tokens *TokenService, revocations *RevocationStore, mailer shared.Mailer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, tokens: tokens, revocations: revocations, mailer: mailer, logger: logger}
}

// RegisterInput is the self service sign up payload.
type RegisterInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Contact   string `json:"contact" validate:"omitempty,max=32"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Role      string `json:"role" validate:"omitempty"`
}

// selfAssignable reports whether a registrant may pick role. Admin and guide
// accounts are provisioned by admins.
func selfAssignable(role policy.Role) bool {
	return role == policy.RoleCustomer || role == policy.RoleAgent
}

// Register creates a customer or agent account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	role := policy.RoleCustomer
	if strings.TrimSpace(input.Role) != "" {
		parsed, err := policy.ParseRole(input.Role)
		if err != nil || !selfAssignable(parsed) {
			return nil, ErrRoleNotAllowed
		}
		role = parsed
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, httpx.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.Create(ctx, NewAccount{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		Contact:      strings.TrimSpace(input.Contact),
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	shared.Notify(ctx, s.mailer, s.logger, shared.Mail{
		To:      account.Email,
		Subject: "Welcome to TourDesk",
		Body:    fmt.Sprintf("Hello %s, your %s account is ready.", account.FirstName, account.Role),
	})
	s.logger.InfoContext(ctx, "account registered", slog.Int64("user_id", account.ID), slog.String("role", string(account.Role)))
	return account, nil
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if !errors.Is(err, httpx.ErrNotFound) {
			s.logger.ErrorContext(ctx, "lookup account", slog.Any("error", err))
		}
		return nil, shared.ErrInvalidCredentials
	}
	if !CheckPassword(account.PasswordHash, password) {
		return nil, shared.ErrInvalidCredentials
	}
	return account, nil
}

// Login authenticates and mints an access token.
func (s *Service) Login(ctx context.Context, email, password string) (Token, *Account, error) {
	account, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return Token{}, nil, err
	}
	token, err := s.tokens.Issue(*account)
	if err != nil {
		return Token{}, nil, err
	}
	return token, account, nil
}

// Logout revokes the token described by claims until it would have expired.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil {
		return shared.ErrNoActor
	}
	return s.revocations.Revoke(ctx, claims.Id, claims.ExpiresAtTime())
}

// ResolveActor verifies a bearer credential and loads the current role of its
// subject. The role is read from the store so role changes apply immediately.
func (s *Service) ResolveActor(ctx context.Context, raw string) (policy.Actor, *Claims, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return policy.Actor{}, nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.Id)
	if err != nil {
		return policy.Actor{}, nil, err
	}
	if revoked {
		return policy.Actor{}, nil, ErrTokenRevoked
	}
	id, err := claims.UserID()
	if err != nil {
		return policy.Actor{}, nil, err
	}
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return policy.Actor{}, nil, ErrTokenInvalid
		}
		return policy.Actor{}, nil, err
	}
	return account.Actor(), claims, nil
}

// Account returns the account of id.
func (s *Service) Account(ctx context.Context, id int64) (*Account, error) {
	return s.repo.FindByID(ctx, id)
}
