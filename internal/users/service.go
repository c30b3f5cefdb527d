package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tourdesk/tourdesk/internal/auth"
	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// Service enforces the user, customer and guide policies around the repository.
type Service struct {
	repo   Repository
	authz  *shared.Authorizer
	audit  shared.Auditor
	mailer shared.Mailer
	logger *slog.Logger
}

// NewService constructs a Service. audit and mailer may be nil.
func NewService(repo Repository, authz *shared.Authorizer, audit shared.Auditor, mailer shared.Mailer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, authz: authz, audit: audit, mailer: mailer, logger: logger}
}

func loader(repo Repository, kind Kind, id int64, forUpdate bool, into **User) shared.Loader {
	return func(ctx context.Context) (*policy.Resource, error) {
		get := repo.Get
		if forUpdate {
			get = repo.GetForUpdate
		}
		u, err := get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !kind.matches(u) {
			return nil, kind.notFound()
		}
		if into != nil {
			*into = u
		}
		return u.resource(), nil
	}
}

// Get returns user id seen through kind.
func (s *Service) Get(ctx context.Context, actor policy.Actor, kind Kind, id int64) (*User, error) {
	var found *User
	if err := s.authz.Check(ctx, actor, policy.ActionRead, kind.Type, loader(s.repo, kind, id, false, &found)); err != nil {
		return nil, err
	}
	return found, nil
}

// List returns a page of users of kind.
func (s *Service) List(ctx context.Context, actor policy.Actor, kind Kind, page shared.PageRequest) ([]User, int, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ActionReadAll, kind.Type, nil); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, ListFilter{Role: kind.Role, Page: page})
}

// GuideDirectory lists guides for any authenticated actor.
func (s *Service) GuideDirectory(ctx context.Context, actor policy.Actor, page shared.PageRequest) ([]User, int, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ActionSearch, policy.User, nil); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, ListFilter{Role: policy.RoleGuide, Page: page})
}

// Search matches users by name. An empty result is reported as not found.
func (s *Service) Search(ctx context.Context, actor policy.Actor, filter SearchFilter) ([]User, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ActionSearch, policy.User, nil); err != nil {
		return nil, err
	}
	filter.Query = strings.TrimSpace(filter.Query)
	found, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNoMatches
	}
	return found, nil
}

// CreateGuide registers a tour guide account and sends a welcome mail. Admin only.
func (s *Service) CreateGuide(ctx context.Context, actor policy.Actor, req CreateGuideRequest) (*User, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ActionCreate, policy.Guide, nil); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.repo.ExistsByEmail(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	languages := req.Languages
	if languages == nil {
		languages = []string{}
	}
	created, err := s.repo.Create(ctx, User{
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           email,
		Contact:         req.Contact,
		Role:            policy.RoleGuide,
		Biography:       req.Biography,
		Languages:       languages,
		ExperienceYears: req.ExperienceYears,
		PasswordHash:    hash,
	})
	if err != nil {
		return nil, err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionCreate, policy.Guide, created.ID))
	shared.Notify(ctx, s.mailer, s.logger, shared.Mail{
		To:      created.Email,
		Subject: "Welcome to the guide team",
		Body:    fmt.Sprintf("Hello %s, an account has been created for you. Sign in with this email address to see your tour assignments.", created.FullName()),
	})
	return created, nil
}

// Update applies req to user id seen through kind.
func (s *Service) Update(ctx context.Context, actor policy.Actor, kind Kind, id int64, req UpdateRequest) (*User, error) {
	var (
		updated     *User
		roleChanged bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		var current *User
		if err := s.authz.Check(ctx, actor, policy.ActionUpdate, kind.Type, loader(tx, kind, id, true, &current)); err != nil {
			return err
		}

		if req.Role != nil {
			role, err := policy.ParseRole(*req.Role)
			if err != nil {
				return httpx.Invalid("role", "must be one of admin guide customer agent")
			}
			if role != current.Role {
				if err := s.authz.Authorize(ctx, actor, policy.ActionChangeRole, policy.User, current.resource()); err != nil {
					return err
				}
				current.Role = role
				roleChanged = true
			}
		}

		previous := *current
		req.apply(current)
		current.Email = strings.ToLower(strings.TrimSpace(current.Email))
		if !strings.EqualFold(previous.Email, current.Email) {
			taken, err := tx.ExistsByEmail(ctx, current.Email, current.ID)
			if err != nil {
				return err
			}
			if taken {
				return ErrEmailTaken
			}
		}
		if current.Contact != "" && current.Contact != previous.Contact {
			taken, err := tx.ExistsByContact(ctx, current.Contact, current.ID)
			if err != nil {
				return err
			}
			if taken {
				return ErrContactTaken
			}
		}
		if req.Password != nil {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				return err
			}
			current.PasswordHash = hash
		}

		var err error
		updated, err = tx.Update(ctx, *current)
		return err
	})
	if err != nil {
		return nil, err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionUpdate, kind.Type, id))
	if roleChanged {
		shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionChangeRole, policy.User, id))
	}
	return updated, nil
}

// Delete removes user id seen through kind.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, kind Kind, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := s.authz.Check(ctx, actor, policy.ActionDelete, kind.Type, loader(tx, kind, id, true, nil)); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionDelete, kind.Type, id))
	return nil
}

// Email returns the address of user id for notifications.
func (s *Service) Email(ctx context.Context, id int64) (string, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

// Role returns the role of user id.
func (s *Service) Role(ctx context.Context, id int64) (policy.Role, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}
