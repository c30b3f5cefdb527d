package tours

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// Service enforces the tour policy around the repository.
type Service struct {
	repo   Repository
	authz  *shared.Authorizer
	audit  shared.Auditor
	logger *slog.Logger
}

// NewService constructs a Service. audit may be nil.
func NewService(repo Repository, authz *shared.Authorizer, audit shared.Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, authz: authz, audit: audit, logger: logger}
}

// Create stores a new tour owned by actor.
func (s *Service) Create(ctx context.Context, actor policy.Actor, req CreateRequest) (*Tour, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ActionCreate, policy.Tour, nil); err != nil {
		return nil, err
	}
	if err := shared.CheckRange(*req.StartDate, *req.EndDate); err != nil {
		return nil, err
	}

	entity := Tour{
		Name:         strings.TrimSpace(req.Name),
		Location:     req.Location,
		Price:        req.Price,
		Description:  req.Description,
		Image:        req.Image,
		StartDate:    *req.StartDate,
		EndDate:      *req.EndDate,
		MaxGroupSize: req.MaxGroupSize,
		CompanyID:    req.CompanyID,
		UserID:       actor.ID,
	}

	var created *Tour
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		exists, err := tx.ExistsByName(ctx, entity.Name, actor.ID, 0)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateName
		}
		created, err = tx.Create(ctx, entity)
		return err
	})
	if err != nil {
		return nil, err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionCreate, policy.Tour, created.ID))
	return created, nil
}

// Get returns one tour.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (*Tour, error) {
	var found *Tour
	err := s.authz.Check(ctx, actor, policy.ActionRead, policy.Tour, func(ctx context.Context) (*policy.Resource, error) {
		a, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		found = a
		return a.resource(), nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// List returns a page of tours.
func (s *Service) List(ctx context.Context, actor policy.Actor, filter ListFilter) ([]Tour, int, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ActionReadAll, policy.Tour, nil); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter)
}

// Update applies req to tour id when actor is an admin or its owner.
func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, req UpdateRequest) (*Tour, error) {
	var updated *Tour
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		var current *Tour
		err := s.authz.Check(ctx, actor, policy.ActionUpdate, policy.Tour, func(ctx context.Context) (*policy.Resource, error) {
			a, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return nil, err
			}
			current = a
			return a.resource(), nil
		})
		if err != nil {
			return err
		}

		previousName := current.Name
		req.apply(current)
		if err := shared.CheckRange(current.StartDate, current.EndDate); err != nil {
			return err
		}
		if !strings.EqualFold(previousName, current.Name) {
			exists, err := tx.ExistsByName(ctx, current.Name, current.UserID, current.ID)
			if err != nil {
				return err
			}
			if exists {
				return ErrDuplicateName
			}
		}
		updated, err = tx.Update(ctx, *current)
		return err
	})
	if err != nil {
		return nil, err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionUpdate, policy.Tour, id))
	return updated, nil
}

// Delete removes tour id when actor is an admin or its owner.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		err := s.authz.Check(ctx, actor, policy.ActionDelete, policy.Tour, func(ctx context.Context) (*policy.Resource, error) {
			a, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return nil, err
			}
			return a.resource(), nil
		})
		if err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionDelete, policy.Tour, id))
	return nil
}

// Exists reports whether tour id exists. Assignment creation uses it
// without applying the read policy.
func (s *Service) Exists(ctx context.Context, id int64) error {
	_, err := s.repo.Get(ctx, id)
	return err
}
