package assignments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// TourLookup confirms that a tour exists.
type TourLookup interface {
	Exists(ctx context.Context, id int64) error
}

// GuideLookup reports the role of a user.
type GuideLookup interface {
	Role(ctx context.Context, userID int64) (policy.Role, error)
}

// Service enforces the assignment policy around the repository.
type Service struct {
	repo   Repository
	tours  TourLookup
	guides GuideLookup
	authz  *shared.Authorizer
	audit  shared.Auditor
	logger *slog.Logger
}

// NewService constructs a Service. audit may be nil.
func NewService(repo Repository, tours TourLookup, guides GuideLookup, authz *shared.Authorizer, audit shared.Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, tours: tours, guides: guides, authz: authz, audit: audit, logger: logger}
}

// Create assigns a guide to a tour. Admin only.
func (s *Service) Create(ctx context.Context, actor policy.Actor, req CreateRequest) (*Assignment, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ActionCreate, policy.TourAssignment, nil); err != nil {
		return nil, err
	}
	entity := Assignment{TourID: req.TourID, GuideID: req.GuideID, AssignmentDate: *req.AssignmentDate}
	if err := s.checkReferences(ctx, entity); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, entity)
	if err != nil {
		return nil, err
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionCreate, policy.TourAssignment, created.ID))
	return created, nil
}

func (s *Service) checkReferences(ctx context.Context, a Assignment) error {
	if err := s.tours.Exists(ctx, a.TourID); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return ErrTourNotFound
		}
		return err
	}
	role, err := s.guides.Role(ctx, a.GuideID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return ErrGuideNotFound
		}
		return fmt.Errorf("tour assignment: guide lookup: %w", err)
	}
	if role != policy.RoleGuide {
		return ErrNotAGuide
	}
	return nil
}

// Get returns assignment id when actor is an admin or the assigned guide.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (*Assignment, error) {
	var found *Assignment
	err := s.authz.Check(ctx, actor, policy.ActionRead, policy.TourAssignment, func(ctx context.Context) (*policy.Resource, error) {
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

// List returns a page of assignments. Admin only.
func (s *Service) List(ctx context.Context, actor policy.Actor, filter ListFilter) ([]Assignment, int, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ActionReadAll, policy.TourAssignment, nil); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter)
}

// Update moves an assignment to another tour, guide or date. Admin only.
func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, req UpdateRequest) (*Assignment, error) {
	var updated *Assignment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		var current *Assignment
		err := s.authz.Check(ctx, actor, policy.ActionUpdate, policy.TourAssignment, func(ctx context.Context) (*policy.Resource, error) {
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
		req.apply(current)
		if req.TourID != nil || req.GuideID != nil {
			if err := s.checkReferences(ctx, *current); err != nil {
				return err
			}
		}
		updated, err = tx.Update(ctx, *current)
		return err
	})
	if err != nil {
		return nil, err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionUpdate, policy.TourAssignment, id))
	return updated, nil
}

// Delete removes an assignment. Admin only.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		err := s.authz.Check(ctx, actor, policy.ActionDelete, policy.TourAssignment, func(ctx context.Context) (*policy.Resource, error) {
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

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionDelete, policy.TourAssignment, id))
	return nil
}
