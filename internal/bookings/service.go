package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// AccommodationLookup confirms that a bookable accommodation exists.
type AccommodationLookup interface {
	Exists(ctx context.Context, id int64) error
}

// Directory resolves a user's email address for notifications.
type Directory interface {
	Email(ctx context.Context, userID int64) (string, error)
}

// Service enforces the booking policy around the repository.
type Service struct {
	repo           Repository
	accommodations AccommodationLookup
	authz          *shared.Authorizer
	audit          shared.Auditor
	mailer         shared.Mailer
	directory      Directory
	logger         *slog.Logger
}

// Deps groups the collaborators of a Service. Audit, Mailer and Directory are optional.
type Deps struct {
	Repo           Repository
	Accommodations AccommodationLookup
	Authorizer     *shared.Authorizer
	Audit          shared.Auditor
	Mailer         shared.Mailer
	Directory      Directory
	Logger         *slog.Logger
}

// NewService constructs a Service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:           deps.Repo,
		accommodations: deps.Accommodations,
		authz:          deps.Authorizer,
		audit:          deps.Audit,
		mailer:         deps.Mailer,
		directory:      deps.Directory,
		logger:         logger,
	}
}

// Create books an accommodation for actor. The accommodation must exist.
func (s *Service) Create(ctx context.Context, actor policy.Actor, req CreateRequest) (*Booking, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ActionCreate, policy.Booking, nil); err != nil {
		return nil, err
	}
	if err := shared.CheckRange(*req.StartDate, *req.EndDate); err != nil {
		return nil, err
	}
	if err := s.accommodations.Exists(ctx, req.AccommodationID); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, ErrAccommodationNotFound
		}
		return nil, err
	}

	created, err := s.repo.Create(ctx, Booking{
		AccommodationID: req.AccommodationID,
		UserID:          actor.ID,
		StartDate:       *req.StartDate,
		EndDate:         *req.EndDate,
		Guests:          req.Guests,
		Status:          StatusPending,
	})
	if err != nil {
		return nil, err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionCreate, policy.Booking, created.ID))
	s.notify(ctx, created, "Booking received",
		fmt.Sprintf("Your booking #%d from %s to %s for %d guest(s) has been received.", created.ID, created.StartDate, created.EndDate, created.Guests))
	return created, nil
}

// Get returns booking id when actor is an admin or its owner.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (*Booking, error) {
	var found *Booking
	err := s.authz.Check(ctx, actor, policy.ActionRead, policy.Booking, func(ctx context.Context) (*policy.Resource, error) {
		b, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		found = b
		return b.resource(), nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// List returns a page of bookings.
func (s *Service) List(ctx context.Context, actor policy.Actor, filter ListFilter) ([]Booking, int, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ActionReadAll, policy.Booking, nil); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter)
}

// Update applies req when actor is an admin or the booking owner. Only admins
// may move a booking to confirmed.
func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, req UpdateRequest) (*Booking, error) {
	var (
		updated  *Booking
		previous Status
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		var current *Booking
		err := s.authz.Check(ctx, actor, policy.ActionUpdate, policy.Booking, func(ctx context.Context) (*policy.Resource, error) {
			b, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return nil, err
			}
			current = b
			return b.resource(), nil
		})
		if err != nil {
			return err
		}
		if req.Status != nil && *req.Status == StatusConfirmed && current.Status != StatusConfirmed && !actor.IsAdmin() {
			return ErrStatusChange
		}

		previous = current.Status
		req.apply(current)
		if err := shared.CheckRange(current.StartDate, current.EndDate); err != nil {
			return err
		}
		updated, err = tx.Update(ctx, *current)
		return err
	})
	if err != nil {
		return nil, err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionUpdate, policy.Booking, id))
	if updated.Status != previous {
		s.notify(ctx, updated, "Booking "+string(updated.Status),
			fmt.Sprintf("Your booking #%d is now %s.", updated.ID, updated.Status))
	}
	return updated, nil
}

// Delete removes booking id when actor is an admin or its owner.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		err := s.authz.Check(ctx, actor, policy.ActionDelete, policy.Booking, func(ctx context.Context) (*policy.Resource, error) {
			b, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return nil, err
			}
			return b.resource(), nil
		})
		if err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionDelete, policy.Booking, id))
	return nil
}

// Resource returns the authorization view of booking id without applying the
// read policy. Payment creation decides against it.
func (s *Service) Resource(ctx context.Context, id int64) (*policy.Resource, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.resource(), nil
}

func (s *Service) notify(ctx context.Context, b *Booking, subject, body string) {
	if s.directory == nil {
		return
	}
	email, err := s.directory.Email(ctx, b.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "resolve booking contact", slog.Int64("booking", b.ID), slog.Any("error", err))
		return
	}
	shared.Notify(ctx, s.mailer, s.logger, shared.Mail{To: email, Subject: subject, Body: body})
}
