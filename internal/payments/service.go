package payments

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

const idempotencyModule = "payments"

// BookingLookup returns the ownership view of a booking.
type BookingLookup interface {
	Resource(ctx context.Context, id int64) (*policy.Resource, error)
}

// Service enforces the payment policy around the repository.
type Service struct {
	repo     Repository
	bookings BookingLookup
	authz    *shared.Authorizer
	audit    shared.Auditor
	logger   *slog.Logger
}

// NewService constructs a Service. audit may be nil.
func NewService(repo Repository, bookings BookingLookup, authz *shared.Authorizer, audit shared.Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, bookings: bookings, authz: authz, audit: audit, logger: logger}
}

// Create records a pending payment against a booking. The decision is made
// against the booking, so by default only its owner may pay. A non-empty key
// makes the request idempotent: a repeated key yields a conflict.
func (s *Service) Create(ctx context.Context, actor policy.Actor, req CreateRequest, key string) (*Payment, error) {
	booking, err := s.bookings.Resource(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, policy.ActionCreate, policy.Payment, booking); err != nil {
		return nil, err
	}

	// The key and the payment commit together, so a failed insert leaves the key free.
	var created *Payment
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if key != "" {
			if err := repo.ClaimKey(ctx, key, idempotencyModule); err != nil {
				return err
			}
		}
		p, err := repo.Create(ctx, Payment{
			BookingID:     booking.ID,
			UserID:        booking.OwnerID,
			Amount:        req.Amount,
			PaymentMethod: req.PaymentMethod,
			Status:        StatusPending,
		})
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionCreate, policy.Payment, created.ID))
	return created, nil
}

// Get returns payment id when actor is an admin or the payer.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (*Payment, error) {
	var found *Payment
	err := s.authz.Check(ctx, actor, policy.ActionRead, policy.Payment, func(ctx context.Context) (*policy.Resource, error) {
		p, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		found = p
		return p.resource(), nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// List returns a page of payments. Admin only.
func (s *Service) List(ctx context.Context, actor policy.Actor, filter ListFilter) ([]Payment, int, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ActionReadAll, policy.Payment, nil); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter)
}

// Update changes amount, method or status. Admin only.
func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, req UpdateRequest) (*Payment, error) {
	var updated *Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		var current *Payment
		err := s.authz.Check(ctx, actor, policy.ActionUpdate, policy.Payment, func(ctx context.Context) (*policy.Resource, error) {
			p, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return nil, err
			}
			current = p
			return p.resource(), nil
		})
		if err != nil {
			return err
		}
		req.apply(current)
		updated, err = tx.Update(ctx, *current)
		return err
	})
	if err != nil {
		return nil, err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionUpdate, policy.Payment, id))
	return updated, nil
}

// Delete removes a payment. Admin only.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		err := s.authz.Check(ctx, actor, policy.ActionDelete, policy.Payment, func(ctx context.Context) (*policy.Resource, error) {
			p, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return nil, err
			}
			return p.resource(), nil
		})
		if err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	shared.RecordAudit(ctx, s.audit, s.logger, shared.NewAuditLog(actor, policy.ActionDelete, policy.Payment, id))
	return nil
}
