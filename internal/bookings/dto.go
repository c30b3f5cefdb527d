package bookings

import "github.com/tourdesk/tourdesk/internal/shared"

// CreateRequest is the payload of POST /create.
type CreateRequest struct {
	AccommodationID int64        `json:"accommodation_id" validate:"required,gt=0"`
	StartDate       *shared.Date `json:"start_date" validate:"required"`
	EndDate         *shared.Date `json:"end_date" validate:"required"`
	Guests          int          `json:"guests" validate:"required,gt=0,lte=100"`
}

// UpdateRequest carries a partial update.
type UpdateRequest struct {
	StartDate *shared.Date `json:"start_date"`
	EndDate   *shared.Date `json:"end_date"`
	Guests    *int         `json:"guests" validate:"omitempty,gt=0,lte=100"`
	Status    *Status      `json:"status" validate:"omitempty,oneof=pending confirmed cancelled"`
}

func (req UpdateRequest) apply(b *Booking) {
	if req.StartDate != nil {
		b.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		b.EndDate = *req.EndDate
	}
	if req.Guests != nil {
		b.Guests = *req.Guests
	}
	if req.Status != nil {
		b.Status = *req.Status
	}
}

// ListFilter narrows a listing.
type ListFilter struct {
	UserID          int64
	AccommodationID int64
	Status          Status
	Page            shared.PageRequest
}
