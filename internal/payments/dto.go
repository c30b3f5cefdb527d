package payments

import "github.com/tourdesk/tourdesk/internal/shared"

// CreateRequest is the payload of POST /create.
type CreateRequest struct {
	BookingID     int64   `json:"booking_id" validate:"required,gt=0"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=card mobile_money cash bank_transfer"`
}

// UpdateRequest carries the fields an admin may change.
type UpdateRequest struct {
	Amount        *float64 `json:"amount" validate:"omitempty,gt=0"`
	PaymentMethod *string  `json:"payment_method" validate:"omitempty,oneof=card mobile_money cash bank_transfer"`
	Status        *Status  `json:"status" validate:"omitempty,oneof=pending completed failed refunded"`
}

func (req UpdateRequest) apply(p *Payment) {
	if req.Amount != nil {
		p.Amount = *req.Amount
	}
	if req.PaymentMethod != nil {
		p.PaymentMethod = *req.PaymentMethod
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
}

// ListFilter narrows a listing.
type ListFilter struct {
	BookingID int64
	Status    Status
	Page      shared.PageRequest
}
