// Package payments records payments made against bookings.
package payments

import (
	"fmt"
	"time"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
)

var (
	ErrNotFound        = fmt.Errorf("payment: %w", httpx.ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("payment: booking %w", httpx.ErrNotFound)
)

// Status tracks settlement of a payment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Payment is money recorded against a booking. UserID is the booking owner.
type Payment struct {
	ID            int64     `json:"id"`
	BookingID     int64     `json:"booking_id"`
	UserID        int64     `json:"user_id"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p Payment) resource() *policy.Resource {
	return policy.Owned(p.ID, p.UserID)
}
