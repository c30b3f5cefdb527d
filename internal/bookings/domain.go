// Package bookings records reservations of accommodations by users.
package bookings

import (
	"fmt"
	"time"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

var (
	ErrNotFound              = fmt.Errorf("booking: %w", httpx.ErrNotFound)
	ErrAccommodationNotFound = fmt.Errorf("booking: accommodation %w", httpx.ErrNotFound)
	ErrInUse                 = fmt.Errorf("booking: referenced by payments: %w", httpx.ErrConflict)
	ErrStatusChange          = fmt.Errorf("booking: only admins may confirm bookings: %w", httpx.ErrForbidden)
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Booking is a reservation of an accommodation for a date range.
type Booking struct {
	ID              int64       `json:"id"`
	AccommodationID int64       `json:"accommodation_id"`
	UserID          int64       `json:"user_id"`
	StartDate       shared.Date `json:"start_date"`
	EndDate         shared.Date `json:"end_date"`
	Guests          int         `json:"guests"`
	Status          Status      `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (b Booking) resource() *policy.Resource {
	return policy.Owned(b.ID, b.UserID)
}
