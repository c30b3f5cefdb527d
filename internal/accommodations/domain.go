// Package accommodations manages lodging listings owned by the user who created them.
package accommodations

import (
	"fmt"
	"time"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

var (
	ErrNotFound      = fmt.Errorf("accommodation: %w", httpx.ErrNotFound)
	ErrDuplicateName = fmt.Errorf("accommodation: you already created an accommodation with this name: %w", httpx.ErrDuplicate)
	ErrInUse         = fmt.Errorf("accommodation: referenced by bookings: %w", httpx.ErrConflict)
)

// Accommodation is a lodging listing.
type Accommodation struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Location    string      `json:"location"`
	Price       float64     `json:"price"`
	Description string      `json:"description"`
	Image       *string     `json:"image,omitempty"`
	StartDate   shared.Date `json:"start_date"`
	EndDate     shared.Date `json:"end_date"`
	CompanyID   *int64      `json:"company_id,omitempty"`
	UserID      int64       `json:"user_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (a Accommodation) resource() *policy.Resource {
	return policy.Owned(a.ID, a.UserID)
}
