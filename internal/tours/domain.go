// Package tours manages guided tour offerings owned by the user who created them.
package tours

import (
	"fmt"
	"time"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

var (
	ErrNotFound      = fmt.Errorf("tour: %w", httpx.ErrNotFound)
	ErrDuplicateName = fmt.Errorf("tour: you already created a tour with this name: %w", httpx.ErrDuplicate)
	ErrInUse         = fmt.Errorf("tour: referenced by tour assignments: %w", httpx.ErrConflict)
)

// Tour is a scheduled guided trip.
type Tour struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Location     string      `json:"location"`
	Price        float64     `json:"price"`
	Description  string      `json:"description"`
	Image        *string     `json:"image,omitempty"`
	StartDate    shared.Date `json:"start_date"`
	EndDate      shared.Date `json:"end_date"`
	MaxGroupSize *int        `json:"max_group_size,omitempty"`
	CompanyID    *int64      `json:"company_id,omitempty"`
	UserID       int64       `json:"user_id"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (a Tour) resource() *policy.Resource {
	return policy.Owned(a.ID, a.UserID)
}
