// Package assignments schedules guides onto tours.
package assignments

import (
	"fmt"
	"time"

	"github.com/tourdesk/tourdesk/internal/platform/httpx"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

var (
	ErrNotFound      = fmt.Errorf("tour assignment: %w", httpx.ErrNotFound)
	ErrTourNotFound  = fmt.Errorf("tour assignment: tour %w", httpx.ErrNotFound)
	ErrGuideNotFound = fmt.Errorf("tour assignment: guide %w", httpx.ErrNotFound)
	ErrNotAGuide     = httpx.Invalid("guide_id", "user is not a tour guide")
	ErrDuplicate     = fmt.Errorf("tour assignment: guide already assigned to this tour on that date: %w", httpx.ErrDuplicate)
)

// Assignment places a guide on a tour for one day. The guide owns it for reads.
type Assignment struct {
	ID             int64       `json:"id"`
	TourID         int64       `json:"tour_id"`
	GuideID        int64       `json:"guide_id"`
	AssignmentDate shared.Date `json:"assignment_date"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (a Assignment) resource() *policy.Resource {
	return policy.Owned(a.ID, a.GuideID)
}
