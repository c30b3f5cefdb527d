package assignments

import "github.com/tourdesk/tourdesk/internal/shared"

// CreateRequest is the payload of POST /create.
type CreateRequest struct {
	TourID         int64        `json:"tour_id" validate:"required,gt=0"`
	GuideID        int64        `json:"guide_id" validate:"required,gt=0"`
	AssignmentDate *shared.Date `json:"assignment_date" validate:"required"`
}

// UpdateRequest carries a partial update.
type UpdateRequest struct {
	TourID         *int64       `json:"tour_id" validate:"omitempty,gt=0"`
	GuideID        *int64       `json:"guide_id" validate:"omitempty,gt=0"`
	AssignmentDate *shared.Date `json:"assignment_date"`
}

func (req UpdateRequest) apply(a *Assignment) {
	if req.TourID != nil {
		a.TourID = *req.TourID
	}
	if req.GuideID != nil {
		a.GuideID = *req.GuideID
	}
	if req.AssignmentDate != nil {
		a.AssignmentDate = *req.AssignmentDate
	}
}

// ListFilter narrows a listing.
type ListFilter struct {
	TourID  int64
	GuideID int64
	Page    shared.PageRequest
}
