package tours

import (
	"strings"

	"github.com/tourdesk/tourdesk/internal/shared"
)

// CreateRequest is the payload of POST /create.
type CreateRequest struct {
	Name         string       `json:"name" validate:"required,max=150"`
	Location     string       `json:"location" validate:"required,max=150"`
	Price        float64      `json:"price" validate:"required,gt=0"`
	Description  string       `json:"description" validate:"required"`
	Image        *string      `json:"image" validate:"omitempty,url"`
	StartDate    *shared.Date `json:"start_date" validate:"required"`
	EndDate      *shared.Date `json:"end_date" validate:"required"`
	CompanyID    *int64       `json:"company_id" validate:"omitempty,gt=0"`
	MaxGroupSize *int         `json:"max_group_size" validate:"omitempty,gt=0,lte=500"`
}

// UpdateRequest carries a partial update; nil fields keep their value.
type UpdateRequest struct {
	Name         *string      `json:"name" validate:"omitempty,min=1,max=150"`
	Location     *string      `json:"location" validate:"omitempty,min=1,max=150"`
	Price        *float64     `json:"price" validate:"omitempty,gt=0"`
	Description  *string      `json:"description"`
	Image        *string      `json:"image" validate:"omitempty,url"`
	StartDate    *shared.Date `json:"start_date"`
	EndDate      *shared.Date `json:"end_date"`
	CompanyID    *int64       `json:"company_id" validate:"omitempty,gt=0"`
	MaxGroupSize *int         `json:"max_group_size" validate:"omitempty,gt=0,lte=500"`
}

func (req UpdateRequest) apply(t *Tour) {
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		t.Location = *req.Location
	}
	if req.Price != nil {
		t.Price = *req.Price
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Image != nil {
		t.Image = req.Image
	}
	if req.StartDate != nil {
		t.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		t.EndDate = *req.EndDate
	}
	if req.CompanyID != nil {
		t.CompanyID = req.CompanyID
	}
	if req.MaxGroupSize != nil {
		t.MaxGroupSize = req.MaxGroupSize
	}
}

// ListFilter narrows a listing.
type ListFilter struct {
	Location string
	UserID   int64
	Page     shared.PageRequest
}
