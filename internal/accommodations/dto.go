package accommodations

import (
	"strings"

	"github.com/tourdesk/tourdesk/internal/shared"
)

// CreateRequest is the payload of POST /create.
type CreateRequest struct {
	Name        string       `json:"name" validate:"required,max=150"`
	Location    string       `json:"location" validate:"required,max=150"`
	Price       float64      `json:"price" validate:"required,gt=0"`
	Description string       `json:"description" validate:"required"`
	Image       *string      `json:"image" validate:"omitempty,url"`
	StartDate   *shared.Date `json:"start_date" validate:"required"`
	EndDate     *shared.Date `json:"end_date" validate:"required"`
	CompanyID   *int64       `json:"company_id" validate:"omitempty,gt=0"`
}

// UpdateRequest carries a partial update; nil fields keep their value.
type UpdateRequest struct {
	Name        *string      `json:"name" validate:"omitempty,min=1,max=150"`
	Location    *string      `json:"location" validate:"omitempty,min=1,max=150"`
	Price       *float64     `json:"price" validate:"omitempty,gt=0"`
	Description *string      `json:"description"`
	Image       *string      `json:"image" validate:"omitempty,url"`
	StartDate   *shared.Date `json:"start_date"`
	EndDate     *shared.Date `json:"end_date"`
	CompanyID   *int64       `json:"company_id" validate:"omitempty,gt=0"`
}

func (req UpdateRequest) apply(a *Accommodation) {
	if req.Name != nil {
		a.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		a.Location = *req.Location
	}
	if req.Price != nil {
		a.Price = *req.Price
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Image != nil {
		a.Image = req.Image
	}
	if req.StartDate != nil {
		a.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		a.EndDate = *req.EndDate
	}
	if req.CompanyID != nil {
		a.CompanyID = req.CompanyID
	}
}

// ListFilter narrows a listing.
type ListFilter struct {
	Location string
	UserID   int64
	Page     shared.PageRequest
}
