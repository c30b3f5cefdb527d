package users

import (
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// UpdateRequest carries a partial profile update. Role changes need the
// change_role permission; a password is re-hashed before storage.
type UpdateRequest struct {
	FirstName       *string  `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName        *string  `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email           *string  `json:"email" validate:"omitempty,email"`
	Contact         *string  `json:"contact" validate:"omitempty,max=30"`
	Biography       *string  `json:"biography" validate:"omitempty,max=2000"`
	Languages       []string `json:"languages" validate:"omitempty,dive,min=2,max=40"`
	ExperienceYears *int     `json:"experience_years" validate:"omitempty,gte=0,lte=80"`
	Role            *string  `json:"role"`
	Password        *string  `json:"password" validate:"omitempty,min=8,max=72"`
}

func (req UpdateRequest) apply(u *User) {
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Contact != nil {
		u.Contact = *req.Contact
	}
	if req.Biography != nil {
		u.Biography = *req.Biography
	}
	if req.Languages != nil {
		u.Languages = req.Languages
	}
	if req.ExperienceYears != nil {
		u.ExperienceYears = req.ExperienceYears
	}
}

// CreateGuideRequest is the payload of POST /tour-guides/create.
type CreateGuideRequest struct {
	FirstName       string   `json:"first_name" validate:"required,max=100"`
	LastName        string   `json:"last_name" validate:"required,max=100"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required,min=8,max=72"`
	Contact         string   `json:"contact" validate:"omitempty,max=30"`
	Biography       string   `json:"biography" validate:"omitempty,max=2000"`
	Languages       []string `json:"languages" validate:"omitempty,dive,min=2,max=40"`
	ExperienceYears *int     `json:"experience_years" validate:"omitempty,gte=0,lte=80"`
}

// ListFilter narrows a listing to one role.
type ListFilter struct {
	Role policy.Role
	Page shared.PageRequest
}

// SearchFilter matches first or last name, optionally within one role.
type SearchFilter struct {
	Query string
	Role  policy.Role
}
