package transport

import (
	"time"

	"github.com/google/uuid"
)

// LeadStatus defines the engagement temperature of a lead
type LeadStatus string

const (
	LeadStatusNew  LeadStatus = "New"
	LeadStatusWarm LeadStatus = "Warm"
	LeadStatusHot  LeadStatus = "Hot"
	LeadStatusCold LeadStatus = "Cold"
)

// CreateLeadRequest is the request body for creating a lead
type CreateLeadRequest struct {
	Name     string     `json:"name" validate:"required,min=1,max=200"`
	Phone    string     `json:"phone" validate:"required,min=5,max=30"`
	Email    string     `json:"email,omitempty" validate:"omitempty,email"`
	Status   LeadStatus `json:"status,omitempty" validate:"omitempty,oneof=New Warm Hot Cold"`
	Source   string     `json:"source,omitempty" validate:"max=100"`
	Region   string     `json:"region,omitempty" validate:"max=100"`
	Company  string     `json:"company,omitempty" validate:"max=200"`
	Industry string     `json:"industry,omitempty" validate:"max=100"`
	Notes    string     `json:"notes,omitempty" validate:"max=5000"`
}

// UpdateLeadRequest is the request body for updating a lead
type UpdateLeadRequest struct {
	Name     *string     `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone    *string     `json:"phone,omitempty" validate:"omitempty,min=5,max=30"`
	Email    *string     `json:"email,omitempty" validate:"omitempty,email"`
	Status   *LeadStatus `json:"status,omitempty" validate:"omitempty,oneof=New Warm Hot Cold"`
	Source   *string     `json:"source,omitempty" validate:"omitempty,max=100"`
	Region   *string     `json:"region,omitempty" validate:"omitempty,max=100"`
	Company  *string     `json:"company,omitempty" validate:"omitempty,max=200"`
	Industry *string     `json:"industry,omitempty" validate:"omitempty,max=100"`
	Notes    *string     `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// ListLeadsRequest is the query parameters for listing leads
type ListLeadsRequest struct {
	Status   *LeadStatus `form:"status" validate:"omitempty,oneof=New Warm Hot Cold"`
	Search   string      `form:"search" validate:"max=200"`
	Page     int         `form:"page" validate:"min=0"`
	PageSize int         `form:"pageSize" validate:"min=0,max=100"`
}

// LeadResponse is the response body for a lead
type LeadResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email,omitempty"`
	Status    LeadStatus `json:"status"`
	Source    string     `json:"source,omitempty"`
	Region    string     `json:"region,omitempty"`
	Company   string     `json:"company,omitempty"`
	Industry  string     `json:"industry,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// LeadListResponse is the paginated response for listing leads
type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// ImportRowError describes a CSV row that could not be imported
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a CSV import
type ImportResult struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}
