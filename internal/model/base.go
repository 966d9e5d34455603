package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// DateLayout is the wire and storage format for calendar dates
	DateLayout = "2006-01-02"
	// TimeLayout is the wire and storage format for appointment times
	TimeLayout = "15:04"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewBase stamps a fresh id and timestamps
func NewBase() Base {
	now := time.Now().UTC()
	return Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch bumps UpdatedAt
func (b *Base) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page" binding:"omitempty,min=1"`
	PageSize int `json:"page_size" form:"page_size" binding:"omitempty,min=1"`
}

// Normalize applies defaults and caps the page size
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit is PageSize, or -1 when the pagination was never set
func (p Pagination) Limit() int {
	if p.PageSize == 0 {
		return -1
	}
	return p.PageSize
}

// BaseFilter contains common filter fields
type BaseFilter struct {
	SearchTerm string `form:"search"`
	Pagination
}
