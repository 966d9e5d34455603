package model

import (
	"github.com/google/uuid"
)

// Role is the single role a user holds within its clinic
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleReceptionist:
		return true
	}
	return false
}

// AllRoles lists every role, in allow-list order
var AllRoles = []Role{RoleAdmin, RoleDoctor, RoleReceptionist}

// User represents a clinic staff member
type User struct {
	Base
	ClinicID       uuid.UUID `json:"clinic_id" db:"clinic_id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	Role           Role      `json:"role" db:"role"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	Phone          string    `json:"phone,omitempty" db:"phone"`
	Specialization string    `json:"specialization,omitempty" db:"specialization"`
}

// UserFilter represents user search parameters
type UserFilter struct {
	BaseFilter
	Role     Role  `form:"role" binding:"omitempty,oneof=admin doctor receptionist"`
	IsActive *bool `form:"is_active"`
}

// CreateUserRequest represents user creation parameters
type CreateUserRequest struct {
	Name           string `json:"name" binding:"required,max=120"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Role           Role   `json:"role" binding:"required,oneof=admin doctor receptionist"`
	Phone          string `json:"phone" binding:"omitempty,phone"`
	Specialization string `json:"specialization" binding:"max=120"`
}

// UpdateUserRequest represents user update parameters
type UpdateUserRequest struct {
	Name           *string `json:"name" binding:"omitempty,max=120"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone" binding:"omitempty,phone"`
	Specialization *string `json:"specialization" binding:"omitempty,max=120"`
	Role           *Role   `json:"role" binding:"omitempty,oneof=admin doctor receptionist"`
}

// UpdateUserStatusRequest toggles whether a user may sign in
type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
