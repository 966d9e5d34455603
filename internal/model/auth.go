package model

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Principal is the authenticated identity attached to a request.
// It is built per request from the stored user and never persisted.
type Principal struct {
	UserID   uuid.UUID
	ClinicID uuid.UUID
	Role     Role
	Name     string
	Email    string
}

// HasRole reports whether the principal's role is in roles
func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// CanAccessOwnedBy applies the ownership rule: doctors only reach records
// they own, admins and receptionists reach everything in the clinic.
func (p Principal) CanAccessOwnedBy(doctorID *uuid.UUID) bool {
	if p.Role != RoleDoctor {
		return true
	}
	return doctorID != nil && *doctorID == p.UserID
}

// TenantScope is the mandatory filter every repository call takes
type TenantScope struct {
	ClinicID uuid.UUID
}

// RequestContext is what protected handlers receive
type RequestContext struct {
	Principal Principal
	Scope     TenantScope
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"user_id"`
	ClinicID uuid.UUID `json:"clinic_id"`
	Role     Role      `json:"role"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
}

type LoginRequest struct {
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required"`
	ClinicID *uuid.UUID `json:"clinic_id"`
}

// RegisterRequest creates a clinic together with its first admin
type RegisterRequest struct {
	ClinicName string `json:"clinic_name" binding:"required,max=200"`
	Name       string `json:"name" binding:"required,max=120"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Phone      string `json:"phone" binding:"omitempty,phone"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	User      *User  `json:"user"`
}
