// Package testutil seeds the memory store for package tests
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
)

func NewStore() *repository.Store {
	return memory.NewStore(memory.NewDB())
}

// Clinic creates a tenant and returns its scope
func Clinic(t *testing.T, store *repository.Store) model.TenantScope {
	t.Helper()
	clinic := &model.Clinic{ID: uuid.New(), Name: "Clinic " + uuid.NewString()[:8], CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Clinics.Create(context.Background(), clinic))
	return model.TenantScope{ClinicID: clinic.ID}
}

// User creates an active staff member with the given role
func User(t *testing.T, store *repository.Store, scope model.TenantScope, role model.Role) *model.User {
	t.Helper()
	user := &model.User{
		Base:     model.NewBase(),
		Name:     string(role) + " " + uuid.NewString()[:6],
		Email:    uuid.NewString()[:8] + "@clinic.test",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, store.Users.Create(context.Background(), scope, user))
	return user
}

// RC builds the request context a protected handler would receive for user
func RC(user *model.User) model.RequestContext {
	return model.RequestContext{
		Principal: model.Principal{
			UserID:   user.ID,
			ClinicID: user.ClinicID,
			Role:     user.Role,
			Name:     user.Name,
			Email:    user.Email,
		},
		Scope: model.TenantScope{ClinicID: user.ClinicID},
	}
}

// Patient creates a patient record
func Patient(t *testing.T, store *repository.Store, scope model.TenantScope, name, phone string, doctor *uuid.UUID) *model.Patient {
	t.Helper()
	p := &model.Patient{
		Base:             model.NewBase(),
		PatientID:        "PAT-" + uuid.NewString()[:8],
		Name:             name,
		Phone:            phone,
		AssignedDoctorID: doctor,
	}
	require.NoError(t, store.Patients.Create(context.Background(), scope, p))
	return p
}
