package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

const secret = "test-secret-that-is-long-enough-123"

func newService(t *testing.T) (*Service, *repository.Store) {
	t.Helper()
	store := memory.NewStore(memory.NewDB())
	svc := NewService(store,
		auth.NewJWTService(secret, "clinic-api", time.Hour),
		security.NewBcryptHasher(4),
		email.NewLogService(),
		event.NewEventService(store.Outbox),
	)
	return svc, store
}

func register(t *testing.T, svc *Service, email string) *model.TokenResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &model.RegisterRequest{
		ClinicName: "Sunrise",
		Name:       "Admin",
		Email:      email,
		Password:   "password123",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	reg := register(t, svc, "Admin@Clinic.io")
	assert.Equal(t, model.RoleAdmin, reg.User.Role)
	assert.Equal(t, "admin@clinic.io", reg.User.Email)
	assert.Equal(t, int64(3600), reg.ExpiresIn)

	resp, err := svc.Login(ctx, &model.LoginRequest{Email: "admin@clinic.io", Password: "password123"})
	require.NoError(t, err)

	claims, err := svc.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ClinicID, claims.ClinicID)

	principal, err := svc.LoadPrincipal(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, principal.UserID)
	assert.Equal(t, model.RoleAdmin, principal.Role)

	pending, err := store.Outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.EventUserCreated, pending[0].EventType)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, _ := newService(t)
	register(t, svc, "a@clinic.io")

	_, err := svc.Login(context.Background(), &model.LoginRequest{Email: "a@clinic.io", Password: "wrong-password"})
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	_, err = svc.Login(context.Background(), &model.LoginRequest{Email: "nobody@clinic.io", Password: "password123"})
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestLoginNeedsClinicWhenEmailIsShared(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	first := register(t, svc, "shared@clinic.io")
	register(t, svc, "shared@clinic.io")

	_, err := svc.Login(ctx, &model.LoginRequest{Email: "shared@clinic.io", Password: "password123"})
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	resp, err := svc.Login(ctx, &model.LoginRequest{Email: "shared@clinic.io", Password: "password123", ClinicID: &first.User.ClinicID})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, resp.User.ID)
}

type countingHasher struct {
	security.PasswordHasher
	compares int
}

func (h *countingHasher) Compare(hashed, password string) error {
	h.compares++
	return h.PasswordHasher.Compare(hashed, password)
}

func TestLoginComparesOnceWhenNoCandidateMatchesClinic(t *testing.T) {
	store := memory.NewStore(memory.NewDB())
	hasher := &countingHasher{PasswordHasher: security.NewBcryptHasher(4)}
	svc := NewService(store, auth.NewJWTService(secret, "clinic-api", time.Hour), hasher,
		email.NewLogService(), event.NewEventService(store.Outbox))
	register(t, svc, "elsewhere@clinic.io")

	for _, addr := range []string{"elsewhere@clinic.io", "unknown@clinic.io"} {
		hasher.compares = 0
		other := uuid.New()
		_, err := svc.Login(context.Background(), &model.LoginRequest{Email: addr, Password: "password123", ClinicID: &other})
		assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
		assert.Equal(t, 1, hasher.compares, addr)
	}
}

func TestLoadPrincipalRejectsInactiveAndStaleUsers(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	reg := register(t, svc, "a@clinic.io")
	scope := model.TenantScope{ClinicID: reg.User.ClinicID}

	claims, err := svc.VerifyToken(reg.Token)
	require.NoError(t, err)

	user, err := store.Users.Get(ctx, scope, reg.User.ID)
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, store.Users.Update(ctx, scope, user))

	_, err = svc.LoadPrincipal(ctx, claims)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	assert.ErrorIs(t, err, auth.ErrAccountDisabled)

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "a@clinic.io", Password: "password123"})
	assert.ErrorIs(t, err, auth.ErrAccountDisabled)

	require.NoError(t, store.Users.Delete(ctx, scope, user.ID))
	_, err = svc.LoadPrincipal(ctx, claims)
	assert.ErrorIs(t, err, auth.ErrStaleCredential)
}

func TestLoadPrincipalUsesStoredRole(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	reg := register(t, svc, "a@clinic.io")
	scope := model.TenantScope{ClinicID: reg.User.ClinicID}

	user, err := store.Users.Get(ctx, scope, reg.User.ID)
	require.NoError(t, err)
	user.Role = model.RoleReceptionist
	require.NoError(t, store.Users.Update(ctx, scope, user))

	claims, err := svc.VerifyToken(reg.Token)
	require.NoError(t, err)
	principal, err := svc.LoadPrincipal(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, model.RoleReceptionist, principal.Role)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.VerifyToken("")
	assert.ErrorIs(t, err, auth.ErrNoCredential)

	_, err = svc.VerifyToken("not.a.jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidCredential)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestChangePassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	reg := register(t, svc, "a@clinic.io")
	rc := model.RequestContext{
		Principal: model.Principal{UserID: reg.User.ID, ClinicID: reg.User.ClinicID, Role: model.RoleAdmin},
		Scope:     model.TenantScope{ClinicID: reg.User.ClinicID},
	}

	err := svc.ChangePassword(ctx, rc, &model.ChangePasswordRequest{CurrentPassword: "nope-nope", NewPassword: "newpassword1"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	require.NoError(t, svc.ChangePassword(ctx, rc, &model.ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "newpassword1"}))

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "a@clinic.io", Password: "newpassword1"})
	assert.NoError(t, err)

	me, err := svc.Me(ctx, rc)
	require.NoError(t, err)
	assert.Equal(t, "a@clinic.io", me.Email)
}
