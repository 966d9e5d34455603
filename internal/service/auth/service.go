package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	tx       repository.TxManager
	clinics  repository.ClinicRepository
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	emailSvc email.Service
	events   *event.EventService

	// dummyHash keeps login timing similar whether or not the email exists
	dummyHash string
}

func NewService(store *repository.Store, jwtSvc auth.JWTService, hasher security.PasswordHasher,
	emailSvc email.Service, events *event.EventService) *Service {
	dummy, _ := hasher.Hash(uuid.NewString())
	return &Service{
		tx:       store.Tx,
		clinics:  store.Clinics,
		userRepo: store.Users,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		emailSvc: emailSvc,
		events:   events,

		dummyHash: dummy,
	}
}

// Register creates a clinic together with its first admin and signs them in
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.Invalid("password", err.Error())
		}
		return nil, apperrors.Internal(err)
	}

	clinic := &model.Clinic{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.ClinicName),
		CreatedAt: time.Now().UTC(),
	}
	user := &model.User{
		Base:         model.NewBase(),
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
		Phone:        req.Phone,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.clinics.Create(ctx, clinic); err != nil {
			return fmt.Errorf("failed to create clinic: %w", err)
		}
		scope := model.TenantScope{ClinicID: clinic.ID}
		if err := s.userRepo.Create(ctx, scope, user); err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		return s.events.Emit(ctx, scope, model.EventUserCreated, user)
	})
	if err != nil {
		return nil, service.RepoError("user", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("clinic_id", clinic.ID.String()).
		Str("user_id", user.ID.String()).
		Msg("clinic registered")

	return s.issue(user)
}

// Login verifies email and password. When the email exists in several
// clinics the caller must name one with ClinicID.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	candidates, err := s.userRepo.FindLoginCandidates(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var matched []*model.User
	compared := 0
	for _, u := range candidates {
		if req.ClinicID != nil && u.ClinicID != *req.ClinicID {
			continue
		}
		compared++
		if s.hasher.Compare(u.PasswordHash, req.Password) == nil {
			matched = append(matched, u)
		}
	}
	// every failed lookup pays for one hash compare
	if compared == 0 {
		_ = s.hasher.Compare(s.dummyHash, req.Password)
	}

	switch {
	case len(matched) == 0:
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	case len(matched) > 1:
		return nil, apperrors.BadRequest("clinic_id is required for this account", nil)
	}

	user := matched[0]
	if !user.IsActive {
		return nil, apperrors.Unauthorized(auth.ErrAccountDisabled)
	}

	zerolog.Ctx(ctx).Info().
		Str("clinic_id", user.ClinicID.String()).
		Str("user_id", user.ID.String()).
		Msg("user logged in")

	return s.issue(user)
}

// VerifyToken checks the token signature and expiry
func (s *Service) VerifyToken(token string) (*model.TokenClaims, error) {
	claims, err := s.jwtSvc.Verify(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	return claims, nil
}

// LoadPrincipal resolves verified claims to the stored, active user. Role,
// name and email come from the record so changes apply immediately.
func (s *Service) LoadPrincipal(ctx context.Context, claims *model.TokenClaims) (*model.Principal, error) {
	scope := model.TenantScope{ClinicID: claims.ClinicID}
	user, err := s.userRepo.Get(ctx, scope, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(auth.ErrStaleCredential)
		}
		return nil, apperrors.Internal(err)
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized(auth.ErrAccountDisabled)
	}

	return &model.Principal{
		UserID:   user.ID,
		ClinicID: user.ClinicID,
		Role:     user.Role,
		Name:     user.Name,
		Email:    user.Email,
	}, nil
}

func (s *Service) Me(ctx context.Context, rc model.RequestContext) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, rc.Scope, rc.Principal.UserID)
	if err != nil {
		return nil, service.RepoError("user", err)
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, rc model.RequestContext, req *model.ChangePasswordRequest) error {
	user, err := s.userRepo.Get(ctx, rc.Scope, rc.Principal.UserID)
	if err != nil {
		return service.RepoError("user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
		return apperrors.Invalid("current_password", "is incorrect")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return apperrors.Invalid("new_password", err.Error())
		}
		return apperrors.Internal(err)
	}

	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, rc.Scope, user); err != nil {
		return service.RepoError("user", err)
	}

	if err := s.emailSvc.SendPasswordChanged(ctx, user.Email, user.Name); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to send password change notice")
	}
	return nil
}

// TTL is the lifetime of issued tokens
func (s *Service) TTL() time.Duration {
	return s.jwtSvc.TTL()
}

func (s *Service) issue(user *model.User) (*model.TokenResponse, error) {
	token, err := s.jwtSvc.Issue(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.TokenResponse{
		Token:     token,
		ExpiresIn: int64(s.jwtSvc.TTL().Seconds()),
		User:      user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
