package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

type UserServicer interface {
	CreateUser(ctx context.Context, rc model.RequestContext, req *model.CreateUserRequest) (*model.User, error)
	GetUser(ctx context.Context, rc model.RequestContext, id uuid.UUID) (*model.User, error)
	UpdateUser(ctx context.Context, rc model.RequestContext, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error)
	UpdateStatus(ctx context.Context, rc model.RequestContext, id uuid.UUID, active bool) (*model.User, error)
	DeleteUser(ctx context.Context, rc model.RequestContext, id uuid.UUID) error
	ListUsers(ctx context.Context, rc model.RequestContext, filter *model.UserFilter) ([]*model.User, int, error)
	ListDoctors(ctx context.Context, rc model.RequestContext) ([]*model.User, error)
}

type Service struct {
	tx            repository.TxManager
	repo          repository.UserRepository
	clinics       repository.ClinicRepository
	patients      repository.PatientRepository
	appointments  repository.AppointmentRepository
	prescriptions repository.PrescriptionRepository
	hasher        security.PasswordHasher
	emailSvc      email.Service
	events        *event.EventService
}

func NewService(store *repository.Store, hasher security.PasswordHasher, emailSvc email.Service, events *event.EventService) *Service {
	return &Service{
		tx:            store.Tx,
		repo:          store.Users,
		clinics:       store.Clinics,
		patients:      store.Patients,
		appointments:  store.Appointments,
		prescriptions: store.Prescriptions,
		hasher:        hasher,
		emailSvc:      emailSvc,
		events:        events,
	}
}

var _ UserServicer = (*Service)(nil)

func (s *Service) CreateUser(ctx context.Context, rc model.RequestContext, req *model.CreateUserRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.Invalid("password", err.Error())
		}
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Base:           model.NewBase(),
		Name:           strings.TrimSpace(req.Name),
		Email:          normalizeEmail(req.Email),
		PasswordHash:   hash,
		Role:           req.Role,
		IsActive:       true,
		Phone:          req.Phone,
		Specialization: req.Specialization,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rc.Scope, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return s.events.Emit(ctx, rc.Scope, model.EventUserCreated, user)
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("email already in use", err)
		}
		return nil, service.RepoError("user", err)
	}

	s.sendWelcome(ctx, rc.Scope, user)
	return user, nil
}

func (s *Service) sendWelcome(ctx context.Context, scope model.TenantScope, user *model.User) {
	clinicName := "your clinic"
	if clinic, err := s.clinics.Get(ctx, scope.ClinicID); err == nil {
		clinicName = clinic.Name
	}
	if err := s.emailSvc.SendWelcome(ctx, user.Email, user.Name, clinicName); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to send welcome email")
	}
}

func (s *Service) GetUser(ctx context.Context, rc model.RequestContext, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, rc.Scope, id)
	if err != nil {
		return nil, service.RepoError("user", err)
	}
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, rc model.RequestContext, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.repo.Get(ctx, rc.Scope, id)
	if err != nil {
		return nil, service.RepoError("user", err)
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Specialization != nil {
		user.Specialization = *req.Specialization
	}
	if req.Role != nil && *req.Role != user.Role {
		if err := s.checkRoleChange(ctx, rc, user); err != nil {
			return nil, err
		}
		user.Role = *req.Role
	}

	if err := s.repo.Update(ctx, rc.Scope, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("email already in use", err)
		}
		return nil, service.RepoError("user", err)
	}
	return user, nil
}

// checkRoleChange guards moving user off its current role. Admins keep the
// admin role, and a doctor keeps it while any record names them as owner.
func (s *Service) checkRoleChange(ctx context.Context, rc model.RequestContext, user *model.User) error {
	if user.ID == rc.Principal.UserID {
		return apperrors.Forbidden("cannot change your own role")
	}
	switch user.Role {
	case model.RoleAdmin:
		return apperrors.Forbidden("admin users cannot be demoted")
	case model.RoleDoctor:
		owns, err := s.ownsRecords(ctx, rc.Scope, user.ID)
		if err != nil {
			return apperrors.Internal(err)
		}
		if owns {
			return apperrors.Conflict("doctor still owns patients, appointments or prescriptions", nil)
		}
	}
	return nil
}

func (s *Service) ownsRecords(ctx context.Context, scope model.TenantScope, doctorID uuid.UUID) (bool, error) {
	one := model.Pagination{Page: 1, PageSize: 1}

	_, total, err := s.appointments.List(ctx, scope, &model.AppointmentFilter{BaseFilter: model.BaseFilter{Pagination: one}, DoctorID: &doctorID})
	if err != nil || total > 0 {
		return total > 0, err
	}
	_, total, err = s.patients.List(ctx, scope, &model.PatientFilter{BaseFilter: model.BaseFilter{Pagination: one}, AssignedDoctorID: &doctorID})
	if err != nil || total > 0 {
		return total > 0, err
	}
	rx, err := s.prescriptions.List(ctx, scope, &model.PrescriptionFilter{DoctorID: &doctorID})
	if err != nil {
		return false, err
	}
	return len(rx) > 0, nil
}

// UpdateStatus activates or deactivates a user. Admins cannot be deactivated.
func (s *Service) UpdateStatus(ctx context.Context, rc model.RequestContext, id uuid.UUID, active bool) (*model.User, error) {
	user, err := s.repo.Get(ctx, rc.Scope, id)
	if err != nil {
		return nil, service.RepoError("user", err)
	}
	if !active && user.Role == model.RoleAdmin {
		return nil, apperrors.Forbidden("admin users cannot be deactivated")
	}

	user.IsActive = active
	if err := s.repo.Update(ctx, rc.Scope, user); err != nil {
		return nil, service.RepoError("user", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", user.ID.String()).
		Bool("is_active", active).
		Msg("user status changed")
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, rc model.RequestContext, id uuid.UUID) error {
	user, err := s.repo.Get(ctx, rc.Scope, id)
	if err != nil {
		return service.RepoError("user", err)
	}
	if user.Role == model.RoleAdmin {
		return apperrors.Forbidden("admin users cannot be deleted")
	}

	if err := s.repo.Delete(ctx, rc.Scope, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return apperrors.Conflict("user still has appointments or prescriptions, deactivate instead", err)
		}
		return service.RepoError("user", err)
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context, rc model.RequestContext, filter *model.UserFilter) ([]*model.User, int, error) {
	if filter == nil {
		filter = &model.UserFilter{}
	}
	filter.Pagination = filter.Pagination.Normalize()

	users, total, err := s.repo.List(ctx, rc.Scope, filter)
	if err != nil {
		return nil, 0, service.RepoError("user", err)
	}
	return users, total, nil
}

// ListDoctors returns the active doctors of the clinic, for any staff role
func (s *Service) ListDoctors(ctx context.Context, rc model.RequestContext) ([]*model.User, error) {
	active := true
	doctors, _, err := s.repo.List(ctx, rc.Scope, &model.UserFilter{Role: model.RoleDoctor, IsActive: &active})
	if err != nil {
		return nil, service.RepoError("user", err)
	}
	return doctors, nil
}

// RequireDoctor checks that id names a doctor of the caller's clinic
func RequireDoctor(ctx context.Context, repo repository.UserRepository, scope model.TenantScope, id uuid.UUID, field string) error {
	doctor, err := repo.Get(ctx, scope, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Invalid(field, "doctor not found")
		}
		return apperrors.Internal(err)
	}
	if doctor.Role != model.RoleDoctor {
		return apperrors.Invalid(field, "user is not a doctor")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
