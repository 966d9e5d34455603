package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	"github.com/jwalitptl/clinic-api/internal/service/user"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	tx          repository.TxManager
	repo        repository.AppointmentRepository
	patientRepo repository.PatientRepository
	userRepo    repository.UserRepository
	events      *event.EventService
	promoter    *Promoter
}

func NewService(store *repository.Store, events *event.EventService, promoter *Promoter) *Service {
	return &Service{
		tx:          store.Tx,
		repo:        store.Appointments,
		patientRepo: store.Patients,
		userRepo:    store.Users,
		events:      events,
		promoter:    promoter,
	}
}

func (s *Service) CreateAppointment(ctx context.Context, rc model.RequestContext, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := s.checkDoctor(ctx, rc, req.DoctorID); err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		Base:          model.NewBase(),
		AppointmentID: model.NewAppointmentCode(time.Now()),
		PatientID:     req.PatientID,
		InlineDetails: req.PatientDetails,
		DoctorID:      req.DoctorID,
		Date:          req.Date,
		Time:          req.Time,
		Status:        req.Status,
		Notes:         req.Notes,
	}
	if apt.Status == "" {
		apt.Status = model.AppointmentStatusScheduled
	}
	if err := apt.CheckInvariant(); err != nil {
		return nil, apperrors.Invalid("patient_id", err.Error())
	}

	if apt.Linked() {
		if _, err := s.patientRepo.Get(ctx, rc.Scope, *apt.PatientID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.Invalid("patient_id", "patient not found")
			}
			return nil, apperrors.Internal(err)
		}
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rc.Scope, apt); err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return s.events.Emit(ctx, rc.Scope, model.EventAppointmentCreated, apt)
	})
	if err != nil {
		return nil, service.RepoError("appointment", err)
	}
	return apt, nil
}

func (s *Service) GetAppointment(ctx context.Context, rc model.RequestContext, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, rc.Scope, id)
	if err != nil {
		return nil, service.RepoError("appointment", err)
	}
	if !rc.Principal.CanAccessOwnedBy(&apt.DoctorID) {
		return nil, service.Deny()
	}
	return apt, nil
}

// UpdateAppointment applies the given fields. Requesting status registered
// on an appointment that still carries inline details promotes them to a
// patient in the same write.
func (s *Service) UpdateAppointment(ctx context.Context, rc model.RequestContext, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.GetAppointment(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	if req.DoctorID != nil && *req.DoctorID != apt.DoctorID {
		if err := s.checkDoctor(ctx, rc, *req.DoctorID); err != nil {
			return nil, err
		}
		apt.DoctorID = *req.DoctorID
	}
	if req.Date != nil {
		apt.Date = *req.Date
	}
	if req.Time != nil {
		apt.Time = *req.Time
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}

	if req.Status != nil && *req.Status == model.AppointmentStatusRegistered && !apt.Linked() {
		if _, _, err := s.promoter.Promote(ctx, rc.Scope, apt); err != nil {
			return nil, err
		}
		return apt, nil
	}

	if req.Status != nil {
		if *req.Status == model.AppointmentStatusRegistered && apt.Linked() {
			s.promoter.alreadyLinked(ctx, apt)
		}
		apt.Status = *req.Status
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, rc.Scope, apt); err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}
		return s.events.Emit(ctx, rc.Scope, model.EventAppointmentUpdated, apt)
	})
	if err != nil {
		return nil, service.RepoError("appointment", err)
	}
	return apt, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, rc model.RequestContext, id uuid.UUID) error {
	if _, err := s.GetAppointment(ctx, rc, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, rc.Scope, id); err != nil {
		return service.RepoError("appointment", err)
	}
	return nil
}

// ListAppointments pages through appointments, only the caller's own for doctors
func (s *Service) ListAppointments(ctx context.Context, rc model.RequestContext, filter *model.AppointmentFilter) ([]*model.Appointment, int, error) {
	if filter == nil {
		filter = &model.AppointmentFilter{}
	}
	filter.Pagination = filter.Pagination.Normalize()
	if rc.Principal.Role == model.RoleDoctor {
		self := rc.Principal.UserID
		filter.DoctorID = &self
	}

	appointments, total, err := s.repo.List(ctx, rc.Scope, filter)
	if err != nil {
		return nil, 0, service.RepoError("appointment", err)
	}
	return appointments, total, nil
}

// checkDoctor validates the doctor of an appointment. Doctors may only book
// or move appointments onto themselves.
func (s *Service) checkDoctor(ctx context.Context, rc model.RequestContext, doctorID uuid.UUID) error {
	if rc.Principal.Role == model.RoleDoctor && doctorID != rc.Principal.UserID {
		return service.Deny()
	}
	return user.RequireDoctor(ctx, s.userRepo, rc.Scope, doctorID, "doctor_id")
}
