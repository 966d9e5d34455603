package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	"github.com/jwalitptl/clinic-api/internal/service/user"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	tx              repository.TxManager
	repo            repository.PrescriptionRepository
	patientRepo     repository.PatientRepository
	appointmentRepo repository.AppointmentRepository
	userRepo        repository.UserRepository
	events          *event.EventService
}

func NewService(store *repository.Store, events *event.EventService) *Service {
	return &Service{
		tx:              store.Tx,
		repo:            store.Prescriptions,
		patientRepo:     store.Patients,
		appointmentRepo: store.Appointments,
		userRepo:        store.Users,
		events:          events,
	}
}

func (s *Service) CreatePrescription(ctx context.Context, rc model.RequestContext, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	doctorID, err := s.resolveDoctor(ctx, rc, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPatient(ctx, rc.Scope, req.PatientID, req.AppointmentID); err != nil {
		return nil, err
	}

	rx := &model.Prescription{
		Base:          model.NewBase(),
		PatientID:     req.PatientID,
		DoctorID:      doctorID,
		AppointmentID: req.AppointmentID,
		Diagnosis:     strings.TrimSpace(req.Diagnosis),
		Medications:   model.Medications(req.Medications),
		Notes:         req.Notes,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rc.Scope, rx); err != nil {
			return fmt.Errorf("failed to create prescription: %w", err)
		}
		return s.events.Emit(ctx, rc.Scope, model.EventPrescriptionCreated, rx)
	})
	if err != nil {
		return nil, service.RepoError("prescription", err)
	}
	return rx, nil
}

func (s *Service) GetPrescription(ctx context.Context, rc model.RequestContext, id uuid.UUID) (*model.Prescription, error) {
	rx, err := s.repo.Get(ctx, rc.Scope, id)
	if err != nil {
		return nil, service.RepoError("prescription", err)
	}
	if !rc.Principal.CanAccessOwnedBy(&rx.DoctorID) {
		return nil, service.Deny()
	}
	return rx, nil
}

func (s *Service) UpdatePrescription(ctx context.Context, rc model.RequestContext, id uuid.UUID, req *model.UpdatePrescriptionRequest) (*model.Prescription, error) {
	rx, err := s.GetPrescription(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	if req.Diagnosis != nil {
		rx.Diagnosis = strings.TrimSpace(*req.Diagnosis)
	}
	if req.Medications != nil {
		rx.Medications = model.Medications(req.Medications)
	}
	if req.Notes != nil {
		rx.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, rc.Scope, rx); err != nil {
		return nil, service.RepoError("prescription", err)
	}
	return rx, nil
}

func (s *Service) DeletePrescription(ctx context.Context, rc model.RequestContext, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, rc.Scope, id); err != nil {
		return service.RepoError("prescription", err)
	}
	return nil
}

// ListPrescriptions lists prescriptions, only the caller's own for doctors
func (s *Service) ListPrescriptions(ctx context.Context, rc model.RequestContext, filter *model.PrescriptionFilter) ([]*model.Prescription, error) {
	if filter == nil {
		filter = &model.PrescriptionFilter{}
	}
	if rc.Principal.Role == model.RoleDoctor {
		self := rc.Principal.UserID
		filter.DoctorID = &self
	}

	list, err := s.repo.List(ctx, rc.Scope, filter)
	if err != nil {
		return nil, service.RepoError("prescription", err)
	}
	return list, nil
}

// resolveDoctor picks the prescribing doctor. Doctors always prescribe as
// themselves, admins must name a doctor of the clinic.
func (s *Service) resolveDoctor(ctx context.Context, rc model.RequestContext, requested *uuid.UUID) (uuid.UUID, error) {
	if rc.Principal.Role == model.RoleDoctor {
		if requested != nil && *requested != rc.Principal.UserID {
			return uuid.Nil, service.Deny()
		}
		return rc.Principal.UserID, nil
	}
	if requested == nil {
		return uuid.Nil, apperrors.Invalid("doctor_id", "is required")
	}
	if err := user.RequireDoctor(ctx, s.userRepo, rc.Scope, *requested, "doctor_id"); err != nil {
		return uuid.Nil, err
	}
	return *requested, nil
}

func (s *Service) checkPatient(ctx context.Context, scope model.TenantScope, patientID uuid.UUID, appointmentID *uuid.UUID) error {
	if _, err := s.patientRepo.Get(ctx, scope, patientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Invalid("patient_id", "patient not found")
		}
		return apperrors.Internal(err)
	}
	if appointmentID == nil {
		return nil
	}

	apt, err := s.appointmentRepo.Get(ctx, scope, *appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Invalid("appointment_id", "appointment not found")
		}
		return apperrors.Internal(err)
	}
	if apt.PatientID == nil || *apt.PatientID != patientID {
		return apperrors.Invalid("appointment_id", "appointment belongs to another patient")
	}
	return nil
}
