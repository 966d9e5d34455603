package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	"github.com/jwalitptl/clinic-api/internal/service/user"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type PatientService interface {
	CreatePatient(ctx context.Context, rc model.RequestContext, req *model.CreatePatientRequest) (*model.Patient, error)
	GetPatient(ctx context.Context, rc model.RequestContext, id uuid.UUID) (*model.Patient, error)
	UpdatePatient(ctx context.Context, rc model.RequestContext, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error)
	DeletePatient(ctx context.Context, rc model.RequestContext, id uuid.UUID) error
	ListPatients(ctx context.Context, rc model.RequestContext, filter *model.PatientFilter) ([]*model.Patient, int, error)
	ListAppointments(ctx context.Context, rc model.RequestContext, patientID uuid.UUID, filter *model.AppointmentFilter) ([]*model.Appointment, int, error)
}

type Service struct {
	tx              repository.TxManager
	repo            repository.PatientRepository
	userRepo        repository.UserRepository
	appointmentRepo repository.AppointmentRepository
	events          *event.EventService
}

func NewService(store *repository.Store, events *event.EventService) *Service {
	return &Service{
		tx:              store.Tx,
		repo:            store.Patients,
		userRepo:        store.Users,
		appointmentRepo: store.Appointments,
		events:          events,
	}
}

var _ PatientService = (*Service)(nil)

func (s *Service) CreatePatient(ctx context.Context, rc model.RequestContext, req *model.CreatePatientRequest) (*model.Patient, error) {
	doctorID, err := s.resolveDoctor(ctx, rc, req.AssignedDoctorID)
	if err != nil {
		return nil, err
	}

	patient := &model.Patient{
		Base:             model.NewBase(),
		PatientID:        model.NewPatientCode(time.Now()),
		Name:             strings.TrimSpace(req.Name),
		Email:            req.Email,
		Phone:            req.Phone,
		DateOfBirth:      req.DateOfBirth,
		Gender:           req.Gender,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		MedicalHistory:   req.MedicalHistory,
		AssignedDoctorID: doctorID,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rc.Scope, patient); err != nil {
			return fmt.Errorf("failed to create patient: %w", err)
		}
		return s.events.Emit(ctx, rc.Scope, model.EventPatientCreated, patient)
	})
	if err != nil {
		return nil, service.RepoError("patient", err)
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, rc model.RequestContext, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, rc.Scope, id)
	if err != nil {
		return nil, service.RepoError("patient", err)
	}
	if !rc.Principal.CanAccessOwnedBy(patient.AssignedDoctorID) {
		return nil, service.Deny()
	}
	return patient, nil
}

func (s *Service) UpdatePatient(ctx context.Context, rc model.RequestContext, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.GetPatient(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = *req.DateOfBirth
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = *req.EmergencyContact
	}
	if req.MedicalHistory != nil {
		patient.MedicalHistory = *req.MedicalHistory
	}
	if req.AssignedDoctorID != nil {
		doctorID, err := s.resolveDoctor(ctx, rc, req.AssignedDoctorID)
		if err != nil {
			return nil, err
		}
		patient.AssignedDoctorID = doctorID
	}

	if err := s.repo.Update(ctx, rc.Scope, patient); err != nil {
		return nil, service.RepoError("patient", err)
	}
	return patient, nil
}

func (s *Service) DeletePatient(ctx context.Context, rc model.RequestContext, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, rc.Scope, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return apperrors.Conflict("patient still has appointments, prescriptions or payments", err)
		}
		return service.RepoError("patient", err)
	}
	return nil
}

// ListPatients pages through the clinic's patients. Doctors only see the
// patients assigned to them.
func (s *Service) ListPatients(ctx context.Context, rc model.RequestContext, filter *model.PatientFilter) ([]*model.Patient, int, error) {
	if filter == nil {
		filter = &model.PatientFilter{}
	}
	filter.Pagination = filter.Pagination.Normalize()
	if rc.Principal.Role == model.RoleDoctor {
		self := rc.Principal.UserID
		filter.AssignedDoctorID = &self
	}

	patients, total, err := s.repo.List(ctx, rc.Scope, filter)
	if err != nil {
		return nil, 0, service.RepoError("patient", err)
	}
	return patients, total, nil
}

// ListAppointments lists a patient's appointments, limited to the caller's
// own appointments for doctors.
func (s *Service) ListAppointments(ctx context.Context, rc model.RequestContext, patientID uuid.UUID, filter *model.AppointmentFilter) ([]*model.Appointment, int, error) {
	if _, err := s.GetPatient(ctx, rc, patientID); err != nil {
		return nil, 0, err
	}

	if filter == nil {
		filter = &model.AppointmentFilter{}
	}
	filter.Pagination = filter.Pagination.Normalize()
	filter.PatientID = &patientID
	if rc.Principal.Role == model.RoleDoctor {
		self := rc.Principal.UserID
		filter.DoctorID = &self
	}

	appointments, total, err := s.appointmentRepo.List(ctx, rc.Scope, filter)
	if err != nil {
		return nil, 0, service.RepoError("appointment", err)
	}
	return appointments, total, nil
}

// resolveDoctor validates the requested doctor. Doctors may only assign
// patients to themselves and default to themselves.
func (s *Service) resolveDoctor(ctx context.Context, rc model.RequestContext, requested *uuid.UUID) (*uuid.UUID, error) {
	if rc.Principal.Role == model.RoleDoctor {
		if requested != nil && *requested != rc.Principal.UserID {
			return nil, service.Deny()
		}
		self := rc.Principal.UserID
		return &self, nil
	}
	if requested == nil {
		return nil, nil
	}
	if err := user.RequireDoctor(ctx, s.userRepo, rc.Scope, *requested, "assigned_doctor_id"); err != nil {
		return nil, err
	}
	id := *requested
	return &id, nil
}
