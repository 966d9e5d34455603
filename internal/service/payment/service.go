package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	tx              repository.TxManager
	repo            repository.PaymentRepository
	patientRepo     repository.PatientRepository
	appointmentRepo repository.AppointmentRepository
	events          *event.EventService
	now             func() time.Time
}

func NewService(store *repository.Store, events *event.EventService) *Service {
	return &Service{
		tx:              store.Tx,
		repo:            store.Payments,
		patientRepo:     store.Patients,
		appointmentRepo: store.Appointments,
		events:          events,
		now:             time.Now,
	}
}

func (s *Service) CreatePayment(ctx context.Context, rc model.RequestContext, req *model.CreatePaymentRequest) (*model.Payment, error) {
	if err := s.checkRefs(ctx, rc.Scope, req.PatientID, req.AppointmentID); err != nil {
		return nil, err
	}

	payment := &model.Payment{
		Base:          model.NewBase(),
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Amount:        req.Amount,
		Method:        req.Method,
		Status:        req.Status,
		Description:   req.Description,
	}
	if payment.Status == "" {
		payment.Status = model.PaymentStatusPending
	}
	s.stampPaid(payment)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rc.Scope, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return s.events.Emit(ctx, rc.Scope, model.EventPaymentRecorded, payment)
	})
	if err != nil {
		return nil, service.RepoError("payment", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("payment_id", payment.ID.String()).
		Str("status", string(payment.Status)).
		Float64("amount", payment.Amount).
		Msg("payment recorded")
	return payment, nil
}

func (s *Service) GetPayment(ctx context.Context, rc model.RequestContext, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.repo.Get(ctx, rc.Scope, id)
	if err != nil {
		return nil, service.RepoError("payment", err)
	}
	return payment, nil
}

func (s *Service) UpdatePayment(ctx context.Context, rc model.RequestContext, id uuid.UUID, req *model.UpdatePaymentRequest) (*model.Payment, error) {
	payment, err := s.GetPayment(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		payment.Amount = *req.Amount
	}
	if req.Method != nil {
		payment.Method = *req.Method
	}
	if req.Description != nil {
		payment.Description = *req.Description
	}
	if req.Status != nil {
		if payment.Status == model.PaymentStatusRefunded && *req.Status != model.PaymentStatusRefunded {
			return nil, apperrors.Invalid("status", "refunded payments cannot be reopened")
		}
		payment.Status = *req.Status
	}
	s.stampPaid(payment)

	if err := s.repo.Update(ctx, rc.Scope, payment); err != nil {
		return nil, service.RepoError("payment", err)
	}
	return payment, nil
}

func (s *Service) DeletePayment(ctx context.Context, rc model.RequestContext, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, rc.Scope, id); err != nil {
		return service.RepoError("payment", err)
	}
	return nil
}

func (s *Service) ListPayments(ctx context.Context, rc model.RequestContext, filter *model.PaymentFilter) ([]*model.Payment, error) {
	list, err := s.repo.List(ctx, rc.Scope, filter)
	if err != nil {
		return nil, service.RepoError("payment", err)
	}
	return list, nil
}

// stampPaid records when a payment first became paid
func (s *Service) stampPaid(p *model.Payment) {
	if p.Status == model.PaymentStatusPaid && p.PaidAt == nil {
		now := s.now().UTC()
		p.PaidAt = &now
	}
}

func (s *Service) checkRefs(ctx context.Context, scope model.TenantScope, patientID uuid.UUID, appointmentID *uuid.UUID) error {
	if _, err := s.patientRepo.Get(ctx, scope, patientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Invalid("patient_id", "patient not found")
		}
		return apperrors.Internal(err)
	}
	if appointmentID == nil {
		return nil
	}
	if _, err := s.appointmentRepo.Get(ctx, scope, *appointmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Invalid("appointment_id", "appointment not found")
		}
		return apperrors.Internal(err)
	}
	return nil
}
