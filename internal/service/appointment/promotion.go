package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// ErrLostRace is wrapped in the conflict returned when another request
// registered the appointment first
var ErrLostRace = errors.New("appointment registered concurrently")

// Promoter turns the inline walk-in details of an appointment into a
// patient record and links the appointment to it.
type Promoter struct {
	tx           repository.TxManager
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
	events       *event.EventService
	metrics      *metrics.Metrics
	atomic       bool
	now          func() time.Time
}

func NewPromoter(store *repository.Store, events *event.EventService, m *metrics.Metrics, atomic bool) *Promoter {
	return &Promoter{
		tx:           store.Tx,
		patients:     store.Patients,
		appointments: store.Appointments,
		events:       events,
		metrics:      m,
		atomic:       atomic,
		now:          time.Now,
	}
}

// RegisteredEvent is the payload of appointment.registered
type RegisteredEvent struct {
	Appointment *model.Appointment     `json:"appointment"`
	PatientID   string                 `json:"patient_id"`
	Outcome     model.PromotionOutcome `json:"outcome"`
}

// Promote registers appt, which must carry inline details with a name.
// Pending field changes already applied to appt are persisted in the same
// write. On success appt is updated in place.
func (p *Promoter) Promote(ctx context.Context, scope model.TenantScope, appt *model.Appointment) (*model.Patient, model.PromotionOutcome, error) {
	if !appt.HasInlineName() {
		return nil, "", apperrors.Invalid("patient_details.name", "is required to register the appointment")
	}

	var (
		patient *model.Patient
		outcome model.PromotionOutcome
		err     error
	)
	if p.atomic {
		patient, outcome, err = p.promoteAtomic(ctx, scope, appt)
	} else {
		patient, outcome, err = p.promoteLegacy(ctx, scope, appt)
	}

	log := zerolog.Ctx(ctx)
	if err != nil {
		label := "error"
		if apperrors.KindOf(err) == apperrors.KindConflict {
			label = "conflict"
		}
		p.metrics.Promotions.WithLabelValues(label).Inc()
		return nil, "", err
	}

	p.metrics.Promotions.WithLabelValues(string(outcome)).Inc()
	log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("patient_id", patient.ID.String()).
		Str("outcome", string(outcome)).
		Msg("appointment registered")
	return patient, outcome, nil
}

// alreadyLinked records a registration request on an appointment that has a
// patient. It is applied as a plain status assignment.
func (p *Promoter) alreadyLinked(ctx context.Context, appt *model.Appointment) {
	p.metrics.Promotions.WithLabelValues(string(model.PromotionAlreadyLinked)).Inc()
	zerolog.Ctx(ctx).Debug().
		Str("appointment_id", appt.ID.String()).
		Str("patient_id", appt.PatientID.String()).
		Msg("appointment already linked to a patient")
}

// promoteAtomic runs lookup, creation, link and the outbox writes in one
// transaction. The link only applies while the appointment is unlinked.
func (p *Promoter) promoteAtomic(ctx context.Context, scope model.TenantScope, appt *model.Appointment) (*model.Patient, model.PromotionOutcome, error) {
	var (
		patient *model.Patient
		outcome model.PromotionOutcome
		linked  = *appt
	)

	err := p.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		patient, outcome, err = p.findOrCreate(ctx, scope, appt)
		if err != nil {
			return err
		}

		linked.LinkPatient(patient.ID)
		if err := p.appointments.UpdateIfUnlinked(ctx, scope, &linked); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperrors.Conflict("appointment was already registered", fmt.Errorf("%w: %v", ErrLostRace, err))
			}
			return service.RepoError("appointment", err)
		}

		if outcome == model.PromotionCreatedNew {
			if err := p.events.Emit(ctx, scope, model.EventPatientCreated, patient); err != nil {
				return apperrors.Internal(err)
			}
		}
		return p.events.Emit(ctx, scope, model.EventAppointmentRegistered, registered(&linked, patient, outcome))
	})
	if err != nil {
		return nil, "", wrapInternal(err)
	}

	*appt = linked
	return patient, outcome, nil
}

// promoteLegacy keeps the two independent writes: a failure after the
// patient insert leaves that patient behind, and concurrent promotions
// overwrite each other.
func (p *Promoter) promoteLegacy(ctx context.Context, scope model.TenantScope, appt *model.Appointment) (*model.Patient, model.PromotionOutcome, error) {
	patient, outcome, err := p.findOrCreate(ctx, scope, appt)
	if err != nil {
		return nil, "", wrapInternal(err)
	}

	linked := *appt
	linked.LinkPatient(patient.ID)
	if err := p.appointments.Update(ctx, scope, &linked); err != nil {
		if outcome == model.PromotionCreatedNew {
			zerolog.Ctx(ctx).Error().Err(err).
				Str("patient_id", patient.ID.String()).
				Str("appointment_id", appt.ID.String()).
				Msg("appointment link failed after patient creation, patient left unlinked")
		}
		return nil, "", apperrors.Internal(err)
	}
	*appt = linked

	if outcome == model.PromotionCreatedNew {
		p.events.EmitBestEffort(ctx, scope, model.EventPatientCreated, patient)
	}
	p.events.EmitBestEffort(ctx, scope, model.EventAppointmentRegistered, registered(appt, patient, outcome))
	return patient, outcome, nil
}

// findOrCreate matches an existing patient by exact phone, or creates one
// from the inline details assigned to the appointment's doctor.
func (p *Promoter) findOrCreate(ctx context.Context, scope model.TenantScope, appt *model.Appointment) (*model.Patient, model.PromotionOutcome, error) {
	details := appt.InlineDetails

	if phone := strings.TrimSpace(details.Phone); phone != "" {
		existing, err := p.patients.FindByPhone(ctx, scope, phone)
		switch {
		case err == nil:
			return existing, model.PromotionLinkedExisting, nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, "", fmt.Errorf("failed to look up patient by phone: %w", err)
		}
	}

	patient := details.ToPatient(scope.ClinicID, model.NewPatientCode(p.now()), appt.DoctorID)
	if err := p.patients.Create(ctx, scope, patient); err != nil {
		return nil, "", fmt.Errorf("failed to create patient from appointment: %w", err)
	}
	return patient, model.PromotionCreatedNew, nil
}

func registered(appt *model.Appointment, patient *model.Patient, outcome model.PromotionOutcome) RegisteredEvent {
	return RegisteredEvent{Appointment: appt, PatientID: patient.ID.String(), Outcome: outcome}
}

// wrapInternal passes AppErrors through and reports anything else as 500
func wrapInternal(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.Internal(err)
}
