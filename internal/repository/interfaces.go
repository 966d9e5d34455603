package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

var (
	// ErrNotFound is returned when no record matches id and tenant
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on unique violations, blocked deletes and
	// conditional updates that matched no row
	ErrConflict = errors.New("record conflict")
)

// TxManager runs fn in a transaction carried by ctx. Repository calls made
// with that ctx join the transaction. Nested calls reuse the outer one.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// All repository interfaces in one file. Every tenant-owned read or write
// takes the caller's scope as a mandatory argument.
type (
	ClinicRepository interface {
		Create(ctx context.Context, clinic *model.Clinic) error
		Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
	}

	UserRepository interface {
		Create(ctx context.Context, scope model.TenantScope, user *model.User) error
		Get(ctx context.Context, scope model.TenantScope, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, scope model.TenantScope, email string) (*model.User, error)
		Update(ctx context.Context, scope model.TenantScope, user *model.User) error
		Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error
		List(ctx context.Context, scope model.TenantScope, filter *model.UserFilter) ([]*model.User, int, error)
		// FindLoginCandidates is the only unscoped user query. Login runs
		// before any tenant is known.
		FindLoginCandidates(ctx context.Context, email string) ([]*model.User, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, scope model.TenantScope, patient *model.Patient) error
		Get(ctx context.Context, scope model.TenantScope, id uuid.UUID) (*model.Patient, error)
		FindByPhone(ctx context.Context, scope model.TenantScope, phone string) (*model.Patient, error)
		Update(ctx context.Context, scope model.TenantScope, patient *model.Patient) error
		Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error
		List(ctx context.Context, scope model.TenantScope, filter *model.PatientFilter) ([]*model.Patient, int, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, scope model.TenantScope, appointment *model.Appointment) error
		Get(ctx context.Context, scope model.TenantScope, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, scope model.TenantScope, appointment *model.Appointment) error
		// UpdateIfUnlinked writes the appointment only while its stored
		// patient_id is still NULL, otherwise ErrConflict.
		UpdateIfUnlinked(ctx context.Context, scope model.TenantScope, appointment *model.Appointment) error
		Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error
		List(ctx context.Context, scope model.TenantScope, filter *model.AppointmentFilter) ([]*model.Appointment, int, error)
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, scope model.TenantScope, prescription *model.Prescription) error
		Get(ctx context.Context, scope model.TenantScope, id uuid.UUID) (*model.Prescription, error)
		Update(ctx context.Context, scope model.TenantScope, prescription *model.Prescription) error
		Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error
		List(ctx context.Context, scope model.TenantScope, filter *model.PrescriptionFilter) ([]*model.Prescription, error)
	}

	PaymentRepository interface {
		Create(ctx context.Context, scope model.TenantScope, payment *model.Payment) error
		Get(ctx context.Context, scope model.TenantScope, id uuid.UUID) (*model.Payment, error)
		Update(ctx context.Context, scope model.TenantScope, payment *model.Payment) error
		Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error
		List(ctx context.Context, scope model.TenantScope, filter *model.PaymentFilter) ([]*model.Payment, error)
	}

	ReportRepository interface {
		Summary(ctx context.Context, scope model.TenantScope, rng model.ReportRange) (*model.Summary, error)
		DoctorStats(ctx context.Context, scope model.TenantScope, rng model.ReportRange) ([]*model.DoctorStats, error)
	}

	// OutboxRepository is used by services (Create, tenant stamped on the
	// event) and by the relay worker, which drains all tenants.
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// FetchPending locks up to limit pending events. Call inside WithinTx.
		FetchPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		// MarkFailed records the error and bumps retry_count. The event
		// stays pending until retry_count reaches maxRetries.
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxRetries int) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

// Store bundles every repository behind one storage driver
type Store struct {
	Tx            TxManager
	Clinics       ClinicRepository
	Users         UserRepository
	Patients      PatientRepository
	Appointments  AppointmentRepository
	Prescriptions PrescriptionRepository
	Payments      PaymentRepository
	Reports       ReportRepository
	Outbox        OutboxRepository
}
