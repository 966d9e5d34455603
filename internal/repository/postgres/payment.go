package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const paymentColumns = `id, clinic_id, patient_id, appointment_id, amount, method, status,
	description, paid_at, created_at, updated_at`

type paymentRepository struct {
	BaseRepository
}

func NewPaymentRepository(base BaseRepository) repository.PaymentRepository {
	return &paymentRepository{base}
}

func (r *paymentRepository) Create(ctx context.Context, scope model.TenantScope, p *model.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	p.ClinicID = scope.ClinicID

	if err := r.exec(ctx, query,
		p.ID,
		p.ClinicID,
		p.PatientID,
		p.AppointmentID,
		p.Amount,
		p.Method,
		p.Status,
		p.Description,
		p.PaidAt,
		p.CreatedAt,
		p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, scope model.TenantScope, id uuid.UUID) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ? AND clinic_id = ?`

	var p model.Payment
	if err := r.get(ctx, &p, query, id, scope.ClinicID); err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

func (r *paymentRepository) Update(ctx context.Context, scope model.TenantScope, p *model.Payment) error {
	query := `
		UPDATE payments
		SET amount = ?, method = ?, status = ?, description = ?, paid_at = ?, updated_at = ?
		WHERE id = ? AND clinic_id = ?
	`
	p.Touch()

	if err := r.exec(ctx, query, p.Amount, p.Method, p.Status, p.Description, p.PaidAt, p.UpdatedAt, p.ID, scope.ClinicID); err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error {
	if err := r.exec(ctx, `DELETE FROM payments WHERE id = ? AND clinic_id = ?`, id, scope.ClinicID); err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) List(ctx context.Context, scope model.TenantScope, filter *model.PaymentFilter) ([]*model.Payment, error) {
	w := scoped(scope, "clinic_id")
	if filter != nil {
		if filter.PatientID != nil {
			w.add("patient_id = ?", *filter.PatientID)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
		w.search(filter.SearchTerm, "description")
	}

	var payments []*model.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments` + w.String() + ` ORDER BY created_at DESC`
	if err := r.selectAll(ctx, &payments, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
