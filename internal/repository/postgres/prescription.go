package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const prescriptionColumns = `id, clinic_id, patient_id, doctor_id, appointment_id, diagnosis,
	medications, notes, created_at, updated_at`

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(base BaseRepository) repository.PrescriptionRepository {
	return &prescriptionRepository{base}
}

func (r *prescriptionRepository) Create(ctx context.Context, scope model.TenantScope, p *model.Prescription) error {
	query := `
		INSERT INTO prescriptions (` + prescriptionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	p.ClinicID = scope.ClinicID

	if err := r.exec(ctx, query,
		p.ID,
		p.ClinicID,
		p.PatientID,
		p.DoctorID,
		p.AppointmentID,
		p.Diagnosis,
		p.Medications,
		p.Notes,
		p.CreatedAt,
		p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, scope model.TenantScope, id uuid.UUID) (*model.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = ? AND clinic_id = ?`

	var p model.Prescription
	if err := r.get(ctx, &p, query, id, scope.ClinicID); err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return &p, nil
}

func (r *prescriptionRepository) Update(ctx context.Context, scope model.TenantScope, p *model.Prescription) error {
	query := `
		UPDATE prescriptions
		SET diagnosis = ?, medications = ?, notes = ?, updated_at = ?
		WHERE id = ? AND clinic_id = ?
	`
	p.Touch()

	if err := r.exec(ctx, query, p.Diagnosis, p.Medications, p.Notes, p.UpdatedAt, p.ID, scope.ClinicID); err != nil {
		return fmt.Errorf("failed to update prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error {
	if err := r.exec(ctx, `DELETE FROM prescriptions WHERE id = ? AND clinic_id = ?`, id, scope.ClinicID); err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) List(ctx context.Context, scope model.TenantScope, filter *model.PrescriptionFilter) ([]*model.Prescription, error) {
	w := scoped(scope, "clinic_id")
	if filter != nil {
		if filter.PatientID != nil {
			w.add("patient_id = ?", *filter.PatientID)
		}
		if filter.DoctorID != nil {
			w.add("doctor_id = ?", *filter.DoctorID)
		}
		w.search(filter.SearchTerm, "diagnosis")
	}

	var prescriptions []*model.Prescription
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions` + w.String() + ` ORDER BY created_at DESC`
	if err := r.selectAll(ctx, &prescriptions, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, nil
}
