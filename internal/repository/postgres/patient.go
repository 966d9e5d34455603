package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const patientColumns = `id, clinic_id, patient_code, name, email, phone, date_of_birth, gender,
	address, emergency_contact, medical_history, assigned_doctor_id, created_at, updated_at`

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

func (r *patientRepository) Create(ctx context.Context, scope model.TenantScope, patient *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	patient.ClinicID = scope.ClinicID

	if err := r.exec(ctx, query,
		patient.ID,
		patient.ClinicID,
		patient.PatientID,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.DateOfBirth,
		patient.Gender,
		patient.Address,
		patient.EmergencyContact,
		patient.MedicalHistory,
		patient.AssignedDoctorID,
		patient.CreatedAt,
		patient.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, scope model.TenantScope, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = ? AND clinic_id = ?`

	var patient model.Patient
	if err := r.get(ctx, &patient, query, id, scope.ClinicID); err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

// FindByPhone returns the oldest patient of the clinic with exactly this phone
func (r *patientRepository) FindByPhone(ctx context.Context, scope model.TenantScope, phone string) (*model.Patient, error) {
	query := `
		SELECT ` + patientColumns + ` FROM patients
		WHERE clinic_id = ? AND phone = ?
		ORDER BY created_at
		LIMIT 1
	`

	var patient model.Patient
	if err := r.get(ctx, &patient, query, scope.ClinicID, phone); err != nil {
		return nil, fmt.Errorf("failed to find patient by phone: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, scope model.TenantScope, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET name = ?, email = ?, phone = ?, date_of_birth = ?, gender = ?, address = ?,
			emergency_contact = ?, medical_history = ?, assigned_doctor_id = ?, updated_at = ?
		WHERE id = ? AND clinic_id = ?
	`
	patient.Touch()

	if err := r.exec(ctx, query,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.DateOfBirth,
		patient.Gender,
		patient.Address,
		patient.EmergencyContact,
		patient.MedicalHistory,
		patient.AssignedDoctorID,
		patient.UpdatedAt,
		patient.ID,
		scope.ClinicID,
	); err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error {
	if err := r.exec(ctx, `DELETE FROM patients WHERE id = ? AND clinic_id = ?`, id, scope.ClinicID); err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return nil
}

func (r *patientRepository) List(ctx context.Context, scope model.TenantScope, filter *model.PatientFilter) ([]*model.Patient, int, error) {
	w := scoped(scope, "clinic_id")
	if filter != nil {
		if filter.Phone != "" {
			w.add("phone = ?", filter.Phone)
		}
		if filter.AssignedDoctorID != nil {
			w.add("assigned_doctor_id = ?", *filter.AssignedDoctorID)
		}
		w.search(filter.SearchTerm, "name", "email", "phone", "patient_code")
	}

	var total int
	if err := r.get(ctx, &total, `SELECT COUNT(*) FROM patients`+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	query, args := `SELECT `+patientColumns+` FROM patients`+w.String()+` ORDER BY created_at DESC`, w.args
	if filter != nil {
		query, args = page(query, args, filter.Pagination)
	}

	var patients []*model.Patient
	if err := r.selectAll(ctx, &patients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}
