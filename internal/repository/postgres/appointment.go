package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const appointmentColumns = `id, clinic_id, appointment_code, patient_id, inline_details, doctor_id,
	date, time, status, notes, created_at, updated_at`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) Create(ctx context.Context, scope model.TenantScope, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	appointment.ClinicID = scope.ClinicID

	if err := r.exec(ctx, query,
		appointment.ID,
		appointment.ClinicID,
		appointment.AppointmentID,
		appointment.PatientID,
		appointment.InlineDetails,
		appointment.DoctorID,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, scope model.TenantScope, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ? AND clinic_id = ?`

	var appointment model.Appointment
	if err := r.get(ctx, &appointment, query, id, scope.ClinicID); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

const updateAppointment = `
	UPDATE appointments
	SET patient_id = ?, inline_details = ?, doctor_id = ?, date = ?, time = ?,
		status = ?, notes = ?, updated_at = ?
	WHERE id = ? AND clinic_id = ?`

func (r *appointmentRepository) updateArgs(scope model.TenantScope, a *model.Appointment) []interface{} {
	return []interface{}{
		a.PatientID,
		a.InlineDetails,
		a.DoctorID,
		a.Date,
		a.Time,
		a.Status,
		a.Notes,
		a.UpdatedAt,
		a.ID,
		scope.ClinicID,
	}
}

func (r *appointmentRepository) Update(ctx context.Context, scope model.TenantScope, appointment *model.Appointment) error {
	appointment.Touch()
	if err := r.exec(ctx, updateAppointment, r.updateArgs(scope, appointment)...); err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) UpdateIfUnlinked(ctx context.Context, scope model.TenantScope, appointment *model.Appointment) error {
	appointment.Touch()
	err := r.exec(ctx, updateAppointment+` AND patient_id IS NULL`, r.updateArgs(scope, appointment)...)
	if errors.Is(err, repository.ErrNotFound) {
		// the row exists in this clinic (caller loaded it) so zero rows means it was linked meanwhile
		return fmt.Errorf("appointment already linked: %w", repository.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to link appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error {
	if err := r.exec(ctx, `DELETE FROM appointments WHERE id = ? AND clinic_id = ?`, id, scope.ClinicID); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, scope model.TenantScope, filter *model.AppointmentFilter) ([]*model.Appointment, int, error) {
	w := scoped(scope, "clinic_id")
	if filter != nil {
		if filter.PatientID != nil {
			w.add("patient_id = ?", *filter.PatientID)
		}
		if filter.DoctorID != nil {
			w.add("doctor_id = ?", *filter.DoctorID)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
		if filter.Date != "" {
			w.add("date = ?", filter.Date)
		}
		w.search(filter.SearchTerm, "appointment_code", "notes", "inline_details->>'name'")
	}

	var total int
	if err := r.get(ctx, &total, `SELECT COUNT(*) FROM appointments`+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	query, args := `SELECT `+appointmentColumns+` FROM appointments`+w.String()+` ORDER BY date DESC, time DESC`, w.args
	if filter != nil {
		query, args = page(query, args, filter.Pagination)
	}

	var appointments []*model.Appointment
	if err := r.selectAll(ctx, &appointments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, total, nil
}
