package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type reportRepository struct {
	BaseRepository
}

func NewReportRepository(base BaseRepository) repository.ReportRepository {
	return &reportRepository{base}
}

// dateRange narrows appointment aggregates, column is the appointment date column
func dateRange(w *where, column string, rng model.ReportRange) {
	if rng.From != "" {
		w.add(column+" >= ?", rng.From)
	}
	if rng.To != "" {
		w.add(column+" <= ?", rng.To)
	}
}

func (r *reportRepository) Summary(ctx context.Context, scope model.TenantScope, rng model.ReportRange) (*model.Summary, error) {
	summary := &model.Summary{AppointmentsByStatus: map[model.AppointmentStatus]int{}}

	totals := `
		SELECT
			(SELECT COUNT(*) FROM patients WHERE clinic_id = ?) AS total_patients,
			(SELECT COUNT(*) FROM prescriptions WHERE clinic_id = ?) AS total_prescriptions,
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE clinic_id = ? AND status = 'paid') AS revenue,
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE clinic_id = ? AND status = 'pending') AS pending_payments,
			(SELECT COUNT(*) FROM users WHERE clinic_id = ? AND is_active) AS active_staff
	`
	id := scope.ClinicID
	if err := r.get(ctx, summary, totals, id, id, id, id, id); err != nil {
		return nil, fmt.Errorf("failed to load summary totals: %w", err)
	}

	w := scoped(scope, "clinic_id")
	dateRange(w, "date", rng)

	var rows []struct {
		Status model.AppointmentStatus `db:"status"`
		Count  int                     `db:"count"`
	}
	query := `SELECT status, COUNT(*) AS count FROM appointments` + w.String() + ` GROUP BY status`
	if err := r.selectAll(ctx, &rows, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to count appointments by status: %w", err)
	}
	for _, row := range rows {
		summary.AppointmentsByStatus[row.Status] = row.Count
		summary.TotalAppointments += row.Count
	}
	return summary, nil
}

func (r *reportRepository) DoctorStats(ctx context.Context, scope model.TenantScope, rng model.ReportRange) ([]*model.DoctorStats, error) {
	w := &where{}
	w.add("a.clinic_id = u.clinic_id")
	w.add("a.doctor_id = u.id")
	dateRange(w, "a.date", rng)

	query := `
		SELECT
			u.id AS doctor_id,
			u.name,
			(SELECT COUNT(*) FROM appointments a` + w.String() + `) AS appointments,
			(SELECT COUNT(*) FROM appointments a` + w.String() + ` AND a.status = 'completed') AS completed,
			(SELECT COUNT(*) FROM patients p WHERE p.clinic_id = u.clinic_id AND p.assigned_doctor_id = u.id) AS assigned_patients,
			(SELECT COUNT(*) FROM prescriptions rx WHERE rx.clinic_id = u.clinic_id AND rx.doctor_id = u.id) AS prescriptions
		FROM users u
		WHERE u.clinic_id = ? AND u.role = 'doctor'
		ORDER BY u.name
	`
	args := append(append(append([]interface{}{}, w.args...), w.args...), scope.ClinicID)

	var stats []*model.DoctorStats
	if err := r.selectAll(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load doctor stats: %w", err)
	}
	return stats, nil
}
