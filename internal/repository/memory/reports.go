package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type reportRepository struct{ db *DB }

func inRange(date string, rng model.ReportRange) bool {
	if rng.From != "" && date < rng.From {
		return false
	}
	if rng.To != "" && date > rng.To {
		return false
	}
	return true
}

func (r *reportRepository) Summary(_ context.Context, scope model.TenantScope, rng model.ReportRange) (*model.Summary, error) {
	out := &model.Summary{AppointmentsByStatus: map[model.AppointmentStatus]int{}}
	err := r.db.read(func(s *state) error {
		for _, p := range s.patients {
			if p.ClinicID == scope.ClinicID {
				out.TotalPatients++
			}
		}
		for _, a := range s.appointments {
			if a.ClinicID == scope.ClinicID && inRange(a.Date, rng) {
				out.AppointmentsByStatus[a.Status]++
				out.TotalAppointments++
			}
		}
		for _, p := range s.prescriptions {
			if p.ClinicID == scope.ClinicID {
				out.TotalPrescriptions++
			}
		}
		for _, p := range s.payments {
			if p.ClinicID != scope.ClinicID {
				continue
			}
			switch p.Status {
			case model.PaymentStatusPaid:
				out.Revenue += p.Amount
			case model.PaymentStatusPending:
				out.PendingPayments += p.Amount
			}
		}
		for _, u := range s.users {
			if u.ClinicID == scope.ClinicID && u.IsActive {
				out.ActiveStaff++
			}
		}
		return nil
	})
	return out, err
}

func (r *reportRepository) DoctorStats(_ context.Context, scope model.TenantScope, rng model.ReportRange) ([]*model.DoctorStats, error) {
	byID := map[uuid.UUID]*model.DoctorStats{}
	var out []*model.DoctorStats
	err := r.db.read(func(s *state) error {
		for _, u := range s.users {
			if u.ClinicID == scope.ClinicID && u.Role == model.RoleDoctor {
				st := &model.DoctorStats{DoctorID: u.ID, Name: u.Name}
				byID[u.ID] = st
				out = append(out, st)
			}
		}
		for _, a := range s.appointments {
			st, ok := byID[a.DoctorID]
			if !ok || a.ClinicID != scope.ClinicID || !inRange(a.Date, rng) {
				continue
			}
			st.Appointments++
			if a.Status == model.AppointmentStatusCompleted {
				st.Completed++
			}
		}
		for _, p := range s.patients {
			if p.ClinicID != scope.ClinicID || p.AssignedDoctorID == nil {
				continue
			}
			if st, ok := byID[*p.AssignedDoctorID]; ok {
				st.AssignedPatients++
			}
		}
		for _, p := range s.prescriptions {
			if st, ok := byID[p.DoctorID]; ok && p.ClinicID == scope.ClinicID {
				st.Prescriptions++
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}
