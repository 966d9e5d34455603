package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type appointmentRepository struct{ db *DB }

func cloneAppointment(a model.Appointment) *model.Appointment {
	a.PatientID = cloneUUID(a.PatientID)
	if a.InlineDetails != nil {
		d := *a.InlineDetails
		a.InlineDetails = &d
	}
	return &a
}

// checkRefs mirrors the foreign keys and the one-of check constraint
func checkRefs(s *state, a *model.Appointment) error {
	if a.Linked() == (a.InlineDetails != nil) {
		return fmt.Errorf("%w: patient_id and inline_details are mutually exclusive", repository.ErrConflict)
	}
	if _, ok := s.users[a.DoctorID]; !ok {
		return repository.ErrConflict
	}
	if a.Linked() {
		if _, ok := s.patients[*a.PatientID]; !ok {
			return repository.ErrConflict
		}
	}
	return nil
}

func (r *appointmentRepository) Create(ctx context.Context, scope model.TenantScope, appointment *model.Appointment) error {
	return r.db.write(ctx, func(s *state) error {
		if _, ok := s.clinics[scope.ClinicID]; !ok {
			return repository.ErrConflict
		}
		if _, ok := s.appointments[appointment.ID]; ok {
			return repository.ErrConflict
		}
		if err := checkRefs(s, appointment); err != nil {
			return err
		}
		appointment.ClinicID = scope.ClinicID
		s.appointments[appointment.ID] = *cloneAppointment(*appointment)
		return nil
	})
}

func (r *appointmentRepository) Get(_ context.Context, scope model.TenantScope, id uuid.UUID) (*model.Appointment, error) {
	var out *model.Appointment
	err := r.db.read(func(s *state) error {
		a, ok := s.appointments[id]
		if !ok || a.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		out = cloneAppointment(a)
		return nil
	})
	return out, err
}

func (r *appointmentRepository) update(ctx context.Context, scope model.TenantScope, appointment *model.Appointment, onlyUnlinked bool) error {
	return r.db.write(ctx, func(s *state) error {
		current, ok := s.appointments[appointment.ID]
		if !ok || current.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		if onlyUnlinked && current.Linked() {
			return fmt.Errorf("appointment already linked: %w", repository.ErrConflict)
		}
		if err := checkRefs(s, appointment); err != nil {
			return err
		}
		appointment.Touch()
		appointment.ClinicID = scope.ClinicID
		appointment.AppointmentID = current.AppointmentID
		appointment.CreatedAt = current.CreatedAt
		s.appointments[appointment.ID] = *cloneAppointment(*appointment)
		return nil
	})
}

func (r *appointmentRepository) Update(ctx context.Context, scope model.TenantScope, appointment *model.Appointment) error {
	return r.update(ctx, scope, appointment, false)
}

func (r *appointmentRepository) UpdateIfUnlinked(ctx context.Context, scope model.TenantScope, appointment *model.Appointment) error {
	return r.update(ctx, scope, appointment, true)
}

func (r *appointmentRepository) Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error {
	return r.db.write(ctx, func(s *state) error {
		a, ok := s.appointments[id]
		if !ok || a.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		for rid, rx := range s.prescriptions {
			if rx.AppointmentID != nil && *rx.AppointmentID == id {
				rx.AppointmentID = nil
				s.prescriptions[rid] = rx
			}
		}
		for pid, pay := range s.payments {
			if pay.AppointmentID != nil && *pay.AppointmentID == id {
				pay.AppointmentID = nil
				s.payments[pid] = pay
			}
		}
		delete(s.appointments, id)
		return nil
	})
}

func (r *appointmentRepository) List(_ context.Context, scope model.TenantScope, filter *model.AppointmentFilter) ([]*model.Appointment, int, error) {
	if filter == nil {
		filter = &model.AppointmentFilter{}
	}

	var out []*model.Appointment
	err := r.db.read(func(s *state) error {
		for _, a := range s.appointments {
			if a.ClinicID != scope.ClinicID {
				continue
			}
			if p := filter.PatientID; p != nil && (a.PatientID == nil || *a.PatientID != *p) {
				continue
			}
			if d := filter.DoctorID; d != nil && a.DoctorID != *d {
				continue
			}
			if filter.Status != "" && a.Status != filter.Status {
				continue
			}
			if filter.Date != "" && a.Date != filter.Date {
				continue
			}
			inlineName := ""
			if a.InlineDetails != nil {
				inlineName = a.InlineDetails.Name
			}
			if !matches(filter.SearchTerm, a.AppointmentID, a.Notes, inlineName) {
				continue
			}
			out = append(out, cloneAppointment(a))
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Time > out[j].Time
	})
	return paginate(out, filter.Pagination), len(out), err
}
