package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type prescriptionRepository struct{ db *DB }

func clonePrescription(p model.Prescription) *model.Prescription {
	p.AppointmentID = cloneUUID(p.AppointmentID)
	p.Medications = append(model.Medications{}, p.Medications...)
	return &p
}

func (r *prescriptionRepository) Create(ctx context.Context, scope model.TenantScope, p *model.Prescription) error {
	return r.db.write(ctx, func(s *state) error {
		if _, ok := s.clinics[scope.ClinicID]; !ok {
			return repository.ErrConflict
		}
		if _, ok := s.patients[p.PatientID]; !ok {
			return repository.ErrConflict
		}
		if _, ok := s.users[p.DoctorID]; !ok {
			return repository.ErrConflict
		}
		p.ClinicID = scope.ClinicID
		s.prescriptions[p.ID] = *clonePrescription(*p)
		return nil
	})
}

func (r *prescriptionRepository) Get(_ context.Context, scope model.TenantScope, id uuid.UUID) (*model.Prescription, error) {
	var out *model.Prescription
	err := r.db.read(func(s *state) error {
		p, ok := s.prescriptions[id]
		if !ok || p.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		out = clonePrescription(p)
		return nil
	})
	return out, err
}

func (r *prescriptionRepository) Update(ctx context.Context, scope model.TenantScope, p *model.Prescription) error {
	return r.db.write(ctx, func(s *state) error {
		current, ok := s.prescriptions[p.ID]
		if !ok || current.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		// only the clinical fields are writable, as in the SQL update
		current.Diagnosis = p.Diagnosis
		current.Medications = p.Medications
		current.Notes = p.Notes
		current.Touch()
		p.UpdatedAt = current.UpdatedAt
		s.prescriptions[p.ID] = *clonePrescription(current)
		return nil
	})
}

func (r *prescriptionRepository) Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error {
	return r.db.write(ctx, func(s *state) error {
		p, ok := s.prescriptions[id]
		if !ok || p.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		delete(s.prescriptions, id)
		return nil
	})
}

func (r *prescriptionRepository) List(_ context.Context, scope model.TenantScope, filter *model.PrescriptionFilter) ([]*model.Prescription, error) {
	if filter == nil {
		filter = &model.PrescriptionFilter{}
	}

	var out []*model.Prescription
	err := r.db.read(func(s *state) error {
		for _, p := range s.prescriptions {
			if p.ClinicID != scope.ClinicID {
				continue
			}
			if id := filter.PatientID; id != nil && p.PatientID != *id {
				continue
			}
			if id := filter.DoctorID; id != nil && p.DoctorID != *id {
				continue
			}
			if !matches(filter.SearchTerm, p.Diagnosis) {
				continue
			}
			out = append(out, clonePrescription(p))
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

type paymentRepository struct{ db *DB }

func clonePayment(p model.Payment) *model.Payment {
	p.AppointmentID = cloneUUID(p.AppointmentID)
	if p.PaidAt != nil {
		t := *p.PaidAt
		p.PaidAt = &t
	}
	return &p
}

func (r *paymentRepository) Create(ctx context.Context, scope model.TenantScope, p *model.Payment) error {
	return r.db.write(ctx, func(s *state) error {
		if _, ok := s.clinics[scope.ClinicID]; !ok {
			return repository.ErrConflict
		}
		if _, ok := s.patients[p.PatientID]; !ok {
			return repository.ErrConflict
		}
		p.ClinicID = scope.ClinicID
		s.payments[p.ID] = *clonePayment(*p)
		return nil
	})
}

func (r *paymentRepository) Get(_ context.Context, scope model.TenantScope, id uuid.UUID) (*model.Payment, error) {
	var out *model.Payment
	err := r.db.read(func(s *state) error {
		p, ok := s.payments[id]
		if !ok || p.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		out = clonePayment(p)
		return nil
	})
	return out, err
}

func (r *paymentRepository) Update(ctx context.Context, scope model.TenantScope, p *model.Payment) error {
	return r.db.write(ctx, func(s *state) error {
		current, ok := s.payments[p.ID]
		if !ok || current.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		current.Amount = p.Amount
		current.Method = p.Method
		current.Status = p.Status
		current.Description = p.Description
		current.PaidAt = p.PaidAt
		current.Touch()
		p.UpdatedAt = current.UpdatedAt
		s.payments[p.ID] = *clonePayment(current)
		return nil
	})
}

func (r *paymentRepository) Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error {
	return r.db.write(ctx, func(s *state) error {
		p, ok := s.payments[id]
		if !ok || p.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		delete(s.payments, id)
		return nil
	})
}

func (r *paymentRepository) List(_ context.Context, scope model.TenantScope, filter *model.PaymentFilter) ([]*model.Payment, error) {
	if filter == nil {
		filter = &model.PaymentFilter{}
	}

	var out []*model.Payment
	err := r.db.read(func(s *state) error {
		for _, p := range s.payments {
			if p.ClinicID != scope.ClinicID {
				continue
			}
			if id := filter.PatientID; id != nil && p.PatientID != *id {
				continue
			}
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
			if !matches(filter.SearchTerm, p.Description) {
				continue
			}
			out = append(out, clonePayment(p))
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}
