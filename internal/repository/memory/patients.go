package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type patientRepository struct{ db *DB }

func clonePatient(p model.Patient) *model.Patient {
	p.AssignedDoctorID = cloneUUID(p.AssignedDoctorID)
	return &p
}

func (r *patientRepository) Create(ctx context.Context, scope model.TenantScope, patient *model.Patient) error {
	return r.db.write(ctx, func(s *state) error {
		if _, ok := s.clinics[scope.ClinicID]; !ok {
			return repository.ErrConflict
		}
		if _, ok := s.patients[patient.ID]; ok {
			return repository.ErrConflict
		}
		if d := patient.AssignedDoctorID; d != nil {
			if _, ok := s.users[*d]; !ok {
				return repository.ErrConflict
			}
		}
		patient.ClinicID = scope.ClinicID
		s.patients[patient.ID] = *clonePatient(*patient)
		return nil
	})
}

func (r *patientRepository) Get(_ context.Context, scope model.TenantScope, id uuid.UUID) (*model.Patient, error) {
	var out *model.Patient
	err := r.db.read(func(s *state) error {
		p, ok := s.patients[id]
		if !ok || p.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		out = clonePatient(p)
		return nil
	})
	return out, err
}

func (r *patientRepository) FindByPhone(_ context.Context, scope model.TenantScope, phone string) (*model.Patient, error) {
	var out *model.Patient
	err := r.db.read(func(s *state) error {
		for _, p := range s.patients {
			if p.ClinicID != scope.ClinicID || p.Phone != phone {
				continue
			}
			if out == nil || p.CreatedAt.Before(out.CreatedAt) {
				out = clonePatient(p)
			}
		}
		if out == nil {
			return repository.ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r *patientRepository) Update(ctx context.Context, scope model.TenantScope, patient *model.Patient) error {
	return r.db.write(ctx, func(s *state) error {
		current, ok := s.patients[patient.ID]
		if !ok || current.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		patient.Touch()
		patient.ClinicID = scope.ClinicID
		patient.PatientID = current.PatientID
		patient.CreatedAt = current.CreatedAt
		s.patients[patient.ID] = *clonePatient(*patient)
		return nil
	})
}

func (r *patientRepository) Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error {
	return r.db.write(ctx, func(s *state) error {
		p, ok := s.patients[id]
		if !ok || p.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		for _, a := range s.appointments {
			if a.PatientID != nil && *a.PatientID == id {
				return repository.ErrConflict
			}
		}
		for _, rx := range s.prescriptions {
			if rx.PatientID == id {
				return repository.ErrConflict
			}
		}
		for _, pay := range s.payments {
			if pay.PatientID == id {
				return repository.ErrConflict
			}
		}
		delete(s.patients, id)
		return nil
	})
}

func (r *patientRepository) List(_ context.Context, scope model.TenantScope, filter *model.PatientFilter) ([]*model.Patient, int, error) {
	if filter == nil {
		filter = &model.PatientFilter{}
	}

	var out []*model.Patient
	err := r.db.read(func(s *state) error {
		for _, p := range s.patients {
			if p.ClinicID != scope.ClinicID {
				continue
			}
			if filter.Phone != "" && p.Phone != filter.Phone {
				continue
			}
			if d := filter.AssignedDoctorID; d != nil && (p.AssignedDoctorID == nil || *p.AssignedDoctorID != *d) {
				continue
			}
			if !matches(filter.SearchTerm, p.Name, p.Email, p.Phone, p.PatientID) {
				continue
			}
			out = append(out, clonePatient(p))
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Pagination), len(out), err
}
