package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type userRepository struct{ db *DB }

func (r *userRepository) Create(ctx context.Context, scope model.TenantScope, user *model.User) error {
	return r.db.write(ctx, func(s *state) error {
		if _, ok := s.clinics[scope.ClinicID]; !ok {
			return repository.ErrConflict
		}
		for _, u := range s.users {
			if u.ClinicID == scope.ClinicID && strings.EqualFold(u.Email, user.Email) {
				return repository.ErrConflict
			}
		}
		user.ClinicID = scope.ClinicID
		s.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) Get(_ context.Context, scope model.TenantScope, id uuid.UUID) (*model.User, error) {
	var out *model.User
	err := r.db.read(func(s *state) error {
		u, ok := s.users[id]
		if !ok || u.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepository) GetByEmail(_ context.Context, scope model.TenantScope, email string) (*model.User, error) {
	var out *model.User
	err := r.db.read(func(s *state) error {
		for _, u := range s.users {
			if u.ClinicID == scope.ClinicID && strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepository) FindLoginCandidates(_ context.Context, email string) ([]*model.User, error) {
	var out []*model.User
	err := r.db.read(func(s *state) error {
		for _, u := range s.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = append(out, &u)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *userRepository) Update(ctx context.Context, scope model.TenantScope, user *model.User) error {
	return r.db.write(ctx, func(s *state) error {
		current, ok := s.users[user.ID]
		if !ok || current.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		for id, u := range s.users {
			if id != user.ID && u.ClinicID == scope.ClinicID && strings.EqualFold(u.Email, user.Email) {
				return repository.ErrConflict
			}
		}
		user.Touch()
		user.ClinicID = scope.ClinicID
		user.CreatedAt = current.CreatedAt
		s.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error {
	return r.db.write(ctx, func(s *state) error {
		u, ok := s.users[id]
		if !ok || u.ClinicID != scope.ClinicID {
			return repository.ErrNotFound
		}
		for _, a := range s.appointments {
			if a.DoctorID == id {
				return repository.ErrConflict
			}
		}
		for _, p := range s.prescriptions {
			if p.DoctorID == id {
				return repository.ErrConflict
			}
		}
		for pid, p := range s.patients {
			if p.AssignedDoctorID != nil && *p.AssignedDoctorID == id {
				p.AssignedDoctorID = nil
				s.patients[pid] = p
			}
		}
		delete(s.users, id)
		return nil
	})
}

func (r *userRepository) List(_ context.Context, scope model.TenantScope, filter *model.UserFilter) ([]*model.User, int, error) {
	if filter == nil {
		filter = &model.UserFilter{}
	}

	var out []*model.User
	err := r.db.read(func(s *state) error {
		for _, u := range s.users {
			if u.ClinicID != scope.ClinicID {
				continue
			}
			if filter.Role != "" && u.Role != filter.Role {
				continue
			}
			if filter.IsActive != nil && u.IsActive != *filter.IsActive {
				continue
			}
			if !matches(filter.SearchTerm, u.Name, u.Email) {
				continue
			}
			u := u
			out = append(out, &u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter.Pagination), len(out), err
}
