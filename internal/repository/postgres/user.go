package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const userColumns = `id, clinic_id, name, email, password_hash, role, is_active,
	phone, specialization, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, scope model.TenantScope, user *model.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	user.ClinicID = scope.ClinicID

	if err := r.exec(ctx, query,
		user.ID,
		user.ClinicID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.Phone,
		user.Specialization,
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, scope model.TenantScope, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND clinic_id = ?`

	var user model.User
	if err := r.get(ctx, &user, query, id, scope.ClinicID); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, scope model.TenantScope, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER(?) AND clinic_id = ?`

	var user model.User
	if err := r.get(ctx, &user, query, email, scope.ClinicID); err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) FindLoginCandidates(ctx context.Context, email string) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER(?) ORDER BY created_at`

	var users []*model.User
	if err := r.selectAll(ctx, &users, query, email); err != nil {
		return nil, fmt.Errorf("failed to find users by email: %w", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, scope model.TenantScope, user *model.User) error {
	query := `
		UPDATE users
		SET name = ?, email = ?, password_hash = ?, role = ?, is_active = ?,
			phone = ?, specialization = ?, updated_at = ?
		WHERE id = ? AND clinic_id = ?
	`
	user.Touch()

	if err := r.exec(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.Phone,
		user.Specialization,
		user.UpdatedAt,
		user.ID,
		scope.ClinicID,
	); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, scope model.TenantScope, id uuid.UUID) error {
	if err := r.exec(ctx, `DELETE FROM users WHERE id = ? AND clinic_id = ?`, id, scope.ClinicID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, scope model.TenantScope, filter *model.UserFilter) ([]*model.User, int, error) {
	w := scoped(scope, "clinic_id")
	if filter != nil {
		if filter.Role != "" {
			w.add("role = ?", filter.Role)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
		w.search(filter.SearchTerm, "name", "email")
	}

	var total int
	if err := r.get(ctx, &total, `SELECT COUNT(*) FROM users`+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query, args := `SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY name`, w.args
	if filter != nil {
		query, args = page(query, args, filter.Pagination)
	}

	var users []*model.User
	if err := r.selectAll(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}
