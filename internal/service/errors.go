// Package service holds helpers shared by the domain services
package service

import (
	"errors"

	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// RepoError translates a repository error into an AppError. Records outside
// the caller's tenant surface as ErrNotFound and therefore as 404.
func RepoError(resource string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(resource, err)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.Conflict(resource+" conflicts with existing data", err)
	default:
		return apperrors.Internal(err)
	}
}

// Deny is the ownership failure returned to doctors
func Deny() error {
	return apperrors.Forbidden("access denied")
}
