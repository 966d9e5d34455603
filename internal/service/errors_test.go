package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func TestRepoError(t *testing.T) {
	assert.NoError(t, RepoError("patient", nil))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(RepoError("patient", fmt.Errorf("x: %w", repository.ErrNotFound))))
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(RepoError("user", repository.ErrConflict)))
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(RepoError("user", errors.New("db gone"))))

	forbidden := Deny()
	assert.Same(t, forbidden, RepoError("x", forbidden))
}
