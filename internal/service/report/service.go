package report

import (
	"context"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// Service computes clinic-wide aggregates for admins
type Service struct {
	repo repository.ReportRepository
}

func NewService(repo repository.ReportRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Summary(ctx context.Context, rc model.RequestContext, rng model.ReportRange) (*model.Summary, error) {
	if err := validateRange(rng); err != nil {
		return nil, err
	}
	summary, err := s.repo.Summary(ctx, rc.Scope, rng)
	if err != nil {
		return nil, service.RepoError("report", err)
	}
	return summary, nil
}

func (s *Service) DoctorStats(ctx context.Context, rc model.RequestContext, rng model.ReportRange) ([]*model.DoctorStats, error) {
	if err := validateRange(rng); err != nil {
		return nil, err
	}
	stats, err := s.repo.DoctorStats(ctx, rc.Scope, rng)
	if err != nil {
		return nil, service.RepoError("report", err)
	}
	return stats, nil
}

// dates use a sortable layout, so string comparison orders them
func validateRange(rng model.ReportRange) error {
	if rng.From != "" && rng.To != "" && rng.From > rng.To {
		return apperrors.Invalid("from", "must not be after to")
	}
	return nil
}
