package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/nara-edu/timetable-api/internal/models"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
)

type workloadReader interface {
	SumPeriodsByScope(ctx context.Context, scope models.Scope) (int, error)
}

// WorkloadService aggregates committed weekly periods per scope. Read-only.
type WorkloadService struct {
	bindings workloadReader
	logger   *zap.Logger
}

// NewWorkloadService constructs the aggregator.
func NewWorkloadService(bindings workloadReader, logger *zap.Logger) *WorkloadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkloadService{bindings: bindings, logger: logger}
}

// CommittedPeriods sums periods_per_week over active bindings in the scope;
// 0 when none. A nil plan-settings id on the scope aggregates
// organization-wide, otherwise the sum is plan-setting scoped — capacity
// comparisons must use the scoped variant.
func (s *WorkloadService) CommittedPeriods(ctx context.Context, scope models.Scope) (int, error) {
	if scope.ID == "" {
		return 0, nil
	}
	total, err := s.bindings.SumPeriodsByScope(ctx, scope)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate workload")
	}
	return total, nil
}
