package results

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/internal/common"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
)

// Listing limits for results and audit views.
const (
	ClaimsLimit = 1000
	AuditLimit  = 50
)

// Results is the latest classified claims plus the latest metric snapshot.
type Results struct {
	Claims []*entity.Claim `json:"claims"`
	Metric *entity.Metric  `json:"metrics"`
}

// Service reads validation outcomes for a tenant.
type Service struct {
	claimRepo  repository.ClaimRepository
	metricRepo repository.MetricRepository
	jobRepo    repository.JobRunRepository
	logger     *slog.Logger
}

// NewService creates a new results service.
func NewService(store *repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		claimRepo:  store.Claims,
		metricRepo: store.Metrics,
		jobRepo:    store.JobRuns,
		logger:     logger,
	}
}

// Results returns up to ClaimsLimit claims by most recent update and the
// latest metric, nil when the tenant has never been validated.
func (s *Service) Results(ctx context.Context, tenantID uuid.UUID) (*Results, error) {
	claims, err := s.claimRepo.ListRecent(ctx, tenantID, ClaimsLimit)
	if err != nil {
		s.logger.Error("results.claims_failed", "tenant_id", tenantID, "error", err)
		return nil, common.NewAppError(common.CodeDatabase, "list claims", errors.Join(common.ErrDatabase, err))
	}
	m, err := s.metricRepo.Latest(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		m, err = nil, nil
	}
	if err != nil {
		s.logger.Error("results.metric_failed", "tenant_id", tenantID, "error", err)
		return nil, common.NewAppError(common.CodeDatabase, "latest metric", errors.Join(common.ErrDatabase, err))
	}
	s.logger.Debug("results.ok", "tenant_id", tenantID, "claims", len(claims), "has_metric", m != nil)
	return &Results{Claims: claims, Metric: m}, nil
}

// Audit returns up to AuditLimit job runs, newest first.
func (s *Service) Audit(ctx context.Context, tenantID uuid.UUID) ([]*entity.JobRun, error) {
	jobs, err := s.jobRepo.ListRecent(ctx, tenantID, AuditLimit)
	if err != nil {
		s.logger.Error("results.audit_failed", "tenant_id", tenantID, "error", err)
		return nil, common.NewAppError(common.CodeDatabase, "list job runs", errors.Join(common.ErrDatabase, err))
	}
	return jobs, nil
}
