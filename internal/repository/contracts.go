package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

type TenantRepository interface {
	Create(ctx context.Context, code, name string) (*entity.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)
	GetByCode(ctx context.Context, code string) (*entity.Tenant, error)
	List(ctx context.Context) ([]*entity.Tenant, error)
}

type RuleSetRepository interface {
	// Upsert inserts or replaces the rule set keyed by (tenant, name, version) and marks it active.
	Upsert(ctx context.Context, rs *entity.RuleSet) (*entity.RuleSet, error)
	// ActiveForTenant returns the most recently created active rule set.
	ActiveForTenant(ctx context.Context, tenantID uuid.UUID) (*entity.RuleSet, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.RuleSet, error)
}

type ClaimRepository interface {
	// ListByTenant returns the tenant's claims in a stable order (created_at, claim_id).
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.Claim, error)
	// Save persists the pipeline-owned fields of c and bumps updated_at.
	Save(ctx context.Context, c *entity.Claim) error
	// UpsertByClaimID inserts or replaces c keyed by (tenant, claim_id) and resets it to Uploaded.
	UpsertByClaimID(ctx context.Context, c *entity.Claim) (*entity.Claim, error)
	ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.Claim, error)
}

type RefinedClaimRepository interface {
	UpsertByClaim(ctx context.Context, rc *entity.RefinedClaim) error
	GetByClaim(ctx context.Context, claimID uuid.UUID) (*entity.RefinedClaim, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
}

type MetricRepository interface {
	Append(ctx context.Context, tenantID uuid.UUID, ruleSetID *uuid.UUID, m entity.Metric) (*entity.Metric, error)
	Latest(ctx context.Context, tenantID uuid.UUID) (*entity.Metric, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.Metric, error)
}

type JobRunRepository interface {
	Create(ctx context.Context, tenantID uuid.UUID, ruleSetID *uuid.UUID, jobType string, status constants.JobStatus) (*entity.JobRun, error)
	// Update sets status and, when non-nil, detail and finished_at.
	Update(ctx context.Context, id uuid.UUID, status constants.JobStatus, detail map[string]any, finishedAt *time.Time) error
	Get(ctx context.Context, id uuid.UUID) (*entity.JobRun, error)
	ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.JobRun, error)
}

// Store groups the repositories the pipeline and operators work with.
type Store struct {
	Tenants       TenantRepository
	RuleSets      RuleSetRepository
	Claims        ClaimRepository
	RefinedClaims RefinedClaimRepository
	Metrics       MetricRepository
	JobRuns       JobRunRepository
}
