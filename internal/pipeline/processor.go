// Package pipeline drives a tenant's claim batch through rule evaluation,
// AI review, classification and metrics aggregation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/aggregate"
	"github.com/joseph-ayodele/claims-validator/internal/classify"
	"github.com/joseph-ayodele/claims-validator/internal/common"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/internal/rules"
)

// Reviewer produces advisory findings for one claim. It must not fail.
type Reviewer interface {
	Enabled() bool
	Review(ctx context.Context, claim *entity.Claim, rs *entity.RuleSet) []entity.Finding
}

type disabledReviewer struct{}

func (disabledReviewer) Enabled() bool { return false }
func (disabledReviewer) Review(context.Context, *entity.Claim, *entity.RuleSet) []entity.Finding {
	return nil
}

// Processor runs validation jobs against a repository.Store.
type Processor struct {
	store         *repository.Store
	reviewer      Reviewer
	recorder      Recorder
	logger        *slog.Logger
	aiConcurrency int
	now           func() time.Time
}

type Option func(*Processor)

func WithReviewer(r Reviewer) Option {
	return func(p *Processor) {
		if r != nil {
			p.reviewer = r
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Processor) {
		if r != nil {
			p.recorder = r
		}
	}
}

func WithAIConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.aiConcurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func NewProcessor(store *repository.Store, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		store:         store,
		reviewer:      disabledReviewer{},
		recorder:      NopRecorder{},
		logger:        logger,
		aiConcurrency: 4,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ActiveRuleSet returns the tenant's most recently created active rule set.
func (p *Processor) ActiveRuleSet(ctx context.Context, tenantID uuid.UUID) (*entity.RuleSet, error) {
	rs, err := p.store.RuleSets.ActiveForTenant(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, common.ErrNoActiveRuleSet)
	}
	if err != nil {
		return nil, fmt.Errorf("load active rule set: %w", err)
	}
	return rs, nil
}

// RunActive runs the pipeline with the tenant's active rule set.
func (p *Processor) RunActive(ctx context.Context, tenantID uuid.UUID) (*entity.JobRun, error) {
	rs, err := p.ActiveRuleSet(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, tenantID, rs)
}

// Run records a Running job and validates every claim of the tenant against rs.
// A nil rs evaluates no static rules.
func (p *Processor) Run(ctx context.Context, tenantID uuid.UUID, rs *entity.RuleSet) (*entity.JobRun, error) {
	job, err := p.store.JobRuns.Create(ctx, tenantID, ruleSetID(rs), constants.JobTypeValidation, constants.JobStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("create job run: %w", err)
	}
	return p.process(ctx, job, rs)
}

// Enqueue records a Pending job for a later Execute.
func (p *Processor) Enqueue(ctx context.Context, tenantID uuid.UUID, rs *entity.RuleSet) (*entity.JobRun, error) {
	job, err := p.store.JobRuns.Create(ctx, tenantID, ruleSetID(rs), constants.JobTypeValidation, constants.JobStatusPending)
	if err != nil {
		return nil, fmt.Errorf("create job run: %w", err)
	}
	return job, nil
}

// Execute moves a Pending job to Running and processes it.
func (p *Processor) Execute(ctx context.Context, job *entity.JobRun, rs *entity.RuleSet) (*entity.JobRun, error) {
	if job.Status != constants.JobStatusPending {
		return job, fmt.Errorf("job %s is %s, not %s: %w", job.ID, job.Status, constants.JobStatusPending, common.ErrInvalidInput)
	}
	if err := p.store.JobRuns.Update(ctx, job.ID, constants.JobStatusRunning, nil, nil); err != nil {
		finished := p.now()
		detail := map[string]any{"error": fmt.Sprintf("start job run: %v", err)}
		if uerr := p.store.JobRuns.Update(context.WithoutCancel(ctx), job.ID, constants.JobStatusFailed, detail, &finished); uerr != nil {
			p.logger.Error("pipeline.run.finalize_failed", "job_id", job.ID, "error", uerr)
		} else {
			job.Status, job.Detail, job.FinishedAt = constants.JobStatusFailed, detail, &finished
		}
		return job, fmt.Errorf("start job run: %w", err)
	}
	job.Status = constants.JobStatusRunning
	return p.process(ctx, job, rs)
}

func (p *Processor) process(ctx context.Context, job *entity.JobRun, rs *entity.RuleSet) (*entity.JobRun, error) {
	ctx = common.WithRunID(ctx, job.ID.String())
	log := common.LoggerFromContext(ctx, p.logger).With("tenant_id", job.TenantID)
	tenant := job.TenantID.String()
	start := time.Now()

	p.recorder.RunStarted(tenant)
	log.Info("pipeline.run.start", "rule_set_id", job.RuleSetID, "ai_enabled", p.reviewer.Enabled())

	processed, total, err := p.validateBatch(ctx, job, rs)
	if err == nil {
		err = p.aggregate(ctx, job)
	}

	// Finalise even when ctx was cancelled or timed out.
	fctx := context.WithoutCancel(ctx)
	finished := p.now()
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			msg = fmt.Sprintf("run stopped after %d of %d claims: %v", processed, total, err)
		}
		detail := map[string]any{"error": msg}
		if uerr := p.store.JobRuns.Update(fctx, job.ID, constants.JobStatusFailed, detail, &finished); uerr != nil {
			log.Error("pipeline.run.finalize_failed", "error", uerr)
		}
		job.Status, job.Detail, job.FinishedAt = constants.JobStatusFailed, detail, &finished
		p.recorder.RunFinished(tenant, job.Status, time.Since(start))
		log.Error("pipeline.run.failed", "processed", processed, "total", total, "error", err)
		return job, fmt.Errorf("validation run %s: %w", job.ID, err)
	}

	detail := map[string]any{"claims": total}
	if err := p.store.JobRuns.Update(fctx, job.ID, constants.JobStatusFinished, detail, &finished); err != nil {
		log.Error("pipeline.run.finalize_failed", "error", err)
		return job, fmt.Errorf("finish job run %s: %w", job.ID, err)
	}
	job.Status, job.Detail, job.FinishedAt = constants.JobStatusFinished, detail, &finished
	p.recorder.RunFinished(tenant, job.Status, time.Since(start))
	log.Info("pipeline.run.finished", "claims", total, "elapsed_ms", time.Since(start).Milliseconds())
	return job, nil
}

// validateBatch processes claims strictly in order and stops at the first error.
func (p *Processor) validateBatch(ctx context.Context, job *entity.JobRun, rs *entity.RuleSet) (processed, total int, err error) {
	claims, err := p.store.Claims.ListByTenant(ctx, job.TenantID)
	if err != nil {
		return 0, 0, fmt.Errorf("list claims: %w", err)
	}
	total = len(claims)
	tenant := job.TenantID.String()

	ctx, cancel := context.WithCancel(ctx)
	var pool *reviewPool
	if p.reviewer.Enabled() {
		pool = startReviews(ctx, p.reviewer, claims, rs, p.aiConcurrency)
	}
	defer func() {
		cancel()
		if pool != nil {
			pool.wait()
		}
	}()

	for i, claim := range claims {
		if err := ctx.Err(); err != nil {
			return processed, total, err
		}

		static := rules.EvaluateRuleSet(claim, rs)

		var ai []entity.Finding
		switch {
		case pool == nil:
			p.recorder.AIReviewed(tenant, ReviewDisabled)
		default:
			if ai, err = pool.await(ctx, i); err != nil {
				return processed, total, err
			}
			if len(ai) > 0 {
				p.recorder.AIReviewed(tenant, ReviewOK)
			} else {
				p.recorder.AIReviewed(tenant, ReviewEmpty)
			}
		}

		res := classify.Classify(static, ai)
		res.Apply(claim)
		if err := p.store.Claims.Save(ctx, claim); err != nil {
			return processed, total, fmt.Errorf("claim %s: %w", claim.ClaimID, err)
		}
		if err := p.store.RefinedClaims.UpsertByClaim(ctx, &entity.RefinedClaim{
			TenantID:   job.TenantID,
			ClaimID:    claim.ID,
			IsValid:    res.IsValid(),
			TechErrors: res.Technical,
			MedErrors:  res.Medical,
			AIFindings: ai,
			Score:      res.Score(),
		}); err != nil {
			return processed, total, fmt.Errorf("claim %s: refined result: %w", claim.ClaimID, err)
		}
		p.recorder.ClaimClassified(tenant, res.ErrorType)
		processed++
	}
	return processed, total, nil
}

// aggregate recomputes metrics over all of the tenant's claims and appends a snapshot.
func (p *Processor) aggregate(ctx context.Context, job *entity.JobRun) error {
	all, err := p.store.Claims.ListByTenant(ctx, job.TenantID)
	if err != nil {
		return fmt.Errorf("list claims for metrics: %w", err)
	}
	m := aggregate.Aggregate(all, p.now())
	if _, err := p.store.Metrics.Append(ctx, job.TenantID, job.RuleSetID, m); err != nil {
		return fmt.Errorf("append metric: %w", err)
	}
	return nil
}

func ruleSetID(rs *entity.RuleSet) *uuid.UUID {
	if rs == nil || rs.ID == uuid.Nil {
		return nil
	}
	id := rs.ID
	return &id
}
