package repository

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

var jobRunColumns = []string{"id", "tenant_id", "rule_set_id", "job_type", "status", "detail", "created_at", "finished_at"}

type jobRunRepository struct {
	sqlRepo
}

func NewJobRunRepository(base sqlRepo) JobRunRepository {
	return &jobRunRepository{sqlRepo: base}
}

func (r *jobRunRepository) Create(ctx context.Context, tenantID uuid.UUID, ruleSetID *uuid.UUID, jobType string, status constants.JobStatus) (*entity.JobRun, error) {
	job := &entity.JobRun{
		ID:        uuid.New(),
		TenantID:  tenantID,
		RuleSetID: ruleSetID,
		JobType:   jobType,
		Status:    status,
		Detail:    map[string]any{},
		CreatedAt: time.Now().UTC(),
	}
	detail, err := jsonArg(job.Detail)
	if err != nil {
		return nil, err
	}
	var rsID any
	if ruleSetID != nil {
		rsID = *ruleSetID
	}
	q := r.builder().Insert("job_runs").
		Columns(jobRunColumns...).
		Values(job.ID, tenantID, rsID, jobType, string(status), detail, timeArg(r.dialect, job.CreatedAt), nil)
	if _, err := r.exec(ctx, q); err != nil {
		r.logger.Error("job_run start failed", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("create job run: %w", err)
	}
	r.logger.Info("job_run started", "job_id", job.ID, "tenant_id", tenantID, "status", status)
	return job, nil
}

func (r *jobRunRepository) Update(ctx context.Context, id uuid.UUID, status constants.JobStatus, detail map[string]any, finishedAt *time.Time) error {
	u := r.builder().Update("job_runs").Set("status", string(status))
	if detail != nil {
		v, err := jsonArg(detail)
		if err != nil {
			return err
		}
		u = u.Set("detail", v)
	}
	if finishedAt != nil {
		u = u.Set("finished_at", optTimeArg(r.dialect, finishedAt))
	}
	res, err := r.exec(ctx, u.Where(entsql.EQ("id", id)))
	if err != nil {
		r.logger.Error("job_run update failed", "job_id", id, "status", status, "error", err)
		return fmt.Errorf("update job run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update job run %s: %w", id, ErrNotFound)
	}
	if status == constants.JobStatusFailed {
		r.logger.Warn("job_run finished", "job_id", id, "status", status, "detail", detail)
	} else {
		r.logger.Info("job_run updated", "job_id", id, "status", status)
	}
	return nil
}

func (r *jobRunRepository) Get(ctx context.Context, id uuid.UUID) (*entity.JobRun, error) {
	b := r.builder()
	q := b.Select(jobRunColumns...).From(b.Table("job_runs")).Where(entsql.EQ("id", id))
	job, err := scanJobRun(r.queryRow(ctx, q))
	if err != nil {
		return nil, mapError(err)
	}
	return job, nil
}

func (r *jobRunRepository) ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.JobRun, error) {
	b := r.builder()
	q := b.Select(jobRunColumns...).From(b.Table("job_runs")).
		Where(entsql.EQ("tenant_id", tenantID)).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		q = q.Limit(limit)
	}
	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list job runs: %w", err)
	}
	return collect(rows, scanJobRun)
}

func scanJobRun(row rowScanner) (*entity.JobRun, error) {
	var job entity.JobRun
	var rsID uuid.NullUUID
	var status string
	var created, finished timeCol
	if err := row.Scan(&job.ID, &job.TenantID, &rsID, &job.JobType, &status, jsonCol{&job.Detail}, &created, &finished); err != nil {
		return nil, err
	}
	if rsID.Valid {
		id := rsID.UUID
		job.RuleSetID = &id
	}
	job.Status = constants.JobStatus(status)
	job.CreatedAt = created.Time
	job.FinishedAt = finished.ptr()
	return &job, nil
}
