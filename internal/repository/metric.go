package repository

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

var metricColumns = []string{"id", "tenant_id", "rule_set_id", "as_of", "counts_by_error", "paid_by_error"}

type metricRepository struct {
	sqlRepo
}

func NewMetricRepository(base sqlRepo) MetricRepository {
	return &metricRepository{sqlRepo: base}
}

func (r *metricRepository) Append(ctx context.Context, tenantID uuid.UUID, ruleSetID *uuid.UUID, m entity.Metric) (*entity.Metric, error) {
	m.ID = uuid.New()
	m.TenantID = tenantID
	m.RuleSetID = ruleSetID
	counts, err := jsonArg(m.CountsByError)
	if err != nil {
		return nil, err
	}
	paid, err := jsonArg(m.PaidByError)
	if err != nil {
		return nil, err
	}
	var rsID any
	if ruleSetID != nil {
		rsID = *ruleSetID
	}
	q := r.builder().Insert("metrics").
		Columns(metricColumns...).
		Values(m.ID, tenantID, rsID, timeArg(r.dialect, m.AsOf), counts, paid)
	if _, err := r.exec(ctx, q); err != nil {
		r.logger.Error("failed to append metric", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("append metric: %w", err)
	}
	return &m, nil
}

func (r *metricRepository) Latest(ctx context.Context, tenantID uuid.UUID) (*entity.Metric, error) {
	b := r.builder()
	q := b.Select(metricColumns...).From(b.Table("metrics")).
		Where(entsql.EQ("tenant_id", tenantID)).
		OrderBy(entsql.Desc("as_of")).
		Limit(1)
	m, err := scanMetric(r.queryRow(ctx, q))
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *metricRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.Metric, error) {
	b := r.builder()
	q := b.Select(metricColumns...).From(b.Table("metrics")).
		Where(entsql.EQ("tenant_id", tenantID)).
		OrderBy(entsql.Asc("as_of"))
	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	return collect(rows, scanMetric)
}

func scanMetric(row rowScanner) (*entity.Metric, error) {
	var m entity.Metric
	var rsID uuid.NullUUID
	var asOf timeCol
	if err := row.Scan(&m.ID, &m.TenantID, &rsID, &asOf, jsonCol{&m.CountsByError}, jsonCol{&m.PaidByError}); err != nil {
		return nil, err
	}
	if rsID.Valid {
		id := rsID.UUID
		m.RuleSetID = &id
	}
	m.AsOf = asOf.Time
	return &m, nil
}
