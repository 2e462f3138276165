package repository

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

var ruleSetColumns = []string{"id", "tenant_id", "name", "version", "technical_rules", "medical_rules", "is_active", "created_at"}

type ruleSetRepository struct {
	sqlRepo
}

func NewRuleSetRepository(base sqlRepo) RuleSetRepository {
	return &ruleSetRepository{sqlRepo: base}
}

func (r *ruleSetRepository) Upsert(ctx context.Context, rs *entity.RuleSet) (*entity.RuleSet, error) {
	if rs.Version == "" {
		rs.Version = "v1"
	}
	tech, err := jsonArg(rs.TechnicalRules)
	if err != nil {
		return nil, err
	}
	med, err := jsonArg(rs.MedicalRules)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	q := r.builder().Insert("rule_sets").
		Columns(ruleSetColumns...).
		Values(uuid.New(), rs.TenantID, rs.Name, rs.Version, tech, med, true, timeArg(r.dialect, now)).
		OnConflict(
			entsql.ConflictColumns("tenant_id", "name", "version"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("technical_rules")
				u.SetExcluded("medical_rules")
				u.SetExcluded("is_active")
			}),
		)
	if _, err := r.exec(ctx, q); err != nil {
		r.logger.Error("failed to upsert rule set", "tenant_id", rs.TenantID, "name", rs.Name, "error", err)
		return nil, fmt.Errorf("upsert rule set %s/%s: %w", rs.Name, rs.Version, err)
	}

	b := r.builder()
	sel := b.Select(ruleSetColumns...).From(b.Table("rule_sets")).
		Where(entsql.And(
			entsql.EQ("tenant_id", rs.TenantID),
			entsql.EQ("name", rs.Name),
			entsql.EQ("version", rs.Version),
		))
	saved, err := scanRuleSet(r.queryRow(ctx, sel))
	if err != nil {
		return nil, mapError(err)
	}
	r.logger.Info("rule set saved", "rule_set_id", saved.ID, "tenant_id", saved.TenantID, "name", saved.Name, "version", saved.Version)
	return saved, nil
}

func (r *ruleSetRepository) ActiveForTenant(ctx context.Context, tenantID uuid.UUID) (*entity.RuleSet, error) {
	b := r.builder()
	q := b.Select(ruleSetColumns...).From(b.Table("rule_sets")).
		Where(entsql.And(entsql.EQ("tenant_id", tenantID), entsql.EQ("is_active", true))).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(1)
	rs, err := scanRuleSet(r.queryRow(ctx, q))
	if err != nil {
		return nil, mapError(err)
	}
	return rs, nil
}

func (r *ruleSetRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.RuleSet, error) {
	b := r.builder()
	q := b.Select(ruleSetColumns...).From(b.Table("rule_sets")).
		Where(entsql.EQ("tenant_id", tenantID)).
		OrderBy(entsql.Desc("created_at"))
	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list rule sets: %w", err)
	}
	return collect(rows, scanRuleSet)
}

func scanRuleSet(row rowScanner) (*entity.RuleSet, error) {
	var rs entity.RuleSet
	var created timeCol
	if err := row.Scan(&rs.ID, &rs.TenantID, &rs.Name, &rs.Version,
		jsonCol{&rs.TechnicalRules}, jsonCol{&rs.MedicalRules}, &rs.IsActive, &created); err != nil {
		return nil, err
	}
	rs.CreatedAt = created.Time
	return &rs, nil
}
