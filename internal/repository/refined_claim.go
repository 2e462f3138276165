package repository

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

var refinedClaimColumns = []string{"id", "tenant_id", "claim_id", "is_valid", "tech_errors", "med_errors", "ai_findings", "score", "updated_at"}

type refinedClaimRepository struct {
	sqlRepo
}

func NewRefinedClaimRepository(base sqlRepo) RefinedClaimRepository {
	return &refinedClaimRepository{sqlRepo: base}
}

func (r *refinedClaimRepository) UpsertByClaim(ctx context.Context, rc *entity.RefinedClaim) error {
	rc.UpdatedAt = time.Now().UTC()
	args := make([]any, 0, 3)
	for _, findings := range [][]entity.Finding{rc.TechErrors, rc.MedErrors, rc.AIFindings} {
		if findings == nil {
			findings = []entity.Finding{}
		}
		v, err := jsonArg(findings)
		if err != nil {
			return err
		}
		args = append(args, v)
	}

	q := r.builder().Insert("refined_claims").
		Columns(refinedClaimColumns...).
		Values(uuid.New(), rc.TenantID, rc.ClaimID, rc.IsValid, args[0], args[1], args[2], rc.Score, timeArg(r.dialect, rc.UpdatedAt)).
		OnConflict(
			entsql.ConflictColumns("claim_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, col := range refinedClaimColumns[3:] {
					u.SetExcluded(col)
				}
			}),
		)
	if _, err := r.exec(ctx, q); err != nil {
		r.logger.Error("failed to upsert refined claim", "claim_id", rc.ClaimID, "error", err)
		return fmt.Errorf("upsert refined claim %s: %w", rc.ClaimID, err)
	}
	return nil
}

func (r *refinedClaimRepository) GetByClaim(ctx context.Context, claimID uuid.UUID) (*entity.RefinedClaim, error) {
	b := r.builder()
	q := b.Select(refinedClaimColumns...).From(b.Table("refined_claims")).Where(entsql.EQ("claim_id", claimID))
	var rc entity.RefinedClaim
	var updated timeCol
	err := r.queryRow(ctx, q).Scan(&rc.ID, &rc.TenantID, &rc.ClaimID, &rc.IsValid,
		jsonCol{&rc.TechErrors}, jsonCol{&rc.MedErrors}, jsonCol{&rc.AIFindings}, &rc.Score, &updated)
	if err != nil {
		return nil, mapError(err)
	}
	rc.UpdatedAt = updated.Time
	return &rc, nil
}

func (r *refinedClaimRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	b := r.builder()
	q := b.Select(entsql.Count("*")).From(b.Table("refined_claims")).Where(entsql.EQ("tenant_id", tenantID))
	var n int
	if err := r.queryRow(ctx, q).Scan(&n); err != nil {
		return 0, mapError(err)
	}
	return n, nil
}
