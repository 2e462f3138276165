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

var claimColumns = []string{
	"id", "tenant_id", "claim_id", "encounter_type", "service_date", "national_id",
	"member_id", "facility_id", "unique_id", "diagnosis_codes", "service_code",
	"paid_amount_aed", "approval_number", "status", "error_type", "error_explanation",
	"recommended_action", "created_at", "updated_at",
}

// claimDataColumns are replaced by an upload; id and created_at are kept.
var claimDataColumns = []string{
	"encounter_type", "service_date", "national_id", "member_id", "facility_id",
	"unique_id", "diagnosis_codes", "service_code", "paid_amount_aed", "approval_number",
	"status", "error_type", "error_explanation", "recommended_action", "updated_at",
}

type claimRepository struct {
	sqlRepo
}

func NewClaimRepository(base sqlRepo) ClaimRepository {
	return &claimRepository{sqlRepo: base}
}

func (r *claimRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.Claim, error) {
	b := r.builder()
	q := b.Select(claimColumns...).From(b.Table("claims")).
		Where(entsql.EQ("tenant_id", tenantID)).
		OrderBy(entsql.Asc("created_at"), entsql.Asc("claim_id"))
	rows, err := r.query(ctx, q)
	if err != nil {
		r.logger.Error("failed to list claims", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return collect(rows, scanClaim)
}

func (r *claimRepository) ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.Claim, error) {
	b := r.builder()
	q := b.Select(claimColumns...).From(b.Table("claims")).
		Where(entsql.EQ("tenant_id", tenantID)).
		OrderBy(entsql.Desc("updated_at"), entsql.Asc("claim_id"))
	if limit > 0 {
		q = q.Limit(limit)
	}
	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list recent claims: %w", err)
	}
	return collect(rows, scanClaim)
}

func (r *claimRepository) Save(ctx context.Context, c *entity.Claim) error {
	c.UpdatedAt = time.Now().UTC()
	q := r.builder().Update("claims").
		Set("status", string(c.Status)).
		Set("error_type", string(c.ErrorType)).
		Set("error_explanation", c.ErrorExplanation).
		Set("recommended_action", c.RecommendedAction).
		Set("updated_at", timeArg(r.dialect, c.UpdatedAt)).
		Where(entsql.EQ("id", c.ID))
	res, err := r.exec(ctx, q)
	if err != nil {
		r.logger.Error("failed to save claim", "claim_id", c.ClaimID, "error", err)
		return fmt.Errorf("save claim %s: %w", c.ClaimID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("save claim %s: %w", c.ClaimID, ErrNotFound)
	}
	return nil
}

func (r *claimRepository) UpsertByClaimID(ctx context.Context, c *entity.Claim) (*entity.Claim, error) {
	now := time.Now().UTC()
	c.Status = constants.ClaimStatusUploaded
	c.ErrorType = constants.NoError
	c.ErrorExplanation = ""
	c.RecommendedAction = ""
	codes := c.DiagnosisCodes
	if codes == nil {
		codes = []string{}
	}
	dx, err := jsonArg(codes)
	if err != nil {
		return nil, err
	}

	q := r.builder().Insert("claims").
		Columns(claimColumns...).
		Values(
			uuid.New(), c.TenantID, c.ClaimID,
			optStringArg(c.EncounterType), dateArg(c.ServiceDate), optStringArg(c.NationalID),
			optStringArg(c.MemberID), optStringArg(c.FacilityID), optStringArg(c.UniqueID),
			dx, optStringArg(c.ServiceCode), c.PaidAmountAED.StringFixed(2), optStringArg(c.ApprovalNumber),
			string(c.Status), string(c.ErrorType), c.ErrorExplanation, c.RecommendedAction,
			timeArg(r.dialect, now), timeArg(r.dialect, now),
		).
		OnConflict(
			entsql.ConflictColumns("tenant_id", "claim_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, col := range claimDataColumns {
					u.SetExcluded(col)
				}
			}),
		)
	if _, err := r.exec(ctx, q); err != nil {
		r.logger.Error("failed to upsert claim", "claim_id", c.ClaimID, "error", err)
		return nil, fmt.Errorf("upsert claim %s: %w", c.ClaimID, err)
	}

	b := r.builder()
	sel := b.Select(claimColumns...).From(b.Table("claims")).
		Where(entsql.And(entsql.EQ("tenant_id", c.TenantID), entsql.EQ("claim_id", c.ClaimID)))
	saved, err := scanClaim(r.queryRow(ctx, sel))
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func scanClaim(row rowScanner) (*entity.Claim, error) {
	var c entity.Claim
	var serviceDate, created, updated timeCol
	var status, errorType string
	if err := row.Scan(
		&c.ID, &c.TenantID, &c.ClaimID,
		optString{&c.EncounterType}, &serviceDate, optString{&c.NationalID},
		optString{&c.MemberID}, optString{&c.FacilityID}, optString{&c.UniqueID},
		jsonCol{&c.DiagnosisCodes}, optString{&c.ServiceCode}, &c.PaidAmountAED, optString{&c.ApprovalNumber},
		&status, &errorType, &c.ErrorExplanation, &c.RecommendedAction,
		&created, &updated,
	); err != nil {
		return nil, err
	}
	c.ServiceDate = serviceDate.ptr()
	c.Status = constants.ClaimStatus(status)
	c.ErrorType = constants.ErrorType(errorType)
	c.CreatedAt = created.Time
	c.UpdatedAt = updated.Time
	return &c, nil
}
