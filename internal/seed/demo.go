// Package seed loads the demo tenant used for local runs and smoke tests.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/pipeline"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/internal/services/tenant"
)

// DemoTenantCode is the code of the seeded tenant.
const DemoTenantCode = "demo"

// DemoResult is what Demo created or refreshed.
type DemoResult struct {
	Tenant  *entity.Tenant
	RuleSet *entity.RuleSet
	Claims  []*entity.Claim
	Run     *entity.JobRun
}

// DemoRuleSet returns the default/v1 rule set without a tenant.
func DemoRuleSet() *entity.RuleSet {
	return &entity.RuleSet{
		Name:     "default",
		Version:  "v1",
		IsActive: true,
		TechnicalRules: entity.RuleGroup{{Name: "paid_thresholds", Rules: []entity.Rule{{
			ID:             "paid_gt_10000",
			Field:          "paid_amount_aed",
			Operator:       "<=",
			Value:          int64(10000),
			ErrorType:      "Technical error",
			Message:        "Paid amount exceeds threshold",
			Recommendation: "Verify pricing and approval number.",
		}}}},
		MedicalRules: entity.RuleGroup{{Name: "dx_svc_mapping", Rules: []entity.Rule{{
			ID:             "svc_dx_mismatch",
			Field:          "service_code",
			Operator:       "in",
			Value:          []any{"99213", "MRI"},
			ErrorType:      "Medical error",
			Message:        "Service code not allowed for diagnosis",
			Recommendation: "Check medical necessity and documented diagnosis.",
		}}}},
	}
}

func demoClaims(today time.Time) []*entity.Claim {
	str := func(s string) *string { return &s }
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	mk := func(id, member, service, dx string, paid int64) *entity.Claim {
		return &entity.Claim{
			ClaimID:        id,
			EncounterType:  str("OP"),
			ServiceDate:    &day,
			NationalID:     str("N/A"),
			MemberID:       str(member),
			FacilityID:     str("F001"),
			UniqueID:       str(id),
			DiagnosisCodes: []string{dx},
			ServiceCode:    str(service),
			PaidAmountAED:  decimal.NewFromInt(paid),
			ApprovalNumber: str("APPR-001"),
		}
	}
	return []*entity.Claim{
		mk("C1001", "M1", "99213", "J20", 12000),
		mk("C1002", "M2", "LAB01", "E11", 800),
	}
}

// Demo creates the demo tenant, its rule set and two claims, then runs one
// validation. Running it again refreshes the same rows.
func Demo(ctx context.Context, store *repository.Store, proc *pipeline.Processor, logger *slog.Logger) (*DemoResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t, err := tenant.NewService(store.Tenants, logger).GetOrCreate(ctx, tenant.CreateTenantRequest{Code: DemoTenantCode, Name: "Demo Tenant"})
	if err != nil {
		return nil, fmt.Errorf("demo tenant: %w", err)
	}
	logger.Info("seed.tenant", "tenant_id", t.ID)

	rs := DemoRuleSet()
	rs.TenantID = t.ID
	rs, err = store.RuleSets.Upsert(ctx, rs)
	if err != nil {
		return nil, fmt.Errorf("demo rule set: %w", err)
	}

	out := &DemoResult{Tenant: t, RuleSet: rs}
	for _, c := range demoClaims(time.Now().UTC()) {
		c.TenantID = t.ID
		saved, err := store.Claims.UpsertByClaimID(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("demo claim %s: %w", c.ClaimID, err)
		}
		out.Claims = append(out.Claims, saved)
	}

	run, err := proc.Run(ctx, t.ID, rs)
	out.Run = run
	if err != nil {
		return out, fmt.Errorf("demo validation: %w", err)
	}
	logger.Info("seed.complete", "tenant_id", t.ID, "job_id", run.ID)
	return out, nil
}
