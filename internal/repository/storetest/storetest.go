// Package storetest holds behaviour checks shared by every repository.Store implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
)

// Run exercises store against the repository contracts. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) *repository.Store) {
	t.Run("tenants", func(t *testing.T) { testTenants(t, newStore(t)) })
	t.Run("rule sets", func(t *testing.T) { testRuleSets(t, newStore(t)) })
	t.Run("claims", func(t *testing.T) { testClaims(t, newStore(t)) })
	t.Run("refined claims", func(t *testing.T) { testRefinedClaims(t, newStore(t)) })
	t.Run("metrics", func(t *testing.T) { testMetrics(t, newStore(t)) })
	t.Run("job runs", func(t *testing.T) { testJobRuns(t, newStore(t)) })
}

func strPtr(s string) *string { return &s }

func mustTenant(t *testing.T, s *repository.Store, code string) *entity.Tenant {
	t.Helper()
	tenant, err := s.Tenants.Create(context.Background(), code, code+" tenant")
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return tenant
}

func testTenants(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	created := mustTenant(t, s, "demo")
	mustTenant(t, s, "acme")

	if _, err := s.Tenants.Create(ctx, "demo", "again"); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate code: got %v, want ErrDuplicate", err)
	}
	got, err := s.Tenants.GetByCode(ctx, "demo")
	if err != nil || got.ID != created.ID {
		t.Fatalf("GetByCode: got %+v, %v", got, err)
	}
	if _, err := s.Tenants.Get(ctx, uuid.New()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Get missing: got %v", err)
	}
	list, err := s.Tenants.List(ctx)
	if err != nil || len(list) != 2 || list[0].Code != "acme" {
		t.Fatalf("List: got %+v, %v", list, err)
	}
}

func demoRuleSet(tenantID uuid.UUID, name string) *entity.RuleSet {
	return &entity.RuleSet{
		TenantID: tenantID,
		Name:     name,
		TechnicalRules: entity.RuleGroup{
			{Name: "paid_thresholds", Rules: []entity.Rule{{ID: "paid", Field: "paid_amount_aed", Operator: "<=", Value: float64(10000)}}},
			{Name: "approval", Rules: []entity.Rule{{ID: "appr", Field: "approval_number", Operator: "!=", Value: nil}}},
		},
		MedicalRules: entity.RuleGroup{
			{Name: "dx_svc_mapping", Rules: []entity.Rule{{ID: "svc", Field: "service_code", Operator: "in", Value: []any{"99213", "MRI"}}}},
		},
	}
}

func testRuleSets(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	tenant := mustTenant(t, s, "demo")

	if _, err := s.RuleSets.ActiveForTenant(ctx, tenant.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("no rule sets: got %v", err)
	}

	first, err := s.RuleSets.Upsert(ctx, demoRuleSet(tenant.ID, "default"))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.Version != "v1" || !first.IsActive {
		t.Fatalf("defaults: got %+v", first)
	}
	if first.TechnicalRules[0].Name != "paid_thresholds" || first.TechnicalRules[1].Name != "approval" {
		t.Fatalf("category order lost: %+v", first.TechnicalRules)
	}

	time.Sleep(2 * time.Millisecond)
	second, err := s.RuleSets.Upsert(ctx, demoRuleSet(tenant.ID, "stricter"))
	if err != nil {
		t.Fatalf("upsert second: %v", err)
	}
	active, err := s.RuleSets.ActiveForTenant(ctx, tenant.ID)
	if err != nil || active.ID != second.ID {
		t.Fatalf("active: got %+v, %v; want %s", active, err, second.ID)
	}

	again := demoRuleSet(tenant.ID, "default")
	again.MedicalRules = nil
	replaced, err := s.RuleSets.Upsert(ctx, again)
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if replaced.ID != first.ID || replaced.MedicalRules.Len() != 0 {
		t.Fatalf("re-upsert should replace in place: %+v", replaced)
	}
	list, err := s.RuleSets.ListByTenant(ctx, tenant.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: got %d, %v", len(list), err)
	}
}

func newClaim(tenantID uuid.UUID, id string, paid int64) *entity.Claim {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return &entity.Claim{
		TenantID:       tenantID,
		ClaimID:        id,
		EncounterType:  strPtr("Outpatient"),
		ServiceDate:    &date,
		MemberID:       strPtr("M-" + id),
		DiagnosisCodes: []string{"J20", "E11"},
		ServiceCode:    strPtr("99213"),
		PaidAmountAED:  decimal.NewFromInt(paid),
	}
}

func testClaims(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	tenant := mustTenant(t, s, "demo")
	other := mustTenant(t, s, "other")

	first, err := s.Claims.UpsertByClaimID(ctx, newClaim(tenant.ID, "C1001", 12000))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.Status != constants.ClaimStatusUploaded || first.ErrorType != constants.NoError {
		t.Fatalf("fresh claim state: %+v", first)
	}
	if first.ServiceDate == nil || first.ServiceDate.Format("2006-01-02") != "2024-03-15" {
		t.Fatalf("service date: got %v", first.ServiceDate)
	}
	if len(first.DiagnosisCodes) != 2 || first.DiagnosisCodes[1] != "E11" {
		t.Fatalf("diagnosis codes: got %v", first.DiagnosisCodes)
	}
	if first.NationalID != nil {
		t.Fatalf("national id should be absent, got %q", *first.NationalID)
	}
	if !first.PaidAmountAED.Equal(decimal.NewFromInt(12000)) {
		t.Fatalf("paid: got %s", first.PaidAmountAED)
	}
	if _, err := s.Claims.UpsertByClaimID(ctx, newClaim(tenant.ID, "C1002", 800)); err != nil {
		t.Fatalf("upsert second: %v", err)
	}
	if _, err := s.Claims.UpsertByClaimID(ctx, newClaim(other.ID, "C1001", 1)); err != nil {
		t.Fatalf("upsert other tenant: %v", err)
	}

	first.Status = constants.ClaimStatusNotValidated
	first.ErrorType = constants.TechnicalError
	first.ErrorExplanation = "- too high"
	first.RecommendedAction = "- verify"
	if err := s.Claims.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	list, err := s.Claims.ListByTenant(ctx, tenant.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: got %d, %v", len(list), err)
	}
	if list[0].ClaimID != "C1001" || list[0].ErrorType != constants.TechnicalError || list[0].ErrorExplanation != "- too high" {
		t.Fatalf("saved fields not persisted: %+v", list[0])
	}

	recent, err := s.Claims.ListRecent(ctx, tenant.ID, 1)
	if err != nil || len(recent) != 1 || recent[0].ClaimID != "C1001" {
		t.Fatalf("recent: got %+v, %v", recent, err)
	}

	reloaded := newClaim(tenant.ID, "C1001", 500)
	reloaded.ServiceDate = nil
	re, err := s.Claims.UpsertByClaimID(ctx, reloaded)
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if re.ID != first.ID || re.Status != constants.ClaimStatusUploaded || re.ServiceDate != nil || !re.PaidAmountAED.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("re-upsert should replace row in place and reset status: %+v", re)
	}

	ghost := newClaim(tenant.ID, "ghost", 1)
	ghost.ID = uuid.New()
	if err := s.Claims.Save(ctx, ghost); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("save missing: got %v", err)
	}
}

func testRefinedClaims(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	tenant := mustTenant(t, s, "demo")
	claim, err := s.Claims.UpsertByClaimID(ctx, newClaim(tenant.ID, "C1001", 12000))
	if err != nil {
		t.Fatalf("upsert claim: %v", err)
	}

	finding := entity.Finding{Category: "paid", RuleID: "paid", Field: "paid_amount_aed", Operator: "<=", ExpectedValue: float64(10000), ErrorType: "Technical error", Explanation: "x"}
	rc := &entity.RefinedClaim{TenantID: tenant.ID, ClaimID: claim.ID, TechErrors: []entity.Finding{finding}, Score: 0}
	if err := s.RefinedClaims.UpsertByClaim(ctx, rc); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rc.IsValid = true
	rc.TechErrors = nil
	rc.Score = 1
	if err := s.RefinedClaims.UpsertByClaim(ctx, rc); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	got, err := s.RefinedClaims.GetByClaim(ctx, claim.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsValid || got.Score != 1 || len(got.TechErrors) != 0 {
		t.Fatalf("refined claim not overwritten: %+v", got)
	}
	n, err := s.RefinedClaims.CountByTenant(ctx, tenant.ID)
	if err != nil || n != 1 {
		t.Fatalf("count: got %d, %v", n, err)
	}
	if _, err := s.RefinedClaims.GetByClaim(ctx, uuid.New()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("get missing: got %v", err)
	}
}

func testMetrics(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	tenant := mustTenant(t, s, "demo")
	rs, err := s.RuleSets.Upsert(ctx, demoRuleSet(tenant.ID, "default"))
	if err != nil {
		t.Fatalf("upsert rule set: %v", err)
	}

	if _, err := s.Metrics.Latest(ctx, tenant.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("latest on empty: got %v", err)
	}
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, paid := range []string{"12000.00", "800.50"} {
		m := entity.Metric{
			AsOf:          base.Add(time.Duration(i) * time.Minute),
			CountsByError: map[constants.ErrorType]int{constants.TechnicalError: i + 1},
			PaidByError:   map[constants.ErrorType]decimal.Decimal{constants.TechnicalError: decimal.RequireFromString(paid)},
		}
		if _, err := s.Metrics.Append(ctx, tenant.ID, &rs.ID, m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	latest, err := s.Metrics.Latest(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.CountsByError[constants.TechnicalError] != 2 || !latest.PaidByError[constants.TechnicalError].Equal(decimal.RequireFromString("800.50")) {
		t.Fatalf("latest: got %+v", latest)
	}
	if latest.RuleSetID == nil || *latest.RuleSetID != rs.ID {
		t.Fatalf("rule set id: got %v", latest.RuleSetID)
	}
	all, err := s.Metrics.ListByTenant(ctx, tenant.ID)
	if err != nil || len(all) != 2 {
		t.Fatalf("list: got %d, %v", len(all), err)
	}
}

func testJobRuns(t *testing.T, s *repository.Store) {
	ctx := context.Background()
	tenant := mustTenant(t, s, "demo")

	job, err := s.JobRuns.Create(ctx, tenant.ID, nil, constants.JobTypeValidation, constants.JobStatusRunning)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.Status != constants.JobStatusRunning || job.FinishedAt != nil {
		t.Fatalf("created job: %+v", job)
	}
	done := time.Now().UTC()
	if err := s.JobRuns.Update(ctx, job.ID, constants.JobStatusFailed, map[string]any{"error": "boom"}, &done); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.JobRuns.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != constants.JobStatusFailed || got.ErrorDetail() != "boom" || got.FinishedAt == nil {
		t.Fatalf("updated job: %+v", got)
	}

	time.Sleep(2 * time.Millisecond)
	second, err := s.JobRuns.Create(ctx, tenant.ID, nil, constants.JobTypeValidation, constants.JobStatusPending)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	recent, err := s.JobRuns.ListRecent(ctx, tenant.ID, 1)
	if err != nil || len(recent) != 1 || recent[0].ID != second.ID {
		t.Fatalf("recent: got %+v, %v", recent, err)
	}
	if err := s.JobRuns.Update(ctx, uuid.New(), constants.JobStatusFinished, nil, nil); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("update missing: got %v", err)
	}
}
