package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
)

type fixture struct {
	store   *repository.Store
	tenant  *entity.Tenant
	ruleSet *entity.RuleSet
}

func demoRuleSet() *entity.RuleSet {
	return &entity.RuleSet{
		Name: "default",
		TechnicalRules: entity.RuleGroup{{Name: "paid_thresholds", Rules: []entity.Rule{{
			ID: "paid_gt_10000", Field: "paid_amount_aed", Operator: "<=", Value: float64(10000),
			ErrorType: "Technical error", Message: "Paid amount exceeds threshold",
			Recommendation: "Verify pricing and approval number.",
		}}}},
		MedicalRules: entity.RuleGroup{{Name: "dx_svc_mapping", Rules: []entity.Rule{{
			ID: "svc_dx_mismatch", Field: "service_code", Operator: "in", Value: []any{"99213", "MRI"},
			ErrorType: "Medical error", Message: "Service code not allowed for diagnosis",
			Recommendation: "Check medical necessity and documented diagnosis.",
		}}}},
	}
}

func newFixture(t *testing.T, store *repository.Store) *fixture {
	t.Helper()
	ctx := context.Background()
	tenant, err := store.Tenants.Create(ctx, "demo", "Demo")
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	rs := demoRuleSet()
	rs.TenantID = tenant.ID
	saved, err := store.RuleSets.Upsert(ctx, rs)
	if err != nil {
		t.Fatalf("upsert rule set: %v", err)
	}
	return &fixture{store: store, tenant: tenant, ruleSet: saved}
}

func (f *fixture) addClaim(t *testing.T, id string, paid int64, serviceCode string) *entity.Claim {
	t.Helper()
	code := serviceCode
	c, err := f.store.Claims.UpsertByClaimID(context.Background(), &entity.Claim{
		TenantID:       f.tenant.ID,
		ClaimID:        id,
		ServiceCode:    &code,
		PaidAmountAED:  decimal.NewFromInt(paid),
		DiagnosisCodes: []string{"J20"},
	})
	if err != nil {
		t.Fatalf("upsert claim: %v", err)
	}
	return c
}

func (f *fixture) claim(t *testing.T, id string) *entity.Claim {
	t.Helper()
	claims, err := f.store.Claims.ListByTenant(context.Background(), f.tenant.ID)
	if err != nil {
		t.Fatalf("list claims: %v", err)
	}
	for _, c := range claims {
		if c.ClaimID == id {
			return c
		}
	}
	t.Fatalf("claim %s not found", id)
	return nil
}

// fakeReviewer tracks concurrency and returns findings from fn.
type fakeReviewer struct {
	delay time.Duration
	fn    func(*entity.Claim) []entity.Finding

	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
}

func (r *fakeReviewer) Enabled() bool { return true }

func (r *fakeReviewer) Review(ctx context.Context, c *entity.Claim, _ *entity.RuleSet) []entity.Finding {
	r.mu.Lock()
	r.calls++
	r.inFlight++
	if r.inFlight > r.maxInFlight {
		r.maxInFlight = r.inFlight
	}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil
		}
	}
	if r.fn == nil {
		return nil
	}
	return r.fn(c)
}

type countingRecorder struct {
	mu       sync.Mutex
	started  int
	finished []string
	byType   map[string]int
	reviews  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{byType: map[string]int{}, reviews: map[string]int{}}
}

func (r *countingRecorder) RunStarted(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *countingRecorder) RunFinished(_ string, status constants.JobStatus, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, string(status))
}

func (r *countingRecorder) ClaimClassified(_ string, et constants.ErrorType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[string(et)]++
}

func (r *countingRecorder) AIReviewed(_ string, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews[outcome]++
}
