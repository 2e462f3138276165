package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/pipeline"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/internal/repository/memory"
)

// gatedRunner blocks Execute until release is closed.
type gatedRunner struct {
	started chan uuid.UUID
	release chan struct{}
}

func newGatedRunner() *gatedRunner {
	return &gatedRunner{started: make(chan uuid.UUID, 16), release: make(chan struct{})}
}

func (r *gatedRunner) ActiveRuleSet(context.Context, uuid.UUID) (*entity.RuleSet, error) {
	return &entity.RuleSet{ID: uuid.New()}, nil
}

func (r *gatedRunner) Enqueue(_ context.Context, tenantID uuid.UUID, _ *entity.RuleSet) (*entity.JobRun, error) {
	return &entity.JobRun{ID: uuid.New(), TenantID: tenantID, Status: constants.JobStatusPending}, nil
}

func (r *gatedRunner) Execute(ctx context.Context, job *entity.JobRun, _ *entity.RuleSet) (*entity.JobRun, error) {
	r.started <- job.TenantID
	select {
	case <-r.release:
	case <-ctx.Done():
		return job, ctx.Err()
	}
	job.Status = constants.JobStatusFinished
	return job, nil
}

func waitStarted(t *testing.T, r *gatedRunner) uuid.UUID {
	t.Helper()
	select {
	case id := <-r.started:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("run did not start")
		return uuid.Nil
	}
}

func seedTenant(t *testing.T, store *repository.Store, code string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	tenant, err := store.Tenants.Create(ctx, code, code)
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	if _, err := store.RuleSets.Upsert(ctx, &entity.RuleSet{
		TenantID: tenant.ID,
		Name:     "default",
		TechnicalRules: entity.RuleGroup{{Name: "paid", Rules: []entity.Rule{{
			ID: "paid_max", Field: "paid_amount_aed", Operator: "<=", Value: float64(10000),
		}}}},
	}); err != nil {
		t.Fatalf("upsert rule set: %v", err)
	}
	if _, err := store.Claims.UpsertByClaimID(ctx, &entity.Claim{
		TenantID: tenant.ID, ClaimID: "C1001", PaidAmountAED: decimal.NewFromInt(12000),
	}); err != nil {
		t.Fatalf("upsert claim: %v", err)
	}
	return tenant.ID
}

func TestValidationQueue_RunsPendingJob(t *testing.T) {
	store := memory.NewStore()
	tenantID := seedTenant(t, store, "demo")
	proc := pipeline.NewProcessor(store, nil)

	var mu sync.Mutex
	var done []*entity.JobRun
	finished := make(chan struct{})
	q := NewValidationQueue(proc, nil, WithWorkers(1), WithOnDone(func(_ context.Context, run *entity.JobRun, err error) {
		if err != nil {
			t.Errorf("run error: %v", err)
		}
		mu.Lock()
		done = append(done, run)
		mu.Unlock()
		close(finished)
	}))
	defer q.Shutdown(context.Background())

	run, err := q.Submit(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if run.Status != constants.JobStatusPending {
		t.Errorf("submitted status = %s, want Pending", run.Status)
	}

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(done) != 1 || done[0].Status != constants.JobStatusFinished {
		t.Fatalf("done = %+v", done)
	}
	stored, err := store.JobRuns.Get(context.Background(), run.ID)
	if err != nil || stored.Status != constants.JobStatusFinished {
		t.Errorf("stored = %+v, %v", stored, err)
	}
}

func TestValidationQueue_SkipsTenantInFlight(t *testing.T) {
	runner := newGatedRunner()
	q := NewValidationQueue(runner, nil, WithWorkers(2))
	tenantID := uuid.New()

	if _, err := q.Submit(context.Background(), tenantID); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitStarted(t, runner)
	if _, err := q.Submit(context.Background(), tenantID); !errors.Is(err, ErrAlreadyQueued) {
		t.Errorf("second Submit err = %v, want ErrAlreadyQueued", err)
	}
	if _, err := q.Submit(context.Background(), uuid.New()); err != nil {
		t.Errorf("other tenant Submit: %v", err)
	}

	close(runner.release)
	q.Shutdown(context.Background())
	if _, err := q.Submit(context.Background(), tenantID); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Submit after shutdown err = %v, want ErrQueueClosed", err)
	}
}

func TestValidationQueue_RejectsWhenFull(t *testing.T) {
	runner := newGatedRunner()
	q := NewValidationQueue(runner, nil, WithWorkers(1), WithQueueSize(1))

	if _, err := q.Submit(context.Background(), uuid.New()); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	waitStarted(t, runner)
	if _, err := q.Submit(context.Background(), uuid.New()); err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if _, err := q.Submit(context.Background(), uuid.New()); !errors.Is(err, ErrQueueFull) {
		t.Errorf("third Submit err = %v, want ErrQueueFull", err)
	}

	close(runner.release)
	q.Shutdown(context.Background())
}

func TestValidationQueue_RunTimeoutFailsJob(t *testing.T) {
	runner := newGatedRunner()
	errs := make(chan error, 1)
	q := NewValidationQueue(runner, nil, WithRunTimeout(20*time.Millisecond), WithOnDone(func(_ context.Context, _ *entity.JobRun, err error) {
		errs <- err
	}))
	defer q.Shutdown(context.Background())

	if _, err := q.Submit(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case err := <-errs:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want deadline exceeded", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not time out")
	}
}
