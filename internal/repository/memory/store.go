// Package memory is an in-process implementation of the repository contracts.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
)

// DB holds all rows behind one lock.
type DB struct {
	mu        sync.Mutex
	now       func() time.Time
	tenants   map[uuid.UUID]*entity.Tenant
	ruleSets  map[uuid.UUID]*entity.RuleSet
	claims    map[uuid.UUID]*entity.Claim
	refined   map[uuid.UUID]*entity.RefinedClaim // keyed by claim row id
	metrics   []*entity.Metric
	jobRuns   map[uuid.UUID]*entity.JobRun
	jobOrder  []uuid.UUID
	seq       int64
	failSaves func(*entity.Claim) error
}

// Option configures a DB.
type Option func(*DB)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *DB) { d.now = now }
}

// WithSaveHook runs before every claim save; a non-nil error aborts the save.
func WithSaveHook(fn func(*entity.Claim) error) Option {
	return func(d *DB) { d.failSaves = fn }
}

// New returns an empty database.
func New(opts ...Option) *DB {
	d := &DB{
		now:      func() time.Time { return time.Now().UTC() },
		tenants:  map[uuid.UUID]*entity.Tenant{},
		ruleSets: map[uuid.UUID]*entity.RuleSet{},
		claims:   map[uuid.UUID]*entity.Claim{},
		refined:  map[uuid.UUID]*entity.RefinedClaim{},
		jobRuns:  map[uuid.UUID]*entity.JobRun{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewStore returns a repository.Store backed by a fresh DB.
func NewStore(opts ...Option) *repository.Store {
	return New(opts...).Store()
}

// Store exposes d through the repository contracts.
func (d *DB) Store() *repository.Store {
	return &repository.Store{
		Tenants:       tenants{d},
		RuleSets:      ruleSets{d},
		Claims:        claims{d},
		RefinedClaims: refinedClaims{d},
		Metrics:       metrics{d},
		JobRuns:       jobRuns{d},
	}
}

// tick returns a strictly increasing timestamp so orderings are stable.
func (d *DB) tick() time.Time {
	d.seq++
	return d.now().Add(time.Duration(d.seq) * time.Microsecond)
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// deepCopy round-trips through JSON so callers never share slices or maps.
func deepCopy[T any](v T) T {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("memory: copy: %v", err))
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		panic(fmt.Sprintf("memory: copy: %v", err))
	}
	return out
}

type tenants struct{ d *DB }

func (r tenants) Create(_ context.Context, code, name string) (*entity.Tenant, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, t := range r.d.tenants {
		if t.Code == code {
			return nil, fmt.Errorf("create tenant %q: %w", code, repository.ErrDuplicate)
		}
	}
	t := &entity.Tenant{ID: uuid.New(), Code: code, Name: name, CreatedAt: r.d.tick()}
	r.d.tenants[t.ID] = t
	return clone(t), nil
}

func (r tenants) Get(_ context.Context, id uuid.UUID) (*entity.Tenant, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	t, ok := r.d.tenants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(t), nil
}

func (r tenants) GetByCode(_ context.Context, code string) (*entity.Tenant, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, t := range r.d.tenants {
		if t.Code == code {
			return clone(t), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r tenants) List(_ context.Context) ([]*entity.Tenant, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := make([]*entity.Tenant, 0, len(r.d.tenants))
	for _, t := range r.d.tenants {
		out = append(out, clone(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type ruleSets struct{ d *DB }

func (r ruleSets) Upsert(_ context.Context, rs *entity.RuleSet) (*entity.RuleSet, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.tenants[rs.TenantID]; !ok {
		return nil, fmt.Errorf("upsert rule set: tenant %s: %w", rs.TenantID, repository.ErrNotFound)
	}
	version := rs.Version
	if version == "" {
		version = "v1"
	}
	for _, existing := range r.d.ruleSets {
		if existing.TenantID == rs.TenantID && existing.Name == rs.Name && existing.Version == version {
			existing.TechnicalRules = deepCopy(rs.TechnicalRules)
			existing.MedicalRules = deepCopy(rs.MedicalRules)
			existing.IsActive = true
			return r.copyOf(existing), nil
		}
	}
	saved := &entity.RuleSet{
		ID:             uuid.New(),
		TenantID:       rs.TenantID,
		Name:           rs.Name,
		Version:        version,
		TechnicalRules: deepCopy(rs.TechnicalRules),
		MedicalRules:   deepCopy(rs.MedicalRules),
		IsActive:       true,
		CreatedAt:      r.d.tick(),
	}
	r.d.ruleSets[saved.ID] = saved
	return r.copyOf(saved), nil
}

func (r ruleSets) copyOf(rs *entity.RuleSet) *entity.RuleSet {
	c := *rs
	c.TechnicalRules = deepCopy(rs.TechnicalRules)
	c.MedicalRules = deepCopy(rs.MedicalRules)
	return &c
}

func (r ruleSets) ActiveForTenant(_ context.Context, tenantID uuid.UUID) (*entity.RuleSet, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var latest *entity.RuleSet
	for _, rs := range r.d.ruleSets {
		if rs.TenantID != tenantID || !rs.IsActive {
			continue
		}
		if latest == nil || rs.CreatedAt.After(latest.CreatedAt) {
			latest = rs
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return r.copyOf(latest), nil
}

func (r ruleSets) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]*entity.RuleSet, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []*entity.RuleSet
	for _, rs := range r.d.ruleSets {
		if rs.TenantID == tenantID {
			out = append(out, r.copyOf(rs))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// SetActive flips is_active on a stored rule set.
func (d *DB) SetActive(id uuid.UUID, active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rs, ok := d.ruleSets[id]; ok {
		rs.IsActive = active
	}
}

type claims struct{ d *DB }

func (r claims) copyOf(c *entity.Claim) *entity.Claim {
	out := *c
	out.DiagnosisCodes = append([]string(nil), c.DiagnosisCodes...)
	return &out
}

func (r claims) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]*entity.Claim, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := r.filter(tenantID)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ClaimID < out[j].ClaimID
	})
	return out, nil
}

func (r claims) ListRecent(_ context.Context, tenantID uuid.UUID, limit int) ([]*entity.Claim, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := r.filter(tenantID)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ClaimID < out[j].ClaimID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r claims) filter(tenantID uuid.UUID) []*entity.Claim {
	var out []*entity.Claim
	for _, c := range r.d.claims {
		if c.TenantID == tenantID {
			out = append(out, r.copyOf(c))
		}
	}
	return out
}

func (r claims) Save(_ context.Context, c *entity.Claim) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if r.d.failSaves != nil {
		if err := r.d.failSaves(c); err != nil {
			return fmt.Errorf("save claim %s: %w", c.ClaimID, err)
		}
	}
	stored, ok := r.d.claims[c.ID]
	if !ok {
		return fmt.Errorf("save claim %s: %w", c.ClaimID, repository.ErrNotFound)
	}
	c.UpdatedAt = r.d.tick()
	stored.Status = c.Status
	stored.ErrorType = c.ErrorType
	stored.ErrorExplanation = c.ErrorExplanation
	stored.RecommendedAction = c.RecommendedAction
	stored.UpdatedAt = c.UpdatedAt
	return nil
}

func (r claims) UpsertByClaimID(_ context.Context, c *entity.Claim) (*entity.Claim, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.tenants[c.TenantID]; !ok {
		return nil, fmt.Errorf("upsert claim %s: tenant: %w", c.ClaimID, repository.ErrNotFound)
	}
	now := r.d.tick()
	in := r.copyOf(c)
	in.Status = constants.ClaimStatusUploaded
	in.ErrorType = constants.NoError
	in.ErrorExplanation = ""
	in.RecommendedAction = ""
	in.UpdatedAt = now
	if in.DiagnosisCodes == nil {
		in.DiagnosisCodes = []string{}
	}
	for id, existing := range r.d.claims {
		if existing.TenantID == c.TenantID && existing.ClaimID == c.ClaimID {
			in.ID = id
			in.CreatedAt = existing.CreatedAt
			r.d.claims[id] = in
			return r.copyOf(in), nil
		}
	}
	in.ID = uuid.New()
	in.CreatedAt = now
	r.d.claims[in.ID] = in
	return r.copyOf(in), nil
}

type refinedClaims struct{ d *DB }

func (r refinedClaims) UpsertByClaim(_ context.Context, rc *entity.RefinedClaim) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.claims[rc.ClaimID]; !ok {
		return fmt.Errorf("upsert refined claim %s: %w", rc.ClaimID, repository.ErrNotFound)
	}
	rc.UpdatedAt = r.d.tick()
	stored := deepCopy(*rc)
	if existing, ok := r.d.refined[rc.ClaimID]; ok {
		stored.ID = existing.ID
	} else {
		stored.ID = uuid.New()
	}
	r.d.refined[rc.ClaimID] = &stored
	return nil
}

func (r refinedClaims) GetByClaim(_ context.Context, claimID uuid.UUID) (*entity.RefinedClaim, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rc, ok := r.d.refined[claimID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := deepCopy(*rc)
	return &out, nil
}

func (r refinedClaims) CountByTenant(_ context.Context, tenantID uuid.UUID) (int, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	n := 0
	for _, rc := range r.d.refined {
		if rc.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

type metrics struct{ d *DB }

func (r metrics) Append(_ context.Context, tenantID uuid.UUID, ruleSetID *uuid.UUID, m entity.Metric) (*entity.Metric, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	stored := deepCopy(m)
	stored.ID = uuid.New()
	stored.TenantID = tenantID
	stored.RuleSetID = clone(ruleSetID)
	r.d.metrics = append(r.d.metrics, &stored)
	out := deepCopy(stored)
	return &out, nil
}

func (r metrics) Latest(_ context.Context, tenantID uuid.UUID) (*entity.Metric, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for i := len(r.d.metrics) - 1; i >= 0; i-- {
		if r.d.metrics[i].TenantID == tenantID {
			out := deepCopy(*r.d.metrics[i])
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r metrics) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]*entity.Metric, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []*entity.Metric
	for _, m := range r.d.metrics {
		if m.TenantID == tenantID {
			c := deepCopy(*m)
			out = append(out, &c)
		}
	}
	return out, nil
}

type jobRuns struct{ d *DB }

func (r jobRuns) Create(_ context.Context, tenantID uuid.UUID, ruleSetID *uuid.UUID, jobType string, status constants.JobStatus) (*entity.JobRun, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	job := &entity.JobRun{
		ID:        uuid.New(),
		TenantID:  tenantID,
		RuleSetID: clone(ruleSetID),
		JobType:   jobType,
		Status:    status,
		Detail:    map[string]any{},
		CreatedAt: r.d.tick(),
	}
	r.d.jobRuns[job.ID] = job
	r.d.jobOrder = append(r.d.jobOrder, job.ID)
	out := deepCopy(*job)
	return &out, nil
}

func (r jobRuns) Update(_ context.Context, id uuid.UUID, status constants.JobStatus, detail map[string]any, finishedAt *time.Time) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	job, ok := r.d.jobRuns[id]
	if !ok {
		return fmt.Errorf("update job run %s: %w", id, repository.ErrNotFound)
	}
	job.Status = status
	if detail != nil {
		job.Detail = deepCopy(detail)
	}
	if finishedAt != nil {
		job.FinishedAt = clone(finishedAt)
	}
	return nil
}

func (r jobRuns) Get(_ context.Context, id uuid.UUID) (*entity.JobRun, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	job, ok := r.d.jobRuns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := deepCopy(*job)
	return &out, nil
}

func (r jobRuns) ListRecent(_ context.Context, tenantID uuid.UUID, limit int) ([]*entity.JobRun, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var out []*entity.JobRun
	for i := len(r.d.jobOrder) - 1; i >= 0; i-- {
		job := r.d.jobRuns[r.d.jobOrder[i]]
		if job.TenantID != tenantID {
			continue
		}
		c := deepCopy(*job)
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
