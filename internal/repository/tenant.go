package repository

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

var tenantColumns = []string{"id", "code", "name", "created_at"}

type tenantRepository struct {
	sqlRepo
}

func NewTenantRepository(base sqlRepo) TenantRepository {
	return &tenantRepository{sqlRepo: base}
}

func (r *tenantRepository) Create(ctx context.Context, code, name string) (*entity.Tenant, error) {
	t := &entity.Tenant{ID: uuid.New(), Code: code, Name: name, CreatedAt: time.Now().UTC()}
	q := r.builder().Insert("tenants").
		Columns(tenantColumns...).
		Values(t.ID, t.Code, t.Name, timeArg(r.dialect, t.CreatedAt))
	if _, err := r.exec(ctx, q); err != nil {
		r.logger.Error("failed to create tenant", "code", code, "error", err)
		return nil, fmt.Errorf("create tenant %q: %w", code, err)
	}
	r.logger.Info("tenant created", "tenant_id", t.ID, "code", code)
	return t, nil
}

func (r *tenantRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	return r.getBy(ctx, entsql.EQ("id", id))
}

func (r *tenantRepository) GetByCode(ctx context.Context, code string) (*entity.Tenant, error) {
	return r.getBy(ctx, entsql.EQ("code", code))
}

func (r *tenantRepository) getBy(ctx context.Context, p *entsql.Predicate) (*entity.Tenant, error) {
	b := r.builder()
	q := b.Select(tenantColumns...).From(b.Table("tenants")).Where(p)
	t, err := scanTenant(r.queryRow(ctx, q))
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (r *tenantRepository) List(ctx context.Context) ([]*entity.Tenant, error) {
	b := r.builder()
	q := b.Select(tenantColumns...).From(b.Table("tenants")).OrderBy("code")
	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return collect(rows, scanTenant)
}

func scanTenant(row rowScanner) (*entity.Tenant, error) {
	var t entity.Tenant
	var created timeCol
	if err := row.Scan(&t.ID, &t.Code, &t.Name, &created); err != nil {
		return nil, err
	}
	t.CreatedAt = created.Time
	return &t, nil
}
