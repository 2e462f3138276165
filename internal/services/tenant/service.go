package tenant

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/claims-validator/internal/common"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
)

// Service handles tenant business logic.
type Service struct {
	tenantRepo repository.TenantRepository
	logger     *slog.Logger
}

// NewService creates a new tenant service.
func NewService(tenantRepo repository.TenantRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tenantRepo: tenantRepo,
		logger:     logger,
	}
}

// CreateTenantRequest represents tenant creation parameters.
type CreateTenantRequest struct {
	Code string
	Name string
}

// CreateTenant registers a tenant under a unique code.
func (s *Service) CreateTenant(ctx context.Context, req CreateTenantRequest) (*entity.Tenant, error) {
	code := strings.ToLower(strings.TrimSpace(req.Code))
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = code
	}

	v := common.NewValidator()
	v.Field("code", code, common.Required, common.TenantCode, common.MaxLength(64))
	v.Field("name", name, common.MaxLength(255))
	if err := v.Err(); err != nil {
		return nil, err
	}

	t, err := s.tenantRepo.Create(ctx, code, name)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, common.ValidationErrorf("tenant %q already exists", code)
	}
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "create tenant", errors.Join(common.ErrDatabase, err))
	}

	s.logger.Info("tenant.created", "tenant_id", t.ID, "code", t.Code)
	return t, nil
}

// ListTenants returns all tenants ordered by code.
func (s *Service) ListTenants(ctx context.Context) ([]*entity.Tenant, error) {
	list, err := s.tenantRepo.List(ctx)
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "list tenants", errors.Join(common.ErrDatabase, err))
	}
	return list, nil
}

// Resolve looks a tenant up by code.
func (s *Service) Resolve(ctx context.Context, code string) (*entity.Tenant, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, common.ValidationErrorf("tenant code is required")
	}
	t, err := s.tenantRepo.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, common.NotFoundErrorf("tenant %q not found", code)
	}
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "get tenant", errors.Join(common.ErrDatabase, err))
	}
	return t, nil
}

// GetOrCreate resolves code, creating the tenant when it does not exist yet.
func (s *Service) GetOrCreate(ctx context.Context, req CreateTenantRequest) (*entity.Tenant, error) {
	t, err := s.Resolve(ctx, req.Code)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	return s.CreateTenant(ctx, req)
}
