package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/joseph-ayodele/claims-validator/internal/common"
	"github.com/joseph-ayodele/claims-validator/internal/repository/memory"
)

func TestCreateTenant(t *testing.T) {
	svc := NewService(memory.NewStore().Tenants, nil)
	ctx := context.Background()

	got, err := svc.CreateTenant(ctx, CreateTenantRequest{Code: "  Demo ", Name: ""})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	if got.Code != "demo" || got.Name != "demo" {
		t.Errorf("tenant = %+v", got)
	}

	if _, err := svc.CreateTenant(ctx, CreateTenantRequest{Code: "demo"}); !errors.Is(err, common.ErrValidation) {
		t.Errorf("duplicate err = %v, want validation error", err)
	}
	if _, err := svc.CreateTenant(ctx, CreateTenantRequest{Code: "bad code!"}); !errors.Is(err, common.ErrValidation) {
		t.Errorf("bad code err = %v, want validation error", err)
	}
	if _, err := svc.CreateTenant(ctx, CreateTenantRequest{}); !errors.Is(err, common.ErrValidation) {
		t.Errorf("empty code err = %v, want validation error", err)
	}
}

func TestResolveAndGetOrCreate(t *testing.T) {
	svc := NewService(memory.NewStore().Tenants, nil)
	ctx := context.Background()

	if _, err := svc.Resolve(ctx, "acme"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("Resolve err = %v, want ErrNotFound", err)
	}
	created, err := svc.GetOrCreate(ctx, CreateTenantRequest{Code: "acme", Name: "Acme"})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	again, err := svc.GetOrCreate(ctx, CreateTenantRequest{Code: "ACME"})
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if again.ID != created.ID {
		t.Errorf("GetOrCreate created a second tenant")
	}

	list, err := svc.ListTenants(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("ListTenants = %v, %v", list, err)
	}
}
