package seed

import (
	"context"
	"testing"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/pipeline"
	"github.com/joseph-ayodele/claims-validator/internal/repository/memory"
)

func TestDemo(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	proc := pipeline.NewProcessor(store, nil)

	first, err := Demo(ctx, store, proc, nil)
	if err != nil {
		t.Fatalf("Demo: %v", err)
	}
	if first.Run.Status != constants.JobStatusFinished {
		t.Fatalf("run status = %s", first.Run.Status)
	}

	claims, err := store.Claims.ListByTenant(ctx, first.Tenant.ID)
	if err != nil {
		t.Fatalf("ListByTenant: %v", err)
	}
	want := map[string]constants.ErrorType{"C1001": constants.TechnicalError, "C1002": constants.MedicalError}
	for _, c := range claims {
		if c.ErrorType != want[c.ClaimID] || c.Status != constants.ClaimStatusNotValidated {
			t.Errorf("%s = (%s, %s)", c.ClaimID, c.ErrorType, c.Status)
		}
	}

	second, err := Demo(ctx, store, proc, nil)
	if err != nil {
		t.Fatalf("second Demo: %v", err)
	}
	if second.Tenant.ID != first.Tenant.ID || second.RuleSet.ID != first.RuleSet.ID {
		t.Errorf("reseed created new rows")
	}
	if n, _ := store.RefinedClaims.CountByTenant(ctx, first.Tenant.ID); n != 2 {
		t.Errorf("refined claims = %d, want 2", n)
	}
}
