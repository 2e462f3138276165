package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/internal/common"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/internal/repository/memory"
	"github.com/joseph-ayodele/claims-validator/internal/rules"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newIngestor(t *testing.T) (*Ingestor, *repository.Store, uuid.UUID) {
	t.Helper()
	store := memory.NewStore()
	tenant, err := store.Tenants.Create(context.Background(), "demo", "Demo")
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return NewIngestor(store, nil), store, tenant.ID
}

func TestIngestFile_UpsertsByClaimID(t *testing.T) {
	ing, store, tenantID := newIngestor(t)
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "claims.csv"), claimHeader+
		"C1001,,,,,,,J20,99213,12000,\n"+
		"C1002,,,,,,,E11,LAB01,800,\n")

	res, err := ing.IngestFile(context.Background(), tenantID, path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if res.Claims != 2 || res.Format != "CSV" {
		t.Errorf("result = %+v", res)
	}

	writeFile(t, path, claimHeader+"C1001,,,,,,,J20,99213,500,\n")
	if _, err := ing.IngestFile(context.Background(), tenantID, path); err != nil {
		t.Fatalf("re-ingest: %v", err)
	}
	claims, err := store.Claims.ListByTenant(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("ListByTenant: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("claims = %d, want 2", len(claims))
	}
	if claims[0].ClaimID != "C1001" || claims[0].PaidAmountAED.String() != "500" {
		t.Errorf("C1001 not updated: %+v", claims[0])
	}
}

func TestIngestFile_UnknownTenant(t *testing.T) {
	ing, _, _ := newIngestor(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "claims.csv"), claimHeader)
	if _, err := ing.IngestFile(context.Background(), uuid.New(), path); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestIngestDirectory(t *testing.T) {
	ing, _, tenantID := newIngestor(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.csv"), claimHeader+"C1,,,,,,,,,1,\n")
	writeFile(t, filepath.Join(root, "nested", "b.csv"), claimHeader+"C2,,,,,,,,,2,\nC3,,,,,,,,,3,\n")
	writeFile(t, filepath.Join(root, "bad.csv"), "claim_id\nC4\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(root, ".hidden", "c.csv"), claimHeader+"C5,,,,,,,,,5,\n")

	results, stats, err := ing.IngestDirectory(context.Background(), tenantID, root, true)
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	if stats.Matched != 3 || stats.Succeeded != 2 || stats.Failed != 1 || stats.Claims != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if len(results) != 3 {
		t.Errorf("results = %d, want 3", len(results))
	}

	if _, _, err := ing.IngestDirectory(context.Background(), tenantID, " ", true); !errors.Is(err, common.ErrValidation) {
		t.Errorf("empty root err = %v", err)
	}
}

func TestUploadRules(t *testing.T) {
	ing, store, tenantID := newIngestor(t)
	dir := t.TempDir()
	tech := writeFile(t, filepath.Join(dir, "tech.yaml"), `
paid_thresholds:
  - id: paid_gt_10000
    field: paid_amount_aed
    operator: "<="
    value: 10000
`)
	med := writeFile(t, filepath.Join(dir, "med.json"), `{"dx_svc_mapping":[{"id":"svc","field":"service_code","operator":"in","value":["99213"],"error_type":"Medical error"}]}`)

	rs, err := ing.UploadRules(context.Background(), tenantID, RuleUpload{TechnicalPath: tech, MedicalPath: med})
	if err != nil {
		t.Fatalf("UploadRules: %v", err)
	}
	if rs.Name != "default" || rs.Version != "v1" || !rs.IsActive {
		t.Errorf("rule set = %+v", rs)
	}
	if rs.TechnicalRules.Len() != 1 || rs.MedicalRules.Len() != 1 {
		t.Errorf("rules = %d/%d", rs.TechnicalRules.Len(), rs.MedicalRules.Len())
	}

	active, err := store.RuleSets.ActiveForTenant(context.Background(), tenantID)
	if err != nil || active.ID != rs.ID {
		t.Errorf("active = %v, %v", active, err)
	}
}

func TestUploadRules_RejectsInvalid(t *testing.T) {
	ing, _, tenantID := newIngestor(t)
	bad := writeFile(t, filepath.Join(t.TempDir(), "tech.yaml"), `
misc:
  - id: r1
    field: no_such_field
    operator: "=="
    value: 1
`)
	_, err := ing.UploadRules(context.Background(), tenantID, RuleUpload{TechnicalPath: bad})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	var verr *rules.ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) != 1 || verr.Issues[0].RuleID != "r1" {
		t.Errorf("issues = %+v", verr)
	}
}
