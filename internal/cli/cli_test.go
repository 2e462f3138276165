package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

type harness struct {
	t      *testing.T
	dir    string
	dbPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("DB_URL", "")
	t.Setenv("AI_API_KEY", "")
	t.Setenv("NO_COLOR", "1")
	dir := t.TempDir()
	return &harness{t: t, dir: dir, dbPath: filepath.Join(dir, "claims.db")}
}

func (h *harness) run(args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--sqlite", h.dbPath, "--no-color"}, args...)
	code := Run(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	code, out, errOut := h.run(args...)
	if code != ExitSuccess {
		h.t.Fatalf("%v: exit %d\nstdout: %s\nstderr: %s", args, code, out, errOut)
	}
	return out
}

func (h *harness) write(name, content string) string {
	h.t.Helper()
	p := filepath.Join(h.dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		h.t.Fatal(err)
	}
	return p
}

func TestSeedDemoThenResults(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("seed-demo")
	if !strings.Contains(out, "Finished") {
		t.Errorf("seed-demo output = %q", out)
	}

	var res struct {
		Claims []struct {
			ClaimID   string `json:"claim_id"`
			ErrorType string `json:"error_type"`
		} `json:"claims"`
		Metrics struct {
			CountsByError map[string]int `json:"counts_by_error"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal([]byte(h.mustRun("--json", "results", "--tenant", "demo")), &res); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(res.Claims) != 2 {
		t.Fatalf("claims = %+v", res.Claims)
	}
	if res.Metrics.CountsByError["Technical error"] != 1 || res.Metrics.CountsByError["Medical error"] != 1 {
		t.Errorf("counts = %v", res.Metrics.CountsByError)
	}

	audit := h.mustRun("audit", "--tenant", "demo")
	if !strings.Contains(audit, "validation") {
		t.Errorf("audit = %q", audit)
	}

	xlsx := filepath.Join(h.dir, "out.xlsx")
	h.mustRun("export", "--tenant", "demo", "--out", xlsx)
	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Claims")
	if err != nil || len(rows) != 3 {
		t.Errorf("claims sheet rows = %d, err = %v", len(rows), err)
	}
}

func TestUploadIngestValidate(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tenants", "create", "acme", "--name", "Acme Health")
	if out := h.mustRun("tenants", "list"); !strings.Contains(out, "Acme Health") {
		t.Errorf("tenants list = %q", out)
	}

	tech := h.write("tech.yaml", `
paid:
  - id: paid_cap
    field: paid_amount_aed
    operator: "<="
    value: 5000
    message: Paid amount above cap
    error_type: Technical error
`)
	h.mustRun("rules", "upload", "--tenant", "acme", "--technical", tech, "--version", "v2")
	if out := h.mustRun("rules", "list", "--tenant", "acme"); !strings.Contains(out, "v2") {
		t.Errorf("rules list = %q", out)
	}

	inbox := filepath.Join(h.dir, "inbox")
	if err := os.Mkdir(inbox, 0o755); err != nil {
		t.Fatal(err)
	}
	claims := "claim_id,encounter_type,service_date,national_id,member_id,facility_id,unique_id,diagnosis_codes,service_code,paid_amount_aed,approval_number\n" +
		"A1,OP,2024-01-02,N1,M1,F1,U1,J20,99213,7000,\n" +
		"A2,OP,2024-01-02,N2,M2,F1,U2,E11,99213,100,\n"
	if err := os.WriteFile(filepath.Join(inbox, "batch.csv"), []byte(claims), 0o644); err != nil {
		t.Fatal(err)
	}
	if out := h.mustRun("claims", "ingest", "--tenant", "acme", inbox); !strings.Contains(out, "2 claims") {
		t.Errorf("ingest = %q", out)
	}

	var job struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(h.mustRun("--json", "validate", "--tenant", "acme")), &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.Status != "Finished" {
		t.Errorf("status = %s", job.Status)
	}

	out := h.mustRun("results", "--tenant", "acme")
	if !strings.Contains(out, "Paid amount above cap") {
		t.Errorf("results = %q", out)
	}
}

func TestExitCodes(t *testing.T) {
	h := newHarness(t)

	if code, _, _ := h.run("results", "--tenant", "ghost"); code != ExitError {
		t.Errorf("unknown tenant exit = %d, want %d", code, ExitError)
	}
	if code, _, _ := h.run("tenants", "create", "bad code!"); code != ExitUsageError {
		t.Errorf("bad tenant code exit = %d, want %d", code, ExitUsageError)
	}
	if code, _, _ := h.run("rules", "upload", "--tenant", "demo"); code != ExitUsageError {
		t.Errorf("upload without files exit = %d, want %d", code, ExitUsageError)
	}
	if code, _, _ := h.run("validate", "--bogus"); code != ExitUsageError {
		t.Errorf("unknown flag exit = %d, want %d", code, ExitUsageError)
	}
	_, out, _ := h.run("migrate", "--print", "postgres")
	if !strings.Contains(strings.ToUpper(out), "CREATE TABLE") {
		t.Errorf("migrate --print = %q", out)
	}
}
