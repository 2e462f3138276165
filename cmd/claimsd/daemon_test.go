package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/async"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/notify"
	"github.com/joseph-ayodele/claims-validator/internal/pipeline"
	"github.com/joseph-ayodele/claims-validator/internal/repository/memory"
	"github.com/joseph-ayodele/claims-validator/internal/seed"
)

func TestInboxFileIngestsValidatesAndNotifies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tn, err := store.Tenants.Create(ctx, "acme", "Acme")
	if err != nil {
		t.Fatal(err)
	}
	rs := seed.DemoRuleSet()
	rs.TenantID = tn.ID
	if _, err := store.RuleSets.Upsert(ctx, rs); err != nil {
		t.Fatal(err)
	}

	posted := make(chan url.Values, 1)
	slackAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		posted <- r.PostForm
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "C1", "ts": "1.0"})
	}))
	defer slackAPI.Close()

	d := newDaemon(store, notify.NewSlackNotifier("xoxb-test", "C1", slackAPI.URL+"/api/", nil), nil)
	done := make(chan *entity.JobRun, 1)
	q := async.NewValidationQueue(pipeline.NewProcessor(store, nil), nil,
		async.WithOnDone(func(ctx context.Context, run *entity.JobRun, err error) {
			d.onDone(ctx, run, err)
			done <- run
		}))
	defer q.Shutdown(ctx)
	d.queue = q

	inbox := t.TempDir()
	dir := filepath.Join(inbox, "acme")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "batch.csv")
	csv := "claim_id,encounter_type,service_date,national_id,member_id,facility_id,unique_id,diagnosis_codes,service_code,paid_amount_aed,approval_number\n" +
		"X1,OP,2024-01-02,N1,M1,F1,U1,J20,99213,20000,\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := d.inboxFile(ctx, inbox, path); err != nil {
		t.Fatalf("inboxFile: %v", err)
	}

	select {
	case run := <-done:
		if run.Status != constants.JobStatusFinished {
			t.Fatalf("run = %+v", run)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("queued run did not finish")
	}
	select {
	case form := <-posted:
		if text := form.Get("text"); !strings.Contains(text, "*acme*") || !strings.Contains(text, "Technical error 1") {
			t.Errorf("slack text = %q", text)
		}
	default:
		t.Error("no slack summary posted")
	}

	claims, _ := store.Claims.ListByTenant(ctx, tn.ID)
	if len(claims) != 1 || claims[0].ErrorType != constants.TechnicalError {
		t.Errorf("claims = %+v", claims)
	}
}

func TestInboxFileIgnoresRootFiles(t *testing.T) {
	d := newDaemon(memory.NewStore(), nil, nil)
	inbox := t.TempDir()
	if err := d.inboxFile(context.Background(), inbox, filepath.Join(inbox, "loose.csv")); err != nil {
		t.Errorf("root file err = %v, want nil", err)
	}
}

func TestTenantCodes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	for _, c := range []string{"alpha", "beta"} {
		if _, err := store.Tenants.Create(ctx, c, c); err != nil {
			t.Fatal(err)
		}
	}
	codes, err := newDaemon(store, nil, nil).tenantCodes(ctx)
	if err != nil || len(codes) != 2 {
		t.Errorf("codes = %v, err = %v", codes, err)
	}
}
