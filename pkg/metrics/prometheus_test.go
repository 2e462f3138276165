package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/pipeline"
	"github.com/joseph-ayodele/claims-validator/pkg/metrics"
)

var _ pipeline.Recorder = (*metrics.Collector)(nil)

func TestCollector_RecordsRun(t *testing.T) {
	c := metrics.NewCollector(nil)
	c.RunStarted("demo")
	c.ClaimClassified("demo", constants.TechnicalError)
	c.ClaimClassified("demo", constants.TechnicalError)
	c.AIReviewed("demo", pipeline.ReviewDisabled)
	c.RunFinished("demo", constants.JobStatusFinished, 1500*time.Millisecond)

	if n, err := testutil.GatherAndCount(c.Registry()); err != nil || n == 0 {
		t.Fatalf("GatherAndCount = %d, %v", n, err)
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`claims_validation_runs_started_total{tenant="demo"} 1`,
		`claims_validation_runs_finished_total{status="Finished",tenant="demo"} 1`,
		`claims_validation_runs_in_progress{tenant="demo"} 0`,
		`claims_classified_total{error_type="Technical error",tenant="demo"} 2`,
		`claims_ai_reviews_total{outcome="disabled",tenant="demo"} 1`,
		`claims_validation_run_duration_seconds_count{status="Finished",tenant="demo"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
