package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

func newMockSlack(t *testing.T) (string, *[]url.Values) {
	t.Helper()
	var posts []url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/api/") == "chat.postMessage" {
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			posts = append(posts, r.PostForm)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "C123", "ts": "1.0"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "unknown_method"})
	}))
	t.Cleanup(server.Close)
	return server.URL + "/api/", &posts
}

func TestNewSlackNotifier_Disabled(t *testing.T) {
	if n := NewSlackNotifier("", "C123", "", nil); n != nil {
		t.Error("notifier without token should be nil")
	}
	var n *SlackNotifier
	if err := n.Notify(context.Background(), Summary{}); err != nil {
		t.Errorf("nil Notify: %v", err)
	}
}

func TestNotify_PostsSummary(t *testing.T) {
	apiURL, posts := newMockSlack(t)
	n := NewSlackNotifier("xoxb-test", "C123", apiURL, nil)

	run := &entity.JobRun{ID: uuid.New(), Status: constants.JobStatusFinished}
	metric := &entity.Metric{CountsByError: map[constants.ErrorType]int{
		constants.NoError: 3, constants.TechnicalError: 1,
	}}
	if err := n.Notify(context.Background(), Summary{TenantCode: "demo", Run: run, Metric: metric}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(*posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(*posts))
	}
	form := (*posts)[0]
	if form.Get("channel") != "C123" {
		t.Errorf("channel = %q", form.Get("channel"))
	}
	if text := form.Get("text"); !strings.Contains(text, "4 claims") || !strings.Contains(text, "Technical error 1") {
		t.Errorf("text = %q", text)
	}
}

func TestNotify_SlackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
	}))
	defer server.Close()

	n := NewSlackNotifier("xoxb-test", "C404", server.URL+"/api/", nil)
	err := n.Notify(context.Background(), Summary{TenantCode: "demo", Run: &entity.JobRun{ID: uuid.New()}})
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Errorf("err = %v, want channel_not_found", err)
	}
}

func TestFormatSummary_Failed(t *testing.T) {
	run := &entity.JobRun{ID: uuid.New(), Status: constants.JobStatusFailed, Detail: map[string]any{"error": "claim C1002: disk full"}}
	got := FormatSummary(Summary{TenantCode: "demo", Run: run})
	if !strings.Contains(got, "*Failed*") || !strings.Contains(got, "disk full") {
		t.Errorf("summary = %q", got)
	}
}
