package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joseph-ayodele/claims-validator/internal/llm"
)

func TestNewClientWithoutKeyIsNil(t *testing.T) {
	if c := NewClient(Config{}, nil, nil); c != nil {
		t.Fatalf("expected nil client without API key")
	}
}

func TestCompleteReturnsText(t *testing.T) {
	var body map[string]any
	var path, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("X-Api-Key")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"[{\"error_type\":\"Medical error\",\"explanation\":\"x\"}]"}],
			"stop_reason":"end_turn","stop_sequence":null,
			"usage":{"input_tokens":10,"output_tokens":5}
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "ak-test", URL: srv.URL, Model: "claude-test"}, srv.Client(), nil)
	text, err := c.Complete(context.Background(), llm.CompletionRequest{System: "sys", User: "usr", JSONMode: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.HasPrefix(text, "[") {
		t.Fatalf("text: got %q", text)
	}
	if path != "/v1/messages" || key != "ak-test" {
		t.Fatalf("request: path=%q key=%q", path, key)
	}
	if body["model"] != "claude-test" {
		t.Fatalf("model: got %v", body["model"])
	}
	if _, err := llm.ParseFindings(text); err != nil {
		t.Fatalf("ParseFindings: %v", err)
	}
}

func TestCompleteNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"down"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", URL: srv.URL}, srv.Client(), nil)
	if _, err := c.Complete(context.Background(), llm.CompletionRequest{User: "u"}); err == nil {
		t.Fatalf("expected error")
	}
}
