package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestStartWatcher_EmitsClaimFiles(t *testing.T) {
	root := t.TempDir()
	existing := writeFile(t, filepath.Join(root, "demo", "old.csv"), claimHeader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}

	next := func() string {
		t.Helper()
		select {
		case p := <-events:
			return p
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return ""
		}
	}
	if got := next(); got != existing {
		t.Errorf("initial = %s, want %s", got, existing)
	}

	writeFile(t, filepath.Join(root, "demo", "ignored.txt"), "x")
	fresh := writeFile(t, filepath.Join(root, "demo", "new.csv"), claimHeader)
	if got := next(); got != fresh {
		t.Errorf("event = %s, want %s", got, fresh)
	}

	cancel()
	for range events {
	}
}

func TestTenantCodeFromPath(t *testing.T) {
	tests := []struct {
		path string
		code string
		ok   bool
	}{
		{"/inbox/demo/claims.csv", "demo", true},
		{"/inbox/demo/2024/claims.csv", "demo", true},
		{"/inbox/claims.csv", "", false},
		{"/elsewhere/demo/claims.csv", "", false},
	}
	for _, tt := range tests {
		code, ok := TenantCodeFromPath("/inbox", tt.path)
		if code != tt.code || ok != tt.ok {
			t.Errorf("TenantCodeFromPath(%q) = %q, %v", tt.path, code, ok)
		}
	}
}
