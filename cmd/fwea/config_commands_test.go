package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"fwea/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)
	requireContains(t, out, "Detection backend: none")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestSampleConfigLoads(t *testing.T) {
	setupCLITestEnv(t)
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err != nil {
		t.Fatalf("config init: %v", err)
	}
	out, _, err := runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample config: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigTestNotify(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Title") == "fwea - Test" {
			hits.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := setupCLITestEnv(t, testsupport.WithNtfyTopic(server.URL))
	out, _, err := runCLI(t, []string{"config", "test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("config test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent to "+server.URL)
	if hits.Load() != 1 {
		t.Fatalf("expected one test notification, got %d", hits.Load())
	}

	plain := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"config", "test-notify"}, plain.configPath); err == nil {
		t.Fatal("expected error without a topic")
	}
}
