package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"provisioning-portal/internal/config"
	"provisioning-portal/internal/portal"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		Pipeline:          config.PipelineConfig{BaseURL: baseURL, Token: "cli-token"},
		Addr:              ":0",
		SuccessResetDelay: time.Minute,
		LogLevel:          "error",
	}
}

func TestProvisionCommandTriggersPipeline(t *testing.T) {
	var gotPath, gotBody, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotPath, gotBody, gotAuth = r.URL.Path, string(raw), r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cmd := triggerCmd(&cfg, "provision")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--systems", "system1,system2", "--version", "2"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotPath != "/provision-pipeline" {
		t.Fatalf("path = %q", gotPath)
	}
	if want := `{"parameters":{"systems":"system1,system2","version":"2"}}`; gotBody != want {
		t.Fatalf("body = %s, want %s", gotBody, want)
	}
	if gotAuth != "Bearer cli-token" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if !strings.Contains(out.String(), portal.MsgSucceeded) {
		t.Fatalf("output = %q", out.String())
	}
	_, rest, ok := strings.Cut(out.String(), "(operation ")
	if !ok {
		t.Fatalf("output has no operation ID: %q", out.String())
	}
	if _, err := uuid.Parse(strings.TrimSuffix(strings.TrimSpace(rest), ")")); err != nil {
		t.Fatalf("operation ID in %q: %v", out.String(), err)
	}
}

func TestDeprovisionCommandReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cmd := triggerCmd(&cfg, "deprovision")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--systems", "system3"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out.String(), portal.MsgDeprovisionFailed) {
		t.Fatalf("output = %q", out.String())
	}
}

func TestProvisionCommandRejectsUnknownSystem(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cmd := triggerCmd(&cfg, "provision")
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--systems", "mainframe", "--version", "1"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), `unknown system "mainframe"`) {
		t.Fatalf("error = %v", err)
	}
}

func TestCatalogCommandUsesCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "systems:\n  - name: ledger\n    displayName: Ledger Service\nversions:\n  - id: r5\n    version: 5.0.0\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := testConfig("http://127.0.0.1:1")
	cfg.CatalogFile = path
	cmd := catalogCmd(&cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{"ledger", "Ledger Service", "r5", "5.0.0"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCatalogCommandYAMLOutputParsesBack(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cmd := catalogCmd(&cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--yaml"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg.CatalogFile = path
	if _, err := loadCatalog(cfg); err != nil {
		t.Fatalf("exported catalog does not load: %v\n%s", err, out.String())
	}
}
