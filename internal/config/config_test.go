package config_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"provisioning-portal/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORTAL_ADDR",
		"PORTAL_SUCCESS_RESET_DELAY",
		"PORTAL_CATALOG_FILE",
		"PORTAL_LOG_LEVEL",
		"PORTAL_OTEL_ENDPOINT",
		"PORTAL_PIPELINE_BASE_URL",
		"PORTAL_PIPELINE_TIMEOUT",
		"AZURE_DEVOPS_TOKEN",
	} {
		// Setenv registers the restore; Unsetenv makes envDefault apply.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pipeline.BaseURL != config.DefaultPipelineBaseURL {
		t.Fatalf("BaseURL = %q, want %q", cfg.Pipeline.BaseURL, config.DefaultPipelineBaseURL)
	}
	if cfg.Addr != ":5090" {
		t.Fatalf("Addr = %q, want %q", cfg.Addr, ":5090")
	}
	if cfg.SuccessResetDelay != 3*time.Second {
		t.Fatalf("SuccessResetDelay = %s, want 3s", cfg.SuccessResetDelay)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Pipeline.Timeout != 0 {
		t.Fatalf("Timeout = %s, want 0", cfg.Pipeline.Timeout)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("AZURE_DEVOPS_TOKEN", "secret")
	t.Setenv("PORTAL_PIPELINE_BASE_URL", "http://pipelines.internal:8080/org")
	t.Setenv("PORTAL_PIPELINE_TIMEOUT", "15s")
	t.Setenv("PORTAL_SUCCESS_RESET_DELAY", "500ms")
	t.Setenv("PORTAL_CATALOG_FILE", "/etc/portal/catalog.yaml")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pipeline.Token != "secret" {
		t.Fatalf("Token = %q, want secret", cfg.Pipeline.Token)
	}
	if cfg.Pipeline.BaseURL != "http://pipelines.internal:8080/org" {
		t.Fatalf("BaseURL = %q", cfg.Pipeline.BaseURL)
	}
	if cfg.Pipeline.Timeout != 15*time.Second {
		t.Fatalf("Timeout = %s, want 15s", cfg.Pipeline.Timeout)
	}
	if cfg.SuccessResetDelay != 500*time.Millisecond {
		t.Fatalf("SuccessResetDelay = %s, want 500ms", cfg.SuccessResetDelay)
	}
	if cfg.CatalogFile != "/etc/portal/catalog.yaml" {
		t.Fatalf("CatalogFile = %q", cfg.CatalogFile)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "relative base url", key: "PORTAL_PIPELINE_BASE_URL", val: "/pipelines", want: "absolute"},
		{name: "ftp base url", key: "PORTAL_PIPELINE_BASE_URL", val: "ftp://example.com", want: "absolute"},
		{name: "zero reset delay", key: "PORTAL_SUCCESS_RESET_DELAY", val: "0s", want: "reset delay"},
		{name: "bad duration", key: "PORTAL_PIPELINE_TIMEOUT", val: "soon", want: "parse env"},
		{name: "negative timeout", key: "PORTAL_PIPELINE_TIMEOUT", val: "-1s", want: "timeout"},
		{name: "unknown log level", key: "PORTAL_LOG_LEVEL", val: "verbose", want: `invalid log level "verbose"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestValidateAcceptsLogLevelsCaseInsensitively(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, lvl := range []string{"debug", "INFO", " Warn ", "error"} {
		cfg.LogLevel = lvl
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate(%q): %v", lvl, err)
		}
	}
}
