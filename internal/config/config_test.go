package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "BACKEND_URL", "BACKEND_TIMEOUT", "DATA_DIR", "DATABASE_PATH",
		"MAX_UPLOAD_MB", "UPLOAD_ALLOWED_EXTS", "STATSRV_PORT",
		"STATSRV_DATA_DIR", "STATSRV_SESSION_TTL", "STATSRV_EMIT_HISTOGRAMS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 0 {
		t.Errorf("Timeout = %v, want transport default (0)", cfg.Backend.Timeout)
	}
	if cfg.Upload.MaxUploadMB != 50 {
		t.Errorf("MaxUploadMB = %d, want 50", cfg.Upload.MaxUploadMB)
	}
	if len(cfg.Upload.AllowedExtensions) != 6 {
		t.Errorf("AllowedExtensions = %v", cfg.Upload.AllowedExtensions)
	}
	if cfg.StatSrv.SessionTTL != 60*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.StatSrv.SessionTTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND_URL", "https://stats.example.org")
	t.Setenv("BACKEND_TIMEOUT", "30s")
	t.Setenv("MAX_UPLOAD_MB", "10")
	t.Setenv("UPLOAD_ALLOWED_EXTS", "csv, .XLSX")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if cfg.Backend.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Backend.Timeout)
	}
	if cfg.Upload.MaxUploadMB != 10 {
		t.Errorf("MaxUploadMB = %d", cfg.Upload.MaxUploadMB)
	}
	want := []string{".csv", ".xlsx"}
	if len(cfg.Upload.AllowedExtensions) != 2 ||
		cfg.Upload.AllowedExtensions[0] != want[0] ||
		cfg.Upload.AllowedExtensions[1] != want[1] {
		t.Errorf("AllowedExtensions = %v, want %v", cfg.Upload.AllowedExtensions, want)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "relative backend url", key: "BACKEND_URL", value: "localhost:8000"},
		{name: "oversize upload cap", key: "MAX_UPLOAD_MB", value: "5000"},
		{name: "zero upload cap", key: "MAX_UPLOAD_MB", value: "0"},
		{name: "negative session ttl", key: "STATSRV_SESSION_TTL", value: "-1m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load accepted %s=%s", tt.key, tt.value)
			}
		})
	}
}
