package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"femstat/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Storage StorageConfig
	Upload  UploadConfig
	StatSrv StatSrvConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// BackendConfig holds settings for the statistics backend the app calls
type BackendConfig struct {
	BaseURL string
	// Zero means the transport default applies; the workflow relies on
	// the transport rather than enforcing its own deadline.
	Timeout time.Duration
}

// StorageConfig holds local durable storage paths
type StorageConfig struct {
	DataDir      string
	DatabasePath string
}

// UploadConfig constrains dataset uploads before they reach the backend
type UploadConfig struct {
	MaxUploadMB       int
	AllowedExtensions []string
}

// StatSrvConfig holds settings for the development statistics backend
type StatSrvConfig struct {
	Port           string
	DataDir        string
	SessionTTL     time.Duration
	MaxUploadMB    int
	EmitHistograms bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:  loadServerConfig(),
		Backend: loadBackendConfig(),
		Storage: loadStorageConfig(),
		Upload:  loadUploadConfig(),
		StatSrv: loadStatSrvConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

func loadBackendConfig() BackendConfig {
	return BackendConfig{
		BaseURL: getEnvOrDefault("BACKEND_URL", "http://localhost:8000"),
		Timeout: getEnvDurationOrDefault("BACKEND_TIMEOUT", 0),
	}
}

func loadStorageConfig() StorageConfig {
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	return StorageConfig{
		DataDir:      dataDir,
		DatabasePath: getEnvOrDefault("DATABASE_PATH", filepath.Join(dataDir, "femstat.db")),
	}
}

func loadUploadConfig() UploadConfig {
	exts := getEnvOrDefault("UPLOAD_ALLOWED_EXTS", ".csv,.xlsx,.xls,.sav,.dta,.parquet")
	var allowed []string
	for _, e := range strings.Split(exts, ",") {
		e = strings.TrimSpace(strings.ToLower(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed = append(allowed, e)
	}
	return UploadConfig{
		MaxUploadMB:       getEnvIntOrDefault("MAX_UPLOAD_MB", 50),
		AllowedExtensions: allowed,
	}
}

func loadStatSrvConfig() StatSrvConfig {
	return StatSrvConfig{
		Port:           getEnvOrDefault("STATSRV_PORT", "8000"),
		DataDir:        getEnvOrDefault("STATSRV_DATA_DIR", "./data/statsrv"),
		SessionTTL:     getEnvDurationOrDefault("STATSRV_SESSION_TTL", 60*time.Minute),
		MaxUploadMB:    getEnvIntOrDefault("MAX_UPLOAD_MB", 50),
		EmitHistograms: getEnvBoolOrDefault("STATSRV_EMIT_HISTOGRAMS", true),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Backend.BaseURL == "" {
		return errors.ConfigInvalid("backend URL is required")
	}
	if u, err := url.Parse(config.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.ConfigInvalid("backend URL must be an absolute http(s) URL")
	}
	if config.Upload.MaxUploadMB < 1 || config.Upload.MaxUploadMB > 1024 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be between 1 and 1024")
	}
	if len(config.Upload.AllowedExtensions) == 0 {
		return errors.ConfigInvalid("at least one upload extension must be allowed")
	}
	if config.Storage.DatabasePath == "" {
		return errors.ConfigInvalid("database path is required")
	}
	if config.StatSrv.SessionTTL <= 0 {
		return errors.ConfigInvalid("statsrv session TTL must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
