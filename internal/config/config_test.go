package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("VIDTUBE_ACCESS_TOKEN_SECRET", "access")
	t.Setenv("VIDTUBE_REFRESH_TOKEN_SECRET", "refresh")
	t.Setenv(DotEnvVar, "")
	t.Setenv(FileEnvVar, "")
}

func TestLoadDefaultsAndEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequired(t)
	t.Setenv("VIDTUBE_PORT", "9090")
	t.Setenv("VIDTUBE_ACCESS_TOKEN_TTL", "15m")
	t.Setenv("VIDTUBE_CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("VIDTUBE_OBJECT_STORE__BUCKET", "media")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.AppPort != 9090 {
		t.Fatalf("expected port override, got %d", cfg.AppPort)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected ttl override, got %s", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 10*24*time.Hour {
		t.Fatalf("expected default refresh ttl, got %s", cfg.RefreshTokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.ObjectStore.Bucket != "media" || cfg.ObjectStore.Region != "us-east-1" {
		t.Fatalf("unexpected object store: %+v", cfg.ObjectStore)
	}
	if cfg.MongoDatabase != "vidtube" {
		t.Fatalf("expected default database, got %q", cfg.MongoDatabase)
	}
}

func TestLoadLayersFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	setRequired(t)

	yamlPath := filepath.Join(dir, "vidtube.yaml")
	yamlBody := "mongo_database: from_file\nlog_level: debug\nview_workers: 4\n"
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	dotenvPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(dotenvPath, []byte("VIDTUBE_LOG_FORMAT=console\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv(FileEnvVar, yamlPath)
	t.Setenv(DotEnvVar, dotenvPath)
	t.Setenv("VIDTUBE_VIEW_WORKERS", "8")
	t.Cleanup(func() { os.Unsetenv("VIDTUBE_LOG_FORMAT") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.MongoDatabase != "from_file" || cfg.LogLevel != "debug" {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.ViewWorkers != 8 {
		t.Fatalf("expected environment to win over file, got %d", cfg.ViewWorkers)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("expected value from env file, got %q", cfg.LogFormat)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(DotEnvVar, "")
	t.Setenv(FileEnvVar, "")
	t.Setenv("VIDTUBE_ACCESS_TOKEN_SECRET", "")
	t.Setenv("VIDTUBE_REFRESH_TOKEN_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing secrets to fail validation")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.AccessTokenSecret = "a"
	cfg.RefreshTokenSecret = "r"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults with secrets to validate, got %v", err)
	}

	cfg.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected invalid log level to fail")
	}
}

func TestLoadMissingExplicitDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequired(t)
	t.Setenv(DotEnvVar, filepath.Join(t.TempDir(), "missing.env"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for a missing explicit env file")
	}
}
