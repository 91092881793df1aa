package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		HTTPPort:     8080,
		BaseURL:      "https://www.biqg.cc",
		FetchTimeout: 10 * time.Second,
		MaxWorkers:   20,
		MaxAttempts:  3,
		RetryDelay:   time.Second,
		DownloadDir:  filepath.Join(dir, "bookstore"),
		StateFile:    filepath.Join(dir, "state", "jobs.json"),
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.HTTPPort = 70000 }, wantErr: true},
		{name: "relative base url", mutate: func(c *Config) { c.BaseURL = "biqg.cc" }, wantErr: true},
		{name: "zero fetch timeout", mutate: func(c *Config) { c.FetchTimeout = 0 }, wantErr: true},
		{name: "zero workers", mutate: func(c *Config) { c.MaxWorkers = 0 }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.MaxAttempts = 0 }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.RetryDelay = -time.Second }, wantErr: true},
		{name: "zero delay allowed", mutate: func(c *Config) { c.RetryDelay = 0 }},
		{name: "empty download dir", mutate: func(c *Config) { c.DownloadDir = "" }, wantErr: true},
		{name: "empty state file", mutate: func(c *Config) { c.StateFile = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_DefaultsAndDirs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ND_DOWNLOAD_DIR", filepath.Join(dir, "books"))
	t.Setenv("ND_STATE_FILE", filepath.Join(dir, "state", "jobs.json"))

	cfg, err := Load(filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "https://www.biqg.cc", cfg.BaseURL)
	assert.Equal(t, 20, cfg.MaxWorkers)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)

	assert.DirExists(t, filepath.Join(dir, "books"))
	assert.DirExists(t, filepath.Join(dir, "state"))
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "ND_MAX_WORKERS=7\n" +
		"ND_DOWNLOAD_DIR=" + filepath.Join(dir, "out") + "\n" +
		"ND_STATE_FILE=" + filepath.Join(dir, "jobs.json") + "\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	// godotenv sets process env directly; make sure the test leaves no trace.
	for _, k := range []string{"ND_MAX_WORKERS", "ND_DOWNLOAD_DIR", "ND_STATE_FILE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxWorkers)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.DownloadDir)
}

func TestLoad_InvalidEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ND_DOWNLOAD_DIR", filepath.Join(dir, "books"))
	t.Setenv("ND_STATE_FILE", filepath.Join(dir, "jobs.json"))
	t.Setenv("ND_MAX_ATTEMPTS", "0")

	_, err := Load(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("anything"))
}
