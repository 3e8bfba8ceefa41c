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

// clearEnv blanks every COLDFERRY_ variable so tests see pure defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"COLDFERRY_API_KEY", "COLDFERRY_HTTP_TIMEOUT", "COLDFERRY_BUCKET",
		"COLDFERRY_REGION", "COLDFERRY_STORAGE_CLASS", "COLDFERRY_ENDPOINT",
		"COLDFERRY_ACCESS_KEY_ID", "COLDFERRY_SECRET_ACCESS_KEY",
		"COLDFERRY_MANIFEST", "COLDFERRY_STAGING_DIR", "COLDFERRY_FETCHER",
		"COLDFERRY_RETRIES", "COLDFERRY_BACKOFF", "COLDFERRY_LOG_FILE",
		"COLDFERRY_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "soracast-delivery-archive", cfg.Bucket)
	assert.Equal(t, "ap-northeast-1", cfg.Region)
	assert.Equal(t, "STANDARD", cfg.StorageClass)
	assert.Equal(t, "manifest.csv", cfg.ManifestPath)
	assert.Equal(t, "downloads", cfg.StagingDir)
	assert.Equal(t, FetcherCurl, cfg.Fetcher)
	assert.Equal(t, 1, cfg.Retries)
	assert.Equal(t, 5*time.Second, cfg.Backoff)
	assert.Equal(t, 300*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "coldferry.log", cfg.LogFile)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("COLDFERRY_API_KEY", "k-123")
	t.Setenv("COLDFERRY_BUCKET", "archive-test")
	t.Setenv("COLDFERRY_STORAGE_CLASS", "GLACIER")
	t.Setenv("COLDFERRY_FETCHER", "http")
	t.Setenv("COLDFERRY_RETRIES", "3")
	t.Setenv("COLDFERRY_BACKOFF", "2")
	t.Setenv("COLDFERRY_LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "k-123", cfg.APIKey)
	assert.Equal(t, "archive-test", cfg.Bucket)
	assert.Equal(t, "GLACIER", cfg.StorageClass)
	assert.Equal(t, FetcherHTTP, cfg.Fetcher)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 2*time.Second, cfg.Backoff)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadMalformedIntFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("COLDFERRY_RETRIES", "many")

	cfg := Load()

	assert.Equal(t, 1, cfg.Retries)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Fetcher:      FetcherCurl,
		StorageClass: "STANDARD",
		Retries:      1,
		Backoff:      5 * time.Second,
		HTTPTimeout:  time.Minute,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown fetcher", func(c *Config) { c.Fetcher = "wget" }, "unknown fetcher"},
		{"unknown storage class", func(c *Config) { c.StorageClass = "FROZEN" }, "unknown storage class"},
		{"zero retries", func(c *Config) { c.Retries = 0 }, "retries"},
		{"negative backoff", func(c *Config) { c.Backoff = -time.Second }, "backoff"},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFileAndMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coldferry.yaml")
	content := `api_key: from-file
bucket: file-bucket
retries: 4
backoff_seconds: 10
fetcher: http
log_level: error
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fc, err := LoadFile(path)
	require.NoError(t, err)

	clearEnv(t)
	t.Setenv("COLDFERRY_BUCKET", "env-bucket")
	t.Setenv("COLDFERRY_REGION", "us-west-2")

	cfg := Load()
	cfg.Merge(fc)

	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "file-bucket", cfg.Bucket, "file value wins over environment")
	assert.Equal(t, "us-west-2", cfg.Region, "fields absent from the file keep environment values")
	assert.Equal(t, 4, cfg.Retries)
	assert.Equal(t, 10*time.Second, cfg.Backoff)
	assert.Equal(t, FetcherHTTP, cfg.Fetcher)
	assert.Equal(t, slog.LevelError, cfg.LogLevel)
	assert.Equal(t, "manifest.csv", cfg.ManifestPath, "untouched defaults survive the merge")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retries: [oops"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}
