package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soracast/coldferry/internal/storage"
)

// Fetcher implementations selectable via COLDFERRY_FETCHER or --fetcher.
const (
	FetcherCurl = "curl"
	FetcherHTTP = "http"
)

// Config holds all configuration values.
type Config struct {
	// Source API
	APIKey      string
	HTTPTimeout time.Duration

	// Object storage
	Bucket          string
	Region          string
	StorageClass    string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string

	// Batch run
	ManifestPath string
	StagingDir   string
	Fetcher      string
	Retries      int
	Backoff      time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from COLDFERRY_* environment variables, filling
// in defaults for anything unset.
func Load() Config {
	return Config{
		APIKey:      os.Getenv("COLDFERRY_API_KEY"),
		HTTPTimeout: time.Duration(getEnvInt("COLDFERRY_HTTP_TIMEOUT", 300)) * time.Second,

		Bucket:          getEnv("COLDFERRY_BUCKET", "soracast-delivery-archive"),
		Region:          getEnv("COLDFERRY_REGION", "ap-northeast-1"),
		StorageClass:    getEnv("COLDFERRY_STORAGE_CLASS", storage.ClassStandard),
		Endpoint:        os.Getenv("COLDFERRY_ENDPOINT"),
		AccessKeyID:     os.Getenv("COLDFERRY_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("COLDFERRY_SECRET_ACCESS_KEY"),

		ManifestPath: getEnv("COLDFERRY_MANIFEST", "manifest.csv"),
		StagingDir:   getEnv("COLDFERRY_STAGING_DIR", "downloads"),
		Fetcher:      getEnv("COLDFERRY_FETCHER", FetcherCurl),
		Retries:      getEnvInt("COLDFERRY_RETRIES", 1),
		Backoff:      time.Duration(getEnvInt("COLDFERRY_BACKOFF", 5)) * time.Second,

		LogFile:  getEnv("COLDFERRY_LOG_FILE", "coldferry.log"),
		LogLevel: parseLogLevel(getEnv("COLDFERRY_LOG_LEVEL", "INFO")),
	}
}

// Validate checks the structural settings. The API key is deliberately not
// checked here; commands that talk to the source API enforce it themselves.
func (c Config) Validate() error {
	if c.Fetcher != FetcherCurl && c.Fetcher != FetcherHTTP {
		return fmt.Errorf("unknown fetcher %q (expected %q or %q)", c.Fetcher, FetcherCurl, FetcherHTTP)
	}
	if !storage.ValidClass(c.StorageClass) {
		return fmt.Errorf("unknown storage class %q", c.StorageClass)
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", c.Retries)
	}
	if c.Backoff < 0 {
		return fmt.Errorf("backoff must not be negative, got %v", c.Backoff)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %v", c.HTTPTimeout)
	}
	return nil
}

// FileConfig mirrors the optional YAML config file. Pointer fields
// distinguish absent from zero.
type FileConfig struct {
	APIKey          string `yaml:"api_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	StorageClass    string `yaml:"storage_class"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Manifest        string `yaml:"manifest"`
	StagingDir      string `yaml:"staging_dir"`
	Fetcher         string `yaml:"fetcher"`
	Retries         *int   `yaml:"retries"`
	BackoffSeconds  *int   `yaml:"backoff_seconds"`
	TimeoutSeconds  *int   `yaml:"http_timeout_seconds"`
	LogFile         string `yaml:"log_file"`
	LogLevel        string `yaml:"log_level"`
}

// LoadFile reads a YAML config file.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return fc, nil
}

// Merge applies the set fields of fc on top of c. File values win over
// environment values; the file is only read when one is named explicitly.
func (c *Config) Merge(fc FileConfig) {
	if fc.APIKey != "" {
		c.APIKey = fc.APIKey
	}
	if fc.Bucket != "" {
		c.Bucket = fc.Bucket
	}
	if fc.Region != "" {
		c.Region = fc.Region
	}
	if fc.StorageClass != "" {
		c.StorageClass = fc.StorageClass
	}
	if fc.Endpoint != "" {
		c.Endpoint = fc.Endpoint
	}
	if fc.AccessKeyID != "" {
		c.AccessKeyID = fc.AccessKeyID
	}
	if fc.SecretAccessKey != "" {
		c.SecretAccessKey = fc.SecretAccessKey
	}
	if fc.Manifest != "" {
		c.ManifestPath = fc.Manifest
	}
	if fc.StagingDir != "" {
		c.StagingDir = fc.StagingDir
	}
	if fc.Fetcher != "" {
		c.Fetcher = fc.Fetcher
	}
	if fc.Retries != nil {
		c.Retries = *fc.Retries
	}
	if fc.BackoffSeconds != nil {
		c.Backoff = time.Duration(*fc.BackoffSeconds) * time.Second
	}
	if fc.TimeoutSeconds != nil {
		c.HTTPTimeout = time.Duration(*fc.TimeoutSeconds) * time.Second
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.LogLevel != "" {
		c.LogLevel = parseLogLevel(fc.LogLevel)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
