// Package config provides configuration loading from a YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Portal defaults
const (
	DefaultBaseURL    = "https://supremedecisions.court.gov.il"
	DefaultSearchPath = "/Home/SearchVerdicts"
	DefaultOutputDir  = "output"
	DefaultResults    = ".data"
)

// Config holds all configuration for a fetch run.
type Config struct {
	BaseURL      string            `yaml:"base_url"`      // VERDICTS_BASE_URL
	SearchPath   string            `yaml:"search_path"`   // VERDICTS_SEARCH_PATH
	Headers      map[string]string `yaml:"headers"`       // static request headers
	Cookies      map[string]string `yaml:"cookies"`       // static cookies for the portal host
	OutputDir    string            `yaml:"output_dir"`    // VERDICTS_OUTPUT_DIR, default "output"
	ResultsQuery string            `yaml:"results_query"` // VERDICTS_RESULTS_QUERY, default ".data"
	Throttle     time.Duration     `yaml:"throttle"`      // VERDICTS_THROTTLE_MS, default 1s between downloads
	InspectPDFs  bool              `yaml:"inspect_pdfs"`  // VERDICTS_INSPECT_PDFS, default true

	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
	Archive ArchiveConfig `yaml:"archive"`
}

// HTTPConfig holds timeouts and the retry policy of the portal session.
type HTTPConfig struct {
	SearchTimeout   time.Duration `yaml:"search_timeout"`   // SEARCH_TIMEOUT_MS, default 30s per attempt
	DownloadTimeout time.Duration `yaml:"download_timeout"` // DOWNLOAD_TIMEOUT_MS, default 20s per attempt
	Retries         int           `yaml:"retries"`          // HTTP_RETRIES, default 5
	BackoffFactor   time.Duration `yaml:"backoff_factor"`   // HTTP_BACKOFF_FACTOR_MS, default 1s
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `yaml:"level"`        // LOG_LEVEL, default "info"
	File       string `yaml:"file"`         // LOG_FILE, default "<output_dir>/scraper.log"
	MaxSizeMB  int    `yaml:"max_size_mb"`  // LOG_MAX_SIZE_MB, default 10
	MaxBackups int    `yaml:"max_backups"`  // LOG_MAX_BACKUPS, default 5
	MaxAgeDays int    `yaml:"max_age_days"` // LOG_MAX_AGE_DAYS, default 28
	Compress   bool   `yaml:"compress"`     // LOG_COMPRESS, default true
}

// ArchiveConfig holds the optional S3-compatible archive target.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`    // ARCHIVE_ENABLED
	Endpoint  string `yaml:"endpoint"`   // ARCHIVE_ENDPOINT, host:port
	AccessKey string `yaml:"access_key"` // ARCHIVE_ACCESS_KEY
	SecretKey string `yaml:"secret_key"` // ARCHIVE_SECRET_KEY
	Bucket    string `yaml:"bucket"`     // ARCHIVE_BUCKET
	Region    string `yaml:"region"`     // ARCHIVE_REGION
	UseSSL    bool   `yaml:"use_ssl"`    // ARCHIVE_USE_SSL
	Prefix    string `yaml:"prefix"`     // ARCHIVE_PREFIX
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		SearchPath:   DefaultSearchPath,
		Headers:      map[string]string{},
		Cookies:      map[string]string{},
		OutputDir:    DefaultOutputDir,
		ResultsQuery: DefaultResults,
		Throttle:     time.Second,
		InspectPDFs:  true,
		HTTP: HTTPConfig{
			SearchTimeout:   30 * time.Second,
			DownloadTimeout: 20 * time.Second,
			Retries:         5,
			BackoffFactor:   time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// Load reads the YAML file at path over Default, then applies environment
// overrides. A missing path is an error: the portal headers and cookies live
// in the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports configuration that would make every request fail.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if strings.TrimSpace(c.SearchPath) == "" {
		errs = append(errs, errors.New("search_path is required"))
	}
	if c.HTTP.Retries < 0 {
		errs = append(errs, errors.New("http.retries must not be negative"))
	}
	if c.Throttle < 0 {
		errs = append(errs, errors.New("throttle must not be negative"))
	}
	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.Bucket == "") {
		errs = append(errs, errors.New("archive.endpoint and archive.bucket are required when archive is enabled"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnv() {
	c.BaseURL = getEnvString("VERDICTS_BASE_URL", c.BaseURL)
	c.SearchPath = getEnvString("VERDICTS_SEARCH_PATH", c.SearchPath)
	c.OutputDir = getEnvString("VERDICTS_OUTPUT_DIR", c.OutputDir)
	c.ResultsQuery = getEnvString("VERDICTS_RESULTS_QUERY", c.ResultsQuery)
	c.Throttle = getEnvDurationMs("VERDICTS_THROTTLE_MS", c.Throttle)
	c.InspectPDFs = getEnvBool("VERDICTS_INSPECT_PDFS", c.InspectPDFs)

	c.HTTP.SearchTimeout = getEnvDurationMs("SEARCH_TIMEOUT_MS", c.HTTP.SearchTimeout)
	c.HTTP.DownloadTimeout = getEnvDurationMs("DOWNLOAD_TIMEOUT_MS", c.HTTP.DownloadTimeout)
	c.HTTP.Retries = getEnvInt("HTTP_RETRIES", c.HTTP.Retries)
	c.HTTP.BackoffFactor = getEnvDurationMs("HTTP_BACKOFF_FACTOR_MS", c.HTTP.BackoffFactor)

	c.Log.Level = getEnvString("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnvString("LOG_FILE", c.Log.File)
	c.Log.MaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", c.Log.MaxSizeMB)
	c.Log.MaxBackups = getEnvInt("LOG_MAX_BACKUPS", c.Log.MaxBackups)
	c.Log.MaxAgeDays = getEnvInt("LOG_MAX_AGE_DAYS", c.Log.MaxAgeDays)
	c.Log.Compress = getEnvBool("LOG_COMPRESS", c.Log.Compress)

	c.Archive.Enabled = getEnvBool("ARCHIVE_ENABLED", c.Archive.Enabled)
	c.Archive.Endpoint = getEnvString("ARCHIVE_ENDPOINT", c.Archive.Endpoint)
	c.Archive.AccessKey = getEnvString("ARCHIVE_ACCESS_KEY", c.Archive.AccessKey)
	c.Archive.SecretKey = getEnvString("ARCHIVE_SECRET_KEY", c.Archive.SecretKey)
	c.Archive.Bucket = getEnvString("ARCHIVE_BUCKET", c.Archive.Bucket)
	c.Archive.Region = getEnvString("ARCHIVE_REGION", c.Archive.Region)
	c.Archive.UseSSL = getEnvBool("ARCHIVE_USE_SSL", c.Archive.UseSSL)
	c.Archive.Prefix = getEnvString("ARCHIVE_PREFIX", c.Archive.Prefix)
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultVal time.Duration) time.Duration {
	ms := getEnvInt(key, int(defaultVal/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}
