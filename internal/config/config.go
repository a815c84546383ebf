// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (FDA_MCP_* overrides)
//  2. Config file (~/.fda-mcp/config.yaml or ./config.yaml)
//  3. Default values
//
// The FDA API key has its own per-call precedence chain, resolved by
// ResolveAPIKey: per-request value > runtime-set key > FDA_API_KEY
// environment variable > configured default.
//
// Security: the API key is masked in MarshalJSON so a dumped config never
// leaks it into logs.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Transport modes accepted in Config.Transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

const (
	// DefaultSearchLimit is the search limit applied when a tool call omits one.
	DefaultSearchLimit = 50

	// MaxSearchLimit caps the limit a tool call may request.
	MaxSearchLimit = 100

	// DefaultRateLimitInterval is the minimum delay between consecutive
	// OpenFDA requests.
	DefaultRateLimitInterval = 100 * time.Millisecond

	// DefaultAPITimeout bounds each OpenFDA request.
	DefaultAPITimeout = 30 * time.Second

	// DefaultScrapeTimeout bounds each FDA web page fetch.
	DefaultScrapeTimeout = 30 * time.Second

	// DefaultScraperParallelism is max concurrent archive crawl requests.
	DefaultScraperParallelism = 2

	// DefaultScraperDelay spaces archive crawl requests per domain.
	DefaultScraperDelay = time.Second
)

// ScraperConfig holds crawler settings for the archived-materials scraper.
type ScraperConfig struct {
	// Parallelism is max concurrent requests per domain (default: 2)
	Parallelism int `mapstructure:"parallelism" json:"parallelism"`
	// DelayMs is delay between requests in milliseconds (default: 1000)
	DelayMs int `mapstructure:"delay_ms" json:"delay_ms"`
	// TimeoutMs is request timeout in milliseconds (default: 30000)
	TimeoutMs int `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// Config stores application configuration.
// SECURITY: APIKey is masked in MarshalJSON.
type Config struct {
	// OpenFDA API configuration
	APIBaseURL       string `mapstructure:"api_base_url" json:"api_base_url"`
	APIKey           string `mapstructure:"api_key" json:"api_key"` // SENSITIVE: masked in MarshalJSON
	APITimeoutSec    int    `mapstructure:"api_timeout_sec" json:"api_timeout_sec"`
	RateLimitMs      int    `mapstructure:"rate_limit_ms" json:"rate_limit_ms"`
	DefaultLimit     int    `mapstructure:"default_limit" json:"default_limit"`
	MaxLimit         int    `mapstructure:"max_limit" json:"max_limit"`
	ScrapeTimeoutSec int    `mapstructure:"scrape_timeout_sec" json:"scrape_timeout_sec"`

	// Server configuration
	Transport   string   `mapstructure:"transport" json:"transport"` // "stdio" (default) or "http"
	Addr        string   `mapstructure:"addr" json:"addr"`
	LogLevel    string   `mapstructure:"log_level" json:"log_level"`
	LogJSON     bool     `mapstructure:"log_json" json:"log_json"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`

	// Review document lookup
	ReviewCSVPath string `mapstructure:"review_csv_path" json:"review_csv_path"`

	// Archived-materials crawler
	Scraper ScraperConfig `mapstructure:"scraper" json:"scraper"`
}

// runtimeAPIKey is set once at startup when the stdio client seeds
// configuration; it outranks env and config file but not a per-request key.
// Process-wide on purpose: it mirrors the single seeded key of the stdio
// handshake, not per-call state.
var (
	runtimeMu     sync.RWMutex
	runtimeAPIKey string
)

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".fda-mcp"))
	}
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api_base_url", "https://api.fda.gov")
	v.SetDefault("api_timeout_sec", int(DefaultAPITimeout/time.Second))
	v.SetDefault("rate_limit_ms", int(DefaultRateLimitInterval/time.Millisecond))
	v.SetDefault("default_limit", DefaultSearchLimit)
	v.SetDefault("max_limit", MaxSearchLimit)
	v.SetDefault("scrape_timeout_sec", int(DefaultScrapeTimeout/time.Second))

	v.SetDefault("transport", TransportStdio)
	v.SetDefault("addr", "0.0.0.0:8081")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("cors_origins", []string{"*"})

	v.SetDefault("review_csv_path", filepath.Join("output_files", "Drug_reviews", "drug_reviews.csv"))

	v.SetDefault("scraper.parallelism", DefaultScraperParallelism)
	v.SetDefault("scraper.delay_ms", int(DefaultScraperDelay/time.Millisecond))
	v.SetDefault("scraper.timeout_ms", 30000)
}

// bindEnvVariables binds environment overrides explicitly.
// FDA_API_KEY is deliberately NOT bound here: it is a separate layer of the
// per-call key precedence chain and is read at resolve time.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("transport", "TRANSPORT")
	mustBind("addr", "FDA_MCP_ADDR")
	mustBind("log_level", "LOG_LEVEL")
	mustBind("cors_origins", "FDA_MCP_CORS_ORIGINS")
	mustBind("review_csv_path", "FDA_MCP_REVIEW_CSV")
	mustBind("api_base_url", "FDA_MCP_API_BASE_URL")
}

// Endpoints holds the three OpenFDA endpoint URLs the client talks to.
type Endpoints struct {
	Label    string
	NDC      string
	DrugsFDA string
}

// Endpoints returns the OpenFDA endpoint URLs derived from APIBaseURL.
func (c *Config) Endpoints() Endpoints {
	return Endpoints{
		Label:    c.APIBaseURL + "/drug/label.json",
		NDC:      c.APIBaseURL + "/drug/ndc.json",
		DrugsFDA: c.APIBaseURL + "/drug/drugsfda.json",
	}
}

// APITimeout returns the OpenFDA request timeout as a duration.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSec) * time.Second
}

// ScrapeTimeout returns the web page fetch timeout as a duration.
func (c *Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.ScrapeTimeoutSec) * time.Second
}

// RateLimitInterval returns the minimum delay between OpenFDA requests.
func (c *Config) RateLimitInterval() time.Duration {
	return time.Duration(c.RateLimitMs) * time.Millisecond
}

// SetRuntimeAPIKey records a key supplied by the client at startup
// (stdio configuration seeding).
func SetRuntimeAPIKey(key string) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeAPIKey = key
}

// ResolveAPIKey resolves the effective FDA API key for one call.
// Precedence: per-request > runtime > FDA_API_KEY env > configured default.
func (c *Config) ResolveAPIKey(perRequest string) string {
	if perRequest != "" {
		return perRequest
	}
	runtimeMu.RLock()
	runtime := runtimeAPIKey
	runtimeMu.RUnlock()
	if runtime != "" {
		return runtime
	}
	if env := os.Getenv("FDA_API_KEY"); env != "" {
		return env
	}
	return c.APIKey
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are
// fully masked; longer ones keep first/last 2 chars for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(*c)
	a.APIKey = maskSecret(a.APIKey)
	data, err := json.Marshal(&a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
