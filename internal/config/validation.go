package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidBaseURL indicates the API base URL is not a valid http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid API base URL")

	// ErrInvalidTimeout indicates a timeout value is out of range.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidRateLimit indicates the rate-limit interval is negative.
	ErrInvalidRateLimit = errors.New("invalid rate-limit interval")

	// ErrInvalidLimit indicates a search limit is out of range.
	ErrInvalidLimit = errors.New("invalid search limit")

	// ErrInvalidTransport indicates an unknown transport mode.
	ErrInvalidTransport = errors.New("invalid transport")

	// ErrInvalidAddr indicates a missing listen address for HTTP mode.
	ErrInvalidAddr = errors.New("invalid listen address")

	// ErrInvalidScraper indicates an out-of-range crawler setting.
	ErrInvalidScraper = errors.New("invalid scraper setting")
)

// Validate checks all configuration values, fail-fast at load time.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.APIBaseURL)
	}
	if strings.HasSuffix(c.APIBaseURL, "/") {
		return fmt.Errorf("%w: trailing slash in %q", ErrInvalidBaseURL, c.APIBaseURL)
	}

	if c.APITimeoutSec <= 0 || c.APITimeoutSec > 300 {
		return fmt.Errorf("%w: api_timeout_sec=%d (want 1-300)", ErrInvalidTimeout, c.APITimeoutSec)
	}
	if c.ScrapeTimeoutSec <= 0 || c.ScrapeTimeoutSec > 300 {
		return fmt.Errorf("%w: scrape_timeout_sec=%d (want 1-300)", ErrInvalidTimeout, c.ScrapeTimeoutSec)
	}

	if c.RateLimitMs < 0 {
		return fmt.Errorf("%w: rate_limit_ms=%d", ErrInvalidRateLimit, c.RateLimitMs)
	}

	if c.DefaultLimit <= 0 || c.MaxLimit <= 0 || c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("%w: default=%d max=%d", ErrInvalidLimit, c.DefaultLimit, c.MaxLimit)
	}

	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidTransport, c.Transport, TransportStdio, TransportHTTP)
	}

	if c.Transport == TransportHTTP && strings.TrimSpace(c.Addr) == "" {
		return ErrInvalidAddr
	}

	if c.Scraper.Parallelism <= 0 {
		return fmt.Errorf("%w: parallelism=%d", ErrInvalidScraper, c.Scraper.Parallelism)
	}
	if c.Scraper.DelayMs < 0 || c.Scraper.TimeoutMs <= 0 {
		return fmt.Errorf("%w: delay_ms=%d timeout_ms=%d", ErrInvalidScraper, c.Scraper.DelayMs, c.Scraper.TimeoutMs)
	}

	return nil
}
