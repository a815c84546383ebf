// Package scrape pulls drug regulatory data that OpenFDA does not expose:
// Orange Book patent tables, drugsatfda review pages, advisory committee
// meeting materials and the guidance document index.
//
// The FDA endpoints here serve HTML or datatable JSON meant for browsers, so
// every request carries a browser-like header set. DOM plans are fixed; a
// page that no longer matches yields empty results rather than a panic.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fdalabs/fda-drugs-mcp/internal/config"
	"github.com/fdalabs/fda-drugs-mcp/internal/log"
)

// Default endpoint URLs. Tests point these at httptest servers.
const (
	defaultOrangeBookURL = "https://www.accessdata.fda.gov/scripts/cder/ob/patent_info.cfm"
	defaultCalendarURL   = "https://www.fda.gov/datatables-json/advisory-committee-calendar-json"
	defaultGuidanceURL   = "https://www.fda.gov/files/api/datatables/static/search-for-guidance.json"
	defaultFDABaseURL    = "https://www.fda.gov"
)

// maxPageSize caps a scraped page body.
const maxPageSize int64 = 16 << 20

// Scraper fetches and parses FDA web pages.
type Scraper struct {
	http          *http.Client
	logger        log.Logger
	orangeBookURL string
	calendarURL   string
	guidanceURL   string
	fdaBaseURL    string
}

// Config configures a Scraper.
type Config struct {
	Timeout time.Duration // per-request bound; default 30s
	Logger  log.Logger

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	// Endpoint overrides (tests).
	OrangeBookURL string
	CalendarURL   string
	GuidanceURL   string
	FDABaseURL    string
}

// New creates a Scraper.
func New(cfg Config) (*Scraper, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultScrapeTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	s := &Scraper{
		http:          httpClient,
		logger:        cfg.Logger,
		orangeBookURL: cfg.OrangeBookURL,
		calendarURL:   cfg.CalendarURL,
		guidanceURL:   cfg.GuidanceURL,
		fdaBaseURL:    cfg.FDABaseURL,
	}
	if s.orangeBookURL == "" {
		s.orangeBookURL = defaultOrangeBookURL
	}
	if s.calendarURL == "" {
		s.calendarURL = defaultCalendarURL
	}
	if s.guidanceURL == "" {
		s.guidanceURL = defaultGuidanceURL
	}
	if s.fdaBaseURL == "" {
		s.fdaBaseURL = defaultFDABaseURL
	}
	return s, nil
}

// get issues one GET with the given header set and returns the body.
func (s *Scraper) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return body, nil
}
