// Package fda implements a rate-limited client for the OpenFDA drug
// endpoints (label, ndc, drugsfda).
//
// All operations issue a single GET and return the raw result records;
// reshaping is the drug package's job. A fixed minimum delay between
// consecutive requests is enforced process-wide through a token bucket with
// burst 1, which degenerates to exactly the fixed-interval throttle the
// OpenFDA usage guidelines ask for.
package fda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fdalabs/fda-drugs-mcp/internal/config"
	"github.com/fdalabs/fda-drugs-mcp/internal/log"
)

// maxResponseSize caps an OpenFDA response body. Label records are large
// but a full page of 100 stays well under this.
const maxResponseSize int64 = 32 << 20

// Record is one raw OpenFDA result object. The label schema is too loose
// for a full struct mapping; processing code picks the fields it needs.
type Record = map[string]any

// Client talks to the OpenFDA drug endpoints.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	endpoints config.Endpoints
	apiKey    string
	maxLimit  int
	logger    log.Logger
}

// Config configures a Client.
type Config struct {
	Endpoints config.Endpoints
	APIKey    string        // effective key for this client; empty = unauthenticated tier
	Timeout   time.Duration // per-request bound; default 30s
	Interval  time.Duration // minimum delay between requests; default 100ms
	MaxLimit  int           // hard cap on requested page size; default 100
	Logger    log.Logger

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	// Limiter overrides the default fixed-interval limiter (tests).
	Limiter *rate.Limiter
}

// NewClient creates an OpenFDA client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoints.Label == "" || cfg.Endpoints.DrugsFDA == "" {
		return nil, fmt.Errorf("endpoints are required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultAPITimeout
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = config.DefaultRateLimitInterval
	}
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = config.MaxSearchLimit
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := cfg.Limiter
	if limiter == nil {
		// Burst 1 turns the token bucket into a plain minimum-delay throttle.
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	return &Client{
		http:      httpClient,
		limiter:   limiter,
		endpoints: cfg.Endpoints,
		apiKey:    cfg.APIKey,
		maxLimit:  maxLimit,
		logger:    cfg.Logger,
	}, nil
}

// response is the common OpenFDA envelope.
type response struct {
	Results []Record `json:"results"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// get issues one throttled GET and decodes the OpenFDA envelope.
// A 404 means "no matches" and returns empty results, not an error.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("FDA API request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("FDA API returned 404, treating as empty result", "endpoint", endpoint)
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("FDA API HTTP error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading FDA API response: %w", err)
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding FDA API response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("FDA API error: %s: %s", out.Error.Code, out.Error.Message)
	}

	return out.Results, nil
}

// clampLimit bounds a requested page size to [1, maxLimit].
func (c *Client) clampLimit(limit int) int {
	if limit <= 0 {
		return config.DefaultSearchLimit
	}
	if limit > c.maxLimit {
		return c.maxLimit
	}
	return limit
}

// SearchByName searches drug labels by brand or generic name.
// ANDA generics are excluded unless includeGenerics is set.
func (c *Client) SearchByName(ctx context.Context, drugName string, limit int, includeGenerics bool) ([]Record, error) {
	query := nameQuery(drugName) + " AND " + applicationTypeFilter(includeGenerics)

	params := url.Values{}
	params.Set("search", query)
	params.Set("limit", strconv.Itoa(c.clampLimit(limit)))

	c.logger.Info("searching by name", "query", query)
	return c.get(ctx, c.endpoints.Label, params)
}

// SearchByIndication searches drug labels by medical indication.
func (c *Client) SearchByIndication(ctx context.Context, indication string, limit int, includeGenerics bool) ([]Record, error) {
	query := indicationQuery(indication) + " AND " + applicationTypeFilter(includeGenerics)

	params := url.Values{}
	params.Set("search", query)
	params.Set("limit", strconv.Itoa(c.clampLimit(limit)))

	c.logger.Info("searching by indication", "query", query)
	return c.get(ctx, c.endpoints.Label, params)
}

// DrugBySetID fetches a single label record by SPL set id.
func (c *Client) DrugBySetID(ctx context.Context, setID string) (Record, error) {
	params := url.Values{}
	params.Set("search", exactQuery("set_id", setID))
	params.Set("limit", "1")

	results, err := c.get(ctx, c.endpoints.Label, params)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no drug found with set_id: %s", setID)
	}
	return results[0], nil
}

// ApplicationHistory fetches a Drugs@FDA record by application number.
func (c *Client) ApplicationHistory(ctx context.Context, applicationNumber string) (Record, error) {
	params := url.Values{}
	params.Set("search", exactQuery("application_number", applicationNumber))
	params.Set("limit", "1")

	results, err := c.get(ctx, c.endpoints.DrugsFDA, params)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no application history found for: %s", applicationNumber)
	}
	return results[0], nil
}

// ReviewInfo is the application number and review-document URL found for a
// label set id in Drugs@FDA.
type ReviewInfo struct {
	ApplicationNumber string
	ReviewURL         string
}

// ReviewInfoBySetID looks up the Drugs@FDA record for a SPL set id and
// extracts the first submission document of type "review".
// An unmatched set id returns a zero ReviewInfo, not an error.
func (c *Client) ReviewInfoBySetID(ctx context.Context, setID string) (ReviewInfo, error) {
	params := url.Values{}
	params.Set("search", exactQuery("openfda.spl_set_id", setID))
	params.Set("limit", "1")

	results, err := c.get(ctx, c.endpoints.DrugsFDA, params)
	if err != nil {
		return ReviewInfo{}, err
	}
	if len(results) == 0 {
		return ReviewInfo{}, nil
	}

	record := results[0]
	info := ReviewInfo{ApplicationNumber: StringField(record, "application_number")}

	submissions, _ := record["submissions"].([]any)
	for _, s := range submissions {
		submission, ok := s.(map[string]any)
		if !ok {
			continue
		}
		docs, _ := submission["application_docs"].([]any)
		for _, d := range docs {
			doc, ok := d.(map[string]any)
			if !ok {
				continue
			}
			if !strings.EqualFold(StringField(doc, "type"), "review") {
				continue
			}
			if u := StringField(doc, "url"); u != "" {
				info.ReviewURL = u
				return info, nil
			}
		}
	}

	return info, nil
}

// FindSimilar searches for drugs similar to the reference label record, by
// mechanism of action or by indication.
func (c *Client) FindSimilar(ctx context.Context, reference Record, similarityType string, limit int) ([]Record, error) {
	var field string
	switch similarityType {
	case "mechanism":
		field = "mechanism_of_action"
	case "indication":
		field = "indications_and_usage"
	default:
		return nil, fmt.Errorf("similarity_type must be %q or %q", "mechanism", "indication")
	}

	text := TextField(reference, field)
	if text == "" {
		return nil, nil
	}

	var terms []string
	if similarityType == "mechanism" {
		terms = extractMechanismTerms(text)
	} else {
		terms = extractIndicationTerms(text)
	}
	if len(terms) == 0 {
		return nil, nil
	}

	query := similarityQuery(field, terms, StringField(reference, "set_id"))

	params := url.Values{}
	params.Set("search", query)
	params.Set("limit", strconv.Itoa(c.clampLimit(limit)))

	c.logger.Info("finding similar drugs", "similarity_type", similarityType, "query", query)
	return c.get(ctx, c.endpoints.Label, params)
}
