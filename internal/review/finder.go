package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/fdalabs/fda-drugs-mcp/internal/fda"
	"github.com/fdalabs/fda-drugs-mcp/internal/log"
)

// InfoClient resolves a SPL set id to its Drugs@FDA review document.
type InfoClient interface {
	ReviewInfoBySetID(ctx context.Context, setID string) (fda.ReviewInfo, error)
}

// PDFExtractor scrapes review PDF links out of a .cfm index page.
type PDFExtractor interface {
	ExtractReviewPDFs(ctx context.Context, pageURL string) ([]string, error)
}

// Finder chains Drugs@FDA lookup and page scraping into one PDF search.
type Finder struct {
	client    InfoClient
	extractor PDFExtractor
	logger    log.Logger
}

// NewFinder creates a Finder.
func NewFinder(client InfoClient, extractor PDFExtractor, logger log.Logger) (*Finder, error) {
	if client == nil || extractor == nil {
		return nil, fmt.Errorf("client and extractor are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Finder{client: client, extractor: extractor, logger: logger}, nil
}

// PDFResult is the outcome of a review PDF lookup for one set id.
type PDFResult struct {
	SetID             string   `json:"set_id"`
	ApplicationNumber string   `json:"application_number"`
	ReviewURL         string   `json:"review_url"`
	PDFURLs           []string `json:"pdf_urls"`
}

// PDFsForSetID resolves the review document for a set id. A .cfm review URL
// is a table-of-contents page and gets scraped for its PDFs; a direct .pdf
// URL is returned as the single result. No Drugs@FDA match yields an empty
// result, not an error.
func (f *Finder) PDFsForSetID(ctx context.Context, setID string) (PDFResult, error) {
	result := PDFResult{SetID: setID, PDFURLs: []string{}}

	info, err := f.client.ReviewInfoBySetID(ctx, setID)
	if err != nil {
		return result, err
	}
	result.ApplicationNumber = info.ApplicationNumber
	result.ReviewURL = info.ReviewURL

	if info.ReviewURL == "" {
		f.logger.Debug("no review document listed", "set_id", setID)
		return result, nil
	}

	switch {
	case strings.HasSuffix(strings.ToLower(info.ReviewURL), ".cfm"):
		pdfs, err := f.extractor.ExtractReviewPDFs(ctx, info.ReviewURL)
		if err != nil {
			return result, err
		}
		result.PDFURLs = pdfs
	case strings.HasSuffix(strings.ToLower(info.ReviewURL), ".pdf"):
		result.PDFURLs = []string{info.ReviewURL}
	}

	return result, nil
}
