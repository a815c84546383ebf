package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractReviewPDFs scrapes a drugsatfda .cfm table-of-contents page and
// returns the absolute URLs of review PDFs: anchors ending in .pdf whose
// text mentions "review". Approval letters, labeling and administrative
// documents are left out.
func (s *Scraper) ExtractReviewPDFs(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL: %w", err)
	}

	body, err := s.get(ctx, pageURL, documentHeaders)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing review page: %w", err)
	}

	seen := make(map[string]bool)
	pdfs := []string{}

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		text := strings.ToLower(strings.TrimSpace(link.Text()))
		if !strings.HasSuffix(strings.ToLower(href), ".pdf") || !strings.Contains(text, "review") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		absolute := base.ResolveReference(ref).String()
		if seen[absolute] {
			return
		}
		seen[absolute] = true
		pdfs = append(pdfs, absolute)
	})

	s.logger.Debug("extracted review PDFs", "page", pageURL, "count", len(pdfs))
	return pdfs, nil
}
