package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// GuidanceDocument is one entry of the FDA guidance document index, with
// the datatable's embedded HTML stripped.
type GuidanceDocument struct {
	Title            string `json:"title"`
	Link             string `json:"link"`
	PDFLink          string `json:"pdf_link"`
	Date             string `json:"date"`
	Type             string `json:"type"`
	Center           string `json:"center"`
	DocketNumber     string `json:"docket_number"`
	Topics           string `json:"topics"`
	RegulatedProduct string `json:"regulated_product"`
}

// guidanceItem mirrors the search-for-guidance.json field names. Title and
// media fields arrive as HTML fragments.
type guidanceItem struct {
	Title            string `json:"title"`
	AssociatedMedia  string `json:"field_associated_media_2"`
	IssueDatetime    string `json:"field_issue_datetime"`
	FinalGuidance    string `json:"field_final_guidance_1"`
	Center           string `json:"field_center"`
	DocketNumber     string `json:"field_docket_number"`
	Topics           string `json:"term_node_tid"`
	RegulatedProduct string `json:"field_regulated_product_field"`
}

// FetchGuidanceDocuments downloads the full guidance index. Filtering by
// center, type or topic is the caller's concern.
func (s *Scraper) FetchGuidanceDocuments(ctx context.Context) ([]GuidanceDocument, error) {
	s.logger.Info("fetching guidance document index")

	body, err := s.get(ctx, s.guidanceURL, jsonHeaders)
	if err != nil {
		return nil, err
	}

	var items []guidanceItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decoding guidance JSON: %w", err)
	}

	docs := make([]GuidanceDocument, 0, len(items))
	for _, item := range items {
		docs = append(docs, GuidanceDocument{
			Title:            stripHTML(item.Title),
			Link:             s.anchorURL(item.Title),
			PDFLink:          s.anchorURL(item.AssociatedMedia),
			Date:             item.IssueDatetime,
			Type:             item.FinalGuidance,
			Center:           stripHTML(item.Center),
			DocketNumber:     stripHTML(item.DocketNumber),
			Topics:           stripHTML(item.Topics),
			RegulatedProduct: item.RegulatedProduct,
		})
	}

	s.logger.Debug("fetched guidance documents", "count", len(docs))
	return docs, nil
}

// stripHTML flattens an HTML fragment to its text content.
func stripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}

// anchorURL pulls the first anchor href out of an HTML fragment, prefixing
// site-relative paths with the FDA base URL.
func (s *Scraper) anchorURL(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	href := doc.Find("a").First().AttrOr("href", "")
	if strings.HasPrefix(href, "/") {
		return s.fdaBaseURL + href
	}
	return href
}
