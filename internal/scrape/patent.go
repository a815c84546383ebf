package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PatentRecord is one row of the Orange Book patent table.
type PatentRecord struct {
	ProductNo            string `json:"product_no"`
	PatentNo             string `json:"patent_no"`
	PatentExpiration     string `json:"patent_expiration"`
	DrugSubstance        string `json:"drug_substance"`
	DrugProduct          string `json:"drug_product"`
	PatentUseCode        string `json:"patent_use_code"`
	PatentUseDescription string `json:"patent_use_description"`
	DelistRequested      string `json:"delist_requested"`
	SubmissionDate       string `json:"submission_date"`
}

// ExclusivityRecord is one row of the Orange Book exclusivity table.
type ExclusivityRecord struct {
	ProductNo              string `json:"product_no"`
	ExclusivityCode        string `json:"exclusivity_code"`
	ExclusivityDescription string `json:"exclusivity_description"`
	ExclusivityExpiration  string `json:"exclusivity_expiration"`
}

// PatentInfo is the scraped patent and exclusivity data for one product of
// an NDA application.
type PatentInfo struct {
	ApplicationNumber string              `json:"application_number"`
	ProductNo         string              `json:"product_no"`
	Patents           []PatentRecord      `json:"patents"`
	Exclusivities     []ExclusivityRecord `json:"exclusivities"`
}

// ScrapePatentInfo fetches the Orange Book patent page for an NDA
// application and product number. Only NDA applications are listed; BLA
// and ANDA numbers come back with both tables empty.
func (s *Scraper) ScrapePatentInfo(ctx context.Context, applicationNumber, productNo string) (PatentInfo, error) {
	info := PatentInfo{
		ApplicationNumber: applicationNumber,
		ProductNo:         productNo,
		Patents:           []PatentRecord{},
		Exclusivities:     []ExclusivityRecord{},
	}

	params := url.Values{}
	params.Set("Product_No", productNo)
	params.Set("Appl_No", applicationNumber)
	params.Set("Appl_type", "N")

	s.logger.Info("scraping Orange Book patent info", "application_number", applicationNumber, "product_no", productNo)

	body, err := s.get(ctx, s.orangeBookURL+"?"+params.Encode(), documentHeaders)
	if err != nil {
		return info, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return info, fmt.Errorf("parsing Orange Book page: %w", err)
	}

	info.Patents = parsePatentTable(doc)
	info.Exclusivities = parseExclusivityTable(doc)

	s.logger.Debug("parsed Orange Book tables",
		"patents", len(info.Patents), "exclusivities", len(info.Exclusivities))
	return info, nil
}

// parsePatentTable reads table#example0. Rows with class "child" are the
// datatable's expandable detail duplicates and are skipped.
func parsePatentTable(doc *goquery.Document) []PatentRecord {
	patents := []PatentRecord{}

	doc.Find("table#example0 tbody tr").Each(func(_ int, row *goquery.Selection) {
		if row.HasClass("child") {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		p := PatentRecord{
			ProductNo:        cellText(cells, 0),
			PatentNo:         cellText(cells, 1),
			PatentExpiration: cellText(cells, 2),
			DrugSubstance:    cellText(cells, 3),
			DrugProduct:      cellText(cells, 4),
			DelistRequested:  cellText(cells, 6),
			SubmissionDate:   cellText(cells, 7),
		}

		// The use-code cell links to its definition; the title attribute
		// carries the long description.
		if cells.Length() > 5 {
			useCell := cells.Eq(5)
			if link := useCell.Find("a").First(); link.Length() > 0 {
				p.PatentUseCode = strings.TrimSpace(link.Text())
				p.PatentUseDescription = strings.TrimSpace(link.AttrOr("title", ""))
			} else {
				p.PatentUseCode = strings.TrimSpace(useCell.Text())
			}
		}

		patents = append(patents, p)
	})

	return patents
}

// parseExclusivityTable reads table#example1. One row may carry several
// exclusivity codes as separate anchors.
func parseExclusivityTable(doc *goquery.Document) []ExclusivityRecord {
	exclusivities := []ExclusivityRecord{}

	doc.Find("table#example1 tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		var codes, descriptions []string
		codeCell := cells.Eq(1)
		codeCell.Find("a").Each(func(_ int, link *goquery.Selection) {
			if code := strings.TrimSpace(link.Text()); code != "" {
				codes = append(codes, code)
			}
			if desc := strings.TrimSpace(link.AttrOr("title", "")); desc != "" {
				descriptions = append(descriptions, desc)
			}
		})
		if len(codes) == 0 {
			if code := strings.TrimSpace(codeCell.Text()); code != "" {
				codes = append(codes, code)
			}
		}

		exclusivities = append(exclusivities, ExclusivityRecord{
			ProductNo:              cellText(cells, 0),
			ExclusivityCode:        strings.Join(codes, ", "),
			ExclusivityDescription: strings.Join(descriptions, " | "),
			ExclusivityExpiration:  cellText(cells, 2),
		})
	})

	return exclusivities
}

// cellText returns the trimmed text of cell i, or "" when out of range.
func cellText(cells *goquery.Selection, i int) string {
	if i >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(i).Text())
}
