package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// MaterialsQuery filters the advisory committee calendar.
type MaterialsQuery struct {
	Committee string // case-insensitive substring on center or title
	StartDate string // YYYY-MM-DD inclusive
	EndDate   string // YYYY-MM-DD inclusive
	Limit     int    // max meetings processed; default 100
}

// MeetingMaterial is one PDF listed on a meeting page.
type MeetingMaterial struct {
	Title    string `json:"title"`
	PDFURL   string `json:"pdf_url"`
	FileSize string `json:"file_size"`
	Source   string `json:"source"`
}

// Meeting is one advisory committee meeting with its materials.
type Meeting struct {
	Date       string            `json:"date"`
	Committee  string            `json:"committee"`
	Title      string            `json:"title"`
	MeetingURL string            `json:"meeting_url"`
	Materials  []MeetingMaterial `json:"materials"`
}

// calendarEntry is one row of the advisory-committee-calendar-json feed.
// The title field is an HTML fragment wrapping the meeting page link.
type calendarEntry struct {
	Title          string `json:"title"`
	FieldCenter    string `json:"field_center"`
	FieldStartDate string `json:"field_start_date"`
}

const defaultMeetingLimit = 100

var fileSizeRE = regexp.MustCompile(`\((.*?)\)`)

// SearchAdvisoryMaterials fetches the advisory committee calendar, filters
// it by committee and date range, and scrapes each matching meeting page
// for its PDF materials. Meetings whose pages fail to load are skipped.
func (s *Scraper) SearchAdvisoryMaterials(ctx context.Context, q MaterialsQuery) ([]Meeting, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultMeetingLimit
	}

	s.logger.Info("fetching advisory committee calendar",
		"committee", q.Committee, "start_date", q.StartDate, "end_date", q.EndDate)

	body, err := s.get(ctx, s.calendarURL, jsonHeaders)
	if err != nil {
		return nil, err
	}

	var entries []calendarEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decoding calendar JSON: %w", err)
	}

	committee := strings.ToLower(q.Committee)
	var filtered []calendarEntry
	for _, entry := range entries {
		if committee != "" &&
			!strings.Contains(strings.ToLower(entry.FieldCenter), committee) &&
			!strings.Contains(strings.ToLower(entry.Title), committee) {
			continue
		}

		date := parseMeetingDate(entry.FieldStartDate)
		if q.StartDate != "" && date < q.StartDate {
			continue
		}
		if q.EndDate != "" && date > q.EndDate {
			continue
		}

		filtered = append(filtered, entry)
		if len(filtered) >= limit {
			break
		}
	}

	meetings := []Meeting{}
	for _, entry := range filtered {
		meetingURL, meetingTitle := parseTitleHTML(entry.Title)
		if meetingURL == "" {
			continue
		}

		fullURL := meetingURL
		if strings.HasPrefix(fullURL, "/") {
			fullURL = s.fdaBaseURL + fullURL
		}

		materials, err := s.scrapeMeetingMaterials(ctx, fullURL)
		if err != nil {
			s.logger.Warn("skipping meeting, materials scrape failed", "url", fullURL, "error", err)
			continue
		}

		meetings = append(meetings, Meeting{
			Date:       parseMeetingDate(entry.FieldStartDate),
			Committee:  entry.FieldCenter,
			Title:      meetingTitle,
			MeetingURL: fullURL,
			Materials:  materials,
		})
	}

	return meetings, nil
}

// scrapeMeetingMaterials reads the first table on a meeting page. Each row
// links a document in its first cell; the second cell states file type and
// size. Only PDF rows are kept.
func (s *Scraper) scrapeMeetingMaterials(ctx context.Context, meetingURL string) ([]MeetingMaterial, error) {
	body, err := s.get(ctx, meetingURL, documentHeaders)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing meeting page: %w", err)
	}

	materials := []MeetingMaterial{}

	doc.Find("table").First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		link := cells.Eq(0).Find("a[href]").First()
		if link.Length() == 0 {
			return
		}
		href := link.AttrOr("href", "")

		fileInfo := strings.ToLower(strings.TrimSpace(cells.Eq(1).Text()))
		if !strings.Contains(fileInfo, "pdf") {
			return
		}

		fileSize := ""
		if m := fileSizeRE.FindStringSubmatch(fileInfo); m != nil {
			fileSize = m[1]
		}

		source := ""
		if cells.Length() > 2 {
			source = strings.TrimSpace(cells.Eq(2).Text())
		}

		pdfURL := href
		if strings.HasPrefix(pdfURL, "/") {
			pdfURL = s.fdaBaseURL + pdfURL
		}

		materials = append(materials, MeetingMaterial{
			Title:    strings.TrimSpace(link.Text()),
			PDFURL:   pdfURL,
			FileSize: fileSize,
			Source:   source,
		})
	})

	return materials, nil
}

// parseTitleHTML extracts the meeting link href and plain-text title from
// the calendar's HTML title fragment.
func parseTitleHTML(titleHTML string) (href, title string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(titleHTML))
	if err != nil {
		return "", ""
	}
	href = doc.Find("a").First().AttrOr("href", "")
	title = strings.TrimSpace(doc.Text())
	return href, title
}

// parseMeetingDate normalizes a calendar date like "02/25/2016 03:00 AM EST"
// to YYYY-MM-DD. Unparseable input comes back unchanged so string ordering
// still degrades gracefully.
func parseMeetingDate(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return raw
	}
	t, err := time.Parse("01/02/2006", fields[0])
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}
