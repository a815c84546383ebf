package scrape

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/fdalabs/fda-drugs-mcp/internal/config"
	"github.com/fdalabs/fda-drugs-mcp/internal/log"
)

// The drug advisory committee pages before 2017 only survive in the
// Archive-It Wayback collection. The listing page links one page per
// committee and year; each of those pages groups meeting materials into
// panels titled with the meeting date.

const defaultArchiveStartURL = "https://wayback.archive-it.org/7993/20170403184741/https://www.fda.gov/AdvisoryCommittees/CommitteesMeetingMaterials/Drugs/default.htm"

// ArchivedDocument is one document found on an archived committee page.
type ArchivedDocument struct {
	Committee    string `json:"committee"`
	Year         string `json:"year"`
	MeetingDate  string `json:"meeting_date"`
	MeetingTitle string `json:"meeting_title"`
	DocumentName string `json:"document_name"`
	DocumentURL  string `json:"document_url"`
	FileSize     string `json:"file_size"`
	IsPDF        bool   `json:"is_pdf"`
}

// ArchiveConfig configures the archived-materials crawler.
type ArchiveConfig struct {
	Parallelism int           // concurrent requests; default 2
	Delay       time.Duration // delay between requests per domain; default 1s
	Timeout     time.Duration // per-request bound; default 30s
	StartURL    string        // listing page; default the Archive-It drugs listing
	Logger      log.Logger
}

var (
	yearRE            = regexp.MustCompile(`\d{4}`)
	meetingPrefixRE   = regexp.MustCompile(`\d{4}\s+Meeting Materials,?\s*`)
	archiveDateRE     = regexp.MustCompile(`[A-Za-z]+\s+\d{1,2},\s+\d{4}`)
	archiveSizeRE     = regexp.MustCompile(`\(PDF\s*-\s*([\d.]+\s*[KMG]B)\)`)
	archiveSizeTrimRE = regexp.MustCompile(`\s*\(PDF\s*-\s*[\d.]+\s*[KMG]B\)\s*$`)
)

// CrawlArchivedMaterials walks the Wayback archive of drug advisory
// committee meeting materials and returns every linked document. Pages
// that fail to load are logged and skipped.
func CrawlArchivedMaterials(cfg ArchiveConfig) ([]ArchivedDocument, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = config.DefaultScraperParallelism
	}
	delay := cfg.Delay
	if delay <= 0 {
		delay = config.DefaultScraperDelay
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultScrapeTimeout
	}
	startURL := cfg.StartURL
	if startURL == "" {
		startURL = defaultArchiveStartURL
	}

	c := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(userAgent),
	)
	c.SetRequestTimeout(timeout)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		Delay:       delay,
	}); err != nil {
		return nil, fmt.Errorf("configuring crawl limits: %w", err)
	}

	var (
		mu   sync.Mutex
		docs []ArchivedDocument
	)

	// Committee-year links on the listing page. Charter and roster pages
	// carry no meeting materials.
	c.OnHTML("a.list-group-item", func(e *colly.HTMLElement) {
		if e.Request.Ctx.Get("committee") != "" {
			return
		}
		text := strings.TrimSpace(e.Text)
		if strings.Contains(text, "Charter") || strings.Contains(text, "Roster") {
			return
		}
		year := yearRE.FindString(text)
		href := e.Attr("href")
		if year == "" || href == "" {
			return
		}

		committee := strings.TrimSpace(meetingPrefixRE.ReplaceAllString(text, ""))

		pageCtx := colly.NewContext()
		pageCtx.Put("committee", committee)
		pageCtx.Put("year", year)
		if err := c.Request("GET", e.Request.AbsoluteURL(href), nil, pageCtx, nil); err != nil {
			cfg.Logger.Warn("queueing committee page failed", "url", href, "error", err)
		}
	})

	// Meeting panels on a committee-year page.
	c.OnHTML("div.panel.panel-default.box", func(e *colly.HTMLElement) {
		committee := e.Request.Ctx.Get("committee")
		if committee == "" {
			return
		}
		year := e.Request.Ctx.Get("year")

		meetingTitle := strings.TrimSpace(e.ChildText("h2.panel-title"))
		if meetingTitle == "" {
			return
		}
		meetingDate := parseArchiveMeetingDate(meetingTitle)

		e.ForEach("div.panel-body a", func(_ int, link *colly.HTMLElement) {
			href := link.Attr("href")
			if href == "" {
				return
			}
			linkText := strings.TrimSpace(link.Text)

			fileSize := ""
			if m := archiveSizeRE.FindStringSubmatch(linkText); m != nil {
				fileSize = m[1]
			}

			doc := ArchivedDocument{
				Committee:    committee,
				Year:         year,
				MeetingDate:  meetingDate,
				MeetingTitle: meetingTitle,
				DocumentName: strings.TrimSpace(archiveSizeTrimRE.ReplaceAllString(linkText, "")),
				DocumentURL:  link.Request.AbsoluteURL(href),
				FileSize:     fileSize,
				IsPDF:        strings.Contains(strings.ToLower(href), ".pdf") || strings.Contains(linkText, "PDF"),
			}

			mu.Lock()
			docs = append(docs, doc)
			mu.Unlock()
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		cfg.Logger.Warn("archive page failed", "url", r.Request.URL.String(), "error", err)
	})

	if err := c.Visit(startURL); err != nil {
		return nil, fmt.Errorf("visiting archive listing: %w", err)
	}
	c.Wait()

	cfg.Logger.Info("archive crawl finished", "documents", len(docs))
	return docs, nil
}

// parseArchiveMeetingDate pulls a "January 2, 2006" style date out of a
// panel title and normalizes it to YYYY-MM-DD. Titles without a parseable
// date yield the raw match or "".
func parseArchiveMeetingDate(title string) string {
	raw := archiveDateRE.FindString(title)
	if raw == "" {
		return ""
	}
	t, err := time.Parse("January 2, 2006", raw)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}
