package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fdalabs/fda-drugs-mcp/internal/scrape"
)

// SearchAdvisoryCommitteeMaterialsInput defines the input schema for
// search_advisory_committee_materials.
type SearchAdvisoryCommitteeMaterialsInput struct {
	Committee string `json:"committee,omitempty" jsonschema:"Committee name filter, case-insensitive partial match"`
	StartDate string `json:"start_date,omitempty" jsonschema:"Only meetings on or after this date (YYYY-MM-DD)"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"Only meetings on or before this date (YYYY-MM-DD)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of meetings to process (default: 100)"`
}

// adcomQuery echoes the search parameters.
type adcomQuery struct {
	Committee string `json:"committee"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Limit     int    `json:"limit"`
}

// adcomResult is the envelope of search_advisory_committee_materials.
type adcomResult struct {
	Success       bool             `json:"success"`
	Query         adcomQuery       `json:"query"`
	TotalMeetings int              `json:"total_meetings"`
	Meetings      []scrape.Meeting `json:"meetings"`
}

func (s *Server) registerSearchAdvisoryCommitteeMaterials() error {
	inputSchema, err := jsonschema.For[SearchAdvisoryCommitteeMaterialsInput](nil)
	if err != nil {
		return err
	}

	tool := &mcp.Tool{
		Name:        "search_advisory_committee_materials",
		Description: "Search FDA advisory committee meetings and their PDF materials, filtered by committee name and date range.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in SearchAdvisoryCommitteeMaterialsInput) (*mcp.CallToolResult, any, error) {
		query := adcomQuery{
			Committee: in.Committee,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			Limit:     in.Limit,
		}

		meetings, err := s.scraper.SearchAdvisoryMaterials(ctx, scrape.MaterialsQuery{
			Committee: in.Committee,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			Limit:     in.Limit,
		})
		if err != nil {
			return failure(err, map[string]any{
				"query":          query,
				"total_meetings": 0,
				"meetings":       []scrape.Meeting{},
			}), nil, nil
		}

		return dataToMCP(adcomResult{
			Success:       true,
			Query:         query,
			TotalMeetings: len(meetings),
			Meetings:      meetings,
		}), nil, nil
	})

	return nil
}

// SearchArchivedCommitteeMaterialsInput defines the input schema for
// search_archived_committee_materials.
type SearchArchivedCommitteeMaterialsInput struct {
	Committee string `json:"committee,omitempty" jsonschema:"Committee name filter, case-insensitive partial match"`
	Year      string `json:"year,omitempty" jsonschema:"Four-digit meeting year filter"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of documents to return (default: all)"`
}

// archiveQuery echoes the crawl parameters.
type archiveQuery struct {
	Committee string `json:"committee"`
	Year      string `json:"year"`
	Limit     int    `json:"limit"`
}

// archiveResult is the envelope of search_archived_committee_materials.
type archiveResult struct {
	Success        bool                      `json:"success"`
	Query          archiveQuery              `json:"query"`
	TotalDocuments int                       `json:"total_documents"`
	Documents      []scrape.ArchivedDocument `json:"documents"`
}

func (s *Server) registerSearchArchivedCommitteeMaterials() error {
	inputSchema, err := jsonschema.For[SearchArchivedCommitteeMaterialsInput](nil)
	if err != nil {
		return err
	}

	tool := &mcp.Tool{
		Name:        "search_archived_committee_materials",
		Description: "Crawl the Wayback archive of pre-2017 drug advisory committee pages and return meeting documents, filtered by committee name and year. Slow: walks every archived committee-year page.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in SearchArchivedCommitteeMaterialsInput) (*mcp.CallToolResult, any, error) {
		query := archiveQuery{
			Committee: in.Committee,
			Year:      in.Year,
			Limit:     in.Limit,
		}

		scraperCfg := s.cfg.Scraper
		docs, err := scrape.CrawlArchivedMaterials(scrape.ArchiveConfig{
			Parallelism: scraperCfg.Parallelism,
			Delay:       time.Duration(scraperCfg.DelayMs) * time.Millisecond,
			Timeout:     time.Duration(scraperCfg.TimeoutMs) * time.Millisecond,
			Logger:      s.logger,
		})
		if err != nil {
			return failure(err, map[string]any{
				"query":           query,
				"total_documents": 0,
				"documents":       []scrape.ArchivedDocument{},
			}), nil, nil
		}

		filtered := filterArchivedDocuments(docs, in.Committee, in.Year, in.Limit)

		return dataToMCP(archiveResult{
			Success:        true,
			Query:          query,
			TotalDocuments: len(filtered),
			Documents:      filtered,
		}), nil, nil
	})

	return nil
}

// filterArchivedDocuments applies committee substring, exact year, and limit
// filters to crawled documents.
func filterArchivedDocuments(docs []scrape.ArchivedDocument, committee, year string, limit int) []scrape.ArchivedDocument {
	filtered := make([]scrape.ArchivedDocument, 0, len(docs))
	needle := strings.ToLower(committee)
	for _, d := range docs {
		if needle != "" && !strings.Contains(strings.ToLower(d.Committee), needle) {
			continue
		}
		if year != "" && d.Year != year {
			continue
		}
		filtered = append(filtered, d)
		if limit > 0 && len(filtered) >= limit {
			break
		}
	}
	return filtered
}
