package mcp

import (
	"context"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fdalabs/fda-drugs-mcp/internal/scrape"
)

// SearchGuidanceDocumentsInput defines the input schema for search_guidance_documents.
type SearchGuidanceDocumentsInput struct {
	Center  string `json:"center,omitempty" jsonschema:"FDA center filter, case-insensitive partial match"`
	DocType string `json:"doc_type,omitempty" jsonschema:"Document type filter: Final or Draft"`
	Topic   string `json:"topic,omitempty" jsonschema:"Topic or keyword filter, matched against topics and title"`
}

// guidanceQuery echoes the search parameters.
type guidanceQuery struct {
	Center  string `json:"center"`
	DocType string `json:"doc_type"`
	Topic   string `json:"topic"`
}

// guidanceResult is the envelope of search_guidance_documents.
type guidanceResult struct {
	Success      bool                      `json:"success"`
	Query        guidanceQuery             `json:"query"`
	TotalResults int                       `json:"total_results"`
	Documents    []scrape.GuidanceDocument `json:"documents"`
}

func (s *Server) registerSearchGuidanceDocuments() error {
	inputSchema, err := jsonschema.For[SearchGuidanceDocumentsInput](nil)
	if err != nil {
		return err
	}

	tool := &mcp.Tool{
		Name:        "search_guidance_documents",
		Description: "Search FDA guidance documents, optionally filtered by center, document type (Final/Draft), or topic.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in SearchGuidanceDocumentsInput) (*mcp.CallToolResult, any, error) {
		query := guidanceQuery{Center: in.Center, DocType: in.DocType, Topic: in.Topic}

		docs, err := s.scraper.FetchGuidanceDocuments(ctx)
		if err != nil {
			return failure(err, map[string]any{
				"query":         query,
				"total_results": 0,
				"documents":     []scrape.GuidanceDocument{},
			}), nil, nil
		}

		filtered := filterGuidance(docs, in.Center, in.DocType, in.Topic)

		return dataToMCP(guidanceResult{
			Success:      true,
			Query:        query,
			TotalResults: len(filtered),
			Documents:    filtered,
		}), nil, nil
	})

	return nil
}

// filterGuidance applies the tool's filters: center and topic are
// case-insensitive substrings, doc type is a case-insensitive exact match.
// Topic matches against the topics list and the title.
func filterGuidance(docs []scrape.GuidanceDocument, center, docType, topic string) []scrape.GuidanceDocument {
	center = strings.ToLower(center)
	topic = strings.ToLower(topic)

	filtered := make([]scrape.GuidanceDocument, 0, len(docs))
	for _, d := range docs {
		if center != "" && !strings.Contains(strings.ToLower(d.Center), center) {
			continue
		}
		if docType != "" && !strings.EqualFold(d.Type, docType) {
			continue
		}
		if topic != "" &&
			!strings.Contains(strings.ToLower(d.Topics), topic) &&
			!strings.Contains(strings.ToLower(d.Title), topic) {
			continue
		}
		filtered = append(filtered, d)
	}
	return filtered
}
