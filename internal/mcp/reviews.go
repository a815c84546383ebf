package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fdalabs/fda-drugs-mcp/internal/review"
)

// SearchDrugReviewPDFsInput defines the input schema for search_drug_review_pdfs.
type SearchDrugReviewPDFsInput struct {
	DrugName          string `json:"drug_name,omitempty" jsonschema:"Drug name (brand or generic), case-insensitive partial match"`
	ApplicationNumber string `json:"application_number,omitempty" jsonschema:"FDA application number (BLA/NDA), exact match"`
	SetID             string `json:"set_id,omitempty" jsonschema:"SPL set ID, exact match"`
}

// reviewRow is one match from the curated review index.
type reviewRow struct {
	Year                string `json:"year"`
	BrandName           string `json:"brand_name"`
	GenericName         string `json:"generic_name"`
	ApplicationNumber   string `json:"application_number"`
	SPLSetID            string `json:"spl_set_id"`
	ReviewDocumentURL   string `json:"review_document_url"`
	ReviewDocumentTitle string `json:"review_document_title"`
}

// reviewSearchResult is the envelope of search_drug_review_pdfs.
type reviewSearchResult struct {
	Success      bool              `json:"success"`
	Query        map[string]string `json:"query"`
	TotalResults int               `json:"total_results"`
	Results      []reviewRow       `json:"results"`
}

func (s *Server) registerSearchDrugReviewPDFs() error {
	inputSchema, err := jsonschema.For[SearchDrugReviewPDFsInput](nil)
	if err != nil {
		return err
	}

	tool := &mcp.Tool{
		Name:        "search_drug_review_pdfs",
		Description: "Search the curated drug review index for review PDF URLs by drug name, application number, or set ID. At least one parameter is required.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in SearchDrugReviewPDFsInput) (*mcp.CallToolResult, any, error) {
		query := map[string]string{
			"drug_name":          in.DrugName,
			"application_number": in.ApplicationNumber,
			"set_id":             in.SetID,
		}

		if in.DrugName == "" && in.ApplicationNumber == "" && in.SetID == "" {
			return failure(
				fmt.Errorf("at least one search parameter (drug_name, application_number, or set_id) must be provided"),
				map[string]any{"query": query, "total_results": 0, "results": []reviewRow{}},
			), nil, nil
		}

		matches, err := s.store.Search(review.Query{
			DrugName:          in.DrugName,
			SetID:             in.SetID,
			ApplicationNumber: in.ApplicationNumber,
		})
		if err != nil {
			return failure(err, map[string]any{"query": query, "total_results": 0, "results": []reviewRow{}}), nil, nil
		}

		results := make([]reviewRow, 0, len(matches))
		for _, m := range matches {
			results = append(results, reviewRow{
				Year:                m["Year"],
				BrandName:           m["Brand Name"],
				GenericName:         m["Generic Name"],
				ApplicationNumber:   m["Application Number"],
				SPLSetID:            m["SPL Set ID"],
				ReviewDocumentURL:   m["Review Document URL"],
				ReviewDocumentTitle: m["Review Document Title"],
			})
		}

		return dataToMCP(reviewSearchResult{
			Success:      true,
			Query:        query,
			TotalResults: len(results),
			Results:      results,
		}), nil, nil
	})

	return nil
}

// GetReviewPDFsForSetIDInput defines the input schema for get_review_pdfs_for_set_id.
type GetReviewPDFsForSetIDInput struct {
	SetID  string `json:"set_id" jsonschema:"SPL set ID of the drug label"`
	APIKey string `json:"api_key,omitempty" jsonschema:"OpenFDA API key for this request; overrides every configured key"`
}

// reviewPDFsResult is the envelope of get_review_pdfs_for_set_id.
type reviewPDFsResult struct {
	Success           bool     `json:"success"`
	SetID             string   `json:"set_id"`
	ApplicationNumber string   `json:"application_number"`
	ReviewURL         string   `json:"review_url"`
	PDFURLs           []string `json:"pdf_urls"`
}

func (s *Server) registerGetReviewPDFsForSetID() error {
	inputSchema, err := jsonschema.For[GetReviewPDFsForSetIDInput](nil)
	if err != nil {
		return err
	}

	tool := &mcp.Tool{
		Name:        "get_review_pdfs_for_set_id",
		Description: "Resolve the FDA review documents for a drug by SPL set ID: looks up the Drugs@FDA review entry and scrapes its table-of-contents page for review PDFs.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in GetReviewPDFsForSetIDInput) (*mcp.CallToolResult, any, error) {
		echo := map[string]any{"set_id": in.SetID, "pdf_urls": []string{}}

		client, err := s.clientFor(in.APIKey)
		if err != nil {
			return failure(err, echo), nil, nil
		}
		finder, err := review.NewFinder(client, s.scraper, s.logger)
		if err != nil {
			return failure(err, echo), nil, nil
		}

		result, err := finder.PDFsForSetID(ctx, in.SetID)
		if err != nil {
			return failure(err, echo), nil, nil
		}

		return dataToMCP(reviewPDFsResult{
			Success:           true,
			SetID:             in.SetID,
			ApplicationNumber: result.ApplicationNumber,
			ReviewURL:         result.ReviewURL,
			PDFURLs:           result.PDFURLs,
		}), nil, nil
	})

	return nil
}
