package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fdalabs/fda-drugs-mcp/internal/scrape"
)

// defaultProductNo is the Orange Book product number scraped when the
// caller omits one.
const defaultProductNo = "004"

// SearchDrugPatentsInput defines the input schema for search_drug_patents.
type SearchDrugPatentsInput struct {
	ApplicationNumber string `json:"application_number" jsonschema:"FDA NDA application number (e.g. 209637)"`
	ProductNo         string `json:"product_no,omitempty" jsonschema:"Product number (default: 004)"`
}

// patentsResult is the envelope of search_drug_patents.
type patentsResult struct {
	Success           bool                       `json:"success"`
	ApplicationNumber string                     `json:"application_number"`
	ProductNo         string                     `json:"product_no"`
	Patents           []scrape.PatentRecord      `json:"patents"`
	Exclusivities     []scrape.ExclusivityRecord `json:"exclusivities"`
}

func (s *Server) registerSearchDrugPatents() error {
	inputSchema, err := jsonschema.For[SearchDrugPatentsInput](nil)
	if err != nil {
		return err
	}

	tool := &mcp.Tool{
		Name:        "search_drug_patents",
		Description: "Get patent and exclusivity information for an NDA application from the FDA Orange Book. Only NDA applications are listed; BLA numbers come back empty.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in SearchDrugPatentsInput) (*mcp.CallToolResult, any, error) {
		productNo := in.ProductNo
		if productNo == "" {
			productNo = defaultProductNo
		}

		info, err := s.scraper.ScrapePatentInfo(ctx, in.ApplicationNumber, productNo)
		if err != nil {
			return failure(err, map[string]any{
				"application_number": in.ApplicationNumber,
				"product_no":         productNo,
				"patents":            []scrape.PatentRecord{},
				"exclusivities":      []scrape.ExclusivityRecord{},
			}), nil, nil
		}

		return dataToMCP(patentsResult{
			Success:           true,
			ApplicationNumber: info.ApplicationNumber,
			ProductNo:         info.ProductNo,
			Patents:           info.Patents,
			Exclusivities:     info.Exclusivities,
		}), nil, nil
	})

	return nil
}
