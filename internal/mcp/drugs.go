package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fdalabs/fda-drugs-mcp/internal/config"
	"github.com/fdalabs/fda-drugs-mcp/internal/drug"
)

// defaultSimilarLimit caps search_similar_drugs results.
const defaultSimilarLimit = 20

// SearchDrugByNameInput defines the input schema for search_drug_by_name.
type SearchDrugByNameInput struct {
	DrugName        string `json:"drug_name" jsonschema:"Brand or generic name to search for"`
	Limit           int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return (default: 50)"`
	IncludeGenerics bool   `json:"include_generics,omitempty" jsonschema:"Whether to include ANDA generics (default: false - BLA/NDA only)"`
	APIKey          string `json:"api_key,omitempty" jsonschema:"OpenFDA API key for this request; overrides every configured key"`
}

// searchMetadata echoes the effective search options.
type searchMetadata struct {
	IncludeGenerics bool `json:"include_generics"`
	Limit           int  `json:"limit"`
}

// searchResult is the envelope of both drug search tools.
type searchResult struct {
	Success      bool           `json:"success"`
	Query        string         `json:"query"`
	TotalResults int            `json:"total_results"`
	Drugs        []drug.Record  `json:"drugs"`
	Metadata     searchMetadata `json:"metadata"`
}

func (s *Server) registerSearchDrugByName() error {
	inputSchema, err := jsonschema.For[SearchDrugByNameInput](nil)
	if err != nil {
		return err
	}

	tool := &mcp.Tool{
		Name:        "search_drug_by_name",
		Description: "Search for FDA-approved drugs by brand or generic name. Returns deduplicated drug records with label highlights and DailyMed links.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in SearchDrugByNameInput) (*mcp.CallToolResult, any, error) {
		limit := in.Limit
		if limit <= 0 {
			limit = config.DefaultSearchLimit
		}

		client, err := s.clientFor(in.APIKey)
		if err != nil {
			return failure(err, map[string]any{"query": in.DrugName}), nil, nil
		}

		raw, err := client.SearchByName(ctx, in.DrugName, limit, in.IncludeGenerics)
		if err != nil {
			return failure(err, map[string]any{"query": in.DrugName}), nil, nil
		}

		drugs := drug.ProcessSearchResults(raw)
		return dataToMCP(searchResult{
			Success:      true,
			Query:        in.DrugName,
			TotalResults: len(drugs),
			Drugs:        drugs,
			Metadata:     searchMetadata{IncludeGenerics: in.IncludeGenerics, Limit: limit},
		}), nil, nil
	})

	return nil
}

// SearchDrugByIndicationInput defines the input schema for search_drug_by_indication.
type SearchDrugByIndicationInput struct {
	Indication      string `json:"indication" jsonschema:"Medical condition or indication to search for"`
	Limit           int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return (default: 50)"`
	IncludeGenerics bool   `json:"include_generics,omitempty" jsonschema:"Whether to include ANDA generics (default: false - BLA/NDA only)"`
	APIKey          string `json:"api_key,omitempty" jsonschema:"OpenFDA API key for this request; overrides every configured key"`
}

func (s *Server) registerSearchDrugByIndication() error {
	inputSchema, err := jsonschema.For[SearchDrugByIndicationInput](nil)
	if err != nil {
		return err
	}

	tool := &mcp.Tool{
		Name:        "search_drug_by_indication",
		Description: "Search for FDA-approved drugs by medical indication or condition, matching the indications and usage label section.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in SearchDrugByIndicationInput) (*mcp.CallToolResult, any, error) {
		limit := in.Limit
		if limit <= 0 {
			limit = config.DefaultSearchLimit
		}

		client, err := s.clientFor(in.APIKey)
		if err != nil {
			return failure(err, map[string]any{"query": in.Indication}), nil, nil
		}

		raw, err := client.SearchByIndication(ctx, in.Indication, limit, in.IncludeGenerics)
		if err != nil {
			return failure(err, map[string]any{"query": in.Indication}), nil, nil
		}

		drugs := drug.ProcessSearchResults(raw)
		return dataToMCP(searchResult{
			Success:      true,
			Query:        in.Indication,
			TotalResults: len(drugs),
			Drugs:        drugs,
			Metadata:     searchMetadata{IncludeGenerics: in.IncludeGenerics, Limit: limit},
		}), nil, nil
	})

	return nil
}

// GetDrugDetailsInput defines the input schema for get_drug_details.
type GetDrugDetailsInput struct {
	SetID  string `json:"set_id" jsonschema:"The SPL set ID of the drug label"`
	APIKey string `json:"api_key,omitempty" jsonschema:"OpenFDA API key for this request; overrides every configured key"`
}

// drugDetailsResult is the envelope of get_drug_details.
type drugDetailsResult struct {
	Success       bool               `json:"success"`
	SetID         string             `json:"set_id"`
	Drug          drug.Details       `json:"drug"`
	DosageSummary drug.DosageDetails `json:"dosage_summary"`
}

func (s *Server) registerGetDrugDetails() error {
	inputSchema, err := jsonschema.For[GetDrugDetailsInput](nil)
	if err != nil {
		return err
	}

	tool := &mcp.Tool{
		Name:        "get_drug_details",
		Description: "Get comprehensive label details for a drug by SPL set ID: full clinical sections, special populations, boxed warning and clinical trial identifiers.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in GetDrugDetailsInput) (*mcp.CallToolResult, any, error) {
		client, err := s.clientFor(in.APIKey)
		if err != nil {
			return failure(err, map[string]any{"set_id": in.SetID}), nil, nil
		}

		raw, err := client.DrugBySetID(ctx, in.SetID)
		if err != nil {
			return failure(err, map[string]any{"set_id": in.SetID}), nil, nil
		}

		details := drug.ProcessDetails(raw)
		name := details.BrandName
		if name == "" {
			name = details.GenericName
		}

		return dataToMCP(drugDetailsResult{
			Success:       true,
			SetID:         in.SetID,
			Drug:          details,
			DosageSummary: drug.ExtractDosageDetails(name, details.DosageAndAdministration),
		}), nil, nil
	})

	return nil
}

// SearchSimilarDrugsInput defines the input schema for search_similar_drugs.
type SearchSimilarDrugsInput struct {
	ReferenceDrug  string `json:"reference_drug" jsonschema:"Name of the reference drug"`
	SimilarityType string `json:"similarity_type,omitempty" jsonschema:"Type of similarity: mechanism or indication (default: mechanism)"`
	Limit          int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return (default: 20)"`
	APIKey         string `json:"api_key,omitempty" jsonschema:"OpenFDA API key for this request; overrides every configured key"`
}

// similarDrugsResult is the envelope of search_similar_drugs.
type similarDrugsResult struct {
	Success        bool          `json:"success"`
	ReferenceDrug  string        `json:"reference_drug"`
	SimilarityType string        `json:"similarity_type"`
	TotalResults   int           `json:"total_results"`
	SimilarDrugs   []drug.Record `json:"similar_drugs"`
}

func (s *Server) registerSearchSimilarDrugs() error {
	inputSchema, err := jsonschema.For[SearchSimilarDrugsInput](nil)
	if err != nil {
		return err
	}

	tool := &mcp.Tool{
		Name:        "search_similar_drugs",
		Description: "Find drugs similar to a reference drug by mechanism of action or by indication.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in SearchSimilarDrugsInput) (*mcp.CallToolResult, any, error) {
		similarityType := in.SimilarityType
		if similarityType == "" {
			similarityType = "mechanism"
		}
		limit := in.Limit
		if limit <= 0 {
			limit = defaultSimilarLimit
		}
		echo := map[string]any{"reference_drug": in.ReferenceDrug}

		client, err := s.clientFor(in.APIKey)
		if err != nil {
			return failure(err, echo), nil, nil
		}

		references, err := client.SearchByName(ctx, in.ReferenceDrug, 1, false)
		if err != nil {
			return failure(err, echo), nil, nil
		}
		if len(references) == 0 {
			return failure(fmt.Errorf("reference drug %q not found", in.ReferenceDrug), echo), nil, nil
		}

		raw, err := client.FindSimilar(ctx, references[0], similarityType, limit)
		if err != nil {
			return failure(err, echo), nil, nil
		}

		drugs := drug.ProcessSearchResults(raw)
		return dataToMCP(similarDrugsResult{
			Success:        true,
			ReferenceDrug:  in.ReferenceDrug,
			SimilarityType: similarityType,
			TotalResults:   len(drugs),
			SimilarDrugs:   drugs,
		}), nil, nil
	})

	return nil
}

// GetDrugApplicationHistoryInput defines the input schema for get_drug_application_history.
type GetDrugApplicationHistoryInput struct {
	ApplicationNumber string `json:"application_number" jsonschema:"FDA application number (BLA, NDA, or ANDA)"`
	APIKey            string `json:"api_key,omitempty" jsonschema:"OpenFDA API key for this request; overrides every configured key"`
}

// applicationHistoryResult is the envelope of get_drug_application_history.
type applicationHistoryResult struct {
	Success           bool                    `json:"success"`
	ApplicationNumber string                  `json:"application_number"`
	History           drug.ApplicationHistory `json:"history"`
}

func (s *Server) registerGetDrugApplicationHistory() error {
	inputSchema, err := jsonschema.For[GetDrugApplicationHistoryInput](nil)
	if err != nil {
		return err
	}

	tool := &mcp.Tool{
		Name:        "get_drug_application_history",
		Description: "Get the Drugs@FDA application record for an application number: sponsor, products and regulatory submissions.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in GetDrugApplicationHistoryInput) (*mcp.CallToolResult, any, error) {
		echo := map[string]any{"application_number": in.ApplicationNumber}

		client, err := s.clientFor(in.APIKey)
		if err != nil {
			return failure(err, echo), nil, nil
		}

		raw, err := client.ApplicationHistory(ctx, in.ApplicationNumber)
		if err != nil {
			return failure(err, echo), nil, nil
		}

		return dataToMCP(applicationHistoryResult{
			Success:           true,
			ApplicationNumber: in.ApplicationNumber,
			History:           drug.ProcessApplicationHistory(raw),
		}), nil, nil
	})

	return nil
}
