// Package mcp exposes the FDA drug tools over the Model Context Protocol.
//
// Handlers run inline and return every outcome, including failures, as a
// JSON envelope {success, error?, ...} in text content. Protocol errors are
// reserved for transport problems; a failed FDA call or scrape is a
// success:false envelope the client can read.
package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"

	"github.com/fdalabs/fda-drugs-mcp/internal/config"
	"github.com/fdalabs/fda-drugs-mcp/internal/fda"
	"github.com/fdalabs/fda-drugs-mcp/internal/log"
	"github.com/fdalabs/fda-drugs-mcp/internal/review"
	"github.com/fdalabs/fda-drugs-mcp/internal/scrape"
)

// Server wraps the MCP SDK server and the FDA data dependencies.
type Server struct {
	mcpServer *mcp.Server
	cfg       *config.Config
	scraper   *scrape.Scraper
	store     *review.Store
	limiter   *rate.Limiter
	http      *http.Client
	logger    log.Logger
	name      string
	version   string
}

// Config holds MCP server configuration.
type Config struct {
	Name      string
	Version   string
	AppConfig *config.Config
	Scraper   *scrape.Scraper
	Store     *review.Store
	Logger    log.Logger
}

// NewServer creates the MCP server and registers all tools.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}
	if cfg.Scraper == nil {
		return nil, fmt.Errorf("scraper is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("review store is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		cfg:       cfg.AppConfig,
		scraper:   cfg.Scraper,
		store:     cfg.Store,
		// One limiter for every per-call client keeps the OpenFDA throttle
		// process-wide.
		limiter: rate.NewLimiter(rate.Every(cfg.AppConfig.RateLimitInterval()), 1),
		http:    &http.Client{Timeout: cfg.AppConfig.APITimeout()},
		logger:  cfg.Logger,
		name:    cfg.Name,
		version: cfg.Version,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Run starts the MCP server on the given transport.
// This is a blocking call that handles all MCP protocol communication.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// StreamableHTTPHandler returns the HTTP handler serving the MCP streamable
// transport, for mounting into the api server.
func (s *Server) StreamableHTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// clientFor builds an OpenFDA client carrying the effective API key for one
// tool call. Clients share the server's limiter and HTTP client.
func (s *Server) clientFor(perRequestKey string) (*fda.Client, error) {
	return fda.NewClient(fda.Config{
		Endpoints:  s.cfg.Endpoints(),
		APIKey:     s.cfg.ResolveAPIKey(perRequestKey),
		MaxLimit:   s.cfg.MaxLimit,
		Logger:     s.logger,
		HTTPClient: s.http,
		Limiter:    s.limiter,
	})
}

// registerTools registers every tool on the MCP server.
func (s *Server) registerTools() error {
	registrations := []struct {
		name string
		fn   func() error
	}{
		{"search_drug_by_name", s.registerSearchDrugByName},
		{"search_drug_by_indication", s.registerSearchDrugByIndication},
		{"get_drug_details", s.registerGetDrugDetails},
		{"search_similar_drugs", s.registerSearchSimilarDrugs},
		{"get_drug_application_history", s.registerGetDrugApplicationHistory},
		{"search_drug_patents", s.registerSearchDrugPatents},
		{"search_drug_review_pdfs", s.registerSearchDrugReviewPDFs},
		{"get_review_pdfs_for_set_id", s.registerGetReviewPDFsForSetID},
		{"search_advisory_committee_materials", s.registerSearchAdvisoryCommitteeMaterials},
		{"search_archived_committee_materials", s.registerSearchArchivedCommitteeMaterials},
		{"search_guidance_documents", s.registerSearchGuidanceDocuments},
	}

	for _, r := range registrations {
		if err := r.fn(); err != nil {
			return fmt.Errorf("failed to register %s: %w", r.name, err)
		}
	}
	return nil
}
