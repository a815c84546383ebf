package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fdalabs/fda-drugs-mcp/api"
	"github.com/fdalabs/fda-drugs-mcp/internal/config"
	"github.com/fdalabs/fda-drugs-mcp/internal/log"
	"github.com/fdalabs/fda-drugs-mcp/internal/mcp"
	"github.com/fdalabs/fda-drugs-mcp/internal/review"
	"github.com/fdalabs/fda-drugs-mcp/internal/scrape"
	mcpSDK "github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	serveHTTP   bool
	serveAddr   string
	serveAPIKey string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server on stdio transport. With --http the server
listens on an HTTP address instead, using the MCP streamable HTTP
transport behind health endpoints, CORS, and per-IP rate limiting.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "serve over HTTP instead of stdio")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (host:port, implies --http)")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "openFDA API key (overrides env and config file)")
	rootCmd.AddCommand(serveCmd)

	// The bare binary runs serve, so serve's flags work on the root too.
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if serveAPIKey != "" {
		config.SetRuntimeAPIKey(serveAPIKey)
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scraper, err := scrape.New(scrape.Config{
		Timeout: cfg.ScrapeTimeout(),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("creating scraper: %w", err)
	}

	store := review.NewStore(cfg.ReviewCSVPath, logger)

	server, err := mcp.NewServer(mcp.Config{
		Name:      "fda-drugs-mcp",
		Version:   Version,
		AppConfig: cfg,
		Scraper:   scraper,
		Store:     store,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	if serveHTTP || serveAddr != "" || cfg.Transport == config.TransportHTTP {
		return runHTTP(ctx, cfg, server, logger)
	}

	logger.Info("MCP server ready", "version", Version, "transport", "stdio")
	if err := server.Run(ctx, &mcpSDK.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server: %w", err)
	}
	logger.Info("MCP server shut down")
	return nil
}

// runHTTP serves the MCP streamable HTTP transport.
func runHTTP(ctx context.Context, cfg *config.Config, server *mcp.Server, logger log.Logger) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.Addr
	}
	if addr == "" {
		addr = api.DefaultAddr
	}
	if err := validateAddr(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	httpServer, err := api.NewServer(api.Config{
		Name:        "fda-drugs-mcp",
		Version:     Version,
		MCPHandler:  server.StreamableHTTPHandler(),
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP server: %w", err)
	}

	logger.Info("MCP server ready", "version", Version, "transport", "http", "addr", addr)
	return httpServer.Run(ctx, addr)
}
