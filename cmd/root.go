// Package cmd provides the CLI commands for the FDA drugs MCP server.
//
// Commands:
//   - serve: start the MCP server (stdio by default, HTTP with --http)
//   - version: show version information
//
// Running the binary without a subcommand is the same as running serve.
// Signal handling and graceful shutdown work via context cancellation.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fda-drugs-mcp",
	Short: "MCP server for FDA drug data",
	Long: `fda-drugs-mcp exposes FDA drug information as MCP tools: openFDA label
and application search, Orange Book patent and exclusivity data, drug review
documents, advisory committee materials, and guidance documents.

Without a subcommand the server starts on stdio transport, ready to be
wired into an MCP client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
