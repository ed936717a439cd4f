// Command mcp-schemacheck runs the MCP tool server for local schema checks.
// Uses stdio transport for integration with AI assistants.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/schemacheck/schemacheck-go/internal/differ"
	"github.com/schemacheck/schemacheck-go/internal/mcpserver"
	"github.com/schemacheck/schemacheck-go/internal/observability"
	"github.com/schemacheck/schemacheck-go/internal/schema"
	"github.com/schemacheck/schemacheck-go/internal/validator"
)

func main() {
	// stdout carries the protocol; logs go to stderr.
	logger := observability.InitLogger(os.Getenv("SCHEMACHECK_LOG_LEVEL"), "json", os.Stderr)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "schemacheck",
		Version: "v1.0.0",
	}, nil)
	mcpserver.RegisterTools(server, mcpserver.Toolkit{
		Bundler:   schema.NewLoader(logger),
		Validator: validator.New(logger),
		Differ:    differ.NewUnified(),
	})

	logger.Info("mcp server starting", "transport", "stdio")
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
	slog.Info("mcp server stopped")
}
