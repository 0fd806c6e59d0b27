package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/formwork-dev/docs-mcp-server/internal/config"
	"github.com/formwork-dev/docs-mcp-server/tools"
)

const (
	version     = "0.1.0"
	serverName  = "formwork-docs-mcp"
	description = "MCP server mirroring and searching the Formwork documentation"
)

// CLI holds the server flags
type CLI struct {
	config.Config `embed:""`

	Version kong.VersionFlag `help:"Print version and exit"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name(serverName),
		kong.Description(description),
		kong.Vars{"version": fmt.Sprintf("%s version %s", serverName, version)},
	)

	// Logging goes to stderr (MCP uses stdout for protocol)
	logger, err := config.NewLogger(cli.LogLevel, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Info("starting", "server", serverName, "version", version)

	docs, err := tools.OpenDocs(cli.Config, logger)
	if err != nil {
		logger.Error("failed to initialise documentation", "error", err)
		os.Exit(1)
	}

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil, // Default options
	)
	tools.RegisterDocTools(server, docs)
	logger.Info("server ready", "tools", 4)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run server with stdio transport
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
