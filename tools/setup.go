package tools

import (
	"fmt"
	"log/slog"

	"github.com/formwork-dev/docs-mcp-server/internal/config"
	"github.com/formwork-dev/docs-mcp-server/internal/docsync"
	"github.com/formwork-dev/docs-mcp-server/internal/github"
	"github.com/formwork-dev/docs-mcp-server/internal/store"
)

// OpenDocs wires the GitHub client, index store and sync engine described
// by cfg into a Docs facade
func OpenDocs(cfg config.Config, logger *slog.Logger) (*Docs, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := config.ResolveDataDir(cfg.DataDir, logger)
	st, err := store.New(dataDir, store.WithLogger(logger.With("component", "store")))
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}

	clientOpts := []github.Option{
		github.WithToken(cfg.Token),
		github.WithRateLimit(cfg.RequestsPerSecond),
		github.WithLogger(logger.With("component", "github")),
	}
	if cfg.APIBaseURL != "" {
		clientOpts = append(clientOpts, github.WithBaseURL(cfg.APIBaseURL))
	}
	client := github.NewClient(cfg.Owner, cfg.Repo, clientOpts...)

	engine := docsync.NewEngine(client, st,
		docsync.WithWorkers(cfg.Workers),
		docsync.WithLogger(logger.With("component", "sync")),
	)

	logger.Info("documentation source",
		"repo", cfg.Owner+"/"+cfg.Repo,
		"data_dir", dataDir,
		"authenticated", cfg.Token != "")
	return NewDocs(engine, st, WithDocsLogger(logger)), nil
}
