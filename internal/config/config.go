// Package config holds the runtime knobs shared by the server and the CLI.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// userDirName is created under the home directory on first start
const userDirName = ".formwork-docs-mcp"

// Config carries the flags both binaries accept. The kong default tags are
// the only source of default values.
type Config struct {
	DataDir           string  `name:"data-dir" env:"FORMWORK_DOCS_DIR" help:"Directory holding the per-version index files (default ~/.formwork-docs-mcp)"`
	Owner             string  `default:"formwork-dev" help:"GitHub owner of the documented repository"`
	Repo              string  `default:"formwork" help:"GitHub repository holding the documentation"`
	Token             string  `env:"GITHUB_TOKEN" help:"GitHub token, raises the API rate limit"`
	APIBaseURL        string  `name:"api-base-url" default:"https://api.github.com" help:"GitHub REST API base URL"`
	Workers           int     `default:"4" help:"Files fetched concurrently per category"`
	RequestsPerSecond float64 `name:"rps" default:"5" help:"GitHub requests per second, 0 disables pacing"`
	LogLevel          string  `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
}

// Validate rejects knob values the engine cannot run with
func (c Config) Validate() error {
	if c.Owner == "" || c.Repo == "" {
		return fmt.Errorf("owner and repo are required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("rps must not be negative, got %g", c.RequestsPerSecond)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ResolveDataDir picks the directory for index files:
//  1. the explicit directory, when given;
//  2. ~/.formwork-docs-mcp, created when missing;
//  3. ./data as a last resort.
//
// The chosen directory is created if possible.
func ResolveDataDir(explicit string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if explicit != "" {
		if err := os.MkdirAll(explicit, 0755); err != nil {
			logger.Warn("could not create data directory", "dir", explicit, "error", err)
		}
		return explicit
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		userDataDir := filepath.Join(homeDir, userDirName)
		if info, err := os.Stat(userDataDir); err == nil && info.IsDir() {
			logger.Debug("data directory", "dir", userDataDir, "source", "user home")
			return userDataDir
		}
		err := os.MkdirAll(userDataDir, 0755)
		if err == nil {
			logger.Info("data directory created", "dir", userDataDir)
			return userDataDir
		}
		logger.Warn("could not create user data directory", "dir", userDataDir, "error", err)
	} else {
		logger.Warn("could not determine user home directory", "error", err)
	}

	dataDir := filepath.Join(".", "data")
	logger.Warn("using fallback data directory", "dir", dataDir)
	_ = os.MkdirAll(dataDir, 0755)
	return dataDir
}

// ParseLevel maps a level name to a slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// NewLogger builds a text logger writing to w. MCP owns stdout, so the
// binaries pass stderr.
func NewLogger(level string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
