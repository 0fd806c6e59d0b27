package main

import (
	"context"
	"fmt"
	"io"

	"github.com/formwork-dev/docs-mcp-server/internal/config"
	"github.com/formwork-dev/docs-mcp-server/internal/docsync"
	"github.com/formwork-dev/docs-mcp-server/tools"
)

// Dependencies holds the facade and writers for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Docs   *tools.Docs
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	config.Config `embed:""`

	List   ListCmd   `cmd:"" help:"Sync every section and print the documentation outline"`
	Search SearchCmd `cmd:"" help:"Search the cached documentation"`
	Info   InfoCmd   `cmd:"" help:"Show what the cache holds"`
	Update UpdateCmd `cmd:"" help:"Refresh the cache (full, section or incremental)"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Tag string `name:"version-tag" help:"Documentation version tag (default latest)"`
}

func (c *ListCmd) Run(deps *Dependencies) error {
	text, err := deps.Docs.ListDocs(deps.Ctx, c.Tag)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(deps.Stdout, text)
	return err
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query      string `arg:"" help:"Free-text query"`
	Tag        string `name:"version-tag" help:"Documentation version tag (default latest)"`
	MaxResults int    `short:"n" default:"10" help:"Maximum number of results (1-50)"`
}

func (c *SearchCmd) Run(deps *Dependencies) error {
	text, _, err := deps.Docs.SearchDocs(deps.Ctx, c.Query, c.Tag, c.MaxResults)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(deps.Stdout, text)
	return err
}

// InfoCmd is the "info" subcommand.
type InfoCmd struct {
	Tag string `name:"version-tag" help:"Documentation version tag (default latest)"`
}

func (c *InfoCmd) Run(deps *Dependencies) error {
	text, _, _ := deps.Docs.DocsInfo(deps.Ctx, c.Tag)
	_, err := fmt.Fprint(deps.Stdout, text)
	return err
}

// UpdateCmd is the "update" subcommand.
type UpdateCmd struct {
	Tag           string `name:"version-tag" help:"Documentation version tag (default latest)"`
	Force         bool   `short:"f" help:"Re-sync even when the cache is fresh"`
	Section       string `short:"s" help:"Only refresh this section, e.g. React"`
	CheckVersions bool   `name:"check-versions" help:"Fall back to latest when the tag is not published"`
}

func (c *UpdateCmd) Run(deps *Dependencies) error {
	result, err := deps.Docs.UpdateDocs(deps.Ctx, docsync.UpdateOptions{
		Version:       c.Tag,
		Force:         c.Force,
		Section:       c.Section,
		CheckVersions: c.CheckVersions,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(deps.Stdout, result.Report)
	return err
}
