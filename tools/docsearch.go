package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/formwork-dev/docs-mcp-server/internal/docsync"
	"github.com/formwork-dev/docs-mcp-server/internal/search"
)

// ListDocsInput defines input for list_docs tool
type ListDocsInput struct {
	Version string `json:"version,omitempty" jsonschema:"Documentation version tag (optional, defaults to latest)"`
}

// ListDocsOutput defines output for list_docs tool
type ListDocsOutput struct {
	Version string `json:"version"`
	Pages   int    `json:"pages"`
}

// SearchDocsInput defines input for search_docs tool
type SearchDocsInput struct {
	Query      string `json:"query" jsonschema:"Free-text search query"`
	Version    string `json:"version,omitempty" jsonschema:"Documentation version tag (optional, defaults to latest)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results, 1 to 50 (optional, defaults to 10)"`
}

// SearchHit is one scored page
type SearchHit struct {
	Title      string `json:"title"`
	Section    string `json:"section"`
	Subsection string `json:"subsection,omitempty"`
	URL        string `json:"url"`
	Score      int    `json:"score"`
	Snippet    string `json:"snippet"`
}

// SearchDocsOutput defines output for search_docs tool
type SearchDocsOutput struct {
	Query     string      `json:"query"`
	TotalHits int         `json:"total_hits"`
	Results   []SearchHit `json:"results,omitempty"`
}

// DocsInfoInput defines input for docs_info tool
type DocsInfoInput struct {
	Version string `json:"version,omitempty" jsonschema:"Documentation version tag (optional, defaults to latest)"`
}

// DocsInfoOutput defines output for docs_info tool
type DocsInfoOutput struct {
	Version     string `json:"version"`
	LastUpdated string `json:"last_updated"`
	Sections    int    `json:"sections"`
	Subsections int    `json:"subsections"`
	Pages       int    `json:"pages"`
}

// UpdateDocsInput defines input for update_docs tool
type UpdateDocsInput struct {
	Version       string `json:"version,omitempty" jsonschema:"Documentation version tag (optional, defaults to latest)"`
	Force         bool   `json:"force,omitempty" jsonschema:"Re-sync even when the index is fresh (optional, defaults to false)"`
	Section       string `json:"section,omitempty" jsonschema:"Only refresh this section, e.g. React (optional)"`
	CheckVersions bool   `json:"check_versions,omitempty" jsonschema:"Fall back to latest when the version is not published (optional, defaults to false)"`
}

// UpdateDocsOutput defines output for update_docs tool
type UpdateDocsOutput struct {
	Version string `json:"version"`
	Action  string `json:"action"`
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
	}
}

// handleListDocs runs a full sync, then outlines the index
func (d *Docs) handleListDocs(ctx context.Context, req *mcp.CallToolRequest, input ListDocsInput) (*mcp.CallToolResult, ListDocsOutput, error) {
	text, err := d.ListDocs(ctx, input.Version)
	if err != nil {
		d.logger.Error("list_docs failed", "error", err)
		return errorResult(err), ListDocsOutput{}, nil
	}
	idx := d.store.Load(versionOrDefault(input.Version))
	return textResult(text), ListDocsOutput{Version: idx.Version, Pages: idx.Stats().Pages}, nil
}

func (d *Docs) handleSearchDocs(ctx context.Context, req *mcp.CallToolRequest, input SearchDocsInput) (*mcp.CallToolResult, SearchDocsOutput, error) {
	text, results, err := d.SearchDocs(ctx, input.Query, input.Version, input.MaxResults)
	if err != nil {
		d.logger.Error("search_docs failed", "query", input.Query, "error", err)
		return errorResult(err), SearchDocsOutput{Query: input.Query}, nil
	}

	output := SearchDocsOutput{Query: input.Query, TotalHits: len(results)}
	for i, r := range results {
		if i == search.Limit(input.MaxResults) {
			break
		}
		output.Results = append(output.Results, SearchHit{
			Title:      r.Page.Title,
			Section:    r.Page.Section,
			Subsection: r.Page.Subsection,
			URL:        r.Page.URL,
			Score:      r.Score,
			Snippet:    r.Snippet,
		})
	}
	return textResult(text), output, nil
}

func (d *Docs) handleDocsInfo(ctx context.Context, req *mcp.CallToolRequest, input DocsInfoInput) (*mcp.CallToolResult, DocsInfoOutput, error) {
	text, stats, idx := d.DocsInfo(ctx, input.Version)
	return textResult(text), DocsInfoOutput{
		Version:     idx.Version,
		LastUpdated: idx.LastUpdated.Format(time.RFC3339),
		Sections:    stats.Sections,
		Subsections: stats.Subsections,
		Pages:       stats.Pages,
	}, nil
}

func (d *Docs) handleUpdateDocs(ctx context.Context, req *mcp.CallToolRequest, input UpdateDocsInput) (*mcp.CallToolResult, UpdateDocsOutput, error) {
	result, err := d.UpdateDocs(ctx, docsync.UpdateOptions{
		Version:       input.Version,
		Force:         input.Force,
		Section:       input.Section,
		CheckVersions: input.CheckVersions,
	})
	if err != nil {
		d.logger.Error("update_docs failed", "section", input.Section, "error", err)
		return errorResult(err), UpdateDocsOutput{}, nil
	}
	return textResult(result.Report), UpdateDocsOutput{Version: result.Version, Action: string(result.Action)}, nil
}

// RegisterDocTools registers the documentation tools on server
func RegisterDocTools(server *mcp.Server, d *Docs) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_docs",
			Description: "Sync the Formwork documentation from GitHub and list every page, grouped by section and subsection, with links.",
		},
		d.handleListDocs,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_docs",
			Description: "Search the cached Formwork documentation. Returns ranked pages with a snippet around the first match.",
		},
		d.handleSearchDocs,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "docs_info",
			Description: "Show the cached documentation version, last update time and section, subsection and page counts.",
		},
		d.handleDocsInfo,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "update_docs",
			Description: "Refresh the documentation cache: full sync when stale (older than 7 days) or forced, otherwise only files changed since the last update.",
		},
		d.handleUpdateDocs,
	)
}
