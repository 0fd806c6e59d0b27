package docsync

import (
	"context"

	"github.com/formwork-dev/docs-mcp-server/internal/docs"
	"github.com/formwork-dev/docs-mcp-server/internal/markdown"
)

// Fetcher turns one remote file into a Page
type Fetcher struct {
	source ContentSource
}

// NewFetcher creates a Fetcher reading from source
func NewFetcher(source ContentSource) *Fetcher {
	return &Fetcher{source: source}
}

// Fetch downloads path at version and normalizes it. It returns a nil page
// when the file has no title or no body text; transport errors are returned
// as is, without retrying here.
func (f *Fetcher) Fetch(ctx context.Context, path, version, section, subsection string) (*docs.Page, error) {
	ref := RefFor(version)
	raw, err := f.source.GetFile(ctx, path, ref)
	if err != nil {
		return nil, err
	}

	title := markdown.ExtractTitle(raw)
	content := markdown.NormalizeBody(raw)
	if title == "" || content == "" {
		return nil, nil
	}

	return &docs.Page{
		Title:       title,
		URL:         f.source.BlobURL(path, ref),
		Content:     content,
		RawContent:  raw,
		Version:     version,
		Section:     section,
		Subsection:  subsection,
		SourcePath:  path,
		ContentHash: docs.HashContent(raw),
	}, nil
}
