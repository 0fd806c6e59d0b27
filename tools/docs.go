package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/formwork-dev/docs-mcp-server/internal/docs"
	"github.com/formwork-dev/docs-mcp-server/internal/docsync"
	"github.com/formwork-dev/docs-mcp-server/internal/search"
)

// Docs composes the sync engine and search into the four documentation
// operations. Writers (list, update, first search) are serialised by
// refreshMu; reads of an already populated index are not.
type Docs struct {
	engine *docsync.Engine
	store  docsync.IndexStore
	logger *slog.Logger
	now    func() time.Time

	// refreshMu prevents concurrent syncs of the same process
	refreshMu sync.Mutex
}

// DocsOption configures Docs
type DocsOption func(*Docs)

// WithDocsLogger sets the facade logger
func WithDocsLogger(logger *slog.Logger) DocsOption {
	return func(d *Docs) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDocsClock overrides time.Now
func WithDocsClock(now func() time.Time) DocsOption {
	return func(d *Docs) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDocs returns the facade over engine and store. The engine must have
// been built over the same store.
func NewDocs(engine *docsync.Engine, store docsync.IndexStore, opts ...DocsOption) *Docs {
	d := &Docs{
		engine: engine,
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func versionOrDefault(version string) string {
	if version == "" {
		return docsync.DefaultVersion
	}
	return version
}

// ListDocs runs a full sync and returns the outline of the refreshed index
func (d *Docs) ListDocs(ctx context.Context, version string) (string, error) {
	version = versionOrDefault(version)

	d.refreshMu.Lock()
	idx, report, err := d.engine.SyncAll(ctx, version)
	d.refreshMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("sync documentation %s: %w", version, err)
	}

	var b strings.Builder
	b.WriteString(Outline(idx))
	if failed := report.Count(docsync.StatusFailed); failed > 0 {
		fmt.Fprintf(&b, "\n%d categories could not be synced and show their previous contents:\n", failed)
		for _, c := range report.Categories {
			if c.Status == docsync.StatusFailed {
				fmt.Fprintf(&b, "- %s: %v\n", c.Title, c.Err)
			}
		}
	}
	return b.String(), nil
}

// Outline renders idx as markdown: a heading per section and subsection,
// a link per page
func Outline(idx *docs.Index) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Formwork documentation (version %s)\n", idx.Version)

	listed := 0
	for _, title := range idx.SectionTitles() {
		section := idx.Sections[title]
		if section.PageCount() == 0 {
			continue
		}
		listed++
		fmt.Fprintf(&b, "\n## %s\n", title)
		for _, p := range section.Pages {
			fmt.Fprintf(&b, "- [%s](%s)\n", p.Title, p.URL)
		}
		for _, name := range section.SubsectionNames() {
			fmt.Fprintf(&b, "\n### %s\n", name)
			for _, p := range section.Subsections[name] {
				fmt.Fprintf(&b, "- [%s](%s)\n", p.Title, p.URL)
			}
		}
	}
	if listed == 0 {
		b.WriteString("\nNo documentation pages are available for this version.\n")
	}
	return b.String()
}

// SearchDocs searches the stored index, running a full sync first when the
// index has never been populated
func (d *Docs) SearchDocs(ctx context.Context, query, version string, maxResults int) (string, []search.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil, fmt.Errorf("query must not be empty")
	}

	idx, err := d.populated(ctx, versionOrDefault(version))
	if err != nil {
		return "", nil, err
	}

	results := search.Search(idx, query)
	d.logger.Debug("search", "query", query, "version", idx.Version, "hits", len(results))
	return search.Format(query, results, maxResults), results, nil
}

func (d *Docs) populated(ctx context.Context, version string) (*docs.Index, error) {
	if idx := d.store.Load(version); len(idx.Sections) > 0 {
		return idx, nil
	}

	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	// another writer may have synced while we waited
	if idx := d.store.Load(version); len(idx.Sections) > 0 {
		return idx, nil
	}
	d.logger.Info("index empty, running full sync", "version", version)
	idx, _, err := d.engine.SyncAll(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("sync documentation %s: %w", version, err)
	}
	return idx, nil
}

// DocsInfo describes the stored index without touching the remote
func (d *Docs) DocsInfo(_ context.Context, version string) (string, docs.Stats, *docs.Index) {
	idx := d.store.Load(versionOrDefault(version))
	stats := idx.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "Documentation version: %s\n", idx.Version)
	fmt.Fprintf(&b, "Last updated: %s (%s ago)\n",
		idx.LastUpdated.Format(time.RFC3339), idx.Age(d.now()).Round(time.Minute))
	fmt.Fprintf(&b, "Sections: %d\n", stats.Sections)
	fmt.Fprintf(&b, "Subsections: %d\n", stats.Subsections)
	fmt.Fprintf(&b, "Pages: %d\n", stats.Pages)
	switch {
	case stats.Sections == 0:
		b.WriteString("The index is empty; run update_docs or list_docs to populate it.\n")
	case d.engine.IsStale(idx):
		fmt.Fprintf(&b, "The index is older than %d days and will be fully re-synced on the next update.\n",
			int(docsync.StalenessThreshold.Hours()/24))
	}
	return b.String(), stats, idx
}

// UpdateDocs runs the refresh policy and returns its narrative report
func (d *Docs) UpdateDocs(ctx context.Context, opts docsync.UpdateOptions) (*docsync.UpdateResult, error) {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	start := d.now()
	result, err := d.engine.Update(ctx, opts)
	if err != nil {
		return nil, err
	}
	d.logger.Info("documentation updated",
		"version", result.Version,
		"action", string(result.Action),
		"duration", d.now().Sub(start).Round(time.Millisecond))
	return result, nil
}
