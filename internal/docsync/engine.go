package docsync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/formwork-dev/docs-mcp-server/internal/docs"
	"golang.org/x/sync/errgroup"
)

// Engine synchronizes indexes with the content source
type Engine struct {
	source  ContentSource
	store   IndexStore
	fetcher *Fetcher
	now     func() time.Time
	logger  *slog.Logger
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithWorkers bounds concurrent fetches inside a category. One fetches
// files strictly one after another.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine creates an engine
func NewEngine(source ContentSource, store IndexStore, opts ...Option) *Engine {
	e := &Engine{
		source:  source,
		store:   store,
		fetcher: NewFetcher(source),
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load returns the stored index for version
func (e *Engine) Load(version string) *docs.Index {
	return e.store.Load(version)
}

// IsStale reports whether idx is older than StalenessThreshold
func (e *Engine) IsStale(idx *docs.Index) bool {
	return idx.Age(e.now()) > StalenessThreshold
}

// SyncAll rebuilds every category. A category that fails keeps its previous
// contents and is reported as failed; the remaining categories still sync.
func (e *Engine) SyncAll(ctx context.Context, version string) (*docs.Index, *SyncReport, error) {
	start := e.now()
	idx := e.store.Load(version).Clone()
	report := &SyncReport{Version: version}

	for _, category := range docs.Categories.All() {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		section, err := e.buildSection(ctx, category, version)
		outcome := CategoryOutcome{Name: category.Name, Title: category.Title}
		if err != nil {
			outcome.Status = StatusFailed
			outcome.Err = err
			idx.Section(category.Title)
			e.logger.Warn("category sync failed", "category", category.Name, "version", version, "error", err)
		} else {
			idx.Sections[category.Title] = section
			outcome.Pages = section.PageCount()
			outcome.Status = StatusOK
			if outcome.Pages == 0 {
				outcome.Status = StatusEmpty
			}
			e.logger.Debug("category synced", "category", category.Name, "pages", outcome.Pages)
		}
		report.Categories = append(report.Categories, outcome)
	}

	idx.LastUpdated = e.now()
	if err := e.store.Save(idx); err != nil {
		return nil, report, fmt.Errorf("save index: %w", err)
	}

	e.logger.Info("full sync completed",
		"version", version,
		"pages", report.Pages(),
		"failed", report.Count(StatusFailed),
		"duration", e.now().Sub(start),
	)
	return idx, report, nil
}

// SyncSection replaces one section with a fresh walk of its category.
// Errors propagate and leave the stored section untouched.
func (e *Engine) SyncSection(ctx context.Context, version, title string) (*docs.Index, *CategoryOutcome, error) {
	category, ok := docs.Categories.ByTitle(title)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownSection, title)
	}

	started := e.now()
	section, err := e.buildSection(ctx, category, version)
	if err != nil {
		return nil, nil, fmt.Errorf("sync section %s: %w", title, err)
	}
	section.LastSynced = started

	idx := e.store.Load(version).Clone()
	idx.Sections[category.Title] = section
	if err := e.store.Save(idx); err != nil {
		return nil, nil, fmt.Errorf("save index: %w", err)
	}

	outcome := &CategoryOutcome{Name: category.Name, Title: category.Title, Status: StatusOK, Pages: section.PageCount()}
	if outcome.Pages == 0 {
		outcome.Status = StatusEmpty
	}
	e.logger.Info("section synced", "section", title, "version", version, "pages", outcome.Pages)
	return idx, outcome, nil
}

// SyncModified returns the distinct paths changed under the documentation
// tree since the given time. It does not touch the index; a failing change
// feed yields no paths.
func (e *Engine) SyncModified(ctx context.Context, version string, since time.Time) []string {
	paths, err := e.source.ListChangesSince(ctx, RefFor(version), since)
	if err != nil {
		e.logger.Warn("change feed unavailable", "version", version, "since", since, "error", err)
		return nil
	}

	seen := make(map[string]struct{}, len(paths))
	distinct := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		distinct = append(distinct, p)
	}
	return distinct
}

// ApplyModifiedFile re-fetches one path and upserts it into its bucket. It
// reports whether a page was stored. Paths outside the documentation roots
// fail with docs.ErrUnclassifiedPath and leave the index untouched.
func (e *Engine) ApplyModifiedFile(ctx context.Context, path, version string) (bool, error) {
	idx := e.store.Load(version).Clone()
	change, err := e.applyFile(ctx, idx, path, version)
	if err != nil {
		return false, err
	}
	if !change.Stored {
		return false, nil
	}
	if err := e.store.Save(idx); err != nil {
		return false, fmt.Errorf("save index: %w", err)
	}
	return true, nil
}

// applyFile upserts path into idx in memory
func (e *Engine) applyFile(ctx context.Context, idx *docs.Index, path, version string) (FileChange, error) {
	change := FileChange{Path: path}
	loc, err := docs.Classify(path)
	if err != nil {
		return change, fmt.Errorf("%s: %w", path, err)
	}
	change.Section = loc.Category.Title

	page, err := e.fetcher.Fetch(ctx, path, version, loc.Category.Title, loc.Subsection)
	if err != nil {
		return change, fmt.Errorf("fetch %s: %w", path, err)
	}
	if page == nil {
		return change, nil
	}

	change.Stored = true
	change.Outcome = idx.Section(loc.Category.Title).Upsert(*page)
	return change, nil
}

// buildSection walks a category into a fresh section
func (e *Engine) buildSection(ctx context.Context, category docs.Category, version string) (*docs.Section, error) {
	ref := RefFor(version)
	files, err := e.listCategory(ctx, category, ref)
	if err != nil {
		return nil, err
	}

	pages := make([]*docs.Page, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, file := range files {
		loc, err := docs.Classify(file.Path)
		if err != nil {
			e.logger.Debug("skipping unclassified file", "path", file.Path)
			continue
		}
		g.Go(func() error {
			page, err := e.fetcher.Fetch(gctx, file.Path, version, category.Title, loc.Subsection)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", file.Path, err)
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	section := docs.NewSection(category.Title)
	for _, page := range pages {
		if page != nil {
			section.Upsert(*page)
		}
	}
	return section, nil
}

// listCategory returns the markdown files of a category root and of its
// direct subdirectories, each directory sorted by file name.
func (e *Engine) listCategory(ctx context.Context, category docs.Category, ref string) ([]docs.Entry, error) {
	entries, err := e.source.ListDirectory(ctx, category.Root(), ref)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", category.Root(), err)
	}
	sortEntries(entries)

	var files []docs.Entry
	for _, entry := range entries {
		switch entry.Type {
		case docs.EntryDir:
			children, err := e.source.ListDirectory(ctx, entry.Path, ref)
			if err != nil {
				return nil, fmt.Errorf("list %s: %w", entry.Path, err)
			}
			sortEntries(children)
			for _, child := range children {
				if child.Type == docs.EntryFile && docs.IsMarkdown(child.Name) {
					files = append(files, child)
				}
			}
		case docs.EntryFile:
			if docs.IsMarkdown(entry.Name) {
				files = append(files, entry)
			}
		}
	}
	return files, nil
}

func sortEntries(entries []docs.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
}
