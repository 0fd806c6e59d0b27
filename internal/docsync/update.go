package docsync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/formwork-dev/docs-mcp-server/internal/docs"
)

// UpdateOptions selects what Update refreshes
type UpdateOptions struct {
	Version       string
	Force         bool
	Section       string
	CheckVersions bool
}

// Action names what Update ended up doing
type Action string

const (
	ActionFullSync    Action = "full_sync"
	ActionSectionSync Action = "section_sync"
	ActionIncremental Action = "incremental"
	ActionUpToDate    Action = "up_to_date"
)

// UpdateResult describes one Update call
type UpdateResult struct {
	Version string
	Action  Action
	Index   *docs.Index
	Sync    *SyncReport
	Changes []FileChange
	Notes   []string
	Report  string
}

// Update applies the refresh policy:
//  1. with CheckVersions, an unpublished version falls back to DefaultVersion;
//  2. with a Section, force, a missing section or a stale index re-sync the
//     section, otherwise that section's changed files are upserted;
//  3. without a Section, force runs a full sync;
//  4. otherwise an empty or stale index gets a full sync and a fresh one is
//     updated from the change feed.
func (e *Engine) Update(ctx context.Context, opts UpdateOptions) (*UpdateResult, error) {
	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}
	result := &UpdateResult{Version: version}

	if opts.CheckVersions && version != DefaultVersion {
		if !slices.Contains(e.availableVersions(ctx), version) {
			result.Notes = append(result.Notes,
				fmt.Sprintf("Version %q is not available, using %q instead.", version, DefaultVersion))
			version = DefaultVersion
			result.Version = version
		}
	}

	idx := e.store.Load(version)
	stale := e.IsStale(idx)

	if opts.Section != "" {
		return e.updateSection(ctx, result, idx, opts, stale)
	}

	if opts.Force || len(idx.Sections) == 0 || stale {
		synced, report, err := e.SyncAll(ctx, version)
		if err != nil {
			return nil, err
		}
		result.Action = ActionFullSync
		result.Index = synced
		result.Sync = report
		result.Report = e.formatFullSync(result, opts.Force, stale)
		return result, nil
	}

	paths := e.SyncModified(ctx, version, idx.LastUpdated)
	return e.applyChanges(ctx, result, idx, paths, "", idx.LastUpdated)
}

func (e *Engine) updateSection(ctx context.Context, result *UpdateResult, idx *docs.Index, opts UpdateOptions, stale bool) (*UpdateResult, error) {
	category, ok := docs.Categories.ByTitle(opts.Section)
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownSection, opts.Section,
			strings.Join(docs.Categories.Titles(), ", "))
	}

	current, present := idx.Sections[category.Title]
	if opts.Force || !present || stale {
		synced, outcome, err := e.SyncSection(ctx, result.Version, category.Title)
		if err != nil {
			return nil, err
		}
		result.Action = ActionSectionSync
		result.Index = synced
		result.Sync = &SyncReport{Version: result.Version, Categories: []CategoryOutcome{*outcome}}

		var b strings.Builder
		writeNotes(&b, result.Notes)
		fmt.Fprintf(&b, "Section %q re-synced for version %s (%s): %d pages.\n",
			category.Title, result.Version, sectionReason(opts.Force, present, stale), outcome.Pages)
		result.Report = b.String()
		return result, nil
	}

	since := current.SyncedSince(idx.LastUpdated)
	var scoped []string
	for _, p := range e.SyncModified(ctx, result.Version, since) {
		if loc, err := docs.Classify(p); err == nil && loc.Category.Title == category.Title {
			scoped = append(scoped, p)
		}
	}
	return e.applyChanges(ctx, result, idx, scoped, category.Title, since)
}

// applyChanges upserts each changed path into a clone of idx and saves it
// once. A whole-tree pass advances LastUpdated. A section-scoped pass only
// advances that section's LastSynced, since other sections' changes were not
// consumed.
func (e *Engine) applyChanges(ctx context.Context, result *UpdateResult, idx *docs.Index, paths []string, section string, since time.Time) (*UpdateResult, error) {
	result.Action = ActionIncremental
	next := idx.Clone()
	stored := 0

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		change, err := e.applyFile(ctx, next, p, result.Version)
		if errors.Is(err, docs.ErrUnclassifiedPath) {
			continue
		}
		if err != nil {
			change.Err = err
			e.logger.Warn("incremental update failed", "path", p, "error", err)
		}
		if change.Stored {
			stored++
		}
		result.Changes = append(result.Changes, change)
	}

	if stored == 0 {
		result.Action = ActionUpToDate
		result.Index = idx

		var b strings.Builder
		writeNotes(&b, result.Notes)
		scope := "Documentation"
		if section != "" {
			scope = fmt.Sprintf("Section %q", section)
		}
		fmt.Fprintf(&b, "%s for version %s is already up to date (last updated: %s).\n",
			scope, result.Version, since.Format(time.RFC3339))
		writeFailures(&b, result.Changes)
		result.Report = b.String()
		return result, nil
	}

	if section == "" {
		next.LastUpdated = e.now()
	} else {
		next.Section(section).LastSynced = e.now()
	}
	if err := e.store.Save(next); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	result.Index = next

	var b strings.Builder
	writeNotes(&b, result.Notes)
	scope := "documentation"
	if section != "" {
		scope = fmt.Sprintf("section %q", section)
	}
	fmt.Fprintf(&b, "Updated %d file(s) in %s for version %s:\n", stored, scope, result.Version)
	for _, c := range result.Changes {
		if c.Stored {
			fmt.Fprintf(&b, "- %s (%s, %s)\n", c.Path, c.Section, c.Outcome)
		}
	}
	writeFailures(&b, result.Changes)
	result.Report = b.String()
	return result, nil
}

func (e *Engine) availableVersions(ctx context.Context) []string {
	versions, err := e.source.ListVersions(ctx)
	if err != nil || len(versions) == 0 {
		if err != nil {
			e.logger.Warn("version listing unavailable", "error", err)
		}
		return []string{DefaultVersion}
	}
	return versions
}

func (e *Engine) formatFullSync(result *UpdateResult, force, stale bool) string {
	reason := "index was empty"
	switch {
	case force:
		reason = "forced"
	case stale:
		reason = fmt.Sprintf("index older than %d days", int(StalenessThreshold.Hours()/24))
	}

	var b strings.Builder
	writeNotes(&b, result.Notes)
	fmt.Fprintf(&b, "Full sync of version %s completed (%s).\n", result.Version, reason)
	b.WriteString(result.Sync.Summary())
	return b.String()
}

func sectionReason(force, present, stale bool) string {
	switch {
	case force:
		return "forced"
	case !present:
		return "section missing from index"
	case stale:
		return "index stale"
	default:
		return "requested"
	}
}

func writeNotes(b *strings.Builder, notes []string) {
	for _, n := range notes {
		b.WriteString(n)
		b.WriteString("\n")
	}
}

func writeFailures(b *strings.Builder, changes []FileChange) {
	for _, c := range changes {
		if c.Err != nil {
			fmt.Fprintf(b, "- failed: %s (%v)\n", c.Path, c.Err)
		}
	}
}
