// Package docsync mirrors remote markdown documentation into the versioned
// index: full syncs, single-section syncs and change-driven upserts.
package docsync

import (
	"context"
	"errors"
	"time"

	"github.com/formwork-dev/docs-mcp-server/internal/docs"
)

const (
	// DefaultVersion is the version tag used when none is requested
	DefaultVersion = "latest"

	// DefaultRef is the branch DefaultVersion resolves to
	DefaultRef = "main"

	// StalenessThreshold is the index age past which a full sync replaces
	// incremental updates
	StalenessThreshold = 7 * 24 * time.Hour

	// DefaultWorkers bounds concurrent file fetches within one category
	DefaultWorkers = 4
)

// ErrUnknownSection is returned when a section title is not in the category table
var ErrUnknownSection = errors.New("unknown documentation section")

// ContentSource reads a remote versioned tree
type ContentSource interface {
	// GetFile returns the raw text of path at ref
	GetFile(ctx context.Context, path, ref string) (string, error)

	// ListDirectory lists the entries directly under path at ref
	ListDirectory(ctx context.Context, path, ref string) ([]docs.Entry, error)

	// ListVersions returns the published version tags
	ListVersions(ctx context.Context) ([]string, error)

	// ListChangesSince returns the paths changed on ref after since
	ListChangesSince(ctx context.Context, ref string, since time.Time) ([]string, error)

	// BlobURL is the canonical link to path at ref
	BlobURL(path, ref string) string
}

// IndexStore loads and persists indexes
type IndexStore interface {
	Load(version string) *docs.Index
	Save(idx *docs.Index) error
}

// RefFor resolves a version tag to the git ref holding it
func RefFor(version string) string {
	if version == "" || version == DefaultVersion {
		return DefaultRef
	}
	return version
}
