package docsync

import (
	"fmt"
	"strings"

	"github.com/formwork-dev/docs-mcp-server/internal/docs"
)

// CategoryStatus is the result of syncing one category
type CategoryStatus string

const (
	StatusOK     CategoryStatus = "ok"
	StatusEmpty  CategoryStatus = "empty"
	StatusFailed CategoryStatus = "failed"
)

// CategoryOutcome records what a sync did to one category
type CategoryOutcome struct {
	Name   string
	Title  string
	Status CategoryStatus
	Pages  int
	Err    error
}

// SyncReport aggregates category outcomes of a full sync. Callers wanting
// strict behaviour can check Count(StatusFailed).
type SyncReport struct {
	Version    string
	Categories []CategoryOutcome
}

// Pages is the number of pages across synced categories
func (r *SyncReport) Pages() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Pages
	}
	return n
}

// Count returns how many categories ended with status
func (r *SyncReport) Count(status CategoryStatus) int {
	n := 0
	for _, c := range r.Categories {
		if c.Status == status {
			n++
		}
	}
	return n
}

// Summary renders one line per category
func (r *SyncReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d categories synced, %d empty, %d failed (%d pages)\n",
		r.Count(StatusOK), r.Count(StatusEmpty), r.Count(StatusFailed), r.Pages())
	for _, c := range r.Categories {
		switch c.Status {
		case StatusFailed:
			fmt.Fprintf(&b, "- %s: failed (%v)\n", c.Title, c.Err)
		default:
			fmt.Fprintf(&b, "- %s: %d pages\n", c.Title, c.Pages)
		}
	}
	return b.String()
}

// FileChange records the outcome of one incremental upsert
type FileChange struct {
	Path    string
	Section string
	Stored  bool
	Outcome docs.UpsertOutcome
	Err     error
}
