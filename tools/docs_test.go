package tools

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwork-dev/docs-mcp-server/internal/docsync"
	"github.com/formwork-dev/docs-mcp-server/internal/store"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func newTestDocs(t *testing.T, src *mockSource) (*Docs, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir(), store.WithClock(testClock))
	require.NoError(t, err)
	engine := docsync.NewEngine(src, st, docsync.WithClock(testClock))
	return NewDocs(engine, st, WithDocsClock(testClock)), st
}

func TestListDocsOutline(t *testing.T) {
	d, _ := newTestDocs(t, newMockSource())

	text, err := d.ListDocs(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "# Formwork documentation (version latest)"))
	assert.Contains(t, text, "## Core\n- [Introduction](https://github.com/formwork-dev/formwork/blob/main/packages/core/docs/01-intro.md)")
	assert.Contains(t, text, "### Field Arrays\n- [Field Arrays]")
	assert.Contains(t, text, "## Validation Adapters\n- [Zod]")
	assert.NotContains(t, text, "## Vue", "empty sections are not listed")

	// sections appear in category order
	assert.Less(t, strings.Index(text, "## Core"), strings.Index(text, "## React"))
	assert.Less(t, strings.Index(text, "## React"), strings.Index(text, "## Validation Adapters"))
}

func TestListDocsReportsFailedCategories(t *testing.T) {
	src := newMockSource()
	src.listErr = errors.New("github unavailable")
	d, _ := newTestDocs(t, src)

	text, err := d.ListDocs(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, text, "No documentation pages are available")
	assert.Contains(t, text, "8 categories could not be synced")
}

func TestSearchDocsSyncsEmptyIndexOnce(t *testing.T) {
	src := newMockSource()
	d, st := newTestDocs(t, src)

	text, results, err := d.SearchDocs(context.Background(), "validation", "", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Validation", results[0].Page.Title)
	assert.Equal(t, 13, results[0].Score)
	assert.Equal(t, "Zod", results[1].Page.Title)
	assert.Contains(t, text, `Found 2 result(s) for "validation"`)
	assert.NotEmpty(t, st.Load("latest").Sections)

	calls := src.Calls()
	_, _, err = d.SearchDocs(context.Background(), "forms", "", 0)
	require.NoError(t, err)
	assert.Equal(t, calls, src.Calls(), "populated index is searched without syncing")
}

func TestSearchDocsNoResults(t *testing.T) {
	d, _ := newTestDocs(t, newMockSource())

	text, results, err := d.SearchDocs(context.Background(), "kubernetes", "", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, `No results found for "kubernetes".`, text)
}

func TestSearchDocsRejectsEmptyQuery(t *testing.T) {
	d, _ := newTestDocs(t, newMockSource())
	_, _, err := d.SearchDocs(context.Background(), "  ", "", 0)
	assert.Error(t, err)
}

func TestSearchDocsConcurrentFirstUse(t *testing.T) {
	src := newMockSource()
	d, _ := newTestDocs(t, src)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results, err := d.SearchDocs(context.Background(), "validation", "", 0)
			assert.NoError(t, err)
			assert.Len(t, results, 2)
		}()
	}
	wg.Wait()

	// one full sync: 8 category roots, one subdirectory, five files
	assert.Equal(t, 14, src.Calls())
}

func TestDocsInfo(t *testing.T) {
	d, _ := newTestDocs(t, newMockSource())

	text, stats, _ := d.DocsInfo(context.Background(), "")
	assert.Equal(t, 0, stats.Sections)
	assert.Contains(t, text, "The index is empty")

	_, err := d.ListDocs(context.Background(), "")
	require.NoError(t, err)

	text, stats, idx := d.DocsInfo(context.Background(), "")
	assert.Equal(t, 8, stats.Sections)
	assert.Equal(t, 1, stats.Subsections)
	assert.Equal(t, 5, stats.Pages)
	assert.Equal(t, "latest", idx.Version)
	assert.Contains(t, text, "Documentation version: latest\n")
	assert.Contains(t, text, "Last updated: 2026-10-15T12:00:00Z")
	assert.Contains(t, text, "Pages: 5\n")
	assert.NotContains(t, text, "older than")
}

func TestUpdateDocs(t *testing.T) {
	src := newMockSource()
	d, _ := newTestDocs(t, src)

	result, err := d.UpdateDocs(context.Background(), docsync.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, docsync.ActionFullSync, result.Action)
	assert.Contains(t, result.Report, "index was empty")

	result, err = d.UpdateDocs(context.Background(), docsync.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, docsync.ActionUpToDate, result.Action)

	_, err = d.UpdateDocs(context.Background(), docsync.UpdateOptions{Section: "Ember"})
	assert.ErrorIs(t, err, docsync.ErrUnknownSection)
}
