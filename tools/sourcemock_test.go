package tools

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/formwork-dev/docs-mcp-server/internal/docs"
)

// mockSource is a simple in-memory ContentSource for testing
type mockSource struct {
	mu      sync.Mutex
	files   map[string]string
	listErr error
	changes []string
	calls   int
}

func newMockSource() *mockSource {
	return &mockSource{
		files: map[string]string{
			"packages/core/docs/01-intro.md":               "# Introduction\n\nFormwork builds typed forms.",
			"packages/core/docs/02-validation.md":          "# Validation\n\nField validation runs on blur. Schema validation uses adapters.",
			"packages/core/docs/field-arrays/01-basics.md": "# Field Arrays\n\nRepeatable groups of fields.",
			"packages/react/docs/01-setup.md":              "# React Setup\n\nInstall @formwork/react and wrap your form.",
			"packages/validators/docs/01-zod.md":           "---\ntitle: Zod\n---\n\nUse the zod adapter for validation.",
		},
	}
}

func (m *mockSource) GetFile(_ context.Context, p, ref string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	content, ok := m.files[p]
	if !ok {
		return "", fmt.Errorf("%s@%s: not found", p, ref)
	}
	return content, nil
}

func (m *mockSource) ListDirectory(_ context.Context, dir, _ string) ([]docs.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}

	seen := map[string]bool{}
	var entries []docs.Entry
	for p := range m.files {
		rest, ok := strings.CutPrefix(p, dir+"/")
		if !ok {
			continue
		}
		name, _, nested := strings.Cut(rest, "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		entryType := docs.EntryFile
		if nested {
			entryType = docs.EntryDir
		}
		entries = append(entries, docs.Entry{Name: name, Path: path.Join(dir, name), Type: entryType})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *mockSource) ListVersions(context.Context) ([]string, error) {
	return []string{"v1.0.0"}, nil
}

func (m *mockSource) ListChangesSince(context.Context, string, time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changes, nil
}

func (m *mockSource) BlobURL(p, ref string) string {
	return "https://github.com/formwork-dev/formwork/blob/" + ref + "/" + p
}

// Calls returns the number of remote calls made so far
func (m *mockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
