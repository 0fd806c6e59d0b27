package docsync_test

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/formwork-dev/docs-mcp-server/internal/docs"
)

// fakeSource is an in-memory remote tree. Files are keyed by path; the
// directory structure is derived from the keys.
type fakeSource struct {
	mu          sync.Mutex
	files       map[string]string
	fileErrs    map[string]error
	listErrs    map[string]error
	changes     []string
	changesAt   time.Time // when set, changes are hidden from queries at or after it
	changesErr  error
	versions    []string
	versionsErr error
	sinceSeen   []time.Time
	fetches     []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		files:    map[string]string{},
		fileErrs: map[string]error{},
		listErrs: map[string]error{},
	}
}

func (f *fakeSource) put(p, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[p] = content
}

func (f *fakeSource) GetFile(_ context.Context, p, ref string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, p)
	if err, ok := f.fileErrs[p]; ok {
		return "", err
	}
	content, ok := f.files[p]
	if !ok {
		return "", fmt.Errorf("not found: %s@%s", p, ref)
	}
	return content, nil
}

func (f *fakeSource) ListDirectory(_ context.Context, dir, _ string) ([]docs.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.listErrs[dir]; ok {
		return nil, err
	}

	seen := map[string]bool{}
	var entries []docs.Entry
	prefix := dir + "/"
	for p := range f.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		name, _, nested := strings.Cut(rest, "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		entry := docs.Entry{Name: name, Path: path.Join(dir, name), Type: docs.EntryFile}
		if nested {
			entry.Type = docs.EntryDir
		}
		entries = append(entries, entry)
	}
	// reverse order so the engine has to sort
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name > entries[j].Name })
	return entries, nil
}

func (f *fakeSource) ListVersions(context.Context) ([]string, error) {
	if f.versionsErr != nil {
		return nil, f.versionsErr
	}
	return f.versions, nil
}

func (f *fakeSource) ListChangesSince(_ context.Context, _ string, since time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinceSeen = append(f.sinceSeen, since)
	if f.changesErr != nil {
		return nil, f.changesErr
	}
	if !f.changesAt.IsZero() && !since.Before(f.changesAt) {
		return nil, nil
	}
	return f.changes, nil
}

func (f *fakeSource) BlobURL(p, ref string) string {
	return "https://example.test/blob/" + ref + "/" + p
}

// memStore keeps indexes in memory
type memStore struct {
	mu      sync.Mutex
	indexes map[string]*docs.Index
	saves   int
	now     func() time.Time
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{indexes: map[string]*docs.Index{}, now: now}
}

func (s *memStore) Load(version string) *docs.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexes[version]; ok {
		return idx
	}
	idx := docs.NewIndex(version, s.now())
	s.indexes[version] = idx
	return idx
}

func (s *memStore) Save(idx *docs.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.indexes[idx.Version] = idx
	return nil
}

var errUnavailable = errors.New("remote unavailable")
