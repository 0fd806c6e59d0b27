// Package store persists one documentation index per version as a JSON file
// inside the cache directory.
package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/formwork-dev/docs-mcp-server/internal/docs"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "https://formwork.dev/schema/docs-index.json"

//go:embed index.schema.json
var indexSchema []byte

// Store reads and writes index files. It keeps the last index seen for each
// version and serves it again while the file on disk is unchanged; callers
// must treat returned indexes as read-only and Clone before mutating.
type Store struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
	schema *jsonschema.Schema

	mu        sync.Mutex
	snapshots map[string]snapshot

	// createMu serialises creation of missing index files
	createMu sync.Mutex
}

type snapshot struct {
	index   *docs.Index
	modTime time.Time
	size    int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for new indexes
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the store logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store rooted at dir. The directory is created lazily on
// the first Save.
func New(dir string, opts ...Option) (*Store, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:       dir,
		now:       time.Now,
		logger:    slog.New(slog.DiscardHandler),
		schema:    schema,
		snapshots: make(map[string]snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	var schemaDoc interface{}
	if err := json.Unmarshal(indexSchema, &schemaDoc); err != nil {
		return nil, fmt.Errorf("parse index schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("add index schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile index schema: %w", err)
	}
	return schema, nil
}

// Dir returns the cache directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing version. Distinct versions always map to
// distinct files.
func (s *Store) Path(version string) string {
	return filepath.Join(s.dir, "docs-index-"+fileSafeVersion(version)+".json")
}

// fileSafeVersion keeps letters, digits, '.' and '-' and writes every other
// byte as '_' followed by two hex digits, so the mapping is reversible.
func fileSafeVersion(version string) string {
	var b strings.Builder
	for i := 0; i < len(version); i++ {
		c := version[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '.', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02X", c)
		}
	}
	return b.String()
}

// Load returns the index for version. A missing, unreadable or invalid file
// is replaced by a fresh empty index, which is persisted immediately.
func (s *Store) Load(version string) *docs.Index {
	path := s.Path(version)

	info, statErr := os.Stat(path)
	if statErr == nil {
		s.mu.Lock()
		snap, ok := s.snapshots[version]
		s.mu.Unlock()
		if ok && snap.modTime.Equal(info.ModTime()) && snap.size == info.Size() {
			return snap.index
		}

		idx, err := s.read(path, version)
		if err == nil {
			s.remember(version, idx, info)
			return idx
		}
		s.logger.Warn("discarding unreadable index", "version", version, "path", path, "error", err)
	} else if !errors.Is(statErr, os.ErrNotExist) {
		s.logger.Warn("index not accessible", "version", version, "path", path, "error", statErr)
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()
	if statErr != nil {
		// created by another caller while we were looking
		if info, err := os.Stat(path); err == nil {
			if idx, err := s.read(path, version); err == nil {
				s.remember(version, idx, info)
				return idx
			}
		}
	}

	idx := docs.NewIndex(version, s.now())
	if err := s.Save(idx); err != nil {
		s.logger.Warn("failed to persist empty index", "version", version, "error", err)
	} else {
		s.logger.Info("created empty index", "version", version, "path", path)
	}
	return idx
}

func (s *Store) read(path, version string) (*docs.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	var idx docs.Index
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if idx.Version != version {
		return nil, fmt.Errorf("file holds version %q, want %q", idx.Version, version)
	}
	if idx.Sections == nil {
		idx.Sections = map[string]*docs.Section{}
	}
	return &idx, nil
}

// Save overwrites the file for idx.Version. The write goes through a temp
// file and a rename so readers never observe a partial file.
func (s *Store) Save(idx *docs.Index) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".docs-index-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	path := s.Path(idx.Version)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace index file: %w", err)
	}

	if info, err := os.Stat(path); err == nil {
		s.remember(idx.Version, idx, info)
	}
	return nil
}

func (s *Store) remember(version string, idx *docs.Index, info os.FileInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[version] = snapshot{index: idx, modTime: info.ModTime(), size: info.Size()}
}
