// Package docs holds the cached documentation model: pages grouped into
// sections and subsections, one Index per documentation version.
package docs

import (
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Page is one mirrored documentation file
type Page struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`               // Normalized plain text, used for search
	RawContent  string `json:"rawContent,omitempty"`  // Source markdown as fetched
	Version     string `json:"version"`
	Section     string `json:"section"`
	Subsection  string `json:"subsection,omitempty"`
	SourcePath  string `json:"sourcePath,omitempty"` // Remote path, unique within a bucket
	ContentHash string `json:"contentHash,omitempty"`
}

// HashContent returns the digest stored in Page.ContentHash
func HashContent(raw string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(raw))
}

// Section groups the pages of one category. LastSynced is set by passes
// scoped to this section alone; whole-index passes move Index.LastUpdated.
type Section struct {
	Title       string            `json:"title"`
	Pages       []Page            `json:"pages"`
	Subsections map[string][]Page `json:"subsections"`
	LastSynced  time.Time         `json:"lastSynced,omitzero"`
}

// SyncedSince returns the point from which changes to this section are
// still unapplied: the later of the index-wide stamp and LastSynced.
func (s *Section) SyncedSince(indexUpdated time.Time) time.Time {
	if s.LastSynced.After(indexUpdated) {
		return s.LastSynced
	}
	return indexUpdated
}

// NewSection creates an empty section
func NewSection(title string) *Section {
	return &Section{
		Title:       title,
		Pages:       []Page{},
		Subsections: map[string][]Page{},
	}
}

// UpsertOutcome describes what Upsert did to a bucket
type UpsertOutcome int

const (
	PageAdded UpsertOutcome = iota
	PageUpdated
	PageUnchanged
)

func (o UpsertOutcome) String() string {
	switch o {
	case PageAdded:
		return "added"
	case PageUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Upsert stores page in its bucket (section pages or the subsection named by
// page.Subsection). A page with the same SourcePath is removed first, so the
// bucket never holds two pages for one path; the new page goes to the end.
func (s *Section) Upsert(page Page) UpsertOutcome {
	bucket := s.Pages
	if page.Subsection != "" {
		if s.Subsections == nil {
			s.Subsections = map[string][]Page{}
		}
		bucket = s.Subsections[page.Subsection]
	}

	outcome := PageAdded
	kept := make([]Page, 0, len(bucket)+1)
	for _, existing := range bucket {
		if page.SourcePath != "" && existing.SourcePath == page.SourcePath {
			outcome = PageUpdated
			if existing.ContentHash != "" && existing.ContentHash == page.ContentHash {
				outcome = PageUnchanged
			}
			continue
		}
		kept = append(kept, existing)
	}
	kept = append(kept, page)

	if page.Subsection != "" {
		s.Subsections[page.Subsection] = kept
	} else {
		s.Pages = kept
	}
	return outcome
}

// SubsectionNames returns subsection keys in lexical order
func (s *Section) SubsectionNames() []string {
	names := make([]string, 0, len(s.Subsections))
	for name := range s.Subsections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Walk visits direct section pages first, then every subsection in
// SubsectionNames order. Returning false stops the walk.
func (s *Section) Walk(fn func(p *Page) bool) bool {
	for i := range s.Pages {
		if !fn(&s.Pages[i]) {
			return false
		}
	}
	for _, name := range s.SubsectionNames() {
		pages := s.Subsections[name]
		for i := range pages {
			if !fn(&pages[i]) {
				return false
			}
		}
	}
	return true
}

// PageCount counts section and subsection pages
func (s *Section) PageCount() int {
	n := len(s.Pages)
	for _, pages := range s.Subsections {
		n += len(pages)
	}
	return n
}

func (s *Section) clone() *Section {
	out := &Section{
		Title:       s.Title,
		Pages:       append([]Page{}, s.Pages...),
		Subsections: make(map[string][]Page, len(s.Subsections)),
		LastSynced:  s.LastSynced,
	}
	for name, pages := range s.Subsections {
		out.Subsections[name] = append([]Page{}, pages...)
	}
	return out
}

// Index is the persisted root object for one documentation version
type Index struct {
	Version     string              `json:"version"`
	LastUpdated time.Time           `json:"lastUpdated"`
	Sections    map[string]*Section `json:"sections"`
}

// NewIndex creates an empty index stamped with now
func NewIndex(version string, now time.Time) *Index {
	return &Index{
		Version:     version,
		LastUpdated: now,
		Sections:    map[string]*Section{},
	}
}

// Clone returns a deep copy. Sync operations mutate clones only, so an
// Index handed out to readers never changes underneath them.
func (idx *Index) Clone() *Index {
	out := &Index{
		Version:     idx.Version,
		LastUpdated: idx.LastUpdated,
		Sections:    make(map[string]*Section, len(idx.Sections)),
	}
	for title, section := range idx.Sections {
		out.Sections[title] = section.clone()
	}
	return out
}

// Section returns the named section, creating it when missing
func (idx *Index) Section(title string) *Section {
	if idx.Sections == nil {
		idx.Sections = map[string]*Section{}
	}
	s, ok := idx.Sections[title]
	if !ok {
		s = NewSection(title)
		idx.Sections[title] = s
	}
	return s
}

// SectionTitles returns the titles present in the index, ordered by the
// category table with unknown titles last.
func (idx *Index) SectionTitles() []string {
	titles := make([]string, 0, len(idx.Sections))
	for _, c := range Categories.All() {
		if _, ok := idx.Sections[c.Title]; ok {
			titles = append(titles, c.Title)
		}
	}
	var extra []string
	for title := range idx.Sections {
		if _, ok := Categories.ByTitle(title); !ok {
			extra = append(extra, title)
		}
	}
	sort.Strings(extra)
	return append(titles, extra...)
}

// Walk visits every page, section by section, in SectionTitles order
func (idx *Index) Walk(fn func(p *Page) bool) {
	for _, title := range idx.SectionTitles() {
		if !idx.Sections[title].Walk(fn) {
			return
		}
	}
}

// Stats summarises the index contents
type Stats struct {
	Sections    int
	Subsections int
	Pages       int
}

// Stats counts sections, subsections and pages
func (idx *Index) Stats() Stats {
	var st Stats
	for _, s := range idx.Sections {
		st.Sections++
		st.Subsections += len(s.Subsections)
		st.Pages += s.PageCount()
	}
	return st
}

// Age reports how long ago the index was last updated
func (idx *Index) Age(now time.Time) time.Duration {
	return now.Sub(idx.LastUpdated)
}
