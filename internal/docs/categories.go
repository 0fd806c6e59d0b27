package docs

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// SourceTree is the remote sub-tree holding every category
	SourceTree = "packages"

	// docsDir is the documentation folder inside each package
	docsDir = "docs"

	// sectionPageSegments is the segment count of a file placed directly in a
	// category root: packages/<category>/docs/<file>.md
	sectionPageSegments = 4

	// MarkdownExt is the only extension mirrored
	MarkdownExt = ".md"
)

// ErrUnclassifiedPath is returned for paths that do not belong to any
// category documentation root.
var ErrUnclassifiedPath = errors.New("path does not belong to a known documentation category")

// Category maps a remote package to the section title it is displayed under
type Category struct {
	Name  string
	Title string
}

// Root returns the documentation root of the category
func (c Category) Root() string {
	return path.Join(SourceTree, c.Name, docsDir)
}

// CategoryTable is a bidirectional name/title lookup built once
type CategoryTable struct {
	ordered []Category
	byName  map[string]Category
	byTitle map[string]Category
}

// NewCategoryTable builds a table preserving the given order
func NewCategoryTable(categories ...Category) *CategoryTable {
	t := &CategoryTable{
		ordered: append([]Category{}, categories...),
		byName:  make(map[string]Category, len(categories)),
		byTitle: make(map[string]Category, len(categories)),
	}
	for _, c := range categories {
		t.byName[c.Name] = c
		t.byTitle[c.Title] = c
	}
	return t
}

// All returns the categories in table order
func (t *CategoryTable) All() []Category {
	return append([]Category{}, t.ordered...)
}

// ByName looks a category up by its remote package name
func (t *CategoryTable) ByName(name string) (Category, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// ByTitle looks a category up by its section title
func (t *CategoryTable) ByTitle(title string) (Category, bool) {
	c, ok := t.byTitle[title]
	return c, ok
}

// Titles returns the section titles in table order
func (t *CategoryTable) Titles() []string {
	titles := make([]string, len(t.ordered))
	for i, c := range t.ordered {
		titles[i] = c.Title
	}
	return titles
}

// Categories is the static set of mirrored packages
var Categories = NewCategoryTable(
	Category{Name: "core", Title: "Core"},
	Category{Name: "react", Title: "React"},
	Category{Name: "vue", Title: "Vue"},
	Category{Name: "svelte", Title: "Svelte"},
	Category{Name: "solid", Title: "Solid"},
	Category{Name: "angular", Title: "Angular"},
	Category{Name: "validators", Title: "Validation Adapters"},
	Category{Name: "devtools", Title: "Devtools"},
)

// SubsectionName turns a remote directory name into its subsection key:
// "advanced-usage" becomes "Advanced Usage". Only the first rune of each
// word changes, so non-ASCII names stay valid UTF-8.
func SubsectionName(dir string) string {
	words := strings.Split(dir, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, n := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[n:]
	}
	return strings.Join(words, " ")
}

// Location is where a remote file lands in the index
type Location struct {
	Category   Category
	Subsection string
}

// Classify derives the category and subsection of a remote path purely from
// its segments. Four segments is a section page, five or more a subsection
// page keyed by the fourth segment.
func Classify(p string) (Location, error) {
	if !IsMarkdown(p) {
		return Location{}, ErrUnclassifiedPath
	}
	segments := strings.Split(strings.Trim(p, "/"), "/")
	if len(segments) < sectionPageSegments || segments[0] != SourceTree || segments[2] != docsDir {
		return Location{}, ErrUnclassifiedPath
	}
	category, ok := Categories.ByName(segments[1])
	if !ok {
		return Location{}, ErrUnclassifiedPath
	}

	loc := Location{Category: category}
	if len(segments) > sectionPageSegments {
		loc.Subsection = SubsectionName(segments[3])
	}
	return loc, nil
}

// IsMarkdown reports whether the file carries the mirrored extension
func IsMarkdown(name string) bool {
	return strings.HasSuffix(name, MarkdownExt)
}

// Entry types returned by directory listings
const (
	EntryFile = "file"
	EntryDir  = "dir"
)

// Entry is one item of a remote directory listing
type Entry struct {
	Name string
	Path string
	Type string
}
