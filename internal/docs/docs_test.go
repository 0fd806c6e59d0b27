package docs_test

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/formwork-dev/docs-mcp-server/internal/docs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsectionName(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"advanced-usage", "Advanced Usage"},
		{"guides", "Guides"},
		{"api-reference-v2", "Api Reference V2"},
		{"already-Capital", "Already Capital"},
		{"éléments-avancés", "Éléments Avancés"},
		{"ünïcode", "Ünïcode"},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			got := docs.SubsectionName(tt.dir)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		wantCategory   string
		wantSubsection string
		wantErr        bool
	}{
		{
			name:         "four segments is a section page",
			path:         "packages/react/docs/01-getting-started.md",
			wantCategory: "React",
		},
		{
			name:           "five segments is a subsection page",
			path:           "packages/react/docs/advanced-usage/02-arrays.md",
			wantCategory:   "React",
			wantSubsection: "Advanced Usage",
		},
		{
			name:           "deeper paths use the first directory",
			path:           "packages/validators/docs/zod/recipes/intro.md",
			wantCategory:   "Validation Adapters",
			wantSubsection: "Zod",
		},
		{
			name:    "too short",
			path:    "packages/react/README.md",
			wantErr: true,
		},
		{
			name:    "unknown category",
			path:    "packages/ember/docs/intro.md",
			wantErr: true,
		},
		{
			name:    "outside docs folder",
			path:    "packages/react/src/index.md",
			wantErr: true,
		},
		{
			name:    "not markdown",
			path:    "packages/react/docs/logo.png",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := docs.Classify(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, docs.ErrUnclassifiedPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCategory, loc.Category.Title)
			assert.Equal(t, tt.wantSubsection, loc.Subsection)
		})
	}
}

func TestCategoryTableBidirectional(t *testing.T) {
	for _, c := range docs.Categories.All() {
		byTitle, ok := docs.Categories.ByTitle(c.Title)
		require.True(t, ok, c.Title)
		assert.Equal(t, c.Name, byTitle.Name)

		byName, ok := docs.Categories.ByName(c.Name)
		require.True(t, ok, c.Name)
		assert.Equal(t, c.Title, byName.Title)
	}
	assert.Len(t, docs.Categories.All(), 8)

	c, _ := docs.Categories.ByName("core")
	assert.Equal(t, "packages/core/docs", c.Root())
}

func TestSectionUpsert(t *testing.T) {
	s := docs.NewSection("React")

	first := docs.Page{Title: "Arrays", SourcePath: "packages/react/docs/guides/arrays.md", Subsection: "Guides", ContentHash: docs.HashContent("v1")}
	assert.Equal(t, docs.PageAdded, s.Upsert(first))

	other := docs.Page{Title: "Intro", SourcePath: "packages/react/docs/intro.md"}
	assert.Equal(t, docs.PageAdded, s.Upsert(other))

	same := first
	assert.Equal(t, docs.PageUnchanged, s.Upsert(same))

	second := first
	second.Title = "Arrays v2"
	second.ContentHash = docs.HashContent("v2")
	assert.Equal(t, docs.PageUpdated, s.Upsert(second))

	require.Len(t, s.Subsections["Guides"], 1)
	assert.Equal(t, "Arrays v2", s.Subsections["Guides"][0].Title)
	require.Len(t, s.Pages, 1)
	assert.Equal(t, 2, s.PageCount())
}

func TestIndexCloneIsDeep(t *testing.T) {
	idx := docs.NewIndex("latest", time.Now())
	idx.Section("Core").Upsert(docs.Page{Title: "Intro", SourcePath: "a.md"})

	clone := idx.Clone()
	clone.Section("Core").Upsert(docs.Page{Title: "Other", SourcePath: "b.md"})
	clone.Section("React")

	assert.Equal(t, 1, idx.Sections["Core"].PageCount())
	assert.Len(t, idx.Sections, 1)
	assert.Equal(t, 2, clone.Sections["Core"].PageCount())
}

func TestIndexStatsAndOrder(t *testing.T) {
	idx := docs.NewIndex("latest", time.Now())
	idx.Section("Vue").Upsert(docs.Page{Title: "Vue intro", SourcePath: "v.md"})
	idx.Section("Core").Upsert(docs.Page{Title: "Core intro", SourcePath: "c.md"})
	idx.Section("Core").Upsert(docs.Page{Title: "Deep", SourcePath: "d.md", Subsection: "Advanced"})

	assert.Equal(t, docs.Stats{Sections: 2, Subsections: 1, Pages: 3}, idx.Stats())
	assert.Equal(t, []string{"Core", "Vue"}, idx.SectionTitles())

	var seen []string
	idx.Walk(func(p *docs.Page) bool {
		seen = append(seen, p.Title)
		return true
	})
	assert.Equal(t, []string{"Core intro", "Deep", "Vue intro"}, seen)
}
