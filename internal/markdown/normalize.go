// Package markdown extracts titles and search-friendly plain text from
// documentation markdown.
package markdown

import (
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
)

// UntitledDocument is the title of a document with no usable text
const UntitledDocument = "Untitled Document"

var (
	fencedCodeRegex   = regexp.MustCompile("(?s)```.*?```")
	htmlCommentRegex  = regexp.MustCompile(`(?s)<!--.*?-->`)
	imageRegex        = regexp.MustCompile(`!\[[^\]]*\]\([^\)]*\)`)
	markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	htmlTagRegex      = regexp.MustCompile(`<[^>]+>`)
)

type frontMatter struct {
	Title string `yaml:"title"`
}

// splitFrontMatter separates a leading ---delimited block from the body.
// A block that is not valid YAML is left in place.
func splitFrontMatter(raw string) (frontMatter, string) {
	var meta frontMatter
	if !strings.HasPrefix(strings.TrimPrefix(raw, "\ufeff"), "---") {
		return meta, raw
	}
	body, err := frontmatter.Parse(strings.NewReader(raw), &meta)
	if err != nil {
		return frontMatter{}, raw
	}
	return meta, string(body)
}

// ExtractTitle picks a document title: the front-matter title, then the
// first "# " heading, then the first non-empty line, then UntitledDocument.
func ExtractTitle(raw string) string {
	meta, body := splitFrontMatter(raw)
	if title := strings.TrimSpace(meta.Title); title != "" {
		return title
	}

	lines := strings.Split(body, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "##") {
			if title := strings.TrimSpace(strings.TrimPrefix(line, "#")); title != "" {
				return StripMarkdownLinks(title)
			}
		}
	}

	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}

	return UntitledDocument
}

// NormalizeBody returns a best-effort plain-text rendition of the markdown.
// Images are removed before links are unwrapped, otherwise ![alt](src)
// would be left behind as "!alt".
func NormalizeBody(raw string) string {
	_, text := splitFrontMatter(raw)
	text = fencedCodeRegex.ReplaceAllString(text, "")
	text = htmlCommentRegex.ReplaceAllString(text, "")
	text = imageRegex.ReplaceAllString(text, "")
	text = StripMarkdownLinks(text)
	text = htmlTagRegex.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// StripMarkdownLinks removes markdown link syntax, keeping only the text
// Example: "[Text](url)" -> "Text"
func StripMarkdownLinks(text string) string {
	return markdownLinkRegex.ReplaceAllString(text, "$1")
}
