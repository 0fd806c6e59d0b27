// Package search scores pages of a documentation index against free-text
// queries and renders the matches as a markdown report.
package search

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/character"

	"github.com/formwork-dev/docs-mcp-server/internal/docs"
)

const (
	// TitleWeight is added once per query token found in a page title
	TitleWeight = 10

	snippetBefore = 100
	snippetAfter  = 200
	ellipsis      = "..."

	DefaultMaxResults = 10
	MaxResultsLimit   = 50
)

var (
	whitespaceTokenizer = character.NewCharacterTokenizer(func(r rune) bool {
		return !unicode.IsSpace(r)
	})
	lowercaseFilter = lowercase.NewLowerCaseFilter()
)

// Result is one scored page
type Result struct {
	Page    *docs.Page
	Score   int
	Snippet string
}

// Tokenize splits a query on whitespace and case-folds each token
func Tokenize(query string) []string {
	stream := lowercaseFilter.Filter(whitespaceTokenizer.Tokenize([]byte(query)))
	return terms(stream)
}

func terms(stream analysis.TokenStream) []string {
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		out = append(out, string(tok.Term))
	}
	return out
}

// Score returns TitleWeight per token contained in the title plus every
// occurrence of each token in the body. Matching is case-insensitive.
func Score(page *docs.Page, tokens []string) int {
	title := strings.ToLower(page.Title)
	body := strings.ToLower(page.Content)

	score := 0
	for _, tok := range tokens {
		if strings.Contains(title, tok) {
			score += TitleWeight
		}
		score += strings.Count(body, tok)
	}
	return score
}

// Search scores every page in idx. Pages scoring zero are dropped; the rest
// are ordered by descending score, ties keeping index walk order.
func Search(idx *docs.Index, query string) []Result {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	var results []Result
	idx.Walk(func(p *docs.Page) bool {
		if score := Score(p, tokens); score > 0 {
			results = append(results, Result{Page: p, Score: score})
		}
		return true
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i := range results {
		results[i].Snippet = Snippet(results[i].Page.Content, tokens)
	}
	return results
}

// Snippet cuts a window around the earliest token occurrence in body:
// snippetBefore characters ahead of it and snippetAfter characters from its
// start. Ellipsis markers flag text cut at either end. Without any occurrence
// the first snippetAfter characters are returned, always followed by an
// ellipsis.
func Snippet(body string, tokens []string) string {
	lower := strings.ToLower(body)
	if len(lower) != len(body) {
		// case folding changed byte widths; work on the folded text so
		// offsets stay valid
		body = lower
	}

	first := -1
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if i := strings.Index(lower, tok); i >= 0 && (first < 0 || i < first) {
			first = i
		}
	}

	runes := []rune(body)
	if first < 0 {
		return string(runes[:min(snippetAfter, len(runes))]) + ellipsis
	}

	at := utf8.RuneCountInString(body[:first])
	start := max(0, at-snippetBefore)
	end := min(len(runes), at+snippetAfter)

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(string(runes[start:end]))
	if end < len(runes) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// Limit maps a requested result count outside 1..MaxResultsLimit to
// DefaultMaxResults
func Limit(maxResults int) int {
	if maxResults <= 0 || maxResults > MaxResultsLimit {
		return DefaultMaxResults
	}
	return maxResults
}

// Format renders results as a markdown report listing at most maxResults
// entries, see Limit.
func Format(query string, results []Result, maxResults int) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}
	maxResults = Limit(maxResults)

	shown := results
	if len(shown) > maxResults {
		shown = shown[:maxResults]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result(s) for %q", len(results), query)
	if len(shown) < len(results) {
		fmt.Fprintf(&b, ", showing the top %d", len(shown))
	}
	b.WriteString(":\n")

	for i, r := range shown {
		fmt.Fprintf(&b, "\n## %d. %s\n", i+1, r.Page.Title)
		location := r.Page.Section
		if r.Page.Subsection != "" {
			location += " / " + r.Page.Subsection
		}
		fmt.Fprintf(&b, "Section: %s\n", location)
		fmt.Fprintf(&b, "URL: %s\n", r.Page.URL)
		fmt.Fprintf(&b, "Score: %d\n\n", r.Score)
		b.WriteString(r.Snippet)
		b.WriteString("\n")
	}
	return b.String()
}
