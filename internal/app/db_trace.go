package app

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxTracedQueryLength bounds db.statement; the kv upsert and history batch
// statements grow with their column lists.
const maxTracedQueryLength = 512

var (
	queryCommentRegex    = regexp.MustCompile(`(?s)/\*.*?\*/|--[^\n]*`)
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
)

// formatDBQueryForTrace renders a statement for the db.statement attribute:
// comments dropped, whitespace collapsed, long statements cut on a rune
// boundary.
func formatDBQueryForTrace(query string) string {
	query = queryCommentRegex.ReplaceAllString(query, " ")
	query = strings.TrimSpace(queryWhitespaceRegex.ReplaceAllString(query, " "))
	if len(query) <= maxTracedQueryLength {
		return query
	}

	cut := maxTracedQueryLength
	for cut > 0 && !utf8.RuneStart(query[cut]) {
		cut--
	}
	return query[:cut] + "..."
}
