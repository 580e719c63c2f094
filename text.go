package betterfetch

import (
	"regexp"
	"strings"
)

// truncationNotice is appended whenever content is cut at MaxLength.
const truncationNotice = "\n\n[Content truncated...]"

// markdownLink matches one inline markdown link. The label match is
// non-greedy and the target stops at the first closing paren, so nested or
// malformed syntax is rewritten on a best-effort basis.
var markdownLink = regexp.MustCompile(`\[([^\]]*?)\]\([^)]*\)`)

var newlineRuns = regexp.MustCompile(`\n{4,}`)

// stripLinks rewrites every inline markdown link to just its label text.
func stripLinks(text string) string {
	return markdownLink.ReplaceAllString(text, "$1")
}

// normalizeWhitespace caps blank runs at two blank lines and trims both
// edges. Running it on already-normalized text is a no-op.
func normalizeWhitespace(text string) string {
	return strings.TrimSpace(newlineRuns.ReplaceAllString(text, "\n\n\n"))
}

// truncate hard-cuts text at max characters and marks the cut. The cut
// ignores word, markdown and multi-byte boundaries. Non-positive max means
// unlimited.
func truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	return text[:max] + truncationNotice
}
