package textutil

import (
	"regexp"
	"strings"
)

var (
	// Runs of 3+ single alpha characters separated by single spaces,
	// e.g. "I B M" or "J A I N I". Certain vector-based PDFs extract
	// text with this character-level spacing.
	spacedRunPattern = regexp.MustCompile(`\b(?:[A-Za-z] ){2,}[A-Za-z]\b`)

	promptLabelPattern = regexp.MustCompile(`(?i)^(Answer[^:\n]*:|Context:|Question:)\s*`)
	horizontalSpaces   = regexp.MustCompile(`[ \t]{2,}`)
	excessNewlines     = regexp.MustCompile(`\n{3,}`)
)

// NormalizeSpacedText collapses character-level spaced words like
// "J A I N I" into "JAINI". Ordinary multi-letter words and short tokens
// that don't match the run-of-3+-singletons pattern are left untouched.
// Idempotent.
func NormalizeSpacedText(text string) string {
	return spacedRunPattern.ReplaceAllStringFunc(text, func(m string) string {
		return strings.ReplaceAll(m, " ", "")
	})
}

// NormalizeAnswer post-processes generated text: repairs residual character
// spacing, strips echoed prompt labels ("Answer:", "Context:", "Question:"),
// and collapses excessive whitespace. Idempotent.
func NormalizeAnswer(text string) string {
	text = NormalizeSpacedText(text)
	text = promptLabelPattern.ReplaceAllString(text, "")
	text = horizontalSpaces.ReplaceAllString(text, " ")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
