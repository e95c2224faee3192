// Package dedup implements near-duplicate article filtering: SimHash
// bucketing followed by TF-IDF cosine-similarity filtering, grounded on
// original_source/text_preprocessing.py's two-phase pipeline.
package dedup

import (
	"regexp"
	"strings"
)

var (
	urlRe          = regexp.MustCompile(`https?://\S+`)
	tagRe          = regexp.MustCompile(`<[^>]+>`)
	punctRunRe     = regexp.MustCompile(`([[:punct:]])[[:punct:]]+`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	nonWordRe      = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	tokenPatternRe = regexp.MustCompile(`[A-Za-z\p{Cyrillic}0-9]{2,}`)
)

// Normalize implements the shared text-normalization primitive of spec.md
// §4.3: lowercase, strip URLs, strip markup tags, collapse runs of
// punctuation to a single occurrence, collapse whitespace, strip non-word
// characters while retaining Latin/Cyrillic/digits/underscore/whitespace.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = urlRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	s = punctRunRe.ReplaceAllString(s, "$1")
	s = nonWordRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokenize splits normalized text on the dedup token pattern
// `[A-Za-z\p{Cyrillic}0-9]{2,}` (spec.md §4.3), discarding single-character
// tokens the same way the original's token_pattern regex does.
func Tokenize(normalized string) []string {
	return tokenPatternRe.FindAllString(normalized, -1)
}
