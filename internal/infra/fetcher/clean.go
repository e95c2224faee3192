package fetcher

import (
	"regexp"
	"strings"
)

var (
	scriptStyleTagRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe            = regexp.MustCompile(`(?s)<[^>]+>`)
	blockBoundaryRe  = regexp.MustCompile(`(?i)</(p|div|br|li|h[1-6])\s*/?>`)
	whitespaceRunRe  = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRunRe   = regexp.MustCompile(`\n{3,}`)
)

// cleanBody strips script/style blocks and markup from raw feed HTML,
// collapses runs of whitespace, and keeps paragraph breaks so the plain-text
// body stays readable. The original markup is kept separately as
// Article.HTMLContent (spec.md §4.1 step 3).
func cleanBody(html string) string {
	withoutScripts := scriptStyleTagRe.ReplaceAllString(html, "")
	withParagraphBreaks := blockBoundaryRe.ReplaceAllString(withoutScripts, "\n")
	plain := tagRe.ReplaceAllString(withParagraphBreaks, "")
	plain = htmlUnescape(plain)
	plain = whitespaceRunRe.ReplaceAllString(plain, " ")
	plain = blankLineRunRe.ReplaceAllString(plain, "\n\n")

	lines := strings.Split(plain, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var htmlEntities = map[string]string{
	"&amp;": "&", "&lt;": "<", "&gt;": ">", "&quot;": "\"",
	"&#39;": "'", "&apos;": "'", "&nbsp;": " ",
}

func htmlUnescape(s string) string {
	for entity, repl := range htmlEntities {
		s = strings.ReplaceAll(s, entity, repl)
	}
	return s
}

// richestBody concatenates every distinct, non-empty body field with a
// blank-line separator, per spec.md §4.1 step 3 ("concatenating all
// available content/summary/description fields, preferring the richest")
// and original_source/rss_manager.py's _extract_content, which joins
// content/summary/description with "\n\n" while skipping a field that
// exactly duplicates one already collected.
func richestBody(candidates ...string) string {
	var parts []string
	for _, c := range candidates {
		if c == "" {
			continue
		}
		duplicate := false
		for _, seen := range parts {
			if seen == c {
				duplicate = true
				break
			}
		}
		if !duplicate {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n")
}
