package fetcher

import (
	"crypto/md5" //nolint:gosec // content-addressing, not a security boundary
	"encoding/hex"
	"time"
)

// computePostID derives the stable opaque identifier spec.md §4.1 requires:
// "rss_" + md5(link) when a link is present, otherwise
// md5(source_name|title|published_iso) as a fallback for link-less entries.
func computePostID(link, sourceName, title string, published time.Time) string {
	if link != "" {
		return "rss_" + md5Hex(link)
	}
	raw := sourceName + "|" + title + "|" + published.Format(time.RFC3339)
	return md5Hex(raw)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
