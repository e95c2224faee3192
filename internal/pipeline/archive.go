package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reputwatch/internal/usecase/notify"
)

// archiveFilePerm matches the teacher's convention for operational log
// files: group-readable, not world-writable.
const archiveFilePerm = 0o644

// WriteDailyDigestArchive persists the day's digest items as a plain text
// file under dir, one story per block, regardless of delivery outcome — so
// a delivery failure (spec.md §7) still leaves a durable record. Grounded
// on the original pipeline's per-day analysis file writer, which wrote one
// "story N" block per summarized item to a dated .txt file.
func WriteDailyDigestArchive(dir string, date time.Time, items []notify.DigestItem) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating archive directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("digest_%s.txt", date.Format("2006-01-02")))

	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "Story %d: %s\n", i+1, item.Title)
		fmt.Fprintf(&b, "Summary: %s\n", item.Summary)
		fmt.Fprintf(&b, "Source: %s\n", item.SourceURL)
		fmt.Fprintf(&b, "PostID: %s\n\n", item.PostID)
	}

	if err := os.WriteFile(path, []byte(b.String()), archiveFilePerm); err != nil {
		return "", fmt.Errorf("writing digest archive %s: %w", path, err)
	}
	return path, nil
}
