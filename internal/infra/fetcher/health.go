package fetcher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// SourceHealth is the per-source health record spec.md §4.1 requires:
// "{success_count, error_count, last_status, last_error, last_entries_count}".
type SourceHealth struct {
	SourceID         int64     `json:"source_id"`
	SourceName       string    `json:"source_name"`
	SuccessCount     int       `json:"success_count"`
	ErrorCount       int       `json:"error_count"`
	LastStatus       string    `json:"last_status"` // "OK" or "ERROR"
	LastError        string    `json:"last_error,omitempty"`
	LastEntriesCount int       `json:"last_entries_count"`
	LastAttemptAt    time.Time `json:"last_attempt_at"`
}

// HealthTracker accumulates SourceHealth across fetch invocations. Safe for
// concurrent use by the priority-wave fetch loop.
type HealthTracker struct {
	mu      sync.Mutex
	records map[int64]*SourceHealth
}

// NewHealthTracker returns an empty tracker.
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{records: make(map[int64]*SourceHealth)}
}

// RecordSuccess logs a successful crawl of sourceID with entriesCount items.
func (h *HealthTracker) RecordSuccess(sourceID int64, sourceName string, entriesCount int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec := h.recordLocked(sourceID, sourceName)
	rec.SuccessCount++
	rec.LastStatus = "OK"
	rec.LastError = ""
	rec.LastEntriesCount = entriesCount
	rec.LastAttemptAt = time.Now()
}

// RecordError logs a failed crawl attempt of sourceID with the given error type.
func (h *HealthTracker) RecordError(sourceID int64, sourceName string, errType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec := h.recordLocked(sourceID, sourceName)
	rec.ErrorCount++
	rec.LastStatus = "ERROR"
	rec.LastError = errType
	rec.LastEntriesCount = 0
	rec.LastAttemptAt = time.Now()
}

// LastStatus returns the status recorded for the most recent attempt for
// sourceID ("OK" or "ERROR"), or "" when the source has no record; used by
// fetch_with_retry's attempt-count escalation (spec.md §4.1).
func (h *HealthTracker) LastStatus(sourceID int64) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rec, ok := h.records[sourceID]; ok {
		return rec.LastStatus
	}
	return ""
}

func (h *HealthTracker) recordLocked(sourceID int64, sourceName string) *SourceHealth {
	rec, ok := h.records[sourceID]
	if !ok {
		rec = &SourceHealth{SourceID: sourceID, SourceName: sourceName}
		h.records[sourceID] = rec
	}
	return rec
}

// Snapshot returns a stable-ordered copy of all health records, ordered by
// source ID.
func (h *HealthTracker) Snapshot() []SourceHealth {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]SourceHealth, 0, len(h.records))
	for _, rec := range h.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out
}

// WriteReports emits a JSON snapshot and a markdown table into dir, per
// spec.md §4.1's "Emit a periodic JSON and markdown report" side effect.
func (h *HealthTracker) WriteReports(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	snapshot := h.Snapshot()

	jsonPath := filepath.Join(dir, "feed_health.json")
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal health snapshot: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("write health json: %w", err)
	}

	mdPath := filepath.Join(dir, "feed_health.md")
	if err := os.WriteFile(mdPath, []byte(renderMarkdown(snapshot)), 0o644); err != nil {
		return fmt.Errorf("write health markdown: %w", err)
	}
	return nil
}

func renderMarkdown(records []SourceHealth) string {
	var b strings.Builder
	b.WriteString("| Source | Status | Successes | Errors | Last Entries | Last Error |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range records {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %s |\n",
			r.SourceName, r.LastStatus, r.SuccessCount, r.ErrorCount, r.LastEntriesCount, r.LastError)
	}
	return b.String()
}
