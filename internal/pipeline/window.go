// Package pipeline composes the fetch, store, LLM-orchestrator, dedup, and
// delivery stages into the two scheduled operations of spec.md §4.5:
// hourly_job (ingest -> relevance -> classification) and daily_job (select
// -> dedup -> strict recheck -> diversify -> summarize -> deliver).
package pipeline

import (
	"log/slog"
	"time"
)

// moscowTimezone is the fixed timezone the daily digest window and its
// scheduled trigger are anchored to (spec.md §4.5's "09:00 MSK").
const moscowTimezone = "Europe/Moscow"

// MustMoscowLocation loads the MSK timezone, falling back to a fixed +3h
// offset (MSK carries no DST) if the local tzdata database is unavailable,
// matching the teacher's fail-open posture toward environment quirks rather
// than crashing the scheduler over a missing zoneinfo file.
func MustMoscowLocation() *time.Location {
	loc, err := time.LoadLocation(moscowTimezone)
	if err != nil {
		slog.Warn("tzdata lookup failed, using fixed MSK offset",
			slog.String("timezone", moscowTimezone), slog.Any("error", err))
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// HourlyWindow returns the fetch window for hourly_job step 1: the 24 hours
// up to one minute before now, expressed in UTC for the Fetcher.
func HourlyWindow(now time.Time) (from, to time.Time) {
	now = now.UTC()
	return now.Add(-24 * time.Hour), now.Add(-1 * time.Minute)
}

// DailyWindow returns the digest selection window for daily_job step 1:
// [yesterday 09:01 MSK, today 09:00 MSK], per SPEC_FULL.md's resolution of
// the daily window boundary open question.
func DailyWindow(now time.Time, loc *time.Location) (from, to time.Time) {
	nowInLoc := now.In(loc)
	today9 := time.Date(nowInLoc.Year(), nowInLoc.Month(), nowInLoc.Day(), 9, 0, 0, 0, loc)
	yesterday901 := today9.AddDate(0, 0, -1).Add(time.Minute)
	return yesterday901, today9
}
