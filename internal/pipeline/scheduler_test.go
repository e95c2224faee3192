package pipeline

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reputwatch/internal/dedup"
)

func TestScheduler_RunReturnsOnContextCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := NewScheduler(
		HourlyDeps{Articles: newStubArticleRepo(), Sources: &stubSourceRepo{}},
		DailyDeps{Articles: newStubArticleRepo(), DedupConfig: dedup.DefaultConfig(), Location: MustMoscowLocation()},
		logger, "",
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sched.Run(ctx, false)
	require.NoError(t, err)
}

func TestNewScheduler_DefaultsLocationToMoscow(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := NewScheduler(HourlyDeps{}, DailyDeps{}, logger, "")

	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, sched.location).Zone()
	assert.Equal(t, 3*60*60, offset)
}
