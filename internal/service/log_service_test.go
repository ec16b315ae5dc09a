package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
	"github.com/noah-isme/pledge-points-api/pkg/logger"
)

func jsonLogLine(at time.Time, msg string) string {
	return fmt.Sprintf(`{"level":"info","%s":"%s","msg":"%s"}`, logger.TimeKey, at.Format(logger.TimeLayout), msg)
}

func newLogServiceForTest(t *testing.T, now time.Time, lines ...string) (*LogService, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot.log")
	if lines != nil {
		require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	}
	svc := NewLogService(path, nil)
	svc.now = func() time.Time { return now }
	return svc, path
}

func TestLogServiceRecentMostRecentFirst(t *testing.T) {
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newLogServiceForTest(t, now,
		jsonLogLine(now.Add(-30*time.Hour), "too old"),
		jsonLogLine(now.Add(-3*time.Hour), "earlier"),
		"not a log line",
		now.Add(-time.Hour).Format(logger.TimeLayout)+"\tINFO\tconsole entry",
		jsonLogLine(now.Add(-2*time.Hour), "later"),
	)

	excerpt, err := svc.Recent(24)
	require.NoError(t, err)
	require.Empty(t, excerpt.Message)
	require.Len(t, excerpt.Lines, 3)
	require.Contains(t, excerpt.Lines[0], "console entry")
	require.Contains(t, excerpt.Lines[1], "later")
	require.Contains(t, excerpt.Lines[2], "earlier")
}

func TestLogServiceRecentMessages(t *testing.T) {
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

	missing := NewLogService(filepath.Join(t.TempDir(), "absent.log"), nil)
	excerpt, err := missing.Recent(24)
	require.NoError(t, err)
	require.Equal(t, LogMissingMessage, excerpt.Message)

	empty, _ := newLogServiceForTest(t, now)
	path := empty.path
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	excerpt, err = empty.Recent(24)
	require.NoError(t, err)
	require.Equal(t, LogEmptyMessage, excerpt.Message)

	quiet, _ := newLogServiceForTest(t, now, jsonLogLine(now.Add(-10*time.Hour), "old"))
	excerpt, err = quiet.Recent(2)
	require.NoError(t, err)
	require.Equal(t, "No logs found from the past 2 hours.", excerpt.Message)
	require.Empty(t, excerpt.Lines)
}

func TestLogServiceRecentValidatesHours(t *testing.T) {
	svc, _ := newLogServiceForTest(t, time.Now())
	_, err := svc.Recent(0)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
	_, err = svc.Recent(MaxLogHours + 1)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
}

func TestLogServiceCleanOldKeepsUnparsableLines(t *testing.T) {
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	svc, path := newLogServiceForTest(t, now,
		jsonLogLine(now.Add(-100*time.Hour), "stale"),
		"stack trace continuation",
		jsonLogLine(now.Add(-time.Hour), "fresh"),
	)

	removed, err := svc.CleanOld(72 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "stale")
	require.Contains(t, string(raw), "stack trace continuation")
	require.Contains(t, string(raw), "fresh")
}

func TestParseLogTimeLegacyFormat(t *testing.T) {
	at, ok := ParseLogTime("2024-03-09 12:30:00,250 - discord_bot - INFO - Bot ready")
	require.True(t, ok)
	require.Equal(t, 12, at.Hour())
	require.Equal(t, 250*time.Millisecond, time.Duration(at.Nanosecond()))

	_, ok = ParseLogTime("garbage")
	require.False(t, ok)
}

func TestHumanSize(t *testing.T) {
	require.Equal(t, "512 B", HumanSize(512))
	require.Equal(t, "1.5 KiB", HumanSize(1536))
	require.Equal(t, "2.0 MiB", HumanSize(2*1024*1024))
}
