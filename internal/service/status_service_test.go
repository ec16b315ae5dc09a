package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatusServiceCounts(t *testing.T) {
	f := newLedgerFixture(t)
	f.addPledges(t, "Alice", "Bob")
	ctx := context.Background()
	_, err := f.ledger.Apply(ctx, "Alice", 3, "on time")
	require.NoError(t, err)
	_, err = f.approvals.Request(ctx, "Bob", 2, "helped", "Carl")
	require.NoError(t, err)
	_, err = f.interview.Add(ctx, AddInterviewRequest{Pledge: "Bob", Brother: "Carl", Quality: 1, Time: time.Now()})
	require.NoError(t, err)

	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest("GET", "/health", 200, 10*time.Millisecond)
	started := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	svc := NewStatusService(started, f.rosterRepo, f.ledger, f.approvals, f.interview, metrics, nil)
	svc.now = func() time.Time { return started.Add(26*time.Hour + 5*time.Minute + 7*time.Second) }

	status := svc.Status(ctx)
	require.Equal(t, 2, status.Pledges)
	require.Equal(t, 1, status.LedgerRows)
	require.Equal(t, 1, status.PendingCount)
	require.Equal(t, 1, status.Interviews)
	require.Equal(t, "1 day, 2:05:07", status.Uptime)
	require.Equal(t, uint64(1), status.Metrics.RequestsTotal)
	require.NotEmpty(t, status.GoVersion)
	require.Greater(t, status.Goroutines, 0)
}

func TestFormatUptime(t *testing.T) {
	require.Equal(t, "0:00:59", FormatUptime(59*time.Second))
	require.Equal(t, "3 days, 0:00:00", FormatUptime(72*time.Hour))
	require.Equal(t, "0:00:00", FormatUptime(-time.Second))
}
