package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pledge-points-api/internal/models"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

func addInterview(t *testing.T, f *ledgerFixture, pledge, brother string, quality int) {
	t.Helper()
	_, err := f.interview.Add(context.Background(), AddInterviewRequest{
		Pledge: pledge, Brother: brother, Quality: quality, Time: f.clock.Now(),
	})
	require.NoError(t, err)
}

func TestInterviewServiceAddValidation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.addPledges(t, "Alice")
	now := time.Now()

	_, err := f.interview.Add(ctx, AddInterviewRequest{Brother: "Bob", Time: now})
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, err = f.interview.Add(ctx, AddInterviewRequest{Pledge: "Alice", Brother: "  ", Time: now})
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, err = f.interview.Add(ctx, AddInterviewRequest{Pledge: "Alice", Brother: "Bob"})
	require.Equal(t, "interview time is required", appErrors.FromError(err).Message)

	_, err = f.interview.Add(ctx, AddInterviewRequest{Pledge: "Zed", Brother: "Bob", Quality: 5, Time: now})
	require.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))

	_, err = f.interview.Add(ctx, AddInterviewRequest{Pledge: "Alice", Brother: "Bob", Quality: 2, Time: now})
	require.Equal(t, "invalid quality, quality must be 0 or 1", appErrors.FromError(err).Message)
}

func TestInterviewServiceSummary(t *testing.T) {
	f := newLedgerFixture(t)
	f.addPledges(t, "Alice", "Bob")
	addInterview(t, f, "Alice", "Carl", 1)
	addInterview(t, f, "Alice", "Dana", 0)
	addInterview(t, f, "Alice", "Carl", 1)
	addInterview(t, f, "Alice", "Evan", 1)

	summary, err := f.interview.Summary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary, 2)

	require.Equal(t, "Alice", summary[0].Pledge)
	require.Equal(t, 4, summary[0].NumberOfInterviews)
	require.Equal(t, 3, summary[0].NQuality)
	require.NotNil(t, summary[0].PercentQuality)
	require.InDelta(t, 75.0, *summary[0].PercentQuality, 1e-9)

	require.Equal(t, models.InterviewSummary{Pledge: "Bob"}, summary[1])
	require.Nil(t, summary[1].PercentQuality)

	count, err := f.interview.QualityCount(context.Background(), "Alice")
	require.NoError(t, err)
	require.Equal(t, 3, count)
	_, err = f.interview.QualityCount(context.Background(), "Zed")
	require.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestInterviewServiceRankings(t *testing.T) {
	f := newLedgerFixture(t)
	f.addPledges(t, "Alice", "Bob")
	addInterview(t, f, "Bob", "Carl", 1)
	addInterview(t, f, "Alice", "Carl", 0)
	addInterview(t, f, "Alice", "Dana", 1)

	byPledge, err := f.interview.RankingsByPledge(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.InterviewCount{{Name: "Alice", Count: 2}, {Name: "Bob", Count: 1}}, byPledge)

	byBrother, err := f.interview.RankingsByBrother(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.InterviewCount{{Name: "Carl", Count: 2}, {Name: "Dana", Count: 1}}, byBrother)

	rows, err := f.interview.ForBrother(context.Background(), "Carl")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Bob", rows[0].Pledge)

	rows, err = f.interview.ForPledge(context.Background(), "Alice")
	require.NoError(t, err)
	require.Len(t, rows, 2)
}
