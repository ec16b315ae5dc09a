package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pledge-points-api/internal/models"
)

func newPendingRepo(t *testing.T) *PendingRepository {
	dir := t.TempDir()
	return NewPendingRepository(filepath.Join(dir, "PendingPoints.csv"), filepath.Join(dir, "pending.seq"))
}

func TestPendingRepositoryNextIDIsMonotonic(t *testing.T) {
	repo := newPendingRepo(t)
	ctx := context.Background()

	first, err := repo.NextID(ctx, 0)
	require.NoError(t, err)
	second, err := repo.NextID(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), first)
	require.Equal(t, int64(2), second)

	seq, err := repo.Sequence(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), seq)
}

func TestPendingRepositoryNextIDRespectsFloor(t *testing.T) {
	repo := newPendingRepo(t)

	id, err := repo.NextID(context.Background(), 41)
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestPendingRepositoryRejectsCorruptSequence(t *testing.T) {
	dir := t.TempDir()
	seq := filepath.Join(dir, "pending.seq")
	require.NoError(t, os.WriteFile(seq, []byte("abc"), 0o644))
	repo := NewPendingRepository(filepath.Join(dir, "PendingPoints.csv"), seq)

	_, err := repo.NextID(context.Background(), 0)
	require.ErrorIs(t, err, ErrMalformedTable)
}

func TestPendingRepositorySaveAndLoad(t *testing.T) {
	repo := newPendingRepo(t)
	ctx := context.Background()
	entries := []models.PendingEntry{
		{ID: 3, Time: time.Unix(1700000000, 0).UTC(), Name: "Alice", PointChange: 7.5, Comment: "study hours", Requester: "brother-1"},
	}
	require.NoError(t, repo.Save(ctx, entries))

	result, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, models.LoadOK, result.Status)
	require.Equal(t, entries, result.Rows)
	require.Equal(t, int64(3), MaxPendingID(result.Rows))
}
