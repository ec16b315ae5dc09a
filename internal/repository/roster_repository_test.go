package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRosterRepositoryMissingFileIsEmpty(t *testing.T) {
	repo := NewRosterRepository(filepath.Join(t.TempDir(), "pledges.csv"))

	require.False(t, repo.FileExists())
	names, err := repo.Names(context.Background())
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestRosterRepositoryAppendHandlesMissingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pledges.csv")
	require.NoError(t, os.WriteFile(path, []byte("Alice"), 0o644))
	repo := NewRosterRepository(path)

	require.NoError(t, repo.Append(context.Background(), "Bob"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Alice\nBob\n", string(raw))
}

func TestRosterRepositoryListKeepsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pledges.csv")
	require.NoError(t, os.WriteFile(path, []byte("Alice\r\n\n Bob \n"), 0o644))
	repo := NewRosterRepository(path)

	lines, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Alice", "", " Bob "}, lines)

	names, err := repo.Names(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Alice", "Bob"}, names)
}

func TestRosterRepositoryRewrite(t *testing.T) {
	repo := NewRosterRepository(filepath.Join(t.TempDir(), "pledges.csv"))
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, "Alice"))
	require.NoError(t, repo.Append(ctx, "Bob"))

	require.NoError(t, repo.Rewrite(ctx, []string{"Bob"}))
	names, err := repo.Names(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Bob"}, names)
}
