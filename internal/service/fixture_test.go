package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pledge-points-api/internal/repository"
	"github.com/noah-isme/pledge-points-api/pkg/storage"
)

type ledgerFixture struct {
	dir        string
	rosterRepo *repository.RosterRepository
	ledgerRepo *repository.LedgerRepository
	pending    *repository.PendingRepository
	interviews *repository.InterviewRepository
	backups    *storage.LocalStorage
	roster     *RosterService
	ledger     *LedgerService
	approvals  *ApprovalService
	interview  *InterviewService
	clock      *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newLedgerFixture(t *testing.T, opts ...LedgerServiceOption) *ledgerFixture {
	t.Helper()
	dir := t.TempDir()
	f := &ledgerFixture{
		dir:        dir,
		rosterRepo: repository.NewRosterRepository(filepath.Join(dir, "pledges.csv")),
		ledgerRepo: repository.NewLedgerRepository(filepath.Join(dir, "Points.csv")),
		pending:    repository.NewPendingRepository(filepath.Join(dir, "PendingPoints.csv"), filepath.Join(dir, "pending.seq")),
		interviews: repository.NewInterviewRepository(filepath.Join(dir, "interviews.csv")),
		clock:      &fakeClock{now: time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)},
	}
	backups, err := storage.NewLocalStorage(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	f.backups = backups

	f.roster = NewRosterService(f.rosterRepo, nil, nil, nil)
	opts = append([]LedgerServiceOption{WithLedgerClock(f.clock.Now)}, opts...)
	f.ledger = NewLedgerService(f.ledgerRepo, f.rosterRepo, backups, nil, opts...)
	f.approvals = NewApprovalService(f.pending, f.ledger, f.roster, nil, WithApprovalClock(f.clock.Now))
	f.interview = NewInterviewService(f.interviews, f.rosterRepo, nil, nil, nil, nil)
	return f
}

func (f *ledgerFixture) addPledges(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := f.roster.Add(context.Background(), name)
		require.NoError(t, err)
	}
}

func (f *ledgerFixture) ledgerRows(t *testing.T) int {
	t.Helper()
	entries, _, err := f.ledger.Load(context.Background())
	require.NoError(t, err)
	return len(entries)
}
