package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pledge-points-api/internal/models"
	"github.com/noah-isme/pledge-points-api/internal/repository"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

func TestApprovalServiceRequestAndApprove(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.addPledges(t, "Alice")

	entry, err := f.approvals.Request(ctx, "Alice", 5, "study hall", "Bob")
	require.NoError(t, err)
	require.Equal(t, int64(1), entry.ID)

	result, err := f.approvals.Approve(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, models.PendingStatusApproved, result.Status)
	require.Equal(t, "Points approved and applied", result.Message)

	history, err := f.ledger.History(ctx, "Alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "Alice", history[0].Name)
	require.Equal(t, 5, history[0].PointChange)
	require.Equal(t, "study hall", history[0].Comment)

	pending, err := f.approvals.List(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestApprovalServiceApproveOutOfOrderKeepsIDs(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.addPledges(t, "Alice")

	first, err := f.approvals.Request(ctx, "Alice", 5, "req1", "Bob")
	require.NoError(t, err)
	second, err := f.approvals.Request(ctx, "Alice", 3, "req2", "Bob")
	require.NoError(t, err)

	_, err = f.approvals.Approve(ctx, second.ID)
	require.NoError(t, err)
	_, err = f.approvals.Approve(ctx, first.ID)
	require.NoError(t, err)

	total, err := f.ledger.PointsFor(ctx, "Alice")
	require.NoError(t, err)
	require.Equal(t, 8, total)

	pending, err := f.approvals.List(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)

	third, err := f.approvals.Request(ctx, "Alice", 1, "req3", "Bob")
	require.NoError(t, err)
	require.Equal(t, int64(3), third.ID)
}

func TestApprovalServiceRequestUnknownPledge(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.approvals.Request(context.Background(), "Zed", 5, "x", "Bob")
	require.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestApprovalServiceRequestSkipsRangeChecks(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.addPledges(t, "Alice")

	entry, err := f.approvals.Request(ctx, "Alice", 50, "", "Bob")
	require.NoError(t, err)

	result, err := f.approvals.Approve(ctx, entry.ID)
	require.Error(t, err)
	require.False(t, result.Success)
	require.Equal(t, models.PendingStatusRequested, result.Status)
	require.Contains(t, result.Message, "cannot exceed 35")

	pending, err := f.approvals.List(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Zero(t, f.ledgerRows(t))
}

func TestApprovalServiceReject(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.addPledges(t, "Alice")
	_, err := f.ledger.Apply(ctx, "Alice", 4, "base")
	require.NoError(t, err)

	entry, err := f.approvals.Request(ctx, "Alice", 10, "nope", "Bob")
	require.NoError(t, err)
	result, err := f.approvals.Reject(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "Points rejected", result.Message)

	total, err := f.ledger.PointsFor(ctx, "Alice")
	require.NoError(t, err)
	require.Equal(t, 4, total)

	_, err = f.approvals.Reject(ctx, entry.ID)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	require.Equal(t, "pending request 1 not found", appErr.Message)
}

func TestApprovalServiceBatchResultsInInputOrder(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.addPledges(t, "Alice")
	a, err := f.approvals.Request(ctx, "Alice", 1, "a", "Bob")
	require.NoError(t, err)
	b, err := f.approvals.Request(ctx, "Alice", 2, "b", "Bob")
	require.NoError(t, err)

	results := f.approvals.ApproveMany(ctx, []int64{a.ID, 99, b.ID})
	require.Len(t, results, 3)
	require.True(t, results[0].Success)
	require.False(t, results[1].Success)
	require.Equal(t, "pending request 99 not found", results[1].Message)
	require.True(t, results[2].Success)

	c, err := f.approvals.Request(ctx, "Alice", 3, "c", "Bob")
	require.NoError(t, err)
	rejected := f.approvals.RejectMany(ctx, []int64{c.ID})
	require.True(t, rejected[0].Success)
}

type pendingSaveFailure struct {
	*repository.PendingRepository
	fail bool
}

func (p *pendingSaveFailure) Save(ctx context.Context, entries []models.PendingEntry) error {
	if p.fail {
		return errors.New("read-only filesystem")
	}
	return p.PendingRepository.Save(ctx, entries)
}

func TestApprovalServiceRemovalFailureIsConsistencyError(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.addPledges(t, "Alice")
	store := &pendingSaveFailure{PendingRepository: f.pending}
	svc := NewApprovalService(store, f.ledger, f.roster, nil)

	entry, err := svc.Request(ctx, "Alice", 2, "x", "Bob")
	require.NoError(t, err)

	store.fail = true
	result, err := svc.Approve(ctx, entry.ID)
	require.True(t, appErrors.HasCode(err, appErrors.ErrConsistency.Code))
	require.False(t, result.Success)
	require.Equal(t, 1, f.ledgerRows(t))
}
