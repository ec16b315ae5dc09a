package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pledge-points-api/internal/models"
	"github.com/noah-isme/pledge-points-api/internal/repository"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

type pendingStore interface {
	Path() string
	Load(ctx context.Context) (repository.LoadResult[models.PendingEntry], error)
	Save(ctx context.Context, entries []models.PendingEntry) error
	NextID(ctx context.Context, floor int64) (int64, error)
}

type pointApplier interface {
	Apply(ctx context.Context, name string, delta float64, comment string) (*models.LedgerEntry, error)
}

type rosterChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// ApprovalService runs the request → approve/reject workflow for point changes.
type ApprovalService struct {
	pending pendingStore
	ledger  pointApplier
	roster  rosterChecker
	metrics *MetricsService
	monitor storageMonitor
	logger  *zap.Logger
	now     func() time.Time
	mu      sync.Mutex
}

// ApprovalServiceOption configures the service.
type ApprovalServiceOption func(*ApprovalService)

// WithApprovalClock overrides the time source.
func WithApprovalClock(now func() time.Time) ApprovalServiceOption {
	return func(s *ApprovalService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithApprovalMetrics attaches Prometheus counters.
func WithApprovalMetrics(metrics *MetricsService) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.metrics = metrics
	}
}

// WithApprovalRecoveryObserver registers a StorageRecoveredEmpty observer for the pending queue.
func WithApprovalRecoveryObserver(observer RecoveryObserver) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.monitor.observer = observer
	}
}

// NewApprovalService constructs the service.
func NewApprovalService(pending pendingStore, ledger pointApplier, roster rosterChecker, logger *zap.Logger, opts ...ApprovalServiceOption) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ApprovalService{pending: pending, ledger: ledger, roster: roster, logger: logger, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	svc.monitor.logger = logger
	svc.monitor.metrics = svc.metrics
	return svc
}

// Request queues a point change for review. Only the pledge is checked here; limits and the
// comment are enforced when the request is approved.
func (s *ApprovalService) Request(ctx context.Context, name string, delta float64, comment, requester string) (*models.PendingEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pledge name cannot be empty")
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "point change must be a number")
	}
	exists, err := s.roster.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("pledge %s not found", name))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	id, err := s.pending.NextID(ctx, repository.MaxPendingID(entries))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to assign request id")
	}
	entry := models.PendingEntry{
		ID:          id,
		Time:        s.now().UTC().Truncate(time.Microsecond),
		Name:        name,
		PointChange: delta,
		Comment:     strings.TrimSpace(comment),
		Requester:   strings.TrimSpace(requester),
	}
	if err := s.pending.Save(ctx, append(entries, entry)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save pending request")
	}
	s.logger.Info("point change requested",
		zap.Int64("id", entry.ID),
		zap.String("pledge", entry.Name),
		zap.Float64("point_change", entry.PointChange),
		zap.String("requester", entry.Requester),
	)
	return &entry, nil
}

// List returns pending requests in creation order.
func (s *ApprovalService) List(ctx context.Context) ([]models.PendingEntry, error) {
	return s.load(ctx)
}

// Approve applies request id to the ledger and dequeues it. When the ledger rejects the change
// the request stays queued and the returned result carries the reason alongside the error.
func (s *ApprovalService) Approve(ctx context.Context, id int64) (*models.ReviewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, idx, err := s.find(ctx, id)
	if err != nil {
		s.metrics.RecordReview(models.PendingStatusApproved, false)
		return nil, err
	}
	entry := entries[idx]
	result := &models.ReviewResult{ID: id, Status: models.PendingStatusRequested, Entry: &entry}

	if _, err := s.ledger.Apply(ctx, entry.Name, entry.PointChange, entry.Comment); err != nil {
		s.metrics.RecordReview(models.PendingStatusApproved, false)
		result.Message = "Failed to apply points: " + appErrors.FromError(err).Message
		s.logger.Warn("pending request not applied", zap.Int64("id", id), zap.Error(err))
		return result, err
	}

	remaining := removeAt(entries, idx)
	if err := s.pending.Save(ctx, remaining); err != nil {
		s.metrics.RecordReview(models.PendingStatusApproved, false)
		s.logger.Error("points applied but pending request not removed", zap.Int64("id", id), zap.Error(err))
		result.Status = models.PendingStatusApproved
		result.Message = fmt.Sprintf("points applied but pending request %d could not be removed", id)
		return result, appErrors.Wrap(err, appErrors.ErrConsistency.Code, appErrors.ErrConsistency.Status, result.Message)
	}

	s.metrics.RecordReview(models.PendingStatusApproved, true)
	s.logger.Info("pending request approved", zap.Int64("id", id), zap.String("pledge", entry.Name))
	result.Success = true
	result.Status = models.PendingStatusApproved
	result.Message = "Points approved and applied"
	return result, nil
}

// Reject dequeues request id without touching the ledger.
func (s *ApprovalService) Reject(ctx context.Context, id int64) (*models.ReviewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, idx, err := s.find(ctx, id)
	if err != nil {
		s.metrics.RecordReview(models.PendingStatusRejected, false)
		return nil, err
	}
	entry := entries[idx]
	if err := s.pending.Save(ctx, removeAt(entries, idx)); err != nil {
		s.metrics.RecordReview(models.PendingStatusRejected, false)
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save pending requests")
	}

	s.metrics.RecordReview(models.PendingStatusRejected, true)
	s.logger.Info("pending request rejected", zap.Int64("id", id), zap.String("pledge", entry.Name))
	return &models.ReviewResult{
		ID:      id,
		Success: true,
		Status:  models.PendingStatusRejected,
		Message: "Points rejected",
		Entry:   &entry,
	}, nil
}

// ApproveMany approves each id independently and reports results in input order.
func (s *ApprovalService) ApproveMany(ctx context.Context, ids []int64) []models.ReviewResult {
	return s.each(ctx, ids, s.Approve)
}

// RejectMany rejects each id independently and reports results in input order.
func (s *ApprovalService) RejectMany(ctx context.Context, ids []int64) []models.ReviewResult {
	return s.each(ctx, ids, s.Reject)
}

func (s *ApprovalService) each(ctx context.Context, ids []int64, review func(context.Context, int64) (*models.ReviewResult, error)) []models.ReviewResult {
	results := make([]models.ReviewResult, 0, len(ids))
	for _, id := range ids {
		result, err := review(ctx, id)
		if result == nil {
			result = &models.ReviewResult{ID: id, Status: models.PendingStatusRequested}
		}
		if err != nil && result.Message == "" {
			result.Message = appErrors.FromError(err).Message
		}
		results = append(results, *result)
	}
	return results
}

func (s *ApprovalService) load(ctx context.Context) ([]models.PendingEntry, error) {
	result, err := s.pending.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read pending requests")
	}
	s.monitor.loaded(StorePending, s.pending.Path(), result.Status, result.Cause, result.Skipped)
	return result.Rows, nil
}

func (s *ApprovalService) find(ctx context.Context, id int64) ([]models.PendingEntry, int, error) {
	entries, err := s.load(ctx)
	if err != nil {
		return nil, -1, err
	}
	for i, entry := range entries {
		if entry.ID == id {
			return entries, i, nil
		}
	}
	return nil, -1, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("pending request %d not found", id))
}

func removeAt(entries []models.PendingEntry, idx int) []models.PendingEntry {
	remaining := make([]models.PendingEntry, 0, len(entries)-1)
	remaining = append(remaining, entries[:idx]...)
	return append(remaining, entries[idx+1:]...)
}
