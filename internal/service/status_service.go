package service

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pledge-points-api/internal/models"
)

type pendingLister interface {
	List(ctx context.Context) ([]models.PendingEntry, error)
}

type interviewLister interface {
	All(ctx context.Context) ([]models.InterviewEntry, error)
}

type ledgerLoader interface {
	Load(ctx context.Context) ([]models.LedgerEntry, models.LoadStatus, error)
}

// StatusService reports process and ledger health.
type StatusService struct {
	startedAt  time.Time
	roster     rosterNames
	ledger     ledgerLoader
	pending    pendingLister
	interviews interviewLister
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewStatusService constructs the service; startedAt anchors the reported uptime.
func NewStatusService(startedAt time.Time, roster rosterNames, ledger ledgerLoader, pending pendingLister, interviews interviewLister, metrics *MetricsService, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		startedAt:  startedAt,
		roster:     roster,
		ledger:     ledger,
		pending:    pending,
		interviews: interviews,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Status collects the runtime snapshot. Counts that cannot be read are logged and left at zero.
func (s *StatusService) Status(ctx context.Context) *models.SystemStatus {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := &models.SystemStatus{
		StartedAt:   s.startedAt.UTC(),
		Uptime:      FormatUptime(s.now().Sub(s.startedAt)),
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		Goroutines:  runtime.NumGoroutine(),
		HeapInUseMB: float64(mem.HeapInuse) / (1024 * 1024),
		Metrics:     s.metrics.Snapshot(),
	}

	if names, err := s.roster.Names(ctx); err != nil {
		s.logger.Warn("status: roster unavailable", zap.Error(err))
	} else {
		status.Pledges = len(names)
	}
	if entries, _, err := s.ledger.Load(ctx); err != nil {
		s.logger.Warn("status: ledger unavailable", zap.Error(err))
	} else {
		status.LedgerRows = len(entries)
	}
	if pending, err := s.pending.List(ctx); err != nil {
		s.logger.Warn("status: pending queue unavailable", zap.Error(err))
	} else {
		status.PendingCount = len(pending)
	}
	if interviews, err := s.interviews.All(ctx); err != nil {
		s.logger.Warn("status: interview log unavailable", zap.Error(err))
	} else {
		status.Interviews = len(interviews)
	}
	return status
}

// FormatUptime renders d as "H:MM:SS", prefixed with "N day(s), " past 24 hours.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	clock := fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	switch days {
	case 0:
		return clock
	case 1:
		return "1 day, " + clock
	default:
		return fmt.Sprintf("%d days, %s", days, clock)
	}
}
