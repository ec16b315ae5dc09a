package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

// Cache keys for ledger read models.
const (
	CacheKeyRankings         = "rankings"
	CacheKeyStandings        = "standings"
	CacheKeyInterviewSummary = "interviews:summary"
	CacheKeyInterviewPrefix  = "interviews:"
)

// ledgerKeys are derived from the roster or the ledger. The interview summary is listed too
// because it has one row per roster pledge.
var ledgerKeys = []string{CacheKeyRankings, CacheKeyStandings, CacheKeyInterviewSummary}

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService keeps derived read models (rankings, standings, interview aggregates) between
// writes. The flat files stay authoritative: cache failures are logged and treated as misses,
// and every write path invalidates the models it affects.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCacheService constructs the service. A nil repo disables caching.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger.With(zap.String("component", "read_model_cache"))}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Fetch decodes the read model stored under key into dest and reports whether it was found.
func (s *CacheService) Fetch(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true
	case errors.Is(err, appErrors.ErrCacheMiss):
	default:
		s.logger.Warn("read model lookup failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

// Store saves a freshly computed read model.
func (s *CacheService) Store(ctx context.Context, key string, value interface{}) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("read model store failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateLedger drops every read model derived from the roster or the ledger.
func (s *CacheService) InvalidateLedger(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Delete(ctx, ledgerKeys...); err != nil {
		s.logger.Warn("read model invalidation failed", zap.String("scope", "ledger"), zap.Error(err))
	}
}

// InvalidateInterviews drops every read model derived from the interview log.
func (s *CacheService) InvalidateInterviews(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, CacheKeyInterviewPrefix+"*"); err != nil {
		s.logger.Warn("read model invalidation failed", zap.String("scope", "interviews"), zap.Error(err))
	}
}
