package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pledge-points-api/internal/models"
	"github.com/noah-isme/pledge-points-api/internal/repository"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

type interviewStore interface {
	Path() string
	Load(ctx context.Context) (repository.LoadResult[models.InterviewEntry], error)
	Save(ctx context.Context, entries []models.InterviewEntry) error
}

type rosterNames interface {
	Names(ctx context.Context) ([]string, error)
}

// AddInterviewRequest describes an interview to record.
type AddInterviewRequest struct {
	Pledge  string    `validate:"required"`
	Brother string    `validate:"required"`
	Quality int       `validate:"quality_flag"`
	Time    time.Time `validate:"required"`
}

var interviewMessages = map[string]string{
	"Pledge.required":  "pledge is required",
	"Brother.required": "brother is required",
	"Time.required":    "interview time is required",
}

// InterviewService records interviews and aggregates them per pledge and brother.
type InterviewService struct {
	repo      interviewStore
	roster    rosterNames
	cache     *CacheService
	monitor   storageMonitor
	validator *validator.Validate
	logger    *zap.Logger
	mu        sync.Mutex
}

// NewInterviewService constructs the service.
func NewInterviewService(repo interviewStore, roster rosterNames, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *InterviewService {
	if validate == nil {
		validate = validator.New()
	}
	RegisterLedgerValidations(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterviewService{
		repo:      repo,
		roster:    roster,
		cache:     cache,
		monitor:   storageMonitor{logger: logger, metrics: metrics},
		validator: validate,
		logger:    logger,
	}
}

// SetRecoveryObserver registers a StorageRecoveredEmpty observer for the interview log.
func (s *InterviewService) SetRecoveryObserver(observer RecoveryObserver) {
	s.monitor.observer = observer
}

// Add records an interview. The pledge must be on the roster and quality must be 0 or 1.
func (s *InterviewService) Add(ctx context.Context, req AddInterviewRequest) (*models.InterviewEntry, error) {
	req.Pledge = strings.TrimSpace(req.Pledge)
	req.Brother = strings.TrimSpace(req.Brother)
	if err := s.validator.StructExcept(req, "Quality"); err != nil {
		return nil, validationError(err, interviewMessages)
	}
	if err := s.requirePledge(ctx, req.Pledge); err != nil {
		return nil, err
	}
	if err := s.validator.Var(req.Quality, "quality_flag"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid quality, quality must be 0 or 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	entry := models.InterviewEntry{
		Time:    req.Time.UTC().Truncate(time.Microsecond),
		Pledge:  req.Pledge,
		Brother: req.Brother,
		Quality: req.Quality,
	}
	if err := s.repo.Save(ctx, append(entries, entry)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save interview")
	}
	s.cache.InvalidateInterviews(ctx)
	s.logger.Info("interview recorded",
		zap.String("pledge", entry.Pledge),
		zap.String("brother", entry.Brother),
		zap.Int("quality", entry.Quality),
	)
	return &entry, nil
}

// All returns every interview row.
func (s *InterviewService) All(ctx context.Context) ([]models.InterviewEntry, error) {
	return s.load(ctx)
}

// QualityCount sums the quality flags of a roster pledge.
func (s *InterviewService) QualityCount(ctx context.Context, pledge string) (int, error) {
	pledge = strings.TrimSpace(pledge)
	if err := s.requirePledge(ctx, pledge); err != nil {
		return 0, err
	}
	entries, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, entry := range entries {
		if entry.Pledge == pledge {
			total += entry.Quality
		}
	}
	return total, nil
}

// Summary returns one row per roster pledge in roster order. PercentQuality is nil for pledges
// without interviews.
func (s *InterviewService) Summary(ctx context.Context) ([]models.InterviewSummary, error) {
	var cached []models.InterviewSummary
	if s.cache.Fetch(ctx, CacheKeyInterviewSummary, &cached) {
		return cached, nil
	}
	names, err := s.roster.Names(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read roster")
	}
	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(names))
	quality := make(map[string]int, len(names))
	for _, entry := range entries {
		counts[entry.Pledge]++
		quality[entry.Pledge] += entry.Quality
	}

	summary := make([]models.InterviewSummary, 0, len(names))
	for _, name := range names {
		row := models.InterviewSummary{Pledge: name, NumberOfInterviews: counts[name], NQuality: quality[name]}
		if row.NumberOfInterviews > 0 {
			pct := float64(row.NQuality) / float64(row.NumberOfInterviews) * 100
			row.PercentQuality = &pct
		}
		summary = append(summary, row)
	}
	s.cache.Store(ctx, CacheKeyInterviewSummary, summary)
	return summary, nil
}

// RankingsByPledge counts interviews per pledge, most interviewed first.
func (s *InterviewService) RankingsByPledge(ctx context.Context) ([]models.InterviewCount, error) {
	return s.rankings(ctx, "pledge", func(e models.InterviewEntry) string { return e.Pledge })
}

// RankingsByBrother counts interviews per brother, most active first.
func (s *InterviewService) RankingsByBrother(ctx context.Context) ([]models.InterviewCount, error) {
	return s.rankings(ctx, "brother", func(e models.InterviewEntry) string { return e.Brother })
}

func (s *InterviewService) rankings(ctx context.Context, by string, key func(models.InterviewEntry) string) ([]models.InterviewCount, error) {
	cacheKey := CacheKeyInterviewPrefix + "rankings:" + by
	var cached []models.InterviewCount
	if s.cache.Fetch(ctx, cacheKey, &cached) {
		return cached, nil
	}
	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, entry := range entries {
		counts[key(entry)]++
	}
	result := make([]models.InterviewCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, models.InterviewCount{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	s.cache.Store(ctx, cacheKey, result)
	return result, nil
}

// ForPledge lists the interviews of one pledge in time order.
func (s *InterviewService) ForPledge(ctx context.Context, pledge string) ([]models.InterviewEntry, error) {
	pledge = strings.TrimSpace(pledge)
	return s.filter(ctx, func(e models.InterviewEntry) bool { return e.Pledge == pledge })
}

// ForBrother lists the interviews held by one brother in time order.
func (s *InterviewService) ForBrother(ctx context.Context, brother string) ([]models.InterviewEntry, error) {
	brother = strings.TrimSpace(brother)
	return s.filter(ctx, func(e models.InterviewEntry) bool { return e.Brother == brother })
}

func (s *InterviewService) filter(ctx context.Context, keep func(models.InterviewEntry) bool) ([]models.InterviewEntry, error) {
	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]models.InterviewEntry, 0)
	for _, entry := range entries {
		if keep(entry) {
			rows = append(rows, entry)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	return rows, nil
}

func (s *InterviewService) requirePledge(ctx context.Context, pledge string) error {
	names, err := s.roster.Names(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read roster")
	}
	for _, name := range names {
		if name == pledge {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("pledge %s not found", pledge))
}

func (s *InterviewService) load(ctx context.Context) ([]models.InterviewEntry, error) {
	result, err := s.repo.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read interviews")
	}
	s.monitor.loaded(StoreInterviews, s.repo.Path(), result.Status, result.Cause, result.Skipped)
	return result.Rows, nil
}
