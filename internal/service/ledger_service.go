package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/noah-isme/pledge-points-api/internal/models"
	"github.com/noah-isme/pledge-points-api/internal/repository"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

// Ranking notices returned in place of ranking lines.
const (
	NoticePledgeFileMissing = "Error: Pledge file not found"
	NoticePointsFileMissing = "Error: Points file not found"
	NoticePledgeReadFailed  = "Error reading pledge data"
	NoticeNoPledges         = "No pledges currently in system"
	NoticeNoValidData       = "No valid pledge data found"
)

const rankingsFailedMessage = "An unexpected error occurred while retrieving rankings"

// BackupPrefix names ledger backups; the timestamp suffix sorts chronologically.
const BackupPrefix = "Points_backup_"

const (
	backupTimeLayout    = "20060102_150405.000000"
	defaultPointLimit   = 35
	defaultCommentMax   = 500
	defaultBackupRetain = 20
	rankingCommentMax   = 100
	rankingLineMax      = 1000
	truncationMarker    = "..."
	pointChangeApplied  = "applied"
	pointChangeRejected = "rejected"
	pointChangeFailed   = "failed"
)

type ledgerStore interface {
	Path() string
	FileExists() bool
	Load(ctx context.Context) (repository.LoadResult[models.LedgerEntry], error)
	Save(ctx context.Context, entries []models.LedgerEntry) error
}

type rosterReader interface {
	FileExists() bool
	List(ctx context.Context) ([]string, error)
	Names(ctx context.Context) ([]string, error)
}

type backupStore interface {
	CopyFrom(src, filename string) (string, error)
	CopyTo(filename, dst string) error
	Prune(prefix string, keep int) ([]string, error)
}

// LedgerService validates and commits point changes and derives totals and rankings.
type LedgerService struct {
	ledger       ledgerStore
	roster       rosterReader
	backups      backupStore
	cache        *CacheService
	metrics      *MetricsService
	monitor      storageMonitor
	logger       *zap.Logger
	now          func() time.Time
	pointLimit   int
	commentMax   int
	backupRetain int
	mu           sync.Mutex
}

// LedgerServiceOption configures the service.
type LedgerServiceOption func(*LedgerService)

// WithLedgerClock overrides the time source.
func WithLedgerClock(now func() time.Time) LedgerServiceOption {
	return func(s *LedgerService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLedgerLimits overrides the point and comment limits.
func WithLedgerLimits(pointLimit, commentMax int) LedgerServiceOption {
	return func(s *LedgerService) {
		if pointLimit > 0 {
			s.pointLimit = pointLimit
		}
		if commentMax > len(truncationMarker) {
			s.commentMax = commentMax
		}
	}
}

// WithBackupRetention sets how many ledger backups are kept.
func WithBackupRetention(keep int) LedgerServiceOption {
	return func(s *LedgerService) {
		if keep > 0 {
			s.backupRetain = keep
		}
	}
}

// WithLedgerCache enables cached rankings.
func WithLedgerCache(cache *CacheService) LedgerServiceOption {
	return func(s *LedgerService) {
		s.cache = cache
	}
}

// WithLedgerMetrics attaches Prometheus counters.
func WithLedgerMetrics(metrics *MetricsService) LedgerServiceOption {
	return func(s *LedgerService) {
		s.metrics = metrics
	}
}

// WithRecoveryObserver registers a StorageRecoveredEmpty observer.
func WithRecoveryObserver(observer RecoveryObserver) LedgerServiceOption {
	return func(s *LedgerService) {
		s.monitor.observer = observer
	}
}

// NewLedgerService constructs the service with defaults.
func NewLedgerService(ledger ledgerStore, roster rosterReader, backups backupStore, logger *zap.Logger, opts ...LedgerServiceOption) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &LedgerService{
		ledger:       ledger,
		roster:       roster,
		backups:      backups,
		logger:       logger,
		now:          time.Now,
		pointLimit:   defaultPointLimit,
		commentMax:   defaultCommentMax,
		backupRetain: defaultBackupRetain,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	svc.monitor.logger = logger
	svc.monitor.metrics = svc.metrics
	return svc
}

// PointLimit returns the largest accepted absolute point change.
func (s *LedgerService) PointLimit() int {
	return s.pointLimit
}

// Load returns every ledger row and how the table was obtained.
func (s *LedgerService) Load(ctx context.Context) ([]models.LedgerEntry, models.LoadStatus, error) {
	result, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, result.Status, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read points file")
	}
	s.monitor.loaded(StoreLedger, s.ledger.Path(), result.Status, result.Cause, result.Skipped)
	return result.Rows, result.Status, nil
}

// Apply validates and commits a point change. delta is truncated toward zero.
func (s *LedgerService) Apply(ctx context.Context, name string, delta float64, comment string) (*models.LedgerEntry, error) {
	entry, err := s.validate(ctx, name, delta, comment)
	if err != nil {
		s.metrics.RecordPointChange(pointChangeRejected)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, _, err := s.Load(ctx)
	if err != nil {
		s.metrics.RecordPointChange(pointChangeFailed)
		return nil, err
	}
	entry.Time = s.now().UTC().Truncate(time.Microsecond)
	updated := append(entries, *entry)

	backup := s.backup(entry.Time)
	if err := s.ledger.Save(ctx, updated); err != nil {
		s.logger.Error("failed to save points file", zap.String("pledge", entry.Name), zap.Error(err))
		s.restore(backup)
		s.metrics.RecordPointChange(pointChangeFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save points file")
	}
	if err := s.verify(ctx, *entry, len(updated)); err != nil {
		s.logger.Error("point change not found after save", zap.String("pledge", entry.Name), zap.Error(err))
		s.restore(backup)
		s.metrics.RecordPointChange(pointChangeFailed)
		return nil, err
	}

	s.cache.InvalidateLedger(ctx)
	s.metrics.RecordPointChange(pointChangeApplied)
	s.logger.Info("points updated",
		zap.String("pledge", entry.Name),
		zap.Int("point_change", entry.PointChange),
		zap.String("comment", entry.Comment),
	)
	return entry, nil
}

func (s *LedgerService) validate(ctx context.Context, name string, delta float64, comment string) (*models.LedgerEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pledge name cannot be empty")
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "point change must be a number")
	}
	truncated := math.Trunc(delta)
	if math.Abs(truncated) > float64(s.pointLimit) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("point change cannot exceed %d points at once", s.pointLimit))
	}
	if strings.TrimSpace(comment) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a comment is required when changing points")
	}
	if err := s.requirePledge(ctx, name); err != nil {
		return nil, err
	}
	sanitized := SanitizeComment(comment, s.commentMax)
	if sanitized == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment must contain printable characters")
	}
	return &models.LedgerEntry{Name: name, PointChange: int(truncated), Comment: sanitized}, nil
}

func (s *LedgerService) requirePledge(ctx context.Context, name string) error {
	names, err := s.roster.Names(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read roster")
	}
	for _, existing := range names {
		if existing == name {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("pledge %s not found", name))
}

// backup copies the current ledger file into the backup store and prunes old copies. It returns
// the backup name, or "" when no backup was taken.
func (s *LedgerService) backup(at time.Time) string {
	if s.backups == nil || !s.ledger.FileExists() {
		return ""
	}
	name := BackupPrefix + at.Format(backupTimeLayout) + ".csv"
	if _, err := s.backups.CopyFrom(s.ledger.Path(), name); err != nil {
		s.logger.Warn("failed to create points backup", zap.Error(err))
		return ""
	}
	if pruned, err := s.backups.Prune(BackupPrefix, s.backupRetain); err != nil {
		s.logger.Warn("failed to prune points backups", zap.Error(err))
	} else if len(pruned) > 0 {
		s.logger.Debug("pruned points backups", zap.Strings("files", pruned))
	}
	return name
}

func (s *LedgerService) restore(backup string) {
	if backup == "" {
		return
	}
	if err := s.backups.CopyTo(backup, s.ledger.Path()); err != nil {
		s.logger.Error("failed to restore points file from backup", zap.String("backup", backup), zap.Error(err))
		return
	}
	s.logger.Info("restored points file from backup", zap.String("backup", backup))
}

func (s *LedgerService) verify(ctx context.Context, entry models.LedgerEntry, wantRows int) error {
	result, err := s.ledger.Load(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrConsistency.Code, appErrors.ErrConsistency.Status, "failed to verify points file")
	}
	if result.Status != models.LoadOK || len(result.Rows) != wantRows {
		return appErrors.Clone(appErrors.ErrConsistency, "points file did not contain the new entry after save")
	}
	last := result.Rows[len(result.Rows)-1]
	if !last.Time.Equal(entry.Time) || last.Name != entry.Name || last.PointChange != entry.PointChange || last.Comment != entry.Comment {
		return appErrors.Clone(appErrors.ErrConsistency, "points file did not contain the new entry after save")
	}
	return nil
}

// PointsFor totals the committed points of a roster pledge.
func (s *LedgerService) PointsFor(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if err := s.requirePledge(ctx, name); err != nil {
		return 0, err
	}
	entries, _, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	return models.SumPoints(entries, name), nil
}

// History returns the ledger rows of name sorted by time. Rows of pledges no longer on the
// roster are still returned.
func (s *LedgerService) History(ctx context.Context, name string) ([]models.LedgerEntry, error) {
	name = strings.TrimSpace(name)
	entries, _, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]models.LedgerEntry, 0)
	for _, entry := range entries {
		if entry.Name == name {
			rows = append(rows, entry)
		}
	}
	if len(rows) == 0 {
		if err := s.requirePledge(ctx, name); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	return rows, nil
}

// Standings returns the ranked rows behind RankedPledges. Missing files surface as NOT_FOUND;
// an empty roster yields no rows.
func (s *LedgerService) Standings(ctx context.Context) ([]models.PledgeStanding, error) {
	var cached []models.PledgeStanding
	if s.cache.Fetch(ctx, CacheKeyStandings, &cached) {
		return cached, nil
	}
	rows, notice, err := s.computeStandings(ctx)
	if err != nil {
		return nil, err
	}
	switch notice {
	case "":
	case NoticePledgeFileMissing, NoticePointsFileMissing:
		return nil, appErrors.Clone(appErrors.ErrNotFound, notice)
	case NoticePledgeReadFailed:
		return nil, appErrors.Clone(appErrors.ErrPersistence, notice)
	default:
		return []models.PledgeStanding{}, nil
	}
	s.cache.Store(ctx, CacheKeyStandings, rows)
	return rows, nil
}

// RankedPledges renders the standings as display lines, or a single notice line when there is
// nothing to rank.
func (s *LedgerService) RankedPledges(ctx context.Context) []string {
	var cached []string
	if s.cache.Fetch(ctx, CacheKeyRankings, &cached) {
		return cached
	}
	rows, notice, err := s.computeStandings(ctx)
	if err != nil {
		s.logger.Error("failed to compute rankings", zap.Error(err))
		return []string{rankingsFailedMessage}
	}
	if notice != "" {
		return []string{notice}
	}
	lines := formatStandings(rows)
	s.cache.Store(ctx, CacheKeyRankings, lines)
	return lines
}

// Rankings returns the display lines together with the standings they were formatted from,
// both taken from a single read of the roster and ledger. When there is nothing to rank the
// lines hold the notice and the standings are empty.
func (s *LedgerService) Rankings(ctx context.Context) ([]string, []models.PledgeStanding) {
	var cached []models.PledgeStanding
	if s.cache.Fetch(ctx, CacheKeyStandings, &cached) {
		return formatStandings(cached), cached
	}
	rows, notice, err := s.computeStandings(ctx)
	if err != nil {
		s.logger.Error("failed to compute rankings", zap.Error(err))
		return []string{rankingsFailedMessage}, []models.PledgeStanding{}
	}
	if notice != "" {
		return []string{notice}, []models.PledgeStanding{}
	}
	s.cache.Store(ctx, CacheKeyStandings, rows)
	return formatStandings(rows), rows
}

func formatStandings(rows []models.PledgeStanding) []string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, FormatStanding(row))
	}
	return lines
}

func (s *LedgerService) computeStandings(ctx context.Context) ([]models.PledgeStanding, string, error) {
	if !s.roster.FileExists() {
		s.logger.Error("pledges file not found")
		return nil, NoticePledgeFileMissing, nil
	}
	if !s.ledger.FileExists() {
		s.logger.Error("points file not found")
		return nil, NoticePointsFileMissing, nil
	}
	lines, err := s.roster.List(ctx)
	if err != nil {
		s.logger.Error("failed to read pledges", zap.Error(err))
		return nil, NoticePledgeReadFailed, nil
	}
	if len(lines) == 0 {
		s.logger.Warn("no pledges found in system")
		return nil, NoticeNoPledges, nil
	}
	entries, _, err := s.Load(ctx)
	if err != nil {
		return nil, "", err
	}

	latest := make(map[string]models.LedgerEntry)
	for _, entry := range entries {
		if prev, ok := latest[entry.Name]; !ok || !entry.Time.Before(prev.Time) {
			latest[entry.Name] = entry
		}
	}

	rows := make([]models.PledgeStanding, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for i, line := range lines {
		name := strings.TrimSpace(line)
		if name == "" {
			s.logger.Warn("skipping blank roster entry", zap.Int("line", i+1))
			continue
		}
		if _, dup := seen[name]; dup {
			s.logger.Warn("skipping duplicate roster entry", zap.String("pledge", name))
			continue
		}
		seen[name] = struct{}{}
		row := models.PledgeStanding{Name: name, Points: models.SumPoints(entries, name)}
		if last, ok := latest[name]; ok {
			row.LastComment = SanitizeComment(last.Comment, s.commentMax)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, NoticeNoValidData, nil
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		li, lj := strings.ToLower(rows[i].Name), strings.ToLower(rows[j].Name)
		if li != lj {
			return li < lj
		}
		return rows[i].Name < rows[j].Name
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, "", nil
}

// FormatStanding renders "{rank}. {name}: {points} points ({comment})" with the comment part
// omitted when empty.
func FormatStanding(row models.PledgeStanding) string {
	line := fmt.Sprintf("%d. %s: %d points", row.Rank, row.Name, row.Points)
	if row.LastComment != "" {
		line += " (" + truncateRunes(row.LastComment, rankingCommentMax) + ")"
	}
	return truncateRunes(line, rankingLineMax)
}

// SanitizeComment trims comment, drops non-printable characters and caps it at max runes,
// ending with "..." when cut.
func SanitizeComment(comment string, max int) string {
	comment = strings.TrimSpace(comment)
	var builder strings.Builder
	builder.Grow(len(comment))
	for _, r := range comment {
		if unicode.IsPrint(r) {
			builder.WriteRune(r)
		}
	}
	return truncateRunes(strings.TrimSpace(builder.String()), max)
}

func truncateRunes(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	if max <= len(truncationMarker) {
		return string(runes[:max])
	}
	return string(runes[:max-len(truncationMarker)]) + truncationMarker
}
