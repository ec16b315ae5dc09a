package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pledge-points-api/internal/models"
	"github.com/noah-isme/pledge-points-api/pkg/jobs"
	"github.com/noah-isme/pledge-points-api/pkg/notify"
)

// Digest job types.
const (
	JobDigest         = "digest"
	JobDigestDelivery = "digest.deliver"
)

const digestHeader = "Current Pledge Rankings:"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type rankingSource interface {
	RankedPledges(ctx context.Context) []string
}

type ledgerExporter interface {
	ExportLedger(ctx context.Context) (*models.Artifact, error)
}

type logCleaner interface {
	CleanOld(maxAge time.Duration) (int, error)
}

type digestNotifier interface {
	Send(ctx context.Context, url string, msg notify.Message) error
}

// DigestConfig schedules the rankings digest and lists its destinations.
type DigestConfig struct {
	Times        []string
	Webhooks     []string
	LogRetention time.Duration
	Location     *time.Location
}

// DigestDelivery is the payload of a JobDigestDelivery job.
type DigestDelivery struct {
	Webhook string
	Message notify.Message
}

// DigestService posts the rankings and a ledger export to webhooks at fixed wall-clock times.
// Work runs on a jobs.Queue: one digest job fans out into a delivery job per webhook message so
// a failing webhook is retried alone.
type DigestService struct {
	rankings rankingSource
	exporter ledgerExporter
	logs     logCleaner
	notifier digestNotifier
	queue    jobDispatcher
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      DigestConfig
	times    []clockTime
	now      func() time.Time
}

// NewDigestService constructs the service. Unparseable schedule entries are logged and skipped.
func NewDigestService(rankings rankingSource, exporter ledgerExporter, logs logCleaner, notifier digestNotifier, queue jobDispatcher, cfg DigestConfig, metrics *MetricsService, logger *zap.Logger) *DigestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LogRetention <= 0 {
		cfg.LogRetention = DefaultLogRetention
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	times := make([]clockTime, 0, len(cfg.Times))
	for _, raw := range cfg.Times {
		ct, err := parseClockTime(raw)
		if err != nil {
			logger.Warn("ignoring digest time", zap.String("time", raw), zap.Error(err))
			continue
		}
		times = append(times, ct)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].minutes() < times[j].minutes() })
	return &DigestService{
		rankings: rankings,
		exporter: exporter,
		logs:     logs,
		notifier: notifier,
		queue:    queue,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		times:    times,
		now:      time.Now,
	}
}

// Trigger enqueues a digest run.
func (s *DigestService) Trigger() error {
	return s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: JobDigest})
}

// Handle processes digest queue jobs.
func (s *DigestService) Handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case JobDigest:
		s.Run(ctx)
		return nil
	case JobDigestDelivery:
		delivery, ok := job.Payload.(DigestDelivery)
		if !ok {
			s.logger.Error("digest delivery payload malformed", zap.String("job_id", job.ID))
			return nil
		}
		if err := s.notifier.Send(ctx, delivery.Webhook, delivery.Message); err != nil {
			s.metrics.RecordDigestRun("delivery_failed")
			return err
		}
		s.metrics.RecordDigestRun("delivered")
		return nil
	default:
		s.logger.Warn("unknown digest job type", zap.String("type", job.Type))
		return nil
	}
}

// Run cleans old log lines, renders the rankings and ledger export, and queues one delivery per
// webhook message. Failures of individual steps are logged and do not stop later steps.
func (s *DigestService) Run(ctx context.Context) {
	s.logger.Info("starting daily digest")
	if s.logs != nil {
		if _, err := s.logs.CleanOld(s.cfg.LogRetention); err != nil {
			s.logger.Error("log cleanup failed", zap.Error(err))
		}
	}

	lines := s.rankings.RankedPledges(ctx)
	attachment := ""
	if s.exporter != nil {
		artifact, err := s.exporter.ExportLedger(ctx)
		if err != nil {
			s.logger.Error("ledger export failed", zap.Error(err))
		} else {
			attachment = artifact.URL
		}
	}

	messages := DigestMessages(lines, attachment)
	status := "ok"
	for _, webhook := range s.cfg.Webhooks {
		for _, msg := range messages {
			job := jobs.Job{ID: uuid.NewString(), Type: JobDigestDelivery, Payload: DigestDelivery{Webhook: webhook, Message: msg}}
			if err := s.queue.Enqueue(job); err != nil {
				status = "partial"
				s.logger.Error("failed to queue digest delivery", zap.String("webhook", redactWebhook(webhook)), zap.Error(err))
			}
		}
	}
	s.metrics.RecordDigestRun(status)
	s.logger.Info("daily digest queued", zap.Int("webhooks", len(s.cfg.Webhooks)), zap.Int("messages", len(messages)), zap.String("status", status))
}

// DigestMessages splits the rankings into webhook-sized messages. The first message carries the
// header and the ledger attachment link.
func DigestMessages(lines []string, attachmentURL string) []notify.Message {
	messages := make([]notify.Message, 0, 1)
	var current strings.Builder
	current.WriteString(digestHeader)
	for _, line := range lines {
		if current.Len()+1+len(line) > notify.MaxContentLength {
			messages = append(messages, notify.Message{Content: current.String()})
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	messages = append(messages, notify.Message{Content: current.String()})
	messages[0].AttachmentURL = attachmentURL
	return messages
}

// NextRun returns the first scheduled time strictly after from, and false when no valid times
// are configured.
func (s *DigestService) NextRun(from time.Time) (time.Time, bool) {
	if len(s.times) == 0 {
		return time.Time{}, false
	}
	local := from.In(s.cfg.Location)
	for day := 0; day < 2; day++ {
		base := time.Date(local.Year(), local.Month(), local.Day()+day, 0, 0, 0, 0, s.cfg.Location)
		for _, ct := range s.times {
			candidate := time.Date(base.Year(), base.Month(), base.Day(), ct.hour, ct.minute, 0, 0, s.cfg.Location)
			if candidate.After(from) {
				return candidate, true
			}
		}
	}
	return time.Time{}, false
}

// StartScheduler triggers the digest at each configured time until ctx is done.
func (s *DigestService) StartScheduler(ctx context.Context) {
	next, ok := s.NextRun(s.now())
	if !ok {
		s.logger.Warn("digest scheduler not started: no valid times")
		return
	}
	go func() {
		for {
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			if err := s.Trigger(); err != nil {
				s.metrics.RecordDigestRun("enqueue_failed")
				s.logger.Error("failed to queue digest", zap.Error(err))
			}
			next, _ = s.NextRun(next)
		}
	}()
	s.logger.Info("digest scheduler started", zap.Time("next_run", next))
}

type clockTime struct {
	hour   int
	minute int
}

func (c clockTime) minutes() int {
	return c.hour*60 + c.minute
}

func parseClockTime(raw string) (clockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return clockTime{}, fmt.Errorf("expected HH:MM: %w", err)
	}
	return clockTime{hour: t.Hour(), minute: t.Minute()}, nil
}

// redactWebhook keeps the host of a webhook URL; the path usually embeds a secret.
func redactWebhook(url string) string {
	rest := url
	scheme := ""
	if idx := strings.Index(rest, "://"); idx >= 0 {
		scheme, rest = rest[:idx+3], rest[idx+3:]
	}
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx] + "/..."
	}
	return scheme + rest
}
