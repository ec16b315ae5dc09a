package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pledge-points-api/internal/models"
	"github.com/noah-isme/pledge-points-api/pkg/jobs"
	"github.com/noah-isme/pledge-points-api/pkg/notify"
)

type rankingStub []string

func (r rankingStub) RankedPledges(ctx context.Context) []string { return r }

type exporterStub struct {
	url string
	err error
}

func (e exporterStub) ExportLedger(ctx context.Context) (*models.Artifact, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &models.Artifact{URL: e.url}, nil
}

type cleanerStub struct {
	calls  int
	maxAge time.Duration
}

func (c *cleanerStub) CleanOld(maxAge time.Duration) (int, error) {
	c.calls++
	c.maxAge = maxAge
	return 0, nil
}

type notifierStub struct {
	mu   sync.Mutex
	sent map[string][]notify.Message
	err  error
}

func (n *notifierStub) Send(ctx context.Context, url string, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	if n.sent == nil {
		n.sent = map[string][]notify.Message{}
	}
	n.sent[url] = append(n.sent[url], msg)
	return nil
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

func TestDigestRunQueuesDeliveryPerWebhook(t *testing.T) {
	cleaner := &cleanerStub{}
	queue := &dispatcherStub{}
	metrics := NewMetricsService()
	svc := NewDigestService(rankingStub{"1. Alice: 5 points", "2. Bob: 3 points"}, exporterStub{url: "/api/v1/downloads/tok"}, cleaner, &notifierStub{}, queue,
		DigestConfig{Webhooks: []string{"https://a.example/hook", "https://b.example/hook"}, LogRetention: 48 * time.Hour}, metrics, nil)

	svc.Run(context.Background())

	require.Equal(t, 1, cleaner.calls)
	require.Equal(t, 48*time.Hour, cleaner.maxAge)
	require.Len(t, queue.jobs, 2)
	for _, job := range queue.jobs {
		require.Equal(t, JobDigestDelivery, job.Type)
		delivery := job.Payload.(DigestDelivery)
		require.Equal(t, "Current Pledge Rankings:\n1. Alice: 5 points\n2. Bob: 3 points", delivery.Message.Content)
		require.Equal(t, "/api/v1/downloads/tok", delivery.Message.AttachmentURL)
	}
}

func TestDigestRunContinuesWhenExportFails(t *testing.T) {
	queue := &dispatcherStub{}
	svc := NewDigestService(rankingStub{"1. Alice: 5 points"}, exporterStub{err: errors.New("disk full")}, nil, &notifierStub{}, queue,
		DigestConfig{Webhooks: []string{"https://a.example/hook"}}, nil, nil)

	svc.Run(context.Background())

	require.Len(t, queue.jobs, 1)
	require.Empty(t, queue.jobs[0].Payload.(DigestDelivery).Message.AttachmentURL)
}

func TestDigestHandleDelivery(t *testing.T) {
	notifier := &notifierStub{}
	svc := NewDigestService(rankingStub{}, nil, nil, notifier, &dispatcherStub{}, DigestConfig{}, nil, nil)
	job := jobs.Job{ID: "1", Type: JobDigestDelivery, Payload: DigestDelivery{Webhook: "https://a.example/hook", Message: notify.Message{Content: "hi"}}}

	require.NoError(t, svc.Handle(context.Background(), job))
	require.Len(t, notifier.sent["https://a.example/hook"], 1)

	notifier.err = errors.New("unreachable")
	require.Error(t, svc.Handle(context.Background(), job))
}

func TestDigestMessagesSplitAtLimit(t *testing.T) {
	lines := make([]string, 0, 120)
	for i := 1; i <= 120; i++ {
		lines = append(lines, fmt.Sprintf("%d. Pledge Number %03d: %d points", i, i, 200-i))
	}

	messages := DigestMessages(lines, "/dl")
	require.Greater(t, len(messages), 1)
	require.Equal(t, "/dl", messages[0].AttachmentURL)
	require.True(t, strings.HasPrefix(messages[0].Content, "Current Pledge Rankings:"))
	joined := make([]string, 0, len(messages))
	for i, msg := range messages {
		require.LessOrEqual(t, len(msg.Content), notify.MaxContentLength)
		if i > 0 {
			require.Empty(t, msg.AttachmentURL)
		}
		joined = append(joined, msg.Content)
	}
	require.Equal(t, "Current Pledge Rankings:\n"+strings.Join(lines, "\n"), strings.Join(joined, "\n"))
}

func TestDigestMessagesWithoutRankings(t *testing.T) {
	messages := DigestMessages(nil, "")
	require.Len(t, messages, 1)
	require.Equal(t, "Current Pledge Rankings:", messages[0].Content)
}

func TestDigestNextRun(t *testing.T) {
	svc := NewDigestService(rankingStub{}, nil, nil, &notifierStub{}, &dispatcherStub{},
		DigestConfig{Times: []string{"21:00", "bogus", "09:30"}, Location: time.UTC}, nil, nil)

	next, ok := svc.NextRun(time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC))
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 9, 1, 9, 30, 0, 0, time.UTC), next)

	next, ok = svc.NextRun(time.Date(2024, 9, 1, 21, 0, 0, 0, time.UTC))
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 9, 2, 9, 30, 0, 0, time.UTC), next)

	empty := NewDigestService(rankingStub{}, nil, nil, &notifierStub{}, &dispatcherStub{}, DigestConfig{}, nil, nil)
	_, ok = empty.NextRun(time.Now())
	require.False(t, ok)
}

func TestDigestTriggerRunsThroughQueue(t *testing.T) {
	notifier := &notifierStub{}
	var svc *DigestService
	queue := jobs.NewQueue("digest", func(ctx context.Context, job jobs.Job) error {
		return svc.Handle(ctx, job)
	}, jobs.QueueConfig{Workers: 1})
	svc = NewDigestService(rankingStub{"1. Alice: 5 points"}, nil, nil, notifier, queue,
		DigestConfig{Webhooks: []string{"https://a.example/hook"}}, nil, nil)
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, svc.Trigger())
	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.sent["https://a.example/hook"]) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRedactWebhook(t *testing.T) {
	require.Equal(t, "https://discord.com/...", redactWebhook("https://discord.com/api/webhooks/1/secret"))
	require.Equal(t, "localhost:8080", redactWebhook("localhost:8080"))
}
