package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pledge-points-api/internal/models"
	"github.com/noah-isme/pledge-points-api/internal/repository"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
	"github.com/noah-isme/pledge-points-api/pkg/export"
	"github.com/noah-isme/pledge-points-api/pkg/storage"
)

const defaultRenderTimeout = 10 * time.Second

type ledgerSnapshot interface {
	Load(ctx context.Context) ([]models.LedgerEntry, models.LoadStatus, error)
	Standings(ctx context.Context) ([]models.PledgeStanding, error)
}

type artifactStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type chartRenderer interface {
	Bars(title string, bars []export.Bar) ([]byte, error)
	Lines(title string, lines []export.Line) ([]byte, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportConfig tunes artifact rendering and retention.
type ReportConfig struct {
	APIPrefix       string
	ArtifactTTL     time.Duration
	RenderTimeout   time.Duration
	CleanupInterval time.Duration
}

// ReportDownload is a resolved signed download.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ReportService derives chart data from the ledger and renders it into downloadable artifacts.
type ReportService struct {
	ledger    ledgerSnapshot
	roster    rosterNames
	artifacts artifactStore
	signer    *storage.SignedURLSigner
	charts    chartRenderer
	csv       csvRenderer
	pdf       pdfRenderer
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ReportConfig
	now       func() time.Time
}

// ReportServiceOption configures the service.
type ReportServiceOption func(*ReportService)

// WithChartRenderer overrides the PNG chart renderer.
func WithChartRenderer(charts chartRenderer) ReportServiceOption {
	return func(s *ReportService) {
		if charts != nil {
			s.charts = charts
		}
	}
}

// WithTableRenderers overrides the CSV and PDF renderers.
func WithTableRenderers(csv csvRenderer, pdf pdfRenderer) ReportServiceOption {
	return func(s *ReportService) {
		if csv != nil {
			s.csv = csv
		}
		if pdf != nil {
			s.pdf = pdf
		}
	}
}

// WithReportMetrics records render durations.
func WithReportMetrics(metrics *MetricsService) ReportServiceOption {
	return func(s *ReportService) {
		s.metrics = metrics
	}
}

// NewReportService constructs the service with the pkg/export renderers.
func NewReportService(ledger ledgerSnapshot, roster rosterNames, artifacts artifactStore, signer *storage.SignedURLSigner, cfg ReportConfig, logger *zap.Logger, opts ...ReportServiceOption) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = defaultRenderTimeout
	}
	if cfg.ArtifactTTL <= 0 && signer != nil {
		cfg.ArtifactTTL = signer.TTL()
	}
	svc := &ReportService{
		ledger:    ledger,
		roster:    roster,
		artifacts: artifacts,
		signer:    signer,
		charts:    export.NewChartRenderer(),
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// PointsBars returns the current total of every roster pledge in roster order.
func (s *ReportService) PointsBars(ctx context.Context) ([]models.PointsBar, error) {
	names, entries, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	bars := make([]models.PointsBar, 0, len(names))
	for _, name := range names {
		bars = append(bars, models.PointsBar{Name: name, Points: models.SumPoints(entries, name)})
	}
	return bars, nil
}

// CumulativeSeries sums the point changes of roster pledges per distinct timestamp and
// accumulates them over time. Pledges without any ledger row are omitted; a pledge with no
// change at a given instant carries its previous total.
func (s *ReportService) CumulativeSeries(ctx context.Context) (*models.CumulativeSeries, error) {
	names, entries, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	active := make(map[string]struct{}, len(names))
	for _, name := range names {
		active[name] = struct{}{}
	}

	deltas := make(map[time.Time]map[string]int)
	present := make(map[string]struct{})
	for _, entry := range entries {
		if _, ok := active[entry.Name]; !ok {
			continue
		}
		at := entry.Time.UTC()
		if deltas[at] == nil {
			deltas[at] = make(map[string]int)
		}
		deltas[at][entry.Name] += entry.PointChange
		present[entry.Name] = struct{}{}
	}

	series := &models.CumulativeSeries{
		Times:  make([]time.Time, 0, len(deltas)),
		Names:  make([]string, 0, len(present)),
		Totals: make(map[string][]int, len(present)),
	}
	for at := range deltas {
		series.Times = append(series.Times, at)
	}
	sort.Slice(series.Times, func(i, j int) bool { return series.Times[i].Before(series.Times[j]) })
	for name := range present {
		series.Names = append(series.Names, name)
	}
	sort.Strings(series.Names)

	for _, name := range series.Names {
		running := 0
		totals := make([]int, len(series.Times))
		for i, at := range series.Times {
			running += deltas[at][name]
			totals[i] = running
		}
		series.Totals[name] = totals
	}
	return series, nil
}

// PledgeSeries returns the running total of one roster pledge after each of its ledger rows.
func (s *ReportService) PledgeSeries(ctx context.Context, name string) (*models.PledgeSeries, error) {
	name = strings.TrimSpace(name)
	names, entries, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !containsName(names, name) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("pledge %s not found", name))
	}

	rows := make([]models.LedgerEntry, 0)
	for _, entry := range entries {
		if entry.Name == name {
			rows = append(rows, entry)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })

	series := &models.PledgeSeries{Name: name, Points: make([]models.SeriesPoint, 0, len(rows))}
	running := 0
	for _, row := range rows {
		running += row.PointChange
		series.Points = append(series.Points, models.SeriesPoint{Time: row.Time, Total: running})
	}
	return series, nil
}

// RenderPointsGraph draws the current totals as a bar chart.
func (s *ReportService) RenderPointsGraph(ctx context.Context) (*models.Artifact, error) {
	return s.render(ctx, models.ArtifactPointsGraph, func(ctx context.Context) ([]byte, error) {
		bars, err := s.PointsBars(ctx)
		if err != nil {
			return nil, err
		}
		if len(bars) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, NoticeNoPledges)
		}
		data := make([]export.Bar, len(bars))
		for i, bar := range bars {
			data[i] = export.Bar{Label: bar.Name, Value: float64(bar.Points)}
		}
		return s.charts.Bars("Pledge Points", data)
	})
}

// RenderPointsHistory draws every active pledge's cumulative total over time.
func (s *ReportService) RenderPointsHistory(ctx context.Context) (*models.Artifact, error) {
	return s.render(ctx, models.ArtifactPointsHistory, func(ctx context.Context) ([]byte, error) {
		series, err := s.CumulativeSeries(ctx)
		if err != nil {
			return nil, err
		}
		if len(series.Times) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, NoticeNoValidData)
		}
		lines := make([]export.Line, 0, len(series.Names))
		for _, name := range series.Names {
			lines = append(lines, export.Line{Name: name, Times: series.Times, Values: toFloats(series.Totals[name])})
		}
		return s.charts.Lines("Pledge Points Over Time", lines)
	})
}

// RenderPledgeGraph draws one pledge's cumulative total over time.
func (s *ReportService) RenderPledgeGraph(ctx context.Context, name string) (*models.Artifact, error) {
	return s.render(ctx, models.ArtifactPledgeGraph, func(ctx context.Context) ([]byte, error) {
		series, err := s.PledgeSeries(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(series.Points) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no points recorded for %s", series.Name))
		}
		line := export.Line{Name: series.Name}
		for _, point := range series.Points {
			line.Times = append(line.Times, point.Time)
			line.Values = append(line.Values, float64(point.Total))
		}
		return s.charts.Lines("Points Over Time - "+series.Name, []export.Line{line})
	})
}

// RenderRankingsPDF renders the ranked standings as a PDF table.
func (s *ReportService) RenderRankingsPDF(ctx context.Context) (*models.Artifact, error) {
	return s.render(ctx, models.ArtifactRankingsPDF, func(ctx context.Context) ([]byte, error) {
		standings, err := s.ledger.Standings(ctx)
		if err != nil {
			return nil, err
		}
		if len(standings) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, NoticeNoValidData)
		}
		data := export.NewDataset("Rank", "Pledge", "Points", "Last Comment")
		data.Widths = []float64{1, 3, 1.5, 7}
		for _, row := range standings {
			data.Append(strconv.Itoa(row.Rank), row.Name, strconv.Itoa(row.Points), row.LastComment)
		}
		return s.pdf.Render(data, "Pledge Rankings")
	})
}

// LedgerCSV renders the full ledger in its on-disk column layout.
func (s *ReportService) LedgerCSV(ctx context.Context) ([]byte, error) {
	entries, _, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, err
	}
	data := export.NewDataset(models.LedgerColumns...)
	for _, entry := range entries {
		data.Append(repository.FormatTimestamp(entry.Time), entry.Name, strconv.Itoa(entry.PointChange), entry.Comment)
	}
	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export points file")
	}
	return payload, nil
}

// ExportLedger stores the ledger CSV as a downloadable artifact.
func (s *ReportService) ExportLedger(ctx context.Context) (*models.Artifact, error) {
	return s.render(ctx, models.ArtifactLedgerCSV, s.LedgerCSV)
}

// ResolveDownload validates a signed token and opens the artifact it references.
func (s *ReportService) ResolveDownload(token string) (*ReportDownload, error) {
	signed, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.artifacts.Open(signed.Path)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "artifact no longer available")
	}
	return &ReportDownload{
		File:        file,
		Filename:    filepath.Base(signed.Path),
		ContentType: contentTypeFor(signed.Path),
		ExpiresAt:   signed.ExpiresAt,
	}, nil
}

// Cleanup removes artifacts older than the signed URL TTL.
func (s *ReportService) Cleanup() ([]string, error) {
	deleted, err := s.artifacts.CleanupOlderThan(s.cfg.ArtifactTTL)
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 {
		s.logger.Info("stale artifacts removed", zap.Int("count", len(deleted)))
	}
	return deleted, nil
}

// StartCleanup boots a goroutine that purges expired artifacts periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Cleanup(); err != nil {
					s.logger.Warn("artifact cleanup failed", zap.Error(err))
				}
			}
		}
	}()
}

type renderOutcome struct {
	payload []byte
	err     error
}

// render runs build under the render timeout. A build that overruns is left to finish in the
// background and its output is discarded.
func (s *ReportService) render(ctx context.Context, kind models.ArtifactKind, build func(context.Context) ([]byte, error)) (*models.Artifact, error) {
	start := time.Now()
	done := make(chan renderOutcome, 1)
	go func() {
		payload, err := build(context.WithoutCancel(ctx))
		done <- renderOutcome{payload: payload, err: err}
	}()

	timer := time.NewTimer(s.cfg.RenderTimeout)
	defer timer.Stop()

	var out renderOutcome
	select {
	case out = <-done:
	case <-timer.C:
		s.logger.Warn("report render timed out", zap.String("kind", string(kind)), zap.Duration("timeout", s.cfg.RenderTimeout))
		return nil, appErrors.Clone(appErrors.ErrTimeout, fmt.Sprintf("Command timed out after %d seconds.", int(s.cfg.RenderTimeout.Seconds())))
	case <-ctx.Done():
		return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, "request cancelled before the report was ready")
	}
	s.metrics.ObserveRender(kind, time.Since(start))
	if out.err != nil {
		s.logger.Warn("report render failed", zap.String("kind", string(kind)), zap.Error(out.err))
		if appErrors.HasCode(out.err, appErrors.ErrNotFound.Code) || appErrors.HasCode(out.err, appErrors.ErrPersistence.Code) {
			return nil, out.err
		}
		return nil, appErrors.Wrap(out.err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return s.store(kind, out.payload)
}

func (s *ReportService) store(kind models.ArtifactKind, payload []byte) (*models.Artifact, error) {
	id := uuid.NewString()
	ext := extensionFor(kind)
	filename := fmt.Sprintf("%s_%s_%s.%s", kind, s.now().UTC().Format("20060102_150405"), id, ext)
	relPath, err := s.artifacts.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("report rendered", zap.String("kind", string(kind)), zap.String("artifact_id", id), zap.Int("bytes", len(payload)))
	return &models.Artifact{
		ID:          id,
		Kind:        kind,
		Path:        relPath,
		ContentType: contentTypeFor(filename),
		URL:         fmt.Sprintf("%s/downloads/%s", prefix, token),
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *ReportService) snapshot(ctx context.Context) ([]string, []models.LedgerEntry, error) {
	names, err := s.roster.Names(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read roster")
	}
	entries, _, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return names, entries, nil
}

func extensionFor(kind models.ArtifactKind) string {
	switch kind {
	case models.ArtifactRankingsPDF:
		return "pdf"
	case models.ArtifactLedgerCSV:
		return "csv"
	default:
		return "png"
	}
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

func containsName(names []string, name string) bool {
	for _, candidate := range names {
		if candidate == name {
			return true
		}
	}
	return false
}

func toFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
