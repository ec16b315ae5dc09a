package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pledge-points-api/internal/models"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
	"github.com/noah-isme/pledge-points-api/pkg/export"
	"github.com/noah-isme/pledge-points-api/pkg/storage"
)

type chartStub struct {
	delay time.Duration
	bars  []export.Bar
	lines []export.Line
}

func (c *chartStub) Bars(title string, bars []export.Bar) ([]byte, error) {
	time.Sleep(c.delay)
	c.bars = bars
	return []byte("png-bars"), nil
}

func (c *chartStub) Lines(title string, lines []export.Line) ([]byte, error) {
	time.Sleep(c.delay)
	c.lines = lines
	return []byte("png-lines"), nil
}

func newReportServiceForTest(t *testing.T, f *ledgerFixture, cfg ReportConfig, opts ...ReportServiceOption) (*ReportService, *storage.LocalStorage) {
	t.Helper()
	artifacts, err := storage.NewLocalStorage(filepath.Join(f.dir, "artifacts"))
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	return NewReportService(f.ledger, f.rosterRepo, artifacts, signer, cfg, nil, opts...), artifacts
}

func TestReportServicePointsBarsFollowsRosterOrder(t *testing.T) {
	f := newLedgerFixture(t)
	f.addPledges(t, "Zed", "Amy")
	ctx := context.Background()
	_, err := f.ledger.Apply(ctx, "Amy", 4, "a")
	require.NoError(t, err)
	svc, _ := newReportServiceForTest(t, f, ReportConfig{})

	bars, err := svc.PointsBars(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.PointsBar{{Name: "Zed", Points: 0}, {Name: "Amy", Points: 4}}, bars)
}

func TestReportServiceCumulativeSeries(t *testing.T) {
	f := newLedgerFixture(t)
	f.addPledges(t, "Alice", "Bob", "Gone")
	ctx := context.Background()
	_, err := f.ledger.Apply(ctx, "Alice", 5, "a1")
	require.NoError(t, err)
	_, err = f.ledger.Apply(ctx, "Bob", 3, "b1")
	require.NoError(t, err)
	_, err = f.ledger.Apply(ctx, "Gone", 9, "g1")
	require.NoError(t, err)
	_, err = f.ledger.Apply(ctx, "Alice", -2, "a2")
	require.NoError(t, err)
	require.NoError(t, f.roster.Remove(ctx, "Gone"))

	svc, _ := newReportServiceForTest(t, f, ReportConfig{})
	series, err := svc.CumulativeSeries(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Alice", "Bob"}, series.Names)
	require.Len(t, series.Times, 3)
	require.Equal(t, []int{5, 5, 3}, series.Totals["Alice"])
	require.Equal(t, []int{0, 3, 3}, series.Totals["Bob"])
	require.True(t, series.Times[0].Before(series.Times[1]))
}

func TestReportServicePledgeSeries(t *testing.T) {
	f := newLedgerFixture(t)
	f.addPledges(t, "Alice")
	ctx := context.Background()
	for _, delta := range []float64{10, -4, 7} {
		_, err := f.ledger.Apply(ctx, "Alice", delta, "note")
		require.NoError(t, err)
	}
	svc, _ := newReportServiceForTest(t, f, ReportConfig{})

	series, err := svc.PledgeSeries(ctx, "Alice")
	require.NoError(t, err)
	totals := make([]int, 0, len(series.Points))
	for _, point := range series.Points {
		totals = append(totals, point.Total)
	}
	require.Equal(t, []int{10, 6, 13}, totals)

	_, err = svc.PledgeSeries(ctx, "Nobody")
	require.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestReportServiceRenderAndDownload(t *testing.T) {
	f := newLedgerFixture(t)
	f.addPledges(t, "Alice", "Bob")
	ctx := context.Background()
	_, err := f.ledger.Apply(ctx, "Alice", 5, "good")
	require.NoError(t, err)
	charts := &chartStub{}
	svc, _ := newReportServiceForTest(t, f, ReportConfig{APIPrefix: "/api/v1/"}, WithChartRenderer(charts))

	artifact, err := svc.RenderPointsGraph(ctx)
	require.NoError(t, err)
	require.Equal(t, models.ArtifactPointsGraph, artifact.Kind)
	require.Equal(t, "image/png", artifact.ContentType)
	require.True(t, strings.HasPrefix(artifact.URL, "/api/v1/downloads/"))
	require.Equal(t, []export.Bar{{Label: "Alice", Value: 5}, {Label: "Bob", Value: 0}}, charts.bars)

	token := strings.TrimPrefix(artifact.URL, "/api/v1/downloads/")
	download, err := svc.ResolveDownload(token)
	require.NoError(t, err)
	defer download.File.Close() //nolint:errcheck
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	require.Equal(t, "png-bars", string(body))

	_, err = svc.ResolveDownload(token + "x")
	require.True(t, appErrors.HasCode(err, appErrors.ErrForbidden.Code))
}

func TestReportServiceRankingsPDFAndLedgerCSV(t *testing.T) {
	f := newLedgerFixture(t)
	f.addPledges(t, "Alice", "Bob")
	ctx := context.Background()
	_, err := f.ledger.Apply(ctx, "Bob", 3, "helped, at setup")
	require.NoError(t, err)
	svc, artifacts := newReportServiceForTest(t, f, ReportConfig{})

	artifact, err := svc.RenderRankingsPDF(ctx)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", artifact.ContentType)
	file, err := artifacts.Open(artifact.Path)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck
	head := make([]byte, 4)
	_, err = io.ReadFull(file, head)
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(head))

	payload, err := svc.LedgerCSV(ctx)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Equal(t, "Time,Name,Point_Change,Comments", lines[0])
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], `Bob,3,"helped, at setup"`)
}

func TestReportServiceEmptyHistoryIsNotFound(t *testing.T) {
	f := newLedgerFixture(t)
	f.addPledges(t, "Alice")
	svc, _ := newReportServiceForTest(t, f, ReportConfig{}, WithChartRenderer(&chartStub{}))

	_, err := svc.RenderPointsHistory(context.Background())
	require.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestReportServiceRenderTimeout(t *testing.T) {
	f := newLedgerFixture(t)
	f.addPledges(t, "Alice")
	charts := &chartStub{delay: 200 * time.Millisecond}
	svc, _ := newReportServiceForTest(t, f, ReportConfig{RenderTimeout: 20 * time.Millisecond}, WithChartRenderer(charts))

	_, err := svc.RenderPointsGraph(context.Background())
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrTimeout.Code))
}

func TestReportServiceCleanupRemovesStaleArtifacts(t *testing.T) {
	f := newLedgerFixture(t)
	f.addPledges(t, "Alice")
	svc, artifacts := newReportServiceForTest(t, f, ReportConfig{ArtifactTTL: time.Nanosecond}, WithChartRenderer(&chartStub{}))

	artifact, err := svc.RenderPointsGraph(context.Background())
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	deleted, err := svc.Cleanup()
	require.NoError(t, err)
	require.Contains(t, deleted, artifact.Path)
	_, err = artifacts.Open(artifact.Path)
	require.Error(t, err)
}
