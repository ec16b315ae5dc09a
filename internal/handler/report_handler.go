package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pledge-points-api/internal/models"
	"github.com/noah-isme/pledge-points-api/internal/service"
	"github.com/noah-isme/pledge-points-api/pkg/response"
)

type reportService interface {
	PointsBars(ctx context.Context) ([]models.PointsBar, error)
	CumulativeSeries(ctx context.Context) (*models.CumulativeSeries, error)
	PledgeSeries(ctx context.Context, name string) (*models.PledgeSeries, error)
	RenderPointsGraph(ctx context.Context) (*models.Artifact, error)
	RenderPointsHistory(ctx context.Context) (*models.Artifact, error)
	RenderPledgeGraph(ctx context.Context, name string) (*models.Artifact, error)
	RenderRankingsPDF(ctx context.Context) (*models.Artifact, error)
	LedgerCSV(ctx context.Context) ([]byte, error)
	ResolveDownload(token string) (*service.ReportDownload, error)
}

// ReportHandler exposes chart data, rendered reports and signed downloads.
type ReportHandler struct {
	reports reportService
	now     func() time.Time
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports, now: time.Now}
}

// PointsData godoc
// @Summary Points per pledge in roster order
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/points [get]
func (h *ReportHandler) PointsData(c *gin.Context) {
	bars, err := h.reports.PointsBars(c.Request.Context())
	respond(c, bars, err)
}

// HistoryData godoc
// @Summary Cumulative points over time for active pledges
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/history [get]
func (h *ReportHandler) HistoryData(c *gin.Context) {
	series, err := h.reports.CumulativeSeries(c.Request.Context())
	respond(c, series, err)
}

// PledgeData godoc
// @Summary Cumulative points over time for one pledge
// @Tags Reports
// @Produce json
// @Param name path string true "Pledge name"
// @Success 200 {object} response.Envelope
// @Router /reports/pledges/{name}/series [get]
func (h *ReportHandler) PledgeData(c *gin.Context) {
	series, err := h.reports.PledgeSeries(c.Request.Context(), c.Param("name"))
	respond(c, series, err)
}

// PointsGraph godoc
// @Summary Render the points bar chart
// @Tags Reports
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /reports/points-graph [post]
func (h *ReportHandler) PointsGraph(c *gin.Context) {
	artifact, err := h.reports.RenderPointsGraph(c.Request.Context())
	created(c, artifact, err)
}

// PointsHistory godoc
// @Summary Render the cumulative points line chart
// @Tags Reports
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /reports/points-history [post]
func (h *ReportHandler) PointsHistory(c *gin.Context) {
	artifact, err := h.reports.RenderPointsHistory(c.Request.Context())
	created(c, artifact, err)
}

// PledgeGraph godoc
// @Summary Render one pledge's points over time
// @Tags Reports
// @Produce json
// @Param name path string true "Pledge name"
// @Success 201 {object} response.Envelope
// @Router /reports/pledges/{name}/graph [post]
func (h *ReportHandler) PledgeGraph(c *gin.Context) {
	artifact, err := h.reports.RenderPledgeGraph(c.Request.Context(), c.Param("name"))
	created(c, artifact, err)
}

// RankingsPDF godoc
// @Summary Render the rankings as a PDF
// @Tags Reports
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /reports/rankings-pdf [post]
func (h *ReportHandler) RankingsPDF(c *gin.Context) {
	artifact, err := h.reports.RenderRankingsPDF(c.Request.Context())
	created(c, artifact, err)
}

// PointsFile godoc
// @Summary Download the raw points ledger as CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {file} file
// @Router /reports/points-file [get]
func (h *ReportHandler) PointsFile(c *gin.Context) {
	payload, err := h.reports.LedgerCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("Points_%s.csv", h.now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv", payload)
}

// Download godoc
// @Summary Download a rendered artifact through a signed token
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Router /downloads/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.reports.ResolveDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, download.Filename, download.ContentType, info.Size(), download.File)
}

func respond(c *gin.Context, data interface{}, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, data)
}

func created(c *gin.Context, artifact *models.Artifact, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, artifact)
}
