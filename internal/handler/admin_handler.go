package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pledge-points-api/internal/dto"
	"github.com/noah-isme/pledge-points-api/internal/models"
	"github.com/noah-isme/pledge-points-api/internal/service"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
	"github.com/noah-isme/pledge-points-api/pkg/response"
)

type logReader interface {
	Recent(hours int) (*models.LogExcerpt, error)
	Size() (string, error)
}

type statusReporter interface {
	Status(ctx context.Context) *models.SystemStatus
}

type digestTrigger interface {
	Trigger() error
}

// AdminHandler exposes operator endpoints: log tail, status and digest trigger.
type AdminHandler struct {
	logs   logReader
	status statusReporter
	digest digestTrigger
}

// NewAdminHandler constructs handler. digest may be nil when the digest is disabled.
func NewAdminHandler(logs logReader, status statusReporter, digest digestTrigger) *AdminHandler {
	return &AdminHandler{logs: logs, status: status, digest: digest}
}

// Logs godoc
// @Summary Recent log lines, most recent first
// @Tags Admin
// @Produce json
// @Param hours query int false "Hours to look back (1-168, default 24)"
// @Success 200 {object} response.Envelope
// @Router /admin/logs [get]
func (h *AdminHandler) Logs(c *gin.Context) {
	hours, err := queryInt(c, "hours", service.DefaultLogHours)
	if err != nil {
		response.Error(c, err)
		return
	}
	excerpt, err := h.logs.Recent(hours)
	respond(c, excerpt, err)
}

// LogSize godoc
// @Summary Size of the log file
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/logs/size [get]
func (h *AdminHandler) LogSize(c *gin.Context) {
	size, err := h.logs.Size()
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, dto.LogSizeResponse{Size: size})
}

// Status godoc
// @Summary Uptime, runtime and ledger counts
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/status [get]
func (h *AdminHandler) Status(c *gin.Context) {
	ok(c, h.status.Status(c.Request.Context()))
}

// Digest godoc
// @Summary Queue a rankings digest now
// @Tags Admin
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /admin/digest [post]
func (h *AdminHandler) Digest(c *gin.Context) {
	if h.digest == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "digest is not enabled"))
		return
	}
	if err := h.digest.Trigger(); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue digest"))
		return
	}
	response.JSON(c, http.StatusAccepted, dto.MessageResponse{Message: "Digest queued."}, nil)
}
