package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pledge-points-api/internal/dto"
	"github.com/noah-isme/pledge-points-api/internal/middleware"
	"github.com/noah-isme/pledge-points-api/internal/models"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
	"github.com/noah-isme/pledge-points-api/pkg/response"
)

type approvalService interface {
	Request(ctx context.Context, name string, delta float64, comment, requester string) (*models.PendingEntry, error)
	List(ctx context.Context) ([]models.PendingEntry, error)
	ApproveMany(ctx context.Context, ids []int64) []models.ReviewResult
	RejectMany(ctx context.Context, ids []int64) []models.ReviewResult
}

// PendingHandler exposes the request and review workflow.
type PendingHandler struct {
	approvals approvalService
}

// NewPendingHandler constructs handler.
func NewPendingHandler(approvals approvalService) *PendingHandler {
	return &PendingHandler{approvals: approvals}
}

// List godoc
// @Summary Pending point change requests
// @Tags Pending
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pending [get]
func (h *PendingHandler) List(c *gin.Context) {
	entries, err := h.approvals.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, entries)
}

// Request godoc
// @Summary Request a point change for review
// @Tags Pending
// @Accept json
// @Produce json
// @Param payload body dto.PointChangeRequest true "Point change"
// @Success 201 {object} response.Envelope
// @Router /pending [post]
func (h *PendingHandler) Request(c *gin.Context) {
	var req dto.PointChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.PointChange == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "point_change is required"))
		return
	}
	entry, err := h.approvals.Request(c.Request.Context(), req.Name, *req.PointChange, req.Comment, requesterName(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, entry, nil, middleware.ExtractMeta(c))
}

// Approve godoc
// @Summary Approve pending requests
// @Tags Pending
// @Accept json
// @Produce json
// @Param payload body dto.ReviewRequest true "Request IDs"
// @Success 200 {object} response.Envelope
// @Router /pending/approve [post]
func (h *PendingHandler) Approve(c *gin.Context) {
	h.review(c, h.approvals.ApproveMany)
}

// Reject godoc
// @Summary Reject pending requests
// @Tags Pending
// @Accept json
// @Produce json
// @Param payload body dto.ReviewRequest true "Request IDs"
// @Success 200 {object} response.Envelope
// @Router /pending/reject [post]
func (h *PendingHandler) Reject(c *gin.Context) {
	h.review(c, h.approvals.RejectMany)
}

func (h *PendingHandler) review(c *gin.Context, apply func(context.Context, []int64) []models.ReviewResult) {
	var req dto.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.IDs) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at least one request id is required"))
		return
	}
	results := apply(c.Request.Context(), req.IDs)
	resp := dto.ReviewResponse{Results: results}
	for _, result := range results {
		if result.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	ok(c, resp)
}
