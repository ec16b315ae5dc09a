package handler

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pledge-points-api/internal/dto"
	"github.com/noah-isme/pledge-points-api/internal/models"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
	"github.com/noah-isme/pledge-points-api/pkg/response"
)

// ZeroChangeMessage answers a point change of 0.
const ZeroChangeMessage = "Point change is 0. No changes made."

type pointsService interface {
	Apply(ctx context.Context, name string, delta float64, comment string) (*models.LedgerEntry, error)
	Rankings(ctx context.Context) ([]string, []models.PledgeStanding)
}

// PointsHandler exposes direct point changes and rankings.
type PointsHandler struct {
	ledger pointsService
}

// NewPointsHandler constructs handler.
func NewPointsHandler(ledger pointsService) *PointsHandler {
	return &PointsHandler{ledger: ledger}
}

// Apply godoc
// @Summary Apply a point change directly
// @Tags Points
// @Accept json
// @Produce json
// @Param payload body dto.PointChangeRequest true "Point change"
// @Success 201 {object} response.Envelope
// @Router /points [post]
func (h *PointsHandler) Apply(c *gin.Context) {
	var req dto.PointChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.PointChange == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "point_change is required"))
		return
	}
	if math.Trunc(*req.PointChange) == 0 {
		ok(c, dto.MessageResponse{Message: ZeroChangeMessage})
		return
	}
	entry, err := h.ledger.Apply(c.Request.Context(), req.Name, *req.PointChange, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, entry, nil, map[string]interface{}{
		"message": fmt.Sprintf("Updated %s's points by %d.", entry.Name, entry.PointChange),
	})
}

// Rankings godoc
// @Summary Current pledge rankings
// @Tags Points
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rankings [get]
func (h *PointsHandler) Rankings(c *gin.Context) {
	lines, standings := h.ledger.Rankings(c.Request.Context())
	ok(c, dto.RankingsResponse{Lines: lines, Standings: standings})
}
