package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pledge-points-api/internal/dto"
	"github.com/noah-isme/pledge-points-api/internal/middleware"
	"github.com/noah-isme/pledge-points-api/internal/models"
	"github.com/noah-isme/pledge-points-api/pkg/response"
)

type rosterService interface {
	Add(ctx context.Context, name string) (string, error)
	Remove(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

type pledgeLedger interface {
	PointsFor(ctx context.Context, name string) (int, error)
	History(ctx context.Context, name string) ([]models.LedgerEntry, error)
}

// PledgeHandler exposes roster endpoints.
type PledgeHandler struct {
	roster rosterService
	ledger pledgeLedger
}

// NewPledgeHandler constructs handler.
func NewPledgeHandler(roster rosterService, ledger pledgeLedger) *PledgeHandler {
	return &PledgeHandler{roster: roster, ledger: ledger}
}

// List godoc
// @Summary List pledges
// @Tags Pledges
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pledges [get]
func (h *PledgeHandler) List(c *gin.Context) {
	names, err := h.roster.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, names)
}

// Search godoc
// @Summary Autocomplete pledge names
// @Tags Pledges
// @Produce json
// @Param q query string false "Substring to match"
// @Param limit query int false "Maximum matches (25)"
// @Success 200 {object} response.Envelope
// @Router /pledges/search [get]
func (h *PledgeHandler) Search(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	names, err := h.roster.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, names)
}

// Add godoc
// @Summary Add a pledge
// @Tags Pledges
// @Accept json
// @Produce json
// @Param payload body dto.AddPledgeRequest true "Pledge"
// @Success 201 {object} response.Envelope
// @Router /pledges [post]
func (h *PledgeHandler) Add(c *gin.Context) {
	var req dto.AddPledgeRequest
	if !bindJSON(c, &req) {
		return
	}
	name, err := h.roster.Add(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, dto.MessageResponse{Message: fmt.Sprintf("Added pledge %s.", name)}, nil, middleware.ExtractMeta(c))
}

// Remove godoc
// @Summary Remove a pledge
// @Tags Pledges
// @Produce json
// @Param name path string true "Pledge name"
// @Success 200 {object} response.Envelope
// @Router /pledges/{name} [delete]
func (h *PledgeHandler) Remove(c *gin.Context) {
	name := c.Param("name")
	if err := h.roster.Remove(c.Request.Context(), name); err != nil {
		response.Error(c, err)
		return
	}
	ok(c, dto.MessageResponse{Message: fmt.Sprintf("Removed pledge %s.", name)})
}

// Points godoc
// @Summary Total points for a pledge
// @Tags Pledges
// @Produce json
// @Param name path string true "Pledge name"
// @Success 200 {object} response.Envelope
// @Router /pledges/{name}/points [get]
func (h *PledgeHandler) Points(c *gin.Context) {
	name := c.Param("name")
	points, err := h.ledger.PointsFor(c.Request.Context(), name)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, dto.PointsResponse{Name: name, Points: points})
}

// History godoc
// @Summary Ledger rows for a pledge
// @Tags Pledges
// @Produce json
// @Param name path string true "Pledge name"
// @Success 200 {object} response.Envelope
// @Router /pledges/{name}/history [get]
func (h *PledgeHandler) History(c *gin.Context) {
	rows, err := h.ledger.History(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, rows)
}
