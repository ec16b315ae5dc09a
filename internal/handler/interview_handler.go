package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pledge-points-api/internal/dto"
	"github.com/noah-isme/pledge-points-api/internal/middleware"
	"github.com/noah-isme/pledge-points-api/internal/models"
	"github.com/noah-isme/pledge-points-api/internal/service"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
	"github.com/noah-isme/pledge-points-api/pkg/response"
)

type interviewService interface {
	Add(ctx context.Context, req service.AddInterviewRequest) (*models.InterviewEntry, error)
	All(ctx context.Context) ([]models.InterviewEntry, error)
	QualityCount(ctx context.Context, pledge string) (int, error)
	Summary(ctx context.Context) ([]models.InterviewSummary, error)
	RankingsByPledge(ctx context.Context) ([]models.InterviewCount, error)
	RankingsByBrother(ctx context.Context) ([]models.InterviewCount, error)
	ForPledge(ctx context.Context, pledge string) ([]models.InterviewEntry, error)
	ForBrother(ctx context.Context, brother string) ([]models.InterviewEntry, error)
}

// InterviewHandler exposes the interview log.
type InterviewHandler struct {
	interviews interviewService
	now        func() time.Time
}

// NewInterviewHandler constructs handler.
func NewInterviewHandler(interviews interviewService) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, now: time.Now}
}

// Add godoc
// @Summary Record an interview
// @Tags Interviews
// @Accept json
// @Produce json
// @Param payload body dto.InterviewRequest true "Interview"
// @Success 201 {object} response.Envelope
// @Router /interviews [post]
func (h *InterviewHandler) Add(c *gin.Context) {
	var req dto.InterviewRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Quality == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "quality is required (0 or 1)"))
		return
	}
	at := h.now()
	if req.Time != nil {
		at = *req.Time
	}
	brother := strings.TrimSpace(req.Brother)
	if brother == "" {
		brother = requesterName(c)
	}
	entry, err := h.interviews.Add(c.Request.Context(), service.AddInterviewRequest{
		Pledge:  req.Pledge,
		Brother: brother,
		Quality: *req.Quality,
		Time:    at,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, entry, nil, middleware.ExtractMeta(c))
}

// List godoc
// @Summary List interviews
// @Tags Interviews
// @Produce json
// @Param pledge query string false "Only this pledge"
// @Param brother query string false "Only this brother"
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /interviews [get]
func (h *InterviewHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		entries []models.InterviewEntry
		err     error
	)
	switch pledge, brother := c.Query("pledge"), c.Query("brother"); {
	case pledge != "" && brother != "":
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "filter by pledge or brother, not both"))
		return
	case pledge != "":
		entries, err = h.interviews.ForPledge(ctx, pledge)
	case brother != "":
		entries, err = h.interviews.ForBrother(ctx, brother)
	default:
		entries, err = h.interviews.All(ctx)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := queryInt(c, "page", 1)
	if err != nil {
		response.Error(c, err)
		return
	}
	size, err := queryInt(c, "page_size", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination, start, end := models.Paginate(page, size, len(entries))
	response.JSON(c, http.StatusOK, entries[start:end], &pagination, middleware.ExtractMeta(c))
}

// QualityCount godoc
// @Summary Quality interview count for a pledge
// @Tags Interviews
// @Produce json
// @Param name path string true "Pledge name"
// @Success 200 {object} response.Envelope
// @Router /pledges/{name}/interviews/quality [get]
func (h *InterviewHandler) QualityCount(c *gin.Context) {
	pledge := c.Param("name")
	count, err := h.interviews.QualityCount(c.Request.Context(), pledge)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, dto.QualityCountResponse{Pledge: pledge, Quality: count})
}

// Summary godoc
// @Summary Interview summary per pledge
// @Tags Interviews
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /interviews/summary [get]
func (h *InterviewHandler) Summary(c *gin.Context) {
	rows, err := h.interviews.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, rows)
}

// Rankings godoc
// @Summary Interview counts ranked by pledge or brother
// @Tags Interviews
// @Produce json
// @Param by query string false "pledge (default) or brother"
// @Success 200 {object} response.Envelope
// @Router /interviews/rankings [get]
func (h *InterviewHandler) Rankings(c *gin.Context) {
	var (
		rows []models.InterviewCount
		err  error
	)
	switch by := strings.ToLower(c.DefaultQuery("by", "pledge")); by {
	case "pledge":
		rows, err = h.interviews.RankingsByPledge(c.Request.Context())
	case "brother":
		rows, err = h.interviews.RankingsByBrother(c.Request.Context())
	default:
		err = appErrors.Clone(appErrors.ErrValidation, "by must be pledge or brother")
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, rows)
}
