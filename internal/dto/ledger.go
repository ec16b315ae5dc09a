package dto

import (
	"time"

	"github.com/noah-isme/pledge-points-api/internal/models"
)

// AddPledgeRequest captures POST /pledges payload.
type AddPledgeRequest struct {
	Name string `json:"name"`
}

// PointChangeRequest captures POST /points and POST /pending payloads. PointChange is a pointer
// so an omitted value can be told apart from zero.
type PointChangeRequest struct {
	Name        string   `json:"name"`
	PointChange *float64 `json:"point_change"`
	Comment     string   `json:"comment"`
}

// ReviewRequest captures POST /pending/approve and /pending/reject payloads.
type ReviewRequest struct {
	IDs []int64 `json:"ids"`
}

// InterviewRequest captures POST /interviews payload. Time defaults to the request time.
type InterviewRequest struct {
	Pledge  string     `json:"pledge"`
	Brother string     `json:"brother"`
	Quality *int       `json:"quality"`
	Time    *time.Time `json:"time,omitempty"`
}

// PointsResponse is returned by GET /pledges/:name/points.
type PointsResponse struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// RankingsResponse carries both the formatted ranking lines and the rows behind them.
type RankingsResponse struct {
	Lines     []string                `json:"lines"`
	Standings []models.PledgeStanding `json:"standings"`
}

// QualityCountResponse is returned by GET /interviews/quality/:pledge.
type QualityCountResponse struct {
	Pledge  string `json:"pledge"`
	Quality int    `json:"quality_interviews"`
}

// ReviewResponse summarises a batch approve or reject.
type ReviewResponse struct {
	Results   []models.ReviewResult `json:"results"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

// LogSizeResponse is returned by GET /admin/logs/size.
type LogSizeResponse struct {
	Size string `json:"size"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}
