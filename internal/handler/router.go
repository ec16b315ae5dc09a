package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pledge-points-api/internal/middleware"
)

// Roles names the platform roles that gate the API.
type Roles struct {
	Member   string
	Approver string
}

// Handlers groups every API handler for route registration.
type Handlers struct {
	Pledges    *PledgeHandler
	Points     *PointsHandler
	Pending    *PendingHandler
	Interviews *InterviewHandler
	Reports    *ReportHandler
	Admin      *AdminHandler
}

// RegisterRoutes mounts the API under api. Downloads are authorised by their signed token;
// everything else needs a platform token and a role. Approvers may do everything members can.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, auth gin.HandlerFunc, roles Roles) {
	api.GET("/downloads/:token", h.Reports.Download)

	secured := api.Group("")
	secured.Use(auth)
	member := middleware.RequireRoles(roles.Member, roles.Approver)
	approver := middleware.RequireRoles(roles.Approver)

	pledges := secured.Group("/pledges", member)
	pledges.GET("", h.Pledges.List)
	pledges.GET("/search", h.Pledges.Search)
	pledges.POST("", h.Pledges.Add)
	pledges.DELETE("/:name", h.Pledges.Remove)
	pledges.GET("/:name/points", h.Pledges.Points)
	pledges.GET("/:name/history", h.Pledges.History)
	pledges.GET("/:name/interviews/quality", h.Interviews.QualityCount)

	secured.POST("/points", approver, h.Points.Apply)
	secured.GET("/rankings", member, h.Points.Rankings)

	pending := secured.Group("/pending")
	pending.GET("", member, h.Pending.List)
	pending.POST("", member, h.Pending.Request)
	pending.POST("/approve", approver, h.Pending.Approve)
	pending.POST("/reject", approver, h.Pending.Reject)

	interviews := secured.Group("/interviews", member)
	interviews.GET("", h.Interviews.List)
	interviews.POST("", h.Interviews.Add)
	interviews.GET("/summary", h.Interviews.Summary)
	interviews.GET("/rankings", h.Interviews.Rankings)

	reports := secured.Group("/reports", member)
	reports.GET("/points", h.Reports.PointsData)
	reports.GET("/history", h.Reports.HistoryData)
	reports.GET("/pledges/:name/series", h.Reports.PledgeData)
	reports.POST("/points-graph", h.Reports.PointsGraph)
	reports.POST("/points-history", h.Reports.PointsHistory)
	reports.POST("/pledges/:name/graph", h.Reports.PledgeGraph)
	reports.POST("/rankings-pdf", h.Reports.RankingsPDF)
	reports.GET("/points-file", h.Reports.PointsFile)

	admin := secured.Group("/admin")
	admin.GET("/logs", member, h.Admin.Logs)
	admin.GET("/logs/size", member, h.Admin.LogSize)
	admin.GET("/status", member, h.Admin.Status)
	admin.POST("/digest", approver, h.Admin.Digest)
}
