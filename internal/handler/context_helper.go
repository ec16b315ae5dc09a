package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pledge-points-api/internal/middleware"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
	"github.com/noah-isme/pledge-points-api/pkg/response"
)

// requesterName is the name recorded against a request: the platform display name, falling
// back to the user ID.
func requesterName(c *gin.Context) string {
	actor := middleware.ActorFrom(c)
	if actor == nil {
		return ""
	}
	if name := strings.TrimSpace(actor.DisplayName); name != "" {
		return name
	}
	return actor.UserID
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be a whole number")
	}
	return value, nil
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return false
	}
	return true
}

func ok(c *gin.Context, data interface{}) {
	response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
}
