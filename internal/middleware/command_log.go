package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/pledge-points-api/pkg/middleware/requestid"
)

// CommandLog records who ran which command and how it ended. Lines are written at info level
// with a command=true field so the log tailer can surface them.
func CommandLog(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.Bool("command", true),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestid.Value(c)),
		}
		if actor := ActorFrom(c); actor != nil {
			fields = append(fields, zap.String("user_id", actor.UserID), zap.String("user", actor.DisplayName))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= 500 {
			logger.Error("command failed", fields...)
			return
		}
		logger.Info("command executed", fields...)
	}
}
