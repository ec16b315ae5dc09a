package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pledge-points-api/pkg/middleware/requestid"
)

const requestStartKey = "request_start"

// WithResponseMeta remembers when the request started so handlers can report processing time.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Next()
	}
}

// ExtractMeta returns the response metadata for the current request: the request ID and the
// processing time so far.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta := make(map[string]interface{}, 2)
	if id := requestid.Value(c); id != "" {
		meta["request_id"] = id
	}
	if value, exists := c.Get(requestStartKey); exists {
		if start, ok := value.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
	return meta
}
