package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, origins []string, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	rec := serve(t, []string{"https://bot.example/"}, http.MethodGet, "https://bot.example")
	require.Equal(t, "https://bot.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(t, []string{"https://bot.example"}, http.MethodGet, "https://evil.example")
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	rec := serve(t, nil, http.MethodOptions, "https://any.example")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://any.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
