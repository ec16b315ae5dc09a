package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/pledge-points-api/internal/models"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

type validatorStub struct {
	claims *models.PlatformClaims
}

func (v validatorStub) ValidateToken(token string) (*models.PlatformClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

type observedRequest struct {
	route  string
	status int
}

type observerStub struct {
	seen []observedRequest
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.seen = append(o.seen, observedRequest{route: path, status: status})
}

func newAuthRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	claims := &models.PlatformClaims{Name: "Sam", Roles: []string{"Brother"}}
	claims.Subject = "42"
	r := gin.New()
	r.Use(PlatformAuth(validatorStub{claims: claims}))
	r.GET("/open", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": ActorFrom(c).UserID})
	})
	r.POST("/guarded", RequireRoles(roles...), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(nil))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPlatformAuth(t *testing.T) {
	r := newAuthRouter("Brother")

	require.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/open", "").Code)
	require.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/open", "bad").Code)

	rec := do(r, http.MethodGet, "/open", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "42", body["user"])
}

func TestRequireRoles(t *testing.T) {
	require.Equal(t, http.StatusOK, do(newAuthRouter("Brother"), http.MethodPost, "/guarded", "good").Code)

	rec := do(newAuthRouter("VP Internal"), http.MethodPost, "/guarded", "good")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "You do not have permission to use this command.")

	require.Equal(t, http.StatusForbidden, do(newAuthRouter("brother"), http.MethodPost, "/guarded", "good").Code)
}

func TestCommandLogRecordsActor(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextActorKey, &models.Actor{UserID: "7", DisplayName: "Jo"})
		c.Next()
	})
	r.Use(CommandLog(zap.New(core)))
	r.GET("/rankings", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/rankings", "")

	entries := logs.FilterMessage("command executed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "/rankings", fields["route"])
	require.Equal(t, "Jo", fields["user"])
	require.Equal(t, true, fields["command"])
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	obs := &observerStub{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/pledges/:name/points", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/pledges/Alice/points", "")
	do(r, http.MethodGet, "/nowhere", "")

	require.Equal(t, []observedRequest{
		{route: "/pledges/:name/points", status: http.StatusOK},
		{route: unmatchedRoute, status: http.StatusNotFound},
	}, obs.seen)
}

func TestExtractMetaReportsProcessingTime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/", func(c *gin.Context) {
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	do(r, http.MethodGet, "/", "")
	require.Contains(t, meta, "processing_time_ms")
}
