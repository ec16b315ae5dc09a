package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pledge-points-api/internal/models"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestJSONWithPaginationAndMeta(t *testing.T) {
	c, w := testContext()
	page, _, _ := models.Paginate(1, 2, 5)
	JSON(c, http.StatusOK, []string{"a", "b"}, &page, map[string]interface{}{"request_id": "abc"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body, "pagination")
	require.Equal(t, "abc", body["meta"].(map[string]interface{})["request_id"])
	require.NotContains(t, body, "error")
}

func TestErrorNormalisesUnknownErrors(t *testing.T) {
	c, w := testContext()
	Error(c, errors.New("disk on fire"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), appErrors.ErrInternal.Code)
	require.NotContains(t, w.Body.String(), "disk on fire")

	c, w = testContext()
	Error(c, appErrors.Clone(appErrors.ErrNotFound, "Error: Points file not found"))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Points file not found")
}

func TestAttachment(t *testing.T) {
	c, w := testContext()
	Attachment(c, "Points.csv", "text/csv", 4, strings.NewReader("a,b\n"))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `attachment; filename="Points.csv"`, w.Header().Get("Content-Disposition"))
	require.Equal(t, "a,b\n", w.Body.String())
}
