package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsMatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/courses/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/courses/:id", "204"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/courses/abc", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/courses/:id", "204"))
	assert.Equal(t, before+1, after)
}

func TestRecordMediaUploadOutcome(t *testing.T) {
	okBefore := testutil.ToFloat64(mediaUploads.WithLabelValues("avatar", "ok"))
	errBefore := testutil.ToFloat64(mediaUploads.WithLabelValues("avatar", "error"))

	RecordMediaUpload("avatar", nil)
	RecordMediaUpload("avatar", errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(mediaUploads.WithLabelValues("avatar", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(mediaUploads.WithLabelValues("avatar", "error")))
}

func TestHandlerServesExposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())
	RecordEnrollment("created")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "coursehub_enrollments_total")
}
