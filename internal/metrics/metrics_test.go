package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGinMiddlewareObservesRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/v1/students", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/students", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, testutil.CollectAndCount(requestDuration, "hifz_http_request_duration_seconds"))
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(BatchesSubmitted.WithLabelValues("ok"))
	BatchesSubmitted.WithLabelValues("ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(BatchesSubmitted.WithLabelValues("ok")))
}
