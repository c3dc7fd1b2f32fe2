package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"photocapture/internal/logger"

	"github.com/stretchr/testify/assert"
)

func TestRequestLogging_PassesThroughStatus(t *testing.T) {
	handler := RequestLogging(logger.NewTest(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestStatusRecorder_HijackUnsupported(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	_, _, err := rec.Hijack()
	assert.Error(t, err)
}
