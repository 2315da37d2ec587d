package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/trials-api/pkg/errors"
	"github.com/jwalitptl/trials-api/pkg/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recovery(), ErrorHandler())
	r.Use(handlers...)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRequestID(t *testing.T) {
	r := newEngine()
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(HeaderXRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, "bad id\tinjected")
	w = serve(r, req)
	assert.NotEqual(t, "bad id\tinjected", w.Header().Get(HeaderXRequestID))
	assert.Len(t, w.Header().Get(HeaderXRequestID), 36)
}

func TestErrorHandler_AppError(t *testing.T) {
	r := newEngine()
	r.POST("/things", func(c *gin.Context) {
		c.Error(apperrors.Validation("request validation failed",
			validator.FieldErrors{{Field: "gender", Message: "field is required"}}))
	})

	req := httptest.NewRequest(http.MethodPost, "/things", nil)
	req.Header.Set(HeaderXRequestID, "trace-1")
	w := serve(r, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "request validation failed", resp.Message)
	assert.Equal(t, "trace-1", resp.TraceID)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "gender", resp.Errors[0].Field)
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"not found": {apperrors.NotFound("patient", nil), http.StatusNotFound},
		"conflict":  {apperrors.Conflict("duplicate", nil), http.StatusConflict},
		"bad input": {apperrors.BadRequest("bad", nil), http.StatusBadRequest},
		"wrapped":   {apperrors.Internal(errors.New("db down")), http.StatusInternalServerError},
		"plain":     {errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := newEngine()
			r.GET("/x", func(c *gin.Context) { c.Error(tc.err) })

			w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tc.status, w.Code)

			resp := decodeError(t, w)
			if tc.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", resp.Message)
				assert.NotContains(t, w.Body.String(), "pq:")
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	r := newEngine()
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeError(t, w).Message)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RPS: 1, Burst: 2})
	r := newEngine(rl.RateLimit())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1"))

	// buckets are per client
	assert.Equal(t, http.StatusOK, request("10.0.0.2"))
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://portal.example.org")
	w := serve(r, req)
	assert.Equal(t, "https://portal.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	preflight := httptest.NewRequest(http.MethodOptions, "/x", nil)
	preflight.Header.Set("Origin", "https://portal.example.org")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	w = serve(r, preflight)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestSizeLimit(t *testing.T) {
	r := newEngine(SizeLimit(16))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":"0123456789abcdef"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIVersion(t *testing.T) {
	r := newEngine()
	g := r.Group("/api/v1", APIVersion("1.0"))
	g.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/x", nil))
	assert.Equal(t, "1.0", w.Header().Get(HeaderXAPIVersion))
}
