package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newCORSEngine(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORS(origins))
	engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return engine
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{name: "allowed origin", origins: []string{"http://localhost:5173/"}, method: http.MethodGet, origin: "http://localhost:5173", wantStatus: http.StatusOK, wantAllow: "http://localhost:5173"},
		{name: "unknown origin", origins: []string{"http://localhost:5173"}, method: http.MethodGet, origin: "http://evil.test", wantStatus: http.StatusOK, wantAllow: ""},
		{name: "wildcard", origins: []string{"*"}, method: http.MethodGet, origin: "http://any.test", wantStatus: http.StatusOK, wantAllow: "*"},
		{name: "preflight", origins: []string{"http://localhost:5173"}, method: http.MethodOptions, origin: "http://localhost:5173", wantStatus: http.StatusNoContent, wantAllow: "http://localhost:5173"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/ping", nil)
			req.Header.Set("Origin", tc.origin)
			recorder := httptest.NewRecorder()

			newCORSEngine(tc.origins...).ServeHTTP(recorder, req)

			assert.Equal(t, tc.wantStatus, recorder.Code)
			assert.Equal(t, tc.wantAllow, recorder.Header().Get("Access-Control-Allow-Origin"))
			if tc.method == http.MethodOptions {
				assert.Contains(t, recorder.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
			}
		})
	}
}
