package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(cfg *InternalAPIConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/internal/ping", NewInternalAuthMiddleware(cfg).Required(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestInternalAuth(t *testing.T) {
	cfg := NewInternalAPIConfig("secret")
	cfg.TrustedNetworks = []string{"10.0.0.0/8"}
	router := newRouter(cfg)

	tests := []struct {
		name       string
		remoteAddr string
		key        string
		code       int
	}{
		{"trusted network", "10.1.2.3:5000", "", http.StatusNoContent},
		{"valid key", "8.8.8.8:5000", "secret", http.StatusNoContent},
		{"wrong key", "8.8.8.8:5000", "nope", http.StatusForbidden},
		{"no key", "8.8.8.8:5000", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/internal/ping", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.key != "" {
				req.Header.Set("X-Internal-API-Key", tt.key)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestInternalAuth_EmptyKeyNeverMatches(t *testing.T) {
	cfg := NewInternalAPIConfig("")
	cfg.TrustedNetworks = nil
	router := newRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/internal/ping", nil)
	req.RemoteAddr = "8.8.8.8:5000"
	req.Header.Set("X-Internal-API-Key", "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
