//nolint:testpackage // Testing limiter internals requires same package access
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimiter(rps, burst))
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, remoteAddr string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	router := newLimitedRouter(1, 3)

	for i := 0; i < 3; i++ {
		if code := doRequest(router, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	router := newLimitedRouter(1, 2)

	doRequest(router, "10.0.0.1:1234")
	doRequest(router, "10.0.0.1:1234")

	if code := doRequest(router, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", code)
	}
}

func TestRateLimiter_TracksIPsIndependently(t *testing.T) {
	router := newLimitedRouter(1, 1)

	doRequest(router, "10.0.0.1:1234")
	if code := doRequest(router, "10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for same IP on a different port, got %d", code)
	}

	if code := doRequest(router, "10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("expected 200 for a different IP, got %d", code)
	}
}
