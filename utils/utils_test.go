package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCacheRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name      string
		cacheTime int
		want      string
	}{
		{"no cache", CacheNoCache, "no-cache"},
		{"custom", CacheCustom, ""},
		{"an hour", 3600, "private, max-age=3600"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", (&CacheRouter{CacheTime: tt.cacheTime}).Handler(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			if got := w.Header().Get("cache-control"); got != tt.want {
				t.Errorf("cache-control = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheRouterOverride(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use((&CacheRouter{}).Handler(), ErrorLogMiddleware)
	router.GET("/fetch", (&CacheRouter{CacheTime: 60}).Handler(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad"})
	})
	router.GET("/missing", (&CacheRouter{CacheTime: 60}).Handler(), func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fetch", nil))
	if got := w.Header().Get("cache-control"); got != "private, max-age=60" {
		t.Errorf("cache-control = %q", got)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	if w.Code != http.StatusBadRequest || w.Body.String() != `{"error":"bad"}` {
		t.Errorf("error response altered: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if got := w.Header().Get("cache-control"); w.Code != http.StatusNotFound || got != "no-cache" {
		t.Errorf("missing: %d cache-control = %q", w.Code, got)
	}
}
