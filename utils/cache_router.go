package utils

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheCustom  = -1
)

// CacheRouter sets the cache-control header. Mounted globally with
// CacheNoCache, and again on routes that allow caching for CacheTime
// seconds; CacheCustom leaves the header to the handler.
// A cacheable route still answers errors with no-cache, so a missing photo
// is not remembered by the client.
type CacheRouter struct {
	CacheTime int // defaults to CacheNoCache = 0
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch cr.CacheTime {
		case CacheCustom:
		case CacheNoCache:
			c.Header("cache-control", "no-cache")
		default:
			c.Writer = &cacheWriter{
				ResponseWriter: c.Writer,
				value:          "private, max-age=" + strconv.Itoa(cr.CacheTime),
			}
		}
		c.Next()
	}
}

// cacheWriter picks the cache-control header once the status is known
type cacheWriter struct {
	gin.ResponseWriter
	value string
}

func (w *cacheWriter) WriteHeader(code int) {
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		w.Header().Set("cache-control", w.value)
	} else {
		w.Header().Set("cache-control", "no-cache")
	}
	w.ResponseWriter.WriteHeader(code)
}
