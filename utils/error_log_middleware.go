package utils

import (
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

type errorLogWriter struct {
	gin.ResponseWriter
	gc *gin.Context
}

func (w errorLogWriter) Write(b []byte) (int, error) {
	status := w.gc.Writer.Status()
	if status >= 400 {
		klog.Warningf("[DEBUG ERROR]: %s %s, Status %d, Body: %s", w.gc.Request.Method, w.gc.Request.URL.Path, status, string(b))
	}
	return w.ResponseWriter.Write(b)
}

// ErrorLogMiddleware logs the body of every error response. It doesn't work
// with GZIP.
func ErrorLogMiddleware(c *gin.Context) {
	blw := &errorLogWriter{gc: c, ResponseWriter: c.Writer}
	c.Writer = blw
	c.Next()
}
