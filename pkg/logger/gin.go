package logger

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is shared by inbound middleware and the outgoing HTTP client.
const HeaderRequestID = "X-Request-Id"

const ginLoggerKey = "logger"

// quietPaths are probes logged at debug so they do not drown the page log.
var quietPaths = map[string]struct{}{
	"/healthz":           {},
	"/ipc/notifications": {},
}

// Middleware tags each request with a request id, stores a request-scoped
// logger and writes one summary line. The level follows the status: 5xx and
// handler errors are errors, 4xx warnings, the rest info.
func Middleware(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(HeaderRequestID, rid)

		reqLogger := l.With("request_id", rid)
		c.Set(ginLoggerKey, reqLogger)
		ctx := WithRequestID(With(c.Request.Context(), reqLogger), rid)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
		}
		if loc := c.Writer.Header().Get("Location"); loc != "" && status >= 300 && status < 400 {
			attrs = append(attrs, slog.String("location", loc))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}
		reqLogger.LogAttrs(context.Background(), summaryLevel(path, status, len(c.Errors) > 0), "request", attrs...)
	}
}

func summaryLevel(path string, status int, failed bool) slog.Level {
	switch {
	case failed || status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	}
	if _, ok := quietPaths[path]; ok {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// FromGin pulls the request-scoped logger from Gin context.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
