package logger

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddleware_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/x", func(c *gin.Context) {
		seen = RequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "rid-1")
	r.ServeHTTP(w, req)

	if seen != "rid-1" {
		t.Fatalf("expected request id in context, got %q", seen)
	}
	if w.Header().Get(HeaderRequestID) != "rid-1" {
		t.Fatalf("expected request id echoed")
	}
	if !strings.Contains(buf.String(), `"request_id":"rid-1"`) {
		t.Fatalf("expected request id in log line, got %s", buf.String())
	}
}

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware(slog.New(slog.NewJSONHandler(io.Discard, nil))))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Header().Get(HeaderRequestID) == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestMiddleware_LevelFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/home", func(c *gin.Context) { c.Redirect(http.StatusFound, "/login?redirect=%2Fhome") })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if buf.Len() != 0 {
		t.Fatalf("expected health probe below info, got %s", buf.String())
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/home", nil))
	if !strings.Contains(buf.String(), `"location":"/login?redirect=%2Fhome"`) || !strings.Contains(buf.String(), `"level":"INFO"`) {
		t.Fatalf("expected redirect location logged at info, got %s", buf.String())
	}

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))
	if !strings.Contains(buf.String(), `"level":"WARN"`) {
		t.Fatalf("expected warn for 404, got %s", buf.String())
	}
}
