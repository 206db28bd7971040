package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type sessionStub struct {
	token string
}

func (s sessionStub) IsLoggedIn() bool { return s.token != "" }

func serve(h gin.HandlerFunc) int {
	r := gin.New()
	r.GET("/x", h, func(c *gin.Context) { c.Status(200) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireSignedIn(t *testing.T) {
	gin.SetMode(gin.TestMode)

	if code := serve(RequireSignedIn(sessionStub{})); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
	if code := serve(RequireSignedIn(sessionStub{token: "t"})); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}
