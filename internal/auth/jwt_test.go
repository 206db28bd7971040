package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"breeze-console/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerifyBridgeToken(t *testing.T) {
	m, err := NewManager(config.BridgeConfig{Secret: "secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "main")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.WindowID != "main" || claims.ID == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	m, _ := NewManager(config.BridgeConfig{Secret: "secret", TTL: time.Minute})
	other, _ := NewManager(config.BridgeConfig{Secret: "other", TTL: time.Minute})

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "main")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expired token rejected")
	}
	if _, err := other.Verify(tok, now); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestNewManager_GeneratesSecretWhenUnset(t *testing.T) {
	a, err := NewManager(config.BridgeConfig{TTL: time.Minute})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	b, _ := NewManager(config.BridgeConfig{TTL: time.Minute})

	tok, _ := a.Issue(time.Now(), "main")
	if _, err := b.Verify(tok, time.Now()); err == nil {
		t.Fatalf("expected independent secrets")
	}
}

func TestIssue_SignsWithDerivedKey(t *testing.T) {
	m, _ := NewManager(config.BridgeConfig{Secret: "secret", TTL: time.Hour})
	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "main")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = jwt.Parse(tok, func(*jwt.Token) (any, error) { return []byte("secret"), nil },
		jwt.WithTimeFunc(func() time.Time { return now }))
	if err == nil {
		t.Fatalf("expected raw secret to fail verification")
	}

	key, _ := deriveKey([]byte("secret"))
	if _, err := jwt.Parse(tok, func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithTimeFunc(func() time.Time { return now })); err != nil {
		t.Fatalf("expected derived key to verify: %v", err)
	}
}

func TestRequireBridgeToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, _ := NewManager(config.BridgeConfig{Secret: "secret", TTL: time.Hour})

	r := gin.New()
	r.GET("/x", RequireBridgeToken(m), func(c *gin.Context) {
		id, err := WindowID(c.Request.Context())
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	tok, _ := m.Issue(time.Now(), "main")
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "main" {
		t.Fatalf("expected 200 main, got %d %q", w.Code, w.Body.String())
	}
}
