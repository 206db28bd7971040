package cli

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"breeze-console/internal/notify"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/simpleLogin", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("password") != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":"tok-1"}`))
	})
	mux.HandleFunc("/api/sso/doLoginByTicket", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":"tok-` + r.URL.Query().Get("ticket") + `"}`))
	})
	mux.HandleFunc("/api/sso/getSsoAuthUrl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":"https://sso.example.com/auth?redirect=` + r.URL.Query().Get("clientLoginUrl") + `"}`))
	})
	mux.HandleFunc("/api/sso/userInfo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"username":"ann","nickname":"Ann","tenantId":7,"userRoleCodes":["admin"],"authorities":[{"authority":"btn:add"}]}}`))
	})
	mux.HandleFunc("/api/sso/isLogin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":true}`))
	})
	mux.HandleFunc("/api/auth/v1/menu/listTreeMenu", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":1,"title":"System","path":"/system","children":[{"id":2,"title":"Users","path":"/system/users"}]}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type env struct {
	file string
}

func setup(t *testing.T) env {
	t.Helper()
	srv := newBackend(t)
	t.Setenv("APP_ENV", "local")
	t.Setenv("BASE_SERVER", srv.URL)
	t.Setenv("BASE_API", "/api")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("STORAGE_FILE", "")
	t.Setenv("STORAGE_SQLITE_PATH", "")
	t.Setenv("DEFAULT_LOCALE", "en")
	t.Setenv("APP_PORT", "")
	t.Setenv("APP_ORIGIN", "")
	return env{file: filepath.Join(t.TempDir(), "session.json")}
}

func (e env) run(stdin string, args ...string) (string, error) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	cmd := NewRootCmd(WithNotifier(notify.NewLog(quiet, false)))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--storage-file", e.file))
	err := cmd.Execute()
	return out.String(), err
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	e := setup(t)

	out, err := e.run("", "login", "-u", "ann", "-p", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Signed in as Ann (tenant 7)") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = e.run("", "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, `"logged_in": true`) || !strings.Contains(out, `"btn:add"`) {
		t.Fatalf("expected stored session, got %s", out)
	}

	out, err = e.run("", "menus")
	if err != nil {
		t.Fatalf("menus: %v", err)
	}
	if !strings.Contains(out, "System\t/system") || !strings.Contains(out, "  Users\t/system/users") {
		t.Fatalf("unexpected menu tree %q", out)
	}
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	e := setup(t)

	if _, err := e.run("secret\n", "login", "-u", "ann"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := e.run("wrong\n", "login", "-u", "ann"); err == nil {
		t.Fatalf("expected bad password rejected")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	e := setup(t)
	if _, err := e.run("", "ticket", "ST-1"); err != nil {
		t.Fatalf("ticket: %v", err)
	}

	out, err := e.run("", "logout")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(out, "/sso/logout?satoken=tok-ST-1") {
		t.Fatalf("expected logout address, got %q", out)
	}

	out, _ = e.run("", "whoami")
	if !strings.Contains(out, `"logged_in": false`) {
		t.Fatalf("expected signed out, got %s", out)
	}
	if _, err := e.run("", "sso-clients"); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected errNotSignedIn, got %v", err)
	}
}

func TestSsoURLDefaultsBackToOrigin(t *testing.T) {
	e := setup(t)

	out, err := e.run("", "sso-url")
	if err != nil {
		t.Fatalf("sso-url: %v", err)
	}
	if strings.TrimSpace(out) != "https://sso.example.com/auth?redirect=http://localhost:8173/sso-login" {
		t.Fatalf("unexpected url %q", out)
	}
}

func TestWhoamiYAMLOutput(t *testing.T) {
	e := setup(t)

	if _, err := e.run("", "login", "-u", "ann", "-p", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	out, err := e.run("", "whoami", "-o", "yaml")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	for _, want := range []string{"logged_in: true", "username: ann", "tenant_id: 7", "- btn:add"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in yaml output, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "{") {
		t.Fatalf("expected block style yaml, got:\n%s", out)
	}

	if _, err := e.run("", "whoami", "-o", "toml"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestStatusReportsLocalAndServerState(t *testing.T) {
	e := setup(t)

	out, err := e.run("", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if strings.TrimSpace(out) != "local: signed out" {
		t.Fatalf("unexpected signed-out status %q", out)
	}

	if _, err := e.run("", "login", "-u", "ann", "-p", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	out, err = e.run("", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "local: signed in") || !strings.Contains(out, "server: true") {
		t.Fatalf("unexpected signed-in status %q", out)
	}
}
