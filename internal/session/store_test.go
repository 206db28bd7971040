package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"breeze-console/internal/authapi"
	"breeze-console/internal/request"
	"breeze-console/internal/storage"
)

type fakeFetcher struct {
	env request.Envelope[authapi.UserInfo]
	err error
}

func (f fakeFetcher) UserInfo(ctx context.Context) (request.Envelope[authapi.UserInfo], error) {
	return f.env, f.err
}

type fakeRedirector struct {
	targets []string
	store   *Store
	tokens  []string
}

func (f *fakeRedirector) Redirect(ctx context.Context, target string) error {
	f.targets = append(f.targets, target)
	if f.store != nil {
		f.tokens = append(f.tokens, f.store.AccessToken())
	}
	return nil
}

type fixture struct {
	store    *Store
	storage  *storage.Storage
	cookies  *storage.Cookies
	redirect *fakeRedirector
	backend  storage.Backend
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	backend := storage.NewMemoryBackend()
	return newFixtureOn(t, backend)
}

func newFixtureOn(t *testing.T, backend storage.Backend) fixture {
	t.Helper()
	f := fixture{
		storage:  storage.New(backend, "local"),
		cookies:  storage.NewCookies(backend, "local"),
		redirect: &fakeRedirector{},
		backend:  backend,
	}
	s, err := NewStore(context.Background(), Options{
		Storage:    f.storage,
		Cookies:    f.cookies,
		Redirector: f.redirect,
		Logout:     LogoutConfig{URL: "https://sso.example.com/api/sso/logout", Back: "http://localhost:8173"},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	f.store = s
	f.redirect.store = s
	return f
}

func tenant(n int64) *request.Int64 {
	v := request.Int64(n)
	return &v
}

func TestStoreUserInfo_PopulatesAndPersists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	env := request.Envelope[authapi.UserInfo]{Data: authapi.UserInfo{
		Username:      "ann",
		TenantID:      tenant(7),
		UserRoleCodes: []string{"admin"},
		Authorities:   []authapi.Authority{{Authority: "btn:add"}},
	}}
	got := f.store.StoreUserInfo(ctx, fakeFetcher{env: env})
	if got.Data.Username != "ann" {
		t.Fatalf("expected raw response returned, got %+v", got)
	}

	if id, ok := f.store.TenantID(); !ok || id != 7 {
		t.Fatalf("expected tenant 7, got %d %v", id, ok)
	}
	if !reflect.DeepEqual(f.store.RoleCodes(), []string{"admin"}) {
		t.Fatalf("unexpected role codes %v", f.store.RoleCodes())
	}
	if !reflect.DeepEqual(f.store.Permissions(), []string{"btn:add"}) {
		t.Fatalf("unexpected permissions %v", f.store.Permissions())
	}

	var persisted authapi.UserInfo
	if ok, _ := f.storage.GetObject(ctx, storage.KeyUserInfo, &persisted); !ok || persisted.Username != "ann" {
		t.Fatalf("expected persisted profile, got %+v", persisted)
	}
	if id, ok, _ := f.cookies.GetInt64(ctx, storage.CookieTenantID); !ok || id != 7 {
		t.Fatalf("expected tenant cookie 7, got %d %v", id, ok)
	}
	if roles, _ := f.storage.GetStringArray(ctx, storage.KeyRoleCodes); !reflect.DeepEqual(roles, []string{"admin"}) {
		t.Fatalf("expected persisted roles, got %v", roles)
	}
	if perms, _ := f.storage.GetStringArray(ctx, storage.KeyPermissions); !reflect.DeepEqual(perms, []string{"btn:add"}) {
		t.Fatalf("expected persisted permissions, got %v", perms)
	}
	if !f.store.HasPermission(ctx, "btn:add") || f.store.HasPermission(ctx, "btn:del") {
		t.Fatalf("unexpected HasPermission result")
	}
}

func TestStoreUserInfo_FailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_ = f.store.StoreLoginInfo(ctx, "abc123")

	got := f.store.StoreUserInfo(ctx, fakeFetcher{err: errors.New("boom")})
	if !got.Data.IsZero() || got.Code != 0 {
		t.Fatalf("expected empty envelope, got %+v", got)
	}
	got = f.store.StoreUserInfo(ctx, fakeFetcher{})
	if !got.Data.IsZero() {
		t.Fatalf("expected empty envelope for empty data, got %+v", got)
	}
	if f.store.AccessToken() != "abc123" || len(f.store.Permissions()) != 0 {
		t.Fatalf("expected state untouched")
	}
}

func TestStoreLoginInfo_RoundTripAndClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.store.StoreLoginInfo(ctx, "abc123"); err != nil {
		t.Fatalf("store login: %v", err)
	}
	if tok, _ := f.storage.GetString(ctx, storage.KeyAccessToken); tok != "abc123" {
		t.Fatalf("expected persisted abc123, got %q", tok)
	}

	if err := f.store.ClearLoginInfo(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if tok, _ := f.storage.GetString(ctx, storage.KeyAccessToken); tok != "" {
		t.Fatalf("expected empty sentinel, got %q", tok)
	}
}

func TestClearLoginInfo_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.StoreUserInfo(ctx, fakeFetcher{env: request.Envelope[authapi.UserInfo]{Data: authapi.UserInfo{
		TenantID:      tenant(3),
		UserRoleCodes: []string{"r"},
		Authorities:   []authapi.Authority{{Authority: "p"}},
	}}})
	_ = f.store.StoreLoginInfo(ctx, "t")

	snapshot := func() []any {
		_, hasTenant := f.store.TenantID()
		return []any{f.store.UserInfo(), hasTenant, f.store.AccessToken(), f.store.RoleCodes(), f.store.Permissions()}
	}

	if err := f.store.ClearLoginInfo(ctx); err != nil {
		t.Fatalf("first clear: %v", err)
	}
	first := snapshot()
	if err := f.store.ClearLoginInfo(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	second := snapshot()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical state, got %v vs %v", first, second)
	}
	want := []any{authapi.UserInfo{}, false, "", []string{}, []string{}}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("expected empty sentinels, got %v", first)
	}
	if _, ok, _ := f.cookies.Get(ctx, storage.CookieTenantID); ok {
		t.Fatalf("expected tenant cookie removed")
	}
}

func TestStoreTenantID_NilRemovesCookie(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.store.StoreTenantID(ctx, (*int64)(tenant(9))); err != nil {
		t.Fatalf("store tenant: %v", err)
	}
	if v, ok, _ := f.cookies.Get(ctx, storage.CookieTenantID); !ok || v != "9" {
		t.Fatalf("expected cookie 9, got %q %v", v, ok)
	}
	if err := f.store.StoreTenantID(ctx, nil); err != nil {
		t.Fatalf("clear tenant: %v", err)
	}
	if _, ok, _ := f.cookies.Get(ctx, storage.CookieTenantID); ok {
		t.Fatalf("expected cookie removed")
	}
	if _, ok := f.store.TenantID(); ok {
		t.Fatalf("expected no tenant")
	}
}

func TestUserPermissions_FallsBackToStorage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_ = f.storage.SetStringArray(ctx, storage.KeyPermissions, []string{"btn:edit"})
	_ = f.storage.SetStringArray(ctx, storage.KeyRoleCodes, []string{"ops"})

	if got := f.store.UserPermissions(ctx); !reflect.DeepEqual(got, []string{"btn:edit"}) {
		t.Fatalf("expected persisted permissions, got %v", got)
	}
	if got := f.store.UserRoleCodes(ctx); !reflect.DeepEqual(got, []string{"ops"}) {
		t.Fatalf("expected persisted roles, got %v", got)
	}
}

func TestNewStore_HydratesFromStorage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.StoreUserInfo(ctx, fakeFetcher{env: request.Envelope[authapi.UserInfo]{Data: authapi.UserInfo{
		Username:      "ann",
		TenantID:      tenant(7),
		UserRoleCodes: []string{"admin"},
		Authorities:   []authapi.Authority{{Authority: "btn:add"}},
	}}})
	_ = f.store.StoreLoginInfo(ctx, "abc123")

	reloaded := newFixtureOn(t, f.backend)
	if reloaded.store.AccessToken() != "abc123" || reloaded.store.UserInfo().Username != "ann" {
		t.Fatalf("expected token and profile restored")
	}
	if id, ok := reloaded.store.TenantID(); !ok || id != 7 {
		t.Fatalf("expected tenant restored, got %d %v", id, ok)
	}
	if !reflect.DeepEqual(reloaded.store.Permissions(), []string{"btn:add"}) {
		t.Fatalf("expected permissions restored, got %v", reloaded.store.Permissions())
	}
}

func TestLogout_RedirectsThenClears(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_ = f.store.StoreLoginInfo(ctx, "abc123")
	_ = f.store.StoreTenantID(ctx, (*int64)(tenant(7)))

	if err := f.store.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	want := "https://sso.example.com/api/sso/logout?satoken=abc123&back=http%3A%2F%2Flocalhost%3A8173&X-Tenant-Id=7"
	if len(f.redirect.targets) != 1 || f.redirect.targets[0] != want {
		t.Fatalf("unexpected redirect %v", f.redirect.targets)
	}
	if f.redirect.tokens[0] != "abc123" {
		t.Fatalf("expected redirect before clearing, token was %q", f.redirect.tokens[0])
	}
	if f.store.IsLoggedIn() {
		t.Fatalf("expected session cleared")
	}
}
