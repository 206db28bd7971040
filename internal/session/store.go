// Package session holds the console's session state and keeps it mirrored
// to persistent storage.
//
// Invariants:
//   - Every mutating method persists the fields it changed before returning.
//   - Absent values are sentinels: empty profile, no tenant, "" token, empty slices.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"breeze-console/internal/authapi"
	"breeze-console/internal/request"
	"breeze-console/internal/storage"
)

// UserInfoFetcher loads the current user's profile.
type UserInfoFetcher interface {
	UserInfo(ctx context.Context) (request.Envelope[authapi.UserInfo], error)
}

// Redirector sends the host window to an external address (server logout).
type Redirector interface {
	Redirect(ctx context.Context, target string) error
}

// LogoutConfig locates the server-side logout endpoint.
type LogoutConfig struct {
	// URL is the SSO logout endpoint.
	URL string
	// Back is where the SSO server returns the user after logging out.
	Back string
}

type Options struct {
	Storage    *storage.Storage
	Cookies    *storage.Cookies
	Redirector Redirector
	Logout     LogoutConfig
	Logger     *slog.Logger
}

// Store is the session context. Construct one per process and pass it to the
// router guard and HTTP client.
type Store struct {
	storage    *storage.Storage
	cookies    *storage.Cookies
	redirector Redirector
	logout     LogoutConfig
	log        *slog.Logger

	mu          sync.RWMutex
	userInfo    authapi.UserInfo
	tenantID    *int64
	accessToken string
	roleCodes   []string
	permissions []string
}

// NewStore builds a store hydrated from persisted storage. Unreadable values
// fall back to sentinels.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	if opts.Storage == nil || opts.Cookies == nil {
		return nil, errors.New("session: storage and cookies are required")
	}
	if opts.Redirector == nil {
		return nil, errors.New("session: redirector is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Store{
		storage:     opts.Storage,
		cookies:     opts.Cookies,
		redirector:  opts.Redirector,
		logout:      opts.Logout,
		log:         opts.Logger,
		roleCodes:   []string{},
		permissions: []string{},
	}
	s.hydrate(ctx)
	return s, nil
}

func (s *Store) hydrate(ctx context.Context) {
	var u authapi.UserInfo
	if _, err := s.storage.GetObject(ctx, storage.KeyUserInfo, &u); err != nil {
		s.log.WarnContext(ctx, "restore user info failed", "err", err)
		u = authapi.UserInfo{}
	}
	s.userInfo = u

	if id, ok, err := s.cookies.GetInt64(ctx, storage.CookieTenantID); err != nil {
		s.log.WarnContext(ctx, "restore tenant id failed", "err", err)
	} else if ok {
		s.tenantID = &id
	}

	if tok, err := s.storage.GetString(ctx, storage.KeyAccessToken); err != nil {
		s.log.WarnContext(ctx, "restore access token failed", "err", err)
	} else {
		s.accessToken = tok
	}

	s.roleCodes = s.readArray(ctx, storage.KeyRoleCodes)
	s.permissions = s.readArray(ctx, storage.KeyPermissions)
}

func (s *Store) readArray(ctx context.Context, key storage.Key) []string {
	v, err := s.storage.GetStringArray(ctx, key)
	if err != nil {
		s.log.WarnContext(ctx, "read persisted array failed", "key", key, "err", err)
		return []string{}
	}
	return v
}

// StoreUserInfo fetches the user profile and, on success, sets profile,
// tenant id, role codes and permissions together and persists all four.
// Failures are logged and yield an empty envelope; it never returns an error.
func (s *Store) StoreUserInfo(ctx context.Context, fetch UserInfoFetcher) request.Envelope[authapi.UserInfo] {
	env, err := fetch.UserInfo(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "fetch user info failed", "err", err)
		return request.Envelope[authapi.UserInfo]{}
	}
	data := env.Data
	if data.IsZero() {
		return request.Envelope[authapi.UserInfo]{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.userInfo = data
	s.tenantID = cloneInt64(data.Tenant())
	s.roleCodes = nonNil(data.UserRoleCodes)
	s.permissions = data.Permissions()

	s.persistUserInfo(ctx)
	s.persistTenantID(ctx)
	s.persistRoleCodes(ctx)
	s.persistPermissions(ctx)

	return env
}

// StoreLoginInfo sets and persists the access token.
func (s *Store) StoreLoginInfo(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
	return s.persistAccessToken(ctx)
}

// StoreTenantID sets and persists the tenant id; nil removes the cookie.
func (s *Store) StoreTenantID(ctx context.Context, id *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenantID = cloneInt64(id)
	return s.persistTenantID(ctx)
}

// Logout sends the host to the server logout endpoint, then clears local state.
func (s *Store) Logout(ctx context.Context) error {
	target := s.LogoutURL(ctx)
	var errs []error
	if err := s.redirector.Redirect(ctx, target); err != nil {
		errs = append(errs, err)
	}
	if err := s.ClearLoginInfo(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogoutURL embeds the current token, return address and tenant cookie.
func (s *Store) LogoutURL(ctx context.Context) string {
	s.mu.RLock()
	token := s.accessToken
	s.mu.RUnlock()

	tenant, _, err := s.cookies.Get(ctx, storage.CookieTenantID)
	if err != nil {
		s.log.WarnContext(ctx, "read tenant cookie failed", "err", err)
	}

	var b strings.Builder
	b.WriteString(s.logout.URL)
	if strings.Contains(s.logout.URL, "?") {
		b.WriteString("&")
	} else {
		b.WriteString("?")
	}
	b.WriteString("satoken=")
	b.WriteString(url.QueryEscape(token))
	b.WriteString("&back=")
	b.WriteString(url.QueryEscape(s.logout.Back))
	b.WriteString("&")
	b.WriteString(storage.CookieTenantID)
	b.WriteString("=")
	b.WriteString(url.QueryEscape(tenant))
	return b.String()
}

// ClearLoginInfo resets every field to its sentinel, persists the reset and
// then clears all other persisted keys. Calling it twice is harmless.
func (s *Store) ClearLoginInfo(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userInfo = authapi.UserInfo{}
	s.tenantID = nil
	s.accessToken = ""
	s.roleCodes = []string{}
	s.permissions = []string{}

	errs := []error{
		s.persistUserInfo(ctx),
		s.persistTenantID(ctx),
		s.persistAccessToken(ctx),
		s.persistRoleCodes(ctx),
		s.persistPermissions(ctx),
	}
	if err := s.storage.Clear(ctx); err != nil {
		s.log.ErrorContext(ctx, "clear storage failed", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Store) UserInfo() authapi.UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userInfo
}

// TenantID reports the tenant id, if any.
func (s *Store) TenantID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tenantID == nil {
		return 0, false
	}
	return *s.tenantID, true
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Store) IsLoggedIn() bool {
	return s.AccessToken() != ""
}

func (s *Store) RoleCodes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.roleCodes...)
}

func (s *Store) Permissions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.permissions...)
}

// UserPermissions returns in-memory permissions, or the persisted ones when
// memory is still empty.
func (s *Store) UserPermissions(ctx context.Context) []string {
	if p := s.Permissions(); len(p) > 0 {
		return p
	}
	return s.readArray(ctx, storage.KeyPermissions)
}

// UserRoleCodes mirrors UserPermissions for role codes.
func (s *Store) UserRoleCodes(ctx context.Context) []string {
	if r := s.RoleCodes(); len(r) > 0 {
		return r
	}
	return s.readArray(ctx, storage.KeyRoleCodes)
}

// HasPermission reports whether code is among the user's permissions.
func (s *Store) HasPermission(ctx context.Context, code string) bool {
	for _, p := range s.UserPermissions(ctx) {
		if p == code {
			return true
		}
	}
	return false
}

// persist* must be called with s.mu held.

func (s *Store) persistUserInfo(ctx context.Context) error {
	return s.logPersist(ctx, storage.KeyUserInfo, s.storage.SetObject(ctx, storage.KeyUserInfo, s.userInfo))
}

func (s *Store) persistTenantID(ctx context.Context) error {
	var err error
	if s.tenantID != nil {
		err = s.cookies.Set(ctx, storage.CookieTenantID, strconv.FormatInt(*s.tenantID, 10))
	} else {
		err = s.cookies.Remove(ctx, storage.CookieTenantID)
	}
	return s.logPersist(ctx, storage.CookieTenantID, err)
}

func (s *Store) persistAccessToken(ctx context.Context) error {
	return s.logPersist(ctx, storage.KeyAccessToken, s.storage.SetString(ctx, storage.KeyAccessToken, s.accessToken))
}

func (s *Store) persistRoleCodes(ctx context.Context) error {
	return s.logPersist(ctx, storage.KeyRoleCodes, s.storage.SetStringArray(ctx, storage.KeyRoleCodes, s.roleCodes))
}

func (s *Store) persistPermissions(ctx context.Context) error {
	return s.logPersist(ctx, storage.KeyPermissions, s.storage.SetStringArray(ctx, storage.KeyPermissions, s.permissions))
}

func (s *Store) logPersist(ctx context.Context, key any, err error) error {
	if err != nil {
		s.log.ErrorContext(ctx, "persist session value failed", "key", key, "err", err)
	}
	return err
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return append([]string{}, v...)
}
