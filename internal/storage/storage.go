package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Key names a persisted session value. The names are a contract between the
// session store and this package; keep them stable across releases.
type Key string

const (
	KeyUserInfo    Key = "userInfo"
	KeyAccessToken Key = "accessToken"
	KeyRoleCodes   Key = "roleCodes"
	KeyPermissions Key = "permissions"
)

// CookieTenantID is the cookie carrying the tenant id. It doubles as the
// request header and logout query parameter name.
const CookieTenantID = "X-Tenant-Id"

const cookieNamespaceSuffix = ":cookies"

// Storage is typed access to one namespace of a Backend.
// Absent keys read as sentinels: "" for strings, an empty slice for arrays.
type Storage struct {
	backend   Backend
	namespace string
}

func New(backend Backend, namespace string) *Storage {
	return &Storage{backend: backend, namespace: namespace}
}

func (s *Storage) GetString(ctx context.Context, key Key) (string, error) {
	var v string
	if _, err := s.GetObject(ctx, key, &v); err != nil {
		return "", err
	}
	return v, nil
}

func (s *Storage) SetString(ctx context.Context, key Key, v string) error {
	return s.SetObject(ctx, key, v)
}

func (s *Storage) GetStringArray(ctx context.Context, key Key) ([]string, error) {
	var v []string
	if _, err := s.GetObject(ctx, key, &v); err != nil {
		return []string{}, err
	}
	if v == nil {
		v = []string{}
	}
	return v, nil
}

func (s *Storage) SetStringArray(ctx context.Context, key Key, v []string) error {
	if v == nil {
		v = []string{}
	}
	return s.SetObject(ctx, key, v)
}

// GetObject decodes the stored value into dst. It reports false when the key is absent.
func (s *Storage) GetObject(ctx context.Context, key Key, dst any) (bool, error) {
	b, err := s.backend.Get(ctx, s.namespace, string(key))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("storage: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Storage) SetObject(ctx context.Context, key Key, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	return s.backend.Set(ctx, s.namespace, string(key), b)
}

func (s *Storage) Remove(ctx context.Context, key Key) error {
	return s.backend.Delete(ctx, s.namespace, string(key))
}

// Clear drops every key in the namespace. Cookies are untouched.
func (s *Storage) Clear(ctx context.Context) error {
	return s.backend.Clear(ctx, s.namespace)
}

// Cookies holds cookie-scoped values next to, but separate from, Storage.
type Cookies struct {
	backend   Backend
	namespace string
}

func NewCookies(backend Backend, namespace string) *Cookies {
	return &Cookies{backend: backend, namespace: namespace + cookieNamespaceSuffix}
}

// Get reports false when the cookie is not set.
func (c *Cookies) Get(ctx context.Context, name string) (string, bool, error) {
	b, err := c.backend.Get(ctx, c.namespace, name)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return "", false, fmt.Errorf("storage: decode cookie %s: %w", name, err)
	}
	return v, true, nil
}

func (c *Cookies) Set(ctx context.Context, name, value string) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, c.namespace, name, b)
}

func (c *Cookies) Remove(ctx context.Context, name string) error {
	return c.backend.Delete(ctx, c.namespace, name)
}

// GetInt64 reads an integer cookie. Unparseable values read as absent.
func (c *Cookies) GetInt64(ctx context.Context, name string) (int64, bool, error) {
	v, ok, err := c.Get(ctx, name)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

func (c *Cookies) SetInt64(ctx context.Context, name string, v int64) error {
	return c.Set(ctx, name, strconv.FormatInt(v, 10))
}
