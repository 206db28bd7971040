// Package request is the console's configured HTTP client.
//
// Every outgoing call runs the request interceptors (tenant and locale headers
// first), then the response pipeline: bodies are parsed with big-integer
// preservation, transport failures and error statuses are turned into
// localized notifications, and a 401 walks the user through the forced-logout
// flow.
package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"breeze-console/internal/i18n"
	"breeze-console/internal/notify"
	"breeze-console/pkg/logger"

	"github.com/goccy/go-json"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

const (
	HeaderTenantID       = "X-Tenant-Id"
	HeaderAcceptLanguage = "Accept-Language"

	defaultTimeout   = 50 * time.Second
	defaultLoginPath = "/login"
)

// SessionState is the session view the request interceptor reads.
type SessionState interface {
	TenantID() (int64, bool)
}

// SessionTerminator ends the session after a confirmed 401.
type SessionTerminator interface {
	Logout(ctx context.Context) error
}

// Navigator moves the UI after a forced logout.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
	Reload(ctx context.Context) error
}

// Translator resolves message keys in the active locale.
type Translator interface {
	T(key string) string
	String() string
}

type ResponseType int

const (
	ResponseJSON ResponseType = iota
	// ResponseBlob returns the raw body; no JSON transform is applied.
	ResponseBlob
)

// Request describes one call relative to the client's base URL.
type Request struct {
	Method       string
	URL          string
	Params       url.Values
	Data         any
	Header       http.Header
	ResponseType ResponseType
}

// Response is a successful (status < 400) response with the transport
// wrapper removed. Data holds the normalized JSON tree, Raw the body bytes.
type Response struct {
	StatusCode int
	Header     http.Header
	Data       any
	Raw        []byte
}

// RequestInterceptor may mutate the request before it is sent.
type RequestInterceptor func(ctx context.Context, req *Request) error

type Options struct {
	BaseURL string
	Timeout time.Duration

	Session    SessionState
	Terminator SessionTerminator
	Navigator  Navigator
	Locale     Translator
	Notifier   notify.Notifier
	Logger     *slog.Logger

	// HTTPClient overrides the default pooled client (tests).
	HTTPClient *http.Client

	// CoalesceUnauthorized shares one confirmation dialog between overlapping 401s.
	CoalesceUnauthorized bool

	LoginPath string
}

type Client struct {
	baseURL      string
	http         *http.Client
	session      SessionState
	terminator   SessionTerminator
	navigator    Navigator
	locale       Translator
	notifier     notify.Notifier
	log          *slog.Logger
	loginPath    string
	coalesce     bool
	unauthorized singleflight.Group
	prompts      sync.WaitGroup
	interceptors []RequestInterceptor
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("request: base url is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("request: base url: %w", err)
	}
	if opts.Session == nil {
		return nil, errors.New("request: session is required")
	}
	if opts.Locale == nil {
		return nil, errors.New("request: locale is required")
	}
	if opts.Notifier == nil {
		return nil, errors.New("request: notifier is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.LoginPath == "" {
		opts.LoginPath = defaultLoginPath
	}

	hc := opts.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("request: cookie jar: %w", err)
		}
		hc = &http.Client{
			Timeout: opts.Timeout,
			Jar:     jar,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		http:       hc,
		session:    opts.Session,
		terminator: opts.Terminator,
		navigator:  opts.Navigator,
		locale:     opts.Locale,
		notifier:   opts.Notifier,
		log:        opts.Logger,
		loginPath:  opts.LoginPath,
		coalesce:   opts.CoalesceUnauthorized,
	}
	c.interceptors = []RequestInterceptor{c.stampSession}
	return c, nil
}

// Use appends a request interceptor. Interceptors run in registration order.
func (c *Client) Use(fn RequestInterceptor) {
	c.interceptors = append(c.interceptors, fn)
}

// stampSession adds the tenant and locale headers from the current session.
func (c *Client) stampSession(ctx context.Context, req *Request) error {
	if id, ok := c.session.TenantID(); ok {
		req.Header.Set(HeaderTenantID, strconv.FormatInt(id, 10))
	}
	req.Header.Set(HeaderAcceptLanguage, c.locale.String())
	return nil
}

// Do sends req and returns the unwrapped response, or a *TransportError /
// *ResponseError after the user has been notified.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Header == nil {
		req.Header = http.Header{}
	} else {
		req.Header = req.Header.Clone()
	}
	for _, fn := range c.interceptors {
		if err := fn(ctx, &req); err != nil {
			return nil, c.rejectLocal(ctx, fmt.Errorf("request: interceptor: %w", err))
		}
	}

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, c.rejectLocal(ctx, err)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.rejectTransport(ctx, req, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.rejectTransport(ctx, req, err)
	}

	c.log.DebugContext(ctx, "http call",
		"method", req.Method,
		"path", req.URL,
		"status", resp.StatusCode,
		"duration_ms", float64(time.Since(start).Milliseconds()),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.rejectResponse(ctx, req, resp.StatusCode, body)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Raw: body}
	if req.ResponseType == ResponseBlob {
		return out, nil
	}
	tree, err := parseJSON(body)
	if err != nil {
		return nil, c.rejectLocal(ctx, fmt.Errorf("%w: %v", ErrNotJSON, err))
	}
	out.Data = tree
	return out, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	u := c.baseURL + req.URL
	if len(req.Params) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + req.Params.Encode()
	}

	var body io.Reader
	if req.Data != nil {
		b, err := json.Marshal(req.Data)
		if err != nil {
			return nil, fmt.Errorf("request: encode body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("request: build: %w", err)
	}
	httpReq.Header = req.Header
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.ResponseType == ResponseJSON && httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if rid := logger.RequestID(ctx); rid != "" {
		httpReq.Header.Set(logger.HeaderRequestID, rid)
	}
	return httpReq, nil
}

// rejectLocal handles failures raised before a response exists that are not
// transport failures.
func (c *Client) rejectLocal(ctx context.Context, err error) error {
	c.log.WarnContext(ctx, "http call failed", "err", err)
	c.notifier.Error(ctx, c.locale.T(i18n.SystemAbnormality))
	return err
}

func (c *Client) rejectTransport(ctx context.Context, req Request, err error) error {
	te := &TransportError{Method: req.Method, URL: req.URL, Timeout: isTimeout(err), Err: err}
	c.log.WarnContext(ctx, "http transport error", "method", req.Method, "path", req.URL, "timeout", te.Timeout, "err", err)

	// Caller-cancelled calls are not surfaced to the user.
	if errors.Is(err, context.Canceled) {
		return te
	}
	if te.Timeout {
		c.notifier.Error(ctx, c.locale.T(i18n.ConnectionTimedOut)+" "+err.Error())
		return te
	}
	c.notifier.Error(ctx, c.locale.T(i18n.SystemAbnormality))
	return te
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

// statusFallbacks maps statuses to the message shown when the server sends none.
var statusFallbacks = map[int]string{
	http.StatusForbidden:           i18n.InsufficientPermissionsReLogin,
	http.StatusNotFound:            i18n.NetworkRequestNotExist,
	http.StatusServiceUnavailable:  i18n.ServiceUnavailable,
	http.StatusBadRequest:          i18n.RequestParameterError,
	http.StatusMethodNotAllowed:    i18n.MethodNotAllowed,
	http.StatusInternalServerError: i18n.ServerInternalError,
}

func (c *Client) rejectResponse(ctx context.Context, req Request, status int, body []byte) error {
	payload := map[string]any{}
	if tree, err := parseJSON(body); err == nil {
		if m, ok := tree.(map[string]any); ok {
			payload = m
		}
	}
	msg, _ := payload["message"].(string)

	if status == http.StatusUnauthorized {
		c.handleUnauthorized(ctx)
		if msg == "" {
			msg = c.locale.T(i18n.ReLogin)
		}
		payload["message"] = msg
		return &ResponseError{StatusCode: status, Message: msg, Payload: payload}
	}

	if msg == "" {
		key, ok := statusFallbacks[status]
		if !ok {
			key = i18n.UnknownError
		}
		msg = c.locale.T(key)
	}
	payload["message"] = msg
	c.log.InfoContext(ctx, "http error response", "method", req.Method, "path", req.URL, "status", status, "message", msg)
	c.notifier.Error(ctx, msg)
	return &ResponseError{StatusCode: status, Message: msg, Payload: payload}
}

// handleUnauthorized asks the user to confirm and, on confirmation, logs out,
// returns to the login route and reloads. The prompt runs in the background
// and outlives the request context; the 401 is rejected without waiting.
func (c *Client) handleUnauthorized(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	c.prompts.Add(1)
	go func() {
		defer c.prompts.Done()
		if !c.coalesce {
			c.confirmLogout(ctx)
			return
		}
		_, _, _ = c.unauthorized.Do("unauthorized", func() (any, error) {
			c.confirmLogout(ctx)
			return nil, nil
		})
	}()
}

// Wait blocks until every pending logout prompt has been answered and acted on.
func (c *Client) Wait() {
	c.prompts.Wait()
}

func (c *Client) confirmLogout(ctx context.Context) {
	ok, err := c.notifier.Confirm(ctx, notify.Dialog{
		Title:       c.locale.T(i18n.Tip),
		Message:     c.locale.T(i18n.SureToLogOutExitSystem),
		ConfirmText: c.locale.T(i18n.Confirm),
		CancelText:  c.locale.T(i18n.Cancel),
		Kind:        notify.KindWarning,
	})
	if err != nil {
		c.log.WarnContext(ctx, "logout confirmation failed", "err", err)
		return
	}
	if !ok {
		return
	}

	if c.terminator != nil {
		if err := c.terminator.Logout(ctx); err != nil {
			c.log.ErrorContext(ctx, "forced logout failed", "err", err)
		}
	}
	if c.navigator == nil {
		return
	}
	if err := c.navigator.Navigate(ctx, c.loginPath); err != nil {
		c.log.WarnContext(ctx, "navigate to login failed", "err", err)
	}
	if err := c.navigator.Reload(ctx); err != nil {
		c.log.WarnContext(ctx, "reload failed", "err", err)
	}
}

// Call sends req and decodes the body envelope.
func Call[T any](ctx context.Context, c *Client, req Request) (Envelope[T], error) {
	req.ResponseType = ResponseJSON
	resp, err := c.Do(ctx, req)
	if err != nil {
		return Envelope[T]{}, err
	}
	env, err := decodeBody[Envelope[T]](resp.Raw)
	if err != nil {
		return Envelope[T]{}, c.rejectLocal(ctx, err)
	}
	return env, nil
}

// Unwrap is Call without the envelope.
func Unwrap[T any](ctx context.Context, c *Client, req Request) (T, error) {
	env, err := Call[T](ctx, c, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return env.Unwrap(), nil
}

// Download fetches a binary body untouched.
func (c *Client) Download(ctx context.Context, req Request) ([]byte, error) {
	req.ResponseType = ResponseBlob
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Raw, nil
}
