// Package authapi issues the SSO/auth backend calls. Each function only
// shapes parameters; the request client does the rest.
package authapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"breeze-console/internal/request"
)

const (
	pathIsLogin          = "/sso/isLogin"
	pathSsoAuthURL       = "/sso/getSsoAuthUrl"
	pathDoLoginByTicket  = "/sso/doLoginByTicket"
	pathUserInfo         = "/sso/userInfo"
	pathDingTalkAuth     = "/dingTalk/auth"
	pathSimpleLogin      = "/auth/simpleLogin"
	pathListTreeMenu     = "/auth/v1/menu/listTreeMenu"
	pathGetHomeSsoClient = "/auth/v1/ssoClient/getHomeSsoClient"

	platformPC = "pc"
)

type API struct {
	client *request.Client
	clock  func() time.Time
}

func New(c *request.Client) (*API, error) {
	if c == nil {
		return nil, errors.New("authapi: client is nil")
	}
	return &API{client: c, clock: time.Now}, nil
}

// CheckIsLogin asks the SSO server whether the current session is logged in.
func (a *API) CheckIsLogin(ctx context.Context) (request.Envelope[bool], error) {
	return request.Call[bool](ctx, a.client, request.Request{
		Method: http.MethodGet,
		URL:    pathIsLogin,
	})
}

// GetSsoAuthURL returns the SSO authorization page that sends the user back to back.
func (a *API) GetSsoAuthURL(ctx context.Context, back string) (request.Envelope[string], error) {
	return request.Call[string](ctx, a.client, request.Request{
		Method: http.MethodGet,
		URL:    pathSsoAuthURL,
		Params: url.Values{"clientLoginUrl": {back}},
	})
}

// DoLoginByTicket exchanges an SSO ticket for an access token.
func (a *API) DoLoginByTicket(ctx context.Context, ticket, back string) (request.Envelope[string], error) {
	return request.Call[string](ctx, a.client, request.Request{
		Method: http.MethodGet,
		URL:    pathDoLoginByTicket,
		Params: url.Values{"ticket": {ticket}, "back": {back}},
	})
}

// UserInfo fetches the current user's profile.
func (a *API) UserInfo(ctx context.Context) (request.Envelope[UserInfo], error) {
	return request.Call[UserInfo](ctx, a.client, request.Request{
		Method: http.MethodGet,
		URL:    pathUserInfo,
	})
}

// DingTalkAuth exchanges a DingTalk auth code for an access token.
func (a *API) DingTalkAuth(ctx context.Context, authCode string) (request.Envelope[string], error) {
	return request.Call[string](ctx, a.client, request.Request{
		Method: http.MethodGet,
		URL:    pathDingTalkAuth,
		Params: url.Values{"authCode": {authCode}},
	})
}

// SimpleLogin authenticates with username and password. The _t timestamp
// defeats intermediary caching of the GET.
func (a *API) SimpleLogin(ctx context.Context, username, password string) (request.Envelope[string], error) {
	return request.Call[string](ctx, a.client, request.Request{
		Method: http.MethodGet,
		URL:    pathSimpleLogin,
		Params: url.Values{
			"username": {username},
			"password": {password},
			"_t":       {strconv.FormatInt(a.clock().UnixMilli(), 10)},
		},
	})
}

// ListPermission returns the PC menu tree in the given language.
func (a *API) ListPermission(ctx context.Context, lang string) (request.Envelope[[]Menu], error) {
	return request.Call[[]Menu](ctx, a.client, request.Request{
		Method: http.MethodGet,
		URL:    pathListTreeMenu,
		Params: url.Values{"platformCode": {platformPC}, "i18n": {lang}},
	})
}

// GetHomeSsoClient lists the subsystems shown on the home page.
func (a *API) GetHomeSsoClient(ctx context.Context) (request.Envelope[[]SsoClient], error) {
	return request.Call[[]SsoClient](ctx, a.client, request.Request{
		Method: http.MethodGet,
		URL:    pathGetHomeSsoClient,
	})
}
