package shell

import (
	"context"
	"fmt"
	"net/url"

	"breeze-console/internal/authapi"
)

const dingAuthorizeURL = "https://login.dingtalk.com/oauth2/auth"

const (
	MethodPassword = "password"
	MethodTicket   = "ticket"
	MethodDingTalk = "dingtalk"
)

// SignIn stores token as the session's access token, then loads the profile.
// method is recorded in the audit trail.
func (s *Shell) SignIn(ctx context.Context, method, token string) (authapi.UserInfo, error) {
	if token == "" {
		return authapi.UserInfo{}, ErrEmptyToken
	}
	if err := s.Session.StoreLoginInfo(ctx, token); err != nil {
		return authapi.UserInfo{}, fmt.Errorf("store token: %w", err)
	}
	env := s.Session.StoreUserInfo(ctx, s.API)
	if env.Data.IsZero() {
		return authapi.UserInfo{}, ErrNoProfile
	}
	if err := s.Audit.LogLogin(ctx, method, env.Data.Username, env.Data.Tenant()); err != nil {
		s.Log.WarnContext(ctx, "audit login failed", "err", err)
	}
	return env.Data, nil
}

func (s *Shell) LoginWithPassword(ctx context.Context, username, password string) (authapi.UserInfo, error) {
	env, err := s.API.SimpleLogin(ctx, username, password)
	if err != nil {
		return authapi.UserInfo{}, err
	}
	return s.SignIn(ctx, MethodPassword, env.Data)
}

func (s *Shell) LoginWithTicket(ctx context.Context, ticket, back string) (authapi.UserInfo, error) {
	env, err := s.API.DoLoginByTicket(ctx, ticket, back)
	if err != nil {
		return authapi.UserInfo{}, err
	}
	return s.SignIn(ctx, MethodTicket, env.Data)
}

func (s *Shell) LoginWithDingTalk(ctx context.Context, authCode string) (authapi.UserInfo, error) {
	env, err := s.API.DingTalkAuth(ctx, authCode)
	if err != nil {
		return authapi.UserInfo{}, err
	}
	return s.SignIn(ctx, MethodDingTalk, env.Data)
}

// Logout ends the session and returns the external logout address the host
// was sent to.
func (s *Shell) Logout(ctx context.Context) (string, error) {
	if err := s.Session.Logout(ctx); err != nil {
		return "", err
	}
	return s.Router.External(), nil
}

// DingScanURL is the DingTalk QR login page; "" when DingTalk is not configured.
func (s *Shell) DingScanURL() string {
	d := s.Config.Ding
	if d.ClientID == "" || d.RedirectURI == "" {
		return ""
	}
	q := url.Values{}
	q.Set("redirect_uri", d.RedirectURI)
	q.Set("response_type", "code")
	q.Set("client_id", d.ClientID)
	q.Set("scope", "openid")
	q.Set("state", d.State)
	q.Set("prompt", "consent")
	return dingAuthorizeURL + "?" + q.Encode()
}
