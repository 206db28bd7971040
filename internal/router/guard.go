package router

import (
	"context"
	"net/url"
)

// TokenSource exposes the current access token; "" means signed out.
type TokenSource interface {
	AccessToken() string
}

// TitleSetter receives the window title for each transition.
type TitleSetter interface {
	SetTitle(title string)
}

// AuthGuard returns the global before hook:
//  1. set the title from route meta
//  2. signed out: public paths pass, everything else goes to /login with
//     the destination kept in the redirect query
//  3. signed in: login-family paths go to /home
//  4. unmatched routes go to /login
//  5. allow
func AuthGuard(tokens TokenSource, titles TitleSetter, appTitle string) BeforeHook {
	return func(ctx context.Context, to, from Target) (*Location, error) {
		title := ""
		if to.Route != nil {
			title = to.Route.Meta.Title
		}
		titles.SetTitle(title + " | " + appTitle)

		if tokens.AccessToken() == "" {
			if IsPublic(to.Path) {
				return nil, nil
			}
			return loginRedirect(to), nil
		}

		if IsLoginFamily(to.Path) {
			return &Location{Path: PathHome}, nil
		}
		if !to.Matched() {
			return &Location{Path: PathLogin}, nil
		}
		return nil, nil
	}
}

// loginRedirect keeps the original query; its keys win over "redirect".
func loginRedirect(to Target) *Location {
	q := url.Values{"redirect": {to.Path}}
	for k, v := range to.Query {
		q[k] = append([]string(nil), v...)
	}
	return &Location{Path: PathLogin, Query: q}
}

// AfterGuard is the post-navigation hook; currently a no-op.
func AfterGuard() AfterHook {
	return func(ctx context.Context, to, from Target) {}
}
