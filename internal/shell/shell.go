// Package shell builds the console's object graph from config: storage,
// session store, locale, notifier, router, HTTP client and auth API, in that
// order.
package shell

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"breeze-console/internal/audit"
	"breeze-console/internal/authapi"
	"breeze-console/internal/config"
	"breeze-console/internal/i18n"
	"breeze-console/internal/notify"
	"breeze-console/internal/request"
	"breeze-console/internal/router"
	"breeze-console/internal/session"
	"breeze-console/internal/storage"
)

type Options struct {
	// Notifier defaults to a Feed bounded by the dialog timeout.
	Notifier notify.Notifier
	// Backend overrides the configured storage driver.
	Backend storage.Backend
	// HTTPClient overrides the backend HTTP client.
	HTTPClient *http.Client
}

type Shell struct {
	Config   config.Config
	Log      *slog.Logger
	Storage  *storage.Storage
	Cookies  *storage.Cookies
	Session  *session.Store
	Locale   *i18n.Locale
	Notifier notify.Notifier
	// Feed is set when the notifier is the polled feed.
	Feed   *notify.Feed
	Router *router.Router
	Client *request.Client
	API    *authapi.API
	Audit  *audit.Service

	health func(ctx context.Context) error
	close  func() error
}

func Build(ctx context.Context, cfg config.Config, log *slog.Logger, opts Options) (*Shell, error) {
	if log == nil {
		log = slog.Default()
	}

	opened := openedBackend{
		backend: opts.Backend,
		health:  func(context.Context) error { return nil },
		close:   func() error { return nil },
	}
	if opened.backend == nil {
		var err error
		opened, err = openBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	s := &Shell{
		Config:  cfg,
		Log:     log,
		Storage: storage.New(opened.backend, cfg.Storage.Namespace),
		Cookies: storage.NewCookies(opened.backend, cfg.Storage.Namespace),
		Router:  router.New(router.DefaultRoutes(), log),
		health:  opened.health,
		close:   opened.close,
	}

	store, err := session.NewStore(ctx, session.Options{
		Storage:    s.Storage,
		Cookies:    s.Cookies,
		Redirector: s.Router,
		Logout:     session.LogoutConfig{URL: cfg.LogoutURL(), Back: cfg.App.Origin},
		Logger:     log,
	})
	if err != nil {
		_ = s.close()
		return nil, err
	}
	s.Session = store

	s.Router.BeforeEach(router.AuthGuard(store, s.Router, cfg.App.Title))
	s.Router.AfterEach(router.AfterGuard())

	s.Audit = audit.NewService(audit.NewMemoryRepo())
	s.Router.OnLeave(func(ctx context.Context, target string) {
		u := store.UserInfo()
		if err := s.Audit.LogLogout(ctx, u.Username, u.Tenant()); err != nil {
			log.WarnContext(ctx, "audit logout failed", "err", err)
		}
	})

	s.Locale = i18n.NewLocale(cfg.App.DefaultLocale)

	s.Notifier = opts.Notifier
	if s.Notifier == nil {
		s.Feed = notify.NewFeed(cfg.App.DialogTimeout)
		s.Notifier = s.Feed
	} else if f, ok := s.Notifier.(*notify.Feed); ok {
		s.Feed = f
	}

	client, err := request.New(request.Options{
		BaseURL:              cfg.APIBaseURL(),
		Timeout:              cfg.HTTP.Timeout,
		Session:              store,
		Terminator:           store,
		Navigator:            s.Router,
		Locale:               s.Locale,
		Notifier:             s.Notifier,
		Logger:               log,
		HTTPClient:           opts.HTTPClient,
		CoalesceUnauthorized: cfg.HTTP.CoalesceUnauthorized,
		LoginPath:            router.PathLogin,
	})
	if err != nil {
		_ = s.close()
		return nil, err
	}
	s.Client = client

	api, err := authapi.New(client)
	if err != nil {
		_ = s.close()
		return nil, err
	}
	s.API = api

	return s, nil
}

// Health reports whether the storage driver is reachable.
func (s *Shell) Health(ctx context.Context) error {
	return s.health(ctx)
}

// Close waits for pending logout prompts, then releases the storage driver.
func (s *Shell) Close() error {
	if s.Client != nil {
		s.Client.Wait()
	}
	if s.close == nil {
		return nil
	}
	return s.close()
}

var (
	ErrEmptyToken = errors.New("shell: server returned no token")
	ErrNoProfile  = errors.New("shell: user profile unavailable")
)
