// Package router is the console's route table and navigation pipeline.
// Every transition runs the before hooks in order; a hook may allow it or
// redirect it somewhere else.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
)

var (
	ErrRedirectLoop = errors.New("router: too many redirects")
	ErrBadLocation  = errors.New("router: invalid location")
)

const maxRedirects = 10

// Location is a path plus query, the unit hooks redirect to.
type Location struct {
	Path  string
	Query url.Values
}

// ParseLocation accepts only same-origin paths. Backslashes and paths a
// browser would read as protocol-relative ("//host", "/.//host") are refused.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrBadLocation, err)
	}
	if u.IsAbs() || u.Host != "" || u.Opaque != "" {
		return Location{}, fmt.Errorf("%w: %q is not an in-app path", ErrBadLocation, raw)
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	if !inAppPath(p) {
		return Location{}, fmt.Errorf("%w: %q is not an in-app path", ErrBadLocation, raw)
	}
	return Location{Path: p, Query: u.Query()}, nil
}

func inAppPath(p string) bool {
	if strings.Contains(p, `\`) {
		return false
	}
	// An empty segment anywhere can turn into a leading "//" once the
	// browser resolves dot segments.
	return strings.HasPrefix(p, "/") && !strings.Contains(p, "//")
}

func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// Target is a resolved location. Route is nil when nothing matched.
type Target struct {
	Location
	Route *Route
}

// Matched reports whether a route definition exists for the target.
func (t Target) Matched() bool { return t.Route != nil }

// BeforeHook decides on a transition. A nil location allows it.
type BeforeHook func(ctx context.Context, to, from Target) (*Location, error)

// AfterHook observes a completed transition.
type AfterHook func(ctx context.Context, to, from Target)

type Router struct {
	byPath map[string]Route
	routes []Route
	log    *slog.Logger

	mu       sync.Mutex
	current  Target
	title    string
	external string
	before   []BeforeHook
	after    []AfterHook
	onReload []func(ctx context.Context)
	onLeave  []func(ctx context.Context, target string)
}

func New(routes []Route, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	by := make(map[string]Route, len(routes))
	for _, r := range routes {
		by[r.Path] = r
	}
	return &Router{byPath: by, routes: append([]Route(nil), routes...), log: log}
}

func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

func (r *Router) Resolve(loc Location) Target {
	t := Target{Location: loc}
	if rt, ok := r.byPath[loc.Path]; ok {
		t.Route = &rt
	}
	return t
}

func (r *Router) BeforeEach(h BeforeHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.before = append(r.before, h)
}

func (r *Router) AfterEach(h AfterHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.after = append(r.after, h)
}

// OnReload registers a callback run when the host is told to reload.
func (r *Router) OnReload(fn func(ctx context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReload = append(r.onReload, fn)
}

// OnLeave registers a callback run when the host is sent to an external URL.
func (r *Router) OnLeave(fn func(ctx context.Context, target string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLeave = append(r.onLeave, fn)
}

// Push navigates to raw, following hook redirects, and returns where the
// navigation landed.
func (r *Router) Push(ctx context.Context, raw string) (Target, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return Target{}, err
	}
	return r.push(ctx, loc)
}

func (r *Router) push(ctx context.Context, loc Location) (Target, error) {
	r.mu.Lock()
	from := r.current
	before := append([]BeforeHook(nil), r.before...)
	after := append([]AfterHook(nil), r.after...)
	r.mu.Unlock()

	to := r.Resolve(loc)
	for hops := 0; ; hops++ {
		if hops > maxRedirects {
			return Target{}, fmt.Errorf("%w: last was %s", ErrRedirectLoop, to.String())
		}
		next, err := runBefore(ctx, before, to, from)
		if err != nil {
			return Target{}, err
		}
		if next == nil {
			break
		}
		r.log.DebugContext(ctx, "navigation redirected", "from", to.String(), "to", next.String())
		to = r.Resolve(*next)
	}

	r.mu.Lock()
	r.current = to
	r.mu.Unlock()

	for _, h := range after {
		h(ctx, to, from)
	}
	return to, nil
}

func runBefore(ctx context.Context, hooks []BeforeHook, to, from Target) (*Location, error) {
	for _, h := range hooks {
		next, err := h(ctx, to, from)
		if err != nil {
			return nil, err
		}
		if next != nil {
			return next, nil
		}
	}
	return nil, nil
}

// Navigate pushes path and discards the landing target.
func (r *Router) Navigate(ctx context.Context, path string) error {
	_, err := r.Push(ctx, path)
	return err
}

// Reload re-enters the current location so the hooks see fresh state.
func (r *Router) Reload(ctx context.Context) error {
	r.mu.Lock()
	cur := r.current
	hooks := append([]func(context.Context){}, r.onReload...)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(ctx)
	}
	if cur.Path == "" {
		cur.Location = Location{Path: PathLogin}
	}
	_, err := r.push(ctx, cur.Location)
	return err
}

// Redirect records an external destination for the host window.
func (r *Router) Redirect(ctx context.Context, target string) error {
	u, err := url.Parse(target)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("%w: %q is not an absolute URL", ErrBadLocation, target)
	}
	r.mu.Lock()
	r.external = target
	hooks := append([]func(context.Context, string){}, r.onLeave...)
	r.mu.Unlock()

	r.log.InfoContext(ctx, "leaving console", "target", u.Scheme+"://"+u.Host+u.Path)
	for _, fn := range hooks {
		fn(ctx, target)
	}
	return nil
}

// External returns the last external destination, if any.
func (r *Router) External() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.external
}

func (r *Router) Current() Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Router) SetTitle(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.title = title
}

func (r *Router) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}
