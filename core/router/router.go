package router

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/route"
)

// Status is the outcome of a match.
type Status int

const (
	NotFound Status = iota
	Found
	MethodNotAllowed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case MethodNotAllowed:
		return "method_not_allowed"
	default:
		return "not_found"
	}
}

// Match is the result of Router.Match.
type Match struct {
	Status Status
	Route  *Route
	Params map[string]string
	// Allowed is the sorted union of methods of routes matching the path.
	// Set only for MethodNotAllowed.
	Allowed []string
}

// StatusCode maps the outcome to an HTTP status.
func (m Match) StatusCode() int {
	switch m.Status {
	case Found:
		return http.StatusOK
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusNotFound
	}
}

type cached struct {
	index   int
	params  map[string]string
	status  Status
	allowed []string
}

// Router is an ordered route table.
type Router struct {
	mu         sync.RWMutex
	prefix     string
	routes     []*Route
	names      map[string]*Route
	middleware []handler.Middleware
	logger     *slog.Logger
	cache      *lru.Cache[string, cached]
}

// Option configures a Router.
type Option func(*Router)

// WithPrefix sets the path prefix applied to every route. A prefix without a
// leading slash is corrected and logged.
func WithPrefix(prefix string) Option {
	return func(r *Router) { r.prefix = prefix }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRouterMiddleware sets middleware prepended to the middleware of every
// route registered on this router.
func WithRouterMiddleware(mws ...handler.Middleware) Option {
	return func(r *Router) { r.middleware = append(r.middleware, mws...) }
}

// WithMatchCache memoizes up to size match results. The cache is cleared
// whenever a route is added.
func WithMatchCache(size int) Option {
	return func(r *Router) {
		if size <= 0 {
			return
		}
		c, err := lru.New[string, cached](size)
		if err == nil {
			r.cache = c
		}
	}
}

// New creates a router.
func New(opts ...Option) *Router {
	r := &Router{
		names:  make(map[string]*Route),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.prefix = r.normalizePrefix(r.prefix)
	return r
}

func (r *Router) normalizePrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		r.logger.Warn("router prefix must start with a slash, correcting",
			slog.String("prefix", prefix),
		)
		prefix = "/" + prefix
	}
	return strings.TrimSuffix(prefix, "/")
}

// Prefix returns the normalized prefix.
func (r *Router) Prefix() string { return r.prefix }

// AddRoute builds a route from pattern and registers it. See NewRoute.
func (r *Router) AddRoute(pattern string, h handler.HandlerFunc, opts ...RouteOption) (*Route, error) {
	rt, err := NewRoute(pattern, h, opts...)
	if err != nil {
		return nil, err
	}
	return r.Add(rt)
}

// Add registers rt under the router prefix and middleware. The registered
// copy is returned; rt itself is left untouched. Routes are never
// deduplicated: the first registered match wins.
func (r *Router) Add(rt *Route) (*Route, error) {
	if rt == nil {
		return nil, ErrNilHandler
	}
	added, err := rt.withPrefix(r.prefix, r.middleware)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	if err := r.add(added); err != nil {
		return nil, err
	}

	r.logger.Debug("route registered",
		slog.String("route", added.String()),
		slog.String("name", added.name),
	)
	return added, nil
}

func (r *Router) add(routes ...*Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	for _, rt := range routes {
		if rt.name == "" {
			continue
		}
		if _, dup := r.names[rt.name]; dup || seen[rt.name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, rt.name)
		}
		seen[rt.name] = true
	}

	for _, rt := range routes {
		r.routes = append(r.routes, rt)
		if rt.name != "" {
			r.names[rt.name] = rt
		}
	}
	if r.cache != nil {
		r.cache.Purge()
	}
	return nil
}

// Handle is like AddRoute but panics on error.
func (r *Router) Handle(pattern string, h handler.HandlerFunc, opts ...RouteOption) *Route {
	rt, err := r.AddRoute(pattern, h, opts...)
	if err != nil {
		panic(err)
	}
	return rt
}

func (r *Router) method(m, pattern string, h handler.HandlerFunc, opts []RouteOption) *Route {
	return r.Handle(pattern, h, append([]RouteOption{WithMethods(m)}, opts...)...)
}

// Get registers a GET route.
func (r *Router) Get(pattern string, h handler.HandlerFunc, opts ...RouteOption) *Route {
	return r.method(http.MethodGet, pattern, h, opts)
}

// Post registers a POST route.
func (r *Router) Post(pattern string, h handler.HandlerFunc, opts ...RouteOption) *Route {
	return r.method(http.MethodPost, pattern, h, opts)
}

// Put registers a PUT route.
func (r *Router) Put(pattern string, h handler.HandlerFunc, opts ...RouteOption) *Route {
	return r.method(http.MethodPut, pattern, h, opts)
}

// Patch registers a PATCH route.
func (r *Router) Patch(pattern string, h handler.HandlerFunc, opts ...RouteOption) *Route {
	return r.method(http.MethodPatch, pattern, h, opts)
}

// Delete registers a DELETE route.
func (r *Router) Delete(pattern string, h handler.HandlerFunc, opts ...RouteOption) *Route {
	return r.method(http.MethodDelete, pattern, h, opts)
}

// Head registers a HEAD route.
func (r *Router) Head(pattern string, h handler.HandlerFunc, opts ...RouteOption) *Route {
	return r.method(http.MethodHead, pattern, h, opts)
}

// Options registers an OPTIONS route.
func (r *Router) Options(pattern string, h handler.HandlerFunc, opts ...RouteOption) *Route {
	return r.method(http.MethodOptions, pattern, h, opts)
}

// Mount copies every route of sub under prefix. The parent router prefix is
// applied as well.
func (r *Router) Mount(prefix string, sub *Router) error {
	if sub == nil {
		return ErrNilRouter
	}
	prefix = route.Join(r.prefix, r.normalizePrefix(prefix))

	sub.mu.RLock()
	src := slices.Clone(sub.routes)
	sub.mu.RUnlock()

	copies := make([]*Route, 0, len(src))
	for _, rt := range src {
		cp, err := rt.withPrefix(prefix, r.middleware)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPattern, err)
		}
		copies = append(copies, cp)
	}
	return r.add(copies...)
}

// Group registers the routes added by fn under prefix, with mws prepended to
// each of them.
func (r *Router) Group(prefix string, fn func(g *Router), mws ...handler.Middleware) error {
	g := New(WithLogger(r.logger), WithRouterMiddleware(mws...))
	fn(g)
	return r.Mount(prefix, g)
}

// Match resolves method and path. The first route matching both wins.
func (r *Router) Match(method, path string) Match {
	method = strings.ToUpper(method)
	key := method + " " + path

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.cache != nil {
		if c, ok := r.cache.Get(key); ok {
			return r.fromCache(c)
		}
	}

	var allowed []string
	for i, rt := range r.routes {
		params, ok := rt.pattern.Match(path)
		if !ok {
			continue
		}
		if rt.Allows(method) {
			r.store(key, cached{index: i, params: params, status: Found})
			return Match{Status: Found, Route: rt, Params: params}
		}
		for _, m := range rt.methods {
			if !slices.Contains(allowed, m) {
				allowed = append(allowed, m)
			}
		}
	}

	if len(allowed) > 0 {
		slices.Sort(allowed)
		r.store(key, cached{status: MethodNotAllowed, allowed: allowed})
		return Match{Status: MethodNotAllowed, Allowed: slices.Clone(allowed)}
	}
	r.store(key, cached{status: NotFound})
	return Match{Status: NotFound}
}

func (r *Router) store(key string, c cached) {
	if r.cache == nil {
		return
	}
	if c.params != nil {
		c.params = maps.Clone(c.params)
	}
	r.cache.Add(key, c)
}

func (r *Router) fromCache(c cached) Match {
	switch c.status {
	case Found:
		return Match{Status: Found, Route: r.routes[c.index], Params: maps.Clone(c.params)}
	case MethodNotAllowed:
		return Match{Status: MethodNotAllowed, Allowed: slices.Clone(c.allowed)}
	default:
		return Match{Status: NotFound}
	}
}

// Lookup returns the route registered under name.
func (r *Router) Lookup(name string) (*Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.names[name]
	return rt, ok
}

// URLFor builds the path of the named route. params must name exactly the
// route parameters.
func (r *Router) URLFor(name string, params map[string]string) (string, error) {
	rt, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	return rt.pattern.Build(params)
}

// Routes returns the routes in registration order.
func (r *Router) Routes() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.routes)
}

// Len returns the number of routes.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}
