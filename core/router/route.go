package router

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/route"
)

// DefaultMethods is used when a route is registered without methods.
var DefaultMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// Route is a registered endpoint. It is immutable once added to a Router.
type Route struct {
	pattern     *route.Pattern
	handler     handler.HandlerFunc
	methods     []string
	middleware  []handler.Middleware
	name        string
	summary     string
	description string
	tags        []string
}

// NewRoute compiles pattern and builds an unregistered route. Without
// WithMethods the route accepts DefaultMethods.
func NewRoute(pattern string, h handler.HandlerFunc, opts ...RouteOption) (*Route, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	p, err := route.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	rt := &Route{pattern: p, handler: h, methods: slices.Clone(DefaultMethods)}
	for _, opt := range opts {
		opt(rt)
	}
	if len(rt.methods) == 0 {
		rt.methods = slices.Clone(DefaultMethods)
	}
	for _, m := range rt.methods {
		if !validMethod(m) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, m)
		}
	}
	return rt, nil
}

// Pattern returns the compiled pattern, prefix included.
func (r *Route) Pattern() *route.Pattern { return r.pattern }

// Path returns the raw path template, prefix included.
func (r *Route) Path() string { return r.pattern.Raw() }

// Handler returns the endpoint handler.
func (r *Route) Handler() handler.HandlerFunc { return r.handler }

// Methods returns the allowed methods in registration order.
func (r *Route) Methods() []string { return slices.Clone(r.methods) }

// Middleware returns the route specific middleware.
func (r *Route) Middleware() []handler.Middleware { return slices.Clone(r.middleware) }

// Name returns the route name used by URLFor.
func (r *Route) Name() string { return r.name }

// Summary returns the one-line documentation string.
func (r *Route) Summary() string { return r.summary }

// Description returns the long documentation string.
func (r *Route) Description() string { return r.description }

// Tags returns the documentation tags.
func (r *Route) Tags() []string { return slices.Clone(r.tags) }

// Allows reports whether method is accepted.
func (r *Route) Allows(method string) bool {
	return slices.Contains(r.methods, method)
}

func (r *Route) String() string {
	return strings.Join(r.methods, ",") + " " + r.pattern.Raw()
}

// withPrefix returns a copy of r recompiled under prefix.
func (r *Route) withPrefix(prefix string, mws []handler.Middleware) (*Route, error) {
	p, err := route.Compile(route.Join(prefix, r.pattern.Raw()))
	if err != nil {
		return nil, err
	}
	cp := *r
	cp.pattern = p
	cp.methods = slices.Clone(r.methods)
	cp.tags = slices.Clone(r.tags)
	cp.middleware = append(slices.Clone(mws), r.middleware...)
	return &cp, nil
}

// RouteOption configures a route at registration.
type RouteOption func(*Route)

// WithMethods sets the allowed methods. Names are upper-cased.
func WithMethods(methods ...string) RouteOption {
	return func(r *Route) {
		r.methods = r.methods[:0]
		for _, m := range methods {
			m = strings.ToUpper(strings.TrimSpace(m))
			if !slices.Contains(r.methods, m) {
				r.methods = append(r.methods, m)
			}
		}
	}
}

// WithName sets the route name used for reverse lookup.
func WithName(name string) RouteOption {
	return func(r *Route) { r.name = name }
}

// WithMiddleware appends route specific middleware.
func WithMiddleware(mws ...handler.Middleware) RouteOption {
	return func(r *Route) { r.middleware = append(r.middleware, mws...) }
}

// WithSummary sets a one-line description.
func WithSummary(s string) RouteOption {
	return func(r *Route) { r.summary = s }
}

// WithDescription sets a long description.
func WithDescription(s string) RouteOption {
	return func(r *Route) { r.description = s }
}

// WithTags adds documentation tags.
func WithTags(tags ...string) RouteOption {
	return func(r *Route) { r.tags = append(r.tags, tags...) }
}

func validMethod(m string) bool {
	if m == "" {
		return false
	}
	for _, c := range m {
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
