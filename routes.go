package relay

import (
	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/router"
)

// AddRoute registers h on the application router.
func (a *App) AddRoute(pattern string, h handler.HandlerFunc, opts ...router.RouteOption) (*router.Route, error) {
	return a.router.AddRoute(pattern, h, opts...)
}

// Handle registers h for the default methods. It panics on invalid patterns.
func (a *App) Handle(pattern string, h handler.HandlerFunc, opts ...router.RouteOption) *router.Route {
	return a.router.Handle(pattern, h, opts...)
}

// Get registers a GET route.
func (a *App) Get(pattern string, h handler.HandlerFunc, opts ...router.RouteOption) *router.Route {
	return a.router.Get(pattern, h, opts...)
}

// Post registers a POST route.
func (a *App) Post(pattern string, h handler.HandlerFunc, opts ...router.RouteOption) *router.Route {
	return a.router.Post(pattern, h, opts...)
}

// Put registers a PUT route.
func (a *App) Put(pattern string, h handler.HandlerFunc, opts ...router.RouteOption) *router.Route {
	return a.router.Put(pattern, h, opts...)
}

// Patch registers a PATCH route.
func (a *App) Patch(pattern string, h handler.HandlerFunc, opts ...router.RouteOption) *router.Route {
	return a.router.Patch(pattern, h, opts...)
}

// Delete registers a DELETE route.
func (a *App) Delete(pattern string, h handler.HandlerFunc, opts ...router.RouteOption) *router.Route {
	return a.router.Delete(pattern, h, opts...)
}

// Mount copies the routes of sub under prefix.
func (a *App) Mount(prefix string, sub *router.Router) error {
	return a.router.Mount(prefix, sub)
}

// Group registers the routes added by fn under prefix with mws.
func (a *App) Group(prefix string, fn func(g *router.Router), mws ...handler.Middleware) error {
	return a.router.Group(prefix, fn, mws...)
}

// URLFor builds the path of a named route.
func (a *App) URLFor(name string, params map[string]string) (string, error) {
	return a.router.URLFor(name, params)
}

// Routes returns the registered routes in match order.
func (a *App) Routes() []*router.Route {
	return a.router.Routes()
}
