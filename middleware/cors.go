package middleware

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// AllowOrigins lists exact origins. Empty or containing "*" allows any origin.
	AllowOrigins []string

	// AllowMethods are answered to preflight requests.
	// Defaults to GET, HEAD, PUT, PATCH, POST, DELETE.
	AllowMethods []string

	// AllowHeaders are answered to preflight requests that ask for headers.
	AllowHeaders []string

	// ExposeHeaders lets browsers read these response headers.
	ExposeHeaders []string

	// AllowCredentials sends Access-Control-Allow-Credentials. It is never
	// sent together with a wildcard origin.
	AllowCredentials bool

	// MaxAge in seconds lets browsers cache preflight answers.
	MaxAge int

	// AllowOriginFunc decides origins itself and returns the value for
	// Access-Control-Allow-Origin. It takes precedence over AllowOrigins.
	AllowOriginFunc func(origin string) (string, bool)
}

// CORS allows cross-origin requests from any origin.
func CORS() handler.Middleware {
	return CORSWithConfig(CORSConfig{})
}

// CORSWithConfig returns the CORS middleware configured by cfg. Preflight
// requests are answered directly and never reach the handler.
func CORSWithConfig(cfg CORSConfig) handler.Middleware {
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPut,
			http.MethodPatch,
			http.MethodPost,
			http.MethodDelete,
		}
	}

	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{
			"Accept",
			"Accept-Language",
			"Content-Language",
			"Content-Type",
			"Origin",
			"Authorization",
			"X-Request-ID",
		}
	}

	allowMethods := strings.Join(cfg.AllowMethods, ",")
	allowHeaders := strings.Join(cfg.AllowHeaders, ",")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ",")

	allowOrigins := make(map[string]bool, len(cfg.AllowOrigins))
	for _, origin := range cfg.AllowOrigins {
		allowOrigins[origin] = true
	}

	resolve := func(origin string) (string, bool) {
		switch {
		case cfg.AllowOriginFunc != nil:
			return cfg.AllowOriginFunc(origin)
		case len(cfg.AllowOrigins) == 0 || allowOrigins["*"]:
			return "*", true
		case allowOrigins[origin]:
			return origin, true
		}
		return "", false
	}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		origin := req.Header("Origin")
		allowedOrigin, allowed := resolve(origin)

		requestMethod := req.Header("Access-Control-Request-Method")
		if req.Method() == http.MethodOptions && requestMethod != "" {
			if !allowed || !slices.Contains(cfg.AllowMethods, requestMethod) {
				return res.SetStatus(http.StatusForbidden), nil
			}

			res.SetHeader("Access-Control-Allow-Origin", allowedOrigin)
			res.SetHeader("Access-Control-Allow-Methods", allowMethods)
			if req.Header("Access-Control-Request-Headers") != "" {
				res.SetHeader("Access-Control-Allow-Headers", allowHeaders)
			}
			if cfg.AllowCredentials && allowedOrigin != "*" {
				res.SetHeader("Access-Control-Allow-Credentials", "true")
			}
			if cfg.MaxAge > 0 {
				res.SetHeader("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
			res.AddHeader("Vary", "Origin")
			res.AddHeader("Vary", "Access-Control-Request-Method")
			res.AddHeader("Vary", "Access-Control-Request-Headers")
			return res.NoContent(), nil
		}

		if !allowed {
			return next()
		}

		apply := func(r *response.Response) {
			r.SetHeader("Access-Control-Allow-Origin", allowedOrigin)
			if cfg.AllowCredentials && allowedOrigin != "*" {
				r.SetHeader("Access-Control-Allow-Credentials", "true")
			}
			if exposeHeaders != "" {
				r.SetHeader("Access-Control-Expose-Headers", exposeHeaders)
			}
			if !slices.Contains(r.Header().Values("Vary"), "Origin") {
				r.AddHeader("Vary", "Origin")
			}
		}

		apply(res)
		out, err := next()
		if out != nil && out != res {
			apply(out)
		}
		return out, err
	}
}

// AllowOriginWildcard echoes any non-empty origin. Unlike "*" it can be
// combined with AllowCredentials.
func AllowOriginWildcard() func(origin string) (string, bool) {
	return func(origin string) (string, bool) {
		if origin == "" {
			return "", false
		}
		return origin, true
	}
}

// AllowOriginSubdomain allows domain and any of its subdomains, on any port.
// "*.example.com", ".example.com" and "example.com" are equivalent.
func AllowOriginSubdomain(domain string) func(origin string) (string, bool) {
	domain = strings.TrimPrefix(domain, "*.")
	domain = strings.TrimPrefix(domain, ".")
	domain = strings.ToLower(domain)
	withDot := "." + domain

	return func(origin string) (string, bool) {
		if origin == "" {
			return "", false
		}

		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return "", false
		}

		host := strings.ToLower(u.Hostname())
		if host == domain || strings.HasSuffix(host, withDot) {
			return origin, true
		}
		return "", false
	}
}
