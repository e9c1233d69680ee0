package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/core/auth"
	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/health"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/core/router"
	"github.com/dmitrymomot/relay/core/session"
	"github.com/dmitrymomot/relay/core/validator"
	"github.com/dmitrymomot/relay/middleware"
	"github.com/dmitrymomot/relay/pkg/ratelimiter"
)

const tokenTTL = time.Hour

type deps struct {
	logger   *slog.Logger
	registry prometheus.Registerer
	redis    redis.UniversalClient
}

var echoSchema = validator.NewSchema().
	Field("message", validator.Required(), validator.String(), validator.MaxLength(280)).
	Field("tags", validator.Tag("omitempty,max=5"))

func isProbe(req *request.Request) bool {
	return strings.HasPrefix(req.Path(), "/health/") || req.Path() == "/ping"
}

// newApp assembles the demo application. Redis backs sessions and rate
// limits when d.redis is set; otherwise both stay in memory.
func newApp(cfg settings, d deps) (*relay.App, error) {
	app := relay.New(relay.WithConfig(cfg.Config), relay.WithLogger(d.logger))

	var (
		sessions session.Backend
		limiter  ratelimiter.RateLimiter
		err      error
	)
	if d.redis != nil {
		sessions = session.NewRedisBackend(d.redis, "")
		limiter, err = ratelimiter.NewRedisLimiter(d.redis, cfg.RateLimit, "")
	} else {
		sessions = session.NewMemoryBackend(cfg.Session.MemorySize, cfg.Session.TTL)
		limiter, err = ratelimiter.NewMemoryLimiter(cfg.RateLimit)
	}
	if err != nil {
		return nil, err
	}
	manager := session.NewFromConfig(sessions, cfg.Session, session.WithLogger(d.logger))

	tokens, err := auth.NewJWTBackend([]byte(cfg.JWTSecret), auth.WithIssuer("relay"))
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(cfg.DemoPassword)
	if err != nil {
		return nil, err
	}
	passwords := auth.NewBasicBackend(auth.StaticCredentials{"demo": hash})

	maintenance := cfg.Maintenance
	app.Use(
		middleware.RequestID(),
		middleware.Logging(d.logger),
		middleware.Tracing(),
		middleware.MetricsWithConfig(middleware.MetricsConfig{Registerer: d.registry}),
		middleware.SecurityHeaders(),
		middleware.CORS(),
		middleware.Compress(),
		middleware.MaintenanceWithConfig(middleware.MaintenanceConfig{
			Skip:       isProbe,
			Enabled:    func() bool { return maintenance },
			RetryAfter: time.Minute,
		}),
		middleware.RateLimitWithConfig(middleware.RateLimitConfig{
			Skip:    isProbe,
			Limiter: limiter,
		}),
		middleware.BodyLimitWithSize(middleware.MB),
		middleware.Timeout(10*time.Second),
		middleware.SessionWithConfig(middleware.SessionConfig{Manager: manager, Logger: d.logger}),
	)

	app.Get("/health/live", health.Liveness)
	app.Get("/health/ready", health.Readiness(d.logger, health.Started(app.Lifecycle())))
	app.Get("/ping", health.NoContent)

	app.Get("/hello/{name:str}", hello, router.WithName("hello"), router.WithSummary("Greets by name"))
	app.Post("/login", login(tokens), router.WithMiddleware(middleware.RequireAuth(passwords)))
	app.Post("/logout", logout)
	app.Get("/api/me", me, router.WithMiddleware(
		middleware.RequireAuth(auth.Chain(tokens, auth.NewSessionBackend())),
	))
	app.Post("/api/echo", echo, router.WithMiddleware(middleware.Validate(echoSchema)))

	app.HandleStatus(http.StatusNotFound, func(req *request.Request, res *response.Response, err error) (*response.Response, error) {
		return res.SetStatus(http.StatusNotFound).JSON(map[string]string{
			"error": "no route for " + req.Method() + " " + req.Path(),
		}), nil
	})
	return app, nil
}

func hello(req *request.Request, res *response.Response) (*response.Response, error) {
	return res.Text("Hello, " + req.Param("name") + "!"), nil
}

// login trades Basic credentials for a session and a bearer token.
func login(tokens *auth.JWTBackend) handler.HandlerFunc {
	return func(req *request.Request, res *response.Response) (*response.Response, error) {
		user := req.User()
		if err := auth.Login(req, user.ID()); err != nil {
			return nil, err
		}
		token, err := tokens.Issue(user.ID(), tokenTTL, nil)
		if err != nil {
			return nil, err
		}
		return res.JSON(map[string]any{
			"token":      token,
			"expires_in": int(tokenTTL.Seconds()),
		}), nil
	}
}

func logout(req *request.Request, res *response.Response) (*response.Response, error) {
	auth.Logout(req)
	return res.NoContent(), nil
}

func me(req *request.Request, res *response.Response) (*response.Response, error) {
	user := req.User()
	return res.JSON(map[string]string{
		"id":    user.ID(),
		"scope": req.AuthScope(),
	}), nil
}

func echo(req *request.Request, res *response.Response) (*response.Response, error) {
	body, ok := middleware.ValidatedMap(req)
	if !ok {
		return nil, errors.New("echo: body was not validated")
	}
	return res.JSON(body), nil
}
