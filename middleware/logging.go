package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// LoggingConfig configures the logging middleware.
type LoggingConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// Logger receives the records. Defaults to slog.Default().
	Logger *slog.Logger

	// LogLevel is used for successful requests. Defaults to Info.
	LogLevel slog.Level

	// LogRequest logs when the request enters the middleware.
	LogRequest bool

	// LogResponse logs when the rest of the chain returned.
	// When neither LogRequest nor LogResponse is set, both are enabled.
	LogResponse bool

	// LogRequestBody adds the buffered request body to the start record.
	LogRequestBody bool

	// LogResponseBody adds non-streamed response bodies to the completion record.
	LogResponseBody bool

	// LogHeaders adds request and response headers. Sensitive ones are redacted.
	LogHeaders bool

	// MaxBodyLogSize truncates logged bodies. Defaults to 4KB.
	MaxBodyLogSize int

	// SensitiveHeaders are redacted when LogHeaders is set.
	SensitiveHeaders []string

	// SlowRequestThreshold raises successful requests slower than this to Warn.
	// Defaults to 5s.
	SlowRequestThreshold time.Duration

	// Component is the component attribute. Defaults to "http".
	Component string
}

// Logging logs every request with log.
func Logging(log *slog.Logger) handler.Middleware {
	return LoggingWithConfig(LoggingConfig{Logger: log})
}

// LoggingWithConfig returns the logging middleware configured by cfg.
func LoggingWithConfig(cfg LoggingConfig) handler.Middleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if !cfg.LogRequest && !cfg.LogResponse {
		cfg.LogRequest = true
		cfg.LogResponse = true
	}

	if cfg.MaxBodyLogSize <= 0 {
		cfg.MaxBodyLogSize = 4 * 1024
	}

	if cfg.SensitiveHeaders == nil {
		cfg.SensitiveHeaders = []string{
			"Authorization",
			"Cookie",
			"Set-Cookie",
			"X-Api-Key",
			"X-Auth-Token",
			"X-Csrf-Token",
		}
	}

	cfg.SensitiveHeaders = slices.Clone(cfg.SensitiveHeaders)
	for i, name := range cfg.SensitiveHeaders {
		cfg.SensitiveHeaders[i] = http.CanonicalHeaderKey(name)
	}

	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}

	if cfg.Component == "" {
		cfg.Component = "http"
	}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		start := time.Now()
		requestID, _ := GetRequestID(req)

		if cfg.LogRequest {
			attrs := []slog.Attr{
				logger.Component(cfg.Component),
				logger.Event("request"),
				logger.Method(req.Method()),
				logger.Path(req.Path()),
				logger.ClientIP(req.ClientIP()),
				logger.UserAgent(req.Header("User-Agent")),
				logger.RequestID(requestID),
			}
			if q := req.URL().RawQuery; q != "" {
				attrs = append(attrs, slog.String("query", q))
			}
			if cfg.LogRequestBody {
				if body, err := req.Body(); err == nil && len(body) > 0 {
					attrs = append(attrs, bodyAttrs("request_body", body, cfg.MaxBodyLogSize)...)
				}
			}
			if cfg.LogHeaders {
				attrs = append(attrs, slog.Any("request_headers", redact(req.Headers(), cfg.SensitiveHeaders)))
			}
			cfg.Logger.LogAttrs(req, cfg.LogLevel, "HTTP request started", attrs...)
		}

		out, err := next()

		if !cfg.LogResponse {
			return out, err
		}

		duration := time.Since(start)
		status := statusOf(out, err)

		attrs := []slog.Attr{
			logger.Component(cfg.Component),
			logger.Event("response"),
			logger.Method(req.Method()),
			logger.Path(req.Path()),
			logger.Route(req.RoutePath()),
			logger.StatusCode(status),
			logger.Duration(duration),
			logger.RequestID(requestID),
		}
		if user := req.User(); user.IsAuthenticated() {
			attrs = append(attrs, logger.ID("user_id", user.ID()))
		}
		if out != nil {
			if body, berr := out.Body(); berr == nil {
				attrs = append(attrs, logger.BytesOut(int64(len(body))))
				if cfg.LogResponseBody && len(body) > 0 {
					attrs = append(attrs, bodyAttrs("response_body", body, cfg.MaxBodyLogSize)...)
				}
			}
			if cfg.LogHeaders {
				attrs = append(attrs, slog.Any("response_headers", redact(out.Header(), cfg.SensitiveHeaders)))
			}
		}

		level := cfg.LogLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
			attrs = append(attrs, logger.Error(err))
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		case duration > cfg.SlowRequestThreshold:
			level = slog.LevelWarn
			attrs = append(attrs, slog.Bool("slow_request", true))
		}

		cfg.Logger.LogAttrs(req, level, "HTTP request completed", attrs...)
		return out, err
	}
}

func bodyAttrs(key string, body []byte, limit int) []slog.Attr {
	if len(body) <= limit {
		return []slog.Attr{slog.String(key, string(body))}
	}
	return []slog.Attr{
		slog.String(key, string(body[:limit])),
		slog.Bool(key+"_truncated", true),
	}
}

func redact(h http.Header, sensitive []string) map[string]any {
	out := make(map[string]any, len(h))
	for key, values := range h {
		switch {
		case slices.Contains(sensitive, key):
			out[key] = "[REDACTED]"
		case len(values) == 1:
			out[key] = values[0]
		default:
			out[key] = values
		}
	}
	return out
}
