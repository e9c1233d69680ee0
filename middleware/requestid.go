package middleware

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

type requestIDContextKey struct{}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// Generator creates new request IDs. Defaults to UUID v4.
	Generator func() string

	// HeaderName is read for incoming IDs and set on the response. Defaults to "X-Request-ID".
	HeaderName string

	// UseExisting reuses an ID sent by the client instead of generating one.
	UseExisting bool
}

// RequestID tags every request with a fresh UUID.
func RequestID() handler.Middleware {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig returns the request ID middleware configured by cfg.
func RequestIDWithConfig(cfg RequestIDConfig) handler.Middleware {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}

	if cfg.Generator == nil {
		cfg.Generator = func() string {
			return uuid.New().String()
		}
	}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		var requestID string
		if cfg.UseExisting {
			requestID = req.Header(cfg.HeaderName)
		}
		if requestID == "" {
			requestID = cfg.Generator()
		}

		// Stored on the context so loggers handed req.Context() see it too.
		req.SetContext(context.WithValue(req.Context(), requestIDContextKey{}, requestID))
		res.SetHeader(cfg.HeaderName, requestID)

		out, err := next()
		if out != nil && out != res {
			out.SetHeader(cfg.HeaderName, requestID)
		}
		return out, err
	}
}

// GetRequestID returns the ID assigned by RequestID. A *request.Request is a
// valid ctx.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey{}).(string)
	return id, ok && id != ""
}

// RequestIDExtractor adds the request ID to records logged with a request context.
//
//	log := logger.New(logger.WithContextExtractors(middleware.RequestIDExtractor))
func RequestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	id, ok := GetRequestID(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return logger.RequestID(id), true
}
