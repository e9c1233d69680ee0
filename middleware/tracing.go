package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

const tracerName = "github.com/dmitrymomot/relay/middleware"

// TracingConfig configures the tracing middleware.
type TracingConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// TracerProvider creates the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// Propagator extracts the parent span from request headers.
	// Defaults to otel.GetTextMapPropagator().
	Propagator propagation.TextMapPropagator

	// SpanName names the server span. Defaults to "METHOD /route/{template}",
	// or "METHOD" alone for unmatched requests.
	SpanName func(req *request.Request) string
}

// Tracing starts a server span per request with the global provider.
func Tracing() handler.Middleware {
	return TracingWithConfig(TracingConfig{})
}

// TracingWithConfig returns the tracing middleware configured by cfg. The
// span is stored in the request context, so spans started by handlers from
// req.Context() become its children.
func TracingWithConfig(cfg TracingConfig) handler.Middleware {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}

	if cfg.Propagator == nil {
		cfg.Propagator = otel.GetTextMapPropagator()
	}

	if cfg.SpanName == nil {
		cfg.SpanName = func(req *request.Request) string {
			if route := req.RoutePath(); route != "" {
				return req.Method() + " " + route
			}
			return req.Method()
		}
	}

	tracer := cfg.TracerProvider.Tracer(tracerName)

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		parent := cfg.Propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Headers()))

		attrs := []attribute.KeyValue{
			attribute.String("http.request.method", req.Method()),
			attribute.String("url.path", req.Path()),
			attribute.String("url.scheme", req.Scheme()),
			attribute.String("client.address", req.ClientIP()),
		}
		if route := req.RoutePath(); route != "" {
			attrs = append(attrs, attribute.String("http.route", route))
		}
		if ua := req.Header("User-Agent"); ua != "" {
			attrs = append(attrs, attribute.String("user_agent.original", ua))
		}

		ctx, span := tracer.Start(parent, cfg.SpanName(req),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		req.SetContext(ctx)

		out, err := next()

		status := statusOf(out, err)
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if err != nil {
			span.RecordError(err)
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		return out, err
	}
}

// TraceIDExtractor adds the active trace ID to records logged with a request context.
//
//	log := logger.New(logger.WithContextExtractors(middleware.TraceIDExtractor))
func TraceIDExtractor(ctx context.Context) (slog.Attr, bool) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return slog.Attr{}, false
	}
	return logger.TraceID(sc.TraceID().String()), true
}
