package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/exception"
	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/middleware"
)

// newReq builds a request from alternating header names and values.
func newReq(method, target string, headers ...string) *request.Request {
	r := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	return request.FromHTTP(r)
}

func newBodyReq(method, target, body string, headers ...string) *request.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	return request.FromHTTP(r)
}

func okText(req *request.Request, res *response.Response) (*response.Response, error) {
	return res.Text("ok"), nil
}

func fails(err error) handler.HandlerFunc {
	return func(req *request.Request, res *response.Response) (*response.Response, error) {
		return nil, err
	}
}

// run executes h behind mws without fault rendering.
func run(req *request.Request, h handler.HandlerFunc, mws ...handler.Middleware) (*response.Response, error) {
	return handler.NewChain(h, mws...).Run(req, response.New())
}

// render executes h behind mws with faults rendered into responses.
func render(t *testing.T, req *request.Request, h handler.HandlerFunc, mws ...handler.Middleware) *response.Response {
	t.Helper()
	chain := append([]handler.Middleware{exception.ServerErrors(exception.ServerErrorsConfig{})}, mws...)
	out, err := handler.NewChain(h, chain...).Run(req, response.New())
	require.NoError(t, err)
	require.NotNil(t, out)
	return out
}

func bodyOf(t *testing.T, out *response.Response) string {
	t.Helper()
	b, err := out.Body()
	require.NoError(t, err)
	return string(b)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates an id", func(t *testing.T) {
		t.Parallel()

		var seen string
		h := func(req *request.Request, res *response.Response) (*response.Response, error) {
			seen, _ = middleware.GetRequestID(req)
			return res.Text("ok"), nil
		}
		out, err := run(newReq(http.MethodGet, "/"), h, middleware.RequestID())
		require.NoError(t, err)

		assert.Len(t, seen, 36)
		assert.Equal(t, seen, out.Header().Get("X-Request-ID"))
	})

	t.Run("reuses the incoming id when asked", func(t *testing.T) {
		t.Parallel()

		mw := middleware.RequestIDWithConfig(middleware.RequestIDConfig{UseExisting: true})
		out, err := run(newReq(http.MethodGet, "/", "X-Request-ID", "client-id"), okText, mw)
		require.NoError(t, err)
		assert.Equal(t, "client-id", out.Header().Get("X-Request-ID"))
	})

	t.Run("ignores the incoming id by default", func(t *testing.T) {
		t.Parallel()

		out, err := run(newReq(http.MethodGet, "/", "X-Request-ID", "client-id"), okText, middleware.RequestID())
		require.NoError(t, err)
		assert.NotEqual(t, "client-id", out.Header().Get("X-Request-ID"))
	})

	t.Run("tags fresh responses and faults", func(t *testing.T) {
		t.Parallel()

		mw := middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Generator: func() string { return "fixed" },
		})
		fresh := func(req *request.Request, res *response.Response) (*response.Response, error) {
			return response.Text(http.StatusCreated, "new"), nil
		}
		out, err := run(newReq(http.MethodGet, "/"), fresh, mw)
		require.NoError(t, err)
		assert.Equal(t, "fixed", out.Header().Get("X-Request-ID"))

		out = render(t, newReq(http.MethodGet, "/"), fails(response.ErrNotFound), mw)
		assert.Equal(t, http.StatusNotFound, out.Status())
		assert.Equal(t, "fixed", out.Header().Get("X-Request-ID"))
	})

	t.Run("extractor", func(t *testing.T) {
		t.Parallel()

		_, ok := middleware.RequestIDExtractor(context.Background())
		assert.False(t, ok)

		var key, value string
		h := func(req *request.Request, res *response.Response) (*response.Response, error) {
			attr, ok := middleware.RequestIDExtractor(req)
			require.True(t, ok)
			key, value = attr.Key, attr.Value.String()
			return res, nil
		}
		mw := middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Generator: func() string { return "abc" },
		})
		_, err := run(newReq(http.MethodGet, "/"), h, mw)
		require.NoError(t, err)
		assert.Equal(t, "request_id", key)
		assert.Equal(t, "abc", value)
	})
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	t.Run("balanced preset", func(t *testing.T) {
		t.Parallel()

		out, err := run(newReq(http.MethodGet, "/"), okText, middleware.SecurityHeaders())
		require.NoError(t, err)
		assert.Equal(t, "nosniff", out.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "SAMEORIGIN", out.Header().Get("X-Frame-Options"))
		assert.Empty(t, out.Header().Get("Cross-Origin-Embedder-Policy"))
	})

	t.Run("strict preset", func(t *testing.T) {
		t.Parallel()

		out, err := run(newReq(http.MethodGet, "/"), okText, middleware.SecurityHeadersStrict())
		require.NoError(t, err)
		assert.Equal(t, "DENY", out.Header().Get("X-Frame-Options"))
		assert.Equal(t, "require-corp", out.Header().Get("Cross-Origin-Embedder-Policy"))
	})

	t.Run("handler values win", func(t *testing.T) {
		t.Parallel()

		h := func(req *request.Request, res *response.Response) (*response.Response, error) {
			return response.Text(http.StatusOK, "ok").SetHeader("X-Frame-Options", "ALLOW-FROM x"), nil
		}
		cfg := middleware.BalancedSecurity
		cfg.IsDevelopment = true
		cfg.CustomHeaders = map[string]string{"X-Custom": "1"}

		out, err := run(newReq(http.MethodGet, "/"), h, middleware.SecurityHeadersWithConfig(cfg))
		require.NoError(t, err)
		assert.Equal(t, "ALLOW-FROM x", out.Header().Get("X-Frame-Options"))
		assert.Equal(t, "1", out.Header().Get("X-Custom"))
		assert.Empty(t, out.Header().Get("Strict-Transport-Security"))
	})
}

func TestMaintenance(t *testing.T) {
	t.Parallel()

	enabled := true
	mw := middleware.MaintenanceWithConfig(middleware.MaintenanceConfig{
		Enabled:    func() bool { return enabled },
		RetryAfter: 2 * time.Minute,
		AllowIPs:   []string{"10.0.0.1"},
	})

	out := render(t, newReq(http.MethodGet, "/", "Accept", "application/json"), okText, mw)
	assert.Equal(t, http.StatusServiceUnavailable, out.Status())
	assert.Equal(t, "120", out.Header().Get("Retry-After"))
	assert.Contains(t, bodyOf(t, out), "Service is under maintenance")

	out = render(t, newReq(http.MethodGet, "/", "X-Real-IP", "10.0.0.1"), okText, mw)
	assert.Equal(t, http.StatusOK, out.Status())

	assert.Panics(t, func() { middleware.Maintenance(nil) })
}

func TestMaintenanceDisabled(t *testing.T) {
	t.Parallel()

	out, err := run(newReq(http.MethodGet, "/"), okText, middleware.Maintenance(func() bool { return false }))
	require.NoError(t, err)
	assert.Equal(t, "ok", bodyOf(t, out))
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("fast handlers are untouched", func(t *testing.T) {
		t.Parallel()

		var hasDeadline bool
		h := func(req *request.Request, res *response.Response) (*response.Response, error) {
			_, hasDeadline = req.Deadline()
			return res.Text("ok"), nil
		}
		req := newReq(http.MethodGet, "/")
		out, err := run(req, h, middleware.Timeout(time.Second))
		require.NoError(t, err)
		assert.Equal(t, "ok", bodyOf(t, out))
		assert.True(t, hasDeadline)

		_, restored := req.Deadline()
		assert.False(t, restored, "the deadline does not outlive the middleware")
	})

	t.Run("late handlers get 504", func(t *testing.T) {
		t.Parallel()

		h := func(req *request.Request, res *response.Response) (*response.Response, error) {
			<-req.Done()
			return res.Text("too late"), nil
		}
		_, err := run(newReq(http.MethodGet, "/"), h, middleware.Timeout(20*time.Millisecond))
		require.Error(t, err)
		assert.ErrorIs(t, err, response.ErrGatewayTimeout)
	})

	t.Run("client cancellation keeps the chain result", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		req := newReq(http.MethodGet, "/")
		req.SetContext(ctx)

		h := func(req *request.Request, res *response.Response) (*response.Response, error) {
			cancel()
			return nil, req.Err()
		}
		_, err := run(req, h, middleware.Timeout(time.Second))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
