package middleware_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/middleware"
)

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	mw := middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://app.example.com"},
		AllowCredentials: true,
		MaxAge:           600,
	})

	t.Run("allowed", func(t *testing.T) {
		t.Parallel()

		called := false
		h := func(req *request.Request, res *response.Response) (*response.Response, error) {
			called = true
			return res, nil
		}
		req := newReq(http.MethodOptions, "/items",
			"Origin", "https://app.example.com",
			"Access-Control-Request-Method", http.MethodPost,
			"Access-Control-Request-Headers", "Content-Type",
		)
		out, err := run(req, h, mw)
		require.NoError(t, err)
		assert.False(t, called)

		assert.Equal(t, http.StatusNoContent, out.Status())
		assert.Equal(t, "https://app.example.com", out.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, out.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.NotEmpty(t, out.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "true", out.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "600", out.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		t.Parallel()

		req := newReq(http.MethodOptions, "/items",
			"Origin", "https://evil.example.org",
			"Access-Control-Request-Method", http.MethodPost,
		)
		out, err := run(req, okText, mw)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, out.Status())
		assert.Empty(t, out.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("method not allowed", func(t *testing.T) {
		t.Parallel()

		req := newReq(http.MethodOptions, "/items",
			"Origin", "https://app.example.com",
			"Access-Control-Request-Method", "TRACE",
		)
		out, err := run(req, okText, mw)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, out.Status())
	})
}

func TestCORSSimpleRequest(t *testing.T) {
	t.Parallel()

	t.Run("any origin by default", func(t *testing.T) {
		t.Parallel()

		out, err := run(newReq(http.MethodGet, "/", "Origin", "https://x.test"), okText, middleware.CORS())
		require.NoError(t, err)
		assert.Equal(t, "*", out.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, []string{"Origin"}, out.Header().Values("Vary"))
		assert.Equal(t, "ok", bodyOf(t, out))
	})

	t.Run("wildcard never sends credentials", func(t *testing.T) {
		t.Parallel()

		mw := middleware.CORSWithConfig(middleware.CORSConfig{AllowCredentials: true})
		out, err := run(newReq(http.MethodGet, "/", "Origin", "https://x.test"), okText, mw)
		require.NoError(t, err)
		assert.Empty(t, out.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("disallowed origin passes through without headers", func(t *testing.T) {
		t.Parallel()

		mw := middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: []string{"https://a.test"}})
		out, err := run(newReq(http.MethodGet, "/", "Origin", "https://b.test"), okText, mw)
		require.NoError(t, err)
		assert.Equal(t, "ok", bodyOf(t, out))
		assert.Empty(t, out.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("expose headers", func(t *testing.T) {
		t.Parallel()

		mw := middleware.CORSWithConfig(middleware.CORSConfig{ExposeHeaders: []string{"X-Request-ID", "X-Total"}})
		out, err := run(newReq(http.MethodGet, "/", "Origin", "https://x.test"), okText, mw)
		require.NoError(t, err)
		assert.Equal(t, "X-Request-ID,X-Total", out.Header().Get("Access-Control-Expose-Headers"))
	})
}

func TestAllowOriginSubdomain(t *testing.T) {
	t.Parallel()

	allow := middleware.AllowOriginSubdomain("*.example.com")

	tests := []struct {
		origin string
		ok     bool
	}{
		{"https://example.com", true},
		{"https://api.example.com", true},
		{"http://a.b.example.com:8080", true},
		{"https://example.com.evil.test", false},
		{"https://notexample.com", false},
		{"", false},
		{"::not a url", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			t.Parallel()
			got, ok := allow(tt.origin)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.origin, got)
			}
		})
	}
}

func TestAllowOriginWildcard(t *testing.T) {
	t.Parallel()

	mw := middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc:  middleware.AllowOriginWildcard(),
		AllowCredentials: true,
	})
	out, err := run(newReq(http.MethodGet, "/", "Origin", "https://x.test"), okText, mw)
	require.NoError(t, err)
	assert.Equal(t, "https://x.test", out.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", out.Header().Get("Access-Control-Allow-Credentials"))
}
