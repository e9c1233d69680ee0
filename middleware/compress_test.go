package middleware_test

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/middleware"
)

var largeText = strings.Repeat("relay compresses repetitive payloads well. ", 100)

func largeHandler(req *request.Request, res *response.Response) (*response.Response, error) {
	return res.Text(largeText), nil
}

func gunzip(t *testing.T, b []byte) string {
	t.Helper()
	zr, err := gzip.NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer zr.Close()
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(plain)
}

func unzstd(t *testing.T, b []byte) string {
	t.Helper()
	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	plain, err := dec.DecodeAll(b, nil)
	require.NoError(t, err)
	return string(plain)
}

func TestCompress(t *testing.T) {
	t.Parallel()

	t.Run("gzip", func(t *testing.T) {
		t.Parallel()

		out, err := run(newReq(http.MethodGet, "/", "Accept-Encoding", "gzip"), largeHandler, middleware.Compress())
		require.NoError(t, err)

		assert.Equal(t, "gzip", out.Header().Get("Content-Encoding"))
		assert.Equal(t, "Accept-Encoding", out.Header().Get("Vary"))
		assert.Equal(t, "text/plain; charset=utf-8", out.ContentType())
		body := []byte(bodyOf(t, out))
		assert.Less(t, len(body), len(largeText))
		assert.Equal(t, largeText, gunzip(t, body))
	})

	t.Run("zstd preferred", func(t *testing.T) {
		t.Parallel()

		out, err := run(newReq(http.MethodGet, "/", "Accept-Encoding", "gzip, deflate, br, zstd"), largeHandler, middleware.Compress())
		require.NoError(t, err)
		assert.Equal(t, "zstd", out.Header().Get("Content-Encoding"))
		assert.Equal(t, largeText, unzstd(t, []byte(bodyOf(t, out))))
	})

	t.Run("pooled writers are reusable", func(t *testing.T) {
		t.Parallel()

		mw := middleware.CompressWithConfig(middleware.CompressConfig{Encodings: []string{middleware.EncodingGzip}})
		for range 3 {
			out, err := run(newReq(http.MethodGet, "/", "Accept-Encoding", "*"), largeHandler, mw)
			require.NoError(t, err)
			assert.Equal(t, largeText, gunzip(t, []byte(bodyOf(t, out))))
		}
	})

	t.Run("left alone", func(t *testing.T) {
		t.Parallel()

		small := func(req *request.Request, res *response.Response) (*response.Response, error) {
			return res.Text("tiny"), nil
		}
		image := func(req *request.Request, res *response.Response) (*response.Response, error) {
			return res.Bytes([]byte(largeText), "image/png"), nil
		}
		encoded := func(req *request.Request, res *response.Response) (*response.Response, error) {
			return res.SetHeader("Content-Encoding", "br").Text(largeText), nil
		}

		tests := []struct {
			name   string
			req    *request.Request
			handle func(*request.Request, *response.Response) (*response.Response, error)
		}{
			{"no accept-encoding", newReq(http.MethodGet, "/"), largeHandler},
			{"unsupported coding", newReq(http.MethodGet, "/", "Accept-Encoding", "br"), largeHandler},
			{"refused with q=0", newReq(http.MethodGet, "/", "Accept-Encoding", "gzip;q=0, zstd;q=0"), largeHandler},
			{"below min size", newReq(http.MethodGet, "/", "Accept-Encoding", "gzip"), small},
			{"incompressible type", newReq(http.MethodGet, "/", "Accept-Encoding", "gzip"), image},
			{"already encoded", newReq(http.MethodGet, "/", "Accept-Encoding", "gzip"), encoded},
			{"head", newReq(http.MethodHead, "/", "Accept-Encoding", "gzip"), largeHandler},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				out, err := run(tt.req, tt.handle, middleware.Compress())
				require.NoError(t, err)
				assert.NotEqual(t, "gzip", out.Header().Get("Content-Encoding"))
				assert.NotEqual(t, "zstd", out.Header().Get("Content-Encoding"))
			})
		}
	})

	t.Run("faults pass through", func(t *testing.T) {
		t.Parallel()

		_, err := run(newReq(http.MethodGet, "/", "Accept-Encoding", "gzip"), fails(response.ErrNotFound), middleware.Compress())
		assert.ErrorIs(t, err, response.ErrNotFound)
	})
}
