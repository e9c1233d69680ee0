package response_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/cookie"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/core/transport"
)

type recorder struct {
	msgs []transport.Message
}

func (r *recorder) send(_ context.Context, msg transport.Message) error {
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) start() transport.Message { return r.msgs[0] }

func (r *recorder) body() string {
	var b strings.Builder
	for _, m := range r.msgs[1:] {
		b.Write(m.Body)
	}
	return b.String()
}

type trackingCloser struct {
	io.Reader
	closed int
}

func (c *trackingCloser) Close() error {
	c.closed++
	return nil
}

func TestResponseDefaults(t *testing.T) {
	t.Parallel()

	res := response.New()
	assert.Equal(t, http.StatusOK, res.Status())
	assert.Equal(t, response.KindEmpty, res.Kind())

	rec := &recorder{}
	require.NoError(t, res.Write(context.Background(), rec.send))
	require.Len(t, rec.msgs, 2)
	assert.Equal(t, transport.ResponseStart, rec.msgs[0].Type)
	assert.Equal(t, 200, rec.msgs[0].Status)
	assert.Equal(t, transport.ResponseBody, rec.msgs[1].Type)
	assert.False(t, rec.msgs[1].MoreBody)
}

func TestResponseJSON(t *testing.T) {
	t.Parallel()

	res := response.New().SetStatus(http.StatusCreated).JSON(map[string]any{"id": 1, "tag": "<b>"})
	rec := &recorder{}
	require.NoError(t, res.Write(context.Background(), rec.send))

	start := rec.start()
	assert.Equal(t, http.StatusCreated, start.Status)
	assert.Equal(t, "application/json; charset=utf-8", start.Headers.Get("content-type"))
	assert.JSONEq(t, `{"id":1,"tag":"<b>"}`, rec.body())
	assert.Equal(t, "20", start.Headers.Get("content-length"))
}

func TestResponseJSONEncodeError(t *testing.T) {
	t.Parallel()

	res := response.New().JSON(make(chan int))
	rec := &recorder{}
	err := res.Write(context.Background(), rec.send)
	assert.ErrorIs(t, err, response.ErrEncode)
	assert.Empty(t, rec.msgs, "nothing may be sent when encoding fails")
}

func TestResponseHeaders(t *testing.T) {
	t.Parallel()

	res := response.Text(http.StatusOK, "hi")
	res.SetHeader("X-Mode", "a")
	res.SetHeader("X-Mode", "b")
	res.AddHeader("Vary", "Accept")
	res.AddHeader("Vary", "Origin")
	res.SetCookie("sid", "abc", cookie.WithHTTPOnly(true))
	res.SetCookie("theme", "dark")
	res.DeleteCookie("old")

	rec := &recorder{}
	require.NoError(t, res.Write(context.Background(), rec.send))
	headers := rec.start().Headers

	for _, h := range headers {
		assert.Equal(t, strings.ToLower(h.Name), h.Name, "header names are lowercase")
	}
	assert.Equal(t, []string{"b"}, headers.Values("x-mode"))
	assert.Equal(t, []string{"Accept", "Origin"}, headers.Values("vary"))

	cookies := headers.Values("set-cookie")
	require.Len(t, cookies, 3)
	assert.Equal(t, "sid=abc; Path=/; HttpOnly; SameSite=Lax", cookies[0])
	assert.True(t, strings.HasPrefix(cookies[1], "theme=dark"))
	assert.Contains(t, cookies[2], "Max-Age=0")
	assert.Equal(t, "text/plain; charset=utf-8", headers.Get("content-type"))
}

func TestResponseExplicitContentTypeWins(t *testing.T) {
	t.Parallel()

	res := response.HTML(http.StatusOK, "<p>x</p>").SetHeader("Content-Type", "text/html; charset=latin1")
	rec := &recorder{}
	require.NoError(t, res.Write(context.Background(), rec.send))
	assert.Equal(t, []string{"text/html; charset=latin1"}, rec.start().Headers.Values("content-type"))
	assert.Equal(t, "text/html; charset=latin1", res.ContentType())
}

func TestResponseRedirect(t *testing.T) {
	t.Parallel()

	res := response.Redirect("/login", 0)
	assert.Equal(t, response.KindRedirect, res.Kind())
	rec := &recorder{}
	require.NoError(t, res.Write(context.Background(), rec.send))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.start().Status)
	assert.Equal(t, "/login", rec.start().Headers.Get("location"))
}

func TestResponseNoContentOmitsBody(t *testing.T) {
	t.Parallel()

	res := response.New().Text("ignored").NoContent()
	rec := &recorder{}
	require.NoError(t, res.Write(context.Background(), rec.send))
	assert.Equal(t, http.StatusNoContent, rec.start().Status)
	assert.Empty(t, rec.start().Headers.Get("content-length"))
	assert.Empty(t, rec.body())
}

func TestResponseStreamClosesSource(t *testing.T) {
	t.Parallel()

	src := &trackingCloser{Reader: strings.NewReader("streamed body")}
	res := response.New().Stream(src, "text/plain")
	assert.Equal(t, response.KindStream, res.Kind())

	rec := &recorder{}
	require.NoError(t, res.Write(context.Background(), rec.send))
	assert.Equal(t, "streamed body", rec.body())
	assert.Equal(t, 1, src.closed)
	assert.Empty(t, rec.start().Headers.Get("content-length"))
	assert.False(t, rec.msgs[len(rec.msgs)-1].MoreBody)

	require.NoError(t, res.Close())
	assert.Equal(t, 1, src.closed, "close is idempotent")
}

func TestResponseStreamClosesSourceOnFailure(t *testing.T) {
	t.Parallel()

	src := &trackingCloser{Reader: strings.NewReader("data")}
	res := response.New().Stream(src, "")

	boom := errors.New("send failed")
	err := res.Write(context.Background(), func(context.Context, transport.Message) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, src.closed)
}

func TestResponseStreamClosesUnwrittenSource(t *testing.T) {
	t.Parallel()

	src := &trackingCloser{Reader: strings.NewReader("data")}
	res := response.New().Stream(src, "")
	require.NoError(t, res.Close())
	assert.Equal(t, 1, src.closed)

	other := &trackingCloser{Reader: strings.NewReader("data")}
	response.New().Stream(other, "").Text("replaced")
	assert.Equal(t, 1, other.closed, "replacing a stream body releases it")
}

func TestResponseStreamFunc(t *testing.T) {
	t.Parallel()

	res := response.New().StreamFunc(func(w io.Writer) error {
		for _, part := range []string{"a", "b", "c"} {
			if _, err := io.WriteString(w, part); err != nil {
				return err
			}
		}
		return nil
	}, "text/event-stream")

	rec := &recorder{}
	require.NoError(t, res.Write(context.Background(), rec.send))
	assert.Equal(t, "abc", rec.body())
	assert.Len(t, rec.msgs, 5, "start, three chunks, final")
	assert.Equal(t, "text/event-stream", rec.start().Headers.Get("content-type"))
}

func TestResponseFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("file contents"), 0o600))

	res := response.New().File(path)
	assert.Equal(t, response.KindFile, res.Kind())

	rec := &recorder{}
	require.NoError(t, res.Write(context.Background(), rec.send))
	assert.Equal(t, "file contents", rec.body())
	assert.Equal(t, "13", rec.start().Headers.Get("content-length"))
	assert.Contains(t, rec.start().Headers.Get("content-type"), "text/plain")

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		err := response.New().File(filepath.Join(dir, "missing.txt")).Write(context.Background(), (&recorder{}).send)
		assert.ErrorIs(t, err, response.ErrNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()

		err := response.New().File(dir).Write(context.Background(), (&recorder{}).send)
		assert.ErrorIs(t, err, response.ErrNotFound)
	})
}

func TestResponseBody(t *testing.T) {
	t.Parallel()

	body, err := response.Text(200, "x").Body()
	require.NoError(t, err)
	assert.Equal(t, "x", string(body))

	_, err = response.New().Stream(io.NopCloser(strings.NewReader("")), "").Body()
	assert.ErrorIs(t, err, response.ErrStreamedBody)
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "json", response.KindJSON.String())
	assert.Equal(t, "file", response.KindFile.String())
	assert.Equal(t, "unknown", response.Kind(99).String())
}
