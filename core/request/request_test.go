package request_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/transport"
)

// scripted returns a Receive that replays msgs in order and then reports a disconnect.
func scripted(msgs ...transport.Message) (transport.Receive, *int) {
	calls := 0
	return func(context.Context) (transport.Message, error) {
		calls++
		if len(msgs) == 0 {
			return transport.Message{Type: transport.Disconnect}, nil
		}
		msg := msgs[0]
		msgs = msgs[1:]
		return msg, nil
	}, &calls
}

func newRequest(receive transport.Receive, headers ...transport.Header) *request.Request {
	scope := &transport.Scope{
		Type:        "http",
		Method:      http.MethodPost,
		Path:        "/upload",
		Scheme:      "http",
		QueryString: "tag=a&tag=b&page=2",
		Headers:     headers,
		Client:      "10.0.0.1:5555",
	}
	return request.New(context.Background(), scope, receive)
}

func TestRequestHeaders(t *testing.T) {
	t.Parallel()

	req := newRequest(nil,
		transport.Header{Name: "content-type", Value: "application/json; charset=utf-8"},
		transport.Header{Name: "x-trace", Value: "1"},
		transport.Header{Name: "x-trace", Value: "2"},
	)

	assert.Equal(t, "1", req.Header("X-Trace"))
	assert.Equal(t, "1", req.Header("x-trace"))
	assert.Equal(t, []string{"1", "2"}, req.Headers().Values("X-TRACE"))
	assert.Equal(t, "application/json", req.ContentType())
	assert.Empty(t, req.Header("X-Missing"))
}

func TestRequestQuery(t *testing.T) {
	t.Parallel()

	req := newRequest(nil)
	assert.Equal(t, []string{"a", "b"}, req.Query()["tag"])
	assert.Equal(t, "2", req.QueryValue("page"))
	assert.Empty(t, req.QueryValue("missing"))
}

func TestRequestCookiesFirstWins(t *testing.T) {
	t.Parallel()

	req := newRequest(nil,
		transport.Header{Name: "cookie", Value: "sid=first; theme=dark; sid=second"},
		transport.Header{Name: "cookie", Value: "sid=third; lang=en"},
	)

	sid, ok := req.Cookie("sid")
	require.True(t, ok)
	assert.Equal(t, "first", sid)
	assert.Equal(t, map[string]string{"sid": "first", "theme": "dark", "lang": "en"}, req.Cookies())

	_, ok = req.Cookie("missing")
	assert.False(t, ok)
}

func TestRequestBodyCached(t *testing.T) {
	t.Parallel()

	receive, calls := scripted(
		transport.Message{Type: transport.Request, Body: []byte("hello "), MoreBody: true},
		transport.Message{Type: transport.Request, Body: []byte("world")},
	)
	req := newRequest(receive)

	body, err := req.Body()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))

	body, err = req.Body()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))
	assert.Equal(t, 2, *calls, "second read must come from the cache")
}

func TestRequestLimitBody(t *testing.T) {
	t.Parallel()

	t.Run("within limit", func(t *testing.T) {
		t.Parallel()

		receive, _ := scripted(
			transport.Message{Type: transport.Request, Body: []byte("12345"), MoreBody: true},
			transport.Message{Type: transport.Request, Body: []byte("678")},
		)
		req := newRequest(receive)
		req.LimitBody(8)
		body, err := req.Body()
		require.NoError(t, err)
		assert.Equal(t, "12345678", string(body))
	})

	t.Run("over limit", func(t *testing.T) {
		t.Parallel()

		receive, _ := scripted(
			transport.Message{Type: transport.Request, Body: []byte("12345"), MoreBody: true},
			transport.Message{Type: transport.Request, Body: []byte("6789")},
		)
		req := newRequest(receive)
		req.LimitBody(8)
		_, err := req.Body()
		require.ErrorIs(t, err, request.ErrBodyTooLarge)

		var sc interface{ StatusCode() int }
		require.ErrorAs(t, err, &sc)
		assert.Equal(t, http.StatusRequestEntityTooLarge, sc.StatusCode())

		_, err = req.Body()
		assert.ErrorIs(t, err, request.ErrBodyTooLarge, "the failure is sticky")
	})
}

func TestRequestStreamThenBody(t *testing.T) {
	t.Parallel()

	receive, calls := scripted(
		transport.Message{Type: transport.Request, Body: []byte("a"), MoreBody: true},
		transport.Message{Type: transport.Request, Body: []byte("b"), MoreBody: true},
		transport.Message{Type: transport.Request, Body: []byte("c")},
	)
	req := newRequest(receive)

	var first []string
	for chunk, err := range req.Stream() {
		require.NoError(t, err)
		first = append(first, string(chunk))
		break
	}
	assert.Equal(t, []string{"a"}, first)

	body, err := req.Body()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(body))

	var replay []string
	for chunk, err := range req.Stream() {
		require.NoError(t, err)
		replay = append(replay, string(chunk))
	}
	assert.Equal(t, []string{"a", "b", "c"}, replay)
	assert.Equal(t, 3, *calls)
}

func TestRequestDisconnectIsSticky(t *testing.T) {
	t.Parallel()

	receive, calls := scripted(
		transport.Message{Type: transport.Request, Body: []byte("partial"), MoreBody: true},
	)
	req := newRequest(receive)

	_, err := req.Body()
	require.Error(t, err)
	assert.ErrorIs(t, err, request.ErrClientDisconnected)
	assert.ErrorIs(t, err, transport.ErrDisconnected)

	_, err = req.Body()
	assert.ErrorIs(t, err, request.ErrClientDisconnected)
	assert.Equal(t, 2, *calls, "no receive after the disconnect was observed")
}

func TestRequestReceiveError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	req := newRequest(func(context.Context) (transport.Message, error) {
		return transport.Message{}, boom
	})

	_, err := req.Body()
	assert.ErrorIs(t, err, boom)
}

func TestRequestUnexpectedMessage(t *testing.T) {
	t.Parallel()

	receive, _ := scripted(transport.Message{Type: transport.ResponseStart})
	_, err := newRequest(receive).Body()
	assert.ErrorIs(t, err, request.ErrUnexpectedMessage)
}

func TestRequestDisconnectWhileWaiting(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	scope := &transport.Scope{Method: http.MethodPost, Path: "/"}
	req := request.New(ctx, scope, func(ctx context.Context) (transport.Message, error) {
		<-ctx.Done()
		return transport.Message{Type: transport.Disconnect}, nil
	})

	errCh := make(chan error, 1)
	go func() {
		_, err := req.Body()
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, request.ErrClientDisconnected)
	case <-time.After(2 * time.Second):
		t.Fatal("body read hung after disconnect")
	}
}

func TestRequestJSONAndForm(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		receive, _ := scripted(transport.Message{Type: transport.Request, Body: []byte(`{"name":"relay"}`)})
		var v struct {
			Name string `json:"name"`
		}
		require.NoError(t, newRequest(receive).JSON(&v))
		assert.Equal(t, "relay", v.Name)
	})

	t.Run("empty json", func(t *testing.T) {
		t.Parallel()

		receive, _ := scripted(transport.Message{Type: transport.Request})
		var v map[string]any
		assert.ErrorIs(t, newRequest(receive).JSON(&v), request.ErrEmptyBody)
	})

	t.Run("form", func(t *testing.T) {
		t.Parallel()

		receive, _ := scripted(transport.Message{Type: transport.Request, Body: []byte("a=1&a=2&b=x")})
		req := newRequest(receive, transport.Header{Name: "content-type", Value: "application/x-www-form-urlencoded"})
		form, err := req.Form()
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, form["a"])
	})

	t.Run("form wrong content type", func(t *testing.T) {
		t.Parallel()

		_, err := newRequest(nil).Form()
		assert.ErrorIs(t, err, request.ErrUnsupportedMedia)
	})
}

func TestRequestValuesAndParams(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}
	parent := context.WithValue(context.Background(), ctxKey{}, "parent")
	req := request.New(parent, &transport.Scope{Method: http.MethodGet, Path: "/"}, nil)

	assert.Equal(t, "parent", req.Value(ctxKey{}))
	req.Set(ctxKey{}, "own")
	assert.Equal(t, "own", req.Value(ctxKey{}))

	req.SetParams(map[string]string{"id": "7"})
	req.SetParams(map[string]string{"slug": "x"})
	assert.Equal(t, "7", req.Param("id"))
	assert.Equal(t, map[string]string{"id": "7", "slug": "x"}, req.Params())

	params := req.Params()
	params["id"] = "changed"
	assert.Equal(t, "7", req.Param("id"))

	req.SetRoutePath("/items/{id}")
	assert.Equal(t, "/items/{id}", req.RoutePath())

	deadline, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	req.SetContext(deadline)
	_, ok := req.Deadline()
	assert.True(t, ok)
}

func TestRequestUser(t *testing.T) {
	t.Parallel()

	req := newRequest(nil)
	assert.False(t, req.User().IsAuthenticated())
	assert.Empty(t, req.AuthScope())

	req.SetUser(staticUser("u1"), "token")
	assert.True(t, req.User().IsAuthenticated())
	assert.Equal(t, "u1", req.User().ID())
	assert.Equal(t, "token", req.AuthScope())

	req.SetUser(nil, "ignored")
	assert.IsType(t, request.AnonymousUser{}, req.User())
	assert.Empty(t, req.AuthScope())
}

func TestFromHTTP(t *testing.T) {
	t.Parallel()

	hr := httptest.NewRequest(http.MethodPut, "http://example.com/items/1?x=1", strings.NewReader("payload"))
	hr.RemoteAddr = "192.0.2.1:1234"
	hr.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")

	req := request.FromHTTP(hr)
	assert.Equal(t, http.MethodPut, req.Method())
	assert.Equal(t, "/items/1", req.Path())
	assert.Equal(t, "example.com", req.Host())
	assert.Equal(t, "http://example.com/items/1?x=1", req.URL().String())
	assert.Equal(t, "203.0.113.5", req.ClientIP())

	body, err := req.Body()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	hr2 := httptest.NewRequest(http.MethodGet, "/", nil)
	hr2.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", request.FromHTTP(hr2).ClientIP())
}

type staticUser string

func (u staticUser) ID() string            { return string(u) }
func (u staticUser) IsAuthenticated() bool { return true }
