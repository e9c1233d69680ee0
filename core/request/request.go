package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/relay/core/cookie"
	"github.com/dmitrymomot/relay/core/transport"
)

// Request is the inbound half of the per-call context pair.
type Request struct {
	ctx     context.Context
	scope   *transport.Scope
	receive transport.Receive

	headersOnce sync.Once
	headers     http.Header

	queryOnce sync.Once
	query     url.Values

	cookiesOnce sync.Once
	cookies     map[string]string

	bodyMu   sync.Mutex
	chunks   [][]byte
	complete bool
	bodyErr  error

	mu        sync.RWMutex
	values    map[any]any
	params    map[string]string
	routePath string
	user      User
	authScope string
}

// New creates a Request for scope. receive supplies the body.
func New(ctx context.Context, scope *transport.Scope, receive transport.Receive) *Request {
	if ctx == nil {
		ctx = context.Background()
	}
	if receive == nil {
		receive = transport.BodyReceiver(nil, 0)
	}
	return &Request{
		ctx:     ctx,
		scope:   scope,
		receive: receive,
	}
}

// FromHTTP creates a Request from a net/http request.
func FromHTTP(r *http.Request) *Request {
	return New(r.Context(), transport.NewScope(r), transport.BodyReceiver(r.Body, 0))
}

// Deadline implements context.Context.
func (r *Request) Deadline() (time.Time, bool) { return r.Context().Deadline() }

// Done implements context.Context.
func (r *Request) Done() <-chan struct{} { return r.Context().Done() }

// Err implements context.Context.
func (r *Request) Err() error { return r.Context().Err() }

// Value returns a request-scoped value set with Set, falling back to the
// underlying context.
func (r *Request) Value(key any) any {
	r.mu.RLock()
	v, ok := r.values[key]
	r.mu.RUnlock()
	if ok {
		return v
	}
	return r.Context().Value(key)
}

// Context returns the underlying context.
func (r *Request) Context() context.Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ctx
}

// SetContext replaces the underlying context, e.g. to attach a deadline or a span.
func (r *Request) SetContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()
}

// Set stores a request-scoped value.
func (r *Request) Set(key, val any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.values == nil {
		r.values = make(map[any]any)
	}
	r.values[key] = val
}

// Scope returns the transport scope.
func (r *Request) Scope() *transport.Scope { return r.scope }

// Method returns the HTTP method.
func (r *Request) Method() string { return r.scope.Method }

// Path returns the decoded request path.
func (r *Request) Path() string { return r.scope.Path }

// Scheme returns http or https.
func (r *Request) Scheme() string { return r.scope.Scheme }

// Host returns the Host header.
func (r *Request) Host() string { return r.Header("Host") }

// URL reconstructs the request URL.
func (r *Request) URL() *url.URL {
	u := &url.URL{
		Scheme:   r.scope.Scheme,
		Host:     r.Host(),
		Path:     r.scope.Path,
		RawQuery: r.scope.QueryString,
	}
	if r.scope.RawPath != "" && r.scope.RawPath != r.scope.Path {
		u.RawPath = r.scope.RawPath
	}
	return u
}

// Headers returns all request headers keyed by canonical name.
// The returned map must not be modified.
func (r *Request) Headers() http.Header {
	r.headersOnce.Do(func() {
		r.headers = make(http.Header, len(r.scope.Headers))
		for _, h := range r.scope.Headers {
			r.headers.Add(h.Name, h.Value)
		}
	})
	return r.headers
}

// Header returns the first value of the named header. Names are case-insensitive.
func (r *Request) Header(name string) string {
	return r.Headers().Get(name)
}

// ContentType returns the media type of the body without parameters.
func (r *Request) ContentType() string {
	ct := r.Header("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	}
	return mt
}

// Query returns the parsed query string.
func (r *Request) Query() url.Values {
	r.queryOnce.Do(func() {
		q, err := url.ParseQuery(r.scope.QueryString)
		if err != nil && q == nil {
			q = url.Values{}
		}
		r.query = q
	})
	return r.query
}

// QueryValue returns the first value for key.
func (r *Request) QueryValue(key string) string {
	return r.Query().Get(key)
}

// Cookies returns all request cookies.
func (r *Request) Cookies() map[string]string {
	r.cookiesOnce.Do(func() {
		r.cookies = make(map[string]string)
		for _, header := range r.Headers().Values("Cookie") {
			for name, value := range cookie.Parse(header) {
				if _, exists := r.cookies[name]; !exists {
					r.cookies[name] = value
				}
			}
		}
	})
	return r.cookies
}

// Cookie returns a single cookie value.
func (r *Request) Cookie(name string) (string, bool) {
	v, ok := r.Cookies()[name]
	return v, ok
}

// Param returns a path parameter or an empty string.
func (r *Request) Param(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.params[name]
}

// Params returns a copy of the path parameters.
func (r *Request) Params() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.params)
}

// SetParams merges path parameters extracted by the router.
func (r *Request) SetParams(params map[string]string) {
	if len(params) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.params == nil {
		r.params = make(map[string]string, len(params))
	}
	maps.Copy(r.params, params)
}

// RoutePath returns the template of the matched route, e.g. /users/{id}.
func (r *Request) RoutePath() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.routePath
}

// SetRoutePath records the matched route template.
func (r *Request) SetRoutePath(path string) {
	r.mu.Lock()
	r.routePath = path
	r.mu.Unlock()
}

// ClientIP returns the client address, honoring X-Forwarded-For and X-Real-IP.
func (r *Request) ClientIP() string {
	if xff := r.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.scope.Client)
	if err != nil {
		return r.scope.Client
	}
	return host
}

// Body reads and caches the whole request body.
func (r *Request) Body() ([]byte, error) {
	for _, err := range r.Stream() {
		if err != nil {
			return nil, err
		}
	}

	r.bodyMu.Lock()
	defer r.bodyMu.Unlock()
	return bytes.Join(r.chunks, nil), nil
}

// Stream yields body chunks. Chunks already read by an earlier call are
// replayed from the cache before new ones are received.
func (r *Request) Stream() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for i := 0; ; i++ {
			chunk, ok, err := r.chunk(i)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// chunk returns cached chunk i, receiving more data when needed.
func (r *Request) chunk(i int) ([]byte, bool, error) {
	r.bodyMu.Lock()
	defer r.bodyMu.Unlock()

	for i >= len(r.chunks) {
		if r.bodyErr != nil {
			return nil, false, r.bodyErr
		}
		if r.complete {
			return nil, false, nil
		}

		msg, err := r.receive(r.Context())
		if err != nil {
			r.bodyErr = fmt.Errorf("request: read body: %w", err)
			return nil, false, r.bodyErr
		}

		switch msg.Type {
		case transport.Disconnect:
			r.bodyErr = ErrClientDisconnected
			return nil, false, r.bodyErr
		case transport.Request:
			if len(msg.Body) > 0 {
				r.chunks = append(r.chunks, msg.Body)
			}
			r.complete = !msg.MoreBody
		default:
			r.bodyErr = fmt.Errorf("%w: %s", ErrUnexpectedMessage, msg.Type)
			return nil, false, r.bodyErr
		}
	}
	return r.chunks[i], true, nil
}

// LimitBody caps the number of body bytes the request may deliver. Reads
// that cross limit fail with ErrBodyTooLarge. Bytes already buffered count
// toward the limit.
func (r *Request) LimitBody(limit int64) {
	r.bodyMu.Lock()
	defer r.bodyMu.Unlock()

	var read int64
	for _, c := range r.chunks {
		read += int64(len(c))
	}
	if read > limit {
		r.bodyErr = ErrBodyTooLarge
		return
	}

	inner := r.receive
	r.receive = func(ctx context.Context) (transport.Message, error) {
		msg, err := inner(ctx)
		if err != nil || msg.Type != transport.Request {
			return msg, err
		}
		read += int64(len(msg.Body))
		if read > limit {
			return transport.Message{}, ErrBodyTooLarge
		}
		return msg, nil
	}
}

// JSON decodes a JSON body into v.
func (r *Request) JSON(v any) error {
	body, err := r.Body()
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}
	return json.Unmarshal(body, v)
}

// Form parses an application/x-www-form-urlencoded body.
func (r *Request) Form() (url.Values, error) {
	if ct := r.ContentType(); ct != "application/x-www-form-urlencoded" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMedia, ct)
	}
	body, err := r.Body()
	if err != nil {
		return nil, err
	}
	return url.ParseQuery(string(body))
}
