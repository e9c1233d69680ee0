package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/dmitrymomot/relay/core/cookie"
)

// Kind tags the body of a Response.
type Kind int

const (
	KindEmpty Kind = iota
	KindJSON
	KindText
	KindHTML
	KindBinary
	KindStream
	KindRedirect
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindJSON:
		return "json"
	case KindText:
		return "text"
	case KindHTML:
		return "html"
	case KindBinary:
		return "binary"
	case KindStream:
		return "stream"
	case KindRedirect:
		return "redirect"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// StreamFunc produces a streamed body by writing to w. Every Write is sent
// to the client as a separate body chunk.
type StreamFunc func(w io.Writer) error

// Response is the outbound half of the per-call context pair. It accumulates
// status, headers, cookies and a body until it is written to the transport.
// A Response is used by one request at a time.
type Response struct {
	status      int
	header      http.Header
	kind        Kind
	contentType string
	body        []byte
	value       any
	source      io.ReadCloser
	producer    StreamFunc
	file        string
	cookies     []cookie.Cookie

	closeOnce sync.Once
	closeErr  error
}

// New returns an empty 200 response.
func New() *Response {
	return &Response{status: http.StatusOK, header: make(http.Header)}
}

// Status returns the status code.
func (r *Response) Status() int { return r.status }

// SetStatus sets the status code.
func (r *Response) SetStatus(status int) *Response {
	r.status = status
	return r
}

// Header returns the header map. Set replaces, Add appends.
func (r *Response) Header() http.Header { return r.header }

// SetHeader replaces any existing values of key.
func (r *Response) SetHeader(key, value string) *Response {
	r.header.Set(key, value)
	return r
}

// AddHeader appends a value to key.
func (r *Response) AddHeader(key, value string) *Response {
	r.header.Add(key, value)
	return r
}

// Kind returns the body kind.
func (r *Response) Kind() Kind { return r.kind }

// ContentType returns the explicit Content-Type or the default for the body kind.
func (r *Response) ContentType() string {
	if ct := r.header.Get("Content-Type"); ct != "" {
		return ct
	}
	return r.contentType
}

func (r *Response) reset(kind Kind, contentType string) {
	if r.source != nil {
		_ = r.source.Close()
	}
	r.kind = kind
	r.contentType = contentType
	r.body = nil
	r.value = nil
	r.source = nil
	r.producer = nil
	r.file = ""
}

// JSON sets a JSON body. v is encoded when the response is written.
func (r *Response) JSON(v any) *Response {
	r.reset(KindJSON, "application/json; charset=utf-8")
	r.value = v
	return r
}

// Text sets a plain text body.
func (r *Response) Text(s string) *Response {
	r.reset(KindText, "text/plain; charset=utf-8")
	r.body = []byte(s)
	return r
}

// HTML sets an HTML body.
func (r *Response) HTML(s string) *Response {
	r.reset(KindHTML, "text/html; charset=utf-8")
	r.body = []byte(s)
	return r
}

// Bytes sets a binary body. An empty contentType defaults to application/octet-stream.
func (r *Response) Bytes(b []byte, contentType string) *Response {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	r.reset(KindBinary, contentType)
	r.body = b
	return r
}

// Redirect sets a redirect to location. A zero status defaults to 307.
func (r *Response) Redirect(location string, status int) *Response {
	if status == 0 {
		status = http.StatusTemporaryRedirect
	}
	r.reset(KindRedirect, "")
	r.status = status
	r.header.Set("Location", location)
	return r
}

// Stream sets a streamed body read from src. src is closed after the
// response is written, or by Close if it never is.
func (r *Response) Stream(src io.ReadCloser, contentType string) *Response {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	r.reset(KindStream, contentType)
	r.source = src
	return r
}

// StreamFunc sets a streamed body produced by fn.
func (r *Response) StreamFunc(fn StreamFunc, contentType string) *Response {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	r.reset(KindStream, contentType)
	r.producer = fn
	return r
}

// File serves the file at path. The file is opened when the response is
// written and closed on every exit path.
func (r *Response) File(path string) *Response {
	r.reset(KindFile, "")
	r.file = path
	return r
}

// NoContent clears the body and sets status 204.
func (r *Response) NoContent() *Response {
	r.reset(KindEmpty, "")
	r.status = http.StatusNoContent
	return r
}

// SetCookie queues a cookie. Options default to cookie.DefaultOptions.
func (r *Response) SetCookie(name, value string, opts ...cookie.Option) *Response {
	r.cookies = append(r.cookies, cookie.New(name, value, opts...))
	return r
}

// DeleteCookie queues an expired cookie for name.
func (r *Response) DeleteCookie(name string, opts ...cookie.Option) *Response {
	r.cookies = append(r.cookies, cookie.Expired(name, opts...))
	return r
}

// Cookies returns the queued cookies.
func (r *Response) Cookies() []cookie.Cookie { return r.cookies }

// Body returns the materialized body of non-streamed responses.
func (r *Response) Body() ([]byte, error) {
	switch r.kind {
	case KindJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(r.value); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
	case KindStream, KindFile:
		return nil, ErrStreamedBody
	default:
		return r.body, nil
	}
}

// Close releases a stream source that was never written. It is safe to call
// more than once and after Write.
func (r *Response) Close() error {
	r.closeOnce.Do(func() {
		if r.source != nil {
			r.closeErr = r.source.Close()
		}
	})
	return r.closeErr
}
