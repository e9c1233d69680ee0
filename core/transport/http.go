package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultChunkSize is the largest body chunk delivered by a single Receive call.
const DefaultChunkSize = 64 * 1024

// HandlerOption configures the net/http adapter.
type HandlerOption func(*httpHandler)

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *httpHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithChunkSize sets the maximum chunk size delivered by Receive.
func WithChunkSize(size int) HandlerOption {
	return func(h *httpHandler) {
		if size > 0 {
			h.chunkSize = size
		}
	}
}

type httpHandler struct {
	app       App
	logger    *slog.Logger
	chunkSize int
}

// Handler exposes app as an http.Handler.
func Handler(app App, opts ...HandlerOption) http.Handler {
	h := &httpHandler{
		app:       app,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := NewScope(r)

	guard := NewGuard(func(_ context.Context, msg Message) error {
		return writeMessage(w, msg)
	})

	err := h.app.Serve(ctx, scope, BodyReceiver(r.Body, h.chunkSize), guard.Send)
	if err != nil {
		h.logger.ErrorContext(ctx, "application error",
			slog.Any("error", err),
			slog.String("method", scope.Method),
			slog.String("path", scope.Path),
		)
	}

	if !guard.Started() {
		if ctx.Err() != nil {
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// BodyReceiver delivers body in chunks of at most chunkSize bytes, one read
// per message, so data is forwarded as soon as the client sends it. Once the
// body is drained it waits for ctx to end and reports a disconnect.
func BodyReceiver(body io.Reader, chunkSize int) Receive {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	if body == nil {
		body = http.NoBody
	}

	var (
		drained bool
		buf     = make([]byte, chunkSize)
	)

	return func(ctx context.Context) (Message, error) {
		if drained {
			<-ctx.Done()
			return Message{Type: Disconnect}, nil
		}
		if ctx.Err() != nil {
			return Message{Type: Disconnect}, nil
		}

		var (
			n   int
			err error
		)
		for n == 0 && err == nil {
			n, err = body.Read(buf)
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])

		switch {
		case err == nil:
			return Message{Type: Request, Body: chunk, MoreBody: true}, nil
		case errors.Is(err, io.EOF):
			drained = true
			return Message{Type: Request, Body: chunk}, nil
		default:
			if ctx.Err() != nil {
				return Message{Type: Disconnect}, nil
			}
			return Message{}, err
		}
	}
}

func writeMessage(w http.ResponseWriter, msg Message) error {
	switch msg.Type {
	case ResponseStart:
		header := w.Header()
		for _, e := range msg.Headers {
			header.Add(e.Name, e.Value)
		}
		status := msg.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		return nil
	case ResponseBody:
		if len(msg.Body) > 0 {
			if _, err := w.Write(msg.Body); err != nil {
				return err
			}
		}
		if msg.MoreBody {
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
		return nil
	default:
		return ErrUnknownMessage
	}
}

// NewScope builds a Scope from a net/http request.
func NewScope(r *http.Request) *Scope {
	headers := make(Headers, 0, len(r.Header)+1)
	if r.Host != "" {
		headers = append(headers, Header{Name: "host", Value: r.Host})
	}
	for name, values := range r.Header {
		lower := strings.ToLower(name)
		for _, v := range values {
			headers = append(headers, Header{Name: lower, Value: v})
		}
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	path := r.URL.Path
	if path == "" {
		path = "/"
	}

	return &Scope{
		Type:        "http",
		HTTPVersion: strings.TrimPrefix(r.Proto, "HTTP/"),
		Method:      r.Method,
		Scheme:      scheme,
		Path:        path,
		RawPath:     r.URL.EscapedPath(),
		QueryString: r.URL.RawQuery,
		Headers:     headers,
		Client:      r.RemoteAddr,
		Server:      r.Host,
	}
}
