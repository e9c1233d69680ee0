package transport

import (
	"context"
	"strings"
)

// Message types exchanged over Receive and Send.
const (
	Request       = "http.request"
	Disconnect    = "http.disconnect"
	ResponseStart = "http.response.start"
	ResponseBody  = "http.response.body"
)

// Header is a single header entry. Name is lowercase.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header list that may repeat names.
type Headers []Header

// Get returns the first value for name, compared case-insensitively.
func (h Headers) Get(name string) string {
	for _, e := range h {
		if strings.EqualFold(e.Name, name) {
			return e.Value
		}
	}
	return ""
}

// Values returns every value for name in order.
func (h Headers) Values(name string) []string {
	var vals []string
	for _, e := range h {
		if strings.EqualFold(e.Name, name) {
			vals = append(vals, e.Value)
		}
	}
	return vals
}

// Message is a single event on the connection.
type Message struct {
	Type     string
	Status   int
	Headers  Headers
	Body     []byte
	MoreBody bool
}

// Scope describes one inbound request.
type Scope struct {
	Type        string
	HTTPVersion string
	Method      string
	Scheme      string
	Path        string
	RawPath     string
	QueryString string
	RootPath    string
	Headers     Headers
	Client      string
	Server      string
}

// Receive returns the next inbound message.
type Receive func(ctx context.Context) (Message, error)

// Send delivers an outbound message.
type Send func(ctx context.Context, msg Message) error

// App handles one connection scope.
type App interface {
	Serve(ctx context.Context, scope *Scope, receive Receive, send Send) error
}

// AppFunc adapts a function to App.
type AppFunc func(ctx context.Context, scope *Scope, receive Receive, send Send) error

// Serve calls f.
func (f AppFunc) Serve(ctx context.Context, scope *Scope, receive Receive, send Send) error {
	return f(ctx, scope, receive, send)
}
