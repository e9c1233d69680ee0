package cookie

import (
	"fmt"
	"net/http"
	"strings"
)

// Cookie is a response cookie waiting to be serialized.
type Cookie struct {
	Name    string
	Value   string
	Options Options
}

// New creates a cookie on top of DefaultOptions.
func New(name, value string, opts ...Option) Cookie {
	return Cookie{Name: name, Value: value, Options: Apply(DefaultOptions(), opts...)}
}

// Expired returns a cookie that instructs the client to drop name.
func Expired(name string, opts ...Option) Cookie {
	c := New(name, "", opts...)
	c.Options.MaxAge = -1
	return c
}

// HTTP converts the cookie into a net/http cookie.
func (c Cookie) HTTP() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Options.Path,
		Domain:   c.Options.Domain,
		MaxAge:   c.Options.MaxAge,
		Expires:  c.Options.Expires,
		Secure:   c.Options.Secure,
		HttpOnly: c.Options.HttpOnly,
		SameSite: c.Options.SameSite,
	}
}

// Validate reports whether the cookie can be serialized without losing data.
func (c Cookie) Validate() error {
	if err := c.HTTP().Valid(); err != nil {
		if c.Name == "" || strings.ContainsAny(c.Name, "=; \t\r\n") {
			return fmt.Errorf("%w %q: %w", ErrInvalidName, c.Name, err)
		}
		return fmt.Errorf("%w for %q: %w", ErrInvalidValue, c.Name, err)
	}
	return nil
}

// String returns the Set-Cookie header value.
func (c Cookie) String() string {
	return c.HTTP().String()
}

// Parse parses a Cookie request header. When a name repeats the first value wins.
// Malformed pairs are skipped.
func Parse(header string) map[string]string {
	values := make(map[string]string)
	for part := range strings.SplitSeq(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, exists := values[name]; exists {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) > 1 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		values[name] = value
	}
	return values
}
