package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Helpers that take an optional value return the empty Attr when it is
// absent; slog drops empty attrs, so callers never need a nil check:
//
//	log.Info("request served", logger.Error(err), logger.RequestID(id))

// Error is the attribute for a single error under "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors", keyed by argument index.
func Errors(errs ...error) slog.Attr {
	var as []slog.Attr
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// HandlerError records a failure of an exception handler while it was
// rendering another fault.
func HandlerError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("handler_error", err)
}

// Panic records a recovered panic value.
func Panic(v any) slog.Attr {
	if v == nil {
		return slog.Attr{}
	}
	return slog.Any("panic", v)
}

// Stack records a captured stack trace.
func Stack(trace []byte) slog.Attr {
	if len(trace) == 0 {
		return slog.Attr{}
	}
	return slog.String("stack", string(trace))
}

// Type records the dynamic Go type of a fault, e.g. "*errors.errorString".
func Type(t string) slog.Attr {
	return slog.String("type", t)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed is the time since start under "elapsed".
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// ID is an identifier under a caller chosen key. A nil value is dropped.
func ID(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

func TraceID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("trace_id", id)
}

func Method(method string) slog.Attr {
	return slog.String("method", method)
}

func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// Route is the matched route template, e.g. "/users/{id:int}". Unmatched
// requests have none.
func Route(pattern string) slog.Attr {
	if pattern == "" {
		return slog.Attr{}
	}
	return slog.String("route", pattern)
}

// RouteName is the reverse lookup name of a route, if it has one.
func RouteName(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("route_name", name)
}

func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

func ClientIP(ip string) slog.Attr {
	if ip == "" {
		return slog.Attr{}
	}
	return slog.String("client_ip", ip)
}

func UserAgent(ua string) slog.Attr {
	if ua == "" {
		return slog.Attr{}
	}
	return slog.String("user_agent", ua)
}

// BytesOut is the size of the response body actually produced.
func BytesOut(n int64) slog.Attr {
	return slog.Int64("bytes_out", n)
}

// Addr is a listen or dial address.
func Addr(addr string) slog.Attr {
	return slog.String("addr", addr)
}

// Component names the subsystem emitting the record: "router", "lifecycle",
// "server" and so on.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Hook names a lifecycle hook.
func Hook(name string) slog.Attr {
	return slog.String("hook", name)
}

func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

func Version(v string) slog.Attr {
	return slog.String("version", v)
}
