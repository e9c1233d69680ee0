package middleware

import (
	"fmt"
	"strconv"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// Size units for body limits.
const (
	KB int64 = 1024
	MB       = 1024 * KB
	GB       = 1024 * MB
)

// BodyLimitConfig configures the body limit middleware.
type BodyLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// MaxSize is the limit in bytes. Defaults to 4MB.
	MaxSize int64

	// ContentTypeLimit overrides MaxSize per media type, e.g. "multipart/form-data".
	ContentTypeLimit map[string]int64

	// ErrorHandler builds the fault returned when Content-Length announces a
	// body over the limit. contentLength is the announced size.
	ErrorHandler func(req *request.Request, contentLength, maxSize int64) error

	// DisableContentLengthCheck relies on the read limit alone.
	DisableContentLengthCheck bool
}

// BodyLimit limits request bodies to 4MB.
func BodyLimit() handler.Middleware {
	return BodyLimitWithConfig(BodyLimitConfig{})
}

// BodyLimitWithSize limits request bodies to maxSize bytes.
func BodyLimitWithSize(maxSize int64) handler.Middleware {
	return BodyLimitWithConfig(BodyLimitConfig{MaxSize: maxSize})
}

// BodyLimitWithConfig returns the body limit middleware configured by cfg.
// Requests announcing an oversized body fail with 413 before the handler
// runs. Bodies that grow past the limit while being read fail the read with
// request.ErrBodyTooLarge, which also renders as 413.
func BodyLimitWithConfig(cfg BodyLimitConfig) handler.Middleware {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 4 * MB
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(req *request.Request, contentLength, maxSize int64) error {
			return response.ErrRequestEntityTooLarge.
				WithMessage(fmt.Sprintf("Request body too large. Size: %s, Maximum allowed: %s",
					formatBytes(contentLength), formatBytes(maxSize))).
				WithDetails(map[string]any{
					"limit": maxSize,
					"size":  contentLength,
				})
		}
	}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		maxSize := cfg.MaxSize
		if limit, ok := cfg.ContentTypeLimit[req.ContentType()]; ok {
			maxSize = limit
		}

		if !cfg.DisableContentLengthCheck {
			if raw := req.Header("Content-Length"); raw != "" {
				contentLength, err := strconv.ParseInt(raw, 10, 64)
				if err == nil && contentLength > maxSize {
					return nil, cfg.ErrorHandler(req, contentLength, maxSize)
				}
			}
		}

		req.LimitBody(maxSize)
		return next()
	}
}

func formatBytes(bytes int64) string {
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
