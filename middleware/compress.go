package middleware

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// Supported content codings, in server preference order.
const (
	EncodingZstd = "zstd"
	EncodingGzip = "gzip"
)

// CompressConfig configures the compression middleware.
type CompressConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// Level is the gzip level, 1 to 9. Defaults to gzip.DefaultCompression.
	Level int

	// MinSize leaves smaller bodies uncompressed. Defaults to 1KB.
	MinSize int

	// ContentTypes lists compressible media types.
	// Defaults to text, JSON, JavaScript, XML and SVG.
	ContentTypes []string

	// Encodings lists the offered codings in preference order.
	// Defaults to zstd then gzip.
	Encodings []string
}

// Compress compresses buffered responses with zstd or gzip.
func Compress() handler.Middleware {
	return CompressWithConfig(CompressConfig{})
}

// CompressWithConfig returns the compression middleware configured by cfg.
// Streamed and file bodies, bodies that already carry a Content-Encoding and
// responses without a body pass through untouched.
func CompressWithConfig(cfg CompressConfig) handler.Middleware {
	if cfg.Level < gzip.BestSpeed || cfg.Level > gzip.BestCompression {
		cfg.Level = gzip.DefaultCompression
	}

	if cfg.MinSize <= 0 {
		cfg.MinSize = int(KB)
	}

	if len(cfg.ContentTypes) == 0 {
		cfg.ContentTypes = []string{
			"text/html",
			"text/css",
			"text/plain",
			"text/javascript",
			"application/javascript",
			"application/json",
			"application/xml",
			"text/xml",
			"image/svg+xml",
		}
	}
	compressible := make(map[string]bool, len(cfg.ContentTypes))
	for _, ct := range cfg.ContentTypes {
		compressible[ct] = true
	}

	if len(cfg.Encodings) == 0 {
		cfg.Encodings = []string{EncodingZstd, EncodingGzip}
	}

	c := &compressor{level: cfg.Level}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		encoding := negotiateEncoding(req.Header("Accept-Encoding"), cfg.Encodings)

		out, err := next()
		if err != nil || out == nil {
			return out, err
		}
		out.AddHeader("Vary", "Accept-Encoding")

		if encoding == "" || req.Method() == http.MethodHead || out.Header().Get("Content-Encoding") != "" {
			return out, nil
		}
		switch out.Kind() {
		case response.KindJSON, response.KindText, response.KindHTML, response.KindBinary:
		default:
			return out, nil
		}

		contentType := out.ContentType()
		mediaType, _, _ := strings.Cut(contentType, ";")
		if !compressible[strings.TrimSpace(strings.ToLower(mediaType))] {
			return out, nil
		}

		body, err := out.Body()
		if err != nil {
			return nil, err
		}
		if len(body) < cfg.MinSize {
			return out, nil
		}

		compressed, err := c.encode(encoding, body)
		if err != nil {
			return nil, err
		}

		out.Bytes(compressed, contentType)
		out.SetHeader("Content-Encoding", encoding)
		out.Header().Del("Content-Length")
		return out, nil
	}
}

type compressor struct {
	level    int
	gzipPool sync.Pool

	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdErr  error
}

func (c *compressor) encode(encoding string, body []byte) ([]byte, error) {
	if encoding == EncodingZstd {
		c.zstdOnce.Do(func() {
			c.zstdEnc, c.zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		})
		if c.zstdErr != nil {
			return nil, c.zstdErr
		}
		return c.zstdEnc.EncodeAll(body, make([]byte, 0, len(body)/2)), nil
	}

	var buf bytes.Buffer
	gz, ok := c.gzipPool.Get().(*gzip.Writer)
	if ok {
		gz.Reset(&buf)
	} else {
		var err error
		if gz, err = gzip.NewWriterLevel(&buf, c.level); err != nil {
			return nil, err
		}
	}
	defer c.gzipPool.Put(gz)

	if _, err := gz.Write(body); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// negotiateEncoding picks the offered coding with the highest q-value.
// Ties go to the earlier offer. q=0 rejects a coding; "*" covers the rest.
func negotiateEncoding(header string, offers []string) string {
	if header == "" {
		return ""
	}

	prefs := make(map[string]float64)
	wildcard := -1.0
	for part := range strings.SplitSeq(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				q = f
			}
		}
		if name == "*" {
			wildcard = q
			continue
		}
		prefs[name] = q
	}

	best, bestQ := "", 0.0
	for _, offer := range offers {
		q, ok := prefs[offer]
		if !ok {
			q = wildcard
		}
		if q > bestQ {
			best, bestQ = offer, q
		}
	}
	return best
}
