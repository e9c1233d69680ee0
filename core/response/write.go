package response

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/relay/core/transport"
)

const streamChunkSize = 32 * 1024

// Write emits the response as one start message followed by body messages.
// Stream sources and files are released on every exit path.
func (r *Response) Write(ctx context.Context, send transport.Send) (err error) {
	defer func() {
		if cerr := r.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	switch r.kind {
	case KindStream:
		return r.writeStream(ctx, send, r.contentType, -1)
	case KindFile:
		return r.writeFile(ctx, send)
	}

	body, err := r.Body()
	if err != nil {
		return err
	}
	if !bodyAllowed(r.status) {
		body = nil
	}

	if err := send(ctx, transport.Message{
		Type:    transport.ResponseStart,
		Status:  r.status,
		Headers: r.startHeaders(r.contentType, int64(len(body))),
	}); err != nil {
		return err
	}
	return send(ctx, transport.Message{Type: transport.ResponseBody, Body: body})
}

func (r *Response) writeStream(ctx context.Context, send transport.Send, contentType string, length int64) error {
	if err := send(ctx, transport.Message{
		Type:    transport.ResponseStart,
		Status:  r.status,
		Headers: r.startHeaders(contentType, length),
	}); err != nil {
		return err
	}

	if r.producer != nil {
		if err := r.producer(&chunkWriter{ctx: ctx, send: send}); err != nil {
			return err
		}
	} else if r.source != nil {
		buf := make([]byte, streamChunkSize)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, rerr := r.source.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				if err := send(ctx, transport.Message{Type: transport.ResponseBody, Body: chunk, MoreBody: true}); err != nil {
					return err
				}
			}
			if errors.Is(rerr, io.EOF) {
				break
			}
			if rerr != nil {
				return rerr
			}
		}
	}

	return send(ctx, transport.Message{Type: transport.ResponseBody})
}

func (r *Response) writeFile(ctx context.Context, send transport.Send) error {
	f, err := os.Open(filepath.Clean(r.file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound.WithError(err)
		}
		return err
	}
	r.source = f

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return ErrNotFound.WithMessage(fmt.Sprintf("%s is a directory", filepath.Base(r.file)))
	}

	contentType := mime.TypeByExtension(filepath.Ext(r.file))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return r.writeStream(ctx, send, contentType, info.Size())
}

// startHeaders builds the header list of the start message. Names are
// lowercase and every cookie is its own set-cookie entry.
func (r *Response) startHeaders(contentType string, length int64) transport.Headers {
	keys := make([]string, 0, len(r.header))
	for k := range r.header {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	headers := make(transport.Headers, 0, len(keys)+len(r.cookies)+2)
	for _, k := range keys {
		name := strings.ToLower(k)
		for _, v := range r.header[k] {
			headers = append(headers, transport.Header{Name: name, Value: v})
		}
	}

	if r.header.Get("Content-Type") == "" && contentType != "" && bodyAllowed(r.status) {
		headers = append(headers, transport.Header{Name: "content-type", Value: contentType})
	}
	if r.header.Get("Content-Length") == "" && length >= 0 && bodyAllowed(r.status) {
		headers = append(headers, transport.Header{Name: "content-length", Value: strconv.FormatInt(length, 10)})
	}
	for _, c := range r.cookies {
		headers = append(headers, transport.Header{Name: "set-cookie", Value: c.String()})
	}
	return headers
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status < 200:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

// chunkWriter sends every Write as a body chunk.
type chunkWriter struct {
	ctx  context.Context
	send transport.Send
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}
	chunk := append([]byte(nil), p...)
	if err := w.send(w.ctx, transport.Message{Type: transport.ResponseBody, Body: chunk, MoreBody: true}); err != nil {
		return 0, err
	}
	return len(p), nil
}
