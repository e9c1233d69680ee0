package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

type maintenance struct {
	enabled bool
}

func (m maintenance) ProcessRequest(req *request.Request, res *response.Response) (*response.Response, error) {
	if m.enabled {
		return response.Text(http.StatusServiceUnavailable, "maintenance"), nil
	}
	req.Set("maintenance-checked", true)
	return nil, nil
}

func (m maintenance) ProcessResponse(req *request.Request, res *response.Response) (*response.Response, error) {
	return res.SetHeader("X-Maintenance", "off"), nil
}

type recoverer struct{}

func (recoverer) ProcessError(req *request.Request, res *response.Response, err error) (*response.Response, error) {
	if errors.Is(err, errRecoverable) {
		return response.Text(http.StatusTeapot, "recovered"), nil
	}
	return nil, nil
}

var errRecoverable = errors.New("recoverable")

func TestAdaptRequestAndResponseHooks(t *testing.T) {
	t.Parallel()

	t.Run("pass through", func(t *testing.T) {
		t.Parallel()

		req := newReq()
		out, err := handler.NewChain(ok, handler.Adapt(maintenance{})).Run(req, response.New())
		require.NoError(t, err)
		assert.Equal(t, "off", out.Header().Get("X-Maintenance"))
		assert.Equal(t, true, req.Value("maintenance-checked"))
	})

	t.Run("short circuit", func(t *testing.T) {
		t.Parallel()

		called := false
		h := func(req *request.Request, res *response.Response) (*response.Response, error) {
			called = true
			return res, nil
		}
		out, err := handler.NewChain(h, handler.Adapt(maintenance{enabled: true})).Run(newReq(), response.New())
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, out.Status())
		assert.False(t, called)
	})
}

func TestAdaptErrorHook(t *testing.T) {
	t.Parallel()

	recoverable := func(*request.Request, *response.Response) (*response.Response, error) {
		return nil, errRecoverable
	}
	other := errors.New("other")
	fatal := func(*request.Request, *response.Response) (*response.Response, error) {
		return nil, other
	}

	out, err := handler.NewChain(recoverable, handler.Adapt(recoverer{})).Run(newReq(), response.New())
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, out.Status())

	_, err = handler.NewChain(fatal, handler.Adapt(recoverer{})).Run(newReq(), response.New())
	assert.ErrorIs(t, err, other)
}

func TestAdaptFunctionStyle(t *testing.T) {
	t.Parallel()

	fn := func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		return next()
	}
	assert.NotNil(t, handler.Adapt(fn))
	assert.NotNil(t, handler.Adapt(handler.Middleware(fn)))
	assert.Panics(t, func() { handler.Adapt(struct{}{}) })
}
