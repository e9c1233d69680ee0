package transport

import (
	"context"
	"strings"
	"sync"
)

// Guard wraps a Send and enforces the response message order:
// one start, then body messages until the final one.
type Guard struct {
	mu      sync.Mutex
	send    Send
	status  int
	started bool
	done    bool
}

// NewGuard wraps send.
func NewGuard(send Send) *Guard {
	return &Guard{send: send}
}

// Send forwards msg if it is valid in the current state.
// Header names of a start message are lowercased before forwarding.
func (g *Guard) Send(ctx context.Context, msg Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch msg.Type {
	case ResponseStart:
		if g.started {
			return ErrResponseStarted
		}
		for i := range msg.Headers {
			msg.Headers[i].Name = strings.ToLower(msg.Headers[i].Name)
		}
		if err := g.send(ctx, msg); err != nil {
			return err
		}
		g.started = true
		g.status = msg.Status
		return nil
	case ResponseBody:
		if !g.started {
			return ErrResponseNotStarted
		}
		if g.done {
			return ErrResponseComplete
		}
		if err := g.send(ctx, msg); err != nil {
			return err
		}
		g.done = !msg.MoreBody
		return nil
	default:
		return ErrUnknownMessage
	}
}

// Started reports whether the start message was sent.
func (g *Guard) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

// Done reports whether the final body message was sent.
func (g *Guard) Done() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done
}

// Status returns the status sent with the start message, or 0.
func (g *Guard) Status() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}
