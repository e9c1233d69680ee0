package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/dmitrymomot/relay/core/logger"
)

// Hook is a startup or shutdown callback.
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager runs startup and shutdown hooks and tracks the lifecycle state.
type Manager struct {
	mu       sync.Mutex
	state    State
	startup  []namedHook
	shutdown []namedHook
	subs     []chan Event
	logger   *slog.Logger
}

// New creates a manager in the NotStarted state.
func New(opts ...Option) *Manager {
	m := &Manager{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnStartup registers a startup hook. Hooks cannot be added once startup began.
func (m *Manager) OnStartup(fn Hook) error {
	return m.register(&m.startup, fn)
}

// OnShutdown registers a shutdown hook.
func (m *Manager) OnShutdown(fn Hook) error {
	return m.register(&m.shutdown, fn)
}

func (m *Manager) register(list *[]namedHook, fn Hook) error {
	if fn == nil {
		return ErrNilHook
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != NotStarted {
		return ErrFrozen
	}
	*list = append(*list, namedHook{name: fmt.Sprintf("hook[%d]", len(*list)), fn: fn})
	return nil
}

// Subscribe returns a channel receiving every transition until ctx is done.
// Slow subscribers miss events rather than block transitions.
func (m *Manager) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 8)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s == ch {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}()
	return ch
}

// transition moves from one of from to to. Caller must not hold mu.
func (m *Manager) transition(to State, err error, from ...State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok := false
	for _, s := range from {
		if m.state == s {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s to %s", ErrInvalidState, m.state, to)
	}

	ev := Event{From: m.state, To: to, Err: err}
	m.state = to
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Startup runs startup hooks in registration order. The first failure moves
// the manager to Failed and is returned.
func (m *Manager) Startup(ctx context.Context) error {
	if err := m.transition(Starting, nil, NotStarted); err != nil {
		return err
	}

	m.mu.Lock()
	hooks := append([]namedHook(nil), m.startup...)
	m.mu.Unlock()

	for _, h := range hooks {
		if err := run(ctx, h); err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrStartupHook, h.name, err)
			m.logger.ErrorContext(ctx, "startup aborted",
				logger.Component("lifecycle"),
				logger.Error(err),
			)
			_ = m.transition(Failed, err, Starting)
			return err
		}
	}

	m.logger.DebugContext(ctx, "startup complete",
		logger.Component("lifecycle"),
		logger.Count("hooks", len(hooks)),
	)
	return m.transition(Running, nil, Starting)
}

// Shutdown runs every shutdown hook in registration order. Failures are
// logged and joined into the returned error; they do not stop the sequence.
// A manager that never started may still be shut down.
func (m *Manager) Shutdown(ctx context.Context) error {
	if err := m.transition(Stopping, nil, NotStarted, Running); err != nil {
		return err
	}

	m.mu.Lock()
	hooks := append([]namedHook(nil), m.shutdown...)
	m.mu.Unlock()

	var errs []error
	for _, h := range hooks {
		if err := run(ctx, h); err != nil {
			m.logger.ErrorContext(ctx, "shutdown hook failed",
				logger.Component("lifecycle"),
				logger.Hook(h.name),
				logger.Error(err),
			)
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrShutdownHook, h.name, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		_ = m.transition(Failed, err, Stopping)
		return err
	}
	return m.transition(Stopped, nil, Stopping)
}

func run(ctx context.Context, h namedHook) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrHookPanic, p, debug.Stack())
		}
	}()
	return h.fn(ctx)
}
