package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/lifecycle"
)

func record(log *[]string, name string, err error) lifecycle.Hook {
	return func(context.Context) error {
		*log = append(*log, name)
		return err
	}
}

func TestStartupRunsInOrder(t *testing.T) {
	t.Parallel()

	var log []string
	m := lifecycle.New()
	require.NoError(t, m.OnStartup(record(&log, "db", nil)))
	require.NoError(t, m.OnStartup(record(&log, "cache", nil)))

	assert.Equal(t, lifecycle.NotStarted, m.State())
	require.NoError(t, m.Startup(context.Background()))
	assert.Equal(t, []string{"db", "cache"}, log)
	assert.Equal(t, lifecycle.Running, m.State())

	assert.ErrorIs(t, m.OnStartup(record(&log, "late", nil)), lifecycle.ErrFrozen)
	assert.ErrorIs(t, m.Startup(context.Background()), lifecycle.ErrInvalidState)
}

func TestStartupStopsOnFirstFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var log []string
	m := lifecycle.New()
	require.NoError(t, m.OnStartup(record(&log, "a", nil)))
	require.NoError(t, m.OnStartup(record(&log, "b", boom)))
	require.NoError(t, m.OnStartup(record(&log, "c", nil)))

	err := m.Startup(context.Background())
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, lifecycle.ErrStartupHook)
	assert.Equal(t, []string{"a", "b"}, log)
	assert.Equal(t, lifecycle.Failed, m.State())
	assert.True(t, m.State().Terminal())
	assert.ErrorIs(t, m.Shutdown(context.Background()), lifecycle.ErrInvalidState)
}

func TestShutdownIsBestEffort(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var log []string
	m := lifecycle.New()
	require.NoError(t, m.OnShutdown(record(&log, "a", nil)))
	require.NoError(t, m.OnShutdown(record(&log, "b", boom)))
	require.NoError(t, m.OnShutdown(func(context.Context) error {
		log = append(log, "c")
		panic("oops")
	}))
	require.NoError(t, m.OnShutdown(record(&log, "d", nil)))

	require.NoError(t, m.Startup(context.Background()))
	err := m.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, lifecycle.ErrHookPanic)
	assert.Equal(t, []string{"a", "b", "c", "d"}, log)
	assert.Equal(t, lifecycle.Failed, m.State())
}

func TestShutdownClean(t *testing.T) {
	t.Parallel()

	var log []string
	m := lifecycle.New()
	require.NoError(t, m.OnShutdown(record(&log, "a", nil)))
	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, lifecycle.Stopped, m.State())
	assert.Equal(t, "stopped", m.State().String())
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := lifecycle.New()
	events := m.Subscribe(ctx)
	require.NoError(t, m.Startup(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	var got []lifecycle.State
	for range 4 {
		select {
		case ev := <-events:
			got = append(got, ev.To)
		case <-time.After(time.Second):
			t.Fatal("missing event")
		}
	}
	assert.Equal(t, []lifecycle.State{lifecycle.Starting, lifecycle.Running, lifecycle.Stopping, lifecycle.Stopped}, got)

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, time.Second, 10*time.Millisecond)
}
