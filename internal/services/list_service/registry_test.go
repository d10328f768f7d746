package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(ttl time.Duration) (*Registry, *int) {
	created := 0
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRegistry(ttl, func() *ListService {
		created++
		return NewListService(log, new(MockLister), Options{})
	}), &created
}

func TestRegistry_OneControllerPerSession(t *testing.T) {
	reg, created := newTestRegistry(time.Minute)

	a := reg.Controller("a")
	assert.Same(t, a, reg.Controller("a"))
	b := reg.Controller("b")
	assert.NotSame(t, a, b)

	assert.Equal(t, 2, *created)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_DropClosesController(t *testing.T) {
	reg, _ := newTestRegistry(time.Minute)

	ctl := reg.Controller("a")
	reg.Drop("a")

	ctl.mu.Lock()
	closed := ctl.closed
	ctl.mu.Unlock()
	assert.True(t, closed)

	assert.NotSame(t, ctl, reg.Controller("a"))
}

func TestRegistry_CloseAll(t *testing.T) {
	reg, _ := newTestRegistry(time.Minute)

	ctls := []*ListService{reg.Controller("a"), reg.Controller("b")}
	reg.Close()

	for _, ctl := range ctls {
		ctl.mu.Lock()
		assert.True(t, ctl.closed)
		ctl.mu.Unlock()
	}
	assert.Zero(t, reg.Len())
}

func TestRegistry_IdleExpiry(t *testing.T) {
	reg, _ := newTestRegistry(20 * time.Millisecond)

	ctl := reg.Controller("a")

	require.Eventually(t, func() bool {
		ctl.mu.Lock()
		defer ctl.mu.Unlock()
		return ctl.closed
	}, time.Second, 5*time.Millisecond)
}

func TestRegistry_ExpiredUnsweptWindowIsClosedOnReplace(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := newRegistry(10*time.Millisecond, 0, func() *ListService {
		return NewListService(log, new(MockLister), Options{})
	})

	stale := reg.Controller("a")
	time.Sleep(30 * time.Millisecond)

	fresh := reg.Controller("a")
	assert.NotSame(t, stale, fresh)

	stale.mu.Lock()
	assert.True(t, stale.closed)
	stale.mu.Unlock()

	fresh.mu.Lock()
	assert.False(t, fresh.closed)
	fresh.mu.Unlock()
}

func TestRegistry_CloseAllIncludesExpired(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := newRegistry(10*time.Millisecond, 0, func() *ListService {
		return NewListService(log, new(MockLister), Options{})
	})

	ctl := reg.Controller("a")
	time.Sleep(30 * time.Millisecond)
	reg.Close()

	ctl.mu.Lock()
	assert.True(t, ctl.closed)
	ctl.mu.Unlock()
}
