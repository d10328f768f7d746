package services

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Registry хранит по одному ListService на сессию браузера.
// Простаивающие окна вытесняются по таймауту и закрываются.
type Registry struct {
	mu      sync.Mutex
	cache   *cache.Cache
	factory func() *ListService
}

func NewRegistry(idleTTL time.Duration, factory func() *ListService) *Registry {
	return newRegistry(idleTTL, idleTTL/2, factory)
}

func newRegistry(idleTTL, cleanup time.Duration, factory func() *ListService) *Registry {
	c := cache.New(idleTTL, cleanup)
	c.OnEvicted(func(_ string, v any) {
		v.(*ListService).Close()
	})

	return &Registry{
		cache:   c,
		factory: factory,
	}
}

// Controller returns the window of sessionID, creating it on first use.
// Every access extends the idle deadline.
func (r *Registry) Controller(sessionID string) *ListService {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.cache.Get(sessionID); ok {
		ctl := v.(*ListService)
		r.cache.SetDefault(sessionID, ctl)
		return ctl
	}

	// Get hides an expired entry the janitor has not swept yet; Delete still
	// evicts it, so the stale window is closed before it is replaced.
	r.cache.Delete(sessionID)

	ctl := r.factory()
	r.cache.SetDefault(sessionID, ctl)

	return ctl
}

// Drop closes and forgets the window of sessionID.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Delete(sessionID)
}

func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

// Close closes every window, used on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.DeleteExpired()
	for id := range r.cache.Items() {
		r.cache.Delete(id)
	}
}
