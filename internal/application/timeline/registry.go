package timeline

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/andreero0/nestsync-timeline/internal/util"
)

// Registry hands out stores keyed by (child, filter). Switching the key
// always yields a store with fresh pagination state and event list; an old
// key's state is never mutated to fit a new one. Idle stores are evicted
// after a grace period since a session that stayed untouched that long is
// being rebuilt from scratch anyway.
type Registry struct {
	mu      sync.Mutex
	stores  *gocache.Cache
	factory func(SessionKey) (*Store, error)
}

// NewRegistry creates a registry. idleTTL bounds how long an untouched
// session's store is kept; zero keeps stores forever.
func NewRegistry(idleTTL time.Duration, factory func(SessionKey) (*Store, error)) *Registry {
	if idleTTL <= 0 {
		idleTTL = gocache.NoExpiration
	}
	return &Registry{
		stores:  gocache.New(idleTTL, 10*time.Minute),
		factory: factory,
	}
}

// Get returns the store for a key, creating a fresh one on first use or
// after eviction. Each Get refreshes the idle clock.
func (r *Registry) Get(key SessionKey) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.stores.Get(key.String()); ok {
		store := cached.(*Store)
		r.stores.SetDefault(key.String(), store)
		return store, nil
	}

	store, err := r.factory(key)
	if err != nil {
		return nil, err
	}
	r.stores.SetDefault(key.String(), store)
	util.LogDebugf("Allocated fresh timeline state for %s", key)
	return store, nil
}

// Drop discards the store for a key, forcing the next Get to start clean.
func (r *Registry) Drop(key SessionKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores.Delete(key.String())
}

// Len returns the number of live stores.
func (r *Registry) Len() int {
	return r.stores.ItemCount()
}
