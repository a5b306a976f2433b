package cache

import (
	"context"
	"sync"

	"github.com/StrathCole/zentro-oracle/pkg/oracle"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/feed"
)

// Relay fans quotes published to Redis out to local subscribers. It lets a
// WebSocket server run without its own feed, fed by whichever process
// stores quotes in the cache.
type Relay struct {
	cache *QuoteCache

	mu    sync.RWMutex
	ids   []string
	subs  map[string]feed.Callback
	ready chan struct{}
	once  sync.Once
}

// NewRelay creates a relay over c. Call Run to start delivering.
func NewRelay(c *QuoteCache) *Relay {
	return &Relay{
		cache: c,
		subs:  make(map[string]feed.Callback),
		ready: make(chan struct{}),
	}
}

// Address returns the oracle account the relayed quotes belong to.
func (r *Relay) Address() string {
	return r.cache.account
}

// Subscribe registers cb under id. Re-subscribing an id replaces the
// callback in place.
func (r *Relay) Subscribe(id string, cb feed.Callback) {
	if cb == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[id]; !ok {
		r.ids = append(r.ids, id)
	}
	r.subs[id] = cb
}

// Unsubscribe removes id. Unknown ids are ignored.
func (r *Relay) Unsubscribe(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[id]; !ok {
		return
	}
	delete(r.subs, id)
	for i, existing := range r.ids {
		if existing == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			break
		}
	}
}

// Ready is closed once the Redis subscription is confirmed.
func (r *Relay) Ready() <-chan struct{} {
	return r.ready
}

// Run watches the cache channel until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	return r.cache.watch(ctx, func() { r.once.Do(func() { close(r.ready) }) }, r.deliver)
}

func (r *Relay) deliver(q oracle.Quote) {
	r.mu.RLock()
	callbacks := make([]feed.Callback, 0, len(r.ids))
	for _, id := range r.ids {
		callbacks = append(callbacks, r.subs[id])
	}
	r.mu.RUnlock()

	for _, cb := range callbacks {
		r.invoke(cb, q)
	}
}

func (r *Relay) invoke(cb feed.Callback, q oracle.Quote) {
	defer func() {
		if rec := recover(); rec != nil {
			r.cache.logger.Error("Relay subscriber panicked", "account", r.cache.account, "panic", rec)
		}
	}()
	cb(q)
}
