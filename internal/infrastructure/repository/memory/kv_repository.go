package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/kvstore"
)

type kvEntry struct {
	value  []byte
	origin string
}

type kvWatcher struct {
	key    string
	origin string
	ch     chan kvstore.Change
}

// KVBus is an in-process key/value store shared by several origins. Each
// origin gets its own repository; watchers only see other origins' writes.
type KVBus struct {
	mu       sync.Mutex
	entries  map[string]kvEntry
	watchers map[uint64]*kvWatcher
	nextID   uint64
}

func NewKVBus() *KVBus {
	return &KVBus{
		entries:  make(map[string]kvEntry),
		watchers: make(map[uint64]*kvWatcher),
	}
}

func (b *KVBus) Repository(origin string) *KVRepository {
	return &KVRepository{bus: b, origin: origin}
}

// notify must be called with b.mu held. A slow watcher only keeps the
// latest change.
func (b *KVBus) notify(change kvstore.Change) {
	for _, w := range b.watchers {
		if w.key != change.Key || w.origin == change.Origin {
			continue
		}
		select {
		case <-w.ch:
		default:
		}
		w.ch <- change
	}
}

type KVRepository struct {
	bus    *KVBus
	origin string
}

func (r *KVRepository) Get(_ context.Context, key string) ([]byte, bool, error) {
	r.bus.mu.Lock()
	defer r.bus.mu.Unlock()

	entry, ok := r.bus.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

func (r *KVRepository) Set(_ context.Context, key string, value []byte) error {
	r.bus.mu.Lock()
	defer r.bus.mu.Unlock()

	stored := append([]byte(nil), value...)
	r.bus.entries[key] = kvEntry{value: stored, origin: r.origin}
	r.bus.notify(kvstore.Change{Key: key, Value: append([]byte(nil), stored...), Origin: r.origin})
	return nil
}

func (r *KVRepository) Remove(_ context.Context, key string) error {
	r.bus.mu.Lock()
	defer r.bus.mu.Unlock()

	if _, ok := r.bus.entries[key]; !ok {
		return nil
	}
	delete(r.bus.entries, key)
	r.bus.notify(kvstore.Change{Key: key, Removed: true, Origin: r.origin})
	return nil
}

func (r *KVRepository) Watch(ctx context.Context, key string) (<-chan kvstore.Change, error) {
	ch := make(chan kvstore.Change, 1)

	r.bus.mu.Lock()
	r.bus.nextID++
	id := r.bus.nextID
	r.bus.watchers[id] = &kvWatcher{key: key, origin: r.origin, ch: ch}
	r.bus.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.bus.mu.Lock()
		delete(r.bus.watchers, id)
		close(ch)
		r.bus.mu.Unlock()
	}()
	return ch, nil
}
