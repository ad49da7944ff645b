package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps everything in a map. Used by tests and STORAGE_DRIVER=memory.
type MemoryBackend struct {
	mu      sync.RWMutex
	data    map[string][]byte
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data:    make(map[string][]byte),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	if !ok || b.expired(key) {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (b *MemoryBackend) expired(key string) bool {
	at, ok := b.expires[key]
	return ok && !b.now().Before(at)
}

func (b *MemoryBackend) Commit(_ context.Context, writes []Write) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range writes {
		delete(b.expires, w.Key)
		if w.Delete {
			delete(b.data, w.Key)
			continue
		}
		b.data[w.Key] = append([]byte(nil), w.Value...)
		if w.TTL > 0 {
			b.expires[w.Key] = b.now().Add(w.TTL)
		}
	}
	return nil
}

// Sweep drops expired keys.
func (b *MemoryBackend) Sweep(context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	for key := range b.expires {
		if b.expired(key) {
			delete(b.data, key)
			delete(b.expires, key)
			n++
		}
	}
	return n, nil
}

// Put stores a raw value outside of any transaction.
func (b *MemoryBackend) Put(key string, value []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = append([]byte(nil), value...)
	delete(b.expires, key)
}

func (b *MemoryBackend) Ping(context.Context) error { return nil }

func (b *MemoryBackend) Close() error { return nil }
