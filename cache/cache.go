// Package cache defines the cache driver contract the core consumes via DI
// as a CacheService, plus a default in-memory TTL driver. Concrete backends
// (this package's Redis driver, or a caller-supplied one) are implementation
// detail behind the Driver interface; the core never references one
// directly.
package cache

import (
	"context"
	"sync"
	"time"
)

// Driver is the capability surface §4.H requires of any cache backend.
// Close is optional; drivers that don't own a connection return nil.
type Driver interface {
	Get(ctx context.Context, key string) (value any, found bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	Close() error
}

type entry struct {
	value   any
	expires time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Memory is the default in-memory cache driver with TTL eviction. It is
// always registered by the App unless WithCache supplies a different
// driver.
type Memory struct {
	mu       sync.Mutex
	data     map[string]entry
	sweep    time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewMemory builds a Memory driver. sweepInterval controls how often expired
// entries are proactively swept from the map; a non-positive value disables
// the background sweeper (expired entries are still skipped lazily on Get).
func NewMemory(sweepInterval time.Duration) *Memory {
	m := &Memory{
		data:   make(map[string]entry),
		sweep:  sweepInterval,
		stopCh: make(chan struct{}),
	}
	if sweepInterval > 0 {
		go m.sweepLoop()
	}
	return m
}

func (m *Memory) sweepLoop() {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for k, e := range m.data {
				if e.expired(now) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Memory) Get(_ context.Context, key string) (any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok || e.expired(time.Now()) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	m.data[key] = entry{value: value, expires: expires}
	return nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok || e.expired(time.Now()) {
		return false, nil
	}
	return true, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]entry)
	return nil
}

// Close stops the background sweeper, if any. Safe to call multiple times.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stopCh) })
	return nil
}
