package cache

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/mmo-navgrid/internal/logging"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache реализует CacheRepo в памяти процесса.
// Истёкшие записи удаляются лениво при чтении и при переполнении.
type MemoryCache struct {
	config *CacheConfig

	mu      sync.RWMutex
	entries map[string]memoryEntry

	stats stats
	now   func() time.Time
}

// NewMemoryCache создаёт кеш в памяти
func NewMemoryCache(config *CacheConfig) *MemoryCache {
	if config == nil {
		config = &CacheConfig{}
	}
	config.ApplyDefaults()

	logging.Info("In-memory cache initialized (ttl: %v, max entries: %d)", config.DefaultTTL, config.MaxEntries)
	return &MemoryCache{
		config:  config,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get получает значение по ключу
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer m.stats.recordLatency(start)

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		m.stats.miss()
		return nil, ErrCacheMiss
	}
	if now := m.now(); !now.Before(e.expiresAt) {
		// Между RUnlock и Lock ключ мог быть перезаписан свежим значением
		m.mu.Lock()
		if cur, still := m.entries[key]; still && !now.Before(cur.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		m.stats.miss()
		return nil, ErrCacheMiss
	}

	m.stats.hit()
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set сохраняет копию значения
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	start := time.Now()
	defer m.stats.recordLatency(start)

	stored := make([]byte, len(value))
	copy(stored, value)
	ttl = m.config.clampTTL(ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && m.config.MaxEntries > 0 && len(m.entries) >= m.config.MaxEntries {
		m.evictLocked()
	}
	m.entries[key] = memoryEntry{value: stored, expiresAt: m.now().Add(ttl)}
	return nil
}

// Delete удаляет ключ
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Exists проверяет наличие неистёкшего ключа
func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	return ok && m.now().Before(e.expiresAt), nil
}

// Close очищает кеш
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// GetMetrics возвращает текущие метрики кеша
func (m *MemoryCache) GetMetrics() *CacheMetrics {
	m.mu.RLock()
	n := int64(len(m.entries))
	m.mu.RUnlock()
	return m.stats.snapshot(n)
}

// evictLocked удаляет истёкшие записи, а если таких нет - запись,
// которая истекает раньше всех
func (m *MemoryCache) evictLocked() {
	now := m.now()
	var oldestKey string
	var oldest time.Time
	removed := 0

	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			removed++
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey, oldest = k, e.expiresAt
		}
	}
	if removed == 0 && oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
