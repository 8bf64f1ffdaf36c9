package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// stats общий учёт попаданий и задержек для реализаций CacheRepo
type stats struct {
	requests atomic.Int64
	hits     atomic.Int64
	misses   atomic.Int64

	latencySum   atomic.Int64 // в наносекундах
	latencyCount atomic.Int64
	maxLatency   atomic.Int64

	mu sync.Mutex
}

func (s *stats) hit() {
	s.requests.Add(1)
	s.hits.Add(1)
}

func (s *stats) miss() {
	s.requests.Add(1)
	s.misses.Add(1)
}

// recordLatency записывает latency метрику.
func (s *stats) recordLatency(start time.Time) {
	latency := time.Since(start).Nanoseconds()

	s.latencySum.Add(latency)
	s.latencyCount.Add(1)

	for {
		current := s.maxLatency.Load()
		if latency <= current || s.maxLatency.CompareAndSwap(current, latency) {
			break
		}
	}
}

// snapshot собирает CacheMetrics на текущий момент
func (s *stats) snapshot(totalKeys int64) *CacheMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &CacheMetrics{
		TotalRequests: s.requests.Load(),
		CacheHits:     s.hits.Load(),
		CacheMisses:   s.misses.Load(),
		MaxLatencyMs:  float64(s.maxLatency.Load()) / 1e6,
		TotalKeys:     totalKeys,
		LastUpdate:    time.Now(),
	}
	if total := m.CacheHits + m.CacheMisses; total > 0 {
		m.HitRatio = float64(m.CacheHits) / float64(total)
	}
	if count := s.latencyCount.Load(); count > 0 {
		m.AvgLatencyMs = float64(s.latencySum.Load()) / float64(count) / 1e6 // нс в мс
	}
	return m
}
