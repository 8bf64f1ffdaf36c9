package navigation

import (
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/mmo-navgrid/internal/cache"
)

// Option настраивает Navigator
type Option func(n *Navigator)

// WithMetrics включает Prometheus-метрики поиска
func WithMetrics(m *Metrics) Option {
	return func(n *Navigator) { n.metrics = m }
}

// WithTracer заменяет tracer из глобального TracerProvider
func WithTracer(t trace.Tracer) Option {
	return func(n *Navigator) {
		if t != nil {
			n.tracer = t
		}
	}
}

// WithPathCache включает кеш результатов поиска.
// Ключ содержит ревизию сетки, поэтому любое изменение тайлов
// делает старые записи недостижимыми.
func WithPathCache(repo cache.CacheRepo, codec *cache.Codec, ttl time.Duration) Option {
	return func(n *Navigator) {
		if repo == nil || codec == nil {
			return
		}
		n.pathCache = &pathCache{repo: repo, codec: codec, ttl: ttl, logger: n.logger}
	}
}

// WithRand задаёт источник случайных чисел для GetRandomNavigablePoint
func WithRand(r *rand.Rand) Option {
	return func(n *Navigator) {
		if r != nil {
			n.rng = r
		}
	}
}

// WithSeed фиксирует сид генератора случайных точек
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithDefaultMaxIterations задаёт лимит для запросов с MaxIterations <= 0
func WithDefaultMaxIterations(limit int) Option {
	return func(n *Navigator) {
		if limit > 0 {
			n.defaultMaxIterations = limit
		}
	}
}

// WithInstanceID задаёт идентификатор экземпляра в ключах кеша.
// По умолчанию генерируется случайный UUID, поэтому кеш не разделяется
// между процессами с разными сетками.
func WithInstanceID(id string) Option {
	return func(n *Navigator) {
		if id != "" {
			n.instance = id
		}
	}
}
