package navigation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/mmo-navgrid/internal/pathfind"
	"github.com/annel0/mmo-navgrid/internal/projection"
)

// Metrics Prometheus-метрики навигатора.
// Методы безопасны для nil-получателя, чтобы метрики можно было не подключать.
type Metrics struct {
	searches      *prometheus.CounterVec
	iterations    *prometheus.HistogramVec
	duration      *prometheus.HistogramVec
	pathLength    *prometheus.HistogramVec
	cacheRequests *prometheus.CounterVec

	randomAttempts prometheus.Histogram
	randomPoints   *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navgrid",
			Name:      "path_searches_total",
			Help:      "Число поисков пути по проекции и итоговому статусу.",
		}, []string{"projection", "status"}),
		iterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "navgrid",
			Name:      "path_search_iterations",
			Help:      "Количество извлечений из открытого списка за поиск.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		}, []string{"projection"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "navgrid",
			Name:      "path_search_duration_seconds",
			Help:      "Длительность поиска пути.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"projection", "cached"}),
		pathLength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "navgrid",
			Name:      "path_length_waypoints",
			Help:      "Число точек в найденных путях.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"projection"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navgrid",
			Name:      "path_cache_requests_total",
			Help:      "Обращения к кешу путей (hit, miss, error).",
		}, []string{"result"}),
		randomAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "navgrid",
			Name:      "random_point_attempts",
			Help:      "Число попыток выборки на один вызов GetRandomNavigablePoint.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		randomPoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navgrid",
			Name:      "random_points_total",
			Help:      "Вызовы GetRandomNavigablePoint по результату.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.searches,
		m.iterations,
		m.duration,
		m.pathLength,
		m.cacheRequests,
		m.randomAttempts,
		m.randomPoints,
	)
	return m
}

func (m *Metrics) observeSearch(kind projection.Kind, res pathfind.Result, elapsed time.Duration, cached bool) {
	if m == nil {
		return
	}
	proj := kind.String()

	m.searches.WithLabelValues(proj, res.Status.String()).Inc()
	m.duration.WithLabelValues(proj, boolLabel(cached)).Observe(elapsed.Seconds())
	if !cached {
		m.iterations.WithLabelValues(proj).Observe(float64(res.Iterations))
	}
	if res.Found() {
		m.pathLength.WithLabelValues(proj).Observe(float64(len(res.Waypoints)))
	}
}

func (m *Metrics) observeCache(result string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) observeRandomPoint(attempts int, found bool) {
	if m == nil {
		return
	}
	m.randomAttempts.Observe(float64(attempts))
	if found {
		m.randomPoints.WithLabelValues("found").Inc()
	} else {
		m.randomPoints.WithLabelValues("exhausted").Inc()
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
