package navigation

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/mmo-navgrid/internal/cache"
	"github.com/annel0/mmo-navgrid/internal/logging"
	"github.com/annel0/mmo-navgrid/internal/pathfind"
)

// pathCache обёртка над CacheRepo для результатов поиска.
// nil-значение означает отключённый кеш.
type pathCache struct {
	repo   cache.CacheRepo
	codec  *cache.Codec
	ttl    time.Duration
	logger *logging.Logger

	metrics *Metrics
}

// cacheKey navgrid:path:<instance>:<rev>:<layer>:<sx>,<sy>:<gx>,<gy>:<maxIter>
func (n *Navigator) cacheKey(rev uint64, req PathRequest) string {
	return fmt.Sprintf("navgrid:path:%s:%d:%d:%d,%d:%d,%d:%d",
		n.instance, rev, req.Layer,
		req.Start.X, req.Start.Y, req.Goal.X, req.Goal.Y,
		req.MaxIterations)
}

func (pc *pathCache) lookup(ctx context.Context, key string) (pathfind.Result, bool) {
	if pc == nil {
		return pathfind.Result{}, false
	}

	data, err := pc.repo.Get(ctx, key)
	if err != nil {
		if cache.IsCacheMiss(err) {
			pc.metrics.observeCache("miss")
		} else {
			pc.metrics.observeCache("error")
			pc.logger.Warn("⚠️ Кеш путей недоступен: %v", err)
		}
		return pathfind.Result{}, false
	}

	var res pathfind.Result
	if err := pc.codec.Unmarshal(data, &res); err != nil {
		pc.metrics.observeCache("error")
		pc.logger.Warn("⚠️ Повреждённая запись кеша %s: %v", key, err)
		return pathfind.Result{}, false
	}
	pc.metrics.observeCache("hit")
	return res, true
}

func (pc *pathCache) store(ctx context.Context, key string, res pathfind.Result) {
	if pc == nil {
		return
	}

	data, err := pc.codec.Marshal(res)
	if err != nil {
		pc.logger.Warn("⚠️ Не удалось закодировать путь: %v", err)
		return
	}
	if err := pc.repo.Set(ctx, key, data, pc.ttl); err != nil {
		pc.logger.Warn("⚠️ Не удалось записать путь в кеш: %v", err)
	}
}
