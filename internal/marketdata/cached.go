package marketdata

import (
	"context"
	"time"

	"github.com/wonny/varcalc/internal/risk"
	"github.com/wonny/varcalc/pkg/logger"
	"github.com/wonny/varcalc/pkg/redis"
)

// CachedProvider Redis 캐시를 앞에 둔 Provider
// 캐시 장애는 경고만 남기고 원본 Provider로 진행한다.
type CachedProvider struct {
	inner  Provider
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

type cachedSeries struct {
	Returns    []float64       `json:"returns"`
	ReturnType risk.ReturnType `json:"return_type"`
}

// NewCachedProvider wraps inner; a disabled Redis client makes it a pass-through.
func NewCachedProvider(inner Provider, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = redis.TTLLong
	}
	return &CachedProvider{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log.Component("marketdata.cache"),
		now:    time.Now,
	}
}

// Fetch 같은 날 같은 (symbol, window) 요청은 캐시에서 응답
func (p *CachedProvider) Fetch(ctx context.Context, symbol string, window int) (risk.ReturnSeries, error) {
	key := redis.ReturnSeriesKey(symbol, window, p.now())
	log := p.logger.WithField("key", key)

	var hit cachedSeries
	found, err := p.cache.Get(ctx, key, &hit)
	if err != nil {
		log.WithError(err).Warn("cache read failed")
	}
	if found {
		series, err := risk.NewReturnSeries(hit.Returns, hit.ReturnType)
		if err == nil {
			log.Debug("cache hit")
			return series, nil
		}
		log.WithError(err).Warn("discarding invalid cache entry")
	}

	series, err := p.inner.Fetch(ctx, symbol, window)
	if err != nil {
		return risk.ReturnSeries{}, err
	}

	entry := cachedSeries{Returns: series.Values(), ReturnType: series.Type()}
	if err := p.cache.Set(ctx, key, entry, p.ttl); err != nil {
		log.WithError(err).Warn("cache write failed")
	}
	return series, nil
}
