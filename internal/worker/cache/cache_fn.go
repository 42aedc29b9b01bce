// Package cache 提供批量读穿缓存。缓存只是优化，任何一层失败
// 都退化为直接计算，不影响正确性
package cache

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store 两级缓存：进程内go-cache加共享redis
type Store struct {
	rdb    *redis.Client
	local  *gocache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewStore(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		rdb:    rdb,
		local:  gocache.New(ttl, 2*ttl),
		ttl:    ttl,
		logger: logger,
	}
}

// ComputeFunc 对一批缓存未命中的id做一次批量计算
type ComputeFunc[T any] func(ctx context.Context, missing []string) ([]T, error)

// Results 批量读穿。命中走缓存，未命中合成一次compute调用，
// 算完回写两级缓存再返回。整个调用最多触发一次compute
func Results[T any](ctx context.Context, store *Store, prefix string, ids []string, idOf func(T) string, compute ComputeFunc[T]) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	results := make([]T, 0, len(ids))
	var missing []string
	var redisKeys []string

	// 先查本地缓存
	for _, id := range ids {
		if cached, found := store.local.Get(prefix + id); found {
			if value, ok := cached.(T); ok {
				results = append(results, value)
				continue
			}
		}
		missing = append(missing, id)
	}

	// 本地未命中的批量查redis
	if len(missing) > 0 && store.rdb != nil {
		redisKeys = make([]string, len(missing))
		for i, id := range missing {
			redisKeys[i] = prefix + id
		}

		values, err := store.rdb.MGet(ctx, redisKeys...).Result()
		if err != nil {
			// redis挂了当全部未命中
			store.logger.Warn("cache mget failed", zap.String("prefix", prefix), zap.Error(err))
		} else {
			stillMissing := missing[:0]
			for i, raw := range values {
				encoded, ok := raw.(string)
				if !ok {
					stillMissing = append(stillMissing, missing[i])
					continue
				}
				var value T
				if err := sonic.UnmarshalString(encoded, &value); err != nil {
					store.logger.Warn("cache entry corrupted",
						zap.String("key", redisKeys[i]), zap.Error(err))
					stillMissing = append(stillMissing, missing[i])
					continue
				}
				store.local.Set(prefix+missing[i], value, gocache.DefaultExpiration)
				results = append(results, value)
			}
			missing = stillMissing
		}
	}

	if len(missing) == 0 {
		return results, nil
	}

	// 未命中的合成一次批量计算
	computed, err := compute(ctx, missing)
	if err != nil {
		return nil, err
	}

	if len(computed) > 0 {
		writeBack(ctx, store, prefix, computed, idOf)
	}

	return append(results, computed...), nil
}

// writeBack 回写两级缓存，redis失败只记日志
func writeBack[T any](ctx context.Context, store *Store, prefix string, values []T, idOf func(T) string) {
	var pipe redis.Pipeliner
	if store.rdb != nil {
		pipe = store.rdb.Pipeline()
	}

	for _, value := range values {
		key := prefix + idOf(value)
		store.local.Set(key, value, gocache.DefaultExpiration)

		if pipe == nil {
			continue
		}
		encoded, err := sonic.MarshalString(value)
		if err != nil {
			store.logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
			continue
		}
		pipe.SetEx(ctx, key, encoded, store.ttl)
	}

	if pipe != nil {
		if _, err := pipe.Exec(ctx); err != nil {
			store.logger.Warn("cache write back failed", zap.String("prefix", prefix), zap.Error(err))
		}
	}
}
